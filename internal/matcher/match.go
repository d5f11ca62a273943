package matcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spigell/job-matcher/internal/params"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	OpSubmitMatch = "submit match"

	resumeField     = "resume"
	thresholdField  = "threshold"
	entryLevelField = "entryLevel"
	defaultFilename = "resume"
)

var errNoResume = errors.New("resume is required")

// Result is one posting returned by the remote scorer.
type Result struct {
	Title   string  `json:"title"`
	Company string  `json:"company"`
	Score   float64 `json:"score"`
	Link    string  `json:"link"`
}

// Results keeps the order the remote service returned; that order is the ranking.
type Results struct {
	Items []*Result
}

// SubmitMatch uploads the résumé with the snapshot's threshold and entry-level flag
// and returns the ranked postings.
func (c *Client) SubmitMatch(ctx context.Context, snap params.Snapshot) (*Results, error) {
	if !snap.HasResume() {
		return nil, errNoResume
	}

	filename := snap.Resume.Name
	if filename == "" {
		filename = defaultFilename
	}

	file := &formFile{
		field:       resumeField,
		filename:    filename,
		contentType: snap.Resume.MediaType,
		data:        snap.Resume.Data,
	}

	fields := []formField{
		{name: thresholdField, value: params.FormatThreshold(params.NormalizeThreshold(snap.Threshold))},
		{name: entryLevelField, value: strconv.FormatBool(snap.EntryLevelOnly)},
	}

	c.logger.Debug("submitting resume for matching",
		zap.String("resume", filename),
		zap.String("media_type", snap.Resume.MediaType),
		zap.Int("resume_size", len(snap.Resume.Data)),
		zap.String(thresholdField, fields[0].value),
		zap.String(entryLevelField, fields[1].value),
	)

	data, err := c.postMultipart(ctx, OpSubmitMatch, c.url(matchPath), file, fields)
	if err != nil {
		return nil, wrapRequestError(OpSubmitMatch, err)
	}

	results, err := decodeResults(data)
	if err != nil {
		return nil, &DecodeError{Op: OpSubmitMatch, Err: err}
	}

	c.logger.Debug("got matched jobs", zap.Int("count", results.Len()))

	return results, nil
}

// resultKeys are the json keys every matched job must carry.
var resultKeys = []string{"title", "company", "score", "link"}

func decodeResults(data []byte) (*Results, error) {
	var items []map[string]any
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}

	if items == nil {
		return nil, errors.New("expected a json array of matched jobs")
	}

	for idx, item := range items {
		if item == nil {
			return nil, fmt.Errorf("item %d is null", idx)
		}
		for _, key := range resultKeys {
			if v, ok := item[key]; ok && v == nil {
				return nil, fmt.Errorf("item %d: %q is null", idx, key)
			}
		}
	}

	var results []*Result
	cfg := &mapstructure.DecoderConfig{
		Metadata:   nil,
		Result:     &results,
		TagName:    "json",
		ErrorUnset: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(items); err != nil {
		return nil, err
	}

	if results == nil {
		results = []*Result{}
	}

	return &Results{
		Items: results,
	}, nil
}

func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Items)
}

func (r *Results) Titles() []string {
	titles := make([]string, 0, r.Len())
	if r == nil {
		return titles
	}

	for _, v := range r.Items {
		titles = append(titles, v.Title)
	}

	return titles
}

// Clone returns a deep copy so callers can never mutate a published list.
func (r *Results) Clone() *Results {
	if r == nil {
		return &Results{Items: []*Result{}}
	}

	items := make([]*Result, 0, len(r.Items))
	for _, v := range r.Items {
		item := *v
		items = append(items, &item)
	}

	return &Results{Items: items}
}

func (r *Results) FindByLink(link string) *Result {
	if r == nil {
		return nil
	}

	for _, result := range r.Items {
		if result.Link == link {
			return result
		}
	}
	return nil
}

// ReportByCompany groups results by company keeping the ranking inside each group.
func (r *Results) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	if r == nil {
		return report
	}

	for idx, result := range r.Items {
		report[result.Company] = append(report[result.Company], map[string]string{
			"rank":  strconv.Itoa(idx + 1),
			"title": result.Title,
			"score": strconv.FormatFloat(result.Score, 'f', 2, 64),
			"link":  result.Link,
		})
	}
	return report
}

func (r *Results) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "matched_jobs_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.Clone().Items); err != nil {
		return "", err
	}
	return file.Name(), nil
}
