package filtering

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spigell/job-matcher/internal/matcher"
)

// ExcludedJobs is the on-disk list of postings the user chose to hide.
type ExcludedJobs struct {
	Items []*ExcludedJob
}

type ExcludedJob struct {
	Link       string
	Title      string
	Company    string
	ExcludedAt time.Time
}

// ToExcluded converts results into exclude file entries.
func ToExcluded(r *matcher.Results) *ExcludedJobs {
	excluded := &ExcludedJobs{}
	for _, item := range r.Items {
		excluded.Items = append(excluded.Items, &ExcludedJob{
			Link:       item.Link,
			Title:      item.Title,
			Company:    item.Company,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}

// LoadExcludedJobs reads the exclude file. A missing or empty file is an empty list.
func LoadExcludedJobs(path string) (*ExcludedJobs, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ExcludedJobs{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedJobs{}, nil
	}

	var excluded ExcludedJobs
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

// Append adds entries whose link is not already listed.
func (e *ExcludedJobs) Append(s *ExcludedJobs) {
	seen := make(map[string]struct{}, len(e.Items))
	for _, item := range e.Items {
		seen[item.Link] = struct{}{}
	}

	for _, item := range s.Items {
		if _, ok := seen[item.Link]; ok {
			continue
		}
		seen[item.Link] = struct{}{}
		e.Items = append(e.Items, item)
	}
}

func (e *ExcludedJobs) Links() []string {
	links := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		links = append(links, item.Link)
	}
	return links
}

func (e *ExcludedJobs) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

type excludeFileFilter struct {
	path string
}

// NewExcludeFile creates a filter that hides postings listed in the exclude file.
func NewExcludeFile(path string) Filter {
	return &excludeFileFilter{
		path: strings.TrimSpace(path),
	}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) IsEnabled() bool { return f.path != "" }

func (f *excludeFileFilter) Validate() error {
	info, err := os.Stat(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("exclude file %q is a directory", f.path)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, r *matcher.Results) (*matcher.Results, Step, error) {
	excluded, err := LoadExcludedJobs(f.path)
	if err != nil {
		return r, Step{}, fmt.Errorf("getting excluded jobs from file: %w", err)
	}

	links := make(map[string]struct{}, len(excluded.Items))
	for _, link := range excluded.Links() {
		links[link] = struct{}{}
	}

	filtered, step := keep(r, func(item *matcher.Result) bool {
		_, hidden := links[item.Link]
		return !hidden
	})

	return filtered, step, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Details: details}
}
