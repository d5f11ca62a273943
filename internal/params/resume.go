package params

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

const (
	MediaTypeText = "text/plain"
	MediaTypePDF  = "application/pdf"
	MediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// AcceptedMediaTypes lists the résumé formats the matching service can parse.
var AcceptedMediaTypes = []string{MediaTypeText, MediaTypePDF, MediaTypeDOCX}

var (
	ErrEmptyResume       = errors.New("resume file is empty")
	ErrUnsupportedResume = errors.New("unsupported resume media type")
)

// Resume is an opaque résumé payload together with its declared media type.
type Resume struct {
	Name      string
	MediaType string
	Data      []byte
}

// LoadResume reads a résumé from disk and detects its media type from the content.
func LoadResume(path string) (*Resume, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading resume file %q: %w", path, err)
	}

	return NewResume(filepath.Base(path), data)
}

// NewResume validates the payload against AcceptedMediaTypes. Detected types are
// matched through their parents, so text that looks like csv or html is still
// sent as text/plain.
func NewResume(name string, data []byte) (*Resume, error) {
	if len(data) == 0 {
		return nil, ErrEmptyResume
	}

	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		for _, accepted := range AcceptedMediaTypes {
			if m.Is(accepted) {
				return &Resume{
					Name:      name,
					MediaType: accepted,
					Data:      data,
				}, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %s (accepted: txt, pdf, docx)", ErrUnsupportedResume, detected.String())
}

func (r *Resume) clone() *Resume {
	if r == nil {
		return nil
	}

	data := make([]byte, len(r.Data))
	copy(data, r.Data)

	return &Resume{
		Name:      r.Name,
		MediaType: r.MediaType,
		Data:      data,
	}
}
