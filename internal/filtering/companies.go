package filtering

import (
	"context"
	"strings"

	"github.com/spigell/job-matcher/internal/matcher"
)

type companiesFilter struct {
	companies map[string]struct{}
	names     []string
}

// NewExcludedCompanies creates a filter that hides postings from the given companies.
// Company names are compared case-insensitively.
func NewExcludedCompanies(companies []string) Filter {
	f := &companiesFilter{companies: make(map[string]struct{}, len(companies))}
	for _, c := range companies {
		name := strings.TrimSpace(c)
		if name == "" {
			continue
		}
		f.companies[strings.ToLower(name)] = struct{}{}
		f.names = append(f.names, name)
	}

	return f
}

func (f *companiesFilter) Name() string { return "excluded_companies" }

func (f *companiesFilter) IsEnabled() bool { return len(f.companies) > 0 }

func (f *companiesFilter) Validate() error { return nil }

func (f *companiesFilter) Apply(_ context.Context, r *matcher.Results) (*matcher.Results, Step, error) {
	filtered, step := keep(r, func(item *matcher.Result) bool {
		_, excluded := f.companies[strings.ToLower(strings.TrimSpace(item.Company))]
		return !excluded
	})

	return filtered, step, nil
}

func (f *companiesFilter) Status() Status {
	details := map[string]string{}
	if len(f.names) > 0 {
		details["companies"] = strings.Join(f.names, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Details: details}
}
