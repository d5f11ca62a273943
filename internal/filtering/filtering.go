// Package filtering hides matched jobs from the displayed list. Filters work on
// a copy and never reorder: the remote ranking is kept for whatever is left.
package filtering

import (
	"context"
	"fmt"

	"github.com/spigell/job-matcher/internal/matcher"

	"go.uber.org/zap"
)

// Filter represents a single display filtering step.
type Filter interface {
	Name() string
	IsEnabled() bool

	Validate() error
	Apply(ctx context.Context, r *matcher.Results) (*matcher.Results, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

type Filtering struct {
	steps  []Filter
	logger *zap.Logger
}

func New(steps []Filter, logger *zap.Logger) *Filtering {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Filtering{
		steps:  steps,
		logger: logger,
	}
}

// RunFilters validates every enabled step and applies them in order to a copy of r.
func (f *Filtering) RunFilters(ctx context.Context, r *matcher.Results) (*matcher.Results, error) {
	for _, step := range f.steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	filtered := r.Clone()
	for _, step := range f.steps {
		if !step.IsEnabled() {
			f.logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, filtered)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		f.logger.Debug("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		filtered = next
	}

	return filtered, nil
}

// Describe returns status entries for the configured filters.
func (f *Filtering) Describe() []Status {
	statuses := make([]Status, 0, len(f.steps))
	for _, step := range f.steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// keep returns the items accepted by fn, in their original order.
func keep(r *matcher.Results, fn func(*matcher.Result) bool) (*matcher.Results, Step) {
	initial := r.Len()
	items := make([]*matcher.Result, 0, initial)
	for _, item := range r.Items {
		if fn(item) {
			items = append(items, item)
		}
	}

	return &matcher.Results{Items: items}, Step{Initial: initial, Dropped: initial - len(items), Left: len(items)}
}
