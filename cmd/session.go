package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/job-matcher/internal/filtering"
	"github.com/spigell/job-matcher/internal/matcher"
	"github.com/spigell/job-matcher/internal/params"
	"github.com/spigell/job-matcher/internal/workflow"

	"go.uber.org/zap"
)

// session wires one workflow instance for a single CLI invocation.
type session struct {
	config       *Config
	logger       *zap.Logger
	store        *params.Store
	client       *matcher.Client
	orchestrator *workflow.Orchestrator
	filters      *filtering.Filtering
}

func newSession(config *Config, logger *zap.Logger, opts ...workflow.Option) (*session, error) {
	baseURL := strings.TrimSpace(config.BaseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("base-url is required")
	}

	client := matcher.New(logger.Named("gateway"), baseURL)
	if config.UserAgent != "" {
		client.UserAgent = config.UserAgent
	}
	if config.Timeout > 0 {
		client.HTTPClient.Timeout = config.Timeout
	}

	store := params.New()
	store.SetThreshold(config.Match.Threshold)
	store.SetEntryLevelOnly(config.Match.EntryLevel)

	if path := strings.TrimSpace(config.Match.Resume); path != "" {
		resume, err := params.LoadResume(path)
		if err != nil {
			return nil, fmt.Errorf("loading resume: %w", err)
		}
		store.SetResume(resume)
	}

	var companies []string
	if config.Exclude != nil {
		companies = config.Exclude.Companies
	}

	return &session{
		config:       config,
		logger:       logger,
		store:        store,
		client:       client,
		orchestrator: workflow.New(store, client, logger.Named("workflow"), opts...),
		filters: filtering.New([]filtering.Filter{
			filtering.NewExcludedCompanies(companies),
			filtering.NewExcludeFile(config.ExcludeFile),
		}, logger.Named("filtering")),
	}, nil
}

// displayed returns the published results with display filters applied.
func (s *session) displayed(ctx context.Context) (*matcher.Results, error) {
	return s.filters.RunFilters(ctx, s.orchestrator.Results())
}
