package cmd

import (
	"context"
	"os"

	"github.com/spigell/job-matcher/internal/view"
	"github.com/spigell/job-matcher/internal/workflow"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match the resume once and print the ranked jobs",
	Run: func(_ *cobra.Command, _ []string) {
		match()
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().Bool("refresh", false, "refresh the job corpus before matching")

	viper.BindPFlag("match-refresh", matchCmd.Flags().Lookup("refresh"))
}

func match() {
	ctx := context.Background()

	logger, config := setup()

	s, err := newSession(config, logger)
	if err != nil {
		logger.Fatal("preparing the session", zap.Error(err))
	}

	var report *workflow.Report
	if viper.GetBool("match-refresh") {
		report, err = s.orchestrator.RunRefreshAndMatch(ctx)
		if printErr := view.Refresh(os.Stdout, report); printErr != nil {
			logger.Fatal("printing refresh summary", zap.Error(printErr))
		}
	} else {
		report, err = s.orchestrator.RunMatch(ctx)
	}

	if err != nil {
		logger.Fatal(view.Error(err), zap.Error(err))
	}

	results, err := s.displayed(ctx)
	if err != nil {
		logger.Fatal("filtering results", zap.Error(err))
	}

	logger.Debug("match finished", zap.String("run_id", report.RunID), zap.Int("matched", report.Results.Len()), zap.Int("shown", results.Len()))

	if err := view.Results(os.Stdout, results); err != nil {
		logger.Fatal("printing results", zap.Error(err))
	}
}
