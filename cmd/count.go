package cmd

import (
	"context"
	"fmt"

	"github.com/spigell/job-matcher/internal/view"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of jobs in the remote corpus",
	Run: func(_ *cobra.Command, _ []string) {
		logger, config := setup()

		s, err := newSession(config, logger)
		if err != nil {
			logger.Fatal("preparing the session", zap.Error(err))
		}

		count, err := s.orchestrator.SyncJobCount(context.Background())
		if err != nil {
			logger.Fatal(view.Error(err), zap.Error(err))
		}

		fmt.Printf("Jobs in corpus: %d\n", count)
	},
}

func init() {
	rootCmd.AddCommand(countCmd)
}
