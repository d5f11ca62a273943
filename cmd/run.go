package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spigell/job-matcher/internal/filtering"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/matcher"
	"github.com/spigell/job-matcher/internal/params"
	"github.com/spigell/job-matcher/internal/view"
	"github.com/spigell/job-matcher/internal/workflow"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptMatchOnly           = "Match only"
	PromptSelectResume        = "Select resume file"
	PromptSetThreshold        = "Set match threshold"
	PromptToggleEntryLevel    = "Toggle entry-level only"
	PromptShowParameters      = "Show parameters"
	PromptShowResults         = "Show matched jobs"
	PromptReportByCompany     = "Report by company"
	PromptAppendToExcludeFile = "Hide jobs (append to exclude file)"
	PromptResultsToFile       = "Dump matched jobs to file"
	PromptExit                = "Exit"
	PromptBack                = "back"
	PromptHideAll             = "Hide all shown jobs"
)

var errExit = errors.New("exit requested")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the interactive job matcher",
	Run: func(_ *cobra.Command, _ []string) {
		run()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// setup builds the logger and reads the config. Failures are fatal.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return logger, config
}

// run is the interactive command for the cli.
func run() {
	ctx := context.Background()

	logger, config := setup()
	logger.Info("starting the job-matcher", zap.String("version", version), zap.String("base_url", config.BaseURL))

	s, err := newSession(config, logger, workflow.WithTransitionHook(func(_, to workflow.State) {
		if to.Busy() {
			fmt.Fprintln(os.Stderr, view.TriggerLabel(to))
		}
	}))
	if err != nil {
		logger.Fatal("preparing the session", zap.Error(err))
	}

	for _, status := range s.filters.Describe() {
		logger.Info("display filter",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.Any("details", status.Details),
		)
	}

	if _, err := s.orchestrator.SyncJobCount(ctx); err != nil {
		logger.Warn("initial job count is unknown", zap.Error(err))
	}

	if err := view.Parameters(os.Stdout, s.store.Snapshot(), s.store.JobCount()); err != nil {
		logger.Fatal("printing parameters", zap.Error(err))
	}

	for {
		items := []string{
			view.TriggerLabel(s.orchestrator.State()),
			PromptMatchOnly,
			PromptSelectResume,
			PromptSetThreshold,
			PromptToggleEntryLevel,
			PromptShowParameters,
			PromptShowResults,
			PromptReportByCompany,
			PromptResultsToFile,
		}
		if strings.TrimSpace(config.ExcludeFile) != "" {
			items = append(items, PromptAppendToExcludeFile)
		}

		prompt := promptui.Select{
			Label: "Choose an action",
			Items: append(items, PromptExit),
			Size:  len(items) + 1,
		}

		_, action, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(ctx, action, s); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

// handleAction performs one menu action. Workflow failures are shown to the user
// and the loop continues; only prompt and file errors are returned.
func handleAction(ctx context.Context, action string, s *session) error {
	switch action {
	case view.TriggerIdle, view.TriggerRefreshing, view.TriggerMatching:
		return refreshAndMatch(ctx, os.Stdout, s)
	case PromptMatchOnly:
		_, err := s.orchestrator.RunMatch(ctx)
		return showOutcome(ctx, s, err)
	case PromptSelectResume:
		return selectResume(s)
	case PromptSetThreshold:
		return setThreshold(s)
	case PromptToggleEntryLevel:
		s.store.SetEntryLevelOnly(!s.store.Snapshot().EntryLevelOnly)
		fmt.Printf("Entry-level only: %t\n", s.store.Snapshot().EntryLevelOnly)
		return nil
	case PromptShowParameters:
		return view.Parameters(os.Stdout, s.store.Snapshot(), s.store.JobCount())
	case PromptShowResults:
		return showResults(ctx, s)
	case PromptReportByCompany:
		results, err := s.displayed(ctx)
		if err != nil {
			return err
		}
		pretty, _ := json.MarshalIndent(results.ReportByCompany(), "", "  ")
		s.logger.Info(string(pretty), zap.Int("matched jobs count", results.Len()))
		return nil
	case PromptResultsToFile:
		results, err := s.displayed(ctx)
		if err != nil {
			return err
		}
		filename, err := results.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		s.logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		return hideJobs(ctx, s)
	case PromptExit:
		s.logger.Info("exiting", zap.String("reason", "exit selected"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// refreshAndMatch runs the trigger and prints the refresh summary to w.
// Only a failure to print is returned.
func refreshAndMatch(ctx context.Context, w io.Writer, s *session) error {
	report, err := s.orchestrator.RunRefreshAndMatch(ctx)
	if printErr := view.Refresh(w, report); printErr != nil {
		return printErr
	}

	return showOutcome(ctx, s, err)
}

func showOutcome(ctx context.Context, s *session, err error) error {
	if err != nil {
		fmt.Fprintln(os.Stderr, view.Error(err))
		s.logger.Debug("workflow error", zap.Error(err))
	}

	// Previous results stay on screen after a failure.
	return showResults(ctx, s)
}

func showResults(ctx context.Context, s *session) error {
	results, err := s.displayed(ctx)
	if err != nil {
		return err
	}

	return view.Results(os.Stdout, results)
}

func selectResume(s *session) error {
	prompt := promptui.Prompt{
		Label: "Resume file path (txt, pdf, docx)",
		Validate: func(input string) error {
			info, err := os.Stat(strings.TrimSpace(input))
			if err != nil {
				return err
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", input)
			}
			return nil
		},
	}

	path, err := prompt.Run()
	if err != nil {
		return promptError(err)
	}

	resume, err := params.LoadResume(strings.TrimSpace(path))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil
	}

	s.store.SetResume(resume)
	s.logger.Info("resume selected", zap.String("resume", resume.Name), zap.String("media_type", resume.MediaType))
	return nil
}

func setThreshold(s *session) error {
	prompt := promptui.Prompt{
		Label:   fmt.Sprintf("Match threshold (%.1f-%.1f, step %.2f)", params.MinThreshold, params.MaxThreshold, params.ThresholdStep),
		Default: params.FormatThreshold(s.store.Snapshot().Threshold),
		Validate: func(input string) error {
			v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
			if err != nil {
				return errors.New("threshold must be a number")
			}
			if v < params.MinThreshold || v > params.MaxThreshold {
				return fmt.Errorf("threshold must be between %.1f and %.1f", params.MinThreshold, params.MaxThreshold)
			}
			return nil
		},
	}

	input, err := prompt.Run()
	if err != nil {
		return promptError(err)
	}

	v, _ := strconv.ParseFloat(strings.TrimSpace(input), 64)
	fmt.Printf("Match threshold: %s\n", params.FormatThreshold(s.store.SetThreshold(v)))
	return nil
}

func hideJobs(ctx context.Context, s *session) error {
	excludeFile := strings.TrimSpace(s.config.ExcludeFile)

	for {
		results, err := s.displayed(ctx)
		if err != nil {
			return err
		}

		items := make([]string, 0, results.Len()+2)
		for _, r := range results.Items {
			items = append(items, fmt.Sprintf("%s / %s / %s", r.Link, r.Title, r.Company))
		}
		if results.Len() != 0 {
			items = append(items, PromptHideAll)
		}

		jobPrompt := promptui.Select{
			Label: "Choose a job to hide and press ENTER",
			Items: append(items, PromptBack),
		}

		_, selected, err := jobPrompt.Run()
		if err != nil {
			return promptError(err)
		}

		hidden := &matcher.Results{}
		switch selected {
		case PromptBack:
			return nil
		case PromptHideAll:
			hidden = results
		default:
			link := strings.Split(selected, " ")[0]
			job := results.FindByLink(link)
			if job == nil {
				return fmt.Errorf("there is no such job %s", link)
			}
			hidden.Items = append(hidden.Items, job)
		}

		excluded, err := filtering.LoadExcludedJobs(excludeFile)
		if err != nil {
			return err
		}

		excluded.Append(filtering.ToExcluded(hidden))

		if err = excluded.ToFile(excludeFile); err != nil {
			return err
		}

		s.logger.Info("appended to exclude file", zap.String("filename", excludeFile), zap.Int("count", hidden.Len()))
	}
}

// promptError treats a cancelled prompt as going back to the menu.
func promptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		return nil
	}
	return err
}
