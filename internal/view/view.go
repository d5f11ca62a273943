// Package view renders workflow state and matched jobs as terminal text.
package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/spigell/job-matcher/internal/matcher"
	"github.com/spigell/job-matcher/internal/params"
	"github.com/spigell/job-matcher/internal/workflow"
)

const (
	TriggerIdle       = "Find & refresh jobs"
	TriggerRefreshing = "Refreshing jobs..."
	TriggerMatching   = "Matching resume..."
)

// TriggerLabel is the label of the single trigger action for the given state.
func TriggerLabel(state workflow.State) string {
	switch state {
	case workflow.Refreshing:
		return TriggerRefreshing
	case workflow.Matching:
		return TriggerMatching
	default:
		return TriggerIdle
	}
}

// Parameters renders the current matching parameters and corpus size.
func Parameters(w io.Writer, snap params.Snapshot, jobCount int) error {
	resume := "not selected"
	if snap.HasResume() {
		resume = fmt.Sprintf("%s (%s, %d bytes)", snap.Resume.Name, snap.Resume.MediaType, len(snap.Resume.Data))
	}

	_, err := fmt.Fprintf(w, "Resume: %s\nMatch threshold: %s\nEntry-level only: %t\nJobs in corpus: %d\n",
		resume, params.FormatThreshold(snap.Threshold), snap.EntryLevelOnly, jobCount)
	return err
}

// Refresh renders the refresh summary of a report. Nothing is written for match-only runs.
func Refresh(w io.Writer, report *workflow.Report) error {
	if report == nil || !report.Refreshed {
		return nil
	}

	line := fmt.Sprintf("Jobs refreshed. New jobs added: %d. Jobs in corpus: %d", report.NewJobs, report.JobCount)
	if report.JobCountErr != nil {
		line += " (count may be stale)"
	}

	_, err := fmt.Fprintln(w, line)
	return err
}

// Results renders the matched jobs in the order given.
func Results(w io.Writer, r *matcher.Results) error {
	if r.Len() == 0 {
		_, err := fmt.Fprintln(w, "No matched jobs.")
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Matched jobs (%d):\n", r.Len())
	for idx, item := range r.Items {
		fmt.Fprintf(&b, "%3d. %s\n     %s\n     Match score: %.2f\n     Apply: %s\n",
			idx+1, item.Title, item.Company, item.Score, item.Link)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
