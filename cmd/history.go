package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/narrate/internal/models"
	"github.com/desertthunder/narrate/internal/shared"
)

type historyEntry struct {
	Kind       models.JobKind `json:"kind"`
	TaskID     string         `json:"task_id"`
	Status     string         `json:"status"`
	Message    string         `json:"message,omitempty"`
	Result     string         `json:"result,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Duration   string         `json:"duration,omitempty"`
}

// History lists finished jobs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	kind := models.JobKind(cmd.String("kind"))
	if kind != "" && !kind.Valid() {
		return fmt.Errorf("%w: --kind must be format or audio", shared.ErrInvalidFlag)
	}
	status := cmd.String("status")
	switch status {
	case "", models.JobStatusSucceeded, models.JobStatusFailed, models.JobStatusCancelled:
	default:
		return fmt.Errorf("%w: --status must be succeeded, failed or cancelled", shared.ErrInvalidFlag)
	}

	jobs, err := r.jobs.List(map[string]any{
		"kind":   kind,
		"status": status,
		"limit":  cmd.Int("limit"),
	})
	if err != nil {
		return err
	}

	entries := make([]historyEntry, 0, len(jobs))
	for _, j := range jobs {
		e := historyEntry{
			Kind:       j.Kind(),
			TaskID:     j.TaskID(),
			Status:     j.Status(),
			Message:    j.Message(),
			Result:     j.ResultName(),
			FinishedAt: j.FinishedAt(),
		}
		if d := j.Duration(); d > 0 {
			e.Duration = d.Round(time.Second).String()
		}
		entries = append(entries, e)
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	if len(entries) == 0 {
		return r.writePlain("No jobs recorded yet.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Job history (%d)", len(entries)))
	for _, e := range entries {
		when := "-"
		if e.FinishedAt != nil {
			when = e.FinishedAt.Local().Format("2006-01-02 15:04")
		}
		r.writePlain("%s  %-6s  %-9s  %-8s  %s\n", when, e.Kind, e.Status, e.Duration, e.Result)
	}
	return nil
}
