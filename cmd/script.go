package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/narrate/internal/formatter"
	"github.com/desertthunder/narrate/internal/models"
	"github.com/desertthunder/narrate/internal/services"
	"github.com/desertthunder/narrate/internal/shared"
	"github.com/desertthunder/narrate/internal/store"
	"github.com/desertthunder/narrate/internal/tasks"
	"github.com/desertthunder/narrate/internal/voices"
)

// ScriptUpload submits a script for formatting and follows the job.
func (r *Runner) ScriptUpload(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path to a script file", shared.ErrMissingArgument)
	}

	up, err := shared.ValidateUpload(path, r.config.Uploads.MaxBytes, r.config.Uploads.AllowedTypes)
	if err != nil {
		return err
	}
	r.logger.Info("uploading script", "file", up.Name, "type", up.MIMEType, "bytes", up.Size)

	interrupt, stop := interruptContext(ctx)
	defer stop()

	updates := make(chan tasks.ProgressUpdate, 64)
	wf := r.formatWorkflow(updates)

	if err := submit(ctx, interrupt, r, wf, up); err != nil {
		return r.submitFailed(wf.Snapshot().Message, err)
	}

	if cmd.Bool("detach") {
		snap := wf.Snapshot()
		return r.writePlain("✓ Format job %s submitted. Run `narrate script status` to follow it.\n", snap.TaskID)
	}

	snap, err := follow(ctx, interrupt, r, wf, updates)
	if err != nil {
		return finish(r, snap, err)
	}
	return r.scriptLoaded(ctx, snap.Result)
}

// ScriptStatus follows a pending format job, or shows the last script when none is pending.
func (r *Runner) ScriptStatus(ctx context.Context, cmd *cli.Command) error {
	interrupt, stop := interruptContext(ctx)
	defer stop()

	updates := make(chan tasks.ProgressUpdate, 64)
	wf := r.formatWorkflow(updates)

	resumed, err := wf.Resume(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNoResult) {
			return r.writePlain("No format job is pending and no script has been formatted yet.\n")
		}
		return err
	}

	if !resumed {
		script, _ := wf.Result()
		r.writePlain("No format job is pending.\n\n")
		return r.printScript(ctx, script, false)
	}

	snap, err := follow(ctx, interrupt, r, wf, updates)
	if err != nil {
		return finish(r, snap, err)
	}
	return r.scriptLoaded(ctx, snap.Result)
}

// ScriptCancel cancels the pending format job, possibly started by another invocation.
func (r *Runner) ScriptCancel(ctx context.Context, cmd *cli.Command) error {
	if store.GetString(ctx, r.store, store.KeyFormatTaskID) == "" {
		return r.writePlain("No format job is pending.\n")
	}
	return cancelPending(ctx, r, r.formatWorkflow(nil))
}

// ScriptShow prints the last formatted script with its speakers and voices.
func (r *Runner) ScriptShow(ctx context.Context, cmd *cli.Command) error {
	script, err := r.currentScript(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		a, err := r.currentAssignment(ctx, script)
		if err != nil {
			return err
		}
		out := map[string]any{
			"file_name":  script.FileName,
			"speakers":   script.Speakers,
			"assignment": a,
		}
		if cmd.Bool("text") {
			out["script"] = script.Text
		}
		return r.writeJSON(out, true)
	}

	return r.printScript(ctx, script, cmd.Bool("text"))
}

// ScriptExport writes the script and casting to a file.
func (r *Runner) ScriptExport(ctx context.Context, cmd *cli.Command) error {
	script, err := r.currentScript(ctx)
	if err != nil {
		return err
	}
	a, err := r.currentAssignment(ctx, script)
	if err != nil {
		return err
	}

	export := &formatter.ScriptExport{Script: script, Assignment: a}
	if token, err := r.token(ctx); err == nil {
		if list, err := r.api.Voices(ctx, token); err != nil {
			r.logger.Warn("exporting without voice names", "error", err)
		} else {
			export.Voices = list
		}
	}

	path, err := formatter.WriteExport(export, cmd.String("format"), cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("script exported", "path", path, "format", cmd.String("format"))
	return r.writePlain("✓ Script exported to %s\n", path)
}

// cancelPending picks up the stored job and cancels it.
func cancelPending[In, Out any](ctx context.Context, r *Runner, wf *tasks.Workflow[In, Out]) error {
	resumed, err := wf.Resume(ctx)
	if err != nil {
		return err
	}
	if !resumed {
		return r.writePlain("No %s job is pending.\n", wf.Kind())
	}

	r.writePlain("→ Cancelling %s job %s...\n", wf.Kind(), wf.Snapshot().TaskID)
	cancelErr := wf.Cancel(ctx)
	snap := wf.Snapshot()
	if cancelErr != nil && !errors.Is(cancelErr, shared.ErrNoActiveJob) {
		return fmt.Errorf("%s: %w", snap.Message, cancelErr)
	}
	return r.writePlain("⚠ %s\n", snap.Message)
}

// submitFailed reports a submission that did not start a job.
func (r *Runner) submitFailed(message string, err error) error {
	if errors.Is(err, shared.ErrJobCancelled) {
		if message != "" {
			r.writePlain("⚠ %s\n", message)
		}
		return nil
	}
	return err
}

// scriptLoaded resets the voice assignment for a newly formatted script and prints it.
func (r *Runner) scriptLoaded(ctx context.Context, script *models.Script) error {
	if script == nil {
		return shared.ErrNoScript
	}
	if err := r.assignments.Save(ctx, voices.New(script.SpeakerNames())); err != nil {
		r.logger.Warn("failed to reset voice assignment", "error", err)
	}
	r.writePlain("\n")
	if err := r.printScript(ctx, script, false); err != nil {
		return err
	}
	return r.writePlain("\nNext: `narrate voices auto` to cast voices, then `narrate audio generate`.\n")
}

// currentScript fetches the last formatted script.
func (r *Runner) currentScript(ctx context.Context) (*models.Script, error) {
	token, err := r.token(ctx)
	if err != nil {
		return nil, err
	}
	script, err := r.api.LatestScript(ctx, token)
	if err != nil {
		if apiErr, ok := services.AsAPIError(err); ok && apiErr.StatusCode == 404 {
			return nil, fmt.Errorf("%w: upload one with `narrate script upload`", shared.ErrNoScript)
		}
		return nil, err
	}
	return script, nil
}

// currentAssignment loads the stored assignment and aligns it with the script's speakers.
func (r *Runner) currentAssignment(ctx context.Context, script *models.Script) (voices.Assignment, error) {
	stored, err := r.assignments.Load(ctx)
	if err != nil {
		return nil, err
	}

	a := voices.Reconcile(stored, script.SpeakerNames())
	if !slices.Equal(a.Speakers(), stored.Speakers()) {
		if err := r.assignments.Save(ctx, a); err != nil {
			r.logger.Warn("failed to save reconciled assignment", "error", err)
		}
	}
	return a, nil
}

func (r *Runner) printScript(ctx context.Context, script *models.Script, withText bool) error {
	if script == nil {
		return r.writePlain("No script has been formatted yet.\n")
	}

	a, err := r.currentAssignment(ctx, script)
	if err != nil {
		return err
	}

	r.writePlainHeader(script.DisplayName())
	r.writePlain("Speakers: %d\n", len(script.Speakers))
	for i, sp := range script.Speakers {
		voice, _ := a.Get(sp.Name)
		if voice == "" {
			voice = "unassigned"
		}
		r.writePlain("  %d. %s (%s) → %s\n", i+1, sp.Name, sp.Gender, voice)
	}

	if withText {
		r.writePlain("\n%s\n", strings.TrimRight(script.Text, "\n"))
	}
	return nil
}
