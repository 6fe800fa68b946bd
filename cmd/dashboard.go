package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/narrate/internal/models"
	"github.com/desertthunder/narrate/internal/shared"
	"github.com/desertthunder/narrate/internal/store"
	"github.com/desertthunder/narrate/internal/tasks"
	"github.com/desertthunder/narrate/internal/ui"
	"github.com/desertthunder/narrate/internal/voices"
)

const defaultDashboardLog = "narrate-dashboard.log"

// Dashboard launches the interactive terminal UI.
//
// Logs go to a file while the UI owns the terminal, so dependencies are
// opened here rather than in a Before hook.
func (r *Runner) Dashboard(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("log-file")
	if path == "" {
		path = r.config.Log.File
	}
	if path == "" {
		path = defaultDashboardLog
	}

	fileLogger, closer, err := shared.NewFileLogger(path)
	if err != nil {
		return err
	}
	defer closer.Close()
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	if err := r.open(ctx); err != nil {
		return err
	}
	if _, err := r.token(ctx); err != nil {
		return err
	}

	updates := make(chan tasks.ProgressUpdate, 64)
	actions := &dashboardActions{
		r:      r,
		format: r.formatWorkflow(updates),
		audio:  r.audioWorkflow(updates),
	}
	actions.resume(ctx)

	model := ui.NewModel(ctx, actions, updates)
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("error running dashboard: %w", err)
	}
	return nil
}

// dashboardActions implements [ui.Actions] on top of the runner's workflows.
type dashboardActions struct {
	r      *Runner
	format *tasks.FormatWorkflow
	audio  *tasks.AudioWorkflow
}

// resume picks up jobs left pending by an earlier run.
func (d *dashboardActions) resume(ctx context.Context) {
	if store.GetString(ctx, d.r.store, store.KeyFormatTaskID) != "" {
		if _, err := d.format.Resume(ctx); err != nil {
			d.r.logger.Warn("could not resume format job", "error", err)
		}
	}
	if store.GetString(ctx, d.r.store, store.KeyAudioTaskID) != "" {
		if _, err := d.audio.Resume(ctx); err != nil {
			d.r.logger.Warn("could not resume audio job", "error", err)
		}
	}
}

// Load fetches the script, audio, voices, quota and assignment concurrently.
// Only a missing sign-in fails the load; other failures become warnings.
func (d *dashboardActions) Load(ctx context.Context) (*ui.Overview, error) {
	token, err := d.r.token(ctx)
	if err != nil {
		return nil, err
	}

	ov := &ui.Overview{}
	var mu sync.Mutex
	warn := func(what string, err error) error {
		if errors.Is(err, shared.ErrNeedsSignIn) {
			return err
		}
		d.r.logger.Warn("dashboard load", "part", what, "error", err)
		mu.Lock()
		ov.Warnings = append(ov.Warnings, fmt.Sprintf("%s: %v", what, err))
		mu.Unlock()
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		script, err := d.r.currentScript(gctx)
		if err != nil {
			if errors.Is(err, shared.ErrNoScript) {
				return nil
			}
			return warn("script", err)
		}
		a, err := d.r.currentAssignment(gctx, script)
		if err != nil {
			return warn("voice assignment", err)
		}
		mu.Lock()
		ov.Script, ov.Assignment = script, a
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		audio, err := d.r.currentAudio(gctx)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil
			}
			return warn("audio", err)
		}
		mu.Lock()
		ov.Audio = audio
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		list, err := d.r.api.Voices(gctx, token)
		if err != nil {
			return warn("voices", err)
		}
		mu.Lock()
		ov.Voices = list
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		if err := d.r.subs.Refresh(gctx); err != nil {
			return warn("subscription", err)
		}
		sub, _ := d.r.subs.Current()
		mu.Lock()
		ov.Subscription = sub
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ov, nil
}

// Upload validates path and submits it for formatting.
func (d *dashboardActions) Upload(ctx context.Context, path string) error {
	cfg := d.r.config.Uploads
	up, err := shared.ValidateUpload(path, cfg.MaxBytes, cfg.AllowedTypes)
	if err != nil {
		return err
	}
	if err := d.format.Submit(ctx, up); err != nil {
		return d.submitError(d.format.Snapshot().Message, err)
	}
	return nil
}

// Generate submits the current script, allowing speakers without a voice.
func (d *dashboardActions) Generate(ctx context.Context) error {
	req, err := d.r.audioRequest(ctx, true)
	if err != nil {
		return err
	}
	if err := d.audio.Submit(ctx, req); err != nil {
		return d.submitError(d.audio.Snapshot().Message, err)
	}
	return nil
}

// Cancel stops the running job of kind.
func (d *dashboardActions) Cancel(ctx context.Context, kind models.JobKind) error {
	switch kind {
	case models.JobKindFormat:
		return d.format.Cancel(ctx)
	case models.JobKindAudio:
		return d.audio.Cancel(ctx)
	default:
		return fmt.Errorf("%w: job kind %q", shared.ErrInvalidArgument, kind)
	}
}

// AutoAssign casts the current script and saves the result.
func (d *dashboardActions) AutoAssign(ctx context.Context) (voices.Assignment, error) {
	script, err := d.r.currentScript(ctx)
	if err != nil {
		return nil, err
	}
	list, err := d.r.availableVoices(ctx)
	if err != nil {
		return nil, err
	}
	a := voices.AutoAssign(script.Speakers, list)
	if err := d.r.assignments.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (d *dashboardActions) submitError(message string, err error) error {
	if errors.Is(err, shared.ErrJobCancelled) || message == "" || errors.Is(err, shared.ErrNeedsSignIn) {
		return err
	}
	return fmt.Errorf("%s: %w", message, err)
}
