package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/desertthunder/narrate/internal/shared"
	"github.com/desertthunder/narrate/internal/tasks"
)

const barWidth = 30

type waitResult[Out any] struct {
	snap tasks.Snapshot[Out]
	err  error
}

// interruptContext is cancelled on Ctrl-C or SIGTERM.
func interruptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// submit starts wf with in. Interrupting before the job is accepted cancels it;
// polling runs on ctx so a later interrupt is handled by follow.
func submit[In, Out any](ctx, interrupt context.Context, r *Runner, wf *tasks.Workflow[In, Out], in In) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-interrupt.Done():
			if err := wf.Cancel(ctx); err != nil && !errors.Is(err, shared.ErrNoActiveJob) {
				r.logger.Warn("cancel during submission failed", "error", err)
			}
		case <-done:
		}
	}()
	return wf.Submit(ctx, in)
}

// follow prints progress until wf ends. Interrupting cancels the job instead of leaving it running.
func follow[In, Out any](ctx, interrupt context.Context, r *Runner, wf *tasks.Workflow[In, Out], updates <-chan tasks.ProgressUpdate) (tasks.Snapshot[Out], error) {
	waitCh := make(chan waitResult[Out], 1)
	go func() {
		snap, err := wf.Wait(ctx)
		waitCh <- waitResult[Out]{snap, err}
	}()

	p := &progressPrinter{r: r, last: -1}
	interrupted := interrupt.Done()
	for {
		select {
		case u := <-updates:
			p.print(u)
		case <-interrupted:
			interrupted = nil
			r.writePlain("\n→ Cancelling %s job...\n", wf.Kind())
			if err := wf.Cancel(ctx); err != nil && !errors.Is(err, shared.ErrNoActiveJob) {
				r.logger.Warn("cancel request failed", "error", err)
			}
		case res := <-waitCh:
			for {
				select {
				case u := <-updates:
					p.print(u)
				default:
					return res.snap, res.err
				}
			}
		}
	}
}

// finish turns a job outcome into the command result.
// A cancelled job is not an error; its message carries the quota warning.
// Failures are printed once, by main.
func finish[Out any](r *Runner, snap tasks.Snapshot[Out], err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, shared.ErrJobCancelled):
		return nil
	case errors.Is(err, shared.ErrNeedsSignIn):
		if snap.TaskID != "" {
			r.writePlain("The job is still running on the server; sign in and run `status` to follow it.\n")
		}
		return err
	case snap.Message != "" && !strings.Contains(err.Error(), snap.Message):
		return fmt.Errorf("%s: %w", snap.Message, err)
	default:
		return err
	}
}

type progressPrinter struct {
	r    *Runner
	last int
}

func (p *progressPrinter) print(u tasks.ProgressUpdate) {
	switch u.State {
	case tasks.Submitting:
		p.r.writePlain("→ %s\n", u.Message)
	case tasks.Polling:
		pct := int(u.Progress)
		if pct == p.last {
			return
		}
		if p.last < 0 && u.TaskID != "" {
			p.r.writePlain("→ Job %s accepted, waiting for the server...\n", u.TaskID)
		}
		p.last = pct
		p.r.writePlain("  %s %3d%%\n", bar(u.Progress), pct)
	case tasks.Succeeded:
		p.r.writePlain("✓ %s\n", u.Message)
	case tasks.Cancelled:
		p.r.writePlain("⚠ %s\n", u.Message)
	case tasks.Idle:
		if u.Message != "" {
			p.r.writePlain("⚠ %s\n", u.Message)
		}
	}
}

func bar(pct float64) string {
	filled := min(max(int(pct/100*barWidth), 0), barWidth)
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled) + "]"
}
