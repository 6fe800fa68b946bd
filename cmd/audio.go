package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/narrate/internal/models"
	"github.com/desertthunder/narrate/internal/services"
	"github.com/desertthunder/narrate/internal/shared"
	"github.com/desertthunder/narrate/internal/store"
	"github.com/desertthunder/narrate/internal/tasks"
)

const noScriptMessage = "You need to upload a script to generate audio"

// AudioGenerate submits the current script and voice assignment and follows the job.
func (r *Runner) AudioGenerate(ctx context.Context, cmd *cli.Command) error {
	req, err := r.audioRequest(ctx, cmd.Bool("allow-unassigned"))
	if err != nil {
		return err
	}

	interrupt, stop := interruptContext(ctx)
	defer stop()

	updates := make(chan tasks.ProgressUpdate, 64)
	wf := r.audioWorkflow(updates)

	if err := submit(ctx, interrupt, r, wf, req); err != nil {
		return r.submitFailed(wf.Snapshot().Message, err)
	}

	if cmd.Bool("detach") {
		return r.writePlain("✓ Audio job %s submitted. Run `narrate audio status` to follow it.\n", wf.Snapshot().TaskID)
	}

	snap, err := follow(ctx, interrupt, r, wf, updates)
	if err != nil {
		return finish(r, snap, err)
	}
	return r.printAudio(snap.Result)
}

// AudioStatus follows a pending audio job, or shows the last audio when none is pending.
func (r *Runner) AudioStatus(ctx context.Context, cmd *cli.Command) error {
	interrupt, stop := interruptContext(ctx)
	defer stop()

	updates := make(chan tasks.ProgressUpdate, 64)
	wf := r.audioWorkflow(updates)

	resumed, err := wf.Resume(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNoResult) {
			return r.writePlain("No audio job is pending and no audio has been generated yet.\n")
		}
		return err
	}

	if !resumed {
		audio, _ := wf.Result()
		r.writePlain("No audio job is pending.\n\n")
		return r.printAudio(audio)
	}

	snap, err := follow(ctx, interrupt, r, wf, updates)
	if err != nil {
		return finish(r, snap, err)
	}
	return r.printAudio(snap.Result)
}

// AudioCancel cancels the pending audio job.
func (r *Runner) AudioCancel(ctx context.Context, cmd *cli.Command) error {
	if store.GetString(ctx, r.store, store.KeyAudioTaskID) == "" {
		return r.writePlain("No audio job is pending.\n")
	}
	return cancelPending(ctx, r, r.audioWorkflow(nil))
}

// AudioShow prints the last generated audio.
func (r *Runner) AudioShow(ctx context.Context, cmd *cli.Command) error {
	audio, err := r.currentAudio(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(audio, true)
	}
	return r.printAudio(audio)
}

// AudioPlay opens the signed audio link with the system handler.
func (r *Runner) AudioPlay(ctx context.Context, cmd *cli.Command) error {
	audio, err := r.currentAudio(ctx)
	if err != nil {
		return err
	}

	r.writePlain("→ Opening %s...\n", audio.Name)
	if err := shared.OpenBrowser(audio.URL); err != nil {
		r.writePlain("Could not open a player. Open this link instead:\n%s\n", audio.URL)
		return err
	}
	return nil
}

// AudioDownload saves the last generated audio to disk.
func (r *Runner) AudioDownload(ctx context.Context, cmd *cli.Command) error {
	audio, err := r.currentAudio(ctx)
	if err != nil {
		return err
	}

	dest := cmd.String("output")
	if dest == "" {
		dest = audioFileName(audio)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	r.writePlain("→ Downloading %s...\n", audio.Name)
	n, err := r.api.Download(ctx, audio.URL, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return fmt.Errorf("failed to download audio: %w", err)
	}

	r.logger.Info("audio downloaded", "path", dest, "bytes", n)
	return r.writePlain("✓ Saved %s (%s)\n", dest, humanBytes(n))
}

// AudioDelete removes a generated file from the account library.
func (r *Runner) AudioDelete(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("file-name")
	if name == "" {
		return fmt.Errorf("%w: file name", shared.ErrMissingArgument)
	}

	token, err := r.token(ctx)
	if err != nil {
		return err
	}
	if err := r.api.DeleteAudio(ctx, token, name); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted %s\n", name)
}

// audioRequest builds a submission from the last script, the stored
// assignment and the narrator voice.
func (r *Runner) audioRequest(ctx context.Context, allowUnassigned bool) (models.AudioRequest, error) {
	script, err := r.currentScript(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNoScript) {
			return models.AudioRequest{}, fmt.Errorf("%w: %s", shared.ErrNoScript, noScriptMessage)
		}
		return models.AudioRequest{}, err
	}
	if strings.TrimSpace(script.Text) == "" {
		return models.AudioRequest{}, fmt.Errorf("%w: %s", shared.ErrNoScript, noScriptMessage)
	}

	a, err := r.currentAssignment(ctx, script)
	if err != nil {
		return models.AudioRequest{}, err
	}

	if missing := a.Unassigned(); len(missing) > 0 {
		if !allowUnassigned {
			return models.AudioRequest{}, fmt.Errorf("%w: %s (run `narrate voices auto` or pass --allow-unassigned)",
				shared.ErrUnassigned, strings.Join(missing, ", "))
		}
		r.logger.Warn("generating with unassigned speakers", "speakers", missing)
	}

	return models.AudioRequest{
		DisplayFileName: script.FileName,
		Text:            script.Text,
		VoiceID:         store.GetString(ctx, r.store, store.KeyNarratorVoice),
		SpeakerVoices:   a.Map(),
	}, nil
}

func (r *Runner) currentAudio(ctx context.Context) (*models.Audio, error) {
	token, err := r.token(ctx)
	if err != nil {
		return nil, err
	}
	audio, err := r.api.LatestAudio(ctx, token)
	if err != nil {
		if apiErr, ok := services.AsAPIError(err); ok && apiErr.StatusCode == 404 {
			return nil, fmt.Errorf("%w: no audio has been generated yet", shared.ErrNotFound)
		}
		return nil, err
	}
	if audio.URL == "" {
		return nil, fmt.Errorf("%w: no audio has been generated yet", shared.ErrNotFound)
	}
	return audio, nil
}

func (r *Runner) printAudio(audio *models.Audio) error {
	if audio == nil || audio.URL == "" {
		return r.writePlain("No audio has been generated yet.\n")
	}
	r.writePlainHeader(audio.Name)
	r.writePlain("Link: %s\n", audio.URL)
	return r.writePlain("\nThe link expires; run `narrate audio download` to keep a copy.\n")
}

// audioFileName derives a local file name from the audio name or its URL path.
func audioFileName(a *models.Audio) string {
	name := a.Name
	if name == "" {
		name = path.Base(strings.SplitN(a.URL, "?", 2)[0])
	}
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\:*?"<>|`, r) {
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == "/" {
		name = "audio"
	}
	if path.Ext(name) == "" {
		name += ".mp3"
	}
	return name
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
