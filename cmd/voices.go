package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/narrate/internal/models"
	"github.com/desertthunder/narrate/internal/shared"
	"github.com/desertthunder/narrate/internal/store"
	"github.com/desertthunder/narrate/internal/voices"
)

// VoicesList prints the available voices.
func (r *Runner) VoicesList(ctx context.Context, cmd *cli.Command) error {
	list, err := r.availableVoices(ctx)
	if err != nil {
		return err
	}

	if gender := strings.ToLower(cmd.String("gender")); gender != "" {
		filtered := list[:0]
		for _, v := range list {
			if v.Gender() == gender {
				filtered = append(filtered, v)
			}
		}
		list = filtered
	}

	if cmd.Bool("json") {
		return r.writeJSON(list, true)
	}

	if len(list) == 0 {
		return r.writePlain("No voices found.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Voices (%d)", len(list)))
	for _, v := range list {
		r.writePlain("  %-24s %-10s %s\n", v.Name, v.Gender(), v.ID)
	}
	return nil
}

// VoicesPreview synthesizes a sample, saves it and opens it.
func (r *Runner) VoicesPreview(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("voice")
	if name == "" {
		return fmt.Errorf("%w: voice id or name", shared.ErrMissingArgument)
	}

	token, err := r.token(ctx)
	if err != nil {
		return err
	}
	list, err := r.api.Voices(ctx, token)
	if err != nil {
		return err
	}
	voice, err := voices.Find(list, name)
	if err != nil {
		return err
	}

	r.writePlain("→ Synthesizing a sample with %s...\n", voice.Name)
	data, err := r.api.PreviewVoice(ctx, token, voice.ID, cmd.String("text"))
	if err != nil {
		return err
	}

	path := cmd.String("output")
	if path == "" {
		path = fmt.Sprintf("preview-%s.mp3", voice.ID)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	r.writePlain("✓ Sample saved to %s\n", path)

	if cmd.Bool("no-open") {
		return nil
	}
	if err := shared.OpenBrowser(path); err != nil {
		r.logger.Warn("could not open preview", "error", err)
	}
	return nil
}

// VoicesAssign sets the voice of one speaker.
func (r *Runner) VoicesAssign(ctx context.Context, cmd *cli.Command) error {
	speaker, name := cmd.StringArg("speaker"), cmd.StringArg("voice")
	if speaker == "" || name == "" {
		return fmt.Errorf("%w: speaker and voice", shared.ErrMissingArgument)
	}

	script, err := r.currentScript(ctx)
	if err != nil {
		return err
	}
	a, err := r.currentAssignment(ctx, script)
	if err != nil {
		return err
	}
	list, err := r.availableVoices(ctx)
	if err != nil {
		return err
	}

	voice, err := voices.Find(list, name)
	if err != nil {
		return err
	}
	if err := a.Set(speaker, voice.ID); err != nil {
		return fmt.Errorf("%w (speakers: %s)", err, strings.Join(a.Speakers(), ", "))
	}
	if err := r.assignments.Save(ctx, a); err != nil {
		return err
	}

	r.logger.Debug("voice assigned", "speaker", speaker, "voice", voice.ID)
	return r.writePlain("✓ %s → %s\n", speaker, voice.Name)
}

// VoicesAuto casts every speaker with a distinct voice by gender.
func (r *Runner) VoicesAuto(ctx context.Context, cmd *cli.Command) error {
	script, err := r.currentScript(ctx)
	if err != nil {
		return err
	}
	list, err := r.availableVoices(ctx)
	if err != nil {
		return err
	}

	a := voices.AutoAssign(script.Speakers, list)
	if err := r.assignments.Save(ctx, a); err != nil {
		return err
	}

	r.writePlain("✓ Assigned voices to %d of %d speakers\n", len(a)-len(a.Unassigned()), len(a))
	if err := r.printAssignment(a, list); err != nil {
		return err
	}
	if missing := a.Unassigned(); len(missing) > 0 {
		r.writePlain("⚠ Not enough voices for: %s\n", strings.Join(missing, ", "))
	}
	return nil
}

// VoicesShow prints the current assignment and narrator.
func (r *Runner) VoicesShow(ctx context.Context, cmd *cli.Command) error {
	script, err := r.currentScript(ctx)
	if err != nil {
		return err
	}
	a, err := r.currentAssignment(ctx, script)
	if err != nil {
		return err
	}
	narrator := store.GetString(ctx, r.store, store.KeyNarratorVoice)

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"narrator": narrator, "speakers": a}, true)
	}

	list, err := r.availableVoices(ctx)
	if err != nil {
		r.logger.Warn("showing voice ids only", "error", err)
	}

	r.writePlainHeader(script.DisplayName())
	if err := r.printAssignment(a, list); err != nil {
		return err
	}
	if narrator == "" {
		narrator = "none"
	}
	return r.writePlain("Narrator: %s\n", voiceName(list, narrator))
}

// VoicesNarrator stores the narrator voice sent with audio jobs.
func (r *Runner) VoicesNarrator(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("voice")
	if name == "" {
		return fmt.Errorf("%w: voice id or name, or \"none\"", shared.ErrMissingArgument)
	}

	if strings.EqualFold(name, "none") {
		if err := r.store.Delete(ctx, store.KeyNarratorVoice); err != nil {
			return err
		}
		return r.writePlain("✓ Narrator voice cleared\n")
	}

	list, err := r.availableVoices(ctx)
	if err != nil {
		return err
	}
	voice, err := voices.Find(list, name)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, store.KeyNarratorVoice, voice.ID); err != nil {
		return err
	}
	return r.writePlain("✓ Narrator voice set to %s\n", voice.Name)
}

func (r *Runner) availableVoices(ctx context.Context) ([]models.Voice, error) {
	token, err := r.token(ctx)
	if err != nil {
		return nil, err
	}
	return r.api.Voices(ctx, token)
}

func (r *Runner) printAssignment(a voices.Assignment, list []models.Voice) error {
	for i, e := range a {
		voice := "unassigned"
		if e.VoiceID != "" {
			voice = voiceName(list, e.VoiceID)
		}
		if err := r.writePlain("  %d. %-20s → %s\n", i+1, e.Speaker, voice); err != nil {
			return err
		}
	}
	return nil
}

// voiceName returns the display name of id, or id itself when it is not listed.
func voiceName(list []models.Voice, id string) string {
	for _, v := range list {
		if v.ID == id {
			return v.Name
		}
	}
	return id
}
