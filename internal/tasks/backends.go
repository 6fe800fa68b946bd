package tasks

import (
	"context"

	"github.com/desertthunder/narrate/internal/models"
	"github.com/desertthunder/narrate/internal/services"
	"github.com/desertthunder/narrate/internal/shared"
	"github.com/desertthunder/narrate/internal/store"
)

const subscriptionUnavailable = "Could not check your subscription status, please try again."

// FormatAPI is the part of [services.Client] used by format jobs.
type FormatAPI interface {
	FormatEntitlement(ctx context.Context, token string) error
	UploadScript(ctx context.Context, token, path string) (string, error)
	FormatStatus(ctx context.Context, token, taskID string) (*services.TaskStatus, error)
	LatestScript(ctx context.Context, token string) (*models.Script, error)
	CancelFormat(ctx context.Context, token, taskID string) error
}

// AudioAPI is the part of [services.Client] used by audio jobs.
type AudioAPI interface {
	AudioEntitlement(ctx context.Context, token string) error
	SubmitAudio(ctx context.Context, token string, req models.AudioRequest) (string, error)
	AudioStatus(ctx context.Context, token, taskID string) (*services.TaskStatus, error)
	LatestAudio(ctx context.Context, token string) (*models.Audio, error)
	CancelAudio(ctx context.Context, token, taskID string) error
}

// FormatWorkflow uploads a script and waits for the formatted text and speaker list.
type FormatWorkflow = Workflow[*shared.Upload, *models.Script]

// AudioWorkflow generates audio for the current script.
type AudioWorkflow = Workflow[models.AudioRequest, *models.Audio]

// NewFormatWorkflow creates a workflow for format jobs.
func NewFormatWorkflow(api FormatAPI, opts Options) *FormatWorkflow {
	return NewWorkflow[*shared.Upload, *models.Script](FormatBackend{api: api}, opts)
}

// NewAudioWorkflow creates a workflow for audio jobs.
func NewAudioWorkflow(api AudioAPI, opts Options) *AudioWorkflow {
	return NewWorkflow[models.AudioRequest, *models.Audio](AudioBackend{api: api}, opts)
}

// FormatBackend implements [Backend] for script formatting.
type FormatBackend struct {
	api FormatAPI
}

func (FormatBackend) Kind() models.JobKind { return models.JobKindFormat }
func (FormatBackend) StoreKey() string     { return store.KeyFormatTaskID }

func (FormatBackend) Messages() Messages {
	return Messages{
		EntitlementUnavailable: subscriptionUnavailable,
		SubmitCancelled:        "You cancelled formatting your script, please note that if formatting already started your script quota will be deducted",
		SubmitFailed:           "We couldn't upload your file. Please ensure you have an active subscription and try again.",
		JobFailed:              "Error formatting Script, please try again later",
		PollUnavailable:        "Could not format your script, please refresh or try again.",
		Cancelled:              "You cancelled formatting your script, please note that if formatting already started your script quota might be deducted.",
		CancelFailed:           "Could not cancel formatting your script, please try again",
		Succeeded:              "Your script is ready",
	}
}

func (b FormatBackend) Entitlement(ctx context.Context, token string) error {
	return b.api.FormatEntitlement(ctx, token)
}

func (b FormatBackend) Submit(ctx context.Context, token string, up *shared.Upload) (string, error) {
	return b.api.UploadScript(ctx, token, up.Path)
}

func (b FormatBackend) Status(ctx context.Context, token, taskID string) (*services.TaskStatus, error) {
	return b.api.FormatStatus(ctx, token, taskID)
}

func (b FormatBackend) Result(ctx context.Context, token string) (*models.Script, error) {
	return b.api.LatestScript(ctx, token)
}

func (b FormatBackend) Cancel(ctx context.Context, token, taskID string) error {
	return b.api.CancelFormat(ctx, token, taskID)
}

func (FormatBackend) Describe(s *models.Script) string {
	if s == nil {
		return ""
	}
	return s.FileName
}

// AudioBackend implements [Backend] for audio generation.
type AudioBackend struct {
	api AudioAPI
}

func (AudioBackend) Kind() models.JobKind { return models.JobKindAudio }
func (AudioBackend) StoreKey() string     { return store.KeyAudioTaskID }

func (AudioBackend) Messages() Messages {
	return Messages{
		EntitlementUnavailable: subscriptionUnavailable,
		SubmitCancelled:        "You cancelled generating audio, please note that if generation already started your audio quota will be deducted",
		SubmitFailed:           "We couldn't generate your audio, please ensure you have an active subscription and try again.",
		JobFailed:              "Audio generation failed, please try again",
		PollUnavailable:        "An unexpected error occurred while generating audio, please try again.",
		Cancelled:              "You cancelled your audio generation, please note that if audio generation already started your audio quota might be deducted.",
		CancelFailed:           "Could not cancel generating audio, please try again",
		Succeeded:              "Your audio is ready",
	}
}

func (b AudioBackend) Entitlement(ctx context.Context, token string) error {
	return b.api.AudioEntitlement(ctx, token)
}

func (b AudioBackend) Submit(ctx context.Context, token string, req models.AudioRequest) (string, error) {
	return b.api.SubmitAudio(ctx, token, req)
}

func (b AudioBackend) Status(ctx context.Context, token, taskID string) (*services.TaskStatus, error) {
	return b.api.AudioStatus(ctx, token, taskID)
}

func (b AudioBackend) Result(ctx context.Context, token string) (*models.Audio, error) {
	return b.api.LatestAudio(ctx, token)
}

func (b AudioBackend) Cancel(ctx context.Context, token, taskID string) error {
	return b.api.CancelAudio(ctx, token, taskID)
}

func (AudioBackend) Describe(a *models.Audio) string {
	if a == nil {
		return ""
	}
	return a.Name
}
