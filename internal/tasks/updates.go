package tasks

import (
	"fmt"

	"github.com/desertthunder/narrate/internal/models"
)

// ProgressUpdate represents a state or progress change of a job workflow.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Kind     models.JobKind // Which workflow sent the update
	State    State          // State after the change
	Progress float64        // Percentage, 0 outside Polling
	TaskID   string         // Backend job id, empty before submission and after completion
	Message  string         // Human-readable message for display
	Data     any            // Result payload on success
}

// Terminal reports whether the update ends the job.
func (u ProgressUpdate) Terminal() bool {
	return u.State.Terminal()
}

func (u ProgressUpdate) String() string {
	switch u.State {
	case Polling:
		return fmt.Sprintf("%s %s: %.0f%%", u.Kind, u.State, u.Progress)
	default:
		if u.Message == "" {
			return fmt.Sprintf("%s %s", u.Kind, u.State)
		}
		return fmt.Sprintf("%s %s: %s", u.Kind, u.State, u.Message)
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}

func submittingUpdate(kind models.JobKind) ProgressUpdate {
	return ProgressUpdate{Kind: kind, State: Submitting, Message: fmt.Sprintf("Submitting %s job...", kind)}
}

func pollingUpdate(kind models.JobKind, taskID string, pct float64) ProgressUpdate {
	return ProgressUpdate{Kind: kind, State: Polling, TaskID: taskID, Progress: pct}
}

func terminalUpdate(kind models.JobKind, state State, message string, data any) ProgressUpdate {
	return ProgressUpdate{Kind: kind, State: state, Message: message, Data: data}
}

func signInUpdate(kind models.JobKind, taskID string) ProgressUpdate {
	return ProgressUpdate{Kind: kind, State: Idle, TaskID: taskID, Message: "Session expired, sign in to keep following this job"}
}
