package tasks

import (
	"fmt"

	"github.com/desertthunder/narrate/internal/models"
	"github.com/desertthunder/narrate/internal/shared"
)

// State is the lifecycle position of a job workflow.
type State int

const (
	Idle State = iota
	Submitting
	Polling
	Succeeded
	Failed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Polling:
		return "polling"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return ""
	}
}

// Active reports whether a job is in flight.
func (s State) Active() bool {
	return s == Submitting || s == Polling
}

// Terminal reports whether the job ended.
func (s State) Terminal() bool {
	return s == Succeeded || s == Failed || s == Cancelled
}

// JobStatus maps a terminal state to the status stored in job history.
func (s State) JobStatus() string {
	switch s {
	case Succeeded:
		return models.JobStatusSucceeded
	case Failed:
		return models.JobStatusFailed
	case Cancelled:
		return models.JobStatusCancelled
	default:
		return ""
	}
}

// transitions lists the allowed moves. Terminal states and Idle may start a new job.
var transitions = map[State][]State{
	Idle:       {Submitting, Polling},
	Submitting: {Polling, Failed, Cancelled, Idle},
	Polling:    {Succeeded, Failed, Cancelled, Idle},
	Succeeded:  {Submitting, Polling},
	Failed:     {Submitting, Polling},
	Cancelled:  {Submitting, Polling},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to State) error {
	if !canTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", shared.ErrInvalidState, from, to)
	}
	return nil
}
