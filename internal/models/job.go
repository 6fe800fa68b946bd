package models

import (
	"fmt"
	"time"
)

// JobKind distinguishes the two backend job types.
type JobKind string

const (
	JobKindFormat JobKind = "format"
	JobKindAudio  JobKind = "audio"
)

// Valid reports whether k is a known job kind.
func (k JobKind) Valid() bool {
	return k == JobKindFormat || k == JobKindAudio
}

// Terminal job statuses stored in history.
const (
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
	JobStatusCancelled = "cancelled"
)

// JobRecord is a finished job kept in local history.
type JobRecord struct {
	id         string
	sequence   int
	kind       JobKind
	taskID     string
	status     string
	message    string
	resultName string
	startedAt  *time.Time
	finishedAt *time.Time
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewJobRecord creates a history entry for a job that reached status.
func NewJobRecord(kind JobKind, taskID, status string) *JobRecord {
	now := time.Now()
	return &JobRecord{
		kind:      kind,
		taskID:    taskID,
		status:    status,
		createdAt: now,
		updatedAt: now,
	}
}

func (j *JobRecord) ID() string { return j.id }
func (j *JobRecord) Sequence() int { return j.sequence }
func (j *JobRecord) Kind() JobKind { return j.kind }
func (j *JobRecord) TaskID() string { return j.taskID }
func (j *JobRecord) Status() string { return j.status }
func (j *JobRecord) Message() string { return j.message }
func (j *JobRecord) ResultName() string { return j.resultName }
func (j *JobRecord) StartedAt() *time.Time { return j.startedAt }
func (j *JobRecord) FinishedAt() *time.Time { return j.finishedAt }
func (j *JobRecord) CreatedAt() time.Time { return j.createdAt }
func (j *JobRecord) UpdatedAt() time.Time { return j.updatedAt }
func (j *JobRecord) DeletedAt() *time.Time { return j.deletedAt }

func (j *JobRecord) SetID(id string) { j.id = id }
func (j *JobRecord) SetSequence(seq int) { j.sequence = seq }
func (j *JobRecord) SetStatus(status string) { j.status = status }
func (j *JobRecord) SetMessage(msg string) { j.message = msg }
func (j *JobRecord) SetResultName(name string) { j.resultName = name }
func (j *JobRecord) SetStartedAt(t *time.Time) { j.startedAt = t }
func (j *JobRecord) SetFinishedAt(t *time.Time) { j.finishedAt = t }
func (j *JobRecord) SetCreatedAt(t time.Time) { j.createdAt = t }
func (j *JobRecord) SetUpdatedAt(t time.Time) { j.updatedAt = t }
func (j *JobRecord) SetDeletedAt(t *time.Time) { j.deletedAt = t }

// Duration returns how long the job ran, or zero if either bound is unknown.
func (j *JobRecord) Duration() time.Duration {
	if j.startedAt == nil || j.finishedAt == nil {
		return 0
	}
	return j.finishedAt.Sub(*j.startedAt)
}

// Validate checks kind and status against the values the jobs table accepts.
func (j *JobRecord) Validate() error {
	if !j.kind.Valid() {
		return fmt.Errorf("invalid job kind %q", j.kind)
	}
	switch j.status {
	case JobStatusSucceeded, JobStatusFailed, JobStatusCancelled:
	default:
		return fmt.Errorf("invalid job status %q", j.status)
	}
	return nil
}
