package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/narrate/internal/models"
	"github.com/desertthunder/narrate/internal/shared"
)

// JobRepository implements models.Repository[*models.JobRecord] for local job history.
//
// Handles job CRUD operations with soft delete support and kind/status queries.
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a new JobRepository with the given database connection
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `
	id, sequence, kind, task_id, status, message, result_name,
	started_at, finished_at, created_at, updated_at, deleted_at
`

// Create inserts a new job into the database with generated ID and sequence
func (r *JobRepository) Create(job *models.JobRecord) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "jobs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	job.SetID(id)
	job.SetSequence(sequence)

	query := `
		INSERT INTO jobs (
			id, sequence, kind, task_id, status, message, result_name,
			started_at, finished_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		string(job.Kind()),
		job.TaskID(),
		job.Status(),
		nullString(job.Message()),
		nullString(job.ResultName()),
		job.StartedAt(),
		job.FinishedAt(),
		job.CreatedAt(),
		job.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}

	return nil
}

// Get retrieves a job by ID, excluding soft-deleted jobs
func (r *JobRepository) Get(id string) (*models.JobRecord, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = ? AND deleted_at IS NULL`

	job, err := scanJob(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: job %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}
	return job, nil
}

// Update modifies an existing job's status, message and result
func (r *JobRepository) Update(job *models.JobRecord) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	job.SetUpdatedAt(now)

	query := `
		UPDATE jobs
		SET status = ?, message = ?, result_name = ?, finished_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		job.Status(),
		nullString(job.Message()),
		nullString(job.ResultName()),
		job.FinishedAt(),
		now,
		job.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}

	return requireAffected(result, "job", job.ID())
}

// Delete soft-deletes a job by ID
func (r *JobRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE jobs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	return requireAffected(result, "job", id)
}

// List retrieves jobs matching the given criteria, newest first, excluding soft-deleted jobs.
//
// Supported criteria: "kind" (string or models.JobKind), "status" (string), "limit" (int).
func (r *JobRepository) List(criteria map[string]any) ([]*models.JobRecord, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE deleted_at IS NULL`
	args := []any{}

	switch kind := criteria["kind"].(type) {
	case models.JobKind:
		if kind != "" {
			query += " AND kind = ?"
			args = append(args, string(kind))
		}
	case string:
		if kind != "" {
			query += " AND kind = ?"
			args = append(args, kind)
		}
	}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.JobRecord
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return jobs, nil
}

// Record stores a finished job. It satisfies tasks.HistoryRecorder.
func (r *JobRepository) Record(kind models.JobKind, taskID, status, message, resultName string, startedAt, finishedAt time.Time) error {
	job := models.NewJobRecord(kind, taskID, status)
	job.SetMessage(message)
	job.SetResultName(resultName)
	if !startedAt.IsZero() {
		job.SetStartedAt(&startedAt)
	}
	if !finishedAt.IsZero() {
		job.SetFinishedAt(&finishedAt)
	}
	return r.Create(job)
}

// rowScanner is satisfied by both [sql.Row] and [sql.Rows].
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.JobRecord, error) {
	var (
		id         string
		sequence   int
		kind       string
		taskID     string
		status     string
		message    sql.NullString
		resultName sql.NullString
		startedAt  sql.NullTime
		finishedAt sql.NullTime
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &kind, &taskID, &status, &message, &resultName,
		&startedAt, &finishedAt, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	job := models.NewJobRecord(models.JobKind(kind), taskID, status)
	job.SetID(id)
	job.SetSequence(sequence)
	job.SetCreatedAt(createdAt)
	job.SetUpdatedAt(updatedAt)
	if message.Valid {
		job.SetMessage(message.String)
	}
	if resultName.Valid {
		job.SetResultName(resultName.String)
	}
	if startedAt.Valid {
		job.SetStartedAt(&startedAt.Time)
	}
	if finishedAt.Valid {
		job.SetFinishedAt(&finishedAt.Time)
	}
	if deletedAt.Valid {
		job.SetDeletedAt(&deletedAt.Time)
	}

	return job, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func requireAffected(result sql.Result, entity, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s %s not found or already deleted", shared.ErrNotFound, entity, id)
	}
	return nil
}
