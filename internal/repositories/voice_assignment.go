package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/narrate/internal/voices"
)

// VoiceAssignmentRepository persists the speaker to voice mapping of the current script.
type VoiceAssignmentRepository struct {
	db *sql.DB
}

// NewVoiceAssignmentRepository creates a new VoiceAssignmentRepository with the given database connection
func NewVoiceAssignmentRepository(db *sql.DB) *VoiceAssignmentRepository {
	return &VoiceAssignmentRepository{db: db}
}

// Load returns the stored assignment in speaker order.
func (r *VoiceAssignmentRepository) Load(ctx context.Context) (voices.Assignment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT speaker, voice_id FROM voice_assignments ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query voice assignments: %w", err)
	}
	defer rows.Close()

	var a voices.Assignment
	for rows.Next() {
		var entry voices.Entry
		if err := rows.Scan(&entry.Speaker, &entry.VoiceID); err != nil {
			return nil, fmt.Errorf("failed to scan voice assignment: %w", err)
		}
		a = append(a, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return a, nil
}

// Save replaces the stored assignment with a.
func (r *VoiceAssignmentRepository) Save(ctx context.Context, a voices.Assignment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM voice_assignments`); err != nil {
		return fmt.Errorf("failed to clear voice assignments: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO voice_assignments (speaker, position, voice_id) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, entry := range a {
		if _, err := stmt.ExecContext(ctx, entry.Speaker, i, entry.VoiceID); err != nil {
			return fmt.Errorf("failed to insert voice assignment for %s: %w", entry.Speaker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit voice assignments: %w", err)
	}
	return nil
}

// Clear removes every stored assignment.
func (r *VoiceAssignmentRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM voice_assignments`); err != nil {
		return fmt.Errorf("failed to clear voice assignments: %w", err)
	}
	return nil
}
