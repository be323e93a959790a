package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/courseloom/backend/internal/models"
)

type lessonProgressRepository struct{}

// NewLessonProgressRepository creates a new lesson progress repository
func NewLessonProgressRepository() *lessonProgressRepository {
	return &lessonProgressRepository{}
}

// Upsert inserts or updates the completion mark for an (enrollment, lesson)
// pair. The unique key on (enrollment_id, lesson_id) guarantees one row per
// pair regardless of replays.
func (r *lessonProgressRepository) Upsert(ctx context.Context, q Querier, progress *models.LessonProgress) error {
	query := `
		INSERT INTO lesson_progress (enrollment_id, lesson_id, is_completed, completed_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			is_completed = VALUES(is_completed),
			completed_at = VALUES(completed_at)
	`

	var completedAt sql.NullTime
	if progress.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *progress.CompletedAt, Valid: true}
	}

	if _, err := q.ExecContext(ctx, query,
		progress.EnrollmentID,
		progress.LessonID,
		progress.IsCompleted,
		completedAt,
	); err != nil {
		return fmt.Errorf("failed to upsert lesson progress: %w", err)
	}

	return nil
}

// CountCompletedByEnrollment counts completed lesson marks for an enrollment
func (r *lessonProgressRepository) CountCompletedByEnrollment(ctx context.Context, q Querier, enrollmentID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM lesson_progress
		WHERE enrollment_id = ? AND is_completed = TRUE
	`

	var count int
	err := q.QueryRowContext(ctx, query, enrollmentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}

	return count, nil
}
