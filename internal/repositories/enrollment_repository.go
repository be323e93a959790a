package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/courseloom/backend/internal/apperrors"
	"github.com/courseloom/backend/internal/models"
)

type enrollmentRepository struct{}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository() *enrollmentRepository {
	return &enrollmentRepository{}
}

// GetByID retrieves an enrollment by its ID
func (r *enrollmentRepository) GetByID(ctx context.Context, q Querier, id int) (*models.Enrollment, error) {
	query := `
		SELECT id, course_id, learner_id, status, progress_percentage, completed_at
		FROM enrollments
		WHERE id = ?
		LIMIT 1
	`

	var enrollment models.Enrollment
	var completedAt sql.NullTime
	err := q.QueryRowContext(ctx, query, id).Scan(
		&enrollment.ID,
		&enrollment.CourseID,
		&enrollment.LearnerID,
		&enrollment.Status,
		&enrollment.ProgressPercentage,
		&completedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.ErrEnrollmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment by id: %w", err)
	}

	if completedAt.Valid {
		enrollment.CompletedAt = &completedAt.Time
	}

	return &enrollment, nil
}

// ExistsForLearner checks if an active or completed enrollment exists for the
// (course, learner) pair. Cancelled enrollments do not block re-enrollment.
//
// The check is a locking read. Under REPEATABLE READ a plain EXISTS is a
// consistent non-locking read, so two transactions enrolling the same pair
// could both see no row and both insert. FOR UPDATE over the
// (course_id, learner_id) index locks the scanned range including its gap, so
// the racing insert blocks until this transaction commits.
func (r *enrollmentRepository) ExistsForLearner(ctx context.Context, q Querier, courseID, learnerID int) (bool, error) {
	query := `
		SELECT id
		FROM enrollments
		WHERE course_id = ? AND learner_id = ? AND status IN ('active', 'completed')
		LIMIT 1
		FOR UPDATE
	`

	var id int
	err := q.QueryRowContext(ctx, query, courseID, learnerID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment existence: %w", err)
	}

	return true, nil
}

// Create creates a new active enrollment with zero progress
func (r *enrollmentRepository) Create(ctx context.Context, q Querier, enrollment *models.Enrollment) error {
	query := `
		INSERT INTO enrollments (course_id, learner_id, status, progress_percentage, completed_at)
		VALUES (?, ?, 'active', 0, NULL)
	`

	result, err := q.ExecContext(ctx, query,
		enrollment.CourseID,
		enrollment.LearnerID,
	)
	if err != nil {
		return fmt.Errorf("failed to create enrollment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	enrollment.ID = int(id)
	enrollment.Status = models.EnrollmentStatusActive
	enrollment.ProgressPercentage = 0
	return nil
}

// Cancel sets an enrollment's status to cancelled
func (r *enrollmentRepository) Cancel(ctx context.Context, q Querier, id int) error {
	query := "UPDATE enrollments SET status = 'cancelled' WHERE id = ?"

	if _, err := q.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to cancel enrollment: %w", err)
	}

	// MySQL reports changed rows, so cancelling an already-cancelled
	// enrollment affects 0 rows; existence was checked by the caller inside
	// the same transaction, so an affected-rows check would misreport it.
	return nil
}

// CountByCourse counts active and completed enrollments for a course.
// Cancelled enrollments are excluded from the enrollment count.
func (r *enrollmentRepository) CountByCourse(ctx context.Context, q Querier, courseID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM enrollments
		WHERE course_id = ? AND status IN ('active', 'completed')
	`

	var count int
	err := q.QueryRowContext(ctx, query, courseID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count enrollments: %w", err)
	}

	return count, nil
}

// UpdateProgress writes an enrollment's progress percentage
func (r *enrollmentRepository) UpdateProgress(ctx context.Context, q Querier, id int, percentage float64) error {
	query := "UPDATE enrollments SET progress_percentage = ? WHERE id = ?"

	if _, err := q.ExecContext(ctx, query, percentage, id); err != nil {
		return fmt.Errorf("failed to update progress percentage: %w", err)
	}

	return nil
}

// MarkCompleted fires the completion latch with compare-and-set semantics.
// The conditional on completed_at IS NULL makes the null-to-set transition
// atomic at the row: of two concurrent callers, exactly one observes
// rowsAffected == 1 and returns true. A latch that is already set is left
// untouched.
func (r *enrollmentRepository) MarkCompleted(ctx context.Context, q Querier, id int, completedAt time.Time) (bool, error) {
	query := `
		UPDATE enrollments
		SET status = 'completed', completed_at = ?
		WHERE id = ? AND completed_at IS NULL
	`

	result, err := q.ExecContext(ctx, query, completedAt, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark enrollment completed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// ActiveIDsByCourse retrieves the IDs of a course's active enrollments
func (r *enrollmentRepository) ActiveIDsByCourse(ctx context.Context, q Querier, courseID int) ([]int, error) {
	query := `
		SELECT id
		FROM enrollments
		WHERE course_id = ? AND status = 'active'
		ORDER BY id
	`

	rows, err := q.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active enrollments: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return ids, nil
}

// ListByCourse retrieves enrollments for a course with pagination
func (r *enrollmentRepository) ListByCourse(ctx context.Context, q Querier, courseID, page, count int) ([]models.Enrollment, error) {
	offset := (page - 1) * count

	query := `
		SELECT id, course_id, learner_id, status, progress_percentage, completed_at
		FROM enrollments
		WHERE course_id = ?
		ORDER BY id
		LIMIT ? OFFSET ?
	`

	rows, err := q.QueryContext(ctx, query, courseID, count, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []models.Enrollment
	for rows.Next() {
		var enrollment models.Enrollment
		var completedAt sql.NullTime
		err := rows.Scan(
			&enrollment.ID,
			&enrollment.CourseID,
			&enrollment.LearnerID,
			&enrollment.Status,
			&enrollment.ProgressPercentage,
			&completedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		if completedAt.Valid {
			enrollment.CompletedAt = &completedAt.Time
		}
		enrollments = append(enrollments, enrollment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return enrollments, nil
}
