package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/courseloom/backend/internal/apperrors"
	"github.com/courseloom/backend/internal/models"
)

type courseRepository struct{}

// NewCourseRepository creates a new course repository
func NewCourseRepository() *courseRepository {
	return &courseRepository{}
}

// GetByID retrieves a course by its ID
func (r *courseRepository) GetByID(ctx context.Context, q Querier, id int) (*models.Course, error) {
	query := `
		SELECT id, slug, title, lesson_count, enroll_count, average_rating
		FROM courses
		WHERE id = ?
		LIMIT 1
	`

	var course models.Course
	var avg sql.NullFloat64
	err := q.QueryRowContext(ctx, query, id).Scan(
		&course.ID,
		&course.Slug,
		&course.Title,
		&course.LessonCount,
		&course.EnrollCount,
		&avg,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course by id: %w", err)
	}

	if avg.Valid {
		course.AverageRating = &avg.Float64
	}

	return &course, nil
}

// Exists checks if a course with the given ID exists
func (r *courseRepository) Exists(ctx context.Context, q Querier, id int) (bool, error) {
	query := "SELECT EXISTS(SELECT 1 FROM courses WHERE id = ?)"

	var exists bool
	err := q.QueryRowContext(ctx, query, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check course existence: %w", err)
	}

	return exists, nil
}

// Create creates a new course with zeroed aggregates
func (r *courseRepository) Create(ctx context.Context, q Querier, course *models.Course) error {
	query := `
		INSERT INTO courses (slug, title, lesson_count, enroll_count, average_rating)
		VALUES (?, ?, ?, 0, NULL)
	`

	result, err := q.ExecContext(ctx, query,
		course.Slug,
		course.Title,
		course.LessonCount,
	)
	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	course.ID = int(id)
	return nil
}

// LessonCount retrieves the lesson count of a course
func (r *courseRepository) LessonCount(ctx context.Context, q Querier, id int) (int, error) {
	query := "SELECT lesson_count FROM courses WHERE id = ? LIMIT 1"

	var count int
	err := q.QueryRowContext(ctx, query, id).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, apperrors.ErrCourseNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get lesson count: %w", err)
	}

	return count, nil
}

// SetLessonCount updates the lesson count of a course
func (r *courseRepository) SetLessonCount(ctx context.Context, q Querier, id, lessonCount int) error {
	query := "UPDATE courses SET lesson_count = ? WHERE id = ?"

	result, err := q.ExecContext(ctx, query, lessonCount, id)
	if err != nil {
		return fmt.Errorf("failed to set lesson count: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// MySQL reports 0 affected rows when the value is unchanged, so
		// distinguish a no-op update from a missing course.
		exists, err := r.Exists(ctx, q, id)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.ErrCourseNotFound
		}
	}

	return nil
}

// UpdateAggregates writes both derived fields of a course in one statement.
// A missing course is a silent no-op: the owning mutation already failed
// independently if the course was required.
func (r *courseRepository) UpdateAggregates(ctx context.Context, q Querier, id, enrollCount int, averageRating *float64) error {
	query := `
		UPDATE courses
		SET enroll_count = ?, average_rating = ?
		WHERE id = ?
	`

	var avg sql.NullFloat64
	if averageRating != nil {
		avg = sql.NullFloat64{Float64: *averageRating, Valid: true}
	}

	if _, err := q.ExecContext(ctx, query, enrollCount, avg, id); err != nil {
		return fmt.Errorf("failed to update course aggregates: %w", err)
	}

	return nil
}

// GetAggregate retrieves the derived statistics of a course
func (r *courseRepository) GetAggregate(ctx context.Context, q Querier, id int) (*models.CourseAggregateResponse, error) {
	query := "SELECT enroll_count, average_rating FROM courses WHERE id = ? LIMIT 1"

	var aggregate models.CourseAggregateResponse
	var avg sql.NullFloat64
	err := q.QueryRowContext(ctx, query, id).Scan(&aggregate.EnrollCount, &avg)

	if err == sql.ErrNoRows {
		return nil, apperrors.ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course aggregate: %w", err)
	}

	if avg.Valid {
		aggregate.AverageRating = &avg.Float64
	}

	return &aggregate, nil
}
