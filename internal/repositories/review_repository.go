package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/courseloom/backend/internal/apperrors"
	"github.com/courseloom/backend/internal/models"
)

type reviewRepository struct{}

// NewReviewRepository creates a new review repository
func NewReviewRepository() *reviewRepository {
	return &reviewRepository{}
}

// GetByID retrieves a review by its ID
func (r *reviewRepository) GetByID(ctx context.Context, q Querier, id int) (*models.Review, error) {
	query := `
		SELECT id, course_id, author_id, rating
		FROM reviews
		WHERE id = ?
		LIMIT 1
	`

	var review models.Review
	err := q.QueryRowContext(ctx, query, id).Scan(
		&review.ID,
		&review.CourseID,
		&review.AuthorID,
		&review.Rating,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.ErrReviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review by id: %w", err)
	}

	return &review, nil
}

// Create creates a new review
func (r *reviewRepository) Create(ctx context.Context, q Querier, review *models.Review) error {
	query := `
		INSERT INTO reviews (course_id, author_id, rating)
		VALUES (?, ?, ?)
	`

	result, err := q.ExecContext(ctx, query,
		review.CourseID,
		review.AuthorID,
		review.Rating,
	)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	review.ID = int(id)
	return nil
}

// UpdateRating updates a review's rating
func (r *reviewRepository) UpdateRating(ctx context.Context, q Querier, id, rating int) error {
	query := "UPDATE reviews SET rating = ? WHERE id = ?"

	result, err := q.ExecContext(ctx, query, rating, id)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// An unchanged rating also affects 0 rows; existence was checked by
		// the caller inside the same transaction, so this is not an error.
		return nil
	}

	return nil
}

// Delete deletes a review by ID
func (r *reviewRepository) Delete(ctx context.Context, q Querier, id int) error {
	query := "DELETE FROM reviews WHERE id = ?"

	result, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperrors.ErrReviewNotFound
	}

	return nil
}

// AggregateByCourse computes the review count and average rating for a course
// from the current review rows. The average is nil when no reviews exist.
func (r *reviewRepository) AggregateByCourse(ctx context.Context, q Querier, courseID int) (int, *float64, error) {
	query := `
		SELECT COUNT(*), AVG(rating)
		FROM reviews
		WHERE course_id = ?
	`

	var count int
	var avg sql.NullFloat64
	err := q.QueryRowContext(ctx, query, courseID).Scan(&count, &avg)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to aggregate reviews: %w", err)
	}

	if !avg.Valid {
		return count, nil, nil
	}

	return count, &avg.Float64, nil
}

// ListByCourse retrieves reviews for a course with pagination
func (r *reviewRepository) ListByCourse(ctx context.Context, q Querier, courseID, page, count int) ([]models.Review, error) {
	offset := (page - 1) * count

	query := `
		SELECT id, course_id, author_id, rating
		FROM reviews
		WHERE course_id = ?
		ORDER BY id
		LIMIT ? OFFSET ?
	`

	rows, err := q.QueryContext(ctx, query, courseID, count, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var review models.Review
		err := rows.Scan(
			&review.ID,
			&review.CourseID,
			&review.AuthorID,
			&review.Rating,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return reviews, nil
}
