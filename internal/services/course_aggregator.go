// Package services implements the derived-statistics maintenance engine: the
// mutation dispatcher through which all enrollment, review, and lesson-progress
// writes flow, and the recomputation components that keep the denormalized
// aggregate fields consistent with the rows they are computed from.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/courseloom/backend/internal/models"
	"github.com/courseloom/backend/internal/repositories"
)

// CourseRepository defines methods for course data access
type CourseRepository interface {
	// GetByID retrieves a course by ID
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "id" is the ID of the course.
	//
	// Returns the course and an error if any.
	GetByID(ctx context.Context, q repositories.Querier, id int) (*models.Course, error)
	// Exists checks if a course with the given ID exists
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "id" is the ID of the course.
	//
	// Returns a boolean and an error if any.
	Exists(ctx context.Context, q repositories.Querier, id int) (bool, error)
	// Create creates a new course
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "course" is the course to create.
	//
	// Returns an error if any.
	Create(ctx context.Context, q repositories.Querier, course *models.Course) error
	// LessonCount retrieves the lesson count of a course
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "id" is the ID of the course.
	//
	// Returns the lesson count and an error if any.
	LessonCount(ctx context.Context, q repositories.Querier, id int) (int, error)
	// SetLessonCount updates the lesson count of a course
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "id" is the ID of the course.
	// "lessonCount" is the new lesson count.
	//
	// Returns an error if any.
	SetLessonCount(ctx context.Context, q repositories.Querier, id, lessonCount int) error
	// UpdateAggregates writes the derived fields of a course
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "id" is the ID of the course.
	// "enrollCount" is the recomputed enrollment count.
	// "averageRating" is the recomputed average rating, nil if no reviews exist.
	//
	// Returns an error if any.
	UpdateAggregates(ctx context.Context, q repositories.Querier, id, enrollCount int, averageRating *float64) error
	// GetAggregate retrieves the derived statistics of a course
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "id" is the ID of the course.
	//
	// Returns the aggregate and an error if any.
	GetAggregate(ctx context.Context, q repositories.Querier, id int) (*models.CourseAggregateResponse, error)
}

// EnrollmentRepository defines methods for enrollment data access
type EnrollmentRepository interface {
	// GetByID retrieves an enrollment by ID
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "id" is the ID of the enrollment.
	//
	// Returns the enrollment and an error if any.
	GetByID(ctx context.Context, q repositories.Querier, id int) (*models.Enrollment, error)
	// ExistsForLearner checks if an active or completed enrollment exists
	// for the (course, learner) pair
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "courseID" is the ID of the course.
	// "learnerID" is the ID of the learner.
	//
	// Returns a boolean and an error if any.
	ExistsForLearner(ctx context.Context, q repositories.Querier, courseID, learnerID int) (bool, error)
	// Create creates a new active enrollment
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "enrollment" is the enrollment to create.
	//
	// Returns an error if any.
	Create(ctx context.Context, q repositories.Querier, enrollment *models.Enrollment) error
	// Cancel sets an enrollment's status to cancelled
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "id" is the ID of the enrollment.
	//
	// Returns an error if any.
	Cancel(ctx context.Context, q repositories.Querier, id int) error
	// CountByCourse counts active and completed enrollments for a course
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "courseID" is the ID of the course.
	//
	// Returns the count and an error if any.
	CountByCourse(ctx context.Context, q repositories.Querier, courseID int) (int, error)
	// UpdateProgress writes an enrollment's progress percentage
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "id" is the ID of the enrollment.
	// "percentage" is the recomputed progress percentage.
	//
	// Returns an error if any.
	UpdateProgress(ctx context.Context, q repositories.Querier, id int, percentage float64) error
	// MarkCompleted atomically sets completed_at and status if the latch is
	// still open
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "id" is the ID of the enrollment.
	// "completedAt" is the completion timestamp.
	//
	// Returns true if this call fired the latch and an error if any.
	MarkCompleted(ctx context.Context, q repositories.Querier, id int, completedAt time.Time) (bool, error)
	// ActiveIDsByCourse retrieves the IDs of a course's active enrollments
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "courseID" is the ID of the course.
	//
	// Returns the IDs and an error if any.
	ActiveIDsByCourse(ctx context.Context, q repositories.Querier, courseID int) ([]int, error)
	// ListByCourse retrieves enrollments for a course with pagination
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "courseID" is the ID of the course.
	// "page" is the page number to retrieve.
	// "count" is the number of items per page.
	//
	// Returns a list of enrollments and an error if any.
	ListByCourse(ctx context.Context, q repositories.Querier, courseID, page, count int) ([]models.Enrollment, error)
}

// ReviewRepository defines methods for review data access
type ReviewRepository interface {
	// GetByID retrieves a review by ID
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "id" is the ID of the review.
	//
	// Returns the review and an error if any.
	GetByID(ctx context.Context, q repositories.Querier, id int) (*models.Review, error)
	// Create creates a new review
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "review" is the review to create.
	//
	// Returns an error if any.
	Create(ctx context.Context, q repositories.Querier, review *models.Review) error
	// UpdateRating updates a review's rating
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "id" is the ID of the review.
	// "rating" is the new rating.
	//
	// Returns an error if any.
	UpdateRating(ctx context.Context, q repositories.Querier, id, rating int) error
	// Delete deletes a review by ID
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "id" is the ID of the review.
	//
	// Returns an error if any.
	Delete(ctx context.Context, q repositories.Querier, id int) error
	// AggregateByCourse computes review count and average rating for a course
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "courseID" is the ID of the course.
	//
	// Returns the count, the average rating (nil if no reviews), and an error if any.
	AggregateByCourse(ctx context.Context, q repositories.Querier, courseID int) (int, *float64, error)
	// ListByCourse retrieves reviews for a course with pagination
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "courseID" is the ID of the course.
	// "page" is the page number to retrieve.
	// "count" is the number of items per page.
	//
	// Returns a list of reviews and an error if any.
	ListByCourse(ctx context.Context, q repositories.Querier, courseID, page, count int) ([]models.Review, error)
}

type courseAggregator struct {
	courseRepo     CourseRepository
	enrollmentRepo EnrollmentRepository
	reviewRepo     ReviewRepository
}

// NewCourseAggregator creates a new course aggregator
func NewCourseAggregator(
	courseRepo CourseRepository,
	enrollmentRepo EnrollmentRepository,
	reviewRepo ReviewRepository,
) *courseAggregator {
	return &courseAggregator{
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		reviewRepo:     reviewRepo,
	}
}

// RecomputeCourse recomputes a course's enrollment count and average rating
// from a fresh scan of the current enrollment and review rows, never from a
// stored delta. Repeated invocation with no intervening writes converges to
// the same values, which is what makes replayed or out-of-order mutation
// events safe. A missing course is a silent no-op.
func (a *courseAggregator) RecomputeCourse(ctx context.Context, q repositories.Querier, courseID int) error {
	exists, err := a.courseRepo.Exists(ctx, q, courseID)
	if err != nil {
		return fmt.Errorf("failed to check course: %w", err)
	}
	if !exists {
		return nil
	}

	enrollCount, err := a.enrollmentRepo.CountByCourse(ctx, q, courseID)
	if err != nil {
		return fmt.Errorf("failed to recount enrollments: %w", err)
	}

	_, averageRating, err := a.reviewRepo.AggregateByCourse(ctx, q, courseID)
	if err != nil {
		return fmt.Errorf("failed to recompute average rating: %w", err)
	}

	if err := a.courseRepo.UpdateAggregates(ctx, q, courseID, enrollCount, averageRating); err != nil {
		return fmt.Errorf("failed to write course aggregates: %w", err)
	}

	return nil
}
