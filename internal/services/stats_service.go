package services

import (
	"context"
	"fmt"

	"github.com/courseloom/backend/internal/models"
	"github.com/courseloom/backend/internal/repositories"
)

// statsService serves the denormalized aggregate fields to dashboards and the
// catalog. Reads never trigger recomputation; they return whatever the last
// committed mutation left in the aggregate columns.
type statsService struct {
	db             repositories.Querier
	courseRepo     CourseRepository
	enrollmentRepo EnrollmentRepository
	reviewRepo     ReviewRepository
}

// NewStatsService creates a new stats service
func NewStatsService(
	db repositories.Querier,
	courseRepo CourseRepository,
	enrollmentRepo EnrollmentRepository,
	reviewRepo ReviewRepository,
) *statsService {
	return &statsService{
		db:             db,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		reviewRepo:     reviewRepo,
	}
}

// GetCourseAggregate retrieves a course's enrollment count and average rating
func (s *statsService) GetCourseAggregate(ctx context.Context, courseID int) (*models.CourseAggregateResponse, error) {
	aggregate, err := s.courseRepo.GetAggregate(ctx, s.db, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course aggregate: %w", err)
	}

	return aggregate, nil
}

// GetEnrollmentProgress retrieves an enrollment's progress, status, and
// completion timestamp
func (s *statsService) GetEnrollmentProgress(ctx context.Context, enrollmentID int) (*models.EnrollmentProgressResponse, error) {
	enrollment, err := s.enrollmentRepo.GetByID(ctx, s.db, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	return &models.EnrollmentProgressResponse{
		ProgressPercentage: enrollment.ProgressPercentage,
		Status:             enrollment.Status,
		CompletedAt:        enrollment.CompletedAt,
	}, nil
}

// ListCourseReviews retrieves a page of reviews for a course
func (s *statsService) ListCourseReviews(ctx context.Context, courseID, page, count int) ([]models.Review, error) {
	if page < 1 {
		page = 1
	}
	if count < 1 {
		count = 10
	}

	return s.reviewRepo.ListByCourse(ctx, s.db, courseID, page, count)
}

// ListCourseEnrollments retrieves a page of enrollments for a course
func (s *statsService) ListCourseEnrollments(ctx context.Context, courseID, page, count int) ([]models.Enrollment, error) {
	if page < 1 {
		page = 1
	}
	if count < 1 {
		count = 10
	}

	return s.enrollmentRepo.ListByCourse(ctx, s.db, courseID, page, count)
}
