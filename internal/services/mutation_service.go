package services

import (
	"context"
	"fmt"
	"time"

	"github.com/courseloom/backend/internal/apperrors"
	"github.com/courseloom/backend/internal/models"
	"github.com/courseloom/backend/internal/repositories"
	"go.uber.org/zap"
)

// Store runs transactional units of work against the database
type Store interface {
	// InTx runs fn inside a transaction, committing on nil and rolling back otherwise
	//
	// "ctx" is the context for the request.
	// "fn" is the unit of work; it receives the transaction-bound executor.
	//
	// Returns an error if any.
	InTx(ctx context.Context, fn func(q repositories.Querier) error) error
}

// CourseAggregator recomputes a course's derived fields from source rows
type CourseAggregator interface {
	// RecomputeCourse recomputes enrollment count and average rating for a course
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "courseID" is the ID of the course.
	//
	// Returns an error if any.
	RecomputeCourse(ctx context.Context, q repositories.Querier, courseID int) error
}

// ProgressCalculator recomputes an enrollment's derived fields from source rows
type ProgressCalculator interface {
	// RecomputeProgress recomputes the completion percentage for an enrollment
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "enrollmentID" is the ID of the enrollment.
	//
	// Returns an error if any.
	RecomputeProgress(ctx context.Context, q repositories.Querier, enrollmentID int) error
}

// mutationService is the single write path for enrollments, reviews, and
// lesson-progress marks. Each operation commits its fine-grained write and the
// matching aggregate recomputation as one transaction; a failed recomputation
// rolls back the write, so readers never observe a violated invariant.
type mutationService struct {
	store          Store
	courseRepo     CourseRepository
	enrollmentRepo EnrollmentRepository
	progressRepo   LessonProgressRepository
	reviewRepo     ReviewRepository
	aggregator     CourseAggregator
	calculator     ProgressCalculator
	logger         *zap.Logger
}

// NewMutationService creates a new mutation service
func NewMutationService(
	store Store,
	courseRepo CourseRepository,
	enrollmentRepo EnrollmentRepository,
	progressRepo LessonProgressRepository,
	reviewRepo ReviewRepository,
	aggregator CourseAggregator,
	calculator ProgressCalculator,
	logger *zap.Logger,
) *mutationService {
	return &mutationService{
		store:          store,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		progressRepo:   progressRepo,
		reviewRepo:     reviewRepo,
		aggregator:     aggregator,
		calculator:     calculator,
		logger:         logger,
	}
}

// CreateCourse registers a course with the engine. Aggregates start at zero
// enrollments and no rating, so no recomputation is needed.
func (s *mutationService) CreateCourse(ctx context.Context, slug, title string, lessonCount int) (*models.Course, error) {
	if lessonCount < 0 {
		return nil, fmt.Errorf("lesson count must not be negative")
	}

	course := &models.Course{
		Slug:        slug,
		Title:       title,
		LessonCount: lessonCount,
	}

	err := s.store.InTx(ctx, func(q repositories.Querier) error {
		return s.courseRepo.Create(ctx, q, course)
	})
	if err != nil {
		return nil, err
	}

	return course, nil
}

// SetLessonCount updates a course's lesson count and recomputes progress for
// its active enrollments, since the denominator changed. Completed
// enrollments keep their latch.
func (s *mutationService) SetLessonCount(ctx context.Context, courseID, lessonCount int) error {
	if lessonCount < 0 {
		return fmt.Errorf("lesson count must not be negative")
	}

	return s.store.InTx(ctx, func(q repositories.Querier) error {
		if err := s.courseRepo.SetLessonCount(ctx, q, courseID, lessonCount); err != nil {
			return err
		}

		ids, err := s.enrollmentRepo.ActiveIDsByCourse(ctx, q, courseID)
		if err != nil {
			return err
		}

		for _, id := range ids {
			if err := s.calculator.RecomputeProgress(ctx, q, id); err != nil {
				return fmt.Errorf("%w: %w", apperrors.ErrRecomputationFailed, err)
			}
		}

		return nil
	})
}

// CreateEnrollment enrolls a learner in a course and updates the course's
// enrollment count in the same transaction.
func (s *mutationService) CreateEnrollment(ctx context.Context, courseID, learnerID int) (*models.Enrollment, error) {
	enrollment := &models.Enrollment{
		CourseID:  courseID,
		LearnerID: learnerID,
	}

	err := s.store.InTx(ctx, func(q repositories.Querier) error {
		exists, err := s.courseRepo.Exists(ctx, q, courseID)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.ErrCourseNotFound
		}

		enrolled, err := s.enrollmentRepo.ExistsForLearner(ctx, q, courseID, learnerID)
		if err != nil {
			return err
		}
		if enrolled {
			return apperrors.ErrDuplicateEnrollment
		}

		if err := s.enrollmentRepo.Create(ctx, q, enrollment); err != nil {
			return err
		}

		if err := s.aggregator.RecomputeCourse(ctx, q, courseID); err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrRecomputationFailed, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("enrollment created",
		zap.Int("enrollment_id", enrollment.ID),
		zap.Int("course_id", courseID),
		zap.Int("learner_id", learnerID),
	)

	return enrollment, nil
}

// CancelEnrollment cancels an enrollment. Cancelled enrollments leave the
// enrollment count but keep their row, so historical aggregates survive.
func (s *mutationService) CancelEnrollment(ctx context.Context, enrollmentID int) error {
	return s.store.InTx(ctx, func(q repositories.Querier) error {
		enrollment, err := s.enrollmentRepo.GetByID(ctx, q, enrollmentID)
		if err != nil {
			return err
		}

		if err := s.enrollmentRepo.Cancel(ctx, q, enrollmentID); err != nil {
			return err
		}

		if err := s.aggregator.RecomputeCourse(ctx, q, enrollment.CourseID); err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrRecomputationFailed, err)
		}

		return nil
	})
}

// UpsertLessonProgress writes a lesson-completion mark and recomputes the
// enrollment's progress in the same transaction. Cancelled enrollments do not
// accept further progress.
func (s *mutationService) UpsertLessonProgress(ctx context.Context, enrollmentID, lessonID int, isCompleted bool) error {
	return s.store.InTx(ctx, func(q repositories.Querier) error {
		enrollment, err := s.enrollmentRepo.GetByID(ctx, q, enrollmentID)
		if err != nil {
			return err
		}
		if enrollment.Status == models.EnrollmentStatusCancelled {
			return apperrors.ErrCancelledEnrollment
		}

		progress := &models.LessonProgress{
			EnrollmentID: enrollmentID,
			LessonID:     lessonID,
			IsCompleted:  isCompleted,
		}
		if isCompleted {
			now := time.Now().UTC()
			progress.CompletedAt = &now
		}

		if err := s.progressRepo.Upsert(ctx, q, progress); err != nil {
			return err
		}

		if err := s.calculator.RecomputeProgress(ctx, q, enrollmentID); err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrRecomputationFailed, err)
		}

		return nil
	})
}

// CreateReview creates a review and recomputes the course's average rating in
// the same transaction.
func (s *mutationService) CreateReview(ctx context.Context, courseID, authorID, rating int) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.ErrInvalidRating
	}

	review := &models.Review{
		CourseID: courseID,
		AuthorID: authorID,
		Rating:   rating,
	}

	err := s.store.InTx(ctx, func(q repositories.Querier) error {
		exists, err := s.courseRepo.Exists(ctx, q, courseID)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.ErrCourseNotFound
		}

		if err := s.reviewRepo.Create(ctx, q, review); err != nil {
			return err
		}

		if err := s.aggregator.RecomputeCourse(ctx, q, courseID); err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrRecomputationFailed, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return review, nil
}

// UpdateReview changes a review's rating and recomputes the course's average
// rating in the same transaction.
func (s *mutationService) UpdateReview(ctx context.Context, reviewID, rating int) error {
	if rating < 1 || rating > 5 {
		return apperrors.ErrInvalidRating
	}

	return s.store.InTx(ctx, func(q repositories.Querier) error {
		review, err := s.reviewRepo.GetByID(ctx, q, reviewID)
		if err != nil {
			return err
		}

		if err := s.reviewRepo.UpdateRating(ctx, q, reviewID, rating); err != nil {
			return err
		}

		if err := s.aggregator.RecomputeCourse(ctx, q, review.CourseID); err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrRecomputationFailed, err)
		}

		return nil
	})
}

// DeleteReview deletes a review and recomputes the course's average rating in
// the same transaction.
func (s *mutationService) DeleteReview(ctx context.Context, reviewID int) error {
	return s.store.InTx(ctx, func(q repositories.Querier) error {
		review, err := s.reviewRepo.GetByID(ctx, q, reviewID)
		if err != nil {
			return err
		}

		if err := s.reviewRepo.Delete(ctx, q, reviewID); err != nil {
			return err
		}

		if err := s.aggregator.RecomputeCourse(ctx, q, review.CourseID); err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrRecomputationFailed, err)
		}

		return nil
	})
}
