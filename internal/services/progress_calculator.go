package services

import (
	"context"
	"fmt"
	"time"

	"github.com/courseloom/backend/internal/models"
	"github.com/courseloom/backend/internal/repositories"
	"go.uber.org/zap"
)

// LessonProgressRepository defines methods for lesson progress data access
type LessonProgressRepository interface {
	// Upsert inserts or updates the completion mark for an (enrollment, lesson) pair
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "progress" is the lesson progress mark to upsert.
	//
	// Returns an error if any.
	Upsert(ctx context.Context, q repositories.Querier, progress *models.LessonProgress) error
	// CountCompletedByEnrollment counts completed lesson marks for an enrollment
	//
	// "ctx" is the context for the request.
	// "q" is the query executor (database handle or transaction).
	// "enrollmentID" is the ID of the enrollment.
	//
	// Returns the count and an error if any.
	CountCompletedByEnrollment(ctx context.Context, q repositories.Querier, enrollmentID int) (int, error)
}

// CompletionNotifier is invoked exactly once per enrollment, when the
// completion latch fires. Collaborators such as certificate issuance hook in
// here.
type CompletionNotifier interface {
	// EnrollmentCompleted notifies that an enrollment reached 100% for the first time
	//
	// "ctx" is the context for the request.
	// "enrollmentID" is the ID of the completed enrollment.
	EnrollmentCompleted(ctx context.Context, enrollmentID int)
}

type progressCalculator struct {
	courseRepo     CourseRepository
	enrollmentRepo EnrollmentRepository
	progressRepo   LessonProgressRepository
	notifier       CompletionNotifier
	logger         *zap.Logger
}

// NewProgressCalculator creates a new progress calculator. The notifier may
// be nil when no completion collaborator is wired.
func NewProgressCalculator(
	courseRepo CourseRepository,
	enrollmentRepo EnrollmentRepository,
	progressRepo LessonProgressRepository,
	notifier CompletionNotifier,
	logger *zap.Logger,
) *progressCalculator {
	return &progressCalculator{
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		progressRepo:   progressRepo,
		notifier:       notifier,
		logger:         logger,
	}
}

// RecomputeProgress recomputes an enrollment's completion percentage from the
// current lesson-progress rows and the owning course's lesson count, then
// applies the completion transition.
//
// The percentage is always a full recompute from source rows, so replaying the
// call is a no-op. The completion latch is one-way: once completed_at is set
// it is never cleared, and status never regresses from completed, even when a
// lesson is later un-marked. Cancelled enrollments are frozen.
func (c *progressCalculator) RecomputeProgress(ctx context.Context, q repositories.Querier, enrollmentID int) error {
	enrollment, err := c.enrollmentRepo.GetByID(ctx, q, enrollmentID)
	if err != nil {
		return fmt.Errorf("failed to load enrollment: %w", err)
	}

	if enrollment.Status == models.EnrollmentStatusCancelled {
		return nil
	}

	lessonCount, err := c.courseRepo.LessonCount(ctx, q, enrollment.CourseID)
	if err != nil {
		return fmt.Errorf("failed to get lesson count: %w", err)
	}

	completed, err := c.progressRepo.CountCompletedByEnrollment(ctx, q, enrollmentID)
	if err != nil {
		return fmt.Errorf("failed to count completed lessons: %w", err)
	}

	// A course with no lessons yields 0%, not a division error. Marks can
	// outnumber lessons when the authoring system removes lessons, so clamp.
	percentage := 0.0
	if lessonCount > 0 {
		percentage = 100 * float64(completed) / float64(lessonCount)
		if percentage > 100 {
			percentage = 100
		}
	}

	if err := c.enrollmentRepo.UpdateProgress(ctx, q, enrollmentID, percentage); err != nil {
		return fmt.Errorf("failed to write progress percentage: %w", err)
	}

	if percentage < 100 || enrollment.CompletedAt != nil {
		return nil
	}

	fired, err := c.enrollmentRepo.MarkCompleted(ctx, q, enrollmentID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to fire completion latch: %w", err)
	}

	if fired {
		c.logger.Info("enrollment completed",
			zap.Int("enrollment_id", enrollmentID),
			zap.Int("course_id", enrollment.CourseID),
		)
		if c.notifier != nil {
			c.notifier.EnrollmentCompleted(ctx, enrollmentID)
		}
	}

	return nil
}
