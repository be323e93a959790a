package services

import (
	"context"
	"errors"
	"testing"

	"github.com/courseloom/backend/internal/apperrors"
	"github.com/courseloom/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mutationMocks struct {
	store          *mockStore
	courseRepo     *mockCourseRepository
	enrollmentRepo *mockEnrollmentRepository
	progressRepo   *mockLessonProgressRepository
	reviewRepo     *mockReviewRepository
	aggregator     *mockCourseAggregator
	calculator     *mockProgressCalculator
}

func defaultMutationMocks() *mutationMocks {
	return &mutationMocks{
		store:          &mockStore{},
		courseRepo:     &mockCourseRepository{exists: true},
		enrollmentRepo: &mockEnrollmentRepository{},
		progressRepo:   &mockLessonProgressRepository{},
		reviewRepo:     &mockReviewRepository{},
		aggregator:     &mockCourseAggregator{},
		calculator:     &mockProgressCalculator{},
	}
}

func newMutationService(m *mutationMocks) *mutationService {
	return NewMutationService(
		m.store,
		m.courseRepo,
		m.enrollmentRepo,
		m.progressRepo,
		m.reviewRepo,
		m.aggregator,
		m.calculator,
		zap.NewNop(),
	)
}

func TestMutationService_CreateCourse(t *testing.T) {
	tests := []struct {
		name          string
		lessonCount   int
		setup         func(*mutationMocks)
		expectedError bool
	}{
		{
			name:        "success",
			lessonCount: 4,
			setup:       func(m *mutationMocks) {},
		},
		{
			name:          "negative lesson count",
			lessonCount:   -1,
			setup:         func(m *mutationMocks) {},
			expectedError: true,
		},
		{
			name:        "database error",
			lessonCount: 4,
			setup: func(m *mutationMocks) {
				m.courseRepo.createErr = errors.New("database error")
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := defaultMutationMocks()
			tt.setup(mocks)
			svc := newMutationService(mocks)

			course, err := svc.CreateCourse(context.Background(), "go-basics", "Go Basics", tt.lessonCount)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, course)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 1, course.ID)
				assert.Equal(t, tt.lessonCount, course.LessonCount)
			}
		})
	}
}

func TestMutationService_SetLessonCount(t *testing.T) {
	tests := []struct {
		name               string
		lessonCount        int
		setup              func(*mutationMocks)
		expectedError      error
		wantError          bool
		expectedRecomputes int
	}{
		{
			name:        "recomputes active enrollments",
			lessonCount: 5,
			setup: func(m *mutationMocks) {
				m.enrollmentRepo.activeIDs = []int{1, 2, 3}
			},
			expectedRecomputes: 3,
		},
		{
			name:        "no active enrollments",
			lessonCount: 5,
			setup:       func(m *mutationMocks) {},
		},
		{
			name:        "negative lesson count",
			lessonCount: -1,
			setup:       func(m *mutationMocks) {},
			wantError:   true,
		},
		{
			name:        "course not found",
			lessonCount: 5,
			setup: func(m *mutationMocks) {
				m.courseRepo.setLessonCountErr = apperrors.ErrCourseNotFound
			},
			expectedError: apperrors.ErrCourseNotFound,
		},
		{
			name:        "recomputation failure rolls back",
			lessonCount: 5,
			setup: func(m *mutationMocks) {
				m.enrollmentRepo.activeIDs = []int{1}
				m.calculator.err = errors.New("database error")
			},
			expectedError: apperrors.ErrRecomputationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := defaultMutationMocks()
			tt.setup(mocks)
			svc := newMutationService(mocks)

			err := svc.SetLessonCount(context.Background(), 1, tt.lessonCount)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else if tt.wantError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Len(t, mocks.calculator.calls, tt.expectedRecomputes)
			}
		})
	}
}

func TestMutationService_CreateEnrollment(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(*mutationMocks)
		expectedError error
	}{
		{
			name:  "success",
			setup: func(m *mutationMocks) {},
		},
		{
			name: "course not found",
			setup: func(m *mutationMocks) {
				m.courseRepo.exists = false
			},
			expectedError: apperrors.ErrCourseNotFound,
		},
		{
			name: "duplicate enrollment",
			setup: func(m *mutationMocks) {
				m.enrollmentRepo.existsForLearner = true
			},
			expectedError: apperrors.ErrDuplicateEnrollment,
		},
		{
			name: "recomputation failure",
			setup: func(m *mutationMocks) {
				m.aggregator.err = errors.New("database error")
			},
			expectedError: apperrors.ErrRecomputationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := defaultMutationMocks()
			tt.setup(mocks)
			svc := newMutationService(mocks)

			enrollment, err := svc.CreateEnrollment(context.Background(), 2, 10)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, enrollment)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 1, enrollment.ID)
				assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
				assert.Equal(t, 1, mocks.aggregator.calls)
				assert.Equal(t, 2, mocks.aggregator.lastCourseID)
			}
		})
	}
}

func TestMutationService_CancelEnrollment(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(*mutationMocks)
		expectedError error
	}{
		{
			name: "success",
			setup: func(m *mutationMocks) {
				m.enrollmentRepo.enrollment = activeEnrollment()
			},
		},
		{
			name:          "enrollment not found",
			setup:         func(m *mutationMocks) {},
			expectedError: apperrors.ErrEnrollmentNotFound,
		},
		{
			name: "recomputation failure",
			setup: func(m *mutationMocks) {
				m.enrollmentRepo.enrollment = activeEnrollment()
				m.aggregator.err = errors.New("database error")
			},
			expectedError: apperrors.ErrRecomputationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := defaultMutationMocks()
			tt.setup(mocks)
			svc := newMutationService(mocks)

			err := svc.CancelEnrollment(context.Background(), 1)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				require.NoError(t, err)
				assert.Equal(t, models.EnrollmentStatusCancelled, mocks.enrollmentRepo.enrollment.Status)
				assert.Equal(t, 1, mocks.aggregator.calls)
			}
		})
	}
}

func TestMutationService_UpsertLessonProgress(t *testing.T) {
	tests := []struct {
		name          string
		isCompleted   bool
		setup         func(*mutationMocks)
		expectedError error
	}{
		{
			name:        "mark completed",
			isCompleted: true,
			setup: func(m *mutationMocks) {
				m.enrollmentRepo.enrollment = activeEnrollment()
			},
		},
		{
			name:        "un-mark clears the timestamp",
			isCompleted: false,
			setup: func(m *mutationMocks) {
				m.enrollmentRepo.enrollment = activeEnrollment()
			},
		},
		{
			name:          "enrollment not found",
			isCompleted:   true,
			setup:         func(m *mutationMocks) {},
			expectedError: apperrors.ErrEnrollmentNotFound,
		},
		{
			name:        "cancelled enrollment rejected",
			isCompleted: true,
			setup: func(m *mutationMocks) {
				enrollment := activeEnrollment()
				enrollment.Status = models.EnrollmentStatusCancelled
				m.enrollmentRepo.enrollment = enrollment
			},
			expectedError: apperrors.ErrCancelledEnrollment,
		},
		{
			name:        "recomputation failure",
			isCompleted: true,
			setup: func(m *mutationMocks) {
				m.enrollmentRepo.enrollment = activeEnrollment()
				m.calculator.err = errors.New("database error")
			},
			expectedError: apperrors.ErrRecomputationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := defaultMutationMocks()
			tt.setup(mocks)
			svc := newMutationService(mocks)

			err := svc.UpsertLessonProgress(context.Background(), 1, 3, tt.isCompleted)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, mocks.progressRepo.lastUpsert)
			assert.Equal(t, 1, mocks.progressRepo.lastUpsert.EnrollmentID)
			assert.Equal(t, 3, mocks.progressRepo.lastUpsert.LessonID)
			assert.Equal(t, tt.isCompleted, mocks.progressRepo.lastUpsert.IsCompleted)
			if tt.isCompleted {
				assert.NotNil(t, mocks.progressRepo.lastUpsert.CompletedAt)
			} else {
				assert.Nil(t, mocks.progressRepo.lastUpsert.CompletedAt)
			}
			assert.Equal(t, []int{1}, mocks.calculator.calls)
		})
	}
}

func TestMutationService_CreateReview(t *testing.T) {
	tests := []struct {
		name          string
		rating        int
		setup         func(*mutationMocks)
		expectedError error
	}{
		{
			name:   "success",
			rating: 4,
			setup:  func(m *mutationMocks) {},
		},
		{
			name:          "rating below range",
			rating:        0,
			setup:         func(m *mutationMocks) {},
			expectedError: apperrors.ErrInvalidRating,
		},
		{
			name:          "rating above range",
			rating:        6,
			setup:         func(m *mutationMocks) {},
			expectedError: apperrors.ErrInvalidRating,
		},
		{
			name:   "course not found",
			rating: 4,
			setup: func(m *mutationMocks) {
				m.courseRepo.exists = false
			},
			expectedError: apperrors.ErrCourseNotFound,
		},
		{
			name:   "recomputation failure",
			rating: 4,
			setup: func(m *mutationMocks) {
				m.aggregator.err = errors.New("database error")
			},
			expectedError: apperrors.ErrRecomputationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := defaultMutationMocks()
			tt.setup(mocks)
			svc := newMutationService(mocks)

			review, err := svc.CreateReview(context.Background(), 2, 10, tt.rating)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, review)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 1, review.ID)
				assert.Equal(t, tt.rating, review.Rating)
				assert.Equal(t, 1, mocks.aggregator.calls)
			}
		})
	}
}

func TestMutationService_UpdateReview(t *testing.T) {
	existing := &models.Review{ID: 1, CourseID: 2, AuthorID: 10, Rating: 5}

	tests := []struct {
		name          string
		rating        int
		setup         func(*mutationMocks)
		expectedError error
	}{
		{
			name:   "success",
			rating: 3,
			setup: func(m *mutationMocks) {
				m.reviewRepo.review = existing
			},
		},
		{
			name:          "invalid rating",
			rating:        0,
			setup:         func(m *mutationMocks) {},
			expectedError: apperrors.ErrInvalidRating,
		},
		{
			name:          "review not found",
			rating:        3,
			setup:         func(m *mutationMocks) {},
			expectedError: apperrors.ErrReviewNotFound,
		},
		{
			name:   "recomputation failure",
			rating: 3,
			setup: func(m *mutationMocks) {
				m.reviewRepo.review = existing
				m.aggregator.err = errors.New("database error")
			},
			expectedError: apperrors.ErrRecomputationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := defaultMutationMocks()
			tt.setup(mocks)
			svc := newMutationService(mocks)

			err := svc.UpdateReview(context.Background(), 1, tt.rating)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 1, mocks.aggregator.calls)
				assert.Equal(t, 2, mocks.aggregator.lastCourseID)
			}
		})
	}
}

func TestMutationService_DeleteReview(t *testing.T) {
	existing := &models.Review{ID: 1, CourseID: 2, AuthorID: 10, Rating: 5}

	tests := []struct {
		name          string
		setup         func(*mutationMocks)
		expectedError error
	}{
		{
			name: "success",
			setup: func(m *mutationMocks) {
				m.reviewRepo.review = existing
			},
		},
		{
			name:          "review not found",
			setup:         func(m *mutationMocks) {},
			expectedError: apperrors.ErrReviewNotFound,
		},
		{
			name: "recomputation failure",
			setup: func(m *mutationMocks) {
				m.reviewRepo.review = existing
				m.aggregator.err = errors.New("database error")
			},
			expectedError: apperrors.ErrRecomputationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := defaultMutationMocks()
			tt.setup(mocks)
			svc := newMutationService(mocks)

			err := svc.DeleteReview(context.Background(), 1)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 1, mocks.aggregator.calls)
				assert.Equal(t, 2, mocks.aggregator.lastCourseID)
			}
		})
	}
}
