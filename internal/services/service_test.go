package services

import (
	"context"
	"sync"
	"time"

	"github.com/courseloom/backend/internal/apperrors"
	"github.com/courseloom/backend/internal/models"
	"github.com/courseloom/backend/internal/repositories"
)

// mockStore is a mock implementation of Store that runs the unit of work
// without a real transaction
type mockStore struct {
	err error
}

func (m *mockStore) InTx(ctx context.Context, fn func(q repositories.Querier) error) error {
	if m.err != nil {
		return m.err
	}
	return fn(nil)
}

// mockCourseRepository is a mock implementation of CourseRepository
type mockCourseRepository struct {
	course      *models.Course
	exists      bool
	lessonCount int
	aggregate   *models.CourseAggregateResponse

	getErr            error
	existsErr         error
	createErr         error
	lessonCountErr    error
	setLessonCountErr error
	updateErr         error
	getAggregateErr   error

	updateCalls      int
	gotEnrollCount   int
	gotAverageRating *float64
}

func (m *mockCourseRepository) GetByID(ctx context.Context, q repositories.Querier, id int) (*models.Course, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.course == nil {
		return nil, apperrors.ErrCourseNotFound
	}
	return m.course, nil
}

func (m *mockCourseRepository) Exists(ctx context.Context, q repositories.Querier, id int) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.exists, nil
}

func (m *mockCourseRepository) Create(ctx context.Context, q repositories.Querier, course *models.Course) error {
	if m.createErr != nil {
		return m.createErr
	}
	course.ID = 1
	return nil
}

func (m *mockCourseRepository) LessonCount(ctx context.Context, q repositories.Querier, id int) (int, error) {
	if m.lessonCountErr != nil {
		return 0, m.lessonCountErr
	}
	return m.lessonCount, nil
}

func (m *mockCourseRepository) SetLessonCount(ctx context.Context, q repositories.Querier, id, lessonCount int) error {
	if m.setLessonCountErr != nil {
		return m.setLessonCountErr
	}
	m.lessonCount = lessonCount
	return nil
}

func (m *mockCourseRepository) UpdateAggregates(ctx context.Context, q repositories.Querier, id, enrollCount int, averageRating *float64) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updateCalls++
	m.gotEnrollCount = enrollCount
	m.gotAverageRating = averageRating
	return nil
}

func (m *mockCourseRepository) GetAggregate(ctx context.Context, q repositories.Querier, id int) (*models.CourseAggregateResponse, error) {
	if m.getAggregateErr != nil {
		return nil, m.getAggregateErr
	}
	if m.aggregate == nil {
		return nil, apperrors.ErrCourseNotFound
	}
	return m.aggregate, nil
}

// mockEnrollmentRepository is a mock implementation of EnrollmentRepository.
// MarkCompleted keeps real latch semantics under a mutex so concurrent callers
// can race against it.
type mockEnrollmentRepository struct {
	mu sync.Mutex

	enrollment       *models.Enrollment
	existsForLearner bool
	count            int
	activeIDs        []int
	enrollments      []models.Enrollment

	getErr            error
	existsErr         error
	createErr         error
	cancelErr         error
	countErr          error
	updateProgressErr error
	markCompletedErr  error
	activeIDsErr      error
	listErr           error

	lastProgress float64
}

func (m *mockEnrollmentRepository) GetByID(ctx context.Context, q repositories.Querier, id int) (*models.Enrollment, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enrollment == nil {
		return nil, apperrors.ErrEnrollmentNotFound
	}
	snapshot := *m.enrollment
	return &snapshot, nil
}

func (m *mockEnrollmentRepository) ExistsForLearner(ctx context.Context, q repositories.Querier, courseID, learnerID int) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.existsForLearner, nil
}

func (m *mockEnrollmentRepository) Create(ctx context.Context, q repositories.Querier, enrollment *models.Enrollment) error {
	if m.createErr != nil {
		return m.createErr
	}
	enrollment.ID = 1
	enrollment.Status = models.EnrollmentStatusActive
	return nil
}

func (m *mockEnrollmentRepository) Cancel(ctx context.Context, q repositories.Querier, id int) error {
	if m.cancelErr != nil {
		return m.cancelErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enrollment != nil {
		m.enrollment.Status = models.EnrollmentStatusCancelled
	}
	return nil
}

func (m *mockEnrollmentRepository) CountByCourse(ctx context.Context, q repositories.Querier, courseID int) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.count, nil
}

func (m *mockEnrollmentRepository) UpdateProgress(ctx context.Context, q repositories.Querier, id int, percentage float64) error {
	if m.updateProgressErr != nil {
		return m.updateProgressErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastProgress = percentage
	if m.enrollment != nil {
		m.enrollment.ProgressPercentage = percentage
	}
	return nil
}

func (m *mockEnrollmentRepository) MarkCompleted(ctx context.Context, q repositories.Querier, id int, completedAt time.Time) (bool, error) {
	if m.markCompletedErr != nil {
		return false, m.markCompletedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enrollment == nil || m.enrollment.CompletedAt != nil {
		return false, nil
	}
	m.enrollment.CompletedAt = &completedAt
	m.enrollment.Status = models.EnrollmentStatusCompleted
	return true, nil
}

func (m *mockEnrollmentRepository) ActiveIDsByCourse(ctx context.Context, q repositories.Querier, courseID int) ([]int, error) {
	if m.activeIDsErr != nil {
		return nil, m.activeIDsErr
	}
	return m.activeIDs, nil
}

func (m *mockEnrollmentRepository) ListByCourse(ctx context.Context, q repositories.Querier, courseID, page, count int) ([]models.Enrollment, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.enrollments, nil
}

// mockLessonProgressRepository is a mock implementation of LessonProgressRepository
type mockLessonProgressRepository struct {
	completedCount int

	upsertErr error
	countErr  error

	lastUpsert *models.LessonProgress
}

func (m *mockLessonProgressRepository) Upsert(ctx context.Context, q repositories.Querier, progress *models.LessonProgress) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.lastUpsert = progress
	return nil
}

func (m *mockLessonProgressRepository) CountCompletedByEnrollment(ctx context.Context, q repositories.Querier, enrollmentID int) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.completedCount, nil
}

// mockReviewRepository is a mock implementation of ReviewRepository. The
// aggregate is derived from the ratings slice the way the real repository
// derives it from review rows.
type mockReviewRepository struct {
	review  *models.Review
	ratings []int
	reviews []models.Review

	getErr    error
	createErr error
	updateErr error
	deleteErr error
	aggErr    error
	listErr   error
}

func (m *mockReviewRepository) GetByID(ctx context.Context, q repositories.Querier, id int) (*models.Review, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.review == nil {
		return nil, apperrors.ErrReviewNotFound
	}
	return m.review, nil
}

func (m *mockReviewRepository) Create(ctx context.Context, q repositories.Querier, review *models.Review) error {
	if m.createErr != nil {
		return m.createErr
	}
	review.ID = 1
	m.ratings = append(m.ratings, review.Rating)
	return nil
}

func (m *mockReviewRepository) UpdateRating(ctx context.Context, q repositories.Querier, id, rating int) error {
	return m.updateErr
}

func (m *mockReviewRepository) Delete(ctx context.Context, q repositories.Querier, id int) error {
	return m.deleteErr
}

func (m *mockReviewRepository) AggregateByCourse(ctx context.Context, q repositories.Querier, courseID int) (int, *float64, error) {
	if m.aggErr != nil {
		return 0, nil, m.aggErr
	}
	if len(m.ratings) == 0 {
		return 0, nil, nil
	}
	sum := 0
	for _, r := range m.ratings {
		sum += r
	}
	avg := float64(sum) / float64(len(m.ratings))
	return len(m.ratings), &avg, nil
}

func (m *mockReviewRepository) ListByCourse(ctx context.Context, q repositories.Querier, courseID, page, count int) ([]models.Review, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.reviews, nil
}

// mockCourseAggregator is a mock implementation of CourseAggregator
type mockCourseAggregator struct {
	err error

	calls        int
	lastCourseID int
}

func (m *mockCourseAggregator) RecomputeCourse(ctx context.Context, q repositories.Querier, courseID int) error {
	if m.err != nil {
		return m.err
	}
	m.calls++
	m.lastCourseID = courseID
	return nil
}

// mockProgressCalculator is a mock implementation of ProgressCalculator
type mockProgressCalculator struct {
	err error

	calls []int
}

func (m *mockProgressCalculator) RecomputeProgress(ctx context.Context, q repositories.Querier, enrollmentID int) error {
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, enrollmentID)
	return nil
}

// mockNotifier is a mock implementation of CompletionNotifier
type mockNotifier struct {
	mu    sync.Mutex
	calls []int
}

func (m *mockNotifier) EnrollmentCompleted(ctx context.Context, enrollmentID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, enrollmentID)
}

func (m *mockNotifier) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
