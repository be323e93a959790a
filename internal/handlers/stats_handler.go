package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/courseloom/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// StatsService is the interface that wraps read-only aggregate queries.
// Reads return the stored aggregate columns and never trigger recomputation.
type StatsService interface {
	// GetCourseAggregate retrieves a course's enrollment count and average rating
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	//
	// Returns the aggregate and an error if any.
	GetCourseAggregate(ctx context.Context, courseID int) (*models.CourseAggregateResponse, error)
	// GetEnrollmentProgress retrieves an enrollment's derived progress state
	//
	// "ctx" is the context for the request.
	// "enrollmentID" is the ID of the enrollment.
	//
	// Returns the progress and an error if any.
	GetEnrollmentProgress(ctx context.Context, enrollmentID int) (*models.EnrollmentProgressResponse, error)
	// ListCourseReviews retrieves a page of reviews for a course
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	// "page" is the page number to retrieve.
	// "count" is the number of items per page.
	//
	// Returns a list of reviews and an error if any.
	ListCourseReviews(ctx context.Context, courseID, page, count int) ([]models.Review, error)
	// ListCourseEnrollments retrieves a page of enrollments for a course
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	// "page" is the page number to retrieve.
	// "count" is the number of items per page.
	//
	// Returns a list of enrollments and an error if any.
	ListCourseEnrollments(ctx context.Context, courseID, page, count int) ([]models.Enrollment, error)
}

// StatsHandler handles read-only HTTP requests for derived statistics
type StatsHandler struct {
	BaseHandler
	service StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(svc StatsService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all stats handler routes
func (h *StatsHandler) RegisterRoutes(r chi.Router, apiKeyMiddleware func(http.Handler) http.Handler) {
	r.Get("/courses/{id}/stats", h.GetCourseAggregate)
	r.Get("/courses/{id}/reviews", h.ListCourseReviews)
	r.Get("/enrollments/{id}/progress", h.GetEnrollmentProgress)

	// Enrollment listing exposes learner IDs, so it stays behind the API key
	r.Group(func(r chi.Router) {
		r.Use(apiKeyMiddleware)
		r.Get("/courses/{id}/enrollments", h.ListCourseEnrollments)
	})
}

// GetCourseAggregate handles GET /courses/{id}/stats
// @Summary Get a course's derived statistics
// @Description Returns the stored enrollment count and average rating without recomputing them
// @Tags stats
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.CourseAggregateResponse "Course aggregate"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{id}/stats [get]
func (h *StatsHandler) GetCourseAggregate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid course id")
		return
	}

	aggregate, err := h.service.GetCourseAggregate(r.Context(), id)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, aggregate)
}

// GetEnrollmentProgress handles GET /enrollments/{id}/progress
// @Summary Get an enrollment's derived progress
// @Description Returns the stored progress percentage, status, and completion timestamp without recomputing them
// @Tags stats
// @Produce json
// @Param id path int true "Enrollment ID"
// @Success 200 {object} models.EnrollmentProgressResponse "Enrollment progress"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 404 {object} map[string]string "Enrollment not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /enrollments/{id}/progress [get]
func (h *StatsHandler) GetEnrollmentProgress(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid enrollment id")
		return
	}

	progress, err := h.service.GetEnrollmentProgress(r.Context(), id)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, progress)
}

// ListCourseReviews handles GET /courses/{id}/reviews
// @Summary List a course's reviews
// @Description Returns a page of reviews for the course
// @Tags stats
// @Produce json
// @Param id path int true "Course ID"
// @Param page query int false "Page number (default: 1)"
// @Param count query int false "Items per page (default: 10)"
// @Success 200 {array} models.Review "Reviews"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{id}/reviews [get]
func (h *StatsHandler) ListCourseReviews(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid course id")
		return
	}

	page, count := parsePagination(r)

	reviews, err := h.service.ListCourseReviews(r.Context(), id, page, count)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	if reviews == nil {
		reviews = []models.Review{}
	}
	h.RespondJSON(w, http.StatusOK, reviews)
}

// ListCourseEnrollments handles GET /courses/{id}/enrollments
// @Summary List a course's enrollments
// @Description Returns a page of enrollments for the course, for admin dashboards
// @Tags stats
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Param page query int false "Page number (default: 1)"
// @Param count query int false "Items per page (default: 10)"
// @Success 200 {array} models.Enrollment "Enrollments"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{id}/enrollments [get]
func (h *StatsHandler) ListCourseEnrollments(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid course id")
		return
	}

	page, count := parsePagination(r)

	enrollments, err := h.service.ListCourseEnrollments(r.Context(), id, page, count)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	if enrollments == nil {
		enrollments = []models.Enrollment{}
	}
	h.RespondJSON(w, http.StatusOK, enrollments)
}

// parsePagination reads page and count query parameters with defaults
func parsePagination(r *http.Request) (int, int) {
	page := 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}

	count := 10
	if v, err := strconv.Atoi(r.URL.Query().Get("count")); err == nil && v > 0 {
		count = v
	}

	return page, count
}
