package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/courseloom/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CourseAdminService is the interface that wraps the course-side seam for the
// catalog and authoring systems
type CourseAdminService interface {
	// CreateCourse registers a course with the statistics engine
	//
	// "ctx" is the context for the request.
	// "slug" is the slug of the course.
	// "title" is the title of the course.
	// "lessonCount" is the number of lessons.
	//
	// Returns the created course and an error if any.
	CreateCourse(ctx context.Context, slug, title string, lessonCount int) (*models.Course, error)
	// SetLessonCount changes a course's lesson count and recomputes progress
	// for its active enrollments
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	// "lessonCount" is the new lesson count.
	//
	// Returns an error if any.
	SetLessonCount(ctx context.Context, courseID, lessonCount int) error
}

// CourseHandler handles HTTP requests for course administration
type CourseHandler struct {
	BaseHandler
	service CourseAdminService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(svc CourseAdminService, logger *zap.Logger) *CourseHandler {
	return &CourseHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all course handler routes
func (h *CourseHandler) RegisterRoutes(r chi.Router, apiKeyMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(apiKeyMiddleware)
		r.Post("/courses", h.CreateCourse)
		r.Patch("/courses/{id}/lessons", h.SetLessonCount)
	})
}

// CreateCourse handles POST /courses
// @Summary Register a course
// @Description Registers a course with the statistics engine; aggregates start at zero enrollments and no rating
// @Tags courses
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CreateCourseRequest true "Course to register"
// @Success 201 {object} models.Course "Registered course"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses [post]
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Slug == "" || req.Title == "" {
		h.RespondError(w, http.StatusBadRequest, "slug and title are required")
		return
	}
	if req.LessonCount < 0 {
		h.RespondError(w, http.StatusBadRequest, "lessonCount must not be negative")
		return
	}

	course, err := h.service.CreateCourse(r.Context(), req.Slug, req.Title, req.LessonCount)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, course)
}

// SetLessonCount handles PATCH /courses/{id}/lessons
// @Summary Change a course's lesson count
// @Description Updates the lesson count and recomputes progress for the course's active enrollments
// @Tags courses
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Param request body models.SetLessonCountRequest true "New lesson count"
// @Success 204 "Updated"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{id}/lessons [patch]
func (h *CourseHandler) SetLessonCount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid course id")
		return
	}

	var req models.SetLessonCountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.LessonCount < 0 {
		h.RespondError(w, http.StatusBadRequest, "lessonCount must not be negative")
		return
	}

	if err := h.service.SetLessonCount(r.Context(), id, req.LessonCount); err != nil {
		h.RespondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
