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

// EnrollmentService is the interface that wraps enrollment mutation operations
type EnrollmentService interface {
	// CreateEnrollment enrolls a learner in a course
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	// "learnerID" is the ID of the learner.
	//
	// Returns the created enrollment and an error if any.
	CreateEnrollment(ctx context.Context, courseID, learnerID int) (*models.Enrollment, error)
	// CancelEnrollment cancels an enrollment
	//
	// "ctx" is the context for the request.
	// "enrollmentID" is the ID of the enrollment.
	//
	// Returns an error if any.
	CancelEnrollment(ctx context.Context, enrollmentID int) error
	// UpsertLessonProgress marks or unmarks a lesson for an enrollment
	//
	// "ctx" is the context for the request.
	// "enrollmentID" is the ID of the enrollment.
	// "lessonID" is the ID of the lesson.
	// "isCompleted" is the new completion mark.
	//
	// Returns an error if any.
	UpsertLessonProgress(ctx context.Context, enrollmentID, lessonID int, isCompleted bool) error
}

// EnrollmentHandler handles HTTP requests for enrollment mutations
type EnrollmentHandler struct {
	BaseHandler
	service EnrollmentService
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(svc EnrollmentService, logger *zap.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all enrollment handler routes
func (h *EnrollmentHandler) RegisterRoutes(r chi.Router, apiKeyMiddleware func(http.Handler) http.Handler) {
	r.Route("/enrollments", func(r chi.Router) {
		r.Use(apiKeyMiddleware)
		r.Post("/", h.CreateEnrollment)
		r.Post("/{id}/cancel", h.CancelEnrollment)
		r.Put("/{id}/lessons/{lessonID}", h.UpsertLessonProgress)
	})
}

// CreateEnrollment handles POST /enrollments
// @Summary Enroll a learner in a course
// @Description Creates an active enrollment and updates the course's enrollment count in the same transaction
// @Tags enrollments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CreateEnrollmentRequest true "Enrollment to create"
// @Success 201 {object} models.Enrollment "Created enrollment"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 409 {object} map[string]string "Enrollment already exists"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /enrollments [post]
func (h *EnrollmentHandler) CreateEnrollment(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEnrollmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CourseID <= 0 || req.LearnerID <= 0 {
		h.RespondError(w, http.StatusBadRequest, "courseId and learnerId are required")
		return
	}

	enrollment, err := h.service.CreateEnrollment(r.Context(), req.CourseID, req.LearnerID)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, enrollment)
}

// CancelEnrollment handles POST /enrollments/{id}/cancel
// @Summary Cancel an enrollment
// @Description Sets the enrollment's status to cancelled and updates the course's enrollment count
// @Tags enrollments
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Enrollment ID"
// @Success 204 "Cancelled"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 404 {object} map[string]string "Enrollment not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /enrollments/{id}/cancel [post]
func (h *EnrollmentHandler) CancelEnrollment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid enrollment id")
		return
	}

	if err := h.service.CancelEnrollment(r.Context(), id); err != nil {
		h.RespondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpsertLessonProgress handles PUT /enrollments/{id}/lessons/{lessonID}
// @Summary Mark or unmark a lesson for an enrollment
// @Description Upserts the lesson-completion mark and recomputes the enrollment's progress in the same transaction
// @Tags enrollments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Enrollment ID"
// @Param lessonID path int true "Lesson ID"
// @Param request body models.UpsertLessonProgressRequest true "Completion mark"
// @Success 204 "Progress recomputed"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 404 {object} map[string]string "Enrollment not found"
// @Failure 409 {object} map[string]string "Enrollment is cancelled"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /enrollments/{id}/lessons/{lessonID} [put]
func (h *EnrollmentHandler) UpsertLessonProgress(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid enrollment id")
		return
	}

	lessonID, err := strconv.Atoi(chi.URLParam(r, "lessonID"))
	if err != nil || lessonID <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid lesson id")
		return
	}

	var req models.UpsertLessonProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.UpsertLessonProgress(r.Context(), id, lessonID, req.IsCompleted); err != nil {
		h.RespondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
