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

// ReviewService is the interface that wraps review mutation operations
type ReviewService interface {
	// CreateReview creates a review for a course
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	// "authorID" is the ID of the author.
	// "rating" is the rating in [1,5].
	//
	// Returns the created review and an error if any.
	CreateReview(ctx context.Context, courseID, authorID, rating int) (*models.Review, error)
	// UpdateReview changes a review's rating
	//
	// "ctx" is the context for the request.
	// "reviewID" is the ID of the review.
	// "rating" is the new rating in [1,5].
	//
	// Returns an error if any.
	UpdateReview(ctx context.Context, reviewID, rating int) error
	// DeleteReview deletes a review
	//
	// "ctx" is the context for the request.
	// "reviewID" is the ID of the review.
	//
	// Returns an error if any.
	DeleteReview(ctx context.Context, reviewID int) error
}

// ReviewHandler handles HTTP requests for review mutations
type ReviewHandler struct {
	BaseHandler
	service ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(svc ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all review handler routes
func (h *ReviewHandler) RegisterRoutes(r chi.Router, apiKeyMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(apiKeyMiddleware)
		r.Post("/courses/{id}/reviews", h.CreateReview)
		r.Patch("/reviews/{id}", h.UpdateReview)
		r.Delete("/reviews/{id}", h.DeleteReview)
	})
}

// CreateReview handles POST /courses/{id}/reviews
// @Summary Create a review
// @Description Creates a review and recomputes the course's average rating in the same transaction
// @Tags reviews
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Param request body models.CreateReviewRequest true "Review to create"
// @Success 201 {object} models.Review "Created review"
// @Failure 400 {object} map[string]string "Invalid rating"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{id}/reviews [post]
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	courseID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || courseID <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid course id")
		return
	}

	var req models.CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.AuthorID <= 0 {
		h.RespondError(w, http.StatusBadRequest, "authorId is required")
		return
	}

	review, err := h.service.CreateReview(r.Context(), courseID, req.AuthorID, req.Rating)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, review)
}

// UpdateReview handles PATCH /reviews/{id}
// @Summary Update a review's rating
// @Description Changes the rating and recomputes the course's average rating in the same transaction
// @Tags reviews
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Review ID"
// @Param request body models.UpdateReviewRequest true "New rating"
// @Success 204 "Updated"
// @Failure 400 {object} map[string]string "Invalid rating"
// @Failure 404 {object} map[string]string "Review not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reviews/{id} [patch]
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid review id")
		return
	}

	var req models.UpdateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.UpdateReview(r.Context(), id, req.Rating); err != nil {
		h.RespondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteReview handles DELETE /reviews/{id}
// @Summary Delete a review
// @Description Deletes the review and recomputes the course's average rating in the same transaction
// @Tags reviews
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Review ID"
// @Success 204 "Deleted"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 404 {object} map[string]string "Review not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid review id")
		return
	}

	if err := h.service.DeleteReview(r.Context(), id); err != nil {
		h.RespondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
