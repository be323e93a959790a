// Package handlers provides HTTP handlers for the statistics engine
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/courseloom/backend/internal/apperrors"
	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// RespondServiceError maps a domain error to an HTTP status. Every error
// means "no state change occurred"; callers decide their own retry policy.
func (h *BaseHandler) RespondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrCourseNotFound),
		errors.Is(err, apperrors.ErrEnrollmentNotFound),
		errors.Is(err, apperrors.ErrReviewNotFound):
		h.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperrors.ErrDuplicateEnrollment),
		errors.Is(err, apperrors.ErrCancelledEnrollment):
		h.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperrors.ErrInvalidRating):
		h.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		h.Logger.Error("internal error", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
