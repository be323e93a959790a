// Package apperrors defines the domain errors returned by the statistics engine.
package apperrors

import "errors"

var ErrCourseNotFound = errors.New("course not found")
var ErrEnrollmentNotFound = errors.New("enrollment not found")
var ErrReviewNotFound = errors.New("review not found")
var ErrDuplicateEnrollment = errors.New("enrollment already exists for this course and learner")
var ErrInvalidRating = errors.New("rating must be between 1 and 5")
var ErrCancelledEnrollment = errors.New("enrollment is cancelled")
var ErrRecomputationFailed = errors.New("aggregate recomputation failed")
