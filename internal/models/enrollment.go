package models

import "time"

// EnrollmentStatus represents the lifecycle state of an enrollment
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
	EnrollmentStatusCancelled EnrollmentStatus = "cancelled"
)

// Enrollment represents a learner's enrollment in a course.
//
// ProgressPercentage and CompletedAt are derived fields maintained by the
// progress calculator. CompletedAt is set at most once; completion never
// reverses even if lesson marks are later removed.
type Enrollment struct {
	ID                 int              `json:"id"`
	CourseID           int              `json:"courseId"`
	LearnerID          int              `json:"learnerId"`
	Status             EnrollmentStatus `json:"status"`
	ProgressPercentage float64          `json:"progressPercentage"`
	CompletedAt        *time.Time       `json:"completedAt"`
}

// CreateEnrollmentRequest represents a request to enroll a learner in a course
type CreateEnrollmentRequest struct {
	CourseID  int `json:"courseId"`
	LearnerID int `json:"learnerId"`
}

// EnrollmentProgressResponse represents the derived progress state of an enrollment
type EnrollmentProgressResponse struct {
	ProgressPercentage float64          `json:"progressPercentage"`
	Status             EnrollmentStatus `json:"status"`
	CompletedAt        *time.Time       `json:"completedAt"`
}
