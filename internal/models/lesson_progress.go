package models

import "time"

// LessonProgress represents a single lesson-completion mark within an enrollment.
// There is exactly one row per (enrollment, lesson) pair; writes are upserts.
type LessonProgress struct {
	ID           int        `json:"id"`
	EnrollmentID int        `json:"enrollmentId"`
	LessonID     int        `json:"lessonId"`
	IsCompleted  bool       `json:"isCompleted"`
	CompletedAt  *time.Time `json:"completedAt"`
}

// UpsertLessonProgressRequest represents a request to mark or unmark a lesson
type UpsertLessonProgressRequest struct {
	IsCompleted bool `json:"isCompleted"`
}
