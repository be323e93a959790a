package models

// Review represents a learner's review of a course
type Review struct {
	ID       int `json:"id"`
	CourseID int `json:"courseId"`
	AuthorID int `json:"authorId"`
	Rating   int `json:"rating"` // integer in [1,5]
}

// CreateReviewRequest represents a request to create a review
type CreateReviewRequest struct {
	AuthorID int `json:"authorId"`
	Rating   int `json:"rating"`
}

// UpdateReviewRequest represents a request to change a review's rating
type UpdateReviewRequest struct {
	Rating int `json:"rating"`
}
