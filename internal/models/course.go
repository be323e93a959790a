package models

// Course represents a course in the catalog.
//
// EnrollCount and AverageRating are derived fields maintained by the course
// aggregator; LessonCount is owned by the authoring system and is only read here
// as the denominator for progress percentages.
type Course struct {
	ID            int      `json:"id"`
	Slug          string   `json:"slug"`
	Title         string   `json:"title"`
	LessonCount   int      `json:"lessonCount"`
	EnrollCount   int      `json:"enrollCount"`
	AverageRating *float64 `json:"averageRating"` // nil until the first review
}

// CreateCourseRequest represents a request to register a course with the engine
type CreateCourseRequest struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	LessonCount int    `json:"lessonCount"`
}

// SetLessonCountRequest represents a request to change a course's lesson count
type SetLessonCountRequest struct {
	LessonCount int `json:"lessonCount"`
}

// CourseAggregateResponse represents the derived statistics of a course
type CourseAggregateResponse struct {
	EnrollCount   int      `json:"enrollCount"`
	AverageRating *float64 `json:"averageRating"`
}
