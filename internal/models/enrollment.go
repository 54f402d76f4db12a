package models

import "time"

// Enrollment links a learner to a course.
type Enrollment struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"userId"`
	CourseID   string    `db:"course_id" json:"courseId"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolledAt"`
}

// EnrolledCourse joins an enrollment with the course summary shown to the learner.
type EnrolledCourse struct {
	EnrolledAt     time.Time  `db:"enrolled_at"`
	CourseID       string     `db:"course_id"`
	Title          string     `db:"title"`
	ThumbnailKey   string     `db:"thumbnail_key"`
	Category       string     `db:"category"`
	Difficulty     Difficulty `db:"difficulty"`
	Duration       int        `db:"duration"`
	InstructorName string     `db:"instructor_name"`
}

// EnrollmentCount aggregates enrollments per course.
type EnrollmentCount struct {
	CourseID   string     `db:"course_id" json:"courseId"`
	Title      string     `db:"title" json:"title"`
	Category   string     `db:"category" json:"category"`
	Difficulty Difficulty `db:"difficulty" json:"difficulty"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	Count      int        `db:"count" json:"count"`
}
