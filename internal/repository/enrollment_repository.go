package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edustream-api/internal/models"
)

// EnrollmentRepository persists course enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Create inserts the enrollment unless the pair already exists. It reports whether a row was added.
func (r *EnrollmentRepository) Create(ctx context.Context, userID, courseID string) (bool, error) {
	const query = `INSERT INTO enrollments (id, user_id, course_id, enrolled_at) VALUES ($1, $2, $3, $4) ON CONFLICT (user_id, course_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, uuid.NewString(), userID, courseID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("create enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create enrollment rows: %w", err)
	}
	return affected > 0, nil
}

// Delete removes the enrollment and reports whether one existed.
func (r *EnrollmentRepository) Delete(ctx context.Context, userID, courseID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM enrollments WHERE user_id = $1 AND course_id = $2`, userID, courseID)
	if err != nil {
		return false, fmt.Errorf("delete enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete enrollment rows: %w", err)
	}
	return affected > 0, nil
}

// DeleteByCourse removes all enrollments of a course.
func (r *EnrollmentRepository) DeleteByCourse(ctx context.Context, courseID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM enrollments WHERE course_id = $1`, courseID); err != nil {
		return fmt.Errorf("delete course enrollments: %w", err)
	}
	return nil
}

// ListByUser returns the learner's enrollments joined with course summaries, newest first.
func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID string) ([]models.EnrolledCourse, error) {
	const query = `SELECT e.enrolled_at, c.id AS course_id, c.title, c.thumbnail_key, c.category, c.difficulty, c.duration, c.instructor_name
FROM enrollments e JOIN courses c ON c.id = e.course_id
WHERE e.user_id = $1
ORDER BY e.enrolled_at DESC`
	var rows []models.EnrolledCourse
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list enrollments by user: %w", err)
	}
	return rows, nil
}

// Summary counts enrollments per enrolled course, most popular first and
// newest first among ties. Courses nobody joined are left out.
func (r *EnrollmentRepository) Summary(ctx context.Context) ([]models.EnrollmentCount, error) {
	const query = `SELECT c.id AS course_id, c.title, c.category, c.difficulty, c.created_at, COUNT(e.id) AS count
FROM enrollments e JOIN courses c ON c.id = e.course_id
GROUP BY c.id, c.title, c.category, c.difficulty, c.created_at
ORDER BY count DESC, c.created_at DESC`
	var rows []models.EnrollmentCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("enrollment summary: %w", err)
	}
	return rows, nil
}
