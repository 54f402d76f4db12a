package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edustream-api/internal/models"
)

const courseColumns = `id, title, description, instructor_id, instructor_name, instructor_avatar, category, difficulty, duration, thumbnail_key, video_url, materials, lessons, requirements, tags, rating, rating_count, enrolled_count, price, is_published, created_at, updated_at`

var courseSorts = map[models.CourseSort]string{
	models.SortRecent:  "created_at DESC, id ASC",
	models.SortRating:  "rating DESC, rating_count DESC, id ASC",
	models.SortPopular: "enrolled_count DESC, id ASC",
}

// CourseRepository manages course persistence.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses matching the filter together with the total count.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	baseQuery := `FROM courses WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.PublishedOnly {
		conditions = append(conditions, "is_published = TRUE")
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Difficulty != "" {
		conditions = append(conditions, fmt.Sprintf("difficulty = $%d", len(args)+1))
		args = append(args, string(filter.Difficulty))
	}
	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(search_vector @@ plainto_tsquery('english', $%d) OR $%d = ANY(tags))", n, n))
		args = append(args, search)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	orderBy, ok := courseSorts[filter.SortBy]
	if !ok {
		orderBy = courseSorts[models.SortRecent]
	}
	_, pageSize, offset := normalizePage(filter.Page, filter.PageSize, 10)

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", courseColumns, baseQuery, orderBy, pageSize, offset)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID returns a course regardless of its publication state.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := r.db.GetContext(ctx, &course, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// Create inserts a course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	const query = `INSERT INTO courses (id, title, description, instructor_id, instructor_name, instructor_avatar, category, difficulty, duration, thumbnail_key, video_url, materials, lessons, requirements, tags, rating, rating_count, enrolled_count, price, is_published, created_at, updated_at)
VALUES (:id, :title, :description, :instructor_id, :instructor_name, :instructor_avatar, :category, :difficulty, :duration, :thumbnail_key, :video_url, :materials, :lessons, :requirements, :tags, :rating, :rating_count, :enrolled_count, :price, :is_published, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update overwrites the editable fields of a course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET title = :title, description = :description, category = :category, difficulty = :difficulty, duration = :duration, thumbnail_key = :thumbnail_key, video_url = :video_url, materials = :materials, lessons = :lessons, requirements = :requirements, tags = :tags, price = :price, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, course)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return expectAffected(res, "update course")
}

// SetPublished toggles the publication flag.
func (r *CourseRepository) SetPublished(ctx context.Context, id string, published bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE courses SET is_published = $2, updated_at = $3 WHERE id = $1`, id, published, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set course published: %w", err)
	}
	return expectAffected(res, "set course published")
}

// Delete removes the course row and reports whether one existed.
func (r *CourseRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete course rows: %w", err)
	}
	return affected > 0, nil
}

// AdjustEnrolled changes the denormalised enrollment counter, never below zero.
func (r *CourseRepository) AdjustEnrolled(ctx context.Context, id string, delta int) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE courses SET enrolled_count = GREATEST(enrolled_count + $2, 0) WHERE id = $1`, id, delta); err != nil {
		return fmt.Errorf("adjust enrolled count: %w", err)
	}
	return nil
}

// CountByCategory returns how many courses, drafts included, reference a category name.
func (r *CourseRepository) CountByCategory(ctx context.Context, category string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM courses WHERE category = $1`, category); err != nil {
		return 0, fmt.Errorf("count courses by category: %w", err)
	}
	return total, nil
}

func expectAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
