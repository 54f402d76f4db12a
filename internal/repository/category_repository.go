package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edustream-api/internal/models"
)

const categoryColumns = `id, name, description, icon, course_count, is_active, created_at, updated_at`

// CategoryRepository manages categories.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository constructs the repository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns categories ordered by name. activeOnly hides deactivated entries.
func (r *CategoryRepository) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name ASC`

	var categories []models.Category
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// FindByID returns a category.
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	if err := r.db.GetContext(ctx, &category, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return &category, nil
}

// Create inserts a category. Duplicate names yield ErrDuplicate.
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now

	const query = `INSERT INTO categories (id, name, description, icon, course_count, is_active, created_at, updated_at) VALUES (:id, :name, :description, :icon, :course_count, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// Update overwrites name, description, icon and active flag.
func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	category.UpdatedAt = time.Now().UTC()
	const query = `UPDATE categories SET name = :name, description = :description, icon = :icon, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, category)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update category: %w", err)
	}
	return expectAffected(res, "update category")
}

// Delete removes a category.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return expectAffected(res, "delete category")
}

// AdjustCourseCount changes the denormalised counter of the named category, never below zero.
func (r *CategoryRepository) AdjustCourseCount(ctx context.Context, name string, delta int) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE categories SET course_count = GREATEST(course_count + $2, 0) WHERE name = $1`, name, delta); err != nil {
		return fmt.Errorf("adjust course count: %w", err)
	}
	return nil
}

// ReconcileCounts recomputes every course_count from the courses table and returns the number of categories touched.
func (r *CategoryRepository) ReconcileCounts(ctx context.Context) (int, error) {
	const query = `UPDATE categories c SET course_count = sub.total, updated_at = NOW()
FROM (SELECT cat.id, COUNT(co.id) AS total FROM categories cat LEFT JOIN courses co ON co.category = cat.name GROUP BY cat.id) sub
WHERE c.id = sub.id AND c.course_count <> sub.total`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("reconcile course counts: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reconcile course counts rows: %w", err)
	}
	return int(affected), nil
}
