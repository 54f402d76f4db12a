package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edustream-api/internal/models"
)

func TestCategoryListActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCategoryRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "description", "icon", "course_count", "is_active", "created_at", "updated_at"}).
		AddRow("1", "Design", "", "", 2, true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, description, icon, course_count, is_active, created_at, updated_at FROM categories WHERE is_active = TRUE ORDER BY name ASC")).
		WillReturnRows(rows)

	categories, err := repo.List(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCategoryRepository(db)

	mock.ExpectExec("INSERT INTO categories").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Category{Name: "Design", IsActive: true})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCategoryReconcile(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCategoryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE categories c SET course_count = sub.total")).WillReturnResult(sqlmock.NewResult(0, 3))

	touched, err := repo.ReconcileCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, touched)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryAdjustCourseCount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCategoryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE categories SET course_count = GREATEST(course_count + $2, 0) WHERE name = $1")).
		WithArgs("Design", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AdjustCourseCount(context.Background(), "Design", 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}
