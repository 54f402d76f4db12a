package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edustream-api/internal/models"
)

var courseRowColumns = []string{"id", "title", "description", "instructor_id", "instructor_name", "instructor_avatar", "category", "difficulty", "duration", "thumbnail_key", "video_url", "materials", "lessons", "requirements", "tags", "rating", "rating_count", "enrolled_count", "price", "is_published", "created_at", "updated_at"}

func courseRow(rows *sqlmock.Rows, id string, published bool) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, "Go Basics", "Learn the language", "inst-1", "Ada", "", "Programming", "beginner", 120,
		"course-thumbnails/a.png", "", "{}", []byte(`[{"id":"l2","title":"B","order":2},{"id":"l1","title":"A","order":1}]`), "{}", "{go,backend}",
		4.5, 10, 3, 19.99, published, now, now)
}

func TestCourseListPublishedWithSearch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE 1=1 AND is_published = TRUE AND category = $1 AND (search_vector @@ plainto_tsquery('english', $2) OR $2 = ANY(tags)) ORDER BY rating DESC, rating_count DESC, id ASC LIMIT 10 OFFSET 10")).
		WithArgs("Programming", "go").
		WillReturnRows(courseRow(sqlmock.NewRows(courseRowColumns), "c1", true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses WHERE 1=1 AND is_published = TRUE")).
		WithArgs("Programming", "go").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	courses, total, err := repo.List(context.Background(), models.CourseFilter{
		PublishedOnly: true,
		Category:      "Programming",
		Search:        " go ",
		SortBy:        models.SortRating,
		Page:          2,
	})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, 11, total)
	assert.Equal(t, []string{"go", "backend"}, []string(courses[0].Tags))
	assert.Len(t, courses[0].Lessons, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseListClampsPageSize(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY enrolled_count DESC, id ASC LIMIT 100 OFFSET 0")).
		WithArgs("inst-1").
		WillReturnRows(sqlmock.NewRows(courseRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses WHERE 1=1 AND instructor_id = $1")).
		WithArgs("inst-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.CourseFilter{InstructorID: "inst-1", SortBy: models.SortPopular, PageSize: 500})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE id = $1")).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCourseSetPublishedMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET is_published = $2")).
		WithArgs("c1", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetPublished(context.Background(), "c1", true)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseCreateAndAdjust(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO courses").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET enrolled_count = GREATEST(enrolled_count + $2, 0) WHERE id = $1")).
		WithArgs(sqlmock.AnyArg(), -1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	course := &models.Course{Title: "Go", Description: "Learn Go fast", Category: "Programming", Difficulty: models.DifficultyBeginner, Duration: 10}
	require.NoError(t, repo.Create(context.Background(), course))
	assert.NotEmpty(t, course.ID)
	require.NoError(t, repo.AdjustEnrolled(context.Background(), course.ID, -1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseDeleteReportsExistence(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM courses WHERE id = $1")).WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM courses WHERE id = $1")).WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.Delete(context.Background(), "c1")
	require.NoError(t, err)
	assert.False(t, deleted)
}
