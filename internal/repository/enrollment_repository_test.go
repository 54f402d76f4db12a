package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollmentCreateIsIdempotent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	query := regexp.QuoteMeta("INSERT INTO enrollments (id, user_id, course_id, enrolled_at) VALUES ($1, $2, $3, $4) ON CONFLICT (user_id, course_id) DO NOTHING")
	mock.ExpectExec(query).WithArgs(sqlmock.AnyArg(), "u1", "c1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs(sqlmock.AnyArg(), "u1", "c1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := repo.Create(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Create(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments WHERE user_id = $1 AND course_id = $2")).
		WithArgs("u1", "c1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestEnrollmentListByUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"enrolled_at", "course_id", "title", "thumbnail_key", "category", "difficulty", "duration", "instructor_name"}).
		AddRow(now, "c1", "Go", "k", "Programming", "beginner", 60, "Ada")
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments e JOIN courses c ON c.id = e.course_id")).WithArgs("u1").WillReturnRows(rows)

	list, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Ada", list[0].InstructorName)
}

func TestEnrollmentSummary(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"course_id", "title", "category", "difficulty", "created_at", "count"}).
		AddRow("c1", "Go", "Programming", "beginner", now, 5).
		AddRow("c2", "Rust", "Programming", "advanced", now, 2)
	mock.ExpectQuery("(?s)" + regexp.QuoteMeta("FROM enrollments e JOIN courses c ON c.id = e.course_id") + ".*" +
		regexp.QuoteMeta("ORDER BY count DESC, c.created_at DESC")).WillReturnRows(rows)

	summary, err := repo.Summary(context.Background())
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, 5, summary[0].Count)
}
