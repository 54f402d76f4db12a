package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLessonsScanAndSort(t *testing.T) {
	var lessons Lessons
	require.NoError(t, lessons.Scan([]byte(`[{"id":"b","title":"Two","order":2},{"id":"a","title":"One","order":1}]`)))
	require.Len(t, lessons, 2)

	sorted := lessons.Sorted()
	assert.Equal(t, "a", sorted[0].ID)
	assert.Equal(t, "b", lessons[0].ID)

	require.NoError(t, lessons.Scan(nil))
	assert.Empty(t, lessons)
	assert.Error(t, lessons.Scan(42))
}

func TestLessonsValueNil(t *testing.T) {
	var lessons Lessons
	v, err := lessons.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 21)
	assert.Equal(t, 3, p.Pages)
	assert.Equal(t, 0, NewPagination(1, 10, 0).Pages)
}
