package errors

import (
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneMatchesTemplate(t *testing.T) {
	err := Clone(ErrNotFound, "course not found")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "course not found", err.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	err := FromError(sql.ErrNoRows)

	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestWithDetailsCopiesSlice(t *testing.T) {
	details := []string{"a"}
	err := WithDetails(ErrValidation, "Validation failed", details)
	details[0] = "b"

	assert.Equal(t, []string{"a"}, err.Details)
	assert.Nil(t, ErrValidation.Details)
}
