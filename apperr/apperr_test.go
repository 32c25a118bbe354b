package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/bookifyapp/server/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code apperr.Code
		want int
	}{
		{apperr.CodeValidation, http.StatusBadRequest},
		{apperr.CodeConflict, http.StatusBadRequest},
		{apperr.CodeNotFound, http.StatusNotFound},
		{apperr.CodeUnauthorized, http.StatusUnauthorized},
		{apperr.CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.code.HTTPStatus(), string(tt.code))
	}
}

func TestIs_MatchesByCode(t *testing.T) {
	err := apperr.Conflict("duplicate like")
	assert.True(t, apperr.Is(err, apperr.ErrConflict))
	assert.False(t, apperr.Is(err, apperr.ErrNotFound))
}

func TestAs_ExtractsError(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", apperr.NotFound("book not found"))

	var appErr *apperr.Error
	require.True(t, apperr.As(wrapped, &appErr))
	assert.Equal(t, apperr.CodeNotFound, appErr.Code)
	assert.Equal(t, "book not found", appErr.Message)
}

func TestWithCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := apperr.Internal("persistence failed").WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "persistence failed")
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
}

func TestValidationf(t *testing.T) {
	err := apperr.Validationf("rating must be between %d and %d", 1, 5)
	assert.Equal(t, "rating must be between 1 and 5", err.Message)
	assert.True(t, apperr.Is(err, apperr.ErrValidation))
}
