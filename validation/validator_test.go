package validation_test

import (
	"testing"

	"github.com/bookifyapp/server/apperr"
	"github.com/bookifyapp/server/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

func TestValidate_Passes(t *testing.T) {
	v := validation.New()
	err := v.Validate(signupRequest{
		Email:    "reader@example.com",
		Password: "correct horse battery",
		Name:     "Reader",
	})
	assert.NoError(t, err)
}

func TestValidate_ReturnsValidationError(t *testing.T) {
	v := validation.New()
	err := v.Validate(signupRequest{Email: "not-an-email", Password: "short"})

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrValidation))
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	v := validation.New()
	err := v.Validate(signupRequest{Email: "reader@example.com", Password: "long enough pass"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestValidate_FriendlyMessages(t *testing.T) {
	v := validation.New()

	err := v.Validate(signupRequest{Email: "nope", Password: "long enough pass", Name: "n"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email must be a valid email address")

	err = v.Validate(signupRequest{Email: "a@b.co", Password: "short", Name: "n"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password must be at least 8 characters")
}

func TestValidate_OneOf(t *testing.T) {
	type statusRequest struct {
		Status string `json:"status" validate:"required,oneof=draft published archived"`
	}
	v := validation.New()

	assert.NoError(t, v.Validate(statusRequest{Status: "published"}))

	err := v.Validate(statusRequest{Status: "retired"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrValidation))
}
