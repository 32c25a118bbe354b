package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bookifyapp/server/apperr"
	"github.com/bookifyapp/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestRespondSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	respondSuccess(w, http.StatusCreated, "Book created successfully", map[string]any{"id": "abc"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	env := decodeEnvelope(t, w)
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, "Book created successfully", env.Message)
	assert.NotNil(t, env.Data)
}

func TestRespondList_IncludesResultCount(t *testing.T) {
	w := httptest.NewRecorder()
	respondList(w, "Books retrieved successfully", 3, map[string]any{"books": []string{"a", "b", "c"}})

	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Result)
	assert.Equal(t, 3, *env.Result)
}

func TestRespondError_MapsDomainErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", apperr.Validation("bad input"), http.StatusBadRequest},
		{"conflict", apperr.Conflict("already liked"), http.StatusBadRequest},
		{"not found", apperr.NotFound("no such book"), http.StatusNotFound},
		{"unauthorized", apperr.Unauthorized("please log in"), http.StatusUnauthorized},
		{"internal", apperr.Internal("mongo down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			respondError(w, tt.err)

			assert.Equal(t, tt.code, w.Code)
			env := decodeEnvelope(t, w)
			assert.Equal(t, "error", env.Status)
			assert.NotEmpty(t, env.Message)
		})
	}
}

func TestRespondError_UnknownErrorIsOpaque500(t *testing.T) {
	w := httptest.NewRecorder()
	respondError(w, errors.New("pq: connection refused on 10.0.0.7"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	env := decodeEnvelope(t, w)
	assert.NotContains(t, env.Message, "10.0.0.7")
}

func TestDecodeStrict_RejectsUnknownFields(t *testing.T) {
	// A book patch carrying a field outside the allow-list is rejected in
	// full; none of its fields are applied.
	body := `{"title":"New","status":"published"}`
	r := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(body))

	var patch models.BookPatch
	err := decodeStrict(r, &patch)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrValidation))
}

func TestDecodeStrict_AcceptsAllowListedFields(t *testing.T) {
	body := `{"title":"New","summary":"s","content":"c","tags":["a"],"genres":["g"],"coverImage":"u","description":"d"}`
	r := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(body))

	var patch models.BookPatch
	require.NoError(t, decodeStrict(r, &patch))
	require.NotNil(t, patch.Title)
	assert.Equal(t, "New", *patch.Title)
	assert.False(t, patch.IsEmpty())
}

func TestDecodeStrict_MalformedJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader("{"))

	var patch models.BookPatch
	err := decodeStrict(r, &patch)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrValidation))
}
