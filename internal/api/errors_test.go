package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhelper/studyhelper/internal/domain"
	"github.com/studyhelper/studyhelper/internal/platform/remote"
	"github.com/studyhelper/studyhelper/internal/service"
	"github.com/studyhelper/studyhelper/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"session not found", ErrSessionNotFound, http.StatusNotFound},
		{"subject not found", store.ErrSubjectNotFound, http.StatusNotFound},
		{"wrapped question not found", service.NewServiceError("question_browser", "edit", "failed", store.ErrQuestionNotFound), http.StatusNotFound},
		{"invalid state", fmt.Errorf("%w: nothing to undo", service.ErrInvalidState), http.StatusConflict},
		{"duplicate", store.ErrDuplicate, http.StatusConflict},
		{"validation", domain.NewValidationError("id", "has invalid format", domain.ErrInvalidID), http.StatusBadRequest},
		{"sort mode", domain.ErrInvalidSortMode, http.StatusBadRequest},
		{"empty subject", domain.ErrEmptySubjectText, http.StatusBadRequest},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"remote status", fmt.Errorf("%w: 503", remote.ErrUnexpectedStatus), http.StatusBadGateway},
		{"remote body", remote.ErrMalformedResponse, http.StatusBadGateway},
		{"remote too large", fmt.Errorf("%w: over 4194304 bytes", remote.ErrResponseTooLarge), http.StatusBadGateway},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "An unexpected error occurred"},
		{ErrSessionNotFound, "Session not found"},
		{store.ErrSubjectNotFound, "Subject not found"},
		{store.ErrQuestionNotFound, "Question not found"},
		{service.ErrInvalidState, "Operation not available in the current state"},
		{domain.ErrInvalidSortMode, "Invalid sort order"},
		{domain.ErrEmptySubjectText, "Subject text cannot be empty"},
		{remote.ErrMalformedResponse, "The import source could not be read"},
		{remote.ErrResponseTooLarge, "The import source could not be read"},
		{errors.New("pq: password authentication failed for user study"), "An unexpected error occurred"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GetSafeErrorMessage(tt.err))
	}
}

func TestSanitizeValidationError(t *testing.T) {
	err := validator.New().Struct(&OpenSessionRequest{})
	require.Error(t, err)
	assert.Equal(t, "Invalid SubjectID: required field", SanitizeValidationError(err))

	err = validator.New().Struct(&OpenSessionRequest{SubjectID: -2})
	require.Error(t, err)
	assert.Equal(t, "Invalid SubjectID: too small", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("something else")))
}
