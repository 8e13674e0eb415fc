package transport

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/rpggio/duetrack/internal/domain/assignment"
	"github.com/rpggio/duetrack/internal/domain/extension"
	"github.com/rpggio/duetrack/internal/domain/user"
	"github.com/rpggio/duetrack/internal/domain/workitem"
	"github.com/rpggio/duetrack/internal/repository"
	"github.com/rpggio/duetrack/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"item not found", fmt.Errorf("lookup: %w", workitem.ErrItemNotFound), http.StatusNotFound, CodeNotFound},
		{"request not found", extension.ErrRequestNotFound, http.StatusNotFound, CodeNotFound},
		{"user not found", user.ErrUserNotFound, http.StatusNotFound, CodeNotFound},
		{"job not found", fmt.Errorf("%w: nightly", scheduler.ErrJobNotFound), http.StatusNotFound, CodeNotFound},
		{"repository not found", repository.ErrNotFound, http.StatusNotFound, CodeNotFound},
		{"already reviewed", extension.ErrAlreadyReviewed, http.StatusConflict, CodeConflict},
		{"job running", scheduler.ErrJobRunning, http.StatusConflict, CodeConflict},
		{"invalid extension", fmt.Errorf("%w: reviewer is required", extension.ErrInvalidInput), http.StatusBadRequest, CodeValidation},
		{"invalid schedule", user.ErrInvalidSchedule, http.StatusBadRequest, CodeValidation},
		{"bad request", badRequest("days must be a number"), http.StatusBadRequest, CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := MapError(tt.err)
			require.NotNil(t, apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.code, apiErr.Code)
		})
	}
}

func TestMapError_Unavailable(t *testing.T) {
	err := &assignment.UnavailableError{UserID: "u1", Titles: []string{"Ship it"}}

	apiErr := MapError(fmt.Errorf("assign: %w", err))
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, CodeUnavailable, apiErr.Code)
	assert.Equal(t, map[string]any{"unavailable": []string{"Ship it"}}, apiErr.Details)
}

func TestMapError_Unknown(t *testing.T) {
	assert.Nil(t, MapError(nil))
	assert.Nil(t, MapError(errors.New("disk on fire")))
}

func TestParseTime(t *testing.T) {
	got, err := parseTime("startDate", "2024-06-10")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-10T00:00:00Z", got.Format("2006-01-02T15:04:05Z07:00"))

	got, err = parseTime("startDate", "2024-06-10T09:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 7, got.UTC().Hour())

	_, err = parseTime("startDate", "next tuesday")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeValidation, apiErr.Code)
	assert.Contains(t, apiErr.Message, "startDate")
}
