package transport

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rpggio/duetrack/internal/domain/assignment"
	"github.com/rpggio/duetrack/internal/domain/availability"
	"github.com/rpggio/duetrack/internal/domain/deadline"
	"github.com/rpggio/duetrack/internal/domain/extension"
	"github.com/rpggio/duetrack/internal/domain/milestone"
	"github.com/rpggio/duetrack/internal/domain/notification"
	"github.com/rpggio/duetrack/internal/domain/user"
	"github.com/rpggio/duetrack/internal/domain/workitem"
	"github.com/rpggio/duetrack/internal/repository"
	"github.com/rpggio/duetrack/internal/scheduler"
)

// Error codes returned in APIError.Code.
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeNotFound    = "NOT_FOUND"
	CodeConflict    = "CONFLICT"
	CodeUnavailable = "UNAVAILABLE"
	CodeInternal    = "INTERNAL_ERROR"
)

// APIError is the error body of every failed request.
type APIError struct {
	Status       int    `json:"-"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type errorEnvelope struct {
	Error *APIError `json:"error"`
}

func badRequest(format string, args ...any) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    CodeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// MapError maps domain errors to API errors. It returns nil for errors it
// does not know, which callers treat as internal.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var unavailable *assignment.UnavailableError
	if errors.As(err, &unavailable) {
		return &APIError{
			Status:       http.StatusUnprocessableEntity,
			Code:         CodeUnavailable,
			Message:      "user is not available on the deadline of one or more tasks",
			Details:      map[string]any{"unavailable": unavailable.Titles},
			RecoveryHint: "Pick another assignee or move the deadline",
		}
	}

	switch {
	case errors.Is(err, workitem.ErrItemNotFound):
		return notFound("work item not found", "Check the item type and ID")
	case errors.Is(err, extension.ErrRequestNotFound):
		return notFound("extension request not found", "List the item's extensions to find the ID")
	case errors.Is(err, milestone.ErrMilestoneNotFound):
		return notFound("milestone not found", "List the project's milestones to find the ID")
	case errors.Is(err, user.ErrUserNotFound):
		return notFound("user not found", "Check the user ID")
	case errors.Is(err, notification.ErrNotificationNotFound):
		return notFound("notification not found", "")
	case errors.Is(err, scheduler.ErrJobNotFound):
		return notFound("job not found", "GET /cron/status lists the jobs")
	case errors.Is(err, repository.ErrNotFound):
		return notFound("not found", "")

	case errors.Is(err, extension.ErrAlreadyReviewed):
		return &APIError{
			Status:       http.StatusConflict,
			Code:         CodeConflict,
			Message:      "extension request already reviewed",
			RecoveryHint: "Submit a new extension request",
		}
	case errors.Is(err, scheduler.ErrJobRunning):
		return &APIError{
			Status:       http.StatusConflict,
			Code:         CodeConflict,
			Message:      "job is already running",
			RecoveryHint: "Retry after the current run finishes",
		}

	case errors.Is(err, workitem.ErrInvalidInput),
		errors.Is(err, extension.ErrInvalidInput),
		errors.Is(err, milestone.ErrInvalidInput),
		errors.Is(err, notification.ErrInvalidInput),
		errors.Is(err, deadline.ErrInvalidInput),
		errors.Is(err, availability.ErrInvalidInput),
		errors.Is(err, assignment.ErrInvalidInput),
		errors.Is(err, user.ErrInvalidSchedule),
		errors.Is(err, user.ErrInvalidVacation):
		return &APIError{
			Status:  http.StatusBadRequest,
			Code:    CodeValidation,
			Message: err.Error(),
		}
	default:
		return nil
	}
}

func notFound(message, hint string) *APIError {
	return &APIError{
		Status:       http.StatusNotFound,
		Code:         CodeNotFound,
		Message:      message,
		RecoveryHint: hint,
	}
}
