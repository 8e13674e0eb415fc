package assignment

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput indicates a missing task list or assignee.
	ErrInvalidInput = errors.New("invalid assignment input")
	// ErrUnavailable is wrapped by UnavailableError.
	ErrUnavailable = errors.New("user unavailable")
)

// UnavailableError lists the tasks whose deadline falls on a day the
// assignee cannot work.
type UnavailableError struct {
	UserID string
	Titles []string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("user %s is unavailable on the deadline of: %s", e.UserID, strings.Join(e.Titles, ", "))
}

func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}
