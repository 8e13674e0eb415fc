package user

import "errors"

var (
	// ErrUserNotFound indicates the user doesn't exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidSchedule indicates a malformed weekly schedule.
	ErrInvalidSchedule = errors.New("invalid work schedule")
	// ErrInvalidVacation indicates a malformed vacation period.
	ErrInvalidVacation = errors.New("invalid vacation period")
)
