package workitem

import "errors"

var (
	// ErrItemNotFound indicates the task or project doesn't exist.
	ErrItemNotFound = errors.New("work item not found")
	// ErrInvalidInput indicates invalid work item input.
	ErrInvalidInput = errors.New("invalid work item input")
)
