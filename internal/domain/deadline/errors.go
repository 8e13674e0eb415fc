package deadline

import "errors"

var (
	// ErrInvalidInput indicates an invalid query.
	ErrInvalidInput = errors.New("invalid deadline query")
)
