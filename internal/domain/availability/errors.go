package availability

import "errors"

// ErrInvalidInput indicates an invalid schedule, vacation or team query.
var ErrInvalidInput = errors.New("invalid availability input")
