package extension

import "errors"

var (
	// ErrRequestNotFound indicates the extension request doesn't exist on the item.
	ErrRequestNotFound = errors.New("extension request not found")
	// ErrAlreadyReviewed indicates the request is no longer pending.
	ErrAlreadyReviewed = errors.New("extension request already reviewed")
	// ErrInvalidInput indicates invalid extension input.
	ErrInvalidInput = errors.New("invalid extension input")
)
