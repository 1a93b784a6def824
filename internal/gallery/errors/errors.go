package errors

import "errors"

var (
	ErrNotFound = errors.New("gallery item not found")

	ErrInvalidID = errors.New("invalid gallery item ID format")
)
