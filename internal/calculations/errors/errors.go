package errors

import "errors"

var (
	ErrNotFound = errors.New("calculation not found")

	ErrInvalidID = errors.New("invalid calculation ID format")

	ErrDuplicateReceipt = errors.New("receipt number already issued")
)
