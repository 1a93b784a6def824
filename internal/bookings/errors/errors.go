package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrDuplicateSlot = errors.New("an active booking already exists for this slot")

	ErrNotPending = errors.New("booking is no longer pending")
)
