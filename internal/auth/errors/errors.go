package errors

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")

	ErrAdminNotFound = errors.New("admin not found")

	ErrInvalidID = errors.New("invalid ID format")

	ErrDuplicateEmail = errors.New("an admin with this email already exists")
)
