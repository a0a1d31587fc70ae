package storefront

import "errors"

var (
	// ErrNotFound is returned when an entity does not exist
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails, including
	// disallowed upload types, sizes and counts
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict is returned when a unique field is already taken
	ErrConflict = errors.New("conflict")
	// ErrBackend is returned when no storage backend accepted an upload
	ErrBackend = errors.New("storage backend failure")
	// ErrUnauthorized is returned when authentication fails
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInactive is returned when a deactivated admin tries to authenticate
	ErrInactive = errors.New("account inactive")
)
