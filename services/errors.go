package services

import "errors"

var (
	// ErrInvalidOperation is returned for self-connection attempts.
	ErrInvalidOperation = errors.New("cannot connect to self")
	// ErrDuplicateRequest is returned when the caller already has a pending
	// request out to the same user.
	ErrDuplicateRequest = errors.New("you already sent a request to this user")
	ErrAlreadyConnected = errors.New("already connected with this user")
	// ErrNotFound covers missing records, records in the wrong state and
	// records the caller may not act on. They are deliberately not told apart.
	ErrNotFound     = errors.New("not found")
	ErrUserNotFound = errors.New("user not found")
	ErrForbidden    = errors.New("not allowed for this role")
	ErrInvalidInput = errors.New("invalid input")
)
