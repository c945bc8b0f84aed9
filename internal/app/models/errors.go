package models

import "errors"

// Domain specific errors shared across packages.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")
	ErrBadRequest      = errors.New("bad request")
	ErrValidation      = errors.New("validation failed")
)

// Rejection reasons for a mood log attempt. The handler maps these to the
// machine-readable reason codes returned to the client; they are checked
// before any write, so a rejected attempt never reaches persistence.
var (
	ErrSlotUnavailable    = errors.New("check-in slot unavailable")
	ErrGlobalLimitReached = errors.New("daily entry limit reached")
	ErrAnytimeExhausted   = errors.New("anytime logs exhausted for today")
)
