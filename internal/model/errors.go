package model

import "errors"

// Administrative error taxonomy. All are terminal for the current call:
// nothing is retried internally, and a failed administrative call produces
// no state change and no event.
var (
	ErrUnauthorized      = errors.New("caller is not the trusted administrator")
	ErrDuplicateCircuit  = errors.New("circuit id already registered")
	ErrNotFound          = errors.New("circuit not found")
	ErrAlreadyDisabled   = errors.New("circuit already disabled")
	ErrInvalidParameters = errors.New("invalid parameters")
	ErrInvalidStep       = errors.New("containment level may only change by one step")
)
