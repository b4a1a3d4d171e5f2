package domain

import "errors"

// Error taxonomy shared by services and handlers. Handlers map these to
// stable machine-readable kinds at the request boundary.
var (
	ErrNotFound               = errors.New("not found")
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidSplit           = errors.New("invalid split")
	ErrAlreadyProcessed       = errors.New("already processed")
	ErrInsufficientBalance    = errors.New("insufficient balance")
)
