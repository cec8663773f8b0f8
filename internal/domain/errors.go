package domain

import "errors"

// Failure taxonomy shared by every adapter. Operations that fail leave
// all entities unchanged.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidOperation = errors.New("invalid operation")
)
