// Package sentinel holds the infrastructure facts stores report. Services
// translate them into domain errors; handlers never see them directly.
package sentinel

import "errors"

var (
	// ErrNotFound means no application (or audit record) exists for the key.
	ErrNotFound = errors.New("not found")
	// ErrConflict means the key already exists or a concurrent writer won.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState means the stored application cannot take the requested transition.
	ErrInvalidState = errors.New("invalid state")
	// ErrUnavailable means the backing store or collaborator cannot be reached.
	ErrUnavailable = errors.New("unavailable")
)
