// Package apperr defines the error taxonomy shared across services so HTTP
// handlers can map failures to status codes without inspecting messages.
package apperr

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a record ID does not exist in the snapshot.
var ErrNotFound = errors.New("record not found")

// ErrAnimalNotFound is returned when a sale references an unknown pig.
var ErrAnimalNotFound = errors.New("animal not found")

// ErrAnimalAlreadySold is returned when a sale targets a pig that already has
// an active sale. Each animal carries at most one.
var ErrAnimalAlreadySold = errors.New("animal already sold")

// ErrSyncBusy is returned when a cloud sync operation is requested while
// another one is still in flight against the same remote file.
var ErrSyncBusy = errors.New("cloud sync already in progress")

// ConfigError indicates a missing or placeholder credential; no network call
// was attempted.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "configuration error: " + e.Reason }

// AuthError indicates the OAuth flow failed: consent was denied or the token
// request was rejected.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return "authentication failed: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// NetworkError wraps any remote call failure. No further subtyping; every
// retry is a fresh user-initiated action.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

// FormatError indicates an import or load payload failed to parse as the
// expected snapshot shape.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid format: %s: %v", e.Reason, e.Err)
	}
	return "invalid format: " + e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }
