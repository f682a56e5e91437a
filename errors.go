package tally

import (
	"errors"
	"fmt"
)

// Common errors returned by the tally data layer.
var (
	// ErrNotFound is returned when a referenced habit or progress record
	// does not exist. It propagates to the caller and never triggers a
	// backend fallback.
	ErrNotFound = errors.New("habit not found")

	// ErrNotAuthenticated is returned when a remote operation is attempted
	// without a resolved session identity. It signals a caller bug, not an
	// outage, so it also never triggers a fallback.
	ErrNotAuthenticated = errors.New("user not authenticated")

	// ErrEmptyName is returned when creating a habit with an empty name.
	ErrEmptyName = errors.New("habit name cannot be empty")

	// ErrInvalidDate is returned when a date string does not match DateFormat.
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

	// ErrStoreClosed is returned when operating on a closed local store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrOffline is returned when a remote-only operation is attempted with
	// no remote backend configured.
	ErrOffline = errors.New("remote backend not configured")
)

// ValidationError is returned when configuration validation fails.
// Extractable via errors.As().
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// StorageError wraps a local store I/O failure. There is no tier below the
// local store, so these are terminal for the call. Supports Unwrap().
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// RemoteError wraps a network or backend failure from the remote store.
// The unified facade treats these as recoverable and retries the operation
// against the local store. Supports Unwrap().
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote: %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsRemoteError reports whether err is (or wraps) a *RemoteError.
func IsRemoteError(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
