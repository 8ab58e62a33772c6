package errors

import (
	"errors"
	"fmt"
)

// Common error types for the desktop session core
var (
	// Credential errors
	ErrNoCredential        = errors.New("no credential available")
	ErrMalformedCredential = errors.New("malformed credential")
	ErrCredentialExpired   = errors.New("credential expired")

	// Session errors
	ErrSessionInvalid    = errors.New("session invalid")
	ErrSessionNotCreated = errors.New("session not created")
	ErrBootstrapHalted   = errors.New("bootstrap requires manual resolution")

	// Storage errors
	ErrKeyNotFound = errors.New("key not found")
	ErrStoreClosed = errors.New("store closed")
	ErrBadCipher   = errors.New("failed to decrypt stored state")

	// Load errors
	ErrLoadInProgress   = errors.New("initial load already in progress")
	ErrCriticalResource = errors.New("critical resource failed to load")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
