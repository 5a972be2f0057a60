package library

import (
	"errors"
	"fmt"
)

// Expected outcomes are reported to the caller and never end the process.
// ErrStorageUnavailable aborts the current operation only.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrDuplicateISBN      = errors.New("book with this ISBN already exists")
	ErrBookNotFound       = errors.New("book not found")
	ErrUnauthorized       = errors.New("operation not permitted")
	ErrStorageUnavailable = errors.New("storage unavailable")

	ErrDuplicateUsername = errors.New("user already exists")
	ErrUnknownRole       = errors.New("unknown role")
	ErrInvalidInput      = errors.New("invalid input")
)

// storageErr tags a driver error so callers can match ErrStorageUnavailable
// while the cause stays available to errors.As.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}
