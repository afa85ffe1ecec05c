package repository

import "errors"

// Common errors returned by repository implementations
var (
	// ErrNotFound indicates a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrCredentialIO indicates key material could not be read or written
	ErrCredentialIO = errors.New("credential i/o")
)

// IsNotFound checks if an error is a "not found" error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsCredentialIO checks if an error is a key material read/write failure
func IsCredentialIO(err error) bool {
	return errors.Is(err, ErrCredentialIO)
}
