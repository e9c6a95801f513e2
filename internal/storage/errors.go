package storage

import (
	"errors"
	"fmt"
)

var (
	ErrR2AccountIDRequired   = errors.New("R2 account ID is required")
	ErrR2CredentialsRequired = errors.New("R2 credentials are required")
	ErrR2BucketRequired      = errors.New("R2 bucket name is required")

	// ErrInvalidKey is returned for keys that are empty or escape the root.
	ErrInvalidKey = errors.New("invalid storage key")

	errNotFound = errors.New("file not found")
)

// ErrFileNotFound creates an error for when a file is not found.
func ErrFileNotFound(key string) error {
	return fmt.Errorf("%w: %s", errNotFound, key)
}

// IsNotFound reports whether err means the key does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, errNotFound)
}

// ErrUnknownProvider creates an error for unknown storage providers.
func ErrUnknownProvider(provider string) error {
	return fmt.Errorf("unknown storage provider: %s", provider)
}
