package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrMissingAPIKey is returned when a provider requiring a credential
	// is constructed without one.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidConfig is returned when configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrProviderNotAvailable is returned when a provider cannot be reached.
	ErrProviderNotAvailable = errors.New("provider not available")

	// ErrAllBackendsFailed is returned when every candidate in the fallback
	// chain failed to initialize.
	ErrAllBackendsFailed = errors.New("all embedding backends failed")

	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")

	// ErrStoreFailed is returned when a vector store operation fails.
	ErrStoreFailed = errors.New("store operation failed")
)

// APIError is a non-2xx response from an embedding API. It carries the
// HTTP status and the raw response body for diagnostics.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// IsAuthError reports whether the error looks like a credential problem.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}
