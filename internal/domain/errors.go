package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoProviders signals that no embedding providers are configured.
	// Callers can short-circuit instead of retrying: the condition will not
	// clear until the process is reconfigured.
	ErrNoProviders = errors.New("no embedding providers configured")
	// ErrSearchUnavailable signals that the query itself could not be embedded,
	// so semantic ranking is impossible for this request.
	ErrSearchUnavailable = errors.New("semantic search unavailable")
	// ErrDimensionMismatch signals two vectors of different dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrMalformedVector signals a stored embedding that cannot be decoded.
	ErrMalformedVector = errors.New("malformed embedding vector")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
)

// ErrorClass partitions provider failures by how callers must react.
type ErrorClass string

const (
	// ClassAuth covers 401/403-style failures. Retrying the same credential is
	// guaranteed to fail identically, so batch callers abort.
	ClassAuth ErrorClass = "auth"
	// ClassRateLimit covers 429-style failures. The provider may recover.
	ClassRateLimit ErrorClass = "rate_limit"
	// ClassOther covers everything else (network, 5xx, malformed responses).
	ClassOther ErrorClass = "other"
)

// ProviderError is a classified embedding provider failure. The orchestrator
// and the pipeline switch on Class instead of sniffing status codes.
type ProviderError struct {
	Provider string
	Class    ErrorClass
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s (%s): %v", e.Provider, e.Class, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError builds a classified provider failure.
func NewProviderError(provider string, class ErrorClass, status int, err error) *ProviderError {
	return &ProviderError{Provider: provider, Class: class, Status: status, Err: err}
}

// ClassifyStatus maps an HTTP status code to an error class.
func ClassifyStatus(status int) ErrorClass {
	switch status {
	case 401, 403:
		return ClassAuth
	case 429:
		return ClassRateLimit
	default:
		return ClassOther
	}
}

// ClassOf extracts the error class from err, defaulting to ClassOther.
func ClassOf(err error) ErrorClass {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Class
	}
	return ClassOther
}
