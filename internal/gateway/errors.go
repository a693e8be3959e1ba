package gateway

import (
	"errors"
	"fmt"
)

// ErrNotConfigured means no backend base URL is set; the UI should prompt for setup, not retry.
var ErrNotConfigured = errors.New("Backend URL not configured. Please set it in Settings/Profile.")

// TransportError means the request never completed. Retrying is safe.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("gateway: %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// RejectedError is a response the backend refused.
type RejectedError struct {
	Op      string
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("gateway: %s rejected (%d): %s", e.Op, e.Status, e.Message)
}

// IsRetryable reports whether err is a transport failure.
func IsRetryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
