package upstream

import (
	"errors"
	"fmt"
)

// TransportError indicates the service was configured but unreachable or
// returned an unexpected HTTP status. The service is skipped for the cycle.
type TransportError struct {
	Service  string
	Endpoint string
	Status   int // 0 when no response was received
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: http status %d", e.Service, e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s %s: %v", e.Service, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AuthError indicates the upstream rejected the API key (401/403). Logged
// distinctly so operators can fix credentials.
type AuthError struct {
	Service  string
	Endpoint string
	Status   int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s %s: authentication rejected (http status %d)", e.Service, e.Endpoint, e.Status)
}

// ParseError indicates the upstream returned JSON of an unexpected shape.
// Snippet carries a bounded prefix of the raw payload for the log line.
type ParseError struct {
	Service  string
	Endpoint string
	Snippet  string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %s: decode response: %v (payload %q)", e.Service, e.Endpoint, e.Err, e.Snippet)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrorKind classifies an upstream error for logging and self-metrics.
func ErrorKind(err error) string {
	var (
		authErr      *AuthError
		parseErr     *ParseError
		transportErr *TransportError
	)
	switch {
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &transportErr):
		return "transport"
	default:
		return "other"
	}
}
