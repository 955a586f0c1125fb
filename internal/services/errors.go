package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Gateway failure classes. Match them with [errors.Is]; use [errors.As] with the typed
// errors below for details.
var (
	ErrTransport = errors.New("transport error")
	ErrService   = errors.New("service error")
	ErrTimeout   = errors.New("timeout")
)

// corsHint is attached to transport failures. Most of them come from a base address
// that is unreachable or one that rejects the configured origin.
const corsHint = "the service may be down or may not allow requests from this origin (check CORS settings)"

// TransportError is a connection level failure: DNS, refused or reset connections,
// or a cross-origin rejection.
type TransportError struct {
	Method string
	Path   string
	Hint   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v (%s)", e.Method, e.Path, e.Err, e.Hint)
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// ServiceError is a non-2xx response. Body holds the response body verbatim.
type ServiceError struct {
	Method string
	Path   string
	Status int
	Body   []byte
}

func (e *ServiceError) Error() string {
	if detail := e.Detail(); detail != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, detail)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

func (e *ServiceError) Unwrap() error { return ErrService }

// Detail extracts a readable message from the body. It understands {"detail": ...},
// {"error": ...} and {"message": ...} objects and falls back to the trimmed body text.
func (e *ServiceError) Detail() string {
	var obj map[string]any
	if err := decodeJSON(e.Body, &obj); err == nil {
		for _, k := range []string{"detail", "error", "message"} {
			if s, ok := obj[k].(string); ok && s != "" {
				return s
			}
		}
	}

	text := strings.TrimSpace(string(e.Body))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}

// TimeoutError is returned when the request deadline passed before a response arrived.
type TimeoutError struct {
	Method string
	Path   string
	Err    error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s %s: timed out: %v", e.Method, e.Path, e.Err)
}

func (e *TimeoutError) Unwrap() []error { return []error{ErrTimeout, e.Err} }

// classify maps a client error into the gateway taxonomy.
func classify(method, path string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &TimeoutError{Method: method, Path: path, Err: err}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &TimeoutError{Method: method, Path: path, Err: err}
	case errors.Is(err, context.Canceled):
		return &TransportError{Method: method, Path: path, Hint: "request cancelled", Err: err}
	default:
		return &TransportError{Method: method, Path: path, Hint: corsHint, Err: err}
	}
}

// IsRetryable reports whether err is a transport or timeout failure. Service errors are
// the backend's decision and are not retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrTimeout)
}

// UserMessage renders err as short copy for display.
func UserMessage(err error) string {
	var (
		se *ServiceError
		te *TransportError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &se):
		switch se.Status {
		case 401, 403:
			return "Sign in to download this song"
		case 404:
			return "Song not found"
		case 429:
			return "Daily download limit reached"
		}
		if d := se.Detail(); d != "" {
			return d
		}
		return fmt.Sprintf("Service error (%d)", se.Status)
	case errors.Is(err, ErrTimeout):
		return "The request timed out, try again"
	case errors.Is(err, context.Canceled):
		return "Cancelled"
	case errors.As(err, &te):
		return "Could not reach the service, try again"
	default:
		return err.Error()
	}
}
