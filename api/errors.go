package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// The error taxonomy at the backend boundary. Every failure a caller sees
// from this package is one of: ErrUnauthorized, *ServerError, *NetworkError,
// or an unknown error wrapped with the original message. Nothing here is
// retried automatically except the single refresh-then-retry performed by
// the transport.

// ErrUnauthorized marks a 401: rejected credentials on login, or a request
// whose token could not be renewed.
var ErrUnauthorized = errors.New("unauthorized")

// ServerError is any 5xx from the backend.
type ServerError struct {
	Status int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: status %d", e.Status)
}

// NetworkError is a transport-level failure (no connectivity, DNS, timeout),
// surfaced distinctly so a UI can suggest checking the connection.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a 401-class failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsServer reports whether err is a 5xx-class failure.
func IsServer(err error) bool {
	var se *ServerError
	return errors.As(err, &se)
}

// IsNetwork reports whether err is a transport-level failure.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode < http.StatusBadRequest:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%s %s: %w", resp.Request.Method, resp.Request.URL.Path, ErrUnauthorized)
	case resp.StatusCode >= http.StatusInternalServerError:
		return &ServerError{Status: resp.StatusCode}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
}
