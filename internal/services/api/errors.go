package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned for 401 and 403 responses and login redirects.
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusError is a non-2xx response or a body the client could not decode.
type StatusError struct {
	Body       string
	Message    string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server error (status %d)", e.StatusCode)
}

// Detail returns the most specific human readable message available.
func (e *StatusError) Detail() string {
	if e.Message != "" {
		return e.Message
	}
	return strings.TrimSpace(e.Body)
}

// NetworkError wraps a transport failure.
type NetworkError struct {
	Err    error
	Method string
	Path   string
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// newStatusError builds a StatusError, pulling a "message" or "error" field
// out of JSON bodies.
func newStatusError(status int, body []byte) *StatusError {
	se := &StatusError{StatusCode: status, Body: string(body)}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		se.Message = payload.Message
		if se.Message == "" {
			se.Message = payload.Error
		}
	}
	return se
}
