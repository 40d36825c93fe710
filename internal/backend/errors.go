package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoToken is returned by authenticated calls made without a token. No
// request is sent in that case.
var ErrNoToken = errors.New("no session token")

// AuthError reports a rejected login or registration.
type AuthError struct {
	Op      string // "login" or "register"
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s rejected: %s", e.Op, e.Message)
	}
	if e.Message == "" {
		return fmt.Sprintf("%s rejected: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s rejected: status %d: %s", e.Op, e.Status, e.Message)
}

// NetworkError reports a request that could not complete.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError reports a non-2xx response from an authenticated endpoint.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: server returned %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: server returned %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// Unauthorized reports whether the backend rejected the bearer token.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// DecodeError reports a response body that did not match the expected
// shape, or a record that failed validation. Index is -1 when the failure is
// not tied to one record.
type DecodeError struct {
	Path  string
	Index int
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("decoding %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("decoding %s: record %d: %v", e.Path, e.Index, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
