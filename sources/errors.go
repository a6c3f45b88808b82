package sources

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth means a credential for an upstream system could not be obtained.
	ErrAuth = errors.New("upstream authentication failed")
	// ErrInvalidCredentials is returned when an admin login does not match.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrNotFound is returned by writes that target a row that does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable is returned by writes when the backing store is not configured.
	ErrUnavailable = errors.New("store not configured")
	// ErrUsernameTaken is returned when a profile update picks another admin's username.
	ErrUsernameTaken = errors.New("username already in use")
)

// HTTPError is a non-2xx answer from an upstream REST endpoint.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: http %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: http %d", e.Method, e.URL, e.StatusCode)
}

// Temporary reports whether retrying the request may succeed.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
