package calce2e

import (
	"errors"
	"fmt"
)

const (
	// ErrEnvironmentUnavailable error code, no compatible browser could be resolved or started
	ErrEnvironmentUnavailable = "environment unavailable"
	// ErrElementNotFound error code
	ErrElementNotFound = "cannot find element"
	// ErrTimeout error code
	ErrTimeout = "timeout"
	// ErrAssertionMismatch error code
	ErrAssertionMismatch = "display mismatch"
	// ErrSessionClosed error code
	ErrSessionClosed = "session closed"
)

// Error of the harness, Details holds the context of the Code, such as the selector or the page state.
type Error struct {
	Err     error
	Code    string
	Details interface{}
}

// Error ...
func (e *Error) Error() string {
	msg := "[calce2e] " + e.Code
	if e.Details != nil {
		msg += fmt.Sprintf(": %v", e.Details)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap ...
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors with the same Code, so errors.Is(err, &Error{Code: ErrTimeout}) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// IsError type matches
func IsError(err error, code string) bool {
	if err == nil {
		return false
	}

	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	return e.Code == code
}

// Mismatch is the Details of ErrAssertionMismatch
type Mismatch struct {
	Want string
	Got  string
}

func (m *Mismatch) String() string {
	return fmt.Sprintf("want %q, got %q", m.Want, m.Got)
}

// PageState is the Details of ErrTimeout, it's the last known state of the page
type PageState struct {
	URL        string
	ReadyState string
}

func (s *PageState) String() string {
	if s.URL == "" && s.ReadyState == "" {
		return "page state unknown"
	}
	return fmt.Sprintf("url %s, readyState %s", s.URL, s.ReadyState)
}
