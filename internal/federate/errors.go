// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package federate

import (
	"errors"
	"fmt"
)

// Fault classes. Callers match them with errors.Is.
var (
	// ErrConfiguration marks a missing or malformed backend list. No query
	// is attempted.
	ErrConfiguration = errors.New("configuration fault")

	// ErrInvalidRequest marks a request rejected before any fetch.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrBackend marks a single backend's fetch failure.
	ErrBackend = errors.New("backend fault")

	// ErrCancelled marks a session aborted by cancellation or timeout.
	ErrCancelled = errors.New("session cancelled")
)

// BackendError reports which backend failed and why.
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Backend, e.Err)
}

// Unwrap exposes both ErrBackend and the underlying cause.
func (e *BackendError) Unwrap() []error { return []error{ErrBackend, e.Err} }

// CancelledError carries the page collected up to the moment the session
// was cancelled. The page is never complete; Page.Partial is always set.
type CancelledError struct {
	Page Page
	Err  error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("session cancelled at page %d with %d record(s): %v",
		e.Page.Number, len(e.Page.Records), e.Err)
}

// Unwrap exposes both ErrCancelled and the context error.
func (e *CancelledError) Unwrap() []error { return []error{ErrCancelled, e.Err} }

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
