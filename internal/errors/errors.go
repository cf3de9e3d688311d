// Copyright (c) 2025 Streamauth
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages, so sign-in failures can be reported as a single
// "sign-in failed" signal while still carrying the specific cause for logs and tests.
//
// Errors compare by kind: errors.Is(err, ErrInvalidState) matches any *E whose
// Kind is InvalidState anywhere in the chain.
package errors

import "fmt"

// Kind is a machine-readable error category.
type Kind string

const (
	// InvalidState indicates the redirect response echoed a state that does not
	// match the nonce sent with the authorization request.
	InvalidState Kind = "invalid_state"
	// AuthorizationDenied indicates the user declined, cancelled, or the
	// provider answered the authorization request with an error.
	AuthorizationDenied Kind = "authorization_denied"
	// ProfileFetchFailed indicates the profile endpoint failed or returned a
	// malformed or empty payload.
	ProfileFetchFailed Kind = "profile_fetch_failed"
	// AlreadyInProgress indicates a sign-in or sign-out is already running.
	AlreadyInProgress Kind = "already_in_progress"
	// StorageFailed indicates the persistent session store could not be read or written.
	StorageFailed Kind = "storage_failed"
	// AuthenticationFailed is the opaque signal returned for every failed sign-in.
	AuthenticationFailed Kind = "authentication_failed"
)

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidState         = New(InvalidState, "state mismatch")
	ErrAuthorizationDenied  = New(AuthorizationDenied, "authorization denied")
	ErrProfileFetch         = New(ProfileFetchFailed, "profile fetch failed")
	ErrAlreadyInProgress    = New(AlreadyInProgress, "operation already in progress")
	ErrStorage              = New(StorageFailed, "session storage failed")
	ErrAuthenticationFailed = New(AuthenticationFailed, "sign-in failed")
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause.
func (e *E) Unwrap() error { return e.Err }

// Is reports whether target is an *E of the same kind.
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	return ok && t.Kind == e.Kind
}

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of the outermost *E in err's chain, or "" when none.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*E); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
