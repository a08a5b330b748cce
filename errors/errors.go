// Package errors provides error handling for COPX.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - PII-safe error formatting
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrNotFound) {
//	    // handle not found
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint        = crdb.WithHint
	WithHintf       = crdb.WithHintf
	WithDetail      = crdb.WithDetail
	WithDetailf     = crdb.WithDetailf
	WithSafeDetails = crdb.WithSafeDetails
)

// Mark associates an error with a reference sentinel so errors.Is matches
// the sentinel while the original cause remains visible in formatting.
var Mark = crdb.Mark

// Error inspection
var (
	Is            = crdb.Is
	IsAny         = crdb.IsAny
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	UnwrapOnce    = crdb.UnwrapOnce
	UnwrapAll     = crdb.UnwrapAll
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
)

// Assertions and reporting
var (
	AssertionFailedf        = crdb.AssertionFailedf
	GetReportableStackTrace = crdb.GetReportableStackTrace
)

// GetStack is an alias for GetReportableStackTrace for convenience.
var GetStack = crdb.GetReportableStackTrace

// Sentinel errors for the COPX core. Every public core operation returns an
// error that is, or wraps, exactly one of these kinds; callers dispatch with
// errors.Is(). Structured variants carrying fields (denial reason, transition
// states, validation rule) live in the packages that own them and unwrap to
// these sentinels.
var (
	// ErrNotFound indicates the referenced entity does not exist or was deleted.
	ErrNotFound = New("not found")

	// ErrAccessDenied indicates the requester lacks the capability or
	// clearance for the operation. Never retried automatically.
	ErrAccessDenied = New("access denied")

	// ErrValidation indicates malformed or missing required input.
	ErrValidation = New("validation failed")

	// ErrInvalidTransition indicates the attempted workflow action is not
	// legal from the entity's current state.
	ErrInvalidTransition = New("invalid state transition")

	// ErrVersionConflict indicates an optimistic-version mismatch. This is
	// the only kind a caller is expected to retry, after a fresh read.
	ErrVersionConflict = New("concurrent modification")

	// ErrUnavailable indicates an uncategorized collaborator failure
	// (store unreachable, etc.). Retryable at the caller's discretion.
	ErrUnavailable = New("collaborator unavailable")
)

// IsNotFound checks if an error is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsAccessDenied checks if an error is or wraps ErrAccessDenied.
func IsAccessDenied(err error) bool {
	return err != nil && Is(err, ErrAccessDenied)
}

// IsVersionConflict checks if an error is or wraps ErrVersionConflict.
func IsVersionConflict(err error) bool {
	return err != nil && Is(err, ErrVersionConflict)
}

// IsRetryable reports whether the caller may retry the operation. Only
// version conflicts (after a fresh read) and collaborator outages qualify.
func IsRetryable(err error) bool {
	return err != nil && (Is(err, ErrVersionConflict) || Is(err, ErrUnavailable))
}
