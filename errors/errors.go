// Package errors provides error handling for NAR.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Assertion errors for programming-contract violations
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
//	if errors.Is(err, errors.ErrMalformedTerm) {
//	    // handle bad term construction
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
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is     = crdb.Is
	IsAny  = crdb.IsAny
	As     = crdb.As
	Unwrap = crdb.Unwrap
	Cause  = crdb.Cause
)

// Assertions and panics.
// AssertionFailedf marks programming-contract violations (a missing index
// primitive, a rule registered with no conclusion builder). These must fail
// loudly rather than degrade into silent misbehavior.
var (
	AssertionFailedf                 = crdb.AssertionFailedf
	NewAssertionErrorWithWrappedErrf = crdb.NewAssertionErrorWithWrappedErrf
	HasAssertionFailure              = crdb.HasAssertionFailure
)

// Sentinel errors for use across NAR.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrMalformedTerm indicates term construction was rejected (bad
	// nesting, arity mismatch, or a term that would contain itself)
	ErrMalformedTerm = New("malformed term")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrQueueFull indicates a bounded queue rejected an enqueue
	ErrQueueFull = New("queue full")

	// ErrStopped indicates an operation was attempted on a component that
	// has already been shut down
	ErrStopped = New("already stopped")
)

// IsMalformedTerm checks if an error is or wraps ErrMalformedTerm
func IsMalformedTerm(err error) bool {
	return err != nil && Is(err, ErrMalformedTerm)
}

// IsNotFound checks if an error is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// NewMalformedTermError creates a term-construction error with a formatted message
func NewMalformedTermError(format string, args ...interface{}) error {
	return Wrap(ErrMalformedTerm, Newf(format, args...).Error())
}
