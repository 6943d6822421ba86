// Package errors provides error handling for typebridge.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints surfaced to CLI users
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
//	if errors.Is(err, errors.ErrCyclicDependency) {
//	    // handle illegal cycle
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
	Join         = crdb.Join
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
	GetAllHints = crdb.GetAllHints
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinel errors for the generation pipeline.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add the offending type/field context.
var (
	// ErrCyclicDependency indicates a direct-containment type cycle with no
	// indirection, which no target language can lay out
	ErrCyclicDependency = New("cyclic type dependency")

	// ErrUnsupportedType indicates an IR shape the selected backend cannot represent
	ErrUnsupportedType = New("unsupported type")

	// ErrInvalidMapKey indicates a map key type the target cannot use as a dictionary key
	ErrInvalidMapKey = New("invalid map key type")

	// ErrMissingConfig indicates a required per-language setting is absent
	ErrMissingConfig = New("missing required configuration")

	// ErrUnsafeNumeric indicates a 64-bit integer headed for a JSON-number-backed
	// target without an explicit override
	ErrUnsafeNumeric = New("64-bit integer exceeds safe numeric range")

	// ErrFlattenUnsupported indicates a field marked for serde-style flattening
	ErrFlattenUnsupported = New("flattened fields are not supported")
)

// IsStructural reports whether an error is one of the per-type structural
// failures that the driver collects in a single pass before aborting.
func IsStructural(err error) bool {
	return err != nil && IsAny(err,
		ErrCyclicDependency,
		ErrInvalidMapKey,
		ErrUnsafeNumeric,
		ErrFlattenUnsupported,
	)
}
