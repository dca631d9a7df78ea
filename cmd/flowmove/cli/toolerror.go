// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies command errors so that scripts can make
// decisions (retry, fix input, re-authenticate) from the exit code
// without parsing error text.
type ErrorCategory string

const (
	// CategoryValidation indicates invalid input: missing flags, wrong
	// argument count, unknown selections.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound indicates a referenced resource does not exist:
	// unknown account, app, or file.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryForbidden indicates rejected credentials or an expired
	// token. Logging in again may help.
	CategoryForbidden ErrorCategory = "forbidden"

	// CategoryTransient indicates a network or server failure that may
	// succeed on retry.
	CategoryTransient ErrorCategory = "transient"

	// CategoryInternal indicates an unexpected failure: malformed data,
	// I/O errors.
	CategoryInternal ErrorCategory = "internal"
)

// exitCodes maps categories to process exit codes. 1 is reserved for
// a batch that completed with failures.
var exitCodes = map[ErrorCategory]int{
	CategoryValidation: 2,
	CategoryNotFound:   3,
	CategoryForbidden:  4,
	CategoryTransient:  5,
	CategoryInternal:   6,
}

// ToolError is a categorized error returned by commands. It wraps an
// inner error, preserving the chain for errors.Is and errors.As.
type ToolError struct {
	// Category classifies the error for programmatic handling.
	Category ErrorCategory

	// Err is the underlying error with the human-readable message.
	Err error
}

func (e *ToolError) Error() string { return e.Err.Error() }

func (e *ToolError) Unwrap() error { return e.Err }

// ExitCodeFor returns the process exit code for err: the ExitError
// code, the category code of a ToolError, or 1.
func ExitCodeFor(err error) int {
	var exitError *ExitError
	if errors.As(err, &exitError) {
		return exitError.Code
	}
	var toolError *ToolError
	if errors.As(err, &toolError) {
		if code, ok := exitCodes[toolError.Category]; ok {
			return code
		}
	}
	return 1
}

// Validation creates a validation error: the caller provided bad input.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error: a referenced resource does not exist.
func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Forbidden creates a forbidden error: credentials were rejected.
func Forbidden(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryForbidden, Err: fmt.Errorf(format, args...)}
}

// Transient creates a transient error: a temporary failure that may succeed on retry.
func Transient(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryTransient, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error: an unexpected failure, bug, or I/O error.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}
