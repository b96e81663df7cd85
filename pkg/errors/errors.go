// Package errors provides error wrapping utilities for context-aware error messages.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Wrap wraps an error with additional context information.
// If err is nil, it returns nil without wrapping.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// OpError tags an error with the operation that failed. Its message is
// "<op>: <cause>" on one line.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *OpError) Unwrap() error { return e.Err }

// Op tags err with op. If err is nil, it returns nil. An error already
// tagged keeps its innermost operation.
func Op(op string, err error) error {
	if err == nil {
		return nil
	}
	var tagged *OpError
	if stderrors.As(err, &tagged) {
		return err
	}
	return &OpError{Op: op, Err: err}
}

// OpOf returns the operation err was tagged with, or "".
func OpOf(err error) string {
	var tagged *OpError
	if stderrors.As(err, &tagged) {
		return tagged.Op
	}
	return ""
}
