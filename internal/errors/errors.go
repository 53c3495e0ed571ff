// Package errors is the narrow error facade used by infrastructure code:
// stdlib matching plus pkg/errors stack annotation.
package errors

import (
	stderrors "errors"

	pkgerrors "github.com/pkg/errors"
)

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// Wrap annotates err with a stack trace and message. It returns nil when err is nil.
func Wrap(err error, message string) error {
	return pkgerrors.Wrap(err, message)
}

// WithStack annotates err with a stack trace at the point WithStack was called.
func WithStack(err error) error {
	return pkgerrors.WithStack(err)
}
