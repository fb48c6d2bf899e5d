// SPDX-License-Identifier: AGPL-3.0-only
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an error for transport mapping
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindAlreadyExists
	KindInvalidInput
	KindInternal
)

// Error is a classified error
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.err }

// NotFound creates a formatted "not found" error
func NotFound(resource, id string) error {
	return &Error{Kind: KindNotFound, msg: fmt.Sprintf("resource not found: %s with ID %s", resource, id)}
}

// AlreadyExists creates a formatted "already exists" error
func AlreadyExists(resource, id string) error {
	return &Error{Kind: KindAlreadyExists, msg: fmt.Sprintf("resource already exists: %s with ID %s", resource, id)}
}

// InvalidInput creates a formatted "invalid input" error
func InvalidInput(reason string) error {
	return &Error{Kind: KindInvalidInput, msg: fmt.Sprintf("invalid input: %s", reason)}
}

// Internal creates a formatted "internal error" error
func Internal(err error) error {
	return &Error{Kind: KindInternal, msg: fmt.Sprintf("internal error: %v", err), err: err}
}

// KindOf returns the Kind of the first classified error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err is classified as kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
