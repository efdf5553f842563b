// Package errs defines the error kinds surfaced by the custody and signing core.
// Every error carries a kind plus context that is safe to log: never key material,
// signatures or raw signed transactions.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an error for callers deciding on retry or user-facing failure.
type Kind string

const (
	KindBackendUnavailable Kind = "backend_unavailable"
	KindDecryption         Kind = "decryption"
	KindNotFound           Kind = "not_found"
	KindExpiredQuote       Kind = "expired_quote"
	KindEstimation         Kind = "estimation"
	KindSubmission         Kind = "submission"
	KindInvalidRequest     Kind = "invalid_request"
)

// Error is a classified error. Two *Error values match under errors.Is when their
// kinds are equal and the target carries no message, so the sentinels below can be
// used with errors.Is regardless of the context attached.
type Error struct {
	Kind  Kind
	Msg   string
	cause error
}

var (
	ErrBackendUnavailable = &Error{Kind: KindBackendUnavailable}
	ErrDecryption         = &Error{Kind: KindDecryption}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrExpiredQuote       = &Error{Kind: KindExpiredQuote}
	ErrEstimation         = &Error{Kind: KindEstimation}
	ErrSubmission         = &Error{Kind: KindSubmission}
	ErrInvalidRequest     = &Error{Kind: KindInvalidRequest}
)

func (e *Error) Error() string {
	switch {
	case e.Msg == "" && e.cause == nil:
		return string(e.Kind)
	case e.cause == nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Msg == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.cause)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.cause)
	}
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports kind equality against sentinel errors.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Msg == "" && t.cause == nil && t.Kind == e.Kind
}

// New creates a classified error without an underlying cause.
func New(kind Kind, format string, args ...any) error {
	return errors.WithStack(&Error{Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

// Wrap classifies cause under kind. A nil cause yields a plain classified error.
func Wrap(kind Kind, cause error, format string, args ...any) error {
	return errors.WithStack(&Error{Kind: kind, Msg: fmt.Sprintf(format, args...), cause: cause})
}

// KindOf returns the kind of the first classified error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return ""
}
