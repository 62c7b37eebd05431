// Package gwerrors defines the structured error kinds surfaced by the
// recharge estimation core. Every error that crosses a component boundary
// is a *gwerrors.Error so callers can branch on Kind instead of matching
// message strings.
package gwerrors

import "fmt"

// Kind identifies the category of failure.
type Kind string

const (
	// InsufficientData means a series was too short for the stage requesting it.
	InsufficientData Kind = "insufficient_data"
	// InvalidTimestamp means a row's timestamp could not be parsed/converted.
	InvalidTimestamp Kind = "invalid_timestamp"
	// InvalidLevel means a row's level value was not numeric or not finite.
	InvalidLevel Kind = "invalid_level"
	// InvalidParameter means a configuration value was out of its declared domain.
	InvalidParameter Kind = "invalid_parameter"
	// FitDidNotConverge means every initial guess failed to converge during curve fitting.
	FitDidNotConverge Kind = "fit_did_not_converge"
	// InvalidCurve means MRC was invoked with a curve missing or carrying malformed params.
	InvalidCurve Kind = "invalid_curve"
	// RepositoryError wraps a persistence failure. Atomic operations leave no partial state.
	RepositoryError Kind = "repository_error"
	// Cancelled means the caller's context was cancelled between stages.
	Cancelled Kind = "cancelled"
)

// Error is the structured failure value returned by every surfaced error
// path in this module: (kind, human-readable message, offending value,
// remediation hint).
type Error struct {
	Kind      Kind
	Message   string
	Offending any
	Hint      string
	cause     error
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (hint: %s)", e.Kind, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap lets errors.Is/errors.As reach a wrapped cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// New builds an Error with no offending value or hint.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithOffending attaches the offending value that triggered the error.
func (e *Error) WithOffending(v any) *Error {
	e.Offending = v
	return e
}

// WithHint attaches a remediation hint.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// Wrap attaches a lower-level cause, preserved for errors.Is/As.
func (e *Error) Wrap(cause error) *Error {
	e.cause = cause
	return e
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if as(err, &e) {
		return e.Kind == kind
	}
	return false
}

func as(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
