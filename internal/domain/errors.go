package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound     = errors.New("domain: not found")
	ErrConflict     = errors.New("domain: conflict")
	ErrUnauthorized = errors.New("domain: unauthorized")
	ErrForbidden    = errors.New("domain: forbidden")
)

// ErrorKind is the stable tag carried by every error that leaves a core operation.
type ErrorKind string

const (
	KindValidation           ErrorKind = "validation"
	KindNotFound             ErrorKind = "not_found"
	KindUnauthenticated      ErrorKind = "unauthenticated"
	KindForbidden            ErrorKind = "forbidden"
	KindOrganizationMismatch ErrorKind = "organization_mismatch"
	KindNoOrganization       ErrorKind = "no_organization"
	KindConflict             ErrorKind = "conflict"
	KindUpstream             ErrorKind = "upstream_failure"
)

// Error is a typed failure with a kind tag and a human-readable message.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg += ": " + e.Err.Error()
		}
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match the package sentinels against typed errors.
func (e *Error) Is(target error) bool {
	switch target { //nolint:errorlint // sentinel identity comparison
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrConflict:
		return e.Kind == KindConflict
	case ErrUnauthorized:
		return e.Kind == KindUnauthenticated
	case ErrForbidden:
		return e.Kind == KindForbidden || e.Kind == KindOrganizationMismatch || e.Kind == KindNoOrganization
	default:
		return false
	}
}

// KindOf reports the kind of err. Untyped sentinels are mapped to their kind;
// anything else is reported as an upstream failure.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthenticated
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	default:
		return KindUpstream
	}
}

// MessageOf returns the human-readable message of a typed error, or err.Error().
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return err.Error()
}

func newError(kind ErrorKind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

func Validationf(op, format string, args ...any) error {
	return newError(KindValidation, op, format, args...)
}

func NotFoundf(op, format string, args ...any) error {
	return newError(KindNotFound, op, format, args...)
}

func Conflictf(op, format string, args ...any) error {
	return newError(KindConflict, op, format, args...)
}

func Forbiddenf(op, format string, args ...any) error {
	return newError(KindForbidden, op, format, args...)
}

// Upstream wraps a store, audit or oracle failure. Typed errors and the
// not-found and conflict sentinels keep their kind.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, ErrNotFound) {
		return &Error{Kind: KindNotFound, Op: op, Message: "not found", Err: err}
	}
	if errors.Is(err, ErrConflict) {
		return &Error{Kind: KindConflict, Op: op, Message: "already exists", Err: err}
	}
	return &Error{Kind: KindUpstream, Op: op, Message: "upstream failure", Err: err}
}
