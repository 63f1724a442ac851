package core

import "github.com/pkg/errors"

// Error kinds. Every domain error wraps exactly one of these.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrService      = errors.New("service error")    // upstream generation service failed
	ErrEvaluation   = errors.New("evaluation error") // upstream answered but the answer is unusable
	ErrRollback     = errors.New("rollback")         // a transactional write failed and was rolled back
)

// Error is a classified error with a human-readable message.
type Error struct {
	Kind error
	Msg  string
	Err  error // optional cause
}

func NewError(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// WrapError classifies err under kind.
func WrapError(kind error, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// KindOf returns the kind of err, or nil if err is unclassified.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrNotFound, ErrConflict, ErrBadRequest, ErrUnauthorized,
		ErrForbidden, ErrService, ErrEvaluation, ErrRollback,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// Unwrap makes every ValidationError a bad request.
func (err ValidationError) Unwrap() error {
	return ErrBadRequest
}
