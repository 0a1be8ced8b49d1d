package apperror

import (
	"errors"
	"fmt"
)

// Kind describes a stable error category that can be mapped to HTTP status codes.
type Kind string

const (
	KindValidation Kind = "validation"
	KindTooLarge   Kind = "too_large"
)

// Error is a typed error with a stable Kind and a human-readable message.
// Msg is safe to return to clients. Field names the offending request field, if any.
type Error struct {
	Kind  Kind
	Field string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func Validation(msg string, err error) error { return New(KindValidation, msg, err) }

func TooLarge(msg string, err error) error { return New(KindTooLarge, msg, err) }

// MissingField reports a required payload field that is absent.
func MissingField(field string) error {
	return &Error{Kind: KindValidation, Field: field, Msg: fmt.Sprintf("payload missing %s", field)}
}

// Malformed reports a payload field that is present but cannot be decoded.
func Malformed(field string, err error) error {
	return &Error{Kind: KindValidation, Field: field, Msg: fmt.Sprintf("malformatted %s", field), Err: err}
}

func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// FieldOf returns the field attached to err, or "" when there is none.
func FieldOf(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Field
}
