package httperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure for the caller: how to notify the user and
// which HTTP status to answer with.
type Kind string

const (
	KindAuth             Kind = "auth_required"
	KindValidation       Kind = "validation_failed"
	KindNotFound         Kind = "not_found"
	KindUpdateFailed     Kind = "update_failed"
	KindNetwork          Kind = "network_error"
	KindInvalidOperation Kind = "invalid_operation"
)

type AuthError struct {
	msg string
}

func (e *AuthError) Error() string { return e.msg }

func NewAuth(msg string) error {
	if msg == "" {
		msg = "please log in again"
	}
	return &AuthError{msg: msg}
}

func IsAuth(err error) bool {
	_, ok := errors.AsType[*AuthError](err)
	return ok
}

// ValidationError is bad input detected before (or reported by) the backend.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func NewValidation(msg string) error { return &ValidationError{msg: msg} }

func IsValidation(err error) bool {
	_, ok := errors.AsType[*ValidationError](err)
	return ok
}

type NotFoundError struct {
	msg string
}

func (e *NotFoundError) Error() string { return e.msg }

func NewNotFound(msg string) error { return &NotFoundError{msg: msg} }

func IsNotFound(err error) bool {
	_, ok := errors.AsType[*NotFoundError](err)
	return ok
}

// UpdateFailedError is a mutation the backend refused. Message carries the
// backend's own text when it sent one.
type UpdateFailedError struct {
	msg   string
	cause error
}

func (e *UpdateFailedError) Error() string { return e.msg }
func (e *UpdateFailedError) Unwrap() error { return e.cause }

func NewUpdateFailed(msg string) error {
	if msg == "" {
		msg = "update failed"
	}
	return &UpdateFailedError{msg: msg}
}

func WrapUpdateFailed(msg string, cause error) error {
	if msg == "" {
		msg = "update failed"
	}
	return &UpdateFailedError{msg: msg, cause: cause}
}

func IsUpdateFailed(err error) bool {
	_, ok := errors.AsType[*UpdateFailedError](err)
	return ok
}

type NetworkError struct {
	cause error
}

func (e *NetworkError) Error() string {
	if e.cause == nil {
		return "network error, try again"
	}
	return "network error, try again: " + e.cause.Error()
}
func (e *NetworkError) Unwrap() error { return e.cause }

func NewNetwork(cause error) error { return &NetworkError{cause: cause} }

func IsNetwork(err error) bool {
	_, ok := errors.AsType[*NetworkError](err)
	return ok
}

// InvalidOperationError is a well-formed request that policy forbids,
// e.g. removing one's own reviewer record.
type InvalidOperationError struct {
	msg string
}

func (e *InvalidOperationError) Error() string { return e.msg }

func NewInvalidOperation(msg string) error { return &InvalidOperationError{msg: msg} }

func IsInvalidOperation(err error) bool {
	_, ok := errors.AsType[*InvalidOperationError](err)
	return ok
}

// KindOf reports the taxonomy kind of err; ok is false for untyped errors.
func KindOf(err error) (Kind, bool) {
	switch {
	case err == nil:
		return "", false
	case IsAuth(err):
		return KindAuth, true
	case IsValidation(err):
		return KindValidation, true
	case IsNotFound(err):
		return KindNotFound, true
	case IsInvalidOperation(err):
		return KindInvalidOperation, true
	case IsUpdateFailed(err):
		return KindUpdateFailed, true
	case IsNetwork(err):
		return KindNetwork, true
	default:
		return "", false
	}
}

func StatusCode(err error) int {
	kind, ok := KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case KindAuth:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidOperation:
		return http.StatusConflict
	case KindUpdateFailed:
		return http.StatusUnprocessableEntity
	case KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
