// Package apperr defines the error taxonomy shared by the API server and
// the fallback access layer. Handlers translate these sentinels into HTTP
// status codes; the access layer uses them to decide whether a remote
// failure should trigger the local store.
package apperr

import "errors"

var (
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUnavailable        = errors.New("store unavailable")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Error pairs a taxonomy sentinel with a user-facing message. Error() returns
// only the message, so wire responses stay clean while errors.Is still matches
// the sentinel through Unwrap.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// E builds a taxonomy error with a user-facing message.
func E(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}
