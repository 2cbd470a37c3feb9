package common

import (
	"errors"
	"net/http"
)

// AppError is the failure shape services hand back to HTTP handlers: a
// machine-readable code, the status it should surface with, and optionally
// the underlying cause for errors.Is chains and structured details for the
// client.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError wraps cause with a code and HTTP status.
func NewAppError(code, message string, status int, cause error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: cause}
}

// RenderError writes err as the canonical error envelope. An AppError found
// anywhere in the chain keeps its status, code and details; any other error
// renders as an opaque 500 so storage and gateway internals never reach the
// client.
func RenderError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
		return
	}
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	code := appErr.Code
	if code == "" {
		code = "INTERNAL"
	}
	message := appErr.Message
	if message == "" {
		message = "internal error"
	}
	JSONError(w, status, code, message, appErr.Details)
}
