package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/layer-3/ethauth/core"
)

// Error codes
const (
	// 4xx Client Errors
	CodeInvalidInput     = "INVALID_INPUT"
	CodeUnauthenticated  = "UNAUTHENTICATED"
	CodeUnknownApp       = "UNKNOWN_APP"
	CodeRedirectMismatch = "REDIRECT_MISMATCH"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"

	// Verification failures
	CodeNonceMismatch  = "NONCE_MISMATCH"
	CodeDomainMismatch = "DOMAIN_MISMATCH"
	CodeBadSignature   = "BAD_SIGNATURE"
	CodeExpired        = "EXPIRED"
	CodeNotYetValid    = "NOT_YET_VALID"

	// 5xx Server Errors
	CodeInternal = "INTERNAL_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// WithStatus overrides the HTTP status, for routes where the same failure
// reads differently (an unknown app is 404 on lookup but 400 on mint).
func (e *AppError) WithStatus(status int) *AppError {
	e.StatusCode = status
	return e
}

// Error constructors

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func Unauthenticated() *AppError {
	return &AppError{
		Code:       CodeUnauthenticated,
		Message:    "Not signed in",
		StatusCode: http.StatusUnauthorized,
	}
}

func UnknownApp() *AppError {
	return &AppError{
		Code:       CodeUnknownApp,
		Message:    "Unknown application",
		StatusCode: http.StatusBadRequest,
	}
}

func RedirectMismatch() *AppError {
	return &AppError{
		Code:       CodeRedirectMismatch,
		Message:    "Redirect URI does not match the registered one",
		StatusCode: http.StatusBadRequest,
	}
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func MethodNotAllowed() *AppError {
	return &AppError{
		Code:       CodeMethodNotAllowed,
		Message:    "Method not allowed",
		StatusCode: http.StatusMethodNotAllowed,
	}
}

func Verification(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

var verificationKinds = []struct {
	reason  error
	code    string
	message string
}{
	{core.ErrNonceMismatch, CodeNonceMismatch, "Invalid nonce"},
	{core.ErrDomainMismatch, CodeDomainMismatch, "Message is for another domain"},
	{core.ErrBadSignature, CodeBadSignature, "Invalid signature"},
	{core.ErrExpired, CodeExpired, "Message has expired"},
	{core.ErrNotYetValid, CodeNotYetValid, "Message is not yet valid"},
}

// From maps a domain error to its AppError. Errors it does not recognise
// become internal errors carrying the original as cause.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if core.IsVerificationError(err) {
		for _, kind := range verificationKinds {
			if errors.Is(err, kind.reason) {
				return Verification(kind.code, kind.message).WithError(err)
			}
		}
	}

	switch {
	case errors.Is(err, core.ErrInvalidInput):
		return InvalidInput(inputMessage(err)).WithError(err)
	case errors.Is(err, core.ErrUnauthenticated):
		return Unauthenticated().WithError(err)
	case errors.Is(err, core.ErrUnknownApp):
		return UnknownApp().WithError(err)
	case errors.Is(err, core.ErrRedirectMismatch):
		return RedirectMismatch().WithError(err)
	default:
		return Internal("An unexpected error occurred").WithError(err)
	}
}

// inputMessage strips the sentinel prefix from a validation error
func inputMessage(err error) string {
	msg := err.Error()
	if detail, ok := strings.CutPrefix(msg, core.ErrInvalidInput.Error()+": "); ok {
		return detail
	}
	return msg
}
