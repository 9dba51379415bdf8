package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. AppErrors wrap one of these so callers can branch with errors.Is.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrAlreadyExists   = errors.New("resource already exists")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrLoginFailed     = errors.New("login failed")
	ErrInvalidToken    = errors.New("invalid token")
	ErrInvalidCode     = errors.New("invalid exchange code")
	ErrProviderProfile = errors.New("provider profile rejected")
	ErrInternal        = errors.New("internal error")
)

// Error codes written to clients.
const (
	CodeAccountExists        = "ACCOUNT_EXISTS"
	CodeLoginFailed          = "LOGIN_FAILED"
	CodeInvalidToken         = "INVALID_TOKEN"
	CodeInvalidExchangeCode  = "INVALID_EXCHANGE_CODE"
	CodeProviderEmailMissing = "PROVIDER_EMAIL_MISSING"
	CodeUnsupportedProvider  = "UNSUPPORTED_PROVIDER"
	CodeMemberNotFound       = "MEMBER_NOT_FOUND"
	CodeNotFound             = "NOT_FOUND"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeValidation           = "VALIDATION_ERROR"
	CodeInternal             = "INTERNAL_ERROR"
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
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

// AccountExists is returned when a signup collides with a registered email.
func AccountExists(email string) *AppError {
	return &AppError{
		Code:    CodeAccountExists,
		Message: fmt.Sprintf("account with email %q already exists", email),
		Status:  http.StatusBadRequest,
		Err:     ErrAlreadyExists,
	}
}

// LoginFailed is the single outcome for an unknown email and a wrong password.
func LoginFailed() *AppError {
	return &AppError{
		Code:    CodeLoginFailed,
		Message: "email or password is incorrect",
		Status:  http.StatusBadRequest,
		Err:     ErrLoginFailed,
	}
}

// InvalidToken covers expired, malformed, tampered and revoked tokens alike.
func InvalidToken() *AppError {
	return &AppError{
		Code:    CodeInvalidToken,
		Message: "token is invalid or expired",
		Status:  http.StatusUnauthorized,
		Err:     ErrInvalidToken,
	}
}

// InvalidExchangeCode is returned for unknown, expired and already redeemed codes.
func InvalidExchangeCode() *AppError {
	return &AppError{
		Code:    CodeInvalidExchangeCode,
		Message: "exchange code is invalid or expired",
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidCode,
	}
}

// ProviderEmailMissing is returned when a provider profile carries no email.
func ProviderEmailMissing(provider string) *AppError {
	return &AppError{
		Code:    CodeProviderEmailMissing,
		Message: fmt.Sprintf("%s profile did not include an email", provider),
		Status:  http.StatusBadRequest,
		Err:     ErrProviderProfile,
	}
}

// UnsupportedProvider is returned for a provider with no registered extractor.
func UnsupportedProvider(provider string) *AppError {
	return &AppError{
		Code:    CodeUnsupportedProvider,
		Message: fmt.Sprintf("login provider %q is not supported", provider),
		Status:  http.StatusBadRequest,
		Err:     ErrProviderProfile,
	}
}

// MemberNotFound creates a 404 error for an authenticated caller whose account is gone.
func MemberNotFound() *AppError {
	return &AppError{
		Code:    CodeMemberNotFound,
		Message: "member not found",
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Internal creates a 500 error. The wrapped error is logged, never written.
func Internal(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrLoginFailed),
		errors.Is(err, ErrInvalidCode),
		errors.Is(err, ErrProviderProfile):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
