package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/wonjun/stiky/pkg/errors"
	"github.com/wonjun/stiky/pkg/logger"
	"github.com/wonjun/stiky/pkg/validator"
)

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Errors    []validator.FieldError `json:"errors,omitempty"`
	RequestID string                 `json:"requestId,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to a status and error body. AppErrors are written as-is;
// anything else is logged with detail and answered with a generic INTERNAL_ERROR.
// The request-scoped logger is preferred over fallback when present.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}
	requestID := logger.CorrelationIDFromContext(r.Context())

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeValidation(w, valErr, requestID)
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			logInternal(l, r, err)
		}
		WriteJSON(w, appErr.Status, ErrorResponse{Code: appErr.Code, Message: appErr.Message, RequestID: requestID})
		return
	}

	status := apperrors.HTTPStatus(err)
	code := apperrors.CodeInternal
	message := "an internal error occurred"

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		code = apperrors.CodeNotFound
		message = "resource not found"
	case errors.Is(err, apperrors.ErrInvalidInput):
		code = apperrors.CodeInvalidInput
		message = "request is invalid"
	case errors.Is(err, apperrors.ErrInvalidToken), errors.Is(err, apperrors.ErrUnauthorized):
		code = apperrors.CodeInvalidToken
		message = "token is invalid or expired"
	default:
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		logInternal(l, r, err)
	}

	WriteJSON(w, status, ErrorResponse{Code: code, Message: message, RequestID: requestID})
}

// WriteValidationError writes a 400 for a request body that failed to decode or validate.
func WriteValidationError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := logger.CorrelationIDFromContext(r.Context())

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeValidation(w, valErr, requestID)
		return
	}

	WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Code:      apperrors.CodeInvalidInput,
		Message:   "request body is not valid JSON",
		RequestID: requestID,
	})
}

// ParseID parses a positive integer path parameter. On failure it writes a 400
// and returns false so the caller can return early.
func ParseID(w http.ResponseWriter, param string) (int64, bool) {
	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil || id <= 0 {
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_PARAMETER",
			Message: "invalid id: " + param,
		})
		return 0, false
	}
	return id, true
}

func writeValidation(w http.ResponseWriter, valErr *validator.ValidationError, requestID string) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Code:      apperrors.CodeValidation,
		Message:   "request validation failed",
		Errors:    valErr.FieldErrors(),
		RequestID: requestID,
	})
}

func logInternal(l *slog.Logger, r *http.Request, err error) {
	l.ErrorContext(r.Context(), "internal error",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
}
