package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ValidationError              ErrorType = "VALIDATION_ERROR"
	NotFoundError                ErrorType = "NOT_FOUND"
	AuthError                    ErrorType = "AUTHENTICATION_ERROR"
	TransportError               ErrorType = "TRANSPORT_ERROR"
	DomainError                  ErrorType = "DOMAIN_ERROR"
	ForbiddenError               ErrorType = "FORBIDDEN"
	ConflictError                ErrorType = "CONFLICT"
	InvalidStatusTransitionError ErrorType = "INVALID_STATUS_TRANSITION"
	StorageError                 ErrorType = "STORAGE_ERROR"
)

// DefaultMessage is shown when neither the server nor a field error supplies text.
const DefaultMessage = "Something went wrong. Please try again."

// FieldError is one entry of the structured errors array a 400 response carries.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError represents a structured client-side error
type AppError struct {
	Type       ErrorType    `json:"type"`
	Code       string       `json:"code,omitempty"`
	Message    string       `json:"message"`
	Detail     string       `json:"detail,omitempty"`
	Fields     []FieldError `json:"fields,omitempty"`
	HTTPStatus int          `json:"-"`
	Raw        error        `json:"-"`
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Raw
}

// New creates a new AppError
func New(errType ErrorType, message string, detail string) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		Detail:     detail,
		HTTPStatus: getHTTPStatus(errType),
	}
}

// Wrap wraps a raw error with AppError context
func Wrap(err error, errType ErrorType, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Type:       errType,
		Message:    message,
		Detail:     err.Error(),
		HTTPStatus: getHTTPStatus(errType),
		Raw:        err,
	}
}

// ValidationFailed builds the distinguished validation error carrying per-field messages.
func ValidationFailed(message string, fields ...FieldError) *AppError {
	return &AppError{
		Type:       ValidationError,
		Message:    message,
		Fields:     fields,
		HTTPStatus: http.StatusBadRequest,
	}
}

func AuthenticationFailed(message string) *AppError {
	return &AppError{
		Type:       AuthError,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// TransportFailed wraps a network-level failure: unreachable host, timeout or
// an undecodable response body.
func TransportFailed(err error) *AppError {
	return &AppError{
		Type:    TransportError,
		Message: "Network request failed",
		Detail:  err.Error(),
		Raw:     err,
	}
}

func NotFound(entity string, id interface{}) *AppError {
	return &AppError{
		Type:       NotFoundError,
		Message:    fmt.Sprintf("%s not found", entity),
		Detail:     fmt.Sprintf("ID: %v", id),
		HTTPStatus: http.StatusNotFound,
	}
}

func InvalidStatusTransition(current, next string) *AppError {
	return &AppError{
		Type:       InvalidStatusTransitionError,
		Message:    "Invalid status transition",
		Detail:     fmt.Sprintf("Cannot transition from %s to %s", current, next),
		HTTPStatus: http.StatusBadRequest,
	}
}

// FromResponse classifies a non-2xx (or success:false) server response.
// Only a 400 that carries field errors becomes a validation error; any other
// 400 falls through to the generic domain path.
func FromResponse(status int, message string, fields []FieldError) *AppError {
	switch {
	case status == http.StatusUnauthorized:
		return AuthenticationFailed(message)
	case status == http.StatusBadRequest && len(fields) > 0:
		return ValidationFailed(message, fields...)
	case status == http.StatusNotFound:
		return &AppError{Type: NotFoundError, Message: message, HTTPStatus: status}
	case status == http.StatusForbidden:
		return &AppError{Type: ForbiddenError, Message: message, HTTPStatus: status}
	case status == http.StatusConflict:
		return &AppError{Type: ConflictError, Message: message, HTTPStatus: status}
	default:
		return &AppError{Type: DomainError, Message: message, HTTPStatus: status}
	}
}

// As returns the AppError in err's chain, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsValidation reports whether err is a validation error with field messages.
func IsValidation(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == ValidationError && len(appErr.Fields) > 0
}

func IsAuth(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == AuthError
}

func IsTransport(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == TransportError
}

// Message extracts the user-facing text of err: the first field-error message,
// then the server message, else "". Transport errors carry no server text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	appErr, ok := As(err)
	if !ok {
		return ""
	}
	for _, f := range appErr.Fields {
		if f.Message != "" {
			return f.Message
		}
	}
	if appErr.Type == TransportError {
		return ""
	}
	return appErr.Message
}

// UserMessage is Message with a fallback for errors that carry no text.
func UserMessage(err error, fallback string) string {
	if msg := Message(err); msg != "" {
		return msg
	}
	if fallback == "" {
		return DefaultMessage
	}
	return fallback
}

func getHTTPStatus(errType ErrorType) int {
	switch errType {
	case ValidationError, InvalidStatusTransitionError:
		return http.StatusBadRequest
	case NotFoundError:
		return http.StatusNotFound
	case AuthError:
		return http.StatusUnauthorized
	case ForbiddenError:
		return http.StatusForbidden
	case ConflictError:
		return http.StatusConflict
	case TransportError, StorageError:
		return 0
	default:
		return http.StatusInternalServerError
	}
}
