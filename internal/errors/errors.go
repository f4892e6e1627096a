package errors

import (
	stderrors "errors"
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	// ErrNotFound is returned when a category, product or user does not exist.
	ErrNotFound = stderrors.New("not found")
	// ErrInvalidPage is returned when a page number is out of range.
	ErrInvalidPage = stderrors.New("invalid page")
	// ErrAuthentication is returned when credentials do not match an active account.
	ErrAuthentication = stderrors.New("no active account found with the given credentials")
	// ErrUnauthorized is returned when a write is attempted without credentials.
	ErrUnauthorized = stderrors.New("authentication credentials were not provided")
	// ErrTokenInvalid is returned for malformed, expired or wrongly typed tokens.
	ErrTokenInvalid = stderrors.New("token is invalid or expired")
	// ErrTokenRevoked is returned for blacklisted or already rotated tokens.
	ErrTokenRevoked = stderrors.New("token is blacklisted")
)

// ValidationError collects human-readable messages per field.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an empty ValidationError.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

// FieldError is a shortcut for a single-message ValidationError.
func FieldError(field, msg string) *ValidationError {
	v := NewValidationError()
	v.Add(field, msg)
	return v
}

// Add appends msg to the messages of field.
func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

// Has reports whether field already failed.
func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

// Merge copies all messages of other into e.
func (e *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	for f, msgs := range other.Fields {
		e.Fields[f] = append(e.Fields[f], msgs...)
	}
}

// Empty reports whether no field failed.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// OrNil returns e as an error, or nil when nothing failed.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     map[string][]string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// Body returns the JSON body for the error: the field map for validation
// failures, an ErrorResponse otherwise.
func (e *HTTPError) Body() interface{} {
	if e.Fields != nil {
		return e.Fields
	}
	return ErrorResponse{
		Detail: e.Message,
		Code:   e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var verr *ValidationError
	if stderrors.As(err, &verr) {
		return &HTTPError{StatusCode: http.StatusBadRequest, Message: verr.Error(), Code: "invalid", Fields: verr.Fields}
	}
	switch {
	case stderrors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, "Not found.", "not_found")
	case stderrors.Is(err, ErrInvalidPage):
		return NewHTTPError(http.StatusNotFound, "Invalid page.", "not_found")
	case stderrors.Is(err, ErrAuthentication):
		return NewHTTPError(http.StatusUnauthorized, "No active account found with the given credentials", "no_active_account")
	case stderrors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, "Authentication credentials were not provided.", "not_authenticated")
	case stderrors.Is(err, ErrTokenRevoked):
		return NewHTTPError(http.StatusUnauthorized, "Token is blacklisted", "token_not_valid")
	case stderrors.Is(err, ErrTokenInvalid):
		return NewHTTPError(http.StatusUnauthorized, "Token is invalid or expired", "token_not_valid")
	default:
		return NewHTTPError(http.StatusInternalServerError, "A server error occurred.", "internal_error")
	}
}

// EchoError converts err into an *echo.HTTPError whose message is the JSON body
// and whose internal error keeps the cause for logging.
func EchoError(err error) *echo.HTTPError {
	h := MapErrorToHTTP(err)
	return echo.NewHTTPError(h.StatusCode, h.Body()).SetInternal(err)
}
