package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error represents a typed error with HTTP awareness. Fields is populated for
// field-keyed failures (client validation or a backend 422 with a mapping).
type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Status  int               `json:"status"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so callers can test against the
// predefined values after Clone or WithFields.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// HasFields reports whether the error is keyed by field.
func (e *Error) HasFields() bool {
	return e != nil && len(e.Fields) > 0
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors. The backend fallbacks double as display strings.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "not found")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrBadRequest         = New("BAD_REQUEST", http.StatusBadRequest, "invalid request")
	ErrBackendValidation  = New("BACKEND_VALIDATION", http.StatusUnprocessableEntity, "validation failed")
	ErrBackendFailure     = New("BACKEND_ERROR", http.StatusInternalServerError, "system error")
	ErrUnexpectedStatus   = New("UNEXPECTED_STATUS", http.StatusBadGateway, "something went wrong")
	ErrBackendUnavailable = New("BACKEND_UNAVAILABLE", http.StatusBadGateway, "backend unavailable")
	ErrSessionMiss        = New("SESSION_MISS", http.StatusNotFound, "session state not found")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithFields returns a copy of err keyed by the provided field messages. The
// message becomes the sorted "field: message" lines for logs and fallbacks.
func WithFields(err *Error, fields map[string]string) *Error {
	clone := Clone(err, "")
	if clone == nil {
		return nil
	}
	clone.Fields = make(map[string]string, len(fields))
	for k, v := range fields {
		clone.Fields[k] = v
	}
	if len(fields) > 0 {
		clone.Message = JoinFields(fields)
	}
	return clone
}

// FieldErrors extracts field-keyed messages from err. The boolean is false for
// global errors.
func FieldErrors(err error) (map[string]string, bool) {
	var e *Error
	if !errors.As(err, &e) || !e.HasFields() {
		return nil, false
	}
	return e.Fields, true
}

// JoinFields renders fields as newline separated "field: message" pairs in key order.
func JoinFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+": "+fields[k])
	}
	return strings.Join(lines, "\n")
}
