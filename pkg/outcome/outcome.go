// Package outcome provides the failure values that bindplan handlers return.
//
// Handlers report failures by returning one of the factory results below:
//
//	func (c *TodoController) Get(id int) (Todo, error) {
//	    todo, ok := c.store.Find(id)
//	    if !ok {
//	        return Todo{}, outcome.NotFound("todo %d not found", id)
//	    }
//	    return todo, nil
//	}
//
// The analyzer recognizes calls to these factories statically, so the set of
// responses a handler can produce is known before the program runs.
package outcome

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is one of the well-known failure categories.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindFailure
	KindUnexpected
	// KindCustom marks errors built with Custom. It is not part of the closed set.
	KindCustom
)

// Kinds lists the closed set of well-known kinds in declaration order.
var Kinds = []Kind{
	KindValidation,
	KindNotFound,
	KindConflict,
	KindUnauthorized,
	KindForbidden,
	KindFailure,
	KindUnexpected,
}

var kindNames = map[Kind]string{
	KindValidation:   "Validation",
	KindNotFound:     "NotFound",
	KindConflict:     "Conflict",
	KindUnauthorized: "Unauthorized",
	KindForbidden:    "Forbidden",
	KindFailure:      "Failure",
	KindUnexpected:   "Unexpected",
	KindCustom:       "Custom",
}

// String returns the factory name of the kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText encodes the kind by name
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name, including Custom
func (k *Kind) UnmarshalText(text []byte) error {
	if string(text) == kindNames[KindCustom] {
		*k = KindCustom
		return nil
	}
	parsed, ok := ParseKind(string(text))
	if !ok {
		return fmt.Errorf("unknown outcome kind '%s'", text)
	}
	*k = parsed
	return nil
}

// Status returns the canonical HTTP status code of the kind
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Shape returns the name of the payload shape produced for the kind.
// Failure and Unexpected share the generic problem shape.
func (k Kind) Shape() string {
	switch k {
	case KindValidation:
		return ShapeValidation
	case KindNotFound:
		return "NotFoundProblem"
	case KindConflict:
		return "ConflictProblem"
	case KindUnauthorized:
		return "UnauthorizedProblem"
	case KindForbidden:
		return "ForbiddenProblem"
	default:
		return ShapeProblem
	}
}

// ParseKind resolves a factory name to its kind
func ParseKind(name string) (Kind, bool) {
	for _, k := range Kinds {
		if kindNames[k] == name {
			return k, true
		}
	}
	return 0, false
}

const (
	// ShapeProblem is the generic single-message problem payload
	ShapeProblem = "Problem"
	// ShapeValidation carries field-level errors
	ShapeValidation = "ValidationProblem"
	// ShapeBinding is produced when request values cannot be bound to handler parameters
	ShapeBinding = "BindingProblem"
)

// ShapeForStatus returns the payload shape used for a bare status code.
// Codes owned by a well-known kind reuse that kind's shape.
func ShapeForStatus(status int) string {
	for _, k := range Kinds {
		if k.Status() == status {
			return k.Shape()
		}
	}
	return ShapeProblem
}

// Error is the failure value returned by handlers
type Error struct {
	Kind    Kind              `json:"-"`
	Status  int               `json:"status"`
	Label   string            `json:"title"`
	Message string            `json:"detail,omitempty"`
	Fields  map[string]string `json:"errors,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d %s", e.Status, e.Label)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Label, e.Message)
}

// Unwrap returns the wrapped cause, if any
func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Status:  kind.Status(),
		Label:   kind.String(),
		Message: message,
	}
}

// Validation reports field-level input errors (400)
func Validation(message string, fields map[string]string) *Error {
	err := newError(KindValidation, message)
	err.Fields = fields
	return err
}

// NotFound reports a missing resource (404)
func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, fmt.Sprintf(format, args...))
}

// Conflict reports a state conflict (409)
func Conflict(format string, args ...any) *Error {
	return newError(KindConflict, fmt.Sprintf(format, args...))
}

// Unauthorized reports missing or invalid credentials (401)
func Unauthorized(format string, args ...any) *Error {
	return newError(KindUnauthorized, fmt.Sprintf(format, args...))
}

// Forbidden reports insufficient permissions (403)
func Forbidden(format string, args ...any) *Error {
	return newError(KindForbidden, fmt.Sprintf(format, args...))
}

// Failure reports a known server-side failure (500)
func Failure(format string, args ...any) *Error {
	return newError(KindFailure, fmt.Sprintf(format, args...))
}

// Unexpected wraps an error nobody planned for (500)
func Unexpected(cause error) *Error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	err := newError(KindUnexpected, msg)
	err.cause = cause
	return err
}

// Custom builds an error outside the well-known set.
// Handlers using it cannot be represented by a closed response union.
func Custom(status int, label string) *Error {
	return &Error{
		Kind:   KindCustom,
		Status: status,
		Label:  label,
	}
}

// StatusOf returns the status code carried by err, or 500 for foreign errors
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Status
	}
	var hs statusCoder
	if errors.As(err, &hs) {
		return hs.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// statusCoder is implemented by errors that carry their own HTTP status
type statusCoder interface {
	HTTPStatus() int
}

// NoContent is a success marker for handlers that return no body (204)
type NoContent struct{}

// Created wraps a payload for handlers that create a resource (201)
type Created[T any] struct {
	Value    T
	Location string
}

// NewCreated wraps value as a 201 payload
func NewCreated[T any](value T, location string) Created[T] {
	return Created[T]{Value: value, Location: location}
}
