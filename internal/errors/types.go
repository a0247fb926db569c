package errors

import (
	"fmt"
	"strings"
)

// BindplanError is implemented by every operational error of the tool.
// Analysis findings are diagnostics, never errors.
type BindplanError interface {
	error
	ErrorCode() ErrorCode
	Location() SourceLocation
	Context() map[string]interface{}
	Suggestions() []string
	Unwrap() error
}

// ErrorCode classifies an operational error
type ErrorCode int

const (
	UnknownErrorCode ErrorCode = iota
	SyntaxErrorCode
	SchemaErrorCode
	SourceErrorCode
	FileSystemErrorCode
	ConfigurationErrorCode
	ModuleResolutionErrorCode
	OutputErrorCode
)

var codeNames = [...]string{
	UnknownErrorCode:          "UnknownError",
	SyntaxErrorCode:           "SyntaxError",
	SchemaErrorCode:           "SchemaError",
	SourceErrorCode:           "SourceError",
	FileSystemErrorCode:       "FileSystemError",
	ConfigurationErrorCode:    "ConfigurationError",
	ModuleResolutionErrorCode: "ModuleResolutionError",
	OutputErrorCode:           "OutputError",
}

func (e ErrorCode) String() string {
	if e < 0 || int(e) >= len(codeNames) {
		return codeNames[UnknownErrorCode]
	}
	return codeNames[e]
}

// SourceLocation is a 1-based position in a source file
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

func (s SourceLocation) String() string {
	switch {
	case s.File == "":
		return "unknown location"
	case s.Line == 0:
		return s.File
	case s.Column == 0:
		return fmt.Sprintf("%s:%d", s.File, s.Line)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// IsEmpty reports whether the location names no file
func (s SourceLocation) IsEmpty() bool {
	return s.File == ""
}

// BaseError is the BindplanError implementation. Build it with New or Wrap
// and the With* methods.
type BaseError struct {
	code        ErrorCode
	message     string
	location    SourceLocation
	cause       error
	context     map[string]interface{}
	suggestions []string
}

// Error renders "location: message: cause", omitting missing parts
func (e *BaseError) Error() string {
	msg := e.message
	if e.cause != nil {
		msg = msg + ": " + e.cause.Error()
	}
	if e.location.IsEmpty() {
		return msg
	}
	return e.location.String() + ": " + msg
}

func (e *BaseError) ErrorCode() ErrorCode     { return e.code }
func (e *BaseError) Location() SourceLocation { return e.location }
func (e *BaseError) Suggestions() []string    { return e.suggestions }
func (e *BaseError) Unwrap() error            { return e.cause }

// Context returns the key/value details attached with WithContext, never nil
func (e *BaseError) Context() map[string]interface{} {
	if e.context == nil {
		return map[string]interface{}{}
	}
	return e.context
}

// WithLocation sets where the error occurred
func (e *BaseError) WithLocation(loc SourceLocation) *BaseError {
	e.location = loc
	return e
}

// WithContext attaches a detail shown by the error reporter
func (e *BaseError) WithContext(key string, value interface{}) *BaseError {
	if e.context == nil {
		e.context = make(map[string]interface{})
	}
	e.context[key] = value
	return e
}

// WithSuggestion appends a hint for fixing the error
func (e *BaseError) WithSuggestion(suggestion string) *BaseError {
	e.suggestions = append(e.suggestions, suggestion)
	return e
}

// New creates an error without a cause
func New(code ErrorCode, message string) *BaseError {
	return &BaseError{code: code, message: message}
}

// Newf is New with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *BaseError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates an error around cause
func Wrap(code ErrorCode, message string, cause error) *BaseError {
	return &BaseError{code: code, message: message, cause: cause}
}

// MultipleErrors collects independent failures, e.g. one per unparsable package
type MultipleErrors struct {
	Errors []BindplanError
}

// NewMultipleErrors creates an empty collection
func NewMultipleErrors() *MultipleErrors {
	return &MultipleErrors{}
}

func (e *MultipleErrors) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "multiple errors (%d total):", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, err.Error())
	}
	return b.String()
}

// Unwrap exposes every collected error to errors.Is and errors.As
func (e *MultipleErrors) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

// Add appends err to the collection
func (e *MultipleErrors) Add(err BindplanError) {
	e.Errors = append(e.Errors, err)
}

// Count returns the number of collected errors
func (e *MultipleErrors) Count() int {
	return len(e.Errors)
}

// HasCode reports whether any collected error has code
func (e *MultipleErrors) HasCode(code ErrorCode) bool {
	for _, err := range e.Errors {
		if err.ErrorCode() == code {
			return true
		}
	}
	return false
}

// ErrorOrNil returns the collection as an error, or nil when it is empty
func (e *MultipleErrors) ErrorOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}
