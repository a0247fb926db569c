// Package diagnostics collects the structured problems found while analysing handlers.
//
// Analysis never fails with an error for malformed input. Every problem becomes a
// Diagnostic keyed by handler identity, so one bad handler never hides the others.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/toyz/bindplan/internal/models"
)

// Kind identifies a class of diagnostic
type Kind string

const (
	StructuralRouteError       Kind = "StructuralRouteError"
	InvalidRouteParameterType  Kind = "InvalidRouteParameterType"
	InvalidQueryParameterType  Kind = "InvalidQueryParameterType"
	InvalidHeaderParameterType Kind = "InvalidHeaderParameterType"
	MultipleBodySources        Kind = "MultipleBodySources"
	ExpandNoConstructor        Kind = "ExpandNoConstructor"
	NestedExpandNotSupported   Kind = "NestedExpandNotSupported"
	NullableExpandNotSupported Kind = "NullableExpandNotSupported"
	UnknownErrorFactory        Kind = "UnknownErrorFactory"
	UndocumentedInterfaceCall  Kind = "UndocumentedInterfaceCall"

	DuplicateRoute    Kind = "DuplicateRoute"
	InvalidAnnotation Kind = "InvalidAnnotation"
	UnknownMiddleware Kind = "UnknownMiddleware"
	HandlerNotFound   Kind = "HandlerNotFound"
)

// String returns the kind code
func (k Kind) String() string {
	return string(k)
}

// Fatal reports whether the kind invalidates a handler's binding plan
func (k Kind) Fatal() bool {
	switch k {
	case StructuralRouteError,
		InvalidRouteParameterType,
		InvalidQueryParameterType,
		InvalidHeaderParameterType,
		MultipleBodySources,
		ExpandNoConstructor,
		NestedExpandNotSupported,
		NullableExpandNotSupported,
		InvalidAnnotation:
		return true
	}
	return false
}

// Severity returns the default severity of the kind
func (k Kind) Severity() Severity {
	switch k {
	case UnknownErrorFactory, UndocumentedInterfaceCall, DuplicateRoute, UnknownMiddleware:
		return SeverityWarning
	case HandlerNotFound:
		return SeverityInfo
	}
	return SeverityError
}

// Severity ranks diagnostics for display and exit status
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the severity name
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// MarshalText encodes the severity by name
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Diagnostic is one reported problem
type Diagnostic struct {
	Kind     Kind                  `json:"kind" yaml:"kind" msgpack:"kind"`
	Severity Severity              `json:"severity" yaml:"severity" msgpack:"severity"`
	Handler  models.HandlerID      `json:"handler" yaml:"handler" msgpack:"handler"`
	Subject  string                `json:"subject,omitempty" yaml:"subject,omitempty" msgpack:"subject,omitempty"` // parameter or outcome name
	Message  string                `json:"message" yaml:"message" msgpack:"message"`
	Position models.SourcePosition `json:"position,omitempty" yaml:"position,omitempty" msgpack:"position,omitempty"`
}

// New builds a diagnostic with the kind's default severity
func New(kind Kind, subject, format string, args ...any) Diagnostic {
	return Diagnostic{
		Kind:     kind,
		Severity: kind.Severity(),
		Subject:  subject,
		Message:  fmt.Sprintf(format, args...),
	}
}

// String formats the diagnostic for terminal output
func (d Diagnostic) String() string {
	var b strings.Builder
	if pos := d.Position.String(); pos != "" {
		b.WriteString(pos)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%s [%s] %s", d.Handler, d.Kind, d.Message)
	return b.String()
}

// Diagnostics is a list of diagnostics with query helpers
type Diagnostics []Diagnostic

// Has reports whether any diagnostic has the given kind
func (ds Diagnostics) Has(kind Kind) bool {
	for _, d := range ds {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// Filter returns the diagnostics of the given kinds
func (ds Diagnostics) Filter(kinds ...Kind) Diagnostics {
	if len(kinds) == 0 {
		return nil
	}
	set := make(map[Kind]struct{}, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	var result Diagnostics
	for _, d := range ds {
		if _, ok := set[d.Kind]; ok {
			result = append(result, d)
		}
	}
	return result
}

// ForHandler returns the diagnostics reported against one handler
func (ds Diagnostics) ForHandler(id models.HandlerID) Diagnostics {
	var result Diagnostics
	for _, d := range ds {
		if d.Handler == id {
			result = append(result, d)
		}
	}
	return result
}

// Errors returns the error-severity diagnostics
func (ds Diagnostics) Errors() Diagnostics {
	var result Diagnostics
	for _, d := range ds {
		if d.Severity == SeverityError {
			result = append(result, d)
		}
	}
	return result
}

// HasErrors reports whether any diagnostic is an error
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Counts returns the number of diagnostics per kind
func (ds Diagnostics) Counts() map[Kind]int {
	counts := make(map[Kind]int)
	for _, d := range ds {
		counts[d.Kind]++
	}
	return counts
}

// Kinds returns the kinds present, in report order, without repeats
func (ds Diagnostics) Kinds() []Kind {
	seen := make(map[Kind]bool)
	var kinds []Kind
	for _, d := range ds {
		if !seen[d.Kind] {
			seen[d.Kind] = true
			kinds = append(kinds, d.Kind)
		}
	}
	return kinds
}
