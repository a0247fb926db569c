package models

import (
	"fmt"
	"strings"
)

// BindingSource is where a parameter's runtime value comes from
type BindingSource int

const (
	SourceRoute BindingSource = iota
	SourceQuery
	SourceHeader
	SourceBody
	SourceForm
	SourceFormFile
	SourceFormFiles
	SourceService
	SourceKeyedService
	SourceContext
	SourceCancellation
	SourceByteStream
	SourceExpand
	SourceCustomParsed
)

var sourceNames = []string{
	SourceRoute:        "Route",
	SourceQuery:        "Query",
	SourceHeader:       "Header",
	SourceBody:         "Body",
	SourceForm:         "Form",
	SourceFormFile:     "FormFile",
	SourceFormFiles:    "FormFiles",
	SourceService:      "Service",
	SourceKeyedService: "KeyedService",
	SourceContext:      "Context",
	SourceCancellation: "Cancellation",
	SourceByteStream:   "ByteStream",
	SourceExpand:       "Expand",
	SourceCustomParsed: "CustomParsed",
}

// String returns the source name
func (s BindingSource) String() string {
	if int(s) >= 0 && int(s) < len(sourceNames) {
		return sourceNames[s]
	}
	return fmt.Sprintf("BindingSource(%d)", int(s))
}

// MarshalText encodes the source by name
func (s BindingSource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a source name
func (s *BindingSource) UnmarshalText(text []byte) error {
	parsed, ok := ParseBindingSource(string(text))
	if !ok {
		return fmt.Errorf("unknown binding source '%s'", text)
	}
	*s = parsed
	return nil
}

// ParseBindingSource resolves a source name, case-insensitively
func ParseBindingSource(name string) (BindingSource, bool) {
	for i, n := range sourceNames {
		if strings.EqualFold(n, name) {
			return BindingSource(i), true
		}
	}
	return 0, false
}

// BodySurface groups the sources that consume the request body
type BodySurface int

const (
	SurfaceNone BodySurface = iota
	SurfaceBody
	SurfaceForm
	SurfaceStream
)

// Surface returns the body surface the source consumes
func (s BindingSource) Surface() BodySurface {
	switch s {
	case SourceBody:
		return SurfaceBody
	case SourceForm, SourceFormFile, SourceFormFiles:
		return SurfaceForm
	case SourceByteStream:
		return SurfaceStream
	default:
		return SurfaceNone
	}
}

// RequestBound reports whether binding from this source can fail on bad input
func (s BindingSource) RequestBound() bool {
	switch s {
	case SourceRoute, SourceQuery, SourceHeader, SourceBody, SourceForm,
		SourceFormFile, SourceFormFiles, SourceCustomParsed:
		return true
	}
	return false
}

// ClassifiedParameter is the binding decision for one parameter
type ClassifiedParameter struct {
	Name     string                `json:"name" yaml:"name" msgpack:"name"`
	Type     string                `json:"type" yaml:"type" msgpack:"type"`
	Source   BindingSource         `json:"source" yaml:"source" msgpack:"source"`
	Key      string                `json:"key,omitempty" yaml:"key,omitempty" msgpack:"key,omitempty"`
	Origin   BindingSource         `json:"origin" yaml:"origin" msgpack:"origin"` // where the raw value is read; Route or Query for CustomParsed
	Parser   string                `json:"parser,omitempty" yaml:"parser,omitempty" msgpack:"parser,omitempty"`
	Nullable bool                  `json:"nullable,omitempty" yaml:"nullable,omitempty" msgpack:"nullable,omitempty"`
	Expanded []ClassifiedParameter `json:"expanded,omitempty" yaml:"expanded,omitempty" msgpack:"expanded,omitempty"`
	Builder  string                `json:"builder,omitempty" yaml:"builder,omitempty" msgpack:"builder,omitempty"` // constructor used for Expand
}

// RequestBound reports whether the parameter, or any expanded member, reads the request
func (p ClassifiedParameter) RequestBound() bool {
	if p.Source.RequestBound() {
		return true
	}
	for _, nested := range p.Expanded {
		if nested.RequestBound() {
			return true
		}
	}
	return false
}

// BindingPlan is the ordered list of binding decisions for a handler.
// An invalid plan carries no parameters; see diagnostics for the reason.
type BindingPlan struct {
	Valid      bool                  `json:"valid" yaml:"valid" msgpack:"valid"`
	Parameters []ClassifiedParameter `json:"parameters,omitempty" yaml:"parameters,omitempty" msgpack:"parameters,omitempty"`
}

// InvalidPlan is the sentinel plan for handlers that failed classification
func InvalidPlan() BindingPlan {
	return BindingPlan{Valid: false}
}

// HasRequestBound reports whether any parameter reads the request
func (p BindingPlan) HasRequestBound() bool {
	for _, param := range p.Parameters {
		if param.RequestBound() {
			return true
		}
	}
	return false
}
