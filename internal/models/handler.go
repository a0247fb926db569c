package models

import (
	"fmt"
	"strings"
)

// HandlerID identifies a handler by its containing scope and member name
type HandlerID struct {
	Scope  string `json:"scope" yaml:"scope" msgpack:"scope"`    // package name, or package.Receiver for methods
	Member string `json:"member" yaml:"member" msgpack:"member"` // function or method name
}

// String returns Scope.Member
func (id HandlerID) String() string {
	if id.Scope == "" {
		return id.Member
	}
	return id.Scope + "." + id.Member
}

// Less orders handler identities by scope then member
func (id HandlerID) Less(other HandlerID) bool {
	if id.Scope != other.Scope {
		return id.Scope < other.Scope
	}
	return id.Member < other.Member
}

// SuccessKind is the declared success marker of a handler
type SuccessKind int

const (
	SuccessPayload SuccessKind = iota
	SuccessNoContent
	SuccessCreated
)

// String returns the marker name
func (k SuccessKind) String() string {
	switch k {
	case SuccessNoContent:
		return "NoContent"
	case SuccessCreated:
		return "Created"
	default:
		return "Payload"
	}
}

// ParseSuccessKind resolves a marker name, case-insensitively
func ParseSuccessKind(name string) (SuccessKind, error) {
	switch strings.ToLower(name) {
	case "payload", "":
		return SuccessPayload, nil
	case "nocontent":
		return SuccessNoContent, nil
	case "created":
		return SuccessCreated, nil
	}
	return SuccessPayload, fmt.Errorf("unknown success kind '%s'", name)
}

// OutcomeAnnotation is an explicitly declared response (status code + label)
type OutcomeAnnotation struct {
	Status int    `json:"status" yaml:"status" msgpack:"status"`
	Label  string `json:"label" yaml:"label" msgpack:"label"`
}

// SourcePosition points at a declaration in source
type SourcePosition struct {
	File string `json:"file,omitempty" yaml:"file,omitempty" msgpack:"file,omitempty"`
	Line int    `json:"line,omitempty" yaml:"line,omitempty" msgpack:"line,omitempty"`
}

// String returns file:line
func (p SourcePosition) String() string {
	if p.File == "" {
		return ""
	}
	if p.Line == 0 {
		return p.File
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// HandlerDeclaration describes one annotated handler.
// It is built once by extraction and never modified afterwards.
type HandlerDeclaration struct {
	ID               HandlerID
	Package          string // import path of the declaring package
	Position         SourcePosition
	Verb             string // upper-case HTTP method
	Route            string // raw route template text
	Parameters       []ParameterDeclaration
	SuccessType      string // declared success payload type, empty for NoContent
	SuccessKind      SuccessKind
	IsAsync          bool
	ExplicitOutcomes []OutcomeAnnotation
	Middlewares      []string
}

// ParameterDeclaration is one formal parameter of a handler or constructor
type ParameterDeclaration struct {
	Name     string
	Type     TypeDescriptor
	Nullable bool
	Binding  *BindingAnnotation // nil when no explicit annotation is present
}

// BindingAnnotation is an explicit binding request on a parameter
type BindingAnnotation struct {
	Source BindingSource
	Key    string // optional key override
}

// Constructor is the public constructor of a complex type
type Constructor struct {
	Name       string
	Parameters []ParameterDeclaration
}
