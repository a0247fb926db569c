package annotations

import (
	"fmt"
	"sort"
	"strings"

	"github.com/toyz/bindplan/internal/errors"
)

// Prefix starts every bindplan directive comment
const Prefix = "bindplan::"

// AnnotationType represents the type of directive
type AnnotationType int

const (
	HandlerAnnotation AnnotationType = iota
	OutcomeAnnotation
	ParamAnnotation
	ExpandAnnotation
)

// String returns the directive name
func (a AnnotationType) String() string {
	switch a {
	case HandlerAnnotation:
		return "handler"
	case OutcomeAnnotation:
		return "outcome"
	case ParamAnnotation:
		return "param"
	case ExpandAnnotation:
		return "expand"
	default:
		return "unknown"
	}
}

// ParseAnnotationType converts a directive name to its AnnotationType
func ParseAnnotationType(s string) (AnnotationType, error) {
	switch s {
	case "handler":
		return HandlerAnnotation, nil
	case "outcome":
		return OutcomeAnnotation, nil
	case "param":
		return ParamAnnotation, nil
	case "expand":
		return ExpandAnnotation, nil
	default:
		return 0, fmt.Errorf("unknown directive: %s", s)
	}
}

// SourceLocation is where a directive appears
type SourceLocation = errors.SourceLocation

// ParsedAnnotation is a directive after parsing and schema validation
type ParsedAnnotation struct {
	Type     AnnotationType
	Args     []string          // positional arguments in order
	Flags    map[string]string // flag name -> value, "" for bare flags
	Location SourceLocation
	Raw      string
}

// Arg returns the positional argument at i, or "" when absent
func (p *ParsedAnnotation) Arg(i int) string {
	if i < 0 || i >= len(p.Args) {
		return ""
	}
	return p.Args[i]
}

// HasFlag reports whether the flag was given
func (p *ParsedAnnotation) HasFlag(name string) bool {
	_, ok := p.Flags[name]
	return ok
}

// GetString returns a flag value with optional default
func (p *ParsedAnnotation) GetString(name string, defaultValue ...string) string {
	if v, ok := p.Flags[name]; ok && v != "" {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

// GetList returns a comma-separated flag value as a trimmed list
func (p *ParsedAnnotation) GetList(name string) []string {
	v, ok := p.Flags[name]
	if !ok || v == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// FlagNames returns the given flag names sorted
func (p *ParsedAnnotation) FlagNames() []string {
	names := make([]string, 0, len(p.Flags))
	for name := range p.Flags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FlagSpec describes one accepted flag
type FlagSpec struct {
	Description string
	Boolean     bool // bare flag, takes no value
	Required    bool
	Validator   func(string) error
}

// ArgSpec describes one positional argument
type ArgSpec struct {
	Name      string
	Required  bool
	Validator func(string) error
}

// AnnotationSchema describes the accepted shape of a directive
type AnnotationSchema struct {
	Type        AnnotationType
	Description string
	Args        []ArgSpec
	Flags       map[string]FlagSpec
	Examples    []string
}
