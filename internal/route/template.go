// Package route parses route templates such as /items/{id:int}/files/{*path}.
package route

import (
	"fmt"
	"strings"
)

// PartType is the type of a template part
type PartType int

const (
	LiteralPart PartType = iota
	ParameterPart
)

// Part is either literal text or a named parameter
type Part struct {
	Type        PartType
	Value       string   // literal text, or the parameter name
	Constraints []string // typed constraints, e.g. "int", "min(1)"
	Default     string   // default value after '='
	Optional    bool
	CatchAll    bool
}

// Reason describes why a route template is structurally invalid
type Reason int

const (
	UnbalancedBraces Reason = iota
	NestedBraces
	EmptySegmentName
	DuplicateSegmentName
	CatchAllNotLast
)

// String returns the reason name
func (r Reason) String() string {
	switch r {
	case UnbalancedBraces:
		return "UnbalancedBraces"
	case NestedBraces:
		return "NestedBraces"
	case EmptySegmentName:
		return "EmptySegmentName"
	case DuplicateSegmentName:
		return "DuplicateSegmentName"
	case CatchAllNotLast:
		return "CatchAllNotLast"
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// StructuralError is returned for malformed templates
type StructuralError struct {
	Route  string
	Reason Reason
	Offset int    // byte offset of the offending character
	Name   string // segment name, when known
}

// Error implements the error interface
func (e *StructuralError) Error() string {
	switch e.Reason {
	case UnbalancedBraces:
		return fmt.Sprintf("route '%s': unbalanced braces at offset %d", e.Route, e.Offset)
	case NestedBraces:
		return fmt.Sprintf("route '%s': nested braces at offset %d", e.Route, e.Offset)
	case EmptySegmentName:
		return fmt.Sprintf("route '%s': parameter at offset %d has no name", e.Route, e.Offset)
	case DuplicateSegmentName:
		return fmt.Sprintf("route '%s': parameter '%s' is declared more than once", e.Route, e.Name)
	case CatchAllNotLast:
		return fmt.Sprintf("route '%s': catch-all parameter '%s' must be the last segment", e.Route, e.Name)
	}
	return fmt.Sprintf("route '%s': %s", e.Route, e.Reason)
}

// Template is a parsed route template
type Template struct {
	raw   string
	parts []Part
	index map[string]int // lower-cased parameter name -> part index
}

// Parse scans text once and returns its template
func Parse(text string) (*Template, error) {
	t := &Template{raw: text, index: make(map[string]int)}

	depth := 0
	open := 0
	literalStart := 0

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			if depth == 1 {
				return nil, &StructuralError{Route: text, Reason: NestedBraces, Offset: i}
			}
			if i > literalStart {
				t.parts = append(t.parts, Part{Type: LiteralPart, Value: text[literalStart:i]})
			}
			depth = 1
			open = i
		case '}':
			if depth == 0 {
				return nil, &StructuralError{Route: text, Reason: UnbalancedBraces, Offset: i}
			}
			depth = 0
			part, err := parseParameter(text, open, text[open+1:i])
			if err != nil {
				return nil, err
			}
			key := strings.ToLower(part.Value)
			if _, exists := t.index[key]; exists {
				return nil, &StructuralError{Route: text, Reason: DuplicateSegmentName, Offset: open, Name: part.Value}
			}
			t.index[key] = len(t.parts)
			t.parts = append(t.parts, part)
			literalStart = i + 1
		}
	}

	if depth != 0 {
		return nil, &StructuralError{Route: text, Reason: UnbalancedBraces, Offset: open}
	}
	if literalStart < len(text) {
		t.parts = append(t.parts, Part{Type: LiteralPart, Value: text[literalStart:]})
	}

	for i, part := range t.parts {
		if part.CatchAll && i != len(t.parts)-1 {
			return nil, &StructuralError{Route: text, Reason: CatchAllNotLast, Name: part.Value}
		}
	}

	return t, nil
}

// parseParameter parses the body of {…}: [*|**]name[:constraint]*[=default][?]
func parseParameter(route string, offset int, body string) (Part, error) {
	part := Part{Type: ParameterPart}

	if strings.HasPrefix(body, "**") {
		part.CatchAll = true
		body = body[2:]
	} else if strings.HasPrefix(body, "*") {
		part.CatchAll = true
		body = body[1:]
	}

	if strings.HasSuffix(body, "?") {
		part.Optional = true
		body = strings.TrimSuffix(body, "?")
	}

	if eq := strings.Index(body, "="); eq >= 0 {
		part.Default = body[eq+1:]
		part.Optional = true
		body = body[:eq]
	}

	name := body
	if colon := strings.Index(body, ":"); colon >= 0 {
		name = body[:colon]
		for _, c := range strings.Split(body[colon+1:], ":") {
			if c != "" {
				part.Constraints = append(part.Constraints, c)
			}
		}
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return Part{}, &StructuralError{Route: route, Reason: EmptySegmentName, Offset: offset}
	}
	part.Value = name
	return part, nil
}

// Raw returns the original template text
func (t *Template) Raw() string {
	return t.raw
}

// Parts returns the parsed parts in order
func (t *Template) Parts() []Part {
	return t.parts
}

// Parameters returns the parameter parts in order
func (t *Template) Parameters() []Part {
	var params []Part
	for _, p := range t.parts {
		if p.Type == ParameterPart {
			params = append(params, p)
		}
	}
	return params
}

// Names returns the parameter names in order
func (t *Template) Names() []string {
	var names []string
	for _, p := range t.parts {
		if p.Type == ParameterPart {
			names = append(names, p.Value)
		}
	}
	return names
}

// Lookup finds a parameter by name, case-insensitively
func (t *Template) Lookup(name string) (Part, bool) {
	if t == nil {
		return Part{}, false
	}
	i, ok := t.index[strings.ToLower(name)]
	if !ok {
		return Part{}, false
	}
	return t.parts[i], true
}

// Has reports whether the template declares a parameter with the given name
func (t *Template) Has(name string) bool {
	_, ok := t.Lookup(name)
	return ok
}
