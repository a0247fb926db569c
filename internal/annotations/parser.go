package annotations

import (
	"go/ast"
	"go/token"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/toyz/bindplan/internal/errors"
)

// directive is the participle grammar root of a bindplan comment
type directive struct {
	Prefix string  `parser:"@Prefix"`
	Name   string  `parser:"@Word"`
	Items  []*item `parser:"@@*"`
}

// item is either a -Flag[=value] or a positional argument
type item struct {
	Flag  *flag   `parser:"  @@"`
	Value *string `parser:"| @(String | Word)"`
}

type flag struct {
	Name  string  `parser:"@Flag"`
	Value *string `parser:"(Equals @(String | Word))?"`
}

var directiveLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Prefix", Pattern: `//\s*bindplan::`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Flag", Pattern: `-[A-Za-z][A-Za-z0-9_]*`},
	{Name: "Equals", Pattern: `=`},
	{Name: "Word", Pattern: `[^\s"]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// Parser parses and validates bindplan directives
type Parser struct {
	parser   *participle.Parser[directive]
	registry AnnotationRegistry
}

// NewParser creates a parser validating against registry.
// A nil registry skips schema validation.
func NewParser(registry AnnotationRegistry) *Parser {
	return &Parser{
		parser: participle.MustBuild[directive](
			participle.Lexer(directiveLexer),
			participle.Elide("Whitespace"),
			participle.Unquote("String"),
		),
		registry: registry,
	}
}

// IsAnnotation reports whether a comment line is a bindplan directive
func IsAnnotation(comment string) bool {
	content := strings.TrimSpace(comment)
	if !strings.HasPrefix(content, "//") {
		return false
	}
	content = strings.TrimSpace(strings.TrimPrefix(content, "//"))
	return strings.HasPrefix(content, Prefix)
}

// ParseAnnotation parses a single comment line
func (p *Parser) ParseAnnotation(comment string, location SourceLocation) (*ParsedAnnotation, error) {
	raw := strings.TrimSpace(comment)

	parsed, err := p.parser.ParseString(location.File, raw)
	if err != nil {
		return nil, errors.SyntaxError(location, "malformed directive '%s': %v", raw, err).
			WithSuggestion("Directives look like: //bindplan::handler GET /todos/{id}")
	}

	annotationType, err := ParseAnnotationType(parsed.Name)
	if err != nil {
		return nil, errors.SyntaxError(location, "unknown directive '%s'", parsed.Name).
			WithSuggestion("Known directives: handler, outcome, param, expand")
	}

	result := &ParsedAnnotation{
		Type:     annotationType,
		Flags:    make(map[string]string),
		Location: location,
		Raw:      raw,
	}

	for _, it := range parsed.Items {
		if it.Flag != nil {
			name := strings.TrimPrefix(it.Flag.Name, "-")
			value := ""
			if it.Flag.Value != nil {
				value = *it.Flag.Value
			}
			if _, dup := result.Flags[name]; dup {
				return nil, errors.SyntaxError(location, "flag -%s given more than once", name)
			}
			result.Flags[name] = value
			continue
		}
		result.Args = append(result.Args, *it.Value)
	}

	if p.registry != nil {
		if err := p.validate(result, valuedFlags(parsed)); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// valuedFlags reports, per flag name, whether an explicit value was given
func valuedFlags(d *directive) map[string]bool {
	valued := make(map[string]bool)
	for _, it := range d.Items {
		if it.Flag != nil {
			valued[strings.TrimPrefix(it.Flag.Name, "-")] = it.Flag.Value != nil
		}
	}
	return valued
}

func (p *Parser) validate(a *ParsedAnnotation, valued map[string]bool) error {
	schema, err := p.registry.GetSchema(a.Type)
	if err != nil {
		return errors.SchemaError(a.Location, a.Type.String(), "%v", err)
	}

	if len(a.Args) > len(schema.Args) {
		return errors.SchemaError(a.Location, a.Type.String(),
			"%s takes at most %d argument(s), got %d", a.Type, len(schema.Args), len(a.Args)).
			WithSuggestion(exampleHint(schema))
	}
	for i, spec := range schema.Args {
		if i >= len(a.Args) {
			if spec.Required {
				return errors.SchemaError(a.Location, a.Type.String(),
					"%s is missing required argument '%s'", a.Type, spec.Name).
					WithSuggestion(exampleHint(schema))
			}
			continue
		}
		if spec.Validator != nil {
			if err := spec.Validator(a.Args[i]); err != nil {
				return errors.SchemaError(a.Location, a.Type.String(),
					"invalid %s argument '%s': %v", a.Type, spec.Name, err)
			}
		}
	}

	for _, name := range a.FlagNames() {
		spec, ok := schema.Flags[name]
		if !ok {
			return errors.SchemaError(a.Location, a.Type.String(),
				"unknown flag -%s for %s", name, a.Type).
				WithSuggestion(exampleHint(schema))
		}
		if spec.Boolean && valued[name] {
			return errors.SchemaError(a.Location, a.Type.String(), "flag -%s takes no value", name)
		}
		if !spec.Boolean && !valued[name] {
			return errors.SchemaError(a.Location, a.Type.String(), "flag -%s requires a value", name)
		}
		if spec.Validator != nil {
			if err := spec.Validator(a.Flags[name]); err != nil {
				return errors.SchemaError(a.Location, a.Type.String(), "invalid value for -%s: %v", name, err)
			}
		}
	}
	for name, spec := range schema.Flags {
		if spec.Required && !a.HasFlag(name) {
			return errors.SchemaError(a.Location, a.Type.String(),
				"%s is missing required flag -%s", a.Type, name).
				WithSuggestion(exampleHint(schema))
		}
	}
	return nil
}

func exampleHint(schema AnnotationSchema) string {
	if len(schema.Examples) == 0 {
		return ""
	}
	return "Example: " + schema.Examples[0]
}

// ParseCommentGroup parses every directive in a doc comment.
// Lines that are not directives are skipped; each malformed directive yields one error.
func (p *Parser) ParseCommentGroup(fset *token.FileSet, group *ast.CommentGroup) ([]*ParsedAnnotation, []error) {
	if group == nil {
		return nil, nil
	}

	var parsed []*ParsedAnnotation
	var errs []error
	for _, c := range group.List {
		if !IsAnnotation(c.Text) {
			continue
		}
		pos := fset.Position(c.Slash)
		loc := SourceLocation{File: pos.Filename, Line: pos.Line, Column: pos.Column}
		a, err := p.ParseAnnotation(c.Text, loc)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		parsed = append(parsed, a)
	}
	return parsed, errs
}
