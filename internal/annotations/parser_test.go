package annotations

import (
	stderrors "errors"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/bindplan/internal/errors"
)

func TestParseAnnotation(t *testing.T) {
	p := NewParser(DefaultRegistry())
	loc := SourceLocation{File: "todo.go", Line: 12}

	testCases := []struct {
		name     string
		input    string
		expected *ParsedAnnotation
	}{
		{
			name:  "handler",
			input: "//bindplan::handler GET /todos/{id:int}",
			expected: &ParsedAnnotation{
				Type:  HandlerAnnotation,
				Args:  []string{"GET", "/todos/{id:int}"},
				Flags: map[string]string{},
			},
		},
		{
			name:  "handler with flags",
			input: "// bindplan::handler POST /todos -Success=Created -Middleware=Auth,RateLimit -Async",
			expected: &ParsedAnnotation{
				Type: HandlerAnnotation,
				Args: []string{"POST", "/todos"},
				Flags: map[string]string{
					"Success":    "Created",
					"Middleware": "Auth,RateLimit",
					"Async":      "",
				},
			},
		},
		{
			name:  "route with default value",
			input: "//bindplan::handler GET /pages/{page=1}",
			expected: &ParsedAnnotation{
				Type:  HandlerAnnotation,
				Args:  []string{"GET", "/pages/{page=1}"},
				Flags: map[string]string{},
			},
		},
		{
			name:  "outcome by kind",
			input: "//bindplan::outcome NotFound",
			expected: &ParsedAnnotation{
				Type:  OutcomeAnnotation,
				Args:  []string{"NotFound"},
				Flags: map[string]string{},
			},
		},
		{
			name:  "outcome with quoted label",
			input: `//bindplan::outcome 418 "I'm a teapot"`,
			expected: &ParsedAnnotation{
				Type:  OutcomeAnnotation,
				Args:  []string{"418", "I'm a teapot"},
				Flags: map[string]string{},
			},
		},
		{
			name:  "param with key",
			input: "//bindplan::param token -From=Header -Key=X-Api-Token",
			expected: &ParsedAnnotation{
				Type:  ParamAnnotation,
				Args:  []string{"token"},
				Flags: map[string]string{"From": "Header", "Key": "X-Api-Token"},
			},
		},
		{
			name:  "expand",
			input: "//bindplan::expand",
			expected: &ParsedAnnotation{
				Type:  ExpandAnnotation,
				Flags: map[string]string{},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := p.ParseAnnotation(tc.input, loc)
			require.NoError(t, err)

			assert.Equal(t, tc.expected.Type, got.Type)
			assert.Equal(t, tc.expected.Args, got.Args)
			assert.Equal(t, tc.expected.Flags, got.Flags)
			assert.Equal(t, loc, got.Location)
		})
	}
}

func TestParseAnnotationErrors(t *testing.T) {
	p := NewParser(DefaultRegistry())

	testCases := []struct {
		name  string
		input string
		code  errors.ErrorCode
	}{
		{"unknown directive", "//bindplan::route GET /x", errors.SyntaxErrorCode},
		{"missing route", "//bindplan::handler GET", errors.SchemaErrorCode},
		{"bad verb", "//bindplan::handler FETCH /x", errors.SchemaErrorCode},
		{"relative route", "//bindplan::handler GET todos", errors.SchemaErrorCode},
		{"unknown flag", "//bindplan::handler GET /x -Cache=1", errors.SchemaErrorCode},
		{"bad success marker", "//bindplan::handler GET /x -Success=Accepted", errors.SchemaErrorCode},
		{"boolean flag with value", "//bindplan::handler GET /x -Async=true", errors.SchemaErrorCode},
		{"value flag without value", "//bindplan::handler GET /x -Middleware", errors.SchemaErrorCode},
		{"duplicate flag", "//bindplan::handler GET /x -Async -Async", errors.SyntaxErrorCode},
		{"too many args", "//bindplan::outcome 404 NotFound extra", errors.SchemaErrorCode},
		{"status out of range", "//bindplan::outcome 99", errors.SchemaErrorCode},
		{"unknown outcome kind", "//bindplan::outcome Teapot", errors.SchemaErrorCode},
		{"param without source", "//bindplan::param id", errors.SchemaErrorCode},
		{"param bad source", "//bindplan::param id -From=Cookie", errors.SchemaErrorCode},
		{"unterminated string", `//bindplan::outcome 418 "teapot`, errors.SyntaxErrorCode},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.ParseAnnotation(tc.input, SourceLocation{File: "api.go", Line: 3})
			require.Error(t, err)

			var be *errors.BaseError
			require.True(t, stderrors.As(err, &be))
			assert.Equal(t, tc.code, be.ErrorCode())
			assert.Equal(t, 3, be.Location().Line)
		})
	}
}

func TestParserWithoutRegistrySkipsValidation(t *testing.T) {
	p := NewParser(nil)

	got, err := p.ParseAnnotation("//bindplan::handler FETCH -Whatever=1", SourceLocation{})
	require.NoError(t, err)
	assert.Equal(t, []string{"FETCH"}, got.Args)
	assert.Equal(t, "1", got.GetString("Whatever"))
}

func TestIsAnnotation(t *testing.T) {
	assert.True(t, IsAnnotation("//bindplan::handler GET /"))
	assert.True(t, IsAnnotation("  // bindplan::expand"))
	assert.False(t, IsAnnotation("// handler GET /"))
	assert.False(t, IsAnnotation("/* bindplan::expand */"))
	assert.False(t, IsAnnotation("//axon::route GET /"))
}

func TestParsedAnnotationAccessors(t *testing.T) {
	a := &ParsedAnnotation{
		Args:  []string{"GET"},
		Flags: map[string]string{"Middleware": "Auth, RateLimit,", "Async": ""},
	}

	assert.Equal(t, "GET", a.Arg(0))
	assert.Equal(t, "", a.Arg(3))
	assert.True(t, a.HasFlag("Async"))
	assert.Equal(t, "fallback", a.GetString("Async", "fallback"))
	assert.Equal(t, []string{"Auth", "RateLimit"}, a.GetList("Middleware"))
	assert.Nil(t, a.GetList("Missing"))
	assert.Equal(t, []string{"Async", "Middleware"}, a.FlagNames())
}

func TestParseCommentGroup(t *testing.T) {
	src := `package api

// Get returns one todo.
//
//bindplan::handler GET /todos/{id}
//bindplan::outcome NotFound
//bindplan::bogus
func Get(id int) {}
`
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "api.go", src, parser.ParseComments)
	require.NoError(t, err)

	p := NewParser(DefaultRegistry())
	parsed, errs := p.ParseCommentGroup(fset, file.Comments[0])

	require.Len(t, parsed, 2)
	assert.Equal(t, HandlerAnnotation, parsed[0].Type)
	assert.Equal(t, 5, parsed[0].Location.Line)
	assert.Equal(t, OutcomeAnnotation, parsed[1].Type)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "bogus")

	none, noErrs := p.ParseCommentGroup(fset, nil)
	assert.Nil(t, none)
	assert.Nil(t, noErrs)
}
