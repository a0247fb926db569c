package annotations

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/toyz/bindplan/pkg/outcome"
)

var validVerbs = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"}

// explicitSources are the binding sources a param directive may request
var explicitSources = []string{"Route", "Query", "Header", "Body", "Form", "Service", "KeyedService", "Expand"}

func oneOf(allowed []string, caseInsensitive bool) func(string) error {
	return func(v string) error {
		for _, a := range allowed {
			if a == v || (caseInsensitive && strings.EqualFold(a, v)) {
				return nil
			}
		}
		return fmt.Errorf("must be one of: %s, got '%s'", strings.Join(allowed, ", "), v)
	}
}

// HandlerAnnotationSchema defines //bindplan::handler
var HandlerAnnotationSchema = AnnotationSchema{
	Type:        HandlerAnnotation,
	Description: "Declares an HTTP handler with its verb and route template",
	Args: []ArgSpec{
		{Name: "verb", Required: true, Validator: oneOf(validVerbs, true)},
		{Name: "route", Required: true, Validator: func(v string) error {
			if !strings.HasPrefix(v, "/") {
				return fmt.Errorf("route must start with '/', got '%s'", v)
			}
			return nil
		}},
	},
	Flags: map[string]FlagSpec{
		"Success": {
			Description: "Success marker: Payload (default), Created or NoContent",
			Validator:   oneOf([]string{"Payload", "Created", "NoContent"}, true),
		},
		"Middleware": {
			Description: "Comma-separated middleware names applied to the handler",
		},
		"Async": {
			Description: "Marks the handler as asynchronous",
			Boolean:     true,
		},
	},
	Examples: []string{
		"//bindplan::handler GET /todos/{id:int}",
		"//bindplan::handler POST /todos -Success=Created",
		"//bindplan::handler DELETE /todos/{id} -Success=NoContent -Middleware=Auth",
	},
}

// OutcomeAnnotationSchema defines //bindplan::outcome
var OutcomeAnnotationSchema = AnnotationSchema{
	Type:        OutcomeAnnotation,
	Description: "Declares a response a handler or interface method can produce",
	Args: []ArgSpec{
		{Name: "status", Required: true, Validator: func(v string) error {
			if _, ok := outcome.ParseKind(v); ok {
				return nil
			}
			code, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("must be a status code or an outcome kind, got '%s'", v)
			}
			if code < 100 || code > 599 {
				return fmt.Errorf("status code %d is outside 100-599", code)
			}
			return nil
		}},
		{Name: "label"},
	},
	Examples: []string{
		"//bindplan::outcome NotFound",
		"//bindplan::outcome 404 NotFound",
		"//bindplan::outcome 418 \"I'm a teapot\"",
	},
}

// ParamAnnotationSchema defines //bindplan::param
var ParamAnnotationSchema = AnnotationSchema{
	Type:        ParamAnnotation,
	Description: "Requests an explicit binding source for a parameter",
	Args: []ArgSpec{
		{Name: "name", Required: true},
	},
	Flags: map[string]FlagSpec{
		"From": {
			Description: "Binding source",
			Required:    true,
			Validator:   oneOf(explicitSources, true),
		},
		"Key": {
			Description: "Route, query, header, form or service key; defaults to the parameter name",
		},
	},
	Examples: []string{
		"//bindplan::param id -From=Route",
		"//bindplan::param token -From=Header -Key=X-Api-Token",
		"//bindplan::param opts -From=Expand",
	},
}

// ExpandAnnotationSchema defines //bindplan::expand
var ExpandAnnotationSchema = AnnotationSchema{
	Type:        ExpandAnnotation,
	Description: "Marks a struct type for expansion into its constructor parameters",
	Examples: []string{
		"//bindplan::expand",
	},
}

// BuiltinSchemas lists the schemas every registry starts with
var BuiltinSchemas = []AnnotationSchema{
	HandlerAnnotationSchema,
	OutcomeAnnotationSchema,
	ParamAnnotationSchema,
	ExpandAnnotationSchema,
}
