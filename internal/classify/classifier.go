// Package classify decides where every handler parameter gets its value from.
package classify

import (
	"github.com/toyz/bindplan/internal/diagnostics"
	"github.com/toyz/bindplan/internal/models"
	"github.com/toyz/bindplan/internal/route"
)

// maxExpandDepth is the deepest level at which an Expand may appear.
// Parameters of an expanded constructor live at depth 1 and may not expand again.
const maxExpandDepth = 0

// Classifier produces binding plans. It holds no state and is safe for concurrent use.
type Classifier struct{}

// New creates a classifier
func New() *Classifier {
	return &Classifier{}
}

// pass carries the state of one handler's classification
type pass struct {
	tmpl  *route.Template
	diags *diagnostics.Collector
}

// Classify classifies every parameter of h. tmpl may be nil when the route failed to parse.
// Every parameter is classified even after a sibling fails, so all problems surface at once.
// A plan with any fatal diagnostic is returned as the invalid sentinel.
func (c *Classifier) Classify(h models.HandlerDeclaration, tmpl *route.Template, r diagnostics.Reporter) models.BindingPlan {
	p := &pass{
		tmpl:  tmpl,
		diags: diagnostics.NewCollector(r),
	}

	params := make([]models.ClassifiedParameter, 0, len(h.Parameters))
	for _, decl := range h.Parameters {
		params = append(params, p.classify(decl, 0, decl.Name))
	}

	p.checkBodySurfaces(params)

	if p.diags.Fatal() {
		return models.InvalidPlan()
	}
	return models.BindingPlan{Valid: true, Parameters: params}
}

// classify runs the rule chain for one parameter, then validates the chosen source
func (p *pass) classify(decl models.ParameterDeclaration, depth int, subject string) models.ClassifiedParameter {
	var cp models.ClassifiedParameter
	for _, rule := range rules {
		if result, ok := rule(p, decl); ok {
			cp = result
			break
		}
	}

	cp.Name = decl.Name
	cp.Type = decl.Type.Name
	cp.Nullable = decl.Nullable
	if cp.Source != models.SourceCustomParsed {
		cp.Origin = cp.Source
	}

	p.checkSource(decl, cp, subject)

	if cp.Source == models.SourceExpand {
		cp.Builder, cp.Expanded = p.expand(decl, depth, subject)
	}
	return cp
}

// expand classifies the constructor parameters of an Expand target
func (p *pass) expand(decl models.ParameterDeclaration, depth int, subject string) (string, []models.ClassifiedParameter) {
	t := decl.Type

	if depth > maxExpandDepth {
		p.report(diagnostics.NestedExpandNotSupported, subject,
			"parameter '%s' of type '%s' cannot be expanded inside another expanded parameter", subject, t.Name)
		return "", nil
	}
	if decl.Nullable {
		p.report(diagnostics.NullableExpandNotSupported, subject,
			"parameter '%s' is nullable; expanded parameters must be non-nullable structs", subject)
		return "", nil
	}
	if !t.IsStruct() {
		p.report(diagnostics.ExpandNoConstructor, subject,
			"parameter '%s' of type '%s' cannot be expanded: only struct types can be expanded", subject, t.Name)
		return "", nil
	}
	if t.Constructor == nil {
		p.report(diagnostics.ExpandNoConstructor, subject,
			"parameter '%s' of type '%s' cannot be expanded: declare a public New%s constructor", subject, t.Name, baseName(t.Name))
		return "", nil
	}

	nested := make([]models.ClassifiedParameter, 0, len(t.Constructor.Parameters))
	for _, member := range t.Constructor.Parameters {
		nested = append(nested, p.classify(member, depth+1, subject+"."+member.Name))
	}
	return t.Constructor.Name, nested
}

// checkBodySurfaces enforces that at most one body surface is consumed,
// counting expanded members alongside top-level parameters
func (p *pass) checkBodySurfaces(params []models.ClassifiedParameter) {
	surfaces := make(map[models.BodySurface][]string)
	bodies := 0

	var visit func(cp models.ClassifiedParameter, subject string)
	visit = func(cp models.ClassifiedParameter, subject string) {
		if s := cp.Source.Surface(); s != models.SurfaceNone {
			surfaces[s] = append(surfaces[s], subject)
		}
		if cp.Source == models.SourceBody {
			bodies++
		}
		for _, nested := range cp.Expanded {
			visit(nested, subject+"."+nested.Name)
		}
	}
	for _, cp := range params {
		visit(cp, cp.Name)
	}

	if len(surfaces) <= 1 && bodies <= 1 {
		return
	}

	var names []string
	for _, s := range []models.BodySurface{models.SurfaceBody, models.SurfaceForm, models.SurfaceStream} {
		names = append(names, surfaces[s]...)
	}
	p.report(diagnostics.MultipleBodySources, "",
		"handler reads the request body more than once (%s); use a single body, form or stream parameter",
		joinQuoted(names))
}

func (p *pass) report(kind diagnostics.Kind, subject, format string, args ...any) {
	p.diags.Report(diagnostics.New(kind, subject, format, args...))
}
