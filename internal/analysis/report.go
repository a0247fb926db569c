package analysis

import (
	"sort"
	"strings"

	radix "github.com/armon/go-radix"

	"github.com/toyz/bindplan/internal/diagnostics"
	"github.com/toyz/bindplan/internal/models"
	"github.com/toyz/bindplan/internal/route"
)

// HandlerResult is the analysis outcome of one handler
type HandlerResult struct {
	ID          models.HandlerID        `json:"-" yaml:"-" msgpack:"-"`
	Handler     string                  `json:"handler" yaml:"handler" msgpack:"handler"`
	Package     string                  `json:"package" yaml:"package" msgpack:"package"`
	Position    models.SourcePosition   `json:"position,omitempty" yaml:"position,omitempty" msgpack:"position,omitempty"`
	Verb        string                  `json:"verb" yaml:"verb" msgpack:"verb"`
	Route       string                  `json:"route" yaml:"route" msgpack:"route"`
	Plan        models.BindingPlan      `json:"plan" yaml:"plan" msgpack:"plan"`
	Outcomes    models.OutcomeSet       `json:"outcomes" yaml:"outcomes" msgpack:"outcomes"`
	Union       models.UnionResult      `json:"union" yaml:"union" msgpack:"union"`
	Diagnostics diagnostics.Diagnostics `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
}

// Report is the result of one analysis run
type Report struct {
	Handlers    []HandlerResult         `json:"handlers" yaml:"handlers" msgpack:"handlers"`
	Diagnostics diagnostics.Diagnostics `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`

	routes *radix.Tree // raw route text -> []int handler indices
}

func newReport(handlers []HandlerResult, diags diagnostics.Diagnostics) *Report {
	r := &Report{Handlers: handlers, Diagnostics: diags, routes: radix.New()}
	for i, h := range handlers {
		var indices []int
		if v, ok := r.routes.Get(h.Route); ok {
			indices = v.([]int)
		}
		r.routes.Insert(h.Route, append(indices, i))
	}
	return r
}

// Filter returns the handlers whose route starts with prefix, with their diagnostics
func (r *Report) Filter(prefix string) *Report {
	if prefix == "" {
		return r
	}

	var indices []int
	r.routes.WalkPrefix(prefix, func(_ string, v interface{}) bool {
		indices = append(indices, v.([]int)...)
		return false
	})
	sort.Ints(indices)

	handlers := make([]HandlerResult, 0, len(indices))
	keep := make(map[models.HandlerID]bool, len(indices))
	for _, i := range indices {
		handlers = append(handlers, r.Handlers[i])
		keep[r.Handlers[i].ID] = true
	}

	var diags diagnostics.Diagnostics
	for _, d := range r.Diagnostics {
		if keep[d.Handler] {
			diags = append(diags, d)
		}
	}
	return newReport(handlers, diags)
}

// Handler returns the result for a handler identity
func (r *Report) Handler(id models.HandlerID) (HandlerResult, bool) {
	for _, h := range r.Handlers {
		if h.ID == id {
			return h, true
		}
	}
	return HandlerResult{}, false
}

// HasErrors reports whether any error-severity diagnostic was produced
func (r *Report) HasErrors() bool {
	return r.Diagnostics.HasErrors()
}

// reportDuplicates warns about handlers sharing a verb and an equivalent route.
// The first handler in input order owns the route.
func (a *Analyzer) reportDuplicates(handlers []models.HandlerDeclaration, templates []*route.Template, sink *diagnostics.Sink) {
	owners := radix.New()
	for i, h := range handlers {
		if templates[i] == nil {
			continue
		}
		key := strings.ToUpper(h.Verb) + " " + templates[i].Normalized()
		if owner, ok := owners.Get(key); ok {
			first := handlers[owner.(int)]
			sink.For(h.ID, h.Position).Report(diagnostics.New(diagnostics.DuplicateRoute, h.Route,
				"%s %s is already handled by %s", h.Verb, h.Route, first.ID))
			continue
		}
		owners.Insert(key, i)
	}
}
