// Package analysis runs route parsing, binding classification, outcome discovery and
// union building over a set of handler declarations.
package analysis

import (
	"context"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/toyz/bindplan/internal/classify"
	"github.com/toyz/bindplan/internal/diagnostics"
	"github.com/toyz/bindplan/internal/models"
	"github.com/toyz/bindplan/internal/outcome"
	"github.com/toyz/bindplan/internal/registry"
	"github.com/toyz/bindplan/internal/route"
	"github.com/toyz/bindplan/internal/union"
)

// Program is everything known about the analysed packages
type Program struct {
	Units       map[string]*outcome.Unit // by import path
	Diagnostics diagnostics.Diagnostics  // found before analysis, such as malformed directives
}

// fatal returns the handlers whose earlier diagnostics invalidate their plans
func (p Program) fatal() map[models.HandlerID]bool {
	fatal := make(map[models.HandlerID]bool)
	for _, d := range p.Diagnostics {
		if d.Kind.Fatal() {
			fatal[d.Handler] = true
		}
	}
	return fatal
}

// Options configures an Analyzer
type Options struct {
	Workers        int    // <= 0 selects GOMAXPROCS
	MaxArity       int    // <= 0 selects union.DefaultMaxArity
	OutcomePackage string // empty selects outcome.DefaultOutcomePath
	Middlewares    registry.MiddlewareRegistry
}

// Analyzer is safe for concurrent use; it holds no per-run state besides the route cache
type Analyzer struct {
	workers     int
	routes      *route.Cache
	classifier  *classify.Classifier
	discoverer  *outcome.Discoverer
	unions      *union.Builder
	middlewares registry.MiddlewareRegistry
}

// New creates an analyzer
func New(opts Options) *Analyzer {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	middlewares := opts.Middlewares
	if middlewares == nil {
		middlewares = registry.NewMiddlewareRegistry()
	}
	return &Analyzer{
		workers:     workers,
		routes:      route.NewCache(),
		classifier:  classify.New(),
		discoverer:  outcome.NewDiscoverer(opts.OutcomePackage),
		unions:      union.NewBuilder(opts.MaxArity),
		middlewares: middlewares,
	}
}

// Analyze analyses every handler independently. The returned report lists handlers in
// input order; the error is non-nil only when ctx is cancelled.
func (a *Analyzer) Analyze(ctx context.Context, handlers []models.HandlerDeclaration, program Program) (*Report, error) {
	sink := diagnostics.NewSink()
	for _, d := range program.Diagnostics {
		sink.Add(d)
	}
	fatal := program.fatal()

	results := make([]HandlerResult, len(handlers))
	templates := make([]*route.Template, len(handlers))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := range handlers {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i], templates[i] = a.analyze(handlers[i], program, fatal[handlers[i].ID], sink)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.reportDuplicates(handlers, templates, sink)

	for i := range results {
		results[i].Diagnostics = sink.Handler(handlers[i].ID)
	}
	return newReport(results, sink.All()), nil
}

// analyze runs every pass for one handler
func (a *Analyzer) analyze(h models.HandlerDeclaration, program Program, invalid bool, sink *diagnostics.Sink) (HandlerResult, *route.Template) {
	r := sink.For(h.ID, h.Position)

	tmpl, err := a.routes.Parse(h.Route)
	if err != nil {
		r.Report(diagnostics.New(diagnostics.StructuralRouteError, h.Route, "%s", err.Error()))
	}

	plan := a.classifier.Classify(h, tmpl, r)
	if err != nil || invalid {
		plan = models.InvalidPlan()
	}

	codes, unknown := a.middlewares.Statuses(h.Middlewares)
	for _, name := range unknown {
		r.Report(diagnostics.New(diagnostics.UnknownMiddleware, name,
			"middleware '%s' is not registered; its responses are not part of the union", name))
	}

	outcomes := a.discover(h, program, r)

	result := HandlerResult{
		ID:       h.ID,
		Handler:  h.ID.String(),
		Package:  h.Package,
		Position: h.Position,
		Verb:     h.Verb,
		Route:    h.Route,
		Plan:     plan,
		Outcomes: outcomes,
		Union: a.unions.Build(union.Input{
			Verb:            h.Verb,
			SuccessType:     h.SuccessType,
			SuccessKind:     h.SuccessKind,
			Plan:            plan,
			Outcomes:        outcomes,
			Explicit:        h.ExplicitOutcomes,
			MiddlewareCodes: codes,
		}),
	}
	return result, tmpl
}

func (a *Analyzer) discover(h models.HandlerDeclaration, program Program, r diagnostics.Reporter) models.OutcomeSet {
	symbol := Symbol(h.ID)
	unit, ok := program.Units[h.Package]
	if ok && unit != nil {
		_, ok = unit.Func(symbol)
	}
	if !ok {
		r.Report(diagnostics.New(diagnostics.HandlerNotFound, symbol,
			"no body found for '%s' in package '%s'; outcomes were not discovered", symbol, h.Package))
		return models.OutcomeSet{}
	}
	return a.discoverer.Discover(unit, symbol, len(h.ExplicitOutcomes) > 0, r)
}

// Symbol returns the unit symbol of a handler: Receiver.Method for methods, Func otherwise
func Symbol(id models.HandlerID) string {
	if _, receiver, ok := strings.Cut(id.Scope, "."); ok {
		return receiver + "." + id.Member
	}
	return id.Member
}
