package extract

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/ast/inspector"

	"github.com/toyz/bindplan/internal/annotations"
	"github.com/toyz/bindplan/internal/diagnostics"
	"github.com/toyz/bindplan/internal/models"
	"github.com/toyz/bindplan/internal/outcome"
)

// handlers builds a declaration for every function carrying a handler directive
func (x *extraction) handlers(files []*ast.File) {
	describers := make(map[*ast.File]*describer, len(files))
	for _, file := range files {
		describers[file] = &describer{pkg: x.index, imports: outcome.FileImports(file)}
	}

	insp := inspector.New(files)
	insp.WithStack([]ast.Node{(*ast.FuncDecl)(nil)}, func(n ast.Node, push bool, stack []ast.Node) bool {
		if !push {
			return false
		}
		fn := n.(*ast.FuncDecl)
		file := stack[0].(*ast.File)
		if h, ok := x.handler(fn, describers[file]); ok {
			x.pkg.Handlers = append(x.pkg.Handlers, h)
		}
		return false
	})
}

func (x *extraction) handlerID(fn *ast.FuncDecl) models.HandlerID {
	scope := x.pkg.Name
	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		scope += "." + outcome.ReceiverName(fn.Recv.List[0].Type)
	}
	return models.HandlerID{Scope: scope, Member: fn.Name.Name}
}

func (x *extraction) handler(fn *ast.FuncDecl, d *describer) (models.HandlerDeclaration, bool) {
	if fn.Doc == nil {
		return models.HandlerDeclaration{}, false
	}
	id := x.handlerID(fn)
	directives := x.directivesOf(fn.Doc, id)

	var route *annotations.ParsedAnnotation
	for _, a := range directives {
		if a.Type == annotations.HandlerAnnotation {
			route = a
			break
		}
	}
	if route == nil {
		return models.HandlerDeclaration{}, false
	}

	pos := x.fset.Position(fn.Pos())
	h := models.HandlerDeclaration{
		ID:          id,
		Package:     x.pkg.Path,
		Position:    models.SourcePosition{File: pos.Filename, Line: pos.Line},
		Verb:        strings.ToUpper(route.Arg(0)),
		Route:       route.Arg(1),
		Parameters:  d.parameters(fn.Type.Params, 0),
		IsAsync:     route.HasFlag("Async"),
		Middlewares: route.GetList("Middleware"),
	}
	h.SuccessType, h.SuccessKind = x.success(fn.Type.Results, d)
	if flag := route.GetString("Success"); flag != "" {
		// the schema already validated the value
		kind, _ := models.ParseSuccessKind(flag)
		h.SuccessKind = kind
		if kind == models.SuccessNoContent {
			h.SuccessType = ""
		}
	}

	for _, a := range directives {
		switch a.Type {
		case annotations.OutcomeAnnotation:
			o, err := annotations.DecodeOutcome(a)
			if err != nil {
				x.invalid(id, a, "%s", err.Error())
				continue
			}
			h.ExplicitOutcomes = append(h.ExplicitOutcomes, models.OutcomeAnnotation{Status: o.Status, Label: o.Label})
		case annotations.ParamAnnotation:
			x.bind(&h, a)
		}
	}
	return h, true
}

// bind applies a param directive to the named parameter
func (x *extraction) bind(h *models.HandlerDeclaration, a *annotations.ParsedAnnotation) {
	name := a.Arg(0)
	source, ok := models.ParseBindingSource(a.GetString("From"))
	if !ok {
		x.invalid(h.ID, a, "unknown binding source '%s'", a.GetString("From"))
		return
	}
	for i := range h.Parameters {
		if h.Parameters[i].Name != name {
			continue
		}
		if h.Parameters[i].Binding != nil {
			x.invalid(h.ID, a, "parameter '%s' has more than one param directive", name)
			return
		}
		h.Parameters[i].Binding = &models.BindingAnnotation{Source: source, Key: a.GetString("Key")}
		return
	}
	x.invalid(h.ID, a, "param directive names '%s' but %s has no such parameter", name, h.ID)
}

func (x *extraction) invalid(id models.HandlerID, a *annotations.ParsedAnnotation, format string, args ...any) {
	d := diagnostics.New(diagnostics.InvalidAnnotation, a.Raw, format, args...)
	d.Handler = id
	d.Position = models.SourcePosition{File: a.Location.File, Line: a.Location.Line}
	x.pkg.Diagnostics = append(x.pkg.Diagnostics, d)
}

// success reads the declared success payload from the result list.
// A trailing error is the failure channel; outcome.NoContent and outcome.Created[T] are markers.
func (x *extraction) success(results *ast.FieldList, d *describer) (string, models.SuccessKind) {
	exprs := flatten(results)
	if n := len(exprs); n > 0 {
		if id, ok := exprs[n-1].(*ast.Ident); ok && id.Name == "error" {
			exprs = exprs[:n-1]
		}
	}
	if len(exprs) == 0 {
		return "", models.SuccessNoContent
	}

	payload := exprs[0]
	if star, ok := payload.(*ast.StarExpr); ok {
		payload = star.X
	}

	switch p := payload.(type) {
	case *ast.SelectorExpr:
		if x.isOutcome(p.X, d) && p.Sel.Name == "NoContent" {
			return "", models.SuccessNoContent
		}
	case *ast.IndexExpr:
		if sel, ok := p.X.(*ast.SelectorExpr); ok && x.isOutcome(sel.X, d) && sel.Sel.Name == "Created" {
			return strings.TrimPrefix(types.ExprString(p.Index), "*"), models.SuccessCreated
		}
	}
	return types.ExprString(payload), models.SuccessPayload
}

func (x *extraction) isOutcome(expr ast.Expr, d *describer) bool {
	id, ok := expr.(*ast.Ident)
	return ok && d.imports[id.Name] == x.outcomePackage
}
