package outcome

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	"github.com/toyz/bindplan/internal/annotations"
	"github.com/toyz/bindplan/internal/diagnostics"
	"github.com/toyz/bindplan/internal/models"
	oc "github.com/toyz/bindplan/pkg/outcome"
	"golang.org/x/tools/go/ast/astutil"
)

// DefaultOutcomePath is the import path of the failure factories handlers call
const DefaultOutcomePath = "github.com/toyz/bindplan/pkg/outcome"

// maxTypeDepth bounds type inference through package variables and embedded fields
const maxTypeDepth = 8

// nonFactories are outcome package members that are not failure factories
var nonFactories = map[string]bool{
	"NoContent":       true,
	"Created":         true,
	"NewCreated":      true,
	"StatusOf":        true,
	"Error":           true,
	"Kind":            true,
	"Kinds":           true,
	"ParseKind":       true,
	"ShapeForStatus":  true,
	"ShapeProblem":    true,
	"ShapeValidation": true,
	"ShapeBinding":    true,
}

// cancellation lists imported interfaces whose errors only signal cancellation
var cancellation = map[string]bool{
	"context.Context": true,
}

// Discoverer walks handler bodies for outcome factory calls
type Discoverer struct {
	outcomePath string
	parser      *annotations.Parser
	imported    *importedTypes
}

// NewDiscoverer creates a discoverer recognizing factories imported from outcomePath.
// An empty path selects DefaultOutcomePath.
func NewDiscoverer(outcomePath string) *Discoverer {
	if outcomePath == "" {
		outcomePath = DefaultOutcomePath
	}
	return &Discoverer{
		outcomePath: outcomePath,
		parser:      annotations.NewParser(annotations.DefaultRegistry()),
		imported:    newImportedTypes(),
	}
}

// Discover walks symbol and everything it references inside u.
// explicit tells whether the handler declares its own outcome annotations.
func (d *Discoverer) Discover(u *Unit, symbol string, explicit bool, r diagnostics.Reporter) models.OutcomeSet {
	w := &walker{
		d:        d,
		u:        u,
		explicit: explicit,
		reporter: r,
		visited:  make(map[string]bool),
		reported: make(map[string]bool),
	}

	w.enqueue(symbol)
	for len(w.queue) > 0 {
		next := w.queue[0]
		w.queue = w.queue[1:]
		w.visit(next)
	}
	return w.set
}

// walker holds the state of one handler's walk
type walker struct {
	d        *Discoverer
	u        *Unit
	explicit bool
	reporter diagnostics.Reporter

	set      models.OutcomeSet
	queue    []string
	visited  map[string]bool
	reported map[string]bool
}

const varPrefix = "var:"

func (w *walker) enqueue(symbol string) {
	if w.visited[symbol] || !w.known(symbol) {
		return
	}
	w.visited[symbol] = true
	w.queue = append(w.queue, symbol)
}

func (w *walker) known(symbol string) bool {
	if name, ok := strings.CutPrefix(symbol, varPrefix); ok {
		_, exists := w.u.vars[name]
		return exists
	}
	_, exists := w.u.funcs[symbol]
	return exists
}

func (w *walker) visit(symbol string) {
	if name, ok := strings.CutPrefix(symbol, varPrefix); ok {
		if e := w.u.vars[name]; e.value != nil {
			w.inspect(e.value, newScope(e.file))
		}
		return
	}
	e := w.u.funcs[symbol]
	if e.decl.Body == nil {
		return
	}
	w.inspect(e.decl.Body, w.funcScope(e.decl, e.file))
}

// inspect walks node, recording factory calls and queueing referenced symbols
func (w *walker) inspect(node ast.Node, sc *scope) {
	ast.Inspect(node, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.CallExpr:
			w.call(n, sc)
		case *ast.SelectorExpr:
			w.selector(n, sc)
			w.inspect(n.X, sc)
			return false
		case *ast.CompositeLit:
			for _, elt := range n.Elts {
				if kv, ok := elt.(*ast.KeyValueExpr); ok {
					if _, isIdent := kv.Key.(*ast.Ident); !isIdent {
						w.inspect(kv.Key, sc)
					}
					w.inspect(kv.Value, sc)
					continue
				}
				w.inspect(elt, sc)
			}
			return false
		case *ast.Ident:
			w.ident(n, sc)
		}
		return true
	})
}

func (w *walker) ident(id *ast.Ident, sc *scope) {
	if sc.declared[id.Name] {
		return
	}
	if _, ok := w.u.funcs[id.Name]; ok {
		w.enqueue(id.Name)
		return
	}
	if _, ok := w.u.vars[id.Name]; ok {
		w.enqueue(varPrefix + id.Name)
	}
}

// selector queues the method a selector refers to.
// Nothing is queued when the receiver's type cannot be inferred.
func (w *walker) selector(sel *ast.SelectorExpr, sc *scope) {
	if _, ok := w.importPath(sel.X, sc); ok {
		return
	}

	if e, ok := w.typeEntry(w.typeExpr(sel.X, sc, 0)); ok {
		if symbol, found := w.methodSymbol(e, sel.Sel.Name, 0); found {
			w.enqueue(symbol)
		}
	}
}

// methodSymbol finds name on the type or, for structs, on its embedded fields
func (w *walker) methodSymbol(e typeEntry, name string, depth int) (string, bool) {
	symbol := e.spec.Name.Name + "." + name
	if _, ok := w.u.funcs[symbol]; ok {
		return symbol, true
	}
	st, ok := e.spec.Type.(*ast.StructType)
	if !ok || depth >= maxTypeDepth {
		return "", false
	}
	for _, field := range st.Fields.List {
		if len(field.Names) > 0 {
			continue
		}
		if embedded, ok := w.typeEntry(field.Type); ok {
			if symbol, found := w.methodSymbol(embedded, name, depth+1); found {
				return symbol, true
			}
		}
	}
	return "", false
}

func (w *walker) call(call *ast.CallExpr, sc *scope) {
	switch fun := astutil.Unparen(call.Fun).(type) {
	case *ast.SelectorExpr:
		if p, ok := w.importPath(fun.X, sc); ok {
			if p == w.d.outcomePath {
				w.factory(fun.Sel.Name, call, sc)
			}
			return
		}
		w.dynamicMember(fun, sc)
	case *ast.Ident:
		if sc.declared[fun.Name] {
			if ft, doc := w.funcType(sc.types[fun.Name]); ft != nil {
				w.dynamicCall(fun.Name, fallible(ft), doc, call.Pos())
			}
			return
		}
		if v, ok := w.u.vars[fun.Name]; ok && v.value == nil {
			if ft, doc := w.funcType(v.typ); ft != nil {
				w.dynamicCall(fun.Name, fallible(ft), doc, call.Pos())
			}
		}
	}
}

// dynamicMember handles calls through interface methods and func-typed struct fields.
// Receivers of unknown type are skipped; concrete types of other packages are never followed.
func (w *walker) dynamicMember(sel *ast.SelectorExpr, sc *scope) {
	recv := w.typeExpr(sel.X, sc, 0)
	if recv == nil {
		return
	}
	name := sel.Sel.Name

	if it, ok := recv.(*ast.InterfaceType); ok {
		if m, found := w.interfaceMethod(it, name, sc.file, 0); found {
			w.dynamicCall(types.ExprString(sel), m.fallible, m.doc, sel.Pos())
		}
		return
	}
	if p, typeName, ok := w.importedType(recv, sc.file); ok {
		if cancellation[p+"."+typeName] {
			return
		}
		m, found := w.d.imported.method(p, w.u.Dir, typeName, name)
		if found && m.iface {
			w.dynamicCall(ImportName(p)+"."+typeName+"."+name, m.fallible, nil, sel.Pos())
		}
		return
	}

	e, ok := w.typeEntry(recv)
	if !ok {
		return
	}
	subject := e.spec.Name.Name + "." + name

	switch t := e.spec.Type.(type) {
	case *ast.InterfaceType:
		if m, found := w.interfaceMethod(t, name, e.file, 0); found {
			w.dynamicCall(subject, m.fallible, m.doc, sel.Pos())
		}
	case *ast.StructType:
		if _, isMethod := w.methodSymbol(e, name, 0); isMethod {
			return
		}
		for _, field := range t.Fields.List {
			for _, n := range field.Names {
				if n.Name != name {
					continue
				}
				if ft, doc := w.funcType(field.Type); ft != nil {
					if field.Doc != nil {
						doc = field.Doc
					}
					w.dynamicCall(subject, fallible(ft), doc, sel.Pos())
				}
				return
			}
		}
	}
}

// member is an interface method the walk cannot follow
type member struct {
	fallible bool
	doc      *ast.CommentGroup
}

// interfaceMethod finds name in it or its embedded interfaces. file is where it was declared.
func (w *walker) interfaceMethod(it *ast.InterfaceType, name string, file *ast.File, depth int) (member, bool) {
	if depth >= maxTypeDepth {
		return member{}, false
	}
	for _, m := range it.Methods.List {
		if len(m.Names) == 0 {
			if found, ok := w.embeddedMethod(m.Type, name, file, depth); ok {
				return found, true
			}
			continue
		}
		for _, n := range m.Names {
			if n.Name == name {
				ft, _ := m.Type.(*ast.FuncType)
				return member{fallible: ft != nil && fallible(ft), doc: m.Doc}, true
			}
		}
	}
	return member{}, false
}

func (w *walker) embeddedMethod(embedded ast.Expr, name string, file *ast.File, depth int) (member, bool) {
	if e, ok := w.typeEntry(embedded); ok {
		if it, ok := e.spec.Type.(*ast.InterfaceType); ok {
			return w.interfaceMethod(it, name, e.file, depth+1)
		}
		return member{}, false
	}
	if p, typeName, ok := w.importedType(embedded, file); ok {
		if m, found := w.d.imported.method(p, w.u.Dir, typeName, name); found {
			return member{fallible: m.fallible}, true
		}
	}
	return member{}, false
}

// importedType splits a type expression naming a type of an imported package
func (w *walker) importedType(expr ast.Expr, file *ast.File) (string, string, bool) {
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
			continue
		case *ast.ParenExpr:
			expr = e.X
			continue
		case *ast.IndexExpr:
			expr = e.X
			continue
		case *ast.IndexListExpr:
			expr = e.X
			continue
		case *ast.SelectorExpr:
			id, ok := e.X.(*ast.Ident)
			if !ok {
				return "", "", false
			}
			p, ok := w.u.importFor(id.Name, file)
			if !ok {
				p, ok = w.u.importFor(id.Name, nil)
			}
			return p, e.Sel.Name, ok
		}
		return "", "", false
	}
}

// funcType resolves a func literal type or a named func type of the unit
func (w *walker) funcType(expr ast.Expr) (*ast.FuncType, *ast.CommentGroup) {
	if expr == nil {
		return nil, nil
	}
	if ft, ok := expr.(*ast.FuncType); ok {
		return ft, nil
	}
	if e, ok := w.typeEntry(expr); ok {
		if ft, ok := e.spec.Type.(*ast.FuncType); ok {
			return ft, e.doc
		}
	}
	return nil, nil
}

// dynamicCall merges the documented outcomes of a call the walk cannot follow
func (w *walker) dynamicCall(subject string, canFail bool, doc *ast.CommentGroup, pos token.Pos) {
	if !canFail {
		return
	}

	directives := w.outcomeDocs(doc)
	if len(directives) > 0 {
		for _, dir := range directives {
			if dir.IsKind {
				w.set.AddKind(dir.Kind)
			} else {
				w.set.AddDeclared(models.OutcomeAnnotation{Status: dir.Status, Label: dir.Label})
			}
		}
		return
	}

	if w.explicit {
		return
	}
	w.set.Undocumented = true
	w.report(diagnostics.UndocumentedInterfaceCall, subject, pos,
		"call to %s can fail but declares no //bindplan::outcome annotations; annotate the member or the handler", subject)
}

func (w *walker) outcomeDocs(doc *ast.CommentGroup) []annotations.OutcomeDirective {
	parsed, _ := w.d.parser.ParseCommentGroup(w.u.Fset, doc)

	var directives []annotations.OutcomeDirective
	for _, a := range parsed {
		if a.Type != annotations.OutcomeAnnotation {
			continue
		}
		if dir, err := annotations.DecodeOutcome(a); err == nil {
			directives = append(directives, dir)
		}
	}
	return directives
}

// fallible reports whether the last result of ft is error
func fallible(ft *ast.FuncType) bool {
	if ft.Results == nil || len(ft.Results.List) == 0 {
		return false
	}
	last := ft.Results.List[len(ft.Results.List)-1]
	id, ok := last.Type.(*ast.Ident)
	return ok && id.Name == "error"
}

// factory records a call on the outcome package
func (w *walker) factory(name string, call *ast.CallExpr, sc *scope) {
	if kind, ok := oc.ParseKind(name); ok {
		w.set.AddKind(kind)
		return
	}
	if name == oc.KindCustom.String() {
		if custom, ok := w.foldCustom(call, sc); ok {
			w.set.AddCustom(custom)
		}
		return
	}
	if nonFactories[name] || strings.HasPrefix(name, "Kind") {
		return
	}

	w.set.UnknownFactory = true
	w.report(diagnostics.UnknownErrorFactory, "outcome."+name, call.Pos(),
		"outcome.%s is not a known failure factory; use one of Validation, NotFound, Conflict, Unauthorized, Forbidden, Failure, Unexpected or Custom", name)
}

func (w *walker) report(kind diagnostics.Kind, subject string, pos token.Pos, format string, args ...any) {
	key := fmt.Sprintf("%s|%s", kind, subject)
	if w.reported[key] || w.reporter == nil {
		return
	}
	w.reported[key] = true

	d := diagnostics.New(kind, subject, format, args...)
	if pos.IsValid() {
		p := w.u.Fset.Position(pos)
		d.Position = models.SourcePosition{File: p.Filename, Line: p.Line}
	}
	w.reporter.Report(d)
}

func (w *walker) importPath(x ast.Expr, sc *scope) (string, bool) {
	id, ok := x.(*ast.Ident)
	if !ok || sc.declared[id.Name] {
		return "", false
	}
	p, ok := w.u.imports[sc.file][id.Name]
	return p, ok
}
