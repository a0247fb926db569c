package outcome

import (
	"go/ast"
	"go/token"

	"golang.org/x/tools/go/ast/astutil"
)

// scope records the names declared inside one function and, when known, their types.
// Block structure is flattened: a name declared anywhere in the body shadows package symbols.
type scope struct {
	file     *ast.File
	types    map[string]ast.Expr
	declared map[string]bool
}

func newScope(file *ast.File) *scope {
	return &scope{
		file:     file,
		types:    make(map[string]ast.Expr),
		declared: make(map[string]bool),
	}
}

func (sc *scope) declare(name string, typ ast.Expr) {
	if name == "_" || name == "" {
		return
	}
	sc.declared[name] = true
	if typ != nil {
		sc.types[name] = typ
	}
}

func (sc *scope) fields(list *ast.FieldList) {
	if list == nil {
		return
	}
	for _, f := range list.List {
		for _, name := range f.Names {
			sc.declare(name.Name, f.Type)
		}
	}
}

// funcScope collects the receiver, parameters, results and locals of fn
func (w *walker) funcScope(fn *ast.FuncDecl, file *ast.File) *scope {
	sc := newScope(file)
	sc.fields(fn.Recv)
	sc.fields(fn.Type.Params)
	sc.fields(fn.Type.Results)

	ast.Inspect(fn.Body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.AssignStmt:
			if n.Tok != token.DEFINE {
				return true
			}
			for i, lhs := range n.Lhs {
				id, ok := lhs.(*ast.Ident)
				if !ok {
					continue
				}
				var typ ast.Expr
				if len(n.Rhs) == len(n.Lhs) {
					typ = w.typeExpr(n.Rhs[i], sc, 0)
				}
				sc.declare(id.Name, typ)
			}
		case *ast.ValueSpec:
			for i, name := range n.Names {
				typ := n.Type
				if typ == nil && i < len(n.Values) {
					typ = w.typeExpr(n.Values[i], sc, 0)
				}
				sc.declare(name.Name, typ)
			}
		case *ast.RangeStmt:
			if n.Tok == token.DEFINE {
				key, value := w.elementTypes(w.typeExpr(n.X, sc, 0), 0)
				if id, ok := n.Key.(*ast.Ident); ok {
					sc.declare(id.Name, key)
				}
				if id, ok := n.Value.(*ast.Ident); ok {
					sc.declare(id.Name, value)
				}
			}
		case *ast.FuncLit:
			sc.fields(n.Type.Params)
			sc.fields(n.Type.Results)
		case *ast.TypeSpec:
			sc.declare(n.Name.Name, nil)
		}
		return true
	})
	return sc
}

// typeExpr infers the declared type of e, or nil when it cannot tell
func (w *walker) typeExpr(e ast.Expr, sc *scope, depth int) ast.Expr {
	if depth >= maxTypeDepth {
		return nil
	}
	switch e := e.(type) {
	case *ast.Ident:
		if sc.declared[e.Name] {
			return sc.types[e.Name]
		}
		if v, ok := w.u.vars[e.Name]; ok {
			if v.typ != nil {
				return v.typ
			}
			if v.value != nil {
				return w.typeExpr(v.value, newScope(v.file), depth+1)
			}
		}
	case *ast.ParenExpr:
		return w.typeExpr(e.X, sc, depth+1)
	case *ast.StarExpr:
		return w.typeExpr(e.X, sc, depth+1)
	case *ast.UnaryExpr:
		if e.Op == token.AND {
			return w.typeExpr(e.X, sc, depth+1)
		}
	case *ast.CompositeLit:
		return e.Type
	case *ast.IndexExpr:
		_, value := w.elementTypes(w.typeExpr(e.X, sc, depth+1), depth+1)
		return value
	case *ast.SelectorExpr:
		if _, ok := w.importPath(e.X, sc); ok {
			return nil
		}
		owner, ok := w.typeEntry(w.typeExpr(e.X, sc, depth+1))
		if !ok {
			return nil
		}
		return w.fieldType(owner, e.Sel.Name, depth+1)
	case *ast.CallExpr:
		return w.resultType(e, sc, depth+1)
	}
	return nil
}

// elementTypes returns the key and value types of ranging over a value of type t.
// Array and slice keys are left nil.
func (w *walker) elementTypes(t ast.Expr, depth int) (ast.Expr, ast.Expr) {
	if depth >= maxTypeDepth {
		return nil, nil
	}
	switch t := t.(type) {
	case *ast.ArrayType:
		return nil, t.Elt
	case *ast.Ellipsis:
		return nil, t.Elt
	case *ast.MapType:
		return t.Key, t.Value
	case *ast.ChanType:
		return t.Value, nil
	case *ast.StarExpr:
		if at, ok := t.X.(*ast.ArrayType); ok {
			return nil, at.Elt
		}
	case *ast.Ident:
		if e, ok := w.u.typeSpec(t.Name); ok {
			return w.elementTypes(e.spec.Type, depth+1)
		}
	}
	return nil, nil
}

// fieldType returns the type of a struct field, searching embedded structs
func (w *walker) fieldType(owner typeEntry, name string, depth int) ast.Expr {
	st, ok := owner.spec.Type.(*ast.StructType)
	if !ok || depth >= maxTypeDepth {
		return nil
	}
	for _, field := range st.Fields.List {
		for _, n := range field.Names {
			if n.Name == name {
				return field.Type
			}
		}
	}
	for _, field := range st.Fields.List {
		if len(field.Names) > 0 {
			continue
		}
		if embedded, ok := w.typeEntry(field.Type); ok {
			if t := w.fieldType(embedded, name, depth+1); t != nil {
				return t
			}
		}
	}
	return nil
}

// resultType returns the first result type of a call to a unit function or method
func (w *walker) resultType(call *ast.CallExpr, sc *scope, depth int) ast.Expr {
	var symbol string
	switch fun := astutil.Unparen(call.Fun).(type) {
	case *ast.Ident:
		if sc.declared[fun.Name] {
			return nil
		}
		symbol = fun.Name
	case *ast.SelectorExpr:
		if _, ok := w.importPath(fun.X, sc); ok {
			return nil
		}
		owner, ok := w.typeEntry(w.typeExpr(fun.X, sc, depth))
		if !ok {
			return nil
		}
		symbol, ok = w.methodSymbol(owner, fun.Sel.Name, 0)
		if !ok {
			return nil
		}
	default:
		return nil
	}

	e, ok := w.u.funcs[symbol]
	if !ok || e.decl.Type.Results == nil || len(e.decl.Type.Results.List) == 0 {
		return nil
	}
	return e.decl.Type.Results.List[0].Type
}

// typeEntry resolves a type expression to a named type declared in the unit
func (w *walker) typeEntry(expr ast.Expr) (typeEntry, bool) {
	if expr == nil {
		return typeEntry{}, false
	}
	name := ReceiverName(expr)
	if name == "" {
		return typeEntry{}, false
	}
	return w.u.typeSpec(name)
}
