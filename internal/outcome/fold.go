package outcome

import (
	"go/ast"
	"go/constant"
	"go/token"
	"net/http"

	"github.com/toyz/bindplan/internal/models"
	"golang.org/x/tools/go/ast/astutil"
)

// httpStatuses are the net/http status constants folding understands
var httpStatuses = map[string]int{
	"StatusContinue":                      http.StatusContinue,
	"StatusOK":                            http.StatusOK,
	"StatusCreated":                       http.StatusCreated,
	"StatusAccepted":                      http.StatusAccepted,
	"StatusNoContent":                     http.StatusNoContent,
	"StatusPartialContent":                http.StatusPartialContent,
	"StatusMovedPermanently":              http.StatusMovedPermanently,
	"StatusFound":                         http.StatusFound,
	"StatusSeeOther":                      http.StatusSeeOther,
	"StatusNotModified":                   http.StatusNotModified,
	"StatusTemporaryRedirect":             http.StatusTemporaryRedirect,
	"StatusPermanentRedirect":             http.StatusPermanentRedirect,
	"StatusBadRequest":                    http.StatusBadRequest,
	"StatusUnauthorized":                  http.StatusUnauthorized,
	"StatusPaymentRequired":               http.StatusPaymentRequired,
	"StatusForbidden":                     http.StatusForbidden,
	"StatusNotFound":                      http.StatusNotFound,
	"StatusMethodNotAllowed":              http.StatusMethodNotAllowed,
	"StatusNotAcceptable":                 http.StatusNotAcceptable,
	"StatusRequestTimeout":                http.StatusRequestTimeout,
	"StatusConflict":                      http.StatusConflict,
	"StatusGone":                          http.StatusGone,
	"StatusLengthRequired":                http.StatusLengthRequired,
	"StatusPreconditionFailed":            http.StatusPreconditionFailed,
	"StatusRequestEntityTooLarge":         http.StatusRequestEntityTooLarge,
	"StatusUnsupportedMediaType":          http.StatusUnsupportedMediaType,
	"StatusTeapot":                        http.StatusTeapot,
	"StatusUnprocessableEntity":           http.StatusUnprocessableEntity,
	"StatusLocked":                        http.StatusLocked,
	"StatusFailedDependency":              http.StatusFailedDependency,
	"StatusTooEarly":                      http.StatusTooEarly,
	"StatusPreconditionRequired":          http.StatusPreconditionRequired,
	"StatusTooManyRequests":               http.StatusTooManyRequests,
	"StatusUnavailableForLegalReasons":    http.StatusUnavailableForLegalReasons,
	"StatusInternalServerError":           http.StatusInternalServerError,
	"StatusNotImplemented":                http.StatusNotImplemented,
	"StatusBadGateway":                    http.StatusBadGateway,
	"StatusServiceUnavailable":            http.StatusServiceUnavailable,
	"StatusGatewayTimeout":                http.StatusGatewayTimeout,
	"StatusHTTPVersionNotSupported":       http.StatusHTTPVersionNotSupported,
	"StatusInsufficientStorage":           http.StatusInsufficientStorage,
	"StatusNetworkAuthenticationRequired": http.StatusNetworkAuthenticationRequired,
}

// foldCustom extracts the status and label of an outcome.Custom call.
// Arguments that are not compile-time constants make the call unfoldable.
func (w *walker) foldCustom(call *ast.CallExpr, sc *scope) (models.CustomOutcome, bool) {
	if len(call.Args) != 2 {
		return models.CustomOutcome{}, false
	}

	f := &folder{w: w, seen: make(map[string]bool)}
	status, ok := f.fold(call.Args[0], sc)
	if !ok || status.Kind() != constant.Int {
		return models.CustomOutcome{}, false
	}
	code, exact := constant.Int64Val(status)
	if !exact {
		return models.CustomOutcome{}, false
	}

	label, ok := f.fold(call.Args[1], sc)
	if !ok || label.Kind() != constant.String {
		return models.CustomOutcome{}, false
	}

	return models.CustomOutcome{Status: int(code), Label: constant.StringVal(label)}, true
}

// folder evaluates constant expressions against the unit's constants
type folder struct {
	w    *walker
	seen map[string]bool // constants being folded, for cycle protection
	iota int
}

func (f *folder) fold(e ast.Expr, sc *scope) (constant.Value, bool) {
	switch e := e.(type) {
	case *ast.BasicLit:
		v := constant.MakeFromLiteral(e.Value, e.Kind, 0)
		return v, v.Kind() != constant.Unknown
	case *ast.ParenExpr:
		return f.fold(e.X, sc)
	case *ast.Ident:
		return f.ident(e, sc)
	case *ast.SelectorExpr:
		p, ok := f.w.importPath(e.X, sc)
		if !ok || p != "net/http" {
			return nil, false
		}
		code, ok := httpStatuses[e.Sel.Name]
		if !ok {
			return nil, false
		}
		return constant.MakeInt64(int64(code)), true
	case *ast.UnaryExpr:
		x, ok := f.fold(e.X, sc)
		if !ok {
			return nil, false
		}
		switch e.Op {
		case token.ADD, token.SUB, token.XOR, token.NOT:
			return try(func() constant.Value { return constant.UnaryOp(e.Op, x, 0) })
		}
	case *ast.BinaryExpr:
		return f.binary(e, sc)
	case *ast.CallExpr:
		return f.conversion(e, sc)
	}
	return nil, false
}

func (f *folder) ident(id *ast.Ident, sc *scope) (constant.Value, bool) {
	if sc.declared[id.Name] {
		return nil, false
	}
	switch id.Name {
	case "iota":
		return constant.MakeInt64(int64(f.iota)), true
	case "true":
		return constant.MakeBool(true), true
	case "false":
		return constant.MakeBool(false), true
	}

	c, ok := f.w.u.consts[id.Name]
	if !ok || c.value == nil || f.seen[id.Name] {
		return nil, false
	}
	f.seen[id.Name] = true
	defer delete(f.seen, id.Name)

	outer := f.iota
	f.iota = c.iota
	defer func() { f.iota = outer }()

	return f.fold(c.value, newScope(c.file))
}

func (f *folder) binary(e *ast.BinaryExpr, sc *scope) (constant.Value, bool) {
	x, ok := f.fold(e.X, sc)
	if !ok {
		return nil, false
	}
	y, ok := f.fold(e.Y, sc)
	if !ok {
		return nil, false
	}

	switch e.Op {
	case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
		return try(func() constant.Value { return constant.MakeBool(constant.Compare(x, e.Op, y)) })
	case token.SHL, token.SHR:
		s, exact := constant.Uint64Val(y)
		if !exact || s > 63 {
			return nil, false
		}
		return try(func() constant.Value { return constant.Shift(x, e.Op, uint(s)) })
	case token.QUO, token.REM:
		if k := y.Kind(); (k == constant.Int || k == constant.Float) && constant.Sign(y) == 0 {
			return nil, false
		}
	}

	op := e.Op
	if op == token.QUO && x.Kind() == constant.Int && y.Kind() == constant.Int {
		op = token.QUO_ASSIGN
	}

	return try(func() constant.Value { return constant.BinaryOp(x, op, y) })
}

// try runs a go/constant operation, which panics on mismatched operand kinds
func try(op func() constant.Value) (v constant.Value, ok bool) {
	defer func() {
		if recover() != nil {
			v, ok = nil, false
		}
	}()
	v = op()
	return v, v != nil && v.Kind() != constant.Unknown
}

// conversion folds int(x), string(x) and conversions to the unit's named types
func (f *folder) conversion(call *ast.CallExpr, sc *scope) (constant.Value, bool) {
	id, ok := astutil.Unparen(call.Fun).(*ast.Ident)
	if !ok || len(call.Args) != 1 || sc.declared[id.Name] {
		return nil, false
	}
	x, ok := f.fold(call.Args[0], sc)
	if !ok {
		return nil, false
	}

	switch id.Name {
	case "int", "int16", "int32", "int64", "uint", "uint16", "uint32", "uint64":
		v := constant.ToInt(x)
		return v, v.Kind() == constant.Int
	case "string":
		return x, x.Kind() == constant.String
	}
	if _, ok := f.w.u.types[id.Name]; ok {
		return x, true
	}
	return nil, false
}
