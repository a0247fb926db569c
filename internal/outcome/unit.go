// Package outcome discovers, per handler, the failure outcomes its code can produce.
package outcome

import (
	"go/ast"
	"go/token"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

type funcEntry struct {
	decl *ast.FuncDecl
	file *ast.File
}

type typeEntry struct {
	spec *ast.TypeSpec
	doc  *ast.CommentGroup
	file *ast.File
}

type valueEntry struct {
	name  string
	typ   ast.Expr
	value ast.Expr
	iota  int
	file  *ast.File
}

// Unit is the symbol index of one Go package. Discovery only follows calls inside it;
// imported packages are consulted for their types.
type Unit struct {
	Path string
	Fset *token.FileSet
	// Dir is where imports of the package resolve from; empty for in-memory sources
	Dir string

	funcs   map[string]funcEntry // "Func" or "Type.Method"
	types   map[string]typeEntry
	vars    map[string]valueEntry
	consts  map[string]valueEntry
	imports map[*ast.File]map[string]string // local name -> import path
}

// NewUnit indexes the files of one package
func NewUnit(importPath string, fset *token.FileSet, files []*ast.File) *Unit {
	u := &Unit{
		Path:    importPath,
		Fset:    fset,
		funcs:   make(map[string]funcEntry),
		types:   make(map[string]typeEntry),
		vars:    make(map[string]valueEntry),
		consts:  make(map[string]valueEntry),
		imports: make(map[*ast.File]map[string]string),
	}
	for _, file := range files {
		u.indexFile(file)
	}
	return u
}

// FileImports maps the local package names of a file's imports to their paths.
// Blank and dot imports are skipped.
func FileImports(file *ast.File) map[string]string {
	imports := make(map[string]string)
	for _, imp := range file.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		name := ImportName(p)
		if imp.Name != nil {
			name = imp.Name.Name
		}
		if name == "_" || name == "." {
			continue
		}
		imports[name] = p
	}
	return imports
}

func (u *Unit) indexFile(file *ast.File) {
	u.imports[file] = FileImports(file)

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			u.funcs[FuncSymbol(d)] = funcEntry{decl: d, file: file}
		case *ast.GenDecl:
			u.indexGenDecl(d, file)
		}
	}
}

func (u *Unit) indexGenDecl(d *ast.GenDecl, file *ast.File) {
	var lastType ast.Expr
	var lastValues []ast.Expr

	for i, spec := range d.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			doc := s.Doc
			if doc == nil && len(d.Specs) == 1 {
				doc = d.Doc
			}
			u.types[s.Name.Name] = typeEntry{spec: s, doc: doc, file: file}
		case *ast.ValueSpec:
			typ, values := s.Type, s.Values
			if d.Tok == token.CONST && len(values) == 0 {
				typ, values = lastType, lastValues
			}
			lastType, lastValues = typ, values

			for j, name := range s.Names {
				if name.Name == "_" {
					continue
				}
				entry := valueEntry{name: name.Name, typ: typ, iota: i, file: file}
				if j < len(values) {
					entry.value = values[j]
				} else if len(values) == 1 {
					entry.value = values[0]
				}
				if d.Tok == token.CONST {
					u.consts[name.Name] = entry
				} else {
					u.vars[name.Name] = entry
				}
			}
		}
	}
}

var versionSuffix = regexp.MustCompile(`^v[0-9]+$`)

// ImportName returns the default package name for an import path
func ImportName(importPath string) string {
	base := path.Base(importPath)
	if versionSuffix.MatchString(base) {
		base = path.Base(path.Dir(importPath))
	}
	if i := strings.LastIndex(base, "."); i >= 0 && strings.HasPrefix(importPath, "gopkg.in/") {
		base = base[:i]
	}
	return strings.ReplaceAll(base, "-", "_")
}

// FuncSymbol returns "Name" for functions and "Type.Name" for methods
func FuncSymbol(d *ast.FuncDecl) string {
	if d.Recv == nil || len(d.Recv.List) == 0 {
		return d.Name.Name
	}
	return ReceiverName(d.Recv.List[0].Type) + "." + d.Name.Name
}

// ReceiverName strips pointers and type parameters from a receiver type
func ReceiverName(expr ast.Expr) string {
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		case *ast.Ident:
			return e.Name
		default:
			return ""
		}
	}
}

// Func returns the declaration of a function or method symbol
func (u *Unit) Func(symbol string) (*ast.FuncDecl, bool) {
	e, ok := u.funcs[symbol]
	return e.decl, ok
}

// Symbols returns every function and method symbol, sorted
func (u *Unit) Symbols() []string {
	symbols := make([]string, 0, len(u.funcs))
	for symbol := range u.funcs {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// Imports returns the import table of the file declaring symbol
func (u *Unit) Imports(symbol string) map[string]string {
	e, ok := u.funcs[symbol]
	if !ok {
		return nil
	}
	return u.imports[e.file]
}

func (u *Unit) typeSpec(name string) (typeEntry, bool) {
	e, ok := u.types[name]
	return e, ok
}

// importFor resolves a local package name to its import path. file selects the
// file's import table; a nil file accepts the name only when every file agrees.
func (u *Unit) importFor(name string, file *ast.File) (string, bool) {
	if file != nil {
		p, ok := u.imports[file][name]
		return p, ok
	}
	var found string
	for _, imports := range u.imports {
		p, ok := imports[name]
		if !ok {
			continue
		}
		if found != "" && found != p {
			return "", false
		}
		found = p
	}
	return found, found != ""
}
