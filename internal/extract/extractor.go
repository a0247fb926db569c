// Package extract turns annotated Go packages into handler declarations and the
// compilation units outcome discovery walks.
package extract

import (
	"go/ast"
	"go/token"
	"sort"
	"strings"

	"golang.org/x/tools/go/ast/inspector"

	"github.com/toyz/bindplan/internal/annotations"
	"github.com/toyz/bindplan/internal/diagnostics"
	"github.com/toyz/bindplan/internal/errors"
	"github.com/toyz/bindplan/internal/models"
	"github.com/toyz/bindplan/internal/outcome"
	"github.com/toyz/bindplan/internal/registry"
	"github.com/toyz/bindplan/internal/utils"
)

// Package is the extraction result of one Go package
type Package struct {
	Path        string // import path
	Name        string
	Dir         string
	Handlers    []models.HandlerDeclaration // in source order
	Unit        *outcome.Unit
	Diagnostics diagnostics.Diagnostics // malformed directives
}

// Extractor reads packages and builds handler declarations
type Extractor struct {
	files          *utils.FileProcessor
	parsers        *registry.ParserRegistry
	directives     *annotations.Parser
	outcomePackage string
}

// New creates an extractor. TryParse contracts found while extracting are added to parsers.
func New(parsers *registry.ParserRegistry, outcomePackage string) *Extractor {
	if parsers == nil {
		parsers = registry.NewParserRegistry()
	}
	if outcomePackage == "" {
		outcomePackage = outcome.DefaultOutcomePath
	}
	return &Extractor{
		files:          utils.NewFileProcessor(),
		parsers:        parsers,
		directives:     annotations.NewParser(annotations.DefaultRegistry()),
		outcomePackage: outcomePackage,
	}
}

// ExtractDir extracts the non-test Go files of dir as the package importPath
func (e *Extractor) ExtractDir(dir, importPath string) (*Package, error) {
	parsed, name, err := e.files.ParseDirectoryFiles(dir)
	if err != nil {
		return nil, errors.WrapSourceError(dir, err)
	}

	paths := make([]string, 0, len(parsed))
	for path := range parsed {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	files := make([]*ast.File, 0, len(paths))
	for _, path := range paths {
		files = append(files, parsed[path])
	}

	pkg := e.extract(importPath, name, files)
	pkg.Dir = dir
	pkg.Unit.Dir = dir
	return pkg, nil
}

// ExtractSource extracts a single in-memory file
func (e *Extractor) ExtractSource(importPath, filename, source string) (*Package, error) {
	file, err := e.files.GetFileReader().ParseGoSource(filename, source)
	if err != nil {
		return nil, errors.WrapSourceError(filename, err)
	}
	return e.extract(importPath, file.Name.Name, []*ast.File{file}), nil
}

// FileSet returns the file set positions are reported against
func (e *Extractor) FileSet() *token.FileSet {
	return e.files.GetFileReader().FileSet()
}

// Invalidate drops a changed file from the parse cache
func (e *Extractor) Invalidate(path string) {
	e.files.GetFileReader().Invalidate(path)
}

func (e *Extractor) extract(importPath, name string, files []*ast.File) *Package {
	fset := e.FileSet()
	x := &extraction{
		Extractor: e,
		fset:      fset,
		pkg: &Package{
			Path: importPath,
			Name: name,
			Unit: outcome.NewUnit(importPath, fset, files),
		},
		index: newPackageIndex(importPath, e.parsers),
	}

	x.indexTypes(files)
	x.indexFuncs(files)
	x.handlers(files)
	return x.pkg
}

// extraction is the state of one ExtractDir or ExtractSource call
type extraction struct {
	*Extractor
	fset  *token.FileSet
	pkg   *Package
	index *packageIndex
}

// indexTypes records every type declaration and its expand marker
func (x *extraction) indexTypes(files []*ast.File) {
	insp := inspector.New(files)
	insp.Preorder([]ast.Node{(*ast.GenDecl)(nil)}, func(n ast.Node) {
		decl := n.(*ast.GenDecl)
		if decl.Tok != token.TYPE {
			return
		}
		for _, spec := range decl.Specs {
			ts := spec.(*ast.TypeSpec)
			doc := ts.Doc
			if doc == nil && len(decl.Specs) == 1 {
				doc = decl.Doc
			}
			id := models.HandlerID{Scope: x.pkg.Name, Member: ts.Name.Name}
			entry := typeDecl{spec: ts}
			for _, a := range x.directivesOf(doc, id) {
				if a.Type == annotations.ExpandAnnotation {
					entry.expand = true
				}
			}
			x.index.types[ts.Name.Name] = entry
		}
	})
}

// indexFuncs records constructors and TryParse contracts. Needs indexTypes.
func (x *extraction) indexFuncs(files []*ast.File) {
	for _, file := range files {
		d := &describer{pkg: x.index, imports: outcome.FileImports(file)}
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv != nil {
				continue
			}
			if typeName, ok := strings.CutPrefix(fn.Name.Name, "TryParse"); ok && x.isParseContract(fn, typeName) {
				pos := x.fset.Position(fn.Pos())
				// a second package declaring the same contract keeps the first registration
				_ = x.parsers.RegisterParser(registry.ParserEntry{
					TypeName: x.index.qualify(typeName),
					Function: fn.Name.Name,
					Position: models.SourcePosition{File: pos.Filename, Line: pos.Line},
				})
				continue
			}
			if typeName, ok := strings.CutPrefix(fn.Name.Name, "New"); ok && x.isConstructor(fn, typeName) {
				x.index.constructors[typeName] = constructorDecl{decl: fn, describer: d}
			}
		}
	}
}

// isParseContract matches func TryParseT(s string, out *T) bool
func (x *extraction) isParseContract(fn *ast.FuncDecl, typeName string) bool {
	if _, ok := x.index.types[typeName]; !ok {
		return false
	}
	params := flatten(fn.Type.Params)
	results := flatten(fn.Type.Results)
	if len(params) != 2 || len(results) != 1 {
		return false
	}
	if id, ok := params[0].(*ast.Ident); !ok || id.Name != "string" {
		return false
	}
	star, ok := params[1].(*ast.StarExpr)
	if !ok || outcome.ReceiverName(star.X) != typeName {
		return false
	}
	id, ok := results[0].(*ast.Ident)
	return ok && id.Name == "bool"
}

// isConstructor matches func NewT(...) T or func NewT(...) (*T, error)
func (x *extraction) isConstructor(fn *ast.FuncDecl, typeName string) bool {
	if _, ok := x.index.types[typeName]; !ok || !ast.IsExported(fn.Name.Name) {
		return false
	}
	results := flatten(fn.Type.Results)
	return len(results) > 0 && outcome.ReceiverName(results[0]) == typeName
}

// directivesOf parses a doc comment, reporting malformed directives against id
func (x *extraction) directivesOf(doc *ast.CommentGroup, id models.HandlerID) []*annotations.ParsedAnnotation {
	parsed, errs := x.directives.ParseCommentGroup(x.fset, doc)
	for _, err := range errs {
		d := diagnostics.New(diagnostics.InvalidAnnotation, id.Member, "%s", err.Error())
		d.Handler = id
		if be, ok := err.(errors.BindplanError); ok {
			loc := be.Location()
			d.Position = models.SourcePosition{File: loc.File, Line: loc.Line}
		}
		x.pkg.Diagnostics = append(x.pkg.Diagnostics, d)
	}
	return parsed
}

// flatten expands a field list into one type expression per value
func flatten(list *ast.FieldList) []ast.Expr {
	if list == nil {
		return nil
	}
	var exprs []ast.Expr
	for _, f := range list.List {
		n := len(f.Names)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			exprs = append(exprs, f.Type)
		}
	}
	return exprs
}

type typeDecl struct {
	spec   *ast.TypeSpec
	expand bool
}

type constructorDecl struct {
	decl      *ast.FuncDecl
	describer *describer
}

// packageIndex is what type description needs to know about the package
type packageIndex struct {
	path         string
	parsers      *registry.ParserRegistry
	types        map[string]typeDecl
	constructors map[string]constructorDecl
}

func newPackageIndex(path string, parsers *registry.ParserRegistry) *packageIndex {
	return &packageIndex{
		path:         path,
		parsers:      parsers,
		types:        make(map[string]typeDecl),
		constructors: make(map[string]constructorDecl),
	}
}

// qualify returns the registry key of a package-local type
func (p *packageIndex) qualify(name string) string {
	return p.path + "." + name
}
