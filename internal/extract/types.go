package extract

import (
	"go/ast"
	"go/types"
	"strconv"

	"github.com/toyz/bindplan/internal/models"
)

var primitives = map[string]bool{
	"bool": true, "string": true, "byte": true, "rune": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"float32": true, "float64": true,
}

// specialTypes are the framework types bound without looking at names, by qualified name
var specialTypes = map[string]models.SpecialType{
	"net/http.Request":                    models.SpecialExecutionContext,
	"net/http.ResponseWriter":             models.SpecialExecutionContext,
	"github.com/labstack/echo/v4.Context": models.SpecialExecutionContext,
	"github.com/gin-gonic/gin.Context":    models.SpecialExecutionContext,
	"github.com/gofiber/fiber/v2.Ctx":     models.SpecialExecutionContext,
	"context.Context":                     models.SpecialCancellation,
	"io.Reader":                           models.SpecialByteStream,
	"io.ReadCloser":                       models.SpecialByteStream,
	"net/url.Values":                      models.SpecialFormCollection,
	"mime/multipart.Form":                 models.SpecialFormCollection,
	"mime/multipart.FileHeader":           models.SpecialFormFile,
}

// describer resolves type expressions of one file against the package index
type describer struct {
	pkg     *packageIndex
	imports map[string]string // local name -> import path
}

// parameters converts a field list into parameter declarations.
// Unnamed parameters are called argN after their position.
func (d *describer) parameters(list *ast.FieldList, depth int) []models.ParameterDeclaration {
	if list == nil {
		return nil
	}
	var params []models.ParameterDeclaration
	for _, field := range list.List {
		t, nullable := d.describe(field.Type, depth)
		if len(field.Names) == 0 {
			params = append(params, models.ParameterDeclaration{Name: argName(len(params)), Type: t, Nullable: nullable})
			continue
		}
		for _, name := range field.Names {
			params = append(params, models.ParameterDeclaration{Name: name.Name, Type: t, Nullable: nullable})
		}
	}
	return params
}

func argName(i int) string {
	return "arg" + strconv.Itoa(i)
}

// describe builds the descriptor of a parameter type and reports whether it is nullable.
// Constructors are only resolved at depth 0; deeper expansion is rejected by classification.
func (d *describer) describe(expr ast.Expr, depth int) (models.TypeDescriptor, bool) {
	switch e := expr.(type) {
	case *ast.ParenExpr:
		return d.describe(e.X, depth)
	case *ast.StarExpr:
		t, _ := d.describe(e.X, depth)
		if t.Special != models.SpecialNone {
			return t, false
		}
		return t, true
	case *ast.Ellipsis:
		elem, _ := d.describe(e.Elt, depth)
		return d.collection(elem, "[]"+types.ExprString(e.Elt)), false
	case *ast.ArrayType:
		elem, _ := d.describe(e.Elt, depth)
		return d.collection(elem, types.ExprString(e)), false
	case *ast.Ident:
		return d.local(e.Name, depth), false
	case *ast.SelectorExpr:
		return d.qualified(e), false
	case *ast.InterfaceType:
		return models.Complex(types.ExprString(e), models.ShapeInterface), false
	}
	return models.Complex(types.ExprString(expr), models.ShapeOther), false
}

func (d *describer) collection(elem models.TypeDescriptor, name string) models.TypeDescriptor {
	if elem.Special == models.SpecialFormFile {
		t := models.Complex(name, models.ShapeOther)
		t.Special = models.SpecialFormFiles
		return t
	}
	t := models.CollectionOf(elem)
	t.Name = name
	return t
}

// local describes a builtin or a type declared in the package
func (d *describer) local(name string, depth int) models.TypeDescriptor {
	if primitives[name] {
		return models.Primitive(name)
	}
	switch name {
	case "any", "error":
		return models.Complex(name, models.ShapeInterface)
	}

	spec, ok := d.pkg.types[name]
	if !ok {
		return models.Complex(name, models.ShapeOther)
	}

	t := models.Complex(name, shapeOf(spec.spec.Type))
	t.ExpandMarked = spec.expand
	if entry, ok := d.pkg.parsers.GetParser(d.pkg.qualify(name)); ok {
		t.ParseContract = entry.Function
		t.WellKnown = entry.WellKnown
	}
	if ctor, ok := d.pkg.constructors[name]; ok && depth == 0 {
		t.Constructor = &models.Constructor{
			Name:       ctor.decl.Name.Name,
			Parameters: ctor.describer.parameters(ctor.decl.Type.Params, depth+1),
		}
	}
	return t
}

// qualified describes a type from an imported package
func (d *describer) qualified(sel *ast.SelectorExpr) models.TypeDescriptor {
	name := types.ExprString(sel)
	pkgIdent, ok := sel.X.(*ast.Ident)
	if !ok {
		return models.Complex(name, models.ShapeOther)
	}
	importPath, ok := d.imports[pkgIdent.Name]
	if !ok {
		return models.Complex(name, models.ShapeOther)
	}

	key := importPath + "." + sel.Sel.Name
	if special, ok := specialTypes[key]; ok {
		t := models.Complex(name, models.ShapeOther)
		t.Special = special
		return t
	}
	if entry, ok := d.pkg.parsers.GetParser(key); ok {
		t := models.Complex(name, models.ShapeStruct)
		t.ParseContract = entry.Function
		t.WellKnown = entry.WellKnown
		return t
	}
	return models.Complex(name, models.ShapeOther)
}

func shapeOf(expr ast.Expr) models.TypeShape {
	switch expr.(type) {
	case *ast.StructType:
		return models.ShapeStruct
	case *ast.InterfaceType:
		return models.ShapeInterface
	}
	return models.ShapeOther
}
