package outcome

import (
	"go/importer"
	"go/token"
	"go/types"
	"sync"
)

// importedTypes loads the exported API of imported packages from source.
// A package that fails to load is remembered as nil and never retried.
type importedTypes struct {
	mu       sync.Mutex
	importer types.ImporterFrom
	packages map[string]*types.Package
}

func newImportedTypes() *importedTypes {
	imp, _ := importer.ForCompiler(token.NewFileSet(), "source", nil).(types.ImporterFrom)
	return &importedTypes{
		importer: imp,
		packages: make(map[string]*types.Package),
	}
}

func (it *importedTypes) load(importPath, dir string) *types.Package {
	it.mu.Lock()
	defer it.mu.Unlock()

	if pkg, seen := it.packages[importPath]; seen {
		return pkg
	}
	var pkg *types.Package
	if it.importer != nil {
		if dir == "" {
			dir = "."
		}
		if loaded, err := it.importer.ImportFrom(importPath, dir, 0); err == nil {
			pkg = loaded
		}
	}
	it.packages[importPath] = pkg
	return pkg
}

// importedMethod describes a method of a type declared in another package
type importedMethod struct {
	iface    bool
	fallible bool
}

// method looks up name on the exported type typeName of importPath.
// ok is false when the package, the type or the method cannot be found.
func (it *importedTypes) method(importPath, dir, typeName, name string) (importedMethod, bool) {
	pkg := it.load(importPath, dir)
	if pkg == nil {
		return importedMethod{}, false
	}
	obj, isType := pkg.Scope().Lookup(typeName).(*types.TypeName)
	if !isType {
		return importedMethod{}, false
	}

	named := obj.Type()
	found, _, _ := types.LookupFieldOrMethod(named, true, pkg, name)
	fn, isFunc := found.(*types.Func)
	if !isFunc {
		return importedMethod{}, false
	}
	_, iface := named.Underlying().(*types.Interface)
	return importedMethod{iface: iface, fallible: fallibleSignature(fn.Type().(*types.Signature))}, true
}

var errorType = types.Universe.Lookup("error").Type()

func fallibleSignature(sig *types.Signature) bool {
	results := sig.Results()
	if results.Len() == 0 {
		return false
	}
	return types.Identical(results.At(results.Len()-1).Type(), errorType)
}
