package cli

import (
	"fmt"
	"path/filepath"

	"github.com/toyz/bindplan/internal/errors"
	"github.com/toyz/bindplan/internal/utils"
)

// ModuleResolver maps package directories to import paths
type ModuleResolver struct {
	gomod *utils.GoModParser
}

// ModuleInfo is the resolved module of a directory tree
type ModuleInfo struct {
	Path      string // module path from go.mod, or the custom module name
	Root      string // absolute directory holding go.mod
	GoVersion string // empty for a custom module
}

// NewModuleResolver creates a new module resolver
func NewModuleResolver(reader *utils.FileReader) *ModuleResolver {
	if reader == nil {
		reader = utils.NewFileReader()
	}
	return &ModuleResolver{gomod: utils.NewGoModParser(reader)}
}

// Resolve finds the module enclosing dir.
// If customModule is provided it names the module and dir is taken as its root.
func (r *ModuleResolver) Resolve(customModule, dir string) (ModuleInfo, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return ModuleInfo{}, errors.WrapModuleError(dir, err)
	}

	if customModule != "" {
		return ModuleInfo{Path: customModule, Root: absDir}, nil
	}

	mod, err := r.gomod.Find(absDir)
	if err != nil {
		return ModuleInfo{}, errors.WrapModuleError(dir, err)
	}
	return ModuleInfo{Path: mod.Path, Root: mod.Dir, GoVersion: mod.GoVersion}, nil
}

// BuildPackagePath builds the full import path for a package directory
func (r *ModuleResolver) BuildPackagePath(module ModuleInfo, packageDir string) (string, error) {
	absPackageDir, err := filepath.Abs(packageDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve package directory: %w", err)
	}

	relPath, err := filepath.Rel(module.Root, absPackageDir)
	if err != nil {
		return "", fmt.Errorf("failed to calculate relative path: %w", err)
	}

	importPath := filepath.ToSlash(relPath)
	if importPath == "." {
		return module.Path, nil
	}
	if importPath == ".." || len(importPath) > 2 && importPath[:3] == "../" {
		return "", fmt.Errorf("package directory %s is outside module %s", packageDir, module.Path)
	}

	return module.Path + "/" + importPath, nil
}
