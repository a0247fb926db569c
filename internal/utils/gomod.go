package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// GoMod is what the analyzer needs from a go.mod file
type GoMod struct {
	Path      string // module path
	GoVersion string // from the go directive, empty when absent
	Dir       string // absolute directory holding go.mod
}

// GoModParser locates and reads go.mod files through a FileReader
type GoModParser struct {
	fileReader *FileReader
}

// NewGoModParser creates a go.mod parser reading through fileReader
func NewGoModParser(fileReader *FileReader) *GoModParser {
	return &GoModParser{fileReader: fileReader}
}

// FindGoModFile returns the path of the nearest go.mod at or above startDir
func (p *GoModParser) FindGoModFile(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, "go.mod")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod file not found in %s or any parent directory", startDir)
		}
		dir = parent
	}
}

// Parse reads the module path and go version of a go.mod file
func (p *GoModParser) Parse(goModPath string) (GoMod, error) {
	if filepath.Base(goModPath) != "go.mod" {
		return GoMod{}, fmt.Errorf("file is not a go.mod file: %s", goModPath)
	}
	content, err := p.fileReader.ReadFile(goModPath)
	if err != nil {
		return GoMod{}, fmt.Errorf("failed to read go.mod: %w", err)
	}

	// lax parsing ignores directives newer than this toolchain
	mod, err := modfile.ParseLax(goModPath, []byte(content), nil)
	if err != nil {
		return GoMod{}, fmt.Errorf("failed to parse go.mod: %w", err)
	}
	if mod.Module == nil || mod.Module.Mod.Path == "" {
		return GoMod{}, fmt.Errorf("no module declaration found in %s", goModPath)
	}

	dir, err := filepath.Abs(filepath.Dir(goModPath))
	if err != nil {
		return GoMod{}, err
	}
	gm := GoMod{Path: mod.Module.Mod.Path, Dir: dir}
	if mod.Go != nil {
		gm.GoVersion = mod.Go.Version
	}
	return gm, nil
}

// Find locates and parses the go.mod governing dir
func (p *GoModParser) Find(dir string) (GoMod, error) {
	path, err := p.FindGoModFile(dir)
	if err != nil {
		return GoMod{}, err
	}
	return p.Parse(path)
}
