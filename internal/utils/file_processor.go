package utils

import (
	"fmt"
	"go/ast"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/toyz/bindplan/internal/errors"
)

// FileFilter reports whether a directory entry is a source file to analyse
type FileFilter func(path string, info os.DirEntry) bool

// DirectoryFilter reports whether a directory should be descended into
type DirectoryFilter func(path string, info os.DirEntry) bool

// DefaultGoFileFilter accepts .go files other than tests
func DefaultGoFileFilter() FileFilter {
	return func(path string, info os.DirEntry) bool {
		if info.IsDir() {
			return false
		}
		name := info.Name()
		return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go")
	}
}

// DefaultDirectoryFilter skips directories the go tool ignores and common non-source trees
func DefaultDirectoryFilter() DirectoryFilter {
	skipDirs := map[string]bool{
		"vendor":       true,
		"node_modules": true,
		"testdata":     true,
		"build":        true,
		"dist":         true,
	}

	return func(path string, info os.DirEntry) bool {
		if !info.IsDir() {
			return true
		}
		name := info.Name()
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			return false
		}
		return !skipDirs[name]
	}
}

// FileProcessor finds package directories and parses their files
type FileProcessor struct {
	fileReader *FileReader
	files      FileFilter
	dirs       DirectoryFilter
}

// NewFileProcessor creates a processor with the default filters and its own FileReader
func NewFileProcessor() *FileProcessor {
	return &FileProcessor{
		fileReader: NewFileReader(),
		files:      DefaultGoFileFilter(),
		dirs:       DefaultDirectoryFilter(),
	}
}

// ScanDirectoriesWithGoFiles walks each root and returns the directories holding Go files.
// A directory reachable from several roots is returned once.
func (fp *FileProcessor) ScanDirectoriesWithGoFiles(rootDirs []string) ([]string, error) {
	var packageDirs []string
	visited := make(map[string]bool)

	for _, rootDir := range rootDirs {
		dirs, err := fp.scan(rootDir, visited)
		if err != nil {
			return nil, err
		}
		packageDirs = append(packageDirs, dirs...)
	}
	return packageDirs, nil
}

func (fp *FileProcessor) scan(dir string, visited map[string]bool) ([]string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.WrapFileSystemError("resolve", dir, err)
	}
	if visited[absDir] {
		return nil, nil
	}
	visited[absDir] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.WrapFileSystemError("read directory", dir, err)
	}

	var packageDirs []string
	if fp.containsGoFiles(dir, entries) {
		packageDirs = append(packageDirs, dir)
	}
	for _, entry := range entries {
		entryPath := filepath.Join(dir, entry.Name())
		if !entry.IsDir() || !fp.dirs(entryPath, entry) {
			continue
		}
		subDirs, err := fp.scan(entryPath, visited)
		if err != nil {
			return nil, err
		}
		packageDirs = append(packageDirs, subDirs...)
	}
	return packageDirs, nil
}

// HasGoFiles reports whether dir itself contains a non-test .go file
func (fp *FileProcessor) HasGoFiles(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, errors.WrapFileSystemError("read directory", dir, err)
	}
	return fp.containsGoFiles(dir, entries), nil
}

func (fp *FileProcessor) containsGoFiles(dir string, entries []os.DirEntry) bool {
	for _, entry := range entries {
		if fp.files(filepath.Join(dir, entry.Name()), entry) {
			return true
		}
	}
	return false
}

// ParseDirectoryFiles parses the non-test Go files of a directory concurrently, keyed by path.
// All files must belong to the same package. When several files fail, the error of the
// first one in directory order is returned.
func (fp *FileProcessor) ParseDirectoryFiles(dirPath string) (map[string]*ast.File, string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, "", errors.WrapFileSystemError("read directory", dirPath, err)
	}

	var paths []string
	for _, entry := range entries {
		path := filepath.Join(dirPath, entry.Name())
		if fp.files(path, entry) {
			paths = append(paths, path)
		}
	}
	if len(paths) == 0 {
		return nil, "", fmt.Errorf("no Go files found in directory")
	}

	parsed := make([]*ast.File, len(paths))
	failures := make([]error, len(paths))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			parsed[i], failures[i] = fp.fileReader.ParseGoFile(path)
			return nil
		})
	}
	_ = g.Wait()

	files := make(map[string]*ast.File, len(paths))
	var packageName string
	for i, path := range paths {
		if failures[i] != nil {
			return nil, "", failures[i]
		}
		name := parsed[i].Name.Name
		if packageName == "" {
			packageName = name
		} else if name != packageName {
			return nil, "", fmt.Errorf("multiple packages found in directory: %s and %s", packageName, name)
		}
		files[path] = parsed[i]
	}
	return files, packageName, nil
}

// GetFileReader returns the underlying FileReader
func (fp *FileProcessor) GetFileReader() *FileReader {
	return fp.fileReader
}
