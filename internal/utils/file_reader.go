package utils

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
)

// FileReader parses and reads source files, caching results until the file changes on disk.
// All ASTs share one FileSet, so positions from different files can be compared.
type FileReader struct {
	fileSet  *token.FileSet
	asts     *Cache[string, *ast.File]
	contents *Cache[string, string]
}

// NewFileReader creates a FileReader with empty caches
func NewFileReader() *FileReader {
	return &FileReader{
		fileSet:  token.NewFileSet(),
		asts:     NewCache[string, *ast.File](),
		contents: NewCache[string, string](),
	}
}

// ParseGoFile parses a Go file with comments. A cached AST is reused while the
// file's modification time and size are unchanged.
func (fr *FileReader) ParseGoFile(filePath string) (*ast.File, error) {
	key, err := cacheKey(filePath)
	if err != nil {
		return nil, err
	}
	if cached, ok := fr.asts.GetWithFileValidation(key, key); ok {
		return cached, nil
	}

	file, err := parser.ParseFile(fr.fileSet, filePath, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(filePath), err)
	}
	_ = fr.asts.SetWithFileInfo(key, file, key)
	return file, nil
}

// ParseGoSource parses in-memory source. The result is not cached.
func (fr *FileReader) ParseGoSource(filename, source string) (*ast.File, error) {
	file, err := parser.ParseFile(fr.fileSet, filename, source, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return file, nil
}

// ReadFile returns a file's contents, cached like ParseGoFile
func (fr *FileReader) ReadFile(filePath string) (string, error) {
	key, err := cacheKey(filePath)
	if err != nil {
		return "", err
	}
	if cached, ok := fr.contents.GetWithFileValidation(key, key); ok {
		return cached, nil
	}

	content, err := os.ReadFile(key)
	if err != nil {
		return "", err
	}
	_ = fr.contents.SetWithFileInfo(key, string(content), key)
	return string(content), nil
}

// FileSet returns the token.FileSet positions are recorded in
func (fr *FileReader) FileSet() *token.FileSet {
	return fr.fileSet
}

// Invalidate drops a file from both caches, e.g. after a watcher reported a change
func (fr *FileReader) Invalidate(filePath string) {
	key, err := cacheKey(filePath)
	if err != nil {
		return
	}
	fr.asts.Delete(key)
	fr.contents.Delete(key)
}

// Cached returns the number of cached ASTs and file contents
func (fr *FileReader) Cached() (asts, contents int) {
	return fr.asts.Size(), fr.contents.Size()
}

// cacheKey makes relative paths from the scanner and absolute paths from the watcher agree
func cacheKey(filePath string) (string, error) {
	if filePath == "" {
		return "", ValidationError{Field: "path", Message: "cannot be empty"}
	}
	return filepath.Abs(filePath)
}
