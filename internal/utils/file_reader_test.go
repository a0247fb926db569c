package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerFile = `package api

//bindplan::handler GET /orders/{id}
func Get(id int) error { return nil }
`

func TestFileReader_ParseGoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.go")
	require.NoError(t, os.WriteFile(path, []byte(handlerFile), 0644))
	reader := NewFileReader()

	first, err := reader.ParseGoFile(path)
	require.NoError(t, err)
	require.Len(t, first.Comments, 1, "comments are kept for annotations")

	second, err := reader.ParseGoFile(path)
	require.NoError(t, err)
	assert.Same(t, first, second, "unchanged file comes from the cache")

	t.Run("relative and absolute paths share an entry", func(t *testing.T) {
		wd, err := os.Getwd()
		require.NoError(t, err)
		rel, err := filepath.Rel(wd, path)
		require.NoError(t, err)

		viaRel, err := reader.ParseGoFile(rel)
		require.NoError(t, err)
		assert.Same(t, first, viaRel)
	})

	t.Run("changed file is parsed again", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte(handlerFile+"\nfunc Extra() {}\n"), 0644))
		third, err := reader.ParseGoFile(path)
		require.NoError(t, err)
		assert.NotSame(t, first, third)
		assert.Len(t, third.Decls, 2)
	})

	t.Run("syntax error", func(t *testing.T) {
		broken := filepath.Join(dir, "broken.go")
		require.NoError(t, os.WriteFile(broken, []byte("package api\nfunc {"), 0644))
		_, err := reader.ParseGoFile(broken)
		assert.ErrorContains(t, err, "broken.go")
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := reader.ParseGoFile("")
		assert.Error(t, err)
	})
}

func TestFileReader_ReadFileAndInvalidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "go.mod")
	require.NoError(t, os.WriteFile(path, []byte("module example.com/shop\n"), 0644))
	reader := NewFileReader()

	content, err := reader.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "module example.com/shop\n", content)

	_, err = reader.ParseGoSource("inline.go", handlerFile)
	require.NoError(t, err)

	asts, contents := reader.Cached()
	assert.Equal(t, 0, asts, "in-memory sources are not cached")
	assert.Equal(t, 1, contents)

	reader.Invalidate(path)
	asts, contents = reader.Cached()
	assert.Zero(t, asts)
	assert.Zero(t, contents)

	_, err = reader.ReadFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestFileReader_SharedFileSet(t *testing.T) {
	reader := NewFileReader()
	a, err := reader.ParseGoSource("a.go", "package a\n")
	require.NoError(t, err)
	b, err := reader.ParseGoSource("b.go", "package b\n")
	require.NoError(t, err)

	assert.Equal(t, "a.go", reader.FileSet().Position(a.Package).Filename)
	assert.Equal(t, "b.go", reader.FileSet().Position(b.Package).Filename)
}
