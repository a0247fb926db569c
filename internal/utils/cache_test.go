package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_BasicOperations(t *testing.T) {
	cache := NewCache[string, int]()

	cache.Set("key1", 42)
	value, exists := cache.Get("key1")
	assert.True(t, exists)
	assert.Equal(t, 42, value)

	_, exists = cache.Get("nonexistent")
	assert.False(t, exists)

	cache.Delete("key1")
	_, exists = cache.Get("key1")
	assert.False(t, exists)

	cache.Set("a", 1)
	cache.Set("b", 2)
	assert.Equal(t, 2, cache.Size())
	cache.Clear()
	assert.Equal(t, 0, cache.Size())
}

func TestCache_GetOrComputeRunsOnce(t *testing.T) {
	cache := NewCache[string, int]()
	var calls int32

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := cache.GetOrCompute("route", func() int {
				atomic.AddInt32(&calls, 1)
				return 7
			})
			assert.Equal(t, 7, v)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 1, cache.Size())
}

func TestCache_FileValidation(t *testing.T) {
	cache := NewCache[string, string]()

	tmpFile := filepath.Join(t.TempDir(), "handlers.go")
	require.NoError(t, os.WriteFile(tmpFile, []byte("package api"), 0644))
	require.NoError(t, cache.SetWithFileInfo("api", "parsed", tmpFile))

	value, exists := cache.GetWithFileValidation("api", tmpFile)
	assert.True(t, exists)
	assert.Equal(t, "parsed", value)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, os.WriteFile(tmpFile, []byte("package api // changed"), 0644))

	_, exists = cache.GetWithFileValidation("api", tmpFile)
	assert.False(t, exists)
	assert.Equal(t, 0, cache.Size())
}

func TestCache_MissingFiles(t *testing.T) {
	cache := NewCache[string, string]()

	_, exists := cache.GetWithFileValidation("test", "/nonexistent/file.go")
	assert.False(t, exists)

	err := cache.SetWithFileInfo("test", "content", "/nonexistent/file.go")
	assert.Error(t, err)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	cache := NewCache[string, int]()
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.Set(fmt.Sprintf("key%d_%d", id, j), id*100+j)
			}
		}(i)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.Get(fmt.Sprintf("key%d_%d", id, j))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 500, cache.Size())
}
