package utils

import (
	"os"
	"sync"
	"time"
)

// fileStamp identifies one version of a file on disk
type fileStamp struct {
	modTime time.Time
	size    int64
}

func stampOf(path string) (fileStamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}, err
	}
	return fileStamp{modTime: info.ModTime(), size: info.Size()}, nil
}

// CacheItem is a cached value with the file version it was derived from.
// Items stored without a file have a zero stamp.
type CacheItem[T any] struct {
	Value T
	stamp fileStamp
}

// Cache is a concurrency-safe map. Values derived from a file can be stored
// with the file's version and are dropped once the file changes.
type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]*CacheItem[V]
}

// NewCache creates an empty cache
func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{items: make(map[K]*CacheItem[V])}
}

// Get returns the value stored for key
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if item, ok := c.items[key]; ok {
		return item.Value, true
	}
	var zero V
	return zero, false
}

// GetOrCompute returns the cached value for key, computing and storing it when absent.
// compute runs under the write lock, so it is called at most once per key.
func (c *Cache[K, V]) GetOrCompute(key K, compute func() V) V {
	if v, ok := c.Get(key); ok {
		return v
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if item, ok := c.items[key]; ok {
		return item.Value
	}
	v := compute()
	c.items[key] = &CacheItem[V]{Value: v}
	return v
}

// GetWithFileValidation returns the value for key if filePath is unchanged since it was stored.
// A stale or unreadable entry is removed.
func (c *Cache[K, V]) GetWithFileValidation(key K, filePath string) (V, bool) {
	var zero V

	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}

	if stamp, err := stampOf(filePath); err == nil && stamp.modTime.Equal(item.stamp.modTime) && stamp.size == item.stamp.size {
		return item.Value, true
	}

	c.mu.Lock()
	if c.items[key] == item {
		delete(c.items, key)
	}
	c.mu.Unlock()
	return zero, false
}

// Set stores value for key
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = &CacheItem[V]{Value: value}
}

// SetWithFileInfo stores value together with the current version of filePath
func (c *Cache[K, V]) SetWithFileInfo(key K, value V, filePath string) error {
	stamp, err := stampOf(filePath)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = &CacheItem[V]{Value: value, stamp: stamp}
	return nil
}

// Delete removes key
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Clear removes every item
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.items)
}

// Size returns the number of items
func (c *Cache[K, V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
