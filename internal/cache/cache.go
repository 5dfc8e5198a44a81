/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package cache provides a generic single-writer memoization cache.
//
// It backs the package reader, the resolver, and the dist-path mapper:
// each needs the same "compute once per key, let concurrent callers for
// the same key await the in-flight result" contract, so this is written
// once as a generic type instead of three times.
package cache

import "sync"

// entry holds a cached value and coordinates concurrent loading.
type entry[T any] struct {
	val  T
	err  error
	once sync.Once
}

// Cache is a thread-safe in-memory memoization cache keyed by string.
type Cache[T any] struct {
	mu      sync.RWMutex
	values  map[string]T
	loading sync.Map // map[string]*entry[T] for in-flight loads
}

// New creates an empty Cache.
func New[T any]() *Cache[T] {
	return &Cache[T]{values: make(map[string]T)}
}

// Get retrieves a cached value by key.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Set stores a value in the cache.
func (c *Cache[T]) Set(key string, val T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = val
}

// Invalidate removes a cached entry and any in-flight loading state.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.values, key)
	c.mu.Unlock()
	c.loading.Delete(key)
}

// GetOrLoad atomically retrieves from cache or loads using loader. Only
// one caller executes loader for a given key; concurrent callers for the
// same key block until that call completes and observe the same result.
// A failed load is not cached, so a subsequent call retries.
func (c *Cache[T]) GetOrLoad(key string, loader func() (T, error)) (T, error) {
	c.mu.RLock()
	if v, ok := c.values[key]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	actual, _ := c.loading.LoadOrStore(key, &entry[T]{})
	e := actual.(*entry[T])

	e.once.Do(func() {
		e.val, e.err = loader()
		if e.err == nil {
			c.mu.Lock()
			c.values[key] = e.val
			c.mu.Unlock()
		} else {
			// Allow a later call to retry rather than caching the failure.
			c.loading.Delete(key)
		}
	})

	return e.val, e.err
}
