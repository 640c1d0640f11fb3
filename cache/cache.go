/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package cache provides the resolution caches owned by registry snapshots.
//
// A cache is created empty for every published snapshot and is never shared
// between graph generations, so entries never need per-key invalidation.
package cache

import (
	"reflect"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"dirpx.dev/convx/apis"
	"dirpx.dev/convx/cache/strategy"
)

// DefaultSize is the LRU capacity used when a non-positive size is requested.
const DefaultSize = 1024

type key struct {
	source reflect.Type
	target reflect.Type
}

// New returns an empty cache implementing s.
// Unknown strategies fall back to Unbounded.
func New(s strategy.Strategy, size int) apis.Cache {
	switch s {
	case strategy.None:
		return noneCache{}
	case strategy.LRU:
		if size <= 0 {
			size = DefaultSize
		}
		c, err := lru.New[key, apis.Resolution](size)
		if err != nil {
			// Only reachable with a non-positive size, excluded above.
			return newMapCache()
		}
		return &lruCache{c: c}
	default:
		return newMapCache()
	}
}

type mapCache struct {
	mu      sync.RWMutex
	entries map[key]apis.Resolution
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[key]apis.Resolution)}
}

func (c *mapCache) Get(source, target reflect.Type) (apis.Resolution, bool) {
	c.mu.RLock()
	r, ok := c.entries[key{source, target}]
	c.mu.RUnlock()
	return r, ok
}

func (c *mapCache) Put(source, target reflect.Type, r apis.Resolution) {
	c.mu.Lock()
	c.entries[key{source, target}] = r
	c.mu.Unlock()
}

func (c *mapCache) InvalidateAll() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}

func (c *mapCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// lruCache delegates locking to golang-lru, which is safe for concurrent use.
type lruCache struct {
	c *lru.Cache[key, apis.Resolution]
}

func (c *lruCache) Get(source, target reflect.Type) (apis.Resolution, bool) {
	return c.c.Get(key{source, target})
}

func (c *lruCache) Put(source, target reflect.Type, r apis.Resolution) {
	c.c.Add(key{source, target}, r)
}

func (c *lruCache) InvalidateAll() { c.c.Purge() }

func (c *lruCache) Len() int { return c.c.Len() }

type noneCache struct{}

func (noneCache) Get(reflect.Type, reflect.Type) (apis.Resolution, bool) {
	return apis.Resolution{}, false
}

func (noneCache) Put(reflect.Type, reflect.Type, apis.Resolution) {}

func (noneCache) InvalidateAll() {}

func (noneCache) Len() int { return 0 }
