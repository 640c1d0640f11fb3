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

package cache_test

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/convx/apis"
	"dirpx.dev/convx/cache"
	"dirpx.dev/convx/cache/strategy"
)

var (
	tString = reflect.TypeOf("")
	tInt    = reflect.TypeOf(0)
	tBool   = reflect.TypeOf(false)
)

func TestCachingStrategies(t *testing.T) {
	errMissing := errors.New("missing")

	for _, s := range []strategy.Strategy{strategy.Unbounded, strategy.LRU} {
		t.Run(s.String(), func(t *testing.T) {
			c := cache.New(s, 16)

			_, ok := c.Get(tString, tInt)
			assert.False(t, ok)

			c.Put(tString, tInt, apis.Resolution{Err: errMissing})
			r, ok := c.Get(tString, tInt)
			require.True(t, ok)
			assert.ErrorIs(t, r.Err, errMissing)

			// Keys are ordered pairs.
			_, ok = c.Get(tInt, tString)
			assert.False(t, ok)
			assert.Equal(t, 1, c.Len())

			c.InvalidateAll()
			assert.Equal(t, 0, c.Len())
			_, ok = c.Get(tString, tInt)
			assert.False(t, ok)
		})
	}
}

func TestNoneNeverStores(t *testing.T) {
	c := cache.New(strategy.None, 0)
	c.Put(tString, tInt, apis.Resolution{})
	_, ok := c.Get(tString, tInt)
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := cache.New(strategy.LRU, 2)
	c.Put(tString, tInt, apis.Resolution{})
	c.Put(tString, tBool, apis.Resolution{})

	// Touch the first entry so the second becomes the eviction candidate.
	_, ok := c.Get(tString, tInt)
	require.True(t, ok)

	c.Put(tInt, tBool, apis.Resolution{})
	assert.Equal(t, 2, c.Len())

	_, ok = c.Get(tString, tBool)
	assert.False(t, ok)
	_, ok = c.Get(tString, tInt)
	assert.True(t, ok)
}

func TestLRUNonPositiveSizeUsesDefault(t *testing.T) {
	c := cache.New(strategy.LRU, 0)
	c.Put(tString, tInt, apis.Resolution{})
	assert.Equal(t, 1, c.Len())
}

func TestUnknownStrategyIsUnbounded(t *testing.T) {
	c := cache.New(strategy.Strategy(99), 1)
	c.Put(tString, tInt, apis.Resolution{})
	c.Put(tString, tBool, apis.Resolution{})
	assert.Equal(t, 2, c.Len())
}

func TestConcurrentAccess(t *testing.T) {
	types := []reflect.Type{tString, tInt, tBool, reflect.TypeOf(1.0), reflect.TypeOf([]byte(nil))}

	for _, s := range []strategy.Strategy{strategy.Unbounded, strategy.LRU} {
		t.Run(s.String(), func(t *testing.T) {
			c := cache.New(s, 8)
			workers := runtime.GOMAXPROCS(0) * 4

			var wg sync.WaitGroup
			wg.Add(workers)
			for w := 0; w < workers; w++ {
				go func(w int) {
					defer wg.Done()
					for i := 0; i < 500; i++ {
						src := types[(w+i)%len(types)]
						dst := types[i%len(types)]
						c.Put(src, dst, apis.Resolution{Err: fmt.Errorf("w%d", w)})
						c.Get(src, dst)
						if i%100 == 0 {
							c.InvalidateAll()
						}
					}
				}(w)
			}
			wg.Wait()
			assert.LessOrEqual(t, c.Len(), len(types)*len(types))
		})
	}
}
