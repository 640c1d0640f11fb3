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

package registry_test

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/convx/apis"
	"dirpx.dev/convx/config"
	"dirpx.dev/convx/converter"
	"dirpx.dev/convx/registry"
)

type Animal interface{ Sound() string }

// funcConverter is not comparable and therefore cannot be registered.
type funcConverter func(any) (any, error)

func (funcConverter) SourceType() reflect.Type { return reflect.TypeFor[string]() }
func (funcConverter) TargetType() reflect.Type { return reflect.TypeFor[int]() }
func (f funcConverter) Convert(v any) (any, error) { return f(v) }

// tagged has a comparable type, but a slice stored in meta makes its values
// panic when compared.
type tagged struct{ meta any }

func (tagged) SourceType() reflect.Type { return reflect.TypeFor[string]() }
func (tagged) TargetType() reflect.Type { return reflect.TypeFor[int]() }
func (tagged) Convert(v any) (any, error) { return len(v.(string)), nil }

// untyped declares no source type.
type untyped struct{}

func (*untyped) SourceType() reflect.Type { return nil }
func (*untyped) TargetType() reflect.Type { return reflect.TypeFor[int]() }
func (*untyped) Convert(v any) (any, error) { return v, nil }

var (
	tString = reflect.TypeFor[string]()
	tInt    = reflect.TypeFor[int]()
)

func newRegistry() apis.Registry {
	return registry.New(config.NewConfig(), nil, logr.Discard())
}

func TestRegisterPublishesSnapshot(t *testing.T) {
	reg := newRegistry()
	before := reg.Snapshot()
	require.NotNil(t, before)
	assert.Equal(t, uint64(0), before.Generation)
	assert.False(t, before.Graph.HasVertex(tString))

	r, err := reg.Register(converter.Func(strconv.Atoi))
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, tString, r.Source)
	assert.Equal(t, tInt, r.Target)

	after := reg.Snapshot()
	assert.Equal(t, uint64(1), after.Generation)
	assert.True(t, after.Graph.HasVertex(tString))
	assert.True(t, after.Graph.HasVertex(tInt))
	assert.Equal(t, 1, reg.Count())

	// Readers holding the old snapshot still see the old graph.
	assert.False(t, before.Graph.HasVertex(tString))
}

func TestRegisterClearsPreviousCache(t *testing.T) {
	reg := newRegistry()
	old := reg.Snapshot()
	old.Cache.Put(tString, tInt, apis.Resolution{Err: apis.ErrNoConverterFound})
	require.Equal(t, 1, old.Cache.Len())

	_, err := reg.Register(converter.Func(strconv.Atoi))
	require.NoError(t, err)

	assert.Equal(t, 0, old.Cache.Len())
	assert.Equal(t, 0, reg.Snapshot().Cache.Len())
	assert.NotSame(t, old.Cache, reg.Snapshot().Cache)
}

func TestRegisterRejectsInvalidDeclarations(t *testing.T) {
	var nilTyped *converter.Typed[string, int]

	tests := []struct {
		name string
		c    apis.Converter
	}{
		{"nil", nil},
		{"typed nil", nilTyped},
		{"not comparable", funcConverter(func(v any) (any, error) { return v, nil })},
		{"uncomparable contents", tagged{meta: []int{1}}},
		{"missing source", &untyped{}},
		{"ignored source", converter.Of(func(any) int { return 0 })},
		{"ignored target", converter.Of(func(string) fmt.Stringer { return nil })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newRegistry()
			_, err := reg.Register(tt.c)
			require.Error(t, err)
			assert.ErrorIs(t, err, apis.ErrConverterDeclaration)
			assert.Equal(t, 0, reg.Count())
			assert.Equal(t, uint64(0), reg.Snapshot().Generation, "state must be unchanged")
		})
	}
}

func TestRegisterWithID(t *testing.T) {
	reg := newRegistry()

	r, err := reg.RegisterWithID("svc-1", converter.Func(strconv.Atoi))
	require.NoError(t, err)
	assert.Equal(t, "svc-1", r.ID)

	_, err = reg.RegisterWithID("svc-1", converter.Func(strconv.Atoi))
	assert.ErrorIs(t, err, registry.ErrDuplicateID)
	assert.Equal(t, 1, reg.Count())

	assert.True(t, reg.UnregisterID("svc-1"))
	assert.False(t, reg.UnregisterID("svc-1"))
	assert.False(t, reg.UnregisterID(""))
	assert.Equal(t, 0, reg.Count())
}

func TestUnregisterParallelConverters(t *testing.T) {
	reg := newRegistry()
	first := converter.Func(strconv.Atoi)
	second := converter.Of(func(s string) int { return len(s) })

	_, err := reg.Register(first)
	require.NoError(t, err)
	_, err = reg.Register(second)
	require.NoError(t, err)
	require.Len(t, reg.Snapshot().Graph.Bundle(tString, tInt), 2)

	assert.Equal(t, 1, reg.Unregister(first))

	bundle := reg.Snapshot().Graph.Bundle(tString, tInt)
	require.Len(t, bundle, 1)
	assert.Same(t, second, bundle[0].Registration.Converter)
}

func TestUnregisterAllRegistrationsOfConverter(t *testing.T) {
	reg := newRegistry()
	c := converter.Func(strconv.Atoi)
	for i := 0; i < 3; i++ {
		_, err := reg.Register(c)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, reg.Unregister(c))

	// Orphaned vertices stay; only their edges go.
	g := reg.Snapshot().Graph
	assert.True(t, g.HasVertex(tString))
	assert.True(t, g.HasVertex(tInt))
	assert.Empty(t, g.Edges())
	_, err := g.ShortestPath(tString, tInt)
	assert.ErrorIs(t, err, apis.ErrNoPath)
}

func TestUnregisterUnknownDoesNotPublish(t *testing.T) {
	reg := newRegistry()
	_, err := reg.Register(converter.Func(strconv.Atoi))
	require.NoError(t, err)
	gen := reg.Snapshot().Generation

	assert.Equal(t, 0, reg.Unregister(converter.Func(strconv.Atoi)))
	assert.Equal(t, 0, reg.Unregister(nil))
	assert.Equal(t, 0, reg.Unregister(funcConverter(nil)))
	assert.Equal(t, 0, reg.Unregister(tagged{meta: []int{1}}))
	assert.Equal(t, gen, reg.Snapshot().Generation)
}

func TestComparableContents(t *testing.T) {
	reg := newRegistry()
	ok := tagged{meta: "v1"}
	_, err := reg.Register(ok)
	require.NoError(t, err)

	assert.Equal(t, 0, reg.Unregister(tagged{meta: []int{1}}), "must not panic")
	assert.Equal(t, 1, reg.Count())
	assert.Equal(t, 1, reg.Unregister(tagged{meta: "v1"}))
}

func TestDeclareInterfaces(t *testing.T) {
	reg := newRegistry()
	tAnimal := reflect.TypeFor[Animal]()

	require.NoError(t, reg.DeclareInterfaces(tAnimal))
	assert.Equal(t, []reflect.Type{tAnimal}, reg.DeclaredInterfaces())
	assert.Contains(t, reg.Snapshot().Graph.Interfaces(), tAnimal)

	gen := reg.Snapshot().Generation
	require.NoError(t, reg.DeclareInterfaces(tAnimal))
	assert.Equal(t, gen, reg.Snapshot().Generation, "redeclaring is a no-op")

	assert.ErrorIs(t, reg.DeclareInterfaces(tString), registry.ErrNotInterface)
	assert.Error(t, reg.DeclareInterfaces(nil))
}

func TestRestore(t *testing.T) {
	src := newRegistry()
	r1, err := src.RegisterWithID("a", converter.Func(strconv.Atoi))
	require.NoError(t, err)
	_, err = src.Register(converter.Of(strconv.Itoa))
	require.NoError(t, err)
	require.NoError(t, src.DeclareInterfaces(reflect.TypeFor[Animal]()))

	dst := newRegistry()
	require.NoError(t, dst.Restore(src.Registrations(), src.DeclaredInterfaces()))
	assert.Equal(t, uint64(1), dst.Snapshot().Generation, "restore publishes once")
	assert.Equal(t, src.Registrations()[0].ID, r1.ID)
	assert.Equal(t, 2, dst.Count())
	assert.Equal(t, src.DeclaredInterfaces(), dst.DeclaredInterfaces())

	bad := append(src.Registrations(), apis.Registration{ID: "a", Converter: converter.Of(strconv.Itoa)})
	assert.ErrorIs(t, dst.Restore(bad, nil), registry.ErrDuplicateID)
	assert.Equal(t, 2, dst.Count())

	assert.ErrorIs(t, dst.Restore(nil, []reflect.Type{tInt}), registry.ErrNotInterface)
}

func TestReset(t *testing.T) {
	reg := newRegistry()
	_, err := reg.Register(converter.Func(strconv.Atoi))
	require.NoError(t, err)
	require.NoError(t, reg.DeclareInterfaces(reflect.TypeFor[Animal]()))

	reg.Reset()
	assert.Equal(t, 0, reg.Count())
	assert.Empty(t, reg.DeclaredInterfaces())
	assert.Empty(t, reg.Snapshot().Graph.Vertices())
}

func TestEdgeLogging(t *testing.T) {
	var (
		mu    sync.Mutex
		lines []string
	)
	log := funcr.New(func(prefix, args string) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, args)
	}, funcr.Options{Verbosity: 1})

	reg := registry.New(config.NewConfig(), nil, log)
	c := converter.Func(strconv.Atoi)
	_, err := reg.Register(c)
	require.NoError(t, err)
	reg.Unregister(c)

	all := strings.Join(lines, "\n")
	assert.Contains(t, all, `"msg"="converter edge added"`)
	assert.Contains(t, all, `"msg"="converter edge removed"`)
	assert.Contains(t, all, `"msg"="converter unregistered"`)
}

func TestCustomCacheFactory(t *testing.T) {
	calls := 0
	reg := registry.New(config.NewConfig(), func() apis.Cache {
		calls++
		return nopCache{}
	}, logr.Discard())
	_, err := reg.Register(converter.Func(strconv.Atoi))
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "one cache per published snapshot")
}

type nopCache struct{}

func (nopCache) Get(reflect.Type, reflect.Type) (apis.Resolution, bool) { return apis.Resolution{}, false }
func (nopCache) Put(reflect.Type, reflect.Type, apis.Resolution) {}
func (nopCache) InvalidateAll() {}
func (nopCache) Len() int { return 0 }

func TestRegisterUsesConverterID(t *testing.T) {
	reg := newRegistry()

	r, err := reg.Register(converter.Func(strconv.Atoi).WithID("bundle.atoi"))
	require.NoError(t, err)
	assert.Equal(t, "bundle.atoi", r.ID)

	r, err = reg.RegisterWithID("explicit", converter.Func(strconv.Atoi).WithID("bundle.other"))
	require.NoError(t, err)
	assert.Equal(t, "explicit", r.ID, "an explicit id wins")

	_, err = reg.Register(converter.Func(strconv.Atoi).WithID("bundle.atoi"))
	assert.ErrorIs(t, err, registry.ErrDuplicateID)
}
