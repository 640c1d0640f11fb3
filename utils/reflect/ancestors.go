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

package reflect

import (
	"errors"
	"reflect"
	"slices"
	"strings"

	"dirpx.dev/convx/apis"
	"dirpx.dev/convx/config"
)

var (
	// ErrReflectNilType is returned when a nil reflect.Type is provided.
	ErrReflectNilType = errors.New("reflect: nil reflect.Type provided")
	// ErrReflectNilValue is returned when a nil pointer is narrowed to its element type.
	ErrReflectNilValue = errors.New("reflect: cannot narrow nil pointer")
)

var bytesType = reflect.TypeFor[[]byte]()

// predeclared maps basic kinds to their predeclared types.
var predeclared = map[reflect.Kind]reflect.Type{
	reflect.Bool:       reflect.TypeFor[bool](),
	reflect.Int:        reflect.TypeFor[int](),
	reflect.Int8:       reflect.TypeFor[int8](),
	reflect.Int16:      reflect.TypeFor[int16](),
	reflect.Int32:      reflect.TypeFor[int32](),
	reflect.Int64:      reflect.TypeFor[int64](),
	reflect.Uint:       reflect.TypeFor[uint](),
	reflect.Uint8:      reflect.TypeFor[uint8](),
	reflect.Uint16:     reflect.TypeFor[uint16](),
	reflect.Uint32:     reflect.TypeFor[uint32](),
	reflect.Uint64:     reflect.TypeFor[uint64](),
	reflect.Uintptr:    reflect.TypeFor[uintptr](),
	reflect.Float32:    reflect.TypeFor[float32](),
	reflect.Float64:    reflect.TypeFor[float64](),
	reflect.Complex64:  reflect.TypeFor[complex64](),
	reflect.Complex128: reflect.TypeFor[complex128](),
	reflect.String:     reflect.TypeFor[string](),
}

func maxUnwrap(cfg apis.Config) int {
	if cfg.MaxUnwrap <= 0 {
		return config.DefaultMaxUnwrap
	}
	return cfg.MaxUnwrap
}

// Deref follows pointer indirections and returns the nearest non-pointer type.
// At most cfg.MaxUnwrap levels are followed (DefaultMaxUnwrap if <= 0).
func Deref(t reflect.Type, cfg apis.Config) (reflect.Type, error) {
	if t == nil {
		return nil, ErrReflectNilType
	}
	for i := 0; t.Kind() == reflect.Pointer && i < maxUnwrap(cfg); i++ {
		t = t.Elem()
	}
	return t, nil
}

// IsIgnored reports whether t is one of the configured ignored types.
func IsIgnored(t reflect.Type, cfg apis.Config) bool {
	return slices.Contains(config.IgnoredTypes(cfg), t)
}

// Interfaces filters types down to a deterministic interface universe:
// interface kinds only, ignored types removed, deduplicated, sorted by String().
func Interfaces(cfg apis.Config, types ...[]reflect.Type) []reflect.Type {
	var out []reflect.Type
	for _, group := range types {
		for _, t := range group {
			if t == nil || t.Kind() != reflect.Interface || IsIgnored(t, cfg) || slices.Contains(out, t) {
				continue
			}
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b reflect.Type) int {
		return strings.Compare(a.String(), b.String())
	})
	return out
}

// Ancestors returns the types a value of t can be treated as, most specific first:
//
//   - t itself;
//   - the chain obtained by repeatedly dereferencing pointers or, for named
//     basic types and named []byte types, stepping to the predeclared
//     underlying type;
//   - every interface of the universe implemented by a chain member, in
//     universe order.
//
// Ignored types are left out but do not stop the chain. The chain is bounded
// by cfg.MaxUnwrap. A nil t yields nil.
func Ancestors(t reflect.Type, universe []reflect.Type, cfg apis.Config) []apis.Ancestor {
	if t == nil {
		return nil
	}

	chain := []apis.Ancestor{{Type: t}}
	limit := maxUnwrap(cfg)
	for i := 0; i < limit; i++ {
		last := chain[len(chain)-1]
		next, step := parent(last.Type)
		if next == nil || slices.ContainsFunc(chain, func(a apis.Ancestor) bool { return a.Type == next }) {
			break
		}
		chain = append(chain, apis.Ancestor{Type: next, Narrow: compose(last.Narrow, step)})
	}

	out := make([]apis.Ancestor, 0, len(chain)+len(universe))
	for _, a := range chain {
		if !IsIgnored(a.Type, cfg) {
			out = append(out, a)
		}
	}

	for _, iface := range universe {
		if iface == nil || iface.Kind() != reflect.Interface || IsIgnored(iface, cfg) {
			continue
		}
		if slices.ContainsFunc(out, func(a apis.Ancestor) bool { return a.Type == iface }) {
			continue
		}
		for _, member := range chain {
			if member.Type.Implements(iface) {
				out = append(out, apis.Ancestor{Type: iface, Narrow: compose(member.Narrow, ToInterface(iface))})
				break
			}
		}
	}
	return out
}

// parent returns the next chain member of t and the step narrowing a t value to it.
func parent(t reflect.Type) (reflect.Type, func(reflect.Value) reflect.Value) {
	switch {
	case t.Kind() == reflect.Pointer:
		return t.Elem(), func(v reflect.Value) reflect.Value {
			if v.IsNil() {
				return reflect.Value{}
			}
			return v.Elem()
		}
	case t.Kind() == reflect.Slice && t != bytesType && t.Elem() == predeclared[reflect.Uint8]:
		return bytesType, convertTo(bytesType)
	default:
		base, ok := predeclared[t.Kind()]
		if !ok || base == t {
			return nil, nil
		}
		return base, convertTo(base)
	}
}

func convertTo(t reflect.Type) func(reflect.Value) reflect.Value {
	return func(v reflect.Value) reflect.Value { return v.Convert(t) }
}

// ToInterface returns the step narrowing a value to the interface type iface.
// A value whose type does not implement iface narrows to the invalid Value.
func ToInterface(iface reflect.Type) func(reflect.Value) reflect.Value {
	return func(v reflect.Value) reflect.Value {
		if !v.IsValid() || !v.Type().Implements(iface) {
			return reflect.Value{}
		}
		return v.Convert(iface)
	}
}

func compose(first, then func(reflect.Value) reflect.Value) func(reflect.Value) reflect.Value {
	if first == nil {
		return then
	}
	return func(v reflect.Value) reflect.Value {
		v = first(v)
		if !v.IsValid() {
			return v
		}
		return then(v)
	}
}
