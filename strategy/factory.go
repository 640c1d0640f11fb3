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

// Package strategy implements the factory fallbacks consulted when the
// converter graph has no path between two types.
package strategy

import (
	"fmt"
	"reflect"
	"sync"

	"dirpx.dev/convx/apis"
)

// factory is a converter synthesized by a strategy.
type factory struct {
	name   string
	source reflect.Type
	target reflect.Type
	call   func(in reflect.Value) (reflect.Value, error)
}

// Ensure factory implements apis.Converter.
var _ apis.Converter = (*factory)(nil)

func (f *factory) SourceType() reflect.Type { return f.source }

func (f *factory) TargetType() reflect.Type { return f.target }

func (f *factory) ConverterName() string { return f.name }

// Convert invokes the factory. A nil v is passed as the source's zero value.
func (f *factory) Convert(v any) (any, error) {
	in := reflect.ValueOf(v)
	if !in.IsValid() {
		in = reflect.Zero(f.source)
	}
	out, err := f.call(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.name, err)
	}
	return out.Interface(), nil
}

// cacheKey memoizes factory lookups by every input that affects them.
type cacheKey struct {
	source reflect.Type
	target reflect.Type
	method string
}

// memo caches lookups, including negative ones (stored as a nil *factory).
type memo struct {
	entries sync.Map // key: cacheKey, val: *factory
}

func (m *memo) lookup(key cacheKey, build func() *factory) (apis.Converter, bool) {
	if v, ok := m.entries.Load(key); ok {
		f := v.(*factory)
		return f, f != nil
	}
	v, _ := m.entries.LoadOrStore(key, build())
	f := v.(*factory)
	if f == nil {
		return nil, false
	}
	return f, true
}

var errorType = reflect.TypeFor[error]()

// adaptResult makes out (of type got) a value of target: identical types pass
// through, *target is dereferenced and target == *got is addressed.
// It returns nil if got cannot be adapted.
func adaptResult(got, target reflect.Type) func(reflect.Value) (reflect.Value, error) {
	switch {
	case got == target:
		return func(v reflect.Value) (reflect.Value, error) { return v, nil }
	case got.Kind() == reflect.Pointer && got.Elem() == target:
		return func(v reflect.Value) (reflect.Value, error) {
			if v.IsNil() {
				return reflect.Value{}, fmt.Errorf("factory returned nil %s", got)
			}
			return v.Elem(), nil
		}
	case target.Kind() == reflect.Pointer && target.Elem() == got:
		return func(v reflect.Value) (reflect.Value, error) {
			p := reflect.New(got)
			p.Elem().Set(v)
			return p, nil
		}
	default:
		return nil
	}
}
