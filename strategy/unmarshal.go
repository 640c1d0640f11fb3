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

package strategy

import (
	"encoding"
	"fmt"
	"reflect"

	"dirpx.dev/convx/apis"
)

var (
	textUnmarshalerType   = reflect.TypeFor[encoding.TextUnmarshaler]()
	binaryUnmarshalerType = reflect.TypeFor[encoding.BinaryUnmarshaler]()
)

// NewTextStrategy creates an apis.Strategy that converts string and []byte
// shaped sources into targets whose pointer implements encoding.TextUnmarshaler.
func NewTextStrategy() apis.Strategy {
	return &unmarshalStrategy{
		iface:  textUnmarshalerType,
		method: "UnmarshalText",
		accept: func(source reflect.Type) bool {
			return source.Kind() == reflect.String || isBytes(source)
		},
	}
}

// NewBinaryStrategy creates an apis.Strategy that converts []byte shaped
// sources into targets whose pointer implements encoding.BinaryUnmarshaler.
func NewBinaryStrategy() apis.Strategy {
	return &unmarshalStrategy{
		iface:  binaryUnmarshalerType,
		method: "UnmarshalBinary",
		accept: isBytes,
	}
}

// unmarshalStrategy allocates a fresh target value and unmarshals the source into it.
type unmarshalStrategy struct {
	iface  reflect.Type
	method string
	accept func(source reflect.Type) bool
	memo   memo
}

// Ensure unmarshalStrategy implements apis.Strategy.
var _ apis.Strategy = (*unmarshalStrategy)(nil)

// TryFactory applies when the source shape is accepted and the target is unmarshalable.
func (s *unmarshalStrategy) TryFactory(source, target reflect.Type, _ apis.Config) (apis.Converter, bool) {
	if source == nil || target == nil || !s.accept(source) {
		return nil, false
	}
	key := cacheKey{source: source, target: target, method: s.method}
	return s.memo.lookup(key, func() *factory { return s.build(source, target) })
}

func (s *unmarshalStrategy) build(source, target reflect.Type) *factory {
	// elem is the type allocated with reflect.New; ptr reports whether the
	// target is the pointer itself.
	var elem reflect.Type
	var ptr bool
	switch {
	case target.Kind() == reflect.Interface:
		return nil
	case reflect.PointerTo(target).Implements(s.iface):
		elem = target
	case target.Kind() == reflect.Pointer && target.Elem().Kind() != reflect.Interface && target.Implements(s.iface):
		elem, ptr = target.Elem(), true
	default:
		return nil
	}

	method := s.method
	return &factory{
		name:   fmt.Sprintf("(*%s).%s", elem, method),
		source: source,
		target: target,
		call: func(in reflect.Value) (reflect.Value, error) {
			p := reflect.New(elem)
			out := p.MethodByName(method).Call([]reflect.Value{reflect.ValueOf(payload(in))})
			if err, _ := out[0].Interface().(error); err != nil {
				return reflect.Value{}, err
			}
			if ptr {
				return p, nil
			}
			return p.Elem(), nil
		},
	}
}

func isBytes(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}

// payload returns the bytes carried by a string or []byte shaped value.
func payload(v reflect.Value) []byte {
	if v.Kind() == reflect.String {
		return []byte(v.String())
	}
	return v.Bytes()
}
