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

package apis

import (
	"fmt"
	"reflect"
)

// Converter transforms a value of its declared source type into a value of its declared target type.
//
// Implementations must be comparable (pointer types are the usual choice):
// the registry identifies a converter by equality when it is unregistered.
type Converter interface {
	// SourceType is the declared input type.
	SourceType() reflect.Type
	// TargetType is the declared output type.
	TargetType() reflect.Type
	// Convert converts v, which is assignable to SourceType, into a TargetType value.
	Convert(v any) (any, error)
}

// Namer is optionally implemented by converters that want a stable display
// name in logs and diagnostics.
type Namer interface {
	ConverterName() string
}

// Describer augments Namer with human-oriented metadata about a converter.
//
// # Overview
//
// While Namer provides a compact display name for logs, Describer provides
// context that is useful for diagnostics: graph listings, admin tooling and
// documentation of the conversions a process supports.
//
// # Contract
//
//   - ConverterDescription MUST be safe for concurrent use.
//   - It SHOULD be a short, single sentence, stable for the converter.
//   - It MAY return an empty string; callers fall back to the name.
type Describer interface {
	Namer

	// ConverterDescription returns a human-readable description of what the
	// converter does, for example "parses RFC 3339 timestamps".
	ConverterDescription() string
}

// Identifier extends Namer with a registration identifier chosen by the
// converter itself.
//
// # Overview
//
// Converters contributed by an external component usually carry the id of
// that component. When such a converter is registered without an explicit id,
// the registry uses ConverterID instead of generating one, so the component
// can later be removed by id.
//
// # Contract
//
//   - ConverterID MUST be deterministic for a given converter instance.
//   - It MAY return an empty string to let the registry generate an id.
//   - It MUST NOT perform blocking operations or I/O.
type Identifier interface {
	Namer

	// ConverterID returns the preferred registration id.
	ConverterID() string
}

// DescriptionOf returns c's description if it implements Describer.
func DescriptionOf(c Converter) string {
	if d, ok := c.(Describer); ok {
		return d.ConverterDescription()
	}
	return ""
}

// NamerFunc adapts a plain function to Namer.
type NamerFunc func() string

// ConverterName calls f.
func (f NamerFunc) ConverterName() string {
	return f()
}

// NameOf returns a display name for c: its ConverterName if it implements Namer,
// its String if it implements fmt.Stringer, and its dynamic type otherwise.
func NameOf(c Converter) string {
	switch n := c.(type) {
	case nil:
		return "<nil>"
	case Namer:
		if name := n.ConverterName(); name != "" {
			return name
		}
	case fmt.Stringer:
		return n.String()
	}
	return fmt.Sprintf("%T", c)
}

// Comparable reports whether c can be compared with ==. Besides a comparable
// dynamic type this needs comparable contents: a struct holding a slice in an
// interface field has a comparable type but panics when compared.
func Comparable(c Converter) (ok bool) {
	if c == nil {
		return false
	}
	if !reflect.TypeOf(c).Comparable() {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	_ = c == c
	return true
}

// SameConverter reports whether a and b are the same converter. Values that
// cannot be compared are never the same.
func SameConverter(a, b Converter) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

// Ancestor is one entry of a type's ancestry: a type a value can be treated as,
// together with the function that adapts the value to it.
type Ancestor struct {
	// Type is the ancestor type (the described type itself, a dereferenced or
	// underlying type, or an implemented interface).
	Type reflect.Type
	// Narrow adapts a value of the described type to Type. Nil means identity.
	// It returns the zero reflect.Value when the value cannot be adapted (nil pointer).
	Narrow func(reflect.Value) reflect.Value
}

// Apply narrows v to the ancestor type.
func (a Ancestor) Apply(v reflect.Value) reflect.Value {
	if a.Narrow == nil {
		return v
	}
	return a.Narrow(v)
}
