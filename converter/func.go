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

// Package converter provides apis.Converter implementations: typed function
// adapters, a reflective adapter for arbitrary functions, and the composition
// produced by path resolution.
package converter

import (
	"fmt"
	"reflect"

	"dirpx.dev/convx/apis"
)

// Typed adapts a func(S) (D, error) to apis.Converter.
type Typed[S, D any] struct {
	name string
	desc string
	id   string
	fn   func(S) (D, error)
}

var _ apis.Converter = (*Typed[int, string])(nil)

// Func returns a converter calling fn. Every call returns a distinct converter,
// so registering the same function twice yields two removable registrations.
func Func[S, D any](fn func(S) (D, error)) *Typed[S, D] {
	return &Typed[S, D]{fn: fn}
}

// Of is Func for conversions that cannot fail.
func Of[S, D any](fn func(S) D) *Typed[S, D] {
	return Func(func(s S) (D, error) { return fn(s), nil })
}

// Named sets the display name used in logs and diagnostics and returns c.
func (c *Typed[S, D]) Named(name string) *Typed[S, D] {
	c.name = name
	return c
}

// Described sets the description reported by ConverterDescription and returns c.
func (c *Typed[S, D]) Described(desc string) *Typed[S, D] {
	c.desc = desc
	return c
}

// WithID sets the preferred registration id and returns c.
func (c *Typed[S, D]) WithID(id string) *Typed[S, D] {
	c.id = id
	return c
}

// SourceType returns S.
func (c *Typed[S, D]) SourceType() reflect.Type { return reflect.TypeFor[S]() }

// TargetType returns D.
func (c *Typed[S, D]) TargetType() reflect.Type { return reflect.TypeFor[D]() }

// Convert asserts v to S and calls the function. A nil v is passed as S's zero value.
func (c *Typed[S, D]) Convert(v any) (any, error) {
	var s S
	if v != nil {
		var ok bool
		if s, ok = v.(S); !ok {
			return nil, fmt.Errorf("converter %s: unexpected input type %T", c.ConverterName(), v)
		}
	}
	return c.fn(s)
}

// ConverterName implements apis.Namer.
func (c *Typed[S, D]) ConverterName() string {
	if c.name != "" {
		return c.name
	}
	return fmt.Sprintf("func(%s) %s", apis.TypeString(c.SourceType()), apis.TypeString(c.TargetType()))
}

// ConverterDescription implements apis.Describer.
func (c *Typed[S, D]) ConverterDescription() string { return c.desc }

// ConverterID implements apis.Identifier.
func (c *Typed[S, D]) ConverterID() string { return c.id }

var errorType = reflect.TypeFor[error]()

// reflectFunc adapts an arbitrary one-argument function value.
type reflectFunc struct {
	fn     reflect.Value
	source reflect.Type
	target reflect.Type
}

// FromFunc adapts fn, which must have the shape func(S) D or func(S) (D, error).
// Any other value is rejected with an *apis.DeclarationError.
func FromFunc(fn any) (apis.Converter, error) {
	v := reflect.ValueOf(fn)
	name := fmt.Sprintf("%T", fn)

	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, &apis.DeclarationError{Converter: name, Reason: "not a function"}
	}
	t := v.Type()
	if t.NumIn() != 1 || t.IsVariadic() {
		return nil, &apis.DeclarationError{Converter: name, Reason: "must take exactly one parameter"}
	}
	switch {
	case t.NumOut() == 1 && t.Out(0) != errorType:
	case t.NumOut() == 2 && t.Out(1) == errorType:
	default:
		return nil, &apis.DeclarationError{Converter: name, Reason: "must return a value and an optional error"}
	}
	return &reflectFunc{fn: v, source: t.In(0), target: t.Out(0)}, nil
}

func (c *reflectFunc) SourceType() reflect.Type { return c.source }

func (c *reflectFunc) TargetType() reflect.Type { return c.target }

func (c *reflectFunc) Convert(v any) (any, error) {
	in := reflect.ValueOf(v)
	switch {
	case !in.IsValid():
		in = reflect.Zero(c.source)
	case !in.Type().AssignableTo(c.source):
		return nil, fmt.Errorf("converter %s: unexpected input type %T", c.ConverterName(), v)
	}

	out := c.fn.Call([]reflect.Value{in})
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

func (c *reflectFunc) ConverterName() string {
	return c.fn.Type().String()
}
