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

package converter

import (
	"fmt"
	"reflect"
	"strings"

	"dirpx.dev/convx/apis"
	uref "dirpx.dev/convx/utils/reflect"
)

// Composition is a resolved conversion: the input is narrowed to the ancestor
// the path starts from, then each edge's converter is applied in order.
// An empty Path is a pure narrowing conversion.
type Composition struct {
	Source reflect.Type
	Target reflect.Type
	From   apis.Ancestor
	Path   []apis.Edge
	// Narrow, when set, adapts the last result to Target. It is used when
	// the path ends at a type implementing an interface Target.
	Narrow func(reflect.Value) reflect.Value
}

var _ apis.Converter = (*Composition)(nil)

// SourceType returns the type the composition was resolved for.
func (c *Composition) SourceType() reflect.Type { return c.Source }

// TargetType returns the requested target type.
func (c *Composition) TargetType() reflect.Type { return c.Target }

// Convert runs the composed conversion.
func (c *Composition) Convert(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	in := c.From.Apply(reflect.ValueOf(v))
	if !in.IsValid() {
		return nil, fmt.Errorf("narrow %T to %s: %w", v, apis.TypeString(c.From.Type), uref.ErrReflectNilValue)
	}

	cur := in.Interface()
	for _, e := range c.Path {
		out, err := e.Registration.Converter.Convert(cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", apis.NameOf(e.Registration.Converter), err)
		}
		if e.Narrow != nil && out != nil {
			nv := e.Narrow(reflect.ValueOf(out))
			if !nv.IsValid() {
				return nil, fmt.Errorf("narrow %T to %s: %w", out, apis.TypeString(e.Target), uref.ErrReflectNilValue)
			}
			out = nv.Interface()
		}
		cur = out
	}

	if c.Narrow != nil && cur != nil {
		nv := c.Narrow(reflect.ValueOf(cur))
		if !nv.IsValid() {
			return nil, fmt.Errorf("narrow %T to %s: %w", cur, apis.TypeString(c.Target), uref.ErrReflectNilValue)
		}
		cur = nv.Interface()
	}
	return cur, nil
}

// Len returns the number of converters applied.
func (c *Composition) Len() int { return len(c.Path) }

// String renders the chain of types, e.g. "Label -> string -> int".
func (c *Composition) String() string {
	var b strings.Builder
	b.WriteString(apis.TypeString(c.Source))
	if c.From.Type != nil && c.From.Type != c.Source {
		b.WriteString(" => ")
		b.WriteString(apis.TypeString(c.From.Type))
	}
	for _, e := range c.Path {
		b.WriteString(" -> ")
		b.WriteString(apis.TypeString(e.Target))
	}
	if c.Narrow != nil {
		b.WriteString(" => ")
		b.WriteString(apis.TypeString(c.Target))
	}
	return b.String()
}
