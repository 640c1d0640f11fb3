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

package resolver

import (
	"errors"
	"reflect"

	"github.com/go-logr/logr"

	"dirpx.dev/convx/apis"
	"dirpx.dev/convx/converter"
	uref "dirpx.dev/convx/utils/reflect"
)

// New constructs an apis.Resolver that searches the snapshot graph first and
// then tries the given factory strategies in order. Nil strategies are ignored.
// The returned resolver is safe for concurrent use provided strategies
// themselves are safe for concurrent TryFactory calls.
func New(log logr.Logger, strategies ...apis.Strategy) apis.Resolver {
	// Filter out nils to avoid nil-interface panics on call sites.
	out := make([]apis.Strategy, 0, len(strategies))
	for _, s := range strategies {
		if s != nil {
			out = append(out, s)
		}
	}
	return chain{strats: out, log: log}
}

// chain is an immutable, order-preserving resolver.
type chain struct {
	strats []apis.Strategy
	log    logr.Logger
}

// Resolve finds a converter from source to target:
//
//  1. if target is an interface that is not a vertex, every vertex
//     implementing it is a goal, and the result is narrowed to target;
//  2. if target is not a vertex otherwise, only the factory strategies can help;
//  3. the ancestors of source are tried most specific first, and the first
//     one with a path to a goal wins;
//  4. the factory strategies are the last resort.
func (r chain) Resolve(snap *apis.Snapshot, source, target reflect.Type, cfg apis.Config) (apis.Converter, error) {
	if snap == nil || snap.Graph == nil || source == nil || target == nil {
		return nil, apis.NewConversionError(source, target, apis.ErrNoConverterFound, nil)
	}
	g := snap.Graph

	var narrow func(reflect.Value) reflect.Value
	goals := []reflect.Type{target}
	if !g.HasVertex(target) {
		goals = nil
		if target.Kind() == reflect.Interface {
			goals = implementers(g, target)
			narrow = uref.ToInterface(target)
		}
		if len(goals) == 0 {
			if c, ok := r.factory(source, target, cfg); ok {
				return c, nil
			}
			return nil, apis.NewConversionError(source, target, apis.ErrNoConverterFound, nil)
		}
	}

	for _, a := range g.Ancestors(source) {
		if !g.HasVertex(a.Type) {
			continue
		}
		path, found, err := shortest(g, a.Type, goals)
		if err != nil {
			return nil, apis.NewConversionError(source, target, apis.ErrConversionFailed, err)
		}
		if !found {
			continue
		}
		c := &converter.Composition{Source: source, Target: target, From: a, Path: path, Narrow: narrow}
		r.log.V(2).Info("resolved conversion path", "generation", snap.Generation, "path", c.String())
		return c, nil
	}

	if c, ok := r.factory(source, target, cfg); ok {
		return c, nil
	}
	return nil, apis.NewConversionError(source, target, apis.ErrNoConversionPath, nil)
}

// implementers returns the vertices whose type implements iface, in vertex order.
func implementers(g apis.Graph, iface reflect.Type) []reflect.Type {
	var out []reflect.Type
	for _, v := range g.Vertices() {
		if v != iface && v.Implements(iface) {
			out = append(out, v)
		}
	}
	return out
}

// shortest returns the shortest path from -> any of goals. Ties go to the
// earlier goal. found is false when no goal is reachable.
func shortest(g apis.Graph, from reflect.Type, goals []reflect.Type) (path []apis.Edge, found bool, err error) {
	for _, goal := range goals {
		p, err := g.ShortestPath(from, goal)
		if errors.Is(err, apis.ErrNoPath) {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		if !found || len(p) < len(path) {
			path, found = p, true
		}
	}
	return path, found, nil
}

func (r chain) factory(source, target reflect.Type, cfg apis.Config) (apis.Converter, bool) {
	for _, s := range r.strats {
		if c, ok := s.TryFactory(source, target, cfg); ok {
			r.log.V(2).Info("resolved factory conversion", "source", source.String(), "target", target.String(), "factory", apis.NameOf(c))
			return c, true
		}
	}
	return nil, false
}
