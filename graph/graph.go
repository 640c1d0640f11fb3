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

// Package graph builds the immutable converter multigraph published by the registry.
//
// Vertices are reflect.Type values. A registration declaring Source -> Target
// contributes one edge Source -> A for every non-ignored ancestor A of Target.
// Parallel registrations between the same pair of vertices are kept as an
// ordered bundle attached to a single library edge; the first member serves
// path searches.
package graph

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	graphlib "github.com/dominikbraun/graph"

	"dirpx.dev/convx/apis"
	uref "dirpx.dev/convx/utils/reflect"
)

type pair struct {
	from reflect.Type
	to   reflect.Type
}

// Graph is an immutable apis.Graph. Build creates a complete value; nothing
// mutates it afterwards, so any number of readers may share it.
type Graph struct {
	cfg       apis.Config
	g         graphlib.Graph[reflect.Type, reflect.Type]
	vertices  []reflect.Type
	pairs     []pair
	universe  []reflect.Type
	ancestors sync.Map // reflect.Type -> []apis.Ancestor
}

var _ apis.Graph = (*Graph)(nil)

func hash(t reflect.Type) reflect.Type { return t }

// Empty returns a graph without vertices.
func Empty(cfg apis.Config) *Graph {
	g, _ := Build(nil, nil, nil, cfg)
	return g
}

// Build constructs the graph for regs, in registration order. declared are
// extra interface types for the ancestor universe, besides cfg.Interfaces and
// interface types used as converter sources or targets. keep are vertices
// carried over from a previous graph: a vertex is never pruned when its last
// converter goes away, it only loses its edges.
func Build(regs []apis.Registration, declared, keep []reflect.Type, cfg apis.Config) (*Graph, error) {
	used := make([]reflect.Type, 0, 2*len(regs))
	for _, r := range regs {
		used = append(used, r.Source, r.Target)
	}

	out := &Graph{
		cfg:      cfg,
		g:        graphlib.New(hash, graphlib.Directed(), graphlib.Weighted()),
		universe: uref.Interfaces(cfg, cfg.Interfaces, declared, used),
	}

	for _, t := range keep {
		if t == nil {
			continue
		}
		if err := out.addVertex(t); err != nil {
			return nil, err
		}
	}

	bundles := make(map[pair][]apis.Edge)
	for _, r := range regs {
		if r.Source == nil || r.Target == nil {
			return nil, fmt.Errorf("graph: registration %s has a nil type", r.ID)
		}
		for _, a := range out.Ancestors(r.Source) {
			if err := out.addVertex(a.Type); err != nil {
				return nil, err
			}
		}
		for _, a := range out.Ancestors(r.Target) {
			if err := out.addVertex(a.Type); err != nil {
				return nil, err
			}
			if a.Type == r.Source {
				continue
			}
			p := pair{r.Source, a.Type}
			if _, ok := bundles[p]; !ok {
				out.pairs = append(out.pairs, p)
			}
			bundles[p] = append(bundles[p], apis.Edge{
				Source:       r.Source,
				Target:       a.Type,
				Registration: r,
				Narrow:       a.Narrow,
			})
		}
	}

	for _, p := range out.pairs {
		err := out.g.AddEdge(p.from, p.to, graphlib.EdgeWeight(1), graphlib.EdgeData(bundles[p]))
		if err != nil {
			return nil, fmt.Errorf("graph: add edge %s -> %s: %w", p.from, p.to, err)
		}
	}
	return out, nil
}

func (g *Graph) addVertex(t reflect.Type) error {
	err := g.g.AddVertex(t)
	switch {
	case err == nil:
		g.vertices = append(g.vertices, t)
		return nil
	case errors.Is(err, graphlib.ErrVertexAlreadyExists):
		return nil
	default:
		return fmt.Errorf("graph: add vertex %s: %w", t, err)
	}
}

// HasVertex reports whether t is a vertex.
func (g *Graph) HasVertex(t reflect.Type) bool {
	if t == nil {
		return false
	}
	_, err := g.g.Vertex(t)
	return err == nil
}

// Ancestors returns t's ancestry against this graph's interface universe.
// Results are memoized per graph.
func (g *Graph) Ancestors(t reflect.Type) []apis.Ancestor {
	if t == nil {
		return nil
	}
	if v, ok := g.ancestors.Load(t); ok {
		return v.([]apis.Ancestor)
	}
	v, _ := g.ancestors.LoadOrStore(t, uref.Ancestors(t, g.universe, g.cfg))
	return v.([]apis.Ancestor)
}

// ShortestPath returns the fewest-hops path from -> to, serving each hop with
// the first edge of its bundle. Which of several equally short paths is
// returned is unspecified.
func (g *Graph) ShortestPath(from, to reflect.Type) ([]apis.Edge, error) {
	if from == to && from != nil {
		return nil, nil
	}
	if !g.HasVertex(from) || !g.HasVertex(to) {
		return nil, apis.ErrNoPath
	}

	hops, err := graphlib.ShortestPath(g.g, from, to)
	if err != nil {
		if errors.Is(err, graphlib.ErrTargetNotReachable) {
			return nil, apis.ErrNoPath
		}
		return nil, fmt.Errorf("graph: shortest path %s -> %s: %w", from, to, err)
	}

	path := make([]apis.Edge, 0, len(hops)-1)
	for i := 1; i < len(hops); i++ {
		bundle := g.Bundle(hops[i-1], hops[i])
		if len(bundle) == 0 {
			return nil, fmt.Errorf("graph: empty bundle %s -> %s", hops[i-1], hops[i])
		}
		path = append(path, bundle[0])
	}
	return path, nil
}

// Bundle returns the parallel edges from -> to in registration order.
func (g *Graph) Bundle(from, to reflect.Type) []apis.Edge {
	if from == nil || to == nil {
		return nil
	}
	e, err := g.g.Edge(from, to)
	if err != nil {
		return nil
	}
	bundle, _ := e.Properties.Data.([]apis.Edge)
	return append([]apis.Edge(nil), bundle...)
}

// Vertices returns all vertices in insertion order.
func (g *Graph) Vertices() []reflect.Type {
	return append([]reflect.Type(nil), g.vertices...)
}

// Edges returns every edge, parallel ones included, grouped by vertex pair in
// insertion order.
func (g *Graph) Edges() []apis.Edge {
	var out []apis.Edge
	for _, p := range g.pairs {
		out = append(out, g.Bundle(p.from, p.to)...)
	}
	return out
}

// Interfaces returns the interface universe used for ancestry.
func (g *Graph) Interfaces() []reflect.Type {
	return append([]reflect.Type(nil), g.universe...)
}
