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

import "reflect"

// Snapshot is an immutable, published view of the registry: a graph generation
// and the resolution cache that belongs to it. A new snapshot (with a fresh
// cache) is published on every mutation, so entries resolved against an older
// graph are never visible to readers of a newer one.
type Snapshot struct {
	Generation uint64
	Graph      Graph
	Cache      Cache
}

// Graph is a read-only directed multigraph of type vertices and converter edges.
// Implementations must be safe for concurrent reads.
type Graph interface {
	// HasVertex reports whether t is a vertex.
	HasVertex(t reflect.Type) bool
	// Ancestors returns t's ancestry against this graph's interface universe,
	// most specific first, ignored types excluded.
	Ancestors(t reflect.Type) []Ancestor
	// ShortestPath returns the fewest-hops path from -> to, one edge per hop.
	// A nil path with a nil error means from == to. Unreachable targets yield ErrNoPath.
	ShortestPath(from, to reflect.Type) ([]Edge, error)
	// Bundle returns the parallel edges between from and to, in registration order.
	Bundle(from, to reflect.Type) []Edge
	// Vertices returns all vertices in insertion order.
	Vertices() []reflect.Type
	// Edges returns all edges, parallel ones included.
	Edges() []Edge
	// Interfaces returns the interface universe used for ancestry.
	Interfaces() []reflect.Type
}

// Resolution is a cached resolver outcome: a converter, or the failure to find one.
type Resolution struct {
	Converter Converter
	Err       error
}

// Cache memoizes resolutions per (source, target) pair.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(source, target reflect.Type) (Resolution, bool)
	Put(source, target reflect.Type, r Resolution)
	InvalidateAll()
	Len() int
}
