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

// Package convx provides a dynamic type-conversion service.
//
// convx turns "a value of some Go type" into "a value of the type I need",
// using a set of small pairwise converters registered at runtime. A caller
// that needs an int from a Label, a time.Duration from a config string, or a
// domain struct from a wire DTO asks the Service; the Service finds a chain of
// registered converters that gets there and applies it.
//
// # Design
//
// The core of convx is a read-mostly registry snapshot. Each snapshot holds:
//
//   - Graph: an immutable directed multigraph. Vertices are reflect.Type
//     values; an edge S -> A exists for every registered converter from S to
//     T and every ancestor A of T. Parallel converters between the same two
//     types share one edge as an ordered bundle; the first registered one is
//     used.
//
//   - Cache: the resolutions computed against that graph. The cache belongs
//     to the snapshot, so when a registration changes the graph, the new
//     snapshot starts with an empty cache and the old one is cleared. A stale
//     resolution can never be served for a newer graph.
//
// A type's ancestors play the role of superclasses: the type itself, the
// element of a pointer (*Dog -> Dog), the predeclared type underlying a named
// basic type (Label -> string), and every known interface the type implements.
// Go cannot enumerate the interfaces a type implements, so the set of known
// interfaces is finite: those declared with DeclareInterfaces or
// config.WithInterfaces, plus interfaces used as converter source or target
// types. Some types are too generic to be useful and are never vertices:
// by default any, fmt.Stringer and json.Marshaler.
//
// # Resolution
//
// Convert(v, target) works as follows:
//
//  1. nil (and nil pointers) convert to nil;
//  2. if v's type is assignable to target, v is returned unchanged;
//  3. otherwise the snapshot cache is consulted, and on a miss the resolver
//     walks v's ancestors, most specific first, looking for the fewest-hops
//     path to target. The first ancestor with a path wins, so a converter
//     for Dog is preferred over one for Animal;
//  4. if the graph has no path, factory fallbacks are tried in order: a
//     ValueOf method on the target type (the name is configurable), then
//     encoding.TextUnmarshaler, then encoding.BinaryUnmarshaler.
//
// Which of several equally short paths is chosen is unspecified.
//
// # Concurrency model
//
// Conversions are lock-free on the hot path: they load the current state and
// snapshot atomically. Concurrent cache misses for the same pair and snapshot
// are collapsed into a single resolution.
//
// Registrations, removals and reconfigurations take a short build mutex,
// rebuild the graph from the registration list, and publish a new snapshot
// with an atomic pointer swap. Readers holding an older snapshot keep a
// complete, consistent view.
//
// # Lifecycle
//
// Converters can come and go at any time. The lifecycle package adapts
// availability events from an external component system to Register and
// Unregister calls.
//
// # Usage
//
//	svc, err := convx.New(convx.WithConverters(
//	    converter.Func(strconv.Atoi),
//	    converter.Of(func(i int) time.Duration { return time.Duration(i) * time.Second }),
//	))
//	if err != nil {
//	    return err
//	}
//
//	d, err := convx.To[time.Duration](svc, "30") // string -> int -> time.Duration
package convx
