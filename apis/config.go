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
	"reflect"

	"dirpx.dev/convx/cache/strategy"
)

// Config carries read-only resolution knobs that influence the graph, the resolver and caching.
// It is passed by value and should be treated as immutable by implementations.
type Config struct {
	// MaxUnwrap limits pointer dereferencing when walking a type's ancestors.
	// Acts as a safety guard against pathological nesting.
	MaxUnwrap int

	// IgnoredTypes are never inserted as graph vertices. They are too generic
	// to be useful conversion targets. A nil slice selects the defaults; an
	// empty, non-nil slice ignores nothing.
	IgnoredTypes []reflect.Type

	// Interfaces are interface types always considered when computing ancestors,
	// in addition to interfaces declared on the registry or used by converters.
	Interfaces []reflect.Type

	// FactoryMethod is the method name looked up on a target type when no graph
	// path exists (static-factory fallback). Empty disables the method lookup.
	FactoryMethod string

	// CacheStrategy selects the resolution cache implementation.
	CacheStrategy strategy.Strategy

	// CacheSize bounds the LRU cache. Ignored by other strategies.
	CacheSize int

	// CacheFailures controls whether failed resolutions are cached too.
	// Cached failures are dropped on the next registry mutation like any other entry.
	CacheFailures bool
}
