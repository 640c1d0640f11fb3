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
	"fmt"
	"strings"
)

// Strategy controls how a resolution cache retains entries between registry mutations.
//
// # Overview
//
// Strategy is a small enumerated type that selects the cache implementation
// backing a registry snapshot. Whatever the strategy, a cache never outlives
// the snapshot it belongs to: every registry mutation publishes a new snapshot
// with a new, empty cache. Strategy only governs what happens in between.
//
// # Values
//
//   - Unbounded: every resolution is retained until the next mutation.
//   - LRU: at most CacheSize resolutions, least recently used evicted first.
//   - None: caching disabled (every lookup resolves again).
//
// # Contract
//
//   - The zero value is Unbounded, so a zero Config caches.
//   - Strategy values are plain integers and safe to share across goroutines.
//   - Adding new values is allowed; existing values MUST NOT change meaning.
type Strategy int

const (
	// Unbounded retains every resolution until the snapshot is replaced.
	//
	// Recommended for the usual workload: tens to hundreds of converters and
	// a bounded set of (source, target) pairs requested by the application.
	Unbounded Strategy = iota

	// LRU bounds the cache to a fixed number of entries and evicts the least
	// recently used resolution first.
	//
	// Recommended when callers convert between an open-ended set of types
	// (for example, types generated at runtime) and memory must stay bounded.
	LRU

	// None disables caching. Every conversion that is not an identity
	// conversion runs the path search again.
	//
	// Useful for tests and for comparing behavior with and without caching.
	None
)

// String returns the canonical token for the strategy.
//
// Unknown values render as "Unknown(<n>)" and never panic, so corrupted
// values can still be surfaced in logs.
func (cs Strategy) String() string {
	switch cs {
	case Unbounded:
		return "Unbounded"
	case LRU:
		return "LRU"
	case None:
		return "None"
	default:
		return fmt.Sprintf("Unknown(%d)", cs)
	}
}

// Parse parses a textual representation of a Strategy.
//
// Matching is case-insensitive and surrounding whitespace is ignored.
// On failure Parse returns Unbounded and a non-nil error; callers MUST NOT
// rely on the returned value in that case.
//
// Example:
//
//	s, err := Parse("lru")
//	if err != nil {
//	    // handle invalid configuration
//	}
//
//	_ = s // LRU
func Parse(s string) (Strategy, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Unbounded, fmt.Errorf("cache: empty strategy")
	}

	switch strings.ToUpper(trimmed) {
	case "UNBOUNDED":
		return Unbounded, nil
	case "LRU":
		return LRU, nil
	case "NONE":
		return None, nil
	default:
		return Unbounded, fmt.Errorf("cache: unknown strategy %q", s)
	}
}

// MustParse is like Parse but panics on invalid input.
//
// Intended for hard-coded values and tests; use Parse for user-supplied data.
func MustParse(s string) Strategy {
	strategy, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return strategy
}

// MarshalText implements encoding.TextMarshaler.
// Unknown values fail instead of persisting an "Unknown(...)" token.
func (cs Strategy) MarshalText() ([]byte, error) {
	switch cs {
	case Unbounded, LRU, None:
		return []byte(cs.String()), nil
	default:
		return nil, fmt.Errorf("cache: cannot marshal unknown strategy %d", cs)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler, so strategies can be
// written as plain tokens in YAML configuration files.
// On failure *cs is left unchanged.
func (cs *Strategy) UnmarshalText(text []byte) error {
	value, err := Parse(string(text))
	if err != nil {
		return err
	}

	*cs = value
	return nil
}
