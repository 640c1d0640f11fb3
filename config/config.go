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

package config

import (
	"encoding/json"
	"fmt"
	"reflect"

	"dirpx.dev/convx/apis"
	"dirpx.dev/convx/cache/strategy"
)

const (
	// DefaultMaxUnwrap represents the default for MaxUnwrap.
	// A value of 8 should be sufficient for all practical purposes.
	DefaultMaxUnwrap = 8
	// DefaultFactoryMethod is the method name probed on target types when no graph path exists.
	DefaultFactoryMethod = "ValueOf"
	// DefaultCacheStrategy represents the default for CacheStrategy.
	DefaultCacheStrategy = strategy.Unbounded
	// DefaultCacheSize represents the default LRU capacity.
	DefaultCacheSize = 1024
	// DefaultCacheFailures represents the default for CacheFailures.
	// When true, "no path" outcomes are cached until the next registry mutation.
	DefaultCacheFailures = true
)

// DefaultIgnoredTypes returns the types that never become graph vertices unless
// configured otherwise: the empty interface, which every type satisfies, and
// the ubiquitous marker interfaces fmt.Stringer and json.Marshaler.
func DefaultIgnoredTypes() []reflect.Type {
	return []reflect.Type{
		reflect.TypeFor[any](),
		reflect.TypeFor[fmt.Stringer](),
		reflect.TypeFor[json.Marshaler](),
	}
}

// IgnoredTypes returns cfg.IgnoredTypes, or the defaults when the slice is nil.
func IgnoredTypes(cfg apis.Config) []reflect.Type {
	if cfg.IgnoredTypes == nil {
		return DefaultIgnoredTypes()
	}
	return cfg.IgnoredTypes
}

// NewConfig constructs an apis.Config from the given options.
func NewConfig(opts ...Option) apis.Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	// Ensure MaxUnwrap is valid.
	if cfg.MaxUnwrap < 0 {
		cfg.MaxUnwrap = DefaultMaxUnwrap
	}
	return cfg
}

// DefaultConfig is the default configuration used when none is provided.
func DefaultConfig() apis.Config {
	return apis.Config{
		MaxUnwrap:     DefaultMaxUnwrap,
		FactoryMethod: DefaultFactoryMethod,
		CacheStrategy: DefaultCacheStrategy,
		CacheSize:     DefaultCacheSize,
		CacheFailures: DefaultCacheFailures,
	}
}

// Option is a functional option that mutates an apis.Config during construction.
type Option func(*apis.Config)

// WithMaxUnwrap sets the MaxUnwrap option.
// A negative value resets to the default.
func WithMaxUnwrap(max int) Option {
	return func(c *apis.Config) {
		if max < 0 {
			c.MaxUnwrap = DefaultMaxUnwrap
			return
		}
		c.MaxUnwrap = max
	}
}

// WithIgnoredTypes replaces the ignored type set.
// Calling it without arguments ignores nothing.
func WithIgnoredTypes(types ...reflect.Type) Option {
	return func(c *apis.Config) {
		c.IgnoredTypes = append(make([]reflect.Type, 0, len(types)), types...)
	}
}

// WithInterfaces adds interface types that are always part of the ancestor universe.
func WithInterfaces(types ...reflect.Type) Option {
	return func(c *apis.Config) {
		c.Interfaces = append(append([]reflect.Type(nil), c.Interfaces...), types...)
	}
}

// WithFactoryMethod sets the static factory method name. Empty disables the lookup.
func WithFactoryMethod(name string) Option {
	return func(c *apis.Config) {
		c.FactoryMethod = name
	}
}

// WithCacheStrategy sets the resolution cache strategy.
func WithCacheStrategy(s strategy.Strategy) Option {
	return func(c *apis.Config) {
		c.CacheStrategy = s
	}
}

// WithCacheSize sets the LRU capacity.
// A non-positive value resets to the default.
func WithCacheSize(size int) Option {
	return func(c *apis.Config) {
		if size <= 0 {
			c.CacheSize = DefaultCacheSize
			return
		}
		c.CacheSize = size
	}
}

// WithCacheFailures sets whether failed resolutions are cached.
func WithCacheFailures(enabled bool) Option {
	return func(c *apis.Config) {
		c.CacheFailures = enabled
	}
}
