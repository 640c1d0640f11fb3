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

package builder

import (
	"github.com/go-logr/logr"

	"dirpx.dev/convx/apis"
	"dirpx.dev/convx/cache"
	"dirpx.dev/convx/registry"
	"dirpx.dev/convx/resolver"
	"dirpx.dev/convx/strategy"
)

// New creates and returns a new instance of an apis.Builder.
func New() apis.Builder {
	return &builder{}
}

// builder is an empty struct to be used as a receiver for builder methods.
type builder struct{}

// BuildRegistry builds a new apis.Registry for cfg. If a previous registry is
// provided, its registrations and declared interfaces are migrated in a single
// publish. Registrations the new configuration rejects (for example, because
// their types became ignored) are dropped and logged.
func (b *builder) BuildRegistry(cfg apis.Config, prev apis.Registry, log logr.Logger) apis.Registry {
	nreg := registry.New(cfg, func() apis.Cache { return b.BuildCache(cfg) }, log)
	if prev == nil {
		return nreg
	}

	regs, declared := prev.Registrations(), prev.DeclaredInterfaces()
	if err := nreg.Restore(regs, declared); err == nil {
		return nreg
	}

	// Slow path: keep whatever the new configuration accepts.
	if err := nreg.DeclareInterfaces(declared...); err != nil {
		log.Error(err, "failed to migrate declared interfaces")
	}
	for _, r := range regs {
		if _, err := nreg.RegisterWithID(r.ID, r.Converter); err != nil {
			log.Error(err, "dropping converter during registry migration", "id", r.ID, "converter", apis.NameOf(r.Converter))
		}
	}
	return nreg
}

// BuildResolver builds a resolver whose factory fallback chain is
// ValueOf method -> encoding.TextUnmarshaler -> encoding.BinaryUnmarshaler.
// The previous resolver holds no state worth keeping.
func (b *builder) BuildResolver(_ apis.Config, _ apis.Resolver, log logr.Logger) apis.Resolver {
	return resolver.New(
		log,
		strategy.NewValueOfStrategy(),
		strategy.NewTextStrategy(),
		strategy.NewBinaryStrategy(),
	)
}

// BuildCache returns an empty cache for cfg.CacheStrategy.
func (b *builder) BuildCache(cfg apis.Config) apis.Cache {
	return cache.New(cfg.CacheStrategy, cfg.CacheSize)
}
