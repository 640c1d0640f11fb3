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

package registry

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"dirpx.dev/convx/apis"
	"dirpx.dev/convx/cache"
	"dirpx.dev/convx/graph"
	uref "dirpx.dev/convx/utils/reflect"
)

var (
	// ErrDuplicateID is returned when a registration id is already in use.
	ErrDuplicateID = errors.New("convx(registry): duplicate registration id")
	// ErrNotInterface is returned when a non-interface type is declared as an interface.
	ErrNotInterface = errors.New("convx(registry): declared type is not an interface")
)

// New constructs a Registry publishing snapshots built with cfg.
// newCache creates the cache of every published snapshot; nil selects
// cache.New(cfg.CacheStrategy, cfg.CacheSize).
func New(cfg apis.Config, newCache func() apis.Cache, log logr.Logger) apis.Registry {
	if newCache == nil {
		newCache = func() apis.Cache { return cache.New(cfg.CacheStrategy, cfg.CacheSize) }
	}
	r := &registry{cfg: cfg, newCache: newCache, log: log}
	r.snap.Store(&apis.Snapshot{Graph: graph.Empty(cfg), Cache: newCache()})
	return r
}

// registry is a copy-on-write Registry: every mutation rebuilds the graph from
// the registration list and publishes a new snapshot.
type registry struct {
	cfg      apis.Config
	newCache func() apis.Cache
	log      logr.Logger

	// mu serializes mutations. regs and declared are only touched under mu.
	mu       sync.Mutex
	regs     []apis.Registration
	declared []reflect.Type

	// snap is read lock-free.
	snap atomic.Pointer[apis.Snapshot]
}

// Register adds c under its apis.Identifier id, or a generated one.
func (r *registry) Register(c apis.Converter) (apis.Registration, error) {
	return r.RegisterWithID("", c)
}

// RegisterWithID adds c under id. An empty id falls back to Register's choice.
func (r *registry) RegisterWithID(id string, c apis.Converter) (apis.Registration, error) {
	reg, err := r.registration(id, c)
	if err != nil {
		return apis.Registration{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hasID(r.regs, reg.ID) {
		return apis.Registration{}, fmt.Errorf("%w: %s", ErrDuplicateID, reg.ID)
	}
	regs := append(slices.Clip(r.regs), reg)
	if err := r.publish(regs, r.declared, true); err != nil {
		return apis.Registration{}, err
	}
	r.log.V(1).Info("converter registered", "id", reg.ID, "converter", apis.NameOf(c),
		"source", reg.Source.String(), "target", reg.Target.String())
	return reg, nil
}

// Unregister removes every registration of c.
func (r *registry) Unregister(c apis.Converter) int {
	if !apis.Comparable(c) {
		return 0
	}
	return r.remove(func(reg apis.Registration) bool { return apis.SameConverter(reg.Converter, c) })
}

// UnregisterID removes the registration with the given id.
func (r *registry) UnregisterID(id string) bool {
	if id == "" {
		return false
	}
	return r.remove(func(reg apis.Registration) bool { return reg.ID == id }) > 0
}

func (r *registry) remove(match func(apis.Registration) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	regs := make([]apis.Registration, 0, len(r.regs))
	var removed []apis.Registration
	for _, reg := range r.regs {
		if match(reg) {
			removed = append(removed, reg)
			continue
		}
		regs = append(regs, reg)
	}
	if len(removed) == 0 {
		return 0
	}
	if err := r.publish(regs, r.declared, true); err != nil {
		// The remaining registrations were all accepted before, so a rebuild
		// of a subset cannot fail for declaration reasons.
		r.log.Error(err, "failed to rebuild converter graph after removal")
		return 0
	}
	for _, reg := range removed {
		r.log.V(1).Info("converter unregistered", "id", reg.ID, "converter", apis.NameOf(reg.Converter))
	}
	return len(removed)
}

// DeclareInterfaces adds interface types to the ancestor universe.
func (r *registry) DeclareInterfaces(types ...reflect.Type) error {
	for _, t := range types {
		if t == nil {
			return uref.ErrReflectNilType
		}
		if t.Kind() != reflect.Interface {
			return fmt.Errorf("%w: %s", ErrNotInterface, t)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	declared := slices.Clip(r.declared)
	for _, t := range types {
		if !slices.Contains(declared, t) {
			declared = append(declared, t)
		}
	}
	if len(declared) == len(r.declared) {
		return nil
	}
	return r.publish(r.regs, declared, true)
}

// DeclaredInterfaces returns a copy of the declared interfaces.
func (r *registry) DeclaredInterfaces() []reflect.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.declared)
}

// Restore replaces the registry content. Registrations keep their ids; empty
// ids are generated. Nothing changes if any registration is rejected.
func (r *registry) Restore(regs []apis.Registration, interfaces []reflect.Type) error {
	next := make([]apis.Registration, 0, len(regs))
	for _, reg := range regs {
		nr, err := r.registration(reg.ID, reg.Converter)
		if err != nil {
			return err
		}
		if r.hasID(next, nr.ID) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, nr.ID)
		}
		next = append(next, nr)
	}
	for _, t := range interfaces {
		if t == nil || t.Kind() != reflect.Interface {
			return fmt.Errorf("%w: %s", ErrNotInterface, apis.TypeString(t))
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.publish(next, slices.Clone(interfaces), false)
}

// Snapshot returns the published snapshot.
func (r *registry) Snapshot() *apis.Snapshot {
	return r.snap.Load()
}

// Registrations returns a copy of the registrations in registration order.
func (r *registry) Registrations() []apis.Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.regs)
}

// Count returns the number of registrations.
func (r *registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.regs)
}

// Reset clears all registrations and declared interfaces.
func (r *registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.publish(nil, nil, false); err != nil {
		r.log.Error(err, "failed to publish empty converter graph")
	}
}

// registration validates c and builds its Registration.
func (r *registry) registration(id string, c apis.Converter) (apis.Registration, error) {
	if c == nil {
		return apis.Registration{}, &apis.DeclarationError{Converter: "<nil>", Reason: "converter is nil"}
	}
	ct := reflect.TypeOf(c)
	if ct.Kind() == reflect.Pointer && reflect.ValueOf(c).IsNil() {
		return apis.Registration{}, &apis.DeclarationError{Converter: ct.String(), Reason: "converter is a nil pointer"}
	}
	name := apis.NameOf(c)
	if !ct.Comparable() {
		return apis.Registration{}, &apis.DeclarationError{Converter: name, Reason: fmt.Sprintf("type %s is not comparable", ct)}
	}
	if !apis.Comparable(c) {
		return apis.Registration{}, &apis.DeclarationError{Converter: name, Reason: fmt.Sprintf("value of type %s holds uncomparable contents", ct)}
	}

	source, target := c.SourceType(), c.TargetType()
	switch {
	case source == nil:
		return apis.Registration{}, &apis.DeclarationError{Converter: name, Reason: "source type cannot be determined"}
	case target == nil:
		return apis.Registration{}, &apis.DeclarationError{Converter: name, Reason: "target type cannot be determined"}
	case uref.IsIgnored(source, r.cfg):
		return apis.Registration{}, &apis.DeclarationError{Converter: name, Reason: fmt.Sprintf("source type %s is ignored", source)}
	case uref.IsIgnored(target, r.cfg):
		return apis.Registration{}, &apis.DeclarationError{Converter: name, Reason: fmt.Sprintf("target type %s is ignored", target)}
	}

	if id == "" {
		if ider, ok := c.(apis.Identifier); ok {
			id = ider.ConverterID()
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	return apis.Registration{ID: id, Converter: c, Source: source, Target: target}, nil
}

func (r *registry) hasID(regs []apis.Registration, id string) bool {
	return slices.ContainsFunc(regs, func(reg apis.Registration) bool { return reg.ID == id })
}

// publish rebuilds the graph and swaps the snapshot. Callers hold r.mu.
// With carry set the previous vertices survive, orphaned or not; Restore and
// Reset start from an empty vertex set.
// The previous snapshot's cache is cleared after the swap, so no reader of the
// new snapshot can observe an entry resolved against the old graph.
func (r *registry) publish(regs []apis.Registration, declared []reflect.Type, carry bool) error {
	prev := r.snap.Load()

	var keep []reflect.Type
	if carry {
		keep = prev.Graph.Vertices()
	}
	g, err := graph.Build(regs, declared, keep, r.cfg)
	if err != nil {
		return err
	}

	next := &apis.Snapshot{Generation: prev.Generation + 1, Graph: g, Cache: r.newCache()}

	r.regs = regs
	r.declared = declared
	r.snap.Store(next)
	prev.Cache.InvalidateAll()

	r.logEdges(prev.Graph, g, next.Generation)
	return nil
}

type edgeKey struct {
	source reflect.Type
	target reflect.Type
	id     string
}

func (r *registry) logEdges(prev, next apis.Graph, generation uint64) {
	if !r.log.V(1).Enabled() {
		return
	}
	index := func(g apis.Graph) map[edgeKey]apis.Edge {
		m := make(map[edgeKey]apis.Edge)
		for _, e := range g.Edges() {
			m[edgeKey{e.Source, e.Target, e.Registration.ID}] = e
		}
		return m
	}
	before, after := index(prev), index(next)

	for _, e := range prev.Edges() {
		if _, ok := after[edgeKey{e.Source, e.Target, e.Registration.ID}]; !ok {
			r.log.V(1).Info("converter edge removed", "generation", generation,
				"source", e.Source.String(), "target", e.Target.String(), "converter", apis.NameOf(e.Registration.Converter))
		}
	}
	for _, e := range next.Edges() {
		if _, ok := before[edgeKey{e.Source, e.Target, e.Registration.ID}]; !ok {
			r.log.V(1).Info("converter edge added", "generation", generation,
				"source", e.Source.String(), "target", e.Target.String(), "converter", apis.NameOf(e.Registration.Converter))
		}
	}
}
