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

package convx

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/singleflight"

	"dirpx.dev/convx/apis"
	"dirpx.dev/convx/builder"
	"dirpx.dev/convx/config"
	"dirpx.dev/convx/converter"
	"dirpx.dev/convx/metrics"
)

// Service converts values between types using the registered converters.
// It is safe for concurrent use; see the package documentation.
type Service struct {
	log     logr.Logger
	metrics *metrics.Metrics

	// buildMu serializes writers (registrations and reconfigurations) so a
	// registry migration never loses a concurrent registration.
	buildMu sync.Mutex
	// st is the current state. Readers never lock.
	st atomic.Pointer[state]

	group  singleflight.Group
	closed atomic.Bool
}

// state is an immutable snapshot published atomically via st.Store; never
// mutate fields of a published state.
type state struct {
	// cfg is the service configuration.
	cfg apis.Config
	// reg owns the converter graph.
	reg apis.Registry
	// res resolves conversions against registry snapshots.
	res apis.Resolver
	// bld builds reg and res on reconfiguration.
	bld apis.Builder
	// preg indicates whether reg is pinned (not rebuilt on reconfiguration).
	preg bool
	// pres indicates whether res is pinned.
	pres bool
}

// Option configures a Service.
type Option func(*options)

type options struct {
	cfg        apis.Config
	bld        apis.Builder
	log        logr.Logger
	metrics    *metrics.Metrics
	converters []apis.Converter
	interfaces []reflect.Type
}

// WithConfig sets the configuration. The default is config.DefaultConfig().
func WithConfig(cfg apis.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithBuilder sets the builder used for the registry, resolver and caches.
func WithBuilder(b apis.Builder) Option {
	return func(o *options) {
		if b != nil {
			o.bld = b
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log logr.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics sets the metrics collectors. The caller registers them.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithConverters registers converters when the service is created.
func WithConverters(cs ...apis.Converter) Option {
	return func(o *options) { o.converters = append(o.converters, cs...) }
}

// WithInterfaces declares interface types when the service is created.
func WithInterfaces(types ...reflect.Type) Option {
	return func(o *options) { o.interfaces = append(o.interfaces, types...) }
}

// New creates a Service. It fails if an initial converter or interface is rejected.
func New(opts ...Option) (*Service, error) {
	o := options{
		cfg: config.DefaultConfig(),
		bld: builder.New(),
		log: logr.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = metrics.New()
	}

	s := &Service{log: o.log, metrics: o.metrics}
	reg := o.bld.BuildRegistry(o.cfg, nil, s.log)
	if reg == nil {
		return nil, ErrNilRegistry
	}
	res := o.bld.BuildResolver(o.cfg, nil, s.log)
	if res == nil {
		return nil, ErrNilResolver
	}
	s.st.Store(&state{cfg: o.cfg, reg: reg, res: res, bld: o.bld})

	if len(o.interfaces) > 0 {
		if err := s.DeclareInterfaces(o.interfaces...); err != nil {
			return nil, err
		}
	}
	for _, c := range o.converters {
		if _, err := s.Register(c); err != nil {
			return nil, err
		}
	}
	s.metrics.ObserveSnapshot(reg.Snapshot())
	return s, nil
}

// Convert converts v to target.
//
// A nil v, or a nil pointer, converts to nil. A v whose type is assignable to
// target is returned unchanged without consulting the graph. Otherwise the
// conversion is resolved against the current graph snapshot, cached, and applied.
// Failures are *ConversionError values.
func (s *Service) Convert(v any, target reflect.Type) (any, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if v == nil {
		s.metrics.ObserveConversion(metrics.ResultNil)
		return nil, nil
	}
	source := reflect.TypeOf(v)
	if target == nil {
		return nil, apis.NewConversionError(source, nil, apis.ErrNoConverterFound, nil)
	}
	if source.AssignableTo(target) {
		s.metrics.ObserveConversion(metrics.ResultIdentity)
		return v, nil
	}
	if source.Kind() == reflect.Pointer && reflect.ValueOf(v).IsNil() {
		s.metrics.ObserveConversion(metrics.ResultNil)
		return nil, nil
	}

	st := s.st.Load()
	c, err := s.lookup(st, st.reg.Snapshot(), source, target)
	if err != nil {
		s.metrics.ObserveConversion(metrics.ResultError)
		return nil, err
	}

	out, err := invoke(c, v)
	if err != nil {
		s.metrics.ObserveConversion(metrics.ResultError)
		return nil, apis.NewConversionError(source, target, apis.ErrConversionFailed, err)
	}
	s.metrics.ObserveConversion(metrics.ResultSuccess)
	return out, nil
}

// lookup returns the cached resolution for (source, target) in snap, resolving
// it on a miss. Concurrent misses for the same snapshot and pair share one
// resolution.
func (s *Service) lookup(st *state, snap *apis.Snapshot, source, target reflect.Type) (apis.Converter, error) {
	if r, ok := snap.Cache.Get(source, target); ok {
		s.metrics.ObserveCacheLookup(true)
		return r.Converter, r.Err
	}
	s.metrics.ObserveCacheLookup(false)

	// The snapshot pointer scopes the key to one graph of one registry.
	key := fmt.Sprintf("%p|%p|%p", snap, source, target)
	v, err, _ := s.group.Do(key, func() (any, error) {
		start := time.Now()
		c, err := st.res.Resolve(snap, source, target, st.cfg)
		s.metrics.ObserveResolution(time.Since(start).Seconds(), err)
		if err == nil || st.cfg.CacheFailures {
			snap.Cache.Put(source, target, apis.Resolution{Converter: c, Err: err})
		}
		if err != nil {
			s.log.V(2).Info("conversion unresolved", "source", source.String(), "target", target.String(), "error", err.Error())
		}
		return c, err
	})
	if err != nil {
		return nil, err
	}
	return v.(apis.Converter), nil
}

// invoke calls c, turning panics into errors.
func invoke(c apis.Converter, v any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", apis.NameOf(c), r)
		}
	}()
	return c.Convert(v)
}

// To converts v to D. A nil v yields D's zero value.
func To[D any](s *Service, v any) (D, error) {
	var zero D
	target := reflect.TypeFor[D]()
	out, err := s.Convert(v, target)
	if err != nil || out == nil {
		return zero, err
	}
	d, ok := out.(D)
	if !ok {
		return zero, apis.NewConversionError(reflect.TypeOf(v), target, apis.ErrConversionFailed,
			fmt.Errorf("converter produced %T", out))
	}
	return d, nil
}

// MustTo is like To but panics on failure.
func MustTo[D any](s *Service, v any) D {
	d, err := To[D](s, v)
	if err != nil {
		panic(err)
	}
	return d
}

// Register adds a converter. Converters must be comparable; pointers are.
func (s *Service) Register(c apis.Converter) (apis.Registration, error) {
	return s.RegisterWithID("", c)
}

// RegisterWithID adds a converter under a caller-chosen id, such as the id of
// the component providing it. An empty id is generated.
func (s *Service) RegisterWithID(id string, c apis.Converter) (apis.Registration, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	// Checked under buildMu so nothing registers after Close has reset the registry.
	if s.closed.Load() {
		return apis.Registration{}, ErrClosed
	}
	reg := s.st.Load().reg
	r, err := reg.RegisterWithID(id, c)
	if err != nil {
		return apis.Registration{}, err
	}
	s.metrics.ObserveMutation(metrics.OpRegister, reg.Snapshot())
	return r, nil
}

// RegisterFunc adapts fn with converter.FromFunc and registers it.
func (s *Service) RegisterFunc(fn any) (apis.Registration, error) {
	c, err := converter.FromFunc(fn)
	if err != nil {
		return apis.Registration{}, err
	}
	return s.Register(c)
}

// Unregister removes every registration of c and returns how many were removed.
func (s *Service) Unregister(c apis.Converter) int {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	reg := s.st.Load().reg
	n := reg.Unregister(c)
	if n > 0 {
		s.metrics.ObserveMutation(metrics.OpUnregister, reg.Snapshot())
	}
	return n
}

// UnregisterID removes the registration with the given id.
func (s *Service) UnregisterID(id string) bool {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	reg := s.st.Load().reg
	ok := reg.UnregisterID(id)
	if ok {
		s.metrics.ObserveMutation(metrics.OpUnregister, reg.Snapshot())
	}
	return ok
}

// DeclareInterfaces makes interface types available as ancestors of the
// types implementing them.
func (s *Service) DeclareInterfaces(types ...reflect.Type) error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	reg := s.st.Load().reg
	if err := reg.DeclareInterfaces(types...); err != nil {
		return err
	}
	s.metrics.ObserveMutation(metrics.OpDeclare, reg.Snapshot())
	return nil
}

// Registrations returns the current registrations in registration order.
func (s *Service) Registrations() []apis.Registration {
	return s.st.Load().reg.Registrations()
}

// Snapshot returns the currently published graph snapshot.
func (s *Service) Snapshot() *apis.Snapshot {
	return s.st.Load().reg.Snapshot()
}

// Config returns the service configuration.
func (s *Service) Config() apis.Config {
	return s.st.Load().cfg
}

// Registry returns the current registry.
func (s *Service) Registry() apis.Registry {
	return s.st.Load().reg
}

// Resolver returns the current resolver.
func (s *Service) Resolver() apis.Resolver {
	return s.st.Load().res
}

// Builder returns the current builder.
func (s *Service) Builder() apis.Builder {
	return s.st.Load().bld
}

// SetConfig replaces the configuration and rebuilds the registry and resolver
// through the builder, unless pinned. Registrations are migrated.
func (s *Service) SetConfig(cfg apis.Config) {
	s.rebuild(func(st *state) { st.cfg = cfg })
}

// SetBuilder replaces the builder and rebuilds the non-pinned layers with it.
func (s *Service) SetBuilder(b apis.Builder) {
	if b == nil {
		return
	}
	s.rebuild(func(st *state) { st.bld = b })
}

// SetRegistry replaces the registry and pins it.
func (s *Service) SetRegistry(reg apis.Registry) {
	if reg == nil {
		return
	}
	s.swap(func(st *state) { st.reg, st.preg = reg, true })
}

// SetResolver replaces the resolver and pins it.
func (s *Service) SetResolver(res apis.Resolver) {
	if res == nil {
		return
	}
	s.swap(func(st *state) { st.res, st.pres = res, true })
}

// UnpinRegistry lets the next reconfiguration rebuild the registry again.
func (s *Service) UnpinRegistry() {
	s.swap(func(st *state) { st.preg = false })
}

// UnpinResolver lets the next reconfiguration rebuild the resolver again.
func (s *Service) UnpinResolver() {
	s.swap(func(st *state) { st.pres = false })
}

// rebuild derives a new state with mutate applied, rebuilds non-pinned layers
// and publishes it. A builder returning nil panics.
func (s *Service) rebuild(mutate func(*state)) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	old := s.st.Load()
	next := *old
	mutate(&next)

	if !next.preg {
		next.reg = next.bld.BuildRegistry(next.cfg, old.reg, s.log)
	}
	if !next.pres {
		next.res = next.bld.BuildResolver(next.cfg, old.res, s.log)
	}
	if next.reg == nil {
		panic(ErrNilRegistry)
	}
	if next.res == nil {
		panic(ErrNilResolver)
	}

	s.st.Store(&next)
	s.metrics.ObserveMutation(metrics.OpRebuild, next.reg.Snapshot())
	s.log.V(1).Info("conversion service rebuilt", "registrations", next.reg.Count(),
		"registryPinned", next.preg, "resolverPinned", next.pres)
}

// swap publishes a copy of the current state with mutate applied.
func (s *Service) swap(mutate func(*state)) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	next := *s.st.Load()
	mutate(&next)
	s.st.Store(&next)
}

// Close removes every converter and makes further conversions and
// registrations fail with ErrClosed. It is idempotent.
func (s *Service) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	reg := s.st.Load().reg
	reg.Reset()
	s.metrics.ObserveMutation(metrics.OpReset, reg.Snapshot())
	s.log.V(1).Info("conversion service closed")
	return nil
}
