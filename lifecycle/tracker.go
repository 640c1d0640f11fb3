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

// Package lifecycle adapts converter availability events from an external
// component system into registrations on a conversion service.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/go-logr/logr"

	"dirpx.dev/convx/apis"
)

// Kind is the kind of an availability event.
type Kind int

const (
	// Available announces a converter that may be used from now on.
	Available Kind = iota
	// Unavailable withdraws a converter.
	Unavailable
)

// String returns the event kind name.
func (k Kind) String() string {
	switch k {
	case Available:
		return "Available"
	case Unavailable:
		return "Unavailable"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Event is one availability change. ID is the id of the providing component
// and may be empty; Converter may be nil for Unavailable events carrying an ID.
type Event struct {
	Kind      Kind
	ID        string
	Converter apis.Converter
}

// Target is the registration surface the tracker drives. *convx.Service implements it.
type Target interface {
	RegisterWithID(id string, c apis.Converter) (apis.Registration, error)
	Unregister(c apis.Converter) int
	UnregisterID(id string) bool
}

// ErrRunning is returned by Run when the tracker is already running.
var ErrRunning = errors.New("lifecycle: tracker already running")

// Callbacks are optional hooks invoked after events are applied.
type Callbacks struct {
	// OnRegistered is called after a converter was registered.
	OnRegistered func(r apis.Registration)
	// OnUnregistered is called after converters were removed.
	OnUnregistered func(id string, removed int)
	// OnError is called when an event could not be applied.
	OnError func(ev Event, err error)
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger for the Tracker.
func WithLogger(log logr.Logger) Option {
	return func(t *Tracker) { t.log = log }
}

// WithCallbacks sets the callbacks for the Tracker.
func WithCallbacks(cb Callbacks) Option {
	return func(t *Tracker) { t.callbacks = cb }
}

// Tracker applies availability events to a Target and remembers what it
// registered, so Close can withdraw everything at shutdown.
type Tracker struct {
	target    Target
	log       logr.Logger
	callbacks Callbacks

	mu      sync.Mutex
	tracked []apis.Registration
	running bool
	stopCh  chan struct{}
}

// NewTracker creates a Tracker driving target.
func NewTracker(target Target, opts ...Option) *Tracker {
	t := &Tracker{
		target: target,
		log:    logr.Discard(),
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// OnConverterAvailable registers c under id (generated when empty).
func (t *Tracker) OnConverterAvailable(id string, c apis.Converter) (apis.Registration, error) {
	r, err := t.target.RegisterWithID(id, c)
	if err != nil {
		t.log.Error(err, "converter rejected", "id", id)
		if t.callbacks.OnError != nil {
			t.callbacks.OnError(Event{Kind: Available, ID: id, Converter: c}, err)
		}
		return apis.Registration{}, err
	}

	t.mu.Lock()
	t.tracked = append(t.tracked, r)
	t.mu.Unlock()

	t.log.V(1).Info("converter available", "id", r.ID, "converter", apis.NameOf(c))
	if t.callbacks.OnRegistered != nil {
		t.callbacks.OnRegistered(r)
	}
	return r, nil
}

// OnConverterUnavailable removes the registration with the given id, or,
// when id is empty, every registration of c. It returns how many were removed.
func (t *Tracker) OnConverterUnavailable(id string, c apis.Converter) int {
	var removed int
	switch {
	case id != "":
		if t.target.UnregisterID(id) {
			removed = 1
		}
	case c != nil:
		removed = t.target.Unregister(c)
	}

	t.mu.Lock()
	t.tracked = slices.DeleteFunc(t.tracked, func(r apis.Registration) bool {
		if id != "" {
			return r.ID == id
		}
		return c != nil && apis.SameConverter(r.Converter, c)
	})
	t.mu.Unlock()

	t.log.V(1).Info("converter unavailable", "id", id, "removed", removed)
	if t.callbacks.OnUnregistered != nil {
		t.callbacks.OnUnregistered(id, removed)
	}
	return removed
}

// Apply applies a single event.
func (t *Tracker) Apply(ev Event) error {
	switch ev.Kind {
	case Available:
		_, err := t.OnConverterAvailable(ev.ID, ev.Converter)
		return err
	case Unavailable:
		t.OnConverterUnavailable(ev.ID, ev.Converter)
		return nil
	default:
		err := fmt.Errorf("lifecycle: unknown event kind %s", ev.Kind)
		if t.callbacks.OnError != nil {
			t.callbacks.OnError(ev, err)
		}
		return err
	}
}

// Run applies events until ctx is cancelled, Stop is called or events is
// closed. Errors applying individual events are reported through the logger
// and callbacks; they do not stop the loop. Run returns ctx.Err() on
// cancellation and nil otherwise.
func (t *Tracker) Run(ctx context.Context, events <-chan Event) error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return ErrRunning
	}
	t.running = true
	t.stopCh = make(chan struct{})
	stopCh := t.stopCh
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		if t.stopCh == stopCh {
			t.running = false
		}
		t.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			_ = t.Apply(ev)
		}
	}
}

// Stop asks a running Run loop to return. The tracker counts as running
// until it has.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return
	}
	select {
	case <-t.stopCh:
	default:
		close(t.stopCh)
	}
}

// IsRunning returns whether Run is currently looping.
func (t *Tracker) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Tracked returns the registrations made through the tracker that are still active.
func (t *Tracker) Tracked() []apis.Registration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.tracked)
}

// Close stops the loop and withdraws every converter the tracker registered.
func (t *Tracker) Close() {
	t.Stop()

	t.mu.Lock()
	tracked := t.tracked
	t.tracked = nil
	t.mu.Unlock()

	for _, r := range tracked {
		t.target.UnregisterID(r.ID)
	}
	t.log.V(1).Info("converter tracker closed", "withdrawn", len(tracked))
}
