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

// Registration is one registered converter together with its declared type pair.
type Registration struct {
	// ID identifies the registration. Generated unless supplied by the caller.
	ID string
	// Converter is the registered converter instance.
	Converter Converter
	// Source is the declared source type (the tail of every edge of this registration).
	Source reflect.Type
	// Target is the declared target type.
	Target reflect.Type
}

// Edge is a single convertibility edge: Registration can produce Target from Source.
// Target is Registration.Target or one of its ancestors.
type Edge struct {
	Source       reflect.Type
	Target       reflect.Type
	Registration Registration
	// Narrow adapts a Registration.Target value to Target. Nil means identity.
	Narrow func(reflect.Value) reflect.Value
}

// Registry owns the converter graph. Mutations are serialized and publish a new
// immutable Snapshot; readers only ever see complete snapshots.
type Registry interface {
	// Register adds a converter. Fails with ErrConverterDeclaration if its
	// declaration is unusable; state is unchanged in that case.
	Register(c Converter) (Registration, error)
	// RegisterWithID is Register with a caller-chosen registration id.
	RegisterWithID(id string, c Converter) (Registration, error)
	// Unregister removes every registration of c and returns how many were removed.
	Unregister(c Converter) int
	// UnregisterID removes the registration with the given id.
	UnregisterID(id string) bool
	// DeclareInterfaces adds interface types to the ancestor universe.
	DeclareInterfaces(types ...reflect.Type) error
	// DeclaredInterfaces returns the interfaces added via DeclareInterfaces.
	DeclaredInterfaces() []reflect.Type
	// Restore replaces all registrations and declared interfaces in a single publish.
	Restore(regs []Registration, interfaces []reflect.Type) error
	// Snapshot returns the currently published snapshot.
	Snapshot() *Snapshot
	// Registrations returns the registrations in registration order.
	Registrations() []Registration
	// Count returns the number of registrations.
	Count() int
	// Reset removes all registrations and declared interfaces.
	Reset()
}
