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
	"reflect"

	"dirpx.dev/convx/apis"
	uref "dirpx.dev/convx/utils/reflect"
)

// NewValueOfStrategy creates an apis.Strategy that converts through a factory
// method declared on the target type, named by Config.FactoryMethod:
//
//	func (Celsius) ValueOf(f Fahrenheit) Celsius
//	func (*Celsius) ValueOf(s string) (*Celsius, error)
//
// The method is invoked on a zero receiver (a fresh value for pointer
// receivers), so it behaves as a static constructor. Its single parameter
// must accept the source type; its result must be the target type, a pointer
// to it or its element, optionally followed by an error.
func NewValueOfStrategy() apis.Strategy {
	return &valueOfStrategy{}
}

type valueOfStrategy struct {
	memo memo
}

// Ensure valueOfStrategy implements apis.Strategy.
var _ apis.Strategy = (*valueOfStrategy)(nil)

// TryFactory looks up the factory method on target.
func (s *valueOfStrategy) TryFactory(source, target reflect.Type, cfg apis.Config) (apis.Converter, bool) {
	if source == nil || target == nil || cfg.FactoryMethod == "" {
		return nil, false
	}
	key := cacheKey{source: source, target: target, method: cfg.FactoryMethod}
	return s.memo.lookup(key, func() *factory { return valueOf(source, target, cfg) })
}

func valueOf(source, target reflect.Type, cfg apis.Config) *factory {
	base, err := uref.Deref(target, cfg)
	if err != nil || base.Kind() == reflect.Interface {
		return nil
	}

	for _, recv := range []reflect.Type{base, reflect.PointerTo(base)} {
		m, ok := recv.MethodByName(cfg.FactoryMethod)
		if !ok {
			continue
		}
		ft := m.Type // receiver is In(0)
		if ft.NumIn() != 2 || ft.IsVariadic() || !source.AssignableTo(ft.In(1)) {
			continue
		}
		withErr := ft.NumOut() == 2 && ft.Out(1) == errorType
		if ft.NumOut() != 1 && !withErr {
			continue
		}
		adapt := adaptResult(ft.Out(0), target)
		if adapt == nil {
			continue
		}

		fn := m.Func
		newRecv := func() reflect.Value { return reflect.Zero(recv) }
		if recv.Kind() == reflect.Pointer {
			newRecv = func() reflect.Value { return reflect.New(base) }
		}

		return &factory{
			name:   fmt.Sprintf("%s.%s", recv, m.Name),
			source: source,
			target: target,
			call: func(in reflect.Value) (reflect.Value, error) {
				out := fn.Call([]reflect.Value{newRecv(), in})
				if withErr && !out[1].IsNil() {
					return reflect.Value{}, out[1].Interface().(error)
				}
				return adapt(out[0])
			},
		}
	}
	return nil
}
