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
)

// Resolver finds a converter for a (source, target) pair against one graph snapshot.
// Typical chain: graph path search -> ValueOf method -> TextUnmarshaler -> BinaryUnmarshaler.
type Resolver interface {
	// Resolve returns a converter from source to target using only snap's graph.
	// Failures are *ConversionError values.
	Resolve(snap *Snapshot, source, target reflect.Type, cfg Config) (Converter, error)
}
