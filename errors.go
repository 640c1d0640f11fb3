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
	"errors"

	"dirpx.dev/convx/apis"
)

var (
	// ErrConverterDeclaration is matched by errors rejecting a converter at registration time.
	ErrConverterDeclaration = apis.ErrConverterDeclaration
	// ErrNoConverterFound indicates that no registered converter produces the target type.
	ErrNoConverterFound = apis.ErrNoConverterFound
	// ErrNoConversionPath indicates that the target type is producible, but not from the source type.
	ErrNoConversionPath = apis.ErrNoConversionPath
	// ErrConversionFailed indicates that a converter or factory failed while converting a value.
	ErrConversionFailed = apis.ErrConversionFailed

	// ErrClosed is returned by a Service after Close.
	ErrClosed = errors.New("convx: service closed")
	// ErrNilRegistry is raised when a builder returns a nil registry.
	ErrNilRegistry = errors.New("convx: builder returned nil registry")
	// ErrNilResolver is raised when a builder returns a nil resolver.
	ErrNilResolver = errors.New("convx: builder returned nil resolver")
)

type (
	// ConversionError is the error type returned by conversions.
	ConversionError = apis.ConversionError
	// DeclarationError is the error type returned when a converter is rejected.
	DeclarationError = apis.DeclarationError
)
