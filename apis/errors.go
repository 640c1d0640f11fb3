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
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrConverterDeclaration is matched by errors rejecting a converter at registration time.
	ErrConverterDeclaration = errors.New("convx: invalid converter declaration")
	// ErrNoConverterFound indicates that no registered converter produces the target type at all.
	ErrNoConverterFound = errors.New("convx: no converter produces target type")
	// ErrNoConversionPath indicates that the target type is producible, but not from the source type,
	// and no factory fallback applies.
	ErrNoConversionPath = errors.New("convx: no conversion path found")
	// ErrConversionFailed indicates that a converter or factory method failed while converting a value.
	ErrConversionFailed = errors.New("convx: conversion failed")
	// ErrNoPath is returned by Graph.ShortestPath when the target is unreachable.
	ErrNoPath = errors.New("convx: target type not reachable")
)

// DeclarationError rejects a converter whose source/target declaration is unusable.
type DeclarationError struct {
	// Converter is the display name of the rejected converter.
	Converter string
	// Reason describes what is wrong with the declaration.
	Reason string
}

// Error implements error.
func (e *DeclarationError) Error() string {
	return fmt.Sprintf("convx: invalid converter %s: %s", e.Converter, e.Reason)
}

// Is reports whether target is ErrConverterDeclaration.
func (e *DeclarationError) Is(target error) bool {
	return target == ErrConverterDeclaration
}

// ConversionError is the single error type surfaced by conversions.
// Kind is one of ErrNoConverterFound, ErrNoConversionPath or ErrConversionFailed.
type ConversionError struct {
	Source reflect.Type
	Target reflect.Type
	Kind   error
	Cause  error
}

// NewConversionError builds a ConversionError. A nil kind defaults to ErrConversionFailed.
func NewConversionError(source, target reflect.Type, kind, cause error) *ConversionError {
	if kind == nil {
		kind = ErrConversionFailed
	}
	return &ConversionError{Source: source, Target: target, Kind: kind, Cause: cause}
}

// Error implements error.
func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("%v (%s -> %s)", e.Kind, TypeString(e.Source), TypeString(e.Target))
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is / errors.As.
func (e *ConversionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// TypeString formats t for messages, tolerating nil.
func TypeString(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
