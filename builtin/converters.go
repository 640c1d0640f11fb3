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

// Package builtin provides a stock set of converters between strings and the
// common scalar types.
package builtin

import (
	"net/url"
	"strconv"
	"time"

	"dirpx.dev/convx/apis"
	"dirpx.dev/convx/converter"
)

// Registrar is satisfied by *convx.Service and apis.Registry.
type Registrar interface {
	Register(c apis.Converter) (apis.Registration, error)
}

var (
	stringToInt64 = converter.Func(func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	}).Named("builtin.ParseInt").Described("base-10 signed integer")

	stringToInt = converter.Func(strconv.Atoi).
			Named("builtin.Atoi").Described("base-10 platform int")

	stringToFloat64 = converter.Func(func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	}).Named("builtin.ParseFloat").Described("64-bit floating point")

	stringToBool = converter.Func(strconv.ParseBool).
			Named("builtin.ParseBool").Described("1, t, true, 0, f, false and case variants")

	stringToDuration = converter.Func(time.ParseDuration).
				Named("builtin.ParseDuration").Described("Go duration syntax such as 1h30m")

	stringToTime = converter.Func(func(s string) (time.Time, error) {
		return time.Parse(time.RFC3339Nano, s)
	}).Named("builtin.ParseTime").Described("RFC 3339 timestamp")

	stringToURL = converter.Func(url.Parse).
			Named("builtin.ParseURL").Described("URL reference")

	stringToBytes = converter.Of(func(s string) []byte { return []byte(s) }).
			Named("builtin.StringBytes").Described("raw UTF-8 bytes")

	int64ToString = converter.Of(func(i int64) string { return strconv.FormatInt(i, 10) }).
			Named("builtin.FormatInt").Described("base-10 signed integer")

	float64ToString = converter.Of(func(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }).
			Named("builtin.FormatFloat").Described("shortest exact representation")

	boolToString = converter.Of(strconv.FormatBool).
			Named("builtin.FormatBool").Described("true or false")

	bytesToString = converter.Of(func(b []byte) string { return string(b) }).
			Named("builtin.BytesString").Described("bytes as UTF-8 text")

	durationToString = converter.Of(time.Duration.String).
				Named("builtin.FormatDuration").Described("Go duration syntax such as 1h30m0s")

	timeToString = converter.Of(func(t time.Time) string { return t.Format(time.RFC3339Nano) }).
			Named("builtin.FormatTime").Described("RFC 3339 timestamp")
)

// Converters returns the stock converters. The instances are shared, so
// Unregister with any returned value removes it from the registry it was added to.
func Converters() []apis.Converter {
	return []apis.Converter{
		stringToInt64,
		stringToInt,
		stringToFloat64,
		stringToBool,
		stringToDuration,
		stringToTime,
		stringToURL,
		stringToBytes,
		int64ToString,
		float64ToString,
		boolToString,
		bytesToString,
		durationToString,
		timeToString,
	}
}

// Register adds every stock converter to r.
func Register(r Registrar) error {
	for _, c := range Converters() {
		if _, err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
