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

package strategy_test

import (
	"errors"
	"fmt"
	"net"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/convx/apis"
	"dirpx.dev/convx/config"
	"dirpx.dev/convx/strategy"
)

// Celsius has a value-receiver factory.
type Celsius float64

func (Celsius) ValueOf(f Fahrenheit) Celsius { return Celsius((float64(f) - 32) * 5 / 9) }

type Fahrenheit float64

// Version has a pointer-receiver factory that can fail.
type Version struct{ Major, Minor int }

var errBadVersion = errors.New("bad version")

func (*Version) ValueOf(s string) (*Version, error) {
	major, minor, ok := strings.Cut(s, ".")
	if !ok {
		return nil, errBadVersion
	}
	a, err := strconv.Atoi(major)
	if err != nil {
		return nil, err
	}
	b, err := strconv.Atoi(minor)
	if err != nil {
		return nil, err
	}
	return &Version{Major: a, Minor: b}, nil
}

// Parse is an alternative factory name.
func (Version) Parse(n int) Version { return Version{Major: n} }

// Wrong has a ValueOf with an unusable signature.
type Wrong struct{}

func (Wrong) ValueOf(a, b string) Wrong { return Wrong{} }

// Color implements encoding.TextUnmarshaler and encoding.BinaryUnmarshaler.
type Color struct{ R, G, B uint8 }

func (c *Color) UnmarshalText(b []byte) error {
	_, err := fmt.Sscanf(string(b), "#%02x%02x%02x", &c.R, &c.G, &c.B)
	return err
}

func (c *Color) UnmarshalBinary(b []byte) error {
	if len(b) != 3 {
		return errors.New("need 3 bytes")
	}
	c.R, c.G, c.B = b[0], b[1], b[2]
	return nil
}

type Hex string

var (
	tString = reflect.TypeFor[string]()
	tBytes  = reflect.TypeFor[[]byte]()
)

func TestValueOfStrategy(t *testing.T) {
	s := strategy.NewValueOfStrategy()
	cfg := config.NewConfig()

	t.Run("value receiver", func(t *testing.T) {
		c, ok := s.TryFactory(reflect.TypeFor[Fahrenheit](), reflect.TypeFor[Celsius](), cfg)
		require.True(t, ok)
		out, err := c.Convert(Fahrenheit(212))
		require.NoError(t, err)
		assert.Equal(t, Celsius(100), out)
	})

	t.Run("pointer receiver dereferenced", func(t *testing.T) {
		c, ok := s.TryFactory(tString, reflect.TypeFor[Version](), cfg)
		require.True(t, ok)
		out, err := c.Convert("1.2")
		require.NoError(t, err)
		assert.Equal(t, Version{Major: 1, Minor: 2}, out)
	})

	t.Run("pointer target", func(t *testing.T) {
		c, ok := s.TryFactory(tString, reflect.TypeFor[*Version](), cfg)
		require.True(t, ok)
		out, err := c.Convert("3.4")
		require.NoError(t, err)
		assert.Equal(t, &Version{Major: 3, Minor: 4}, out)
	})

	t.Run("factory error", func(t *testing.T) {
		c, ok := s.TryFactory(tString, reflect.TypeFor[Version](), cfg)
		require.True(t, ok)
		_, err := c.Convert("nope")
		assert.ErrorIs(t, err, errBadVersion)
	})

	t.Run("custom method name", func(t *testing.T) {
		c, ok := s.TryFactory(reflect.TypeFor[int](), reflect.TypeFor[*Version](), config.NewConfig(config.WithFactoryMethod("Parse")))
		require.True(t, ok)
		out, err := c.Convert(7)
		require.NoError(t, err)
		assert.Equal(t, &Version{Major: 7}, out)
	})

	misses := []struct {
		name           string
		source, target reflect.Type
		cfg            apis.Config
	}{
		{"parameter mismatch", reflect.TypeFor[int](), reflect.TypeFor[Celsius](), cfg},
		{"bad signature", tString, reflect.TypeFor[Wrong](), cfg},
		{"no method", tString, reflect.TypeFor[Color](), cfg},
		{"interface target", tString, reflect.TypeFor[error](), cfg},
		{"disabled", tString, reflect.TypeFor[Version](), config.NewConfig(config.WithFactoryMethod(""))},
		{"nil types", nil, nil, cfg},
	}
	for _, tt := range misses {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := s.TryFactory(tt.source, tt.target, tt.cfg)
			assert.False(t, ok)
			assert.Nil(t, c)
		})
	}
}

func TestTextStrategy(t *testing.T) {
	s := strategy.NewTextStrategy()
	cfg := config.NewConfig()

	for _, source := range []reflect.Type{tString, tBytes, reflect.TypeFor[Hex]()} {
		t.Run(source.String(), func(t *testing.T) {
			c, ok := s.TryFactory(source, reflect.TypeFor[Color](), cfg)
			require.True(t, ok)

			in := reflect.ValueOf("#ff8000").Convert(source).Interface()
			out, err := c.Convert(in)
			require.NoError(t, err)
			assert.Equal(t, Color{R: 0xff, G: 0x80}, out)
		})
	}

	t.Run("pointer target", func(t *testing.T) {
		c, ok := s.TryFactory(tString, reflect.TypeFor[*Color](), cfg)
		require.True(t, ok)
		out, err := c.Convert("#000001")
		require.NoError(t, err)
		assert.Equal(t, &Color{B: 1}, out)
	})

	t.Run("stdlib type", func(t *testing.T) {
		c, ok := s.TryFactory(tString, reflect.TypeFor[net.IP](), cfg)
		require.True(t, ok)
		out, err := c.Convert("10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.1", out.(net.IP).String())
	})

	t.Run("unmarshal error", func(t *testing.T) {
		c, ok := s.TryFactory(tString, reflect.TypeFor[Color](), cfg)
		require.True(t, ok)
		_, err := c.Convert("red")
		require.Error(t, err)
	})

	t.Run("unsupported source", func(t *testing.T) {
		_, ok := s.TryFactory(reflect.TypeFor[int](), reflect.TypeFor[Color](), cfg)
		assert.False(t, ok)
	})

	t.Run("target not unmarshalable", func(t *testing.T) {
		_, ok := s.TryFactory(tString, reflect.TypeFor[Version](), cfg)
		assert.False(t, ok)
	})
}

func TestBinaryStrategy(t *testing.T) {
	s := strategy.NewBinaryStrategy()
	cfg := config.NewConfig()

	c, ok := s.TryFactory(tBytes, reflect.TypeFor[Color](), cfg)
	require.True(t, ok)
	out, err := c.Convert([]byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, Color{R: 1, G: 2, B: 3}, out)

	_, err = c.Convert([]byte{1})
	require.Error(t, err)

	_, ok = s.TryFactory(tString, reflect.TypeFor[Color](), cfg)
	assert.False(t, ok, "binary unmarshaling needs a byte slice source")
}

func TestFactoryNames(t *testing.T) {
	cfg := config.NewConfig()

	c, ok := strategy.NewValueOfStrategy().TryFactory(tString, reflect.TypeFor[Version](), cfg)
	require.True(t, ok)
	assert.Equal(t, "*strategy_test.Version.ValueOf", apis.NameOf(c))

	c, ok = strategy.NewTextStrategy().TryFactory(tString, reflect.TypeFor[Color](), cfg)
	require.True(t, ok)
	assert.Equal(t, "(*strategy_test.Color).UnmarshalText", apis.NameOf(c))
}

func TestMemoizedLookupsConcurrent(t *testing.T) {
	s := strategy.NewValueOfStrategy()
	cfg := config.NewConfig()

	workers := runtime.GOMAXPROCS(0) * 4
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c, ok := s.TryFactory(tString, reflect.TypeFor[Version](), cfg)
				if !assert.True(t, ok) {
					return
				}
				_, ok = s.TryFactory(tString, reflect.TypeFor[Wrong](), cfg)
				assert.False(t, ok)
				_, err := c.Convert("1.0")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
}
