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

package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"dirpx.dev/convx/apis"
	"dirpx.dev/convx/cache/strategy"
)

// File is the YAML shape of a configuration file. Absent keys keep their defaults.
//
//	maxUnwrap: 4
//	factoryMethod: Parse
//	cache:
//	  strategy: lru
//	  size: 256
//	  failures: false
type File struct {
	MaxUnwrap     *int      `yaml:"maxUnwrap,omitempty"`
	FactoryMethod *string   `yaml:"factoryMethod,omitempty"`
	Cache         FileCache `yaml:"cache,omitempty"`
}

// FileCache is the cache section of File.
type FileCache struct {
	Strategy string `yaml:"strategy,omitempty"`
	Size     *int   `yaml:"size,omitempty"`
	Failures *bool  `yaml:"failures,omitempty"`
}

// Options converts the file into options applied over the defaults.
func (f File) Options() ([]Option, error) {
	var opts []Option
	if f.MaxUnwrap != nil {
		opts = append(opts, WithMaxUnwrap(*f.MaxUnwrap))
	}
	if f.FactoryMethod != nil {
		opts = append(opts, WithFactoryMethod(*f.FactoryMethod))
	}
	if f.Cache.Strategy != "" {
		s, err := strategy.Parse(f.Cache.Strategy)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithCacheStrategy(s))
	}
	if f.Cache.Size != nil {
		opts = append(opts, WithCacheSize(*f.Cache.Size))
	}
	if f.Cache.Failures != nil {
		opts = append(opts, WithCacheFailures(*f.Cache.Failures))
	}
	return opts, nil
}

// Parse decodes YAML configuration data. extra options are applied after the file.
func Parse(data []byte, extra ...Option) (apis.Config, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return apis.Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	opts, err := f.Options()
	if err != nil {
		return apis.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return NewConfig(append(opts, extra...)...), nil
}

// Load reads a YAML configuration file. A missing file yields the defaults
// (with extra applied); any other read or parse error is returned.
func Load(path string, extra ...Option) (apis.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewConfig(extra...), nil
		}
		return apis.Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data, extra...)
}
