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

package main

import (
	"fmt"
	"net/url"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// knownTypes are the target types addressable by name on the command line.
var knownTypes = map[string]reflect.Type{
	"string":   reflect.TypeFor[string](),
	"int":      reflect.TypeFor[int](),
	"int64":    reflect.TypeFor[int64](),
	"float64":  reflect.TypeFor[float64](),
	"bool":     reflect.TypeFor[bool](),
	"bytes":    reflect.TypeFor[[]byte](),
	"duration": reflect.TypeFor[time.Duration](),
	"time":     reflect.TypeFor[time.Time](),
	"url":      reflect.TypeFor[*url.URL](),
}

func typeNames() []string {
	names := make([]string, 0, len(knownTypes))
	for name := range knownTypes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func lookupType(name string) (reflect.Type, error) {
	t, ok := knownTypes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown type %q (known: %s)", name, strings.Join(typeNames(), ", "))
	}
	return t, nil
}

func newConvertCmd(opts *rootOptions) *cobra.Command {
	var to, via string

	cmd := &cobra.Command{
		Use:   "convert --to TYPE VALUE",
		Short: "Convert a string value to another type",
		Long: `Convert parses VALUE as a string and converts it to the type named by --to.
With --via the value is first converted to the intermediate type and the
result is converted on to --to, exercising multi-step resolution.`,
		Example: `  convx convert --to duration 1h30m
  convx convert --to string --via time 2024-03-01T12:30:00Z`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := lookupType(to)
			if err != nil {
				return err
			}

			svc, err := opts.newService(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer svc.Close()

			var v any = args[0]
			if via != "" {
				mid, err := lookupType(via)
				if err != nil {
					return err
				}
				if v, err = svc.Convert(v, mid); err != nil {
					return err
				}
			}

			out, err := svc.Convert(v, target)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), format(out))
			return err
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "target type name")
	cmd.Flags().StringVar(&via, "via", "", "intermediate type name")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func format(v any) string {
	switch x := v.(type) {
	case []byte:
		return fmt.Sprintf("%q", x)
	case nil:
		return "<nil>"
	default:
		return fmt.Sprint(x)
	}
}
