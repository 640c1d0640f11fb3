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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"dirpx.dev/convx"
	"dirpx.dev/convx/apis"
	"dirpx.dev/convx/builtin"
	"dirpx.dev/convx/config"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (invalid arguments, bad config).
	ExitCodeError = 1
	// ExitCodeNoConverter indicates no converter or factory could serve the request.
	ExitCodeNoConverter = 2
	// ExitCodeConversionFailed indicates the converter ran and failed.
	ExitCodeConversionFailed = 3
)

type rootOptions struct {
	configPath string
	verbosity  int
}

// newRootCmd builds the command tree writing to out and err.
func newRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "convx",
		Short: "Resolve and run type conversions",
		Long: `convx loads the stock converters into a conversion service and lets you
convert values between them, inspect the converter graph and list the
types it knows about.`,
		// Errors are reported by execute with an exit code; usage would only add noise.
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetVersionTemplate(`{{printf "convx version %s\n" .Version}}`)

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", "log verbosity (repeat for more detail)")

	cmd.AddCommand(
		newConvertCmd(opts),
		newGraphCmd(opts),
		newTypesCmd(),
	)
	return cmd
}

// newService loads the config and returns a service carrying the stock converters.
func (o *rootOptions) newService(errOut io.Writer) (*convx.Service, error) {
	var cfg apis.Config
	var err error
	if o.configPath != "" {
		cfg, err = config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.DefaultConfig()
	}

	handler := slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: slog.Level(-o.verbosity)})
	log := logr.FromSlogHandler(handler)

	svc, err := convx.New(convx.WithConfig(cfg), convx.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if err := builtin.Register(svc); err != nil {
		_ = svc.Close()
		return nil, err
	}
	return svc, nil
}

func execute(args []string) int {
	cmd := newRootCmd(os.Stdout, os.Stderr)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitCode(err)
	}
	return ExitCodeSuccess
}

// exitCode maps an error to a semantic exit code for scripting.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitCodeSuccess
	case errors.Is(err, apis.ErrNoConverterFound), errors.Is(err, apis.ErrNoConversionPath):
		return ExitCodeNoConverter
	case errors.Is(err, apis.ErrConversionFailed):
		return ExitCodeConversionFailed
	default:
		return ExitCodeError
	}
}
