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
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"dirpx.dev/convx/apis"
)

func newGraphCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print the converter graph edges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.newService(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer svc.Close()

			snap := svc.Snapshot()

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{
				text.FgHiCyan.Sprint("SOURCE"),
				text.FgHiCyan.Sprint("TARGET"),
				text.FgHiCyan.Sprint("CONVERTER"),
				text.FgHiCyan.Sprint("DESCRIPTION"),
			})
			for _, e := range snap.Graph.Edges() {
				t.AppendRow(table.Row{
					apis.TypeString(e.Source),
					apis.TypeString(e.Target),
					apis.NameOf(e.Registration.Converter),
					apis.DescriptionOf(e.Registration.Converter),
				})
			}
			t.AppendFooter(table.Row{"", "", "generation", snap.Generation})
			t.Render()
			return nil
		},
	}
}
