// Copyright 2025 The WarpIR Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"warpir.org/go/analysis/opgraph"
)

// newOrderCmd creates a new order command.
func newOrderCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order <program.yaml>",
		Short: "print a dependency-respecting order of each function body",
		Long: `order topologically sorts the operations of each function body by
their structural dependencies and prints the resulting order, one
operation per line.
`,
		RunE: mkRunE(c, runOrder),
	}
	addFuncFlag(cmd.Flags())
	return cmd
}

func runOrder(cmd *Command, args []string) error {
	mod, err := loadModule(args)
	if err != nil {
		return err
	}
	funcs, err := selectFuncs(cmd, mod)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, f := range funcs {
		sorted, err := opgraph.TopologicalSort(f.Body())
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s:\n", f.Name())
		for _, op := range sorted {
			fmt.Fprintf(w, "  %s", op.Name())
			if len(op.Results()) > 0 {
				fmt.Fprintf(w, " -> %v", op.Result(0).Type())
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}
