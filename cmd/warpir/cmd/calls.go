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

	"warpir.org/go/analysis/callgraph"
	"warpir.org/go/ir"
)

// newCallsCmd creates a new calls command.
func newCallsCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calls <program.yaml>",
		Short: "print the program's call graph",
		Long: `calls builds the call graph of the program and prints its roots and
edges in pre-order. Recursive programs are rejected.
`,
		RunE: mkRunE(c, runCalls),
	}
	return cmd
}

func runCalls(cmd *Command, args []string) error {
	mod, err := loadModule(args)
	if err != nil {
		return err
	}
	g := callgraph.New[struct{}](mod)

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "functions: %d\n", g.NumFunctions())
	for _, root := range g.Roots() {
		fmt.Fprintf(w, "root: %s\n", root.Name())
	}
	return g.Walk(
		func(call *ir.Op, callee *ir.Func) {
			fmt.Fprintf(w, "%s -> %s\n", call.Func().Name(), callee.Name())
		},
		nil,
		callgraph.PreOrder, callgraph.PreOrder,
	)
}
