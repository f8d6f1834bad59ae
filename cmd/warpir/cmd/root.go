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

// Package cmd implements the warpir command.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"warpir.org/go/encoding/iryaml"
	"warpir.org/go/ir"
)

// A Command wraps the currently active cobra command together with the
// root, so subcommands can reach shared state.
type Command struct {
	*cobra.Command

	root *cobra.Command
}

type runFunction func(cmd *Command, args []string) error

func mkRunE(c *Command, f runFunction) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c.Command = cmd
		return f(c, args)
	}
}

// newRootCmd creates the base command when called without any
// subcommands.
func newRootCmd() *Command {
	cmd := &cobra.Command{
		Use:   "warpir",
		Short: "warpir inspects tensor programs",
		Long: `warpir loads a tensor program and prints the analyses the code
generator relies on: reduction plans, operation orderings, and the
program's call graph.

Programs are YAML files; see package warpir.org/go/encoding/iryaml
for the format.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	c := &Command{Command: cmd, root: cmd}

	for _, sub := range []*cobra.Command{
		newReduceCmd(c),
		newOrderCmd(c),
		newCallsCmd(c),
	} {
		cmd.AddCommand(sub)
	}

	return c
}

// Main runs the warpir tool and returns the code for passing to
// os.Exit.
func Main() int {
	cmd, err := New(os.Args[1:])
	if err == nil {
		err = cmd.Run()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// New returns a command for the given arguments.
func New(args []string) (*Command, error) {
	cmd := newRootCmd()
	cmd.root.SetArgs(args)
	return cmd, nil
}

// Run executes the command.
func (c *Command) Run() error {
	return c.root.Execute()
}

// SetOutput sets the destination for usage and analysis output.
func (c *Command) SetOutput(w io.Writer) {
	c.root.SetOut(w)
}

// loadModule reads and decodes the single program file named in args.
func loadModule(args []string) (*ir.Module, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expected exactly one program file, got %d arguments", len(args))
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, err
	}
	return iryaml.Decode(args[0], data)
}

// selectFuncs returns the functions to analyze: all of the module's, or
// just the one named by the --func flag.
func selectFuncs(cmd *Command, mod *ir.Module) ([]*ir.Func, error) {
	name, err := cmd.Flags().GetString(string(flagFunc))
	if err != nil {
		return nil, err
	}
	if name == "" {
		return mod.Funcs(), nil
	}
	f := mod.LookupFunc(name)
	if f == nil {
		return nil, fmt.Errorf("no func %q in program", name)
	}
	return []*ir.Func{f}, nil
}
