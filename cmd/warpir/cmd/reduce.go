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

	"warpir.org/go/analysis/reduction"
	"warpir.org/go/ir"
)

// newReduceCmd creates a new reduce command.
func newReduceCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reduce <program.yaml>",
		Short: "print the hardware reduction plan for every reduce op",
		Long: `reduce prints, for every reduce operation in the program, how the
reduction is realized across the parallelism hierarchy: the fast or
basic path, the lane and warp-group counts along the reduced axis,
and the scratch memory the realization needs.
`,
		RunE: mkRunE(c, runReduce),
	}
	addFuncFlag(cmd.Flags())
	return cmd
}

func runReduce(cmd *Command, args []string) error {
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
		for _, op := range f.Body() {
			if op.Kind() != ir.OpReduce {
				continue
			}
			h, err := reduction.New(op)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%v: axis=%d src=%v layout=%v\n",
				op, h.Axis(), h.SourceShape(), h.SourceLayout())
			if !h.IsSupportedLayout() {
				fmt.Fprintf(w, "  unsupported layout, caller falls back\n")
				continue
			}
			fmt.Fprintf(w, "  fast=%v intraWarp=%d interWarp=%d threads=%d\n",
				h.IsFast(), h.IntraWarpSize(), h.InterWarpSize(), h.ThreadsReductionAxis())
			if h.IsFast() {
				fmt.Fprintf(w, "  scratch=%dB configs=%v\n",
					h.ScratchSizeInBytes(), h.ScratchConfigsFast())
			} else {
				fmt.Fprintf(w, "  scratch=%dB config=%v\n",
					h.ScratchSizeInBytes(), h.ScratchConfigBasic())
			}
		}
	}
	return nil
}
