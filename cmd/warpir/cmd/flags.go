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

import "github.com/spf13/pflag"

type flagName string

const (
	flagFunc flagName = "func"
)

// addFuncFlag registers the shared --func selector on a subcommand's
// flag set.
func addFuncFlag(flags *pflag.FlagSet) {
	flags.StringP(string(flagFunc), "f", "", "restrict the analysis to a single function")
}
