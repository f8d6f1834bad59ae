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

package ir

import (
	"fmt"
	"io"
	"strings"
)

// A Diagnostic is an error raised against an operation. Diagnostics are
// non-fatal: they accumulate on the module, and the operation they name
// should be treated as malformed by later passes.
type Diagnostic struct {
	Op  *Op
	Msg string
}

func (d *Diagnostic) Error() string {
	if d.Op == nil {
		return d.Msg
	}
	return fmt.Sprintf("%v: %s", d.Op, d.Msg)
}

// Diagnostics is a list of diagnostics in the order they were raised.
type Diagnostics []*Diagnostic

// Err returns an error equivalent to the list, or nil if it is empty.
func (ds Diagnostics) Err() error {
	if len(ds) == 0 {
		return nil
	}
	return ds
}

func (ds Diagnostics) Error() string {
	switch len(ds) {
	case 0:
		return "no diagnostics"
	case 1:
		return ds[0].Error()
	}
	return fmt.Sprintf("%s (and %d more diagnostics)", ds[0], len(ds)-1)
}

// Print writes one line per diagnostic to w.
func (ds Diagnostics) Print(w io.Writer) {
	for _, d := range ds {
		fmt.Fprintln(w, d)
	}
}

func (ds Diagnostics) String() string {
	var b strings.Builder
	ds.Print(&b)
	return b.String()
}

// Errf records a diagnostic against op on the module's list and returns
// it as an error.
func (m *Module) Errf(op *Op, format string, args ...interface{}) error {
	d := &Diagnostic{Op: op, Msg: fmt.Sprintf(format, args...)}
	m.diags = append(m.diags, d)
	return d
}

// Diags returns the diagnostics recorded against the module so far.
func (m *Module) Diags() Diagnostics { return m.diags }
