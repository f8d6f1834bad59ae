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

package ir_test

import (
	"testing"

	"github.com/go-quicktest/qt"
	"github.com/google/go-cmp/cmp"

	"warpir.org/go/ir"
	"warpir.org/go/ir/layout"
)

// ops and funcs are compared by identity; their fields are unexported.
var (
	opIdentity   = cmp.Comparer(func(a, b *ir.Op) bool { return a == b })
	funcIdentity = cmp.Comparer(func(a, b *ir.Func) bool { return a == b })
)

func testType() ir.Type {
	return ir.Type{
		Shape: ir.Shape{128, 64},
		Elem:  ir.F32,
		Layout: &layout.Blocked{
			Lanes:      []int64{1, 32},
			WarpGroups: []int64{4, 1},
			Order:      []int{1, 0},
		},
	}
}

func TestDefUseEdges(t *testing.T) {
	mod := ir.NewModule()
	f := mod.AddFunc("main")
	x := f.AddParam("x", testType())

	add := f.AddOp(ir.OpGeneric, "add", []ir.Type{testType()}, x, x)
	mul := f.AddOp(ir.OpGeneric, "mul", []ir.Type{testType()}, add.Result(0))

	qt.Assert(t, qt.IsNil(x.Def()))
	qt.Assert(t, qt.Equals(add.Result(0).Def(), add))
	qt.Assert(t, qt.CmpEquals(x.Uses(), []*ir.Op{add, add}, opIdentity))
	qt.Assert(t, qt.CmpEquals(add.Result(0).Uses(), []*ir.Op{mul}, opIdentity))
	qt.Assert(t, qt.CmpEquals(f.Body(), []*ir.Op{add, mul}, opIdentity))
}

func TestAddReduceDropsAxis(t *testing.T) {
	mod := ir.NewModule()
	f := mod.AddFunc("main")
	x := f.AddParam("x", testType())

	red := f.AddReduce(1, x)
	qt.Assert(t, qt.Equals(red.Kind(), ir.OpReduce))
	qt.Assert(t, qt.Equals(red.Axis, 1))
	qt.Assert(t, qt.DeepEquals(red.Result(0).Type().Shape, ir.Shape{128}))
	qt.Assert(t, qt.Equals(red.Result(0).Type().Elem, ir.F32))
}

func TestShape(t *testing.T) {
	s := ir.Shape{128, 64}
	qt.Assert(t, qt.Equals(s.Rank(), 2))
	qt.Assert(t, qt.Equals(s.NumElements(), int64(8192)))
	qt.Assert(t, qt.Equals(s.String(), "[128, 64]"))
	qt.Assert(t, qt.Equals(ir.Shape{}.NumElements(), int64(1)))

	c := s.Clone()
	c[0] = 1
	qt.Assert(t, qt.Equals(s[0], int64(128)))
}

func TestElemTypes(t *testing.T) {
	qt.Assert(t, qt.Equals(ir.F16.Size(), 2))
	qt.Assert(t, qt.Equals(ir.F32.Size(), 4))
	qt.Assert(t, qt.Equals(ir.I64.Size(), 8))
	qt.Assert(t, qt.Equals(ir.BF16.String(), "bf16"))

	et, ok := ir.ElemTypeByName("f32")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(et, ir.F32))

	_, ok = ir.ElemTypeByName("f8")
	qt.Assert(t, qt.IsFalse(ok))
}

func TestLookupFunc(t *testing.T) {
	mod := ir.NewModule()
	main := mod.AddFunc("main")
	helper := mod.AddFunc("helper")

	qt.Assert(t, qt.Equals(mod.LookupFunc("main"), main))
	qt.Assert(t, qt.Equals(mod.LookupFunc("helper"), helper))
	qt.Assert(t, qt.IsNil(mod.LookupFunc("missing")))
	qt.Assert(t, qt.CmpEquals(mod.Funcs(), []*ir.Func{main, helper}, funcIdentity))
}

func TestDiagnostics(t *testing.T) {
	mod := ir.NewModule()
	f := mod.AddFunc("main")
	x := f.AddParam("x", testType())
	op := f.AddOp(ir.OpGeneric, "add", []ir.Type{testType()}, x)

	qt.Assert(t, qt.IsNil(mod.Diags().Err()))

	err := mod.Errf(op, "shape mismatch: %v vs %v", ir.Shape{2}, ir.Shape{3})
	qt.Assert(t, qt.ErrorMatches(err, `main\.add: shape mismatch: \[2\] vs \[3\]`))
	qt.Assert(t, qt.HasLen(mod.Diags(), 1))
	qt.Assert(t, qt.IsNotNil(mod.Diags().Err()))
}
