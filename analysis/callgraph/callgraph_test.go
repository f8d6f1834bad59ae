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

package callgraph_test

import (
	"fmt"
	"testing"

	"github.com/go-quicktest/qt"
	"github.com/google/go-cmp/cmp"

	"warpir.org/go/analysis/callgraph"
	"warpir.org/go/ir"
)

// ops and funcs are compared by identity; their fields are unexported.
var (
	opIdentity   = cmp.Comparer(func(a, b *ir.Op) bool { return a == b })
	funcIdentity = cmp.Comparer(func(a, b *ir.Func) bool { return a == b })
)

// buildModule creates one function per name and one call op per edge,
// in the order given.
func buildModule(funcs []string, calls [][2]string) *ir.Module {
	mod := ir.NewModule()
	for _, name := range funcs {
		mod.AddFunc(name)
	}
	for _, c := range calls {
		mod.LookupFunc(c[0]).AddCall(c[1], nil)
	}
	return mod
}

func TestLinearChain(t *testing.T) {
	mod := buildModule(
		[]string{"a", "b", "c"},
		[][2]string{{"a", "b"}, {"b", "c"}},
	)
	g := callgraph.New[int](mod)

	qt.Assert(t, qt.Equals(g.NumFunctions(), 3))
	qt.Assert(t, qt.CmpEquals(g.Roots(), []*ir.Func{mod.LookupFunc("a")}, funcIdentity))
	qt.Assert(t, qt.IsTrue(g.IsRoot(mod.LookupFunc("a"))))
	qt.Assert(t, qt.IsFalse(g.IsRoot(mod.LookupFunc("b"))))

	var visited []string
	err := g.Walk(nil, func(f *ir.Func) {
		visited = append(visited, f.Name())
	}, callgraph.PreOrder, callgraph.PreOrder)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(visited, []string{"a", "b", "c"}))
}

func TestWalkOrders(t *testing.T) {
	// main calls a and b; a calls c.
	mod := buildModule(
		[]string{"main", "a", "b", "c"},
		[][2]string{{"main", "a"}, {"main", "b"}, {"a", "c"}},
	)

	testCases := []struct {
		name                 string
		edgeOrder, nodeOrder callgraph.Order
		expected             []string
	}{{
		name:      "pre pre",
		edgeOrder: callgraph.PreOrder,
		nodeOrder: callgraph.PreOrder,
		expected: []string{
			"node main", "edge main->a", "node a", "edge a->c", "node c",
			"edge main->b", "node b",
		},
	}, {
		name:      "post post",
		edgeOrder: callgraph.PostOrder,
		nodeOrder: callgraph.PostOrder,
		expected: []string{
			"node c", "edge a->c", "node a", "edge main->a",
			"node b", "edge main->b", "node main",
		},
	}, {
		name:      "pre edges post nodes",
		edgeOrder: callgraph.PreOrder,
		nodeOrder: callgraph.PostOrder,
		expected: []string{
			"edge main->a", "edge a->c", "node c", "node a",
			"edge main->b", "node b", "node main",
		},
	}, {
		name:      "post edges pre nodes",
		edgeOrder: callgraph.PostOrder,
		nodeOrder: callgraph.PreOrder,
		expected: []string{
			"node main", "node a", "node c", "edge a->c", "edge main->a",
			"node b", "edge main->b",
		},
	}}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := callgraph.New[int](mod)
			var events []string
			err := g.Walk(
				func(call *ir.Op, callee *ir.Func) {
					events = append(events, fmt.Sprintf("edge %s->%s", call.Func().Name(), callee.Name()))
				},
				func(f *ir.Func) {
					events = append(events, "node "+f.Name())
				},
				tc.edgeOrder, tc.nodeOrder,
			)
			qt.Assert(t, qt.IsNil(err))
			if diff := cmp.Diff(tc.expected, events); diff != "" {
				t.Errorf("unexpected walk events (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDirectRecursion(t *testing.T) {
	mod := buildModule(
		[]string{"main", "a"},
		[][2]string{{"main", "a"}, {"a", "a"}},
	)
	g := callgraph.New[int](mod)
	err := g.Walk(nil, nil, callgraph.PreOrder, callgraph.PreOrder)
	qt.Assert(t, qt.ErrorIs(err, callgraph.ErrRecursion))
}

func TestMutualRecursion(t *testing.T) {
	mod := buildModule(
		[]string{"main", "a", "b"},
		[][2]string{{"main", "a"}, {"a", "b"}, {"b", "a"}},
	)
	g := callgraph.New[int](mod)
	err := g.Walk(nil, nil, callgraph.PostOrder, callgraph.PostOrder)
	qt.Assert(t, qt.ErrorIs(err, callgraph.ErrRecursion))
}

func TestDiamondIsNotRecursion(t *testing.T) {
	// b and c both call d; d is reached twice but never re-entered
	// while on the stack.
	mod := buildModule(
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}},
	)
	g := callgraph.New[int](mod)

	var visited []string
	err := g.Walk(nil, func(f *ir.Func) {
		visited = append(visited, f.Name())
	}, callgraph.PreOrder, callgraph.PreOrder)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(visited, []string{"a", "b", "d", "c", "d"}))
}

func TestUnresolvedCallsAreOmitted(t *testing.T) {
	mod := buildModule(
		[]string{"main", "a"},
		[][2]string{{"main", "a"}, {"a", "extern"}},
	)
	g := callgraph.New[int](mod)

	qt.Assert(t, qt.Equals(g.NumFunctions(), 2))
	qt.Assert(t, qt.CmpEquals(g.Roots(), []*ir.Func{mod.LookupFunc("main")}, funcIdentity))

	var visited []string
	err := g.Walk(nil, func(f *ir.Func) {
		visited = append(visited, f.Name())
	}, callgraph.PreOrder, callgraph.PreOrder)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(visited, []string{"main", "a"}))
}

func TestFuncData(t *testing.T) {
	mod := buildModule([]string{"main", "a"}, [][2]string{{"main", "a"}})
	g := callgraph.New[int](mod)
	main := mod.LookupFunc("main")

	qt.Assert(t, qt.IsNil(g.FuncData(main)))

	// Lazy initialization from a walk visitor.
	err := g.Walk(nil, func(f *ir.Func) {
		if g.FuncData(f) == nil {
			n := len(f.Name())
			g.SetFuncData(f, &n)
		}
	}, callgraph.PreOrder, callgraph.PreOrder)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(*g.FuncData(main), 4))
	qt.Assert(t, qt.Equals(*g.FuncData(mod.LookupFunc("a")), 1))
}

func TestMapFunc(t *testing.T) {
	mod := buildModule(
		[]string{"main", "a"},
		[][2]string{{"main", "a"}},
	)
	g := callgraph.New[int](mod)
	main := mod.LookupFunc("main")
	old := mod.LookupFunc("a")

	payload := 42
	g.SetFuncData(old, &payload)

	// Simulate a pass cloning a into a2 and retiring a.
	clone := mod.AddFunc("a2")
	g.MapFunc(old, clone)

	qt.Assert(t, qt.Equals(*g.FuncData(clone), 42))
	qt.Assert(t, qt.IsNil(g.FuncData(old)))

	var callees []string
	err := g.Walk(func(call *ir.Op, callee *ir.Func) {
		callees = append(callees, callee.Name())
	}, nil, callgraph.PreOrder, callgraph.PreOrder)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(callees, []string{"a2"}))
	qt.Assert(t, qt.IsTrue(g.IsRoot(main)))
}

func TestMapFuncRewritesRootsAndEdges(t *testing.T) {
	mod := buildModule(
		[]string{"main", "a"},
		[][2]string{{"main", "a"}},
	)
	g := callgraph.New[int](mod)
	oldMain := mod.LookupFunc("main")

	newMain := mod.AddFunc("main2")
	g.MapFunc(oldMain, newMain)

	qt.Assert(t, qt.IsTrue(g.IsRoot(newMain)))
	qt.Assert(t, qt.IsFalse(g.IsRoot(oldMain)))

	// The outgoing edges moved with the function.
	var callees []string
	err := g.Walk(func(call *ir.Op, callee *ir.Func) {
		callees = append(callees, callee.Name())
	}, nil, callgraph.PreOrder, callgraph.PreOrder)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(callees, []string{"a"}))
}

func TestMapCall(t *testing.T) {
	mod := buildModule(
		[]string{"main", "a"},
		[][2]string{{"main", "a"}},
	)
	g := callgraph.New[int](mod)
	main := mod.LookupFunc("main")
	oldCall := main.Body()[0]

	newCall := main.AddCall("a", nil)
	g.MapCall(oldCall, newCall)

	var calls []*ir.Op
	err := g.Walk(func(call *ir.Op, callee *ir.Func) {
		calls = append(calls, call)
	}, nil, callgraph.PreOrder, callgraph.PreOrder)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.CmpEquals(calls, []*ir.Op{newCall}, opIdentity))
}
