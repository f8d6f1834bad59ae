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

// Package callgraph builds the directed graph of functions connected by
// call edges for a whole program unit, walks it from its roots, and
// carries caller-supplied analysis data per function.
//
// The graph owns its node, edge and payload maps; the module is
// borrowed for construction and walks. Remapping mutates the owned maps
// in place and must not be interleaved with a concurrent walk.
package callgraph

import (
	"errors"
	"fmt"

	"warpir.org/go/ir"
)

// ErrRecursion reports a cycle in the call graph. Recursive programs
// are not supported by the walk; a cycle indicates an invariant
// violation upstream, not a recoverable condition.
var ErrRecursion = errors.New("recursion in call graph")

// Order selects when a visitor runs relative to the subtree it guards.
type Order uint8

const (
	PreOrder Order = iota
	PostOrder
)

// An Edge is one call site and the function it resolves to.
type Edge struct {
	Call   *ir.Op
	Callee *ir.Func
}

// A Graph is the call graph of one module, with analysis data of type T
// attached per function. It is not safe for concurrent use.
type Graph[T any] struct {
	mod   *ir.Module
	funcs []*ir.Func
	edges map[*ir.Func][]Edge
	data  map[*ir.Func]*T
	roots []*ir.Func
}

// New builds the call graph for mod. Every call site is resolved
// through the module's symbol table; call sites that do not resolve
// (external or indirect callees) are omitted from the edge set. Roots
// are the functions that no resolved call site targets.
func New[T any](mod *ir.Module) *Graph[T] {
	g := &Graph[T]{
		mod:   mod,
		edges: make(map[*ir.Func][]Edge),
		data:  make(map[*ir.Func]*T),
	}
	callee := make(map[*ir.Func]bool)
	for _, f := range mod.Funcs() {
		g.funcs = append(g.funcs, f)
		for _, op := range f.Body() {
			if op.Kind() != ir.OpCall {
				continue
			}
			target := mod.LookupFunc(op.Callee)
			if target == nil {
				continue
			}
			g.edges[f] = append(g.edges[f], Edge{Call: op, Callee: target})
			callee[target] = true
		}
	}
	for _, f := range g.funcs {
		if !callee[f] {
			g.roots = append(g.roots, f)
		}
	}
	return g
}

// Module returns the module the graph was built from.
func (g *Graph[T]) Module() *ir.Module { return g.mod }

// Roots returns the functions with no caller within the module, in
// definition order. The caller must not modify the returned slice.
func (g *Graph[T]) Roots() []*ir.Func { return g.roots }

// NumFunctions returns the number of functions in the graph.
func (g *Graph[T]) NumFunctions() int { return len(g.funcs) }

// IsRoot reports whether f has no caller within the module.
func (g *Graph[T]) IsRoot(f *ir.Func) bool {
	for _, r := range g.roots {
		if r == f {
			return true
		}
	}
	return false
}

// FuncData returns the analysis data attached to f, or nil if none has
// been attached yet, so callers can initialize lazily.
func (g *Graph[T]) FuncData(f *ir.Func) *T { return g.data[f] }

// SetFuncData attaches analysis data to f, replacing any previous data.
func (g *Graph[T]) SetFuncData(f *ir.Func, data *T) { g.data[f] = data }

// Walk traverses the graph from every root. nodeFn runs before
// (PreOrder) or after (PostOrder) a function's outgoing edges per
// nodeOrder; edgeFn runs before or after recursing into the callee per
// edgeOrder. The two orders are independent. Either visitor may be nil.
//
// A function re-entered while still on the traversal stack returns an
// error wrapping [ErrRecursion]. The walk uses an explicit stack, so
// cycle detection and visitor dispatch do not depend on host call-stack
// depth.
func (g *Graph[T]) Walk(edgeFn func(call *ir.Op, callee *ir.Func), nodeFn func(*ir.Func), edgeOrder, nodeOrder Order) error {
	if edgeFn == nil {
		edgeFn = func(*ir.Op, *ir.Func) {}
	}
	if nodeFn == nil {
		nodeFn = func(*ir.Func) {}
	}

	type frame struct {
		fn   *ir.Func
		next int   // next outgoing edge to process
		via  *Edge // edge that entered this frame, nil for roots
	}

	onStack := make(map[*ir.Func]bool)
	for _, root := range g.roots {
		stack := []frame{{fn: root}}
		onStack[root] = true
		if nodeOrder == PreOrder {
			nodeFn(root)
		}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if edges := g.edges[top.fn]; top.next < len(edges) {
				e := &edges[top.next]
				top.next++
				if onStack[e.Callee] {
					return fmt.Errorf("%w: %s re-entered via %v", ErrRecursion, e.Callee.Name(), e.Call)
				}
				if edgeOrder == PreOrder {
					edgeFn(e.Call, e.Callee)
				}
				stack = append(stack, frame{fn: e.Callee, via: e})
				onStack[e.Callee] = true
				if nodeOrder == PreOrder {
					nodeFn(e.Callee)
				}
				continue
			}
			if nodeOrder == PostOrder {
				nodeFn(top.fn)
			}
			delete(onStack, top.fn)
			if top.via != nil && edgeOrder == PostOrder {
				edgeFn(top.via.Call, top.via.Callee)
			}
			stack = stack[:len(stack)-1]
		}
	}
	return nil
}

// MapFunc rewrites every node, edge, root and payload entry referencing
// from so that it references to instead. No stale references to from
// remain when the call returns.
func (g *Graph[T]) MapFunc(from, to *ir.Func) {
	for _, edges := range g.edges {
		for i := range edges {
			if edges[i].Callee == from {
				edges[i].Callee = to
			}
		}
	}
	if edges, ok := g.edges[from]; ok {
		g.edges[to] = edges
		delete(g.edges, from)
	}
	for i, f := range g.funcs {
		if f == from {
			g.funcs[i] = to
		}
	}
	for i, r := range g.roots {
		if r == from {
			g.roots[i] = to
		}
	}
	if data, ok := g.data[from]; ok {
		g.data[to] = data
		delete(g.data, from)
	}
}

// MapCall rewrites every edge whose call site is from so that it
// records to instead.
func (g *Graph[T]) MapCall(from, to *ir.Op) {
	for _, edges := range g.edges {
		for i := range edges {
			if edges[i].Call == from {
				edges[i].Call = to
			}
		}
	}
}
