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

// Package opgraph orders sets of operations by their structural
// dependencies, and extracts dependency slices around an operation.
//
// The dependency graph is never materialized: it is implicit in the
// IR's def/use edges, restricted to the operation set supplied by the
// caller. Edges leaving the set are ignored.
package opgraph

import (
	"errors"
	"fmt"

	"warpir.org/go/ir"
)

// ErrCycle reports a structural cycle in an operation set that is
// assumed acyclic by construction. It indicates an invariant violation
// upstream, not a recoverable condition.
var ErrCycle = errors.New("cycle in operation graph")

// visit states for the sort.
const (
	unseen = iota
	onStack
	done
)

// TopologicalSort reorders ops so that every operation appears after
// all operations it depends on. The input may contain several
// independent dependency trees; a single total order consistent with
// all of them is produced. Operations with no ordering constraint
// between them keep their original relative order, which makes the sort
// idempotent. Nodes reached from an earlier root are pruned rather than
// re-traversed.
//
// A cycle within the set returns an error wrapping [ErrCycle].
func TopologicalSort(ops []*ir.Op) ([]*ir.Op, error) {
	inSet := make(map[*ir.Op]bool, len(ops))
	for _, op := range ops {
		inSet[op] = true
	}

	state := make(map[*ir.Op]int, len(ops))
	sorted := make([]*ir.Op, 0, len(ops))

	// Iterative post-order DFS. A frame re-enters the stack once per
	// dependency; the second visit (state already onStack with all
	// dependencies done) emits the operation.
	type frame struct {
		op   *ir.Op
		deps []*ir.Op
		next int
	}

	for _, root := range ops {
		if state[root] != unseen {
			continue
		}
		stack := []frame{{op: root, deps: dependencies(root, inSet)}}
		state[root] = onStack
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(top.deps) {
				dep := top.deps[top.next]
				top.next++
				switch state[dep] {
				case unseen:
					state[dep] = onStack
					stack = append(stack, frame{op: dep, deps: dependencies(dep, inSet)})
				case onStack:
					return nil, fmt.Errorf("%w: %v depends on %v which is still in flight", ErrCycle, top.op, dep)
				}
				continue
			}
			state[top.op] = done
			sorted = append(sorted, top.op)
			stack = stack[:len(stack)-1]
		}
	}
	return sorted, nil
}

// dependencies returns the producers of op's operands that are members
// of the set, in operand order without duplicates.
func dependencies(op *ir.Op, inSet map[*ir.Op]bool) []*ir.Op {
	var deps []*ir.Op
	seen := map[*ir.Op]bool{}
	for _, v := range op.Operands() {
		def := v.Def()
		if def == nil || !inSet[def] || seen[def] {
			continue
		}
		seen[def] = true
		deps = append(deps, def)
	}
	return deps
}

// A Filter restricts which operations a slice traversal may enter. A
// nil Filter admits everything.
type Filter func(*ir.Op) bool

// SliceOptions configures Slice. The zero value follows every
// dependency edge in both directions.
type SliceOptions struct {
	// Backward admits producers of the current operation's operands.
	Backward Filter

	// Forward admits consumers of the current operation's results.
	Forward Filter
}

// Slice computes the transitive closure of operations reachable from op
// by following dependency edges backward (producers) and forward
// (consumers), restricted by the optional filters, and returns the
// closure ordered by [TopologicalSort].
func Slice(op *ir.Op, opts *SliceOptions) ([]*ir.Op, error) {
	if opts == nil {
		opts = &SliceOptions{}
	}
	admitBackward := opts.Backward
	if admitBackward == nil {
		admitBackward = func(*ir.Op) bool { return true }
	}
	admitForward := opts.Forward
	if admitForward == nil {
		admitForward = func(*ir.Op) bool { return true }
	}

	// Worklist closure in deterministic discovery order.
	closure := []*ir.Op{op}
	inClosure := map[*ir.Op]bool{op: true}
	for i := 0; i < len(closure); i++ {
		cur := closure[i]
		for _, v := range cur.Operands() {
			def := v.Def()
			if def == nil || inClosure[def] || !admitBackward(def) {
				continue
			}
			inClosure[def] = true
			closure = append(closure, def)
		}
		for _, res := range cur.Results() {
			for _, use := range res.Uses() {
				if inClosure[use] || !admitForward(use) {
					continue
				}
				inClosure[use] = true
				closure = append(closure, use)
			}
		}
	}
	return TopologicalSort(closure)
}
