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

// Package reduction maps a logical reduction over a distributed tensor
// onto the hardware's two-level parallelism hierarchy and computes the
// scratch memory that realization needs.
//
// A reduction along the fastest-varying axis can combine partials with
// lane-to-lane exchange inside each warp group (the fast path); any
// other axis must stage warp-group partials through memory visible to
// all participating threads (the basic path). The Helper answers, for a
// single reduce operation, which path applies and how much scratch
// memory each path needs.
package reduction

import (
	"fmt"

	"warpir.org/go/internal/mathutil"
	"warpir.org/go/ir"
	"warpir.org/go/ir/layout"
)

// A Helper is the reduction-layout analysis for one reduce operation.
// It is constructed per query, borrows the IR read-only, and is not
// mutated after construction.
type Helper struct {
	op        *ir.Op
	axis      int
	srcShape  ir.Shape
	srcLayout layout.Layout
	elemTypes []ir.ElemType
}

// New constructs the analysis for op, which must be a reduce operation.
// Every operand must share the first operand's shape and layout; a
// mismatch is recorded on the module's diagnostics list and returned as
// an error, and the operation should be treated as malformed.
func New(op *ir.Op) (*Helper, error) {
	if op.Kind() != ir.OpReduce {
		return nil, fmt.Errorf("reduction: %v is not a reduce operation", op)
	}
	operands := op.Operands()
	if len(operands) == 0 {
		return nil, op.Func().Module().Errf(op, "reduce operation has no operands")
	}

	first := operands[0].Type()
	h := &Helper{
		op:        op,
		axis:      op.Axis,
		srcShape:  first.Shape,
		srcLayout: first.Layout,
	}
	if h.axis < 0 || h.axis >= first.Shape.Rank() {
		return nil, op.Func().Module().Errf(op, "reduction axis %d out of range for shape %v", h.axis, first.Shape)
	}
	if h.srcLayout != nil {
		if r := len(h.srcLayout.ContiguityOrder()); r != first.Shape.Rank() {
			return nil, op.Func().Module().Errf(op, "layout rank %d does not match shape %v", r, first.Shape)
		}
	}

	mod := op.Func().Module()
	var err error
	for _, v := range operands {
		t := v.Type()
		h.elemTypes = append(h.elemTypes, t.Elem)
		if !slicesEqual(t.Shape, first.Shape) {
			err = mod.Errf(op, "shape mismatch: %v vs %v", t.Shape, first.Shape)
		}
		if !layout.Equal(t.Layout, first.Layout) {
			err = mod.Errf(op, "layout mismatch: %v vs %v", t.Layout, first.Layout)
		}
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

func slicesEqual(a, b ir.Shape) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SourceShape returns the common shape of the reduced operands.
func (h *Helper) SourceShape() ir.Shape { return h.srcShape }

// SourceLayout returns the common layout of the reduced operands.
func (h *Helper) SourceLayout() layout.Layout { return h.srcLayout }

// Axis returns the reduced axis.
func (h *Helper) Axis() int { return h.axis }

// IsSupportedLayout reports whether the operands' layout belongs to a
// family this analysis can drive: the structured data-parallel family
// or an accelerator-compatible one. A false result selects a fallback
// path in the caller; it is not an error.
func (h *Helper) IsSupportedLayout() bool {
	switch h.srcLayout.(type) {
	case *layout.Blocked, *layout.MMA:
		return true
	}
	return false
}

// IsFast reports whether the reduction runs on the fast path: the
// reduced axis is the fastest-varying axis of the layout, so each warp
// group combines its share of the axis with lane-to-lane exchange and
// no per-lane staging through scratch memory is needed.
func (h *Helper) IsFast() bool {
	if !h.IsSupportedLayout() {
		return false
	}
	order := h.srcLayout.ContiguityOrder()
	return len(order) > 0 && order[0] == h.axis
}

// IntraWarpSize returns the number of lanes participating along the
// reduced axis, rounded up to a power of two so a binary reduction tree
// applies unconditionally.
func (h *Helper) IntraWarpSize() int64 {
	return mathutil.NextPowerOfTwo(h.srcLayout.LanesAlong(h.axis))
}

// InterWarpSize returns the number of warp groups participating along
// the reduced axis, rounded up to a power of two.
func (h *Helper) InterWarpSize() int64 {
	return mathutil.NextPowerOfTwo(h.srcLayout.WarpGroupsAlong(h.axis))
}

// IntraWarpSizeWithUniqueData returns IntraWarpSize capped at the
// reduced axis's extent, so lanes that only hold replicated data are
// not counted when the layout over-provisions parallelism.
func (h *Helper) IntraWarpSizeWithUniqueData() int64 {
	return min(h.IntraWarpSize(), h.srcShape[h.axis])
}

// InterWarpSizeWithUniqueData returns InterWarpSize capped at the
// number of warp groups that hold distinct slices of the reduced axis.
func (h *Helper) InterWarpSizeWithUniqueData() int64 {
	unique := mathutil.CeilDiv(h.srcShape[h.axis], h.IntraWarpSizeWithUniqueData())
	return min(h.InterWarpSize(), unique)
}

// ThreadsReductionAxis returns the total hardware threads mapped onto
// the reduced axis, before uniqueness capping.
func (h *Helper) ThreadsReductionAxis() int64 {
	return h.IntraWarpSize() * h.InterWarpSize()
}

// ScratchConfigBasic returns the extents of the single flat scratch
// buffer used by the basic path: the source shape with the reduced
// extent replaced by one slot per warp group holding unique data.
func (h *Helper) ScratchConfigBasic() ir.Shape {
	cfg := h.srcShape.Clone()
	cfg[h.axis] = h.InterWarpSizeWithUniqueData()
	return cfg
}

// ScratchConfigsFast returns the extents of the two buffers used by the
// two-phase fast path: phase one holds one intra-warp partial per
// participating warp group, phase two holds the final cross-warp
// combination.
func (h *Helper) ScratchConfigsFast() []ir.Shape {
	phase1 := h.srcShape.Clone()
	phase1[h.axis] = h.InterWarpSize()
	phase2 := h.srcShape.Clone()
	phase2[h.axis] = 1
	return []ir.Shape{phase1, phase2}
}

// ScratchSizeInBytes returns the scratch memory the chosen realization
// needs: zero for a fast reduction confined to a single warp group,
// otherwise the element count of the active configuration times the
// widest operand element type. Byte alignment beyond this multiply is
// owned by the code generator.
func (h *Helper) ScratchSizeInBytes() int64 {
	var elems int64
	if h.IsFast() {
		if h.InterWarpSizeWithUniqueData() == 1 {
			return 0
		}
		for _, cfg := range h.ScratchConfigsFast() {
			elems = max(elems, cfg.NumElements())
		}
	} else {
		elems = h.ScratchConfigBasic().NumElements()
	}

	widest := 0
	for _, t := range h.elemTypes {
		if t.Size() > widest {
			widest = t.Size()
		}
	}
	return elems * int64(widest)
}
