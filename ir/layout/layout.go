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

// Package layout defines the descriptors that record how a tensor's
// logical dimensions are distributed across the hardware parallelism
// hierarchy: warp groups, and lanes within a warp group.
//
// A layout answers axis-indexed queries only. How a layout is chosen
// for a value, and how it is lowered to addresses, is owned by other
// parts of the toolchain.
package layout

import (
	"fmt"
	"slices"
)

// A Layout describes the distribution of a tensor over warp groups and
// lanes. Implementations are immutable values.
type Layout interface {
	// LanesAlong returns the number of lanes of one warp group that are
	// laid out along the given logical axis.
	LanesAlong(axis int) int64

	// WarpGroupsAlong returns the number of warp groups laid out along
	// the given logical axis.
	WarpGroupsAlong(axis int) int64

	// ContiguityOrder returns the logical axes ordered by memory
	// contiguity, fastest-varying axis first.
	ContiguityOrder() []int

	// Equal reports whether the two layouts describe the same
	// distribution.
	Equal(Layout) bool

	fmt.Stringer
}

// Blocked is the structured data-parallel layout family: a rectangular
// tiling of lanes and warp groups over the tensor's axes.
type Blocked struct {
	// Lanes[i] is the number of lanes of a warp group along axis i.
	Lanes []int64

	// WarpGroups[i] is the number of warp groups along axis i.
	WarpGroups []int64

	// Order lists the axes by memory contiguity, fastest first.
	Order []int
}

func (l *Blocked) LanesAlong(axis int) int64      { return l.Lanes[axis] }
func (l *Blocked) WarpGroupsAlong(axis int) int64 { return l.WarpGroups[axis] }

func (l *Blocked) ContiguityOrder() []int { return l.Order }

func (l *Blocked) Equal(other Layout) bool {
	o, ok := other.(*Blocked)
	if !ok {
		return false
	}
	return slices.Equal(l.Lanes, o.Lanes) &&
		slices.Equal(l.WarpGroups, o.WarpGroups) &&
		slices.Equal(l.Order, o.Order)
}

func (l *Blocked) String() string {
	return fmt.Sprintf("blocked<lanes=%v, warpGroups=%v, order=%v>",
		l.Lanes, l.WarpGroups, l.Order)
}

// MMA is the matrix-accelerator-compatible layout family. The lane
// arrangement within a warp group is fixed by the accelerator tile for
// a given hardware generation; only the warp group tiling varies.
type MMA struct {
	// Version selects the accelerator generation and with it the fixed
	// per-warp-group lane tile.
	Version int

	// WarpGroups[i] is the number of warp groups along axis i.
	WarpGroups []int64
}

// mmaLaneTiles is the fixed (rows, cols) lane tile per accelerator
// generation.
var mmaLaneTiles = map[int][2]int64{
	1: {4, 8},
	2: {8, 4},
}

func (l *MMA) LanesAlong(axis int) int64 {
	tile, ok := mmaLaneTiles[l.Version]
	if !ok || axis < 0 || axis > 1 {
		return 1
	}
	return tile[axis]
}

func (l *MMA) WarpGroupsAlong(axis int) int64 { return l.WarpGroups[axis] }

// ContiguityOrder for accelerator layouts is row-major: the last axis
// is fastest-varying.
func (l *MMA) ContiguityOrder() []int {
	order := make([]int, len(l.WarpGroups))
	for i := range order {
		order[i] = len(order) - 1 - i
	}
	return order
}

func (l *MMA) Equal(other Layout) bool {
	o, ok := other.(*MMA)
	if !ok {
		return false
	}
	return l.Version == o.Version && slices.Equal(l.WarpGroups, o.WarpGroups)
}

func (l *MMA) String() string {
	return fmt.Sprintf("mma<version=%d, warpGroups=%v>", l.Version, l.WarpGroups)
}

// Shared marks a value staged in memory visible to all warp groups. It
// is not a distributed layout: analyses that plan hardware reductions
// treat it as unsupported.
type Shared struct {
	// Order lists the axes by memory contiguity, fastest first.
	Order []int
}

func (l *Shared) LanesAlong(axis int) int64      { return 1 }
func (l *Shared) WarpGroupsAlong(axis int) int64 { return 1 }

func (l *Shared) ContiguityOrder() []int { return l.Order }

func (l *Shared) Equal(other Layout) bool {
	o, ok := other.(*Shared)
	if !ok {
		return false
	}
	return slices.Equal(l.Order, o.Order)
}

func (l *Shared) String() string {
	return fmt.Sprintf("shared<order=%v>", l.Order)
}

// Equal reports whether a and b describe the same distribution. Either
// may be nil; two nil layouts are equal.
func Equal(a, b Layout) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}
