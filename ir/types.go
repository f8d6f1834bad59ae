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
	"strings"

	"warpir.org/go/internal/mathutil"
	"warpir.org/go/ir/layout"
)

// A Shape is the ordered sequence of dimension extents of a tensor value.
type Shape []int64

// Rank returns the number of dimensions.
func (s Shape) Rank() int { return len(s) }

// NumElements returns the product of all extents. The empty shape
// denotes a scalar and has one element.
func (s Shape) NumElements() int64 {
	return mathutil.Product(s)
}

// Clone returns a copy of s that does not alias the original.
func (s Shape) Clone() Shape {
	c := make(Shape, len(s))
	copy(c, s)
	return c
}

func (s Shape) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, d := range s {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d", d)
	}
	b.WriteByte(']')
	return b.String()
}

// An ElemType identifies the scalar element type of a tensor value.
type ElemType uint8

const (
	I1 ElemType = iota
	I8
	I16
	I32
	I64
	F16
	BF16
	F32
	F64
)

var elemTypeSizes = [...]int{
	I1:   1,
	I8:   1,
	I16:  2,
	I32:  4,
	I64:  8,
	F16:  2,
	BF16: 2,
	F32:  4,
	F64:  8,
}

var elemTypeNames = [...]string{
	I1:   "i1",
	I8:   "i8",
	I16:  "i16",
	I32:  "i32",
	I64:  "i64",
	F16:  "f16",
	BF16: "bf16",
	F32:  "f32",
	F64:  "f64",
}

// Size returns the storage size of the element type in bytes.
func (t ElemType) Size() int { return elemTypeSizes[t] }

func (t ElemType) String() string {
	if int(t) < len(elemTypeNames) {
		return elemTypeNames[t]
	}
	return fmt.Sprintf("elemtype(%d)", uint8(t))
}

// ElemTypeByName maps a textual element type name, as used in program
// files, to its ElemType. The second result is false for unknown names.
func ElemTypeByName(name string) (ElemType, bool) {
	for t, n := range elemTypeNames {
		if n == name {
			return ElemType(t), true
		}
	}
	return 0, false
}

// A Type describes a distributed tensor value: its logical shape, its
// element type, and the layout that distributes it over the hardware's
// parallelism hierarchy. A nil Layout denotes an undistributed value.
type Type struct {
	Shape  Shape
	Elem   ElemType
	Layout layout.Layout
}

func (t Type) String() string {
	if t.Layout == nil {
		return fmt.Sprintf("tensor<%v, %v>", t.Shape, t.Elem)
	}
	return fmt.Sprintf("tensor<%v, %v, %v>", t.Shape, t.Elem, t.Layout)
}
