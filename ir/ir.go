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

// Package ir defines the tensor-program intermediate representation the
// analysis packages operate on: a module of functions, each a sequence
// of operations connected by def/use edges over typed values.
//
// The representation is intentionally small. It records only what the
// analyses need: operand and result types, the structural dependency
// edges between operations, call sites with symbolic callees, and a
// per-module diagnostics list.
package ir

import "fmt"

// An OpKind classifies an operation.
type OpKind uint8

const (
	// OpGeneric covers elementwise and other operations whose internals
	// the analyses do not inspect.
	OpGeneric OpKind = iota

	// OpReduce combines one or more tensors along a single axis.
	OpReduce

	// OpCall invokes another function in the same module by name.
	OpCall

	// OpReturn terminates a function body.
	OpReturn
)

func (k OpKind) String() string {
	switch k {
	case OpGeneric:
		return "generic"
	case OpReduce:
		return "reduce"
	case OpCall:
		return "call"
	case OpReturn:
		return "return"
	}
	return fmt.Sprintf("opkind(%d)", uint8(k))
}

// A Value is a typed SSA value: either a function parameter or the
// result of an operation.
type Value struct {
	name string
	typ  Type
	def  *Op  // nil for parameters
	uses []*Op
}

// Name returns the diagnostic name of the value, e.g. "%partial".
func (v *Value) Name() string { return v.name }

// Type returns the value's tensor type.
func (v *Value) Type() Type { return v.typ }

// Def returns the operation that produces the value, or nil for a
// function parameter.
func (v *Value) Def() *Op { return v.def }

// Uses returns the operations that consume the value, in the order the
// uses were created. The caller must not modify the returned slice.
func (v *Value) Uses() []*Op { return v.uses }

// An Op is a single operation in a function body.
type Op struct {
	kind     OpKind
	name     string // mnemonic, e.g. "add", "reduce"
	fn       *Func
	operands []*Value
	results  []*Value

	// Axis is the reduced axis for OpReduce.
	Axis int

	// Callee is the symbolic callee name for OpCall.
	Callee string
}

// Kind returns the operation's classification.
func (o *Op) Kind() OpKind { return o.kind }

// Name returns the operation's mnemonic.
func (o *Op) Name() string { return o.name }

// Func returns the function whose body contains the operation.
func (o *Op) Func() *Func { return o.fn }

// Operands returns the values the operation reads. The caller must not
// modify the returned slice.
func (o *Op) Operands() []*Value { return o.operands }

// Results returns the values the operation produces. The caller must
// not modify the returned slice.
func (o *Op) Results() []*Value { return o.results }

// Result returns the i'th result.
func (o *Op) Result(i int) *Value { return o.results[i] }

// AddOperand appends an operand, maintaining use lists. The IR does not
// check that the result stays acyclic; the analyses treat a structural
// cycle as an invariant violation.
func (o *Op) AddOperand(v *Value) {
	o.operands = append(o.operands, v)
	v.uses = append(v.uses, o)
}

// ReplaceOperand replaces the i'th operand with v, maintaining use
// lists.
func (o *Op) ReplaceOperand(i int, v *Value) {
	old := o.operands[i]
	for j, use := range old.uses {
		if use == o {
			old.uses = append(old.uses[:j], old.uses[j+1:]...)
			break
		}
	}
	o.operands[i] = v
	v.uses = append(v.uses, o)
}

func (o *Op) String() string {
	if o.fn != nil {
		return fmt.Sprintf("%s.%s", o.fn.Name(), o.name)
	}
	return o.name
}

// A Func is a named function: parameters and an ordered operation body.
type Func struct {
	name   string
	mod    *Module
	params []*Value
	body   []*Op

	nvalues int // counter for generated value names
}

// Name returns the function's name, unique within its module.
func (f *Func) Name() string { return f.name }

// Module returns the module the function belongs to.
func (f *Func) Module() *Module { return f.mod }

// Params returns the function's parameter values.
func (f *Func) Params() []*Value { return f.params }

// Body returns the function's operations in program order. The caller
// must not modify the returned slice.
func (f *Func) Body() []*Op { return f.body }

// AddParam appends a parameter value of the given type. An empty name
// is replaced with a generated one.
func (f *Func) AddParam(name string, typ Type) *Value {
	v := f.newValue(name, typ, nil)
	f.params = append(f.params, v)
	return v
}

// AddOp appends an operation with the given mnemonic, result types and
// operands, maintaining def/use edges. One result value is created per
// result type.
func (f *Func) AddOp(kind OpKind, name string, results []Type, operands ...*Value) *Op {
	op := &Op{kind: kind, name: name, fn: f, operands: operands}
	for _, v := range operands {
		v.uses = append(v.uses, op)
	}
	for _, t := range results {
		op.results = append(op.results, f.newValue("", t, op))
	}
	f.body = append(f.body, op)
	return op
}

// AddReduce appends a reduction of the operands along the given axis.
// Result types are derived by dropping the reduced axis from each
// operand's shape.
func (f *Func) AddReduce(axis int, operands ...*Value) *Op {
	results := make([]Type, len(operands))
	for i, v := range operands {
		t := v.Type()
		var shape Shape
		for d, extent := range t.Shape {
			if d != axis {
				shape = append(shape, extent)
			}
		}
		results[i] = Type{Shape: shape, Elem: t.Elem, Layout: t.Layout}
	}
	op := f.AddOp(OpReduce, "reduce", results, operands...)
	op.Axis = axis
	return op
}

// AddCall appends a call to the named function.
func (f *Func) AddCall(callee string, results []Type, operands ...*Value) *Op {
	op := f.AddOp(OpCall, "call", results, operands...)
	op.Callee = callee
	return op
}

func (f *Func) newValue(name string, typ Type, def *Op) *Value {
	if name == "" {
		name = fmt.Sprintf("%%%d", f.nvalues)
	}
	f.nvalues++
	return &Value{name: name, typ: typ, def: def}
}

// A Module is a whole program unit: an ordered set of functions
// addressable by name, plus the diagnostics raised against it.
type Module struct {
	funcs  []*Func
	byName map[string]*Func
	diags  Diagnostics
}

// NewModule returns an empty module.
func NewModule() *Module {
	return &Module{byName: make(map[string]*Func)}
}

// AddFunc creates a function with the given name and adds it to the
// module. Adding a duplicate name replaces the lookup entry but keeps
// both functions in the module order; well-formed input does not do
// this.
func (m *Module) AddFunc(name string) *Func {
	f := &Func{name: name, mod: m}
	m.funcs = append(m.funcs, f)
	m.byName[name] = f
	return f
}

// Funcs returns the module's functions in definition order. The caller
// must not modify the returned slice.
func (m *Module) Funcs() []*Func { return m.funcs }

// LookupFunc resolves a symbolic function name, returning nil if the
// module defines no such function.
func (m *Module) LookupFunc(name string) *Func { return m.byName[name] }
