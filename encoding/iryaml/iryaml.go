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

// Package iryaml decodes the textual, YAML-based form of a tensor
// program into an [ir.Module]. It is the input format of the warpir
// command and of test fixtures.
//
// A program is a map with a "funcs" list. Each function declares
// parameters and operations; operations reference values by the names
// the program assigns them, which are scoped to the function:
//
//	funcs:
//	  - name: softmax
//	    params:
//	      - name: x
//	        shape: [128, 64]
//	        elem: f32
//	        layout: {kind: blocked, lanes: [1, 32], warpGroups: [4, 1], order: [1, 0]}
//	    ops:
//	      - {op: exp, args: [x], results: [e]}
//	      - {op: reduce, axis: 1, args: [e], results: [sum]}
//	      - {op: return, args: [sum]}
package iryaml

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"warpir.org/go/ir"
	"warpir.org/go/ir/layout"
)

type programDecl struct {
	Funcs []funcDecl `yaml:"funcs"`
}

type funcDecl struct {
	Name   string      `yaml:"name"`
	Params []valueDecl `yaml:"params"`
	Ops    []opDecl    `yaml:"ops"`
}

type valueDecl struct {
	Name   string      `yaml:"name"`
	Shape  []int64     `yaml:"shape"`
	Elem   string      `yaml:"elem"`
	Layout *layoutDecl `yaml:"layout"`
}

type opDecl struct {
	Op      string      `yaml:"op"`
	Args    []string    `yaml:"args"`
	Results []string    `yaml:"results"`
	Axis    *int        `yaml:"axis"`
	Callee  string      `yaml:"callee"`
	Shape   []int64     `yaml:"shape"`
	Elem    string      `yaml:"elem"`
	Layout  *layoutDecl `yaml:"layout"`
}

type layoutDecl struct {
	Kind       string  `yaml:"kind"`
	Lanes      []int64 `yaml:"lanes"`
	WarpGroups []int64 `yaml:"warpGroups"`
	Order      []int   `yaml:"order"`
	Version    int     `yaml:"version"`
}

// Decode parses the YAML program in data and builds the corresponding
// module. The filename is used in error messages only.
func Decode(filename string, data []byte) (*ir.Module, error) {
	var prog programDecl
	if err := yaml.Unmarshal(data, &prog); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if len(prog.Funcs) == 0 {
		return nil, fmt.Errorf("%s: program declares no funcs", filename)
	}

	mod := ir.NewModule()
	for _, fd := range prog.Funcs {
		if fd.Name == "" {
			return nil, fmt.Errorf("%s: func without a name", filename)
		}
		if mod.LookupFunc(fd.Name) != nil {
			return nil, fmt.Errorf("%s: duplicate func %q", filename, fd.Name)
		}
		if err := buildFunc(mod, fd); err != nil {
			return nil, fmt.Errorf("%s: func %q: %w", filename, fd.Name, err)
		}
	}
	return mod, nil
}

func buildFunc(mod *ir.Module, fd funcDecl) error {
	f := mod.AddFunc(fd.Name)
	scope := make(map[string]*ir.Value)

	for _, pd := range fd.Params {
		if pd.Name == "" {
			return fmt.Errorf("param without a name")
		}
		typ, err := decodeType(pd.Shape, pd.Elem, pd.Layout)
		if err != nil {
			return fmt.Errorf("param %q: %w", pd.Name, err)
		}
		if _, dup := scope[pd.Name]; dup {
			return fmt.Errorf("duplicate value name %q", pd.Name)
		}
		scope[pd.Name] = f.AddParam(pd.Name, typ)
	}

	for i, od := range fd.Ops {
		if err := buildOp(f, scope, od); err != nil {
			return fmt.Errorf("op %d (%s): %w", i, od.Op, err)
		}
	}
	return nil
}

func buildOp(f *ir.Func, scope map[string]*ir.Value, od opDecl) error {
	args := make([]*ir.Value, len(od.Args))
	for i, name := range od.Args {
		v, ok := scope[name]
		if !ok {
			return fmt.Errorf("unknown value %q", name)
		}
		args[i] = v
	}

	var op *ir.Op
	switch od.Op {
	case "":
		return fmt.Errorf("missing op mnemonic")

	case "reduce":
		if od.Axis == nil {
			return fmt.Errorf("reduce requires an axis")
		}
		if len(args) == 0 {
			return fmt.Errorf("reduce requires at least one arg")
		}
		op = f.AddReduce(*od.Axis, args...)

	case "call":
		if od.Callee == "" {
			return fmt.Errorf("call requires a callee")
		}
		results, err := resultTypes(od, args)
		if err != nil {
			return err
		}
		op = f.AddCall(od.Callee, results, args...)

	case "return":
		op = f.AddOp(ir.OpReturn, "return", nil, args...)

	default:
		results, err := resultTypes(od, args)
		if err != nil {
			return err
		}
		op = f.AddOp(ir.OpGeneric, od.Op, results, args...)
	}

	if len(od.Results) != len(op.Results()) {
		return fmt.Errorf("%d result names for %d results", len(od.Results), len(op.Results()))
	}
	for i, name := range od.Results {
		if _, dup := scope[name]; dup {
			return fmt.Errorf("duplicate value name %q", name)
		}
		scope[name] = op.Result(i)
	}
	return nil
}

// resultTypes determines the result types of a generic or call
// operation: the explicit type declared on the op if present, otherwise
// the first operand's type, once per declared result name.
func resultTypes(od opDecl, args []*ir.Value) ([]ir.Type, error) {
	if len(od.Results) == 0 {
		return nil, nil
	}
	var typ ir.Type
	switch {
	case od.Shape != nil || od.Elem != "" || od.Layout != nil:
		t, err := decodeType(od.Shape, od.Elem, od.Layout)
		if err != nil {
			return nil, err
		}
		typ = t
	case len(args) > 0:
		typ = args[0].Type()
	default:
		return nil, fmt.Errorf("results need an explicit type when the op has no args")
	}
	results := make([]ir.Type, len(od.Results))
	for i := range results {
		results[i] = typ
	}
	return results, nil
}

func decodeType(shape []int64, elem string, ld *layoutDecl) (ir.Type, error) {
	var typ ir.Type
	typ.Shape = ir.Shape(shape)
	if elem == "" {
		elem = "f32"
	}
	et, ok := ir.ElemTypeByName(elem)
	if !ok {
		return typ, fmt.Errorf("unknown element type %q", elem)
	}
	typ.Elem = et
	if ld != nil {
		l, err := decodeLayout(ld)
		if err != nil {
			return typ, err
		}
		if r := len(l.ContiguityOrder()); r != len(shape) {
			return typ, fmt.Errorf("layout rank %d does not match shape rank %d", r, len(shape))
		}
		typ.Layout = l
	}
	return typ, nil
}

func decodeLayout(ld *layoutDecl) (layout.Layout, error) {
	switch ld.Kind {
	case "blocked":
		if len(ld.Lanes) != len(ld.WarpGroups) || len(ld.Lanes) != len(ld.Order) {
			return nil, fmt.Errorf("blocked layout: lanes, warpGroups and order must have equal rank")
		}
		return &layout.Blocked{
			Lanes:      ld.Lanes,
			WarpGroups: ld.WarpGroups,
			Order:      ld.Order,
		}, nil
	case "mma":
		if ld.Version == 0 {
			return nil, fmt.Errorf("mma layout requires a version")
		}
		return &layout.MMA{Version: ld.Version, WarpGroups: ld.WarpGroups}, nil
	case "shared":
		return &layout.Shared{Order: ld.Order}, nil
	case "":
		return nil, fmt.Errorf("layout without a kind")
	}
	return nil, fmt.Errorf("unknown layout kind %q", ld.Kind)
}
