// Package fixture builds small, self-contained ir.Module values used by
// the CLI driver and the integration tests. There is no textual or
// binary parser in this repository, so a fixture is the only way to
// hand either of them a module to operate on.
package fixture

import (
	"fmt"

	"j5.nz/wasmgc/ir"
)

// Default is the fixture wasmgc-opt operates on when -fixture is not
// given.
const Default = "counter-list"

// Load returns a fresh copy of the named fixture module. Every call
// builds new values, so callers are free to mutate the result (as both
// lower-gc and generate-func-effects do) without affecting other
// callers.
func Load(name string) (*ir.Module, error) {
	switch name {
	case "counter-list":
		return counterList(), nil
	default:
		return nil, fmt.Errorf("fixture: unknown fixture %q", name)
	}
}

// counterList exercises both struct and array GC operations end to
// end: makeCounter/getValue allocate and read back a one-field struct,
// makeArray/arrayGetFirst allocate and read back a three-element array
// initialized to a single repeated value, and main composes both paths
// into one i32 result so a single exported entry point is enough to
// drive a round-trip test through a Wasm runtime.
func counterList() *ir.Module {
	m := &ir.Module{}

	counterHeap := m.HeapTypes.Add(ir.StructType{
		Fields: []ir.Field{{Type: ir.Num{Kind: ir.I32}}},
	})
	arrayHeap := m.HeapTypes.Add(ir.ArrayType{
		Elem: ir.Field{Type: ir.Num{Kind: ir.I32}},
	})

	counterRef := ir.Ref{Heap: counterHeap, Nullable: false}
	arrayRef := ir.Ref{Heap: arrayHeap, Nullable: false}
	i32 := ir.Num{Kind: ir.I32}

	m.AddFunc(&ir.Func{
		Name:      "makeCounter",
		Params:    []ir.Type{i32},
		Results:   []ir.Type{counterRef},
		NumParams: 1,
		Locals:    []ir.Local{{Name: "v", Type: i32}},
		Body: ir.StructNew{
			Type:   counterRef,
			Heap:   counterHeap,
			Fields: []ir.Expr{ir.LocalGet{Type: i32, Index: 0}},
			RTT:    ir.RTTCanon{Type: ir.RTT{Heap: counterHeap}, Heap: counterHeap},
		},
	})

	m.AddFunc(&ir.Func{
		Name:      "getValue",
		Params:    []ir.Type{counterRef},
		Results:   []ir.Type{i32},
		NumParams: 1,
		Locals:    []ir.Local{{Name: "c", Type: counterRef}},
		Body: ir.StructGet{
			Type:  i32,
			Heap:  counterHeap,
			Field: 0,
			Ref:   ir.LocalGet{Type: counterRef, Index: 0},
		},
	})

	m.AddFunc(&ir.Func{
		Name:      "makeArray",
		Params:    []ir.Type{i32, i32},
		Results:   []ir.Type{arrayRef},
		NumParams: 2,
		Locals:    []ir.Local{{Name: "n", Type: i32}, {Name: "init", Type: i32}},
		Body: ir.ArrayNew{
			Type: arrayRef,
			Heap: arrayHeap,
			Init: ir.LocalGet{Type: i32, Index: 1},
			Size: ir.LocalGet{Type: i32, Index: 0},
			RTT:  ir.RTTCanon{Type: ir.RTT{Heap: arrayHeap}, Heap: arrayHeap},
		},
	})

	m.AddFunc(&ir.Func{
		Name:      "arrayGetFirst",
		Params:    []ir.Type{arrayRef},
		Results:   []ir.Type{i32},
		NumParams: 1,
		Locals:    []ir.Local{{Name: "a", Type: arrayRef}},
		Body: ir.ArrayGet{
			Type:  i32,
			Heap:  arrayHeap,
			Ref:   ir.LocalGet{Type: arrayRef, Index: 0},
			Index: ir.NewConstI32(0),
		},
	})

	m.AddFunc(&ir.Func{
		Name:      "main",
		Results:   []ir.Type{i32},
		NumParams: 0,
		Locals: []ir.Local{
			{Name: "c", Type: counterRef},
			{Name: "arr", Type: arrayRef},
			{Name: "a", Type: i32},
			{Name: "b", Type: i32},
		},
		Body: ir.Block{
			Type: i32,
			List: []ir.Expr{
				ir.LocalSet{Type: ir.VoidType(), Index: 0, Value: ir.Call{
					Type: counterRef, Target: "makeCounter", Args: []ir.Expr{ir.NewConstI32(7)},
				}},
				ir.LocalSet{Type: ir.VoidType(), Index: 1, Value: ir.Call{
					Type: arrayRef, Target: "makeArray", Args: []ir.Expr{ir.NewConstI32(3), ir.NewConstI32(9)},
				}},
				ir.LocalSet{Type: ir.VoidType(), Index: 2, Value: ir.Call{
					Type: i32, Target: "getValue", Args: []ir.Expr{ir.LocalGet{Type: counterRef, Index: 0}},
				}},
				ir.LocalSet{Type: ir.VoidType(), Index: 3, Value: ir.Call{
					Type: i32, Target: "arrayGetFirst", Args: []ir.Expr{ir.LocalGet{Type: arrayRef, Index: 1}},
				}},
				ir.BinOp{
					Type: i32, Op: ir.Add,
					LHS: ir.LocalGet{Type: i32, Index: 2},
					RHS: ir.LocalGet{Type: i32, Index: 3},
				},
			},
		},
	})

	m.Exports = append(m.Exports, &ir.Export{Name: "main", Kind: ir.ExportFunc, Internal: "main"})

	return m
}
