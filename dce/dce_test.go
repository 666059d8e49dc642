package dce_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"j5.nz/wasmgc/dce"
	"j5.nz/wasmgc/ir"
)

func i32() ir.Type { return ir.Num{Kind: ir.I32} }

func TestRunDropsFunctionsUnreachableFromExports(t *testing.T) {
	m := &ir.Module{}
	m.AddFunc(&ir.Func{Name: "used", Results: []ir.Type{i32()}, Body: ir.NewConstI32(1)})
	m.AddFunc(&ir.Func{Name: "unused", Results: []ir.Type{i32()}, Body: ir.NewConstI32(2)})
	m.Exports = append(m.Exports, &ir.Export{Name: "used", Kind: ir.ExportFunc, Internal: "used"})

	dce.Run(m, zap.NewNop())

	require.Len(t, m.Funcs, 1)
	assert.Equal(t, "used", m.Funcs[0].Name)
}

func TestRunKeepsFunctionsReachableThroughCalls(t *testing.T) {
	m := &ir.Module{}
	m.AddFunc(&ir.Func{Name: "leaf", Results: []ir.Type{i32()}, Body: ir.NewConstI32(1)})
	m.AddFunc(&ir.Func{Name: "root", Results: []ir.Type{i32()}, Body: ir.Call{Type: i32(), Target: "leaf"}})
	m.Exports = append(m.Exports, &ir.Export{Name: "root", Kind: ir.ExportFunc, Internal: "root"})

	dce.Run(m, zap.NewNop())

	names := map[string]bool{}
	for _, f := range m.Funcs {
		names[f.Name] = true
	}
	assert.True(t, names["root"])
	assert.True(t, names["leaf"])
}

func TestRunKeepsImportedFunctionsRegardlessOfReachability(t *testing.T) {
	m := &ir.Module{}
	m.AddFunc(&ir.Func{Name: "imported", Imported: true})

	dce.Run(m, zap.NewNop())

	require.Len(t, m.Funcs, 1)
	assert.Equal(t, "imported", m.Funcs[0].Name)
}

func TestRunDropsHeapTypesUnreachableFromSurvivingFuncs(t *testing.T) {
	m := &ir.Module{}
	used := m.HeapTypes.Add(ir.StructType{Fields: []ir.Field{{Type: i32()}}})
	unused := m.HeapTypes.Add(ir.StructType{Fields: []ir.Field{{Type: i32()}}})

	rtt := ir.RTTCanon{Type: ir.RTT{Heap: used}, Heap: used}
	body := ir.StructNewDefault{Type: ir.Ref{Heap: used}, Heap: used, RTT: rtt}
	m.AddFunc(&ir.Func{Name: "make", Results: []ir.Type{ir.Ref{Heap: used}}, Body: body})
	m.Exports = append(m.Exports, &ir.Export{Name: "make", Kind: ir.ExportFunc, Internal: "make"})

	dce.Run(m, zap.NewNop())

	assert.NotNil(t, m.HeapTypes.Get(used))
	assert.Nil(t, m.HeapTypes.Get(unused))
}
