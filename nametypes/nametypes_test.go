package nametypes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"j5.nz/wasmgc/ir"
	"j5.nz/wasmgc/nametypes"
)

func TestRunNamesUnnamedStructAndArrayTypes(t *testing.T) {
	m := &ir.Module{}
	structID := m.HeapTypes.Add(ir.StructType{Fields: []ir.Field{{Type: ir.Num{Kind: ir.I32}}}})
	arrayID := m.HeapTypes.Add(ir.ArrayType{Elem: ir.Field{Type: ir.Num{Kind: ir.I32}}})

	nametypes.Run(m, zap.NewNop())

	assert.Equal(t, "struct.0", m.HeapTypes.Name(structID))
	assert.Equal(t, "array.1", m.HeapTypes.Name(arrayID))
}

func TestRunLeavesAlreadyNamedTypesUntouched(t *testing.T) {
	m := &ir.Module{}
	id := m.HeapTypes.Add(ir.StructType{Fields: []ir.Field{{Type: ir.Num{Kind: ir.I32}}}})
	m.HeapTypes.SetName(id, "Counter")

	nametypes.Run(m, zap.NewNop())

	assert.Equal(t, "Counter", m.HeapTypes.Name(id))
}

func TestRunAvoidsNameCollisionsWithPreexistingNames(t *testing.T) {
	m := &ir.Module{}
	named := m.HeapTypes.Add(ir.StructType{Fields: []ir.Field{{Type: ir.Num{Kind: ir.I32}}}})
	m.HeapTypes.SetName(named, "struct.1")
	unnamed := m.HeapTypes.Add(ir.StructType{Fields: []ir.Field{{Type: ir.Num{Kind: ir.I32}}}})

	nametypes.Run(m, zap.NewNop())

	assert.Equal(t, "struct.1", m.HeapTypes.Name(named))
	assert.NotEqual(t, "struct.1", m.HeapTypes.Name(unnamed))
}
