package lowergc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"j5.nz/wasmgc/ir"
)

func newInfo() *Info {
	return &Info{
		PointerType: ir.Num{Kind: ir.I32},
		PointerSize: 4,
	}
}

func TestComputeStructLayoutReservesHeader(t *testing.T) {
	info := newInfo()
	st := ir.StructType{Fields: []ir.Field{
		{Type: ir.Num{Kind: ir.I32}},
		{Type: ir.Num{Kind: ir.I64}},
	}}

	layout := computeStructLayout(st, info)

	require.Len(t, layout.FieldOffsets, 2)
	assert.GreaterOrEqual(t, layout.FieldOffsets[0], info.PointerSize)
	assert.Less(t, layout.FieldOffsets[0], layout.FieldOffsets[1])
	assert.Equal(t, layout.FieldOffsets[1]+8, layout.Size)
}

func TestComputeStructLayoutRefFieldLowersToPointerWidth(t *testing.T) {
	info := newInfo()
	st := ir.StructType{Fields: []ir.Field{
		{Type: ir.Ref{Heap: 0, Nullable: true}},
	}}

	layout := computeStructLayout(st, info)

	assert.Equal(t, info.PointerSize, layout.FieldOffsets[0])
	assert.Equal(t, info.PointerSize*2, layout.Size)
}

func TestComputeStructLayoutsSkipsArrayTypes(t *testing.T) {
	m := &ir.Module{}
	structID := m.HeapTypes.Add(ir.StructType{Fields: []ir.Field{{Type: ir.Num{Kind: ir.I32}}}})
	m.HeapTypes.Add(ir.ArrayType{Elem: ir.Field{Type: ir.Num{Kind: ir.I32}}})

	layouts := computeStructLayouts(m, newInfo())

	assert.Len(t, layouts, 1)
	_, ok := layouts[structID]
	assert.True(t, ok)
}

// TestComputeStructLayoutMixedFieldsMatchesExpectedOffsets checks the
// whole Layout value against a hand-computed expectation in one shot,
// rather than asserting on individual offsets, so a future field-order
// or packing regression shows a full structural diff.
func TestComputeStructLayoutMixedFieldsMatchesExpectedOffsets(t *testing.T) {
	info := newInfo()
	st := ir.StructType{Fields: []ir.Field{
		{Type: ir.Num{Kind: ir.I32}},
		{Type: ir.Ref{Heap: 0, Nullable: true}},
		{Type: ir.Num{Kind: ir.I64}},
	}}

	got := computeStructLayout(st, info)
	want := Layout{
		Size:         4 + 4 + 4 + 8,
		FieldOffsets: []int{4, 8, 12},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("computeStructLayout mismatch (-want +got):\n%s", diff)
	}
}

func TestArrayHeaderSizeIsTwicePointerSize(t *testing.T) {
	assert.Equal(t, 8, arrayHeaderSize(4))
	assert.Equal(t, 16, arrayHeaderSize(8))
}

func TestArrayElemOffset(t *testing.T) {
	assert.Equal(t, 8, arrayElemOffset(4, 4, 0))
	assert.Equal(t, 12, arrayElemOffset(4, 4, 1))
	assert.Equal(t, 16, arrayElemOffset(4, 4, 2))
}
