package lowergc

import "j5.nz/wasmgc/ir"

// Layout is associated with each struct heap type: Size is the total
// byte size of an instance including the RTT header word,
// FieldOffsets[i] is the byte offset of field i from the object base.
//
// Invariants (exercised by layout_test.go):
//   - FieldOffsets[0] >= PointerSize (header reserved)
//   - FieldOffsets strictly increasing
//   - Size == FieldOffsets[last] + byteSize(lowered last field)
//
// Fields are packed back to back with no padding, so an offset is not
// necessarily aligned to its field's width (an i64 after three 4-byte
// words sits at offset 12).
type Layout struct {
	Size         int
	FieldOffsets []int
}

// arrayHeaderSize is the fixed array header: an RTT pointer at offset 0
// followed by a u32 length at offset PointerSize. This uses
// 2*PointerSize consistently rather than a fixed constant, so the
// header scales with pointer width.
func arrayHeaderSize(ptrSize int) int { return 2 * ptrSize }

// arrayElemOffset returns the byte offset of element i of an array
// instance. Array layout is fixed and not tabled: element sizes are
// consulted directly at helper-emission time rather than precomputed
// into a Layout.
func arrayElemOffset(ptrSize int, elemByteSize int, i int) int {
	return arrayHeaderSize(ptrSize) + i*elemByteSize
}

// computeStructLayouts runs the layout computer over every live struct
// heap type in m, using info's already-populated PointerSize.
// Array heap types are intentionally absent from the result (see
// arrayElemOffset).
func computeStructLayouts(m *ir.Module, info *Info) map[ir.HeapTypeID]Layout {
	out := make(map[ir.HeapTypeID]Layout)
	for _, id := range m.HeapTypes.Ids() {
		st, ok := m.HeapTypes.Get(id).(ir.StructType)
		if !ok {
			continue
		}
		out[id] = computeStructLayout(st, info)
	}
	return out
}

func computeStructLayout(st ir.StructType, info *Info) Layout {
	next := info.PointerSize // reserve header for RTT pointer
	offsets := make([]int, len(st.Fields))
	for i, f := range st.Fields {
		offsets[i] = next
		next += ir.ByteSize(info.LowerType(f.Type), info.PointerSize)
	}
	return Layout{Size: next, FieldOffsets: offsets}
}
