package lowergc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"j5.nz/wasmgc/ir"
)

func TestLowerTypeScalarUnchanged(t *testing.T) {
	info := newInfo()
	assert.Equal(t, ir.Num{Kind: ir.I64}, info.LowerType(ir.Num{Kind: ir.I64}))
}

func TestLowerTypeRefAndRTTBecomePointer(t *testing.T) {
	info := newInfo()
	assert.Equal(t, info.PointerType, info.LowerType(ir.Ref{Heap: 3, Nullable: true}))
	assert.Equal(t, info.PointerType, info.LowerType(ir.RTT{Heap: 3}))
}

func TestLowerTypeRecursesIntoTupleAndSig(t *testing.T) {
	info := newInfo()

	tup := ir.Tuple{Elems: []ir.Type{ir.Ref{Heap: 1}, ir.Num{Kind: ir.I32}}}
	lowered := info.LowerType(tup).(ir.Tuple)
	assert.Equal(t, info.PointerType, lowered.Elems[0])
	assert.Equal(t, ir.Num{Kind: ir.I32}, lowered.Elems[1])

	sig := ir.Sig{Params: []ir.Type{ir.RTT{Heap: 2}}, Results: []ir.Type{ir.Ref{Heap: 2}}}
	loweredSig := info.LowerType(sig).(ir.Sig)
	assert.Equal(t, info.PointerType, loweredSig.Params[0])
	assert.Equal(t, info.PointerType, loweredSig.Results[0])
}

func TestLowerTypeIsIdempotent(t *testing.T) {
	info := newInfo()
	once := info.LowerType(ir.Ref{Heap: 5})
	twice := info.LowerType(once)
	assert.Equal(t, once, twice)
}
