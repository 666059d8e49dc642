package lowergc

import "j5.nz/wasmgc/ir"

// Info is the process-scoped state created fresh per lower-gc
// invocation: the layouts table, the pointer type/size, and the heap
// type name table. The allocator's name is the fixed MallocName.
//
// Created once at pass start, read-only afterward — safe to share
// across the function-parallel body-rewriter phase without locking.
type Info struct {
	PointerType Type // always ir.Num{ir.I32} in this revision
	PointerSize int  // always 4; this pass asserts a 32-bit memory

	Layouts map[ir.HeapTypeID]Layout

	// HeapName resolves a heap type to the canonical name name-types
	// assigned it; captured once so helper emission and body rewriting
	// need not touch the mutable name table directly.
	HeapName map[ir.HeapTypeID]string
}

// Type is an alias kept local to lowergc so call sites read naturally
// (lowergc.Type instead of ir.Type) without re-exporting the whole ir
// package surface.
type Type = ir.Type

// LowerType maps any IR value type to its post-lowering representation.
// Reference and RTT types become the pointer type; tuples and
// signatures recurse element-wise; everything else is unchanged.
//
// LowerType is idempotent: lowering an already-lowered type returns it
// unchanged, since Num/Tuple/Sig of lowered elements are fixed points.
func (info *Info) LowerType(t ir.Type) ir.Type {
	switch v := t.(type) {
	case ir.Ref, ir.RTT:
		return info.PointerType
	case ir.Tuple:
		elems := make([]ir.Type, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = info.LowerType(e)
		}
		return ir.Tuple{Elems: elems}
	case ir.Sig:
		params := make([]ir.Type, len(v.Params))
		for i, p := range v.Params {
			params[i] = info.LowerType(p)
		}
		results := make([]ir.Type, len(v.Results))
		for i, r := range v.Results {
			results[i] = info.LowerType(r)
		}
		return ir.Sig{Params: params, Results: results}
	default:
		return t
	}
}

// LowerTypes returns a new slice holding the lowered form of each type
// in ts; ts itself is not modified.
func (info *Info) LowerTypes(ts []ir.Type) []ir.Type {
	out := make([]ir.Type, len(ts))
	for i, t := range ts {
		out[i] = info.LowerType(t)
	}
	return out
}
