package lowergc

import "j5.nz/wasmgc/ir"

// memPages is the fixed memory size: 256 pages of 64KiB each, 16MiB
// total. Configurable sizing is out of scope.
const memPages = 256

// synthesizeRuntime is the runtime synthesizer. It injects a linear
// memory, the mutable nextMalloc global, and the malloc function into
// m, and returns the Info the rest of the pass needs.
//
// malloc's body implements a pure bump allocator:
//
//	nextMalloc += size
//	return nextMalloc - size
//
// which never fails and never reclaims; successive calls yield
// strictly increasing, non-overlapping regions.
func synthesizeRuntime(m *ir.Module) *Info {
	info := &Info{
		PointerType: ir.Num{Kind: ir.I32},
		PointerSize: 4,
	}

	if len(m.Memories) == 0 {
		m.Memories = append(m.Memories, &ir.Memory{
			Name: "memory", MinPages: memPages, MaxPages: memPages, HasMax: true,
		})
		m.Exports = append(m.Exports, &ir.Export{Name: "memory", Kind: ir.ExportMemory, Internal: "memory"})
	}

	m.AddGlobal(&ir.Global{
		Name:    NextMallocGlobal,
		Type:    info.PointerType,
		Mutable: true,
		Init:    ir.NewConstI32(0),
	})

	sizeType := info.PointerType
	sizeLocal := ir.LocalGet{Type: sizeType, Index: 0}

	body := ir.Block{
		Type: sizeType,
		List: []ir.Expr{
			ir.GlobalSet{
				Type: ir.VoidType(),
				Name: NextMallocGlobal,
				Value: ir.BinOp{
					Type: sizeType,
					Op:   ir.Add,
					LHS:  ir.GlobalGet{Type: sizeType, Name: NextMallocGlobal},
					RHS:  sizeLocal,
				},
			},
			ir.BinOp{
				Type: sizeType,
				Op:   ir.Sub,
				LHS:  ir.GlobalGet{Type: sizeType, Name: NextMallocGlobal},
				RHS:  sizeLocal,
			},
		},
	}

	m.AddFunc(&ir.Func{
		Name:      MallocName,
		Params:    []ir.Type{sizeType},
		Results:   []ir.Type{sizeType},
		NumParams: 1,
		Locals:    []ir.Local{{Name: "size", Type: sizeType}},
		Body:      body,
	})

	return info
}
