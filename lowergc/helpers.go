package lowergc

import "j5.nz/wasmgc/ir"

// emitHelpers is the helper emitter. For every live struct heap type it
// emits StructNew[/WithDefault]$T, StructGet$T$i, StructSet$T$i; for
// every live array heap type it emits ArrayNew[/WithDefault]$T,
// ArrayGet$T, ArraySet$T. Emission order isn't otherwise meaningful —
// this walks m.HeapTypes.Ids() in ascending id order, which is stable.
func emitHelpers(m *ir.Module, info *Info) {
	for _, id := range m.HeapTypes.Ids() {
		switch ht := m.HeapTypes.Get(id).(type) {
		case ir.StructType:
			emitStructHelpers(m, info, id, ht)
		case ir.ArrayType:
			emitArrayHelpers(m, info, id, ht)
		}
	}
}

func emitStructHelpers(m *ir.Module, info *Info, id ir.HeapTypeID, st ir.StructType) {
	name := info.HeapName[id]
	layout := info.Layouts[id]
	ptr := info.PointerType

	fieldTypes := make([]ir.Type, len(st.Fields))
	for i, f := range st.Fields {
		fieldTypes[i] = info.LowerType(f.Type)
	}

	for i, f := range st.Fields {
		lowered := info.LowerType(f.Type)
		offset := int32(layout.FieldOffsets[i])

		m.AddFunc(&ir.Func{
			Name:      structGetName(name, i),
			Params:    []ir.Type{ptr},
			Results:   []ir.Type{lowered},
			NumParams: 1,
			Locals:    []ir.Local{{Name: "ptr", Type: ptr}},
			Body: ir.Load{
				Type:   lowered,
				Addr:   ir.LocalGet{Type: ptr, Index: 0},
				Offset: offset,
			},
		})

		m.AddFunc(&ir.Func{
			Name:      structSetName(name, i),
			Params:    []ir.Type{ptr, lowered},
			Results:   nil,
			NumParams: 2,
			Locals:    []ir.Local{{Name: "ptr", Type: ptr}, {Name: "value", Type: lowered}},
			Body: ir.Store{
				Type: lowered,
				Addr: ir.BinOp{
					Type: ptr,
					Op:   ir.Add,
					LHS:  ir.LocalGet{Type: ptr, Index: 0},
					RHS:  ir.NewConstI32(offset),
				},
				Val: ir.LocalGet{Type: lowered, Index: 1},
			},
		})

		_ = f
	}

	// StructNew$T(F0..Fn-1, rtt) -> pointer: allocate, store rtt at
	// offset 0, invoke StructSet$T$i for each field, return pointer.
	newParams := append(append([]ir.Type{}, fieldTypes...), ptr)
	newBody := func(valueArgs func(i int) ir.Expr, ptrLocal int) ir.Expr {
		list := []ir.Expr{
			ir.LocalSet{
				Type:  ptr,
				Index: ptrLocal,
				Value: ir.Call{Type: ptr, Target: MallocName, Args: []ir.Expr{ir.NewConstI32(int32(layout.Size))}},
			},
			ir.Store{
				Type: ptr,
				Addr: ir.LocalGet{Type: ptr, Index: ptrLocal},
				Val:  valueArgs(-1), // rtt
			},
		}
		for i := range st.Fields {
			list = append(list, ir.Call{
				Type:   ir.VoidType(),
				Target: structSetName(name, i),
				Args:   []ir.Expr{ir.LocalGet{Type: ptr, Index: ptrLocal}, valueArgs(i)},
			})
		}
		list = append(list, ir.LocalGet{Type: ptr, Index: ptrLocal})
		return ir.Block{Type: ptr, List: list}
	}

	rttArgIndex := len(fieldTypes)
	ptrLocalIdx := len(newParams)
	newLocals := localsFor(fieldTypes, ptr)
	newLocals = append(newLocals, ir.Local{Name: "rtt", Type: ptr}, ir.Local{Name: "$ptr", Type: ptr})
	m.AddFunc(&ir.Func{
		Name:      structNewName(name),
		Params:    newParams,
		Results:   []ir.Type{ptr},
		NumParams: len(newParams),
		Locals:    newLocals,
		Body: newBody(func(i int) ir.Expr {
			if i == -1 {
				return ir.LocalGet{Type: ptr, Index: rttArgIndex}
			}
			return ir.LocalGet{Type: fieldTypes[i], Index: i}
		}, ptrLocalIdx),
	})

	// StructNewWithDefault$T(rtt) -> pointer: identical but fields are
	// the zero literal of their declared type.
	defaultLocals := []ir.Local{{Name: "rtt", Type: ptr}, {Name: "$ptr", Type: ptr}}
	m.AddFunc(&ir.Func{
		Name:      structNewDefaultName(name),
		Params:    []ir.Type{ptr},
		Results:   []ir.Type{ptr},
		NumParams: 1,
		Locals:    defaultLocals,
		Body: newBody(func(i int) ir.Expr {
			if i == -1 {
				return ir.LocalGet{Type: ptr, Index: 0}
			}
			return zeroValue(fieldTypes[i])
		}, 1),
	})
}

func emitArrayHelpers(m *ir.Module, info *Info, id ir.HeapTypeID, at ir.ArrayType) {
	name := info.HeapName[id]
	ptr := info.PointerType
	elem := info.LowerType(at.Elem.Type)
	elemSize := ir.ByteSize(elem, info.PointerSize)
	headerSize := arrayHeaderSize(info.PointerSize)

	// ArrayGet$T(ptr, index) -> elem
	m.AddFunc(&ir.Func{
		Name:      arrayGetName(name),
		Params:    []ir.Type{ptr, ptr},
		Results:   []ir.Type{elem},
		NumParams: 2,
		Locals:    []ir.Local{{Name: "ptr", Type: ptr}, {Name: "index", Type: ptr}},
		Body: ir.Load{
			Type: elem,
			Addr: elemAddr(ptr, headerSize, elemSize),
		},
	})

	// ArraySet$T(ptr, index, value) -> ()
	m.AddFunc(&ir.Func{
		Name:      arraySetName(name),
		Params:    []ir.Type{ptr, ptr, elem},
		NumParams: 3,
		Locals:    []ir.Local{{Name: "ptr", Type: ptr}, {Name: "index", Type: ptr}, {Name: "value", Type: elem}},
		Body: ir.Store{
			Type: elem,
			Addr: elemAddr(ptr, headerSize, elemSize),
			Val:  ir.LocalGet{Type: elem, Index: 2},
		},
	})

	// ArrayNewWithDefault$T(size, rtt) -> pointer and ArrayNew$T(init,
	// size, rtt) -> pointer, each emitted as a standalone function.
	emitArrayNew(m, info, name, elem, ptr, headerSize, true)
	emitArrayNew(m, info, name, elem, ptr, headerSize, false)
}

// elemAddr builds the address expression ptr + headerSize + index*elemSize
// shared by ArrayGet/ArraySet, reading ptr from local 0 and index from
// local 1.
func elemAddr(ptr ir.Type, headerSize, elemSize int) ir.Expr {
	offset := ir.BinOp{
		Type: ptr,
		Op:   ir.Add,
		LHS:  ir.NewConstI32(int32(headerSize)),
		RHS: ir.BinOp{
			Type: ptr,
			Op:   ir.Mul,
			LHS:  ir.LocalGet{Type: ptr, Index: 1},
			RHS:  ir.NewConstI32(int32(elemSize)),
		},
	}
	return ir.BinOp{Type: ptr, Op: ir.Add, LHS: ir.LocalGet{Type: ptr, Index: 0}, RHS: offset}
}

// emitArrayNew emits either ArrayNewWithDefault$T(size, rtt) or
// ArrayNew$T(init, size, rtt). Both allocate, write rtt at offset 0 and
// size at offset pointerSize, then loop a decrementing counter k from
// size to 0 calling ArraySet$T(ptr, k-1, value) exactly size times. The
// counter is passed to ArraySet explicitly rather than left implicit.
func emitArrayNew(m *ir.Module, info *Info, name string, elem, ptr ir.Type, headerSize int, withDefault bool) {
	var params []ir.Type
	var fname string
	var initExpr func(locals map[string]int) ir.Expr
	var sizeIdx, rttIdx int

	if withDefault {
		params = []ir.Type{ptr, ptr}
		fname = arrayNewDefaultName(name)
		sizeIdx, rttIdx = 0, 1
		initExpr = func(locals map[string]int) ir.Expr { return zeroValue(elem) }
	} else {
		params = []ir.Type{elem, ptr, ptr}
		fname = arrayNewName(name)
		sizeIdx, rttIdx = 1, 2
		initExpr = func(locals map[string]int) ir.Expr { return ir.LocalGet{Type: elem, Index: 0} }
	}

	ptrLocal := len(params)
	kLocal := ptrLocal + 1
	locals := append(localsFor(params, ptr), ir.Local{Name: "$ptr", Type: ptr}, ir.Local{Name: "$k", Type: ptr})

	loopLabel := "arraynew.loop"
	body := ir.Block{
		Type: ptr,
		List: []ir.Expr{
			ir.LocalSet{
				Type:  ptr,
				Index: ptrLocal,
				Value: ir.Call{Type: ptr, Target: MallocName, Args: []ir.Expr{
					ir.BinOp{Type: ptr, Op: ir.Add, LHS: ir.NewConstI32(int32(headerSize)),
						RHS: ir.BinOp{Type: ptr, Op: ir.Mul, LHS: ir.LocalGet{Type: ptr, Index: sizeIdx}, RHS: ir.NewConstI32(int32(ir.ByteSize(elem, info.PointerSize)))}},
				}},
			},
			ir.Store{Type: ptr, Addr: ir.LocalGet{Type: ptr, Index: ptrLocal}, Val: ir.LocalGet{Type: ptr, Index: rttIdx}},
			ir.Store{Type: ptr, Addr: ir.BinOp{Type: ptr, Op: ir.Add, LHS: ir.LocalGet{Type: ptr, Index: ptrLocal}, RHS: ir.NewConstI32(int32(info.PointerSize))}, Val: ir.LocalGet{Type: ptr, Index: sizeIdx}},
			ir.LocalSet{Type: ptr, Index: kLocal, Value: ir.LocalGet{Type: ptr, Index: sizeIdx}},
			ir.Loop{
				Type:  ir.VoidType(),
				Label: loopLabel,
				Body: ir.Block{
					Type: ir.VoidType(),
					List: []ir.Expr{
						ir.If{
							Type: ir.VoidType(),
							Cond: ir.LocalGet{Type: ptr, Index: kLocal},
							Then: ir.Block{
								Type: ir.VoidType(),
								List: []ir.Expr{
									ir.LocalSet{Type: ptr, Index: kLocal, Value: ir.BinOp{Type: ptr, Op: ir.Sub, LHS: ir.LocalGet{Type: ptr, Index: kLocal}, RHS: ir.NewConstI32(1)}},
									ir.Call{
										Type:   ir.VoidType(),
										Target: arraySetName(name),
										Args: []ir.Expr{
											ir.LocalGet{Type: ptr, Index: ptrLocal},
											ir.LocalGet{Type: ptr, Index: kLocal},
											initExpr(nil),
										},
									},
									ir.Br{Type: ir.VoidType(), Target: loopLabel},
								},
							},
						},
					},
				},
			},
			ir.LocalGet{Type: ptr, Index: ptrLocal},
		},
	}

	m.AddFunc(&ir.Func{
		Name:      fname,
		Params:    params,
		Results:   []ir.Type{ptr},
		NumParams: len(params),
		Locals:    locals,
		Body:      body,
	})
}

func localsFor(types []ir.Type, _ ir.Type) []ir.Local {
	out := make([]ir.Local, len(types))
	for i, t := range types {
		out[i] = ir.Local{Type: t}
	}
	return out
}

// zeroValue returns the zero literal of a lowered scalar type: 0 for
// every numeric kind, since reference/RTT types have already become
// the pointer integer type by the time zeroValue is called.
func zeroValue(t ir.Type) ir.Expr {
	if n, ok := t.(ir.Num); ok {
		return ir.Const{Type: n}
	}
	return ir.NewConstI32(0)
}
