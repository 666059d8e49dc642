package encode

import (
	"fmt"

	"j5.nz/wasmgc/ir"
)

// funcGen encodes one function body. labelStack tracks active
// block/loop labels so Br/BrIf can compute a relative depth.
type funcGen struct {
	b          *builder
	code       []byte
	labelStack []string
}

func wasmType(t ir.Type) (byte, error) {
	n, ok := t.(ir.Num)
	if !ok {
		return 0, fmt.Errorf("encode: non-scalar type %v reached the encoder; the module must be fully lowered", t)
	}
	switch n.Kind {
	case ir.I32:
		return typeI32, nil
	case ir.I64:
		return typeI64, nil
	default:
		return 0, fmt.Errorf("encode: unsupported numeric kind %v", n.Kind)
	}
}

func blockType(t ir.Type) (byte, error) {
	if tup, ok := t.(ir.Tuple); ok && len(tup.Elems) == 0 {
		return typeVoid, nil
	}
	return wasmType(t)
}

func encodeFunc(b *builder, f *ir.Func) ([]byte, error) {
	g := &funcGen{b: b}

	var code []byte
	// Local declarations: one run-length group per type, for the
	// non-parameter locals (params are implicit locals 0..NumParams-1
	// and are not redeclared).
	extra := f.Locals[f.NumParams:]
	groups, err := groupLocals(extra)
	if err != nil {
		return nil, err
	}
	code = appendULEB128(code, uint32(len(groups)))
	for _, gr := range groups {
		code = appendULEB128(code, gr.count)
		code = append(code, gr.valType)
	}

	if f.Body != nil {
		if err := g.emit(f.Body); err != nil {
			return nil, err
		}
		code = append(code, g.code...)
	}
	code = append(code, opEnd)
	return code, nil
}

type localGroup struct {
	count   uint32
	valType byte
}

func groupLocals(locals []ir.Local) ([]localGroup, error) {
	var groups []localGroup
	for _, l := range locals {
		vt, err := wasmType(l.Type)
		if err != nil {
			return nil, err
		}
		if len(groups) > 0 && groups[len(groups)-1].valType == vt {
			groups[len(groups)-1].count++
		} else {
			groups = append(groups, localGroup{count: 1, valType: vt})
		}
	}
	return groups, nil
}

func (g *funcGen) op(b byte)    { g.code = append(g.code, b) }
func (g *funcGen) u32(v uint32) { g.code = appendULEB128(g.code, v) }
func (g *funcGen) s32(v int32)  { g.code = appendSLEB128(g.code, v) }
func (g *funcGen) s64(v int64)  { g.code = appendSLEB128_64(g.code, v) }

func (g *funcGen) depthOf(label string) (uint32, bool) {
	for i := len(g.labelStack) - 1; i >= 0; i-- {
		if g.labelStack[i] == label {
			return uint32(len(g.labelStack) - 1 - i), true
		}
	}
	return 0, false
}

func (g *funcGen) emit(e ir.Expr) error {
	switch v := e.(type) {
	case ir.Block:
		bt, err := blockType(v.Type)
		if err != nil {
			return err
		}
		g.op(opBlock)
		g.op(bt)
		g.labelStack = append(g.labelStack, v.Label)
		for _, c := range v.List {
			if err := g.emit(c); err != nil {
				return err
			}
		}
		g.labelStack = g.labelStack[:len(g.labelStack)-1]
		g.op(opEnd)
		return nil

	case ir.Loop:
		bt, err := blockType(v.Type)
		if err != nil {
			return err
		}
		g.op(opLoop)
		g.op(bt)
		g.labelStack = append(g.labelStack, v.Label)
		if err := g.emit(v.Body); err != nil {
			return err
		}
		g.labelStack = g.labelStack[:len(g.labelStack)-1]
		g.op(opEnd)
		return nil

	case ir.If:
		if err := g.emit(v.Cond); err != nil {
			return err
		}
		bt, err := blockType(v.Type)
		if err != nil {
			return err
		}
		g.op(opIf)
		g.op(bt)
		g.labelStack = append(g.labelStack, "")
		if err := g.emit(v.Then); err != nil {
			return err
		}
		if v.Else != nil {
			g.op(opElse)
			if err := g.emit(v.Else); err != nil {
				return err
			}
		}
		g.labelStack = g.labelStack[:len(g.labelStack)-1]
		g.op(opEnd)
		return nil

	case ir.Br:
		depth, ok := g.depthOf(v.Target)
		if !ok {
			return fmt.Errorf("encode: br to unknown label %q", v.Target)
		}
		g.op(opBr)
		g.u32(depth)
		return nil

	case ir.BrIf:
		if err := g.emit(v.Cond); err != nil {
			return err
		}
		depth, ok := g.depthOf(v.Target)
		if !ok {
			return fmt.Errorf("encode: br_if to unknown label %q", v.Target)
		}
		g.op(opBrIf)
		g.u32(depth)
		return nil

	case ir.LocalGet:
		g.op(opLocalGet)
		g.u32(uint32(v.Index))
		return nil

	case ir.LocalSet:
		if err := g.emit(v.Value); err != nil {
			return err
		}
		if v.IsTee {
			g.op(opLocalTee)
		} else {
			g.op(opLocalSet)
		}
		g.u32(uint32(v.Index))
		return nil

	case ir.GlobalGet:
		g.op(opGlobalGet)
		g.u32(g.globalIndex(v.Name))
		return nil

	case ir.GlobalSet:
		if err := g.emit(v.Value); err != nil {
			return err
		}
		g.op(opGlobalSet)
		g.u32(g.globalIndex(v.Name))
		return nil

	case ir.Const:
		n := v.Type.(ir.Num)
		if n.Kind == ir.I64 {
			g.op(opI64Const)
			g.s64(v.I64Val)
		} else {
			g.op(opI32Const)
			g.s32(int32(v.I64Val))
		}
		return nil

	case ir.Call:
		for _, a := range v.Args {
			if err := g.emit(a); err != nil {
				return err
			}
		}
		idx, ok := g.b.funcIndex(v.Target)
		if !ok {
			return fmt.Errorf("encode: call to unknown function %q", v.Target)
		}
		if v.Return {
			g.op(opReturnCall)
		} else {
			g.op(opCall)
		}
		g.u32(idx)
		return nil

	case ir.CallIndirect:
		return fmt.Errorf("encode: call_indirect is not supported by this encoder (no table/element sections); lower it before encoding")

	case ir.Load:
		if err := g.emit(v.Addr); err != nil {
			return err
		}
		vt, err := wasmType(v.Type)
		if err != nil {
			return err
		}
		if vt == typeI64 {
			g.op(opI64Load)
		} else {
			g.op(opI32Load)
		}
		g.u32(2) // alignment hint
		g.u32(uint32(v.Offset))
		return nil

	case ir.Store:
		if err := g.emit(v.Addr); err != nil {
			return err
		}
		if err := g.emit(v.Val); err != nil {
			return err
		}
		vt, err := wasmType(v.Type)
		if err != nil {
			return err
		}
		if vt == typeI64 {
			g.op(opI64Store)
		} else {
			g.op(opI32Store)
		}
		g.u32(2)
		g.u32(0)
		return nil

	case ir.BinOp:
		if err := g.emit(v.LHS); err != nil {
			return err
		}
		if err := g.emit(v.RHS); err != nil {
			return err
		}
		wide := false
		if n, ok := v.Type.(ir.Num); ok {
			wide = n.Kind == ir.I64
		}
		g.op(binOpcode(v.Op, wide))
		return nil

	case ir.Unreachable:
		g.op(opUnreachable)
		return nil

	case ir.Nop:
		return nil

	default:
		return fmt.Errorf("encode: cannot encode expression of type %T (module not fully lowered?)", e)
	}
}

func binOpcode(op ir.BinOpKind, wide bool) byte {
	switch op {
	case ir.Add:
		if wide {
			return opI64Add
		}
		return opI32Add
	case ir.Sub:
		if wide {
			return opI64Sub
		}
		return opI32Sub
	default:
		if wide {
			return opI64Mul
		}
		return opI32Mul
	}
}

// globalIndex resolves a global name to its module-relative index.
// Populated by the top-level Encode call via b.globalNames before any
// function body is encoded.
func (g *funcGen) globalIndex(name string) uint32 {
	for i, n := range g.b.globalNames {
		if n == name {
			return uint32(i)
		}
	}
	return 0
}
