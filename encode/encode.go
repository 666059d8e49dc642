package encode

import (
	"fmt"

	"j5.nz/wasmgc/ir"
)

// Encode serializes a fully lowered module into a binary .wasm image
// suitable for github.com/tetratelabs/wazero. Callers run it after
// lowergc.Pass; the func-effects summary is not consulted. GC-typed
// values (Ref/RTT)
// must not remain in m by this point, and the module must have exactly
// one 32-bit memory.
func Encode(m *ir.Module) ([]byte, error) {
	if len(m.Memories) != 1 {
		return nil, fmt.Errorf("encode: module must have exactly one memory, got %d", len(m.Memories))
	}
	if m.Memories[0].Index64 {
		return nil, fmt.Errorf("encode: 64-bit memories are not supported")
	}

	b := &builder{
		memMin: m.Memories[0].MinPages,
		memMax: m.Memories[0].MaxPages,
	}
	if !m.Memories[0].HasMax {
		b.memMax = b.memMin
	}

	for _, g := range m.Globals {
		vt, err := wasmType(g.Type)
		if err != nil {
			return nil, fmt.Errorf("encode: global %q: %w", g.Name, err)
		}
		val, wide, err := constValue(g.Init)
		if err != nil {
			return nil, fmt.Errorf("encode: global %q initializer: %w", g.Name, err)
		}
		b.addGlobal(g.Name, vt, g.Mutable, val, wide)
	}

	for _, f := range m.Funcs {
		params, err := typeList(f.Params)
		if err != nil {
			return nil, fmt.Errorf("encode: func %q params: %w", f.Name, err)
		}
		results, err := typeList(f.Results)
		if err != nil {
			return nil, fmt.Errorf("encode: func %q results: %w", f.Name, err)
		}
		b.addFunc(f.Name, params, results)
	}

	for _, exp := range m.Exports {
		switch exp.Kind {
		case ir.ExportFunc:
			idx, ok := b.funcIndex(exp.Internal)
			if !ok {
				return nil, fmt.Errorf("encode: export %q: unknown function %q", exp.Name, exp.Internal)
			}
			b.addExport(exp.Name, extFunc, idx)
		case ir.ExportMemory:
			b.addExport(exp.Name, extMemory, 0)
		default:
			return nil, fmt.Errorf("encode: export kind for %q is not supported by this encoder", exp.Name)
		}
	}

	for _, f := range m.Funcs {
		if f.Imported {
			return nil, fmt.Errorf("encode: imported function %q is not supported (no import section)", f.Name)
		}
		code, err := encodeFunc(b, f)
		if err != nil {
			return nil, fmt.Errorf("encode: func %q: %w", f.Name, err)
		}
		b.codes = append(b.codes, code)
	}

	return b.encode(), nil
}

func typeList(ts []ir.Type) ([]byte, error) {
	out := make([]byte, 0, len(ts))
	for _, t := range ts {
		vt, err := wasmType(t)
		if err != nil {
			return nil, err
		}
		out = append(out, vt)
	}
	return out, nil
}

// constValue extracts the immediate value of a global initializer.
// lowergc only ever synthesizes Const initializers (the heap-base
// global, i32/i64 literals); anything else reaching here means the
// module still carries an un-lowered GC initializer.
func constValue(e ir.Expr) (int64, bool, error) {
	c, ok := e.(ir.Const)
	if !ok {
		return 0, false, fmt.Errorf("unsupported initializer expression %T", e)
	}
	n, ok := c.Type.(ir.Num)
	if !ok {
		return 0, false, fmt.Errorf("unsupported initializer type %v", c.Type)
	}
	return c.I64Val, n.Kind == ir.I64, nil
}
