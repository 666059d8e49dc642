// Package dce implements a reachability-based dead-code-elimination
// precondition pass: drop functions unreachable from any export or
// element segment, and
// transitively drop heap types no live function, global initializer, or
// element-segment offset still references. GC lowering relies on this
// having run so it never synthesizes helpers for unreachable heap
// types.
package dce

import (
	"go.uber.org/zap"

	"j5.nz/wasmgc/ir"
)

// Run removes functions unreachable from m's exports, element segments
// and call graph,
// and heap types unreachable from any surviving function or
// module-level initializer.
func Run(m *ir.Module, log *zap.Logger) {
	liveFuncs := reachableFuncs(m)
	keep := m.Funcs[:0]
	for _, f := range m.Funcs {
		if f.Imported || liveFuncs[f.Name] {
			keep = append(keep, f)
		}
	}
	dropped := len(m.Funcs) - len(keep)
	m.Funcs = keep

	liveHeap := reachableHeapTypes(m)
	for _, id := range m.HeapTypes.Ids() {
		if !liveHeap[id] {
			m.HeapTypes.Drop(id)
		}
	}

	if log != nil {
		log.Debug("dce complete", zap.Int("funcsDropped", dropped))
	}
}

func reachableFuncs(m *ir.Module) map[string]bool {
	live := make(map[string]bool)
	var mark func(name string)
	mark = func(name string) {
		if live[name] {
			return
		}
		live[name] = true
		f := m.FuncByName(name)
		if f == nil || f.Body == nil {
			return
		}
		ir.Walk(f.Body, func(e ir.Expr) {
			if c, ok := e.(ir.Call); ok {
				mark(c.Target)
			}
		})
	}
	for _, ex := range m.Exports {
		if ex.Kind == ir.ExportFunc {
			mark(ex.Internal)
		}
	}
	for _, elem := range m.Elems {
		for _, fn := range elem.Funcs {
			mark(fn)
		}
	}
	return live
}

func reachableHeapTypes(m *ir.Module) map[ir.HeapTypeID]bool {
	live := make(map[ir.HeapTypeID]bool)
	mark := func(id ir.HeapTypeID) { live[id] = true }
	visit := func(e ir.Expr) {
		ir.Walk(e, func(n ir.Expr) {
			switch v := n.(type) {
			case ir.RefNull:
				mark(v.Heap)
			case ir.RTTCanon:
				mark(v.Heap)
			case ir.StructNew:
				mark(v.Heap)
			case ir.StructNewDefault:
				mark(v.Heap)
			case ir.StructGet:
				mark(v.Heap)
			case ir.StructSet:
				mark(v.Heap)
			case ir.ArrayNew:
				mark(v.Heap)
			case ir.ArrayNewDefault:
				mark(v.Heap)
			case ir.ArrayGet:
				mark(v.Heap)
			case ir.ArraySet:
				mark(v.Heap)
			}
		})
	}
	for _, f := range m.Funcs {
		if f.Body != nil {
			visit(f.Body)
		}
		markSig(f, mark)
	}
	for _, g := range m.Globals {
		if r, ok := g.Type.(ir.Ref); ok {
			mark(r.Heap)
		}
		if g.Init != nil {
			visit(g.Init)
		}
	}
	for _, elem := range m.Elems {
		if elem.Offset != nil {
			visit(elem.Offset)
		}
	}
	return live
}

func markSig(f *ir.Func, mark func(ir.HeapTypeID)) {
	for _, t := range f.Params {
		if r, ok := t.(ir.Ref); ok {
			mark(r.Heap)
		}
	}
	for _, t := range f.Results {
		if r, ok := t.(ir.Ref); ok {
			mark(r.Heap)
		}
	}
	for _, l := range f.Locals {
		if r, ok := l.Type.(ir.Ref); ok {
			mark(r.Heap)
		}
	}
}
