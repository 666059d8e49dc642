// Package lowergc implements the GC lowering pass: a whole-module
// transformation that removes every reference-typed value and GC
// instruction from an ir.Module, replacing them with linear-memory
// layouts, a bump allocator, and a family of generated helper
// functions a plain-Wasm consumer can execute.
package lowergc

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"j5.nz/wasmgc/dce"
	"j5.nz/wasmgc/ir"
	"j5.nz/wasmgc/nametypes"
	"j5.nz/wasmgc/passrunner"
)

// Name is the pass-runner name this pass registers under.
const Name = "lower-gc"

// Pass implements passrunner.FuncParallelPass: Prepare runs type
// lowering, layout computation, runtime synthesis, and helper emission
// single-threaded; RunFunc runs the body rewriter per function — safe
// to run concurrently across functions once Prepare has returned,
// since layouts/helpers/the allocator are immutable by that point.
type Pass struct {
	info *Info
}

func (*Pass) Name() string { return Name }

// Run executes the whole pass: Prepare (preconditions, helper emission
// and the module-level initializer sweep), then every function body.
// Most callers
// should use this rather than driving Prepare/RunFunc directly; the
// passrunner.FuncParallelPass methods exist so a Runner can schedule
// body rewriting concurrently via RunFuncParallel.
func (p *Pass) Run(m *ir.Module, opts *passrunner.Options) error {
	sub := &passrunner.Runner{Opts: opts}
	return sub.RunFuncParallel(m, p)
}

// Prepare runs the single-threaded preparatory phase: preconditions
// (name-types, dce), then runtime synthesis, layout computation, helper
// emission. It also rewrites module-level initializer expressions
// (global initializers and element-segment offsets aren't function
// bodies, so they're never visited by RunFunc).
func (p *Pass) Prepare(m *ir.Module, opts *passrunner.Options) error {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	if err := checkPreconditions(m); err != nil {
		return err
	}

	nametypes.Run(m, log)
	dce.Run(m, log)

	info := synthesizeRuntime(m)
	info.Layouts = computeStructLayouts(m, info)
	info.HeapName = make(map[ir.HeapTypeID]string)
	for _, id := range m.HeapTypes.Ids() {
		info.HeapName[id] = m.HeapTypes.Name(id)
		if info.HeapName[id] == "" {
			return errors.Errorf("lower-gc: heap type %d has no name; name-types must run first", id)
		}
	}

	warnPackedFields(m, log)

	funcsBefore := len(m.Funcs)
	emitHelpers(m, info)
	p.info = info

	if err := rewriteModuleInitializers(m, info); err != nil {
		return err
	}

	log.Info("lower-gc prepared",
		zap.Int("structTypes", len(info.Layouts)),
		zap.Int("helpersEmitted", len(m.Funcs)-funcsBefore),
	)
	return nil
}

// RunFunc rewrites one function body. Safe to call concurrently for
// distinct functions. It also runs over the helper functions just
// synthesized (they're already expressed in lowered types with no GC
// ops, so rewriting them again is a no-op; LowerType is idempotent).
func (p *Pass) RunFunc(m *ir.Module, f *ir.Func, opts *passrunner.Options) error {
	return rewriteFunc(f, p.info)
}

func checkPreconditions(m *ir.Module) error {
	for _, mem := range m.Memories {
		if mem.Index64 {
			return errors.New("lower-gc: 64-bit memory is unsupported")
		}
	}
	return nil
}

func warnPackedFields(m *ir.Module, log *zap.Logger) {
	for _, id := range m.HeapTypes.Ids() {
		st, ok := m.HeapTypes.Get(id).(ir.StructType)
		if !ok {
			continue
		}
		for i, f := range st.Fields {
			if f.Packed != 0 {
				log.Warn("packed field widened to a full slot (GC lowering does not honor packed widths)",
					zap.String("type", m.HeapTypes.Name(id)),
					zap.Int("field", i),
					zap.Int("declaredBits", f.Packed),
				)
			}
		}
	}
}

// rewriteModuleInitializers handles global initializers and
// element-segment offsets: these are expressions too, but they live
// outside any function body, so RunFunc never visits them.
func rewriteModuleInitializers(m *ir.Module, info *Info) error {
	for _, g := range m.Globals {
		g.Type = info.LowerType(g.Type)
		if g.Init == nil {
			continue
		}
		rewritten, err := rewriteExpr(g.Init, info)
		if err != nil {
			return errors.Wrapf(err, "global %q initializer", g.Name)
		}
		g.Init = rewritten
	}
	for _, e := range m.Elems {
		if e.Offset == nil {
			continue
		}
		rewritten, err := rewriteExpr(e.Offset, info)
		if err != nil {
			return errors.Wrapf(err, "element segment offset for table %q", e.Table)
		}
		e.Offset = rewritten
	}
	return nil
}
