// Package funceffects implements the function-effects summary pass: a
// per-function summary of side-effects, computed by propagating
// effects backwards along the static call graph and published as a
// shared annotation other optimization passes consult.
package funceffects

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"j5.nz/wasmgc/effects"
	"j5.nz/wasmgc/ir"
	"j5.nz/wasmgc/passrunner"
)

func errStructuralResidue(funcName string) error {
	return errors.Errorf("generate-func-effects: function %q left nonzero structural analyzer residue (try/catch/pop counters)", funcName)
}

// GenerateName and DiscardName are the pass-runner names these two
// passes register under.
const (
	GenerateName = "generate-func-effects"
	DiscardName  = "discard-func-effects"
)

// GeneratePass computes opts.FuncEffects from scratch. It runs
// single-threaded: the fixed-point propagation over the whole call
// graph has no natural per-function split.
type GeneratePass struct{}

func (GeneratePass) Name() string { return GenerateName }

func (GeneratePass) Run(m *ir.Module, opts *passrunner.Options) error {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	anything := anythingSummary(opts.Features)

	summaries := make(map[string]effects.Set, len(m.Funcs))
	graph := make(map[string][]string, len(m.Funcs))
	indirect := make(map[string]bool)

	for _, f := range m.Funcs {
		if f.Imported {
			summaries[f.Name] = anything
			continue
		}
		w := effects.NewWalker(opts.Features)
		if f.Body != nil {
			w.Walk(f.Body)
		}
		if !w.Residue() {
			return errStructuralResidue(f.Name)
		}
		summaries[f.Name] = normalize(w.Effects())

		graph[f.Name] = directCallees(f.Body)
		if hasIndirectCall(f.Body) {
			indirect[f.Name] = true
		}
	}

	for name := range indirect {
		summaries[name] = anything
	}

	propagate(summaries, graph, anything)

	opts.FuncEffects = summaries
	log.Info("generate-func-effects complete", zap.Int("functions", len(summaries)))
	return nil
}

// normalize clears the bits that are never observable to a caller:
// "contains calls" (calls are about to be propagated explicitly),
// locals read/written (never observable outside the function), and
// "branches out" (a function's own control-flow branches never escape
// it; a return_call's effect on the caller's summary is reintroduced
// by propagate via the callee's own summary, not by this bit).
func normalize(s effects.Set) effects.Set {
	return s &^ (effects.Calls | effects.CallsIndirect | effects.ReadsLocal | effects.WritesLocal | effects.Branches)
}

// anythingSummary returns the singleton `anything` summary: the lattice
// top, effects.Anything, for every combination of feature flags. It does
// not run the effect analyzer; OfExpr on a Call yields only Calls (plus
// MayThrow under the exceptions flag), which is a strict subset of the
// top.
func anythingSummary(flags effects.FeatureFlags) effects.Set {
	_ = flags // the result does not depend on flags
	return effects.Anything
}

func directCallees(body ir.Expr) []string {
	if body == nil {
		return nil
	}
	var callees []string
	ir.Walk(body, func(e ir.Expr) {
		if c, ok := e.(ir.Call); ok {
			callees = append(callees, c.Target)
		}
	})
	return callees
}

func hasIndirectCall(body ir.Expr) bool {
	if body == nil {
		return false
	}
	found := false
	ir.Walk(body, func(e ir.Expr) {
		if _, ok := e.(ir.CallIndirect); ok {
			found = true
		}
	})
	return found
}

// propagate repeatedly merges each callee's summary into its callers'
// until a fixed point: any strategy that monotonically merges until a
// sweep produces no change is correct, including on cyclic call
// graphs. This is a worklist variant: a caller is re-examined only when
// one of its direct callees' summaries changed.
func propagate(summaries map[string]effects.Set, graph map[string][]string, anything effects.Set) {
	callers := make(map[string][]string)
	for caller, callees := range graph {
		for _, callee := range callees {
			callers[callee] = append(callers[callee], caller)
		}
	}

	worklist := make([]string, 0, len(summaries))
	inQueue := make(map[string]bool, len(summaries))
	for name := range summaries {
		worklist = append(worklist, name)
		inQueue[name] = true
	}

	for len(worklist) > 0 {
		name := worklist[0]
		worklist = worklist[1:]
		inQueue[name] = false

		if summaries[name] == anything {
			continue
		}

		merged := summaries[name]
		for _, callee := range graph[name] {
			merged = effects.Union(merged, summaries[callee])
		}
		if merged == summaries[name] {
			continue
		}
		summaries[name] = merged

		for _, caller := range callers[name] {
			if !inQueue[caller] {
				worklist = append(worklist, caller)
				inQueue[caller] = true
			}
		}
	}
}
