// Package passrunner is the pass-runner contract: a module (read-write)
// and a handle that exposes a function-parallel scheduler, a nestable
// sub-runner for composing preconditions, a shared Options object
// carrying the func-effects summary map, and feature flags consulted
// by the effect analyzer.
//
// It is deliberately small: a full pass driver (sequencing arbitrary
// named passes, CLI wiring, pass pipelines) is out of scope; this
// package supplies just enough of it for lowergc and funceffects to
// register themselves as named passes and run their preconditions.
package passrunner

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"j5.nz/wasmgc/effects"
	"j5.nz/wasmgc/ir"
)

// Options is the shared, whole-run state every pass reads and some
// passes (funceffects, its companion discard pass) write.
type Options struct {
	// FuncEffects holds the function-effects summary map published by
	// generate-func-effects. A missing entry means "worst case"
	// (equivalent to effects.Anything).
	FuncEffects map[string]effects.Set

	Features effects.FeatureFlags

	Log *zap.Logger
}

// NewOptions returns zero-valued Options with a no-op logger.
func NewOptions() *Options {
	return &Options{
		FuncEffects: nil,
		Log:         zap.NewNop(),
	}
}

// Pass is a single named whole-module transformation.
type Pass interface {
	Name() string
	Run(m *ir.Module, opts *Options) error
}

// FuncParallelPass is a Pass whose per-function work is safe to run
// concurrently across functions, once any whole-module preparation
// (Prepare) has completed single-threaded. lowergc's body-rewrite
// phase implements this.
type FuncParallelPass interface {
	Pass
	// Prepare performs the single-threaded, whole-module setup that
	// must complete before RunFunc may be called concurrently.
	Prepare(m *ir.Module, opts *Options) error
	// RunFunc transforms one function. Safe to call concurrently for
	// distinct functions once Prepare has returned.
	RunFunc(m *ir.Module, f *ir.Func, opts *Options) error
}

// Runner sequences named passes over a module, and exposes a nestable
// sub-runner for composing preconditions.
type Runner struct {
	Opts *Options
}

// New returns a Runner with fresh Options.
func New() *Runner {
	return &Runner{Opts: NewOptions()}
}

// Sub returns a nested Runner sharing this Runner's Options, for a
// pass that invokes other passes without exposing its own pass list to
// the caller. lower-gc does not use it: it calls nametypes.Run and
// dce.Run directly.
func (r *Runner) Sub() *Runner {
	return &Runner{Opts: r.Opts}
}

// Run executes p against m. Any error aborts; no partial rewriting
// should be published by a pass that returns an error — passes are
// responsible for that themselves (lowergc's phases are ordered so a
// precondition failure happens before any module mutation).
func (r *Runner) Run(m *ir.Module, p Pass) error {
	if err := p.Run(m, r.Opts); err != nil {
		return errors.Wrapf(err, "pass %q failed", p.Name())
	}
	return nil
}

// RunFuncParallel runs p's Prepare phase single-threaded, then fans
// RunFunc out across every defined function, one goroutine per
// function. Imported functions have no body and are skipped.
func (r *Runner) RunFuncParallel(m *ir.Module, p FuncParallelPass) error {
	if err := p.Prepare(m, r.Opts); err != nil {
		return errors.Wrapf(err, "pass %q prepare failed", p.Name())
	}

	type result struct {
		name string
		err  error
	}
	results := make(chan result, len(m.Funcs))
	pending := 0
	for _, f := range m.Funcs {
		if f.Imported {
			continue
		}
		pending++
		go func(f *ir.Func) {
			results <- result{f.Name, p.RunFunc(m, f, r.Opts)}
		}(f)
	}
	var firstErr error
	for i := 0; i < pending; i++ {
		res := <-results
		if res.err != nil && firstErr == nil {
			firstErr = errors.Wrapf(res.err, "pass %q: function %q", p.Name(), res.name)
		}
	}
	return firstErr
}
