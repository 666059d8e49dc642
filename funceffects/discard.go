package funceffects

import (
	"j5.nz/wasmgc/ir"
	"j5.nz/wasmgc/passrunner"
)

// DiscardPass is the companion pass that clears opts.FuncEffects,
// used after transformations that invalidate the summary. Trivial and
// total: running it when opts.FuncEffects is already nil or empty is a
// no-op.
type DiscardPass struct{}

func (DiscardPass) Name() string { return DiscardName }

func (DiscardPass) Run(m *ir.Module, opts *passrunner.Options) error {
	opts.FuncEffects = nil
	if opts.Log != nil {
		opts.Log.Debug("discard-func-effects complete")
	}
	return nil
}
