package lowergc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"j5.nz/wasmgc/fixture"
	"j5.nz/wasmgc/ir"
	"j5.nz/wasmgc/lowergc"
	"j5.nz/wasmgc/passrunner"
)

func runLowerGC(t *testing.T, m *ir.Module) *passrunner.Options {
	t.Helper()
	runner := passrunner.New()
	runner.Opts.Log = zap.NewNop()
	require.NoError(t, runner.Run(m, &lowergc.Pass{}))
	return runner.Opts
}

func TestLowerGCRemovesAllRefAndRTTTypes(t *testing.T) {
	m, err := fixture.Load("counter-list")
	require.NoError(t, err)

	runLowerGC(t, m)

	for _, f := range m.Funcs {
		for _, p := range f.Params {
			assert.False(t, ir.IsRefOrRTT(p), "func %s param still typed Ref/RTT", f.Name)
		}
		for _, r := range f.Results {
			assert.False(t, ir.IsRefOrRTT(r), "func %s result still typed Ref/RTT", f.Name)
		}
		for _, l := range f.Locals {
			assert.False(t, ir.IsRefOrRTT(l.Type), "func %s local %s still typed Ref/RTT", f.Name, l.Name)
		}
		if f.Body == nil {
			continue
		}
		ir.Walk(f.Body, func(e ir.Expr) {
			switch e.(type) {
			case ir.StructNew, ir.StructNewDefault, ir.StructGet, ir.StructSet,
				ir.ArrayNew, ir.ArrayNewDefault, ir.ArrayGet, ir.ArraySet,
				ir.RefNull, ir.RTTCanon:
				t.Errorf("func %s still contains a GC op node %T after lowering", f.Name, e)
			}
		})
	}
}

func TestLowerGCSynthesizesMallocAndMemory(t *testing.T) {
	m, err := fixture.Load("counter-list")
	require.NoError(t, err)

	runLowerGC(t, m)

	require.Len(t, m.Memories, 1)
	assert.False(t, m.Memories[0].Index64)
	assert.NotNil(t, m.FuncByName("malloc"))

	var found bool
	for _, g := range m.Globals {
		if g.Name == "nextMalloc" {
			found = true
		}
	}
	assert.True(t, found, "expected a nextMalloc global")
}

func TestLowerGCEmitsNamedHelpers(t *testing.T) {
	m, err := fixture.Load("counter-list")
	require.NoError(t, err)

	runLowerGC(t, m)

	names := make(map[string]bool, len(m.Funcs))
	for _, f := range m.Funcs {
		names[f.Name] = true
	}

	// struct.0 and array.1 are the synthetic names name-types assigns
	// the first two (and only) anonymous heap types in this fixture.
	for _, n := range []string{
		"StructNew$struct.0",
		"StructGet$struct.0$0",
		"StructSet$struct.0$0",
		"ArrayNew$array.1",
		"ArrayNewWithDefault$array.1",
		"ArrayGet$array.1",
		"ArraySet$array.1",
	} {
		assert.True(t, names[n], "expected helper %q to be emitted", n)
	}
}

// TestLowerGCStructSetWritesToItsOwnFieldOffset guards against
// StructSet$T$i writing to the struct's base address instead of
// ptr+FieldOffsets[i]: without the offset, every field setter would
// clobber the RTT header word regardless of which field it targets.
func TestLowerGCStructSetWritesToItsOwnFieldOffset(t *testing.T) {
	m, err := fixture.Load("counter-list")
	require.NoError(t, err)

	runLowerGC(t, m)

	f := m.FuncByName("StructSet$struct.0$0")
	require.NotNil(t, f, "expected StructSet$struct.0$0 to be emitted")

	store, ok := f.Body.(ir.Store)
	require.True(t, ok, "StructSet body should be a single ir.Store, got %T", f.Body)

	addr, ok := store.Addr.(ir.BinOp)
	require.True(t, ok, "StructSet address should add the field offset to ptr, got %T", store.Addr)
	assert.Equal(t, ir.Add, addr.Op)

	offsetConst, ok := addr.RHS.(ir.Const)
	require.True(t, ok, "StructSet address RHS should be a constant field offset, got %T", addr.RHS)
	assert.NotZero(t, offsetConst.I64Val, "field 0 of a struct with a pointer-width RTT header must not offset to 0 (the header slot)")
}

func TestLowerGCRejects64BitMemory(t *testing.T) {
	m, err := fixture.Load("counter-list")
	require.NoError(t, err)
	m.Memories = append(m.Memories, &ir.Memory{Name: "mem64", Index64: true})

	runner := passrunner.New()
	runner.Opts.Log = zap.NewNop()
	err = runner.Run(m, &lowergc.Pass{})
	assert.Error(t, err)
}

func TestLowerGCIsIdempotentOnHelperBodies(t *testing.T) {
	// Re-running RunFunc over a body it has already lowered (including
	// the helper bodies synthesized in Prepare) must be a no-op: lowered
	// bodies contain no GC nodes and LowerType is idempotent.
	m, err := fixture.Load("counter-list")
	require.NoError(t, err)

	pass := &lowergc.Pass{}
	runner := passrunner.New()
	runner.Opts.Log = zap.NewNop()
	require.NoError(t, pass.Prepare(m, runner.Opts))

	for _, f := range m.Funcs {
		if f.Imported {
			continue
		}
		require.NoError(t, pass.RunFunc(m, f, runner.Opts))
		once := f.Body
		// Re-running again must not error or panic on already-lowered
		// code, and must leave the body as the first run left it.
		require.NoError(t, pass.RunFunc(m, f, runner.Opts))
		assert.Equal(t, once, f.Body, "func %s changed on a second RunFunc", f.Name)
	}
}
