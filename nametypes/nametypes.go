// Package nametypes implements the name-types precondition pass: every
// heap type must carry a stable, canonical, collision-free name before
// GC lowering runs, since the helper emitter forms helper-function
// names by embedding the heap type's name.
package nametypes

import (
	"fmt"

	"go.uber.org/zap"

	"j5.nz/wasmgc/ir"
)

// Run assigns a canonical name to every live heap type in m that does
// not already have one. Names already present (e.g. from a textual
// parse) are left untouched; anonymous heap types are named
// deterministically from their declaration index so that output is
// reproducible across runs.
func Run(m *ir.Module, log *zap.Logger) {
	seen := make(map[string]bool)
	for _, id := range m.HeapTypes.Ids() {
		if n := m.HeapTypes.Name(id); n != "" {
			seen[n] = true
		}
	}

	for _, id := range m.HeapTypes.Ids() {
		if m.HeapTypes.Name(id) != "" {
			continue
		}
		name := syntheticName(m, id)
		for seen[name] {
			name = name + "$"
		}
		seen[name] = true
		m.HeapTypes.SetName(id, name)
	}

	if log != nil {
		log.Debug("name-types complete", zap.Int("heapTypes", len(m.HeapTypes.Ids())))
	}
}

func syntheticName(m *ir.Module, id ir.HeapTypeID) string {
	switch m.HeapTypes.Get(id).(type) {
	case ir.StructType:
		return fmt.Sprintf("struct.%d", id)
	case ir.ArrayType:
		return fmt.Sprintf("array.%d", id)
	default:
		return fmt.Sprintf("type.%d", id)
	}
}
