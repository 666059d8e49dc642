// Package effects implements the base effect analyzer: given one
// expression, it yields the expression's immediate (non-recursive)
// side-effect set. The function-effects pass (funceffects) composes
// these per-node results backwards over the call graph to produce
// whole-function summaries.
package effects

import "j5.nz/wasmgc/ir"

// Set is a bitset over the effect lattice.
type Set uint32

const (
	ReadsMemory Set = 1 << iota
	WritesMemory
	ReadsGlobal
	WritesGlobal
	ReadsTable
	WritesTable
	Calls
	CallsIndirect
	MayThrow
	MayTrap
	Branches
	AccessesExternal
	ReadsLocal
	WritesLocal

	numBits
)

// Anything is the lattice's top element: "may do anything analyzable".
const Anything = numBits - 1

// Union merges two effect sets (the lattice join).
func Union(a, b Set) Set { return a | b }

// IsAnything reports whether s is (or has collapsed to) the top value.
func (s Set) IsAnything() bool { return s == Anything }

// Has reports whether every bit in mask is set in s.
func (s Set) Has(mask Set) bool { return s&mask == mask }

// FeatureFlags mirrors ir.FeatureFlags; duplicated here so the effects
// package does not need to know about full modules, only the flags
// relevant to worst-case seeding.
type FeatureFlags struct {
	Exceptions bool
	TailCall   bool
}

// OfExpr computes the immediate effect set of a single expression node,
// not recursing into children: a node's effects are the union of what
// it does itself; recursive composition across a tree is the caller's
// job (see Walker below).
func OfExpr(e ir.Expr, flags FeatureFlags) Set {
	switch v := e.(type) {
	case ir.LocalGet:
		return ReadsLocal
	case ir.LocalSet:
		return WritesLocal
	case ir.GlobalGet:
		return ReadsGlobal
	case ir.GlobalSet:
		return WritesGlobal
	case ir.Const, ir.Nop, ir.BinOp:
		return 0
	case ir.RefNull, ir.RTTCanon:
		return 0
	case ir.Load:
		return ReadsMemory | MayTrap
	case ir.Store:
		return WritesMemory | MayTrap
	case ir.Br, ir.BrIf:
		return Branches
	case ir.Block, ir.Loop, ir.If:
		return 0
	case ir.Call:
		s := Calls
		if flags.Exceptions {
			s |= MayThrow
		}
		return s
	case ir.CallIndirect:
		// An indirect call can reach any function in the table: treat
		// conservatively as the full worst case.
		_ = v
		return Anything
	case ir.StructNew, ir.StructNewDefault:
		return WritesMemory | ReadsGlobal | MayTrap // reads the malloc bump global, writes the new object
	case ir.StructGet:
		return ReadsMemory | MayTrap
	case ir.StructSet:
		return WritesMemory | MayTrap
	case ir.ArrayNew, ir.ArrayNewDefault:
		return WritesMemory | ReadsGlobal | Branches | MayTrap // contains the init loop
	case ir.ArrayGet:
		return ReadsMemory | MayTrap
	case ir.ArraySet:
		return WritesMemory | MayTrap
	case ir.Unreachable:
		return MayTrap
	default:
		// An expression shape this analyzer has no visitor for: rather
		// than abort, the conservative effect-analyzer answer is the
		// lattice top.
		return Anything
	}
}

// Walker accumulates OfExpr over a whole function body, tracking
// structural counters that must be zero at the end of a well-formed
// body (try-depth, catch-depth, a dangling "pop" marker left by a
// malformed catch). None of try/catch/pop are part of this dialect's
// Expr set, so a Walker's counters are always zero on exit; Residue
// reports that invariant explicitly so callers can assert it rather
// than assume it.
type Walker struct {
	flags     FeatureFlags
	tryDepth  int
	catchDepth int
	danglingPop bool
	effects   Set
}

func NewWalker(flags FeatureFlags) *Walker {
	return &Walker{flags: flags}
}

// Walk accumulates the effects of every node in e's body.
func (w *Walker) Walk(e ir.Expr) {
	ir.Walk(e, func(n ir.Expr) {
		w.effects = Union(w.effects, OfExpr(n, w.flags))
	})
}

// Effects returns the accumulated effect set.
func (w *Walker) Effects() Set { return w.effects }

// Residue reports whether the structural counters are all zero, i.e.
// the body was well-formed.
func (w *Walker) Residue() bool {
	return w.tryDepth == 0 && w.catchDepth == 0 && !w.danglingPop
}
