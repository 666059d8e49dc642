package ir

// Children returns e's direct child expressions, in evaluation order.
// Leaves (Const, LocalGet, GlobalGet, RefNull, RTTCanon, Unreachable,
// Nop) return nil.
func Children(e Expr) []Expr {
	switch v := e.(type) {
	case Block:
		return v.List
	case Loop:
		return []Expr{v.Body}
	case If:
		if v.Else != nil {
			return []Expr{v.Cond, v.Then, v.Else}
		}
		return []Expr{v.Cond, v.Then}
	case Br:
		return nil
	case BrIf:
		return []Expr{v.Cond}
	case LocalSet:
		return []Expr{v.Value}
	case GlobalSet:
		return []Expr{v.Value}
	case Call:
		return v.Args
	case CallIndirect:
		return append([]Expr{v.TableIndex}, v.Args...)
	case Load:
		return []Expr{v.Addr}
	case Store:
		return []Expr{v.Addr, v.Val}
	case BinOp:
		return []Expr{v.LHS, v.RHS}
	case StructNew:
		return append(append([]Expr{}, v.Fields...), v.RTT)
	case StructNewDefault:
		return []Expr{v.RTT}
	case StructGet:
		return []Expr{v.Ref}
	case StructSet:
		return []Expr{v.Ref, v.Value}
	case ArrayNew:
		return []Expr{v.Init, v.Size, v.RTT}
	case ArrayNewDefault:
		return []Expr{v.Size, v.RTT}
	case ArrayGet:
		return []Expr{v.Ref, v.Index}
	case ArraySet:
		return []Expr{v.Ref, v.Index, v.Value}
	default:
		return nil
	}
}

// WithChildren returns a copy of e with its direct children replaced by
// kids, in the same order Children(e) would report them. Used by the
// post-order rebuilder in lowergc to splice in already-rewritten
// children before rewriting e itself.
func WithChildren(e Expr, kids []Expr) Expr {
	switch v := e.(type) {
	case Block:
		v.List = kids
		return v
	case Loop:
		v.Body = kids[0]
		return v
	case If:
		v.Cond = kids[0]
		v.Then = kids[1]
		if len(kids) > 2 {
			v.Else = kids[2]
		}
		return v
	case Br:
		return v
	case BrIf:
		v.Cond = kids[0]
		return v
	case LocalSet:
		v.Value = kids[0]
		return v
	case GlobalSet:
		v.Value = kids[0]
		return v
	case Call:
		v.Args = kids
		return v
	case CallIndirect:
		v.TableIndex = kids[0]
		v.Args = kids[1:]
		return v
	case Load:
		v.Addr = kids[0]
		return v
	case Store:
		v.Addr = kids[0]
		v.Val = kids[1]
		return v
	case BinOp:
		v.LHS = kids[0]
		v.RHS = kids[1]
		return v
	case StructNew:
		v.Fields = kids[:len(kids)-1]
		v.RTT = kids[len(kids)-1]
		return v
	case StructNewDefault:
		v.RTT = kids[0]
		return v
	case StructGet:
		v.Ref = kids[0]
		return v
	case StructSet:
		v.Ref = kids[0]
		v.Value = kids[1]
		return v
	case ArrayNew:
		v.Init = kids[0]
		v.Size = kids[1]
		v.RTT = kids[2]
		return v
	case ArrayNewDefault:
		v.Size = kids[0]
		v.RTT = kids[1]
		return v
	case ArrayGet:
		v.Ref = kids[0]
		v.Index = kids[1]
		return v
	case ArraySet:
		v.Ref = kids[0]
		v.Index = kids[1]
		v.Value = kids[2]
		return v
	default:
		return e
	}
}

// Transform rebuilds e bottom-up: every child is transformed first (via
// Children/WithChildren), then fn is applied to the node with its
// already-rewritten children spliced in. This gives callers a strict
// post-order rewrite without needing parent-slot pointers into a
// mutable tree.
func Transform(e Expr, fn func(Expr) Expr) Expr {
	kids := Children(e)
	if kids != nil {
		newKids := make([]Expr, len(kids))
		for i, k := range kids {
			newKids[i] = Transform(k, fn)
		}
		e = WithChildren(e, newKids)
	}
	return fn(e)
}

// Walk visits every node of e, pre-order, calling fn. Used where only
// inspection (not rebuilding) is needed, e.g. the effects walker.
func Walk(e Expr, fn func(Expr)) {
	fn(e)
	for _, k := range Children(e) {
		Walk(k, fn)
	}
}
