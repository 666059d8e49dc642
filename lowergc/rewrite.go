package lowergc

import (
	"fmt"

	"github.com/pkg/errors"

	"j5.nz/wasmgc/ir"
)

// rewriteFunc is the body rewriter for a single function. It runs three
// sub-phases, in order:
//
//  1. Signature lowering — params/results/locals are lowered before the
//     body is touched, since local.get/set nodes reference local
//     indices whose types have just changed.
//  2. Scanning — a first traversal checks, for every GC operation node,
//     that the heap type its ref/rtt operand discloses still agrees
//     with the heap type the node itself carries, before rewriting
//     erases that operand's type. Every GC node in this IR already
//     carries its heap type as an explicit field (set by whichever
//     builder produced the tree); scanning exists to catch a class of
//     IR invariant violation before rewriting erases the evidence, not
//     to rediscover information the node already has.
//  3. Rewriting — a strict post-order traversal that lowers every node's
//     own type annotation, turns ref.null/rtt.canon into a pointer zero
//     literal, and replaces GC instructions with helper calls.
func rewriteFunc(f *ir.Func, info *Info) error {
	f.Params = info.LowerTypes(f.Params)
	f.Results = info.LowerTypes(f.Results)
	for i := range f.Locals {
		f.Locals[i].Type = info.LowerType(f.Locals[i].Type)
	}

	if f.Body == nil {
		return nil
	}

	if err := scanHeapTypes(f.Body); err != nil {
		return errors.Wrapf(err, "function %q", f.Name)
	}

	rewritten, err := rewriteExpr(f.Body, info)
	if err != nil {
		return errors.Wrapf(err, "function %q", f.Name)
	}
	f.Body = rewritten
	return nil
}

// scanHeapTypes walks body checking that every GC operation node's
// declared Heap agrees with what its ref/rtt operand's own type
// discloses (see rewriteFunc's doc comment for why this IR doesn't
// need a separate node->heap map).
func scanHeapTypes(body ir.Expr) error {
	var walkErr error
	fail := func(err error) {
		if walkErr == nil {
			walkErr = err
		}
	}
	ir.Walk(body, func(e ir.Expr) {
		switch v := e.(type) {
		case ir.StructNew:
			fail(checkRTTHeap(v.RTT, v.Heap))
		case ir.StructNewDefault:
			fail(checkRTTHeap(v.RTT, v.Heap))
		case ir.ArrayNew:
			fail(checkRTTHeap(v.RTT, v.Heap))
		case ir.ArrayNewDefault:
			fail(checkRTTHeap(v.RTT, v.Heap))
		case ir.StructGet:
			fail(checkRefHeap(v.Ref, v.Heap))
		case ir.StructSet:
			fail(checkRefHeap(v.Ref, v.Heap))
		case ir.ArrayGet:
			fail(checkRefHeap(v.Ref, v.Heap))
		case ir.ArraySet:
			fail(checkRefHeap(v.Ref, v.Heap))
		}
	})
	return walkErr
}

func checkRTTHeap(rtt ir.Expr, want ir.HeapTypeID) error {
	r, ok := rtt.ResultType().(ir.RTT)
	if !ok || r.Heap != want {
		return errors.New("scan: rtt operand does not disclose the declared heap type")
	}
	return nil
}

func checkRefHeap(ref ir.Expr, want ir.HeapTypeID) error {
	r, ok := ref.ResultType().(ir.Ref)
	if !ok || r.Heap != want {
		return errors.New("scan: ref operand does not disclose the declared heap type")
	}
	return nil
}

// rewriteExpr runs the post-order rewrite. Children are rewritten first
// via ir.Transform; rewriteNode then handles the node itself with its
// children already rewritten and re-spliced in.
func rewriteExpr(body ir.Expr, info *Info) (ir.Expr, error) {
	var firstErr error
	result := ir.Transform(body, func(e ir.Expr) ir.Expr {
		if firstErr != nil {
			return e
		}
		rewritten, err := rewriteNode(e, info)
		if err != nil {
			firstErr = err
			return e
		}
		return rewritten
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return result, nil
}

func rewriteNode(e ir.Expr, info *Info) (ir.Expr, error) {
	switch v := e.(type) {
	case ir.RefNull:
		return zeroValue(info.PointerType), nil
	case ir.RTTCanon:
		return zeroValue(info.PointerType), nil

	case ir.StructNew:
		name := info.HeapName[v.Heap]
		args := append(append([]ir.Expr{}, v.Fields...), v.RTT)
		return ir.Call{Type: info.PointerType, Target: structNewName(name), Args: args}, nil
	case ir.StructNewDefault:
		name := info.HeapName[v.Heap]
		return ir.Call{Type: info.PointerType, Target: structNewDefaultName(name), Args: []ir.Expr{v.RTT}}, nil
	case ir.StructGet:
		name := info.HeapName[v.Heap]
		return ir.Call{Type: info.LowerType(v.Type), Target: structGetName(name, v.Field), Args: []ir.Expr{v.Ref}}, nil
	case ir.StructSet:
		name := info.HeapName[v.Heap]
		return ir.Call{Type: ir.VoidType(), Target: structSetName(name, v.Field), Args: []ir.Expr{v.Ref, v.Value}}, nil

	case ir.ArrayNew:
		name := info.HeapName[v.Heap]
		return ir.Call{Type: info.PointerType, Target: arrayNewName(name), Args: []ir.Expr{v.Init, v.Size, v.RTT}}, nil
	case ir.ArrayNewDefault:
		name := info.HeapName[v.Heap]
		return ir.Call{Type: info.PointerType, Target: arrayNewDefaultName(name), Args: []ir.Expr{v.Size, v.RTT}}, nil
	case ir.ArrayGet:
		name := info.HeapName[v.Heap]
		return ir.Call{Type: info.LowerType(v.Type), Target: arrayGetName(name), Args: []ir.Expr{v.Ref, v.Index}}, nil
	case ir.ArraySet:
		name := info.HeapName[v.Heap]
		return ir.Call{Type: ir.VoidType(), Target: arraySetName(name), Args: []ir.Expr{v.Ref, v.Index, v.Value}}, nil

	default:
		return lowerNodeType(e, info)
	}
}

// lowerNodeType replaces a node's own type annotation with its lowered
// form. Every Expr variant not already handled by a GC-specific case
// above passes through here.
func lowerNodeType(e ir.Expr, info *Info) (ir.Expr, error) {
	switch v := e.(type) {
	case ir.Block:
		v.Type = info.LowerType(v.Type)
		return v, nil
	case ir.Loop:
		v.Type = info.LowerType(v.Type)
		return v, nil
	case ir.If:
		v.Type = info.LowerType(v.Type)
		return v, nil
	case ir.Br:
		v.Type = info.LowerType(v.Type)
		return v, nil
	case ir.BrIf:
		v.Type = info.LowerType(v.Type)
		return v, nil
	case ir.LocalGet:
		v.Type = info.LowerType(v.Type)
		return v, nil
	case ir.LocalSet:
		v.Type = info.LowerType(v.Type)
		return v, nil
	case ir.GlobalGet:
		v.Type = info.LowerType(v.Type)
		return v, nil
	case ir.GlobalSet:
		v.Type = info.LowerType(v.Type)
		return v, nil
	case ir.Const:
		return v, nil
	case ir.Call:
		v.Type = info.LowerType(v.Type)
		return v, nil
	case ir.CallIndirect:
		v.Type = info.LowerType(v.Type)
		return v, nil
	case ir.Load:
		v.Type = info.LowerType(v.Type)
		return v, nil
	case ir.Store:
		v.Type = info.LowerType(v.Type)
		return v, nil
	case ir.BinOp:
		v.Type = info.LowerType(v.Type)
		return v, nil
	case ir.Unreachable:
		return v, nil
	case ir.Nop:
		return v, nil
	default:
		return nil, errors.New(fmt.Sprintf("lowergc: unknown expression shape %T", e))
	}
}
