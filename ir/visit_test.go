package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"j5.nz/wasmgc/ir"
)

func TestTransformPostOrder(t *testing.T) {
	var order []string

	body := ir.Block{
		Type: ir.Num{Kind: ir.I32},
		List: []ir.Expr{
			ir.LocalGet{Type: ir.Num{Kind: ir.I32}, Index: 0},
			ir.BinOp{
				Type: ir.Num{Kind: ir.I32},
				Op:   ir.Add,
				LHS:  ir.LocalGet{Type: ir.Num{Kind: ir.I32}, Index: 1},
				RHS:  ir.LocalGet{Type: ir.Num{Kind: ir.I32}, Index: 2},
			},
		},
	}

	ir.Transform(body, func(e ir.Expr) ir.Expr {
		switch v := e.(type) {
		case ir.LocalGet:
			order = append(order, "local")
			_ = v
		case ir.BinOp:
			order = append(order, "binop")
		case ir.Block:
			order = append(order, "block")
		}
		return e
	})

	// Every child must be visited before its parent, and before its
	// parent's later siblings.
	assert.Equal(t, []string{"local", "local", "local", "binop", "block"}, order)
}

func TestTransformRebuildsChildren(t *testing.T) {
	body := ir.LocalSet{
		Type:  ir.VoidType(),
		Index: 0,
		Value: ir.NewConstI32(1),
	}

	result := ir.Transform(body, func(e ir.Expr) ir.Expr {
		if c, ok := e.(ir.Const); ok {
			c.I64Val = 99
			return c
		}
		return e
	})

	set, ok := result.(ir.LocalSet)
	require.True(t, ok)
	c, ok := set.Value.(ir.Const)
	require.True(t, ok)
	assert.Equal(t, int64(99), c.I64Val)
}

func TestWalkVisitsEveryNode(t *testing.T) {
	body := ir.If{
		Type: ir.VoidType(),
		Cond: ir.LocalGet{Type: ir.Num{Kind: ir.I32}, Index: 0},
		Then: ir.Nop{Type: ir.VoidType()},
		Else: ir.Unreachable{Type: ir.VoidType()},
	}

	var kinds []string
	ir.Walk(body, func(e ir.Expr) {
		switch e.(type) {
		case ir.If:
			kinds = append(kinds, "if")
		case ir.LocalGet:
			kinds = append(kinds, "localget")
		case ir.Nop:
			kinds = append(kinds, "nop")
		case ir.Unreachable:
			kinds = append(kinds, "unreachable")
		}
	})

	assert.ElementsMatch(t, []string{"if", "localget", "nop", "unreachable"}, kinds)
}

func TestIsRefOrRTT(t *testing.T) {
	assert.True(t, ir.IsRefOrRTT(ir.Ref{Heap: 0}))
	assert.True(t, ir.IsRefOrRTT(ir.RTT{Heap: 0}))
	assert.False(t, ir.IsRefOrRTT(ir.Num{Kind: ir.I32}))
	assert.False(t, ir.IsRefOrRTT(ir.Tuple{}))
}

func TestByteSize(t *testing.T) {
	assert.Equal(t, 4, ir.ByteSize(ir.Num{Kind: ir.I32}, 4))
	assert.Equal(t, 8, ir.ByteSize(ir.Num{Kind: ir.I64}, 4))
	assert.Equal(t, 4, ir.ByteSize(ir.Ref{Heap: 0}, 4))
	assert.Equal(t, 4, ir.ByteSize(ir.RTT{Heap: 0}, 4))
}
