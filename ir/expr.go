package ir

// Expr is one node of a function body. Every node carries its own
// result Type so that the body rewriter can replace it in place
// without re-deriving types from context.
//
// This is a tagged-variant tree: each concrete node is a distinct Go
// struct, dispatched on with a type switch (see Children/WithChildren).
// Rewriting a function body is a bottom-up rebuild — Transform returns
// a (possibly new) node for each child slot and splices it back into
// the parent before the parent itself is visited, giving a strict
// post-order rewrite.
type Expr interface {
	isExpr()
	ResultType() Type
}

// Block groups a sequence of expressions; its own type is the type of
// its last child (or void).
type Block struct {
	Type  Type
	Label string
	List  []Expr
}

func (Block) isExpr()            {}
func (b Block) ResultType() Type { return b.Type }

// Loop is a Block whose label is a valid branch target that re-enters
// at the top.
type Loop struct {
	Type  Type
	Label string
	Body  Expr
}

func (Loop) isExpr()            {}
func (l Loop) ResultType() Type { return l.Type }

// If is a conditional with an optional else arm.
type If struct {
	Type Type
	Cond Expr
	Then Expr
	Else Expr // nil if absent
}

func (If) isExpr()            {}
func (i If) ResultType() Type { return i.Type }

// Br is an unconditional branch to a label.
type Br struct {
	Type   Type
	Target string
}

func (Br) isExpr()            {}
func (b Br) ResultType() Type { return b.Type }

// BrIf is a conditional branch to a label.
type BrIf struct {
	Type   Type
	Cond   Expr
	Target string
}

func (BrIf) isExpr()            {}
func (b BrIf) ResultType() Type { return b.Type }

// LocalGet reads a local variable by index.
type LocalGet struct {
	Type  Type
	Index int
}

func (LocalGet) isExpr()            {}
func (l LocalGet) ResultType() Type { return l.Type }

// LocalSet writes a local variable by index. Tee (set-and-yield-value)
// is represented by IsTee.
type LocalSet struct {
	Type  Type
	Index int
	Value Expr
	IsTee bool
}

func (LocalSet) isExpr()            {}
func (l LocalSet) ResultType() Type { return l.Type }

// GlobalGet reads a global by name.
type GlobalGet struct {
	Type Type
	Name string
}

func (GlobalGet) isExpr()            {}
func (g GlobalGet) ResultType() Type { return g.Type }

// GlobalSet writes a global by name.
type GlobalSet struct {
	Type  Type
	Name  string
	Value Expr
}

func (GlobalSet) isExpr()            {}
func (g GlobalSet) ResultType() Type { return g.Type }

// Const is an immediate scalar value (I32/I64/F32/F64 interpreted via
// Type).
type Const struct {
	Type   Type
	I64Val int64 // payload for every numeric kind, reinterpreted by Type
}

func (Const) isExpr()            {}
func (c Const) ResultType() Type { return c.Type }

// Call is a direct call to a named function.
type Call struct {
	Type   Type
	Target string
	Args   []Expr
	Return bool // true for a tail/return_call
}

func (Call) isExpr()            {}
func (c Call) ResultType() Type { return c.Type }

// CallIndirect calls through a table using a computed function index.
// Unanalyzable by the static call graph — the function-effects pass
// treats its caller as a source of the `anything` summary.
type CallIndirect struct {
	Type       Type
	TableIndex Expr
	Args       []Expr
}

func (CallIndirect) isExpr()            {}
func (c CallIndirect) ResultType() Type { return c.Type }

// Load reads from linear memory.
type Load struct {
	Type   Type
	Addr   Expr
	Offset int32
}

func (Load) isExpr()            {}
func (l Load) ResultType() Type { return l.Type }

// Store writes to linear memory.
type Store struct {
	Type Type // the value type being stored, not a result type (stores are void)
	Addr Expr
	Val  Expr
}

func (Store) isExpr()            {}
func (s Store) ResultType() Type { return VoidType() }

// RefNull is the null reference literal for a heap type.
type RefNull struct {
	Type Type
	Heap HeapTypeID
}

func (RefNull) isExpr()            {}
func (r RefNull) ResultType() Type { return r.Type }

// RTTCanon constructs the canonical RTT value for a heap type.
type RTTCanon struct {
	Type Type
	Heap HeapTypeID
}

func (RTTCanon) isExpr()            {}
func (r RTTCanon) ResultType() Type { return r.Type }

// StructNew allocates a struct instance with explicit field values.
type StructNew struct {
	Type   Type
	Heap   HeapTypeID
	Fields []Expr
	RTT    Expr
}

func (StructNew) isExpr()            {}
func (s StructNew) ResultType() Type { return s.Type }

// StructNewDefault allocates a struct instance with every field set to
// its type's zero value.
type StructNewDefault struct {
	Type Type
	Heap HeapTypeID
	RTT  Expr
}

func (StructNewDefault) isExpr()            {}
func (s StructNewDefault) ResultType() Type { return s.Type }

// StructGet reads one field of a struct instance.
type StructGet struct {
	Type  Type
	Heap  HeapTypeID
	Field int
	Ref   Expr
}

func (StructGet) isExpr()            {}
func (s StructGet) ResultType() Type { return s.Type }

// StructSet writes one field of a struct instance.
type StructSet struct {
	Type  Type
	Heap  HeapTypeID
	Field int
	Ref   Expr
	Value Expr
}

func (StructSet) isExpr()            {}
func (s StructSet) ResultType() Type { return VoidType() }

// ArrayNew allocates an array of Size elements initialized to Init.
type ArrayNew struct {
	Type Type
	Heap HeapTypeID
	Init Expr
	Size Expr
	RTT  Expr
}

func (ArrayNew) isExpr()            {}
func (a ArrayNew) ResultType() Type { return a.Type }

// ArrayNewDefault allocates an array of Size elements initialized to
// the element type's zero value.
type ArrayNewDefault struct {
	Type Type
	Heap HeapTypeID
	Size Expr
	RTT  Expr
}

func (ArrayNewDefault) isExpr()            {}
func (a ArrayNewDefault) ResultType() Type { return a.Type }

// ArrayGet reads one element of an array instance.
type ArrayGet struct {
	Type  Type
	Heap  HeapTypeID
	Ref   Expr
	Index Expr
}

func (ArrayGet) isExpr()            {}
func (a ArrayGet) ResultType() Type { return a.Type }

// ArraySet writes one element of an array instance.
type ArraySet struct {
	Type  Type
	Heap  HeapTypeID
	Ref   Expr
	Index Expr
	Value Expr
}

func (ArraySet) isExpr()            {}
func (a ArraySet) ResultType() Type { return VoidType() }

// BinOp is a binary numeric operator (add/sub/etc.) over two operands
// of the same lowered numeric type. GC lowering only needs addition,
// subtraction and multiplication (the bump allocator, array byte-offset
// arithmetic); the effect analyzer and body rewriter treat any BinOp
// uniformly.
type BinOp struct {
	Type Type
	Op   BinOpKind
	LHS  Expr
	RHS  Expr
}

func (BinOp) isExpr()            {}
func (b BinOp) ResultType() Type { return b.Type }

type BinOpKind int

const (
	Add BinOpKind = iota
	Sub
	Mul
)

// Unreachable always traps.
type Unreachable struct{ Type Type }

func (Unreachable) isExpr()            {}
func (u Unreachable) ResultType() Type { return u.Type }

// Nop does nothing.
type Nop struct{ Type Type }

func (Nop) isExpr()            {}
func (n Nop) ResultType() Type { return n.Type }

// NewConstI32/NewConstI64 and VoidType are small convenience
// constructors used by tests and by the module-level initializer
// rewriter.

func NewConstI32(v int32) Const { return Const{Type: Num{I32}, I64Val: int64(v)} }
func NewConstI64(v int64) Const { return Const{Type: Num{I64}, I64Val: v} }
func VoidType() Type            { return Tuple{} }
