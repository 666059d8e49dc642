package ir

// Memory describes the module's single linear memory. Only 32-bit
// (Index32) memories are supported by this revision of GC lowering —
// see lowergc's precondition check.
type Memory struct {
	Name       string
	Index64    bool
	MinPages   uint32
	MaxPages   uint32
	HasMax     bool
	Shared     bool
	Imported   bool
}

// Global is a module-level mutable or immutable global.
type Global struct {
	Name     string
	Type     Type
	Mutable  bool
	Init     Expr
	Imported bool
}

// Local is one local variable slot of a function (parameters are
// locals 0..NumParams-1).
type Local struct {
	Name string
	Type Type
}

// Func is a defined or imported function.
type Func struct {
	Name       string
	Params     []Type
	Results    []Type
	Locals     []Local // includes params as the first NumParams entries
	NumParams  int
	Body       Expr // nil for imported functions
	Imported   bool
	ImportMod  string
	ImportName string
}

// ElemSegment is an active element-segment initializer for a table.
type ElemSegment struct {
	Table  string
	Offset Expr
	Funcs  []string
}

// Export publishes a module member under an external name.
type Export struct {
	Name     string
	Kind     ExportKind
	Internal string
}

type ExportKind int

const (
	ExportFunc ExportKind = iota
	ExportMemory
	ExportGlobal
	ExportTable
)

// Table is a reference table (used only for call_indirect in this
// dialect; GC lowering does not touch table element types).
type Table struct {
	Name     string
	MinSize  uint32
	HasMax   bool
	MaxSize  uint32
	Imported bool
}

// FeatureFlags records which optional Wasm proposals the module was
// compiled against; the effect analyzer consults these to decide the
// worst case (e.g. whether calls may throw).
type FeatureFlags struct {
	Exceptions bool
	TailCall   bool
}

// Module is the whole-program unit both passes operate over.
type Module struct {
	Funcs    []*Func
	Globals  []*Global
	Memories []*Memory
	Tables   []*Table
	Elems    []*ElemSegment
	Exports  []*Export
	HeapTypes HeapTypeTable
	Features FeatureFlags
}

// FuncByName looks up a function by name, or nil.
func (m *Module) FuncByName(name string) *Func {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// AddFunc appends a new defined function and returns it.
func (m *Module) AddFunc(f *Func) *Func {
	m.Funcs = append(m.Funcs, f)
	return f
}

// AddGlobal appends a new global and returns it.
func (m *Module) AddGlobal(g *Global) *Global {
	m.Globals = append(m.Globals, g)
	return g
}
