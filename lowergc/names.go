package lowergc

import "fmt"

// Helper-function names must be a pure function of (operation, heap
// type name, field index) so that the body rewriter can reconstruct a
// callee's name from the heap type it recorded during scanning,
// without consulting a shared map.

func structNewName(typeName string) string        { return "StructNew$" + typeName }
func structNewDefaultName(typeName string) string  { return "StructNewWithDefault$" + typeName }
func structGetName(typeName string, field int) string {
	return fmt.Sprintf("StructGet$%s$%d", typeName, field)
}
func structSetName(typeName string, field int) string {
	return fmt.Sprintf("StructSet$%s$%d", typeName, field)
}

func arrayNewName(typeName string) string       { return "ArrayNew$" + typeName }
func arrayNewDefaultName(typeName string) string { return "ArrayNewWithDefault$" + typeName }
func arrayGetName(typeName string) string       { return "ArrayGet$" + typeName }
func arraySetName(typeName string) string       { return "ArraySet$" + typeName }

// MallocName and NextMallocGlobal are the fixed names of the
// synthesized allocator.
const (
	MallocName       = "malloc"
	NextMallocGlobal = "nextMalloc"
)
