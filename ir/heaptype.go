package ir

// Field describes one struct field.
type Field struct {
	Type   Type
	Packed int // 0 = unpacked (natural width); 8 or 16 for packed fields
}

// HeapType is a structural description of a managed object: a struct
// (ordered fields) or an array (single element type, dynamic length).
type HeapType interface {
	isHeapType()
}

// StructType is an ordered list of fields.
type StructType struct {
	Fields []Field
}

func (StructType) isHeapType() {}

// ArrayType is a single element field type with a dynamic length.
type ArrayType struct {
	Elem Field
}

func (ArrayType) isHeapType() {}

// HeapTypeTable owns every heap type in a module, addressed by
// HeapTypeID. IDs are stable for the lifetime of a Module; dce may
// leave gaps (a dropped entry is nil).
type HeapTypeTable struct {
	types []HeapType
	names []string // canonical name per id, empty until name-types has run
}

// Add registers a new heap type and returns its id.
func (t *HeapTypeTable) Add(ht HeapType) HeapTypeID {
	id := HeapTypeID(len(t.types))
	t.types = append(t.types, ht)
	t.names = append(t.names, "")
	return id
}

// Get returns the heap type for id, or nil if it has been dropped.
func (t *HeapTypeTable) Get(id HeapTypeID) HeapType {
	if int(id) < 0 || int(id) >= len(t.types) {
		return nil
	}
	return t.types[id]
}

// Name returns the canonical name assigned to id by name-types, or ""
// if none has been assigned yet.
func (t *HeapTypeTable) Name(id HeapTypeID) string {
	if int(id) < 0 || int(id) >= len(t.names) {
		return ""
	}
	return t.names[id]
}

// SetName assigns the canonical name for id. Used only by the
// name-types precondition pass.
func (t *HeapTypeTable) SetName(id HeapTypeID, name string) {
	t.names[id] = name
}

// Drop removes id from the live set (used by dce). The slot is left as
// nil rather than compacted so that existing HeapTypeIDs elsewhere in
// the module remain valid.
func (t *HeapTypeTable) Drop(id HeapTypeID) {
	if int(id) >= 0 && int(id) < len(t.types) {
		t.types[id] = nil
	}
}

// Ids returns every id for which a heap type is still live.
func (t *HeapTypeTable) Ids() []HeapTypeID {
	var ids []HeapTypeID
	for i, ht := range t.types {
		if ht != nil {
			ids = append(ids, HeapTypeID(i))
		}
	}
	return ids
}

// Len returns the number of slots, live or dropped.
func (t *HeapTypeTable) Len() int { return len(t.types) }
