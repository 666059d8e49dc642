package encode

// builder accumulates the binary sections of a .wasm module: a flat
// set of slices built up by add* calls, later serialized by encode().
type builder struct {
	types       []funcType
	funcs       []int // type index per function
	names       []string
	exports     []exportEntry
	globals     []globalEntry
	globalNames []string
	codes       [][]byte
	memMin      uint32
	memMax      uint32
}

type funcType struct {
	params  []byte
	results []byte
}

type exportEntry struct {
	name string
	kind byte
	idx  uint32
}

type globalEntry struct {
	valType byte
	mutable bool
	initI64 int64
	wide    bool
}

func (b *builder) typeIdx(params, results []byte) int {
	for i, t := range b.types {
		if bytesEqual(t.params, params) && bytesEqual(t.results, results) {
			return i
		}
	}
	idx := len(b.types)
	b.types = append(b.types, funcType{params: params, results: results})
	return idx
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (b *builder) addFunc(name string, params, results []byte) int {
	idx := b.typeIdx(params, results)
	b.funcs = append(b.funcs, idx)
	b.names = append(b.names, name)
	return len(b.funcs) - 1
}

func (b *builder) addExport(name string, kind byte, idx uint32) {
	b.exports = append(b.exports, exportEntry{name: name, kind: kind, idx: idx})
}

func (b *builder) addGlobal(name string, valType byte, mutable bool, initI64 int64, wide bool) int {
	idx := len(b.globals)
	b.globals = append(b.globals, globalEntry{valType: valType, mutable: mutable, initI64: initI64, wide: wide})
	b.globalNames = append(b.globalNames, name)
	return idx
}

func (b *builder) funcIndex(name string) (uint32, bool) {
	for i, n := range b.names {
		if n == name {
			return uint32(i), true
		}
	}
	return 0, false
}

// encode produces the complete .wasm binary: magic+version, then the
// type/function/memory/global/export/code sections in the canonical
// order, exactly as std/compiler/wasm_module.go's encode() does.
func (b *builder) encode() []byte {
	var out []byte
	out = append(out, 0x00, 0x61, 0x73, 0x6d)
	out = append(out, 0x01, 0x00, 0x00, 0x00)

	if len(b.types) > 0 {
		out = appendSection(out, secType, b.encodeTypeSection())
	}
	if len(b.funcs) > 0 {
		out = appendSection(out, secFunction, b.encodeFuncSection())
	}
	out = appendSection(out, secMemory, b.encodeMemorySection())
	if len(b.globals) > 0 {
		out = appendSection(out, secGlobal, b.encodeGlobalSection())
	}
	if len(b.exports) > 0 {
		out = appendSection(out, secExport, b.encodeExportSection())
	}
	if len(b.codes) > 0 {
		out = appendSection(out, secCode, b.encodeCodeSection())
	}
	return out
}

func appendSection(out []byte, id byte, body []byte) []byte {
	out = append(out, id)
	out = appendULEB128(out, uint32(len(body)))
	return append(out, body...)
}

func (b *builder) encodeTypeSection() []byte {
	var body []byte
	body = appendULEB128(body, uint32(len(b.types)))
	for _, t := range b.types {
		body = append(body, typeFunc)
		body = appendULEB128(body, uint32(len(t.params)))
		body = append(body, t.params...)
		body = appendULEB128(body, uint32(len(t.results)))
		body = append(body, t.results...)
	}
	return body
}

func (b *builder) encodeFuncSection() []byte {
	var body []byte
	body = appendULEB128(body, uint32(len(b.funcs)))
	for _, t := range b.funcs {
		body = appendULEB128(body, uint32(t))
	}
	return body
}

func (b *builder) encodeMemorySection() []byte {
	var body []byte
	body = appendULEB128(body, 1)
	body = append(body, 0x01) // flags: has max
	body = appendULEB128(body, b.memMin)
	body = appendULEB128(body, b.memMax)
	return body
}

func (b *builder) encodeGlobalSection() []byte {
	var body []byte
	body = appendULEB128(body, uint32(len(b.globals)))
	for _, g := range b.globals {
		body = append(body, g.valType)
		if g.mutable {
			body = append(body, 0x01)
		} else {
			body = append(body, 0x00)
		}
		if g.wide {
			body = append(body, opI64Const)
			body = appendSLEB128_64(body, g.initI64)
		} else {
			body = append(body, opI32Const)
			body = appendSLEB128(body, int32(g.initI64))
		}
		body = append(body, opEnd)
	}
	return body
}

func (b *builder) encodeExportSection() []byte {
	var body []byte
	body = appendULEB128(body, uint32(len(b.exports)))
	for _, e := range b.exports {
		body = appendULEB128(body, uint32(len(e.name)))
		body = append(body, []byte(e.name)...)
		body = append(body, e.kind)
		body = appendULEB128(body, e.idx)
	}
	return body
}

func (b *builder) encodeCodeSection() []byte {
	var body []byte
	body = appendULEB128(body, uint32(len(b.codes)))
	for _, c := range b.codes {
		body = appendULEB128(body, uint32(len(c)))
		body = append(body, c...)
	}
	return body
}
