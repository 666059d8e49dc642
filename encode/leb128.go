// Package encode emits a lowered ir.Module as a binary .wasm module.
// It is output-only and scoped to post-lowergc modules, letting the
// test suite hand the result to a real Wasm runtime
// (github.com/tetratelabs/wazero) rather than hand-simulating bytecode.
// It is not a general Wasm parser/encoder; textual and binary parsing
// of arbitrary input modules is not supported.
package encode

func appendULEB128(buf []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if v == 0 {
			break
		}
	}
	return buf
}

func appendSLEB128(buf []byte, v int32) []byte {
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && (b&0x40) == 0) || (v == -1 && (b&0x40) != 0) {
			more = false
		} else {
			b |= 0x80
		}
		buf = append(buf, b)
	}
	return buf
}

func appendSLEB128_64(buf []byte, v int64) []byte {
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && (b&0x40) == 0) || (v == -1 && (b&0x40) != 0) {
			more = false
		} else {
			b |= 0x80
		}
		buf = append(buf, b)
	}
	return buf
}
