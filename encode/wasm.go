package encode

// Wasm section ids, value types, opcodes, and external kinds.
const (
	secType     = 1
	secImport   = 2
	secFunction = 3
	secMemory   = 5
	secGlobal   = 6
	secExport   = 7
	secCode     = 10
)

const (
	typeI32  = 0x7f
	typeI64  = 0x7e
	typeFunc = 0x60
	typeVoid = 0x40
)

const (
	opUnreachable = 0x00
	opBlock       = 0x02
	opLoop        = 0x03
	opIf          = 0x04
	opElse        = 0x05
	opEnd         = 0x0b
	opBr          = 0x0c
	opBrIf        = 0x0d
	opCall        = 0x10
	opReturnCall  = 0x12

	opLocalGet  = 0x20
	opLocalSet  = 0x21
	opLocalTee  = 0x22
	opGlobalGet = 0x23
	opGlobalSet = 0x24

	opI32Load  = 0x28
	opI64Load  = 0x29
	opI32Store = 0x36
	opI64Store = 0x37

	opI32Const = 0x41
	opI64Const = 0x42

	opI32Add = 0x6a
	opI32Sub = 0x6b
	opI32Mul = 0x6c

	opI64Add = 0x7c
	opI64Sub = 0x7d
	opI64Mul = 0x7e
)

const (
	extFunc   = 0x00
	extMemory = 0x02
)

func valType(wide bool) byte {
	if wide {
		return typeI64
	}
	return typeI32
}
