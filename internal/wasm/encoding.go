package wasm

import (
	"encoding/binary"
	"math"
)

// Binary module header.
var (
	wasmMagic   = []byte{0x00, 0x61, 0x73, 0x6D} // \0asm
	wasmVersion = []byte{0x01, 0x00, 0x00, 0x00}
)

// Section IDs in mandated order of appearance.
const (
	sectionType     byte = 1
	sectionFunction byte = 3
	sectionMemory   byte = 5
	sectionGlobal   byte = 6
	sectionExport   byte = 7
	sectionCode     byte = 10
	sectionData     byte = 11
)

// Export kinds.
const (
	exportFunc   byte = 0x00
	exportMemory byte = 0x02
	exportGlobal byte = 0x03
)

const funcTypeTag byte = 0x60

// Opcodes. Only the subset the emitter selects from is listed.
const (
	// Control
	opUnreachable byte = 0x00
	opBlock       byte = 0x02
	opLoop        byte = 0x03
	opIf          byte = 0x04
	opElse        byte = 0x05
	opEnd         byte = 0x0B
	opBr          byte = 0x0C
	opBrIf        byte = 0x0D
	opBrTable     byte = 0x0E
	opReturn      byte = 0x0F
	opCall        byte = 0x10
	opDrop        byte = 0x1A

	// Variables
	opLocalGet  byte = 0x20
	opLocalSet  byte = 0x21
	opLocalTee  byte = 0x22
	opGlobalGet byte = 0x23
	opGlobalSet byte = 0x24

	// Memory
	opI32Load  byte = 0x28
	opI64Load  byte = 0x29
	opF32Load  byte = 0x2A
	opF64Load  byte = 0x2B
	opI32Store byte = 0x36
	opI64Store byte = 0x37
	opF32Store byte = 0x38
	opF64Store byte = 0x39

	// Constants
	opI32Const byte = 0x41
	opI64Const byte = 0x42
	opF32Const byte = 0x43
	opF64Const byte = 0x44

	// i32 operations
	opI32Eqz  byte = 0x45
	opI32Eq   byte = 0x46
	opI32Ne   byte = 0x47
	opI32LtS  byte = 0x48
	opI32GtS  byte = 0x4A
	opI32GtU  byte = 0x4B
	opI32LeS  byte = 0x4C
	opI32GeS  byte = 0x4E
	opI32Add  byte = 0x6A
	opI32Sub  byte = 0x6B
	opI32Mul  byte = 0x6C
	opI32DivS byte = 0x6D
	opI32RemS byte = 0x6F
	opI32And  byte = 0x71
	opI32Or   byte = 0x72

	// i64 operations
	opI64Eqz  byte = 0x50
	opI64Eq   byte = 0x51
	opI64Ne   byte = 0x52
	opI64LtS  byte = 0x53
	opI64GtS  byte = 0x55
	opI64LeS  byte = 0x57
	opI64GeS  byte = 0x59
	opI64Add  byte = 0x7C
	opI64Sub  byte = 0x7D
	opI64Mul  byte = 0x7E
	opI64DivS byte = 0x7F
	opI64RemS byte = 0x81
	opI64And  byte = 0x83
	opI64Or   byte = 0x84

	// f32 operations
	opF32Eq  byte = 0x5B
	opF32Ne  byte = 0x5C
	opF32Lt  byte = 0x5D
	opF32Gt  byte = 0x5E
	opF32Le  byte = 0x5F
	opF32Ge  byte = 0x60
	opF32Neg byte = 0x8C
	opF32Add byte = 0x92
	opF32Sub byte = 0x93
	opF32Mul byte = 0x94
	opF32Div byte = 0x95

	// f64 operations
	opF64Eq  byte = 0x61
	opF64Ne  byte = 0x62
	opF64Lt  byte = 0x63
	opF64Gt  byte = 0x64
	opF64Le  byte = 0x65
	opF64Ge  byte = 0x66
	opF64Neg byte = 0x9A
	opF64Add byte = 0xA0
	opF64Sub byte = 0xA1
	opF64Mul byte = 0xA2
	opF64Div byte = 0xA3
)

// blockVoid is the block type of a region that produces no value.
const blockVoid byte = 0x40

// appendUleb appends an unsigned LEB128 encoding of v.
func appendUleb(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if v == 0 {
			return dst
		}
	}
}

// appendSleb appends a signed LEB128 encoding of v.
func appendSleb(dst []byte, v int64) []byte {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}

// appendF32 appends the 4-byte little-endian encoding of v.
func appendF32(dst []byte, v float32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
	return append(dst, buf[:]...)
}

// appendF64 appends the 8-byte little-endian encoding of v.
func appendF64(dst []byte, v float64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	return append(dst, buf[:]...)
}

// appendName appends a length-prefixed UTF-8 name.
func appendName(dst []byte, s string) []byte {
	dst = appendUleb(dst, uint64(len(s)))
	return append(dst, s...)
}

// appendSection frames contents as a full section with ID and size prefix.
// Empty sections are omitted from the module.
func appendSection(dst []byte, id byte, contents []byte) []byte {
	if len(contents) == 0 {
		return dst
	}
	dst = append(dst, id)
	dst = appendUleb(dst, uint64(len(contents)))
	return append(dst, contents...)
}

// appendVector prefixes items with their count.
func appendVector(dst []byte, count int, items []byte) []byte {
	dst = appendUleb(dst, uint64(count))
	return append(dst, items...)
}

// alignBits returns the alignment hint for load/store instructions,
// log2 of the byte alignment.
func alignBits(align uint32) uint64 {
	bits := uint64(0)
	for a := align; a > 1; a >>= 1 {
		bits++
	}
	return bits
}
