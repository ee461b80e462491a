package wasm

import (
	"fmt"

	"dol/internal/types"
)

// ValType is a binary value type. Pointers share the i32 representation on
// the 32-bit linear-memory target.
type ValType byte

const (
	ValI32 ValType = 0x7F
	ValI64 ValType = 0x7E
	ValF32 ValType = 0x7D
	ValF64 ValType = 0x7C
)

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	default:
		return fmt.Sprintf("ValType(%#x)", byte(v))
	}
}

// size returns the byte width of a value of this type in linear memory.
func (v ValType) size() uint32 {
	switch v {
	case ValI64, ValF64:
		return 8
	default:
		return 4
	}
}

// zeroConst appends a zero constant of this type.
func (v ValType) zeroConst(dst []byte) []byte {
	switch v {
	case ValI64:
		dst = append(dst, opI64Const)
		return appendSleb(dst, 0)
	case ValF32:
		dst = append(dst, opF32Const)
		return appendF32(dst, 0)
	case ValF64:
		dst = append(dst, opF64Const)
		return appendF64(dst, 0)
	default:
		dst = append(dst, opI32Const)
		return appendSleb(dst, 0)
	}
}

// loadOp and storeOp select the width-appropriate memory instruction.
func (v ValType) loadOp() byte {
	switch v {
	case ValI64:
		return opI64Load
	case ValF32:
		return opF32Load
	case ValF64:
		return opF64Load
	default:
		return opI32Load
	}
}

func (v ValType) storeOp() byte {
	switch v {
	case ValI64:
		return opI64Store
	case ValF32:
		return opF32Store
	case ValF64:
		return opF64Store
	default:
		return opI32Store
	}
}

// LowerType maps a resolved source type to its value type. Unit and invalid
// types have no value representation and are rejected; callers that accept
// "no value" positions must branch on that before lowering.
func LowerType(in *types.Interner, id types.TypeID) (ValType, error) {
	t, ok := in.Lookup(id)
	if !ok {
		return 0, fmt.Errorf("wasm: cannot lower unresolved type %s", in.String(id))
	}
	switch t.Kind {
	case types.KindBool, types.KindChar:
		return ValI32, nil
	case types.KindInt:
		if t.Width == types.Width64 {
			return ValI64, nil
		}
		return ValI32, nil
	case types.KindFloat:
		if t.Width == types.Width64 {
			return ValF64, nil
		}
		return ValF32, nil
	case types.KindString, types.KindGene, types.KindReference,
		types.KindOption, types.KindResult, types.KindList:
		// Opaque handles and aggregate instances travel as addresses.
		return ValI32, nil
	default:
		return 0, fmt.Errorf("wasm: cannot lower %s type", t.Kind)
	}
}

// blockTypeOf returns the structured-region result annotation for a type:
// blockVoid when the region produces no value.
func blockTypeOf(in *types.Interner, id types.TypeID) (byte, error) {
	if id == types.NoTypeID {
		return blockVoid, nil
	}
	if t, ok := in.Lookup(id); ok && t.Kind == types.KindUnit {
		return blockVoid, nil
	}
	vt, err := LowerType(in, id)
	if err != nil {
		return 0, err
	}
	return byte(vt), nil
}

// hasValue reports whether the type occupies an operand-stack slot.
func hasValue(in *types.Interner, id types.TypeID) bool {
	if id == types.NoTypeID {
		return false
	}
	t, ok := in.Lookup(id)
	return ok && t.Kind != types.KindUnit && t.Kind != types.KindInvalid
}
