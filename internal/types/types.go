package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all type kinds the backend accepts. The frontend resolves
// everything down to these before handing a program over; anything it cannot
// express here never reaches the backend.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindUnit is the "no value" type of statements and bare blocks.
	KindUnit
	KindBool
	KindChar
	KindString
	KindInt
	KindFloat
	// KindGene is a nominal aggregate ("gene") with ordered typed fields.
	KindGene
	// KindReference is a by-reference handle to a gene instance.
	KindReference
	// KindOption, KindResult and KindList are runtime-library handles; the
	// backend only ever sees them as opaque pointers.
	KindOption
	KindResult
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindGene:
		return "gene"
	case KindReference:
		return "reference"
	case KindOption:
		return "option"
	case KindResult:
		return "result"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Width captures the precision of integers and floats.
type Width uint8

const (
	WidthAny Width = 0
	Width32  Width = 32
	Width64  Width = 64
)

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind    Kind
	Elem    TypeID // element for reference/option/result/list
	Width   Width  // for numeric primitives
	Payload uint32 // gene info slot for KindGene
}

// MakeInt describes a signed integer of the given width.
func MakeInt(width Width) Type {
	return Type{Kind: KindInt, Width: width}
}

// MakeFloat describes a floating-point type of the given width.
func MakeFloat(width Width) Type {
	return Type{Kind: KindFloat, Width: width}
}

// MakeReference describes a by-reference handle to elem.
func MakeReference(elem TypeID) Type {
	return Type{Kind: KindReference, Elem: elem}
}

// MakeOption describes Option<elem>.
func MakeOption(elem TypeID) Type {
	return Type{Kind: KindOption, Elem: elem}
}

// MakeResult describes Result<elem>.
func MakeResult(elem TypeID) Type {
	return Type{Kind: KindResult, Elem: elem}
}

// MakeList describes List<elem>.
func MakeList(elem TypeID) Type {
	return Type{Kind: KindList, Elem: elem}
}
