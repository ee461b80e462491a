package wasm

import (
	"fmt"

	"dol/internal/diag"
	"dol/internal/source"
	"dol/internal/types"
)

// Pointer cells and pointer-sized fields on the 32-bit linear-memory target.
const (
	ptrSize  uint32 = 4
	ptrAlign uint32 = 4
)

// FieldLayout is one resolved field: its byte placement inside the host
// aggregate plus the scalar value type used for loads and stores. Inline is
// set for fields that embed another gene's bytes directly; their access goes
// through the sub-layout instead of a single scalar instruction.
type FieldLayout struct {
	Name   string
	Offset uint32
	Size   uint32
	Align  uint32
	Type   types.TypeID
	Kind   types.Kind
	ByRef  bool
	Val    ValType // scalar representation; meaningless when Inline != nil
	Inline *Layout
}

// Layout is the immutable byte layout of one gene type. Size is padded to
// Align so arrays of instances stay aligned.
type Layout struct {
	Gene  types.TypeID
	Name  string
	Index uint32 // runtime gene type index, assigned in registration order
	Size  uint32
	Align uint32

	Fields []FieldLayout
	byName map[string]int
}

// Field resolves a field by name.
func (l *Layout) Field(name string) (*FieldLayout, bool) {
	i, ok := l.byName[name]
	if !ok {
		return nil, false
	}
	return &l.Fields[i], true
}

// leaf is one scalar cell of a flattened layout, used by constructors to
// copy inline-embedded aggregates cell by cell.
type leaf struct {
	offset uint32
	val    ValType
}

// leaves flattens the layout into scalar cells in ascending offset order.
func (l *Layout) leaves() []leaf {
	var out []leaf
	for i := range l.Fields {
		f := &l.Fields[i]
		if f.Inline != nil {
			for _, sub := range f.Inline.leaves() {
				out = append(out, leaf{offset: f.Offset + sub.offset, val: sub.val})
			}
			continue
		}
		out = append(out, leaf{offset: f.Offset, val: f.Val})
	}
	return out
}

// PointerOffsets returns the byte offsets of every pointer-valued cell in
// the layout, inline sub-aggregates included. The offsets feed the runtime
// type descriptors a future tracing collector would walk.
func (l *Layout) PointerOffsets() []uint32 {
	var out []uint32
	for i := range l.Fields {
		f := &l.Fields[i]
		if f.Inline != nil {
			for _, off := range f.Inline.PointerOffsets() {
				out = append(out, f.Offset+off)
			}
			continue
		}
		if f.isPointer() {
			out = append(out, f.Offset)
		}
	}
	return out
}

func (f *FieldLayout) isPointer() bool {
	if f.ByRef {
		return true
	}
	switch f.Kind {
	case types.KindString, types.KindReference, types.KindOption,
		types.KindResult, types.KindList, types.KindGene:
		return true
	}
	return false
}

// LayoutTable computes and caches gene layouts. Layouts are computed once
// in declaration order and never change afterwards, so every function body
// emitted later sees identical offsets.
type LayoutTable struct {
	in       *types.Interner
	reporter diag.Reporter

	byGene    map[types.TypeID]*Layout
	order     []types.TypeID
	computing map[types.TypeID]bool
}

// NewLayoutTable constructs an empty table over the interner.
func NewLayoutTable(in *types.Interner, reporter diag.Reporter) *LayoutTable {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	return &LayoutTable{
		in:        in,
		reporter:  reporter,
		byGene:    make(map[types.TypeID]*Layout, 8),
		computing: make(map[types.TypeID]bool, 4),
	}
}

// Lookup returns the cached layout for a gene type.
func (t *LayoutTable) Lookup(id types.TypeID) (*Layout, bool) {
	l, ok := t.byGene[id]
	return l, ok
}

// LookupByName resolves a layout through the gene's registered name.
func (t *LayoutTable) LookupByName(name string) (*Layout, bool) {
	id, ok := t.in.GeneByName(name)
	if !ok {
		return nil, false
	}
	return t.Lookup(id)
}

// Order returns gene TypeIDs in layout-computation order.
func (t *LayoutTable) Order() []types.TypeID {
	return t.order
}

// Compute runs the offset and alignment algorithm for a gene and registers
// the result. A second call for the same gene returns the cached layout.
func (t *LayoutTable) Compute(id types.TypeID) (*Layout, error) {
	if l, ok := t.byGene[id]; ok {
		return l, nil
	}
	info, ok := t.in.GeneInfo(id)
	if !ok {
		err := fmt.Errorf("wasm: layout of non-gene type %s", t.in.String(id))
		diag.ReportError(t.reporter, diag.LayoutUnknownType, source.Span{}, err.Error()).Emit()
		return nil, err
	}
	if t.computing[id] {
		err := fmt.Errorf("wasm: gene %s inline-embeds itself", info.Name)
		diag.ReportError(t.reporter, diag.LayoutInlineCycle, info.Decl, err.Error()).Emit()
		return nil, err
	}
	t.computing[id] = true
	defer delete(t.computing, id)

	l := &Layout{
		Gene:   id,
		Name:   info.Name,
		Index:  uint32(len(t.order) + 1),
		Align:  1,
		byName: make(map[string]int, len(info.Fields)),
	}
	cursor := uint32(0)
	for _, fd := range info.Fields {
		if _, dup := l.byName[fd.Name]; dup {
			err := fmt.Errorf("wasm: gene %s declares field %q twice", info.Name, fd.Name)
			diag.ReportError(t.reporter, diag.LayoutDuplicateField, fd.Span, err.Error()).Emit()
			return nil, err
		}
		fl, err := t.fieldLayout(info.Name, fd)
		if err != nil {
			return nil, err
		}
		fl.Offset = alignUp(cursor, fl.Align)
		cursor = fl.Offset + fl.Size
		if fl.Align > l.Align {
			l.Align = fl.Align
		}
		l.byName[fl.Name] = len(l.Fields)
		l.Fields = append(l.Fields, fl)
	}
	l.Size = alignUp(cursor, l.Align)

	t.byGene[id] = l
	t.order = append(t.order, id)
	return l, nil
}

// fieldLayout sizes one field. Inline gene fields recurse into the embedded
// layout; by-reference gene fields collapse to a single pointer cell.
func (t *LayoutTable) fieldLayout(gene string, fd types.GeneField) (FieldLayout, error) {
	fl := FieldLayout{Name: fd.Name, Type: fd.Type, ByRef: fd.ByRef}
	ty, ok := t.in.Lookup(fd.Type)
	if !ok {
		err := fmt.Errorf("wasm: gene %s field %q has unresolved type", gene, fd.Name)
		diag.ReportError(t.reporter, diag.LayoutUnknownType, fd.Span, err.Error()).Emit()
		return fl, err
	}
	fl.Kind = ty.Kind
	switch ty.Kind {
	case types.KindBool, types.KindChar:
		fl.Size, fl.Align, fl.Val = 4, 4, ValI32
	case types.KindInt:
		if ty.Width == types.Width64 {
			fl.Size, fl.Align, fl.Val = 8, 8, ValI64
		} else {
			fl.Size, fl.Align, fl.Val = 4, 4, ValI32
		}
	case types.KindFloat:
		if ty.Width == types.Width64 {
			fl.Size, fl.Align, fl.Val = 8, 8, ValF64
		} else {
			fl.Size, fl.Align, fl.Val = 4, 4, ValF32
		}
	case types.KindString, types.KindReference, types.KindOption,
		types.KindResult, types.KindList:
		fl.Size, fl.Align, fl.Val = ptrSize, ptrAlign, ValI32
	case types.KindGene:
		if fd.ByRef {
			fl.Size, fl.Align, fl.Val = ptrSize, ptrAlign, ValI32
			return fl, nil
		}
		sub, err := t.Compute(fd.Type)
		if err != nil {
			return fl, err
		}
		fl.Size, fl.Align, fl.Inline = sub.Size, sub.Align, sub
	default:
		err := fmt.Errorf("wasm: gene %s field %q has unsized type %s", gene, fd.Name, ty.Kind)
		diag.ReportError(t.reporter, diag.LayoutUnsizedField, fd.Span, err.Error()).Emit()
		return fl, err
	}
	return fl, nil
}

// alignUp rounds v up to the next multiple of align (a power of two).
func alignUp(v, align uint32) uint32 {
	return (v + align - 1) &^ (align - 1)
}
