package wasm

import (
	"testing"

	"dol/internal/diag"
	"dol/internal/source"
	"dol/internal/types"
)

// registerGene wires one gene declaration into an interner.
func registerGene(in *types.Interner, name string, fields []types.GeneField) types.TypeID {
	id := in.RegisterGene(name, source.Span{})
	in.SetGeneFields(id, fields)
	return id
}

func bagHasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestLayoutTable_WideScalarPair(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	id := registerGene(in, "Pair", []types.GeneField{
		{Name: "a", Type: b.I64},
		{Name: "b", Type: b.F64},
	})

	lt := NewLayoutTable(in, nil)
	l, err := lt.Compute(id)
	if err != nil {
		t.Fatal(err)
	}
	if l.Size != 16 || l.Align != 8 {
		t.Errorf("size/align = %d/%d, want 16/8", l.Size, l.Align)
	}
	wantOffsets := []uint32{0, 8}
	for i, f := range l.Fields {
		if f.Offset != wantOffsets[i] {
			t.Errorf("field %s offset = %d, want %d", f.Name, f.Offset, wantOffsets[i])
		}
	}
}

func TestLayoutTable_PaddingBetweenFields(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	id := registerGene(in, "Mixed", []types.GeneField{
		{Name: "a", Type: b.I32},
		{Name: "b", Type: b.F64},
		{Name: "c", Type: b.I32},
	})

	l, err := NewLayoutTable(in, nil).Compute(id)
	if err != nil {
		t.Fatal(err)
	}
	wantOffsets := []uint32{0, 8, 16}
	for i, f := range l.Fields {
		if f.Offset != wantOffsets[i] {
			t.Errorf("field %s offset = %d, want %d", f.Name, f.Offset, wantOffsets[i])
		}
	}
	// tail padding keeps back-to-back instances aligned
	if l.Size != 24 || l.Align != 8 {
		t.Errorf("size/align = %d/%d, want 24/8", l.Size, l.Align)
	}
}

func TestLayoutTable_OffsetInvariants(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	inner := registerGene(in, "Inner", []types.GeneField{
		{Name: "x", Type: b.I64},
		{Name: "flag", Type: b.Bool},
	})
	outer := registerGene(in, "Outer", []types.GeneField{
		{Name: "tag", Type: b.Char},
		{Name: "body", Type: inner},
		{Name: "name", Type: b.String},
	})

	lt := NewLayoutTable(in, nil)
	for _, id := range []types.TypeID{inner, outer} {
		l, err := lt.Compute(id)
		if err != nil {
			t.Fatal(err)
		}
		if l.Size%l.Align != 0 {
			t.Errorf("%s: size %d not a multiple of align %d", l.Name, l.Size, l.Align)
		}
		for _, f := range l.Fields {
			if f.Offset%f.Align != 0 {
				t.Errorf("%s.%s: offset %d not aligned to %d", l.Name, f.Name, f.Offset, f.Align)
			}
		}
	}
}

func TestLayoutTable_Deterministic(t *testing.T) {
	build := func() *Layout {
		in := types.NewInterner()
		b := in.Builtins()
		id := registerGene(in, "Rec", []types.GeneField{
			{Name: "a", Type: b.Bool},
			{Name: "b", Type: b.I64},
			{Name: "c", Type: b.F32},
		})
		l, err := NewLayoutTable(in, nil).Compute(id)
		if err != nil {
			panic(err)
		}
		return l
	}
	first, second := build(), build()
	if first.Size != second.Size || first.Align != second.Align {
		t.Fatalf("layouts diverge: %d/%d vs %d/%d", first.Size, first.Align, second.Size, second.Align)
	}
	for i := range first.Fields {
		if first.Fields[i].Offset != second.Fields[i].Offset {
			t.Errorf("field %s offset %d vs %d", first.Fields[i].Name,
				first.Fields[i].Offset, second.Fields[i].Offset)
		}
	}
}

func TestLayoutTable_InlineEmbedding(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	inner := registerGene(in, "Point", []types.GeneField{
		{Name: "x", Type: b.F64},
		{Name: "y", Type: b.F64},
	})
	outer := registerGene(in, "Shape", []types.GeneField{
		{Name: "kind", Type: b.I32},
		{Name: "origin", Type: inner},
		{Name: "z", Type: b.I32},
	})

	lt := NewLayoutTable(in, nil)
	l, err := lt.Compute(outer)
	if err != nil {
		t.Fatal(err)
	}
	origin, ok := l.Field("origin")
	if !ok {
		t.Fatal("no origin field")
	}
	if origin.Inline == nil {
		t.Fatal("origin not inline-embedded")
	}
	if origin.Offset != 8 || origin.Size != 16 || origin.Align != 8 {
		t.Errorf("origin offset/size/align = %d/%d/%d, want 8/16/8", origin.Offset, origin.Size, origin.Align)
	}
	z, _ := l.Field("z")
	if z.Offset != 24 {
		t.Errorf("z offset = %d, want 24", z.Offset)
	}
	if l.Size != 32 {
		t.Errorf("Shape size = %d, want 32", l.Size)
	}
	// computing the outer layout registers the embedded one too
	if _, ok := lt.Lookup(inner); !ok {
		t.Error("embedded layout not cached")
	}
}

func TestLayoutTable_ByRefFieldIsOnePointerCell(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	target := registerGene(in, "Node", []types.GeneField{
		{Name: "v", Type: b.I64},
	})
	list := registerGene(in, "List", []types.GeneField{
		{Name: "len", Type: b.I32},
		{Name: "head", Type: target, ByRef: true},
	})

	l, err := NewLayoutTable(in, nil).Compute(list)
	if err != nil {
		t.Fatal(err)
	}
	head, _ := l.Field("head")
	if head.Size != 4 || head.Align != 4 || head.Val != ValI32 {
		t.Errorf("head size/align/val = %d/%d/%s, want 4/4/i32", head.Size, head.Align, head.Val)
	}
	if head.Inline != nil {
		t.Error("by-ref field got an inline sub-layout")
	}
	offs := l.PointerOffsets()
	if len(offs) != 1 || offs[0] != head.Offset {
		t.Errorf("PointerOffsets = %v, want [%d]", offs, head.Offset)
	}
}

func TestLayoutTable_PointerOffsetsThroughInline(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	inner := registerGene(in, "Named", []types.GeneField{
		{Name: "id", Type: b.I32},
		{Name: "name", Type: b.String},
	})
	outer := registerGene(in, "Entry", []types.GeneField{
		{Name: "slot", Type: b.I64},
		{Name: "who", Type: inner},
	})

	l, err := NewLayoutTable(in, nil).Compute(outer)
	if err != nil {
		t.Fatal(err)
	}
	offs := l.PointerOffsets()
	// the string cell sits at who.Offset + 4
	who, _ := l.Field("who")
	want := who.Offset + 4
	if len(offs) != 1 || offs[0] != want {
		t.Errorf("PointerOffsets = %v, want [%d]", offs, want)
	}
}

func TestLayoutTable_InlineCycleReported(t *testing.T) {
	in := types.NewInterner()
	self := in.RegisterGene("Ouro", source.Span{})
	in.SetGeneFields(self, []types.GeneField{
		{Name: "tail", Type: self},
	})

	bag := diag.NewBag(10)
	_, err := NewLayoutTable(in, diag.BagReporter{Bag: bag}).Compute(self)
	if err == nil {
		t.Fatal("expected cycle error, got nil")
	}
	if !bagHasCode(bag, diag.LayoutInlineCycle) {
		t.Errorf("expected %v, bag holds %+v", diag.LayoutInlineCycle, bag.Items())
	}
}

func TestLayoutTable_ByRefBreaksCycle(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	self := in.RegisterGene("Node", source.Span{})
	in.SetGeneFields(self, []types.GeneField{
		{Name: "v", Type: b.I32},
		{Name: "next", Type: self, ByRef: true},
	})

	l, err := NewLayoutTable(in, nil).Compute(self)
	if err != nil {
		t.Fatal(err)
	}
	if l.Size != 8 {
		t.Errorf("Node size = %d, want 8", l.Size)
	}
}

func TestLayoutTable_DuplicateFieldReported(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	id := registerGene(in, "Dup", []types.GeneField{
		{Name: "x", Type: b.I32},
		{Name: "x", Type: b.F64},
	})

	bag := diag.NewBag(10)
	_, err := NewLayoutTable(in, diag.BagReporter{Bag: bag}).Compute(id)
	if err == nil {
		t.Fatal("expected duplicate-field error, got nil")
	}
	if !bagHasCode(bag, diag.LayoutDuplicateField) {
		t.Errorf("expected %v, bag holds %+v", diag.LayoutDuplicateField, bag.Items())
	}
}

func TestLayoutTable_NonGeneRejected(t *testing.T) {
	in := types.NewInterner()
	bag := diag.NewBag(10)
	_, err := NewLayoutTable(in, diag.BagReporter{Bag: bag}).Compute(in.Builtins().I32)
	if err == nil {
		t.Fatal("expected error for scalar type, got nil")
	}
	if !bagHasCode(bag, diag.LayoutUnknownType) {
		t.Errorf("expected %v, bag holds %+v", diag.LayoutUnknownType, bag.Items())
	}
}

func TestLayoutTable_IndexFollowsRegistrationOrder(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	first := registerGene(in, "A", []types.GeneField{{Name: "v", Type: b.I32}})
	second := registerGene(in, "B", []types.GeneField{{Name: "v", Type: b.I32}})

	lt := NewLayoutTable(in, nil)
	la, err := lt.Compute(first)
	if err != nil {
		t.Fatal(err)
	}
	lb, err := lt.Compute(second)
	if err != nil {
		t.Fatal(err)
	}
	if la.Index != 1 || lb.Index != 2 {
		t.Errorf("indices = %d, %d, want 1, 2", la.Index, lb.Index)
	}
	order := lt.Order()
	if len(order) != 2 || order[0] != first || order[1] != second {
		t.Errorf("Order = %v, want [%d %d]", order, first, second)
	}
}
