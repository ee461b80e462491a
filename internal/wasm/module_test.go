package wasm

import (
	"bytes"
	"testing"

	"dol/internal/diag"
	"dol/internal/hir"
	"dol/internal/source"
	"dol/internal/types"
)

func TestAssembler_EmptyModuleHeader(t *testing.T) {
	f := newFixture()
	bin, bag, err := f.build(t, &hir.Module{Name: "empty"})
	if err != nil {
		t.Fatalf("build failed: %v (%+v)", err, bag.Items())
	}
	want := append(append([]byte{}, wasmMagic...), wasmVersion...)
	if !bytes.HasPrefix(bin, want) {
		t.Errorf("module header = %x, want %x", bin[:8], want)
	}
}

func TestAssembler_ExportsMemoryAndAlloc(t *testing.T) {
	f := newFixture()
	m := &hir.Module{Name: "exp", Funcs: []hir.FuncDecl{
		{Name: "visible", Public: true, Body: &hir.Block{}},
		{Name: "hidden", Body: &hir.Block{}},
	}}
	bag := diag.NewBag(10)
	asm := NewAssembler(f.in, diag.BagReporter{Bag: bag}, DefaultConfig())
	if _, err := asm.Build(m); err != nil {
		t.Fatalf("build failed: %v (%+v)", err, bag.Items())
	}
	got := asm.Exports()
	want := []string{"memory", "alloc", "visible"}
	if len(got) != len(want) {
		t.Fatalf("Exports = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("export %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestAssembler_MethodExportName(t *testing.T) {
	f := newFixture()
	counterID := f.in.RegisterGene("Counter", source.Span{})
	m := &hir.Module{
		Name:  "methods",
		Genes: []hir.GeneDecl{{Name: "Counter", Fields: []hir.FieldDecl{{Name: "n", Type: f.b.I32}}}},
		Funcs: []hir.FuncDecl{{
			Name:   "value",
			Owner:  "Counter",
			Params: []hir.Param{{Name: "self", Type: counterID}},
			Ret:    f.b.I32,
			Public: true,
			Body: &hir.Block{Tail: &hir.Expr{
				Kind: hir.ExprFieldAccess,
				Type: f.b.I32,
				Data: hir.FieldAccessData{Base: f.varRef("self", counterID), Field: "n"},
			}},
		}},
	}
	bag := diag.NewBag(10)
	asm := NewAssembler(f.in, diag.BagReporter{Bag: bag}, DefaultConfig())
	bin, err := asm.Build(m)
	if err != nil {
		t.Fatalf("build failed: %v (%+v)", err, bag.Items())
	}
	if !bytes.Contains(bin, []byte("Counter.value")) {
		t.Error("qualified method name not exported")
	}
}

func TestAssembler_ConstructorRegisteredPerGene(t *testing.T) {
	f := newFixture()
	m := &hir.Module{
		Name: "ctor",
		Genes: []hir.GeneDecl{{Name: "Point", Fields: []hir.FieldDecl{
			{Name: "x", Type: f.b.I32},
			{Name: "y", Type: f.b.F64},
		}}},
	}
	bag := diag.NewBag(10)
	asm := NewAssembler(f.in, diag.BagReporter{Bag: bag}, DefaultConfig())
	if _, err := asm.Build(m); err != nil {
		t.Fatalf("build failed: %v (%+v)", err, bag.Items())
	}
	idx, fi, ok := asm.lookupFunc("Point.new")
	if !ok {
		t.Fatal("constructor not registered")
	}
	if idx == 0 {
		t.Error("constructor shares index 0 with the allocator")
	}
	sig := fi.typ
	if len(sig.params) != 2 || sig.params[0] != ValI32 || sig.params[1] != ValF64 {
		t.Errorf("ctor params = %v, want [i32 f64]", sig.params)
	}
	if len(sig.results) != 1 || sig.results[0] != ValI32 {
		t.Errorf("ctor results = %v, want [i32]", sig.results)
	}
	// allocation failure is passed through before any store
	if !bytes.Contains(fi.body, []byte{opI32Eqz, opIf, blockVoid, opI32Const, 0x00, opReturn}) {
		t.Error("constructor missing null passthrough")
	}
}

func TestAssembler_StructLitCallsConstructor(t *testing.T) {
	f := newFixture()
	pointID := f.in.RegisterGene("Point", source.Span{})
	lit := &hir.Expr{
		Kind: hir.ExprStructLit,
		Type: pointID,
		Data: hir.StructLitData{
			Gene:   "Point",
			Fields: []hir.FieldInit{{Name: "x", Value: f.intLit(3)}},
		},
	}
	m := &hir.Module{
		Name: "lit",
		Genes: []hir.GeneDecl{{Name: "Point", Fields: []hir.FieldDecl{
			{Name: "x", Type: f.b.I32},
			{Name: "y", Type: f.b.I32},
		}}},
		Funcs: []hir.FuncDecl{{
			Name:   "make",
			Ret:    pointID,
			Public: true,
			Body:   &hir.Block{Tail: lit},
		}},
	}
	bin, bag, err := f.build(t, m)
	if err != nil {
		t.Fatalf("build failed: %v (%+v)", err, bag.Items())
	}
	// omitted y becomes a zero constant before the constructor call;
	// alloc=0, ctor=1, make=2
	if !bytes.Contains(bin, []byte{opI32Const, 0x03, opI32Const, 0x00, opCall, 0x01}) {
		t.Error("missing zero fill and constructor call")
	}
}

func TestAssembler_StructLitUnknownFieldReported(t *testing.T) {
	f := newFixture()
	pointID := f.in.RegisterGene("Point", source.Span{})
	lit := &hir.Expr{
		Kind: hir.ExprStructLit,
		Type: pointID,
		Data: hir.StructLitData{
			Gene:   "Point",
			Fields: []hir.FieldInit{{Name: "z", Value: f.intLit(3)}},
		},
	}
	m := &hir.Module{
		Name:  "lit",
		Genes: []hir.GeneDecl{{Name: "Point", Fields: []hir.FieldDecl{{Name: "x", Type: f.b.I32}}}},
		Funcs: []hir.FuncDecl{{Name: "make", Ret: pointID, Body: &hir.Block{Tail: lit}}},
	}
	_, bag, err := f.build(t, m)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !bagHasCode(bag, diag.LayoutUnknownField) {
		t.Errorf("expected %v, bag holds %+v", diag.LayoutUnknownField, bag.Items())
	}
}

func TestAssembler_DuplicateFunctionReported(t *testing.T) {
	f := newFixture()
	m := &hir.Module{Name: "dup", Funcs: []hir.FuncDecl{
		{Name: "f", Body: &hir.Block{}},
		{Name: "f", Body: &hir.Block{}},
	}}
	_, bag, err := f.build(t, m)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !bagHasCode(bag, diag.AsmDuplicateExport) {
		t.Errorf("expected %v, bag holds %+v", diag.AsmDuplicateExport, bag.Items())
	}
}

func TestAssembler_CallToUnknownFunctionReported(t *testing.T) {
	f := newFixture()
	call := &hir.Expr{
		Kind: hir.ExprCall,
		Type: f.b.I32,
		Data: hir.CallData{Callee: "missing", Args: []*hir.Expr{f.intLit(1)}},
	}
	m := &hir.Module{Name: "calls", Funcs: []hir.FuncDecl{{
		Name: "f", Ret: f.b.I32, Body: &hir.Block{Tail: call},
	}}}
	_, bag, err := f.build(t, m)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !bagHasCode(bag, diag.AsmDanglingFunction) {
		t.Errorf("expected %v, bag holds %+v", diag.AsmDanglingFunction, bag.Items())
	}
}

func TestAssembler_StringLiteralsLandInDataSection(t *testing.T) {
	f := newFixture()
	lit := &hir.Expr{
		Kind: hir.ExprLiteral,
		Type: f.b.String,
		Data: hir.LiteralData{Kind: hir.LitString, Str: "hello"},
	}
	m := &hir.Module{Name: "strings", Funcs: []hir.FuncDecl{{
		Name: "greeting", Ret: f.b.String, Public: true, Body: &hir.Block{Tail: lit},
	}}}
	bin, bag, err := f.build(t, m)
	if err != nil {
		t.Fatalf("build failed: %v (%+v)", err, bag.Items())
	}
	if !bytes.Contains(bin, []byte("hello")) {
		t.Error("literal bytes missing from the module")
	}
	// the cell is length-prefixed at the data base
	if !bytes.Contains(bin, append([]byte{0x05, 0x00, 0x00, 0x00}, "hello"...)) {
		t.Error("missing length prefix before the literal")
	}
}

func TestAssembler_StringLiteralDeduplicated(t *testing.T) {
	f := newFixture()
	bag := diag.NewBag(10)
	asm := NewAssembler(f.in, diag.BagReporter{Bag: bag}, DefaultConfig())
	first := asm.internString("shared")
	second := asm.internString("shared")
	if first != second {
		t.Errorf("same literal interned twice: %d vs %d", first, second)
	}
	if first != asm.cfg.DataBase {
		t.Errorf("first literal at %d, want data base %d", first, asm.cfg.DataBase)
	}
	next := asm.internString("other")
	if next%4 != 0 {
		t.Errorf("literal address %d not 4-aligned", next)
	}
}

func TestAssembler_HeapStartsAfterData(t *testing.T) {
	f := newFixture()
	bag := diag.NewBag(10)
	asm := NewAssembler(f.in, diag.BagReporter{Bag: bag}, DefaultConfig())
	if got := asm.heapStart(); got != asm.cfg.DataBase {
		t.Errorf("empty-data heap start = %d, want %d", got, asm.cfg.DataBase)
	}
	asm.internString("xyz")
	got := asm.heapStart()
	if got <= asm.cfg.DataBase {
		t.Errorf("heap start %d not past static data", got)
	}
	if got%8 != 0 {
		t.Errorf("heap start %d not 8-aligned", got)
	}
}

func TestAllocFuncBodyShape(t *testing.T) {
	body := allocFuncBody()
	if len(body) == 0 {
		t.Fatal("empty allocator body")
	}
	// exhaustion check branches on unsigned overflow of the bound
	if !bytes.Contains(body, []byte{opI32GtU, opIf, blockVoid, opI32Const, 0x00, opReturn}) {
		t.Error("missing out-of-memory check")
	}
	// the bump pointer only moves after the check passes
	if !bytes.Contains(body, []byte{opGlobalSet, 0x00}) {
		t.Error("missing bump pointer commit")
	}
	if body[len(body)-1] != opEnd {
		t.Error("body not terminated")
	}
}

func TestAssembler_SignatureDeduplication(t *testing.T) {
	f := newFixture()
	m := &hir.Module{Name: "sigs", Funcs: []hir.FuncDecl{
		{Name: "a", Params: []hir.Param{{Name: "x", Type: f.b.I32}}, Ret: f.b.I32,
			Body: &hir.Block{Tail: f.varRef("x", f.b.I32)}},
		{Name: "b", Params: []hir.Param{{Name: "y", Type: f.b.I32}}, Ret: f.b.I32,
			Body: &hir.Block{Tail: f.varRef("y", f.b.I32)}},
	}}
	bag := diag.NewBag(10)
	asm := NewAssembler(f.in, diag.BagReporter{Bag: bag}, DefaultConfig())
	if _, err := asm.Build(m); err != nil {
		t.Fatalf("build failed: %v (%+v)", err, bag.Items())
	}
	_, fa, _ := asm.lookupFunc("a")
	_, fb, _ := asm.lookupFunc("b")
	if fa.typeIdx != fb.typeIdx {
		t.Errorf("identical signatures got types %d and %d", fa.typeIdx, fb.typeIdx)
	}
}

func TestConfig_ZeroFallsBackToDefault(t *testing.T) {
	in := types.NewInterner()
	asm := NewAssembler(in, nil, Config{})
	if asm.cfg != DefaultConfig() {
		t.Errorf("cfg = %+v, want defaults", asm.cfg)
	}
}
