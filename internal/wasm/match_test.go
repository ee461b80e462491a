package wasm

import (
	"bytes"
	"testing"

	"dol/internal/diag"
	"dol/internal/hir"
)

func litIntPattern(v int64) hir.Pattern {
	return hir.Pattern{Kind: hir.PatLiteral, Lit: &hir.LiteralData{Kind: hir.LitInt, Int: v}}
}

func (f *fixture) i32Match(arms []hir.MatchArm) *hir.Module {
	expr := &hir.Expr{
		Kind: hir.ExprMatch,
		Type: f.b.I32,
		Data: hir.MatchData{Scrutinee: f.varRef("x", f.b.I32), Arms: arms},
	}
	return &hir.Module{Name: "m", Funcs: []hir.FuncDecl{{
		Name:   "pick",
		Params: []hir.Param{{Name: "x", Type: f.b.I32}},
		Ret:    f.b.I32,
		Body:   &hir.Block{Tail: expr},
	}}}
}

func TestEmit_DenseIntMatchUsesTable(t *testing.T) {
	f := newFixture()
	m := f.i32Match([]hir.MatchArm{
		{Pattern: litIntPattern(0), Body: f.intLit(10)},
		{Pattern: litIntPattern(1), Body: f.intLit(11)},
		{Pattern: litIntPattern(2), Body: f.intLit(12)},
		{Pattern: hir.Pattern{Kind: hir.PatWildcard}, Body: f.intLit(0)},
	})
	bin, bag, err := f.build(t, m)
	if err != nil {
		t.Fatalf("build failed: %v (%+v)", err, bag.Items())
	}
	// selector: tmp - lo, then the indexed branch over three slots
	if !bytes.Contains(bin, []byte{opI32Sub, opBrTable, 0x03, 0x00, 0x01, 0x02, 0x03}) {
		t.Error("missing br_table selector")
	}
}

func TestEmit_SparseIntMatchFallsBackToChain(t *testing.T) {
	f := newFixture()
	m := f.i32Match([]hir.MatchArm{
		{Pattern: litIntPattern(0), Body: f.intLit(1)},
		{Pattern: litIntPattern(5000), Body: f.intLit(2)},
		{Pattern: hir.Pattern{Kind: hir.PatWildcard}, Body: f.intLit(0)},
	})
	bin, bag, err := f.build(t, m)
	if err != nil {
		t.Fatalf("build failed: %v (%+v)", err, bag.Items())
	}
	// linear chain: equality test, inverted, skip to the next arm
	if !bytes.Contains(bin, []byte{opI32Eq, opI32Eqz, opBrIf, 0x00}) {
		t.Error("missing equality chain test")
	}
}

func TestEmit_RangeHolesRouteToCatchAll(t *testing.T) {
	f := newFixture()
	m := f.i32Match([]hir.MatchArm{
		{Pattern: litIntPattern(0), Body: f.intLit(1)},
		{Pattern: litIntPattern(2), Body: f.intLit(2)},
		{Pattern: litIntPattern(3), Body: f.intLit(3)},
		{Pattern: hir.Pattern{Kind: hir.PatWildcard}, Body: f.intLit(0)},
	})
	bin, bag, err := f.build(t, m)
	if err != nil {
		t.Fatalf("build failed: %v (%+v)", err, bag.Items())
	}
	// slot for value 1 is a hole and targets the catch-all region (3),
	// as does the out-of-range default
	if !bytes.Contains(bin, []byte{opBrTable, 0x04, 0x00, 0x03, 0x01, 0x02, 0x03}) {
		t.Error("hole slot does not target the catch-all region")
	}
}

func TestEmit_I64MatchStaysLinear(t *testing.T) {
	f := newFixture()
	expr := &hir.Expr{
		Kind: hir.ExprMatch,
		Type: f.b.I32,
		Data: hir.MatchData{
			Scrutinee: f.varRef("x", f.b.I64),
			Arms: []hir.MatchArm{
				{Pattern: litIntPattern(0), Body: f.intLit(1)},
				{Pattern: litIntPattern(1), Body: f.intLit(2)},
				{Pattern: hir.Pattern{Kind: hir.PatWildcard}, Body: f.intLit(0)},
			},
		},
	}
	m := &hir.Module{Name: "m", Funcs: []hir.FuncDecl{{
		Name:   "pick",
		Params: []hir.Param{{Name: "x", Type: f.b.I64}},
		Ret:    f.b.I32,
		Body:   &hir.Block{Tail: expr},
	}}}
	bin, bag, err := f.build(t, m)
	if err != nil {
		t.Fatalf("build failed: %v (%+v)", err, bag.Items())
	}
	if !bytes.Contains(bin, []byte{opI64Eq, opI32Eqz, opBrIf, 0x00}) {
		t.Error("missing 64-bit equality chain")
	}
}

func TestEmit_BindingArmSeesScrutinee(t *testing.T) {
	f := newFixture()
	m := f.i32Match([]hir.MatchArm{
		{Pattern: litIntPattern(0), Body: f.intLit(100)},
		{
			Pattern: hir.Pattern{Kind: hir.PatBind, Name: "other"},
			Body:    f.bin(hir.BinAdd, f.b.I32, f.varRef("other", f.b.I32), f.intLit(1)),
		},
	})
	_, bag, err := f.build(t, m)
	if err != nil {
		t.Fatalf("build failed: %v (%+v)", err, bag.Items())
	}
}

func TestEmit_MatchWithoutCatchAllReported(t *testing.T) {
	f := newFixture()
	m := f.i32Match([]hir.MatchArm{
		{Pattern: litIntPattern(0), Body: f.intLit(1)},
		{Pattern: litIntPattern(1), Body: f.intLit(2)},
	})
	_, bag, err := f.build(t, m)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !bagHasCode(bag, diag.EmitMissingCatchAll) {
		t.Errorf("expected %v, bag holds %+v", diag.EmitMissingCatchAll, bag.Items())
	}
}

func TestEmit_ArmsAfterCatchAllAreDead(t *testing.T) {
	f := newFixture()
	m := f.i32Match([]hir.MatchArm{
		{Pattern: hir.Pattern{Kind: hir.PatWildcard}, Body: f.intLit(7)},
		{Pattern: litIntPattern(1), Body: f.varRef("never", f.b.I32)},
	})
	// the dead arm references an undeclared name; it must never be emitted
	_, bag, err := f.build(t, m)
	if err != nil {
		t.Fatalf("build failed: %v (%+v)", err, bag.Items())
	}
}
