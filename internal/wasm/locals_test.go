package wasm

import "testing"

func TestLocalsTable_ParamsSeedSlots(t *testing.T) {
	lt := NewLocalsTable([]localSlot{
		{name: "self", typ: ValI32},
		{name: "n", typ: ValI64},
	})
	if lt.NumParams() != 2 || lt.NumSlots() != 2 {
		t.Fatalf("params=%d slots=%d, want 2/2", lt.NumParams(), lt.NumSlots())
	}
	idx, ok := lt.Lookup("n")
	if !ok || idx != 1 {
		t.Errorf("Lookup(n) = (%d, %v), want (1, true)", idx, ok)
	}
	vt, ok := lt.TypeOf(1)
	if !ok || vt != ValI64 {
		t.Errorf("TypeOf(1) = (%s, %v), want (i64, true)", vt, ok)
	}
}

func TestLocalsTable_ShadowingMintsFreshSlot(t *testing.T) {
	lt := NewLocalsTable(nil)
	outer, err := lt.Declare("x", ValI32)
	if err != nil {
		t.Fatal(err)
	}
	lt.PushScope()
	inner, err := lt.Declare("x", ValI64)
	if err != nil {
		t.Fatal(err)
	}
	if inner == outer {
		t.Fatalf("shadowing reused slot %d", outer)
	}
	if idx, _ := lt.Lookup("x"); idx != inner {
		t.Errorf("inner Lookup(x) = %d, want %d", idx, inner)
	}
	lt.PopScope()
	if idx, _ := lt.Lookup("x"); idx != outer {
		t.Errorf("after PopScope Lookup(x) = %d, want %d", idx, outer)
	}
	// the shadowed slot stays allocated
	if lt.NumSlots() != 2 {
		t.Errorf("NumSlots = %d, want 2", lt.NumSlots())
	}
}

func TestLocalsTable_TempsAreAnonymous(t *testing.T) {
	lt := NewLocalsTable(nil)
	idx, err := lt.DeclareTemp(ValF64)
	if err != nil {
		t.Fatal(err)
	}
	if idx != 0 {
		t.Errorf("temp slot = %d, want 0", idx)
	}
	if _, ok := lt.Lookup(""); ok {
		t.Error("temp slot resolved by empty name")
	}
}

func TestLocalsTable_FinalizeRunLengthEncodes(t *testing.T) {
	lt := NewLocalsTable([]localSlot{{name: "p", typ: ValF32}})
	for _, typ := range []ValType{ValI32, ValI32, ValI64, ValI32} {
		if _, err := lt.Declare("v", typ); err != nil {
			t.Fatal(err)
		}
	}
	got := lt.Finalize()
	want := []LocalGroup{
		{Count: 2, Type: ValI32},
		{Count: 1, Type: ValI64},
		{Count: 1, Type: ValI32},
	}
	if len(got) != len(want) {
		t.Fatalf("groups = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("group %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLocalsTable_PopScopeKeepsRootScope(t *testing.T) {
	lt := NewLocalsTable(nil)
	if _, err := lt.Declare("a", ValI32); err != nil {
		t.Fatal(err)
	}
	lt.PopScope() // must keep the function scope
	if _, ok := lt.Lookup("a"); !ok {
		t.Error("root-scope binding lost after PopScope")
	}
}
