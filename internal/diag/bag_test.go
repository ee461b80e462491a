package diag_test

import (
	"testing"

	"dol/internal/diag"
	"dol/internal/source"
)

func TestBag_CapDropsOverflow(t *testing.T) {
	bag := diag.NewBag(2)
	if !bag.Add(diag.Diagnostic{Code: diag.EmitInfo}) {
		t.Error("first Add rejected")
	}
	if !bag.Add(diag.Diagnostic{Code: diag.EmitInfo}) {
		t.Error("second Add rejected")
	}
	if bag.Add(diag.Diagnostic{Code: diag.EmitInfo}) {
		t.Error("Add past the cap accepted")
	}
	if bag.Len() != 2 {
		t.Errorf("Len = %d, want 2", bag.Len())
	}
}

func TestBag_HasErrors(t *testing.T) {
	bag := diag.NewBag(5)
	bag.Add(diag.Diagnostic{Severity: diag.SevInfo})
	bag.Add(diag.Diagnostic{Severity: diag.SevWarning})
	if bag.HasErrors() {
		t.Error("warnings counted as errors")
	}
	bag.Add(diag.Diagnostic{Severity: diag.SevError})
	if !bag.HasErrors() {
		t.Error("error not detected")
	}
}

func TestBag_SortIsDeterministic(t *testing.T) {
	bag := diag.NewBag(10)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevWarning, Code: diag.LayoutInfo,
		Primary: source.Span{File: 2, Start: 10},
	})
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError, Code: diag.EmitBreakOutside,
		Primary: source.Span{File: 1, Start: 50},
	})
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError, Code: diag.EmitUndeclaredName,
		Primary: source.Span{File: 1, Start: 5},
	})
	bag.Add(diag.Diagnostic{
		Severity: diag.SevWarning, Code: diag.EmitInfo,
		Primary: source.Span{File: 1, Start: 5},
	})
	bag.Sort()

	items := bag.Items()
	// file, then offset, then severity descending
	if items[0].Code != diag.EmitUndeclaredName {
		t.Errorf("first item = %+v", items[0])
	}
	if items[1].Code != diag.EmitInfo {
		t.Errorf("second item = %+v", items[1])
	}
	if items[2].Code != diag.EmitBreakOutside {
		t.Errorf("third item = %+v", items[2])
	}
	if items[3].Code != diag.LayoutInfo {
		t.Errorf("fourth item = %+v", items[3])
	}
}

func TestBag_MergeGrowsCap(t *testing.T) {
	a := diag.NewBag(1)
	a.Add(diag.Diagnostic{Code: diag.EmitInfo})
	b := diag.NewBag(2)
	b.Add(diag.Diagnostic{Code: diag.LayoutInfo})
	b.Add(diag.Diagnostic{Code: diag.AsmInfo})

	a.Merge(b)
	if a.Len() != 3 {
		t.Errorf("merged Len = %d, want 3", a.Len())
	}
	a.Merge(nil) // must not panic
}

func TestReportBuilder_EmitsOnce(t *testing.T) {
	bag := diag.NewBag(5)
	r := diag.BagReporter{Bag: bag}
	b := diag.ReportError(r, diag.EmitBreakOutside, source.Span{}, "break outside any breakable region").
		WithNote(source.Span{}, "enclosing function has no loops")
	b.Emit()
	b.Emit()
	if bag.Len() != 1 {
		t.Fatalf("Len = %d, want 1", bag.Len())
	}
	d := bag.Items()[0]
	if d.Code != diag.EmitBreakOutside || d.Severity != diag.SevError {
		t.Errorf("diagnostic = %+v", d)
	}
	if len(d.Notes) != 1 {
		t.Errorf("notes = %+v", d.Notes)
	}
}

func TestCode_String(t *testing.T) {
	if got := diag.EmitBreakOutside.String(); got != "E8004" {
		t.Errorf("Code.String = %q, want E8004", got)
	}
}
