package diag_test

import (
	"strings"
	"testing"

	"dol/internal/diag"
	"dol/internal/source"
)

func TestRender_PositionlessWithoutFileSet(t *testing.T) {
	bag := diag.NewBag(5)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.EmitBreakOutside,
		Message:  "break outside any breakable region",
		Primary:  source.Span{File: 7, Start: 3, End: 8},
	})

	var sb strings.Builder
	diag.Render(&sb, bag, nil, diag.RenderOpts{})
	out := sb.String()
	if !strings.Contains(out, "ERROR E8004: break outside any breakable region") {
		t.Errorf("output = %q", out)
	}
	if strings.Contains(out, ":3:") {
		t.Errorf("positionless render leaked an offset: %q", out)
	}
}

func TestRender_WithFileSetAndContext(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.Add("main.dol", []byte("fn f() {\n  break;\n}\n"))

	bag := diag.NewBag(5)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.EmitBreakOutside,
		Message:  "break outside any breakable region",
		Primary:  source.Span{File: id, Start: 11, End: 16},
	})

	var sb strings.Builder
	diag.Render(&sb, bag, fs, diag.RenderOpts{Context: true})
	out := sb.String()
	if !strings.Contains(out, "main.dol:2:3:") {
		t.Errorf("missing position: %q", out)
	}
	if !strings.Contains(out, "  break;") {
		t.Errorf("missing context line: %q", out)
	}
	if !strings.Contains(out, "^~~~~") {
		t.Errorf("missing caret underline: %q", out)
	}
}

func TestRender_NotesFollowDiagnostic(t *testing.T) {
	bag := diag.NewBag(5)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.LayoutInfo,
		Message:  "layout recomputed",
		Notes:    []diag.Note{{Msg: "first computed here"}},
	})

	var sb strings.Builder
	diag.Render(&sb, bag, nil, diag.RenderOpts{})
	if !strings.Contains(sb.String(), "note: first computed here") {
		t.Errorf("output = %q", sb.String())
	}
}
