package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"dol/internal/source"
)

// RenderOpts controls terminal rendering of diagnostics.
type RenderOpts struct {
	Color   bool
	Context bool // include the offending line with a caret underline
}

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan)
	posColor  = color.New(color.Bold)
)

// Render writes every diagnostic in the bag to w, one entry per diagnostic:
//
//	path:line:col: ERROR E8004: break outside loop or block
//	    break;
//	    ^~~~~
//
// Callers are expected to Sort the bag first.
func Render(w io.Writer, bag *Bag, fs *source.FileSet, opts RenderOpts) {
	if bag == nil {
		return
	}
	for _, d := range bag.Items() {
		renderOne(w, d, fs, opts)
	}
}

func renderOne(w io.Writer, d Diagnostic, fs *source.FileSet, opts RenderOpts) {
	sev := d.Severity.String()
	if opts.Color {
		switch d.Severity {
		case SevError:
			sev = errColor.Sprint(sev)
		case SevWarning:
			sev = warnColor.Sprint(sev)
		default:
			sev = infoColor.Sprint(sev)
		}
	}

	file := fs.Get(d.Primary.File)
	if file == nil {
		fmt.Fprintf(w, "%s %s: %s\n", sev, d.Code, d.Message)
		return
	}
	line, col := file.Position(d.Primary.Start)
	pos := fmt.Sprintf("%s:%d:%d:", file.Path, line, col)
	if opts.Color {
		pos = posColor.Sprint(pos)
	}
	fmt.Fprintf(w, "%s %s %s: %s\n", pos, sev, d.Code, d.Message)

	if opts.Context {
		renderContext(w, file, d.Primary, line, col)
	}
	for _, n := range d.Notes {
		nf := fs.Get(n.Span.File)
		if nf == nil {
			fmt.Fprintf(w, "  note: %s\n", n.Msg)
			continue
		}
		nl, nc := nf.Position(n.Span.Start)
		fmt.Fprintf(w, "  note: %s:%d:%d: %s\n", nf.Path, nl, nc, n.Msg)
	}
}

func renderContext(w io.Writer, file *source.File, sp source.Span, line, col int) {
	content := file.LineContent(line)
	if content == nil {
		return
	}
	text := string(content)
	fmt.Fprintf(w, "    %s\n", text)

	// The caret column must account for display width of the prefix, not
	// byte count, so wide runes and tabs line up.
	prefix := text
	if col-1 < len(text) {
		prefix = text[:col-1]
	}
	pad := runewidth.StringWidth(strings.ReplaceAll(prefix, "\t", "    "))
	width := int(sp.Len())
	if width < 1 {
		width = 1
	}
	if rest := len(text) - (col - 1); width > rest && rest > 0 {
		width = rest
	}
	fmt.Fprintf(w, "    %s^%s\n", strings.Repeat(" ", pad), strings.Repeat("~", width-1))
}
