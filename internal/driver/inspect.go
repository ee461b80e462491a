package driver

import (
	"bytes"
	"fmt"
	"os"

	"dol/internal/diag"
	"dol/internal/hir"
	"dol/internal/wasm"
)

// FieldReport is one field row of an inspected layout.
type FieldReport struct {
	Name   string
	Type   string
	Offset uint32
	Size   uint32
	Align  uint32
	ByRef  bool
}

// GeneReport is one computed layout.
type GeneReport struct {
	Name           string
	Index          uint32
	Size           uint32
	Align          uint32
	Fields         []FieldReport
	PointerOffsets []uint32
}

// FuncReport is one function signature.
type FuncReport struct {
	Name   string
	Params []string
	Ret    string
	Public bool
}

// Report summarizes a compiled module for the inspect command.
type Report struct {
	ModuleName string
	Genes      []GeneReport
	Funcs      []FuncReport
	Exports    []string
	WasmSize   int
}

// InspectFile compiles one input without the cache and summarizes what the
// assembler produced: layouts, signatures and exports.
func InspectFile(path string, opts Options) (*Report, *diag.Bag, error) {
	input, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("driver: reading %s: %w", path, err)
	}
	if opts.MaxDiagnostics == 0 {
		opts.MaxDiagnostics = 100
	}
	in, m, err := hir.DecodeModule(bytes.NewReader(input))
	if err != nil {
		return nil, nil, fmt.Errorf("driver: %s: %w", path, err)
	}

	bag := diag.NewBag(opts.MaxDiagnostics)
	asm := wasm.NewAssembler(in, diag.BagReporter{Bag: bag}, opts.Config)
	bin, err := asm.Build(m)
	if err != nil {
		return nil, bag, err
	}

	rep := &Report{
		ModuleName: m.Name,
		Exports:    asm.Exports(),
		WasmSize:   len(bin),
	}
	layouts := asm.Layouts()
	for _, id := range layouts.Order() {
		l, _ := layouts.Lookup(id)
		gr := GeneReport{
			Name:           l.Name,
			Index:          l.Index,
			Size:           l.Size,
			Align:          l.Align,
			PointerOffsets: l.PointerOffsets(),
		}
		for _, f := range l.Fields {
			gr.Fields = append(gr.Fields, FieldReport{
				Name:   f.Name,
				Type:   in.String(f.Type),
				Offset: f.Offset,
				Size:   f.Size,
				Align:  f.Align,
				ByRef:  f.ByRef,
			})
		}
		rep.Genes = append(rep.Genes, gr)
	}
	for i := range m.Funcs {
		f := &m.Funcs[i]
		fr := FuncReport{
			Name:   f.QualifiedName(),
			Ret:    in.String(f.Ret),
			Public: f.Public,
		}
		for _, p := range f.Params {
			fr.Params = append(fr.Params, fmt.Sprintf("%s %s", p.Name, in.String(p.Type)))
		}
		rep.Funcs = append(rep.Funcs, fr)
	}
	return rep, bag, nil
}
