package wasm

import (
	"fmt"
	"strings"

	"dol/internal/diag"
	"dol/internal/hir"
	"dol/internal/source"
	"dol/internal/types"
)

const pageSize = 65536

// Config sizes the produced module's linear memory. DataBase is where
// static data (string literals) starts; the heap begins right after it.
type Config struct {
	InitialPages uint32
	MaxPages     uint32
	DataBase     uint32
}

// DefaultConfig is one megabyte of memory with static data at 1 KiB.
func DefaultConfig() Config {
	return Config{InitialPages: 16, MaxPages: 256, DataBase: 1024}
}

// funcType is one deduplicated signature in the type section.
type funcType struct {
	params  []ValType
	results []ValType
}

func (ft funcType) key() string {
	var sb strings.Builder
	for _, p := range ft.params {
		sb.WriteString(p.String())
	}
	sb.WriteByte(':')
	for _, r := range ft.results {
		sb.WriteString(r.String())
	}
	return sb.String()
}

// funcInfo is one function slot: signature first, body later. The two-pass
// split exists because call sites need every callee's index and signature
// before any body is emitted.
type funcInfo struct {
	name    string
	typeIdx uint32
	typ     funcType
	decl    *hir.FuncDecl // nil for synthetic functions
	ctor    *Layout       // set for gene constructors
	public  bool
	body    []byte
}

// Assembler collects signatures, layouts, bodies and static data, then
// produces the final binary module.
type Assembler struct {
	in       *types.Interner
	layouts  *LayoutTable
	reporter diag.Reporter
	cfg      Config

	typeList []funcType
	typeIdx  map[string]uint32

	funcs     []*funcInfo
	funcIndex map[string]uint32

	data       []byte
	strOffsets map[string]uint32
}

// NewAssembler constructs an assembler over a shared interner.
func NewAssembler(in *types.Interner, reporter diag.Reporter, cfg Config) *Assembler {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	if cfg.InitialPages == 0 {
		cfg = DefaultConfig()
	}
	return &Assembler{
		in:         in,
		layouts:    NewLayoutTable(in, reporter),
		reporter:   reporter,
		cfg:        cfg,
		typeIdx:    make(map[string]uint32, 8),
		funcIndex:  make(map[string]uint32, 16),
		strOffsets: make(map[string]uint32, 8),
	}
}

// Layouts exposes the computed layout table, mainly to inspection tooling.
func (a *Assembler) Layouts() *LayoutTable {
	return a.layouts
}

// Exports lists the names the assembled module exports, in section order.
func (a *Assembler) Exports() []string {
	names := []string{"memory"}
	for _, fi := range a.funcs {
		if fi.public || fi.name == AllocFuncName {
			names = append(names, fi.name)
		}
	}
	return names
}

// Build lowers a typed module to its binary encoding. The first pass
// computes every layout and registers every signature; the second emits
// bodies. Any reported error aborts the whole build.
func (a *Assembler) Build(m *hir.Module) ([]byte, error) {
	if err := a.declarePass(m); err != nil {
		return nil, err
	}
	if err := a.emitPass(); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a.assemble(), nil
}

// declarePass syncs gene declarations into the interner, computes layouts
// in declaration order, and registers every function signature: the
// allocation primitive first, then one constructor per gene, then the
// declared functions.
func (a *Assembler) declarePass(m *hir.Module) error {
	for i := range m.Genes {
		g := &m.Genes[i]
		id := a.in.RegisterGene(g.Name, g.Span)
		fields := make([]types.GeneField, len(g.Fields))
		for j, f := range g.Fields {
			fields[j] = types.GeneField{Name: f.Name, Type: f.Type, ByRef: f.ByRef, Span: f.Span}
		}
		a.in.SetGeneFields(id, fields)
	}
	for i := range m.Genes {
		id, _ := a.in.GeneByName(m.Genes[i].Name)
		if _, err := a.layouts.Compute(id); err != nil {
			return err
		}
	}

	a.registerFunc(&funcInfo{
		name: AllocFuncName,
		typ:  allocSignature(),
	})
	for _, id := range a.layouts.Order() {
		l, _ := a.layouts.Lookup(id)
		sig, err := a.ctorSignature(l)
		if err != nil {
			return err
		}
		a.registerFunc(&funcInfo{
			name: l.Name + ".new",
			typ:  sig,
			ctor: l,
		})
	}
	for i := range m.Funcs {
		f := &m.Funcs[i]
		name := f.QualifiedName()
		if _, dup := a.funcIndex[name]; dup {
			err := fmt.Errorf("wasm: function %s declared twice", name)
			diag.ReportError(a.reporter, diag.AsmDuplicateExport, f.Span, err.Error()).Emit()
			return err
		}
		sig, err := a.signatureOf(f)
		if err != nil {
			return err
		}
		a.registerFunc(&funcInfo{
			name:   name,
			typ:    sig,
			decl:   f,
			public: f.Public,
		})
	}
	return nil
}

// emitPass fills in every body. Layouts and indices are frozen by now.
func (a *Assembler) emitPass() error {
	for _, fi := range a.funcs {
		switch {
		case fi.decl != nil:
			body, err := a.emitFunc(fi)
			if err != nil {
				return err
			}
			fi.body = body
		case fi.ctor != nil:
			fi.body = a.emitConstructor(fi.ctor)
		case fi.name == AllocFuncName:
			fi.body = allocFuncBody()
		}
	}
	return nil
}

// validate rejects dangling slots: a registered function that never got a
// body means the two passes disagreed.
func (a *Assembler) validate() error {
	for idx, fi := range a.funcs {
		if fi.body == nil {
			err := fmt.Errorf("wasm: function %s (index %d) has no body", fi.name, idx)
			diag.ReportError(a.reporter, diag.AsmDanglingFunction, stubSpan(fi), err.Error()).Emit()
			return err
		}
		if int(fi.typeIdx) >= len(a.typeList) {
			err := fmt.Errorf("wasm: function %s references unregistered type %d", fi.name, fi.typeIdx)
			diag.ReportError(a.reporter, diag.AsmDanglingType, stubSpan(fi), err.Error()).Emit()
			return err
		}
	}
	return nil
}

func (a *Assembler) registerFunc(fi *funcInfo) uint32 {
	fi.typeIdx = a.internType(fi.typ)
	idx := uint32(len(a.funcs))
	a.funcs = append(a.funcs, fi)
	a.funcIndex[fi.name] = idx
	return idx
}

func (a *Assembler) internType(ft funcType) uint32 {
	key := ft.key()
	if idx, ok := a.typeIdx[key]; ok {
		return idx
	}
	idx := uint32(len(a.typeList))
	a.typeList = append(a.typeList, ft)
	a.typeIdx[key] = idx
	return idx
}

// lookupFunc resolves a callee by link name.
func (a *Assembler) lookupFunc(name string) (uint32, *funcInfo, bool) {
	idx, ok := a.funcIndex[name]
	if !ok {
		return 0, nil, false
	}
	return idx, a.funcs[idx], true
}

func (a *Assembler) signatureOf(f *hir.FuncDecl) (funcType, error) {
	var ft funcType
	for i := range f.Params {
		vt, err := LowerType(a.in, f.Params[i].Type)
		if err != nil {
			diag.ReportError(a.reporter, diag.EmitUnsupportedType, f.Params[i].Span,
				fmt.Sprintf("parameter %q: %v", f.Params[i].Name, err)).Emit()
			return ft, err
		}
		ft.params = append(ft.params, vt)
	}
	if hasValue(a.in, f.Ret) {
		vt, err := LowerType(a.in, f.Ret)
		if err != nil {
			diag.ReportError(a.reporter, diag.EmitUnsupportedType, f.Span,
				fmt.Sprintf("return type of %s: %v", f.QualifiedName(), err)).Emit()
			return ft, err
		}
		ft.results = append(ft.results, vt)
	}
	return ft, nil
}

// ctorSignature takes one parameter per field in declaration order and
// returns the instance address. Inline gene fields take a source-instance
// address whose cells the constructor copies.
func (a *Assembler) ctorSignature(l *Layout) (funcType, error) {
	ft := funcType{results: []ValType{ValI32}}
	for i := range l.Fields {
		f := &l.Fields[i]
		if f.Inline != nil {
			ft.params = append(ft.params, ValI32)
			continue
		}
		ft.params = append(ft.params, f.Val)
	}
	return ft, nil
}

// internString places a literal in the data section once and returns its
// absolute address. The cell is a 4-byte length followed by the bytes,
// padded so the next literal stays 4-aligned.
func (a *Assembler) internString(s string) uint32 {
	if addr, ok := a.strOffsets[s]; ok {
		return addr
	}
	addr := a.cfg.DataBase + uint32(len(a.data))
	a.data = append(a.data,
		byte(len(s)), byte(len(s)>>8), byte(len(s)>>16), byte(len(s)>>24))
	a.data = append(a.data, s...)
	for len(a.data)%4 != 0 {
		a.data = append(a.data, 0)
	}
	a.strOffsets[s] = addr
	return addr
}

// heapStart is the first free address after static data, 8-aligned so the
// first allocation needs no adjustment.
func (a *Assembler) heapStart() uint32 {
	return alignUp(a.cfg.DataBase+uint32(len(a.data)), 8)
}

func (a *Assembler) memEnd() uint32 {
	return a.cfg.InitialPages * pageSize
}

// assemble lays the collected pieces out in section order.
func (a *Assembler) assemble() []byte {
	out := append([]byte{}, wasmMagic...)
	out = append(out, wasmVersion...)

	// type section
	var sec []byte
	for _, ft := range a.typeList {
		sec = append(sec, funcTypeTag)
		sec = appendUleb(sec, uint64(len(ft.params)))
		for _, p := range ft.params {
			sec = append(sec, byte(p))
		}
		sec = appendUleb(sec, uint64(len(ft.results)))
		for _, r := range ft.results {
			sec = append(sec, byte(r))
		}
	}
	out = appendSection(out, sectionType, appendVector(nil, len(a.typeList), sec))

	// function section
	sec = nil
	for _, fi := range a.funcs {
		sec = appendUleb(sec, uint64(fi.typeIdx))
	}
	out = appendSection(out, sectionFunction, appendVector(nil, len(a.funcs), sec))

	// memory section: one region, bounded limits
	sec = []byte{0x01}
	sec = appendUleb(sec, uint64(a.cfg.InitialPages))
	sec = appendUleb(sec, uint64(a.cfg.MaxPages))
	out = appendSection(out, sectionMemory, appendVector(nil, 1, sec))

	// global section: the two allocator globals
	sec = appendAllocGlobals(nil, a.heapStart(), a.memEnd())
	out = appendSection(out, sectionGlobal, appendVector(nil, 2, sec))

	// export section: memory, the allocator, every public function
	sec = nil
	count := 0
	sec = appendName(sec, "memory")
	sec = append(sec, exportMemory)
	sec = appendUleb(sec, 0)
	count++
	for idx, fi := range a.funcs {
		if !fi.public && fi.name != AllocFuncName {
			continue
		}
		sec = appendName(sec, fi.name)
		sec = append(sec, exportFunc)
		sec = appendUleb(sec, uint64(idx))
		count++
	}
	out = appendSection(out, sectionExport, appendVector(nil, count, sec))

	// code section
	sec = nil
	for _, fi := range a.funcs {
		sec = append(sec, fi.body...)
	}
	out = appendSection(out, sectionCode, appendVector(nil, len(a.funcs), sec))

	// data section: one active segment with every string literal
	if len(a.data) > 0 {
		sec = appendUleb(nil, 0) // memory index 0, active
		sec = append(sec, opI32Const)
		sec = appendSleb(sec, int64(int32(a.cfg.DataBase)))
		sec = append(sec, opEnd)
		sec = appendUleb(sec, uint64(len(a.data)))
		sec = append(sec, a.data...)
		out = appendSection(out, sectionData, appendVector(nil, 1, sec))
	}
	return out
}

func stubSpan(fi *funcInfo) source.Span {
	if fi.decl != nil {
		return fi.decl.Span
	}
	return source.Span{}
}
