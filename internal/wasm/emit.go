package wasm

import (
	"fmt"

	"dol/internal/diag"
	"dol/internal/hir"
	"dol/internal/source"
	"dol/internal/types"
)

// funcEmitter lowers one function body to its code-section entry. It owns
// the function's locals table and label stack; both are discarded once the
// body bytes are produced.
type funcEmitter struct {
	asm    *Assembler
	in     *types.Interner
	fn     *hir.FuncDecl
	locals *LocalsTable
	labels labelStack
	code   []byte
}

// emitFunc lowers fi.decl into a framed code entry.
func (a *Assembler) emitFunc(fi *funcInfo) ([]byte, error) {
	fn := fi.decl
	params := make([]localSlot, len(fn.Params))
	for i, p := range fn.Params {
		vt, err := LowerType(a.in, p.Type)
		if err != nil {
			return nil, err
		}
		params[i] = localSlot{name: p.Name, typ: vt}
	}
	fe := &funcEmitter{
		asm:    a,
		in:     a.in,
		fn:     fn,
		locals: NewLocalsTable(params),
	}
	if err := fe.emitBody(fn.Body); err != nil {
		return nil, err
	}
	if fe.labels.depth() != 0 {
		return nil, fmt.Errorf("wasm: %s: %d regions left open", fn.QualifiedName(), fe.labels.depth())
	}

	groups := fe.locals.Finalize()
	var body []byte
	body = appendUleb(body, uint64(len(groups)))
	for _, g := range groups {
		body = appendUleb(body, uint64(g.Count))
		body = append(body, byte(g.Type))
	}
	body = append(body, fe.code...)
	body = append(body, opEnd)

	var entry []byte
	entry = appendUleb(entry, uint64(len(body)))
	return append(entry, body...), nil
}

// emitBody emits the top-level statement list plus the trailing value
// expression when the function returns one. A value-returning body with no
// trailing expression must return on every path; the unreachable marker
// keeps the fall-through edge well-typed.
func (fe *funcEmitter) emitBody(b *hir.Block) error {
	if b == nil {
		b = &hir.Block{}
	}
	for i := range b.Stmts {
		if err := fe.emitStmt(&b.Stmts[i]); err != nil {
			return err
		}
	}
	returns := hasValue(fe.in, fe.fn.Ret)
	switch {
	case b.Tail != nil && returns:
		return fe.emitExpr(b.Tail)
	case b.Tail != nil:
		if err := fe.emitExpr(b.Tail); err != nil {
			return err
		}
		if hasValue(fe.in, b.Tail.Type) {
			fe.op(opDrop)
		}
	case returns:
		fe.op(opUnreachable)
	}
	return nil
}

// instruction helpers

func (fe *funcEmitter) op(b byte) {
	fe.code = append(fe.code, b)
}

func (fe *funcEmitter) uleb(v uint64) {
	fe.code = appendUleb(fe.code, v)
}

func (fe *funcEmitter) sleb(v int64) {
	fe.code = appendSleb(fe.code, v)
}

func (fe *funcEmitter) localGet(idx uint32) {
	fe.op(opLocalGet)
	fe.uleb(uint64(idx))
}

func (fe *funcEmitter) localSet(idx uint32) {
	fe.op(opLocalSet)
	fe.uleb(uint64(idx))
}

func (fe *funcEmitter) constI32(v int32) {
	fe.op(opI32Const)
	fe.sleb(int64(v))
}

func (fe *funcEmitter) br(depth uint32) {
	fe.op(opBr)
	fe.uleb(uint64(depth))
}

func (fe *funcEmitter) brIf(depth uint32) {
	fe.op(opBrIf)
	fe.uleb(uint64(depth))
}

func (fe *funcEmitter) call(idx uint32) {
	fe.op(opCall)
	fe.uleb(uint64(idx))
}

func (fe *funcEmitter) load(vt ValType, align, offset uint32) {
	fe.op(vt.loadOp())
	fe.uleb(alignBits(align))
	fe.uleb(uint64(offset))
}

func (fe *funcEmitter) store(vt ValType, align, offset uint32) {
	fe.op(vt.storeOp())
	fe.uleb(alignBits(align))
	fe.uleb(uint64(offset))
}

// errf reports a diagnostic and returns the matching error; every caller
// aborts the compilation with it.
func (fe *funcEmitter) errf(code diag.Code, sp source.Span, format string, args ...any) error {
	err := fmt.Errorf("wasm: "+format, args...)
	diag.ReportError(fe.asm.reporter, code, sp, err.Error()).Emit()
	return err
}

// valOf lowers an expression's annotated type, failing loudly when the
// frontend let an untyped node through.
func (fe *funcEmitter) valOf(e *hir.Expr) (ValType, error) {
	vt, err := LowerType(fe.in, e.Type)
	if err != nil {
		return 0, fe.errf(diag.HirMissingType, e.Span, "%s expression has no value type", e.Kind)
	}
	return vt, nil
}
