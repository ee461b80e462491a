package wasm

import (
	"dol/internal/diag"
	"dol/internal/hir"
)

func (fe *funcEmitter) emitStmt(st *hir.Stmt) error {
	switch st.Kind {
	case hir.StmtLet:
		data, ok := st.Data.(hir.LetData)
		if !ok {
			return fe.payloadErr(st)
		}
		return fe.emitLet(st, data)

	case hir.StmtAssign:
		data, ok := st.Data.(hir.AssignData)
		if !ok {
			return fe.payloadErr(st)
		}
		return fe.emitAssign(st, data)

	case hir.StmtReturn:
		data, ok := st.Data.(hir.ReturnData)
		if !ok {
			return fe.payloadErr(st)
		}
		if data.Value != nil {
			if err := fe.emitExpr(data.Value); err != nil {
				return err
			}
		}
		fe.op(opReturn)
		return nil

	case hir.StmtBreak:
		data, ok := st.Data.(hir.BreakData)
		if !ok {
			return fe.payloadErr(st)
		}
		depth, found := fe.labels.breakDepth(data.Label)
		if !found {
			return fe.errf(diag.EmitBreakOutside, st.Span, "break outside any breakable region")
		}
		fe.br(depth)
		return nil

	case hir.StmtContinue:
		data, ok := st.Data.(hir.ContinueData)
		if !ok {
			return fe.payloadErr(st)
		}
		depth, found := fe.labels.continueDepth(data.Label)
		if !found {
			return fe.errf(diag.EmitContinueOutside, st.Span, "continue outside any loop")
		}
		fe.br(depth)
		return nil

	case hir.StmtIf:
		data, ok := st.Data.(hir.IfData)
		if !ok {
			return fe.payloadErr(st)
		}
		return fe.emitIfStmt(data)

	case hir.StmtWhile:
		data, ok := st.Data.(hir.WhileData)
		if !ok {
			return fe.payloadErr(st)
		}
		return fe.emitLoop(data.Label, data.Cond, data.Body)

	case hir.StmtLoop:
		data, ok := st.Data.(hir.LoopData)
		if !ok {
			return fe.payloadErr(st)
		}
		return fe.emitLoop(data.Label, nil, data.Body)

	case hir.StmtFor:
		data, ok := st.Data.(hir.ForData)
		if !ok {
			return fe.payloadErr(st)
		}
		return fe.emitFor(st, data)

	case hir.StmtBlock:
		data, ok := st.Data.(hir.BlockData)
		if !ok {
			return fe.payloadErr(st)
		}
		return fe.emitScopeBlock(data.Block)

	case hir.StmtExpr:
		data, ok := st.Data.(hir.ExprStmtData)
		if !ok {
			return fe.payloadErr(st)
		}
		if err := fe.emitExpr(data.Expr); err != nil {
			return err
		}
		if hasValue(fe.in, data.Expr.Type) {
			fe.op(opDrop)
		}
		return nil

	default:
		return fe.errf(diag.EmitUnsupportedConstruct, st.Span, "no emission rule for %s statement", st.Kind)
	}
}

func (fe *funcEmitter) emitLet(st *hir.Stmt, data hir.LetData) error {
	vt, err := LowerType(fe.in, data.Type)
	if err != nil {
		return fe.errf(diag.EmitUnsupportedType, st.Span, "let %s: %v", data.Name, err)
	}
	if data.Value != nil {
		if err := fe.emitExpr(data.Value); err != nil {
			return err
		}
	}
	idx, err := fe.locals.Declare(data.Name, vt)
	if err != nil {
		return err
	}
	if data.Value != nil {
		fe.localSet(idx)
	}
	return nil
}

// emitAssign handles the two supported target shapes: a bare name and a
// field of an addressable base. Anything else never got an emission rule.
func (fe *funcEmitter) emitAssign(st *hir.Stmt, data hir.AssignData) error {
	switch data.Target.Kind {
	case hir.ExprVarRef:
		ref, ok := data.Target.Data.(hir.VarRefData)
		if !ok {
			return fe.payloadErr(st)
		}
		idx, found := fe.locals.Lookup(ref.Name)
		if !found {
			return fe.errf(diag.EmitUndeclaredName, data.Target.Span, "assignment to undeclared name %q", ref.Name)
		}
		if err := fe.emitExpr(data.Value); err != nil {
			return err
		}
		fe.localSet(idx)
		return nil

	case hir.ExprFieldAccess:
		fld, offset, err := fe.fieldChain(data.Target)
		if err != nil {
			return err
		}
		if fld.Inline != nil {
			return fe.errf(diag.EmitBadAssignTarget, data.Target.Span,
				"cannot assign whole embedded gene field %q", fld.Name)
		}
		if err := fe.emitExpr(data.Value); err != nil {
			return err
		}
		fe.store(fld.Val, fld.Align, offset)
		return nil

	default:
		return fe.errf(diag.EmitBadAssignTarget, data.Target.Span,
			"unsupported assignment target %s", data.Target.Kind)
	}
}

func (fe *funcEmitter) emitIfStmt(data hir.IfData) error {
	if err := fe.emitExpr(data.Cond); err != nil {
		return err
	}
	fe.op(opIf)
	fe.op(blockVoid)
	fe.labels.push(labelFrame{result: blockVoid})
	if err := fe.emitVoidBlock(data.Then); err != nil {
		return err
	}
	if data.Else != nil {
		fe.op(opElse)
		if err := fe.emitVoidBlock(data.Else); err != nil {
			return err
		}
	}
	fe.op(opEnd)
	fe.labels.pop()
	return nil
}

// emitLoop emits the shared while/infinite-loop shape: an outer breakable
// block around an inner loop frame. A while condition branches out of the
// outer block when false, two frames away from the branch point.
func (fe *funcEmitter) emitLoop(label string, cond *hir.Expr, body *hir.Block) error {
	fe.op(opBlock)
	fe.op(blockVoid)
	fe.labels.push(labelFrame{name: label, breakable: true, result: blockVoid})
	fe.op(opLoop)
	fe.op(blockVoid)
	fe.labels.push(labelFrame{name: label, isLoop: true, result: blockVoid})

	if cond != nil {
		if err := fe.emitExpr(cond); err != nil {
			return err
		}
		fe.op(opI32Eqz)
		fe.brIf(1)
	}
	if err := fe.emitVoidBlock(body); err != nil {
		return err
	}
	fe.br(0)

	fe.op(opEnd)
	fe.labels.pop()
	fe.op(opEnd)
	fe.labels.pop()
	return nil
}

// emitFor desugars the range loop into the while shape. The end bound is
// evaluated once into an anonymous temporary before the loop opens.
func (fe *funcEmitter) emitFor(st *hir.Stmt, data hir.ForData) error {
	vt, err := LowerType(fe.in, data.VarType)
	if err != nil {
		return fe.errf(diag.EmitUnsupportedType, st.Span, "for %s: %v", data.Var, err)
	}
	if vt != ValI32 && vt != ValI64 {
		return fe.errf(diag.EmitUnsupportedType, st.Span, "for counter must be an integer, got %s", vt)
	}

	fe.locals.PushScope()
	defer fe.locals.PopScope()

	if err := fe.emitExpr(data.From); err != nil {
		return err
	}
	counter, err := fe.locals.Declare(data.Var, vt)
	if err != nil {
		return err
	}
	fe.localSet(counter)

	if err := fe.emitExpr(data.To); err != nil {
		return err
	}
	end, err := fe.locals.DeclareTemp(vt)
	if err != nil {
		return err
	}
	fe.localSet(end)

	cond := func() {
		fe.localGet(counter)
		fe.localGet(end)
		if vt == ValI64 {
			fe.op(opI64LtS)
		} else {
			fe.op(opI32LtS)
		}
	}
	step := func() error {
		fe.localGet(counter)
		if vt == ValI64 {
			fe.op(opI64Const)
			fe.sleb(1)
			fe.op(opI64Add)
		} else {
			fe.constI32(1)
			fe.op(opI32Add)
		}
		fe.localSet(counter)
		return nil
	}

	// same shape as emitLoop, with the condition emitted inline
	fe.op(opBlock)
	fe.op(blockVoid)
	fe.labels.push(labelFrame{name: data.Label, breakable: true, result: blockVoid})
	fe.op(opLoop)
	fe.op(blockVoid)
	fe.labels.push(labelFrame{name: data.Label, isLoop: true, result: blockVoid})

	cond()
	fe.op(opI32Eqz)
	fe.brIf(1)
	if err := fe.emitVoidBlock(data.Body); err != nil {
		return err
	}
	if err := step(); err != nil {
		return err
	}
	fe.br(0)

	fe.op(opEnd)
	fe.labels.pop()
	fe.op(opEnd)
	fe.labels.pop()
	return nil
}

// emitScopeBlock lowers a statement-position block. The frame is breakable;
// since statement breaks carry no value the region stays void and any
// trailing expression is dropped inside it.
func (fe *funcEmitter) emitScopeBlock(b *hir.Block) error {
	fe.op(opBlock)
	fe.op(blockVoid)
	fe.labels.push(labelFrame{breakable: true, result: blockVoid})
	if err := fe.emitVoidBlock(b); err != nil {
		return err
	}
	fe.op(opEnd)
	fe.labels.pop()
	return nil
}

// emitVoidBlock emits a block's statements in their own visibility scope,
// dropping any trailing value.
func (fe *funcEmitter) emitVoidBlock(b *hir.Block) error {
	if b == nil {
		return nil
	}
	fe.locals.PushScope()
	defer fe.locals.PopScope()
	for i := range b.Stmts {
		if err := fe.emitStmt(&b.Stmts[i]); err != nil {
			return err
		}
	}
	if b.Tail != nil {
		if err := fe.emitExpr(b.Tail); err != nil {
			return err
		}
		if hasValue(fe.in, b.Tail.Type) {
			fe.op(opDrop)
		}
	}
	return nil
}

func (fe *funcEmitter) payloadErr(st *hir.Stmt) error {
	return fe.errf(diag.HirBadPayload, st.Span, "%s statement: unexpected payload %T", st.Kind, st.Data)
}
