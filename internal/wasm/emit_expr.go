package wasm

import (
	"dol/internal/diag"
	"dol/internal/hir"
	"dol/internal/types"
)

func (fe *funcEmitter) emitExpr(e *hir.Expr) error {
	switch e.Kind {
	case hir.ExprLiteral:
		data, ok := e.Data.(hir.LiteralData)
		if !ok {
			return fe.exprPayloadErr(e)
		}
		return fe.emitLiteral(e, data)

	case hir.ExprVarRef:
		data, ok := e.Data.(hir.VarRefData)
		if !ok {
			return fe.exprPayloadErr(e)
		}
		idx, found := fe.locals.Lookup(data.Name)
		if !found {
			return fe.errf(diag.EmitUndeclaredName, e.Span, "use of undeclared name %q", data.Name)
		}
		fe.localGet(idx)
		return nil

	case hir.ExprUnary:
		data, ok := e.Data.(hir.UnaryData)
		if !ok {
			return fe.exprPayloadErr(e)
		}
		return fe.emitUnary(e, data)

	case hir.ExprBinary:
		data, ok := e.Data.(hir.BinaryData)
		if !ok {
			return fe.exprPayloadErr(e)
		}
		return fe.emitBinary(e, data)

	case hir.ExprCall:
		data, ok := e.Data.(hir.CallData)
		if !ok {
			return fe.exprPayloadErr(e)
		}
		return fe.emitCall(e, data.Callee, nil, data.Args)

	case hir.ExprMethodCall:
		data, ok := e.Data.(hir.MethodCallData)
		if !ok {
			return fe.exprPayloadErr(e)
		}
		return fe.emitCall(e, data.Gene+"."+data.Method, data.Recv, data.Args)

	case hir.ExprFieldAccess:
		fld, offset, err := fe.fieldChain(e)
		if err != nil {
			return err
		}
		if fld.Inline != nil {
			// an embedded aggregate's value is its interior address
			if offset != 0 {
				fe.constI32(int32(offset))
				fe.op(opI32Add)
			}
			return nil
		}
		fe.load(fld.Val, fld.Align, offset)
		return nil

	case hir.ExprStructLit:
		data, ok := e.Data.(hir.StructLitData)
		if !ok {
			return fe.exprPayloadErr(e)
		}
		return fe.emitStructLit(e, data)

	case hir.ExprIf:
		data, ok := e.Data.(hir.IfExprData)
		if !ok {
			return fe.exprPayloadErr(e)
		}
		return fe.emitIfExpr(e, data)

	case hir.ExprBlock:
		data, ok := e.Data.(hir.BlockExprData)
		if !ok {
			return fe.exprPayloadErr(e)
		}
		return fe.emitBlockExpr(e, data.Block)

	case hir.ExprMatch:
		data, ok := e.Data.(hir.MatchData)
		if !ok {
			return fe.exprPayloadErr(e)
		}
		return fe.emitMatch(e, data)

	default:
		return fe.errf(diag.EmitUnsupportedConstruct, e.Span, "no emission rule for %s expression", e.Kind)
	}
}

func (fe *funcEmitter) emitLiteral(e *hir.Expr, data hir.LiteralData) error {
	switch data.Kind {
	case hir.LitInt:
		vt, err := fe.valOf(e)
		if err != nil {
			return err
		}
		if vt == ValI64 {
			fe.op(opI64Const)
			fe.sleb(data.Int)
			return nil
		}
		fe.constI32(int32(data.Int))
		return nil
	case hir.LitFloat:
		vt, err := fe.valOf(e)
		if err != nil {
			return err
		}
		if vt == ValF32 {
			fe.op(opF32Const)
			fe.code = appendF32(fe.code, float32(data.Float))
			return nil
		}
		fe.op(opF64Const)
		fe.code = appendF64(fe.code, data.Float)
		return nil
	case hir.LitBool:
		if data.Bool {
			fe.constI32(1)
		} else {
			fe.constI32(0)
		}
		return nil
	case hir.LitChar:
		fe.constI32(data.Char)
		return nil
	case hir.LitString:
		addr := fe.asm.internString(data.Str)
		fe.constI32(int32(addr))
		return nil
	default:
		return fe.errf(diag.EmitUnsupportedConstruct, e.Span, "no emission rule for literal kind %d", data.Kind)
	}
}

func (fe *funcEmitter) emitUnary(e *hir.Expr, data hir.UnaryData) error {
	vt, err := fe.valOf(data.Operand)
	if err != nil {
		return err
	}
	switch data.Op {
	case hir.UnNot:
		if err := fe.emitExpr(data.Operand); err != nil {
			return err
		}
		fe.op(opI32Eqz)
		return nil
	case hir.UnNeg:
		switch vt {
		case ValI32:
			fe.constI32(0)
			if err := fe.emitExpr(data.Operand); err != nil {
				return err
			}
			fe.op(opI32Sub)
		case ValI64:
			fe.op(opI64Const)
			fe.sleb(0)
			if err := fe.emitExpr(data.Operand); err != nil {
				return err
			}
			fe.op(opI64Sub)
		case ValF32:
			if err := fe.emitExpr(data.Operand); err != nil {
				return err
			}
			fe.op(opF32Neg)
		case ValF64:
			if err := fe.emitExpr(data.Operand); err != nil {
				return err
			}
			fe.op(opF64Neg)
		}
		return nil
	default:
		return fe.errf(diag.EmitUnsupportedConstruct, e.Span, "no emission rule for unary operator %d", data.Op)
	}
}

// binOpcodes maps a binary operator to its instruction per operand type.
// Zero entries mean the combination has no emission rule.
var binOpcodes = map[hir.BinOp][4]byte{
	// order: i32, i64, f32, f64
	hir.BinAdd: {opI32Add, opI64Add, opF32Add, opF64Add},
	hir.BinSub: {opI32Sub, opI64Sub, opF32Sub, opF64Sub},
	hir.BinMul: {opI32Mul, opI64Mul, opF32Mul, opF64Mul},
	hir.BinDiv: {opI32DivS, opI64DivS, opF32Div, opF64Div},
	hir.BinRem: {opI32RemS, opI64RemS, 0, 0},
	hir.BinEq:  {opI32Eq, opI64Eq, opF32Eq, opF64Eq},
	hir.BinNe:  {opI32Ne, opI64Ne, opF32Ne, opF64Ne},
	hir.BinLt:  {opI32LtS, opI64LtS, opF32Lt, opF64Lt},
	hir.BinLe:  {opI32LeS, opI64LeS, opF32Le, opF64Le},
	hir.BinGt:  {opI32GtS, opI64GtS, opF32Gt, opF64Gt},
	hir.BinGe:  {opI32GeS, opI64GeS, opF32Ge, opF64Ge},
}

func opSlot(vt ValType) int {
	switch vt {
	case ValI64:
		return 1
	case ValF32:
		return 2
	case ValF64:
		return 3
	default:
		return 0
	}
}

func (fe *funcEmitter) emitBinary(e *hir.Expr, data hir.BinaryData) error {
	// && and || short-circuit through a conditional region
	if data.Op == hir.BinAnd || data.Op == hir.BinOr {
		if err := fe.emitExpr(data.Left); err != nil {
			return err
		}
		fe.op(opIf)
		fe.op(byte(ValI32))
		fe.labels.push(labelFrame{result: byte(ValI32)})
		if data.Op == hir.BinAnd {
			if err := fe.emitExpr(data.Right); err != nil {
				return err
			}
			fe.op(opElse)
			fe.constI32(0)
		} else {
			fe.constI32(1)
			fe.op(opElse)
			if err := fe.emitExpr(data.Right); err != nil {
				return err
			}
		}
		fe.op(opEnd)
		fe.labels.pop()
		return nil
	}

	vt, err := fe.valOf(data.Left)
	if err != nil {
		return err
	}
	if err := fe.emitExpr(data.Left); err != nil {
		return err
	}
	if err := fe.emitExpr(data.Right); err != nil {
		return err
	}
	ops, ok := binOpcodes[data.Op]
	if !ok || ops[opSlot(vt)] == 0 {
		return fe.errf(diag.EmitUnsupportedConstruct, e.Span,
			"no emission rule for %s on %s operands", data.Op, vt)
	}
	fe.op(ops[opSlot(vt)])
	return nil
}

// emitCall resolves the callee index registered in the declare pass. Method
// calls pass the receiver address as the implicit first argument.
func (fe *funcEmitter) emitCall(e *hir.Expr, callee string, recv *hir.Expr, args []*hir.Expr) error {
	idx, _, found := fe.asm.lookupFunc(callee)
	if !found {
		return fe.errf(diag.AsmDanglingFunction, e.Span, "call to unknown function %q", callee)
	}
	if recv != nil {
		if err := fe.emitExpr(recv); err != nil {
			return err
		}
	}
	for _, arg := range args {
		if err := fe.emitExpr(arg); err != nil {
			return err
		}
	}
	fe.call(idx)
	return nil
}

// emitStructLit pushes one argument per layout field in declaration order
// and calls the gene's constructor. Omitted fields get zero values; for an
// embedded gene field the zero is a null source address the constructor
// skips, leaving the cells zeroed.
func (fe *funcEmitter) emitStructLit(e *hir.Expr, data hir.StructLitData) error {
	l, ok := fe.asm.layouts.LookupByName(data.Gene)
	if !ok {
		return fe.errf(diag.LayoutUnknownType, e.Span, "construction of unknown gene %q", data.Gene)
	}
	inits := make(map[string]*hir.Expr, len(data.Fields))
	for i := range data.Fields {
		init := &data.Fields[i]
		if _, exists := l.byName[init.Name]; !exists {
			return fe.errf(diag.LayoutUnknownField, e.Span,
				"gene %s has no field %q", l.Name, init.Name)
		}
		inits[init.Name] = init.Value
	}
	for i := range l.Fields {
		f := &l.Fields[i]
		if init, present := inits[f.Name]; present {
			if err := fe.emitExpr(init); err != nil {
				return err
			}
			continue
		}
		if f.Inline != nil {
			fe.constI32(0)
			continue
		}
		fe.code = f.Val.zeroConst(fe.code)
	}
	idx, _, found := fe.asm.lookupFunc(l.Name + ".new")
	if !found {
		return fe.errf(diag.AsmDanglingFunction, e.Span, "gene %s has no constructor", l.Name)
	}
	fe.call(idx)
	return nil
}

// emitIfExpr requires both branches and one shared result type; a branch
// pair that disagrees never reaches the instruction stream.
func (fe *funcEmitter) emitIfExpr(e *hir.Expr, data hir.IfExprData) error {
	bt, err := blockTypeOf(fe.in, e.Type)
	if err != nil {
		return fe.errf(diag.EmitUnsupportedType, e.Span, "if expression: %v", err)
	}
	if bt != blockVoid {
		if data.Else == nil {
			return fe.errf(diag.EmitBranchTypeMismatch, e.Span,
				"if expression with a value needs an else branch")
		}
		thenT := tailType(fe.in, data.Then)
		elseT := tailType(fe.in, data.Else)
		if thenT != elseT {
			return fe.errf(diag.EmitBranchTypeMismatch, e.Span,
				"if branches disagree: %s vs %s", fe.in.String(thenT), fe.in.String(elseT))
		}
	}
	if err := fe.emitExpr(data.Cond); err != nil {
		return err
	}
	fe.op(opIf)
	fe.op(bt)
	fe.labels.push(labelFrame{result: bt})
	if err := fe.emitValueBlock(data.Then, bt); err != nil {
		return err
	}
	if data.Else != nil {
		fe.op(opElse)
		if err := fe.emitValueBlock(data.Else, bt); err != nil {
			return err
		}
	}
	fe.op(opEnd)
	fe.labels.pop()
	return nil
}

func (fe *funcEmitter) emitBlockExpr(e *hir.Expr, b *hir.Block) error {
	bt, err := blockTypeOf(fe.in, e.Type)
	if err != nil {
		return fe.errf(diag.EmitUnsupportedType, e.Span, "block expression: %v", err)
	}
	fe.op(opBlock)
	fe.op(bt)
	fe.labels.push(labelFrame{breakable: bt == blockVoid, result: bt})
	if err := fe.emitValueBlock(b, bt); err != nil {
		return err
	}
	fe.op(opEnd)
	fe.labels.pop()
	return nil
}

// emitValueBlock emits a block's statements and its trailing value when the
// enclosing region expects one.
func (fe *funcEmitter) emitValueBlock(b *hir.Block, bt byte) error {
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
	if b.Tail == nil {
		return nil
	}
	if err := fe.emitExpr(b.Tail); err != nil {
		return err
	}
	if bt == blockVoid && hasValue(fe.in, b.Tail.Type) {
		fe.op(opDrop)
	}
	return nil
}

// fieldChain lowers a field-access path. The enclosing instance address is
// left on the stack; the returned offset is the final field's displacement
// from it. Offsets compose through embedded fields without loads; crossing
// a by-reference field costs one pointer load, and a second hop past that
// is out of scope for this backend.
func (fe *funcEmitter) fieldChain(e *hir.Expr) (*FieldLayout, uint32, error) {
	var path []*hir.Expr
	base := e
	for base.Kind == hir.ExprFieldAccess {
		path = append(path, base)
		data, ok := base.Data.(hir.FieldAccessData)
		if !ok {
			return nil, 0, fe.exprPayloadErr(base)
		}
		base = data.Base
	}
	// path is outermost-first; walk it from the base outwards
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	l, err := fe.layoutOf(base)
	if err != nil {
		return nil, 0, err
	}
	if err := fe.emitExpr(base); err != nil {
		return nil, 0, err
	}

	offset := uint32(0)
	hops := 0
	for i, node := range path {
		data := node.Data.(hir.FieldAccessData)
		fld, found := l.Field(data.Field)
		if !found {
			return nil, 0, fe.errf(diag.LayoutUnknownField, node.Span,
				"gene %s has no field %q", l.Name, data.Field)
		}
		last := i == len(path)-1
		if last {
			return fld, offset + fld.Offset, nil
		}
		switch {
		case fld.Inline != nil:
			offset += fld.Offset
			l = fld.Inline
		case fld.isPointer() && (fld.Kind == types.KindGene || fld.Kind == types.KindReference):
			hops++
			if hops > 1 {
				return nil, 0, fe.errf(diag.EmitDeepFieldPath, node.Span,
					"field path crosses more than one reference")
			}
			fe.load(ValI32, ptrAlign, offset+fld.Offset)
			offset = 0
			l, err = fe.layoutOfType(node, fieldTarget(fe.in, fld))
			if err != nil {
				return nil, 0, err
			}
		default:
			return nil, 0, fe.errf(diag.EmitUnsupportedConstruct, node.Span,
				"field access through non-gene field %q", fld.Name)
		}
	}
	// unreachable: the loop always returns on the last element
	return nil, 0, fe.errf(diag.EmitUnsupportedConstruct, e.Span, "empty field path")
}

// layoutOf resolves the layout behind a base expression of gene or
// reference type. Both lower to an address, so no dereference is needed.
func (fe *funcEmitter) layoutOf(base *hir.Expr) (*Layout, error) {
	t, ok := fe.in.Lookup(base.Type)
	if !ok {
		return nil, fe.errf(diag.HirMissingType, base.Span, "field access on untyped expression")
	}
	id := base.Type
	if t.Kind == types.KindReference {
		id = t.Elem
	}
	return fe.layoutOfType(base, id)
}

func (fe *funcEmitter) layoutOfType(node *hir.Expr, id types.TypeID) (*Layout, error) {
	l, ok := fe.asm.layouts.Lookup(id)
	if !ok {
		return nil, fe.errf(diag.LayoutUnknownType, node.Span,
			"no layout for type %s", fe.in.String(id))
	}
	return l, nil
}

// fieldTarget resolves the gene a pointer field leads to.
func fieldTarget(in *types.Interner, fld *FieldLayout) types.TypeID {
	if fld.Kind == types.KindReference {
		if t, ok := in.Lookup(fld.Type); ok {
			return t.Elem
		}
	}
	return fld.Type
}

// tailType is the value type a block contributes to its enclosing region.
func tailType(in *types.Interner, b *hir.Block) types.TypeID {
	if b == nil || b.Tail == nil {
		return types.NoTypeID
	}
	return b.Tail.Type
}

func (fe *funcEmitter) exprPayloadErr(e *hir.Expr) error {
	return fe.errf(diag.HirBadPayload, e.Span, "%s expression: unexpected payload %T", e.Kind, e.Data)
}
