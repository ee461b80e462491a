package wasm

import (
	"dol/internal/diag"
	"dol/internal/hir"
)

// emitMatch lowers a match over a temporary-held scrutinee. Literal arms
// are tried in order; the first catch-all arm (wildcard or binding) ends
// the chain and every later arm is dead. Dense 32-bit integer matches take
// an indexed multi-way branch instead of the linear chain; the two lowering
// shapes are externally indistinguishable.
func (fe *funcEmitter) emitMatch(e *hir.Expr, data hir.MatchData) error {
	scrutVal, err := fe.valOf(data.Scrutinee)
	if err != nil {
		return err
	}
	bt, err := blockTypeOf(fe.in, e.Type)
	if err != nil {
		return fe.errf(diag.EmitUnsupportedType, e.Span, "match expression: %v", err)
	}

	catchAll := -1
	for i := range data.Arms {
		if k := data.Arms[i].Pattern.Kind; k == hir.PatWildcard || k == hir.PatBind {
			catchAll = i
			break
		}
	}
	if catchAll < 0 {
		return fe.errf(diag.EmitMissingCatchAll, e.Span,
			"match needs a wildcard or binding arm")
	}
	litArms := data.Arms[:catchAll]
	for i := range litArms {
		if litArms[i].Pattern.Kind != hir.PatLiteral || litArms[i].Pattern.Lit == nil {
			return fe.errf(diag.HirUnsupportedPattern, litArms[i].Span,
				"unsupported pattern in match arm")
		}
	}

	if err := fe.emitExpr(data.Scrutinee); err != nil {
		return err
	}
	tmp, err := fe.locals.DeclareTemp(scrutVal)
	if err != nil {
		return err
	}
	fe.localSet(tmp)

	if fe.denseIntMatch(scrutVal, litArms) {
		return fe.emitMatchTable(bt, scrutVal, tmp, litArms, &data.Arms[catchAll])
	}
	return fe.emitMatchChain(bt, scrutVal, tmp, litArms, &data.Arms[catchAll])
}

// emitMatchChain is the general linear lowering: one skip region per
// literal arm, each testing equality against the temporary and branching
// past the whole match once its body has produced the result.
func (fe *funcEmitter) emitMatchChain(bt byte, scrutVal ValType, tmp uint32, litArms []hir.MatchArm, catchAll *hir.MatchArm) error {
	fe.op(opBlock)
	fe.op(bt)
	fe.labels.push(labelFrame{breakable: bt == blockVoid, result: bt})

	for i := range litArms {
		arm := &litArms[i]
		fe.op(opBlock)
		fe.op(blockVoid)
		fe.labels.push(labelFrame{result: blockVoid})

		fe.localGet(tmp)
		if err := fe.emitPatternConst(arm, scrutVal); err != nil {
			return err
		}
		fe.op(eqOp(scrutVal))
		fe.op(opI32Eqz)
		fe.brIf(0)

		if err := fe.emitArmBody(arm, bt); err != nil {
			return err
		}
		fe.br(1)

		fe.op(opEnd)
		fe.labels.pop()
	}

	if err := fe.emitCatchAll(catchAll, tmp, scrutVal, bt); err != nil {
		return err
	}

	fe.op(opEnd)
	fe.labels.pop()
	return nil
}

// denseIntMatch reports whether the indexed lowering applies: a 32-bit
// integer scrutinee, at least two literal arms, and literals covering at
// least half of a bounded contiguous range.
func (fe *funcEmitter) denseIntMatch(scrutVal ValType, litArms []hir.MatchArm) bool {
	if scrutVal != ValI32 || len(litArms) < 2 {
		return false
	}
	seen := make(map[int64]bool, len(litArms))
	lo, hi := int64(0), int64(0)
	for i := range litArms {
		lit := litArms[i].Pattern.Lit
		if lit.Kind != hir.LitInt {
			return false
		}
		if seen[lit.Int] {
			return false
		}
		seen[lit.Int] = true
		if i == 0 || lit.Int < lo {
			lo = lit.Int
		}
		if i == 0 || lit.Int > hi {
			hi = lit.Int
		}
	}
	span := hi - lo + 1
	return span <= 512 && int64(len(seen))*2 >= span
}

// emitMatchTable lowers a dense integer match to a single br_table. One
// region per arm, innermost first, so the table's relative depths line up
// with arm order; range holes and out-of-range values branch to the
// catch-all region.
func (fe *funcEmitter) emitMatchTable(bt byte, scrutVal ValType, tmp uint32, litArms []hir.MatchArm, catchAll *hir.MatchArm) error {
	lo, hi := litArms[0].Pattern.Lit.Int, litArms[0].Pattern.Lit.Int
	armBySlot := make(map[int64]int, len(litArms))
	for i := range litArms {
		v := litArms[i].Pattern.Lit.Int
		armBySlot[v] = i
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	n := len(litArms)

	fe.op(opBlock)
	fe.op(bt)
	fe.labels.push(labelFrame{breakable: bt == blockVoid, result: bt})
	fe.op(opBlock)
	fe.op(blockVoid)
	fe.labels.push(labelFrame{result: blockVoid}) // catch-all region
	for i := n - 1; i >= 0; i-- {
		fe.op(opBlock)
		fe.op(blockVoid)
		fe.labels.push(labelFrame{result: blockVoid})
	}

	fe.localGet(tmp)
	fe.constI32(int32(lo))
	fe.op(opI32Sub)
	fe.op(opBrTable)
	fe.uleb(uint64(hi - lo + 1))
	for v := lo; v <= hi; v++ {
		if arm, hit := armBySlot[v]; hit {
			fe.uleb(uint64(arm))
		} else {
			fe.uleb(uint64(n)) // hole: catch-all
		}
	}
	fe.uleb(uint64(n)) // out of range: catch-all

	// close arm regions innermost-first; each arm's body sits right after
	// its region's end, then jumps past the whole match
	for i := range litArms {
		fe.op(opEnd)
		fe.labels.pop()
		if err := fe.emitArmBody(&litArms[i], bt); err != nil {
			return err
		}
		fe.br(uint32(n - i)) // catch-all region plus remaining arm regions
	}

	fe.op(opEnd)
	fe.labels.pop()
	if err := fe.emitCatchAll(catchAll, tmp, scrutVal, bt); err != nil {
		return err
	}

	fe.op(opEnd)
	fe.labels.pop()
	return nil
}

// eqOp selects the equality instruction for a scrutinee type.
func eqOp(vt ValType) byte {
	switch vt {
	case ValI64:
		return opI64Eq
	case ValF32:
		return opF32Eq
	case ValF64:
		return opF64Eq
	default:
		return opI32Eq
	}
}

// emitPatternConst pushes the literal an arm compares against, typed to
// match the scrutinee.
func (fe *funcEmitter) emitPatternConst(arm *hir.MatchArm, scrutVal ValType) error {
	lit := arm.Pattern.Lit
	switch lit.Kind {
	case hir.LitInt:
		if scrutVal == ValI64 {
			fe.op(opI64Const)
			fe.sleb(lit.Int)
			return nil
		}
		fe.constI32(int32(lit.Int))
		return nil
	case hir.LitBool:
		if lit.Bool {
			fe.constI32(1)
		} else {
			fe.constI32(0)
		}
		return nil
	case hir.LitChar:
		fe.constI32(lit.Char)
		return nil
	case hir.LitFloat:
		if scrutVal == ValF32 {
			fe.op(opF32Const)
			fe.code = appendF32(fe.code, float32(lit.Float))
			return nil
		}
		fe.op(opF64Const)
		fe.code = appendF64(fe.code, lit.Float)
		return nil
	default:
		return fe.errf(diag.HirUnsupportedPattern, arm.Span,
			"unsupported literal pattern kind %d", lit.Kind)
	}
}

func (fe *funcEmitter) emitArmBody(arm *hir.MatchArm, bt byte) error {
	if err := fe.emitExpr(arm.Body); err != nil {
		return err
	}
	if bt == blockVoid && hasValue(fe.in, arm.Body.Type) {
		fe.op(opDrop)
	}
	return nil
}

// emitCatchAll emits the terminal arm. A binding pattern copies the
// scrutinee into a named slot visible only to the arm body.
func (fe *funcEmitter) emitCatchAll(arm *hir.MatchArm, tmp uint32, scrutVal ValType, bt byte) error {
	if arm.Pattern.Kind == hir.PatBind {
		fe.locals.PushScope()
		defer fe.locals.PopScope()
		idx, err := fe.locals.Declare(arm.Pattern.Name, scrutVal)
		if err != nil {
			return err
		}
		fe.localGet(tmp)
		fe.localSet(idx)
	}
	return fe.emitArmBody(arm, bt)
}
