package hir

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

func encodeStmt(enc *msgpack.Encoder, st *Stmt) error {
	if err := enc.EncodeUint8(uint8(st.Kind)); err != nil {
		return err
	}
	if err := encodeSpan(enc, st.Span); err != nil {
		return err
	}
	switch st.Kind {
	case StmtLet:
		data, ok := st.Data.(LetData)
		if !ok {
			return payloadErr(st)
		}
		if err := enc.EncodeString(data.Name); err != nil {
			return err
		}
		if err := encodeType(enc, data.Type); err != nil {
			return err
		}
		return encodeExpr(enc, data.Value)

	case StmtAssign:
		data, ok := st.Data.(AssignData)
		if !ok {
			return payloadErr(st)
		}
		if err := encodeExpr(enc, data.Target); err != nil {
			return err
		}
		return encodeExpr(enc, data.Value)

	case StmtReturn:
		data, ok := st.Data.(ReturnData)
		if !ok {
			return payloadErr(st)
		}
		return encodeExpr(enc, data.Value)

	case StmtBreak:
		data, ok := st.Data.(BreakData)
		if !ok {
			return payloadErr(st)
		}
		return enc.EncodeString(data.Label)

	case StmtContinue:
		data, ok := st.Data.(ContinueData)
		if !ok {
			return payloadErr(st)
		}
		return enc.EncodeString(data.Label)

	case StmtIf:
		data, ok := st.Data.(IfData)
		if !ok {
			return payloadErr(st)
		}
		if err := encodeExpr(enc, data.Cond); err != nil {
			return err
		}
		if err := encodeBlock(enc, data.Then); err != nil {
			return err
		}
		return encodeBlock(enc, data.Else)

	case StmtWhile:
		data, ok := st.Data.(WhileData)
		if !ok {
			return payloadErr(st)
		}
		if err := enc.EncodeString(data.Label); err != nil {
			return err
		}
		if err := encodeExpr(enc, data.Cond); err != nil {
			return err
		}
		return encodeBlock(enc, data.Body)

	case StmtLoop:
		data, ok := st.Data.(LoopData)
		if !ok {
			return payloadErr(st)
		}
		if err := enc.EncodeString(data.Label); err != nil {
			return err
		}
		return encodeBlock(enc, data.Body)

	case StmtFor:
		data, ok := st.Data.(ForData)
		if !ok {
			return payloadErr(st)
		}
		if err := enc.EncodeString(data.Label); err != nil {
			return err
		}
		if err := enc.EncodeString(data.Var); err != nil {
			return err
		}
		if err := encodeType(enc, data.VarType); err != nil {
			return err
		}
		if err := encodeExpr(enc, data.From); err != nil {
			return err
		}
		if err := encodeExpr(enc, data.To); err != nil {
			return err
		}
		return encodeBlock(enc, data.Body)

	case StmtBlock:
		data, ok := st.Data.(BlockData)
		if !ok {
			return payloadErr(st)
		}
		return encodeBlock(enc, data.Block)

	case StmtExpr:
		data, ok := st.Data.(ExprStmtData)
		if !ok {
			return payloadErr(st)
		}
		return encodeExpr(enc, data.Expr)

	default:
		return fmt.Errorf("hir: cannot encode statement kind %s", st.Kind)
	}
}

func decodeStmt(dec *msgpack.Decoder, st *Stmt) error {
	kind, err := dec.DecodeUint8()
	if err != nil {
		return err
	}
	st.Kind = StmtKind(kind)
	if st.Span, err = decodeSpan(dec); err != nil {
		return err
	}
	switch st.Kind {
	case StmtLet:
		var data LetData
		if data.Name, err = dec.DecodeString(); err != nil {
			return err
		}
		if data.Type, err = decodeType(dec); err != nil {
			return err
		}
		if data.Value, err = decodeExpr(dec); err != nil {
			return err
		}
		st.Data = data

	case StmtAssign:
		var data AssignData
		if data.Target, err = decodeExpr(dec); err != nil {
			return err
		}
		if data.Value, err = decodeExpr(dec); err != nil {
			return err
		}
		st.Data = data

	case StmtReturn:
		var data ReturnData
		if data.Value, err = decodeExpr(dec); err != nil {
			return err
		}
		st.Data = data

	case StmtBreak:
		var data BreakData
		if data.Label, err = dec.DecodeString(); err != nil {
			return err
		}
		st.Data = data

	case StmtContinue:
		var data ContinueData
		if data.Label, err = dec.DecodeString(); err != nil {
			return err
		}
		st.Data = data

	case StmtIf:
		var data IfData
		if data.Cond, err = decodeExpr(dec); err != nil {
			return err
		}
		if data.Then, err = decodeBlock(dec); err != nil {
			return err
		}
		if data.Else, err = decodeBlock(dec); err != nil {
			return err
		}
		st.Data = data

	case StmtWhile:
		var data WhileData
		if data.Label, err = dec.DecodeString(); err != nil {
			return err
		}
		if data.Cond, err = decodeExpr(dec); err != nil {
			return err
		}
		if data.Body, err = decodeBlock(dec); err != nil {
			return err
		}
		st.Data = data

	case StmtLoop:
		var data LoopData
		if data.Label, err = dec.DecodeString(); err != nil {
			return err
		}
		if data.Body, err = decodeBlock(dec); err != nil {
			return err
		}
		st.Data = data

	case StmtFor:
		var data ForData
		if data.Label, err = dec.DecodeString(); err != nil {
			return err
		}
		if data.Var, err = dec.DecodeString(); err != nil {
			return err
		}
		if data.VarType, err = decodeType(dec); err != nil {
			return err
		}
		if data.From, err = decodeExpr(dec); err != nil {
			return err
		}
		if data.To, err = decodeExpr(dec); err != nil {
			return err
		}
		if data.Body, err = decodeBlock(dec); err != nil {
			return err
		}
		st.Data = data

	case StmtBlock:
		var data BlockData
		if data.Block, err = decodeBlock(dec); err != nil {
			return err
		}
		st.Data = data

	case StmtExpr:
		var data ExprStmtData
		if data.Expr, err = decodeExpr(dec); err != nil {
			return err
		}
		st.Data = data

	default:
		return fmt.Errorf("hir: cannot decode statement kind %d", kind)
	}
	return nil
}

func payloadErr(st *Stmt) error {
	return fmt.Errorf("hir: %s statement: unexpected payload %T", st.Kind, st.Data)
}
