package hir

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

func encodeExpr(enc *msgpack.Encoder, e *Expr) error {
	if e == nil {
		return enc.EncodeNil()
	}
	if err := enc.EncodeUint8(uint8(e.Kind)); err != nil {
		return err
	}
	if err := encodeType(enc, e.Type); err != nil {
		return err
	}
	if err := encodeSpan(enc, e.Span); err != nil {
		return err
	}
	switch e.Kind {
	case ExprLiteral:
		data, ok := e.Data.(LiteralData)
		if !ok {
			return exprPayloadErr(e)
		}
		return encodeLiteral(enc, &data)

	case ExprVarRef:
		data, ok := e.Data.(VarRefData)
		if !ok {
			return exprPayloadErr(e)
		}
		return enc.EncodeString(data.Name)

	case ExprUnary:
		data, ok := e.Data.(UnaryData)
		if !ok {
			return exprPayloadErr(e)
		}
		if err := enc.EncodeUint8(uint8(data.Op)); err != nil {
			return err
		}
		return encodeExpr(enc, data.Operand)

	case ExprBinary:
		data, ok := e.Data.(BinaryData)
		if !ok {
			return exprPayloadErr(e)
		}
		if err := enc.EncodeUint8(uint8(data.Op)); err != nil {
			return err
		}
		if err := encodeExpr(enc, data.Left); err != nil {
			return err
		}
		return encodeExpr(enc, data.Right)

	case ExprCall:
		data, ok := e.Data.(CallData)
		if !ok {
			return exprPayloadErr(e)
		}
		if err := enc.EncodeString(data.Callee); err != nil {
			return err
		}
		return encodeExprs(enc, data.Args)

	case ExprMethodCall:
		data, ok := e.Data.(MethodCallData)
		if !ok {
			return exprPayloadErr(e)
		}
		if err := encodeExpr(enc, data.Recv); err != nil {
			return err
		}
		if err := enc.EncodeString(data.Gene); err != nil {
			return err
		}
		if err := enc.EncodeString(data.Method); err != nil {
			return err
		}
		return encodeExprs(enc, data.Args)

	case ExprFieldAccess:
		data, ok := e.Data.(FieldAccessData)
		if !ok {
			return exprPayloadErr(e)
		}
		if err := encodeExpr(enc, data.Base); err != nil {
			return err
		}
		return enc.EncodeString(data.Field)

	case ExprStructLit:
		data, ok := e.Data.(StructLitData)
		if !ok {
			return exprPayloadErr(e)
		}
		if err := enc.EncodeString(data.Gene); err != nil {
			return err
		}
		if err := enc.EncodeArrayLen(len(data.Fields)); err != nil {
			return err
		}
		for i := range data.Fields {
			if err := enc.EncodeString(data.Fields[i].Name); err != nil {
				return err
			}
			if err := encodeExpr(enc, data.Fields[i].Value); err != nil {
				return err
			}
		}
		return nil

	case ExprIf:
		data, ok := e.Data.(IfExprData)
		if !ok {
			return exprPayloadErr(e)
		}
		if err := encodeExpr(enc, data.Cond); err != nil {
			return err
		}
		if err := encodeBlock(enc, data.Then); err != nil {
			return err
		}
		return encodeBlock(enc, data.Else)

	case ExprBlock:
		data, ok := e.Data.(BlockExprData)
		if !ok {
			return exprPayloadErr(e)
		}
		return encodeBlock(enc, data.Block)

	case ExprMatch:
		data, ok := e.Data.(MatchData)
		if !ok {
			return exprPayloadErr(e)
		}
		if err := encodeExpr(enc, data.Scrutinee); err != nil {
			return err
		}
		if err := enc.EncodeArrayLen(len(data.Arms)); err != nil {
			return err
		}
		for i := range data.Arms {
			arm := &data.Arms[i]
			if err := encodePattern(enc, &arm.Pattern); err != nil {
				return err
			}
			if err := encodeExpr(enc, arm.Body); err != nil {
				return err
			}
			if err := encodeSpan(enc, arm.Span); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("hir: cannot encode expression kind %s", e.Kind)
	}
}

func encodeExprs(enc *msgpack.Encoder, list []*Expr) error {
	if err := enc.EncodeArrayLen(len(list)); err != nil {
		return err
	}
	for _, e := range list {
		if err := encodeExpr(enc, e); err != nil {
			return err
		}
	}
	return nil
}

func encodeLiteral(enc *msgpack.Encoder, lit *LiteralData) error {
	if err := enc.EncodeUint8(uint8(lit.Kind)); err != nil {
		return err
	}
	switch lit.Kind {
	case LitInt:
		return enc.EncodeInt64(lit.Int)
	case LitFloat:
		return enc.EncodeFloat64(lit.Float)
	case LitBool:
		return enc.EncodeBool(lit.Bool)
	case LitChar:
		return enc.EncodeInt32(lit.Char)
	case LitString:
		return enc.EncodeString(lit.Str)
	default:
		return fmt.Errorf("hir: cannot encode literal kind %d", lit.Kind)
	}
}

func encodePattern(enc *msgpack.Encoder, p *Pattern) error {
	if err := enc.EncodeUint8(uint8(p.Kind)); err != nil {
		return err
	}
	if err := encodeSpan(enc, p.Span); err != nil {
		return err
	}
	switch p.Kind {
	case PatWildcard:
		return nil
	case PatBind:
		return enc.EncodeString(p.Name)
	case PatLiteral:
		if p.Lit == nil {
			return fmt.Errorf("hir: literal pattern without literal")
		}
		return encodeLiteral(enc, p.Lit)
	default:
		return fmt.Errorf("hir: cannot encode pattern kind %d", p.Kind)
	}
}

func decodeExpr(dec *msgpack.Decoder) (*Expr, error) {
	if nilValue, err := consumeNil(dec); err != nil || nilValue {
		return nil, err
	}
	e := &Expr{}
	kind, err := dec.DecodeUint8()
	if err != nil {
		return nil, err
	}
	e.Kind = ExprKind(kind)
	if e.Type, err = decodeType(dec); err != nil {
		return nil, err
	}
	if e.Span, err = decodeSpan(dec); err != nil {
		return nil, err
	}
	switch e.Kind {
	case ExprLiteral:
		lit, err := decodeLiteral(dec)
		if err != nil {
			return nil, err
		}
		e.Data = lit

	case ExprVarRef:
		var data VarRefData
		if data.Name, err = dec.DecodeString(); err != nil {
			return nil, err
		}
		e.Data = data

	case ExprUnary:
		var data UnaryData
		op, err := dec.DecodeUint8()
		if err != nil {
			return nil, err
		}
		data.Op = UnOp(op)
		if data.Operand, err = decodeExpr(dec); err != nil {
			return nil, err
		}
		e.Data = data

	case ExprBinary:
		var data BinaryData
		op, err := dec.DecodeUint8()
		if err != nil {
			return nil, err
		}
		data.Op = BinOp(op)
		if data.Left, err = decodeExpr(dec); err != nil {
			return nil, err
		}
		if data.Right, err = decodeExpr(dec); err != nil {
			return nil, err
		}
		e.Data = data

	case ExprCall:
		var data CallData
		if data.Callee, err = dec.DecodeString(); err != nil {
			return nil, err
		}
		if data.Args, err = decodeExprs(dec); err != nil {
			return nil, err
		}
		e.Data = data

	case ExprMethodCall:
		var data MethodCallData
		if data.Recv, err = decodeExpr(dec); err != nil {
			return nil, err
		}
		if data.Gene, err = dec.DecodeString(); err != nil {
			return nil, err
		}
		if data.Method, err = dec.DecodeString(); err != nil {
			return nil, err
		}
		if data.Args, err = decodeExprs(dec); err != nil {
			return nil, err
		}
		e.Data = data

	case ExprFieldAccess:
		var data FieldAccessData
		if data.Base, err = decodeExpr(dec); err != nil {
			return nil, err
		}
		if data.Field, err = dec.DecodeString(); err != nil {
			return nil, err
		}
		e.Data = data

	case ExprStructLit:
		var data StructLitData
		if data.Gene, err = dec.DecodeString(); err != nil {
			return nil, err
		}
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		data.Fields = make([]FieldInit, n)
		for i := range data.Fields {
			if data.Fields[i].Name, err = dec.DecodeString(); err != nil {
				return nil, err
			}
			if data.Fields[i].Value, err = decodeExpr(dec); err != nil {
				return nil, err
			}
		}
		e.Data = data

	case ExprIf:
		var data IfExprData
		if data.Cond, err = decodeExpr(dec); err != nil {
			return nil, err
		}
		if data.Then, err = decodeBlock(dec); err != nil {
			return nil, err
		}
		if data.Else, err = decodeBlock(dec); err != nil {
			return nil, err
		}
		e.Data = data

	case ExprBlock:
		var data BlockExprData
		if data.Block, err = decodeBlock(dec); err != nil {
			return nil, err
		}
		e.Data = data

	case ExprMatch:
		var data MatchData
		if data.Scrutinee, err = decodeExpr(dec); err != nil {
			return nil, err
		}
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		data.Arms = make([]MatchArm, n)
		for i := range data.Arms {
			arm := &data.Arms[i]
			if err := decodePattern(dec, &arm.Pattern); err != nil {
				return nil, err
			}
			if arm.Body, err = decodeExpr(dec); err != nil {
				return nil, err
			}
			if arm.Span, err = decodeSpan(dec); err != nil {
				return nil, err
			}
		}
		e.Data = data

	default:
		return nil, fmt.Errorf("hir: cannot decode expression kind %d", kind)
	}
	return e, nil
}

func decodeExprs(dec *msgpack.Decoder) ([]*Expr, error) {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	list := make([]*Expr, n)
	for i := range list {
		if list[i], err = decodeExpr(dec); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func decodeLiteral(dec *msgpack.Decoder) (LiteralData, error) {
	var lit LiteralData
	kind, err := dec.DecodeUint8()
	if err != nil {
		return lit, err
	}
	lit.Kind = LitKind(kind)
	switch lit.Kind {
	case LitInt:
		lit.Int, err = dec.DecodeInt64()
	case LitFloat:
		lit.Float, err = dec.DecodeFloat64()
	case LitBool:
		lit.Bool, err = dec.DecodeBool()
	case LitChar:
		lit.Char, err = dec.DecodeInt32()
	case LitString:
		lit.Str, err = dec.DecodeString()
	default:
		err = fmt.Errorf("hir: cannot decode literal kind %d", kind)
	}
	return lit, err
}

func decodePattern(dec *msgpack.Decoder, p *Pattern) error {
	kind, err := dec.DecodeUint8()
	if err != nil {
		return err
	}
	p.Kind = PatKind(kind)
	if p.Span, err = decodeSpan(dec); err != nil {
		return err
	}
	switch p.Kind {
	case PatWildcard:
		return nil
	case PatBind:
		p.Name, err = dec.DecodeString()
		return err
	case PatLiteral:
		lit, err := decodeLiteral(dec)
		if err != nil {
			return err
		}
		p.Lit = &lit
		return err
	default:
		return fmt.Errorf("hir: cannot decode pattern kind %d", kind)
	}
}

func exprPayloadErr(e *Expr) error {
	return fmt.Errorf("hir: %s expression: unexpected payload %T", e.Kind, e.Data)
}
