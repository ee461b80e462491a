package hir

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"dol/internal/source"
	"dol/internal/types"
)

// The frontend hands typed programs to this backend as msgpack-encoded HIR
// (.dolh files). The codec is hand-rolled because Stmt/Expr payloads are
// kind-discriminated; reflection cannot restore the concrete payload types.

// CodecSchemaVersion is bumped whenever the wire layout changes; readers
// reject anything else.
const CodecSchemaVersion uint16 = 1

// codecMagic guards against feeding arbitrary msgpack files to the backend.
const codecMagic = "DOLH"

// EncodeModule writes a module in the .dolh interchange format. The
// interner travels with the module so TypeIDs stay meaningful on the
// decoding side.
func EncodeModule(w io.Writer, in *types.Interner, m *Module) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.EncodeString(codecMagic); err != nil {
		return err
	}
	if err := enc.EncodeUint16(CodecSchemaVersion); err != nil {
		return err
	}
	if err := encodeInterner(enc, in); err != nil {
		return err
	}
	return encodeModule(enc, m)
}

// DecodeModule reads a module from the .dolh interchange format together
// with the interner its TypeIDs index into.
func DecodeModule(r io.Reader) (*types.Interner, *Module, error) {
	dec := msgpack.NewDecoder(r)
	magic, err := dec.DecodeString()
	if err != nil {
		return nil, nil, fmt.Errorf("hir: reading magic: %w", err)
	}
	if magic != codecMagic {
		return nil, nil, fmt.Errorf("hir: not a DOL HIR file (magic %q)", magic)
	}
	schema, err := dec.DecodeUint16()
	if err != nil {
		return nil, nil, fmt.Errorf("hir: reading schema version: %w", err)
	}
	if schema != CodecSchemaVersion {
		return nil, nil, fmt.Errorf("hir: schema version %d, want %d", schema, CodecSchemaVersion)
	}
	in, err := decodeInterner(dec)
	if err != nil {
		return nil, nil, err
	}
	m, err := decodeModule(dec)
	if err != nil {
		return nil, nil, err
	}
	return in, m, nil
}

func encodeModule(enc *msgpack.Encoder, m *Module) error {
	if err := enc.EncodeString(m.Name); err != nil {
		return err
	}
	if err := enc.EncodeArrayLen(len(m.Genes)); err != nil {
		return err
	}
	for i := range m.Genes {
		if err := encodeGene(enc, &m.Genes[i]); err != nil {
			return err
		}
	}
	if err := enc.EncodeArrayLen(len(m.Funcs)); err != nil {
		return err
	}
	for i := range m.Funcs {
		if err := encodeFunc(enc, &m.Funcs[i]); err != nil {
			return err
		}
	}
	return nil
}

func decodeModule(dec *msgpack.Decoder) (*Module, error) {
	m := &Module{}
	var err error
	if m.Name, err = dec.DecodeString(); err != nil {
		return nil, err
	}
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	m.Genes = make([]GeneDecl, n)
	for i := range m.Genes {
		if err := decodeGene(dec, &m.Genes[i]); err != nil {
			return nil, err
		}
	}
	if n, err = dec.DecodeArrayLen(); err != nil {
		return nil, err
	}
	m.Funcs = make([]FuncDecl, n)
	for i := range m.Funcs {
		if err := decodeFunc(dec, &m.Funcs[i]); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func encodeSpan(enc *msgpack.Encoder, sp source.Span) error {
	if err := enc.EncodeUint32(uint32(sp.File)); err != nil {
		return err
	}
	if err := enc.EncodeUint32(sp.Start); err != nil {
		return err
	}
	return enc.EncodeUint32(sp.End)
}

func decodeSpan(dec *msgpack.Decoder) (source.Span, error) {
	var sp source.Span
	f, err := dec.DecodeUint32()
	if err != nil {
		return sp, err
	}
	sp.File = source.FileID(f)
	if sp.Start, err = dec.DecodeUint32(); err != nil {
		return sp, err
	}
	if sp.End, err = dec.DecodeUint32(); err != nil {
		return sp, err
	}
	return sp, nil
}

func encodeType(enc *msgpack.Encoder, t types.TypeID) error {
	return enc.EncodeUint32(uint32(t))
}

func decodeType(dec *msgpack.Decoder) (types.TypeID, error) {
	v, err := dec.DecodeUint32()
	return types.TypeID(v), err
}

func encodeGene(enc *msgpack.Encoder, g *GeneDecl) error {
	if err := enc.EncodeString(g.Name); err != nil {
		return err
	}
	if err := encodeSpan(enc, g.Span); err != nil {
		return err
	}
	if err := enc.EncodeArrayLen(len(g.Fields)); err != nil {
		return err
	}
	for i := range g.Fields {
		f := &g.Fields[i]
		if err := enc.EncodeString(f.Name); err != nil {
			return err
		}
		if err := encodeType(enc, f.Type); err != nil {
			return err
		}
		if err := enc.EncodeBool(f.ByRef); err != nil {
			return err
		}
		if err := encodeSpan(enc, f.Span); err != nil {
			return err
		}
	}
	return nil
}

func decodeGene(dec *msgpack.Decoder, g *GeneDecl) error {
	var err error
	if g.Name, err = dec.DecodeString(); err != nil {
		return err
	}
	if g.Span, err = decodeSpan(dec); err != nil {
		return err
	}
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	g.Fields = make([]FieldDecl, n)
	for i := range g.Fields {
		f := &g.Fields[i]
		if f.Name, err = dec.DecodeString(); err != nil {
			return err
		}
		if f.Type, err = decodeType(dec); err != nil {
			return err
		}
		if f.ByRef, err = dec.DecodeBool(); err != nil {
			return err
		}
		if f.Span, err = decodeSpan(dec); err != nil {
			return err
		}
	}
	return nil
}

func encodeFunc(enc *msgpack.Encoder, f *FuncDecl) error {
	if err := enc.EncodeString(f.Name); err != nil {
		return err
	}
	if err := enc.EncodeString(f.Owner); err != nil {
		return err
	}
	if err := enc.EncodeBool(f.Public); err != nil {
		return err
	}
	if err := encodeSpan(enc, f.Span); err != nil {
		return err
	}
	if err := enc.EncodeArrayLen(len(f.Params)); err != nil {
		return err
	}
	for i := range f.Params {
		p := &f.Params[i]
		if err := enc.EncodeString(p.Name); err != nil {
			return err
		}
		if err := encodeType(enc, p.Type); err != nil {
			return err
		}
		if err := encodeSpan(enc, p.Span); err != nil {
			return err
		}
	}
	if err := encodeType(enc, f.Ret); err != nil {
		return err
	}
	return encodeBlock(enc, f.Body)
}

func decodeFunc(dec *msgpack.Decoder, f *FuncDecl) error {
	var err error
	if f.Name, err = dec.DecodeString(); err != nil {
		return err
	}
	if f.Owner, err = dec.DecodeString(); err != nil {
		return err
	}
	if f.Public, err = dec.DecodeBool(); err != nil {
		return err
	}
	if f.Span, err = decodeSpan(dec); err != nil {
		return err
	}
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	f.Params = make([]Param, n)
	for i := range f.Params {
		p := &f.Params[i]
		if p.Name, err = dec.DecodeString(); err != nil {
			return err
		}
		if p.Type, err = decodeType(dec); err != nil {
			return err
		}
		if p.Span, err = decodeSpan(dec); err != nil {
			return err
		}
	}
	if f.Ret, err = decodeType(dec); err != nil {
		return err
	}
	f.Body, err = decodeBlock(dec)
	return err
}

func encodeBlock(enc *msgpack.Encoder, b *Block) error {
	if b == nil {
		return enc.EncodeNil()
	}
	if err := enc.EncodeArrayLen(len(b.Stmts)); err != nil {
		return err
	}
	for i := range b.Stmts {
		if err := encodeStmt(enc, &b.Stmts[i]); err != nil {
			return err
		}
	}
	if err := encodeExpr(enc, b.Tail); err != nil {
		return err
	}
	return encodeSpan(enc, b.Span)
}

func decodeBlock(dec *msgpack.Decoder) (*Block, error) {
	if nilValue, err := consumeNil(dec); err != nil || nilValue {
		return nil, err
	}
	b := &Block{}
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	b.Stmts = make([]Stmt, n)
	for i := range b.Stmts {
		if err := decodeStmt(dec, &b.Stmts[i]); err != nil {
			return nil, err
		}
	}
	if b.Tail, err = decodeExpr(dec); err != nil {
		return nil, err
	}
	if b.Span, err = decodeSpan(dec); err != nil {
		return nil, err
	}
	return b, nil
}

// consumeNil reports whether the next value is nil and consumes it if so.
func consumeNil(dec *msgpack.Decoder) (bool, error) {
	code, err := dec.PeekCode()
	if err != nil {
		return false, err
	}
	if code != msgpcode.Nil {
		return false, nil
	}
	return true, dec.DecodeNil()
}
