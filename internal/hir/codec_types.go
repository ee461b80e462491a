package hir

import (
	"github.com/vmihailenco/msgpack/v5"

	"dol/internal/types"
)

func encodeInterner(enc *msgpack.Encoder, in *types.Interner) error {
	snap := in.Snapshot()
	if err := enc.EncodeArrayLen(len(snap.Types)); err != nil {
		return err
	}
	for _, t := range snap.Types {
		if err := enc.EncodeUint8(uint8(t.Kind)); err != nil {
			return err
		}
		if err := enc.EncodeUint32(uint32(t.Elem)); err != nil {
			return err
		}
		if err := enc.EncodeUint8(uint8(t.Width)); err != nil {
			return err
		}
		if err := enc.EncodeUint32(t.Payload); err != nil {
			return err
		}
	}
	if err := enc.EncodeArrayLen(len(snap.Genes)); err != nil {
		return err
	}
	for _, g := range snap.Genes {
		if err := enc.EncodeString(g.Name); err != nil {
			return err
		}
		if err := encodeSpan(enc, g.Decl); err != nil {
			return err
		}
		if err := enc.EncodeArrayLen(len(g.Fields)); err != nil {
			return err
		}
		for _, f := range g.Fields {
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
	}
	return nil
}

func decodeInterner(dec *msgpack.Decoder) (*types.Interner, error) {
	var snap types.Snapshot
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	snap.Types = make([]types.Type, n)
	for i := range snap.Types {
		t := &snap.Types[i]
		kind, err := dec.DecodeUint8()
		if err != nil {
			return nil, err
		}
		t.Kind = types.Kind(kind)
		elem, err := dec.DecodeUint32()
		if err != nil {
			return nil, err
		}
		t.Elem = types.TypeID(elem)
		width, err := dec.DecodeUint8()
		if err != nil {
			return nil, err
		}
		t.Width = types.Width(width)
		if t.Payload, err = dec.DecodeUint32(); err != nil {
			return nil, err
		}
	}
	if n, err = dec.DecodeArrayLen(); err != nil {
		return nil, err
	}
	snap.Genes = make([]types.GeneInfo, n)
	for i := range snap.Genes {
		g := &snap.Genes[i]
		if g.Name, err = dec.DecodeString(); err != nil {
			return nil, err
		}
		if g.Decl, err = decodeSpan(dec); err != nil {
			return nil, err
		}
		fn, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		g.Fields = make([]types.GeneField, fn)
		for j := range g.Fields {
			f := &g.Fields[j]
			if f.Name, err = dec.DecodeString(); err != nil {
				return nil, err
			}
			if f.Type, err = decodeType(dec); err != nil {
				return nil, err
			}
			if f.ByRef, err = dec.DecodeBool(); err != nil {
				return nil, err
			}
			if f.Span, err = decodeSpan(dec); err != nil {
				return nil, err
			}
		}
	}
	return types.FromSnapshot(snap)
}
