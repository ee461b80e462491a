package types

import (
	"fmt"
	"slices"
)

// Snapshot is the serializable image of an interner. Programs cross process
// boundaries with their TypeIDs intact, so the table the IDs index into has
// to travel alongside them.
type Snapshot struct {
	Types []Type
	Genes []GeneInfo
}

// Snapshot captures the interner's current tables. The clones are
// independent of later mutation.
func (in *Interner) Snapshot() Snapshot {
	genes := make([]GeneInfo, len(in.genes))
	for i, g := range in.genes {
		genes[i] = GeneInfo{Name: g.Name, Decl: g.Decl, Fields: slices.Clone(g.Fields)}
	}
	return Snapshot{
		Types: slices.Clone(in.types),
		Genes: genes,
	}
}

// FromSnapshot rebuilds an interner whose TypeIDs match the snapshot's
// producer. The derived indexes (structural map, gene names, builtins) are
// reconstructed rather than transmitted.
func FromSnapshot(s Snapshot) (*Interner, error) {
	if len(s.Types) == 0 || s.Types[0].Kind != KindInvalid {
		return nil, fmt.Errorf("types: snapshot missing invalid sentinel")
	}
	in := &Interner{
		types:  slices.Clone(s.Types),
		index:  make(map[typeKey]TypeID, len(s.Types)),
		byName: make(map[string]TypeID, len(s.Genes)),
	}
	in.genes = make([]GeneInfo, len(s.Genes))
	for i, g := range s.Genes {
		in.genes[i] = GeneInfo{Name: g.Name, Decl: g.Decl, Fields: slices.Clone(g.Fields)}
	}
	if len(in.genes) == 0 {
		in.genes = append(in.genes, GeneInfo{})
	}
	for i, t := range in.types {
		id := TypeID(i)
		in.index[typeKey(t)] = id
		if t.Kind == KindGene {
			info := in.geneInfo(id)
			if info == nil {
				return nil, fmt.Errorf("types: snapshot gene type %d has no info slot", i)
			}
			in.byName[info.Name] = id
			in.geneIDs = append(in.geneIDs, id)
		}
	}
	var err error
	find := func(t Type) TypeID {
		id, ok := in.index[typeKey(t)]
		if !ok && err == nil {
			err = fmt.Errorf("types: snapshot missing builtin %s", t.Kind)
		}
		return id
	}
	in.builtins = Builtins{
		Invalid: NoTypeID,
		Unit:    find(Type{Kind: KindUnit}),
		Bool:    find(Type{Kind: KindBool}),
		Char:    find(Type{Kind: KindChar}),
		String:  find(Type{Kind: KindString}),
		I32:     find(MakeInt(Width32)),
		I64:     find(MakeInt(Width64)),
		F32:     find(MakeFloat(Width32)),
		F64:     find(MakeFloat(Width64)),
	}
	if err != nil {
		return nil, err
	}
	return in, nil
}
