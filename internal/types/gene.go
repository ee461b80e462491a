package types

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"dol/internal/source"
)

// GeneField describes a single field inside a gene declaration.
type GeneField struct {
	Name string
	Type TypeID
	// ByRef marks the field as a pointer to a separately allocated instance
	// rather than inline-embedded bytes. Only meaningful for gene-typed
	// fields; the frontend sets it when the declaration used `&Gene`.
	ByRef bool
	Span  source.Span
}

// GeneInfo stores metadata for a gene (nominal aggregate) type.
type GeneInfo struct {
	Name   string
	Decl   source.Span
	Fields []GeneField
}

// RegisterGene allocates a nominal gene type slot and returns its TypeID.
// Registering the same name twice returns the existing TypeID so forward
// references resolve to one identity.
func (in *Interner) RegisterGene(name string, decl source.Span) TypeID {
	if id, ok := in.byName[name]; ok {
		return id
	}
	slot, err := safecast.Conv[uint32](len(in.genes))
	if err != nil {
		panic(fmt.Errorf("gene count overflow: %w", err))
	}
	in.genes = append(in.genes, GeneInfo{Name: name, Decl: decl})
	id := in.internRaw(Type{Kind: KindGene, Payload: slot})
	in.byName[name] = id
	in.geneIDs = append(in.geneIDs, id)
	return id
}

// SetGeneFields stores the resolved field descriptors for the gene type.
func (in *Interner) SetGeneFields(id TypeID, fields []GeneField) {
	info := in.geneInfo(id)
	if info == nil {
		return
	}
	info.Fields = slices.Clone(fields)
}

// GeneInfo returns metadata for the provided gene TypeID.
func (in *Interner) GeneInfo(id TypeID) (*GeneInfo, bool) {
	info := in.geneInfo(id)
	if info == nil {
		return nil, false
	}
	return info, true
}

// GeneByName resolves a registered gene by its qualified name.
func (in *Interner) GeneByName(name string) (TypeID, bool) {
	id, ok := in.byName[name]
	return id, ok
}

// Genes returns registered gene TypeIDs in registration order.
func (in *Interner) Genes() []TypeID {
	return slices.Clone(in.geneIDs)
}

func (in *Interner) geneInfo(id TypeID) *GeneInfo {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindGene {
		return nil
	}
	if t.Payload == 0 || int(t.Payload) >= len(in.genes) {
		return nil
	}
	return &in.genes[t.Payload]
}
