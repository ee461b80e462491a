package hir

import (
	"dol/internal/source"
	"dol/internal/types"
)

// Param is one function parameter with its resolved type.
type Param struct {
	Name string
	Type types.TypeID
	Span source.Span
}

// FuncDecl is a typed function. Methods carry the owning gene's name; their
// implicit receiver parameter is already materialized as Params[0] by the
// frontend.
type FuncDecl struct {
	Name   string
	Owner  string // owning gene for methods, empty for free functions
	Params []Param
	Ret    types.TypeID // NoTypeID when the function returns nothing
	Body   *Block
	Public bool
	Span   source.Span
}

// QualifiedName returns the export/link name: `Gene.method` for methods,
// the plain name otherwise.
func (f *FuncDecl) QualifiedName() string {
	if f.Owner == "" {
		return f.Name
	}
	return f.Owner + "." + f.Name
}

// FieldDecl is one gene field with its resolved type.
type FieldDecl struct {
	Name  string
	Type  types.TypeID
	ByRef bool
	Span  source.Span
}

// GeneDecl is a gene (aggregate) declaration.
type GeneDecl struct {
	Name   string
	Fields []FieldDecl
	Span   source.Span
}

// Module is a complete typed program handed to the backend. Genes appear in
// dependency order: a gene only inline-embeds genes declared before it.
type Module struct {
	Name  string
	Genes []GeneDecl
	Funcs []FuncDecl
}

// Gene returns the declaration with the given name.
func (m *Module) Gene(name string) (*GeneDecl, bool) {
	for i := range m.Genes {
		if m.Genes[i].Name == name {
			return &m.Genes[i], true
		}
	}
	return nil, false
}

// Func returns the function with the given qualified name.
func (m *Module) Func(qualified string) (*FuncDecl, bool) {
	for i := range m.Funcs {
		if m.Funcs[i].QualifiedName() == qualified {
			return &m.Funcs[i], true
		}
	}
	return nil, false
}
