// Package ast defines the typed syntax trees this pipeline consumes.
//
// Trees arrive from the frontend with every constructor call and match
// scrutinee already carrying a declared or inferred static type; nothing
// here parses source text.
package ast

import (
	"zen/internal/source"
	"zen/internal/types"
)

// Unit is one compilation unit handed over by the frontend.
type Unit struct {
	Name  string
	Enums []*EnumDecl
	Funcs []*FuncDecl
}

// EnumDecl declares a (possibly generic) sum type.
type EnumDecl struct {
	Name       source.StringID
	Type       types.TypeID // nominal enum slot in the interner
	TypeParams []types.TypeID
	Variants   []VariantDecl
	Span       source.Span
}

// VariantDecl declares one variant. Discriminants follow declaration
// order starting at 0.
type VariantDecl struct {
	Name       source.StringID
	Payload    types.TypeID // may reference the enum's type params
	HasPayload bool
	Span       source.Span
}

// VariantIndex returns the declaration-order discriminant of a variant.
func (d *EnumDecl) VariantIndex(name source.StringID) (uint32, bool) {
	for i := range d.Variants {
		if d.Variants[i].Name == name {
			return uint32(i), true //nolint:gosec // variant counts are tiny
		}
	}
	return 0, false
}

// FuncDecl declares a (possibly generic) function.
type FuncDecl struct {
	Name       source.StringID
	TypeParams []types.TypeID
	Params     []Param
	Result     types.TypeID
	Body       *Block
	Span       source.Span
}

// Param is a single function parameter.
type Param struct {
	Name source.StringID
	Type types.TypeID
	Span source.Span
}

// Block is a statement list with an optional trailing result expression.
type Block struct {
	Stmts  []Stmt
	Result Expr // nil means the block yields unit
	Span   source.Span
}

// Stmt is a statement inside a block.
type Stmt interface {
	stmtNode()
	StmtSpan() source.Span
}

// LetStmt binds a name to a value; DeclType is the declared or inferred
// static type of the binding.
type LetStmt struct {
	Name     source.StringID
	Value    Expr
	DeclType types.TypeID
	Span     source.Span
}

// ExprStmt evaluates an expression for effect.
type ExprStmt struct {
	E Expr
}

func (*LetStmt) stmtNode()  {}
func (*ExprStmt) stmtNode() {}

func (s *LetStmt) StmtSpan() source.Span  { return s.Span }
func (s *ExprStmt) StmtSpan() source.Span { return s.E.ExprSpan() }
