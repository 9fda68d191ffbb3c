package ast

import (
	"zen/internal/source"
	"zen/internal/types"
)

// Expr is a typed expression node.
type Expr interface {
	exprNode()
	ExprSpan() source.Span
	// StaticType is the declared or inferred type assigned by the
	// frontend; it may still mention generic parameters inside a
	// generic function body.
	StaticType() types.TypeID
}

// IntLit is an integer literal.
type IntLit struct {
	Value int64
	Ty    types.TypeID
	Span  source.Span
}

// FloatLit is a floating-point literal.
type FloatLit struct {
	Value float64
	Ty    types.TypeID
	Span  source.Span
}

// BoolLit is a boolean literal.
type BoolLit struct {
	Value bool
	Ty    types.TypeID
	Span  source.Span
}

// StringLit is a string literal.
type StringLit struct {
	Value string
	Ty    types.TypeID
	Span  source.Span
}

// VarRef reads a local binding or parameter.
type VarRef struct {
	Name source.StringID
	Ty   types.TypeID
	Span source.Span
}

// ConstructExpr builds an enum variant value, e.g. Some(42) or
// Ok(Ok(1)). TypeArgs carry the resolved arguments for the enum's formal
// parameters; inside a generic function body they may mention the
// enclosing function's own parameters.
type ConstructExpr struct {
	Enum     source.StringID // declaring enum name
	Variant  source.StringID
	Payload  Expr // nil for nullary variants
	TypeArgs []types.TypeID
	Ty       types.TypeID
	Span     source.Span
}

// CallExpr calls a (possibly generic) function by name.
type CallExpr struct {
	Callee   source.StringID
	TypeArgs []types.TypeID
	Args     []Expr
	Ty       types.TypeID
	Span     source.Span
}

// MatchExpr destructures a scrutinee across arms. Ty is the match's
// statically declared result type; every arm body converges to it.
type MatchExpr struct {
	Scrutinee Expr
	Arms      []MatchArm
	Ty        types.TypeID
	Span      source.Span
}

// MatchArm binds a pattern to a body expression.
type MatchArm struct {
	Pat  Pattern
	Body Expr
	Span source.Span
}

func (*IntLit) exprNode()        {}
func (*FloatLit) exprNode()      {}
func (*BoolLit) exprNode()       {}
func (*StringLit) exprNode()     {}
func (*VarRef) exprNode()        {}
func (*ConstructExpr) exprNode() {}
func (*CallExpr) exprNode()      {}
func (*MatchExpr) exprNode()     {}

func (e *IntLit) ExprSpan() source.Span        { return e.Span }
func (e *FloatLit) ExprSpan() source.Span      { return e.Span }
func (e *BoolLit) ExprSpan() source.Span       { return e.Span }
func (e *StringLit) ExprSpan() source.Span     { return e.Span }
func (e *VarRef) ExprSpan() source.Span        { return e.Span }
func (e *ConstructExpr) ExprSpan() source.Span { return e.Span }
func (e *CallExpr) ExprSpan() source.Span      { return e.Span }
func (e *MatchExpr) ExprSpan() source.Span     { return e.Span }

func (e *IntLit) StaticType() types.TypeID        { return e.Ty }
func (e *FloatLit) StaticType() types.TypeID      { return e.Ty }
func (e *BoolLit) StaticType() types.TypeID       { return e.Ty }
func (e *StringLit) StaticType() types.TypeID     { return e.Ty }
func (e *VarRef) StaticType() types.TypeID        { return e.Ty }
func (e *ConstructExpr) StaticType() types.TypeID { return e.Ty }
func (e *CallExpr) StaticType() types.TypeID      { return e.Ty }
func (e *MatchExpr) StaticType() types.TypeID     { return e.Ty }
