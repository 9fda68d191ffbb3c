package ast

import (
	"zen/internal/source"
)

// Pattern is a match-arm pattern.
type Pattern interface {
	patNode()
	PatSpan() source.Span
}

// WildcardPat matches anything without binding.
type WildcardPat struct {
	Span source.Span
}

// BindPat matches anything and binds the value to a name.
type BindPat struct {
	Name source.StringID
	Span source.Span
}

// IntPat matches an integer literal.
type IntPat struct {
	Value int64
	Span  source.Span
}

// BoolPat matches a boolean literal.
type BoolPat struct {
	Value bool
	Span  source.Span
}

// StringPat matches a string literal.
type StringPat struct {
	Value string
	Span  source.Span
}

// VariantPat matches one enum variant, optionally destructuring its
// payload with a sub-pattern.
type VariantPat struct {
	Enum       source.StringID // optional qualifier; NoStringID when inferred
	Variant    source.StringID
	Payload    Pattern // nil when the pattern has no payload slot
	HasPayload bool
	Span       source.Span
}

func (*WildcardPat) patNode() {}
func (*BindPat) patNode()     {}
func (*IntPat) patNode()      {}
func (*BoolPat) patNode()     {}
func (*StringPat) patNode()   {}
func (*VariantPat) patNode()  {}

func (p *WildcardPat) PatSpan() source.Span { return p.Span }
func (p *BindPat) PatSpan() source.Span     { return p.Span }
func (p *IntPat) PatSpan() source.Span      { return p.Span }
func (p *BoolPat) PatSpan() source.Span     { return p.Span }
func (p *StringPat) PatSpan() source.Span   { return p.Span }
func (p *VariantPat) PatSpan() source.Span  { return p.Span }

// IsCatchAll reports whether the pattern matches every value.
func IsCatchAll(p Pattern) bool {
	switch p.(type) {
	case *WildcardPat, *BindPat:
		return true
	default:
		return false
	}
}
