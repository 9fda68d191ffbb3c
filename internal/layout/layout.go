// Package layout computes the uniform tagged-union representation for
// instantiated sum types.
//
// Every variant of one instantiated type shares the exact same shape: a
// fixed-width discriminant plus a single payload slot wide enough for
// either an inline scalar or a heap pointer. Layout width never depends
// on the concrete payload type, so values of different variants stay
// interchangeable at control-flow merge points.
package layout

import (
	"zen/internal/source"
	"zen/internal/types"
)

// StorageMode selects where a variant payload lives.
type StorageMode uint8

const (
	// StorageInline keeps the payload in the slot itself.
	StorageInline StorageMode = iota
	// StorageHeap stores a pointer to a heap allocation sized to the
	// concrete payload type.
	StorageHeap
)

func (m StorageMode) String() string {
	switch m {
	case StorageInline:
		return "inline"
	case StorageHeap:
		return "heap"
	default:
		return "StorageMode(?)"
	}
}

// VariantLayout describes one variant of a tagged union.
type VariantLayout struct {
	Name         source.StringID
	Discriminant uint32 // declaration-order index, 0-based
	Payload      types.TypeID
	HasPayload   bool
	Storage      StorageMode // nullary variants store an inline zero sentinel
}

// TaggedUnionLayout is the concrete runtime shape for one instantiated
// sum type. Generated code references the layout, never copies it.
type TaggedUnionLayout struct {
	Type types.TypeID
	Key  string // stable instantiation key, e.g. "Option[i32]"

	TagSize  int
	TagAlign int

	PayloadOffset int
	PayloadSize   int
	PayloadAlign  int

	Size  int
	Align int

	Variants []VariantLayout
}

// Variant returns the layout entry for a discriminant.
func (l *TaggedUnionLayout) Variant(disc uint32) (*VariantLayout, bool) {
	if l == nil || int(disc) >= len(l.Variants) {
		return nil, false
	}
	return &l.Variants[disc], true
}

// VariantByName returns the layout entry for a variant name.
func (l *TaggedUnionLayout) VariantByName(name source.StringID) (*VariantLayout, bool) {
	if l == nil {
		return nil, false
	}
	for i := range l.Variants {
		if l.Variants[i].Name == name {
			return &l.Variants[i], true
		}
	}
	return nil, false
}
