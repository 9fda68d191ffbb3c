// Package backend defines the narrow contract between lowered code and
// a code generator, plus a reference machine that evaluates lowered
// modules directly.
//
// A backend needs exactly five capabilities to host the uniform
// tagged-union representation: define a layout, construct a variant,
// load a discriminant, load a payload at a concrete type, and branch on
// a discriminant. Everything generic is resolved before lowering, so a
// backend never sees a type parameter.
package backend

import (
	"zen/internal/layout"
	"zen/internal/lower"
	"zen/internal/types"
)

// Machine is the backend protocol.
type Machine interface {
	// DefineTaggedUnion registers a layout before any value of the type
	// is constructed.
	DefineTaggedUnion(l *layout.TaggedUnionLayout) error

	// ConstructVariant builds a tagged-union value: the discriminant
	// plus a payload stored per the variant's storage mode. Nullary
	// variants receive the zero Value and store the inline sentinel.
	ConstructVariant(l *layout.TaggedUnionLayout, disc uint32, payload Value) (Value, error)

	// LoadDiscriminant reads the tag of a union value.
	LoadDiscriminant(v Value) (uint32, error)

	// LoadPayload reinterprets the payload slot at a concrete type:
	// inline slots decode the scalar bits, heap slots dereference the
	// stored pointer.
	LoadPayload(v Value, as types.TypeID) (Value, error)

	// BranchOnDiscriminant picks the successor block for a tag.
	BranchOnDiscriminant(disc uint32, cases []lower.DiscCase, def lower.BlockID) (lower.BlockID, error)
}

var _ Machine = (*Interp)(nil)
