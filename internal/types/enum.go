package types //nolint:revive

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"zen/internal/source"
)

// EnumVariantInfo stores metadata for a single enum variant.
//
// Discriminants follow declaration order, starting at 0; the slice index
// of a variant inside EnumInfo.Variants is its discriminant.
type EnumVariantInfo struct {
	Name       source.StringID
	Payload    TypeID
	HasPayload bool
	Span       source.Span
}

// EnumInfo stores metadata for an enum type.
//
// A generic declaration carries TypeParams and no TypeArgs; an
// instantiation carries concrete TypeArgs (one per formal parameter) and
// variant payloads with the substitution already applied.
type EnumInfo struct {
	Name       source.StringID
	Decl       source.Span
	Variants   []EnumVariantInfo
	TypeParams []TypeID
	TypeArgs   []TypeID
}

// RegisterEnum allocates a nominal enum type slot and returns its TypeID.
func (in *Interner) RegisterEnum(name source.StringID, decl source.Span) TypeID {
	slot := in.appendEnumInfo(EnumInfo{Name: name, Decl: decl})
	return in.internRaw(Type{Kind: KindEnum, Payload: slot})
}

// RegisterEnumInstance allocates an enum instantiation with concrete type arguments.
func (in *Interner) RegisterEnumInstance(name source.StringID, decl source.Span, args []TypeID) TypeID {
	slot := in.appendEnumInfo(EnumInfo{Name: name, Decl: decl, TypeArgs: cloneTypeArgs(args)})
	return in.internRaw(Type{Kind: KindEnum, Payload: slot})
}

// SetEnumVariants stores the resolved variants for the enum type.
func (in *Interner) SetEnumVariants(typeID TypeID, variants []EnumVariantInfo) {
	info := in.enumInfo(typeID)
	if info == nil {
		return
	}
	info.Variants = cloneEnumVariants(variants)
}

// SetEnumTypeParams stores the formal parameters of a generic enum declaration.
func (in *Interner) SetEnumTypeParams(typeID TypeID, params []TypeID) {
	info := in.enumInfo(typeID)
	if info == nil {
		return
	}
	info.TypeParams = cloneTypeArgs(params)
}

// EnumInfo returns metadata for the provided enum TypeID.
func (in *Interner) EnumInfo(typeID TypeID) (*EnumInfo, bool) {
	info := in.enumInfo(typeID)
	if info == nil {
		return nil, false
	}
	return info, true
}

// EnumArgs returns type arguments for the enum instantiation.
func (in *Interner) EnumArgs(typeID TypeID) []TypeID {
	info := in.enumInfo(typeID)
	if info == nil || len(info.TypeArgs) == 0 {
		return nil
	}
	return cloneTypeArgs(info.TypeArgs)
}

// EnumVariantIndex returns the discriminant for the named variant.
func (in *Interner) EnumVariantIndex(typeID TypeID, name source.StringID) (uint32, bool) {
	info := in.enumInfo(typeID)
	if info == nil {
		return 0, false
	}
	for i := range info.Variants {
		if info.Variants[i].Name == name {
			return uint32(i), true //nolint:gosec // variant counts are tiny
		}
	}
	return 0, false
}

// FindEnumInstance returns an enum TypeID whose name and type arguments match.
func (in *Interner) FindEnumInstance(name source.StringID, args []TypeID) (TypeID, bool) {
	if in == nil || name == source.NoStringID {
		return NoTypeID, false
	}
	for id := TypeID(1); int(id) < len(in.types); id++ {
		if in.types[id].Kind != KindEnum {
			continue
		}
		info := in.enumInfo(id)
		if info == nil || info.Name != name {
			continue
		}
		if len(info.TypeArgs) > 0 && slices.Equal(info.TypeArgs, args) {
			return id, true
		}
	}
	return NoTypeID, false
}

// FindEnumDecl returns the nominal declaration slot for an enum name
// (the entry registered without concrete type arguments).
func (in *Interner) FindEnumDecl(name source.StringID) (TypeID, bool) {
	if in == nil || name == source.NoStringID {
		return NoTypeID, false
	}
	for id := TypeID(1); int(id) < len(in.types); id++ {
		if in.types[id].Kind != KindEnum {
			continue
		}
		info := in.enumInfo(id)
		if info == nil || info.Name != name {
			continue
		}
		if len(info.TypeArgs) == 0 {
			return id, true
		}
	}
	return NoTypeID, false
}

func (in *Interner) enumInfo(typeID TypeID) *EnumInfo {
	if typeID == NoTypeID {
		return nil
	}
	tt, ok := in.Lookup(typeID)
	if !ok || tt.Kind != KindEnum {
		return nil
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.enums) {
		return nil
	}
	return &in.enums[tt.Payload]
}

func (in *Interner) appendEnumInfo(info EnumInfo) uint32 {
	if in.enums == nil {
		in.enums = append(in.enums, EnumInfo{}) // reserve 0 as invalid sentinel
	}
	in.enums = append(in.enums, EnumInfo{
		Name:       info.Name,
		Decl:       info.Decl,
		Variants:   cloneEnumVariants(info.Variants),
		TypeParams: cloneTypeArgs(info.TypeParams),
		TypeArgs:   cloneTypeArgs(info.TypeArgs),
	})
	slot, err := safecast.Conv[uint32](len(in.enums) - 1)
	if err != nil {
		panic(fmt.Errorf("enum info overflow: %w", err))
	}
	return slot
}

func cloneEnumVariants(variants []EnumVariantInfo) []EnumVariantInfo {
	if len(variants) == 0 {
		return nil
	}
	result := make([]EnumVariantInfo, len(variants))
	copy(result, variants)
	return result
}

func cloneTypeArgs(args []TypeID) []TypeID {
	if len(args) == 0 {
		return nil
	}
	result := make([]TypeID, len(args))
	copy(result, args)
	return result
}
