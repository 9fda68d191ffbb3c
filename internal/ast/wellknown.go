package ast

import (
	"zen/internal/source"
	"zen/internal/types"
)

// WellKnown holds the builtin generic enums available to every unit.
type WellKnown struct {
	Option *EnumDecl
	Result *EnumDecl
}

// DeclareWellKnown registers Option<T> and Result<T, E> in the interner
// and returns their declarations. The frontend guarantees these exist in
// every unit's scope.
func DeclareWellKnown(typesIn *types.Interner) WellKnown {
	strs := typesIn.Strings

	optName := strs.Intern("Option")
	optType := typesIn.RegisterEnum(optName, source.Span{})
	optT := typesIn.RegisterTypeParam(strs.Intern("T"), optName, 0)
	typesIn.SetEnumTypeParams(optType, []types.TypeID{optT})
	optVariants := []types.EnumVariantInfo{
		{Name: strs.Intern("Some"), Payload: optT, HasPayload: true},
		{Name: strs.Intern("None")},
	}
	typesIn.SetEnumVariants(optType, optVariants)

	option := &EnumDecl{
		Name:       optName,
		Type:       optType,
		TypeParams: []types.TypeID{optT},
		Variants: []VariantDecl{
			{Name: strs.Intern("Some"), Payload: optT, HasPayload: true},
			{Name: strs.Intern("None")},
		},
	}

	resName := strs.Intern("Result")
	resType := typesIn.RegisterEnum(resName, source.Span{})
	resT := typesIn.RegisterTypeParam(strs.Intern("T"), resName, 0)
	resE := typesIn.RegisterTypeParam(strs.Intern("E"), resName, 1)
	typesIn.SetEnumTypeParams(resType, []types.TypeID{resT, resE})
	resVariants := []types.EnumVariantInfo{
		{Name: strs.Intern("Ok"), Payload: resT, HasPayload: true},
		{Name: strs.Intern("Err"), Payload: resE, HasPayload: true},
	}
	typesIn.SetEnumVariants(resType, resVariants)

	result := &EnumDecl{
		Name:       resName,
		Type:       resType,
		TypeParams: []types.TypeID{resT, resE},
		Variants: []VariantDecl{
			{Name: strs.Intern("Ok"), Payload: resT, HasPayload: true},
			{Name: strs.Intern("Err"), Payload: resE, HasPayload: true},
		},
	}

	return WellKnown{Option: option, Result: result}
}
