package driver

import (
	"zen/internal/ast"
	"zen/internal/mono"
	"zen/internal/source"
	"zen/internal/types"
)

// SampleInputs builds two small self-contained units. They back the
// `zenc demo` command and the driver tests: no frontend exists in this
// repository, so typed trees are constructed here the same way an
// embedding frontend would hand them over.
func SampleInputs() []UnitInput {
	return []UnitInput{sampleAlpha(), sampleBeta()}
}

// sampleAlpha: nested options unwrapped by two stacked matches.
//
//	fn main() -> i32 {
//	    let x = Some(Some(42));
//	    match x { Some(inner) -> match inner { Some(v) -> v, None -> 0 }, None -> 0 }
//	}
func sampleAlpha() UnitInput {
	strs := source.NewInterner()
	typesIn := types.NewInterner(strs)
	wk := ast.DeclareWellKnown(typesIn)
	b := typesIn.Builtins()

	optI32 := mustInstance(typesIn, wk.Option, b.I32)

	x := strs.Intern("x")
	inner := strs.Intern("inner")
	v := strs.Intern("v")
	some := strs.Intern("Some")
	optName := strs.Intern("Option")

	construct := func(payload ast.Expr, args ...types.TypeID) ast.Expr {
		return &ast.ConstructExpr{Enum: optName, Variant: some, Payload: payload, TypeArgs: args}
	}
	bindArm := func(bind source.StringID, body ast.Expr) ast.MatchArm {
		return ast.MatchArm{
			Pat:  &ast.VariantPat{Variant: some, HasPayload: true, Payload: &ast.BindPat{Name: bind}},
			Body: body,
		}
	}
	zeroArm := ast.MatchArm{Pat: &ast.WildcardPat{}, Body: &ast.IntLit{Value: 0, Ty: b.I32}}

	innerMatch := &ast.MatchExpr{
		Scrutinee: &ast.VarRef{Name: inner},
		Arms:      []ast.MatchArm{bindArm(v, &ast.VarRef{Name: v}), zeroArm},
		Ty:        b.I32,
	}
	body := &ast.Block{
		Stmts: []ast.Stmt{
			&ast.LetStmt{
				Name:  x,
				Value: construct(construct(&ast.IntLit{Value: 42, Ty: b.I32}, b.I32), optI32),
			},
		},
		Result: &ast.MatchExpr{
			Scrutinee: &ast.VarRef{Name: x},
			Arms:      []ast.MatchArm{bindArm(inner, innerMatch), zeroArm},
			Ty:        b.I32,
		},
	}

	unit := &ast.Unit{
		Name: "alpha",
		Funcs: []*ast.FuncDecl{{
			Name:   strs.Intern("main"),
			Result: b.I32,
			Body:   body,
		}},
	}
	return UnitInput{Strings: strs, Types: typesIn, WK: wk, Unit: unit}
}

// sampleBeta: a generic identity plus a Result chain. It shares the
// Option[i32] key with alpha so the merge step has an overlap to
// deduplicate.
//
//	fn id<T>(t: T) -> T { t }
//	fn fallback() -> i32 {
//	    let r = Ok(7);
//	    let o = id(Some(1));
//	    match r { Ok(v) -> v, Err(_) -> 0 }
//	}
func sampleBeta() UnitInput {
	strs := source.NewInterner()
	typesIn := types.NewInterner(strs)
	wk := ast.DeclareWellKnown(typesIn)
	b := typesIn.Builtins()

	optI32 := mustInstance(typesIn, wk.Option, b.I32)

	r := strs.Intern("r")
	o := strs.Intern("o")
	v := strs.Intern("v")
	tName := strs.Intern("t")

	idName := strs.Intern("id")
	tParam := typesIn.RegisterTypeParam(strs.Intern("T"), idName, 0)
	id := &ast.FuncDecl{
		Name:       idName,
		TypeParams: []types.TypeID{tParam},
		Params:     []ast.Param{{Name: tName, Type: tParam}},
		Result:     tParam,
		Body:       &ast.Block{Result: &ast.VarRef{Name: tName}},
	}

	body := &ast.Block{
		Stmts: []ast.Stmt{
			&ast.LetStmt{
				Name: r,
				Value: &ast.ConstructExpr{
					Enum:     strs.Intern("Result"),
					Variant:  strs.Intern("Ok"),
					Payload:  &ast.IntLit{Value: 7, Ty: b.I32},
					TypeArgs: []types.TypeID{b.I32, b.String},
				},
			},
			&ast.LetStmt{
				Name: o,
				Value: &ast.CallExpr{
					Callee:   idName,
					TypeArgs: []types.TypeID{optI32},
					Args: []ast.Expr{&ast.ConstructExpr{
						Enum:     strs.Intern("Option"),
						Variant:  strs.Intern("Some"),
						Payload:  &ast.IntLit{Value: 1, Ty: b.I32},
						TypeArgs: []types.TypeID{b.I32},
					}},
					Ty: optI32,
				},
			},
		},
		Result: &ast.MatchExpr{
			Scrutinee: &ast.VarRef{Name: r},
			Arms: []ast.MatchArm{
				{
					Pat: &ast.VariantPat{
						Variant:    strs.Intern("Ok"),
						HasPayload: true,
						Payload:    &ast.BindPat{Name: v},
					},
					Body: &ast.VarRef{Name: v},
				},
				{Pat: &ast.WildcardPat{}, Body: &ast.IntLit{Value: 0, Ty: b.I32}},
			},
			Ty: b.I32,
		},
	}

	unit := &ast.Unit{
		Name: "beta",
		Funcs: []*ast.FuncDecl{
			id,
			{
				Name:   strs.Intern("fallback"),
				Result: b.I32,
				Body:   body,
			},
		},
	}
	return UnitInput{Strings: strs, Types: typesIn, WK: wk, Unit: unit}
}

func mustInstance(typesIn *types.Interner, decl *ast.EnumDecl, args ...types.TypeID) types.TypeID {
	reg := mono.NewRegistry(typesIn)
	inst, err := reg.InstantiateEnum(decl, args, mono.UseSite{})
	if err != nil {
		panic(err)
	}
	return inst.Type
}
