package types

import (
	"testing"

	"zen/internal/source"
)

func TestInternDedup(t *testing.T) {
	in := NewInterner(nil)
	a := in.Intern(MakeInt(Width32))
	b := in.Intern(MakeInt(Width32))
	if a != b {
		t.Fatalf("identical descriptors must intern to one ID: %d != %d", a, b)
	}
	if a != in.Builtins().I32 {
		t.Fatalf("i32 must resolve to the builtin slot")
	}
	if in.Intern(MakeInt(Width64)) == a {
		t.Fatal("i64 must not collide with i32")
	}
}

func TestEnumRegistration(t *testing.T) {
	strs := source.NewInterner()
	in := NewInterner(strs)
	b := in.Builtins()

	name := strs.Intern("Option")
	decl := in.RegisterEnum(name, source.Span{})
	tparam := in.RegisterTypeParam(strs.Intern("T"), name, 0)
	in.SetEnumTypeParams(decl, []TypeID{tparam})
	in.SetEnumVariants(decl, []EnumVariantInfo{
		{Name: strs.Intern("Some"), Payload: tparam, HasPayload: true},
		{Name: strs.Intern("None")},
	})

	info, ok := in.EnumInfo(decl)
	if !ok || len(info.Variants) != 2 {
		t.Fatalf("enum info missing variants: %+v", info)
	}
	if idx, ok := in.EnumVariantIndex(decl, strs.Intern("None")); !ok || idx != 1 {
		t.Fatalf("None discriminant = %d, want 1", idx)
	}

	inst := in.RegisterEnumInstance(name, source.Span{}, []TypeID{b.I32})
	in.SetEnumVariants(inst, []EnumVariantInfo{
		{Name: strs.Intern("Some"), Payload: b.I32, HasPayload: true},
		{Name: strs.Intern("None")},
	})
	found, ok := in.FindEnumInstance(name, []TypeID{b.I32})
	if !ok || found != inst {
		t.Fatalf("FindEnumInstance = %d, %v; want %d", found, ok, inst)
	}
	if _, ok := in.FindEnumInstance(name, []TypeID{b.I64}); ok {
		t.Fatal("FindEnumInstance must not match different args")
	}

	if got := Label(in, inst); got != "Option<i32>" {
		t.Fatalf("Label = %q, want Option<i32>", got)
	}
}

func TestContainsParams(t *testing.T) {
	strs := source.NewInterner()
	in := NewInterner(strs)
	b := in.Builtins()

	name := strs.Intern("Result")
	tparam := in.RegisterTypeParam(strs.Intern("T"), name, 0)

	if in.ContainsParams(b.I32) {
		t.Fatal("i32 has no params")
	}
	if !in.ContainsParams(tparam) {
		t.Fatal("param must report itself")
	}

	inst := in.RegisterEnumInstance(name, source.Span{}, []TypeID{tparam, b.String})
	if !in.ContainsParams(inst) {
		t.Fatal("instance with param arg must report params")
	}

	concrete := in.RegisterEnumInstance(name, source.Span{}, []TypeID{b.I32, b.String})
	if in.ContainsParams(concrete) {
		t.Fatal("fully concrete instance must not report params")
	}
}
