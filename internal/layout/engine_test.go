package layout

import (
	"testing"

	"zen/internal/ast"
	"zen/internal/mono"
	"zen/internal/source"
	"zen/internal/types"
)

type layoutEnv struct {
	strs   *source.Interner
	types  *types.Interner
	wk     ast.WellKnown
	reg    *mono.Registry
	engine *Engine
}

func newLayoutEnv() *layoutEnv {
	strs := source.NewInterner()
	typesIn := types.NewInterner(strs)
	return &layoutEnv{
		strs:   strs,
		types:  typesIn,
		wk:     ast.DeclareWellKnown(typesIn),
		reg:    mono.NewRegistry(typesIn),
		engine: New(X86_64LinuxGNU(), typesIn),
	}
}

func (e *layoutEnv) instantiate(t *testing.T, decl *ast.EnumDecl, args ...types.TypeID) *mono.Instantiation {
	t.Helper()
	inst, err := e.reg.InstantiateEnum(decl, args, mono.UseSite{})
	if err != nil {
		t.Fatalf("instantiate failed: %v", err)
	}
	return inst
}

func TestLayoutMemoized(t *testing.T) {
	env := newLayoutEnv()
	b := env.types.Builtins()
	inst := env.instantiate(t, env.wk.Option, b.I32)

	first, err := env.engine.LayoutFor(inst.Type)
	if err != nil {
		t.Fatalf("LayoutFor failed: %v", err)
	}
	second, err := env.engine.LayoutFor(inst.Type)
	if err != nil {
		t.Fatalf("second LayoutFor failed: %v", err)
	}
	if first != second {
		t.Fatal("layout must be created once and referenced, not copied")
	}
}

func TestLayoutUniformShape(t *testing.T) {
	env := newLayoutEnv()
	b := env.types.Builtins()
	target := X86_64LinuxGNU()

	// Option<i32> (inline payload) and Option<Result<i32,string>>
	// (heap payload) share the exact same shape.
	small := env.instantiate(t, env.wk.Option, b.I32)
	inner := env.instantiate(t, env.wk.Result, b.I32, b.String)
	big := env.instantiate(t, env.wk.Option, inner.Type)

	smallL, err := env.engine.LayoutFor(small.Type)
	if err != nil {
		t.Fatalf("LayoutFor(Option<i32>) failed: %v", err)
	}
	bigL, err := env.engine.LayoutFor(big.Type)
	if err != nil {
		t.Fatalf("LayoutFor(Option<Result>) failed: %v", err)
	}

	if smallL.Size != bigL.Size || smallL.PayloadOffset != bigL.PayloadOffset {
		t.Fatalf("layout width depends on payload type: %+v vs %+v", smallL, bigL)
	}
	if smallL.PayloadSize != target.PtrSize {
		t.Fatalf("payload slot = %d bytes, want pointer width %d", smallL.PayloadSize, target.PtrSize)
	}

	// Storage mode differs per concrete type while each instance stays
	// internally consistent.
	someSmall, _ := smallL.Variant(0)
	if someSmall.Storage != StorageInline {
		t.Fatalf("Option<i32>.Some storage = %v, want inline", someSmall.Storage)
	}
	someBig, _ := bigL.Variant(0)
	if someBig.Storage != StorageHeap {
		t.Fatalf("Option<Result>.Some storage = %v, want heap", someBig.Storage)
	}
}

func TestDiscriminantsFollowDeclarationOrder(t *testing.T) {
	env := newLayoutEnv()
	b := env.types.Builtins()
	inst := env.instantiate(t, env.wk.Result, b.I32, b.String)

	l, err := env.engine.LayoutFor(inst.Type)
	if err != nil {
		t.Fatalf("LayoutFor failed: %v", err)
	}
	for i, v := range l.Variants {
		if v.Discriminant != uint32(i) {
			t.Fatalf("variant %d has discriminant %d", i, v.Discriminant)
		}
	}
	ok, found := l.VariantByName(env.strs.Intern("Ok"))
	if !found || ok.Discriminant != 0 {
		t.Fatalf("Ok discriminant = %+v", ok)
	}
	errV, found := l.VariantByName(env.strs.Intern("Err"))
	if !found || errV.Discriminant != 1 {
		t.Fatalf("Err discriminant = %+v", errV)
	}
}

func TestStorageModeConsistency(t *testing.T) {
	env := newLayoutEnv()
	b := env.types.Builtins()

	cases := []struct {
		ty   types.TypeID
		want StorageMode
	}{
		{b.Bool, StorageInline},
		{b.I32, StorageInline},
		{b.I64, StorageInline},
		{b.F64, StorageInline},
		{b.String, StorageHeap},
	}
	for _, tc := range cases {
		for i := 0; i < 3; i++ {
			if got := env.engine.PayloadStorageMode(tc.ty); got != tc.want {
				t.Fatalf("storage mode for %s = %v, want %v (must be stable across queries)",
					types.Label(env.types, tc.ty), got, tc.want)
			}
		}
	}

	// Nested tagged union is never inline, even though it is
	// pointer-representable.
	inst := env.instantiate(t, env.wk.Option, b.I32)
	if got := env.engine.PayloadStorageMode(inst.Type); got != StorageHeap {
		t.Fatalf("nested tagged union storage = %v, want heap", got)
	}
}

func TestNullaryVariantSentinel(t *testing.T) {
	env := newLayoutEnv()
	b := env.types.Builtins()
	inst := env.instantiate(t, env.wk.Option, b.String)

	l, err := env.engine.LayoutFor(inst.Type)
	if err != nil {
		t.Fatalf("LayoutFor failed: %v", err)
	}
	none, found := l.VariantByName(env.strs.Intern("None"))
	if !found {
		t.Fatal("None variant missing from layout")
	}
	if none.HasPayload {
		t.Fatal("None must be nullary")
	}
	// Nullary variants occupy the shared slot with an inline zero, so
	// the layout never branches on variant identity for slot width.
	if none.Storage != StorageInline {
		t.Fatalf("nullary storage = %v, want inline sentinel", none.Storage)
	}
}

func TestLayoutErrors(t *testing.T) {
	env := newLayoutEnv()
	b := env.types.Builtins()

	if _, err := env.engine.LayoutFor(b.I32); err == nil {
		t.Fatal("layout of a primitive must fail")
	}

	// Layout of a declaration whose variants still mention open params.
	if _, err := env.engine.LayoutFor(env.wk.Option.Type); err == nil {
		t.Fatal("layout with open type parameters must fail")
	}
}
