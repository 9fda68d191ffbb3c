package mono

import (
	"errors"
	"testing"

	"zen/internal/ast"
	"zen/internal/source"
	"zen/internal/types"
)

type regEnv struct {
	strs  *source.Interner
	types *types.Interner
	wk    ast.WellKnown
	reg   *Registry
}

func newRegEnv() *regEnv {
	strs := source.NewInterner()
	typesIn := types.NewInterner(strs)
	return &regEnv{
		strs:  strs,
		types: typesIn,
		wk:    ast.DeclareWellKnown(typesIn),
		reg:   NewRegistry(typesIn),
	}
}

func TestInstantiateEnumIdempotent(t *testing.T) {
	env := newRegEnv()
	b := env.types.Builtins()
	site := UseSite{Fn: env.strs.Intern("main")}

	first, err := env.reg.InstantiateEnum(env.wk.Result, []types.TypeID{b.F64, b.String}, site)
	if err != nil {
		t.Fatalf("first instantiation failed: %v", err)
	}
	second, err := env.reg.InstantiateEnum(env.wk.Result, []types.TypeID{b.F64, b.String}, site)
	if err != nil {
		t.Fatalf("second instantiation failed: %v", err)
	}
	if first != second {
		t.Fatal("identical args must converge on one instantiation")
	}
	if first.Key != second.Key {
		t.Fatalf("keys differ: %+v vs %+v", first.Key, second.Key)
	}
	if env.reg.Len() != 1 {
		t.Fatalf("registry has %d entries, want 1", env.reg.Len())
	}
	if len(first.UseSites) != 2 {
		t.Fatalf("use sites = %d, want 2", len(first.UseSites))
	}
	if first.KeyString != "Result[f64,string]" {
		t.Fatalf("KeyString = %q", first.KeyString)
	}
}

func TestInstantiateEnumOrderIndependent(t *testing.T) {
	b := func(env *regEnv) types.Builtins { return env.types.Builtins() }

	envA := newRegEnv()
	optA, _ := envA.reg.InstantiateEnum(envA.wk.Option, []types.TypeID{b(envA).I32}, UseSite{})
	resA, _ := envA.reg.InstantiateEnum(envA.wk.Result, []types.TypeID{b(envA).I32, b(envA).String}, UseSite{})

	envB := newRegEnv()
	resB, _ := envB.reg.InstantiateEnum(envB.wk.Result, []types.TypeID{b(envB).I32, b(envB).String}, UseSite{})
	optB, _ := envB.reg.InstantiateEnum(envB.wk.Option, []types.TypeID{b(envB).I32}, UseSite{})

	if optA.KeyString != optB.KeyString || resA.KeyString != resB.KeyString {
		t.Fatalf("keys depend on call order: %q/%q vs %q/%q",
			optA.KeyString, resA.KeyString, optB.KeyString, resB.KeyString)
	}
}

func TestInstantiateNestedKeyFormat(t *testing.T) {
	env := newRegEnv()
	b := env.types.Builtins()

	inner, err := env.reg.InstantiateEnum(env.wk.Result, []types.TypeID{b.I32, b.String}, UseSite{})
	if err != nil {
		t.Fatalf("inner instantiation failed: %v", err)
	}
	outer, err := env.reg.InstantiateEnum(env.wk.Result, []types.TypeID{inner.Type, b.String}, UseSite{})
	if err != nil {
		t.Fatalf("outer instantiation failed: %v", err)
	}
	if outer.KeyString != "Result[Result[i32,string],string]" {
		t.Fatalf("KeyString = %q", outer.KeyString)
	}

	// Вложенные варианты подставлены конкретно.
	info, ok := env.types.EnumInfo(outer.Type)
	if !ok || len(info.Variants) != 2 {
		t.Fatalf("missing instance variants: %+v", info)
	}
	if info.Variants[0].Payload != inner.Type {
		t.Fatalf("Ok payload = %s, want inner instance",
			types.Label(env.types, info.Variants[0].Payload))
	}
}

func TestInstantiateUnresolvedParamIsFatal(t *testing.T) {
	env := newRegEnv()
	openParam := env.wk.Option.TypeParams[0]

	_, err := env.reg.InstantiateEnum(env.wk.Option, []types.TypeID{openParam}, UseSite{})
	if err == nil {
		t.Fatal("open type parameter must be a hard error")
	}
	var unresolved *UnresolvedParamError
	if !errors.As(err, &unresolved) {
		t.Fatalf("error = %T, want *UnresolvedParamError", err)
	}
	d := unresolved.Diagnostic(env.types)
	if d.Code != 4002 {
		t.Fatalf("diagnostic code = %v", d.Code)
	}
}

func TestInstantiateArgCount(t *testing.T) {
	env := newRegEnv()
	b := env.types.Builtins()
	_, err := env.reg.InstantiateEnum(env.wk.Result, []types.TypeID{b.I32}, UseSite{})
	if err == nil {
		t.Fatal("Result with one argument must fail")
	}
}

func TestInstantiateFnSpecializesSignature(t *testing.T) {
	env := newRegEnv()
	b := env.types.Builtins()

	name := env.strs.Intern("id")
	tparam := env.types.RegisterTypeParam(env.strs.Intern("T"), name, 0)
	decl := &ast.FuncDecl{
		Name:       name,
		TypeParams: []types.TypeID{tparam},
		Params:     []ast.Param{{Name: env.strs.Intern("x"), Type: tparam}},
		Result:     tparam,
		Body: &ast.Block{
			Result: &ast.VarRef{Name: env.strs.Intern("x"), Ty: tparam},
		},
	}

	inst, err := env.reg.InstantiateFn(decl, []types.TypeID{b.I32}, UseSite{})
	if err != nil {
		t.Fatalf("InstantiateFn failed: %v", err)
	}
	if inst.Fn.Result != b.I32 || inst.Fn.Params[0].Type != b.I32 {
		t.Fatalf("signature not specialized: result=%s param=%s",
			types.Label(env.types, inst.Fn.Result),
			types.Label(env.types, inst.Fn.Params[0].Type))
	}
	if inst.KeyString != "id[i32]" {
		t.Fatalf("KeyString = %q", inst.KeyString)
	}
	if got := inst.Subst.Type(tparam); got != b.I32 {
		t.Fatalf("body substitution maps T to %s", types.Label(env.types, got))
	}
}

func TestParseKeyRoundTrip(t *testing.T) {
	env := newRegEnv()
	b := env.types.Builtins()

	inner, _ := env.reg.InstantiateEnum(env.wk.Result, []types.TypeID{b.I32, b.String}, UseSite{})
	outer, _ := env.reg.InstantiateEnum(env.wk.Result, []types.TypeID{inner.Type, b.String}, UseSite{})

	name, args, err := ParseKey(env.types, outer.KeyString)
	if err != nil {
		t.Fatalf("ParseKey(%q) failed: %v", outer.KeyString, err)
	}
	if got := KeyString(env.types, name, args); got != outer.KeyString {
		t.Fatalf("round trip: %q -> %q", outer.KeyString, got)
	}

	if _, _, err := ParseKey(env.types, "Nope[i32]"); err == nil {
		t.Fatal("unknown declaration must fail to parse")
	}
	if _, _, err := ParseKey(env.types, "Result[i32"); err == nil {
		t.Fatal("unterminated key must fail to parse")
	}
}
