package lower

import (
	"strings"
	"testing"

	"zen/internal/ast"
	"zen/internal/diag"
	"zen/internal/layout"
	"zen/internal/mono"
	"zen/internal/source"
	"zen/internal/types"
)

type lowerEnv struct {
	strs   *source.Interner
	types  *types.Interner
	wk     ast.WellKnown
	reg    *mono.Registry
	engine *layout.Engine
	bag    *diag.Bag
}

func newLowerEnv() *lowerEnv {
	strs := source.NewInterner()
	typesIn := types.NewInterner(strs)
	return &lowerEnv{
		strs:   strs,
		types:  typesIn,
		wk:     ast.DeclareWellKnown(typesIn),
		reg:    mono.NewRegistry(typesIn),
		engine: layout.New(layout.X86_64LinuxGNU(), typesIn),
		bag:    diag.NewBag(64),
	}
}

func (e *lowerEnv) lowerUnit(unit *ast.Unit) *Module {
	idx := ast.NewIndex(unit, e.wk)
	l := NewLowerer(e.types, e.reg, e.engine, idx, e.bag)
	return l.LowerUnit(unit)
}

func (e *lowerEnv) requireClean(t *testing.T) {
	t.Helper()
	if e.bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", e.bag.Items())
	}
	if e.bag.Len() != 0 {
		t.Fatalf("unexpected non-error diagnostics: %+v", e.bag.Items())
	}
}

func (e *lowerEnv) requireCode(t *testing.T, code diag.Code) diag.Diagnostic {
	t.Helper()
	for _, d := range e.bag.Items() {
		if d.Code == code {
			return d
		}
	}
	t.Fatalf("missing diagnostic %s, got %+v", code, e.bag.Items())
	return diag.Diagnostic{}
}

// Shorthand constructors for hand-built trees.

func (e *lowerEnv) intLit(v int64) *ast.IntLit {
	return &ast.IntLit{Value: v, Ty: e.types.Builtins().I32}
}

func (e *lowerEnv) some(payload ast.Expr, args ...types.TypeID) *ast.ConstructExpr {
	return &ast.ConstructExpr{
		Enum:     e.strs.Intern("Option"),
		Variant:  e.strs.Intern("Some"),
		Payload:  payload,
		TypeArgs: args,
	}
}

func (e *lowerEnv) none(args ...types.TypeID) *ast.ConstructExpr {
	return &ast.ConstructExpr{
		Enum:     e.strs.Intern("Option"),
		Variant:  e.strs.Intern("None"),
		TypeArgs: args,
	}
}

func (e *lowerEnv) variantArm(variant string, bind string, body ast.Expr) ast.MatchArm {
	pat := &ast.VariantPat{Variant: e.strs.Intern(variant)}
	if bind != "" {
		pat.HasPayload = true
		pat.Payload = &ast.BindPat{Name: e.strs.Intern(bind)}
	}
	return ast.MatchArm{Pat: pat, Body: body}
}

func (e *lowerEnv) mainFn(body *ast.Block) *ast.FuncDecl {
	return &ast.FuncDecl{
		Name:   e.strs.Intern("main"),
		Result: e.types.Builtins().I32,
		Body:   body,
	}
}

func (e *lowerEnv) unit(funcs ...*ast.FuncDecl) *ast.Unit {
	return &ast.Unit{Name: "demo", Funcs: funcs}
}

func findFunc(t *testing.T, m *Module, name string) *Func {
	t.Helper()
	f, ok := m.FindFunc(name)
	if !ok {
		t.Fatalf("lowered module has no function %q", name)
	}
	return f
}

func TestMatchUnwrapsOption(t *testing.T) {
	env := newLowerEnv()
	b := env.types.Builtins()
	x := env.strs.Intern("x")
	v := env.strs.Intern("v")

	// let x = Some(42); match x { Some(v) -> v, None -> 0 }
	body := &ast.Block{
		Stmts: []ast.Stmt{
			&ast.LetStmt{Name: x, Value: env.some(env.intLit(42), b.I32)},
		},
		Result: &ast.MatchExpr{
			Scrutinee: &ast.VarRef{Name: x},
			Arms: []ast.MatchArm{
				env.variantArm("Some", "v", &ast.VarRef{Name: v}),
				env.variantArm("None", "", env.intLit(0)),
			},
			Ty: b.I32,
		},
	}

	m := env.lowerUnit(env.unit(env.mainFn(body)))
	env.requireClean(t)

	if len(m.Layouts) != 1 || m.Layouts[0].Key != "Option[i32]" {
		t.Fatalf("defined layouts = %+v, want exactly Option[i32]", m.Layouts)
	}

	fn := findFunc(t, m, "main")
	var dispatch *Terminator
	for i := range fn.Blocks {
		if fn.Blocks[i].Term.Kind == TermBranchDisc {
			dispatch = &fn.Blocks[i].Term
		}
	}
	if dispatch == nil {
		t.Fatal("match produced no discriminant dispatch")
	}
	if len(dispatch.Cases) != 2 || dispatch.Default != NoBlock {
		t.Fatalf("dispatch = %+v, want 2 cases and no default", dispatch)
	}
	if dispatch.Cases[0].Disc != 0 || dispatch.Cases[1].Disc != 1 {
		t.Fatalf("case discriminants = %+v, want declaration order 0,1", dispatch.Cases)
	}

	dump := Sdump(env.types, m)
	if !strings.Contains(dump, "construct Option[i32] variant=0") {
		t.Fatalf("dump missing Some construction:\n%s", dump)
	}
}

func TestNestedMatchResolvesInnerArguments(t *testing.T) {
	env := newLowerEnv()
	b := env.types.Builtins()
	x := env.strs.Intern("x")
	inner := env.strs.Intern("inner")
	v := env.strs.Intern("v")

	optI32, err := env.reg.InstantiateEnum(env.wk.Option, []types.TypeID{b.I32}, mono.UseSite{})
	if err != nil {
		t.Fatalf("instantiate Option<i32>: %v", err)
	}

	// let x = Some(Some(42)); two stacked matches unwrap both levels.
	innerMatch := &ast.MatchExpr{
		Scrutinee: &ast.VarRef{Name: inner},
		Arms: []ast.MatchArm{
			env.variantArm("Some", "v", &ast.VarRef{Name: v}),
			env.variantArm("None", "", env.intLit(0)),
		},
		Ty: b.I32,
	}
	body := &ast.Block{
		Stmts: []ast.Stmt{
			&ast.LetStmt{
				Name:  x,
				Value: env.some(env.some(env.intLit(42), b.I32), optI32.Type),
			},
		},
		Result: &ast.MatchExpr{
			Scrutinee: &ast.VarRef{Name: x},
			Arms: []ast.MatchArm{
				env.variantArm("Some", "inner", innerMatch),
				env.variantArm("None", "", env.intLit(0)),
			},
			Ty: b.I32,
		},
	}

	m := env.lowerUnit(env.unit(env.mainFn(body)))
	env.requireClean(t)

	keys := make(map[string]bool, len(m.Layouts))
	for _, lay := range m.Layouts {
		keys[lay.Key] = true
	}
	if !keys["Option[i32]"] || !keys["Option[Option[i32]]"] {
		t.Fatalf("defined layouts = %v, want both nesting levels", keys)
	}

	// The inner payload load must carry the fully resolved concrete
	// type, not a parameter.
	fn := findFunc(t, m, "main")
	loads := 0
	for i := range fn.Blocks {
		for _, in := range fn.Blocks[i].Instrs {
			if in.Kind == InstrLoadPayload && in.Type == b.I32 {
				loads++
			}
		}
	}
	if loads == 0 {
		t.Fatal("no payload load resolved down to i32")
	}
}

func TestMatchNonExhaustive(t *testing.T) {
	env := newLowerEnv()
	b := env.types.Builtins()
	x := env.strs.Intern("x")
	v := env.strs.Intern("v")

	body := &ast.Block{
		Stmts: []ast.Stmt{
			&ast.LetStmt{Name: x, Value: env.some(env.intLit(1), b.I32)},
		},
		Result: &ast.MatchExpr{
			Scrutinee: &ast.VarRef{Name: x},
			Arms: []ast.MatchArm{
				env.variantArm("Some", "v", &ast.VarRef{Name: v}),
			},
			Ty: b.I32,
		},
	}
	env.lowerUnit(env.unit(env.mainFn(body)))

	d := env.requireCode(t, diag.MatchNonExhaustive)
	if !strings.Contains(d.Message, "None") {
		t.Fatalf("diagnostic does not name the missing variant: %q", d.Message)
	}
}

func TestMatchCatchAllIsExhaustive(t *testing.T) {
	env := newLowerEnv()
	b := env.types.Builtins()
	x := env.strs.Intern("x")
	v := env.strs.Intern("v")

	body := &ast.Block{
		Stmts: []ast.Stmt{
			&ast.LetStmt{Name: x, Value: env.some(env.intLit(1), b.I32)},
		},
		Result: &ast.MatchExpr{
			Scrutinee: &ast.VarRef{Name: x},
			Arms: []ast.MatchArm{
				env.variantArm("Some", "v", &ast.VarRef{Name: v}),
				{Pat: &ast.WildcardPat{}, Body: env.intLit(0)},
			},
			Ty: b.I32,
		},
	}
	m := env.lowerUnit(env.unit(env.mainFn(body)))
	env.requireClean(t)

	fn := findFunc(t, m, "main")
	for i := range fn.Blocks {
		term := fn.Blocks[i].Term
		if term.Kind == TermBranchDisc && term.Default == NoBlock {
			t.Fatal("wildcard arm must become the dispatch default")
		}
	}
}

func TestMatchUnknownVariant(t *testing.T) {
	env := newLowerEnv()
	b := env.types.Builtins()
	x := env.strs.Intern("x")

	body := &ast.Block{
		Stmts: []ast.Stmt{
			&ast.LetStmt{Name: x, Value: env.some(env.intLit(1), b.I32)},
		},
		Result: &ast.MatchExpr{
			Scrutinee: &ast.VarRef{Name: x},
			Arms: []ast.MatchArm{
				env.variantArm("Sum", "v", env.intLit(1)),
				{Pat: &ast.WildcardPat{}, Body: env.intLit(0)},
			},
			Ty: b.I32,
		},
	}
	env.lowerUnit(env.unit(env.mainFn(body)))
	env.requireCode(t, diag.MatchUnknownVariant)
}

func TestMatchArityMismatch(t *testing.T) {
	env := newLowerEnv()
	b := env.types.Builtins()
	x := env.strs.Intern("x")

	// Some without binding its payload, None destructuring one.
	noneWithPayload := &ast.VariantPat{
		Variant:    env.strs.Intern("None"),
		HasPayload: true,
		Payload:    &ast.BindPat{Name: env.strs.Intern("v")},
	}
	body := &ast.Block{
		Stmts: []ast.Stmt{
			&ast.LetStmt{Name: x, Value: env.some(env.intLit(1), b.I32)},
		},
		Result: &ast.MatchExpr{
			Scrutinee: &ast.VarRef{Name: x},
			Arms: []ast.MatchArm{
				env.variantArm("Some", "", env.intLit(1)),
				{Pat: noneWithPayload, Body: env.intLit(0)},
			},
			Ty: b.I32,
		},
	}
	env.lowerUnit(env.unit(env.mainFn(body)))

	mismatches := 0
	for _, d := range env.bag.Items() {
		if d.Code == diag.MatchArityMismatch {
			mismatches++
		}
	}
	if mismatches != 2 {
		t.Fatalf("arity mismatches = %d, want one per malformed arm: %+v", mismatches, env.bag.Items())
	}
}

func TestMatchArmTypeMismatch(t *testing.T) {
	env := newLowerEnv()
	b := env.types.Builtins()
	x := env.strs.Intern("x")

	body := &ast.Block{
		Stmts: []ast.Stmt{
			&ast.LetStmt{Name: x, Value: env.some(env.intLit(1), b.I32)},
		},
		Result: &ast.MatchExpr{
			Scrutinee: &ast.VarRef{Name: x},
			Arms: []ast.MatchArm{
				env.variantArm("Some", "v", &ast.StringLit{Value: "nope", Ty: b.String}),
				env.variantArm("None", "", env.intLit(0)),
			},
			Ty: b.I32,
		},
	}
	env.lowerUnit(env.unit(env.mainFn(body)))
	env.requireCode(t, diag.MatchArmTypeMismatch)
}

func TestMatchNotAnEnum(t *testing.T) {
	env := newLowerEnv()
	b := env.types.Builtins()

	body := &ast.Block{
		Result: &ast.MatchExpr{
			Scrutinee: env.intLit(7),
			Arms: []ast.MatchArm{
				{Pat: &ast.WildcardPat{}, Body: env.intLit(0)},
			},
			Ty: b.I32,
		},
	}
	env.lowerUnit(env.unit(env.mainFn(body)))
	env.requireCode(t, diag.MatchNotAnEnum)
}

func TestGenericFunctionSpecialized(t *testing.T) {
	env := newLowerEnv()
	b := env.types.Builtins()

	// fn id<T>(x: T) -> T { x }
	idName := env.strs.Intern("id")
	tParam := env.types.RegisterTypeParam(env.strs.Intern("T"), idName, 0)
	xName := env.strs.Intern("x")
	id := &ast.FuncDecl{
		Name:       idName,
		TypeParams: []types.TypeID{tParam},
		Params:     []ast.Param{{Name: xName, Type: tParam}},
		Result:     tParam,
		Body:       &ast.Block{Result: &ast.VarRef{Name: xName}},
	}
	main := env.mainFn(&ast.Block{
		Result: &ast.CallExpr{
			Callee:   idName,
			TypeArgs: []types.TypeID{b.I32},
			Args:     []ast.Expr{env.intLit(42)},
		},
	})

	m := env.lowerUnit(env.unit(id, main))
	env.requireClean(t)

	spec := findFunc(t, m, "id[i32]")
	if spec.Result != b.I32 {
		t.Fatalf("specialized result = %s, want i32", types.Label(env.types, spec.Result))
	}
	fn := findFunc(t, m, "main")
	found := false
	for i := range fn.Blocks {
		for _, in := range fn.Blocks[i].Instrs {
			if in.Kind == InstrCall && in.Callee == "id[i32]" {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("main does not call the specialized function by key")
	}
}

func TestParameterScrutineeUsesDeclaredInstance(t *testing.T) {
	env := newLowerEnv()
	b := env.types.Builtins()
	v := env.strs.Intern("v")

	optI32, err := env.reg.InstantiateEnum(env.wk.Option, []types.TypeID{b.I32}, mono.UseSite{})
	if err != nil {
		t.Fatalf("instantiate Option<i32>: %v", err)
	}

	// fn unwrap(o: Option<i32>) -> i32: the parameter was never
	// constructed locally, so its declared instance decides the
	// concrete payload type.
	oName := env.strs.Intern("o")
	unwrap := &ast.FuncDecl{
		Name:   env.strs.Intern("unwrap"),
		Params: []ast.Param{{Name: oName, Type: optI32.Type}},
		Result: b.I32,
		Body: &ast.Block{
			Result: &ast.MatchExpr{
				Scrutinee: &ast.VarRef{Name: oName},
				Arms: []ast.MatchArm{
					env.variantArm("Some", "v", &ast.VarRef{Name: v}),
					env.variantArm("None", "", env.intLit(0)),
				},
				Ty: b.I32,
			},
		},
	}

	m := env.lowerUnit(env.unit(unwrap))
	env.requireClean(t)

	fn := findFunc(t, m, "unwrap")
	for i := range fn.Blocks {
		for _, in := range fn.Blocks[i].Instrs {
			if in.Kind == InstrLoadPayload && in.Type != b.I32 {
				t.Fatalf("payload load typed %s, want i32", types.Label(env.types, in.Type))
			}
		}
	}
}

func TestArmsCoerceToDeclaredResult(t *testing.T) {
	env := newLowerEnv()
	b := env.types.Builtins()
	x := env.strs.Intern("x")
	v := env.strs.Intern("v")

	// Some arm yields i32, None arm yields i64; both converge on i64.
	body := &ast.Block{
		Stmts: []ast.Stmt{
			&ast.LetStmt{Name: x, Value: env.some(env.intLit(1), b.I32)},
		},
		Result: &ast.MatchExpr{
			Scrutinee: &ast.VarRef{Name: x},
			Arms: []ast.MatchArm{
				env.variantArm("Some", "v", &ast.VarRef{Name: v}),
				env.variantArm("None", "", &ast.IntLit{Value: 0, Ty: b.I64}),
			},
			Ty: b.I64,
		},
	}
	main := &ast.FuncDecl{
		Name:   env.strs.Intern("main"),
		Result: b.I64,
		Body:   body,
	}
	m := env.lowerUnit(env.unit(main))
	env.requireClean(t)

	fn := findFunc(t, m, "main")
	coerced := false
	for i := range fn.Blocks {
		for _, in := range fn.Blocks[i].Instrs {
			if in.Kind == InstrCoerce && in.Type == b.I64 {
				coerced = true
			}
		}
	}
	if !coerced {
		t.Fatal("narrow arm was not widened to the declared result type")
	}
}
