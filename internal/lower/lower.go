package lower

import (
	"errors"
	"fmt"

	"zen/internal/ast"
	"zen/internal/diag"
	"zen/internal/generics"
	"zen/internal/layout"
	"zen/internal/mono"
	"zen/internal/source"
	"zen/internal/types"
)

// Lowerer drives lowering of one compilation unit. It owns a generics
// tracker per function, feeds the instantiation registry, asks the
// layout engine for tagged-union shapes and collects diagnostics into
// the bag instead of stopping at the first error.
type Lowerer struct {
	Types    *types.Interner
	Registry *mono.Registry
	Layouts  *layout.Engine
	Decls    *ast.Index
	Bag      *diag.Bag

	// Tracker is rebuilt for every function body; it never outlives one
	// lowering pass.
	Tracker *generics.Tracker

	module  *Module
	defined map[types.TypeID]bool
	lowered map[string]bool
}

// NewLowerer wires a lowerer against shared per-unit state.
func NewLowerer(typesIn *types.Interner, reg *mono.Registry, engine *layout.Engine, decls *ast.Index, bag *diag.Bag) *Lowerer {
	return &Lowerer{
		Types:    typesIn,
		Registry: reg,
		Layouts:  engine,
		Decls:    decls,
		Bag:      bag,
	}
}

type localBinding struct {
	val ValueID
	ty  types.TypeID
}

// fnCtx carries the per-function lowering state.
type fnCtx struct {
	name   source.StringID // enclosing function, keys tracker sites
	subst  *mono.Subst     // nil outside generic specializations
	f      *Func
	cur    BlockID
	scopes []map[source.StringID]localBinding
}

// LowerUnit lowers every non-generic function in the unit, then every
// generic specialization the registry accumulated. Specializing a body
// may instantiate further generics, so the worklist runs to a fixpoint.
func (l *Lowerer) LowerUnit(unit *ast.Unit) *Module {
	l.module = &Module{Unit: unit.Name}
	l.defined = make(map[types.TypeID]bool, 8)
	l.lowered = make(map[string]bool, len(unit.Funcs))

	for _, fn := range unit.Funcs {
		if len(fn.TypeParams) > 0 {
			continue // lowered per specialization below
		}
		l.lowerFunc(fn, l.lookupName(fn.Name), nil)
	}

	// Registry order grows while we iterate: entries appended by body
	// lowering are picked up by the same loop.
	for i := 0; i < l.Registry.Len(); i++ {
		inst := l.Registry.Entries()[i]
		if inst.Kind != mono.InstFn || l.lowered[inst.KeyString] {
			continue
		}
		l.lowered[inst.KeyString] = true
		l.lowerFunc(inst.Fn, inst.KeyString, inst.Subst)
	}
	return l.module
}

// Module returns the lowered module built so far.
func (l *Lowerer) Module() *Module {
	return l.module
}

func (l *Lowerer) lowerFunc(decl *ast.FuncDecl, name string, subst *mono.Subst) {
	f := newFunc(name, decl.Result)
	ctx := &fnCtx{
		name:   decl.Name,
		subst:  subst,
		f:      f,
		scopes: []map[source.StringID]localBinding{make(map[source.StringID]localBinding)},
	}
	l.Tracker = generics.NewTracker(l.Types)
	ctx.cur = f.newBlock()

	for _, p := range decl.Params {
		ty := l.apply(ctx, p.Type)
		v := f.newValue()
		f.Params = append(f.Params, FuncParam{Name: l.lookupName(p.Name), Type: ty, Value: v})
		ctx.bind(p.Name, localBinding{val: v, ty: ty})
		l.recordEnumSite(ctx, p.Name, ty, p.Span)
	}
	f.Result = l.apply(ctx, decl.Result)

	val, ty := l.lowerBlock(ctx, decl.Body)
	val, _ = l.coerceValue(ctx, val, ty, f.Result, decl.Span, diag.LowerInternal)
	f.setTerm(ctx.cur, Terminator{Kind: TermReturn, Value: val})

	l.module.Funcs = append(l.module.Funcs, f)
}

// lowerBlock lowers statements and the optional trailing result
// expression inside a fresh binding scope.
func (l *Lowerer) lowerBlock(ctx *fnCtx, b *ast.Block) (ValueID, types.TypeID) {
	if b == nil {
		return l.emitUnit(ctx), l.Types.Builtins().Unit
	}
	ctx.pushScope()
	l.Tracker.PushScope()
	defer func() {
		l.Tracker.PopScope()
		ctx.popScope()
	}()

	for _, stmt := range b.Stmts {
		switch s := stmt.(type) {
		case *ast.LetStmt:
			l.lowerLet(ctx, s)
		case *ast.ExprStmt:
			l.lowerExpr(ctx, s.E)
		default:
			l.Bag.Add(diag.NewError(diag.LowerInternal, stmt.StmtSpan(),
				fmt.Sprintf("unexpected statement %T", stmt)))
		}
	}
	if b.Result == nil {
		return l.emitUnit(ctx), l.Types.Builtins().Unit
	}
	return l.lowerExpr(ctx, b.Result)
}

func (l *Lowerer) lowerLet(ctx *fnCtx, s *ast.LetStmt) {
	val, ty := l.lowerExpr(ctx, s.Value)
	if declTy := l.apply(ctx, s.DeclType); declTy != types.NoTypeID {
		val, ty = l.coerceValue(ctx, val, ty, declTy, s.Span, diag.LowerInternal)
	}
	ctx.bind(s.Name, localBinding{val: val, ty: ty})
	l.recordEnumSite(ctx, s.Name, ty, s.Span)
}

// recordEnumSite keeps the tracker in sync with local bindings: a name
// bound to a generic enum instance becomes a resolvable site so later
// matches on that name can recover the concrete arguments.
func (l *Lowerer) recordEnumSite(ctx *fnCtx, name source.StringID, ty types.TypeID, sp source.Span) {
	info, ok := l.Types.EnumInfo(ty)
	if !ok || len(info.TypeArgs) == 0 {
		return
	}
	conflict := l.Tracker.Record(
		generics.SiteKey{Fn: ctx.name, Name: name},
		generics.Binding{Decl: info.Name, Args: info.TypeArgs, Span: sp},
	)
	if conflict != nil {
		l.Bag.Add(conflict.Diagnostic(l.Types, l.Types.Strings))
	}
}

func (l *Lowerer) lowerExpr(ctx *fnCtx, e ast.Expr) (ValueID, types.TypeID) {
	switch e := e.(type) {
	case *ast.IntLit:
		ty := l.litType(ctx, e.Ty, l.Types.Builtins().I64)
		return l.emitConst(ctx, Const{Kind: ConstInt, Int: e.Value}, ty), ty
	case *ast.FloatLit:
		ty := l.litType(ctx, e.Ty, l.Types.Builtins().F64)
		return l.emitConst(ctx, Const{Kind: ConstFloat, Float: e.Value}, ty), ty
	case *ast.BoolLit:
		ty := l.litType(ctx, e.Ty, l.Types.Builtins().Bool)
		return l.emitConst(ctx, Const{Kind: ConstBool, Bool: e.Value}, ty), ty
	case *ast.StringLit:
		ty := l.litType(ctx, e.Ty, l.Types.Builtins().String)
		return l.emitConst(ctx, Const{Kind: ConstString, Str: e.Value}, ty), ty
	case *ast.VarRef:
		b, ok := ctx.lookup(e.Name)
		if !ok {
			l.Bag.Add(diag.NewError(diag.LowerUnknownName, e.Span,
				fmt.Sprintf("unknown name %q", l.lookupName(e.Name))))
			return NoValue, types.NoTypeID
		}
		return b.val, b.ty
	case *ast.ConstructExpr:
		return l.lowerConstruct(ctx, e)
	case *ast.CallExpr:
		return l.lowerCall(ctx, e)
	case *ast.MatchExpr:
		return l.compileMatch(ctx, e)
	default:
		l.Bag.Add(diag.NewError(diag.LowerInternal, e.ExprSpan(),
			fmt.Sprintf("unexpected expression %T", e)))
		return NoValue, types.NoTypeID
	}
}

// lowerConstruct lowers Some(x) / Ok(y) style constructors into a single
// construct-variant instruction against the instantiation's layout.
func (l *Lowerer) lowerConstruct(ctx *fnCtx, e *ast.ConstructExpr) (ValueID, types.TypeID) {
	decl, ok := l.Decls.Enums[e.Enum]
	if !ok {
		l.Bag.Add(diag.NewError(diag.GenUnknownDecl, e.Span,
			fmt.Sprintf("constructor references unknown enum %q", l.lookupName(e.Enum))))
		return NoValue, types.NoTypeID
	}

	args := l.applyArgs(ctx, e.TypeArgs)
	inst, err := l.Registry.InstantiateEnum(decl, args, mono.UseSite{Span: e.Span, Fn: ctx.name})
	if err != nil {
		l.addInstErr(err)
		return NoValue, types.NoTypeID
	}

	lay := l.layoutFor(inst.Type, e.Span)
	if lay == nil {
		return NoValue, inst.Type
	}

	vl, found := lay.VariantByName(e.Variant)
	if !found {
		l.Bag.Add(diag.NewError(diag.MatchUnknownVariant, e.Span,
			fmt.Sprintf("%s has no variant %q", inst.KeyString, l.lookupName(e.Variant))))
		return NoValue, inst.Type
	}

	payload := NoValue
	switch {
	case vl.HasPayload && e.Payload == nil:
		l.Bag.Add(diag.NewError(diag.MatchArityMismatch, e.Span,
			fmt.Sprintf("variant %q takes a payload", l.lookupName(e.Variant))))
	case !vl.HasPayload && e.Payload != nil:
		l.Bag.Add(diag.NewError(diag.MatchArityMismatch, e.Span,
			fmt.Sprintf("variant %q is nullary", l.lookupName(e.Variant))))
	case vl.HasPayload:
		var payloadTy types.TypeID
		payload, payloadTy = l.lowerExpr(ctx, e.Payload)
		payload, _ = l.coerceValue(ctx, payload, payloadTy, vl.Payload, e.Span, diag.LowerInternal)
	}

	dst := ctx.f.newValue()
	ctx.f.appendInstr(ctx.cur, Instr{
		Kind:    InstrConstructVariant,
		Dst:     dst,
		Type:    inst.Type,
		Layout:  lay,
		Variant: vl.Discriminant,
		Src:     payload,
	})
	return dst, inst.Type
}

func (l *Lowerer) lowerCall(ctx *fnCtx, e *ast.CallExpr) (ValueID, types.TypeID) {
	decl, ok := l.Decls.Funcs[e.Callee]
	if !ok {
		l.Bag.Add(diag.NewError(diag.LowerUnknownName, e.Span,
			fmt.Sprintf("call to unknown function %q", l.lookupName(e.Callee))))
		return NoValue, types.NoTypeID
	}

	callee := l.lookupName(e.Callee)
	result := decl.Result
	params := decl.Params
	if len(decl.TypeParams) > 0 {
		args := l.applyArgs(ctx, e.TypeArgs)
		inst, err := l.Registry.InstantiateFn(decl, args, mono.UseSite{Span: e.Span, Fn: ctx.name})
		if err != nil {
			l.addInstErr(err)
			return NoValue, types.NoTypeID
		}
		callee = inst.KeyString
		result = inst.Fn.Result
		params = inst.Fn.Params
	}

	if len(e.Args) != len(params) {
		l.Bag.Add(diag.NewError(diag.LowerInternal, e.Span,
			fmt.Sprintf("%q expects %d arguments, got %d", callee, len(params), len(e.Args))))
		return NoValue, result
	}

	vals := make([]ValueID, len(e.Args))
	for i, arg := range e.Args {
		v, ty := l.lowerExpr(ctx, arg)
		v, _ = l.coerceValue(ctx, v, ty, params[i].Type, arg.ExprSpan(), diag.LowerInternal)
		vals[i] = v
	}

	dst := ctx.f.newValue()
	ctx.f.appendInstr(ctx.cur, Instr{
		Kind:   InstrCall,
		Dst:    dst,
		Type:   result,
		Callee: callee,
		Args:   vals,
	})
	return dst, result
}

// Helpers --------------------------------------------------------------------

func (l *Lowerer) emitConst(ctx *fnCtx, c Const, ty types.TypeID) ValueID {
	dst := ctx.f.newValue()
	ctx.f.appendInstr(ctx.cur, Instr{Kind: InstrConst, Dst: dst, Type: ty, Const: c})
	return dst
}

func (l *Lowerer) emitUnit(ctx *fnCtx) ValueID {
	return l.emitConst(ctx, Const{Kind: ConstUnit}, l.Types.Builtins().Unit)
}

// apply resolves the enclosing specialization's parameters inside ty.
func (l *Lowerer) apply(ctx *fnCtx, ty types.TypeID) types.TypeID {
	if ctx.subst == nil {
		return ty
	}
	return ctx.subst.Type(ty)
}

func (l *Lowerer) applyArgs(ctx *fnCtx, args []types.TypeID) []types.TypeID {
	if ctx.subst == nil {
		return args
	}
	return ctx.subst.Args(args)
}

func (l *Lowerer) litType(ctx *fnCtx, ty, fallback types.TypeID) types.TypeID {
	if ty == types.NoTypeID {
		return fallback
	}
	return l.apply(ctx, ty)
}

// layoutFor fetches the layout of an instantiated enum, registering the
// tagged-union definition with the module on first use.
func (l *Lowerer) layoutFor(ty types.TypeID, sp source.Span) *layout.TaggedUnionLayout {
	lay, err := l.Layouts.LayoutFor(ty)
	if err != nil {
		l.Bag.Add(diag.NewError(diag.LowerLayoutFailure, sp,
			fmt.Sprintf("cannot lay out %s: %v", types.Label(l.Types, ty), err)))
		return nil
	}
	if !l.defined[ty] {
		l.defined[ty] = true
		if lay.Key == "" {
			if info, ok := l.Types.EnumInfo(ty); ok {
				lay.Key = mono.KeyString(l.Types, info.Name, info.TypeArgs)
			}
		}
		l.module.Layouts = append(l.module.Layouts, lay)
	}
	return lay
}

func (l *Lowerer) addInstErr(err error) {
	var unresolved *mono.UnresolvedParamError
	var argCount *mono.ArgCountError
	var unknown *mono.UnknownDeclError
	switch {
	case errors.As(err, &unresolved):
		l.Bag.Add(unresolved.Diagnostic(l.Types))
	case errors.As(err, &argCount):
		l.Bag.Add(argCount.Diagnostic(l.Types))
	case errors.As(err, &unknown):
		l.Bag.Add(unknown.Diagnostic(l.Types))
	default:
		l.Bag.Add(diag.NewError(diag.LowerInternal, source.Span{}, err.Error()))
	}
}

func (l *Lowerer) lookupName(id source.StringID) string {
	if name, ok := l.Types.Strings.Lookup(id); ok {
		return name
	}
	return fmt.Sprintf("str#%d", id)
}

// Scope plumbing.

func (c *fnCtx) pushScope() {
	c.scopes = append(c.scopes, make(map[source.StringID]localBinding))
}

func (c *fnCtx) popScope() {
	if len(c.scopes) > 1 {
		c.scopes = c.scopes[:len(c.scopes)-1]
	}
}

func (c *fnCtx) bind(name source.StringID, b localBinding) {
	c.scopes[len(c.scopes)-1][name] = b
}

func (c *fnCtx) lookup(name source.StringID) (localBinding, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if b, ok := c.scopes[i][name]; ok {
			return b, true
		}
	}
	return localBinding{}, false
}
