package lower

import (
	"fmt"
	"strings"

	"zen/internal/ast"
	"zen/internal/diag"
	"zen/internal/generics"
	"zen/internal/layout"
	"zen/internal/mono"
	"zen/internal/source"
	"zen/internal/types"
)

// compileMatch lowers a match expression into the dispatch shape the
// backend protocol expects: one block loads the discriminant and
// branches on it, one block per arm extracts the payload and evaluates
// the body, and a merge block receives every arm's result coerced to
// the match's declared type.
//
// Exhaustiveness, unknown variants and payload arity are all checked
// here, at compile time. Matching on a nested sum type needs no special
// handling: the extracted payload is itself a tagged-union value whose
// concrete arguments the tracker already knows, so an inner match
// re-enters this same code path.
func (l *Lowerer) compileMatch(ctx *fnCtx, e *ast.MatchExpr) (ValueID, types.TypeID) {
	scrVal, scrTy := l.lowerExpr(ctx, e.Scrutinee)
	resultTy := l.apply(ctx, e.Ty)
	if resultTy == types.NoTypeID {
		resultTy = l.Types.Builtins().Unit
	}

	instTy, ok := l.resolveScrutinee(ctx, e.Scrutinee, scrTy, e.Span)
	if !ok {
		return NoValue, resultTy
	}
	lay := l.layoutFor(instTy, e.Span)
	if lay == nil {
		return NoValue, resultTy
	}

	plans, catchAll := l.planArms(e, lay)
	l.checkExhaustive(e, lay, plans, catchAll)

	// Dispatch block: load the tag, branch per covered discriminant.
	resultVal := ctx.f.newValue()
	discVal := ctx.f.newValue()
	ctx.f.appendInstr(ctx.cur, Instr{
		Kind: InstrLoadDiscriminant,
		Dst:  discVal,
		Type: l.Types.Builtins().U32,
		Src:  scrVal,
	})

	dispatch := ctx.cur
	merge := ctx.f.newBlock()

	term := Terminator{Kind: TermBranchDisc, Value: discVal, Default: NoBlock}
	for _, plan := range plans {
		bb := ctx.f.newBlock()
		if plan.isCatch {
			term.Default = bb
		} else {
			term.Cases = append(term.Cases, DiscCase{Disc: plan.variant.Discriminant, Target: bb})
		}
		l.lowerArm(ctx, e, plan, bb, merge, scrVal, instTy, resultVal, resultTy)
	}
	if term.Default == NoBlock && !l.coversAll(lay, plans) {
		// Non-exhaustive match was already reported; keep the IR
		// well-formed with an unreachable default.
		dead := ctx.f.newBlock()
		ctx.f.setTerm(dead, Terminator{Kind: TermUnreachable})
		term.Default = dead
	}
	ctx.f.setTerm(dispatch, term)

	ctx.cur = merge
	return resultVal, resultTy
}

// armPlan is one validated arm ready for code emission.
type armPlan struct {
	arm     *ast.MatchArm
	variant *layout.VariantLayout // nil for catch-all arms
	isCatch bool
}

// resolveScrutinee pins down the concrete instantiation being matched.
// A variable scrutinee goes through the tracker first, so the site
// recorded at its binding decides the arguments; any other scrutinee
// must already carry a concrete enum instance as its static type.
func (l *Lowerer) resolveScrutinee(ctx *fnCtx, scr ast.Expr, scrTy types.TypeID, sp source.Span) (types.TypeID, bool) {
	if vr, isVar := scr.(*ast.VarRef); isVar {
		if b, found := l.Tracker.Resolve(generics.SiteKey{Fn: ctx.name, Name: vr.Name}); found {
			decl, ok := l.Decls.Enums[b.Decl]
			if !ok {
				l.Bag.Add(diag.NewError(diag.GenUnknownDecl, sp,
					fmt.Sprintf("site %q bound to unknown enum", l.lookupName(vr.Name))))
				return types.NoTypeID, false
			}
			inst, err := l.Registry.InstantiateEnum(decl, b.Args, mono.UseSite{Span: sp, Fn: ctx.name})
			if err != nil {
				l.addInstErr(err)
				return types.NoTypeID, false
			}
			return inst.Type, true
		}
	}

	ty := l.apply(ctx, scrTy)
	info, ok := l.Types.EnumInfo(ty)
	if !ok {
		l.Bag.Add(diag.NewError(diag.MatchNotAnEnum, sp,
			fmt.Sprintf("match scrutinee has type %s, which is not a sum type", types.Label(l.Types, ty))))
		return types.NoTypeID, false
	}
	if len(info.TypeParams) > 0 && len(info.TypeArgs) == 0 {
		l.Bag.Add(diag.NewError(diag.GenUnresolvedTypeParam, sp,
			fmt.Sprintf("match scrutinee %s has unresolved type arguments", l.lookupName(info.Name))))
		return types.NoTypeID, false
	}
	return ty, true
}

// planArms validates every arm against the layout. Malformed arms are
// reported and dropped; planning continues so one bad arm does not hide
// errors in the rest of the match.
func (l *Lowerer) planArms(e *ast.MatchExpr, lay *layout.TaggedUnionLayout) ([]armPlan, bool) {
	plans := make([]armPlan, 0, len(e.Arms))
	seen := make(map[uint32]bool, len(lay.Variants))
	catchAll := false

	for i := range e.Arms {
		arm := &e.Arms[i]
		switch pat := arm.Pat.(type) {
		case *ast.WildcardPat, *ast.BindPat:
			if catchAll {
				continue // unreachable second catch-all
			}
			catchAll = true
			plans = append(plans, armPlan{arm: arm, isCatch: true})

		case *ast.VariantPat:
			vl, found := lay.VariantByName(pat.Variant)
			if !found {
				l.Bag.Add(diag.NewError(diag.MatchUnknownVariant, pat.Span,
					fmt.Sprintf("%s has no variant %q", lay.Key, l.lookupName(pat.Variant))))
				continue
			}
			if !l.checkArity(pat, vl) {
				continue
			}
			if seen[vl.Discriminant] {
				continue // first arm per variant wins
			}
			seen[vl.Discriminant] = true
			plans = append(plans, armPlan{arm: arm, variant: vl})

		default:
			l.Bag.Add(diag.NewError(diag.MatchArmTypeMismatch, arm.Pat.PatSpan(),
				"literal pattern cannot match a sum-type scrutinee"))
		}
	}
	return plans, catchAll
}

func (l *Lowerer) checkArity(pat *ast.VariantPat, vl *layout.VariantLayout) bool {
	name := l.lookupName(pat.Variant)
	switch {
	case pat.HasPayload && !vl.HasPayload:
		l.Bag.Add(diag.NewError(diag.MatchArityMismatch, pat.Span,
			fmt.Sprintf("variant %q is nullary but the pattern destructures a payload", name)))
		return false
	case !pat.HasPayload && vl.HasPayload:
		l.Bag.Add(diag.NewError(diag.MatchArityMismatch, pat.Span,
			fmt.Sprintf("variant %q carries a payload the pattern must bind or ignore", name)))
		return false
	}
	if pat.HasPayload {
		switch pat.Payload.(type) {
		case *ast.BindPat, *ast.WildcardPat:
		default:
			// Deep destructuring is expressed as a nested match on the
			// bound payload, not inside one pattern.
			l.Bag.Add(diag.NewError(diag.MatchArmTypeMismatch, pat.Span,
				fmt.Sprintf("payload of %q must be bound or ignored; destructure it with a nested match", name)))
			return false
		}
	}
	return true
}

func (l *Lowerer) checkExhaustive(e *ast.MatchExpr, lay *layout.TaggedUnionLayout, plans []armPlan, catchAll bool) {
	if catchAll || l.coversAll(lay, plans) {
		return
	}
	covered := make(map[uint32]bool, len(plans))
	for _, p := range plans {
		if p.variant != nil {
			covered[p.variant.Discriminant] = true
		}
	}
	missing := make([]string, 0, len(lay.Variants))
	for i := range lay.Variants {
		if !covered[lay.Variants[i].Discriminant] {
			missing = append(missing, l.lookupName(lay.Variants[i].Name))
		}
	}
	l.Bag.Add(diag.NewError(diag.MatchNonExhaustive, e.Span,
		fmt.Sprintf("match on %s is not exhaustive: missing %s", lay.Key, strings.Join(missing, ", "))))
}

func (l *Lowerer) coversAll(lay *layout.TaggedUnionLayout, plans []armPlan) bool {
	covered := 0
	for _, p := range plans {
		if p.variant != nil {
			covered++
		}
	}
	return covered == len(lay.Variants)
}

// lowerArm emits one arm block: payload extraction, body, coercion to
// the merge type, then a jump to the merge block.
func (l *Lowerer) lowerArm(ctx *fnCtx, e *ast.MatchExpr, plan armPlan, bb, merge BlockID,
	scrVal ValueID, instTy types.TypeID, resultVal ValueID, resultTy types.TypeID,
) {
	saved := ctx.cur
	ctx.cur = bb
	ctx.pushScope()
	l.Tracker.PushScope()

	switch {
	case plan.isCatch:
		if bind, ok := plan.arm.Pat.(*ast.BindPat); ok {
			ctx.bind(bind.Name, localBinding{val: scrVal, ty: instTy})
			l.recordEnumSite(ctx, bind.Name, instTy, bind.Span)
		}
	case plan.variant.HasPayload:
		payloadTy := l.payloadType(ctx, e.Scrutinee, instTy, plan.variant)
		payloadVal := ctx.f.newValue()
		ctx.f.appendInstr(ctx.cur, Instr{
			Kind: InstrLoadPayload,
			Dst:  payloadVal,
			Type: payloadTy,
			Src:  scrVal,
		})
		if vp, ok := plan.arm.Pat.(*ast.VariantPat); ok {
			if bind, ok := vp.Payload.(*ast.BindPat); ok {
				ctx.bind(bind.Name, localBinding{val: payloadVal, ty: payloadTy})
				l.recordEnumSite(ctx, bind.Name, payloadTy, bind.Span)
			}
		}
	}

	bodyVal, bodyTy := l.lowerExpr(ctx, plan.arm.Body)
	bodyVal, _ = l.coerceValue(ctx, bodyVal, bodyTy, resultTy, plan.arm.Span, diag.MatchArmTypeMismatch)
	ctx.f.appendInstr(ctx.cur, Instr{Kind: InstrCopy, Dst: resultVal, Type: resultTy, Src: bodyVal})
	ctx.f.setTerm(ctx.cur, Terminator{Kind: TermGoto, Target: merge})

	l.Tracker.PopScope()
	ctx.popScope()
	ctx.cur = saved
}

// payloadType yields the concrete type loaded out of the payload slot.
// The instantiated layout already carries the substituted type; when
// the scrutinee is a tracked variable whose variant payload is a direct
// type parameter, the tracker's nested resolution must agree with it.
func (l *Lowerer) payloadType(ctx *fnCtx, scr ast.Expr, instTy types.TypeID, vl *layout.VariantLayout) types.TypeID {
	payloadTy := vl.Payload

	vr, isVar := scr.(*ast.VarRef)
	if !isVar {
		return payloadTy
	}
	info, ok := l.Types.EnumInfo(instTy)
	if !ok {
		return payloadTy
	}
	decl, ok := l.Decls.Enums[info.Name]
	if !ok || int(vl.Discriminant) >= len(decl.Variants) {
		return payloadTy
	}
	formal := decl.Variants[vl.Discriminant].Payload
	pi, ok := l.Types.TypeParamInfo(formal)
	if !ok {
		return payloadTy
	}
	site := generics.SiteKey{Fn: ctx.name, Name: vr.Name}
	if resolved, ok := l.Tracker.ResolveNested(site, int(pi.Index)); ok {
		return resolved
	}
	return payloadTy
}
