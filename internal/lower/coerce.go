package lower

import (
	"fmt"

	"zen/internal/diag"
	"zen/internal/source"
	"zen/internal/types"
)

// coerceValue converges a value to the statically declared type of a
// merge point. Promotion only ever widens: i32 flows into an i64 slot,
// f32 into f64, integers into floats. Anything else is a compile-time
// mismatch reported under the caller's diagnostic code, because the
// runtime representation has no room for implicit conversion.
func (l *Lowerer) coerceValue(ctx *fnCtx, val ValueID, from, to types.TypeID, sp source.Span, code diag.Code) (ValueID, types.TypeID) {
	if val == NoValue || from == types.NoTypeID || to == types.NoTypeID || from == to {
		return val, to
	}

	ft, okFrom := l.Types.Lookup(from)
	tt, okTo := l.Types.Lookup(to)
	if okFrom && okTo && widens(ft, tt) {
		dst := ctx.f.newValue()
		ctx.f.appendInstr(ctx.cur, Instr{Kind: InstrCoerce, Dst: dst, Type: to, Src: val})
		return dst, to
	}

	l.Bag.Add(diag.NewError(code, sp,
		fmt.Sprintf("cannot converge %s to the declared result type %s",
			types.Label(l.Types, from), types.Label(l.Types, to))))
	return val, to
}

// widens reports whether a primitive conversion from ft to tt loses no
// information.
func widens(ft, tt types.Type) bool {
	switch tt.Kind {
	case types.KindInt:
		return ft.Kind == types.KindInt && ft.Width <= tt.Width
	case types.KindUint:
		return ft.Kind == types.KindUint && ft.Width <= tt.Width
	case types.KindFloat:
		switch ft.Kind {
		case types.KindInt, types.KindUint:
			return true
		case types.KindFloat:
			return ft.Width <= tt.Width
		default:
			return false
		}
	default:
		return false
	}
}
