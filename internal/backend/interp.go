package backend

import (
	"fmt"

	"zen/internal/layout"
	"zen/internal/lower"
	"zen/internal/types"
)

// Interp is the reference machine: it hosts the tagged-union protocol
// in-process and evaluates lowered modules with it. Native backends
// translate the same IR; this one exists so representation invariants
// are executable in tests.
type Interp struct {
	Types  *types.Interner
	Module *lower.Module

	defined map[types.TypeID]*layout.TaggedUnionLayout
}

// maxSteps caps block transitions per call to keep broken IR from
// spinning forever.
const maxSteps = 1 << 20

// NewInterp prepares a machine for one lowered module, defining every
// tagged union the module references.
func NewInterp(typesIn *types.Interner, m *lower.Module) (*Interp, error) {
	in := &Interp{
		Types:   typesIn,
		Module:  m,
		defined: make(map[types.TypeID]*layout.TaggedUnionLayout, len(m.Layouts)),
	}
	for _, lay := range m.Layouts {
		if err := in.DefineTaggedUnion(lay); err != nil {
			return nil, err
		}
	}
	return in, nil
}

// DefineTaggedUnion registers a layout. Redefining the same type with a
// different layout is a protocol violation.
func (in *Interp) DefineTaggedUnion(l *layout.TaggedUnionLayout) error {
	if l == nil {
		return fmt.Errorf("nil layout")
	}
	if prev, ok := in.defined[l.Type]; ok && prev != l {
		return fmt.Errorf("tagged union %s defined twice with different layouts", l.Key)
	}
	in.defined[l.Type] = l
	return nil
}

// ConstructVariant implements the construction half of the protocol.
func (in *Interp) ConstructVariant(l *layout.TaggedUnionLayout, disc uint32, payload Value) (Value, error) {
	if _, ok := in.defined[l.Type]; !ok {
		return Value{}, fmt.Errorf("construct before define for %s", l.Key)
	}
	vl, ok := l.Variant(disc)
	if !ok {
		return Value{}, fmt.Errorf("%s has no discriminant %d", l.Key, disc)
	}

	v := Value{Kind: ValUnion, Disc: disc, Layout: l}
	if !vl.HasPayload {
		// Inline zero sentinel keeps nullary variants the same width
		// as everything else.
		v.slot.inline = 0
		return v, nil
	}

	switch vl.Storage {
	case layout.StorageInline:
		ft, ok := in.Types.Lookup(vl.Payload)
		if !ok {
			return Value{}, fmt.Errorf("payload type#%d of %s unknown", vl.Payload, l.Key)
		}
		bits, err := encodeInline(payload, ft)
		if err != nil {
			return Value{}, fmt.Errorf("construct %s: %w", l.Key, err)
		}
		v.slot.inline = bits
	case layout.StorageHeap:
		boxed := payload
		v.slot.heap = &boxed
	default:
		return Value{}, fmt.Errorf("construct %s: unknown storage mode %v", l.Key, vl.Storage)
	}
	return v, nil
}

// LoadDiscriminant implements the tag read.
func (in *Interp) LoadDiscriminant(v Value) (uint32, error) {
	if v.Kind != ValUnion {
		return 0, fmt.Errorf("discriminant of non-union value kind %d", v.Kind)
	}
	return v.Disc, nil
}

// LoadPayload implements the typed payload read.
func (in *Interp) LoadPayload(v Value, as types.TypeID) (Value, error) {
	if v.Kind != ValUnion || v.Layout == nil {
		return Value{}, fmt.Errorf("payload of non-union value kind %d", v.Kind)
	}
	vl, ok := v.Layout.Variant(v.Disc)
	if !ok {
		return Value{}, fmt.Errorf("%s: corrupt discriminant %d", v.Layout.Key, v.Disc)
	}
	if !vl.HasPayload {
		return Value{}, fmt.Errorf("%s: variant %d is nullary", v.Layout.Key, v.Disc)
	}

	if v.slot.heap != nil {
		return *v.slot.heap, nil
	}
	ft, ok := in.Types.Lookup(as)
	if !ok {
		return Value{}, fmt.Errorf("payload type#%d unknown", as)
	}
	out, err := decodeInline(v.slot.inline, ft)
	if err != nil {
		return Value{}, fmt.Errorf("%s: %w", v.Layout.Key, err)
	}
	return out, nil
}

// BranchOnDiscriminant implements dispatch.
func (in *Interp) BranchOnDiscriminant(disc uint32, cases []lower.DiscCase, def lower.BlockID) (lower.BlockID, error) {
	for _, c := range cases {
		if c.Disc == disc {
			return c.Target, nil
		}
	}
	if def != lower.NoBlock {
		return def, nil
	}
	return lower.NoBlock, fmt.Errorf("no case for discriminant %d", disc)
}

// Run evaluates a lowered function by name.
func (in *Interp) Run(name string, args ...Value) (Value, error) {
	f, ok := in.Module.FindFunc(name)
	if !ok {
		return Value{}, fmt.Errorf("no function %q in unit %s", name, in.Module.Unit)
	}
	if len(args) != len(f.Params) {
		return Value{}, fmt.Errorf("%s expects %d arguments, got %d", name, len(f.Params), len(args))
	}

	regs := make(map[lower.ValueID]Value, 16)
	for i, p := range f.Params {
		regs[p.Value] = args[i]
	}

	bb, _ := f.Block(0)
	for steps := 0; ; steps++ {
		if steps > maxSteps {
			return Value{}, fmt.Errorf("%s: step budget exceeded", name)
		}
		if bb == nil {
			return Value{}, fmt.Errorf("%s: fell off a missing block", name)
		}
		for _, instr := range bb.Instrs {
			if err := in.step(f, regs, instr); err != nil {
				return Value{}, err
			}
		}

		switch bb.Term.Kind {
		case lower.TermReturn:
			if bb.Term.Value == lower.NoValue {
				return unitValue(), nil
			}
			return regs[bb.Term.Value], nil
		case lower.TermGoto:
			bb = mustBlock(f, bb.Term.Target)
		case lower.TermBranchDisc:
			disc := regs[bb.Term.Value]
			target, err := in.BranchOnDiscriminant(uint32(disc.Int), bb.Term.Cases, bb.Term.Default) //nolint:gosec // tags are small
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", name, err)
			}
			bb = mustBlock(f, target)
		case lower.TermUnreachable:
			return Value{}, fmt.Errorf("%s: reached unreachable block bb%d", name, bb.ID)
		default:
			return Value{}, fmt.Errorf("%s: block bb%d has no terminator", name, bb.ID)
		}
	}
}

func (in *Interp) step(f *lower.Func, regs map[lower.ValueID]Value, instr lower.Instr) error {
	switch instr.Kind {
	case lower.InstrConst:
		regs[instr.Dst] = constValue(instr.Const)
	case lower.InstrConstructVariant:
		payload := Value{}
		if instr.Src != lower.NoValue {
			payload = regs[instr.Src]
		}
		v, err := in.ConstructVariant(instr.Layout, instr.Variant, payload)
		if err != nil {
			return err
		}
		regs[instr.Dst] = v
	case lower.InstrLoadDiscriminant:
		disc, err := in.LoadDiscriminant(regs[instr.Src])
		if err != nil {
			return err
		}
		regs[instr.Dst] = intValue(int64(disc))
	case lower.InstrLoadPayload:
		v, err := in.LoadPayload(regs[instr.Src], instr.Type)
		if err != nil {
			return err
		}
		regs[instr.Dst] = v
	case lower.InstrCoerce:
		v, err := in.coerce(regs[instr.Src], instr.Type)
		if err != nil {
			return err
		}
		regs[instr.Dst] = v
	case lower.InstrCopy:
		regs[instr.Dst] = regs[instr.Src]
	case lower.InstrCall:
		args := make([]Value, len(instr.Args))
		for i, a := range instr.Args {
			args[i] = regs[a]
		}
		out, err := in.Run(instr.Callee, args...)
		if err != nil {
			return err
		}
		regs[instr.Dst] = out
	default:
		return fmt.Errorf("%s: invalid instruction kind %d", f.Name, instr.Kind)
	}
	return nil
}

// coerce applies the widening conversions lowering may emit at merges.
func (in *Interp) coerce(v Value, to types.TypeID) (Value, error) {
	tt, ok := in.Types.Lookup(to)
	if !ok {
		return Value{}, fmt.Errorf("coerce to unknown type#%d", to)
	}
	switch tt.Kind {
	case types.KindInt, types.KindUint:
		if v.Kind != ValInt {
			return Value{}, fmt.Errorf("coerce value kind %d to integer", v.Kind)
		}
		return v, nil
	case types.KindFloat:
		switch v.Kind {
		case ValInt:
			return floatValue(float64(v.Int)), nil
		case ValFloat:
			return v, nil
		default:
			return Value{}, fmt.Errorf("coerce value kind %d to float", v.Kind)
		}
	default:
		return Value{}, fmt.Errorf("coerce to non-numeric kind %d", tt.Kind)
	}
}

func constValue(c lower.Const) Value {
	switch c.Kind {
	case lower.ConstInt:
		return intValue(c.Int)
	case lower.ConstFloat:
		return floatValue(c.Float)
	case lower.ConstBool:
		return boolValue(c.Bool)
	case lower.ConstString:
		return stringValue(c.Str)
	default:
		return unitValue()
	}
}

func mustBlock(f *lower.Func, id lower.BlockID) *lower.Block {
	bb, ok := f.Block(id)
	if !ok {
		return nil
	}
	return bb
}
