package backend

import (
	"fmt"
	"math"

	"zen/internal/layout"
	"zen/internal/types"
)

// ValueKind discriminates runtime values of the reference machine.
type ValueKind uint8

const (
	ValInvalid ValueKind = iota
	ValUnit
	ValInt
	ValFloat
	ValBool
	ValString
	ValUnion
)

// Value is one runtime value. Integers of every width share the Int
// field; the static type travels separately through the IR. Union
// values carry their layout, the discriminant, and one payload slot.
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Bool  bool
	Str   string

	Disc   uint32
	Layout *layout.TaggedUnionLayout
	slot   payloadSlot
}

// payloadSlot mirrors the runtime representation: the same slot holds
// either raw inline scalar bits or a pointer to the boxed payload.
type payloadSlot struct {
	inline uint64
	heap   *Value
}

// InlineBits exposes the raw slot bits of an inline payload; used by
// tests asserting the bit-level round trip.
func (v Value) InlineBits() uint64 {
	return v.slot.inline
}

// IsHeap reports whether the payload slot holds a heap pointer.
func (v Value) IsHeap() bool {
	return v.slot.heap != nil
}

func unitValue() Value          { return Value{Kind: ValUnit} }
func intValue(i int64) Value    { return Value{Kind: ValInt, Int: i} }
func floatValue(f float64) Value { return Value{Kind: ValFloat, Float: f} }
func boolValue(b bool) Value    { return Value{Kind: ValBool, Bool: b} }
func stringValue(s string) Value { return Value{Kind: ValString, Str: s} }

// encodeInline packs a scalar value into raw slot bits.
func encodeInline(v Value, ft types.Type) (uint64, error) {
	switch ft.Kind {
	case types.KindUnit:
		return 0, nil
	case types.KindBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case types.KindInt, types.KindUint:
		return uint64(v.Int) & widthMask(ft.Width), nil //nolint:gosec // raw bit reinterpretation
	case types.KindFloat:
		if ft.Width == types.Width32 {
			return uint64(math.Float32bits(float32(v.Float))), nil
		}
		return math.Float64bits(v.Float), nil
	default:
		return 0, fmt.Errorf("value kind %d cannot be stored inline", ft.Kind)
	}
}

// decodeInline reinterprets raw slot bits at a concrete scalar type.
func decodeInline(bits uint64, ft types.Type) (Value, error) {
	switch ft.Kind {
	case types.KindUnit:
		return unitValue(), nil
	case types.KindBool:
		return boolValue(bits != 0), nil
	case types.KindInt:
		return intValue(signExtend(bits, ft.Width)), nil
	case types.KindUint:
		return intValue(int64(bits & widthMask(ft.Width))), nil //nolint:gosec // raw bit reinterpretation
	case types.KindFloat:
		if ft.Width == types.Width32 {
			return floatValue(float64(math.Float32frombits(uint32(bits)))), nil //nolint:gosec // low 32 bits hold the value
		}
		return floatValue(math.Float64frombits(bits)), nil
	default:
		return Value{}, fmt.Errorf("inline slot cannot be read as kind %d", ft.Kind)
	}
}

func widthMask(w types.Width) uint64 {
	switch w {
	case types.Width8:
		return 0xff
	case types.Width16:
		return 0xffff
	case types.Width32:
		return 0xffff_ffff
	default:
		return ^uint64(0)
	}
}

func signExtend(bits uint64, w types.Width) int64 {
	switch w {
	case types.Width8:
		return int64(int8(bits)) //nolint:gosec // deliberate truncation
	case types.Width16:
		return int64(int16(bits)) //nolint:gosec // deliberate truncation
	case types.Width32:
		return int64(int32(bits)) //nolint:gosec // deliberate truncation
	default:
		return int64(bits) //nolint:gosec // full-width reinterpretation
	}
}
