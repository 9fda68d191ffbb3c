package layout

import (
	"fmt"

	"fortio.org/safecast"

	"zen/internal/types"
)

// Engine computes and memoizes tagged-union layouts for a target.
type Engine struct {
	Target Target
	Types  *types.Interner

	cache *cache
}

// New creates a layout engine for the specified target.
func New(target Target, typesIn *types.Interner) *Engine {
	return &Engine{
		Target: target,
		Types:  typesIn,
		cache:  newCache(),
	}
}

// LayoutFor computes the layout of an instantiated enum. Idempotent:
// repeated calls return the identical layout value, created once per
// instantiation.
func (e *Engine) LayoutFor(id types.TypeID) (*TaggedUnionLayout, error) {
	if e.cache == nil {
		e.cache = newCache()
	}
	if cached, ok := e.cache.get(id); ok {
		return cached, nil
	}

	info, ok := e.Types.EnumInfo(id)
	if !ok || info == nil {
		return nil, &Error{Kind: ErrNotAnEnum, Type: id}
	}

	l := &TaggedUnionLayout{
		Type:     id,
		TagSize:  4,
		TagAlign: 4,

		PayloadOffset: alignUp(4, e.Target.PtrAlign),
		PayloadSize:   e.Target.PtrSize,
		PayloadAlign:  e.Target.PtrAlign,
	}
	l.Size = l.PayloadOffset + l.PayloadSize
	l.Align = maxInt(l.TagAlign, l.PayloadAlign)

	l.Variants = make([]VariantLayout, len(info.Variants))
	for i := range info.Variants {
		v := &info.Variants[i]
		disc, err := safecast.Conv[uint32](i)
		if err != nil {
			panic(fmt.Errorf("variant index overflow: %w", err))
		}
		vl := VariantLayout{
			Name:         v.Name,
			Discriminant: disc,
			Payload:      v.Payload,
			HasPayload:   v.HasPayload,
			Storage:      StorageInline, // nullary sentinel
		}
		if v.HasPayload {
			if e.Types.ContainsParams(v.Payload) {
				return nil, &Error{Kind: ErrOpenParam, Type: id, Variant: v.Name}
			}
			vl.Storage = e.PayloadStorageMode(v.Payload)
		}
		l.Variants[i] = vl
	}

	e.cache.put(id, l)
	return l, nil
}

// PayloadStorageMode applies the storage rule per concrete payload
// type: a payload that fits a pointer-sized scalar and is not itself a
// tagged union stays inline; string handles, nested tagged unions and
// aggregates go to the heap. The decision is per concrete type, so two
// instantiations of the same declaration may choose different modes
// while each stays consistent across its own variants.
func (e *Engine) PayloadStorageMode(id types.TypeID) StorageMode {
	tt, ok := e.Types.Lookup(id)
	if !ok {
		return StorageHeap
	}
	if !tt.Kind.IsScalar() {
		return StorageHeap
	}
	if scalarSize(e.Target, tt) > e.Target.PtrSize {
		return StorageHeap
	}
	return StorageInline
}

func scalarSize(target Target, tt types.Type) int {
	switch tt.Kind {
	case types.KindUnit:
		return 0
	case types.KindBool:
		return 1
	case types.KindInt, types.KindUint, types.KindFloat:
		if tt.Width == types.WidthAny {
			return target.PtrSize
		}
		return int(tt.Width) / 8
	case types.KindPointer:
		return target.PtrSize
	default:
		return target.PtrSize
	}
}

func alignUp(offset, align int) int {
	if align <= 1 {
		return offset
	}
	rem := offset % align
	if rem == 0 {
		return offset
	}
	return offset + align - rem
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
