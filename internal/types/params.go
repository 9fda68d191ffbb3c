package types

import (
	"fmt"

	"fortio.org/safecast"

	"zen/internal/source"
)

// TypeParamInfo stores metadata about a generic type parameter.
type TypeParamInfo struct {
	Name  source.StringID
	Owner source.StringID // declaring enum or function
	Index uint32
}

// RegisterTypeParam allocates a new generic parameter descriptor.
func (in *Interner) RegisterTypeParam(name, owner source.StringID, index uint32) TypeID {
	slot := in.appendTypeParamInfo(TypeParamInfo{
		Name:  name,
		Owner: owner,
		Index: index,
	})
	return in.internRaw(Type{
		Kind:    KindGenericParam,
		Payload: slot,
	})
}

// TypeParamInfo returns metadata for the provided generic parameter.
func (in *Interner) TypeParamInfo(id TypeID) (*TypeParamInfo, bool) {
	if id == NoTypeID {
		return nil, false
	}
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindGenericParam {
		return nil, false
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.params) {
		return nil, false
	}
	info := in.params[tt.Payload]
	return &info, true
}

func (in *Interner) appendTypeParamInfo(info TypeParamInfo) uint32 {
	if in.params == nil {
		in.params = append(in.params, TypeParamInfo{})
	}
	in.params = append(in.params, info)
	lenParams, err := safecast.Conv[uint32](len(in.params) - 1)
	if err != nil {
		panic(fmt.Errorf("type param index overflow: %w", err))
	}
	return lenParams
}
