package mono

import (
	"zen/internal/types"
)

// Subst replaces formal type parameters with resolved concrete types.
type Subst struct {
	Types   *types.Interner
	mapping map[types.TypeID]types.TypeID
	cache   map[types.TypeID]types.TypeID
}

// NewSubst builds a substitution from parallel formal/actual lists.
func NewSubst(typesIn *types.Interner, params, args []types.TypeID) *Subst {
	mapping := make(map[types.TypeID]types.TypeID, len(params))
	for i, p := range params {
		if i < len(args) {
			mapping[p] = args[i]
		}
	}
	return &Subst{Types: typesIn, mapping: mapping}
}

// Type applies the substitution to a type ID.
func (s *Subst) Type(id types.TypeID) types.TypeID {
	if s == nil || s.Types == nil || id == types.NoTypeID {
		return id
	}
	if s.cache == nil {
		s.cache = make(map[types.TypeID]types.TypeID, 32)
	} else if cached, ok := s.cache[id]; ok {
		return cached
	}

	out := s.typeNoCache(id)
	s.cache[id] = out
	return out
}

func (s *Subst) typeNoCache(id types.TypeID) types.TypeID {
	tt, ok := s.Types.Lookup(id)
	if !ok {
		return id
	}

	switch tt.Kind {
	case types.KindGenericParam:
		if repl, ok := s.mapping[id]; ok && repl != types.NoTypeID {
			return repl
		}
		// A parameter of some other owner stays open; the caller
		// decides whether that is an error.
		return id

	case types.KindPointer:
		elem := s.Type(tt.Elem)
		if elem == tt.Elem {
			return id
		}
		clone := tt
		clone.Elem = elem
		return s.Types.Intern(clone)

	case types.KindEnum:
		info, ok := s.Types.EnumInfo(id)
		if !ok || info == nil {
			return id
		}
		srcArgs := info.TypeArgs
		if len(srcArgs) == 0 {
			// Nominal declaration referenced inside another
			// declaration's body: substitute its formals directly.
			srcArgs = info.TypeParams
			if len(srcArgs) == 0 {
				return id
			}
		}
		newArgs := make([]types.TypeID, len(srcArgs))
		changed := len(info.TypeArgs) == 0
		for i := range srcArgs {
			newArgs[i] = s.Type(srcArgs[i])
			changed = changed || newArgs[i] != srcArgs[i]
		}
		if !changed {
			return id
		}
		if existing, ok := s.Types.FindEnumInstance(info.Name, newArgs); ok {
			return existing
		}
		inst := s.Types.RegisterEnumInstance(info.Name, info.Decl, newArgs)
		variants := make([]types.EnumVariantInfo, len(info.Variants))
		copy(variants, info.Variants)
		for i := range variants {
			variants[i].Payload = s.Type(variants[i].Payload)
		}
		s.Types.SetEnumVariants(inst, variants)
		return inst

	default:
		return id
	}
}

// Args applies the substitution to an argument list, returning a fresh
// slice when anything changed.
func (s *Subst) Args(args []types.TypeID) []types.TypeID {
	if len(args) == 0 {
		return nil
	}
	out := make([]types.TypeID, len(args))
	for i := range args {
		out[i] = s.Type(args[i])
	}
	return out
}
