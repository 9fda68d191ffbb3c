// Package generics tracks resolved type arguments for generic
// construction sites within one function body.
//
// The tracker is explicit state threaded through lowering of a single
// function; it is extended at each generic construction or call site and
// consulted at each destructuring site. It never outlives one
// compilation pass.
package generics

import (
	"zen/internal/source"
	"zen/internal/types"
)

// SiteKey identifies a generic construction site: a variable binding or
// a synthetic site name, scoped to its enclosing function.
type SiteKey struct {
	Fn   source.StringID // enclosing function
	Name source.StringID // variable name or synthetic site name
}

// Binding is the resolved type-argument list recorded for a site.
type Binding struct {
	Decl source.StringID // generic declaration the site instantiates
	Args []types.TypeID
	Span source.Span
}

// Tracker maps construction sites to resolved argument lists. Scopes
// nest with block structure; lookups walk from the innermost scope
// outward.
type Tracker struct {
	types  *types.Interner
	scopes []map[SiteKey]Binding
}

// NewTracker creates a tracker with one root scope.
func NewTracker(typesIn *types.Interner) *Tracker {
	return &Tracker{
		types:  typesIn,
		scopes: []map[SiteKey]Binding{make(map[SiteKey]Binding)},
	}
}

// PushScope opens a nested binding scope.
func (t *Tracker) PushScope() {
	t.scopes = append(t.scopes, make(map[SiteKey]Binding))
}

// PopScope closes the innermost scope. The root scope stays.
func (t *Tracker) PopScope() {
	if len(t.scopes) > 1 {
		t.scopes = t.scopes[:len(t.scopes)-1]
	}
}

// Record registers the resolved arguments for a site. Re-recording the
// same site with an identical argument list is a no-op; a different list
// is an ambiguous instantiation and returns a ConflictError. Bindings
// are never silently overwritten.
func (t *Tracker) Record(key SiteKey, binding Binding) *ConflictError {
	scope := t.scopes[len(t.scopes)-1]
	if prev, ok := scope[key]; ok {
		if sameArgs(prev.Args, binding.Args) && prev.Decl == binding.Decl {
			return nil
		}
		return &ConflictError{
			Site:     key,
			Existing: prev,
			Incoming: binding,
		}
	}
	scope[key] = Binding{
		Decl: binding.Decl,
		Args: cloneArgs(binding.Args),
		Span: binding.Span,
	}
	return nil
}

// Resolve returns the binding for a site, searching scopes innermost
// first.
func (t *Tracker) Resolve(key SiteKey) (Binding, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if b, ok := t.scopes[i][key]; ok {
			return b, true
		}
	}
	return Binding{}, false
}

// ResolveNested walks into a recorded binding. Each path element selects
// a type argument: path[0] indexes the site's own argument list, and
// every further element descends into the argument list of the enum
// instantiation selected so far. This is what makes triple-nested sum
// types resolvable without a separate mechanism per depth.
func (t *Tracker) ResolveNested(key SiteKey, path ...int) (types.TypeID, bool) {
	b, ok := t.Resolve(key)
	if !ok || len(path) == 0 {
		return types.NoTypeID, false
	}

	args := b.Args
	current := types.NoTypeID
	for step, idx := range path {
		if idx < 0 || idx >= len(args) {
			return types.NoTypeID, false
		}
		current = args[idx]
		if step == len(path)-1 {
			break
		}
		// Descend: the selected argument must itself be a generic
		// instantiation for the path to continue.
		args = t.types.EnumArgs(current)
		if len(args) == 0 {
			return types.NoTypeID, false
		}
	}
	return current, true
}

func sameArgs(a, b []types.TypeID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func cloneArgs(args []types.TypeID) []types.TypeID {
	if len(args) == 0 {
		return nil
	}
	out := make([]types.TypeID, len(args))
	copy(out, args)
	return out
}
