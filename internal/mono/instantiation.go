// Package mono deduplicates generic instantiations.
//
// Every (declaration, concrete type-argument list) pair maps to exactly
// one canonical specialized definition, keyed by a normalized string
// key. Two call sites instantiating the same generic independently
// converge on one shared definition regardless of call order.
package mono

import (
	"zen/internal/ast"
	"zen/internal/source"
	"zen/internal/types"
)

// InstKind identifies the kind of entity being instantiated.
type InstKind uint8

const (
	// InstEnum represents a sum-type instantiation.
	InstEnum InstKind = iota
	// InstFn represents a function instantiation.
	InstFn
)

// InstantiationKey is a comparable key for instantiations.
//
// Note: Go maps cannot use slices as keys, so we store a stable ArgsKey
// string; the normalized TypeArgs live in the Instantiation.
type InstantiationKey struct {
	Name    source.StringID
	ArgsKey string
}

// UseSite records a location where an instantiation occurs.
type UseSite struct {
	Span source.Span
	Fn   source.StringID
}

// Instantiation captures one canonical specialization of a generic
// declaration.
type Instantiation struct {
	Kind InstKind
	Key  InstantiationKey

	// KeyString is the cross-tool stable form, e.g.
	// "Result[Result[i32,string],string]".
	KeyString string

	TypeArgs []types.TypeID

	// Enum instantiations.
	Enum *ast.EnumDecl
	Type types.TypeID // interned enum instance

	// Function instantiations.
	Fn    *ast.FuncDecl // signature with formals substituted
	Subst *Subst        // substitution applied when lowering the body

	UseSites []UseSite
}

// Registry tracks all generic instantiations across one compilation
// unit. It is owned exclusively by the compiling goroutine; cross-unit
// deduplication is a separate merge step after all units complete.
type Registry struct {
	Types *types.Interner

	entries map[InstantiationKey]*Instantiation
	order   []*Instantiation
}

// NewRegistry creates an empty registry.
func NewRegistry(typesIn *types.Interner) *Registry {
	return &Registry{
		Types:   typesIn,
		entries: make(map[InstantiationKey]*Instantiation, 16),
	}
}

// InstantiateEnum resolves or creates the canonical instantiation of an
// enum declaration for the given concrete arguments.
func (r *Registry) InstantiateEnum(decl *ast.EnumDecl, args []types.TypeID, site UseSite) (*Instantiation, error) {
	if decl == nil {
		return nil, &UnknownDeclError{Site: site}
	}
	if len(args) != len(decl.TypeParams) {
		return nil, &ArgCountError{Decl: decl.Name, Want: len(decl.TypeParams), Got: len(args), Site: site}
	}
	if err := r.checkResolved(decl.Name, args, site); err != nil {
		return nil, err
	}

	key := InstantiationKey{Name: decl.Name, ArgsKey: formatArgs(r.Types, args)}
	if inst, ok := r.entries[key]; ok {
		inst.UseSites = append(inst.UseSites, site)
		return inst, nil
	}

	subst := NewSubst(r.Types, decl.TypeParams, args)
	instType, ok := r.Types.FindEnumInstance(decl.Name, args)
	if !ok {
		instType = r.Types.RegisterEnumInstance(decl.Name, decl.Span, args)
		variants := make([]types.EnumVariantInfo, len(decl.Variants))
		for i, v := range decl.Variants {
			variants[i] = types.EnumVariantInfo{
				Name:       v.Name,
				Payload:    subst.Type(v.Payload),
				HasPayload: v.HasPayload,
				Span:       v.Span,
			}
		}
		r.Types.SetEnumVariants(instType, variants)
	}

	inst := &Instantiation{
		Kind:      InstEnum,
		Key:       key,
		KeyString: KeyString(r.Types, decl.Name, args),
		TypeArgs:  cloneArgs(args),
		Enum:      decl,
		Type:      instType,
		UseSites:  []UseSite{site},
	}
	r.entries[key] = inst
	r.order = append(r.order, inst)
	return inst, nil
}

// InstantiateFn resolves or creates the canonical specialization of a
// generic function for the given concrete arguments.
func (r *Registry) InstantiateFn(decl *ast.FuncDecl, args []types.TypeID, site UseSite) (*Instantiation, error) {
	if decl == nil {
		return nil, &UnknownDeclError{Site: site}
	}
	if len(args) != len(decl.TypeParams) {
		return nil, &ArgCountError{Decl: decl.Name, Want: len(decl.TypeParams), Got: len(args), Site: site}
	}
	if err := r.checkResolved(decl.Name, args, site); err != nil {
		return nil, err
	}

	key := InstantiationKey{Name: decl.Name, ArgsKey: formatArgs(r.Types, args)}
	if inst, ok := r.entries[key]; ok {
		inst.UseSites = append(inst.UseSites, site)
		return inst, nil
	}

	subst := NewSubst(r.Types, decl.TypeParams, args)
	specialized := &ast.FuncDecl{
		Name:   decl.Name,
		Params: make([]ast.Param, len(decl.Params)),
		Result: subst.Type(decl.Result),
		Body:   decl.Body,
		Span:   decl.Span,
	}
	for i, p := range decl.Params {
		specialized.Params[i] = ast.Param{Name: p.Name, Type: subst.Type(p.Type), Span: p.Span}
	}

	inst := &Instantiation{
		Kind:      InstFn,
		Key:       key,
		KeyString: KeyString(r.Types, decl.Name, args),
		TypeArgs:  cloneArgs(args),
		Fn:        specialized,
		Subst:     subst,
		UseSites:  []UseSite{site},
	}
	r.entries[key] = inst
	r.order = append(r.order, inst)
	return inst, nil
}

// Lookup returns the instantiation for a key, if registered.
func (r *Registry) Lookup(key InstantiationKey) (*Instantiation, bool) {
	inst, ok := r.entries[key]
	return inst, ok
}

// Entries returns instantiations in first-registration order.
func (r *Registry) Entries() []*Instantiation {
	return r.order
}

// Len returns the number of distinct instantiations.
func (r *Registry) Len() int {
	return len(r.order)
}

// checkResolved rejects monomorphization with open type parameters:
// if an unresolved parameter escapes the typechecking stage this is a
// compiler-internal invariant violation, not a runtime fallback.
func (r *Registry) checkResolved(decl source.StringID, args []types.TypeID, site UseSite) error {
	for i, arg := range args {
		if arg == types.NoTypeID || r.Types.ContainsParams(arg) {
			return &UnresolvedParamError{Decl: decl, ArgIndex: i, Arg: arg, Site: site}
		}
	}
	return nil
}

func cloneArgs(args []types.TypeID) []types.TypeID {
	if len(args) == 0 {
		return nil
	}
	out := make([]types.TypeID, len(args))
	copy(out, args)
	return out
}
