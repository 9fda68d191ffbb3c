package mono

import (
	"fmt"

	"zen/internal/diag"
	"zen/internal/source"
	"zen/internal/types"
)

// UnresolvedParamError reports monomorphization attempted before all
// type parameters are concrete. Fatal: there is no runtime fallback.
type UnresolvedParamError struct {
	Decl     source.StringID
	ArgIndex int
	Arg      types.TypeID
	Site     UseSite
}

func (e *UnresolvedParamError) Error() string {
	return fmt.Sprintf("cannot monomorphize decl#%d with unresolved type parameter (arg %d)", e.Decl, e.ArgIndex)
}

// Diagnostic renders the error for the tooling layer.
func (e *UnresolvedParamError) Diagnostic(typesIn *types.Interner) diag.Diagnostic {
	name, _ := typesIn.Strings.Lookup(e.Decl)
	msg := fmt.Sprintf("cannot monomorphize %q: type argument %d is an unresolved type parameter (%s)",
		name, e.ArgIndex, types.Label(typesIn, e.Arg))
	return diag.NewError(diag.GenUnresolvedTypeParam, e.Site.Span, msg)
}

// ArgCountError reports an instantiation with the wrong number of
// type arguments.
type ArgCountError struct {
	Decl source.StringID
	Want int
	Got  int
	Site UseSite
}

func (e *ArgCountError) Error() string {
	return fmt.Sprintf("decl#%d expects %d type arguments, got %d", e.Decl, e.Want, e.Got)
}

// Diagnostic renders the error for the tooling layer.
func (e *ArgCountError) Diagnostic(typesIn *types.Interner) diag.Diagnostic {
	name, _ := typesIn.Strings.Lookup(e.Decl)
	msg := fmt.Sprintf("%q expects %d type arguments, got %d", name, e.Want, e.Got)
	return diag.NewError(diag.GenArgCountMismatch, e.Site.Span, msg)
}

// UnknownDeclError reports instantiation of a declaration the registry
// has never seen.
type UnknownDeclError struct {
	Site UseSite
}

func (e *UnknownDeclError) Error() string {
	return "instantiation of unknown declaration"
}

// Diagnostic renders the error for the tooling layer.
func (e *UnknownDeclError) Diagnostic(_ *types.Interner) diag.Diagnostic {
	return diag.NewError(diag.GenUnknownDecl, e.Site.Span, "instantiation of unknown declaration")
}
