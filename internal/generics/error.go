package generics

import (
	"fmt"

	"zen/internal/diag"
	"zen/internal/source"
	"zen/internal/types"
)

// ConflictError reports a site re-bound to a different argument list.
// It is surfaced as a compiler diagnostic, never auto-resolved.
type ConflictError struct {
	Site     SiteKey
	Existing Binding
	Incoming Binding
}

func (e *ConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("conflicting instantiation for site fn#%d/%d: %d args recorded, %d args incoming",
		e.Site.Fn, e.Site.Name, len(e.Existing.Args), len(e.Incoming.Args))
}

// Diagnostic converts the conflict into a structured diagnostic with
// labels readable by the tooling layer.
func (e *ConflictError) Diagnostic(typesIn *types.Interner, strs *source.Interner) diag.Diagnostic {
	name, _ := strs.Lookup(e.Site.Name)
	msg := fmt.Sprintf("ambiguous instantiation: %q already bound to %s, re-bound to %s",
		name, formatArgs(typesIn, e.Existing.Args), formatArgs(typesIn, e.Incoming.Args))
	return diag.NewError(diag.GenConflict, e.Incoming.Span, msg).
		WithNote(e.Existing.Span, "first binding recorded here")
}

func formatArgs(typesIn *types.Interner, args []types.TypeID) string {
	if len(args) == 0 {
		return "<>"
	}
	out := "<"
	for i, a := range args {
		if i > 0 {
			out += ", "
		}
		out += types.Label(typesIn, a)
	}
	return out + ">"
}
