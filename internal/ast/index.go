package ast

import (
	"zen/internal/source"
)

// Index resolves declarations by name within one unit's scope, with the
// builtin Option/Result declarations always visible.
type Index struct {
	Enums map[source.StringID]*EnumDecl
	Funcs map[source.StringID]*FuncDecl
}

// NewIndex builds the name index for a unit.
func NewIndex(unit *Unit, wk WellKnown) *Index {
	idx := &Index{
		Enums: make(map[source.StringID]*EnumDecl, len(unit.Enums)+2),
		Funcs: make(map[source.StringID]*FuncDecl, len(unit.Funcs)),
	}
	if wk.Option != nil {
		idx.Enums[wk.Option.Name] = wk.Option
	}
	if wk.Result != nil {
		idx.Enums[wk.Result.Name] = wk.Result
	}
	for _, e := range unit.Enums {
		idx.Enums[e.Name] = e
	}
	for _, f := range unit.Funcs {
		idx.Funcs[f.Name] = f
	}
	return idx
}
