// Package driver runs the compilation pipeline over units: generic
// tracking, monomorphization, layout, lowering, and the cross-unit
// instantiation merge.
package driver

import (
	"zen/internal/ast"
	"zen/internal/diag"
	"zen/internal/layout"
	"zen/internal/lower"
	"zen/internal/mono"
	"zen/internal/source"
	"zen/internal/types"
)

// Options tune one compilation run.
type Options struct {
	// Target selects the layout target.
	Target layout.Target
	// MaxDiagnostics caps collected diagnostics per unit.
	MaxDiagnostics int
	// Jobs bounds parallelism across units; 0 means GOMAXPROCS.
	Jobs int
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Target:         layout.X86_64LinuxGNU(),
		MaxDiagnostics: 100,
	}
}

// UnitInput is one self-contained unit: the typed tree plus the
// interners its IDs point into. Units never share interners, so they
// compile in parallel without locking; cross-unit state is merged
// afterwards by stable string keys.
type UnitInput struct {
	Strings *source.Interner
	Types   *types.Interner
	WK      ast.WellKnown
	Unit    *ast.Unit
}

// UnitResult is the outcome of compiling one unit. It keeps the unit's
// interners so downstream consumers can render names and labels.
type UnitResult struct {
	Name     string
	Strings  *source.Interner
	Types    *types.Interner
	Registry *mono.Registry
	Layouts  *layout.Engine
	Module   *lower.Module
	Bag      *diag.Bag
}

// Failed reports whether the unit produced errors.
func (r *UnitResult) Failed() bool {
	return r.Bag.HasErrors()
}

// CompileUnit runs the pipeline over a single unit.
func CompileUnit(in UnitInput, opts Options) *UnitResult {
	bag := diag.NewBag(opts.MaxDiagnostics)
	reg := mono.NewRegistry(in.Types)
	engine := layout.New(opts.Target, in.Types)
	idx := ast.NewIndex(in.Unit, in.WK)

	l := lower.NewLowerer(in.Types, reg, engine, idx, bag)
	module := l.LowerUnit(in.Unit)

	bag.Sort()
	bag.Dedup()
	return &UnitResult{
		Name:     in.Unit.Name,
		Strings:  in.Strings,
		Types:    in.Types,
		Registry: reg,
		Layouts:  engine,
		Module:   module,
		Bag:      bag,
	}
}
