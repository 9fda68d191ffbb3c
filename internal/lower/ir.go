// Package lower turns typed syntax trees into a small SSA-ish IR built
// from the narrow backend protocol: construct a tagged union, load its
// discriminant, load its payload, branch on the discriminant. A native
// backend walks the IR; it never sees source-level generics.
package lower

import (
	"zen/internal/layout"
	"zen/internal/types"
)

// ValueID names a virtual register inside one function.
type ValueID uint32

// NoValue marks the absence of a value.
const NoValue ValueID = 0

// BlockID names a basic block inside one function.
type BlockID uint32

// NoBlock marks the absence of a block (e.g. an exhaustive switch has
// no default target).
const NoBlock BlockID = ^BlockID(0)

// Module is the lowered form of one compilation unit.
type Module struct {
	Unit  string
	Funcs []*Func

	// Layouts lists every tagged union defined for the backend, in
	// first-use order.
	Layouts []*layout.TaggedUnionLayout
}

// FindFunc returns a lowered function by its (possibly mangled) name.
func (m *Module) FindFunc(name string) (*Func, bool) {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Func is one lowered function. Generic specializations carry their
// instantiation key as the name, e.g. "id[i32]".
type Func struct {
	Name   string
	Params []FuncParam
	Result types.TypeID
	Blocks []Block

	nextValue ValueID
}

// FuncParam binds an incoming argument to a register.
type FuncParam struct {
	Name  string
	Type  types.TypeID
	Value ValueID
}

// Block is a basic block: instructions then exactly one terminator.
type Block struct {
	ID     BlockID
	Instrs []Instr
	Term   Terminator
}

// InstrKind enumerates IR instructions.
type InstrKind uint8

const (
	InstrInvalid InstrKind = iota
	// InstrConst materializes a literal.
	InstrConst
	// InstrConstructVariant builds a tagged-union value: stores the
	// discriminant and either an inline scalar or a pointer to a heap
	// allocation sized to the concrete payload type.
	InstrConstructVariant
	// InstrLoadDiscriminant reads the tag field.
	InstrLoadDiscriminant
	// InstrLoadPayload reinterprets the payload slot as a concrete
	// type: inline slots are read as the scalar itself, heap slots are
	// dereferenced through a pointer of the concrete type.
	InstrLoadPayload
	// InstrCoerce converts between primitive types at a control-flow
	// merge.
	InstrCoerce
	// InstrCopy moves a value into a pre-allocated register (the merge
	// register of a match).
	InstrCopy
	// InstrCall invokes a lowered function by name.
	InstrCall
)

// Instr is one IR instruction. Fields are populated per Kind.
type Instr struct {
	Kind InstrKind
	Dst  ValueID
	Type types.TypeID // static type of Dst

	Const Const // InstrConst

	Layout  *layout.TaggedUnionLayout // InstrConstructVariant
	Variant uint32                    // InstrConstructVariant

	Src ValueID // payload / source operand

	Callee string // InstrCall
	Args   []ValueID
}

// ConstKind enumerates literal kinds.
type ConstKind uint8

const (
	ConstUnit ConstKind = iota
	ConstInt
	ConstFloat
	ConstBool
	ConstString
)

// Const is a literal operand.
type Const struct {
	Kind  ConstKind
	Int   int64
	Float float64
	Bool  bool
	Str   string
}

// TermKind enumerates block terminators.
type TermKind uint8

const (
	TermInvalid TermKind = iota
	TermGoto
	TermReturn
	// TermBranchDisc dispatches on a previously loaded discriminant.
	TermBranchDisc
	TermUnreachable
)

// DiscCase routes one discriminant value to a block.
type DiscCase struct {
	Disc   uint32
	Target BlockID
}

// Terminator ends a basic block.
type Terminator struct {
	Kind    TermKind
	Target  BlockID    // TermGoto
	Value   ValueID    // TermReturn value / TermBranchDisc scrutinee
	Cases   []DiscCase // TermBranchDisc
	Default BlockID    // NoBlock when the dispatch is exhaustive
}

// Construction helpers -------------------------------------------------------

func newFunc(name string, result types.TypeID) *Func {
	return &Func{Name: name, Result: result, nextValue: NoValue}
}

func (f *Func) newValue() ValueID {
	f.nextValue++
	return f.nextValue
}

func (f *Func) newBlock() BlockID {
	id := BlockID(len(f.Blocks)) //nolint:gosec // block counts are small
	f.Blocks = append(f.Blocks, Block{ID: id})
	return id
}

func (f *Func) appendInstr(bb BlockID, instr Instr) {
	f.Blocks[bb].Instrs = append(f.Blocks[bb].Instrs, instr)
}

func (f *Func) setTerm(bb BlockID, term Terminator) {
	f.Blocks[bb].Term = term
}

// Block returns a block by ID.
func (f *Func) Block(bb BlockID) (*Block, bool) {
	if int(bb) >= len(f.Blocks) {
		return nil, false
	}
	return &f.Blocks[bb], true
}
