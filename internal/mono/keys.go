package mono

import (
	"fmt"
	"strings"

	"zen/internal/source"
	"zen/internal/types"
)

// KeyString renders the cross-tool stable instantiation key:
// <decl-name>[<arg1>,<arg2>,...] with each argument recursively
// formatted in the same bracketed form, e.g.
// "Result[Result[i32,string],string]". Debug symbol naming relies on
// this format being stable across recompilation.
func KeyString(typesIn *types.Interner, name source.StringID, args []types.TypeID) string {
	declName, ok := typesIn.Strings.Lookup(name)
	if !ok || declName == "" {
		declName = "?"
	}
	if len(args) == 0 {
		return declName
	}
	return declName + formatArgs(typesIn, args)
}

// formatArgs renders "[a,b,...]" for use inside instantiation keys.
func formatArgs(typesIn *types.Interner, args []types.TypeID) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, arg := range args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(typeKeyName(typesIn, arg))
	}
	b.WriteByte(']')
	return b.String()
}

// TypeKey renders any type in the key format: primitives by their
// short name, enum instances as full bracketed keys.
func TypeKey(typesIn *types.Interner, id types.TypeID) string {
	return typeKeyName(typesIn, id)
}

func typeKeyName(typesIn *types.Interner, id types.TypeID) string {
	tt, ok := typesIn.Lookup(id)
	if !ok {
		return "?"
	}
	switch tt.Kind {
	case types.KindUnit:
		return "unit"
	case types.KindBool:
		return "bool"
	case types.KindString:
		return "string"
	case types.KindInt, types.KindUint, types.KindFloat:
		return types.Label(typesIn, id)
	case types.KindPointer:
		return "*" + typeKeyName(typesIn, tt.Elem)
	case types.KindEnum:
		info, ok := typesIn.EnumInfo(id)
		if !ok || info == nil {
			return "?"
		}
		return KeyString(typesIn, info.Name, info.TypeArgs)
	case types.KindGenericParam:
		// Open parameters never reach code generation; the rendered
		// form is only for diagnostics.
		return "!" + types.Label(typesIn, id)
	default:
		return "?"
	}
}

// ParseKey parses the bracketed key format back into a declaration name
// and argument list, interning enum instances as needed. Used by debug
// tooling to resolve symbol names.
func ParseKey(typesIn *types.Interner, s string) (name source.StringID, args []types.TypeID, err error) {
	p := &keyParser{types: typesIn, input: s}
	id, err := p.parseType()
	if err != nil {
		return source.NoStringID, nil, err
	}
	if p.pos != len(p.input) {
		return source.NoStringID, nil, fmt.Errorf("trailing input at %d in %q", p.pos, s)
	}
	if info, ok := typesIn.EnumInfo(id); ok {
		return info.Name, info.TypeArgs, nil
	}
	// A bare primitive is a valid key with no arguments.
	return typesIn.Strings.Intern(typeKeyName(typesIn, id)), nil, nil
}

type keyParser struct {
	types *types.Interner
	input string
	pos   int
}

func (p *keyParser) parseType() (types.TypeID, error) {
	name := p.ident()
	if name == "" {
		return types.NoTypeID, fmt.Errorf("expected type name at %d in %q", p.pos, p.input)
	}
	if prim, ok := p.primitive(name); ok {
		return prim, nil
	}
	if p.pos >= len(p.input) || p.input[p.pos] != '[' {
		return types.NoTypeID, fmt.Errorf("unknown primitive %q in %q", name, p.input)
	}
	p.pos++ // '['
	var args []types.TypeID
	for {
		arg, err := p.parseType()
		if err != nil {
			return types.NoTypeID, err
		}
		args = append(args, arg)
		if p.pos >= len(p.input) {
			return types.NoTypeID, fmt.Errorf("unterminated argument list in %q", p.input)
		}
		if p.input[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.input[p.pos] == ']' {
			p.pos++
			break
		}
		return types.NoTypeID, fmt.Errorf("unexpected %q at %d in %q", p.input[p.pos], p.pos, p.input)
	}

	nameID := p.types.Strings.Intern(name)
	if existing, ok := p.types.FindEnumInstance(nameID, args); ok {
		return existing, nil
	}
	declType, ok := p.types.FindEnumDecl(nameID)
	if !ok {
		return types.NoTypeID, fmt.Errorf("unknown declaration %q in %q", name, p.input)
	}
	info, _ := p.types.EnumInfo(declType)
	if info == nil || len(info.TypeParams) != len(args) {
		return types.NoTypeID, fmt.Errorf("wrong argument count for %q in %q", name, p.input)
	}
	subst := NewSubst(p.types, info.TypeParams, args)
	inst := p.types.RegisterEnumInstance(nameID, info.Decl, args)
	variants := make([]types.EnumVariantInfo, len(info.Variants))
	copy(variants, info.Variants)
	for i := range variants {
		variants[i].Payload = subst.Type(variants[i].Payload)
	}
	p.types.SetEnumVariants(inst, variants)
	return inst, nil
}

func (p *keyParser) ident() string {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '[' || c == ']' || c == ',' {
			break
		}
		p.pos++
	}
	return p.input[start:p.pos]
}

func (p *keyParser) primitive(name string) (types.TypeID, bool) {
	b := p.types.Builtins()
	switch name {
	case "unit":
		return b.Unit, true
	case "bool":
		return b.Bool, true
	case "string":
		return b.String, true
	case "i8":
		return b.I8, true
	case "i16":
		return b.I16, true
	case "i32":
		return b.I32, true
	case "i64":
		return b.I64, true
	case "u32":
		return b.U32, true
	case "u64":
		return b.U64, true
	case "f32":
		return b.F32, true
	case "f64":
		return b.F64, true
	default:
		return types.NoTypeID, false
	}
}
