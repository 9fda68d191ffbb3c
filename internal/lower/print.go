package lower

import (
	"fmt"
	"io"
	"strings"

	"zen/internal/types"
)

// Fprint writes a human-readable dump of a lowered module. The format
// is for debugging and golden tests; it is not a stable interchange
// format.
func Fprint(w io.Writer, typesIn *types.Interner, m *Module) error {
	if m == nil {
		_, err := fmt.Fprintln(w, "<nil module>")
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "unit %s\n", m.Unit)

	for _, lay := range m.Layouts {
		fmt.Fprintf(&b, "tagunion %s size=%d align=%d tag=%d payload@%d\n",
			lay.Key, lay.Size, lay.Align, lay.TagSize, lay.PayloadOffset)
		for i := range lay.Variants {
			v := &lay.Variants[i]
			name, _ := typesIn.Strings.Lookup(v.Name)
			if v.HasPayload {
				fmt.Fprintf(&b, "  %d %s payload=%s %s\n",
					v.Discriminant, name, types.Label(typesIn, v.Payload), v.Storage)
			} else {
				fmt.Fprintf(&b, "  %d %s\n", v.Discriminant, name)
			}
		}
	}

	for _, f := range m.Funcs {
		printFunc(&b, typesIn, f)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Sdump renders a module to a string.
func Sdump(typesIn *types.Interner, m *Module) string {
	var b strings.Builder
	_ = Fprint(&b, typesIn, m)
	return b.String()
}

func printFunc(b *strings.Builder, typesIn *types.Interner, f *Func) {
	fmt.Fprintf(b, "fn %s(", f.Name)
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%s v%d: %s", p.Name, p.Value, types.Label(typesIn, p.Type))
	}
	fmt.Fprintf(b, ") -> %s {\n", types.Label(typesIn, f.Result))

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		fmt.Fprintf(b, "bb%d:\n", bb.ID)
		for _, instr := range bb.Instrs {
			printInstr(b, typesIn, instr)
		}
		printTerm(b, bb.Term)
	}
	b.WriteString("}\n")
}

func printInstr(b *strings.Builder, typesIn *types.Interner, in Instr) {
	switch in.Kind {
	case InstrConst:
		fmt.Fprintf(b, "  v%d = const %s : %s\n", in.Dst, formatConst(in.Const), types.Label(typesIn, in.Type))
	case InstrConstructVariant:
		fmt.Fprintf(b, "  v%d = construct %s variant=%d", in.Dst, in.Layout.Key, in.Variant)
		if in.Src != NoValue {
			fmt.Fprintf(b, " payload=v%d", in.Src)
		}
		b.WriteByte('\n')
	case InstrLoadDiscriminant:
		fmt.Fprintf(b, "  v%d = disc v%d\n", in.Dst, in.Src)
	case InstrLoadPayload:
		fmt.Fprintf(b, "  v%d = payload v%d as %s\n", in.Dst, in.Src, types.Label(typesIn, in.Type))
	case InstrCoerce:
		fmt.Fprintf(b, "  v%d = coerce v%d to %s\n", in.Dst, in.Src, types.Label(typesIn, in.Type))
	case InstrCopy:
		fmt.Fprintf(b, "  v%d = v%d\n", in.Dst, in.Src)
	case InstrCall:
		fmt.Fprintf(b, "  v%d = call %s(", in.Dst, in.Callee)
		for i, a := range in.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "v%d", a)
		}
		b.WriteString(")\n")
	default:
		fmt.Fprintf(b, "  <invalid instr kind=%d>\n", in.Kind)
	}
}

func printTerm(b *strings.Builder, t Terminator) {
	switch t.Kind {
	case TermGoto:
		fmt.Fprintf(b, "  goto bb%d\n", t.Target)
	case TermReturn:
		if t.Value == NoValue {
			b.WriteString("  ret\n")
		} else {
			fmt.Fprintf(b, "  ret v%d\n", t.Value)
		}
	case TermBranchDisc:
		fmt.Fprintf(b, "  switch v%d [", t.Value)
		for i, c := range t.Cases {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "%d -> bb%d", c.Disc, c.Target)
		}
		b.WriteString("]")
		if t.Default != NoBlock {
			fmt.Fprintf(b, " default bb%d", t.Default)
		}
		b.WriteByte('\n')
	case TermUnreachable:
		b.WriteString("  unreachable\n")
	default:
		b.WriteString("  <no terminator>\n")
	}
}

func formatConst(c Const) string {
	switch c.Kind {
	case ConstUnit:
		return "unit"
	case ConstInt:
		return fmt.Sprintf("%d", c.Int)
	case ConstFloat:
		return fmt.Sprintf("%g", c.Float)
	case ConstBool:
		return fmt.Sprintf("%t", c.Bool)
	case ConstString:
		return fmt.Sprintf("%q", c.Str)
	default:
		return "<invalid const>"
	}
}
