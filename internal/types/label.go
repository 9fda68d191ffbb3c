package types

import (
	"strings"
)

// Label returns a user-friendly label for a TypeID, e.g. "Result<i32, string>".
func Label(typesIn *Interner, id TypeID) string {
	return labelDepth(typesIn, id, 0)
}

func labelDepth(typesIn *Interner, id TypeID, depth int) string {
	if id == NoTypeID || typesIn == nil {
		return "?"
	}
	if depth > 16 {
		return "..."
	}
	tt, ok := typesIn.Lookup(id)
	if !ok {
		return "?"
	}
	switch tt.Kind {
	case KindUnit:
		return "()"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindInt:
		return formatIntType(tt.Width, true)
	case KindUint:
		return formatIntType(tt.Width, false)
	case KindFloat:
		return formatFloatType(tt.Width)
	case KindPointer:
		return "*" + labelDepth(typesIn, tt.Elem, depth+1)
	case KindEnum:
		return formatEnumType(typesIn, id, depth)
	case KindGenericParam:
		if info, ok := typesIn.TypeParamInfo(id); ok && info != nil {
			if name, ok := typesIn.Strings.Lookup(info.Name); ok && name != "" {
				return name
			}
		}
		return "T"
	default:
		return "?"
	}
}

func formatEnumType(typesIn *Interner, id TypeID, depth int) string {
	info, ok := typesIn.EnumInfo(id)
	if !ok || info == nil {
		return "?"
	}
	name, ok := typesIn.Strings.Lookup(info.Name)
	if !ok || name == "" {
		name = "?"
	}
	args := info.TypeArgs
	if len(args) == 0 {
		args = info.TypeParams
	}
	if len(args) == 0 {
		return name
	}
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = labelDepth(typesIn, arg, depth+1)
	}
	return name + "<" + strings.Join(parts, ", ") + ">"
}

func formatIntType(width Width, signed bool) string {
	prefix := "i"
	if !signed {
		prefix = "u"
	}
	switch width {
	case Width8:
		return prefix + "8"
	case Width16:
		return prefix + "16"
	case Width32:
		return prefix + "32"
	case Width64:
		return prefix + "64"
	default:
		if signed {
			return "int"
		}
		return "uint"
	}
}

func formatFloatType(width Width) string {
	switch width {
	case Width32:
		return "f32"
	case Width64:
		return "f64"
	default:
		return "float"
	}
}
