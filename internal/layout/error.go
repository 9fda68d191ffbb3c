package layout

import (
	"fmt"

	"zen/internal/source"
	"zen/internal/types"
)

// ErrorKind enumerates layout computation failures.
type ErrorKind uint8

const (
	// ErrNotAnEnum indicates a layout query for a non-enum type.
	ErrNotAnEnum ErrorKind = iota + 1
	// ErrOpenParam indicates a variant payload still mentions a type
	// parameter at layout time.
	ErrOpenParam
)

// Error represents a failure during tagged-union layout computation.
type Error struct {
	Kind    ErrorKind
	Type    types.TypeID
	Variant source.StringID
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case ErrNotAnEnum:
		return fmt.Sprintf("layout requested for non-enum type#%d", e.Type)
	case ErrOpenParam:
		return fmt.Sprintf("variant payload of type#%d still has open type parameters", e.Type)
	default:
		return fmt.Sprintf("layout error kind=%d type#%d", e.Kind, e.Type)
	}
}
