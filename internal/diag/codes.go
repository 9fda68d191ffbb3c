package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Generic tracking / monomorphization (4xxx)
	GenInfo                Code = 4000
	GenConflict            Code = 4001 // site re-bound to different type arguments
	GenUnresolvedTypeParam Code = 4002 // monomorphization with an open type parameter
	GenUnknownDecl         Code = 4003
	GenArgCountMismatch    Code = 4004

	// Pattern matching (5xxx)
	MatchInfo            Code = 5000
	MatchNonExhaustive   Code = 5001
	MatchUnknownVariant  Code = 5002
	MatchArityMismatch   Code = 5003
	MatchArmTypeMismatch Code = 5004
	MatchNotAnEnum       Code = 5005

	// Lowering internals (6xxx)
	LowerInfo          Code = 6000
	LowerInternal      Code = 6001
	LowerUnknownName   Code = 6002
	LowerLayoutFailure Code = 6003
)

func (c Code) String() string {
	return fmt.Sprintf("ZEN%04d", uint16(c))
}
