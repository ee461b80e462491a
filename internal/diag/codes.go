package diag

import (
	"fmt"
)

// Code identifies a diagnostic class. Ranges are reserved per phase so codes
// stay stable as new diagnostics are added.
type Code uint16

const (
	UnknownCode Code = 0

	// Input / HIR boundary (6xxx)
	HirInfo               Code = 6000
	HirBadPayload         Code = 6001
	HirUnsupportedPattern Code = 6002
	HirMissingType        Code = 6003
	HirCodecSchema        Code = 6004

	// Layout pre-pass (7xxx)
	LayoutInfo           Code = 7000
	LayoutUnknownType    Code = 7001
	LayoutUnknownField   Code = 7002
	LayoutUnsizedField   Code = 7003
	LayoutInlineCycle    Code = 7004
	LayoutDuplicateField Code = 7005

	// Emission (8xxx)
	EmitInfo                Code = 8000
	EmitUnsupportedType     Code = 8001
	EmitUnsupportedConstruct Code = 8002
	EmitUndeclaredName      Code = 8003
	EmitBreakOutside        Code = 8004
	EmitContinueOutside     Code = 8005
	EmitBranchTypeMismatch  Code = 8006
	EmitMissingCatchAll     Code = 8007
	EmitDeepFieldPath       Code = 8008
	EmitBadAssignTarget     Code = 8009

	// Assembly (9xxx)
	AsmInfo             Code = 9000
	AsmDanglingFunction Code = 9001
	AsmDanglingType     Code = 9002
	AsmDanglingGlobal   Code = 9003
	AsmDuplicateExport  Code = 9004
)

func (c Code) String() string {
	return fmt.Sprintf("E%04d", uint16(c))
}
