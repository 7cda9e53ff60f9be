package codes

import "fmt"

// Code represents a jumbotrace diagnostic code.
type Code int

const (
	codeInvalid Code = iota

	JT001MissingPosition
	JT002MissingJumpTarget
	JT003UnnameableType
	JT004ShadowedResult
	JT005UnsupportedSwitch
	JT006MissingType
	JT100InvalidArgument
	JT101Inconsistency
	JT102Internal
)

// String returns the canonical code and short name.
// Example: "JT001: MissingPosition"
func (c Code) String() string {
	switch c {
	case JT001MissingPosition:
		return "JT001: MissingPosition"
	case JT002MissingJumpTarget:
		return "JT002: MissingJumpTarget"
	case JT003UnnameableType:
		return "JT003: UnnameableType"
	case JT004ShadowedResult:
		return "JT004: ShadowedResult"
	case JT005UnsupportedSwitch:
		return "JT005: UnsupportedSwitch"
	case JT006MissingType:
		return "JT006: MissingType"
	case JT100InvalidArgument:
		return "JT100: InvalidArgument"
	case JT101Inconsistency:
		return "JT101: Inconsistency"
	case JT102Internal:
		return "JT102: Internal"
	default:
		return fmt.Sprintf("code-unknown(%d)", c)
	}
}

// Description returns the human-readable explanation of the code.
func (c Code) Description() string {
	switch c {
	case JT001MissingPosition:
		return "Source position is unavailable, a placeholder location is used."
	case JT002MissingJumpTarget:
		return "Jump target cannot be resolved, a placeholder target is used."
	case JT003UnnameableType:
		return "Type cannot be spelled in this file, the construct is not traced."
	case JT004ShadowedResult:
		return "Named result is shadowed at return, the return value is not captured."
	case JT005UnsupportedSwitch:
		return "Switch selector cannot be wrapped, the switch is not traced."
	case JT006MissingType:
		return "Type information is absent for the construct, it is not traced."
	case JT100InvalidArgument:
		return "Synthetic node construction received an invalid argument."
	case JT101Inconsistency:
		return "Structural precondition of the transform does not hold."
	case JT102Internal:
		return "Unexpected internal failure."
	default:
		return fmt.Sprintf("unknown-code(%d)", c)
	}
}

// Fatal reports whether the code aborts processing of the unit.
func (c Code) Fatal() bool {
	return c >= JT100InvalidArgument
}

// Canonical constructors.

func MissingPosition() Code   { return JT001MissingPosition }
func MissingJumpTarget() Code { return JT002MissingJumpTarget }
func UnnameableType() Code    { return JT003UnnameableType }
func ShadowedResult() Code    { return JT004ShadowedResult }
func UnsupportedSwitch() Code { return JT005UnsupportedSwitch }
func MissingType() Code       { return JT006MissingType }
func InvalidArgument() Code   { return JT100InvalidArgument }
func Inconsistency() Code     { return JT101Inconsistency }
func Internal() Code          { return JT102Internal }
