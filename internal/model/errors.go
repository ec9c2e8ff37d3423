package model

import "fmt"

// ErrorKind enumerates the small, exhaustive error taxonomy of spec.md §7.
type ErrorKind int

const (
	ErrParse ErrorKind = iota
	ErrIo
	ErrInvalidConfig
	ErrNotFound
	ErrWrongNodeKind
	ErrTrap
	ErrIllegalInstruction
	ErrInstructionLimitExceeded
	ErrOther
)

// Error is the single sum-type error carried across the project runtime's
// boundary, following the teacher's enriched-error-on-propagation style
// (internal/rv32/emu.Trap is the richest member: PC + full register file).
type Error struct {
	Kind ErrorKind

	File    string // Parse
	Path    string // Io, NotFound
	Details string // Io

	NodePath string // InvalidConfig
	Reason   string // InvalidConfig

	Spec     string // WrongNodeKind
	Expected NodeKind
	Actual   NodeKind

	Code    uint32   // Trap
	PC      uint32   // Trap
	Regs    [32]uint32 // Trap
	SrcFile string   // Trap: resolved GLSL file
	SrcLine int      // Trap: resolved GLSL line

	Message string // Parse, Trap, Other
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrParse:
		return fmt.Sprintf("parse error in %s: %s", e.File, e.Message)
	case ErrIo:
		return fmt.Sprintf("io error at %s: %s", e.Path, e.Details)
	case ErrInvalidConfig:
		return fmt.Sprintf("invalid config for node %s: %s", e.NodePath, e.Reason)
	case ErrNotFound:
		return fmt.Sprintf("not found: %s", e.Path)
	case ErrWrongNodeKind:
		return fmt.Sprintf("%s: expected %s node, found %s", e.Spec, e.Expected, e.Actual)
	case ErrTrap:
		return fmt.Sprintf("trap(code=%d) at pc=%#08x (%s:%d): %s", e.Code, e.PC, e.SrcFile, e.SrcLine, e.Message)
	case ErrIllegalInstruction:
		return fmt.Sprintf("illegal instruction at pc=%#08x", e.PC)
	case ErrInstructionLimitExceeded:
		return "instruction limit exceeded"
	default:
		return e.Message
	}
}

func NotFound(path string) *Error {
	return &Error{Kind: ErrNotFound, Path: path}
}

func WrongNodeKind(spec string, expected, actual NodeKind) *Error {
	return &Error{Kind: ErrWrongNodeKind, Spec: spec, Expected: expected, Actual: actual}
}

func InvalidConfig(nodePath, reason string) *Error {
	return &Error{Kind: ErrInvalidConfig, NodePath: nodePath, Reason: reason}
}

func Other(format string, args ...any) *Error {
	return &Error{Kind: ErrOther, Message: fmt.Sprintf(format, args...)}
}

func IoError(path string, err error) *Error {
	return &Error{Kind: ErrIo, Path: path, Details: err.Error()}
}
