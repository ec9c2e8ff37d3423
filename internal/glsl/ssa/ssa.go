// Package ssa implements a small Cranelift-style SSA intermediate
// representation: typed values, basic blocks with explicit block
// parameters (phi nodes represented as block arguments, as Cranelift and
// wazero's wazevo frontend do), and instructions carrying an opcode plus
// value arguments. internal/glsl/irbuild lowers a sema.Checked function
// into one ssa.Function; internal/glsl/q32 and internal/glsl/codegen
// consume it.
package ssa

import "fmt"

// Type is the IR-level value type: everything in this subset is a 32-bit
// scalar (Q16.16 fixed point, i.e. I32, stands in for GLSL float at this
// level; the q32 pass is what gives I32 values fixed-point semantics) or a
// raw pointer for struct-return/array addresses.
type Type int

const (
	I32 Type = iota
	Ptr
)

func (t Type) String() string {
	switch t {
	case I32:
		return "i32"
	case Ptr:
		return "ptr"
	}
	return "?"
}

// ValueID names an SSA value, unique within a Function.
type ValueID int

// BlockID names a basic block, unique within a Function.
type BlockID int

// Value is one SSA definition: either a block parameter or the result of
// an Instr.
type Value struct {
	ID   ValueID
	Type Type
}

func (v Value) String() string { return fmt.Sprintf("v%d", v.ID) }
