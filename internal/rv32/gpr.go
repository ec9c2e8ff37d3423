// Package rv32 implements a typed decode/encode model of the RV32IMAC
// instruction set (base I, M, A single-hart, C, and the Zba/Zbb/Zbs
// bit-manipulation subsets) used by the GLSL codegen and by the embedded
// emulator in internal/rv32/emu.
package rv32

import "fmt"

// Gpr is a general-purpose register index in 0..=31. x0 is wired to zero.
type Gpr uint8

// Num returns the underlying register index.
func (g Gpr) Num() uint8 { return uint8(g) }

func (g Gpr) String() string {
	if g == 0 {
		return "zero"
	}
	return fmt.Sprintf("x%d", uint8(g))
}

// IsZero reports whether g names the hardwired-zero register.
func (g Gpr) IsZero() bool { return g == 0 }
