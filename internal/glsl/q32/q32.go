// Package q32 implements the Q16.16 fixed-point lowering pass: it rewrites
// the abstract float-arithmetic opcodes irbuild emitted (multiply, divide,
// the transcendental/clamp family, texture sampling) into calls against the
// fixed runtime helper functions spec.md §4.3/§4.9 names. Only the rvexec
// path runs it: codegen.Compile links the RV32 helpers in, while hostexec
// interprets the untransformed opcodes directly — so Transform itself
// only needs to pick the right callee name per opcode.
package q32

import (
	"math"

	"github.com/lightplayer/lightplayer/internal/glsl/ssa"
)

// FromFloat converts a float64 into its Q16.16 encoding (spec.md §4.3:
// `i32 = round(value * 65536)`), clamped to the representable range so the
// scaled value fits int32. Used to fold compile-time constants (both
// irbuild's GLSL float literals and codegen's runtime-helper constants,
// e.g. pi) the same way.
func FromFloat(v float64) int32 {
	const lo, hi = -32768.0, 32767.9999847412109375
	if v < lo {
		v = lo
	} else if v > hi {
		v = hi
	}
	return int32(math.Round(v * 65536))
}

// ToFloat converts a Q16.16-encoded int32 back to a float64.
func ToFloat(v int32) float64 { return float64(v) / 65536.0 }

// RuntimeFunctionNames lists every helper a linked object file must
// provide, in spec.md §4.3/§4.9's order.
var RuntimeFunctionNames = []string{
	"__lp_q32_mul", "__lp_q32_div", "__lp_q32_sqrt", "__lp_q32_sin",
	"__lp_q32_cos", "__lp_q32_tan", "__lp_q32_floor", "__lp_q32_ceil",
	"__lp_q32_fract", "__lp_q32_mod", "__lp_q32_min", "__lp_q32_max",
	"__lp_q32_clamp", "__lp_q32_mix", "__lp_q32_step", "__lp_q32_smoothstep",
	"__lp_sample",
}

var calleeFor = map[ssa.Opcode]string{
	ssa.OpFMulQ:       "__lp_q32_mul",
	ssa.OpFDivQ:       "__lp_q32_div",
	ssa.OpSqrt:        "__lp_q32_sqrt",
	ssa.OpSin:         "__lp_q32_sin",
	ssa.OpCos:         "__lp_q32_cos",
	ssa.OpTan:         "__lp_q32_tan",
	ssa.OpFloor:       "__lp_q32_floor",
	ssa.OpCeil:        "__lp_q32_ceil",
	ssa.OpFract:       "__lp_q32_fract",
	ssa.OpFMod:        "__lp_q32_mod",
	ssa.OpFMin:        "__lp_q32_min",
	ssa.OpFMax:        "__lp_q32_max",
	ssa.OpFClamp:      "__lp_q32_clamp",
	ssa.OpFMix:        "__lp_q32_mix",
	ssa.OpFStep:       "__lp_q32_step",
	ssa.OpFSmoothstep: "__lp_q32_smoothstep",
}

// Transform rewrites f in place, replacing every opcode in calleeFor (plus
// OpSample) with an OpCall to its runtime helper. Argument/result shape is
// unchanged, only the opcode and Callee field are rewritten, since each
// helper's C ABI mirrors the abstract op's arity exactly.
func Transform(f *ssa.Function) {
	for _, blk := range f.Blocks {
		for _, instr := range blk.Instrs {
			if name, ok := calleeFor[instr.Op]; ok {
				instr.Op = ssa.OpCall
				instr.Callee = name
			} else if instr.Op == ssa.OpSample {
				// Args are already (handle, u, v, channel); __lp_sample's
				// ABI matches one-for-one.
				instr.Op = ssa.OpCall
				instr.Callee = "__lp_sample"
			}
		}
	}
}
