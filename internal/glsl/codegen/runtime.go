package codegen

import (
	"github.com/lightplayer/lightplayer/internal/glsl/diag"
	"github.com/lightplayer/lightplayer/internal/glsl/q32"
	"github.com/lightplayer/lightplayer/internal/glsl/ssa"
	"github.com/lightplayer/lightplayer/internal/glsl/types"
	"github.com/lightplayer/lightplayer/internal/rv32"
)

// runtimeFunctionLines returns the assembled (pre-lowering) line streams for
// every __lp_q32_*/__lp_sample helper spec.md §4.3/§4.9 names, keyed by bare
// function name. __lp_q32_mul and __lp_q32_div are hand-built raw RV32 (the
// only two ops needing the M-extension mul/mulh/div instructions directly
// plus a software long-division routine); __lp_sample is a thin ecall
// trampoline letting rvexec service texture reads in Go. Every other helper
// is an ordinary ssa.Function built with ssa.Builder and run through the
// same lowerFunction general codegen path as user shaders, so floor/ceil/
// clamp/mix/.../sin/cos/tan get exactly the same correctness story as the
// rest of the compiler rather than a second hand-written implementation.
func runtimeFunctionLines() (map[string][]line, error) {
	out := map[string][]line{
		"__lp_q32_mul": mulLines(),
		"__lp_q32_div": divLines(),
		"__lp_sample":  sampleLines(),
	}
	for _, f := range builtRuntimeFunctions() {
		lines, err := lowerFunction(f)
		if err != nil {
			return nil, err
		}
		out[f.Name] = lines
	}
	return out, nil
}

// mulLines computes a*b for two Q16.16 operands in a0,a1: the exact 64-bit
// signed product via mul/mulh, then an arithmetic-shift-right-16 of that
// 64-bit value reassembled from its two 32-bit halves.
func mulLines() []line {
	a := &asm{}
	a.defineLabel(funcLabel("__lp_q32_mul"))
	loc := diag.NoLoc
	// t0 = hi32(a0*a1), t1 = lo32(a0*a1)
	a.emit(rv32.Inst{Op: rv32.OpMulh, Rd: regT0, Rs1: argReg(0), Rs2: argReg(1), Size: 4}, loc)
	a.emit(rv32.Inst{Op: rv32.OpMul, Rd: regT1, Rs1: argReg(0), Rs2: argReg(1), Size: 4}, loc)
	// result = (hi<<16) | (lo>>16 logical)
	a.emit(rv32.Inst{Op: rv32.OpSrli, Rd: regT1, Rs1: regT1, Shamt: 16, Size: 4}, loc)
	a.emit(rv32.Inst{Op: rv32.OpSlli, Rd: regT0, Rs1: regT0, Shamt: 16, Size: 4}, loc)
	a.emit(rv32.Inst{Op: rv32.OpOr, Rd: argReg(0), Rs1: regT0, Rs2: regT1, Size: 4}, loc)
	a.emit(rv32.Inst{Op: rv32.OpJalr, Rd: regZero, Rs1: regRa, Imm: 0, Size: 4}, loc)
	return a.lines
}

// divLines computes a/b for two Q16.16 operands in a0,a1: a is widened to a
// 64-bit signed value shifted left 16 (so the division produces a Q16.16
// quotient directly), magnitudes are divided with a 64-by-32-bit binary
// restoring-division loop (the M extension has no 64-bit divide), and the
// sign is reapplied at the end. Division by zero returns all-ones (-1)
// without entering the loop, matching RISC-V div's own zero-divisor
// convention.
func divLines() []line {
	a := &asm{}
	a.defineLabel(funcLabel("__lp_q32_div"))
	loc := diag.NoLoc

	// signA = a0>>31 (all-ones if negative), absA = (a0 ^ signA) - signA.
	a.emit(rv32.Inst{Op: rv32.OpSrai, Rd: regT2, Rs1: argReg(0), Shamt: 31, Size: 4}, loc)
	a.emit(rv32.Inst{Op: rv32.OpXor, Rd: regT3, Rs1: argReg(0), Rs2: regT2, Size: 4}, loc)
	a.emit(rv32.Inst{Op: rv32.OpSub, Rd: regT3, Rs1: regT3, Rs2: regT2, Size: 4}, loc) // t3 = absA
	// signB = a1>>31, absB = (a1 ^ signB) - signB; t2 now reused for result sign.
	a.emit(rv32.Inst{Op: rv32.OpSrai, Rd: regT4, Rs1: argReg(1), Shamt: 31, Size: 4}, loc)
	a.emit(rv32.Inst{Op: rv32.OpXor, Rd: regT5, Rs1: argReg(1), Rs2: regT4, Size: 4}, loc)
	a.emit(rv32.Inst{Op: rv32.OpSub, Rd: regT5, Rs1: regT5, Rs2: regT4, Size: 4}, loc) // t5 = absB (divisor)
	a.emit(rv32.Inst{Op: rv32.OpXor, Rd: regT2, Rs1: regT2, Rs2: regT4, Size: 4}, loc)  // t2 = result sign mask

	// A zero divisor returns all-ones (-1) directly, before the sign step.
	nonZero := a.newLocalLabel("divNonZero")
	a.emitBranch(rv32.Inst{Op: rv32.OpBne, Rs1: regT5, Rs2: regZero, Size: 4}, nonZero, loc)
	a.emit(rv32.Inst{Op: rv32.OpAddi, Rd: argReg(0), Rs1: regZero, Imm: -1, Size: 4}, loc)
	a.emit(rv32.Inst{Op: rv32.OpJalr, Rd: regZero, Rs1: regRa, Imm: 0, Size: 4}, loc)
	a.defineLabel(nonZero)

	// Widen absA (t3) left by 16 into a 64-bit pair (hi=t0, lo=t1).
	a.emit(rv32.Inst{Op: rv32.OpSrli, Rd: regT0, Rs1: regT3, Shamt: 16, Size: 4}, loc)
	a.emit(rv32.Inst{Op: rv32.OpSlli, Rd: regT1, Rs1: regT3, Shamt: 16, Size: 4}, loc)

	// Restoring binary long division of the 64-bit (t0:t1) dividend by the
	// 32-bit divisor t5, 64 iterations, quotient accumulated in t4
	// (overflow bits shifted off the top are discarded, which is exactly
	// the low 32 bits of the true 64-bit quotient). t6 is the running
	// remainder, always < t5 so it never needs more than 32 bits.
	a.emit(rv32.Inst{Op: rv32.OpAddi, Rd: regT4, Rs1: regZero, Imm: 0, Size: 4}, loc) // q = 0
	a.emit(rv32.Inst{Op: rv32.OpAddi, Rd: regT6, Rs1: regZero, Imm: 0, Size: 4}, loc) // rem = 0
	a.emit(rv32.Inst{Op: rv32.OpAddi, Rd: argReg(2), Rs1: regZero, Imm: 64, Size: 4}, loc) // a2 = counter (scratch, restored by caller's reload)

	loopLbl := a.newLocalLabel("divLoop")
	doneLbl := a.newLocalLabel("divDone")
	a.defineLabel(loopLbl)
	a.emitBranch(rv32.Inst{Op: rv32.OpBeq, Rs1: argReg(2), Rs2: regZero, Size: 4}, doneLbl, loc)

	// carry = bit31 of hi (t0); shift the 64-bit pair left by 1.
	a.emit(rv32.Inst{Op: rv32.OpSrli, Rd: argReg(3), Rs1: regT0, Shamt: 31, Size: 4}, loc) // a3 = carry
	a.emit(rv32.Inst{Op: rv32.OpSlli, Rd: regT0, Rs1: regT0, Shamt: 1, Size: 4}, loc)
	a.emit(rv32.Inst{Op: rv32.OpSrli, Rd: argReg(4), Rs1: regT1, Shamt: 31, Size: 4}, loc) // a4 = lo's top bit
	a.emit(rv32.Inst{Op: rv32.OpOr, Rd: regT0, Rs1: regT0, Rs2: argReg(4), Size: 4}, loc)
	a.emit(rv32.Inst{Op: rv32.OpSlli, Rd: regT1, Rs1: regT1, Shamt: 1, Size: 4}, loc)

	// rem = (rem<<1) | carry
	a.emit(rv32.Inst{Op: rv32.OpSlli, Rd: regT6, Rs1: regT6, Shamt: 1, Size: 4}, loc)
	a.emit(rv32.Inst{Op: rv32.OpOr, Rd: regT6, Rs1: regT6, Rs2: argReg(3), Size: 4}, loc)

	// if rem >= d: rem -= d, quotient bit = 1, else quotient bit = 0.
	skipSub := a.newLocalLabel("divSkipSub")
	a.emit(rv32.Inst{Op: rv32.OpSltu, Rd: argReg(3), Rs1: regT6, Rs2: regT5, Size: 4}, loc) // a3 = rem<d
	a.emitBranch(rv32.Inst{Op: rv32.OpBne, Rs1: argReg(3), Rs2: regZero, Size: 4}, skipSub, loc)
	a.emit(rv32.Inst{Op: rv32.OpSub, Rd: regT6, Rs1: regT6, Rs2: regT5, Size: 4}, loc)
	a.emit(rv32.Inst{Op: rv32.OpSlli, Rd: regT4, Rs1: regT4, Shamt: 1, Size: 4}, loc)
	a.emit(rv32.Inst{Op: rv32.OpOri, Rd: regT4, Rs1: regT4, Imm: 1, Size: 4}, loc)
	endIter := a.newLocalLabel("divEndIter")
	a.emitBranch(rv32.Inst{Op: rv32.OpJal, Rd: regZero, Size: 4}, endIter, loc)
	a.defineLabel(skipSub)
	a.emit(rv32.Inst{Op: rv32.OpSlli, Rd: regT4, Rs1: regT4, Shamt: 1, Size: 4}, loc)
	a.defineLabel(endIter)

	a.emit(rv32.Inst{Op: rv32.OpAddi, Rd: argReg(2), Rs1: argReg(2), Imm: -1, Size: 4}, loc)
	a.emitBranch(rv32.Inst{Op: rv32.OpJal, Rd: regZero, Size: 4}, loopLbl, loc)
	a.defineLabel(doneLbl)

	// Reapply the sign: if t2 (signA xor signB) is all-ones, negate q.
	keepSign := a.newLocalLabel("divKeepSign")
	a.emitBranch(rv32.Inst{Op: rv32.OpBeq, Rs1: regT2, Rs2: regZero, Size: 4}, keepSign, loc)
	a.emit(rv32.Inst{Op: rv32.OpSub, Rd: regT4, Rs1: regZero, Rs2: regT4, Size: 4}, loc)
	a.defineLabel(keepSign)
	a.emit(rv32.Inst{Op: rv32.OpAddi, Rd: argReg(0), Rs1: regT4, Imm: 0, Size: 4}, loc)
	a.emit(rv32.Inst{Op: rv32.OpJalr, Rd: regZero, Rs1: regRa, Imm: 0, Size: 4}, loc)
	return a.lines
}

// sampleLines marshals (handle, u, v, channel) already sitting in a0..a3
// into an ecall; rvexec's Hart.SyscallHandler reads those registers,
// samples the requested texture's pixel buffer, and writes the Q16.16
// channel value back into a0 before Run resumes at the following
// instruction (spec.md §4.9).
func sampleLines() []line {
	a := &asm{}
	a.defineLabel(funcLabel("__lp_sample"))
	loc := diag.NoLoc
	a.emit(rv32.Inst{Op: rv32.OpEcall, Size: 4}, loc)
	a.emit(rv32.Inst{Op: rv32.OpJalr, Rd: regZero, Rs1: regRa, Imm: 0, Size: 4}, loc)
	return a.lines
}

// runtimeBuilder is a small wrapper streamlining the construction of a
// fixed-arity Q16.16 helper function with ssa.Builder, mirroring irbuild's
// gen but without GLSL source to walk.
type runtimeBuilder struct {
	f *ssa.Function
	b *ssa.Builder
}

func newRuntimeFunc(name string, arity int) (*runtimeBuilder, []ssa.Value) {
	sig := types.Signature{}
	for i := 0; i < arity; i++ {
		sig.Params = append(sig.Params, types.IrParam{Type: types.IrF32})
	}
	sig.Returns = []types.IrType{types.IrF32}
	f := ssa.NewFunction(name, sig)
	entry := f.NewBlock()
	f.Entry = entry.ID
	b := ssa.NewBuilder(f)
	b.SetBlock(entry)
	args := make([]ssa.Value, arity)
	for i := range args {
		args[i] = entry.AddParam(f, ssa.I32)
	}
	return &runtimeBuilder{f: f, b: b}, args
}

func (r *runtimeBuilder) call(callee string, args ...ssa.Value) ssa.Value {
	return r.b.Call(callee, args, []ssa.Type{ssa.I32})[0]
}

func (r *runtimeBuilder) mul(x, y ssa.Value) ssa.Value { return r.call("__lp_q32_mul", x, y) }
func (r *runtimeBuilder) div(x, y ssa.Value) ssa.Value { return r.call("__lp_q32_div", x, y) }

func (r *runtimeBuilder) fconst(v float64) ssa.Value { return r.b.Iconst(q32.FromFloat(v)) }

const maskHigh16 int32 = -65536 // 0xFFFF0000, two's-complement -65536
const oneQ16 int32 = 65536

func builtRuntimeFunctions() []*ssa.Function {
	return []*ssa.Function{
		floorFunc(), ceilFunc(), fractFunc(), modFunc(),
		minFunc(), maxFunc(), clampFunc(), mixFunc(), stepFunc(), smoothstepFunc(),
		sqrtFunc(), sinFunc(), cosFunc(), tanFunc(),
	}
}

// floor(x) = x & 0xFFFF0000: clearing the fractional bits of a two's
// complement Q16.16 value always rounds toward -inf, regardless of sign.
func floorFunc() *ssa.Function {
	r, args := newRuntimeFunc("__lp_q32_floor", 1)
	mask := r.b.Iconst(maskHigh16)
	r.b.Return(r.b.And(args[0], mask))
	return r.f
}

// ceil(x) = -floor(-x).
func ceilFunc() *ssa.Function {
	r, args := newRuntimeFunc("__lp_q32_ceil", 1)
	mask := r.b.Iconst(maskHigh16)
	neg := r.b.INeg(args[0])
	floored := r.b.And(neg, mask)
	r.b.Return(r.b.INeg(floored))
	return r.f
}

// fract(x) = x - floor(x), which is exactly x's low 16 bits as a
// nonnegative Q16.16 fraction in [0, 1).
func fractFunc() *ssa.Function {
	r, args := newRuntimeFunc("__lp_q32_fract", 1)
	mask := r.b.Iconst(0xFFFF)
	r.b.Return(r.b.And(args[0], mask))
	return r.f
}

// mod(x, y) = x - y*floor(x/y).
func modFunc() *ssa.Function {
	r, args := newRuntimeFunc("__lp_q32_mod", 2)
	x, y := args[0], args[1]
	q := r.div(x, y)
	mask := r.b.Iconst(maskHigh16)
	fl := r.b.And(q, mask)
	p := r.mul(y, fl)
	r.b.Return(r.b.ISub(x, p))
	return r.f
}

func minFunc() *ssa.Function {
	r, args := newRuntimeFunc("__lp_q32_min", 2)
	cond := r.b.Icmp(ssa.OpIcmpLtS, args[0], args[1])
	r.b.Return(r.b.Select(cond, args[0], args[1]))
	return r.f
}

func maxFunc() *ssa.Function {
	r, args := newRuntimeFunc("__lp_q32_max", 2)
	cond := r.b.Icmp(ssa.OpIcmpGtS, args[0], args[1])
	r.b.Return(r.b.Select(cond, args[0], args[1]))
	return r.f
}

// clamp(x, lo, hi) = min(max(x, lo), hi).
func clampFunc() *ssa.Function {
	r, args := newRuntimeFunc("__lp_q32_clamp", 3)
	x, lo, hi := args[0], args[1], args[2]
	maxCond := r.b.Icmp(ssa.OpIcmpGtS, x, lo)
	hiOfLo := r.b.Select(maxCond, x, lo)
	minCond := r.b.Icmp(ssa.OpIcmpLtS, hiOfLo, hi)
	r.b.Return(r.b.Select(minCond, hiOfLo, hi))
	return r.f
}

// mix(x, y, t) = x + (y-x)*t.
func mixFunc() *ssa.Function {
	r, args := newRuntimeFunc("__lp_q32_mix", 3)
	x, y, t := args[0], args[1], args[2]
	delta := r.b.ISub(y, x)
	r.b.Return(r.b.IAdd(x, r.mul(delta, t)))
	return r.f
}

// step(edge, x) = x < edge ? 0.0 : 1.0.
func stepFunc() *ssa.Function {
	r, args := newRuntimeFunc("__lp_q32_step", 2)
	edge, x := args[0], args[1]
	cond := r.b.Icmp(ssa.OpIcmpLtS, x, edge)
	r.b.Return(r.b.Select(cond, r.b.Iconst(0), r.b.Iconst(oneQ16)))
	return r.f
}

// smoothstep(edge0, edge1, x): t = clamp((x-edge0)/(edge1-edge0), 0, 1);
// return t*t*(3-2t).
func smoothstepFunc() *ssa.Function {
	r, args := newRuntimeFunc("__lp_q32_smoothstep", 3)
	edge0, edge1, x := args[0], args[1], args[2]
	num := r.b.ISub(x, edge0)
	den := r.b.ISub(edge1, edge0)
	raw := r.div(num, den)
	t := r.call("__lp_q32_clamp", raw, r.b.Iconst(0), r.b.Iconst(oneQ16))
	tt := r.mul(t, t)
	twoT := r.mul(r.b.Iconst(2*oneQ16), t)
	threeMinus2t := r.b.ISub(r.b.Iconst(3*oneQ16), twoT)
	r.b.Return(r.mul(tt, threeMinus2t))
	return r.f
}

// sqrtFunc implements Newton's method in fixed point: returns 0 for x<=0,
// otherwise refines an initial guess of x itself over a fixed number of
// iterations (guess = (guess + x/guess) / 2). The iteration count is fixed
// rather than convergence-checked since the IR has no loop-with-early-exit
// primitive convenient to build by hand here; 12 iterations converges any
// representable Q16.16 magnitude to within one ULP.
func sqrtFunc() *ssa.Function {
	r, args := newRuntimeFunc("__lp_q32_sqrt", 1)
	x := args[0]
	f := r.f

	posBlk := f.NewBlock()
	zeroBlk := f.NewBlock()
	cond := r.b.Icmp(ssa.OpIcmpGtS, x, r.b.Iconst(0))
	r.b.Brnz(cond, posBlk.ID)
	r.b.Jump(zeroBlk.ID)

	r.b.SetBlock(zeroBlk)
	r.b.Return(r.b.Iconst(0))

	r.b.SetBlock(posBlk)
	guess := x
	const iterations = 12
	for i := 0; i < iterations; i++ {
		quot := r.div(x, guess)
		sum := r.b.IAdd(guess, quot)
		guess = r.b.ShrS(sum, r.b.Iconst(1))
	}
	r.b.Return(guess)
	return f
}

// sinFunc implements Bhaskara I's rational sine approximation after
// reducing x into [0, pi] with a quadrant sign flip:
// sin(t) ~= 16*t*(pi-t) / (5*pi^2 - 4*t*(pi-t)) for t in [0, pi].
func sinFunc() *ssa.Function {
	r, args := newRuntimeFunc("__lp_q32_sin", 1)
	x := args[0]
	f := r.f

	piC := r.fconst(piConst)
	twoPiC := r.fconst(2 * piConst)
	fivePiSqC := r.fconst(5 * piConst * piConst)
	sixteenC := r.fconst(16)
	fourC := r.fconst(4)

	xm := r.call("__lp_q32_mod", x, twoPiC)

	negBlk := f.NewBlock()
	posBlk := f.NewBlock()
	mergeBlk := f.NewBlock()
	signParam := mergeBlk.AddParam(f, ssa.I32)
	tParam := mergeBlk.AddParam(f, ssa.I32)

	overHalf := r.b.Icmp(ssa.OpIcmpGtS, xm, piC)
	r.b.Brnz(overHalf, negBlk.ID)
	r.b.Jump(posBlk.ID)

	r.b.SetBlock(negBlk)
	r.b.Jump(mergeBlk.ID, r.b.Iconst(-oneQ16), r.b.ISub(xm, piC))

	r.b.SetBlock(posBlk)
	r.b.Jump(mergeBlk.ID, r.b.Iconst(oneQ16), xm)

	r.b.SetBlock(mergeBlk)
	t := tParam
	piMinusT := r.b.ISub(piC, t)
	prod := r.mul(t, piMinusT)
	num := r.mul(sixteenC, prod)
	den := r.b.ISub(fivePiSqC, r.mul(fourC, prod))
	frac := r.div(num, den)
	r.b.Return(r.mul(frac, signParam))
	return f
}

const piConst = 3.14159265358979323846

// cosFunc reuses sin via the standard phase shift: cos(x) = sin(x + pi/2).
func cosFunc() *ssa.Function {
	r, args := newRuntimeFunc("__lp_q32_cos", 1)
	halfPi := r.fconst(piConst / 2)
	shifted := r.b.IAdd(args[0], halfPi)
	r.b.Return(r.call("__lp_q32_sin", shifted))
	return r.f
}

// tanFunc divides sin by cos; callers relying on tan near its poles inherit
// __lp_q32_div's zero-divisor saturation rather than a trap.
func tanFunc() *ssa.Function {
	r, args := newRuntimeFunc("__lp_q32_tan", 1)
	s := r.call("__lp_q32_sin", args[0])
	c := r.call("__lp_q32_cos", args[0])
	r.b.Return(r.div(s, c))
	return r.f
}
