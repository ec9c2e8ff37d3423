package hostexec

import (
	"fmt"
	"math"

	"github.com/lightplayer/lightplayer/internal/glsl/exec"
	"github.com/lightplayer/lightplayer/internal/glsl/q32"
	"github.com/lightplayer/lightplayer/internal/glsl/ssa"
)

// frame is one function invocation's mutable state: every SSA value's
// current word (indexed by ValueID, since irbuild numbers them densely
// from 0) plus the shared arena backing this call chain's Alloca/struct-
// return memory.
type frame struct {
	vals    []int32
	arena   *arena
	sampler exec.Sampler
}

// stepResult is what a compiled instruction reports back to the block
// walking loop: zero value means "fall through to the next instruction in
// this block"; a terminator sets exactly one of jump/ret.
type stepResult struct {
	jump    bool
	target  ssa.BlockID
	jumpVal []int32 // outgoing block-argument values, parallel to the target's Params

	ret    bool
	hasRet bool
	retVal int32
}

// opFunc is one compiled instruction: a closure capturing everything
// static about the instruction (immediate, callee name, value IDs) ahead
// of time, so the per-call interpreter loop only ever does a slice index
// and a function call per instruction — the same "compile once, run many"
// split wazero's interpreter-tier engine uses.
type opFunc func(fr *frame, call callFn) (stepResult, error)

// callFn invokes another compiled function by name (a user function or,
// pre-q32-transform, there are none of the __lp_q32_* runtime names in
// this IR — every abstract float op is interpreted directly instead, see
// compileInstr's Sqrt/Sin/... cases).
type callFn func(name string, args []int32, structDim int) (int32, []int32, error)

// compiledFunction is an ssa.Function's blocks, each reduced to a flat
// []opFunc; block params double as each block's phi-node home, materialized
// directly into fr.vals by the predecessor's jump/branch closure.
type compiledFunction struct {
	fn     *ssa.Function
	blocks map[ssa.BlockID][]opFunc
	nvals  int
}

func compileFunction(fn *ssa.Function) (*compiledFunction, error) {
	cf := &compiledFunction{fn: fn, blocks: map[ssa.BlockID][]opFunc{}}
	for _, blk := range fn.Blocks {
		ops := make([]opFunc, 0, len(blk.Instrs))
		for _, instr := range blk.Instrs {
			op, err := compileInstr(fn, instr)
			if err != nil {
				return nil, err
			}
			ops = append(ops, op)
			if instr.Result != nil && int(instr.Result.ID) >= cf.nvals {
				cf.nvals = int(instr.Result.ID) + 1
			}
		}
		cf.blocks[blk.ID] = ops
		for _, p := range blk.Params {
			if int(p.ID) >= cf.nvals {
				cf.nvals = int(p.ID) + 1
			}
		}
	}
	return cf, nil
}

// run executes cf starting at its entry block with fr.vals already seeded
// with the entry block's incoming parameters, returning the function's
// scalar return value (0/false if void).
func (cf *compiledFunction) run(fr *frame, call callFn) (int32, bool, error) {
	blk := cf.fn.Entry
	for {
		var res stepResult
		var transferred bool
		for _, op := range cf.blocks[blk] {
			var err error
			res, err = op(fr, call)
			if err != nil {
				return 0, false, err
			}
			// A taken Brz/Brnz (or an unconditional Jump/Return) ends this
			// block immediately: any instruction after it in the same
			// block's flat Instrs list (the fallthrough Jump codegen's
			// lower.go skip-label pattern relies on) must not execute, the
			// same way a real taken branch skips it in machine code.
			if res.jump || res.ret {
				transferred = true
				break
			}
		}
		if !transferred {
			return 0, false, fmt.Errorf("hostexec: block %d fell through without a terminator", blk)
		}
		if res.ret {
			return res.retVal, res.hasRet, nil
		}
		target := cf.fn.Block(res.target)
		for i, v := range res.jumpVal {
			fr.vals[target.Params[i].ID] = v
		}
		blk = res.target
	}
}

func cont() (stepResult, error) { return stepResult{}, nil }

func compileInstr(fn *ssa.Function, instr *ssa.Instr) (opFunc, error) {
	switch instr.Op {
	case ssa.OpIconst:
		v, res := int32(instr.Imm), instr.Result
		return func(fr *frame, _ callFn) (stepResult, error) {
			fr.vals[res.ID] = v
			return cont()
		}, nil

	case ssa.OpIAdd, ssa.OpISub, ssa.OpIMul, ssa.OpIDivS, ssa.OpIDivU,
		ssa.OpIRemS, ssa.OpIRemU, ssa.OpAnd, ssa.OpOr, ssa.OpXor,
		ssa.OpShl, ssa.OpShrS, ssa.OpShrU:
		return compileIntBinary(instr), nil

	case ssa.OpFMulQ:
		return compileQBinary(instr, func(a, b int32) int32 {
			return q32.FromFloat(q32.ToFloat(a) * q32.ToFloat(b))
		}), nil
	case ssa.OpFDivQ:
		return compileQBinary(instr, func(a, b int32) int32 {
			if b == 0 {
				return -1
			}
			return q32.FromFloat(q32.ToFloat(a) / q32.ToFloat(b))
		}), nil

	case ssa.OpINeg:
		a, res := instr.Args[0], instr.Result
		return func(fr *frame, _ callFn) (stepResult, error) {
			fr.vals[res.ID] = -fr.vals[a.ID]
			return cont()
		}, nil

	case ssa.OpIcmpEq, ssa.OpIcmpNe, ssa.OpIcmpLtS, ssa.OpIcmpLeS,
		ssa.OpIcmpGtS, ssa.OpIcmpGeS:
		return compileCompare(instr), nil

	case ssa.OpSqrt, ssa.OpSin, ssa.OpCos, ssa.OpTan, ssa.OpFloor,
		ssa.OpCeil, ssa.OpFract:
		return compileQUnary(instr), nil

	case ssa.OpFMod, ssa.OpFMin, ssa.OpFMax, ssa.OpFStep:
		return compileQBinary(instr, qBinaryOpFor(instr.Op)), nil

	case ssa.OpFClamp, ssa.OpFMix, ssa.OpFSmoothstep:
		return compileQTernary(instr), nil

	case ssa.OpSample:
		return compileSample(instr), nil

	case ssa.OpAlloca:
		size, res := int32(instr.Imm), instr.Result
		return func(fr *frame, _ callFn) (stepResult, error) {
			fr.vals[res.ID] = fr.arena.alloc(size)
			return cont()
		}, nil

	case ssa.OpLoad:
		a, res := instr.Args[0], instr.Result
		return func(fr *frame, _ callFn) (stepResult, error) {
			fr.vals[res.ID] = fr.arena.load32(fr.vals[a.ID])
			return cont()
		}, nil

	case ssa.OpStore:
		ptr, val := instr.Args[0], instr.Args[1]
		return func(fr *frame, _ callFn) (stepResult, error) {
			fr.arena.store32(fr.vals[ptr.ID], fr.vals[val.ID])
			return cont()
		}, nil

	case ssa.OpCall:
		return compileCall(instr), nil

	case ssa.OpJump:
		target := instr.Targets[0]
		args := instr.BlockArg[0]
		return func(fr *frame, _ callFn) (stepResult, error) {
			return stepResult{jump: true, target: target, jumpVal: readVals(fr, args)}, nil
		}, nil

	case ssa.OpBrz, ssa.OpBrnz:
		return compileCondBranch(instr), nil

	case ssa.OpReturn:
		if len(instr.Args) == 1 {
			a := instr.Args[0]
			return func(fr *frame, _ callFn) (stepResult, error) {
				return stepResult{ret: true, hasRet: true, retVal: fr.vals[a.ID]}, nil
			}, nil
		}
		return func(fr *frame, _ callFn) (stepResult, error) {
			return stepResult{ret: true}, nil
		}, nil

	case ssa.OpSelect:
		cond, t, f, res := instr.Args[0], instr.Args[1], instr.Args[2], instr.Result
		return func(fr *frame, _ callFn) (stepResult, error) {
			if fr.vals[cond.ID] != 0 {
				fr.vals[res.ID] = fr.vals[t.ID]
			} else {
				fr.vals[res.ID] = fr.vals[f.ID]
			}
			return cont()
		}, nil
	}
	return nil, fmt.Errorf("hostexec: function %s: unsupported opcode %s", fn.Name, instr.Op)
}

func readVals(fr *frame, vs []ssa.Value) []int32 {
	out := make([]int32, len(vs))
	for i, v := range vs {
		out[i] = fr.vals[v.ID]
	}
	return out
}

func compileIntBinary(instr *ssa.Instr) opFunc {
	a, b, res, op := instr.Args[0], instr.Args[1], instr.Result, instr.Op
	return func(fr *frame, _ callFn) (stepResult, error) {
		x, y := fr.vals[a.ID], fr.vals[b.ID]
		var r int32
		switch op {
		case ssa.OpIAdd:
			r = x + y
		case ssa.OpISub:
			r = x - y
		case ssa.OpIMul:
			r = x * y
		case ssa.OpIDivS:
			r = divS(x, y)
		case ssa.OpIDivU:
			r = int32(divU(uint32(x), uint32(y)))
		case ssa.OpIRemS:
			r = remS(x, y)
		case ssa.OpIRemU:
			r = int32(remU(uint32(x), uint32(y)))
		case ssa.OpAnd:
			r = x & y
		case ssa.OpOr:
			r = x | y
		case ssa.OpXor:
			r = x ^ y
		case ssa.OpShl:
			r = x << (uint32(y) & 31)
		case ssa.OpShrS:
			r = x >> (uint32(y) & 31)
		case ssa.OpShrU:
			r = int32(uint32(x) >> (uint32(y) & 31))
		}
		fr.vals[res.ID] = r
		return cont()
	}
}

// divS/remS/divU/remU mirror the RV32 div/rem tie-breaks (spec.md §4.2) so
// plain GLSL int/uint arithmetic behaves identically under either backend.
func divS(a, b int32) int32 {
	if b == 0 {
		return -1
	}
	if a == math.MinInt32 && b == -1 {
		return math.MinInt32
	}
	return a / b
}

func remS(a, b int32) int32 {
	if b == 0 {
		return a
	}
	if a == math.MinInt32 && b == -1 {
		return 0
	}
	return a % b
}

func divU(a, b uint32) uint32 {
	if b == 0 {
		return math.MaxUint32
	}
	return a / b
}

func remU(a, b uint32) uint32 {
	if b == 0 {
		return a
	}
	return a % b
}

func compileCompare(instr *ssa.Instr) opFunc {
	a, b, res, op := instr.Args[0], instr.Args[1], instr.Result, instr.Op
	return func(fr *frame, _ callFn) (stepResult, error) {
		x, y := fr.vals[a.ID], fr.vals[b.ID]
		var r bool
		switch op {
		case ssa.OpIcmpEq:
			r = x == y
		case ssa.OpIcmpNe:
			r = x != y
		case ssa.OpIcmpLtS:
			r = x < y
		case ssa.OpIcmpLeS:
			r = x <= y
		case ssa.OpIcmpGtS:
			r = x > y
		case ssa.OpIcmpGeS:
			r = x >= y
		}
		if r {
			fr.vals[res.ID] = 1
		} else {
			fr.vals[res.ID] = 0
		}
		return cont()
	}
}

func compileQUnary(instr *ssa.Instr) opFunc {
	a, res, op := instr.Args[0], instr.Result, instr.Op
	return func(fr *frame, _ callFn) (stepResult, error) {
		x := q32.ToFloat(fr.vals[a.ID])
		var y float64
		switch op {
		case ssa.OpSqrt:
			if x <= 0 {
				y = 0
			} else {
				y = math.Sqrt(x)
			}
		case ssa.OpSin:
			y = math.Sin(x)
		case ssa.OpCos:
			y = math.Cos(x)
		case ssa.OpTan:
			y = math.Tan(x)
		case ssa.OpFloor:
			y = math.Floor(x)
		case ssa.OpCeil:
			y = math.Ceil(x)
		case ssa.OpFract:
			y = x - math.Floor(x)
		}
		fr.vals[res.ID] = q32.FromFloat(y)
		return cont()
	}
}

func qBinaryOpFor(op ssa.Opcode) func(a, b int32) int32 {
	return func(a, b int32) int32 {
		x, y := q32.ToFloat(a), q32.ToFloat(b)
		var r float64
		switch op {
		case ssa.OpFMod:
			if y == 0 {
				r = 0
			} else {
				r = x - y*math.Floor(x/y)
			}
		case ssa.OpFMin:
			r = math.Min(x, y)
		case ssa.OpFMax:
			r = math.Max(x, y)
		case ssa.OpFStep: // step(edge, x)
			if y < x {
				r = 0
			} else {
				r = 1
			}
		}
		return q32.FromFloat(r)
	}
}

func compileQBinary(instr *ssa.Instr, f func(a, b int32) int32) opFunc {
	a, b, res := instr.Args[0], instr.Args[1], instr.Result
	return func(fr *frame, _ callFn) (stepResult, error) {
		fr.vals[res.ID] = f(fr.vals[a.ID], fr.vals[b.ID])
		return cont()
	}
}

func compileQTernary(instr *ssa.Instr) opFunc {
	x, y, z, res, op := instr.Args[0], instr.Args[1], instr.Args[2], instr.Result, instr.Op
	return func(fr *frame, _ callFn) (stepResult, error) {
		a, b, c := q32.ToFloat(fr.vals[x.ID]), q32.ToFloat(fr.vals[y.ID]), q32.ToFloat(fr.vals[z.ID])
		var r float64
		switch op {
		case ssa.OpFClamp: // clamp(x, lo, hi)
			r = math.Min(math.Max(a, b), c)
		case ssa.OpFMix: // mix(x, y, t)
			r = a + (b-a)*c
		case ssa.OpFSmoothstep: // smoothstep(edge0, edge1, x)
			t := (c - a) / (b - a)
			t = math.Min(math.Max(t, 0), 1)
			r = t * t * (3 - 2*t)
		}
		fr.vals[res.ID] = q32.FromFloat(r)
		return cont()
	}
}

func compileSample(instr *ssa.Instr) opFunc {
	handle, u, v, ch, res := instr.Args[0], instr.Args[1], instr.Args[2], instr.Args[3], instr.Result
	return func(fr *frame, _ callFn) (stepResult, error) {
		if fr.sampler == nil {
			fr.vals[res.ID] = 0
			return cont()
		}
		h := uint32(fr.vals[handle.ID])
		uf := float32(q32.ToFloat(fr.vals[u.ID]))
		vf := float32(q32.ToFloat(fr.vals[v.ID]))
		c := uint8(fr.vals[ch.ID])
		val, err := fr.sampler.Sample(h, uf, vf, c)
		if err != nil {
			return stepResult{}, err
		}
		fr.vals[res.ID] = q32.FromFloat(float64(val))
		return cont()
	}
}

func compileCall(instr *ssa.Instr) opFunc {
	callee := instr.Callee
	args := instr.Args
	res := instr.Result
	return func(fr *frame, call callFn) (stepResult, error) {
		words := readVals(fr, args)
		r, _, err := call(callee, words, 0)
		if err != nil {
			return stepResult{}, err
		}
		if res != nil {
			fr.vals[res.ID] = r
		}
		return cont()
	}
}

func compileCondBranch(instr *ssa.Instr) opFunc {
	cond := instr.Args[0]
	target := instr.Targets[0]
	args := instr.BlockArg[0]
	takeOnZero := instr.Op == ssa.OpBrz
	return func(fr *frame, _ callFn) (stepResult, error) {
		c := fr.vals[cond.ID] == 0
		if c == takeOnZero {
			return stepResult{jump: true, target: target, jumpVal: readVals(fr, args)}, nil
		}
		return cont()
	}
}
