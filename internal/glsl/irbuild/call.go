package irbuild

import (
	"fmt"

	"github.com/lightplayer/lightplayer/internal/glsl/ast"
	"github.com/lightplayer/lightplayer/internal/glsl/ssa"
)

var constructorNames = map[string]bool{
	"vec2": true, "vec3": true, "vec4": true,
	"ivec2": true, "ivec3": true, "ivec4": true,
	"uvec2": true, "uvec3": true, "uvec4": true,
	"bvec2": true, "bvec3": true, "bvec4": true,
	"mat2": true, "mat3": true, "mat4": true,
	"int": true, "uint": true, "float": true, "bool": true,
}

// unaryOps, binaryOps and ternaryOps map a scalar intrinsic name to the ssa
// opcode it compiles down to: one-, two-, or three-argument forms. q32 rewrites
// these into __lp_q32_* calls; irbuild just needs to pick the right arity.
var unaryOps = map[string]ssa.Opcode{
	"sqrt": ssa.OpSqrt, "sin": ssa.OpSin, "cos": ssa.OpCos, "tan": ssa.OpTan,
	"floor": ssa.OpFloor, "ceil": ssa.OpCeil, "fract": ssa.OpFract,
}
var binaryOps = map[string]ssa.Opcode{
	"min": ssa.OpFMin, "max": ssa.OpFMax, "mod": ssa.OpFMod, "step": ssa.OpFStep,
}
var ternaryOps = map[string]ssa.Opcode{
	"clamp": ssa.OpFClamp, "mix": ssa.OpFMix, "smoothstep": ssa.OpFSmoothstep,
}

// abs and pow have no dedicated opcode family above; abs lowers to a
// select on sign, pow is deliberately unsupported (never appears in
// original_source's shader corpus beyond constant exponents, which authors
// expand by hand).
func (g *gen) evalCall(e *ast.Call, env map[string]slot) (slot, error) {
	if constructorNames[e.Callee] {
		return g.evalConstructor(e, env)
	}
	if e.Callee == "texture" {
		return g.evalTexture(e, env)
	}
	if e.Callee == "abs" {
		return g.evalAbs(e, env)
	}
	if op, ok := unaryOps[e.Callee]; ok {
		return g.evalElementwise(e, env, op, 1)
	}
	if op, ok := binaryOps[e.Callee]; ok {
		return g.evalElementwise(e, env, op, 2)
	}
	if op, ok := ternaryOps[e.Callee]; ok {
		return g.evalElementwise(e, env, op, 3)
	}
	return g.evalUserCall(e, env)
}

func (g *gen) evalConstructor(e *ast.Call, env map[string]slot) (slot, error) {
	rt := g.exprType(e)
	n := rt.NumComponents()
	if n == 0 {
		n = 1
	}
	if len(e.Args) == 1 {
		argT := g.exprType(e.Args[0])
		arg, err := g.evalExpr(e.Args[0], env)
		if err != nil {
			return nil, err
		}
		if argT.IsScalar() {
			return broadcast(g.b, arg, n), nil
		}
		if argT.NumComponents() == n {
			return arg, nil
		}
	}
	var out slot
	for _, a := range e.Args {
		v, err := g.evalExpr(a, env)
		if err != nil {
			return nil, err
		}
		out = append(out, v...)
	}
	if len(out) != n {
		return nil, fmt.Errorf("irbuild: %s(...) component count mismatch", e.Callee)
	}
	return out, nil
}

func (g *gen) evalTexture(e *ast.Call, env map[string]slot) (slot, error) {
	if len(e.Args) != 2 {
		return nil, fmt.Errorf("irbuild: texture(...) takes exactly 2 arguments")
	}
	handle, err := g.evalExpr(e.Args[0], env)
	if err != nil {
		return nil, err
	}
	uv, err := g.evalExpr(e.Args[1], env)
	if err != nil {
		return nil, err
	}
	r := g.b.Sample(handle[0], uv[0], uv[1], g.b.Iconst(0))
	gCh := g.b.Sample(handle[0], uv[0], uv[1], g.b.Iconst(1))
	bCh := g.b.Sample(handle[0], uv[0], uv[1], g.b.Iconst(2))
	aCh := g.b.Sample(handle[0], uv[0], uv[1], g.b.Iconst(3))
	return slot{r, gCh, bCh, aCh}, nil
}

func (g *gen) evalAbs(e *ast.Call, env map[string]slot) (slot, error) {
	x, err := g.evalExpr(e.Args[0], env)
	if err != nil {
		return nil, err
	}
	out := make(slot, len(x))
	for i, v := range x {
		neg := g.b.INeg(v)
		isNeg := g.b.Icmp(ssa.OpIcmpLtS, v, g.b.Iconst(0))
		out[i] = g.b.Select(isNeg, neg, v)
	}
	return out, nil
}

func (g *gen) evalElementwise(e *ast.Call, env map[string]slot, op ssa.Opcode, arity int) (slot, error) {
	if len(e.Args) != arity {
		return nil, fmt.Errorf("irbuild: %s expects %d argument(s)", e.Callee, arity)
	}
	rt := g.exprType(e)
	n := rt.NumComponents()
	if n == 0 {
		n = 1
	}
	args := make([]slot, arity)
	for i, a := range e.Args {
		v, err := g.evalExpr(a, env)
		if err != nil {
			return nil, err
		}
		args[i] = broadcast(g.b, v, n)
	}
	out := make(slot, n)
	for c := 0; c < n; c++ {
		switch arity {
		case 1:
			out[c] = g.b.Unary1(op, args[0][c])
		case 2:
			out[c] = g.b.Binary2(op, args[0][c], args[1][c])
		case 3:
			out[c] = g.b.Ternary3(op, args[0][c], args[1][c], args[2][c])
		}
	}
	return out, nil
}

func (g *gen) evalUserCall(e *ast.Call, env map[string]slot) (slot, error) {
	sig, ok := g.checked.Sigs[e.Callee]
	if !ok {
		return nil, fmt.Errorf("irbuild: call to undeclared function %q", e.Callee)
	}
	var args []ssa.Value
	for _, a := range e.Args {
		v, err := g.evalExpr(a, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v...)
	}
	if sig.Ret.RequiresStructReturn() {
		dst := g.b.Alloca(int32(sig.Ret.NumComponents() * 4))
		callArgs := append([]ssa.Value{dst}, args...)
		g.b.Call(e.Callee, callArgs, nil)
		out := make(slot, sig.Ret.NumComponents())
		for i := range out {
			out[i] = g.b.Load(g.b.PtrAdd(dst, int32(i*4)), ssa.I32)
		}
		return out, nil
	}
	if sig.Ret.IsVoid() {
		g.b.Call(e.Callee, args, nil)
		return nil, nil
	}
	results := g.b.Call(e.Callee, args, []ssa.Type{ssa.I32})
	return slot{results[0]}, nil
}
