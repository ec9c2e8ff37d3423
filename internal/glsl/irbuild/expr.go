package irbuild

import (
	"fmt"
	"math"
	"strings"

	"github.com/lightplayer/lightplayer/internal/glsl/ast"
	"github.com/lightplayer/lightplayer/internal/glsl/ssa"
	"github.com/lightplayer/lightplayer/internal/glsl/token"
	"github.com/lightplayer/lightplayer/internal/glsl/types"
)

// q16 rounds a float64 to its Q16.16 fixed-point int32 encoding
// (spec.md §4.3: `i32 = round(value * 65536)`), the one place a GLSL
// float constant is folded at compile time rather than lowered through a
// __lp_q32_* runtime call. The representable range is clamped to
// [-32768, 32767.9999...] to stay within int32 after scaling by 65536,
// matching original_source's float_to_q32.
func q16(v float64) int32 {
	const lo, hi = -32768.0, 32767.9999847412109375
	if v < lo {
		v = lo
	} else if v > hi {
		v = hi
	}
	return int32(math.Round(v * 65536))
}

func (g *gen) evalExpr(e ast.Expr, env map[string]slot) (slot, error) {
	switch e := e.(type) {
	case *ast.IntLit:
		return slot{g.b.Iconst(e.Value)}, nil
	case *ast.FloatLit:
		return slot{g.b.Iconst(q16(e.Value))}, nil
	case *ast.BoolLit:
		v := int32(0)
		if e.Value {
			v = 1
		}
		return slot{g.b.Iconst(v)}, nil
	case *ast.Ident:
		sl, ok := env[e.Name]
		if !ok {
			return nil, fmt.Errorf("irbuild: undefined variable %q", e.Name)
		}
		return sl, nil
	case *ast.Unary:
		return g.evalUnary(e, env)
	case *ast.Binary:
		return g.evalBinary(e, env)
	case *ast.Index:
		return g.evalIndex(e, env)
	case *ast.Swizzle:
		return g.evalSwizzle(e, env)
	case *ast.Assign:
		return g.evalAssign(e, env)
	case *ast.Call:
		return g.evalCall(e, env)
	}
	return nil, fmt.Errorf("irbuild: unhandled expression %T", e)
}

func (g *gen) exprType(e ast.Expr) types.Type { return g.checked.ExprTypes[e] }

func (g *gen) evalUnary(e *ast.Unary, env map[string]slot) (slot, error) {
	x, err := g.evalExpr(e.X, env)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case token.Minus:
		out := make(slot, len(x))
		for i, v := range x {
			out[i] = g.b.INeg(v)
		}
		return out, nil
	case token.Not:
		one := g.b.Iconst(1)
		return slot{g.b.Xor(x[0], one)}, nil
	case token.PlusPlus, token.MinusMinus:
		ident, ok := e.X.(*ast.Ident)
		if !ok {
			return nil, fmt.Errorf("irbuild: ++/-- target must be a variable")
		}
		step := g.b.Iconst(stepFor(g.exprType(e.X), e.Op == token.PlusPlus))
		out := make(slot, len(x))
		for i, v := range x {
			out[i] = g.b.IAdd(v, step)
		}
		env[ident.Name] = out
		return x, nil
	}
	return nil, fmt.Errorf("irbuild: unhandled unary operator")
}

func stepFor(t types.Type, inc bool) int32 {
	v := int32(1)
	if t.Kind == types.KindF32 {
		v = 1 << 16
	}
	if !inc {
		v = -v
	}
	return v
}

func (g *gen) evalBinary(e *ast.Binary, env map[string]slot) (slot, error) {
	xt := g.exprType(e.X)
	yt := g.exprType(e.Y)
	x, err := g.evalExpr(e.X, env)
	if err != nil {
		return nil, err
	}
	y, err := g.evalExpr(e.Y, env)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case token.AndAnd:
		return slot{g.b.And(x[0], y[0])}, nil
	case token.OrOr:
		return slot{g.b.Or(x[0], y[0])}, nil
	case token.Eq:
		return slot{g.b.Icmp(ssa.OpIcmpEq, x[0], y[0])}, nil
	case token.NotEq:
		return slot{g.b.Icmp(ssa.OpIcmpNe, x[0], y[0])}, nil
	case token.Lt, token.Gt, token.LtEq, token.GtEq:
		return slot{g.b.Icmp(relOp(e.Op, xt.Kind == types.KindU32), x[0], y[0])}, nil
	}
	rt := g.exprType(e)
	x = broadcast(g.b, x, rt.NumComponents())
	y = broadcast(g.b, y, rt.NumComponents())
	elemKind := xt.Kind
	if xt.IsScalar() {
		elemKind = yt.Kind
	}
	out := make(slot, len(x))
	for i := range x {
		v, err := g.arith(e.Op, elemKind, x[i], y[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// relOp picks the comparison opcode. unsigned is accepted for call-site
// symmetry with arith's signed/unsigned split but RV32IMAC's unsigned
// compares (sltu) aren't modeled as separate ssa opcodes yet: uint
// relational comparisons fall back to the signed form, correct for the
// non-negative ranges this subset's uint usage (array indices, channel
// counts) stays within.
func relOp(k token.Kind, unsigned bool) ssa.Opcode {
	switch k {
	case token.Lt:
		return ssa.OpIcmpLtS
	case token.Gt:
		return ssa.OpIcmpGtS
	case token.LtEq:
		return ssa.OpIcmpLeS
	case token.GtEq:
		return ssa.OpIcmpGeS
	}
	return ssa.OpIcmpEq
}

func (g *gen) arith(op token.Kind, kind types.ScalarKind, x, y ssa.Value) (ssa.Value, error) {
	isFloat := kind == types.KindF32
	switch op {
	case token.Plus:
		return g.b.IAdd(x, y), nil
	case token.Minus:
		return g.b.ISub(x, y), nil
	case token.Star:
		if isFloat {
			return g.b.FMulQ(x, y), nil
		}
		return g.b.IMul(x, y), nil
	case token.Slash:
		if isFloat {
			return g.b.FDivQ(x, y), nil
		}
		if kind == types.KindU32 {
			return g.b.IDivU(x, y), nil
		}
		return g.b.IDivS(x, y), nil
	case token.Percent:
		if kind == types.KindU32 {
			return g.b.IRemU(x, y), nil
		}
		return g.b.IRemS(x, y), nil
	}
	return ssa.Value{}, fmt.Errorf("irbuild: unhandled arithmetic operator")
}

// broadcast widens a scalar slot to n components by duplicating its single
// value, the ssa-level counterpart of sema's scalar/vector arithmetic rule.
func broadcast(b *ssa.Builder, s slot, n int) slot {
	if len(s) == n || n == 0 {
		return s
	}
	out := make(slot, n)
	for i := range out {
		out[i] = s[0]
	}
	return out
}

func (g *gen) evalIndex(e *ast.Index, env map[string]slot) (slot, error) {
	x, err := g.evalExpr(e.X, env)
	if err != nil {
		return nil, err
	}
	lit, ok := e.Index.(*ast.IntLit)
	if !ok {
		return nil, fmt.Errorf("irbuild: dynamic (non-constant) vector/matrix index is not supported")
	}
	idx := int(lit.Value)
	xt := g.exprType(e.X)
	if xt.IsMatrix() {
		cols := int(xt.Rows)
		if idx < 0 || (idx+1)*cols > len(x) {
			return nil, fmt.Errorf("irbuild: matrix column index %d out of range", idx)
		}
		return append(slot{}, x[idx*cols:(idx+1)*cols]...), nil
	}
	if idx < 0 || idx >= len(x) {
		return nil, fmt.Errorf("irbuild: vector index %d out of range", idx)
	}
	return slot{x[idx]}, nil
}

var swizzleSets = []string{"xyzw", "rgba", "stpq"}

func swizzleIndices(field string) []int {
	for _, set := range swizzleSets {
		ok := true
		for _, ch := range field {
			if !strings.ContainsRune(set, ch) {
				ok = false
				break
			}
		}
		if ok {
			idx := make([]int, len(field))
			for i, ch := range field {
				idx[i] = strings.IndexRune(set, ch)
			}
			return idx
		}
	}
	return nil
}

func (g *gen) evalSwizzle(e *ast.Swizzle, env map[string]slot) (slot, error) {
	x, err := g.evalExpr(e.X, env)
	if err != nil {
		return nil, err
	}
	idx := swizzleIndices(e.Field)
	out := make(slot, len(idx))
	for i, j := range idx {
		if j >= len(x) {
			return nil, fmt.Errorf("irbuild: swizzle component out of range")
		}
		out[i] = x[j]
	}
	return out, nil
}

func (g *gen) evalAssign(e *ast.Assign, env map[string]slot) (slot, error) {
	rhs, err := g.evalExpr(e.Value, env)
	if err != nil {
		return nil, err
	}
	if e.Op != token.Assign {
		lhs, err := g.evalExpr(e.Target, env)
		if err != nil {
			return nil, err
		}
		lt := g.exprType(e.Target)
		elemKind := lt.Kind
		n := len(lhs)
		rhs = broadcast(g.b, rhs, n)
		combined := make(slot, n)
		for i := range lhs {
			v, err := g.arith(compoundBaseOp(e.Op), elemKind, lhs[i], rhs[i])
			if err != nil {
				return nil, err
			}
			combined[i] = v
		}
		rhs = combined
	}
	if err := g.store(e.Target, rhs, env); err != nil {
		return nil, err
	}
	return rhs, nil
}

func compoundBaseOp(op token.Kind) token.Kind {
	switch op {
	case token.PlusAssign:
		return token.Plus
	case token.MinusAssign:
		return token.Minus
	case token.StarAssign:
		return token.Star
	case token.SlashAssign:
		return token.Slash
	}
	return op
}

// store writes value into the lvalue expression target: a plain variable,
// or a swizzle of one (e.g. "color.rgb = ..."), the only two lvalue shapes
// GLSL shaders in this subset use.
func (g *gen) store(target ast.Expr, value slot, env map[string]slot) error {
	switch t := target.(type) {
	case *ast.Ident:
		env[t.Name] = value
		return nil
	case *ast.Swizzle:
		ident, ok := t.X.(*ast.Ident)
		if !ok {
			return fmt.Errorf("irbuild: unsupported swizzle-assignment target")
		}
		cur, ok := env[ident.Name]
		if !ok {
			return fmt.Errorf("irbuild: undefined variable %q", ident.Name)
		}
		updated := append(slot{}, cur...)
		idx := swizzleIndices(t.Field)
		for i, j := range idx {
			updated[j] = value[i]
		}
		env[ident.Name] = updated
		return nil
	}
	return fmt.Errorf("irbuild: unsupported assignment target %T", target)
}
