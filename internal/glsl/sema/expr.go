package sema

import (
	"fmt"
	"strings"

	"github.com/lightplayer/lightplayer/internal/glsl/ast"
	"github.com/lightplayer/lightplayer/internal/glsl/token"
	"github.com/lightplayer/lightplayer/internal/glsl/types"
)

func (c *checker) checkExpr(e ast.Expr, sc *scope) (types.Type, error) {
	switch e := e.(type) {
	case *ast.IntLit:
		c.recordLoc(e, e.Pos)
		return c.setType(e, types.Int), nil
	case *ast.FloatLit:
		c.recordLoc(e, e.Pos)
		return c.setType(e, types.Float), nil
	case *ast.BoolLit:
		c.recordLoc(e, e.Pos)
		return c.setType(e, types.Bool), nil
	case *ast.Ident:
		c.recordLoc(e, e.Pos)
		t, ok := sc.lookup(e.Name)
		if !ok {
			return types.Type{}, fmt.Errorf("glsl: undeclared identifier %q at %s", e.Name, e.Pos)
		}
		return c.setType(e, t), nil
	case *ast.Call:
		return c.checkCall(e, sc)
	case *ast.Unary:
		return c.checkUnary(e, sc)
	case *ast.Binary:
		return c.checkBinary(e, sc)
	case *ast.Index:
		return c.checkIndex(e, sc)
	case *ast.Swizzle:
		return c.checkSwizzle(e, sc)
	case *ast.Assign:
		return c.checkAssign(e, sc)
	}
	return types.Type{}, fmt.Errorf("glsl: unhandled expression %T", e)
}

func (c *checker) checkUnary(e *ast.Unary, sc *scope) (types.Type, error) {
	c.recordLoc(e, e.Pos)
	t, err := c.checkExpr(e.X, sc)
	if err != nil {
		return types.Type{}, err
	}
	switch e.Op {
	case token.Not:
		if !t.Equal(types.Bool) {
			return types.Type{}, fmt.Errorf("glsl: '!' requires bool, got %s at %s", t, e.Pos)
		}
	case token.Minus:
		if t.Kind == types.KindBool {
			return types.Type{}, fmt.Errorf("glsl: unary '-' invalid on bool at %s", e.Pos)
		}
	case token.PlusPlus, token.MinusMinus:
		if _, isIdent := e.X.(*ast.Ident); !isIdent {
			return types.Type{}, fmt.Errorf("glsl: ++/-- require an lvalue at %s", e.Pos)
		}
	}
	return c.setType(e, t), nil
}

func (c *checker) checkBinary(e *ast.Binary, sc *scope) (types.Type, error) {
	c.recordLoc(e, e.Pos)
	x, err := c.checkExpr(e.X, sc)
	if err != nil {
		return types.Type{}, err
	}
	y, err := c.checkExpr(e.Y, sc)
	if err != nil {
		return types.Type{}, err
	}
	switch e.Op {
	case token.AndAnd, token.OrOr:
		if !x.Equal(types.Bool) || !y.Equal(types.Bool) {
			return types.Type{}, fmt.Errorf("glsl: %s requires bool operands at %s", opName(e.Op), e.Pos)
		}
		return c.setType(e, types.Bool), nil
	case token.Eq, token.NotEq:
		if !x.Equal(y) {
			return types.Type{}, fmt.Errorf("glsl: cannot compare %s with %s at %s", x, y, e.Pos)
		}
		return c.setType(e, types.Bool), nil
	case token.Lt, token.Gt, token.LtEq, token.GtEq:
		if !x.IsScalar() || !y.IsScalar() || x.Kind == types.KindBool || !x.Equal(y) {
			return types.Type{}, fmt.Errorf("glsl: relational operator requires matching scalar numeric operands, got %s and %s at %s", x, y, e.Pos)
		}
		return c.setType(e, types.Bool), nil
	case token.Plus, token.Minus, token.Star, token.Slash, token.Percent:
		rt, err := arithResult(x, y, e.Op)
		if err != nil {
			return types.Type{}, fmt.Errorf("glsl: %w at %s", err, e.Pos)
		}
		return c.setType(e, rt), nil
	}
	return types.Type{}, fmt.Errorf("glsl: unhandled binary operator %s at %s", opName(e.Op), e.Pos)
}

// arithResult implements spec.md §4.3's arithmetic typing: matching scalar
// or vector types combine componentwise; a matrix or vector may be scaled
// by a scalar of the same element kind; mat*vec and mat*mat multiply.
func arithResult(x, y types.Type, op token.Kind) (types.Type, error) {
	if x.Kind == types.KindBool || y.Kind == types.KindBool {
		return types.Type{}, fmt.Errorf("cannot use bool in arithmetic (%s, %s)", x, y)
	}
	if x.Equal(y) {
		return x, nil
	}
	if op == token.Star {
		if x.IsMatrix() && y.IsVector() && x.Cols == y.Cols {
			return y, nil
		}
		if x.IsVector() && y.IsMatrix() && x.Cols == y.Cols {
			return x, nil
		}
		if x.IsScalar() && (y.IsVector() || y.IsMatrix()) && x.Kind == y.Kind {
			return y, nil
		}
		if y.IsScalar() && (x.IsVector() || x.IsMatrix()) && x.Kind == y.Kind {
			return x, nil
		}
	}
	if (op == token.Plus || op == token.Minus || op == token.Slash) && x.Kind == y.Kind {
		if x.IsScalar() && (y.IsVector() || y.IsMatrix()) {
			return y, nil
		}
		if y.IsScalar() && (x.IsVector() || x.IsMatrix()) {
			return x, nil
		}
	}
	return types.Type{}, fmt.Errorf("incompatible operand types %s and %s", x, y)
}

func (c *checker) checkIndex(e *ast.Index, sc *scope) (types.Type, error) {
	c.recordLoc(e, e.Pos)
	xt, err := c.checkExpr(e.X, sc)
	if err != nil {
		return types.Type{}, err
	}
	it, err := c.checkExpr(e.Index, sc)
	if err != nil {
		return types.Type{}, err
	}
	if it.Kind != types.KindI32 && it.Kind != types.KindU32 || !it.IsScalar() {
		return types.Type{}, fmt.Errorf("glsl: index must be int or uint, got %s at %s", it, e.Pos)
	}
	if !xt.IsVector() && !xt.IsMatrix() {
		return types.Type{}, fmt.Errorf("glsl: cannot index %s at %s", xt, e.Pos)
	}
	elem := types.Scalar(xt.Kind)
	if xt.IsMatrix() {
		elem = types.Vector(types.KindF32, xt.Rows)
	}
	return c.setType(e, elem), nil
}

var swizzleSets = []string{"xyzw", "rgba", "stpq"}

func (c *checker) checkSwizzle(e *ast.Swizzle, sc *scope) (types.Type, error) {
	c.recordLoc(e, e.Pos)
	xt, err := c.checkExpr(e.X, sc)
	if err != nil {
		return types.Type{}, err
	}
	if !xt.IsVector() {
		return types.Type{}, fmt.Errorf("glsl: %q is not a vector, cannot swizzle %q at %s", xt, e.Field, e.Pos)
	}
	set := swizzleSetFor(e.Field)
	if set == "" {
		return types.Type{}, fmt.Errorf("glsl: %q is not a valid swizzle at %s", e.Field, e.Pos)
	}
	for _, ch := range e.Field {
		idx := strings.IndexRune(set, ch)
		if idx < 0 || idx >= int(xt.Cols) {
			return types.Type{}, fmt.Errorf("glsl: swizzle component %q out of range for %s at %s", string(ch), xt, e.Pos)
		}
	}
	n := len(e.Field)
	if n < 1 || n > 4 {
		return types.Type{}, fmt.Errorf("glsl: swizzle %q has invalid length at %s", e.Field, e.Pos)
	}
	var result types.Type
	if n == 1 {
		result = types.Scalar(xt.Kind)
	} else {
		result = types.Vector(xt.Kind, uint8(n))
	}
	return c.setType(e, result), nil
}

func swizzleSetFor(field string) string {
	for _, set := range swizzleSets {
		allIn := true
		for _, ch := range field {
			if !strings.ContainsRune(set, ch) {
				allIn = false
				break
			}
		}
		if allIn {
			return set
		}
	}
	return ""
}

func (c *checker) checkAssign(e *ast.Assign, sc *scope) (types.Type, error) {
	c.recordLoc(e, e.Pos)
	if ident, ok := e.Target.(*ast.Ident); ok && sc.isConst(ident.Name) {
		return types.Type{}, fmt.Errorf("glsl: cannot assign to const %q at %s", ident.Name, e.Pos)
	}
	lt, err := c.checkExpr(e.Target, sc)
	if err != nil {
		return types.Type{}, err
	}
	rt, err := c.checkExpr(e.Value, sc)
	if err != nil {
		return types.Type{}, err
	}
	if e.Op != token.Assign {
		if _, err := arithResult(lt, rt, compoundBaseOp(e.Op)); err != nil {
			return types.Type{}, fmt.Errorf("glsl: %w at %s", err, e.Pos)
		}
	} else if !lt.Equal(rt) {
		return types.Type{}, fmt.Errorf("glsl: cannot assign %s to %s at %s", rt, lt, e.Pos)
	}
	return c.setType(e, lt), nil
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

func opName(k token.Kind) string {
	switch k {
	case token.AndAnd:
		return "&&"
	case token.OrOr:
		return "||"
	default:
		return "operator"
	}
}
