package sema

import (
	"fmt"

	"github.com/lightplayer/lightplayer/internal/glsl/ast"
	"github.com/lightplayer/lightplayer/internal/glsl/types"
)

func (c *checker) checkCall(e *ast.Call, sc *scope) (types.Type, error) {
	c.recordLoc(e, e.Pos)
	argTypes := make([]types.Type, len(e.Args))
	for i, a := range e.Args {
		t, err := c.checkExpr(a, sc)
		if err != nil {
			return types.Type{}, err
		}
		argTypes[i] = t
	}
	if constructorNames[e.Callee] {
		return c.checkConstructor(e, argTypes)
	}
	sig, ok := c.sigs[e.Callee]
	if !ok {
		return types.Type{}, fmt.Errorf("glsl: call to undeclared function %q at %s", e.Callee, e.Pos)
	}
	if elementwiseBuiltins[e.Callee] && len(argTypes) > 0 && !argTypes[0].IsScalar() {
		return c.checkElementwise(e, sig, argTypes)
	}
	if len(argTypes) != len(sig.Params) {
		return types.Type{}, fmt.Errorf("glsl: %q expects %d argument(s), got %d at %s", e.Callee, len(sig.Params), len(argTypes), e.Pos)
	}
	for i, p := range sig.Params {
		if !argTypes[i].Equal(p) {
			return types.Type{}, fmt.Errorf("glsl: %q argument %d: expected %s, got %s at %s", e.Callee, i+1, p, argTypes[i], e.Pos)
		}
	}
	return c.setType(e, sig.Ret), nil
}

// checkElementwise validates a vector-broadcast builtin call: all arguments
// share one vector shape (scalars are allowed to broadcast), matching the
// base scalar signature's kind and arity.
func (c *checker) checkElementwise(e *ast.Call, sig types.FunctionSignature, argTypes []types.Type) (types.Type, error) {
	if len(argTypes) != len(sig.Params) {
		return types.Type{}, fmt.Errorf("glsl: %q expects %d argument(s), got %d at %s", e.Callee, len(sig.Params), len(argTypes), e.Pos)
	}
	var shape types.Type
	for _, t := range argTypes {
		if t.IsVector() {
			shape = t
			break
		}
	}
	for _, t := range argTypes {
		if t.IsScalar() {
			if t.Kind != types.KindF32 {
				return types.Type{}, fmt.Errorf("glsl: %q argument has incompatible kind %s at %s", e.Callee, t, e.Pos)
			}
			continue
		}
		if !t.Equal(shape) {
			return types.Type{}, fmt.Errorf("glsl: %q arguments have mismatched vector shapes at %s", e.Callee, e.Pos)
		}
	}
	return c.setType(e, shape), nil
}

// checkConstructor validates vec/ivec/uvec/bvec/mat/scalar constructor
// calls: either a single argument coercible to the target (truncation /
// broadcast) or a list of scalar/vector arguments whose component counts
// sum exactly to the target's component count, matching GLSL's usual
// constructor overload rules.
func (c *checker) checkConstructor(e *ast.Call, argTypes []types.Type) (types.Type, error) {
	target, err := resolveType(ast.TypeName{Name: e.Callee})
	if err != nil {
		return types.Type{}, err
	}
	if target.IsScalar() {
		if len(argTypes) != 1 || !argTypes[0].IsScalar() {
			return types.Type{}, fmt.Errorf("glsl: %s(...) takes one scalar argument at %s", e.Callee, e.Pos)
		}
		return c.setType(e, target), nil
	}
	if len(argTypes) == 1 {
		a := argTypes[0]
		if a.IsScalar() || a.NumComponents() == target.NumComponents() {
			return c.setType(e, target), nil
		}
	}
	total := 0
	for _, a := range argTypes {
		if !a.IsScalar() && !a.IsVector() {
			return types.Type{}, fmt.Errorf("glsl: invalid argument to %s(...) at %s", e.Callee, e.Pos)
		}
		total += a.NumComponents()
	}
	if total != target.NumComponents() {
		return types.Type{}, fmt.Errorf("glsl: %s(...) expects %d total components, got %d at %s", e.Callee, target.NumComponents(), total, e.Pos)
	}
	return c.setType(e, target), nil
}
