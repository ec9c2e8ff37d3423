package sema

import "github.com/lightplayer/lightplayer/internal/glsl/types"

// builtinSignatures seeds the function table with the scalar form of every
// intrinsic spec.md §4.3 lowers to a __lp_q32_* runtime call (sqrt, the trig
// family, min/max/clamp/mix/step/smoothstep/mod/floor/ceil/fract). checkCall
// additionally accepts a component-wise vector form of any name in
// elementwiseBuiltins, matching GLSL's built-in overload rules, so the table
// below only needs to record the scalar signature once per name.
func builtinSignatures() map[string]types.FunctionSignature {
	f := types.Float
	sig := func(name string, params ...types.Type) types.FunctionSignature {
		return types.FunctionSignature{Name: name, Params: params, Ret: f}
	}
	sigs := map[string]types.FunctionSignature{
		"sqrt":       sig("sqrt", f),
		"sin":        sig("sin", f),
		"cos":        sig("cos", f),
		"tan":        sig("tan", f),
		"floor":      sig("floor", f),
		"ceil":       sig("ceil", f),
		"fract":      sig("fract", f),
		"abs":        sig("abs", f),
		"min":        sig("min", f, f),
		"max":        sig("max", f, f),
		"mod":        sig("mod", f, f),
		"step":       sig("step", f, f),
		"pow":        sig("pow", f, f),
		"clamp":      sig("clamp", f, f, f),
		"mix":        sig("mix", f, f, f),
		"smoothstep": sig("smoothstep", f, f, f),
	}
	sigs["texture"] = types.FunctionSignature{
		Name:   "texture",
		Params: []types.Type{types.Int, types.Vector(types.KindF32, 2)},
		Ret:    types.Vector(types.KindF32, 4),
	}
	return sigs
}

// elementwiseBuiltins names the intrinsics that, in addition to their scalar
// form above, also accept same-arity vector arguments applied component-wise
// (e.g. clamp(vec3, vec3, vec3) -> vec3), per standard GLSL overload rules.
var elementwiseBuiltins = map[string]bool{
	"sqrt": true, "sin": true, "cos": true, "tan": true,
	"floor": true, "ceil": true, "fract": true, "abs": true,
	"min": true, "max": true, "mod": true, "step": true, "pow": true,
	"clamp": true, "mix": true, "smoothstep": true,
}

// constructorNames lists the scalar/vector/matrix type names usable as constructor
// calls (vec3(...) etc); checkConstructor validates argument component counts sum
// to the target's NumComponents, GLSL's usual constructor rule.
var constructorNames = map[string]bool{
	"vec2": true, "vec3": true, "vec4": true,
	"ivec2": true, "ivec3": true, "ivec4": true,
	"uvec2": true, "uvec3": true, "uvec4": true,
	"bvec2": true, "bvec3": true, "bvec4": true,
	"mat2": true, "mat3": true, "mat4": true,
	"int": true, "uint": true, "float": true, "bool": true,
}
