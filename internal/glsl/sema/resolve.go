package sema

import (
	"fmt"

	"github.com/lightplayer/lightplayer/internal/glsl/ast"
	"github.com/lightplayer/lightplayer/internal/glsl/types"
)

// resolveType maps a raw ast.TypeName spelling to the closed types.Type
// system. Arrays (spec.md §3.1 array textures/mappings) are not part of the
// scalar/vector/matrix value type and are rejected here, so no array-typed
// declaration, parameter or return type passes the checker.
func resolveType(t ast.TypeName) (types.Type, error) {
	if t.ArrayLen != 0 {
		return types.Type{}, fmt.Errorf("glsl: array types are not supported (%s[%d])", t.Name, t.ArrayLen)
	}
	switch t.Name {
	case "void":
		return types.Void, nil
	case "int":
		return types.Int, nil
	case "uint":
		return types.UInt, nil
	case "float":
		return types.Float, nil
	case "bool":
		return types.Bool, nil
	case "vec2":
		return types.Vector(types.KindF32, 2), nil
	case "vec3":
		return types.Vector(types.KindF32, 3), nil
	case "vec4":
		return types.Vector(types.KindF32, 4), nil
	case "ivec2":
		return types.Vector(types.KindI32, 2), nil
	case "ivec3":
		return types.Vector(types.KindI32, 3), nil
	case "ivec4":
		return types.Vector(types.KindI32, 4), nil
	case "uvec2":
		return types.Vector(types.KindU32, 2), nil
	case "uvec3":
		return types.Vector(types.KindU32, 3), nil
	case "uvec4":
		return types.Vector(types.KindU32, 4), nil
	case "bvec2":
		return types.Vector(types.KindBool, 2), nil
	case "bvec3":
		return types.Vector(types.KindBool, 3), nil
	case "bvec4":
		return types.Vector(types.KindBool, 4), nil
	case "mat2":
		return types.Matrix(2), nil
	case "mat3":
		return types.Matrix(3), nil
	case "mat4":
		return types.Matrix(4), nil
	}
	return types.Type{}, fmt.Errorf("glsl: unknown type %q", t.Name)
}
