// Package exec defines the executable-backend contract spec.md §4.4
// describes: a single GlslExecutable interface with two independent
// implementations (hostexec's closures-threaded interpreter and rvexec's
// RV32 emulator host), plus the value types and Sampler callback both
// backends marshal through. Neither implementation package imports the
// other; callers (internal/nodes' shader runtime) depend only on this
// package's interface.
package exec

import (
	"fmt"

	"github.com/lightplayer/lightplayer/internal/glsl/q32"
	"github.com/lightplayer/lightplayer/internal/glsl/types"
)

// Value is a tagged-union GLSL runtime value: exactly one of Floats/Ints
// is populated, per Type.Kind, with one element per component (Type
// determines scalar vs. vector vs. matrix shape). Matrices are stored
// column-major, matching irbuild's vector-expansion order.
type Value struct {
	Type   types.Type
	Floats []float32
	Ints   []int32 // also carries bool (0/1) and uint (reinterpreted bits) components
}

func Scalar(k types.ScalarKind, v float32) Value {
	if k == types.KindF32 {
		return Value{Type: types.Scalar(k), Floats: []float32{v}}
	}
	return Value{Type: types.Scalar(k), Ints: []int32{int32(v)}}
}

func Int(v int32) Value  { return Value{Type: types.Int, Ints: []int32{v}} }
func UInt(v uint32) Value { return Value{Type: types.UInt, Ints: []int32{int32(v)}} }
func Float(v float32) Value { return Value{Type: types.Float, Floats: []float32{v}} }
func Bool(v bool) Value {
	i := int32(0)
	if v {
		i = 1
	}
	return Value{Type: types.Bool, Ints: []int32{i}}
}

func Vec(vs ...float32) Value {
	return Value{Type: types.Vector(types.KindF32, uint8(len(vs))), Floats: append([]float32(nil), vs...)}
}

func IVec(vs ...int32) Value {
	return Value{Type: types.Vector(types.KindI32, uint8(len(vs))), Ints: append([]int32(nil), vs...)}
}

func UVec(vs ...uint32) Value {
	ints := make([]int32, len(vs))
	for i, v := range vs {
		ints[i] = int32(v)
	}
	return Value{Type: types.Vector(types.KindU32, uint8(len(vs))), Ints: ints}
}

func BVec(vs ...bool) Value {
	ints := make([]int32, len(vs))
	for i, v := range vs {
		if v {
			ints[i] = 1
		}
	}
	return Value{Type: types.Vector(types.KindBool, uint8(len(vs))), Ints: ints}
}

// NumComponents is the scalar element count this value carries.
func (v Value) NumComponents() int { return v.Type.NumComponents() }

// MachineArgs flattens args into one Q16.16-converted (for float
// components) or as-is (int/uint/bool components) machine word per scalar,
// in declaration order — the shared first step both hostexec and rvexec
// take before marshaling into their own calling convention.
func MachineArgs(args []Value) []int32 {
	var out []int32
	for _, v := range args {
		if len(v.Floats) > 0 {
			for _, f := range v.Floats {
				out = append(out, q32.FromFloat(float64(f)))
			}
			continue
		}
		out = append(out, v.Ints...)
	}
	return out
}

// Sampler is the texture-read callback both backends invoke to service the
// GLSL `texture()` intrinsic (lowered to repeated __lp_sample calls,
// spec.md §4.3). handle identifies a texture node's pixel buffer; u/v are
// normalized [0,1] coordinates; channel is 0=r,1=g,2=b,3=a. Implemented by
// internal/nodes' render context, which is what actually owns pixel
// buffers — exec only depends on this narrow callback shape, not on the
// project/node packages (which would create an import cycle).
type Sampler interface {
	Sample(handle uint32, u, v float32, channel uint8) (float32, error)
}

// SamplerFunc adapts a plain function to Sampler.
type SamplerFunc func(handle uint32, u, v float32, channel uint8) (float32, error)

func (f SamplerFunc) Sample(handle uint32, u, v float32, channel uint8) (float32, error) {
	return f(handle, u, v, channel)
}

// GlslExecutable is the common surface spec.md §4.4 requires of both
// executable backends. Scalar-returning calls (CallVoid/I32/F32/Bool) use
// the ordinary single-return-register convention; aggregate-returning
// calls (CallVec/IVec/UVec/BVec/CallMat) use the struct-return buffer
// convention and take an explicit dim (or rows*cols) the caller already
// knows from the function's signature, so the backend doesn't need to
// re-derive component count from a return Value it never built.
type GlslExecutable interface {
	CallVoid(name string, args []Value) error
	CallI32(name string, args []Value) (int32, error)
	CallF32(name string, args []Value) (float32, error)
	CallBool(name string, args []Value) (bool, error)
	CallVec(name string, args []Value, dim int) ([]float32, error)
	CallIVec(name string, args []Value, dim int) ([]int32, error)
	CallUVec(name string, args []Value, dim int) ([]uint32, error)
	CallBVec(name string, args []Value, dim int) ([]bool, error)
	CallMat(name string, args []Value, rows, cols int) ([]float32, error)

	FunctionSignature(name string) (types.FunctionSignature, bool)
	ListFunctions() []string
}

// ErrUnknownFunction is returned by a backend's Call* methods when name
// isn't present in its symbol/signature table.
type ErrUnknownFunction struct{ Name string }

func (e *ErrUnknownFunction) Error() string { return fmt.Sprintf("exec: unknown function %q", e.Name) }

// ErrArgCount is returned when the caller's args don't match a function's
// declared parameter count.
type ErrArgCount struct {
	Name     string
	Expected int
	Got      int
}

func (e *ErrArgCount) Error() string {
	return fmt.Sprintf("exec: %s expects %d argument component(s), got %d", e.Name, e.Expected, e.Got)
}

// ErrReturnKind is returned when a Call* method is used against a function
// whose actual return type/shape doesn't match (e.g. CallI32 against a
// function returning vec3).
type ErrReturnKind struct {
	Name string
	Want string
	Have string
}

func (e *ErrReturnKind) Error() string {
	return fmt.Sprintf("exec: %s returns %s, not %s", e.Name, e.Have, e.Want)
}
