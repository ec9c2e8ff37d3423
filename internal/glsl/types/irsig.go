package types

// IrType is a scalar machine-level type carried by the SSA IR: every GLSL
// vector expands to N of these at the ABI boundary (spec.md §3.1).
type IrType int

const (
	IrI32 IrType = iota
	IrF32
	IrPtr // used only for the hidden struct-return argument
)

// ParamPurpose discriminates an ordinary value parameter from the hidden
// struct-return pointer spec.md §4.3 describes.
type ParamPurpose int

const (
	PurposeNormal ParamPurpose = iota
	PurposeStructReturn
)

// IrParam is one lowered parameter slot.
type IrParam struct {
	Type    IrType
	Purpose ParamPurpose
}

// Signature is the IR-level signature a GLSL FunctionSignature lowers to:
// a vector parameter expands to N scalar IrParams in declaration order, and
// an aggregate return becomes a hidden first StructReturn pointer parameter
// with Returns left empty (the callee writes through the pointer instead).
type Signature struct {
	Params  []IrParam
	Returns []IrType
}

// scalarIrType maps a GLSL scalar kind to its IR machine type. Q16.16
// lowering (internal/glsl/q32) does not rewrite signatures: IrF32 slots keep
// their type and carry Q16.16 words at run time.
func scalarIrType(k ScalarKind) IrType {
	if k == KindF32 {
		return IrF32
	}
	return IrI32 // int, uint, and bool (0/1) all ride as i32 machine words
}

// Lower expands a GLSL FunctionSignature into its ABI-level Signature.
func Lower(sig FunctionSignature) Signature {
	var out Signature
	if sig.Ret.RequiresStructReturn() {
		out.Params = append(out.Params, IrParam{Type: IrPtr, Purpose: PurposeStructReturn})
	}
	for _, p := range sig.Params {
		n := p.NumComponents()
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			out.Params = append(out.Params, IrParam{Type: scalarIrType(p.Kind), Purpose: PurposeNormal})
		}
	}
	if !sig.Ret.RequiresStructReturn() && !sig.Ret.IsVoid() {
		out.Returns = append(out.Returns, scalarIrType(sig.Ret.Kind))
	}
	return out
}
