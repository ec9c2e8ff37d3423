package ssa

// Builder appends instructions to one block at a time, the way
// wazevo's frontend.compiler emits into its current block while walking
// source in program order.
type Builder struct {
	F   *Function
	cur *Block
}

func NewBuilder(f *Function) *Builder { return &Builder{F: f} }

// SetBlock switches the insertion point.
func (b *Builder) SetBlock(blk *Block) { b.cur = blk }

func (b *Builder) Block() *Block { return b.cur }

func (b *Builder) emit(instr *Instr) { b.cur.append(instr) }

func (b *Builder) unary(op Opcode, t Type, x Value) Value {
	r := b.F.newValue(t)
	b.emit(&Instr{Op: op, Args: []Value{x}, Result: &r})
	return r
}

func (b *Builder) binary(op Opcode, t Type, x, y Value) Value {
	r := b.F.newValue(t)
	b.emit(&Instr{Op: op, Args: []Value{x, y}, Result: &r})
	return r
}

func (b *Builder) Iconst(v int32) Value {
	r := b.F.newValue(I32)
	b.emit(&Instr{Op: OpIconst, Result: &r, Imm: int64(v)})
	return r
}

func (b *Builder) IAdd(x, y Value) Value  { return b.binary(OpIAdd, I32, x, y) }
func (b *Builder) ISub(x, y Value) Value  { return b.binary(OpISub, I32, x, y) }
func (b *Builder) IMul(x, y Value) Value  { return b.binary(OpIMul, I32, x, y) }
func (b *Builder) IDivS(x, y Value) Value { return b.binary(OpIDivS, I32, x, y) }
func (b *Builder) IDivU(x, y Value) Value { return b.binary(OpIDivU, I32, x, y) }
func (b *Builder) FMulQ(x, y Value) Value { return b.binary(OpFMulQ, I32, x, y) }
func (b *Builder) FDivQ(x, y Value) Value { return b.binary(OpFDivQ, I32, x, y) }
func (b *Builder) IRemS(x, y Value) Value { return b.binary(OpIRemS, I32, x, y) }
func (b *Builder) IRemU(x, y Value) Value { return b.binary(OpIRemU, I32, x, y) }
func (b *Builder) INeg(x Value) Value     { return b.unary(OpINeg, I32, x) }
func (b *Builder) And(x, y Value) Value   { return b.binary(OpAnd, I32, x, y) }
func (b *Builder) Or(x, y Value) Value    { return b.binary(OpOr, I32, x, y) }
func (b *Builder) Xor(x, y Value) Value   { return b.binary(OpXor, I32, x, y) }
func (b *Builder) Shl(x, y Value) Value   { return b.binary(OpShl, I32, x, y) }
func (b *Builder) ShrS(x, y Value) Value  { return b.binary(OpShrS, I32, x, y) }
func (b *Builder) ShrU(x, y Value) Value  { return b.binary(OpShrU, I32, x, y) }

func (b *Builder) Icmp(op Opcode, x, y Value) Value { return b.binary(op, I32, x, y) }

// Transcendental/clamp-family ops, pre-q32: plain opcodes over however many
// fixed-point operands the function needs; the q32 pass rewrites these
// into __lp_q32_* calls.
func (b *Builder) Unary1(op Opcode, x Value) Value       { return b.unary(op, I32, x) }
func (b *Builder) Binary2(op Opcode, x, y Value) Value   { return b.binary(op, I32, x, y) }
func (b *Builder) Ternary3(op Opcode, x, y, z Value) Value {
	r := b.F.newValue(I32)
	b.emit(&Instr{Op: op, Args: []Value{x, y, z}, Result: &r})
	return r
}

// Sample fetches one channel (channel 0=r, 1=g, 2=b, 3=a, as an i32
// constant) of handle's texture at (u, v); irbuild issues four of these per
// texture() call, one per channel.
func (b *Builder) Sample(handle, u, v, channel Value) Value {
	r := b.F.newValue(I32)
	b.emit(&Instr{Op: OpSample, Args: []Value{handle, u, v, channel}, Result: &r})
	return r
}

// PtrAdd computes base+byteOffset as a Ptr-typed value, used to address
// each element of a struct-return slot (spec.md §4.3: 4-byte-aligned
// stride regardless of scalar kind).
func (b *Builder) PtrAdd(base Value, byteOffset int32) Value {
	if byteOffset == 0 {
		return base
	}
	off := b.Iconst(byteOffset)
	r := b.F.newValue(Ptr)
	b.emit(&Instr{Op: OpIAdd, Args: []Value{base, off}, Result: &r})
	return r
}

// Alloca reserves nBytes of stack scratch (struct-return destinations for
// nested calls that themselves return an aggregate), returning its address.
func (b *Builder) Alloca(nBytes int32) Value {
	r := b.F.newValue(Ptr)
	b.emit(&Instr{Op: OpAlloca, Result: &r, Imm: int64(nBytes)})
	return r
}

func (b *Builder) Load(ptr Value, t Type) Value {
	r := b.F.newValue(t)
	b.emit(&Instr{Op: OpLoad, Args: []Value{ptr}, Result: &r})
	return r
}

func (b *Builder) Store(ptr, val Value) {
	b.emit(&Instr{Op: OpStore, Args: []Value{ptr, val}})
}

// Call emits a call to callee with args, returning the result values
// (possibly zero, one, or — for struct-return callees — derived via
// subsequent Loads off a hidden pointer argument the caller must supply).
func (b *Builder) Call(callee string, args []Value, results []Type) []Value {
	rs := make([]Value, len(results))
	rp := make([]*Value, len(results))
	for i, t := range results {
		rs[i] = b.F.newValue(t)
		rp[i] = &rs[i]
	}
	instr := &Instr{Op: OpCall, Args: args, Callee: callee}
	if len(rp) == 1 {
		instr.Result = rp[0]
	} else if len(rp) > 1 {
		// Only the first result is attached to the instruction, and codegen
		// stores only a0 into it; the other returned values are not defined
		// by any instruction.
		instr.Result = rp[0]
	}
	b.emit(instr)
	return rs
}

func (b *Builder) Jump(target BlockID, args ...Value) {
	b.emit(&Instr{Op: OpJump, Targets: []BlockID{target}, BlockArg: [][]Value{args}})
}

func (b *Builder) Brz(cond Value, target BlockID, args ...Value) {
	b.emit(&Instr{Op: OpBrz, Args: []Value{cond}, Targets: []BlockID{target}, BlockArg: [][]Value{args}})
}

func (b *Builder) Brnz(cond Value, target BlockID, args ...Value) {
	b.emit(&Instr{Op: OpBrnz, Args: []Value{cond}, Targets: []BlockID{target}, BlockArg: [][]Value{args}})
}

func (b *Builder) Return(vals ...Value) {
	b.emit(&Instr{Op: OpReturn, Args: vals})
}

func (b *Builder) Select(cond, x, y Value) Value {
	r := b.F.newValue(x.Type)
	b.emit(&Instr{Op: OpSelect, Args: []Value{cond, x, y}, Result: &r})
	return r
}
