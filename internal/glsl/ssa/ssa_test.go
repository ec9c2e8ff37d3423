package ssa_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightplayer/lightplayer/internal/glsl/ssa"
	"github.com/lightplayer/lightplayer/internal/glsl/types"
)

func TestBuildAddFunction(t *testing.T) {
	sig := types.Signature{
		Params:  []types.IrParam{{Type: types.IrI32}, {Type: types.IrI32}},
		Returns: []types.IrType{types.IrI32},
	}
	f := ssa.NewFunction("add", sig)
	entry := f.NewBlock()
	f.Entry = entry.ID
	x := entry.AddParam(f, ssa.I32)
	y := entry.AddParam(f, ssa.I32)

	b := ssa.NewBuilder(f)
	b.SetBlock(entry)
	sum := b.IAdd(x, y)
	b.Return(sum)

	out := f.String()
	require.True(t, strings.Contains(out, "Iadd"))
	require.True(t, strings.Contains(out, "Return"))
	require.Equal(t, 2, len(entry.Params))
}

func TestBranchingFunction(t *testing.T) {
	sig := types.Signature{Params: []types.IrParam{{Type: types.IrI32}}, Returns: []types.IrType{types.IrI32}}
	f := ssa.NewFunction("abs", sig)
	entry := f.NewBlock()
	neg := f.NewBlock()
	pos := f.NewBlock()
	f.Entry = entry.ID

	x := entry.AddParam(f, ssa.I32)
	b := ssa.NewBuilder(f)
	b.SetBlock(entry)
	zero := b.Iconst(0)
	cond := b.Icmp(ssa.OpIcmpLtS, x, zero)
	b.Brnz(cond, neg.ID)
	b.Jump(pos.ID)

	b.SetBlock(neg)
	negated := b.INeg(x)
	b.Return(negated)

	b.SetBlock(pos)
	b.Return(x)

	require.Equal(t, 3, len(f.Blocks))
	require.NotNil(t, entry.Terminator())
	require.Equal(t, ssa.OpJump, entry.Terminator().Op)
}
