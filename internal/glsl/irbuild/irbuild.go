// Package irbuild lowers a semantically-checked GLSL function
// (sema.Checked + one of its ast.Function bodies) into an ssa.Function:
// scalar/vector arithmetic expanded to per-component ssa.Value slots,
// struct-return for aggregate results, and control flow compiled to
// explicit basic blocks with merge-point block parameters standing in for
// phi nodes, mirroring wazevo's frontend compiler.
package irbuild

import (
	"fmt"
	"sort"

	"github.com/lightplayer/lightplayer/internal/glsl/ast"
	"github.com/lightplayer/lightplayer/internal/glsl/diag"
	"github.com/lightplayer/lightplayer/internal/glsl/sema"
	"github.com/lightplayer/lightplayer/internal/glsl/ssa"
	"github.com/lightplayer/lightplayer/internal/glsl/types"
)

// slot is a GLSL value's per-component SSA values: width 1 for a scalar,
// 2-4 for a vector, 4/9/16 for a matrix (column-major, stored flat).
type slot []ssa.Value

// loopCtx tracks the blocks/live-variable set break/continue jump to.
type loopCtx struct {
	continueBlock ssa.BlockID
	breakBlock    ssa.BlockID
	varNames      []string
}

type gen struct {
	checked *sema.Checked
	f       *ssa.Function
	b       *ssa.Builder
	srPtr   *ssa.Value // hidden struct-return pointer, nil if not needed
	loops   []loopCtx
}

// Build lowers fn (one of checked.File.Functions) into an ssa.Function.
func Build(checked *sema.Checked, fn *ast.Function) (*ssa.Function, error) {
	sig, ok := checked.Sigs[fn.Name]
	if !ok {
		return nil, fmt.Errorf("irbuild: no checked signature for %q", fn.Name)
	}
	lowered := types.Lower(sig)
	f := ssa.NewFunction(fn.Name, lowered)
	entry := f.NewBlock()
	f.Entry = entry.ID
	g := &gen{checked: checked, f: f, b: ssa.NewBuilder(f)}
	g.b.SetBlock(entry)

	env := map[string]slot{}
	paramIdx := 0
	lp := lowered.Params
	if sig.Ret.RequiresStructReturn() {
		v := entry.AddParam(f, ssa.Ptr)
		g.srPtr = &v
		paramIdx = 1
	}
	for _, p := range fn.Params {
		pt, err := paramType(checked, fn, p.Name)
		if err != nil {
			return nil, err
		}
		n := pt.NumComponents()
		if n == 0 {
			n = 1
		}
		s := make(slot, n)
		for i := 0; i < n; i++ {
			s[i] = entry.AddParam(f, ssa.I32)
		}
		_ = lp
		env[p.Name] = s
		paramIdx += n
	}

	terminated, err := g.genBlock(fn.Body, env)
	if err != nil {
		return nil, err
	}
	if !terminated {
		if sig.Ret.IsVoid() {
			g.b.Return()
		} else {
			return nil, fmt.Errorf("irbuild: function %q falls off the end without a return", fn.Name)
		}
	}
	return f, nil
}

func paramType(checked *sema.Checked, fn *ast.Function, name string) (types.Type, error) {
	sig := checked.Sigs[fn.Name]
	for i, p := range fn.Params {
		if p.Name == name {
			return sig.Params[i], nil
		}
	}
	return types.Type{}, fmt.Errorf("irbuild: unknown parameter %q", name)
}

func sortedNames(env map[string]slot) []string {
	names := make([]string, 0, len(env))
	for n := range env {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func copyEnv(env map[string]slot) map[string]slot {
	out := make(map[string]slot, len(env))
	for k, v := range env {
		cp := make(slot, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

func flattenNames(names []string, env map[string]slot) []ssa.Value {
	var out []ssa.Value
	for _, n := range names {
		out = append(out, env[n]...)
	}
	return out
}

func (g *gen) srcLoc(e ast.Expr) uint32 {
	return uint32(g.checked.ExprLoc[e])
}

var _ = diag.NoLoc // irbuild only threads SourceLoc ids through; diag itself resolves them later.
