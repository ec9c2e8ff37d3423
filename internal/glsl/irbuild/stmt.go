package irbuild

import (
	"fmt"

	"github.com/lightplayer/lightplayer/internal/glsl/ast"
	"github.com/lightplayer/lightplayer/internal/glsl/ssa"
)

// genBlock lowers a statement list in order, returning terminated=true if
// control never falls off the end (every path ended in return/break/
// continue), in which case any statements after the terminating one are
// unreachable and skipped.
func (g *gen) genBlock(stmts []ast.Stmt, env map[string]slot) (bool, error) {
	for _, s := range stmts {
		terminated, err := g.genStmt(s, env)
		if err != nil {
			return false, err
		}
		if terminated {
			return true, nil
		}
	}
	return false, nil
}

func (g *gen) genStmt(s ast.Stmt, env map[string]slot) (bool, error) {
	switch s := s.(type) {
	case *ast.VarDecl:
		return false, g.genVarDecl(s, env)
	case *ast.ExprStmt:
		_, err := g.evalExpr(s.X, env)
		return false, err
	case *ast.ReturnStmt:
		return true, g.genReturn(s, env)
	case *ast.IfStmt:
		return g.genIf(s, env)
	case *ast.ForStmt:
		return g.genFor(s, env)
	case *ast.WhileStmt:
		return g.genWhile(s, env)
	case *ast.BreakStmt:
		return true, g.genBreakContinue(env, true)
	case *ast.ContinueStmt:
		return true, g.genBreakContinue(env, false)
	}
	return false, fmt.Errorf("irbuild: unhandled statement %T", s)
}

func (g *gen) genVarDecl(s *ast.VarDecl, env map[string]slot) error {
	if s.Init != nil {
		sl, err := g.evalExpr(s.Init, env)
		if err != nil {
			return err
		}
		env[s.Name] = sl
		return nil
	}
	width := typeNameWidth(s.Type.Name)
	sl := make(slot, width)
	for i := range sl {
		sl[i] = g.b.Iconst(0)
	}
	env[s.Name] = sl
	return nil
}

// typeNameWidth gives the scalar component count for a raw GLSL type
// spelling, used only for zero-initializing an uninitialized declaration
// (sema has already validated the name is a real type by this point).
func typeNameWidth(name string) int {
	switch name {
	case "vec2", "ivec2", "uvec2", "bvec2":
		return 2
	case "vec3", "ivec3", "uvec3", "bvec3":
		return 3
	case "vec4", "ivec4", "uvec4", "bvec4":
		return 4
	case "mat2":
		return 4
	case "mat3":
		return 9
	case "mat4":
		return 16
	}
	return 1
}

func (g *gen) genReturn(s *ast.ReturnStmt, env map[string]slot) error {
	if s.Value == nil {
		g.b.Return()
		return nil
	}
	sl, err := g.evalExpr(s.Value, env)
	if err != nil {
		return err
	}
	if g.srPtr != nil {
		for i, v := range sl {
			ptr := g.b.PtrAdd(*g.srPtr, int32(i*4))
			g.b.Store(ptr, v)
		}
		g.b.Return()
		return nil
	}
	g.b.Return(sl...)
	return nil
}

func (g *gen) genBreakContinue(env map[string]slot, isBreak bool) error {
	if len(g.loops) == 0 {
		return fmt.Errorf("irbuild: break/continue outside loop")
	}
	top := g.loops[len(g.loops)-1]
	target := top.continueBlock
	if isBreak {
		target = top.breakBlock
	}
	g.b.Jump(target, flattenNames(top.varNames, env)...)
	return nil
}

func (g *gen) genIf(s *ast.IfStmt, env map[string]slot) (bool, error) {
	condSlot, err := g.evalExpr(s.Cond, env)
	if err != nil {
		return false, err
	}
	cond := condSlot[0]

	thenBlk := g.f.NewBlock()
	elseBlk := g.f.NewBlock()
	g.b.Brnz(cond, thenBlk.ID)
	g.b.Jump(elseBlk.ID)

	names := sortedNames(env)

	g.b.SetBlock(thenBlk)
	thenEnv := copyEnv(env)
	thenTerm, err := g.genBlock(s.Then, thenEnv)
	if err != nil {
		return false, err
	}

	g.b.SetBlock(elseBlk)
	elseEnv := copyEnv(env)
	elseTerm, err := g.genBlock(s.Else, elseEnv)
	if err != nil {
		return false, err
	}

	if thenTerm && elseTerm {
		return true, nil
	}

	mergeBlk := g.f.NewBlock()
	mergeEnv := map[string]slot{}
	for _, n := range names {
		mergeEnv[n] = addParamsLike(g.f, mergeBlk, len(env[n]))
	}
	if !thenTerm {
		g.b.SetBlock(thenBlk)
		g.b.Jump(mergeBlk.ID, flattenNames(names, thenEnv)...)
	}
	if !elseTerm {
		g.b.SetBlock(elseBlk)
		g.b.Jump(mergeBlk.ID, flattenNames(names, elseEnv)...)
	}
	g.b.SetBlock(mergeBlk)
	for _, n := range names {
		env[n] = mergeEnv[n]
	}
	return false, nil
}

func addParamsLike(f *ssa.Function, blk *ssa.Block, width int) slot {
	s := make(slot, width)
	for i := range s {
		s[i] = blk.AddParam(f, ssa.I32)
	}
	return s
}

func (g *gen) genWhile(s *ast.WhileStmt, env map[string]slot) (bool, error) {
	return g.genLoop(env, nil, s.Cond, nil, s.Body)
}

func (g *gen) genFor(s *ast.ForStmt, env map[string]slot) (bool, error) {
	return g.genLoop(env, s.Init, s.Cond, s.Post, s.Body)
}

// genLoop implements both for and while: a header block re-evaluating cond
// against loop-carried block parameters, a body, an optional post block
// (for's increment, run before jumping back to header), and an exit block
// whose parameters merge the header's false-edge values with every break's
// values, mirroring genIf's merge-block technique.
func (g *gen) genLoop(env map[string]slot, init ast.Stmt, cond ast.Expr, post ast.Expr, body []ast.Stmt) (bool, error) {
	if init != nil {
		if _, err := g.genStmt(init, env); err != nil {
			return false, err
		}
	}
	names := sortedNames(env)

	header := g.f.NewBlock()
	exit := g.f.NewBlock()
	g.b.Jump(header.ID, flattenNames(names, env)...)

	g.b.SetBlock(header)
	headerEnv := map[string]slot{}
	for _, n := range names {
		headerEnv[n] = addParamsLike(g.f, header, len(env[n]))
	}

	var condSlot slot
	if cond != nil {
		var err error
		condSlot, err = g.evalExpr(cond, headerEnv)
		if err != nil {
			return false, err
		}
	} else {
		condSlot = slot{g.b.Iconst(1)}
	}

	bodyBlk := g.f.NewBlock()
	var postBlk *ssa.Block
	if post != nil {
		postBlk = g.f.NewBlock()
	}
	continueTarget := header.ID
	if postBlk != nil {
		continueTarget = postBlk.ID
	}

	// bodyBlk has header as its only predecessor, so it needs no block
	// params of its own: it reads headerEnv's values directly (header
	// dominates body). exit may also be reached by breaks inside the body,
	// so its params merge the header false-edge with every break edge.
	g.b.Brnz(condSlot[0], bodyBlk.ID)
	g.b.Jump(exit.ID, flattenNames(names, headerEnv)...)

	g.loops = append(g.loops, loopCtx{continueBlock: continueTarget, breakBlock: exit.ID, varNames: names})
	g.b.SetBlock(bodyBlk)
	bodyEnv := copyEnv(headerEnv)
	bodyTerm, err := g.genBlock(body, bodyEnv)
	if err != nil {
		return false, err
	}
	if !bodyTerm {
		if postBlk != nil {
			g.b.Jump(postBlk.ID, flattenNames(names, bodyEnv)...)
		} else {
			g.b.Jump(header.ID, flattenNames(names, bodyEnv)...)
		}
	}
	g.loops = g.loops[:len(g.loops)-1]

	if postBlk != nil {
		g.b.SetBlock(postBlk)
		postEnv := map[string]slot{}
		for _, n := range names {
			postEnv[n] = addParamsLike(g.f, postBlk, len(bodyEnv[n]))
		}
		if _, err := g.evalExpr(post, postEnv); err != nil {
			return false, err
		}
		g.b.Jump(header.ID, flattenNames(names, postEnv)...)
	}

	g.b.SetBlock(exit)
	exitEnv := map[string]slot{}
	for _, n := range names {
		exitEnv[n] = addParamsLike(g.f, exit, len(env[n]))
	}
	for _, n := range names {
		env[n] = exitEnv[n]
	}
	return false, nil
}
