package sema

import (
	"fmt"

	"github.com/lightplayer/lightplayer/internal/glsl/ast"
	"github.com/lightplayer/lightplayer/internal/glsl/types"
)

func (c *checker) checkStmt(s ast.Stmt, sc *scope) error {
	switch s := s.(type) {
	case *ast.VarDecl:
		return c.checkVarDecl(s, sc)
	case *ast.ExprStmt:
		_, err := c.checkExpr(s.X, sc)
		return err
	case *ast.ReturnStmt:
		return c.checkReturn(s, sc)
	case *ast.IfStmt:
		cond, err := c.checkExpr(s.Cond, sc)
		if err != nil {
			return err
		}
		if !cond.Equal(types.Bool) {
			return fmt.Errorf("glsl: if condition must be bool, got %s at %s", cond, s.Pos)
		}
		if err := c.checkBlock(s.Then, sc); err != nil {
			return err
		}
		return c.checkBlock(s.Else, sc)
	case *ast.ForStmt:
		return c.checkFor(s, sc)
	case *ast.WhileStmt:
		return c.checkWhile(s, sc)
	case *ast.BreakStmt:
		if c.loopDepth == 0 {
			return fmt.Errorf("glsl: break outside loop at %s", s.Pos)
		}
		return nil
	case *ast.ContinueStmt:
		if c.loopDepth == 0 {
			return fmt.Errorf("glsl: continue outside loop at %s", s.Pos)
		}
		return nil
	}
	return fmt.Errorf("glsl: unhandled statement %T", s)
}

func (c *checker) checkVarDecl(s *ast.VarDecl, sc *scope) error {
	declared, err := resolveType(s.Type)
	if err != nil {
		return fmt.Errorf("glsl: %w at %s", err, s.Pos)
	}
	if s.Init != nil {
		initT, err := c.checkExpr(s.Init, sc)
		if err != nil {
			return err
		}
		if !initT.Equal(declared) {
			return fmt.Errorf("glsl: cannot initialize %s with %s at %s", declared, initT, s.Pos)
		}
	}
	if _, redecl := sc.vars[s.Name]; redecl {
		return fmt.Errorf("glsl: %q redeclared in this scope at %s", s.Name, s.Pos)
	}
	sc.vars[s.Name] = declared
	sc.consts[s.Name] = s.Const
	return nil
}

func (c *checker) checkReturn(s *ast.ReturnStmt, sc *scope) error {
	if s.Value == nil {
		if !c.retType.IsVoid() {
			return fmt.Errorf("glsl: function %q must return %s at %s", c.fnName, c.retType, s.Pos)
		}
		return nil
	}
	t, err := c.checkExpr(s.Value, sc)
	if err != nil {
		return err
	}
	if !t.Equal(c.retType) {
		return fmt.Errorf("glsl: function %q returns %s, got %s at %s", c.fnName, c.retType, t, s.Pos)
	}
	return nil
}

func (c *checker) checkFor(s *ast.ForStmt, sc *scope) error {
	inner := newScope(sc)
	if s.Init != nil {
		if err := c.checkStmt(s.Init, inner); err != nil {
			return err
		}
	}
	if s.Cond != nil {
		t, err := c.checkExpr(s.Cond, inner)
		if err != nil {
			return err
		}
		if !t.Equal(types.Bool) {
			return fmt.Errorf("glsl: for condition must be bool, got %s at %s", t, s.Pos)
		}
	}
	if s.Post != nil {
		if _, err := c.checkExpr(s.Post, inner); err != nil {
			return err
		}
	}
	c.loopDepth++
	defer func() { c.loopDepth-- }()
	return c.checkBlock(s.Body, inner)
}

func (c *checker) checkWhile(s *ast.WhileStmt, sc *scope) error {
	t, err := c.checkExpr(s.Cond, sc)
	if err != nil {
		return err
	}
	if !t.Equal(types.Bool) {
		return fmt.Errorf("glsl: while condition must be bool, got %s at %s", t, s.Pos)
	}
	c.loopDepth++
	defer func() { c.loopDepth-- }()
	return c.checkBlock(s.Body, sc)
}
