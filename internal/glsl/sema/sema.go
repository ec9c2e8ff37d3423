// Package sema implements the GLSL semantic checker: it type-checks a
// parsed ast.File against the closed type system of spec.md §3.1, resolves
// function signatures (both user-defined and the intrinsic/constructor
// library), and records a diag.SourceLoc for every expression so later
// passes (irbuild, codegen) can produce trap diagnostics that map back to
// GLSL source.
package sema

import (
	"fmt"

	"github.com/lightplayer/lightplayer/internal/glsl/ast"
	"github.com/lightplayer/lightplayer/internal/glsl/diag"
	"github.com/lightplayer/lightplayer/internal/glsl/token"
	"github.com/lightplayer/lightplayer/internal/glsl/types"
)

// Checked is the output of Check: the original AST plus the side-tables
// later passes need to lower it.
type Checked struct {
	File      *ast.File
	Sigs      map[string]types.FunctionSignature
	ExprTypes map[ast.Expr]types.Type
	ExprLoc   map[ast.Expr]diag.SourceLoc
	Locs      *diag.SourceLocManager
}

type scope struct {
	vars   map[string]types.Type
	consts map[string]bool
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{vars: map[string]types.Type{}, consts: map[string]bool{}, parent: parent}
}

func (s *scope) lookup(name string) (types.Type, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if t, ok := cur.vars[name]; ok {
			return t, true
		}
	}
	return types.Type{}, false
}

func (s *scope) isConst(name string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := cur.vars[name]; ok {
			return cur.consts[name]
		}
	}
	return false
}

// checker holds the mutable state threaded through one Check call.
type checker struct {
	sigs      map[string]types.FunctionSignature
	exprTypes map[ast.Expr]types.Type
	exprLoc   map[ast.Expr]diag.SourceLoc
	locs      *diag.SourceLocManager
	fnName    string
	retType   types.Type
	loopDepth int
}

// Check type-checks file (whose source text is src, used only for
// SourceLoc line/column bookkeeping) and returns the annotated result, or
// the first semantic error encountered.
func Check(file *ast.File, src string) (*Checked, error) {
	c := &checker{
		sigs:      builtinSignatures(),
		exprTypes: map[ast.Expr]types.Type{},
		exprLoc:   map[ast.Expr]diag.SourceLoc{},
		locs:      diag.NewSourceLocManager(""),
	}
	for _, fn := range file.Functions {
		sig, err := c.signatureOf(fn)
		if err != nil {
			return nil, err
		}
		if _, dup := c.sigs[fn.Name]; dup {
			return nil, fmt.Errorf("glsl: duplicate function %q at %s", fn.Name, fn.Pos)
		}
		c.sigs[fn.Name] = sig
	}
	for _, fn := range file.Functions {
		if err := c.checkFunction(fn); err != nil {
			return nil, err
		}
	}
	return &Checked{File: file, Sigs: c.sigs, ExprTypes: c.exprTypes, ExprLoc: c.exprLoc, Locs: c.locs}, nil
}

func (c *checker) signatureOf(fn *ast.Function) (types.FunctionSignature, error) {
	ret, err := resolveType(fn.Ret)
	if err != nil {
		return types.FunctionSignature{}, err
	}
	sig := types.FunctionSignature{Name: fn.Name, Ret: ret}
	for _, p := range fn.Params {
		pt, err := resolveType(p.Type)
		if err != nil {
			return types.FunctionSignature{}, err
		}
		sig.Params = append(sig.Params, pt)
	}
	return sig, nil
}

func (c *checker) checkFunction(fn *ast.Function) error {
	sig := c.sigs[fn.Name]
	c.fnName = fn.Name
	c.retType = sig.Ret
	sc := newScope(nil)
	for i, p := range fn.Params {
		sc.vars[p.Name] = sig.Params[i]
	}
	return c.checkBlock(fn.Body, sc)
}

func (c *checker) checkBlock(body []ast.Stmt, parent *scope) error {
	sc := newScope(parent)
	for _, s := range body {
		if err := c.checkStmt(s, sc); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) recordLoc(expr ast.Expr, pos token.Pos) diag.SourceLoc {
	l := c.locs.Record(pos.Line, pos.Col, c.fnName)
	c.exprLoc[expr] = l
	return l
}

func (c *checker) setType(expr ast.Expr, t types.Type) types.Type {
	c.exprTypes[expr] = t
	return t
}
