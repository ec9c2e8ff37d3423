// Package parser implements a recursive-descent GLSL parser (token -> ast),
// grounded in the teacher assembler's hand-written recursive expression
// parser (assembler/ie64asm.go's exprParser, parseExprOr/And/Shift/Add/...
// precedence-climbing chain), extended from arithmetic expressions to a
// full statement/function grammar.
package parser

import (
	"fmt"
	"strconv"

	"github.com/lightplayer/lightplayer/internal/glsl/ast"
	"github.com/lightplayer/lightplayer/internal/glsl/token"
)

// Parser consumes a token stream and builds an ast.File.
type Parser struct {
	toks []token.Token
	pos  int
}

// New creates a Parser over an already-lexed token stream.
func New(toks []token.Token) *Parser { return &Parser{toks: toks} }

// Parse parses a complete translation unit: zero or more function
// definitions.
func (p *Parser) Parse() (*ast.File, error) {
	f := &ast.File{}
	for p.cur().Kind != token.EOF {
		fn, err := p.parseFunction()
		if err != nil {
			return nil, err
		}
		f.Functions = append(f.Functions, fn)
	}
	return f, nil
}

func (p *Parser) cur() token.Token  { return p.toks[p.pos] }
func (p *Parser) peekAt(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k token.Kind, what string) (token.Token, error) {
	if p.cur().Kind != k {
		return token.Token{}, fmt.Errorf("glsl: expected %s at %s, found %q", what, p.cur().Pos, p.cur().Lexeme)
	}
	return p.advance(), nil
}

func isTypeStart(t token.Token) bool {
	return t.Kind == token.Ident
}

func (p *Parser) parseTypeName() (ast.TypeName, error) {
	id, err := p.expect(token.Ident, "type name")
	if err != nil {
		return ast.TypeName{}, err
	}
	tn := ast.TypeName{Name: id.Lexeme}
	if p.cur().Kind == token.LBracket {
		p.advance()
		lenTok, err := p.expect(token.IntLit, "array length")
		if err != nil {
			return ast.TypeName{}, err
		}
		n, _ := strconv.Atoi(lenTok.Lexeme)
		tn.ArrayLen = n
		if _, err := p.expect(token.RBracket, "]"); err != nil {
			return ast.TypeName{}, err
		}
	}
	return tn, nil
}

func (p *Parser) parseFunction() (*ast.Function, error) {
	pos := p.cur().Pos
	ret, err := p.parseTypeName()
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.Ident, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen, "("); err != nil {
		return nil, err
	}
	var params []ast.Param
	for p.cur().Kind != token.RParen {
		if len(params) > 0 {
			if _, err := p.expect(token.Comma, ","); err != nil {
				return nil, err
			}
		}
		qual := ""
		switch p.cur().Kind {
		case token.KwIn, token.KwOut, token.KwInout:
			qual = p.advance().Lexeme
		}
		pt, err := p.parseTypeName()
		if err != nil {
			return nil, err
		}
		pname, err := p.expect(token.Ident, "parameter name")
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Qualifier: qual, Type: pt, Name: pname.Lexeme})
	}
	if _, err := p.expect(token.RParen, ")"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.Function{Ret: ret, Name: name.Lexeme, Params: params, Body: body, Pos: pos}, nil
}

func (p *Parser) parseBlock() ([]ast.Stmt, error) {
	if _, err := p.expect(token.LBrace, "{"); err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for p.cur().Kind != token.RBrace {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(token.RBrace, "}"); err != nil {
		return nil, err
	}
	return stmts, nil
}

// looksLikeDecl heuristically decides whether the statement starting here
// is a variable declaration: an identifier (the type) followed by another
// identifier (the variable name), optionally preceded by "const".
func (p *Parser) looksLikeDecl() bool {
	i := p.pos
	if p.toks[i].Kind == token.KwConst {
		i++
	}
	if i >= len(p.toks) || p.toks[i].Kind != token.Ident {
		return false
	}
	j := i + 1
	if j < len(p.toks) && p.toks[j].Kind == token.LBracket {
		for j < len(p.toks) && p.toks[j].Kind != token.RBracket {
			j++
		}
		j++ // consume ]
	}
	return j < len(p.toks) && p.toks[j].Kind == token.Ident
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	pos := p.cur().Pos
	switch p.cur().Kind {
	case token.KwIf:
		return p.parseIf()
	case token.KwFor:
		return p.parseFor()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwReturn:
		p.advance()
		if p.cur().Kind == token.Semicolon {
			p.advance()
			return &ast.ReturnStmt{Pos: pos}, nil
		}
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon, ";"); err != nil {
			return nil, err
		}
		return &ast.ReturnStmt{Value: v, Pos: pos}, nil
	case token.KwBreak:
		p.advance()
		if _, err := p.expect(token.Semicolon, ";"); err != nil {
			return nil, err
		}
		return &ast.BreakStmt{Pos: pos}, nil
	case token.KwContinue:
		p.advance()
		if _, err := p.expect(token.Semicolon, ";"); err != nil {
			return nil, err
		}
		return &ast.ContinueStmt{Pos: pos}, nil
	}
	if p.cur().Kind == token.KwConst || p.looksLikeDecl() {
		return p.parseVarDecl()
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon, ";"); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{X: e, Pos: pos}, nil
}

func (p *Parser) parseVarDecl() (ast.Stmt, error) {
	pos := p.cur().Pos
	isConst := false
	if p.cur().Kind == token.KwConst {
		isConst = true
		p.advance()
	}
	ty, err := p.parseTypeName()
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.Ident, "variable name")
	if err != nil {
		return nil, err
	}
	var init ast.Expr
	if p.cur().Kind == token.Assign {
		p.advance()
		init, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.Semicolon, ";"); err != nil {
		return nil, err
	}
	return &ast.VarDecl{Const: isConst, Type: ty, Name: name.Lexeme, Init: init, Pos: pos}, nil
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	pos := p.advance().Pos
	if _, err := p.expect(token.LParen, "("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen, ")"); err != nil {
		return nil, err
	}
	thenB, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var elseB []ast.Stmt
	if p.cur().Kind == token.KwElse {
		p.advance()
		if p.cur().Kind == token.KwIf {
			sub, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			elseB = []ast.Stmt{sub}
		} else {
			elseB, err = p.parseBlock()
			if err != nil {
				return nil, err
			}
		}
	}
	return &ast.IfStmt{Cond: cond, Then: thenB, Else: elseB, Pos: pos}, nil
}

func (p *Parser) parseFor() (ast.Stmt, error) {
	pos := p.advance().Pos
	if _, err := p.expect(token.LParen, "("); err != nil {
		return nil, err
	}
	var init ast.Stmt
	if p.cur().Kind != token.Semicolon {
		var err error
		if p.looksLikeDecl() {
			init, err = p.parseVarDecl()
		} else {
			e, eerr := p.parseExpr()
			err = eerr
			if err == nil {
				init = &ast.ExprStmt{X: e, Pos: pos}
				if _, err = p.expect(token.Semicolon, ";"); err != nil {
					return nil, err
				}
			}
		}
		if err != nil {
			return nil, err
		}
	} else {
		p.advance()
	}
	var cond ast.Expr
	if p.cur().Kind != token.Semicolon {
		var err error
		cond, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.Semicolon, ";"); err != nil {
		return nil, err
	}
	var post ast.Expr
	if p.cur().Kind != token.RParen {
		var err error
		post, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.RParen, ")"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{Init: init, Cond: cond, Post: post, Body: body, Pos: pos}, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	pos := p.advance().Pos
	if _, err := p.expect(token.LParen, "("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen, ")"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Cond: cond, Body: body, Pos: pos}, nil
}
