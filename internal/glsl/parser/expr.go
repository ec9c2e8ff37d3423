package parser

import (
	"strconv"

	"github.com/lightplayer/lightplayer/internal/glsl/ast"
	"github.com/lightplayer/lightplayer/internal/glsl/token"
)

// parseExpr parses a full expression including assignment, the lowest
// precedence level. The chain below mirrors the teacher assembler's
// parseExprCompare -> parseExprOr -> ... -> parseExprAtom descent
// (assembler/ie64asm.go), with one additional top level for assignment and
// GLSL's function-call / swizzle / index postfix operators.
func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseAssign()
}

func (p *Parser) parseAssign() (ast.Expr, error) {
	lhs, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	switch p.cur().Kind {
	case token.Assign, token.PlusAssign, token.MinusAssign, token.StarAssign, token.SlashAssign:
		op := p.advance()
		rhs, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return &ast.Assign{Op: op.Kind, Target: lhs, Value: rhs, Pos: op.Pos}, nil
	}
	return lhs, nil
}

func (p *Parser) parseLogicalOr() (ast.Expr, error) {
	x, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.OrOr {
		op := p.advance()
		y, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		x = &ast.Binary{Op: op.Kind, X: x, Y: y, Pos: op.Pos}
	}
	return x, nil
}

func (p *Parser) parseLogicalAnd() (ast.Expr, error) {
	x, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.AndAnd {
		op := p.advance()
		y, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		x = &ast.Binary{Op: op.Kind, X: x, Y: y, Pos: op.Pos}
	}
	return x, nil
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	x, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.Eq || p.cur().Kind == token.NotEq {
		op := p.advance()
		y, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		x = &ast.Binary{Op: op.Kind, X: x, Y: y, Pos: op.Pos}
	}
	return x, nil
}

func (p *Parser) parseRelational() (ast.Expr, error) {
	x, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Kind {
		case token.Lt, token.Gt, token.LtEq, token.GtEq:
			op := p.advance()
			y, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			x = &ast.Binary{Op: op.Kind, X: x, Y: y, Pos: op.Pos}
			continue
		}
		return x, nil
	}
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	x, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.Plus || p.cur().Kind == token.Minus {
		op := p.advance()
		y, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		x = &ast.Binary{Op: op.Kind, X: x, Y: y, Pos: op.Pos}
	}
	return x, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.Star || p.cur().Kind == token.Slash || p.cur().Kind == token.Percent {
		op := p.advance()
		y, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		x = &ast.Binary{Op: op.Kind, X: x, Y: y, Pos: op.Pos}
	}
	return x, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	switch p.cur().Kind {
	case token.Minus, token.Not, token.PlusPlus, token.MinusMinus:
		op := p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: op.Kind, X: x, Pos: op.Pos}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Kind {
		case token.Dot:
			pos := p.advance().Pos
			field, err := p.expect(token.Ident, "field/swizzle name")
			if err != nil {
				return nil, err
			}
			x = &ast.Swizzle{X: x, Field: field.Lexeme, Pos: pos}
		case token.LBracket:
			pos := p.advance().Pos
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBracket, "]"); err != nil {
				return nil, err
			}
			x = &ast.Index{X: x, Index: idx, Pos: pos}
		default:
			return x, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	t := p.cur()
	switch t.Kind {
	case token.IntLit:
		p.advance()
		n, err := strconv.ParseInt(t.Lexeme, 0, 64)
		if err != nil {
			return nil, err
		}
		return &ast.IntLit{Value: int32(n), Pos: t.Pos}, nil
	case token.FloatLit:
		p.advance()
		f, err := strconv.ParseFloat(t.Lexeme, 64)
		if err != nil {
			return nil, err
		}
		return &ast.FloatLit{Value: f, Pos: t.Pos}, nil
	case token.KwTrue:
		p.advance()
		return &ast.BoolLit{Value: true, Pos: t.Pos}, nil
	case token.KwFalse:
		p.advance()
		return &ast.BoolLit{Value: false, Pos: t.Pos}, nil
	case token.Ident:
		p.advance()
		if p.cur().Kind == token.LParen {
			p.advance()
			var args []ast.Expr
			for p.cur().Kind != token.RParen {
				if len(args) > 0 {
					if _, err := p.expect(token.Comma, ","); err != nil {
						return nil, err
					}
				}
				a, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
			}
			if _, err := p.expect(token.RParen, ")"); err != nil {
				return nil, err
			}
			return &ast.Call{Callee: t.Lexeme, Args: args, Pos: t.Pos}, nil
		}
		return &ast.Ident{Name: t.Lexeme, Pos: t.Pos}, nil
	case token.LParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen, ")"); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, &parseError{t}
}

type parseError struct{ t token.Token }

func (e *parseError) Error() string {
	return "glsl: unexpected token " + e.t.Lexeme + " at " + e.t.Pos.String()
}
