// Package token implements the GLSL lexer: a hand-written scanner producing
// a flat token stream, grounded on the teacher assembler's character-at-a-
// time scanning style (assembler/ie64asm.go's exprParser peek/advance
// helpers), generalized from expression text to full GLSL source.
package token

import "fmt"

// Kind discriminates a lexical token.
type Kind int

const (
	EOF Kind = iota
	Ident
	IntLit
	FloatLit
	// punctuation
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Comma
	Semicolon
	Dot
	// operators
	Plus
	Minus
	Star
	Slash
	Percent
	Assign
	PlusAssign
	MinusAssign
	StarAssign
	SlashAssign
	Eq
	NotEq
	Lt
	Gt
	LtEq
	GtEq
	AndAnd
	OrOr
	Not
	PlusPlus
	MinusMinus
	// keywords
	KwIf
	KwElse
	KwFor
	KwWhile
	KwReturn
	KwIn
	KwOut
	KwInout
	KwConst
	KwTrue
	KwFalse
	KwStruct
	KwBreak
	KwContinue
)

var keywords = map[string]Kind{
	"if": KwIf, "else": KwElse, "for": KwFor, "while": KwWhile,
	"return": KwReturn, "in": KwIn, "out": KwOut, "inout": KwInout,
	"const": KwConst, "true": KwTrue, "false": KwFalse, "struct": KwStruct,
	"break": KwBreak, "continue": KwContinue,
}

// Pos is a 1-based source location.
type Pos struct {
	Line, Col int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Col) }

// Token is one lexical unit.
type Token struct {
	Kind   Kind
	Lexeme string
	Pos    Pos
}
