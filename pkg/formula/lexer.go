package formula

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenNumber
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenLParen
	tokenRParen
	tokenLBracket
	tokenRBracket
	tokenLess
	tokenLessEq
	tokenGreater
	tokenGreaterEq
	tokenEq
	tokenNotEq
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// lexer produces tokens from a (placeholder-substituted) formula string.
type lexer struct {
	source string
	input  string
	pos    int
}

func newLexer(source, input string) *lexer {
	return &lexer{source: source, input: input}
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t') {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{kind: tokenEOF, pos: l.pos}, nil
	}

	start := l.pos
	c := l.input[l.pos]

	switch {
	case isIdentStart(c):
		for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
			l.pos++
		}
		return token{kind: tokenIdent, text: l.input[start:l.pos], pos: start}, nil

	case isDigit(c) || (c == '.' && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1])):
		return l.lexNumber(start)
	}

	l.pos++
	switch c {
	case '+':
		return token{kind: tokenPlus, text: "+", pos: start}, nil
	case '-':
		return token{kind: tokenMinus, text: "-", pos: start}, nil
	case '*':
		return token{kind: tokenStar, text: "*", pos: start}, nil
	case '/':
		return token{kind: tokenSlash, text: "/", pos: start}, nil
	case '(':
		return token{kind: tokenLParen, text: "(", pos: start}, nil
	case ')':
		return token{kind: tokenRParen, text: ")", pos: start}, nil
	case '[':
		return token{kind: tokenLBracket, text: "[", pos: start}, nil
	case ']':
		return token{kind: tokenRBracket, text: "]", pos: start}, nil
	case '<':
		if l.peek() == '=' {
			l.pos++
			return token{kind: tokenLessEq, text: "<=", pos: start}, nil
		}
		return token{kind: tokenLess, text: "<", pos: start}, nil
	case '>':
		if l.peek() == '=' {
			l.pos++
			return token{kind: tokenGreaterEq, text: ">=", pos: start}, nil
		}
		return token{kind: tokenGreater, text: ">", pos: start}, nil
	case '=':
		if l.peek() == '=' {
			l.pos++
			return token{kind: tokenEq, text: "==", pos: start}, nil
		}
		return token{}, &SyntaxError{Formula: l.source, Pos: start, Msg: "assignment is not allowed in formulas"}
	case '!':
		if l.peek() == '=' {
			l.pos++
			return token{kind: tokenNotEq, text: "!=", pos: start}, nil
		}
	}

	return token{}, &SyntaxError{
		Formula: l.source,
		Pos:     start,
		Msg:     fmt.Sprintf("unexpected character %q", string(c)),
	}
}

func (l *lexer) lexNumber(start int) (token, error) {
	sawDot := false
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if isDigit(c) {
			l.pos++
			continue
		}
		if c == '.' {
			if sawDot {
				return token{}, &SyntaxError{Formula: l.source, Pos: l.pos, Msg: "malformed numeric literal"}
			}
			sawDot = true
			l.pos++
			continue
		}
		if c == 'e' || c == 'E' {
			// Exponent: e, optional sign, digits.
			rest := l.input[l.pos+1:]
			n := 0
			if strings.HasPrefix(rest, "+") || strings.HasPrefix(rest, "-") {
				n = 1
			}
			if len(rest) > n && isDigit(rest[n]) {
				l.pos += 1 + n
				for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
					l.pos++
				}
			}
		}
		break
	}
	return token{kind: tokenNumber, text: l.input[start:l.pos], pos: start}, nil
}

func (l *lexer) peek() byte {
	if l.pos < len(l.input) {
		return l.input[l.pos]
	}
	return 0
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
