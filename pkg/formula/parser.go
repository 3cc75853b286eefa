package formula

import (
	"fmt"
	"strconv"
	"sync"
)

// parseCache memoizes successful parses. Formulas are immutable once set on a
// line item, and Parsed trees are read-only after construction, so sharing is
// safe.
var parseCache sync.Map // string -> *Parsed

// Parse classifies and parses a formula string. The result is either a
// category aggregate or a validated expression tree. Parse fails with
// *SyntaxError or *InvalidOffsetError; it never executes anything.
func Parse(source string) (*Parsed, error) {
	if cached, ok := parseCache.Load(source); ok {
		return cached.(*Parsed), nil
	}

	aggregate, processed, subs, err := classify(source)
	if err != nil {
		return nil, err
	}

	parsed := &Parsed{Source: source, Aggregate: aggregate}
	if aggregate == "" {
		p := &parser{
			source: source,
			lex:    newLexer(source, processed),
			subs:   subs,
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		root, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokenEOF {
			return nil, &SyntaxError{
				Formula: source,
				Pos:     p.tok.pos,
				Msg:     fmt.Sprintf("unexpected %q after expression", p.tok.text),
			}
		}
		parsed.Root = root
	}

	parseCache.Store(source, parsed)
	return parsed, nil
}

type parser struct {
	source string
	lex    *lexer
	subs   map[string]substitution
	tok    token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.tok.kind {
		case tokenLess, tokenLessEq, tokenGreater, tokenGreaterEq, tokenEq, tokenNotEq:
			op = p.tok.text
		default:
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokenPlus || p.tok.kind == tokenMinus {
		op := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokenStar || p.tok.kind == tokenSlash {
		op := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.tok.kind == tokenMinus || p.tok.kind == tokenPlus {
		op := p.tok.text[0]
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: op, X: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.tok.kind {
	case tokenNumber:
		value, err := strconv.ParseFloat(p.tok.text, 64)
		if err != nil {
			return nil, &SyntaxError{Formula: p.source, Pos: p.tok.pos, Msg: "malformed numeric literal"}
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Number{Value: value}, nil

	case tokenIdent:
		return p.parseReference()

	case tokenLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokenRParen {
			return nil, &SyntaxError{Formula: p.source, Pos: p.tok.pos, Msg: "missing closing parenthesis"}
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return inner, nil

	case tokenEOF:
		return nil, &SyntaxError{Formula: p.source, Pos: p.tok.pos, Msg: "unexpected end of formula"}
	}

	return nil, &SyntaxError{
		Formula: p.source,
		Pos:     p.tok.pos,
		Msg:     fmt.Sprintf("unexpected %q", p.tok.text),
	}
}

func (p *parser) parseReference() (Expr, error) {
	name := p.tok.text
	pos := p.tok.pos
	if err := p.advance(); err != nil {
		return nil, err
	}

	if sub, ok := p.subs[name]; ok {
		if p.tok.kind == tokenLBracket {
			return nil, &SyntaxError{
				Formula: p.source,
				Pos:     p.tok.pos,
				Msg:     "generator field references cannot take a period offset",
			}
		}
		return &GeneratorRef{Generator: sub.Generator, Field: sub.Field, Pos: sub.Pos}, nil
	}

	ref := &Ref{Name: name, Pos: pos}
	if p.tok.kind != tokenLBracket {
		return ref, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	negative := false
	if p.tok.kind == tokenMinus {
		negative = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.tok.kind != tokenNumber {
		return nil, &SyntaxError{
			Formula: p.source,
			Pos:     p.tok.pos,
			Msg:     "period offset must be an integer literal",
		}
	}
	raw := p.tok.text
	rawPos := p.tok.pos
	offset, err := strconv.Atoi(raw)
	if err != nil {
		display := raw
		if negative {
			display = "-" + raw
		}
		return nil, &InvalidOffsetError{Formula: p.source, Name: name, Offset: display, Pos: rawPos}
	}
	if negative {
		offset = -offset
	}
	if offset > 0 {
		return nil, &InvalidOffsetError{Formula: p.source, Name: name, Offset: strconv.Itoa(offset), Pos: rawPos}
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.kind != tokenRBracket {
		return nil, &SyntaxError{Formula: p.source, Pos: p.tok.pos, Msg: "missing closing bracket in period offset"}
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	ref.Offset = offset
	return ref, nil
}
