package kicadsexp

import (
	"fmt"
	"io"
)

// Parser builds nodes from a token stream.
type Parser struct {
	lexer *Lexer
}

// NewParser returns a parser reading from r.
func NewParser(r io.Reader) *Parser {
	return &Parser{lexer: NewLexer(r)}
}

// ParseAll parses top-level expressions until end of input.
func (p *Parser) ParseAll() ([]Sexp, error) {
	var out []Sexp
	for {
		tok, err := p.lexer.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == TokenEOF {
			return out, nil
		}
		expr, err := p.parseExpr(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
	}
}

// Next parses one top-level expression. It returns io.EOF at end of input.
func (p *Parser) Next() (Sexp, error) {
	tok, err := p.lexer.NextToken()
	if err != nil {
		return nil, err
	}
	if tok.Type == TokenEOF {
		return nil, io.EOF
	}
	return p.parseExpr(tok)
}

func (p *Parser) parseExpr(tok Token) (Sexp, error) {
	switch tok.Type {
	case TokenLeftParen:
		return p.parseList(tok.Line)
	case TokenSymbol, TokenString:
		return Symbol(tok.Value), nil
	default:
		return nil, fmt.Errorf("kicadsexp: line %d: unexpected %s", tok.Line, tok.Type)
	}
}

func (p *Parser) parseList(line int) (*List, error) {
	l := &List{Line: line}
	for {
		tok, err := p.lexer.NextToken()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenRightParen:
			return l, nil
		case TokenEOF:
			return nil, fmt.Errorf("kicadsexp: line %d: unclosed list", line)
		}
		elem, err := p.parseExpr(tok)
		if err != nil {
			return nil, err
		}
		l.elements = append(l.elements, elem)
	}
}
