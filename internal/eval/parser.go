package eval

import "github.com/dev-console/debugctl/internal/errs"

// Expr is the parsed form of an expr production.
type Expr interface{ isExpr() }

// Literal is one of the literal alternatives (null/true/false/string/int/decimal/char).
type Literal struct {
	Kind tokenKind
	Text string
}

func (Literal) isExpr() {}

// This is the bare 'this' expression.
type This struct{}

func (This) isExpr() {}

// Name is a bare identifier, resolved against locals then this's fields.
type Name struct {
	Ident string
}

func (Name) isExpr() {}

// fieldOp / callOp are the two chain continuations.
type fieldOp struct{ name string }
type callOp struct {
	name string
	args []Expr
}

// Chain is a primary ('this' or Name) followed by one or more field/call
// continuations.
type Chain struct {
	Base Expr // This or Name
	Ops  []any // fieldOp | callOp, in source order
}

func (Chain) isExpr() {}

const maxExprLen = 1024

type parser struct {
	lex  *lexer
	tok  token
	peek bool
}

// Parse parses source into an Expr per the narrow grammar.
func Parse(source string) (Expr, error) {
	if len(source) > maxExprLen {
		return nil, errs.New(errs.InvalidExpression, "expression exceeds %d bytes", maxExprLen)
	}
	p := &parser{lex: newLexer(source)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, errs.New(errs.InvalidExpression, "unexpected trailing input")
	}
	return expr, nil
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) parseExpr() (Expr, error) {
	switch p.tok.kind {
	case tokNull, tokTrue, tokFalse, tokString, tokInt, tokDecimal, tokChar:
		lit := Literal{Kind: p.tok.kind, Text: p.tok.text}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return lit, nil
	case tokThis, tokIdent:
		return p.parsePrimaryOrChain()
	default:
		return nil, errs.New(errs.InvalidExpression, "unexpected token in expression")
	}
}

func (p *parser) parsePrimaryOrChain() (Expr, error) {
	var base Expr
	if p.tok.kind == tokThis {
		base = This{}
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else {
		base = Name{Ident: p.tok.text}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	var ops []any
	for p.tok.kind == tokDot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind != tokIdent {
			return nil, errs.New(errs.InvalidExpression, "expected identifier after '.'")
		}
		name := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind == tokLParen {
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			ops = append(ops, callOp{name: name, args: args})
		} else {
			ops = append(ops, fieldOp{name: name})
		}
	}

	if len(ops) == 0 {
		return base, nil
	}
	return Chain{Base: base, Ops: ops}, nil
}

func (p *parser) parseArgs() ([]Expr, error) {
	if err := p.advance(); err != nil { // consume '('
		return nil, err
	}
	var args []Expr
	if p.tok.kind == tokRParen {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return args, nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.tok.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if p.tok.kind != tokRParen {
		return nil, errs.New(errs.InvalidExpression, "expected ')'")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return args, nil
}
