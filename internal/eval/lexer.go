package eval

import (
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/dev-console/debugctl/internal/errs"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokDot
	tokLParen
	tokRParen
	tokComma
	tokNull
	tokTrue
	tokFalse
	tokString
	tokInt
	tokDecimal
	tokChar
	tokThis
)

type token struct {
	kind tokenKind
	text string
}

// lexer splits source into tokens. Quoted-string literals are scanned via
// gjson's JSON-string parser rather than a hand-rolled quote scanner: the
// remaining unread suffix is parsed as a standalone JSON value, and the
// matched raw length tells the lexer how far to advance.
type lexer struct {
	src []byte
	pos int
}

func newLexer(src string) *lexer {
	return &lexer{src: []byte(src)}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t') {
		l.pos++
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return token{kind: tokEOF}, nil
	}
	c := l.src[l.pos]

	switch {
	case c == '.':
		l.pos++
		return token{kind: tokDot}, nil
	case c == '(':
		l.pos++
		return token{kind: tokLParen}, nil
	case c == ')':
		l.pos++
		return token{kind: tokRParen}, nil
	case c == ',':
		l.pos++
		return token{kind: tokComma}, nil
	case c == '"':
		return l.scanString()
	case c == '\'':
		return l.scanChar()
	case isDigit(c) || (c == '-' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
		return l.scanNumber()
	case isIdentStart(c):
		return l.scanIdent()
	default:
		return token{}, errs.New(errs.InvalidExpression, "unexpected character %q", string(c))
	}
}

func (l *lexer) scanString() (token, error) {
	rest := string(l.src[l.pos:])
	res := gjson.Parse(rest)
	if res.Type != gjson.String {
		return token{}, errs.New(errs.InvalidExpression, "unterminated string literal")
	}
	l.pos += len(res.Raw)
	return token{kind: tokString, text: res.Str}, nil
}

func (l *lexer) scanChar() (token, error) {
	if l.pos+2 >= len(l.src) || l.src[l.pos+2] != '\'' {
		return token{}, errs.New(errs.InvalidExpression, "malformed char literal")
	}
	ch := l.src[l.pos+1]
	l.pos += 3
	return token{kind: tokChar, text: string(ch)}, nil
}

func (l *lexer) scanNumber() (token, error) {
	start := l.pos
	if l.src[l.pos] == '-' {
		l.pos++
	}
	isDecimal := false
	for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '.') {
		if l.src[l.pos] == '.' {
			isDecimal = true
		}
		l.pos++
	}
	text := string(l.src[start:l.pos])
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		return token{}, errs.New(errs.InvalidExpression, "malformed number literal %q", text)
	}
	if isDecimal {
		return token{kind: tokDecimal, text: text}, nil
	}
	return token{kind: tokInt, text: text}, nil
}

func (l *lexer) scanIdent() (token, error) {
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	text := string(l.src[start:l.pos])
	switch text {
	case "null":
		return token{kind: tokNull}, nil
	case "true":
		return token{kind: tokTrue}, nil
	case "false":
		return token{kind: tokFalse}, nil
	case "this":
		return token{kind: tokThis}, nil
	default:
		return token{kind: tokIdent, text: text}, nil
	}
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }
