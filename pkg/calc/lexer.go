package calc

import (
	"strings"

	"github.com/cockroachdb/apd/v3"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
	tokAssign
)

type token struct {
	kind tokenKind
	text string
	pos  int
	num  *apd.Decimal
	reg  Register
}

type lexer struct {
	s string
	i int
}

func (l *lexer) next() (token, error) {
	for l.i < len(l.s) && (l.s[l.i] == ' ' || l.s[l.i] == '\t') {
		l.i++
	}
	if l.i >= len(l.s) {
		return token{kind: tokEOF, pos: l.i}, nil
	}

	start := l.i
	ch := l.s[l.i]
	switch ch {
	case '+', '-', '*', '/':
		l.i++
		return token{kind: tokOp, text: string(ch), pos: start}, nil
	case '=':
		l.i++
		return token{kind: tokAssign, text: "=", pos: start}, nil
	}

	if isLetter(ch) {
		for l.i < len(l.s) && (isLetter(l.s[l.i]) || isDigit(l.s[l.i])) {
			l.i++
		}
		txt := l.s[start:l.i]
		reg, ok := ParseRegister(txt)
		if !ok {
			return token{}, &ExpressionError{Kind: ErrUnknownIdent, Msg: txt, Pos: start}
		}
		return token{kind: tokIdent, text: strings.ToUpper(txt), pos: start, reg: reg}, nil
	}

	if ch == '.' || isDigit(ch) {
		l.i = scanNumber(l.s, l.i)
		txt := l.s[start:l.i]
		if txt == "." {
			return token{}, syntaxErr(start, "bad number %q", txt)
		}
		n, err := ParseDecimal(txt)
		if err != nil {
			return token{}, syntaxErr(start, "bad number %q", txt)
		}
		return token{kind: tokNumber, text: txt, pos: start, num: n}, nil
	}

	return token{}, syntaxErr(start, "unexpected %q", string(ch))
}

// scanNumber accepts digits with at most one decimal point.
func scanNumber(s string, i int) int {
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	return i
}

func tokenize(s string) ([]token, error) {
	l := &lexer{s: s}
	var toks []token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		if t.kind == tokEOF {
			return toks, nil
		}
		toks = append(toks, t)
	}
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
