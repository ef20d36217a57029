package query

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/pixels/internal/common"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokOp
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
	tokColon
	tokDot
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q at %d", t.text, t.pos)
}

func isIdentStart(r byte) bool {
	return r == '_' || unicode.IsLetter(rune(r))
}

func isIdentPart(r byte) bool {
	return isIdentStart(r) || unicode.IsDigit(rune(r))
}

func isDigit(r byte) bool {
	return r >= '0' && r <= '9'
}

func lex(input string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			tokens = append(tokens, token{tokLParen, "(", i})
			i++
		case c == ')':
			tokens = append(tokens, token{tokRParen, ")", i})
			i++
		case c == '[':
			tokens = append(tokens, token{tokLBracket, "[", i})
			i++
		case c == ']':
			tokens = append(tokens, token{tokRBracket, "]", i})
			i++
		case c == ',':
			tokens = append(tokens, token{tokComma, ",", i})
			i++
		case c == ':':
			tokens = append(tokens, token{tokColon, ":", i})
			i++
		case c == '.':
			tokens = append(tokens, token{tokDot, ".", i})
			i++
		case c == '\'' || c == '"':
			s, n, err := lexString(input[i:])
			if err != nil {
				return nil, fmt.Errorf("at %d: %v: %w", i, err, common.ErrInvalidFilter)
			}
			tokens = append(tokens, token{tokString, s, i})
			i += n
		case isDigit(c) || (c == '-' && i+1 < len(input) && isDigit(input[i+1])):
			n := lexNumber(input[i:])
			tokens = append(tokens, token{tokNumber, input[i : i+n], i})
			i += n
		case isIdentStart(c):
			start := i
			for i < len(input) && isIdentPart(input[i]) {
				i++
			}
			tokens = append(tokens, token{tokIdent, input[start:i], start})
		case c == '=' || c == '<' || c == '>' || c == '!':
			start := i
			i++
			if i < len(input) && (input[i] == '=' || (c == '<' && input[i] == '>')) {
				i++
			}
			op := input[start:i]
			if op == "!" {
				return nil, fmt.Errorf("unexpected '!' at %d: %w", start, common.ErrInvalidFilter)
			}
			tokens = append(tokens, token{tokOp, op, start})
		default:
			return nil, fmt.Errorf("unexpected %q at %d: %w", c, i, common.ErrInvalidFilter)
		}
	}
	tokens = append(tokens, token{kind: tokEOF, pos: len(input)})
	return tokens, nil
}

// lexNumber returns the length of the number at the start of s:
// an optional sign, digits, an optional fraction and an optional exponent.
func lexNumber(s string) int {
	i := 0
	if s[i] == '-' {
		i++
	}
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i+1 < len(s) && s[i] == '.' && isDigit(s[i+1]) {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}
	return i
}

// lexString reads a quoted string; a doubled quote escapes itself.
func lexString(s string) (string, int, error) {
	q := s[0]
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		if s[i] == q {
			if i+1 < len(s) && s[i+1] == q {
				b.WriteByte(q)
				i++
				continue
			}
			return b.String(), i + 1, nil
		}
		b.WriteByte(s[i])
	}
	return "", 0, fmt.Errorf("unterminated string")
}
