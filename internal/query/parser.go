package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/pixels/internal/common"
)

type parser struct {
	tokens  []token
	pos     int
	columns map[string]struct{}
}

func newParser(input string, columns []string) (*parser, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}
	cols := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		cols[c] = struct{}{}
	}
	return &parser{tokens: tokens, columns: cols}, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, common.ErrInvalidFilter)...)
}

func (p *parser) keyword(t token, kw string) bool {
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, p.errorf("expected %s, got %s", what, t)
	}
	return t, nil
}

// parseExpr: term (OR term)*
func (p *parser) parseExpr() (expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.keyword(p.peek(), "or") {
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = logical{op: "OR", left: left, right: right}
	}
	return left, nil
}

// parseTerm: factor (AND factor)*
func (p *parser) parseTerm() (expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.keyword(p.peek(), "and") {
		p.next()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = logical{op: "AND", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseFactor() (expr, error) {
	t := p.peek()

	switch {
	case p.keyword(t, "not"):
		p.next()
		inner, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return negation{inner: inner}, nil

	case t.kind == tokLParen:
		p.next()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return e, nil

	case p.keyword(t, "array_contains"):
		p.next()
		if _, err := p.expect(tokLParen, "'('"); err != nil {
			return nil, err
		}
		f, err := p.parseField()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokComma, "','"); err != nil {
			return nil, err
		}
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return contains{field: f, value: v}, nil
	}

	f, err := p.parseField()
	if err != nil {
		return nil, err
	}

	t = p.next()
	switch {
	case p.keyword(t, "is"):
		not := false
		if p.keyword(p.peek(), "not") {
			p.next()
			not = true
		}
		if !p.keyword(p.next(), "null") {
			return nil, p.errorf("expected NULL after IS")
		}
		return nullCheck{field: f, not: not}, nil

	case p.keyword(t, "like"):
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		s, ok := v.(string)
		if !ok {
			return nil, p.errorf("LIKE needs a string pattern")
		}
		return comparison{field: f, op: "LIKE", value: s}, nil

	case t.kind == tokOp:
		op := t.text
		switch op {
		case "==":
			op = "="
		case "!=":
			op = "<>"
		}
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return comparison{field: f, op: op, value: v}, nil
	}

	return nil, p.errorf("expected operator after %s, got %s", f, t)
}

func (p *parser) parseLiteral() (any, error) {
	t := p.next()
	switch {
	case t.kind == tokString:
		return t.text, nil
	case t.kind == tokNumber:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, p.errorf("bad number %s", t)
		}
		return f, nil
	case p.keyword(t, "true"):
		return true, nil
	case p.keyword(t, "false"):
		return false, nil
	}
	return nil, p.errorf("expected literal, got %s", t)
}

// parseField reads a column name, optionally followed by ":" and a JSON
// path such as img_max or ['00100010'].Value[0].Alphabetic.
func (p *parser) parseField() (Field, error) {
	t, err := p.expect(tokIdent, "column")
	if err != nil {
		return Field{}, err
	}
	col := strings.ToLower(t.text)
	if _, ok := p.columns[col]; !ok {
		return Field{}, p.errorf("unknown column %q", t.text)
	}
	f := Field{Column: col}

	if p.peek().kind != tokColon {
		return f, nil
	}
	p.next()

	// first segment: key or ['key']
	if p.peek().kind == tokLBracket {
		elem, err := p.parseBracket()
		if err != nil {
			return Field{}, err
		}
		f.Path = append(f.Path, elem)
	} else {
		key, err := p.parseKey()
		if err != nil {
			return Field{}, err
		}
		f.Path = append(f.Path, PathElem{Key: key})
	}

	for {
		switch p.peek().kind {
		case tokDot:
			p.next()
			key, err := p.parseKey()
			if err != nil {
				return Field{}, err
			}
			f.Path = append(f.Path, PathElem{Key: key})
		case tokLBracket:
			elem, err := p.parseBracket()
			if err != nil {
				return Field{}, err
			}
			f.Path = append(f.Path, elem)
		default:
			return f, nil
		}
	}
}

// parseKey reads a bare key. Adjacent number and identifier tokens are
// joined so hexadecimal tags such as 7FE00010 read as one key.
func (p *parser) parseKey() (string, error) {
	t := p.next()
	if t.kind != tokIdent && t.kind != tokNumber {
		return "", p.errorf("expected key, got %s", t)
	}
	key := t.text
	end := t.pos + len(t.text)
	for {
		n := p.peek()
		if (n.kind != tokIdent && n.kind != tokNumber) || n.pos != end {
			break
		}
		p.next()
		key += n.text
		end = n.pos + len(n.text)
	}
	if err := validKey(key); err != nil {
		return "", err
	}
	return key, nil
}

func (p *parser) parseBracket() (PathElem, error) {
	p.next() // [
	t := p.next()
	var elem PathElem
	switch t.kind {
	case tokString:
		if err := validKey(t.text); err != nil {
			return PathElem{}, err
		}
		elem = PathElem{Key: t.text}
	case tokNumber:
		n, err := strconv.Atoi(t.text)
		if err != nil || n < 0 {
			return PathElem{}, p.errorf("bad index %s", t)
		}
		elem = PathElem{Index: n, IsIndex: true}
	default:
		return PathElem{}, p.errorf("expected key or index, got %s", t)
	}
	if _, err := p.expect(tokRBracket, "']'"); err != nil {
		return PathElem{}, err
	}
	return elem, nil
}

// validKey restricts JSON keys to characters that can be embedded in a
// JSON path literal without escaping.
func validKey(k string) error {
	if k == "" {
		return fmt.Errorf("empty key: %w", common.ErrInvalidFilter)
	}
	for _, r := range k {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return fmt.Errorf("bad key %q: %w", k, common.ErrInvalidFilter)
		}
	}
	return nil
}
