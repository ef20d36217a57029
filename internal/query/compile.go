// Package query implements the small declarative language used to filter,
// order and project catalog rows, e.g.
//
//	meta:img_max < 1000 AND array_contains(path_tags, 'patient7747')
//	meta:['00100010'].Value[0].Alphabetic LIKE 'Doe%'
//
// Expressions are compiled to SQL for a Dialect with every literal bound as
// a parameter.
package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/pixels/internal/common"
)

// Dialect renders the SQL fragments that differ between databases.
type Dialect interface {
	// Placeholder returns the n-th (1-based) bind parameter marker.
	Placeholder(n int) string
	// QuoteIdent quotes a column name.
	QuoteIdent(name string) string
	// JSONText extracts the value at path of a JSON column as text.
	JSONText(column string, path []PathElem) string
	// JSONNumber extracts the value at path of a JSON column as a number.
	JSONNumber(column string, path []PathElem) string
	// ArrayContains tests whether the array column contains the bound value.
	ArrayContains(column string, placeholder string) string
}

// Filter selects, orders and limits catalog rows. Empty fields mean no
// restriction.
type Filter struct {
	Where   string
	OrderBy string
	Limit   int
}

// Compiled is a Filter rendered for a dialect. Where and OrderBy are SQL
// fragments without the WHERE / ORDER BY keywords.
type Compiled struct {
	Where   string
	Args    []any
	OrderBy string
	Limit   int
}

// Projection is one compiled select-list entry.
type Projection struct {
	SQL   string
	Alias string
}

type compiler struct {
	d    Dialect
	args []any
	base int
}

func (c *compiler) bind(v any) string {
	c.args = append(c.args, v)
	return c.d.Placeholder(c.base + len(c.args))
}

// Compile parses and renders f. Placeholders are numbered from argBase+1 so
// the fragment can be embedded after other bound parameters.
func Compile(d Dialect, columns []string, f Filter, argBase int) (Compiled, error) {
	if f.Limit < 0 {
		return Compiled{}, fmt.Errorf("negative limit: %w", common.ErrInvalidFilter)
	}
	out := Compiled{Limit: f.Limit}

	if strings.TrimSpace(f.Where) != "" {
		p, err := newParser(f.Where, columns)
		if err != nil {
			return Compiled{}, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return Compiled{}, err
		}
		if t := p.peek(); t.kind != tokEOF {
			return Compiled{}, p.errorf("unexpected %s", t)
		}
		c := &compiler{d: d, base: argBase}
		out.Where = c.render(e)
		out.Args = c.args
	}

	if strings.TrimSpace(f.OrderBy) != "" {
		order, err := compileOrder(d, columns, f.OrderBy)
		if err != nil {
			return Compiled{}, err
		}
		out.OrderBy = order
	}

	return out, nil
}

func (c *compiler) render(e expr) string {
	switch v := e.(type) {
	case logical:
		return "(" + c.render(v.left) + " " + v.op + " " + c.render(v.right) + ")"
	case negation:
		return "NOT (" + c.render(v.inner) + ")"
	case nullCheck:
		op := " IS NULL"
		if v.not {
			op = " IS NOT NULL"
		}
		return c.text(v.field) + op
	case contains:
		// array elements are strings
		val := v.value
		switch x := val.(type) {
		case float64:
			val = strconv.FormatFloat(x, 'f', -1, 64)
		case bool:
			val = strconv.FormatBool(x)
		}
		return c.d.ArrayContains(c.d.QuoteIdent(v.field.Column), c.bind(val))
	case comparison:
		lhs, val := c.text(v.field), v.value
		if len(v.field.Path) > 0 {
			switch x := val.(type) {
			case float64:
				lhs = c.d.JSONNumber(c.d.QuoteIdent(v.field.Column), v.field.Path)
			case bool:
				// JSON text of a boolean
				val = strconv.FormatBool(x)
			}
		}
		return lhs + " " + v.op + " " + c.bind(val)
	}
	panic(fmt.Sprintf("query: unknown expression %T", e))
}

func (c *compiler) text(f Field) string {
	col := c.d.QuoteIdent(f.Column)
	if len(f.Path) == 0 {
		return col
	}
	return c.d.JSONText(col, f.Path)
}

func compileOrder(d Dialect, columns []string, s string) (string, error) {
	var parts []string
	for _, item := range strings.Split(s, ",") {
		p, err := newParser(item, columns)
		if err != nil {
			return "", err
		}
		f, err := p.parseField()
		if err != nil {
			return "", err
		}
		dir := ""
		if t := p.peek(); p.keyword(t, "asc") || p.keyword(t, "desc") {
			dir = " " + strings.ToUpper(p.next().text)
		}
		if t := p.peek(); t.kind != tokEOF {
			return "", p.errorf("unexpected %s in ORDER BY", t)
		}
		c := &compiler{d: d}
		parts = append(parts, c.text(f)+dir)
	}
	return strings.Join(parts, ", "), nil
}

// CompileSelect renders a comma separated projection list such as
//
//	rowid, meta:hash, meta:['00100010'].Value[0].Alphabetic as patient_name
//
// An empty list selects every column.
func CompileSelect(d Dialect, columns []string, s string) ([]Projection, error) {
	if strings.TrimSpace(s) == "" {
		out := make([]Projection, 0, len(columns))
		for _, col := range columns {
			out = append(out, Projection{SQL: d.QuoteIdent(col), Alias: col})
		}
		return out, nil
	}

	var out []Projection
	for _, item := range strings.Split(s, ",") {
		p, err := newParser(item, columns)
		if err != nil {
			return nil, err
		}
		f, err := p.parseField()
		if err != nil {
			return nil, err
		}
		alias := f.name()
		if p.keyword(p.peek(), "as") {
			p.next()
			t, err := p.expect(tokIdent, "alias")
			if err != nil {
				return nil, err
			}
			alias = t.text
		}
		if t := p.peek(); t.kind != tokEOF {
			return nil, p.errorf("unexpected %s in select list", t)
		}
		c := &compiler{d: d}
		out = append(out, Projection{SQL: c.text(f), Alias: alias})
	}
	return out, nil
}
