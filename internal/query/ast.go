package query

import (
	"strconv"
	"strings"
)

// PathElem is one step into a JSON document: an object key or an array index.
type PathElem struct {
	Key     string
	Index   int
	IsIndex bool
}

func (p PathElem) String() string {
	if p.IsIndex {
		return "[" + strconv.Itoa(p.Index) + "]"
	}
	return "['" + p.Key + "']"
}

// Field references a table column or, when Path is set, a value inside the
// JSON document stored in that column.
type Field struct {
	Column string
	Path   []PathElem
}

func (f Field) String() string {
	if len(f.Path) == 0 {
		return f.Column
	}
	var b strings.Builder
	b.WriteString(f.Column)
	b.WriteString(":")
	for _, p := range f.Path {
		b.WriteString(p.String())
	}
	return b.String()
}

// name is the default output label for a projected field.
func (f Field) name() string {
	for i := len(f.Path) - 1; i >= 0; i-- {
		if !f.Path[i].IsIndex {
			return f.Path[i].Key
		}
	}
	return f.Column
}

type expr interface {
	isExpr()
}

type logical struct {
	op          string // AND, OR
	left, right expr
}

type negation struct {
	inner expr
}

type comparison struct {
	field Field
	op    string
	value any // string, float64 or bool
}

type nullCheck struct {
	field Field
	not   bool
}

type contains struct {
	field Field
	value any
}

func (logical) isExpr()    {}
func (negation) isExpr()   {}
func (comparison) isExpr() {}
func (nullCheck) isExpr()  {}
func (contains) isExpr()   {}
