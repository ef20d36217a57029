package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/pixels/internal/common"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// TableName is a three-part qualified table identifier.
type TableName struct {
	Catalog string
	Schema  string
	Table   string
}

func (t TableName) String() string {
	return t.Catalog + "." + t.Schema + "." + t.Table
}

// ParseTableName parses "<catalog>.<schema>.<table>". Every part must be a
// plain identifier; quoting is not supported. Identifiers are lowercased.
func ParseTableName(s string) (TableName, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return TableName{}, fmt.Errorf("%q: want <catalog>.<schema>.<table>: %w", s, common.ErrInvalidTableName)
	}
	for i, p := range parts {
		if !identRe.MatchString(p) {
			return TableName{}, fmt.Errorf("%q: bad identifier %q: %w", s, p, common.ErrInvalidTableName)
		}
		parts[i] = strings.ToLower(p)
	}
	return TableName{Catalog: parts[0], Schema: parts[1], Table: parts[2]}, nil
}
