package query

import (
	"fmt"
	"regexp"

	"github.com/dmitrijs2005/pixels/internal/common"
)

var varRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_.]*)\}`)

// Substitute replaces ${name} references in sql with values from vars,
// e.g. "select count(*) from ${c.table}". Unknown names are an error.
func Substitute(sql string, vars map[string]string) (string, error) {
	var missing string
	out := varRe.ReplaceAllStringFunc(sql, func(m string) string {
		name := varRe.FindStringSubmatch(m)[1]
		v, ok := vars[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return m
		}
		return v
	})
	if missing != "" {
		return "", fmt.Errorf("${%s}: %w", missing, common.ErrUnknownVariable)
	}
	return out, nil
}
