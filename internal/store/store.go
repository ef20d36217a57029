// Package store persists catalog tables in a SQL database. PostgreSQL and
// SQLite are supported; both keep the same column layout, with the meta
// document and path tags stored as JSON.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/pixels/internal/catalog"
	"github.com/dmitrijs2005/pixels/internal/common"
	"github.com/dmitrijs2005/pixels/internal/models"
	"github.com/dmitrijs2005/pixels/internal/query"
)

// SaveMode controls what Save does when the table already holds rows.
type SaveMode string

const (
	// SaveOverwrite replaces the table contents.
	SaveOverwrite SaveMode = "overwrite"
	// SaveAppend adds rows after the existing ones, renumbering rowid.
	SaveAppend SaveMode = "append"
	// SaveErrorIfExists fails with common.ErrTableExists.
	SaveErrorIfExists SaveMode = "errorifexists"
	// SaveIgnore leaves the table untouched.
	SaveIgnore SaveMode = "ignore"
)

// ParseSaveMode accepts the mode names case-insensitively; "error" is an
// alias for "errorifexists".
func ParseSaveMode(s string) (SaveMode, error) {
	switch m := SaveMode(strings.ToLower(strings.TrimSpace(s))); m {
	case SaveOverwrite, SaveAppend, SaveErrorIfExists, SaveIgnore:
		return m, nil
	case "error":
		return SaveErrorIfExists, nil
	}
	return "", fmt.Errorf("%q: %w", s, common.ErrInvalidSaveMode)
}

// Select is a projection query over a catalog table.
type Select struct {
	// Columns is a select list such as "rowid, meta:hash as hash".
	// Empty selects every column.
	Columns string
	query.Filter
}

// Result is a tabular query result rendered as text.
type Result struct {
	Columns []string
	Rows    [][]string
}

// Store is a catalog table repository.
type Store interface {
	// Save writes rows into table according to mode and records the run in
	// the table registry. It returns the number of rows the table holds
	// afterwards.
	Save(ctx context.Context, table catalog.TableName, rows []models.CatalogEntry, mode SaveMode) (int64, error)
	// Load returns the rows matching f, ordered by rowid unless f orders
	// them. A missing table yields common.ErrNotFound.
	Load(ctx context.Context, table catalog.TableName, f query.Filter) ([]models.CatalogEntry, error)
	// Count returns the number of rows matching f.
	Count(ctx context.Context, table catalog.TableName, f query.Filter) (int64, error)
	// Query runs a projection over table.
	Query(ctx context.Context, table catalog.TableName, s Select) (*Result, error)
	// Exec runs raw SQL after replacing ${c.table} with the physical name
	// of table.
	Exec(ctx context.Context, table catalog.TableName, sql string) (*Result, error)
	// Tables lists the registry.
	Tables(ctx context.Context) ([]models.TableInfo, error)
	Close() error
}
