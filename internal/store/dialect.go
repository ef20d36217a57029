package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrijs2005/pixels/internal/catalog"
	"github.com/dmitrijs2005/pixels/internal/common"
	"github.com/dmitrijs2005/pixels/internal/dbx"
	"github.com/dmitrijs2005/pixels/internal/migrations"
	"github.com/dmitrijs2005/pixels/internal/query"
)

// dialect covers the SQL differences between the supported databases.
type dialect interface {
	query.Dialect

	name() string
	gooseDialect() string
	migrationsDir() string

	// catalogName returns the name the catalog part of a table name must match.
	catalogName(ctx context.Context, db dbx.DBTX) (string, error)
	// physical maps a logical table name to a schema and table.
	physical(t catalog.TableName) (schema, table string)
	qualify(schema, table string) string

	createTable(schema, table string) []string
	tableExists(schema, table string) (string, []any)
	timeArg(t time.Time) any
	castJSON(placeholder string) string
}

// resolve validates the catalog part of t and returns the quoted physical
// name along with its parts.
func resolve(d dialect, catalogName string, t catalog.TableName) (qualified, schema, table string, err error) {
	if t.Catalog != catalogName {
		return "", "", "", fmt.Errorf("%s: catalog %q, connected to %q: %w", t, t.Catalog, catalogName, common.ErrCatalogMismatch)
	}
	schema, table = d.physical(t)
	return d.qualify(schema, table), schema, table, nil
}

type postgresDialect struct{}

func (postgresDialect) name() string          { return "postgres" }
func (postgresDialect) gooseDialect() string  { return "pgx" }
func (postgresDialect) migrationsDir() string { return migrations.PostgresDir }

func (postgresDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgresDialect) QuoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func pgPath(path []query.PathElem) string {
	parts := make([]string, len(path))
	for i, p := range path {
		if p.IsIndex {
			parts[i] = fmt.Sprint(p.Index)
		} else {
			parts[i] = p.Key
		}
	}
	return "'{" + strings.Join(parts, ",") + "}'"
}

func (postgresDialect) JSONText(column string, path []query.PathElem) string {
	return "(" + column + " #>> " + pgPath(path) + ")"
}

func (postgresDialect) JSONNumber(column string, path []query.PathElem) string {
	p := pgPath(path)
	return "(CASE WHEN jsonb_typeof(" + column + " #> " + p + ") = 'number' THEN (" +
		column + " #>> " + p + ")::double precision END)"
}

func (postgresDialect) ArrayContains(column, placeholder string) string {
	return column + " @> jsonb_build_array(" + placeholder + "::text)"
}

func (postgresDialect) catalogName(ctx context.Context, db dbx.DBTX) (string, error) {
	var name string
	if err := db.QueryRowContext(ctx, `SELECT current_database()`).Scan(&name); err != nil {
		return "", fmt.Errorf("current database: %w", err)
	}
	return strings.ToLower(name), nil
}

func (postgresDialect) physical(t catalog.TableName) (string, string) {
	return t.Schema, t.Table
}

func (postgresDialect) qualify(schema, table string) string {
	return pgx.Identifier{schema, table}.Sanitize()
}

func (d postgresDialect) createTable(schema, table string) []string {
	return []string{
		"CREATE SCHEMA IF NOT EXISTS " + d.QuoteIdent(schema),
		`CREATE TABLE IF NOT EXISTS ` + d.qualify(schema, table) + ` (
			rowid             BIGINT PRIMARY KEY,
			path              TEXT NOT NULL,
			modification_time TIMESTAMPTZ,
			length            BIGINT NOT NULL DEFAULT 0,
			original_path     TEXT NOT NULL DEFAULT '',
			relative_path     TEXT NOT NULL DEFAULT '',
			local_path        TEXT NOT NULL DEFAULT '',
			extension         TEXT NOT NULL DEFAULT '',
			file_type         TEXT NOT NULL DEFAULT '',
			path_tags         JSONB NOT NULL DEFAULT '[]',
			meta              JSONB
		)`,
	}
}

func (postgresDialect) tableExists(schema, table string) (string, []any) {
	return `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2)`,
		[]any{schema, table}
}

func (postgresDialect) castJSON(ph string) string { return ph + "::jsonb" }

func (postgresDialect) timeArg(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// sqliteDialect maps every schema other than main onto a table name
// prefix, since an SQLite file has a single schema.
type sqliteDialect struct{}

const sqliteMain = "main"

func (sqliteDialect) name() string          { return "sqlite" }
func (sqliteDialect) gooseDialect() string  { return "sqlite3" }
func (sqliteDialect) migrationsDir() string { return migrations.SQLiteDir }

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sqlitePath(path []query.PathElem) string {
	var b strings.Builder
	b.WriteString("'$")
	for _, p := range path {
		if p.IsIndex {
			fmt.Fprintf(&b, "[%d]", p.Index)
		} else {
			b.WriteString(`."` + p.Key + `"`)
		}
	}
	b.WriteString("'")
	return b.String()
}

// JSONText renders JSON booleans as 'true'/'false' like Postgres #>>;
// json_extract alone yields 1/0.
func (sqliteDialect) JSONText(column string, path []query.PathElem) string {
	p := sqlitePath(path)
	return "(CASE json_type(" + column + ", " + p + ") WHEN 'true' THEN 'true' WHEN 'false' THEN 'false' ELSE json_extract(" +
		column + ", " + p + ") END)"
}

func (sqliteDialect) JSONNumber(column string, path []query.PathElem) string {
	p := sqlitePath(path)
	return "(CASE WHEN json_type(" + column + ", " + p + ") IN ('integer', 'real') THEN json_extract(" +
		column + ", " + p + ") END)"
}

func (sqliteDialect) ArrayContains(column, placeholder string) string {
	return "EXISTS (SELECT 1 FROM json_each(" + column + ") WHERE json_each.value = " + placeholder + ")"
}

func (sqliteDialect) catalogName(context.Context, dbx.DBTX) (string, error) {
	return sqliteMain, nil
}

func (sqliteDialect) physical(t catalog.TableName) (string, string) {
	if t.Schema == sqliteMain {
		return sqliteMain, t.Table
	}
	return sqliteMain, t.Schema + "__" + t.Table
}

func (d sqliteDialect) qualify(schema, table string) string {
	return d.QuoteIdent(schema) + "." + d.QuoteIdent(table)
}

func (d sqliteDialect) createTable(schema, table string) []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + d.qualify(schema, table) + ` (
			rowid             INTEGER PRIMARY KEY,
			path              TEXT NOT NULL,
			modification_time TEXT,
			length            INTEGER NOT NULL DEFAULT 0,
			original_path     TEXT NOT NULL DEFAULT '',
			relative_path     TEXT NOT NULL DEFAULT '',
			local_path        TEXT NOT NULL DEFAULT '',
			extension         TEXT NOT NULL DEFAULT '',
			file_type         TEXT NOT NULL DEFAULT '',
			path_tags         TEXT NOT NULL DEFAULT '[]',
			meta              TEXT
		)`,
	}
}

func (sqliteDialect) tableExists(schema, table string) (string, []any) {
	return `SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?)`, []any{table}
}

func (sqliteDialect) castJSON(ph string) string { return ph }

func (sqliteDialect) timeArg(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
