package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/pixels/internal/catalog"
	"github.com/dmitrijs2005/pixels/internal/common"
	"github.com/dmitrijs2005/pixels/internal/dbx"
	"github.com/dmitrijs2005/pixels/internal/logging"
	"github.com/dmitrijs2005/pixels/internal/models"
	"github.com/dmitrijs2005/pixels/internal/query"
)

// tableVar is the variable raw SQL uses to refer to the current table.
const tableVar = "c.table"

// test seams
var (
	newRunID = func() string { return uuid.NewString() }
	now      = time.Now
)

// SQLStore implements Store over database/sql for one dialect.
type SQLStore struct {
	db      *sql.DB
	d       dialect
	catalog string
	log     logging.Logger
}

func newSQLStore(db *sql.DB, d dialect, catalogName string, log logging.Logger) *SQLStore {
	if log == nil {
		log = logging.Nop()
	}
	return &SQLStore{db: db, d: d, catalog: catalogName, log: log.With("dialect", d.name())}
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) exists(ctx context.Context, db dbx.DBTX, schema, table string) (bool, error) {
	q, args := s.d.tableExists(schema, table)
	var ok bool
	if err := db.QueryRowContext(ctx, q, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	return ok, nil
}

// open resolves t and checks that the table exists.
func (s *SQLStore) open(ctx context.Context, t catalog.TableName) (string, error) {
	qualified, schema, table, err := resolve(s.d, s.catalog, t)
	if err != nil {
		return "", err
	}
	ok, err := s.exists(ctx, s.db, schema, table)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("table %s: %w", t, common.ErrNotFound)
	}
	return qualified, nil
}

func (s *SQLStore) Save(ctx context.Context, t catalog.TableName, rows []models.CatalogEntry, mode SaveMode) (int64, error) {
	if _, err := ParseSaveMode(string(mode)); err != nil {
		return 0, err
	}
	qualified, schema, table, err := resolve(s.d, s.catalog, t)
	if err != nil {
		return 0, err
	}

	var total int64
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ok, err := s.exists(ctx, tx, schema, table)
		if err != nil {
			return err
		}

		var existing, maxID int64
		if ok {
			q := "SELECT COUNT(*), COALESCE(MAX(rowid), 0) FROM " + qualified
			if err := tx.QueryRowContext(ctx, q).Scan(&existing, &maxID); err != nil {
				return fmt.Errorf("count %s: %w", t, err)
			}
		}

		switch {
		case existing > 0 && mode == SaveErrorIfExists:
			return fmt.Errorf("%s: %w", t, common.ErrTableExists)
		case existing > 0 && mode == SaveIgnore:
			total = existing
			return errSkip
		case ok && mode == SaveOverwrite:
			if _, err := tx.ExecContext(ctx, "DROP TABLE "+qualified); err != nil {
				return fmt.Errorf("drop %s: %w", t, err)
			}
			existing, maxID = 0, 0
		}

		for _, stmt := range s.d.createTable(schema, table) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("create %s: %w", t, err)
			}
		}

		var offset int64
		if mode == SaveAppend {
			offset = maxID
		}
		if err := s.insert(ctx, tx, qualified, rows, offset); err != nil {
			return fmt.Errorf("insert into %s: %w", t, err)
		}
		total = existing + int64(len(rows))

		return s.register(ctx, tx, t, mode, total, sourcePath(rows))
	})
	if errors.Is(err, errSkip) {
		s.log.Info(ctx, "table not empty, save ignored", "table", t.String(), "rows", total)
		return total, nil
	}
	if err != nil {
		return 0, err
	}

	s.log.Info(ctx, "table saved", "table", t.String(), "mode", string(mode), "rows", total)
	return total, nil
}

var errSkip = errors.New("skip")

func sourcePath(rows []models.CatalogEntry) string {
	if len(rows) == 0 {
		return ""
	}
	return rows[0].OriginalPath
}

func (s *SQLStore) insert(ctx context.Context, tx dbx.DBTX, qualified string, rows []models.CatalogEntry, offset int64) error {
	ph := make([]string, len(models.Columns))
	for i := range ph {
		ph[i] = s.d.Placeholder(i + 1)
	}
	ph[9] = s.d.castJSON(ph[9])
	ph[10] = s.d.castJSON(ph[10])
	q := "INSERT INTO " + qualified + " (" + strings.Join(models.Columns, ", ") + ") VALUES (" + strings.Join(ph, ", ") + ")"

	for i, r := range rows {
		tags := r.PathTags
		if tags == nil {
			tags = []string{}
		}
		tagsJSON, err := json.Marshal(tags)
		if err != nil {
			return err
		}
		var meta any
		if r.HasMeta() {
			meta = string(r.Meta)
		}

		rowid := r.RowID
		if rowid == 0 || offset > 0 {
			rowid = offset + int64(i) + 1
		}

		if _, err := tx.ExecContext(ctx, q,
			rowid, r.Path, s.d.timeArg(r.ModificationTime), r.Length, r.OriginalPath,
			r.RelativePath, r.LocalPath, r.Extension, r.FileType, string(tagsJSON), meta,
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) register(ctx context.Context, tx dbx.DBTX, t catalog.TableName, mode SaveMode, total int64, source string) error {
	p := s.d.Placeholder
	q := `INSERT INTO catalog_tables (name, run_id, mode, row_count, saved_at, source_path)
		VALUES (` + strings.Join([]string{p(1), p(2), p(3), p(4), p(5), p(6)}, ", ") + `)
		ON CONFLICT (name) DO UPDATE SET
			run_id = excluded.run_id,
			mode = excluded.mode,
			row_count = excluded.row_count,
			saved_at = excluded.saved_at,
			source_path = excluded.source_path`
	if _, err := tx.ExecContext(ctx, q, t.String(), newRunID(), string(mode), total, s.d.timeArg(now()), source); err != nil {
		return fmt.Errorf("register %s: %w", t, err)
	}
	return nil
}

func (s *SQLStore) where(t catalog.TableName, f query.Filter) (query.Compiled, error) {
	c, err := query.Compile(s.d, models.Columns, f, 0)
	if err != nil {
		return query.Compiled{}, fmt.Errorf("%s: %w", t, err)
	}
	return c, nil
}

func tail(c query.Compiled, defaultOrder string) string {
	var b strings.Builder
	if c.Where != "" {
		b.WriteString(" WHERE " + c.Where)
	}
	switch {
	case c.OrderBy != "":
		b.WriteString(" ORDER BY " + c.OrderBy)
	case defaultOrder != "":
		b.WriteString(" ORDER BY " + defaultOrder)
	}
	if c.Limit > 0 {
		b.WriteString(" LIMIT " + strconv.Itoa(c.Limit))
	}
	return b.String()
}

func (s *SQLStore) Load(ctx context.Context, t catalog.TableName, f query.Filter) ([]models.CatalogEntry, error) {
	c, err := s.where(t, f)
	if err != nil {
		return nil, err
	}
	qualified, err := s.open(ctx, t)
	if err != nil {
		return nil, err
	}

	q := "SELECT " + strings.Join(models.Columns, ", ") + " FROM " + qualified + tail(c, "rowid")
	rows, err := s.db.QueryContext(ctx, q, c.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", t, err)
	}
	defer rows.Close()

	var result []models.CatalogEntry
	for rows.Next() {
		var (
			e     models.CatalogEntry
			mtime dbx.Time
			tags  []byte
			meta  []byte
		)
		if err := rows.Scan(
			&e.RowID, &e.Path, &mtime, &e.Length, &e.OriginalPath, &e.RelativePath,
			&e.LocalPath, &e.Extension, &e.FileType, &tags, &meta,
		); err != nil {
			return nil, err
		}
		if mtime.Valid {
			e.ModificationTime = mtime.Time
		}
		if len(tags) > 0 {
			if err := json.Unmarshal(tags, &e.PathTags); err != nil {
				return nil, fmt.Errorf("row %d path_tags: %w", e.RowID, err)
			}
		}
		if len(meta) > 0 {
			e.Meta = json.RawMessage(meta)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *SQLStore) Count(ctx context.Context, t catalog.TableName, f query.Filter) (int64, error) {
	c, err := s.where(t, query.Filter{Where: f.Where})
	if err != nil {
		return 0, err
	}
	qualified, err := s.open(ctx, t)
	if err != nil {
		return 0, err
	}

	var n int64
	q := "SELECT COUNT(*) FROM " + qualified + tail(c, "")
	if err := s.db.QueryRowContext(ctx, q, c.Args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", t, err)
	}
	return n, nil
}

func (s *SQLStore) Query(ctx context.Context, t catalog.TableName, sel Select) (*Result, error) {
	proj, err := query.CompileSelect(s.d, models.Columns, sel.Columns)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t, err)
	}
	c, err := s.where(t, sel.Filter)
	if err != nil {
		return nil, err
	}
	qualified, err := s.open(ctx, t)
	if err != nil {
		return nil, err
	}

	items := make([]string, len(proj))
	for i, p := range proj {
		items[i] = p.SQL + " AS " + s.d.QuoteIdent(p.Alias)
	}
	q := "SELECT " + strings.Join(items, ", ") + " FROM " + qualified + tail(c, "")
	rows, err := s.db.QueryContext(ctx, q, c.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t, err)
	}
	cols, vals, err := dbx.ReadStrings(rows)
	if err != nil {
		return nil, err
	}
	return &Result{Columns: cols, Rows: vals}, nil
}

func (s *SQLStore) Exec(ctx context.Context, t catalog.TableName, raw string) (*Result, error) {
	vars := map[string]string{}
	if t != (catalog.TableName{}) {
		qualified, _, _, err := resolve(s.d, s.catalog, t)
		if err != nil {
			return nil, err
		}
		vars[tableVar] = qualified
	}
	q, err := query.Substitute(raw, vars)
	if err != nil {
		return nil, err
	}

	s.log.Debug(ctx, "exec", "sql", q)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("exec: %w", err)
	}
	cols, vals, err := dbx.ReadStrings(rows)
	if err != nil {
		return nil, err
	}
	return &Result{Columns: cols, Rows: vals}, nil
}

func (s *SQLStore) Tables(ctx context.Context) ([]models.TableInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, run_id, mode, row_count, saved_at, source_path FROM catalog_tables ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var result []models.TableInfo
	for rows.Next() {
		var (
			info    models.TableInfo
			savedAt dbx.Time
		)
		if err := rows.Scan(&info.Name, &info.RunID, &info.Mode, &info.RowCount, &savedAt, &info.SourcePath); err != nil {
			return nil, err
		}
		info.SavedAt = savedAt.Time
		result = append(result, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
