package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/pixels/internal/catalog"
	"github.com/dmitrijs2005/pixels/internal/models"
	"github.com/dmitrijs2005/pixels/internal/query"
	"github.com/dmitrijs2005/pixels/internal/store"
)

const usage = `Usage: pixels [flags] <command> [args]

Commands:
  ls [path]                 list the top level of path
  catalog [path]            catalog path recursively and save it into -table
  count [where]             count rows of -table
  extract                   extract DICOM metadata of -table in place
  query <cols> [where ..] [order by ..] [limit n]
                            run a projection over -table
  sql <statement>           run SQL; ${c.table} names -table
  filter [where]            list rows matching where (default -filter)
  plot [where]              render thumbnails of matching rows into -thumbnails
  run                       run every step with the configured settings
  tables                    list saved tables
  use <table>               switch -table for the following commands
  shell                     start an interactive shell
  version                   print build information
  help                      show this message`

// Help prints the command summary.
func (a *App) Help() {
	a.printf("%s\n", usage)
}

// List prints the immediate children of path.
func (a *App) List(ctx context.Context, args []string) error {
	path := argOr(args, a.config.Path)
	files, err := a.svc.ListSample(ctx, path, 0)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(files))
	for _, f := range files {
		kind := "file"
		if f.IsDir {
			kind = "dir"
		}
		rows = append(rows, []string{f.Path, kind, strconv.FormatInt(f.Size, 10), formatTime(f.ModTime)})
	}
	return printTable(a.out, []string{"path", "type", "size", "modified"}, rows)
}

// Catalog catalogs path and saves it into the configured table.
func (a *App) Catalog(ctx context.Context, args []string) error {
	path := argOr(args, a.config.Path)
	rows, err := a.svc.Catalog(ctx, path)
	if err != nil {
		return err
	}
	n, err := a.svc.Save(ctx, a.config.Table, rows, a.config.SaveMode)
	if err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	a.printf("cataloged %d files into %s (%d rows)\n", len(rows), a.config.Table, n)
	return nil
}

// Count prints the number of matching rows.
func (a *App) Count(ctx context.Context, args []string) error {
	n, err := a.svc.Count(ctx, a.config.Table, strings.Join(args, " "))
	if err != nil {
		return err
	}
	a.printf("%d\n", n)
	return nil
}

// Extract loads the table, extracts metadata and overwrites it.
func (a *App) Extract(ctx context.Context) error {
	rows, err := a.svc.Load(ctx, a.config.Table, query.Filter{})
	if err != nil {
		return err
	}
	start := time.Now()
	withMeta, err := a.svc.Extract(ctx, rows)
	if err != nil {
		return err
	}
	if _, err := a.svc.Save(ctx, a.config.Table, withMeta, string(store.SaveOverwrite)); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}
	a.printf("extracted %d rows (%d failed) in %s\n",
		len(withMeta), failedRows(withMeta), time.Since(start).Round(time.Millisecond))
	return nil
}

// Query runs a projection: cols [where expr] [order by field] [limit n].
func (a *App) Query(ctx context.Context, args []string) error {
	sel, err := parseSelect(strings.Join(args, " "))
	if err != nil {
		return err
	}
	res, err := a.svc.Query(ctx, a.config.Table, sel)
	if err != nil {
		return err
	}
	return printResult(a.out, res)
}

// SQL runs a raw statement.
func (a *App) SQL(ctx context.Context, args []string) error {
	raw := strings.TrimSpace(strings.Join(args, " "))
	if raw == "" {
		return fmt.Errorf("sql: empty statement")
	}
	table := a.config.Table
	if !strings.Contains(raw, "${") {
		table = ""
	}
	res, err := a.svc.SQL(ctx, table, raw)
	if err != nil {
		return err
	}
	return printResult(a.out, res)
}

// Filter prints rows matching the filter.
func (a *App) Filter(ctx context.Context, args []string) error {
	rows, err := a.svc.Filter(ctx, a.config.Table, a.where(args), a.config.PlotLimit)
	if err != nil {
		return err
	}
	return printEntries(a.out, rows)
}

// Plot renders thumbnails of the matching rows.
func (a *App) Plot(ctx context.Context, args []string) error {
	rows, err := a.svc.Filter(ctx, a.config.Table, a.where(args), a.config.PlotLimit)
	if err != nil {
		return err
	}
	files, err := a.svc.Plot(ctx, rows, a.config.ThumbnailDir)
	if err != nil {
		return err
	}
	a.printf("wrote %d files to %s\n", len(files), a.config.ThumbnailDir)
	return nil
}

// RunAll runs the whole chain and prints the report.
func (a *App) RunAll(ctx context.Context) error {
	rep, err := a.svc.Run(ctx)
	if err != nil {
		return err
	}

	a.printf("sample of %s:\n", a.config.Path)
	for _, f := range rep.Sample {
		a.printf("  %s\n", f.Path)
	}
	a.printf("cataloged:  %d\n", rep.Cataloged)
	a.printf("extracted:  %d (%d failed)\n", rep.Extracted, rep.Failed)
	if rep.Preview != nil {
		if err := printResult(a.out, rep.Preview); err != nil {
			return err
		}
	}
	a.printf("filtered:   %d\n", rep.Filtered)
	a.printf("thumbnails: %d in %s\n", len(rep.Thumbnails), a.config.ThumbnailDir)
	a.printf("elapsed:    %s\n", rep.Elapsed.Round(time.Millisecond))
	return nil
}

// Tables prints the table registry.
func (a *App) Tables(ctx context.Context) error {
	infos, err := a.svc.Tables(ctx)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(infos))
	for _, t := range infos {
		rows = append(rows, []string{
			t.Name, t.Mode, strconv.FormatInt(t.RowCount, 10), formatTime(t.SavedAt), t.SourcePath, t.RunID,
		})
	}
	return printTable(a.out, []string{"name", "mode", "rows", "saved_at", "source", "run_id"}, rows)
}

// Use switches the table the following commands work on.
func (a *App) Use(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("use: expected one table name")
	}
	if _, err := catalog.ParseTableName(args[0]); err != nil {
		return err
	}
	a.config.Table = args[0]
	a.printf("using %s\n", args[0])
	return nil
}

func (a *App) where(args []string) string {
	if len(args) == 0 {
		return a.config.Filter
	}
	return strings.Join(args, " ")
}

func argOr(args []string, def string) string {
	if len(args) > 0 {
		return args[0]
	}
	return def
}

func failedRows(rows []models.CatalogEntry) int {
	n := 0
	for _, r := range rows {
		if metaError(r.Meta) != "" {
			n++
		}
	}
	return n
}

// parseSelect splits "cols [where ..] [order by ..] [limit n]". Keywords
// inside quoted literals are not clause boundaries.
func parseSelect(s string) (store.Select, error) {
	var sel store.Select
	s = " " + s
	lower := clauseView(s)

	cut := func(kw string) (int, bool) {
		i := strings.Index(lower, " "+kw+" ")
		if i < 0 {
			return len(s), false
		}
		return i, true
	}

	end := len(s)
	if i, ok := cut("limit"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(s[i+len(" limit "):]))
		if err != nil || n < 0 {
			return sel, fmt.Errorf("bad limit %q", strings.TrimSpace(s[i+len(" limit "):]))
		}
		sel.Limit = n
		end = i
	}
	if i, ok := cut("order by"); ok && i < end {
		sel.OrderBy = strings.TrimSpace(s[i+len(" order by ") : end])
		end = i
	}
	if i, ok := cut("where"); ok && i < end {
		sel.Where = strings.TrimSpace(s[i+len(" where ") : end])
		end = i
	}
	sel.Columns = strings.TrimSpace(s[:end])
	if sel.Columns == "*" {
		sel.Columns = ""
	}
	return sel, nil
}

// clauseView lowercases ASCII letters and masks single-quoted literals
// with '_', keeping byte offsets.
func clauseView(s string) string {
	b := []byte(s)
	in := false
	for i, c := range b {
		switch {
		case c == '\'':
			in = !in
		case in:
			b[i] = '_'
		case 'A' <= c && c <= 'Z':
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}
