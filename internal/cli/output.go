package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/pixels/internal/models"
	"github.com/dmitrijs2005/pixels/internal/store"
	"github.com/dmitrijs2005/pixels/internal/thumbnail"
)

// maxCell bounds the width of a printed cell.
const maxCell = 60

func printTable(w io.Writer, columns []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(columns, "\t"))
	for _, r := range rows {
		cells := make([]string, len(r))
		for i, c := range r {
			cells[i] = shorten(c)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	fmt.Fprintf(tw, "(%d rows)\n", len(rows))
	return tw.Flush()
}

func printResult(w io.Writer, res *store.Result) error {
	return printTable(w, res.Columns, res.Rows)
}

func printEntries(w io.Writer, entries []models.CatalogEntry) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.FormatInt(e.RowID, 10),
			e.Path,
			e.FileType,
			thumbnail.PatientName(e.Meta),
			metaError(e.Meta),
		})
	}
	return printTable(w, []string{"rowid", "path", "file_type", "patient_name", "error"}, rows)
}

func metaError(meta json.RawMessage) string {
	if len(meta) == 0 {
		return ""
	}
	var doc struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(meta, &doc) != nil {
		return ""
	}
	return doc.Error
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// shorten keeps the tail of long cells, which for paths is the file name.
func shorten(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	r := []rune(s)
	if len(r) <= maxCell {
		return s
	}
	return "..." + string(r[len(r)-maxCell+3:])
}
