// Package thumbnail renders catalog rows as PNG thumbnails and a contact
// sheet. The first frame of each DICOM file is windowed to its own grey
// level range and scaled down.
package thumbnail

import (
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/dmitrijs2005/pixels/internal/dicommeta"
	"github.com/dmitrijs2005/pixels/internal/filex"
	"github.com/dmitrijs2005/pixels/internal/logging"
	"github.com/dmitrijs2005/pixels/internal/models"
	"github.com/dmitrijs2005/pixels/internal/source"
)

// IndexFile is the contact sheet written next to the thumbnails.
const IndexFile = "index.png"

const (
	defaultSize    = 256
	defaultColumns = 5
	maxReadSize    = 1 << 30
)

// Plotter renders thumbnails for catalog rows.
type Plotter struct {
	Source source.Source
	// Size is the longest edge of a thumbnail in pixels.
	Size int
	// Columns is the width of the contact sheet grid.
	Columns int
	// WithMeta adds the patient name to the captions.
	WithMeta bool
	Logger   logging.Logger
}

func (p *Plotter) log() logging.Logger {
	if p.Logger == nil {
		return logging.Nop()
	}
	return p.Logger
}

// Plot writes one PNG per renderable row into outDir followed by the
// contact sheet, and returns the written paths. Rows that cannot be
// rendered are logged and skipped.
func (p *Plotter) Plot(ctx context.Context, rows []models.CatalogEntry, outDir string) ([]string, error) {
	size, cols := p.Size, p.Columns
	if size <= 0 {
		size = defaultSize
	}
	if cols <= 0 {
		cols = defaultColumns
	}

	dir, err := filex.EnsureDir(outDir)
	if err != nil {
		return nil, err
	}

	lines := 1
	if p.WithMeta {
		lines = 2
	}

	var (
		files []string
		tiles []tile
	)
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return files, err
		}

		t, err := p.render(ctx, row, size)
		if err != nil {
			p.log().Warn(ctx, "thumbnail skipped", "path", row.Path, "error", err.Error())
			continue
		}

		name := filepath.Join(dir, fmt.Sprintf("%06d.png", row.RowID))
		if err := filex.WriteFile(name, func(w io.Writer) error { return png.Encode(w, t.img) }); err != nil {
			return files, fmt.Errorf("write %s: %w", name, err)
		}
		files = append(files, name)
		tiles = append(tiles, t)
	}

	if len(tiles) == 0 {
		p.log().Warn(ctx, "nothing to plot", "rows", len(rows))
		return files, nil
	}

	sheet := contactSheet(tiles, cols, size, lines)
	index := filepath.Join(dir, IndexFile)
	if err := filex.WriteFile(index, func(w io.Writer) error { return png.Encode(w, sheet) }); err != nil {
		return files, fmt.Errorf("write %s: %w", index, err)
	}
	files = append(files, index)

	p.log().Info(ctx, "thumbnails written", "dir", dir, "count", len(tiles))
	return files, nil
}

func (p *Plotter) render(ctx context.Context, row models.CatalogEntry, size int) (tile, error) {
	rc, err := p.Source.Open(ctx, row.Path)
	if err != nil {
		return tile{}, err
	}
	data, err := io.ReadAll(io.LimitReader(rc, maxReadSize))
	_ = rc.Close()
	if err != nil {
		return tile{}, err
	}

	img, ds, err := dicommeta.FirstFrame(data)
	if err != nil {
		return tile{}, err
	}

	t := tile{img: Scale(Window(img), size)}
	if p.WithMeta {
		name := PatientName(row.Meta)
		if name == "" {
			name = datasetPatientName(ds)
		}
		t.captions = append(t.captions, name)
	}
	t.captions = append(t.captions, path.Base(filepath.ToSlash(row.Path)))
	return t, nil
}

// PatientName returns the alphabetic patient name from a meta document,
// or "" when it has none.
func PatientName(meta json.RawMessage) string {
	if len(meta) == 0 {
		return ""
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(meta, &doc); err != nil {
		return ""
	}
	var attr struct {
		Value []models.PersonName `json:"Value"`
	}
	if err := json.Unmarshal(doc[models.MetaPatientTag], &attr); err != nil || len(attr.Value) == 0 {
		return ""
	}
	return attr.Value[0].Alphabetic
}

func datasetPatientName(ds dicom.Dataset) string {
	el, err := ds.FindElementByTag(tag.PatientName)
	if err != nil || el.Value == nil || el.Value.ValueType() != dicom.Strings {
		return ""
	}
	if v := dicom.MustGetStrings(el.Value); len(v) > 0 {
		return strings.TrimRight(v[0], " \x00")
	}
	return ""
}
