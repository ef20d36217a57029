package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pixels/internal/models"
	"github.com/dmitrijs2005/pixels/internal/query"
	"github.com/dmitrijs2005/pixels/internal/source"
	"github.com/dmitrijs2005/pixels/internal/store"
)

// sampleSize is how many entries of the source root a run lists first.
const sampleSize = 5

// PreviewColumns is the projection shown after extraction.
const PreviewColumns = "rowid, meta:['00100010'].Value[0].Alphabetic as patient_name, " +
	"meta:hash, meta:img_min, meta:img_max, path"

// Report summarises a full run.
type Report struct {
	Sample     []source.FileInfo
	Cataloged  int64
	Extracted  int
	Failed     int
	Preview    *store.Result
	Filtered   int
	Thumbnails []string
	Elapsed    time.Duration
}

// Run executes every step with the configured path, table, save mode,
// filter and plot settings.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	rep := &Report{}
	table := s.cfg.Table

	sample, err := s.ListSample(ctx, s.cfg.Path, sampleSize)
	if err != nil {
		return nil, err
	}
	rep.Sample = sample

	rows, err := s.Catalog(ctx, s.cfg.Path)
	if err != nil {
		return nil, err
	}
	if _, err := s.Save(ctx, table, rows, s.cfg.SaveMode); err != nil {
		return nil, fmt.Errorf("save catalog: %w", err)
	}

	if rep.Cataloged, err = s.Count(ctx, table, ""); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "catalog saved", "table", table, "rows", rep.Cataloged)

	rows, err = s.Load(ctx, table, query.Filter{})
	if err != nil {
		return nil, err
	}
	withMeta, err := s.Extract(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	rep.Extracted = len(withMeta)
	rep.Failed = countFailed(withMeta)

	// metadata replaces the plain catalog rows
	if _, err := s.Save(ctx, table, withMeta, string(store.SaveOverwrite)); err != nil {
		return nil, fmt.Errorf("save metadata: %w", err)
	}

	rep.Preview, err = s.Query(ctx, table, store.Select{
		Columns: PreviewColumns,
		Filter: query.Filter{
			Where:   "file_type = 'dicom'",
			OrderBy: "meta:['00100010'].Value[0].Alphabetic",
			Limit:   sampleSize,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}

	filtered, err := s.Filter(ctx, table, s.cfg.Filter, s.cfg.PlotLimit)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	rep.Filtered = len(filtered)

	if rep.Thumbnails, err = s.Plot(ctx, filtered, s.cfg.ThumbnailDir); err != nil {
		return nil, fmt.Errorf("plot: %w", err)
	}

	rep.Elapsed = time.Since(start)
	s.log.Info(ctx, "run finished",
		"table", table, "cataloged", rep.Cataloged, "extracted", rep.Extracted,
		"failed", rep.Failed, "filtered", rep.Filtered, "thumbnails", len(rep.Thumbnails),
		"elapsed", rep.Elapsed.String())
	return rep, nil
}

func countFailed(rows []models.CatalogEntry) int {
	n := 0
	for _, r := range rows {
		var doc map[string]json.RawMessage
		if json.Unmarshal(r.Meta, &doc) == nil {
			if _, ok := doc[models.MetaError]; ok {
				n++
			}
		}
	}
	return n
}
