// Package pipeline wires the catalog, store, extractor and plotter into
// the steps of a cataloging run: list, catalog, save, load, extract, save
// again, query, filter and plot.
package pipeline

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/pixels/internal/catalog"
	"github.com/dmitrijs2005/pixels/internal/config"
	"github.com/dmitrijs2005/pixels/internal/dicommeta"
	"github.com/dmitrijs2005/pixels/internal/logging"
	"github.com/dmitrijs2005/pixels/internal/models"
	"github.com/dmitrijs2005/pixels/internal/query"
	"github.com/dmitrijs2005/pixels/internal/source"
	"github.com/dmitrijs2005/pixels/internal/store"
	"github.com/dmitrijs2005/pixels/internal/thumbnail"
)

// Transformer adds metadata to catalog rows.
type Transformer interface {
	Transform(ctx context.Context, rows []models.CatalogEntry) ([]models.CatalogEntry, error)
}

// Plotter renders rows as image files.
type Plotter interface {
	Plot(ctx context.Context, rows []models.CatalogEntry, outDir string) ([]string, error)
}

// Service runs pipeline steps against one source and one store.
type Service struct {
	src       source.Source
	store     store.Store
	extractor Transformer
	plotter   Plotter
	cfg       *config.Config
	log       logging.Logger
}

// NewService builds a Service whose extractor and plotter are configured
// from cfg.
func NewService(src source.Source, st store.Store, cfg *config.Config, log logging.Logger) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{
		src:   src,
		store: st,
		extractor: &dicommeta.Extractor{
			Source:     src,
			Partitions: cfg.Partitions,
			Deep:       cfg.Deep,
			Hash:       cfg.HashAlgorithm,
			Timeout:    cfg.ExtractTimeout,
			Logger:     log.With("component", "extractor"),
		},
		plotter: &thumbnail.Plotter{
			Source:   src,
			Size:     cfg.ThumbnailSize,
			Columns:  cfg.ThumbnailColumns,
			WithMeta: true,
			Logger:   log.With("component", "thumbnail"),
		},
		cfg: cfg,
		log: log,
	}
}

// ListSample returns up to n immediate children of path.
func (s *Service) ListSample(ctx context.Context, path string, n int) ([]source.FileInfo, error) {
	loc, err := source.ParseLocation(path)
	if err != nil {
		return nil, err
	}
	files, err := s.src.List(ctx, loc, false)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	if n > 0 && len(files) > n {
		files = files[:n]
	}
	return files, nil
}

// Catalog recursively catalogs path.
func (s *Service) Catalog(ctx context.Context, path string) ([]models.CatalogEntry, error) {
	rows, err := catalog.Catalog(ctx, s.src, path, catalog.Options{Sniff: true})
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "catalog built", "path", path, "files", len(rows))
	return rows, nil
}

// Save writes rows into table with the named save mode.
func (s *Service) Save(ctx context.Context, table string, rows []models.CatalogEntry, mode string) (int64, error) {
	tn, err := catalog.ParseTableName(table)
	if err != nil {
		return 0, err
	}
	m, err := store.ParseSaveMode(mode)
	if err != nil {
		return 0, err
	}
	return s.store.Save(ctx, tn, rows, m)
}

// Load reads the rows of table matching f.
func (s *Service) Load(ctx context.Context, table string, f query.Filter) ([]models.CatalogEntry, error) {
	tn, err := catalog.ParseTableName(table)
	if err != nil {
		return nil, err
	}
	return s.store.Load(ctx, tn, f)
}

// Count counts the rows of table matching where.
func (s *Service) Count(ctx context.Context, table, where string) (int64, error) {
	tn, err := catalog.ParseTableName(table)
	if err != nil {
		return 0, err
	}
	return s.store.Count(ctx, tn, query.Filter{Where: where})
}

// Extract adds metadata to rows.
func (s *Service) Extract(ctx context.Context, rows []models.CatalogEntry) ([]models.CatalogEntry, error) {
	return s.extractor.Transform(ctx, rows)
}

// Query runs a projection over table.
func (s *Service) Query(ctx context.Context, table string, sel store.Select) (*store.Result, error) {
	tn, err := catalog.ParseTableName(table)
	if err != nil {
		return nil, err
	}
	return s.store.Query(ctx, tn, sel)
}

// SQL runs raw SQL where ${c.table} names table. table may be empty when
// the statement does not reference it.
func (s *Service) SQL(ctx context.Context, table, raw string) (*store.Result, error) {
	var tn catalog.TableName
	if table != "" {
		var err error
		if tn, err = catalog.ParseTableName(table); err != nil {
			return nil, err
		}
	}
	return s.store.Exec(ctx, tn, raw)
}

// Filter loads at most limit rows of table matching where.
func (s *Service) Filter(ctx context.Context, table, where string, limit int) ([]models.CatalogEntry, error) {
	return s.Load(ctx, table, query.Filter{Where: where, Limit: limit})
}

// Plot renders rows into outDir.
func (s *Service) Plot(ctx context.Context, rows []models.CatalogEntry, outDir string) ([]string, error) {
	return s.plotter.Plot(ctx, rows, outDir)
}

// Tables lists saved tables.
func (s *Service) Tables(ctx context.Context) ([]models.TableInfo, error) {
	return s.store.Tables(ctx)
}
