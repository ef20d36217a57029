// Package cli is the command-line surface of pixels: one-shot commands and
// an interactive shell running the same commands against one configured
// source, store and table.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/pixels/internal/config"
	"github.com/dmitrijs2005/pixels/internal/logging"
	"github.com/dmitrijs2005/pixels/internal/models"
	"github.com/dmitrijs2005/pixels/internal/pipeline"
	"github.com/dmitrijs2005/pixels/internal/query"
	"github.com/dmitrijs2005/pixels/internal/source"
	"github.com/dmitrijs2005/pixels/internal/store"
)

// service is the pipeline surface the commands use.
type service interface {
	ListSample(ctx context.Context, path string, n int) ([]source.FileInfo, error)
	Catalog(ctx context.Context, path string) ([]models.CatalogEntry, error)
	Save(ctx context.Context, table string, rows []models.CatalogEntry, mode string) (int64, error)
	Load(ctx context.Context, table string, f query.Filter) ([]models.CatalogEntry, error)
	Count(ctx context.Context, table, where string) (int64, error)
	Extract(ctx context.Context, rows []models.CatalogEntry) ([]models.CatalogEntry, error)
	Query(ctx context.Context, table string, sel store.Select) (*store.Result, error)
	SQL(ctx context.Context, table, raw string) (*store.Result, error)
	Filter(ctx context.Context, table, where string, limit int) ([]models.CatalogEntry, error)
	Plot(ctx context.Context, rows []models.CatalogEntry, outDir string) ([]string, error)
	Run(ctx context.Context) (*pipeline.Report, error)
	Tables(ctx context.Context) ([]models.TableInfo, error)
}

// test seams
var (
	openStore = func(ctx context.Context, dsn string, log logging.Logger) (store.Store, error) {
		st, err := store.Open(ctx, dsn, log)
		if err != nil {
			return nil, err
		}
		return st, nil
	}

	newS3Source = func(ctx context.Context, opts source.S3Options) (source.Source, error) {
		src, err := source.NewS3Source(ctx, opts)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
)

// App executes commands for one configuration.
type App struct {
	config *config.Config
	svc    service
	store  store.Store
	log    logging.Logger
	out    io.Writer
}

// NewApp opens the catalog database and prepares the sources. The S3
// client is created on first use so local runs need no AWS settings.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	if log == nil {
		log = logging.Nop()
	}

	st, err := openStore(ctx, c.DatabaseDSN, log.With("component", "store"))
	if err != nil {
		log.Error(ctx, "error opening catalog database", "error", err)
		return nil, err
	}

	opts := source.S3Options{
		Region:       c.S3Region,
		AccessKey:    c.S3AccessKey,
		SecretKey:    c.S3SecretKey,
		BaseEndpoint: c.S3BaseEndpoint,
		UsePathStyle: c.S3UsePathStyle,
		Anonymous:    c.S3Anonymous,
	}
	src := source.NewRouter(source.NewLocalSource(), func() (source.Source, error) {
		return newS3Source(ctx, opts)
	})

	return &App{
		config: c,
		svc:    pipeline.NewService(src, st, c, log),
		store:  st,
		log:    log,
		out:    os.Stdout,
	}, nil
}

// Run executes the command named by args[0]; no arguments start the shell.
func (a *App) Run(ctx context.Context, args []string) error {
	defer func() {
		if err := a.store.Close(); err != nil {
			a.log.Warn(ctx, "closing store", "error", err)
		}
	}()

	if len(args) == 0 {
		return a.Shell(ctx)
	}
	return a.Dispatch(ctx, args[0], args[1:])
}

// Dispatch runs one command.
func (a *App) Dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		a.Help()
		return nil
	case "ls":
		return a.List(ctx, args)
	case "catalog":
		return a.Catalog(ctx, args)
	case "count":
		return a.Count(ctx, args)
	case "extract":
		return a.Extract(ctx)
	case "query":
		return a.Query(ctx, args)
	case "sql":
		return a.SQL(ctx, args)
	case "filter":
		return a.Filter(ctx, args)
	case "plot":
		return a.Plot(ctx, args)
	case "run":
		return a.RunAll(ctx)
	case "tables":
		return a.Tables(ctx)
	case "use":
		return a.Use(args)
	case "shell":
		return a.Shell(ctx)
	}
	return fmt.Errorf("unknown command: %s", cmd)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
