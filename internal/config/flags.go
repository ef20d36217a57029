package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/pixels/internal/flagx"
)

// valueFlags and BoolFlags list every flag handled by parseFlags.
var (
	valueFlags = []string{
		"path", "table", "d", "dsn",
		"s3-region", "s3-access-key", "s3-secret-key", "s3-endpoint",
		"partitions", "hash", "mode", "filter",
		"thumbnails", "thumbnail-size", "columns", "limit", "timeout", "log-level",
	}
	BoolFlags = []string{"deep", "s3-path-style", "s3-anonymous"}
)

// Flags returns every flag name recognised by the configuration layer,
// including -c/-config.
func Flags() []string {
	out := append([]string{"c", "config"}, valueFlags...)
	return append(out, BoolFlags...)
}

// ValueFlags returns the flags that take a value, including -c/-config.
func ValueFlags() []string {
	return append([]string{"c", "config"}, valueFlags...)
}

// parseFlags populates Config fields from the flags found in args.
//
// Supported flags:
//
//	-path string            directory tree containing files (s3:// or local)
//	-table string           <catalog>.<schema>.<table> to store metadata into
//	-d, -dsn string         database DSN (postgres://... or sqlite://file)
//	-s3-region string       S3 region
//	-s3-access-key string   S3 access key
//	-s3-secret-key string   S3 secret key
//	-s3-endpoint string     S3 base endpoint (e.g. "http://127.0.0.1:9000/")
//	-s3-path-style          use path-style addressing
//	-s3-anonymous           do not sign S3 requests (public buckets)
//	-partitions int         concurrent extraction workers
//	-deep                   read pixel data for image statistics
//	-hash string            sha1, sha256 or blake2b
//	-mode string            save mode: overwrite, append, error, ignore
//	-filter string          row filter, e.g. "meta:img_max < 1000"
//	-thumbnails string      output directory for thumbnails
//	-thumbnail-size int     thumbnail edge in pixels
//	-columns int            thumbnails per row on the contact sheet
//	-limit int              maximum number of images to plot
//	-timeout duration       per-file extraction timeout
//	-log-level string       debug, info, warn or error
//
// Arguments the configuration layer does not know are ignored so that
// commands can define their own flags.
func parseFlags(cfg *Config, args []string) error {
	filtered := flagx.FilterArgs(args, append(valueFlags, BoolFlags...), BoolFlags...)

	fs := flag.NewFlagSet("pixels", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Path, "path", cfg.Path, "path to directory tree containing files")
	fs.StringVar(&cfg.Table, "table", cfg.Table, "catalog schema table to store object metadata into")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.DatabaseDSN, "dsn", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.S3Region, "s3-region", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3AccessKey, "s3-access-key", cfg.S3AccessKey, "S3 access key")
	fs.StringVar(&cfg.S3SecretKey, "s3-secret-key", cfg.S3SecretKey, "S3 secret key")
	fs.StringVar(&cfg.S3BaseEndpoint, "s3-endpoint", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.BoolVar(&cfg.S3UsePathStyle, "s3-path-style", cfg.S3UsePathStyle, "S3 path-style addressing")
	fs.BoolVar(&cfg.S3Anonymous, "s3-anonymous", cfg.S3Anonymous, "anonymous S3 access")
	fs.IntVar(&cfg.Partitions, "partitions", cfg.Partitions, "concurrent extraction workers")
	fs.BoolVar(&cfg.Deep, "deep", cfg.Deep, "read pixel data for image statistics")
	fs.StringVar(&cfg.HashAlgorithm, "hash", cfg.HashAlgorithm, "file hash algorithm")
	fs.StringVar(&cfg.SaveMode, "mode", cfg.SaveMode, "save mode")
	fs.StringVar(&cfg.Filter, "filter", cfg.Filter, "row filter")
	fs.StringVar(&cfg.ThumbnailDir, "thumbnails", cfg.ThumbnailDir, "thumbnail output directory")
	fs.IntVar(&cfg.ThumbnailSize, "thumbnail-size", cfg.ThumbnailSize, "thumbnail size in pixels")
	fs.IntVar(&cfg.ThumbnailColumns, "columns", cfg.ThumbnailColumns, "contact sheet columns")
	fs.IntVar(&cfg.PlotLimit, "limit", cfg.PlotLimit, "maximum images to plot")
	fs.DurationVar(&cfg.ExtractTimeout, "timeout", cfg.ExtractTimeout, "per-file extraction timeout")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")

	return fs.Parse(filtered)
}
