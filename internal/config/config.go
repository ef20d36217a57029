// Package config handles configuration for the pixels CLI, including
// defaults, an optional .env file, environment variables, a JSON overlay
// and command-line flags. Later sources take precedence over earlier ones.
package config

import "time"

// Config holds runtime settings for cataloging and extraction runs.
//
// Fields:
//   - Path: directory tree holding raw image files (s3://, dbfs:/ or local).
//   - Table: three-part catalog table name <catalog>.<schema>.<table>.
//   - DatabaseDSN: postgres:// DSN (pgx) or sqlite://file for a local catalog.
//   - S3*: object storage settings; empty keys fall back to the AWS default chain.
//   - Partitions: number of concurrent extraction workers.
//   - Deep: read pixel data to compute image statistics.
//   - HashAlgorithm: sha1, sha256 or blake2b over file bytes.
//   - SaveMode: overwrite, append, error or ignore.
//   - Filter: row filter applied before plotting in a full run.
type Config struct {
	Path             string
	Table            string
	DatabaseDSN      string
	S3Region         string
	S3AccessKey      string
	S3SecretKey      string
	S3BaseEndpoint   string
	S3UsePathStyle   bool
	S3Anonymous      bool
	Partitions       int
	Deep             bool
	HashAlgorithm    string
	SaveMode         string
	Filter           string
	ThumbnailDir     string
	ThumbnailSize    int
	ThumbnailColumns int
	PlotLimit        int
	ExtractTimeout   time.Duration
	LogLevel         string
}

// LoadDefaults populates Config with the values used by the public DDSM demo.
func (c *Config) LoadDefaults() {
	c.Path = "s3://hls-eng-data-public/dicom/ddsm/"
	c.Table = "<catalog>.<schema>.<table>"
	c.DatabaseDSN = "sqlite://pixels.db"
	c.S3Region = "us-east-1"
	c.S3AccessKey = ""
	c.S3SecretKey = ""
	c.S3BaseEndpoint = ""
	c.S3UsePathStyle = false
	c.S3Anonymous = false
	c.Partitions = 8
	c.Deep = true
	c.HashAlgorithm = "sha1"
	c.SaveMode = "overwrite"
	c.Filter = "meta:img_max < 1000"
	c.ThumbnailDir = "thumbnails"
	c.ThumbnailSize = 256
	c.ThumbnailColumns = 5
	c.PlotLimit = 100
	c.ExtractTimeout = 30 * time.Second
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from .env and PIXELS_* environment variables, an optional JSON file and
// finally the command-line flags found in args.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := loadDotEnv(dotEnvFile); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, lookupEnv); err != nil {
		return nil, err
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
