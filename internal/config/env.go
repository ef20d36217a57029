package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// dotEnvFile is the optional file read before environment variables.
var dotEnvFile = ".env"

// lookupEnv is a seam for tests.
var lookupEnv = os.LookupEnv

// loadDotEnv exports the variables of an optional .env file into the process
// environment. Variables that are already set keep their values.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// parseEnv overlays Config with PIXELS_* variables.
//
// Supported variables:
//
//	PIXELS_PATH, PIXELS_TABLE, PIXELS_DATABASE_DSN,
//	PIXELS_S3_REGION, PIXELS_S3_ACCESS_KEY, PIXELS_S3_SECRET_KEY,
//	PIXELS_S3_ENDPOINT, PIXELS_S3_PATH_STYLE, PIXELS_S3_ANONYMOUS,
//	PIXELS_PARTITIONS, PIXELS_DEEP, PIXELS_HASH, PIXELS_SAVE_MODE,
//	PIXELS_FILTER, PIXELS_THUMBNAIL_DIR, PIXELS_THUMBNAIL_SIZE,
//	PIXELS_THUMBNAIL_COLUMNS, PIXELS_PLOT_LIMIT, PIXELS_EXTRACT_TIMEOUT,
//	PIXELS_LOG_LEVEL
func parseEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"PIXELS_PATH":          &cfg.Path,
		"PIXELS_TABLE":         &cfg.Table,
		"PIXELS_DATABASE_DSN":  &cfg.DatabaseDSN,
		"PIXELS_S3_REGION":     &cfg.S3Region,
		"PIXELS_S3_ACCESS_KEY": &cfg.S3AccessKey,
		"PIXELS_S3_SECRET_KEY": &cfg.S3SecretKey,
		"PIXELS_S3_ENDPOINT":   &cfg.S3BaseEndpoint,
		"PIXELS_HASH":          &cfg.HashAlgorithm,
		"PIXELS_SAVE_MODE":     &cfg.SaveMode,
		"PIXELS_FILTER":        &cfg.Filter,
		"PIXELS_THUMBNAIL_DIR": &cfg.ThumbnailDir,
		"PIXELS_LOG_LEVEL":     &cfg.LogLevel,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PIXELS_PARTITIONS":        &cfg.Partitions,
		"PIXELS_THUMBNAIL_SIZE":    &cfg.ThumbnailSize,
		"PIXELS_THUMBNAIL_COLUMNS": &cfg.ThumbnailColumns,
		"PIXELS_PLOT_LIMIT":        &cfg.PlotLimit,
	}
	for name, dst := range ints {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = n
	}

	bools := map[string]*bool{
		"PIXELS_S3_PATH_STYLE": &cfg.S3UsePathStyle,
		"PIXELS_S3_ANONYMOUS":  &cfg.S3Anonymous,
		"PIXELS_DEEP":          &cfg.Deep,
	}
	for name, dst := range bools {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = b
	}

	if v, ok := lookup("PIXELS_EXTRACT_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PIXELS_EXTRACT_TIMEOUT: %w", err)
		}
		cfg.ExtractTimeout = d
	}

	return nil
}
