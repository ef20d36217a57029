package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/pixels/internal/flagx"
	"github.com/dmitrijs2005/pixels/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from zero values so a partial file only
// overrides what it names. Durations accept "30s" or integer nanoseconds.
type JsonConfig struct {
	Path             *string         `json:"path"`
	Table            *string         `json:"table"`
	DatabaseDSN      *string         `json:"database_dsn"`
	S3Region         *string         `json:"s3_region"`
	S3AccessKey      *string         `json:"s3_access_key"`
	S3SecretKey      *string         `json:"s3_secret_key"`
	S3BaseEndpoint   *string         `json:"s3_base_endpoint"`
	S3UsePathStyle   *bool           `json:"s3_use_path_style"`
	S3Anonymous      *bool           `json:"s3_anonymous"`
	Partitions       *int            `json:"partitions"`
	Deep             *bool           `json:"deep"`
	HashAlgorithm    *string         `json:"hash_algorithm"`
	SaveMode         *string         `json:"save_mode"`
	Filter           *string         `json:"filter"`
	ThumbnailDir     *string         `json:"thumbnail_dir"`
	ThumbnailSize    *int            `json:"thumbnail_size"`
	ThumbnailColumns *int            `json:"thumbnail_columns"`
	PlotLimit        *int            `json:"plot_limit"`
	ExtractTimeout   *timex.Duration `json:"extract_timeout"`
	LogLevel         *string         `json:"log_level"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// parseJson overlays Config with values loaded from the JSON file named by
// the -c or -config flag in args. Without the flag nothing is loaded.
func parseJson(cfg *Config, args []string) error {
	jsonConfigFile := flagx.JsonConfigFlags(args)
	if jsonConfigFile == "" {
		return nil
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", jsonConfigFile, err)
	}

	set(&cfg.Path, jc.Path)
	set(&cfg.Table, jc.Table)
	set(&cfg.DatabaseDSN, jc.DatabaseDSN)
	set(&cfg.S3Region, jc.S3Region)
	set(&cfg.S3AccessKey, jc.S3AccessKey)
	set(&cfg.S3SecretKey, jc.S3SecretKey)
	set(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	set(&cfg.S3UsePathStyle, jc.S3UsePathStyle)
	set(&cfg.S3Anonymous, jc.S3Anonymous)
	set(&cfg.Partitions, jc.Partitions)
	set(&cfg.Deep, jc.Deep)
	set(&cfg.HashAlgorithm, jc.HashAlgorithm)
	set(&cfg.SaveMode, jc.SaveMode)
	set(&cfg.Filter, jc.Filter)
	set(&cfg.ThumbnailDir, jc.ThumbnailDir)
	set(&cfg.ThumbnailSize, jc.ThumbnailSize)
	set(&cfg.ThumbnailColumns, jc.ThumbnailColumns)
	set(&cfg.PlotLimit, jc.PlotLimit)
	set(&cfg.LogLevel, jc.LogLevel)
	if jc.ExtractTimeout != nil {
		cfg.ExtractTimeout = jc.ExtractTimeout.Duration
	}

	return nil
}
