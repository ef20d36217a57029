package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"path":              "s3://bucket/dicom/",
		"table":             "main.main.dcm",
		"database_dsn":      "sqlite://catalog.db",
		"s3_region":         "eu-west-1",
		"s3_base_endpoint":  "http://127.0.0.1:9000/",
		"s3_use_path_style": true,
		"partitions":        16,
		"deep":              false,
		"hash_algorithm":    "blake2b",
		"extract_timeout":   "1m",
		"thumbnail_size":    128,
	})

	t.Run("loads from json", func(t *testing.T) {
		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJson(cfg, []string{"-config", pathFlag}))

		assert.Equal(t, "s3://bucket/dicom/", cfg.Path)
		assert.Equal(t, "main.main.dcm", cfg.Table)
		assert.Equal(t, "sqlite://catalog.db", cfg.DatabaseDSN)
		assert.Equal(t, "eu-west-1", cfg.S3Region)
		assert.Equal(t, "http://127.0.0.1:9000/", cfg.S3BaseEndpoint)
		assert.True(t, cfg.S3UsePathStyle)
		assert.Equal(t, 16, cfg.Partitions)
		assert.False(t, cfg.Deep)
		assert.Equal(t, "blake2b", cfg.HashAlgorithm)
		assert.Equal(t, time.Minute, cfg.ExtractTimeout)
		assert.Equal(t, 128, cfg.ThumbnailSize)

		// absent keys keep their previous values
		assert.Equal(t, "overwrite", cfg.SaveMode)
		assert.Equal(t, 100, cfg.PlotLimit)
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		cfg := &Config{Path: "/keep", Partitions: 2}
		require.NoError(t, parseJson(cfg, []string{"-path", "/other"}))

		assert.Equal(t, "/keep", cfg.Path)
		assert.Equal(t, 2, cfg.Partitions)
	})

	t.Run("invalid JSON → error", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		cfg := &Config{}
		require.Error(t, parseJson(cfg, []string{"-c", bad}))
	})

	t.Run("missing file → error", func(t *testing.T) {
		cfg := &Config{}
		require.Error(t, parseJson(cfg, []string{"-c", filepath.Join(dir, "nope.json")}))
	})
}
