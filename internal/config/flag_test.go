package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected *Config
		name     string
		args     []string
		wantErr  bool
	}{
		{
			name: "all value flags",
			args: []string{"catalog",
				"-path", "/dbfs/dicom", "-table", "main.main.dcm", "-d", "postgres://db",
				"-s3-region", "us-west-2", "-s3-access-key", "ak", "-s3-secret-key", "sk",
				"-s3-endpoint", "http://minio:9000", "-partitions", "4", "-hash", "sha256",
				"-mode", "append", "-filter", "meta:img_max > 10", "-thumbnails", "out",
				"-thumbnail-size", "64", "-columns", "3", "-limit", "9", "-timeout", "2s",
				"-log-level", "debug",
			},
			expected: &Config{
				Path:             "/dbfs/dicom",
				Table:            "main.main.dcm",
				DatabaseDSN:      "postgres://db",
				S3Region:         "us-west-2",
				S3AccessKey:      "ak",
				S3SecretKey:      "sk",
				S3BaseEndpoint:   "http://minio:9000",
				Partitions:       4,
				HashAlgorithm:    "sha256",
				SaveMode:         "append",
				Filter:           "meta:img_max > 10",
				ThumbnailDir:     "out",
				ThumbnailSize:    64,
				ThumbnailColumns: 3,
				PlotLimit:        9,
				ExtractTimeout:   2 * time.Second,
				LogLevel:         "debug",
			},
		},
		{
			name: "bool flags do not consume positionals",
			args: []string{"-deep", "-s3-anonymous", "select 1", "-s3-path-style"},
			expected: &Config{
				Deep:           true,
				S3Anonymous:    true,
				S3UsePathStyle: true,
			},
		},
		{
			name:    "bad int",
			args:    []string{"-partitions", "lots"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			err := parseFlags(cfg, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}

func TestFlags_ContainsConfigAndBools(t *testing.T) {
	f := Flags()
	assert.Contains(t, f, "config")
	assert.Contains(t, f, "deep")
	assert.Contains(t, f, "table")
}

func TestValueFlags_ExcludesBools(t *testing.T) {
	v := ValueFlags()
	assert.Contains(t, v, "c")
	assert.Contains(t, v, "table")
	assert.Contains(t, v, "limit")
	for _, b := range BoolFlags {
		assert.NotContains(t, v, b)
	}
}
