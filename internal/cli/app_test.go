package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/pixels/internal/common"
	"github.com/dmitrijs2005/pixels/internal/config"
	"github.com/dmitrijs2005/pixels/internal/dicommeta/dcmtest"
	"github.com/dmitrijs2005/pixels/internal/logging"
	"github.com/dmitrijs2005/pixels/internal/store"
)

const testTable = "main.pixels_solacc.object_catalog"

func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	write := func(rel string, data []byte) {
		p := filepath.Join(dir, "data", rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, data, 0o644))
	}
	write("patient7747/a.dcm", dcmtest.Image(2, 2, "DOE^JANE", 10, 20, 30, 40))
	write("patient7748/b.dcm", dcmtest.Image(1, 2, "ABE^ANN", 100, 5000))
	write("notes.txt", []byte("hello"))

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Path = filepath.Join(dir, "data")
	cfg.Table = testTable
	cfg.DatabaseDSN = "sqlite://" + filepath.Join(dir, "pixels.db")
	cfg.Partitions = 2
	cfg.ThumbnailDir = filepath.Join(dir, "thumbs")
	cfg.ThumbnailSize = 8

	a, err := NewApp(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.store.Close() })

	var out bytes.Buffer
	a.out = &out
	return a, &out
}

func TestApp_CommandFlow(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, a.Dispatch(ctx, "ls", nil))
	assert.Contains(t, out.String(), "notes.txt")
	assert.Contains(t, out.String(), "(3 rows)")

	out.Reset()
	require.NoError(t, a.Dispatch(ctx, "catalog", nil))
	assert.Equal(t, "cataloged 3 files into "+testTable+" (3 rows)\n", out.String())

	out.Reset()
	require.NoError(t, a.Dispatch(ctx, "count", []string{"file_type", "=", "'dicom'"}))
	assert.Equal(t, "2\n", out.String())

	out.Reset()
	require.NoError(t, a.Dispatch(ctx, "extract", nil))
	assert.Contains(t, out.String(), "extracted 3 rows (0 failed)")

	out.Reset()
	require.NoError(t, a.Dispatch(ctx, "query", []string{
		"meta:['00100010'].Value[0].Alphabetic", "as", "patient", "where", "file_type", "=", "'dicom'",
		"order", "by", "meta:['00100010'].Value[0].Alphabetic", "limit", "1",
	}))
	assert.Contains(t, out.String(), "patient")
	assert.Contains(t, out.String(), "ABE^ANN")
	assert.NotContains(t, out.String(), "DOE^JANE")

	out.Reset()
	require.NoError(t, a.Dispatch(ctx, "filter", nil))
	assert.Contains(t, out.String(), "DOE^JANE")
	assert.Contains(t, out.String(), "(1 rows)")

	out.Reset()
	require.NoError(t, a.Dispatch(ctx, "sql", []string{"select", "count(*)", "as", "n", "from", "${c.table}"}))
	assert.Contains(t, out.String(), "3")

	out.Reset()
	require.NoError(t, a.Dispatch(ctx, "plot", []string{"file_type", "=", "'dicom'"}))
	assert.Equal(t, "wrote 3 files to "+a.config.ThumbnailDir+"\n", out.String())
	assert.FileExists(t, filepath.Join(a.config.ThumbnailDir, "index.png"))

	out.Reset()
	require.NoError(t, a.Dispatch(ctx, "tables", nil))
	assert.Contains(t, out.String(), "overwrite")
	assert.Contains(t, out.String(), "(1 rows)")
}

func TestApp_RunAll(t *testing.T) {
	a, out := newTestApp(t)

	require.NoError(t, a.Dispatch(context.Background(), "run", nil))
	assert.Contains(t, out.String(), "cataloged:  3")
	assert.Contains(t, out.String(), "extracted:  3 (0 failed)")
	assert.Contains(t, out.String(), "filtered:   1")
	assert.Contains(t, out.String(), "thumbnails: 2")
}

func TestApp_Errors(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	err := a.Dispatch(ctx, "count", nil)
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = a.Dispatch(ctx, "frobnicate", nil)
	assert.ErrorContains(t, err, "unknown command: frobnicate")

	err = a.Dispatch(ctx, "sql", nil)
	assert.ErrorContains(t, err, "empty statement")

	err = a.Dispatch(ctx, "use", []string{"not-a-table"})
	assert.ErrorIs(t, err, common.ErrInvalidTableName)
	assert.Equal(t, testTable, a.config.Table)

	require.NoError(t, a.Dispatch(ctx, "use", []string{"main.other.t"}))
	assert.Equal(t, "main.other.t", a.config.Table)
}

func TestApp_Help(t *testing.T) {
	a, out := newTestApp(t)
	require.NoError(t, a.Dispatch(context.Background(), "help", nil))
	assert.Contains(t, out.String(), "Usage: pixels")
}

func TestNewApp_StoreError(t *testing.T) {
	orig := openStore
	openStore = func(ctx context.Context, dsn string, log logging.Logger) (store.Store, error) {
		return nil, errors.New("connection refused")
	}
	t.Cleanup(func() { openStore = orig })

	cfg := &config.Config{}
	cfg.LoadDefaults()

	_, err := NewApp(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "connection refused")
}
