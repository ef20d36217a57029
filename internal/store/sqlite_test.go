package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/pixels/internal/catalog"
	"github.com/dmitrijs2005/pixels/internal/common"
	"github.com/dmitrijs2005/pixels/internal/models"
	"github.com/dmitrijs2005/pixels/internal/query"
)

func openSQLite(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "pixels.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func table(t *testing.T, s string) catalog.TableName {
	t.Helper()
	tn, err := catalog.ParseTableName(s)
	require.NoError(t, err)
	return tn
}

var mtime = time.Date(2023, 3, 4, 5, 6, 7, 8000, time.UTC)

func sampleRows() []models.CatalogEntry {
	return []models.CatalogEntry{
		{
			RowID: 1, Path: "/data/patient7747/a.dcm", ModificationTime: mtime, Length: 100,
			OriginalPath: "/data", RelativePath: "patient7747/a.dcm", LocalPath: "/data/patient7747/a.dcm",
			Extension: "dcm", FileType: "dicom", PathTags: []string{"patient7747", "a", "dcm"},
			Meta: json.RawMessage(`{"00100010":{"vr":"PN","Value":[{"Alphabetic":"ZED^ANN"}]},"img_max":4000,"hash":"aa"}`),
		},
		{
			RowID: 2, Path: "/data/patient7747/b.dcm", ModificationTime: mtime, Length: 200,
			OriginalPath: "/data", RelativePath: "patient7747/b.dcm", LocalPath: "/data/patient7747/b.dcm",
			Extension: "dcm", FileType: "dicom", PathTags: []string{"patient7747", "b", "dcm"},
			Meta: json.RawMessage(`{"00100010":{"vr":"PN","Value":[{"Alphabetic":"ABE^BOB"}]},"img_max":512,"hash":"bb"}`),
		},
		{
			RowID: 3, Path: "/data/other/c.txt", Length: 3,
			OriginalPath: "/data", RelativePath: "other/c.txt", LocalPath: "/data/other/c.txt",
			Extension: "txt", FileType: "txt", PathTags: []string{"other", "c", "txt"},
		},
	}
}

func TestSQLite_SaveLoadRoundTrip(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	tn := table(t, "main.default.dicom")

	n, err := s.Save(ctx, tn, sampleRows(), SaveOverwrite)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	got, err := s.Load(ctx, tn, query.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 3)

	want := sampleRows()
	assert.Equal(t, want[0].Path, got[0].Path)
	assert.True(t, mtime.Equal(got[0].ModificationTime))
	assert.Equal(t, want[0].PathTags, got[0].PathTags)
	assert.JSONEq(t, string(want[0].Meta), string(got[0].Meta))
	assert.True(t, got[2].ModificationTime.IsZero())
	assert.Nil(t, got[2].Meta)
	assert.Equal(t, int64(3), got[2].RowID)
}

func TestSQLite_OverwriteReplaces(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	tn := table(t, "main.default.dicom")

	_, err := s.Save(ctx, tn, sampleRows(), SaveOverwrite)
	require.NoError(t, err)
	n, err := s.Save(ctx, tn, sampleRows()[:1], SaveOverwrite)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	c, err := s.Count(ctx, tn, query.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), c)
}

func TestSQLite_AppendRenumbers(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	tn := table(t, "main.default.dicom")

	_, err := s.Save(ctx, tn, sampleRows()[:2], SaveAppend)
	require.NoError(t, err)
	n, err := s.Save(ctx, tn, sampleRows()[:2], SaveAppend)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	got, err := s.Load(ctx, tn, query.Filter{})
	require.NoError(t, err)
	ids := make([]int64, len(got))
	for i, e := range got {
		ids[i] = e.RowID
	}
	assert.Equal(t, []int64{1, 2, 3, 4}, ids)
}

func TestSQLite_ErrorIfExistsAndIgnore(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	tn := table(t, "main.default.dicom")

	_, err := s.Save(ctx, tn, sampleRows(), SaveErrorIfExists)
	require.NoError(t, err)

	_, err = s.Save(ctx, tn, sampleRows(), SaveErrorIfExists)
	assert.ErrorIs(t, err, common.ErrTableExists)

	n, err := s.Save(ctx, tn, sampleRows()[:1], SaveIgnore)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	c, err := s.Count(ctx, tn, query.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), c)
}

func TestSQLite_InvalidMode(t *testing.T) {
	s := openSQLite(t)
	_, err := s.Save(context.Background(), table(t, "main.default.dicom"), nil, SaveMode("upsert"))
	assert.ErrorIs(t, err, common.ErrInvalidSaveMode)
}

func TestSQLite_LoadMissingTable(t *testing.T) {
	s := openSQLite(t)
	_, err := s.Load(context.Background(), table(t, "main.default.nothing"), query.Filter{})
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = s.Count(context.Background(), table(t, "main.default.nothing"), query.Filter{})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLite_CatalogMismatch(t *testing.T) {
	s := openSQLite(t)
	_, err := s.Save(context.Background(), table(t, "hive.default.dicom"), sampleRows(), SaveOverwrite)
	assert.ErrorIs(t, err, common.ErrCatalogMismatch)
}

func TestSQLite_FilterOrderLimit(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	tn := table(t, "main.default.dicom")
	_, err := s.Save(ctx, tn, sampleRows(), SaveOverwrite)
	require.NoError(t, err)

	got, err := s.Load(ctx, tn, query.Filter{Where: "meta:img_max < 1000"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].RowID)

	got, err = s.Load(ctx, tn, query.Filter{
		Where:   "array_contains(path_tags, 'patient7747')",
		OrderBy: "meta:['00100010'].Value[0].Alphabetic",
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "/data/patient7747/b.dcm", got[0].Path)

	got, err = s.Load(ctx, tn, query.Filter{OrderBy: "rowid desc", Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].RowID)

	n, err := s.Count(ctx, tn, query.Filter{Where: "file_type = 'dicom' AND meta:error IS NULL"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = s.Load(ctx, tn, query.Filter{Where: "nope = 1"})
	assert.ErrorIs(t, err, common.ErrInvalidFilter)
}

func TestSQLite_BooleanMeta(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	tn := table(t, "main.default.flags")
	rows := sampleRows()
	rows[0].Meta = json.RawMessage(`{"burned_in":true}`)
	rows[1].Meta = json.RawMessage(`{"burned_in":false}`)
	_, err := s.Save(ctx, tn, rows, SaveOverwrite)
	require.NoError(t, err)

	n, err := s.Count(ctx, tn, query.Filter{Where: "meta:burned_in = true"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Count(ctx, tn, query.Filter{Where: "meta:burned_in != true"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	res, err := s.Query(ctx, tn, Select{Columns: "rowid, meta:burned_in", Filter: query.Filter{Where: "meta:burned_in IS NOT NULL", OrderBy: "rowid"}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "true"}, {"2", "false"}}, res.Rows)
}

func TestSQLite_QueryProjection(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	tn := table(t, "main.default.dicom")
	_, err := s.Save(ctx, tn, sampleRows(), SaveOverwrite)
	require.NoError(t, err)

	res, err := s.Query(ctx, tn, Select{
		Columns: "meta:['00100010'].Value[0].Alphabetic as patient_name, meta:hash, meta:img_max",
		Filter: query.Filter{
			Where:   "array_contains(path_tags, 'patient7747')",
			OrderBy: "meta:['00100010'].Value[0].Alphabetic",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"patient_name", "hash", "img_max"}, res.Columns)
	assert.Equal(t, [][]string{{"ABE^BOB", "bb", "512"}, {"ZED^ANN", "aa", "4000"}}, res.Rows)
}

func TestSQLite_ExecSubstitutesTable(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	tn := table(t, "main.pixels_solacc.object_catalog")
	_, err := s.Save(ctx, tn, sampleRows(), SaveOverwrite)
	require.NoError(t, err)

	res, err := s.Exec(ctx, tn, "select count(*) as n from ${c.table}")
	require.NoError(t, err)
	assert.Equal(t, []string{"n"}, res.Columns)
	assert.Equal(t, [][]string{{"3"}}, res.Rows)

	res, err = s.Exec(ctx, catalog.TableName{}, "select name from sqlite_master where name = 'pixels_solacc__object_catalog'")
	require.NoError(t, err)
	assert.Len(t, res.Rows, 1)

	_, err = s.Exec(ctx, catalog.TableName{}, "select * from ${c.table}")
	assert.ErrorIs(t, err, common.ErrUnknownVariable)
}

func TestSQLite_TablesRegistry(t *testing.T) {
	origID, origNow := newRunID, now
	newRunID = func() string { return "run-1" }
	now = func() time.Time { return mtime }
	defer func() { newRunID, now = origID, origNow }()

	s := openSQLite(t)
	ctx := context.Background()
	_, err := s.Save(ctx, table(t, "main.default.b"), sampleRows(), SaveOverwrite)
	require.NoError(t, err)
	_, err = s.Save(ctx, table(t, "main.default.a"), sampleRows()[:1], SaveAppend)
	require.NoError(t, err)

	got, err := s.Tables(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "main.default.a", got[0].Name)
	assert.Equal(t, "append", got[0].Mode)
	assert.Equal(t, int64(1), got[0].RowCount)
	assert.Equal(t, "run-1", got[1].RunID)
	assert.Equal(t, int64(3), got[1].RowCount)
	assert.Equal(t, "/data", got[1].SourcePath)
	assert.True(t, mtime.Equal(got[1].SavedAt))
}

func TestSQLite_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "pixels.db")
	tn := table(t, "main.default.dicom")

	s, err := Open(ctx, dsn, nil)
	require.NoError(t, err)
	_, err = s.Save(ctx, tn, sampleRows(), SaveOverwrite)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, dsn, nil)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Count(ctx, tn, query.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
