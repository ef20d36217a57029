// Package models defines the rows persisted in a catalog table.
package models

import (
	"encoding/json"
	"time"
)

// File types assigned by the catalog.
const (
	FileTypeDicom   = "dicom"
	FileTypeUnknown = "unknown"
)

// CatalogEntry is one discovered object. Path attributes are derived by
// the catalog; Meta is filled by the metadata extractor and stays nil
// until then.
type CatalogEntry struct {
	RowID            int64
	Path             string
	ModificationTime time.Time
	Length           int64
	OriginalPath     string
	RelativePath     string
	LocalPath        string
	Extension        string
	FileType         string
	PathTags         []string
	Meta             json.RawMessage
}

// IsDicom reports whether the entry was classified as a DICOM object.
func (e *CatalogEntry) IsDicom() bool {
	return e.FileType == FileTypeDicom
}

// HasMeta reports whether metadata has been extracted for the entry.
func (e *CatalogEntry) HasMeta() bool {
	return len(e.Meta) > 0 && string(e.Meta) != "null"
}

// Columns lists the catalog table columns in storage order.
var Columns = []string{
	"rowid", "path", "modification_time", "length", "original_path",
	"relative_path", "local_path", "extension", "file_type", "path_tags", "meta",
}

// TableInfo is a registry record describing the last save into a table.
type TableInfo struct {
	Name       string
	RunID      string
	Mode       string
	RowCount   int64
	SavedAt    time.Time
	SourcePath string
}
