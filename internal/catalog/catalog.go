// Package catalog builds the object catalog: a recursive listing of a
// storage location where each file is described by attributes derived from
// its path. The catalog only looks at file metadata, never at contents,
// except for the optional DICOM magic check on files without an extension.
package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/pixels/internal/models"
	"github.com/dmitrijs2005/pixels/internal/source"
)

// dicomMagic sits after the 128-byte preamble of a Part 10 file.
var dicomMagic = []byte("DICM")

const dicomMagicOffset = 128

// Options tune a catalog run.
type Options struct {
	// Extensions keeps only files with one of these extensions (no dot,
	// case-insensitive). Empty keeps everything.
	Extensions []string
	// Sniff reads the first bytes of files without an extension and marks
	// them as DICOM when the Part 10 magic is present.
	Sniff bool
}

// Catalog recursively lists path and returns one entry per file, ordered
// by path, with rowid 1..N.
func Catalog(ctx context.Context, src source.Source, path string, opts Options) ([]models.CatalogEntry, error) {
	root, err := source.ParseLocation(path)
	if err != nil {
		return nil, err
	}

	files, err := src.List(ctx, root, true)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}

	keep := make(map[string]struct{}, len(opts.Extensions))
	for _, e := range opts.Extensions {
		keep[strings.ToLower(strings.TrimPrefix(e, "."))] = struct{}{}
	}

	result := make([]models.CatalogEntry, 0, len(files))
	for _, f := range files {
		if f.IsDir {
			continue
		}
		entry := Describe(root, path, f)

		if entry.Extension == "" && opts.Sniff {
			ok, err := IsDicom(ctx, src, f.Path)
			if err != nil {
				return nil, err
			}
			if ok {
				entry.FileType = models.FileTypeDicom
			}
		}

		if len(keep) > 0 {
			if _, ok := keep[entry.Extension]; !ok {
				continue
			}
		}

		entry.RowID = int64(len(result) + 1)
		result = append(result, entry)
	}

	return result, nil
}

// Describe derives the path attributes of f listed under root. original is
// the root as the user wrote it and prefixes OriginalPath.
func Describe(root source.Location, original string, f source.FileInfo) models.CatalogEntry {
	rel := relativePath(root, f)
	ext := Extension(f.Name)

	entry := models.CatalogEntry{
		Path:             f.Path,
		ModificationTime: f.ModTime,
		Length:           f.Size,
		OriginalPath:     joinOriginal(original, rel),
		RelativePath:     rel,
		Extension:        ext,
		FileType:         FileType(ext),
		PathTags:         PathTags(rel),
	}
	if root.Kind == source.KindLocal {
		entry.LocalPath = f.Path
	}
	return entry
}

func relativePath(root source.Location, f source.FileInfo) string {
	if root.Kind == source.KindS3 {
		rootURI := "s3://" + root.Bucket + "/" + root.Key
		rel := strings.TrimPrefix(f.Path, rootURI)
		rel = strings.TrimPrefix(rel, "/")
		if rel == "" {
			return f.Name
		}
		return rel
	}

	base, err := filepath.Abs(root.Dir)
	if err != nil {
		return f.Name
	}
	rel, err := filepath.Rel(base, f.Path)
	if err != nil || rel == "." {
		return f.Name
	}
	return filepath.ToSlash(rel)
}

func joinOriginal(original, rel string) string {
	original = strings.TrimSpace(original)
	if strings.HasSuffix(original, "/"+rel) || original == rel {
		return original
	}
	return strings.TrimSuffix(original, "/") + "/" + rel
}

// IsDicom reports whether the object at path starts with a Part 10 preamble.
func IsDicom(ctx context.Context, src source.Source, path string) (bool, error) {
	rc, err := src.Open(ctx, path)
	if err != nil {
		return false, err
	}
	defer rc.Close()

	head := make([]byte, dicomMagicOffset+len(dicomMagic))
	if _, err := io.ReadFull(rc, head); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	return bytes.Equal(head[dicomMagicOffset:], dicomMagic), nil
}
