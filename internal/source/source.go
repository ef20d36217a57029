// Package source lists and reads raw image objects from a local or mounted
// filesystem and from S3-compatible object storage.
package source

import (
	"context"
	"io"
	"strings"
	"time"
)

// FileInfo describes one listed object. Path is an absolute filesystem
// path for local objects and an s3://bucket/key URI for S3 objects.
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Source lists and opens objects under a Location.
type Source interface {
	// List returns the immediate children of loc, directories included, or,
	// when recursive is set, every file below loc. Results are sorted by Path.
	List(ctx context.Context, loc Location, recursive bool) ([]FileInfo, error)

	// Open returns a reader for the object at path (as reported by List).
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
