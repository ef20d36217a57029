package source

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/pixels/internal/common"
)

// Kind is the storage backend a Location points at.
type Kind int

const (
	KindLocal Kind = iota
	KindS3
)

func (k Kind) String() string {
	switch k {
	case KindS3:
		return "s3"
	default:
		return "local"
	}
}

// Location is a parsed storage path.
type Location struct {
	Kind Kind
	// Bucket and Key are set for S3 locations. Key has no leading slash.
	Bucket string
	Key    string
	// Dir is the cleaned filesystem path for local locations.
	Dir string
}

// String renders the location back into its canonical URI or path form.
func (l Location) String() string {
	if l.Kind == KindS3 {
		return "s3://" + l.Bucket + "/" + l.Key
	}
	return l.Dir
}

// Join appends a relative path to the location.
func (l Location) Join(rel string) Location {
	if l.Kind == KindS3 {
		l.Key = strings.TrimPrefix(path.Join(l.Key, rel), "/")
		return l
	}
	l.Dir = filepath.Join(l.Dir, filepath.FromSlash(rel))
	return l
}

// ParseLocation interprets a user supplied path.
//
//	s3://bucket/prefix, s3a://bucket/prefix  -> S3
//	dbfs:/mnt/x                              -> /dbfs/mnt/x
//	file:///data/x, /data/x, ./x             -> local
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, fmt.Errorf("empty path: %w", common.ErrInvalidLocation)
	}

	if rest, ok := strings.CutPrefix(raw, "dbfs:"); ok && !strings.HasPrefix(rest, "//") {
		return Location{Kind: KindLocal, Dir: filepath.Clean("/dbfs/" + strings.TrimLeft(rest, "/"))}, nil
	}

	if !strings.Contains(raw, "://") {
		return Location{Kind: KindLocal, Dir: filepath.Clean(raw)}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("parse %q: %v: %w", raw, err, common.ErrInvalidLocation)
	}

	switch strings.ToLower(u.Scheme) {
	case "s3", "s3a", "s3n":
		if u.Host == "" {
			return Location{}, fmt.Errorf("no bucket in %q: %w", raw, common.ErrInvalidLocation)
		}
		return Location{Kind: KindS3, Bucket: u.Host, Key: strings.TrimPrefix(u.Path, "/")}, nil
	case "file":
		if u.Path == "" {
			return Location{}, fmt.Errorf("no path in %q: %w", raw, common.ErrInvalidLocation)
		}
		return Location{Kind: KindLocal, Dir: filepath.Clean(u.Path)}, nil
	default:
		return Location{}, fmt.Errorf("%q: %w", u.Scheme, common.ErrUnsupportedScheme)
	}
}
