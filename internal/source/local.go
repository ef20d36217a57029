package source

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// LocalSource reads from the local or a mounted filesystem.
type LocalSource struct{}

func NewLocalSource() *LocalSource {
	return &LocalSource{}
}

func (s *LocalSource) List(ctx context.Context, loc Location, recursive bool) ([]FileInfo, error) {
	root, err := filepath.Abs(loc.Dir)
	if err != nil {
		return nil, fmt.Errorf("abs %s: %w", loc.Dir, err)
	}

	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", root, err)
	}
	if !st.IsDir() {
		return []FileInfo{fileInfo(root, st)}, nil
	}

	var result []FileInfo

	if !recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", root, err)
		}
		for _, e := range entries {
			if isHidden(e.Name()) {
				continue
			}
			info, err := e.Info()
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
			}
			result = append(result, fileInfo(filepath.Join(root, e.Name()), info))
		}
		return result, nil
	}

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if p != root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		result = append(result, fileInfo(p, info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

func (s *LocalSource) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	loc, err := ParseLocation(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(loc.Dir)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

func fileInfo(p string, info fs.FileInfo) FileInfo {
	return FileInfo{
		Path:    p,
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime().UTC(),
		IsDir:   info.IsDir(),
	}
}
