package source

import (
	"context"
	"errors"
	"io"
	"sync"
)

// Router dispatches to the local or the S3 source by location kind. The S3
// source is built on first use, so purely local runs never touch AWS config.
type Router struct {
	local Source

	s3Once    sync.Once
	s3        Source
	s3Err     error
	newS3Func func() (Source, error)
}

// NewRouter returns a Router. newS3 may be nil, in which case S3 paths fail.
func NewRouter(local Source, newS3 func() (Source, error)) *Router {
	return &Router{local: local, newS3Func: newS3}
}

func (r *Router) pick(kind Kind) (Source, error) {
	if kind != KindS3 {
		return r.local, nil
	}
	r.s3Once.Do(func() {
		if r.newS3Func == nil {
			r.s3Err = errors.New("s3 source is not configured")
			return
		}
		r.s3, r.s3Err = r.newS3Func()
	})
	return r.s3, r.s3Err
}

func (r *Router) List(ctx context.Context, loc Location, recursive bool) ([]FileInfo, error) {
	src, err := r.pick(loc.Kind)
	if err != nil {
		return nil, err
	}
	return src.List(ctx, loc, recursive)
}

func (r *Router) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	loc, err := ParseLocation(path)
	if err != nil {
		return nil, err
	}
	src, err := r.pick(loc.Kind)
	if err != nil {
		return nil, err
	}
	return src.Open(ctx, path)
}
