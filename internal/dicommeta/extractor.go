// Package dicommeta extracts DICOM header metadata, a content hash and
// optional pixel statistics for catalog rows. Files are processed on a
// bounded worker pool and every row gets a JSON document in its meta
// column.
package dicommeta

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"hash"
	"io"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/pixels/internal/logging"
	"github.com/dmitrijs2005/pixels/internal/models"
	"github.com/dmitrijs2005/pixels/internal/source"
)

// maxFileSize bounds how much of one object is read into memory.
const maxFileSize = 1 << 30

// Extractor adds a meta document to catalog rows.
type Extractor struct {
	Source source.Source
	// Partitions is the number of files processed concurrently.
	// Zero uses GOMAXPROCS.
	Partitions int
	// Deep decodes pixel data and records grey level statistics.
	Deep bool
	// Hash names the content hash algorithm, see NewHash.
	Hash string
	// Timeout bounds the work on one file. Zero means no limit.
	Timeout time.Duration
	Logger  logging.Logger
}

func (x *Extractor) log() logging.Logger {
	if x.Logger == nil {
		return logging.Nop()
	}
	return x.Logger
}

// Transform returns a copy of rows with Meta filled in, in the same order.
// Non-DICOM rows get an empty document. Per file failures are recorded in
// the document under "error"; only cancellation of ctx aborts the batch.
func (x *Extractor) Transform(ctx context.Context, rows []models.CatalogEntry) ([]models.CatalogEntry, error) {
	newHash, err := NewHash(x.Hash)
	if err != nil {
		return nil, err
	}

	workers := x.Partitions
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([]models.CatalogEntry, len(rows))
	copy(out, rows)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	start := time.Now()
	for i := range out {
		i := i
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if !out[i].IsDicom() {
				out[i].Meta = json.RawMessage(`{}`)
				return nil
			}
			meta, err := x.extract(gctx, out[i].Path, newHash)
			if err != nil {
				return err
			}
			out[i].Meta = meta
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// the group context is always done after Wait; only the caller's counts
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	x.log().Info(ctx, "metadata extracted", "rows", len(out), "workers", workers, "elapsed", time.Since(start).String())
	return out, nil
}

// extract builds the meta document for one file. The returned error is
// non-nil only when ctx is done. When Timeout is set the file is abandoned
// once it expires and the document records the timeout.
func (x *Extractor) extract(ctx context.Context, path string, newHash func() hash.Hash) (json.RawMessage, error) {
	parent := ctx
	if x.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.Timeout)
		defer cancel()
	}

	type result struct {
		meta map[string]any
		err  error
	}
	done := make(chan result, 1)
	go func() {
		meta, err := x.describe(ctx, path, newHash)
		done <- result{meta, err}
	}()

	var r result
	select {
	case r = <-done:
	case <-ctx.Done():
		r = result{meta: map[string]any{}, err: fmt.Errorf("extract %s: %w", path, ctx.Err())}
	}

	if r.err != nil {
		if err := parent.Err(); err != nil {
			return nil, err
		}
		x.log().Warn(ctx, "metadata extraction failed", "path", path, "error", r.err.Error())
		r.meta[models.MetaError] = r.err.Error()
	}
	return marshal(r.meta)
}

// describe reads, hashes and parses one file. The returned document holds
// whatever was gathered before a failure.
func (x *Extractor) describe(ctx context.Context, path string, newHash func() hash.Hash) (map[string]any, error) {
	meta := map[string]any{}

	data, err := x.read(ctx, path)
	if err != nil {
		return meta, err
	}

	h := newHash()
	h.Write(data)
	meta[models.MetaHash] = hex.EncodeToString(h.Sum(nil))
	meta[models.MetaFileSize] = len(data)

	deep := x.Deep
	ds, err := Parse(data, deep)
	if err != nil && deep {
		// keep the header when only the pixel data is unreadable
		if hdr, herr := Parse(data, false); herr == nil {
			meta[models.MetaError] = "pixel data: " + err.Error()
			ds, err, deep = hdr, nil, false
		}
	}
	if err != nil {
		return meta, err
	}
	if err := ctx.Err(); err != nil {
		return meta, err
	}
	for k, v := range encodeElements(ds.Elements) {
		meta[k] = v
	}

	if deep {
		frames, err := Frames(ds, false)
		switch {
		case errors.Is(err, ErrNoPixelData):
		case err != nil:
			return meta, err
		default:
			stats := newPixelStats()
			for _, f := range frames {
				stats.add(f)
			}
			stats.fill(meta)
		}
	}

	x.log().Debug(ctx, "metadata extracted", "path", path, "attributes", len(ds.Elements))
	return meta, nil
}

func (x *Extractor) read(ctx context.Context, path string) ([]byte, error) {
	rc, err := x.Source.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(ctxReader{ctx: ctx, r: rc}, maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("read %s: larger than %d bytes", path, maxFileSize)
	}
	return data, nil
}

// ctxReader stops reading once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func marshal(meta map[string]any) (json.RawMessage, error) {
	b, err := json.Marshal(meta)
	if err != nil {
		b, _ = json.Marshal(map[string]string{models.MetaError: "encode meta: " + err.Error()})
	}
	return b, nil
}
