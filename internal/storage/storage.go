package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned by Get and Delete when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ProgressFunc receives the running byte count of an upload and the expected
// total (-1 when unknown).
type ProgressFunc func(written, total int64)

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1.
// ContentType, Metadata and OnProgress are optional.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
	OnProgress  ProgressFunc
}

// ObjectInfo contains basic information about a stored object.
type ObjectInfo struct {
	// Key is the caller-supplied key.
	Key string
	// Location is what gets recorded as the document path: an absolute
	// filesystem path for local storage, the object key for S3.
	Location     string
	Size         int64
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage holds document binaries.
type Storage interface {
	// Put writes the content read from r under key.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get opens the content previously stored at location.
	Get(ctx context.Context, location string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes the content at location. Missing content yields ErrObjectNotFound.
	Delete(ctx context.Context, location string) error
}

// progressReader counts bytes flowing through an upload and reports them.
type progressReader struct {
	r       io.Reader
	total   int64
	written int64
	fn      ProgressFunc
}

func newProgressReader(r io.Reader, total int64, fn ProgressFunc) *progressReader {
	return &progressReader{r: r, total: total, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.written += int64(n)
		if p.fn != nil {
			p.fn(p.written, p.total)
		}
	}
	return n, err
}
