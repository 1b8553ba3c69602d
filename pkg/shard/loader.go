package shard

import (
	"io"
	"os"

	"github.com/catalystcommunity/db-storage-poc/pkg/errors"
	"github.com/catalystcommunity/db-storage-poc/pkg/mmap"
	"github.com/catalystcommunity/db-storage-poc/pkg/pool"
)

// Buffer holds the full contents of one loaded shard.
type Buffer interface {
	Bytes() []byte
	Release() error
}

// Loader loads a shard file whole.
type Loader interface {
	Load(path string) (Buffer, error)
}

// NewLoader returns the mmap loader when useMmap is set and the read loader
// otherwise.
func NewLoader(useMmap bool) Loader {
	if useMmap {
		return MmapLoader{}
	}
	return ReadLoader{}
}

// ReadLoader reads shard contents into pooled heap buffers. A buffer is
// reused by later loads once released, so its bytes must not be retained.
type ReadLoader struct{}

func (ReadLoader) Load(path string) (Buffer, error) {
	f, err := os.Open(path) //nolint:gosec // G304: shard paths are built by Path
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeIO, "read shard %s", path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeIO, "stat shard %s", path)
	}
	buf := pool.GetBuffer(int(info.Size()))
	if _, err := io.ReadFull(f, *buf); err != nil {
		pool.PutBuffer(buf)
		return nil, errors.Wrapf(err, errors.ErrorTypeIO, "read shard %s", path)
	}
	return &heapBuffer{buf: buf}, nil
}

type heapBuffer struct {
	buf *[]byte
}

func (b *heapBuffer) Bytes() []byte {
	if b.buf == nil {
		return nil
	}
	return *b.buf
}

func (b *heapBuffer) Release() error {
	pool.PutBuffer(b.buf)
	b.buf = nil
	return nil
}

// MmapLoader maps shard files read-only.
type MmapLoader struct{}

func (MmapLoader) Load(path string) (Buffer, error) {
	r, err := mmap.NewReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeIO, "map shard %s", path)
	}
	return mappedBuffer{r}, nil
}

type mappedBuffer struct {
	r *mmap.Reader
}

func (b mappedBuffer) Bytes() []byte { return b.r.Bytes() }

func (b mappedBuffer) Release() error {
	if err := b.r.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "release mapped shard")
	}
	return nil
}
