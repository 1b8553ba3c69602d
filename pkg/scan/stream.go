package scan

import (
	"bytes"

	"github.com/catalystcommunity/db-storage-poc/pkg/column"
	"github.com/catalystcommunity/db-storage-poc/pkg/errors"
	"github.com/catalystcommunity/db-storage-poc/pkg/metrics"
	"github.com/catalystcommunity/db-storage-poc/pkg/shard"
)

// stream tracks one column's position: the shard it is in and the byte
// offset within that shard. When the offset reaches the end of the loaded
// bytes the stream needs its next shard.
type stream struct {
	spec   StreamSpec
	dir    string
	loader shard.Loader
	metr   *metrics.Metrics

	loaded bool
	index  uint64
	buf    shard.Buffer
	data   []byte
	offset int

	rows         uint64
	bytesScanned int64
	shardsLoaded int
}

// next decodes the stream's next record. ok is false once no further shard
// exists.
func (s *stream) next() (v column.Value, ok bool, err error) {
	for s.offset >= len(s.data) {
		more, err := s.advance()
		if err != nil || !more {
			return column.Value{}, false, err
		}
	}

	v, n, err := column.DecodeNext(s.spec.Kind, s.data[s.offset:])
	if err != nil {
		return column.Value{}, false, errors.Wrapf(err, errors.ErrorTypeDecoding,
			"%s shard %d offset %d", s.spec, s.index, s.offset)
	}
	s.offset += n
	s.rows++
	return v, true, nil
}

// advance releases the current shard and loads the next one.
func (s *stream) advance() (bool, error) {
	nextIndex := uint64(0)
	if s.loaded {
		nextIndex = s.index + 1
	}

	exists, err := shard.Exists(s.dir, s.spec.Column, nextIndex)
	if err != nil || !exists {
		return false, err
	}

	if err := s.release(); err != nil {
		return false, err
	}
	buf, err := s.loader.Load(shard.Path(s.dir, s.spec.Column, nextIndex))
	if err != nil {
		return false, err
	}

	s.buf = buf
	s.data = buf.Bytes()
	s.offset = 0
	s.index = nextIndex
	s.loaded = true
	s.shardsLoaded++
	s.bytesScanned += int64(len(s.data))
	s.metr.ObserveShardScanned(s.spec.Table, s.spec.Column, len(s.data))
	return true, nil
}

func (s *stream) release() error {
	if s.buf == nil {
		return nil
	}
	err := s.buf.Release()
	s.buf = nil
	s.data = nil
	return err
}

// countRows derives the stream's row count from its shards without decoding
// records. Fixed-width shards must hold whole records; text shards must end
// with a delimiter.
func (s *stream) countRows() (uint64, error) {
	sizes, err := shard.Sizes(s.dir, s.spec.Column)
	if err != nil {
		return 0, err
	}

	width := int64(s.spec.Kind.Width())
	var rows uint64
	for index, size := range sizes {
		if width > 0 {
			if size%width != 0 {
				return 0, errors.Newf(errors.ErrorTypeDecoding,
					"%s shard %d holds %d bytes, not a multiple of record width %d", s.spec, index, size, width)
			}
			rows += uint64(size / width)
			continue
		}

		n, err := s.countLines(uint64(index))
		if err != nil {
			return 0, err
		}
		rows += n
	}
	return rows, nil
}

func (s *stream) countLines(index uint64) (uint64, error) {
	buf, err := s.loader.Load(shard.Path(s.dir, s.spec.Column, index))
	if err != nil {
		return 0, err
	}
	defer buf.Release()

	data := buf.Bytes()
	if len(data) > 0 && data[len(data)-1] != column.TextDelimiter {
		return 0, errors.Newf(errors.ErrorTypeDecoding, "%s shard %d ends inside a text record", s.spec, index)
	}
	return uint64(bytes.Count(data, []byte{column.TextDelimiter})), nil
}
