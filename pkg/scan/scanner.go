package scan

import (
	"os"

	"go.uber.org/zap"

	"github.com/catalystcommunity/db-storage-poc/pkg/column"
	"github.com/catalystcommunity/db-storage-poc/pkg/errors"
	"github.com/catalystcommunity/db-storage-poc/pkg/logger"
	"github.com/catalystcommunity/db-storage-poc/pkg/metrics"
	"github.com/catalystcommunity/db-storage-poc/pkg/shard"
)

// Options configures a Scanner.
type Options struct {
	// Loader reads shard files; defaults to shard.ReadLoader.
	Loader  shard.Loader
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// StreamStats reports how much of one stream was read.
type StreamStats struct {
	Stream       string
	Rows         uint64
	Shards       int
	BytesScanned int64
}

// Stats summarises a scan.
type Stats struct {
	Rows         uint64
	BytesScanned int64
	ShardsLoaded int
	Streams      []StreamStats
}

// Scanner yields one decoded row per call to Next, taking one record from
// each stream in group order.
type Scanner struct {
	group   RowGroup
	streams []*stream
	logger  *zap.Logger

	expected uint64
	row      []column.Value
	rows     uint64
	err      error
	done     bool
}

// Open prepares a scan of group under root. It counts each stream's rows
// from shard sizes and fails with a schema error if any stream's count
// differs from the driving stream's.
func Open(root string, group RowGroup, opts Options) (*Scanner, error) {
	if err := group.Validate(); err != nil {
		return nil, err
	}
	loader := opts.Loader
	if loader == nil {
		loader = shard.ReadLoader{}
	}

	s := &Scanner{
		group:   group,
		streams: make([]*stream, len(group)),
		logger:  logger.Or(opts.Logger),
		row:     make([]column.Value, len(group)),
	}
	for i, spec := range group {
		s.streams[i] = &stream{
			spec:   spec,
			dir:    shard.ColumnDir(root, spec.Table, spec.Column),
			loader: loader,
			metr:   opts.Metrics,
		}
	}

	if err := s.preflight(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scanner) preflight() error {
	for i, st := range s.streams {
		rows, err := st.countRows()
		if err != nil {
			return err
		}
		s.logger.Debug("stream row count",
			zap.String("stream", st.spec.String()),
			zap.Uint64("rows", rows))

		if i == 0 {
			s.expected = rows
			continue
		}
		if rows != s.expected {
			return errors.Newf(errors.ErrorTypeSchema,
				"stream %s has %d rows but driving stream %s has %d", st.spec, rows, s.streams[0].spec, s.expected).
				WithDetail("stream", st.spec.String()).
				WithDetail("driving_stream", s.streams[0].spec.String())
		}
	}
	return nil
}

// ExpectedRows returns the row count established before scanning.
func (s *Scanner) ExpectedRows() uint64 { return s.expected }

// Next advances to the next row. It returns false at the end of the scan or
// on error; check Err afterwards.
func (s *Scanner) Next() bool {
	if s.done || s.err != nil {
		return false
	}

	for i, st := range s.streams {
		v, ok, err := st.next()
		if err != nil {
			s.fail(err)
			return false
		}
		if !ok {
			if i == 0 {
				s.finish()
				return false
			}
			s.fail(errors.Wrapf(os.ErrNotExist, errors.ErrorTypeIO,
				"%s has no shard after %d rows while %s continues", st.spec, st.rows, s.streams[0].spec))
			return false
		}
		s.row[i] = v
	}

	s.rows++
	return true
}

// Row returns the current row in group order. The slice is reused by the
// next call to Next.
func (s *Scanner) Row() []column.Value { return s.row }

// Err returns the error that ended the scan, if any.
func (s *Scanner) Err() error { return s.err }

// Each calls fn for every row and closes the scanner.
func (s *Scanner) Each(fn func(row []column.Value) error) error {
	defer s.Close()
	for s.Next() {
		if err := fn(s.row); err != nil {
			return err
		}
	}
	return s.Err()
}

// finish verifies that the driving stream's end is also every other
// stream's end.
func (s *Scanner) finish() {
	s.done = true
	for _, st := range s.streams[1:] {
		_, ok, err := st.next()
		if err != nil {
			s.err = err
			return
		}
		if ok {
			s.err = errors.Newf(errors.ErrorTypeSchema,
				"stream %s has records beyond the %d rows of driving stream %s", st.spec, s.rows, s.streams[0].spec)
			return
		}
	}
	if s.rows != s.expected {
		s.err = errors.Newf(errors.ErrorTypeSchema,
			"scanned %d rows, expected %d", s.rows, s.expected)
	}
}

func (s *Scanner) fail(err error) {
	s.err = err
	s.done = true
}

// Stats returns counters for the scan so far.
func (s *Scanner) Stats() Stats {
	stats := Stats{Rows: s.rows, Streams: make([]StreamStats, len(s.streams))}
	for i, st := range s.streams {
		stats.BytesScanned += st.bytesScanned
		stats.ShardsLoaded += st.shardsLoaded
		stats.Streams[i] = StreamStats{
			Stream:       st.spec.String(),
			Rows:         st.rows,
			Shards:       st.shardsLoaded,
			BytesScanned: st.bytesScanned,
		}
	}
	return stats
}

// Close releases any loaded shards.
func (s *Scanner) Close() error {
	var first error
	for _, st := range s.streams {
		if err := st.release(); err != nil && first == nil {
			first = err
		}
	}
	s.done = true
	return first
}
