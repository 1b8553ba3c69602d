package shard

import (
	"bufio"
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/catalystcommunity/db-storage-poc/pkg/column"
	"github.com/catalystcommunity/db-storage-poc/pkg/errors"
	"github.com/catalystcommunity/db-storage-poc/pkg/logger"
	"github.com/catalystcommunity/db-storage-poc/pkg/metrics"
	"github.com/catalystcommunity/db-storage-poc/pkg/observability"
)

const (
	writeBufferSize = 64 * 1024
	encodeBatch     = 4096
)

// Writer appends column values to a column's shard files, rolling over to a
// new shard whenever the next record would push the tail past MaxShardSize.
type Writer struct {
	MaxShardSize int64
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
}

// Append writes every value of col to the shards of name in dir and returns
// the index of the last shard touched. Existing shard bytes are never
// rewritten. A record wider than MaxShardSize is written alone into an empty
// shard.
func (w *Writer) Append(ctx context.Context, dir, name string, col column.Column) (uint64, error) {
	if w.MaxShardSize <= 0 {
		return 0, errors.Newf(errors.ErrorTypeConfig, "max shard size must be positive, got %d", w.MaxShardSize)
	}
	table := filepath.Base(filepath.Dir(dir))

	_, span := observability.StartSpan(ctx, "shard.append")
	span.SetAttribute("table", table)
	span.SetAttribute("column", name)
	span.SetAttribute("rows", col.Len())
	defer span.End()

	if err := col.Validate(); err != nil {
		span.RecordError(err)
		return 0, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		err = errors.Wrapf(err, errors.ErrorTypeIO, "create column directory %s", dir)
		span.RecordError(err)
		return 0, err
	}

	loc, err := Locate(dir, name)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	log := logger.Or(w.Logger).With(zap.String("table", table), zap.String("column", name))
	index, size := loc.Index, loc.Size
	n := col.Len()

	for i := 0; i < n; {
		j := fit(col, i, Location{Index: index, Size: size}.Remaining(w.MaxShardSize))
		if j == i {
			if size > 0 {
				index++
				size = 0
				continue
			}
			// Oversized record: it gets an empty shard to itself.
			j = i + 1
		}

		written, err := w.writeShard(dir, table, name, index, col, i, j)
		if err != nil {
			span.RecordError(err)
			return 0, err
		}
		log.Debug("appended to shard",
			zap.Uint64("shard", index),
			zap.Int("rows", j-i),
			zap.Int("bytes", written))

		size += int64(written)
		i = j
	}

	span.SetAttribute("last_shard", index)
	return index, nil
}

// fit returns the end of the longest run of records starting at i whose
// encoding fits in remaining bytes.
func fit(col column.Column, i int, remaining int64) int {
	n := col.Len()
	if width := int64(col.Kind().Width()); width > 0 {
		records := remaining / width
		if left := int64(n - i); records > left {
			records = left
		}
		return i + int(records)
	}

	j := i
	for j < n {
		size := int64(col.RecordSize(j))
		if size > remaining {
			break
		}
		remaining -= size
		j++
	}
	return j
}

func (w *Writer) writeShard(dir, table, name string, index uint64, col column.Column, from, to int) (int, error) {
	path := Path(dir, name, index)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrorTypeIO, "open shard %s", path)
	}
	w.Metrics.ObserveShardOpened(table, name)

	bw := bufio.NewWriterSize(f, writeBufferSize)
	var (
		scratch []byte
		written int
	)
	for start := from; start < to; start += encodeBatch {
		end := start + encodeBatch
		if end > to {
			end = to
		}
		scratch, err = col.AppendEncoded(scratch[:0], start, end)
		if err != nil {
			f.Close()
			return written, err
		}
		if _, err := bw.Write(scratch); err != nil {
			f.Close()
			return written, errors.Wrapf(err, errors.ErrorTypeIO, "write shard %s", path)
		}
		written += len(scratch)
	}

	if err := bw.Flush(); err != nil {
		f.Close()
		return written, errors.Wrapf(err, errors.ErrorTypeIO, "flush shard %s", path)
	}
	if err := f.Close(); err != nil {
		return written, errors.Wrapf(err, errors.ErrorTypeIO, "close shard %s", path)
	}

	w.Metrics.ObserveWrite(table, name, to-from, written)
	return written, nil
}
