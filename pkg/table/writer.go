package table

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/catalystcommunity/db-storage-poc/pkg/errors"
	"github.com/catalystcommunity/db-storage-poc/pkg/logger"
	"github.com/catalystcommunity/db-storage-poc/pkg/observability"
	"github.com/catalystcommunity/db-storage-poc/pkg/shard"
)

// WriteResult reports where each column's data ended up.
type WriteResult struct {
	Table      string
	Rows       int
	LastShards map[string]uint64
}

// Writer persists tables under a data root.
type Writer struct {
	root   string
	shards *shard.Writer
	logger *zap.Logger
}

// NewWriter returns a writer rooted at root that encodes columns with shards.
func NewWriter(root string, shards *shard.Writer, log *zap.Logger) *Writer {
	return &Writer{root: root, shards: shards, logger: logger.Or(log)}
}

// Root returns the data root.
func (w *Writer) Root() string { return w.root }

// Write appends every column of t to its shards.
func (w *Writer) Write(ctx context.Context, t *Table) (*WriteResult, error) {
	ctx, span := observability.StartSpan(ctx, "table.write")
	span.SetAttribute("table", t.Name)
	span.SetAttribute("rows", t.Rows())
	defer span.End()

	start := time.Now()
	tableDir := filepath.Join(w.root, t.Name)
	if err := os.MkdirAll(tableDir, 0o755); err != nil {
		err = errors.Wrapf(err, errors.ErrorTypeIO, "create table directory %s", tableDir)
		span.RecordError(err)
		return nil, err
	}

	result := &WriteResult{
		Table:      t.Name,
		Rows:       t.Rows(),
		LastShards: make(map[string]uint64, len(t.Columns)),
	}
	for _, name := range t.ColumnNames() {
		last, err := w.shards.Append(ctx, shard.ColumnDir(w.root, t.Name, name), name, t.Columns[name])
		if err != nil {
			err = errors.Wrapf(err, errorType(err), "write %s.%s", t.Name, name)
			span.RecordError(err)
			return nil, err
		}
		result.LastShards[name] = last
	}

	w.logger.Info("table written",
		zap.String("table", t.Name),
		zap.Int("rows", t.Rows()),
		zap.Int("columns", len(t.Columns)),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

func errorType(err error) errors.ErrorType {
	for _, typ := range []errors.ErrorType{errors.ErrorTypeDecoding, errors.ErrorTypeConfig, errors.ErrorTypeSchema} {
		if errors.IsType(err, typ) {
			return typ
		}
	}
	return errors.ErrorTypeIO
}
