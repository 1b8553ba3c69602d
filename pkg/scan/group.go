// Package scan reads several column streams back in row lockstep.
//
// A row group names the streams to read. The first stream drives the scan:
// the scan ends when the driving stream has no further shard. Every other
// stream advances through its own shards independently, because shard
// boundaries of different columns do not line up.
package scan

import (
	"fmt"

	"github.com/catalystcommunity/db-storage-poc/pkg/column"
	"github.com/catalystcommunity/db-storage-poc/pkg/errors"
)

// StreamSpec identifies one column stream and the kind of its records.
type StreamSpec struct {
	Table  string
	Column string
	Kind   column.Kind
}

func (s StreamSpec) String() string {
	return fmt.Sprintf("%s.%s", s.Table, s.Column)
}

// RowGroup is an ordered list of streams read together. The first entry is
// the driving stream.
type RowGroup []StreamSpec

// Validate checks that the group is usable.
func (g RowGroup) Validate() error {
	if len(g) == 0 {
		return errors.New(errors.ErrorTypeSchema, "row group has no streams")
	}
	seen := make(map[string]bool, len(g))
	for _, spec := range g {
		if spec.Table == "" || spec.Column == "" {
			return errors.Newf(errors.ErrorTypeSchema, "stream %q is missing a table or column", spec)
		}
		if !spec.Kind.Valid() {
			return errors.Newf(errors.ErrorTypeSchema, "stream %s has invalid kind %s", spec, spec.Kind)
		}
		if seen[spec.String()] {
			return errors.Newf(errors.ErrorTypeSchema, "stream %s listed twice", spec)
		}
		seen[spec.String()] = true
	}
	return nil
}
