// Package shard maps columns onto size-capped, append-only shard files.
//
// A column's shards live in <root>/<table>/<column>/ and are named
// <column>_<index>, with the index zero-padded to 20 decimal digits. Shard
// files carry no header; their contents are the concatenated records.
package shard

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/catalystcommunity/db-storage-poc/pkg/errors"
)

// IndexDigits is the fixed width of the zero-padded shard index.
const IndexDigits = 20

// FileName returns the shard file name for column at index.
func FileName(column string, index uint64) string {
	return fmt.Sprintf("%s_%0*d", column, IndexDigits, index)
}

// Path returns the shard path for column at index inside dir.
func Path(dir, column string, index uint64) string {
	return filepath.Join(dir, FileName(column, index))
}

// ColumnDir returns the directory holding a column's shards.
func ColumnDir(root, table, column string) string {
	return filepath.Join(root, table, column)
}

// Location identifies the current tail shard of a column.
type Location struct {
	Index uint64
	Size  int64
}

// Remaining returns how many bytes may still be appended to the tail shard.
func (l Location) Remaining(maxShardSize int64) int64 {
	if l.Size >= maxShardSize {
		return 0
	}
	return maxShardSize - l.Size
}

// Locate finds the highest-numbered shard of column in dir. A missing or
// empty directory yields index 0 with size 0. Entries that are not regular
// files or do not carry the column prefix are ignored; a prefixed name whose
// index does not parse is rejected.
func Locate(dir, column string) (Location, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Location{}, nil
		}
		return Location{}, errors.Wrapf(err, errors.ErrorTypeIO, "list shards in %s", dir)
	}

	var (
		loc   Location
		found bool
		tail  fs.DirEntry
	)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		index, ok, err := ParseFileName(column, entry.Name())
		if err != nil {
			return Location{}, err
		}
		if !ok {
			continue
		}
		if !found || index > loc.Index {
			loc.Index = index
			tail = entry
			found = true
		}
	}
	if !found {
		return Location{}, nil
	}

	info, err := tail.Info()
	if err != nil {
		return Location{}, errors.Wrapf(err, errors.ErrorTypeIO, "stat shard %s", tail.Name())
	}
	loc.Size = info.Size()
	return loc, nil
}

// ParseFileName extracts the index from a shard file name. ok is false when
// name does not belong to column.
func ParseFileName(column, name string) (index uint64, ok bool, err error) {
	prefix := column + "_"
	if !strings.HasPrefix(name, prefix) {
		return 0, false, nil
	}
	suffix := name[len(prefix):]
	if len(suffix) != IndexDigits {
		return 0, false, errors.Newf(errors.ErrorTypeDecoding, "malformed shard name %q", name)
	}
	index, err = strconv.ParseUint(suffix, 10, 64)
	if err != nil {
		return 0, false, errors.Wrapf(err, errors.ErrorTypeDecoding, "malformed shard name %q", name)
	}
	return index, true, nil
}

// Sizes returns the byte size of each shard of column, contiguous from index
// 0, stopping at the first absent index.
func Sizes(dir, column string) ([]int64, error) {
	var sizes []int64
	for index := uint64(0); ; index++ {
		info, err := os.Stat(Path(dir, column, index))
		if err != nil {
			if os.IsNotExist(err) {
				return sizes, nil
			}
			return nil, errors.Wrapf(err, errors.ErrorTypeIO, "stat shard %d of %s", index, column)
		}
		if !info.Mode().IsRegular() {
			return nil, errors.Newf(errors.ErrorTypeIO, "shard %d of %s is not a regular file", index, column)
		}
		sizes = append(sizes, info.Size())
	}
}

// Exists reports whether the shard at index is present.
func Exists(dir, column string, index uint64) (bool, error) {
	_, err := os.Stat(Path(dir, column, index))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, errors.ErrorTypeIO, "stat shard %d of %s", index, column)
}
