// Package table groups equal-length columns under a table name and writes
// them to per-column shard directories.
package table

import (
	"sort"
	"strings"

	"github.com/catalystcommunity/db-storage-poc/pkg/column"
	"github.com/catalystcommunity/db-storage-poc/pkg/errors"
)

// Table is a named set of columns with one designated id column. All columns
// hold the same number of rows.
type Table struct {
	Name     string
	IDColumn string
	Columns  map[string]column.Column
	rows     int
}

// New validates and returns a table. It fails with a schema error when the
// id column is absent or column lengths differ.
func New(name, idColumn string, columns map[string]column.Column) (*Table, error) {
	if err := validName(name); err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeSchema, "table name %q", name)
	}
	idCol, ok := columns[idColumn]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeSchema, "table %s has no id column %q", name, idColumn).
			WithDetail("table", name)
	}

	rows := idCol.Len()
	for _, colName := range sortedNames(columns) {
		if err := validName(colName); err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeSchema, "table %s column name %q", name, colName)
		}
		if n := columns[colName].Len(); n != rows {
			return nil, errors.Newf(errors.ErrorTypeSchema,
				"table %s column %s has %d rows, id column %s has %d", name, colName, n, idColumn, rows).
				WithDetail("table", name).
				WithDetail("column", colName)
		}
	}

	return &Table{
		Name:     name,
		IDColumn: idColumn,
		Columns:  columns,
		rows:     rows,
	}, nil
}

// Rows returns the row count shared by every column.
func (t *Table) Rows() int { return t.rows }

// ColumnNames returns the column names in sorted order.
func (t *Table) ColumnNames() []string { return sortedNames(t.Columns) }

func sortedNames(columns map[string]column.Column) []string {
	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func validName(name string) error {
	switch {
	case name == "":
		return errors.New(errors.ErrorTypeSchema, "empty name")
	case name == "." || name == "..":
		return errors.New(errors.ErrorTypeSchema, "reserved name")
	case strings.ContainsAny(name, `/\`):
		return errors.New(errors.ErrorTypeSchema, "name contains a path separator")
	}
	return nil
}
