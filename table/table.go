// Package table holds the in-memory question/response table read by the converter
// and the loaders that build it from CSV, JSONL and Parquet sources.
package table

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrMissingColumn     = errors.New("missing column")
	ErrDuplicateID       = errors.New("duplicate identifier")
	ErrUnsupportedFormat = errors.New("unsupported table format")
)

// Table is an immutable set of rows with named string columns.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// New creates a table from column names and rows. Every row must have one value per column.
func New(columns []string, rows [][]string) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		if _, ok := index[name]; ok {
			return nil, fmt.Errorf("column %q is defined more than once", name)
		}
		index[name] = i
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(columns))
		}
	}
	return &Table{
		columns: slices.Clone(columns),
		index:   index,
		rows:    rows,
	}, nil
}

func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

func (t *Table) ColumnIndex(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return -1, fmt.Errorf("%w: %s", ErrMissingColumn, name)
	}
	return i, nil
}

// Row returns a copy of the values of row i in column order.
func (t *Table) Row(i int) []string {
	return slices.Clone(t.rows[i])
}

func (t *Table) Value(row int, column string) (string, error) {
	c, err := t.ColumnIndex(column)
	if err != nil {
		return "", err
	}
	if row < 0 || row >= len(t.rows) {
		return "", fmt.Errorf("row %d out of range [0, %d)", row, len(t.rows))
	}
	return t.rows[row][c], nil
}

// Column returns a copy of all values of the named column.
func (t *Table) Column(name string) ([]string, error) {
	c, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(t.rows))
	for i, row := range t.rows {
		values[i] = row[c]
	}
	return values, nil
}

// Validate checks that every required column is present.
func (t *Table) Validate(required ...string) error {
	var errs []error
	for _, name := range required {
		if !t.HasColumn(name) {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingColumn, name))
		}
	}
	return errors.Join(errs...)
}

// ValidateUniqueIDs checks that no two rows share a value in idColumn.
func (t *Table) ValidateUniqueIDs(idColumn string) error {
	ids, err := t.Column(idColumn)
	if err != nil {
		return err
	}
	seen := make(map[string]int, len(ids))
	for i, id := range ids {
		if first, ok := seen[id]; ok {
			return fmt.Errorf("%w: %q at rows %d and %d", ErrDuplicateID, id, first, i)
		}
		seen[id] = i
	}
	return nil
}
