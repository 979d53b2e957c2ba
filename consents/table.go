package consents

import (
	"errors"
	"fmt"
	"strconv"

	"port/protocols"
)

// ErrShape marks a data shape violation: malformed table encoding or a row
// whose cell count differs from the head. Shape violations are fatal, the
// current render must be aborted rather than submit a corrupted donation.
var ErrShape = errors.New("table shape violation")

type Table struct {
	ID    string
	Title string
	Head  []string
	Rows  [][]string

	// DeletedRowCount accumulates len(old)-len(new) over edits. It is a
	// signed delta and goes negative when more rows are added back than
	// were ever deleted.
	DeletedRowCount int
}

// ParseTable decodes the column-major encoding. Column order is the
// encoding's insertion order. The encoding carries one sentinel key beyond
// the last real row index, so the row count is the first column's key count
// minus one.
func ParseTable(spec protocols.TableSpec, locale string) (*Table, error) {
	table := &Table{
		ID:    spec.ID,
		Title: spec.Title.Lookup(locale),
	}

	columns := spec.Data.Columns
	if len(columns) == 0 {
		return table, nil
	}

	for _, column := range columns {
		table.Head = append(table.Head, column.Name)
	}

	rowCount := len(columns[0].Keys) - 1
	if rowCount < 0 {
		rowCount = 0
	}

	for i := range rowCount {
		key := strconv.Itoa(i)
		row := make([]string, 0, len(columns))
		for _, column := range columns {
			cell, ok := column.Cells[key]
			if !ok {
				return nil, fmt.Errorf("%w: table %q column %q has no row %q",
					ErrShape, spec.ID, column.Name, key)
			}
			row = append(row, cell.Text())
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func (t *Table) checkWidth(rows [][]string) error {
	for i, row := range rows {
		if len(row) != len(t.Head) {
			return fmt.Errorf("%w: table %q row %d has %d cells, head has %d",
				ErrShape, t.ID, i, len(row), len(t.Head))
		}
	}
	return nil
}
