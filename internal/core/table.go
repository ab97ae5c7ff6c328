package core

import (
	"fmt"
	"strings"
)

// Table is the in-memory form of one spreadsheet tab: a header row and the
// data rows below it, all as trimmed strings.
type Table struct {
	Source  string
	Columns []string
	Rows    [][]string
}

// MissingColumnsError lists required columns absent from a table.
type MissingColumnsError struct {
	Source  string
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: missing columns %s", e.Source, strings.Join(e.Missing, ", "))
}

// Is lets errors.Is(err, ErrMissingColumns) match any MissingColumnsError.
func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMissingColumns
}

var ErrMissingColumns = fmt.Errorf("missing columns")

// NewTable builds a table from a values matrix whose first row is the
// header. Blank trailing rows are dropped.
func NewTable(source string, values [][]string) Table {
	t := Table{Source: source}
	if len(values) == 0 {
		return t
	}
	t.Columns = trimAll(values[0])
	for _, row := range values[1:] {
		row = trimAll(row)
		if isBlank(row) {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Index returns the position of a column, or -1.
func (t Table) Index(col string) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Has reports whether the table carries the column.
func (t Table) Has(col string) bool {
	return t.Index(col) >= 0
}

// Require returns a *MissingColumnsError when any of cols is absent.
func (t Table) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Source: t.Source, Missing: missing}
	}
	return nil
}

// Cell returns row[i], tolerating short rows.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
