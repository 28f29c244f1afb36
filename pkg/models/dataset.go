package models

import "strings"

// Dataset is a raw uploaded table: a header row plus data rows, all values
// kept as strings. Header names are normalized (trimmed, lowercased) at parse
// time so column lookup is case-insensitive.
type Dataset struct {
	// Columns are the normalized header names, in file order.
	Columns []string `json:"columns"`

	// Rows are the raw data rows. Each row has len(Columns) cells.
	Rows [][]string `json:"rows"`

	// Filename is the original upload name, for display only.
	Filename string `json:"filename,omitempty"`
}

// NormalizeColumn normalizes a column name for lookup: trim and lowercase.
func NormalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ColumnIndex returns the index of the named column, or -1 if absent.
// The name is normalized before comparison.
func (d *Dataset) ColumnIndex(name string) int {
	want := NormalizeColumn(name)
	for i, c := range d.Columns {
		if c == want {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the dataset contains the named column.
func (d *Dataset) HasColumn(name string) bool {
	return d.ColumnIndex(name) >= 0
}

// Preview returns the first n rows (or fewer if the dataset is smaller).
func (d *Dataset) Preview(n int) [][]string {
	if n < 0 {
		n = 0
	}
	if n > len(d.Rows) {
		n = len(d.Rows)
	}
	return d.Rows[:n]
}

// RowCount returns the number of data rows.
func (d *Dataset) RowCount() int {
	return len(d.Rows)
}
