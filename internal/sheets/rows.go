package sheets

import (
	"fmt"
	"strings"
)

// Cell is one (column, value) pair. Rows keep cells in header order; nothing
// upstream enforces a typed schema, so values stay raw strings here.
type Cell struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// Row is the ordered list of cells for one data row.
type Row struct {
	Cells []Cell `json:"cells"`
}

// Tab is one fetched worksheet: the header row plus every data row under it.
type Tab struct {
	Header []string `json:"header"`
	Rows   []Row    `json:"rows"`
}

// Get returns the value under a column name, case-insensitively.
func (r Row) Get(column string) (string, bool) {
	for _, c := range r.Cells {
		if strings.EqualFold(c.Column, column) {
			return c.Value, true
		}
	}
	return "", false
}

// IsEmpty reports whether every cell in the row is blank.
func (r Row) IsEmpty() bool {
	for _, c := range r.Cells {
		if c.Value != "" {
			return false
		}
	}
	return true
}

// TabFromValues converts the raw value grid returned by the Sheets API into a
// Tab. The first grid row is treated as the header; unnamed columns get a
// positional "Column N" name so their values are not dropped. Rows shorter
// than the header are padded with empty cells.
func TabFromValues(values [][]interface{}) Tab {
	if len(values) == 0 {
		return Tab{}
	}

	header := make([]string, len(values[0]))
	for i, v := range values[0] {
		name := cellString(v)
		if name == "" {
			name = fmt.Sprintf("Column %d", i+1)
		}
		header[i] = name
	}

	tab := Tab{Header: header}
	for _, raw := range values[1:] {
		row := Row{Cells: make([]Cell, len(header))}
		for i, col := range header {
			value := ""
			if i < len(raw) {
				value = cellString(raw[i])
			}
			row.Cells[i] = Cell{Column: col, Value: value}
		}
		tab.Rows = append(tab.Rows, row)
	}
	return tab
}

// cellString renders a sheet cell the way the API hands it back, trimming
// surrounding whitespace.
func cellString(v interface{}) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}
