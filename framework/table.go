package framework

import (
	"fmt"
	"strconv"
	"strings"
)

// Table is the tabular artifact produced by scraping: a header row plus data
// rows, all kept as strings. Typed interpretation happens at the consumer:
// the analyzer loads rows into SQLite with inferred affinity, and the
// visualizer parses the columns it plots.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return len(t.Rows) }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.Columns) }

// Size returns the total cell count. Scraping uses it to pick the largest
// table on a page.
func (t *Table) Size() int { return t.NumRows() * t.NumCols() }

// ColumnIndex resolves a column name to its position.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, col := range t.Columns {
		if col == name {
			return i, true
		}
	}
	return 0, false
}

// Column returns the raw string values of a named column.
func (t *Table) Column(name string) ([]string, error) {
	idx, ok := t.ColumnIndex(name)
	if !ok {
		return nil, fmt.Errorf("column %q not found (available: %s)", name, strings.Join(t.Columns, ", "))
	}
	values := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if idx < len(row) {
			values = append(values, row[idx])
		} else {
			values = append(values, "")
		}
	}
	return values, nil
}

// FloatColumn parses a named column as float64 values. The returned ok slice
// marks which rows parsed, keeping paired columns row-aligned for plotting.
func (t *Table) FloatColumn(name string) ([]float64, []bool, error) {
	raw, err := t.Column(name)
	if err != nil {
		return nil, nil, err
	}
	values := make([]float64, len(raw))
	ok := make([]bool, len(raw))
	for i, cell := range raw {
		if v, err := ParseNumeric(cell); err == nil {
			values[i] = v
			ok[i] = true
		}
	}
	return values, ok, nil
}

var numericCleaner = strings.NewReplacer(
	"$", "", "€", "", "£", "", "%", "", ",", "", " ", "", " ", "",
)

// ParseNumeric parses a cell leniently, stripping currency symbols, percent
// signs, commas, and stray whitespace first. Scraped tables routinely carry
// values like "$2,923,706,026".
func ParseNumeric(cell string) (float64, error) {
	cleaned := numericCleaner.Replace(strings.TrimSpace(cell))
	if cleaned == "" {
		return 0, fmt.Errorf("empty cell")
	}
	return strconv.ParseFloat(cleaned, 64)
}
