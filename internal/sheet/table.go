// Package sheet reads one sheet of an xlsx workbook into a typed, in-memory table.
//
// Rows above the header row are discarded, header cells become column names
// verbatim, configured date columns are coerced to time.Time, and every other
// column is typed from its content (integer, float or text).
package sheet

// ColumnType is the inferred scalar type of a column.
type ColumnType string

// Column types produced by the loader.
const (
	TypeText    ColumnType = "text"
	TypeInteger ColumnType = "integer"
	TypeFloat   ColumnType = "float"
	TypeDate    ColumnType = "date"
)

// Column is a named column of typed values.
// Values hold string, int64, float64 or time.Time according to Type; nil means no value.
type Column struct {
	Name   string
	Type   ColumnType
	Values []any
}

// Table is a normalized, column-oriented table. All columns have the same length.
type Table struct {
	Columns []Column
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// ColumnNames returns column names in header order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the column with the exact given name.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// Row returns the values of row i in column order.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.Columns))
	for j, c := range t.Columns {
		row[j] = c.Values[i]
	}
	return row
}

// ColumnsOfType returns the names of all columns with the given type.
func (t *Table) ColumnsOfType(typ ColumnType) []string {
	var names []string
	for _, c := range t.Columns {
		if c.Type == typ {
			names = append(names, c.Name)
		}
	}
	return names
}
