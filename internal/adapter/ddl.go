package adapter

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapwip/internal/sheet"
)

// QuoteIdentifier double-quotes a SQL identifier, doubling embedded quotes.
// Column names from spreadsheets routinely contain spaces and punctuation.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// SQLType maps a loader column type to the DuckDB column type.
func SQLType(t sheet.ColumnType) (string, error) {
	switch t {
	case sheet.TypeInteger:
		return "BIGINT", nil
	case sheet.TypeFloat:
		return "DOUBLE", nil
	case sheet.TypeText:
		return "VARCHAR", nil
	case sheet.TypeDate:
		return "TIMESTAMP", nil
	default:
		return "", fmt.Errorf("unsupported column type %q", t)
	}
}

// createTableSQL validates table and returns its CREATE TABLE statement.
func createTableSQL(name string, table *sheet.Table) (string, error) {
	if name == "" {
		return "", fmt.Errorf("relation name is empty")
	}
	if table == nil || len(table.Columns) == 0 {
		return "", fmt.Errorf("table has no columns")
	}

	rows := len(table.Columns[0].Values)
	seen := make(map[string]string, len(table.Columns))
	defs := make([]string, 0, len(table.Columns))

	for _, col := range table.Columns {
		if col.Name == "" {
			return "", fmt.Errorf("column name is empty")
		}
		key := strings.ToLower(col.Name)
		if prev, ok := seen[key]; ok {
			return "", fmt.Errorf("duplicate column name %q (conflicts with %q)", col.Name, prev)
		}
		seen[key] = col.Name

		if len(col.Values) != rows {
			return "", fmt.Errorf("column %q has %d values, expected %d", col.Name, len(col.Values), rows)
		}

		typ, err := SQLType(col.Type)
		if err != nil {
			return "", fmt.Errorf("column %q: %w", col.Name, err)
		}
		defs = append(defs, QuoteIdentifier(col.Name)+" "+typ)
	}

	return fmt.Sprintf("CREATE TABLE %s (%s)", QuoteIdentifier(name), strings.Join(defs, ", ")), nil
}

func insertSQL(name string, table *sheet.Table) string {
	cols := make([]string, len(table.Columns))
	params := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		cols[i] = QuoteIdentifier(col.Name)
		params[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteIdentifier(name), strings.Join(cols, ", "), strings.Join(params, ", "))
}
