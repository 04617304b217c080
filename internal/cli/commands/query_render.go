package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/leapstack-labs/leapwip/internal/adapter"
	"github.com/marcboeker/go-duckdb"
)

// renderResults writes rs in the named format; unknown formats render as a table.
func renderResults(w io.Writer, rs *adapter.Result, format string) error {
	switch format {
	case "json":
		return renderJSON(w, rs)
	case "csv":
		return renderCSV(w, rs)
	case "md", "markdown":
		return renderMarkdown(w, rs)
	default:
		return renderTable(w, rs)
	}
}

func renderTable(w io.Writer, rs *adapter.Result) error {
	if len(rs.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(rs.Columns))
	for i, col := range rs.Columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	// Right-align numeric columns, judged by the first non-null value.
	var configs []table.ColumnConfig
	for i := range rs.Columns {
		if isNumericColumn(rs, i) {
			configs = append(configs, table.ColumnConfig{Number: i + 1, Align: text.AlignRight})
		}
	}
	t.SetColumnConfigs(configs)

	for _, values := range rs.Rows {
		row := make(table.Row, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rs.Rows))
	return nil
}

func isNumericColumn(rs *adapter.Result, col int) bool {
	for _, row := range rs.Rows {
		switch row[col].(type) {
		case nil:
			continue
		case int, int8, int16, int32, int64, uint8, uint16, uint32, uint64, float32, float64, duckdb.Decimal, *big.Int:
			return true
		default:
			return false
		}
	}
	return false
}

func renderJSON(w io.Writer, rs *adapter.Result) error {
	return writeJSON(w, jsonRows(rs))
}

// jsonRows turns each result row into an object keyed by column name.
func jsonRows(rs *adapter.Result) []map[string]any {
	results := make([]map[string]any, 0, len(rs.Rows))
	for _, values := range rs.Rows {
		row := make(map[string]any, len(rs.Columns))
		for i, col := range rs.Columns {
			row[col] = jsonValue(values[i])
		}
		results = append(results, row)
	}
	return results
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// jsonValue keeps numbers and nulls native and renders the rest as text.
func jsonValue(v any) any {
	switch x := v.(type) {
	case nil, bool, string, int, int8, int16, int32, int64, uint8, uint16, uint32, uint64:
		return x
	case float32, float64:
		return x
	case duckdb.Decimal:
		return x.Float64()
	default:
		return formatValue(x)
	}
}

func renderCSV(w io.Writer, rs *adapter.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rs.Columns); err != nil {
		return err
	}
	record := make([]string, len(rs.Columns))
	for _, values := range rs.Rows {
		for i, v := range values {
			if v == nil {
				record[i] = ""
				continue
			}
			record[i] = formatValue(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderMarkdown(w io.Writer, rs *adapter.Result) error {
	if len(rs.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(escapeMarkdownCells(rs.Columns), " | "))
	seps := make([]string, len(rs.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	cells := make([]string, len(rs.Columns))
	for _, values := range rs.Rows {
		for i, v := range values {
			cells[i] = formatValue(v)
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(escapeMarkdownCells(cells), " | "))
	}
	return nil
}

func escapeMarkdownCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	return out
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05")
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case duckdb.Decimal:
		return strconv.FormatFloat(x.Float64(), 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// saveCSV writes rs to path as CSV and returns the file written.
// A missing .csv extension is added.
func saveCSV(path string, rs *adapter.Result) (string, error) {
	if path == "" {
		return "", fmt.Errorf("no file name given")
	}
	if !strings.HasSuffix(strings.ToLower(path), ".csv") {
		path += ".csv"
	}

	f, err := os.Create(path) //nolint:gosec // user-chosen output path
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := renderCSV(f, rs); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
