package sheet

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Options configures a sheet load.
type Options struct {
	// Path is the workbook file path.
	Path string
	// Sheet is the name of the sheet to read.
	Sheet string
	// HeaderRow is the zero-based index of the row holding column names.
	HeaderRow int
	// DateColumns lists column names (exact match) whose cells are parsed as dates.
	DateColumns []string
	// DuplicateHeaders decides what happens when two header cells share a name.
	DuplicateHeaders DuplicatePolicy
	// Logger is optional; nil discards.
	Logger *slog.Logger
}

// Load reads the configured sheet and returns it as a normalized table.
// The workbook is only read; nothing is written anywhere.
func Load(ctx context.Context, opts Options) (*Table, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if opts.HeaderRow < 0 {
		return nil, newLoadError(opts.Path, opts.Sheet, fmt.Errorf("header row must be non-negative, got %d", opts.HeaderRow))
	}

	f, err := openWorkbook(opts.Path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	if err := requireSheet(f, opts.Path, opts.Sheet); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug("reading sheet", "path", opts.Path, "sheet", opts.Sheet, "header_row", opts.HeaderRow)

	rows, err := f.GetRows(opts.Sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, newLoadError(opts.Path, opts.Sheet, fmt.Errorf("failed to read rows: %w", err))
	}

	if opts.HeaderRow >= len(rows) {
		return nil, newLoadError(opts.Path, opts.Sheet,
			fmt.Errorf("%w: row %d requested, sheet has %d rows", ErrHeaderRowOutOfRange, opts.HeaderRow, len(rows)))
	}

	data, err := typedRows(f, opts.Sheet, rows, opts.HeaderRow+1)
	if err != nil {
		return nil, newLoadError(opts.Path, opts.Sheet, fmt.Errorf("failed to read cell types: %w", err))
	}

	width := len(trimTrailingBlanks(rows[opts.HeaderRow]))
	for _, row := range data {
		width = max(width, len(row))
	}

	names, err := buildHeader(rows[opts.HeaderRow], width, opts.DuplicateHeaders)
	if err != nil {
		return nil, newLoadError(opts.Path, opts.Sheet, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	date1904 := usesDate1904(f)
	dateSet := make(map[string]bool, len(opts.DateColumns))
	for _, name := range opts.DateColumns {
		dateSet[name] = true
	}

	table := &Table{Columns: make([]Column, width)}
	for j, name := range names {
		cells := make([]cell, len(data))
		for i, row := range data {
			if j < len(row) {
				cells[i] = row[j]
			}
		}

		if dateSet[name] {
			col, invalid := dateColumn(name, cells, date1904)
			table.Columns[j] = col
			logger.Debug("converted date column", "column", name, "invalid", invalid)
			continue
		}
		table.Columns[j] = inferColumn(name, cells)
	}

	logger.Debug("sheet loaded", "rows", table.NumRows(), "columns", table.NumColumns())

	return table, nil
}

// openWorkbook opens the xlsx file, distinguishing a missing path from an unreadable file.
func openWorkbook(path string) (*excelize.File, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, newLoadError(path, "", ErrSourceNotFound)
		}
		return nil, newLoadError(path, "", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, newLoadError(path, "", fmt.Errorf("%w: %v", ErrInvalidWorkbook, err))
	}
	return f, nil
}

func requireSheet(f *excelize.File, path, name string) error {
	sheets := f.GetSheetList()
	for _, s := range sheets {
		if s == name {
			return nil
		}
	}
	return newLoadError(path, name,
		fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, name, strings.Join(sheets, ", ")))
}

func usesDate1904(f *excelize.File) bool {
	props, err := f.GetWorkbookProps()
	if err != nil || props.Date1904 == nil {
		return false
	}
	return *props.Date1904
}

// typedRows pairs every cell from rows[first:] with its stored type and drops
// rows whose cells are all empty. rows[i] is sheet row i+1.
func typedRows(f *excelize.File, sheet string, rows [][]string, first int) ([][]cell, error) {
	out := make([][]cell, 0, len(rows)-first)
	for i := first; i < len(rows); i++ {
		raw := trimTrailingBlanks(rows[i])
		if len(raw) == 0 {
			continue
		}
		row := make([]cell, len(raw))
		for j, v := range raw {
			if v == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(sheet, ref)
			if err != nil {
				return nil, err
			}
			row[j] = cell{value: v, kind: kindOf(typ)}
		}
		out = append(out, row)
	}
	return out, nil
}

func trimTrailingBlanks(row []string) []string {
	n := len(row)
	for n > 0 && row[n-1] == "" {
		n--
	}
	return row[:n]
}
