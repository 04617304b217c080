package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// WIPSheet is the sheet name used by the WIP fixture workbook.
const WIPSheet = "WIP - P10"

// WriteWorkbook writes an xlsx file at path with one sheet holding rows.
// nil cells are left empty. Extra sheets are created empty, in order.
func WriteWorkbook(t testing.TB, path, sheet string, rows [][]any, extraSheets ...string) {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	for _, name := range extraSheets {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("create sheet %s: %v", name, err)
		}
	}

	for i, row := range rows {
		for j, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("set %s: %v", cell, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
}

// WIPHeader is the header row of the fixture workbook.
var WIPHeader = []any{
	"Contract", "Description", "Customer Name", "Region", "PM Name",
	"Contract Status", "ServiceType", "Revised Contract", "Total Billings",
	"Revenue To Date", "Costs To Date", "Gross Profit", "Gross Profit %",
	"% Complete", "Backlog Revenue", "WIPMth", "Start Month",
}

// WIPRows are the data rows of the fixture workbook.
func WIPRows() [][]any {
	p10 := time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC)
	return [][]any{
		{"C-1001", "Casing run north", "Acme Energy", "Permian", "Dana Ruiz", "Open", "Casing", 9000000.0, 6500000.0, 6200000.0, 4100000.0, 2100000.0, 0.3387, 0.69, 2800000.0, p10, "2024-03-01"},
		{"C-1002", "Liner install", "Acme Energy", "Permian", "Dana Ruiz", "Open", "Liner", 450000.0, 200000.0, 180000.0, 170000.0, 10000.0, 0.0556, 0.4, 270000.0, p10, "2024-06-01"},
		{"C-1003", "Tubing service", "Borealis Oil", "Bakken", "Lee Park", "Soft-Closed", "Tubing", 1200000.0, 1200000.0, 1200000.0, 950000.0, 250000.0, 0.2083, 1.0, 0.0, p10, "2023-11-01"},
		{"C-1004", "Casing run south", "Borealis Oil", "Eagle Ford", "Lee Park", "Open", "Casing", 300000.0, 90000.0, 150000.0, 160000.0, -10000.0, -0.0667, 0.5, 150000.0, p10, "not a date"},
		{"C-1005", "Intercompany", "Internal", "Permian", "Dana Ruiz", "InterCo Elim", "Casing", 0.0, 0.0, -50000.0, -50000.0, 0.0, 0.0, 0.0, 0.0, p10, nil},
		{"C-1006", "Large completion", "Cobalt Resources", "Bakken", "Sam Ortiz", "Closed", "Completion", 7500000.0, 7500000.0, 7400000.0, 5000000.0, 2400000.0, 0.3243, 1.0, 0.0, p10, "2023-01-15"},
	}
}

// WriteWIPWorkbook writes the WIP fixture workbook into dir and returns its path.
// Row 0 is a title, row 1 the header, data starts at row 2.
func WriteWIPWorkbook(t testing.TB, dir string) string {
	t.Helper()

	rows := [][]any{{"WIP Report - Period 10"}, WIPHeader}
	rows = append(rows, WIPRows()...)

	path := filepath.Join(dir, "casing.xlsx")
	WriteWorkbook(t, path, WIPSheet, rows, "Notes")
	return path
}
