package sheet

import (
	"fmt"
)

// PreviewResult holds the sheet list and the leading rows of one sheet.
type PreviewResult struct {
	Sheets []string
	Sheet  string
	Rows   [][]string
}

// Preview returns the workbook's sheet names and the first n rows of sheetName
// as displayed values. An empty sheetName previews the first sheet.
// It is used to find the header row of an unfamiliar workbook.
func Preview(path, sheetName string, n int) (*PreviewResult, error) {
	f, err := openWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, newLoadError(path, "", fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound))
	}
	if sheetName == "" {
		sheetName = sheets[0]
	}
	if err := requireSheet(f, path, sheetName); err != nil {
		return nil, err
	}

	iter, err := f.Rows(sheetName)
	if err != nil {
		return nil, newLoadError(path, sheetName, fmt.Errorf("failed to open rows iterator: %w", err))
	}
	defer func() { _ = iter.Close() }()

	result := &PreviewResult{Sheets: sheets, Sheet: sheetName}
	for len(result.Rows) < n && iter.Next() {
		row, err := iter.Columns()
		if err != nil {
			return nil, newLoadError(path, sheetName, fmt.Errorf("failed to read row: %w", err))
		}
		result.Rows = append(result.Rows, row)
	}
	if err := iter.Error(); err != nil {
		return nil, newLoadError(path, sheetName, err)
	}

	return result, nil
}
