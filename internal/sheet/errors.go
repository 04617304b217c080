package sheet

import (
	"errors"
	"fmt"
)

// ErrSourceNotFound indicates the workbook path does not exist.
var ErrSourceNotFound = errors.New("workbook not found")

// ErrInvalidWorkbook indicates the workbook exists but is not a readable xlsx file.
var ErrInvalidWorkbook = errors.New("invalid xlsx workbook")

// ErrSheetNotFound indicates the named sheet is absent from the workbook.
var ErrSheetNotFound = errors.New("sheet not found")

// ErrHeaderRowOutOfRange indicates the header row index lies past the last row of the sheet.
var ErrHeaderRowOutOfRange = errors.New("header row out of range")

// ErrAmbiguousColumnName indicates two header cells resolve to the same column name.
var ErrAmbiguousColumnName = errors.New("ambiguous column name")

// LoadError represents an error while loading a sheet.
type LoadError struct {
	Path  string
	Sheet string
	Err   error
}

func (e *LoadError) Error() string {
	if e.Sheet == "" {
		return fmt.Sprintf("load %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("load %s (sheet %q): %v", e.Path, e.Sheet, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func newLoadError(path, sheet string, err error) *LoadError {
	return &LoadError{Path: path, Sheet: sheet, Err: err}
}
