package sheet

import (
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// cellKind is the stored type of a cell as far as typing is concerned.
type cellKind int

const (
	kindNumber cellKind = iota
	kindText
	kindBool
)

// cell is a raw cell value paired with the type the workbook stored it as.
type cell struct {
	value string
	kind  cellKind
}

func kindOf(t excelize.CellType) cellKind {
	switch t {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		return kindNumber
	case excelize.CellTypeBool:
		return kindBool
	default:
		return kindText
	}
}

// text renders the cell the way it reads in the workbook.
func (c cell) text() string {
	if c.kind != kindBool {
		return c.value
	}
	if c.value == "1" || c.value == "TRUE" {
		return "TRUE"
	}
	return "FALSE"
}

// inferColumn types a column from its cells.
// Integer if every non-empty cell is a stored integer, float if every one is a
// stored number, text otherwise. Text and boolean cells always make the column
// text, so "00123" keeps its leading zeros.
func inferColumn(name string, cells []cell) Column {
	typ := TypeInteger
	nonEmpty := 0
	for _, c := range cells {
		if c.value == "" {
			continue
		}
		nonEmpty++
		if c.kind != kindNumber {
			typ = TypeText
			break
		}
		if typ == TypeInteger {
			if _, err := strconv.ParseInt(c.value, 10, 64); err == nil {
				continue
			}
			typ = TypeFloat
		}
		if !isNumber(c.value) {
			typ = TypeText
			break
		}
	}
	if nonEmpty == 0 {
		typ = TypeText
	}

	values := make([]any, len(cells))
	for i, c := range cells {
		if c.value == "" {
			continue
		}
		switch typ {
		case TypeInteger:
			values[i], _ = strconv.ParseInt(c.value, 10, 64)
		case TypeFloat:
			values[i], _ = strconv.ParseFloat(c.value, 64)
		default:
			values[i] = c.text()
		}
	}

	return Column{Name: name, Type: typ, Values: values}
}

// isNumber reports whether s is a finite decimal number.
func isNumber(s string) bool {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false
	}
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
