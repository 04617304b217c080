package sheet

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// dateLayouts are the text forms accepted in date columns, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"2006/01/02",
	"02-Jan-2006",
	"2-Jan-2006",
	"Jan 2006",
	"January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01",
	"2006",
}

// dateColumn coerces every cell to a date. Cells that do not parse become nil.
// Numeric cells are Excel serials; text cells must match one of dateLayouts.
// It returns the column and the number of non-empty cells that failed to parse.
func dateColumn(name string, cells []cell, date1904 bool) (Column, int) {
	values := make([]any, len(cells))
	invalid := 0
	for i, c := range cells {
		if c.value == "" {
			continue
		}
		var (
			t  time.Time
			ok bool
		)
		switch c.kind {
		case kindNumber:
			t, ok = serialDate(c.value, date1904)
		case kindText:
			t, ok = parseDateText(c.value)
		}
		if !ok {
			invalid++
			continue
		}
		values[i] = t
	}
	return Column{Name: name, Type: TypeDate, Values: values}, invalid
}

// serialDate converts an Excel serial day number. Times are returned in UTC.
func serialDate(s string, date1904 bool) (time.Time, bool) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || serial <= 0 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// parseDateText parses s against dateLayouts in order.
func parseDateText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
