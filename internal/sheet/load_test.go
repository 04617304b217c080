package sheet

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/leapwip/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSheet(t *testing.T, rows [][]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.xlsx")
	testutil.WriteWorkbook(t, path, "Data", rows)
	return path
}

func TestLoad_MixedColumnDegradesToText(t *testing.T) {
	path := writeSheet(t, [][]any{
		{"Quarterly WIP"},
		{"Contract", "Revenue To Date"},
		{"A1", 100},
		{"A2", "bad"},
	})

	table, err := Load(context.Background(), Options{Path: path, Sheet: "Data", HeaderRow: 1})
	require.NoError(t, err)

	assert.Equal(t, 2, table.NumRows())
	assert.Equal(t, []string{"Contract", "Revenue To Date"}, table.ColumnNames())

	rev, ok := table.Column("Revenue To Date")
	require.True(t, ok)
	assert.Equal(t, TypeText, rev.Type)
	assert.Equal(t, []any{"100", "bad"}, rev.Values)
}

func TestLoad_HeaderOrderAndNamesVerbatim(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteWIPWorkbook(t, dir)

	table, err := Load(context.Background(), Options{Path: path, Sheet: testutil.WIPSheet, HeaderRow: 1})
	require.NoError(t, err)

	require.Equal(t, len(testutil.WIPHeader), table.NumColumns())
	for i, name := range testutil.WIPHeader {
		assert.Equal(t, name, table.Columns[i].Name)
	}
	assert.Equal(t, len(testutil.WIPRows()), table.NumRows())
}

func TestLoad_InferredTypes(t *testing.T) {
	path := writeSheet(t, [][]any{
		{"id", "amount", "label", "empty", "ratio"},
		{1, 10.5, "x", nil, 0.25},
		{2, 20, "y", nil, 1},
		{3, nil, "z", nil, 0.5},
	})

	table, err := Load(context.Background(), Options{Path: path, Sheet: "Data", HeaderRow: 0})
	require.NoError(t, err)

	tests := []struct {
		column string
		typ    ColumnType
		values []any
	}{
		{"id", TypeInteger, []any{int64(1), int64(2), int64(3)}},
		{"amount", TypeFloat, []any{10.5, 20.0, nil}},
		{"label", TypeText, []any{"x", "y", "z"}},
		{"empty", TypeText, []any{nil, nil, nil}},
		{"ratio", TypeFloat, []any{0.25, 1.0, 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			col, ok := table.Column(tt.column)
			require.True(t, ok)
			assert.Equal(t, tt.typ, col.Type)
			assert.Equal(t, tt.values, col.Values)
		})
	}
}

func TestLoad_StoredTextAndBooleanCellsStayText(t *testing.T) {
	path := writeSheet(t, [][]any{
		{"Job No", "Flag", "Amount"},
		{"00123", true, 5},
		{"00456", false, 7},
	})

	table, err := Load(context.Background(), Options{Path: path, Sheet: "Data"})
	require.NoError(t, err)

	tests := []struct {
		column string
		typ    ColumnType
		values []any
	}{
		{"Job No", TypeText, []any{"00123", "00456"}},
		{"Flag", TypeText, []any{"TRUE", "FALSE"}},
		{"Amount", TypeInteger, []any{int64(5), int64(7)}},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			col, ok := table.Column(tt.column)
			require.True(t, ok)
			assert.Equal(t, tt.typ, col.Type)
			assert.Equal(t, tt.values, col.Values)
		})
	}
}

func TestLoad_DateColumnTextYearIsNotSerial(t *testing.T) {
	path := writeSheet(t, [][]any{
		{"Contract", "Start Month"},
		{"A1", "2024"},
		{"A2", 45322},
	})

	table, err := Load(context.Background(), Options{Path: path, Sheet: "Data", DateColumns: []string{"Start Month"}})
	require.NoError(t, err)

	col, ok := table.Column("Start Month")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), col.Values[0])
	require.IsType(t, time.Time{}, col.Values[1])
	assert.Equal(t, "2024-01-31", col.Values[1].(time.Time).Format("2006-01-02"))
}

func TestLoad_DateColumnMixedValidAndInvalid(t *testing.T) {
	march := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	path := writeSheet(t, [][]any{
		{"Contract", "WIPMth"},
		{"A1", march},
		{"A2", "2024-01-31"},
		{"A3", "garbage"},
		{"A4", nil},
		{"A5", "02/29/2024"},
	})

	table, err := Load(context.Background(), Options{
		Path:        path,
		Sheet:       "Data",
		DateColumns: []string{"WIPMth", "Not Present"},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, table.NumRows())

	col, ok := table.Column("WIPMth")
	require.True(t, ok)
	assert.Equal(t, TypeDate, col.Type)

	require.IsType(t, time.Time{}, col.Values[0])
	assert.Equal(t, "2024-03-15", col.Values[0].(time.Time).Format("2006-01-02"))
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), col.Values[1])
	assert.Nil(t, col.Values[2])
	assert.Nil(t, col.Values[3])
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), col.Values[4])
}

func TestLoad_DateColumnMatchIsExact(t *testing.T) {
	path := writeSheet(t, [][]any{
		{"wipmth"},
		{"2024-01-31"},
	})

	table, err := Load(context.Background(), Options{Path: path, Sheet: "Data", DateColumns: []string{"WIPMth"}})
	require.NoError(t, err)
	assert.Equal(t, TypeText, table.Columns[0].Type)
}

func TestLoad_SkipsBlankRowsAndPadsShortRows(t *testing.T) {
	path := writeSheet(t, [][]any{
		{"a", "b", "c"},
		{1, 2, 3},
		{},
		{4},
	})

	table, err := Load(context.Background(), Options{Path: path, Sheet: "Data"})
	require.NoError(t, err)
	assert.Equal(t, 2, table.NumRows())
	assert.Equal(t, []any{int64(4), nil, nil}, table.Row(1))
}

func TestLoad_BlankAndExtraHeaderCells(t *testing.T) {
	path := writeSheet(t, [][]any{
		{"a", nil, "c"},
		{1, 2, 3, 4},
	})

	table, err := Load(context.Background(), Options{Path: path, Sheet: "Data"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "Unnamed: 1", "c", "Unnamed: 3"}, table.ColumnNames())
}

func TestLoad_DuplicateHeaders(t *testing.T) {
	rows := [][]any{
		{"Region", "Revenue", "region", "Revenue", "Revenue.1"},
		{"x", 1, "y", 2, 3},
	}

	t.Run("suffix policy renames later occurrences", func(t *testing.T) {
		path := writeSheet(t, rows)
		table, err := Load(context.Background(), Options{Path: path, Sheet: "Data"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Region", "Revenue", "region.1", "Revenue.1", "Revenue.1.1"}, table.ColumnNames())
	})

	t.Run("error policy fails", func(t *testing.T) {
		path := writeSheet(t, rows)
		_, err := Load(context.Background(), Options{Path: path, Sheet: "Data", DuplicateHeaders: DuplicateError})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAmbiguousColumnName)
	})
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	good := testutil.WriteWIPWorkbook(t, dir)

	notXLSX := filepath.Join(dir, "notes.xlsx")
	require.NoError(t, os.WriteFile(notXLSX, []byte("plain text"), 0o600))

	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{"missing workbook", Options{Path: filepath.Join(dir, "missing.xlsx"), Sheet: testutil.WIPSheet}, ErrSourceNotFound},
		{"missing sheet", Options{Path: good, Sheet: "WIP - P11"}, ErrSheetNotFound},
		{"not a workbook", Options{Path: notXLSX, Sheet: "Data"}, ErrInvalidWorkbook},
		{"header past end", Options{Path: good, Sheet: testutil.WIPSheet, HeaderRow: 500}, ErrHeaderRowOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), tt.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var loadErr *LoadError
			assert.ErrorAs(t, err, &loadErr)
		})
	}
}

func TestLoad_SheetNotFoundListsAvailableSheets(t *testing.T) {
	path := testutil.WriteWIPWorkbook(t, t.TempDir())

	_, err := Load(context.Background(), Options{Path: path, Sheet: "Summary"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), testutil.WIPSheet)
	assert.Contains(t, err.Error(), "Notes")
}

func TestLoad_NegativeHeaderRow(t *testing.T) {
	path := testutil.WriteWIPWorkbook(t, t.TempDir())
	_, err := Load(context.Background(), Options{Path: path, Sheet: testutil.WIPSheet, HeaderRow: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-negative")
}

func TestLoad_CancelledContext(t *testing.T) {
	path := testutil.WriteWIPWorkbook(t, t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, Options{Path: path, Sheet: testutil.WIPSheet, HeaderRow: 1})
	assert.ErrorIs(t, err, context.Canceled)
}
