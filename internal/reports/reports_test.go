package reports

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapwip/internal/adapter"
	"github.com/leapstack-labs/leapwip/internal/pipeline"
	"github.com/leapstack-labs/leapwip/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	names := Names()
	assert.Equal(t, order, names)

	for _, r := range List() {
		assert.NotEmpty(t, r.Title, r.Name)
		assert.NotEqual(t, r.Name, r.Title, "%s should declare a title", r.Name)
		assert.NotEmpty(t, r.Description, r.Name)
		assert.Contains(t, r.query, Placeholder, r.Name)
		assert.NotContains(t, r.query, "-- title", r.Name)
	}
}

func TestGet(t *testing.T) {
	r, err := Get("at-risk")
	require.NoError(t, err)
	assert.Equal(t, "At-Risk Contracts", r.Title)

	_, err = Get("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "portfolio-health")
}

func TestReportSQL(t *testing.T) {
	r, err := Get("period")
	require.NoError(t, err)

	sql := r.SQL(`wip "p10"`)
	assert.Contains(t, sql, `FROM "wip ""p10"""`)
	assert.NotContains(t, sql, Placeholder)
}

func TestParse(t *testing.T) {
	r := parse("x", "-- title: X Report\n-- description: does x\n-- note without colon\nSELECT 1\n-- trailing comment\n")
	assert.Equal(t, "X Report", r.Title)
	assert.Equal(t, "does x", r.Description)
	assert.Equal(t, "SELECT 1\n-- trailing comment", r.query)
}

// Every report must run against a relation shaped like the real sheet.
func TestReportsExecute(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := pipeline.Config{
		Workbook:    testutil.WriteWIPWorkbook(t, dir),
		Sheet:       testutil.WIPSheet,
		HeaderRow:   1,
		DateColumns: []string{"WIPMth", "Start Month"},
		Store:       filepath.Join(dir, "wip.duckdb"),
		Relation:    "wip p10",
	}
	_, err := pipeline.Run(ctx, cfg, pipeline.Options{})
	require.NoError(t, err)

	store, err := adapter.Open(ctx, adapter.Config{Path: cfg.Store, ReadOnly: true}, nil)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	for _, r := range List() {
		t.Run(r.Name, func(t *testing.T) {
			res, err := store.Query(ctx, r.SQL(cfg.Relation))
			require.NoError(t, err)
			assert.NotEmpty(t, res.Columns)
			t.Logf("%s: %d rows", r.Name, len(res.Rows))
		})
	}
}
