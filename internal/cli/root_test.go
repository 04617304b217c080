package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapwip/internal/adapter"
	"github.com/leapstack-labs/leapwip/internal/cli/config"
	"github.com/leapstack-labs/leapwip/internal/cli/output"
	"github.com/leapstack-labs/leapwip/internal/cli/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command with args against the project config.
func run(t *testing.T, p *testutil.Project, args ...string) (string, string, error) {
	t.Helper()

	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	root := NewRootCmd()
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(append(args, "--config", p.Config))

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestLoadThenQuery(t *testing.T) {
	p := testutil.SetupWIPProject(t)

	stdout, _, err := run(t, p, "load", "-o", "json")
	require.NoError(t, err)

	var loaded output.LoadOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &loaded))
	assert.Equal(t, "wip", loaded.Relation)
	assert.Equal(t, "WIP - P10", loaded.Sheet)
	assert.Equal(t, int64(6), loaded.Rows)
	assert.Equal(t, 17, loaded.Columns)
	assert.True(t, loaded.Verified)
	assert.NotEmpty(t, loaded.LoadID)
	assert.Contains(t, loaded.DateColumns, "WIPMth")
	assert.FileExists(t, p.Database)

	stdout, _, err = run(t, p, "query", "--format", "csv", "SELECT COUNT(*) AS n FROM wip")
	require.NoError(t, err)
	assert.Equal(t, "n\n6\n", stdout)

	stdout, _, err = run(t, p, "query", "--format", "csv",
		`SELECT Region, SUM("Revenue To Date") AS revenue FROM wip GROUP BY Region ORDER BY Region`)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Bakken,8600000")
	assert.Contains(t, stdout, "Permian,6330000")

	stdout, _, err = run(t, p, "query", "tables", "--format", "csv")
	require.NoError(t, err)
	assert.Equal(t, "relation,rows\nwip,6\n", stdout)

	stdout, _, err = run(t, p, "query", "schema", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Revenue To Date,BIGINT")
	assert.Contains(t, stdout, "Gross Profit %,DOUBLE")
	assert.Contains(t, stdout, "WIPMth,TIMESTAMP")
}

func TestQuerySyntaxErrorShowsHint(t *testing.T) {
	p := testutil.SetupWIPProject(t)
	_, _, err := run(t, p, "load")
	require.NoError(t, err)

	_, stderr, err := run(t, p, "query", "SELECT Revenue To Date FROM wip")
	require.Error(t, err)
	assert.ErrorIs(t, err, adapter.ErrQuerySyntax)
	assert.Contains(t, stderr, `"Revenue To Date"`)
}

func TestQuerySave(t *testing.T) {
	p := testutil.SetupWIPProject(t)
	_, _, err := run(t, p, "load")
	require.NoError(t, err)

	target := filepath.Join(p.Dir, "open")
	_, stderr, err := run(t, p, "query", "--format", "json", "--save", target,
		`SELECT Contract FROM wip WHERE "Contract Status" = 'Open' ORDER BY Contract`)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Saved 3 rows")

	content, err := os.ReadFile(target + ".csv")
	require.NoError(t, err)
	assert.Equal(t, "Contract\nC-1001\nC-1002\nC-1004\n", string(content))
}

func TestQueryBeforeLoad(t *testing.T) {
	p := testutil.SetupWIPProject(t)

	_, _, err := run(t, p, "query", "SELECT 1")
	require.Error(t, err)
	assert.ErrorIs(t, err, adapter.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "leapwip load")
	assert.NoFileExists(t, p.Database)
}

func TestLoadMissingWorkbook(t *testing.T) {
	p := testutil.SetupWIPProject(t)

	_, _, err := run(t, p, "load", "--workbook", filepath.Join(p.Dir, "missing.xlsx"))
	require.Error(t, err)
	assert.NoFileExists(t, p.Database)

	stdout, _, err := run(t, p, "history", "-o", "json")
	require.NoError(t, err)

	var history output.HistoryOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &history))
	require.Len(t, history.Loads, 1)
	assert.Equal(t, "failed", history.Loads[0].Status)
	assert.NotEmpty(t, history.Loads[0].Error)
}

func TestHistoryAfterLoads(t *testing.T) {
	p := testutil.SetupWIPProject(t)

	_, _, err := run(t, p, "load")
	require.NoError(t, err)
	_, _, err = run(t, p, "load", "--relation", "wip_copy")
	require.NoError(t, err)

	stdout, _, err := run(t, p, "history", "-o", "json", "--limit", "1")
	require.NoError(t, err)

	var history output.HistoryOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &history))
	require.Len(t, history.Loads, 1)
	assert.Equal(t, "wip_copy", history.Loads[0].Relation)
	assert.Equal(t, "succeeded", history.Loads[0].Status)
	assert.Equal(t, int64(6), history.Loads[0].Rows)

	stdout, _, err = run(t, p, "history", "-o", "text")
	require.NoError(t, err)
	assert.Contains(t, stdout, "wip_copy")
	assert.Contains(t, stdout, "6 rows")
}

func TestReport(t *testing.T) {
	p := testutil.SetupWIPProject(t)
	_, _, err := run(t, p, "load")
	require.NoError(t, err)

	stdout, _, err := run(t, p, "report", "status-distribution", "--format", "csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "Contract Status,contracts,pct\n"), stdout)
	assert.Contains(t, stdout, "Open,3,")

	stdout, _, err = run(t, p, "report", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Permian")

	_, _, err = run(t, p, "report", "no-such-report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available")
}

func TestReportJSONIsOneDocument(t *testing.T) {
	p := testutil.SetupWIPProject(t)
	_, _, err := run(t, p, "load")
	require.NoError(t, err)

	stdout, _, err := run(t, p, "report", "status-distribution", "regional", "--format", "json")
	require.NoError(t, err)

	var got map[string][]map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got), stdout)
	assert.Contains(t, got, "status-distribution")
	assert.Contains(t, got, "regional")
	assert.NotEmpty(t, got["regional"])
}

func TestReportList(t *testing.T) {
	p := testutil.SetupWIPProject(t)

	stdout, _, err := run(t, p, "report", "--list", "-o", "json")
	require.NoError(t, err)

	var infos []output.ReportInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &infos))
	require.NotEmpty(t, infos)
	assert.Equal(t, "financial-summary", infos[0].Name)
	for _, info := range infos {
		assert.NotEmpty(t, info.Title, info.Name)
	}
}

func TestInspect(t *testing.T) {
	p := testutil.SetupWIPProject(t)

	stdout, _, err := run(t, p, "inspect", "-o", "json", "--rows", "3")
	require.NoError(t, err)

	var out output.InspectOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, []string{"WIP - P10", "Notes"}, out.Sheets)
	assert.Equal(t, "WIP - P10", out.Sheet)
	require.Len(t, out.Rows, 3)
	assert.Equal(t, "WIP Report - Period 10", out.Rows[0][0])
	assert.Equal(t, "Contract", out.Rows[1][0])

	stdout, _, err = run(t, p, "inspect", "-o", "markdown")
	require.NoError(t, err)
	testutil.AssertValidMarkdown(t, stdout)
	testutil.AssertNoANSI(t, stdout)
	assert.Contains(t, stdout, "1: Contract | Description")

	_, _, err = run(t, p, "inspect", "--sheet", "Nope")
	require.Error(t, err)
}

func TestInvalidConfigFails(t *testing.T) {
	p := testutil.SetupWIPProject(t)

	_, _, err := run(t, p, "load", "--header-row=-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header_row")

	_, _, err = run(t, p, "history", "--log-level", "loud")
	require.Error(t, err)
}

func TestCompletion(t *testing.T) {
	p := testutil.SetupWIPProject(t)

	stdout, _, err := run(t, p, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, stdout, "leapwip")
}
