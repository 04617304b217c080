// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapwip/internal/cli/output"
	fixtures "github.com/leapstack-labs/leapwip/internal/testutil"
)

// Project is a temporary leapwip project with the WIP fixture workbook.
type Project struct {
	Dir      string
	Workbook string
	Database string
	State    string
	Config   string
}

// SetupWIPProject creates a temporary project holding the fixture workbook
// and a leapwip.yaml pointing at it.
func SetupWIPProject(t *testing.T) *Project {
	t.Helper()

	tmpDir := t.TempDir()
	inDir := filepath.Join(tmpDir, "FilesIn")
	if err := os.MkdirAll(inDir, 0o750); err != nil {
		t.Fatalf("failed to create directory %s: %v", inDir, err)
	}

	p := &Project{
		Dir:      tmpDir,
		Workbook: fixtures.WriteWIPWorkbook(t, inDir),
		Database: filepath.Join(tmpDir, "wip_analysis.duckdb"),
		State:    filepath.Join(tmpDir, ".leapwip", "state.db"),
		Config:   filepath.Join(tmpDir, "leapwip.yaml"),
	}

	cfg := `workbook: FilesIn/casing.xlsx
sheet: "` + fixtures.WIPSheet + `"
header_row: 1
database: wip_analysis.duckdb
relation: wip
state_path: .leapwip/state.db
output: text
`
	if err := os.WriteFile(p.Config, []byte(cfg), 0o600); err != nil {
		t.Fatalf("failed to write leapwip.yaml: %v", err)
	}

	return p
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererText creates a new test renderer in text mode (simulated TTY).
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// Reset clears both output buffers.
func (tr *TestRenderer) Reset() {
	tr.Out.Reset()
	tr.ErrOut.Reset()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
