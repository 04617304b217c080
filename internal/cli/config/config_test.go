package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapwip/internal/sheet"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.Workbook))
	assert.Equal(t, filepath.Join("FilesIn", "casing.xlsx"), filepath.Join(filepath.Base(filepath.Dir(cfg.Workbook)), filepath.Base(cfg.Workbook)))
	assert.Equal(t, DefaultSheet, cfg.Sheet)
	assert.Equal(t, 1, cfg.HeaderRow)
	assert.Equal(t, DefaultDateColumns(), cfg.DateColumns)
	assert.Equal(t, DefaultRelation, cfg.Relation)
	assert.Equal(t, DefaultDatabase, filepath.Base(cfg.Database))
	assert.Equal(t, "state.db", filepath.Base(cfg.StatePath))
	assert.Equal(t, "auto", cfg.OutputFormat)
	assert.Equal(t, sheet.DuplicateSuffix, cfg.DuplicatePolicy())
	assert.Empty(t, GetConfigFileUsed())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, `workbook: data/p9.xlsx
sheet: WIP - P9
header_row: 2
date_columns:
  - WIPMth
  - MonthClosed
relation: wip_p9
`)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, cfgPath, GetConfigFileUsed())
	assert.Equal(t, filepath.Join(dir, "data", "p9.xlsx"), cfg.Workbook)
	assert.Equal(t, "WIP - P9", cfg.Sheet)
	assert.Equal(t, 2, cfg.HeaderRow)
	assert.Equal(t, []string{"WIPMth", "MonthClosed"}, cfg.DateColumns)
	assert.Equal(t, "wip_p9", cfg.Relation)
	assert.Equal(t, dir, cfg.ProjectRoot)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

// TestLoadConfig_Precedence tests flags > env > file.
func TestLoadConfig_Precedence(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		flags []string
		want  string
	}{
		{name: "file only", want: "from_file"},
		{name: "env over file", env: "from_env", want: "from_env"},
		{name: "flag over env", env: "from_env", flags: []string{"--sheet", "from_flag"}, want: "from_flag"},
		{name: "unset flag falls back to env", env: "from_env", flags: []string{}, want: "from_env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			cfgPath := writeConfig(t, t.TempDir(), "sheet: from_file\n")
			if tt.env != "" {
				t.Setenv("LEAPWIP_SHEET", tt.env)
			}

			var flags *pflag.FlagSet
			if tt.flags != nil {
				flags = newFlags(t, tt.flags...)
			}

			cfg, err := LoadConfig(cfgPath, flags)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Sheet)
		})
	}
}

func TestLoadConfig_DotEnv(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "sheet: from_file\nrelation: from_file\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, DotEnvFile), []byte(
		"# local overrides\nLEAPWIP_SHEET=\"WIP - P9\"\nLEAPWIP_RELATION=from_dotenv\nOTHER_SETTING=ignored\n"), 0o600))
	t.Setenv("LEAPWIP_RELATION", "from_env")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "WIP - P9", cfg.Sheet)
	assert.Equal(t, "from_env", cfg.Relation)
}

func TestLoadConfig_EnvDateColumns(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())
	t.Setenv("LEAPWIP_DATE_COLUMNS", "WIPMth, Start Month ,,MonthClosed")
	t.Setenv("LEAPWIP_HEADER_ROW", "3")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"WIPMth", "Start Month", "MonthClosed"}, cfg.DateColumns)
	assert.Equal(t, 3, cfg.HeaderRow)
}

func TestLoadConfig_FlagPathsRelativeToCWD(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	cfgPath := writeConfig(t, root, "database: from_file.duckdb\n")

	cwd := t.TempDir()
	t.Chdir(cwd)

	cfg, err := LoadConfig(cfgPath, newFlags(t, "--workbook", "book.xlsx"))
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "book.xlsx"), cfg.Workbook)
	assert.Equal(t, filepath.Join(root, "from_file.duckdb"), cfg.Database)
}

func TestLoadConfig_MemoryDatabase(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", newFlags(t, "--database", ":memory:"))
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.Database)
}

func TestLoadConfig_UpwardSearch(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	writeConfig(t, root, "relation: from_root\n")

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "from_root", cfg.Relation)

	resolvedRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	resolvedProject, err := filepath.EvalSymlinks(cfg.ProjectRoot)
	require.NoError(t, err)
	assert.Equal(t, resolvedRoot, resolvedProject)
}

const profilesYAML = `sheet: WIP - P10
relation: wip
profiles:
  p9:
    sheet: WIP - P9
    relation: wip_p9
    header_row: 2
  casing:
    workbook: FilesIn/other.xlsx
`

func TestLoadConfig_Profile(t *testing.T) {
	t.Run("flag selects profile", func(t *testing.T) {
		ResetConfig()
		cfgPath := writeConfig(t, t.TempDir(), profilesYAML)

		cfg, err := LoadConfig(cfgPath, newFlags(t, "--profile", "p9"))
		require.NoError(t, err)
		assert.Equal(t, "p9", cfg.Profile)
		assert.Equal(t, "WIP - P9", cfg.Sheet)
		assert.Equal(t, "wip_p9", cfg.Relation)
		assert.Equal(t, 2, cfg.HeaderRow)
		require.Contains(t, cfg.Profiles, "casing")
	})

	t.Run("env overrides profile", func(t *testing.T) {
		ResetConfig()
		cfgPath := writeConfig(t, t.TempDir(), profilesYAML)
		t.Setenv("LEAPWIP_PROFILE", "p9")
		t.Setenv("LEAPWIP_RELATION", "from_env")

		cfg, err := LoadConfig(cfgPath, nil)
		require.NoError(t, err)
		assert.Equal(t, "WIP - P9", cfg.Sheet)
		assert.Equal(t, "from_env", cfg.Relation)
	})

	t.Run("no profile keeps base", func(t *testing.T) {
		ResetConfig()
		cfgPath := writeConfig(t, t.TempDir(), profilesYAML)

		cfg, err := LoadConfig(cfgPath, nil)
		require.NoError(t, err)
		assert.Equal(t, "WIP - P10", cfg.Sheet)
		assert.Equal(t, "wip", cfg.Relation)
	})

	t.Run("unknown profile", func(t *testing.T) {
		ResetConfig()
		cfgPath := writeConfig(t, t.TempDir(), profilesYAML)

		_, err := LoadConfig(cfgPath, newFlags(t, "--profile", "p8"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "casing, p9")
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty relation", func(c *Config) { c.Relation = "" }, "relation is required"},
		{"empty sheet", func(c *Config) { c.Sheet = "" }, "sheet is required"},
		{"negative header", func(c *Config) { c.HeaderRow = -1 }, "header_row"},
		{"bad policy", func(c *Config) { c.DuplicateHeaders = "merge" }, "duplicate header policy"},
		{"bad output", func(c *Config) { c.OutputFormat = "xml" }, "invalid output format"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_ValidateWorkbook(t *testing.T) {
	cfg := Default()
	cfg.Workbook = filepath.Join(t.TempDir(), "missing.xlsx")
	err := cfg.ValidateWorkbook()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--workbook")
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelWarn,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	l := slog.New(slog.DiscardHandler)
	ctx := context.WithValue(context.Background(), LoggerKey(), l)
	assert.Same(t, l, GetLogger(ctx))
}
