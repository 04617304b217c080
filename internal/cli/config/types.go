// Package config loads leapwip settings from defaults, leapwip.yaml,
// LEAPWIP_* environment variables and command-line flags.
package config

// Config holds all CLI configuration options.
type Config struct {
	Workbook         string                   `koanf:"workbook" yaml:"workbook"`
	Sheet            string                   `koanf:"sheet" yaml:"sheet"`
	HeaderRow        int                      `koanf:"header_row" yaml:"header_row"`
	DateColumns      []string                 `koanf:"date_columns" yaml:"date_columns"`
	DuplicateHeaders string                   `koanf:"duplicate_headers" yaml:"duplicate_headers"`
	Database         string                   `koanf:"database" yaml:"database"`
	Relation         string                   `koanf:"relation" yaml:"relation"`
	StatePath        string                   `koanf:"state_path" yaml:"state_path"`
	Profile          string                   `koanf:"profile" yaml:"profile,omitempty"`
	Verbose          bool                     `koanf:"verbose" yaml:"verbose,omitempty"`
	OutputFormat     string                   `koanf:"output" yaml:"output"`
	LogLevel         string                   `koanf:"log_level" yaml:"log_level"`
	Profiles         map[string]ProfileConfig `koanf:"profiles" yaml:"profiles,omitempty"`

	// ProjectRoot is the directory relative paths were resolved against.
	ProjectRoot string `koanf:"-" yaml:"-"`
}

// ProfileConfig overrides the source settings for one named workbook,
// e.g. a different period's sheet. Empty fields inherit the base config.
type ProfileConfig struct {
	Workbook    string   `koanf:"workbook" yaml:"workbook,omitempty"`
	Sheet       string   `koanf:"sheet" yaml:"sheet,omitempty"`
	HeaderRow   *int     `koanf:"header_row" yaml:"header_row,omitempty"`
	DateColumns []string `koanf:"date_columns" yaml:"date_columns,omitempty"`
	Database    string   `koanf:"database" yaml:"database,omitempty"`
	Relation    string   `koanf:"relation" yaml:"relation,omitempty"`
}

// Default configuration values.
const (
	DefaultWorkbook         = "FilesIn/casing.xlsx"
	DefaultSheet            = "WIP - P10"
	DefaultHeaderRow        = 1
	DefaultDuplicateHeaders = "suffix"
	DefaultDatabase         = "wip_analysis.duckdb"
	DefaultRelation         = "wip"
	DefaultStateFile        = ".leapwip/state.db"
	DefaultOutput           = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel         = "warn"

	// FileName is the config file looked up in the project root.
	FileName = "leapwip.yaml"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "LEAPWIP_"
	// DotEnvFile holds LEAPWIP_* overrides next to the config file.
	DotEnvFile = ".env"
)

// DefaultDateColumns are the WIP sheet's date columns.
func DefaultDateColumns() []string {
	return []string{"WIPMth", "Start Month", "MonthClosed", "Start Date"}
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Workbook:         DefaultWorkbook,
		Sheet:            DefaultSheet,
		HeaderRow:        DefaultHeaderRow,
		DateColumns:      DefaultDateColumns(),
		DuplicateHeaders: DefaultDuplicateHeaders,
		Database:         DefaultDatabase,
		Relation:         DefaultRelation,
		StatePath:        DefaultStateFile,
		OutputFormat:     DefaultOutput,
		LogLevel:         DefaultLogLevel,
	}
}
