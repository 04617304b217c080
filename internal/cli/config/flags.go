package config

import "github.com/spf13/pflag"

// BindFlags registers the persistent flags that map onto config keys.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (default: ./"+FileName+")")
	fs.StringP("profile", "p", "", "Named source profile from the config file")
	fs.String("workbook", "", "Path to the .xlsx workbook")
	fs.String("sheet", "", "Sheet (tab) name to load")
	fs.Int("header-row", DefaultHeaderRow, "Zero-based index of the header row")
	fs.StringSlice("date-columns", nil, "Columns to parse as dates (comma-separated)")
	fs.String("duplicate-headers", "", "Duplicate header policy (suffix|error)")
	fs.String("database", "", "Path to the DuckDB database")
	fs.String("relation", "", "Name of the materialized relation")
	fs.String("state", "", "Path to the load history database")
	fs.BoolP("verbose", "v", false, "Verbose output")
	fs.StringP("output", "o", "", "Output format (auto|text|markdown|json)")
	fs.String("log-level", "", "Log level (debug|info|warn|error)")
}
