package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/leapstack-labs/leapwip/internal/sheet"
)

var outputFormats = []string{"auto", "text", "markdown", "json"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Relation == "" {
		return fmt.Errorf("relation is required")
	}
	if c.Sheet == "" {
		return fmt.Errorf("sheet is required")
	}
	if c.HeaderRow < 0 {
		return fmt.Errorf("header_row must be non-negative, got %d", c.HeaderRow)
	}
	if _, err := sheet.ParseDuplicatePolicy(c.DuplicateHeaders); err != nil {
		return err
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	valid := false
	for _, f := range outputFormats {
		if c.OutputFormat == f {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid output format %q (expected %s)", c.OutputFormat, strings.Join(outputFormats, "|"))
	}
	return nil
}

// ValidateWorkbook checks that the configured workbook exists.
func (c *Config) ValidateWorkbook() error {
	if _, err := os.Stat(c.Workbook); os.IsNotExist(err) {
		return fmt.Errorf("workbook does not exist: %s\nHint: set workbook in %s or pass --workbook", c.Workbook, FileName)
	}
	return nil
}

// ParseLogLevel maps a level name to a slog level. Empty means warn.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q (expected debug|info|warn|error)", s)
	}
}

// DuplicatePolicy returns the parsed duplicate header policy.
func (c *Config) DuplicatePolicy() sheet.DuplicatePolicy {
	p, err := sheet.ParseDuplicatePolicy(c.DuplicateHeaders)
	if err != nil {
		return sheet.DuplicateSuffix
	}
	return p
}
