package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapwip/internal/cli/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const configHeader = `# leapwip configuration
#
# Relative paths resolve against this file's directory.
# Every key can be overridden with a LEAPWIP_* environment variable
# (e.g. LEAPWIP_SHEET="WIP - P9") or the matching flag.
#
# Named profiles override the source settings:
#   profiles:
#     p9:
#       sheet: WIP - P9
#       relation: wip_p9
# and are selected with --profile p9.

`

const gitignoreContent = `# leapwip
*.duckdb
*.duckdb.wal
.leapwip/
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a leapwip.yaml with the default settings",
		Long: `Initialize a leapwip project.

This creates:
  - leapwip.yaml with every setting at its default
  - FilesIn/ for the source workbook
  - .gitignore entries for the DuckDB store and load history (if no .gitignore exists)`,
		Example: `  # Initialize in current directory
  leapwip init

  # Initialize in a new directory
  leapwip init wip-analysis

  # Overwrite an existing config
  leapwip init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	r := NewCommandContext(cmd).Renderer

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", config.FileName)
	}

	content, err := defaultConfigYAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, content, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}
	r.StatusLine(config.FileName, "success", "")

	inputDir := filepath.Dir(filepath.Join(dir, config.DefaultWorkbook))
	if err := os.MkdirAll(inputDir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", inputDir, err)
	}
	r.StatusLine(filepath.Base(inputDir)+"/", "success", "")

	gitignore := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(gitignore); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(gitignore, []byte(gitignoreContent), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", gitignore, err)
		}
		r.StatusLine(".gitignore", "success", "")
	} else {
		r.StatusLine(".gitignore", "skipped", "already exists")
	}

	r.Println("")
	r.Success("leapwip project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println(fmt.Sprintf("  1. Copy the WIP workbook to %s", config.DefaultWorkbook))
	r.Println("  2. Run 'leapwip inspect' to check the sheet and header row")
	r.Println("  3. Run 'leapwip load' to build the DuckDB store")
	r.Println("  4. Run 'leapwip query' or 'leapwip report' to analyze it")

	return nil
}

// defaultConfigYAML renders the default configuration as a commented YAML file.
func defaultConfigYAML() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(configHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(config.Default()); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
