package commands

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/leapwip/internal/adapter"
	"github.com/leapstack-labs/leapwip/internal/cli/config"
	"github.com/leapstack-labs/leapwip/internal/cli/output"
	"github.com/leapstack-labs/leapwip/internal/pipeline"
	"github.com/leapstack-labs/leapwip/internal/state"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the values the root
// command stored in the command's context.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.GetConfig(ctx)
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(ctx),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// PipelineConfig maps the CLI configuration onto a load.
func (c *CommandContext) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		Workbook:         c.Cfg.Workbook,
		Sheet:            c.Cfg.Sheet,
		HeaderRow:        c.Cfg.HeaderRow,
		DateColumns:      c.Cfg.DateColumns,
		DuplicateHeaders: c.Cfg.DuplicatePolicy(),
		Store:            c.Cfg.Database,
		Relation:         c.Cfg.Relation,
	}
}

// OpenStore opens the DuckDB store read-only. Callers must Close it.
func (c *CommandContext) OpenStore(ctx context.Context) (*adapter.DuckDBAdapter, error) {
	return adapter.Open(ctx, adapter.Config{Path: c.Cfg.Database, ReadOnly: true}, c.Logger)
}

// OpenHistory opens the load history database. Callers must Close it.
func (c *CommandContext) OpenHistory() (*state.SQLiteStore, error) {
	store := state.NewSQLiteStore(c.Logger)
	if err := store.Open(c.Cfg.StatePath); err != nil {
		return nil, err
	}
	return store, nil
}
