package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/leapwip/internal/cli/output"
	"github.com/leapstack-labs/leapwip/internal/pipeline"
	"github.com/spf13/cobra"
)

// LoadOptions holds options for the load command.
type LoadOptions struct {
	Watch    bool
	Debounce time.Duration
}

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	opts := &LoadOptions{}

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the WIP sheet into DuckDB",
		Long: `Load the configured workbook sheet into the DuckDB store.

The sheet is read from the header row down, date columns are parsed, and the
result replaces the configured relation in a single transaction. The row
count is verified after the load and every run is recorded in the load history.

Paths come from leapwip.yaml, LEAPWIP_* environment variables or flags.
Use --profile to pick a named source from the config file.`,
		Example: `  # Load with the configured defaults
  leapwip load

  # Load another period's sheet into its own relation
  leapwip load --sheet "WIP - P9" --relation wip_p9

  # Reload whenever the workbook is saved
  leapwip load --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoad(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Reload whenever the workbook changes")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", pipeline.DefaultDebounce, "Quiet period before a watched reload")

	return cmd
}

func runLoad(cmd *cobra.Command, opts *LoadOptions) error {
	cctx := NewCommandContext(cmd)
	ctx := cmd.Context()
	r := cctx.Renderer

	pipeOpts := pipeline.Options{Logger: cctx.Logger}

	history, err := cctx.OpenHistory()
	if err != nil {
		cctx.Logger.Warn("load history unavailable", "path", cctx.Cfg.StatePath, "error", err)
	} else {
		defer func() { _ = history.Close() }()
		pipeOpts.Recorder = history
	}

	cfg := cctx.PipelineConfig()

	if !opts.Watch {
		res, err := pipeline.Run(ctx, cfg, pipeOpts)
		if err != nil {
			return err
		}
		return renderLoad(r, res)
	}

	if r.EffectiveMode() != output.ModeJSON {
		r.Muted(fmt.Sprintf("Watching %s (Ctrl+C to stop)", cfg.Workbook))
	}
	return pipeline.Watch(ctx, cfg, pipeline.WatchOptions{Options: pipeOpts, Debounce: opts.Debounce},
		func(res *pipeline.Result, err error) {
			if err != nil {
				r.Error(err.Error())
				return
			}
			_ = renderLoad(r, res)
		})
}

func renderLoad(r *output.Renderer, res *pipeline.Result) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(output.LoadOutput{
			LoadID:      res.LoadID,
			Workbook:    res.Workbook,
			Sheet:       res.Sheet,
			Store:       res.Store,
			Relation:    res.Relation,
			Rows:        res.Rows,
			Columns:     res.Columns,
			ColumnNames: res.ColumnNames,
			DateColumns: emptyIfNil(res.DateColumns),
			Verified:    true,
			DurationMS:  res.Duration.Milliseconds(),
		})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Load Complete"))
		r.Println("")
		r.Println(output.FormatKeyValue("Workbook", res.Workbook))
		r.Println(output.FormatKeyValue("Sheet", res.Sheet))
		r.Println(output.FormatKeyValue("Relation", res.Relation))
		r.Println(output.FormatKeyValue("Store", res.Store))
		r.Println(output.FormatKeyValue("Rows", output.Number(res.Rows)))
		r.Println(output.FormatKeyValue("Columns", output.Number(int64(res.Columns))))
		r.Println(output.FormatKeyValue("Date Columns", joinOrNone(res.DateColumns)))
		r.Println(output.FormatKeyValue("Duration", output.Duration(res.Duration)))
		return nil
	default:
		r.Success(fmt.Sprintf("Loaded %s rows × %s columns into %s",
			output.Number(res.Rows), output.Number(int64(res.Columns)), r.Styles().Relation.Render(res.Relation)))
		r.KeyValue("Workbook", res.Workbook)
		r.KeyValue("Sheet", res.Sheet)
		r.KeyValue("Store", res.Store)
		r.KeyValue("Date columns", joinOrNone(res.DateColumns))
		r.Muted(fmt.Sprintf("Verified COUNT(*) = %s in %s", output.Number(res.Rows), output.Duration(res.Duration)))
		return nil
	}
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func emptyIfNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
