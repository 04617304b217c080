package commands

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leapwip/internal/cli/output"
	"github.com/leapstack-labs/leapwip/internal/reports"
	"github.com/spf13/cobra"
)

// ReportOptions holds options for the report command.
type ReportOptions struct {
	List   bool
	Format string
}

// NewReportCommand creates the report command.
func NewReportCommand() *cobra.Command {
	opts := &ReportOptions{}

	cmd := &cobra.Command{
		Use:   "report [name...]",
		Short: "Run canned WIP reports",
		Long: `Run the built-in analysis reports against the loaded WIP relation.

With no names, every report runs in catalog order. Use --list to see the
available reports.`,
		Example: `  # Run all reports
  leapwip report

  # Run selected reports
  leapwip report financial-summary at-risk

  # All reports as one JSON object keyed by report name
  leapwip report -f json

  # List reports
  leapwip report --list`,
		ValidArgsFunction: func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return reports.Names(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.List, "list", "l", false, "List available reports")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Result format: table, json, csv, md")

	return cmd
}

func runReport(cmd *cobra.Command, names []string, opts *ReportOptions) error {
	cctx := NewCommandContext(cmd)
	r := cctx.Renderer

	if opts.List {
		return listReports(r)
	}

	selected := reports.List()
	if len(names) > 0 {
		selected = selected[:0:0]
		for _, name := range names {
			rep, err := reports.Get(name)
			if err != nil {
				return err
			}
			selected = append(selected, rep)
		}
	}

	ctx := cmd.Context()
	store, err := cctx.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	q := &queryRunner{
		store:    store,
		out:      cmd.OutOrStdout(),
		errOut:   cmd.ErrOrStderr(),
		format:   opts.Format,
		relation: cctx.Cfg.Relation,
	}

	cctx.Logger.Debug("running reports", "count", len(selected), "relation", cctx.Cfg.Relation)

	if opts.Format == "json" {
		return q.runJSONReports(ctx, selected)
	}

	for i, rep := range selected {
		if i > 0 {
			r.Println("")
		}
		if opts.Format == "table" || opts.Format == "md" {
			r.Header(2, rep.Title)
		}
		if err := q.run(ctx, rep.SQL(cctx.Cfg.Relation)); err != nil {
			return fmt.Errorf("report %s: %w", rep.Name, err)
		}
	}
	return nil
}

// runJSONReports writes every report's rows as one JSON object keyed by report name.
func (q *queryRunner) runJSONReports(ctx context.Context, selected []*reports.Report) error {
	results := make(map[string][]map[string]any, len(selected))
	for _, rep := range selected {
		rs, err := q.store.Query(ctx, cleanSQL(rep.SQL(q.relation)))
		if err != nil {
			return fmt.Errorf("report %s: %w", rep.Name, err)
		}
		results[rep.Name] = jsonRows(rs)
	}
	return writeJSON(q.out, results)
}

func listReports(r *output.Renderer) error {
	all := reports.List()

	switch r.EffectiveMode() {
	case output.ModeJSON:
		infos := make([]output.ReportInfo, 0, len(all))
		for _, rep := range all {
			infos = append(infos, output.ReportInfo{Name: rep.Name, Title: rep.Title, Description: rep.Description})
		}
		return r.JSON(infos)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Reports"))
		r.Println("")
		for _, rep := range all {
			r.Println(fmt.Sprintf("- **%s**: %s", rep.Name, rep.Description))
		}
		return nil
	default:
		r.Header(1, "Reports")
		for _, rep := range all {
			r.KeyValue(rep.Name, rep.Description)
		}
		return nil
	}
}
