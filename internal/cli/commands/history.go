package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapwip/internal/cli/output"
	"github.com/leapstack-labs/leapwip/internal/state"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent loads",
		Long:  `List recorded loads, newest first, with their status and row counts.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of loads to show (0 for all)")

	return cmd
}

func runHistory(cmd *cobra.Command, limit int) error {
	cctx := NewCommandContext(cmd)
	r := cctx.Renderer

	store, err := cctx.OpenHistory()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	loads, err := store.ListLoads(cmd.Context(), limit)
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		out := output.HistoryOutput{Loads: make([]output.LoadRecord, 0, len(loads))}
		for _, l := range loads {
			out.Loads = append(out.Loads, output.LoadRecord{
				ID:          l.ID,
				Relation:    l.Relation,
				Workbook:    l.Workbook,
				Sheet:       l.Sheet,
				Status:      string(l.Status),
				Rows:        l.Rows,
				Columns:     l.Columns,
				Error:       l.Error,
				StartedAt:   l.StartedAt,
				CompletedAt: l.CompletedAt,
			})
		}
		return r.JSON(out)

	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Load History"))
		r.Println("")
		if len(loads) == 0 {
			r.Println("No loads recorded.")
			return nil
		}
		r.Println("| Started | Relation | Sheet | Status | Rows |")
		r.Println("|---|---|---|---|---|")
		for _, l := range loads {
			r.Println(fmt.Sprintf("| %s | %s | %s | %s | %s |",
				l.StartedAt.Local().Format("2006-01-02 15:04:05"), l.Relation, l.Sheet, l.Status, output.Number(l.Rows)))
		}
		return nil

	default:
		r.Header(1, "Load History")
		if len(loads) == 0 {
			r.Muted("No loads recorded. Run 'leapwip load' first.")
			return nil
		}
		for _, l := range loads {
			r.StatusLine(l.Relation, statusKind(l.Status), historyDetail(l))
		}
		return nil
	}
}

func statusKind(s state.LoadStatus) string {
	switch s {
	case state.LoadStatusSucceeded:
		return "success"
	case state.LoadStatusFailed:
		return "failed"
	default:
		return "running"
	}
}

func historyDetail(l *state.Load) string {
	detail := l.StartedAt.Local().Format("2006-01-02 15:04:05") + "  " + l.Sheet
	switch l.Status {
	case state.LoadStatusSucceeded:
		detail += fmt.Sprintf("  %s rows  %s", output.Number(l.Rows), output.Duration(l.Duration()))
	case state.LoadStatusFailed:
		detail += "  " + l.Error
	}
	return detail
}
