package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapwip/internal/cli/output"
	"github.com/leapstack-labs/leapwip/internal/sheet"
	"github.com/spf13/cobra"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show workbook sheets and leading rows",
		Long: `List the sheets of the configured workbook and print the first rows of
the configured sheet, numbered from 0, to find the header row.`,
		Example: `  # Preview the configured sheet
  leapwip inspect

  # Preview another sheet with more rows
  leapwip inspect --sheet "WIP - P9" --rows 15`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd, rows)
		},
	}

	cmd.Flags().IntVarP(&rows, "rows", "n", 10, "Number of rows to show")

	return cmd
}

func runInspect(cmd *cobra.Command, rows int) error {
	cctx := NewCommandContext(cmd)
	r := cctx.Renderer

	if rows <= 0 {
		return fmt.Errorf("--rows must be positive, got %d", rows)
	}
	if err := cctx.Cfg.ValidateWorkbook(); err != nil {
		return err
	}

	preview, err := sheet.Preview(cctx.Cfg.Workbook, cctx.Cfg.Sheet, rows)
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		out := output.InspectOutput{
			Workbook: cctx.Cfg.Workbook,
			Sheets:   preview.Sheets,
			Sheet:    preview.Sheet,
			Rows:     preview.Rows,
		}
		if out.Rows == nil {
			out.Rows = [][]string{}
		}
		return r.JSON(out)

	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Workbook"))
		r.Println("")
		r.Println(output.FormatKeyValue("Path", cctx.Cfg.Workbook))
		r.Println(output.FormatKeyValue("Sheets", strings.Join(preview.Sheets, ", ")))
		r.Println("")
		r.Println(output.FormatHeader(2, preview.Sheet))
		r.Println("")
		lines := make([]string, 0, len(preview.Rows))
		for i, row := range preview.Rows {
			lines = append(lines, fmt.Sprintf("%d: %s", i, strings.Join(row, " | ")))
		}
		r.Println(output.FormatCodeBlock("", strings.Join(lines, "\n")))
		return nil

	default:
		r.Header(1, "Workbook: "+cctx.Cfg.Workbook)
		r.KeyValue("Sheets", strings.Join(preview.Sheets, ", "))
		r.Println("")
		r.Header(2, fmt.Sprintf("%s (first %d rows)", preview.Sheet, rows))
		for i, row := range preview.Rows {
			r.Printf("%3d  %s\n", i, strings.Join(row, " | "))
		}
		if cctx.Cfg.HeaderRow < len(preview.Rows) {
			r.Muted(fmt.Sprintf("header_row = %d", cctx.Cfg.HeaderRow))
		}
		return nil
	}
}
