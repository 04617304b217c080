package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/leapwip/internal/adapter"
	"github.com/leapstack-labs/leapwip/internal/cli/output"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// quotingHint follows every query error: most mistakes are unquoted column names.
const quotingHint = `Tip: use double quotes for column names with spaces or symbols, e.g. SELECT "Revenue To Date" FROM `

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Input  string
	Save   string
}

// querier is the part of the store the query runner needs.
type querier interface {
	Query(ctx context.Context, sqlStr string, args ...any) (*adapter.Result, error)
}

// queryRunner executes SQL against the store and renders the results.
type queryRunner struct {
	store    querier
	out      io.Writer
	errOut   io.Writer
	format   string
	relation string
	last     *adapter.Result
}

// run executes sqlText, renders the result and remembers it for .save.
func (q *queryRunner) run(ctx context.Context, sqlText string) error {
	sqlText = cleanSQL(sqlText)
	if sqlText == "" {
		return fmt.Errorf("empty query")
	}

	rs, err := q.store.Query(ctx, sqlText)
	if err != nil {
		return err
	}
	q.last = rs
	return renderResults(q.out, rs, q.format)
}

// cleanSQL drops surrounding space and one trailing semicolon.
func cleanSQL(sqlText string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(sqlText), ";"))
}

// reportError prints err with the quoting hint.
func (q *queryRunner) reportError(err error) {
	_, _ = fmt.Fprintf(q.errOut, "Error: %v\n", err)
	if errors.Is(err, adapter.ErrQuerySyntax) {
		_, _ = fmt.Fprintln(q.errOut, quotingHint+relationRef(q.relation))
	}
}

// relationRef returns name as it should appear in SQL.
func relationRef(name string) string {
	for i, r := range name {
		isLetter := r == '_' || (r >= 'a' && r <= 'z')
		isDigit := r >= '0' && r <= '9'
		if !isLetter && !(isDigit && i > 0) {
			return adapter.QuoteIdentifier(name)
		}
	}
	if name == "" {
		return `""`
	}
	return name
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Query the WIP relation",
		Long: `Run SQL against the loaded WIP data.

The store is opened read-only, so queries can run while nothing else holds
a write lock. SQL comes from the arguments, --input, or piped stdin; with none
of those on a terminal, an interactive prompt starts.

Column names with spaces or symbols must be double-quoted:
  SELECT "Customer Name", "Revenue To Date" FROM wip`,
		Example: `  # Execute SQL directly
  leapwip query 'SELECT Region, COUNT(*) FROM wip GROUP BY Region'

  # Save the result as CSV
  leapwip query 'SELECT * FROM wip WHERE "Gross Profit %" < 0' --save losses.csv

  # Output as JSON
  leapwip query "SELECT * FROM wip LIMIT 5" --format json

  # List relations and show the schema
  leapwip query tables
  leapwip query schema

  # Interactive mode
  leapwip query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")
	cmd.Flags().StringVarP(&opts.Save, "save", "s", "", "Also write the result to this CSV file")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "csv", "md"}, cobra.ShellCompDirectiveNoFileComp
	})

	cmd.AddCommand(newQueryTablesCommand(opts))
	cmd.AddCommand(newQuerySchemaCommand(opts))

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cctx := NewCommandContext(cmd)
	ctx := cmd.Context()

	var sqlQuery string
	interactive := false

	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !isTerminalReader(cmd.InOrStdin()):
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		interactive = true
	}

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

	if interactive {
		return runQueryREPL(cmd, cctx, store, q)
	}

	if err := q.run(ctx, sqlQuery); err != nil {
		if errors.Is(err, adapter.ErrQuerySyntax) {
			_, _ = fmt.Fprintln(q.errOut, quotingHint+relationRef(q.relation))
		}
		return err
	}

	if opts.Save != "" {
		path, err := saveCSV(opts.Save, q.last)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(q.errOut, "Saved %s rows to %s\n", output.Number(int64(len(q.last.Rows))), path)
	}
	return nil
}

// newQueryTablesCommand creates the tables subcommand.
func newQueryTablesCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List relations in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cctx := NewCommandContext(cmd)
			store, err := cctx.OpenStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			return listTables(cmd.Context(), cmd.OutOrStdout(), store, opts.Format)
		},
	}
}

// newQuerySchemaCommand creates the schema subcommand.
func newQuerySchemaCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema [relation]",
		Short: "Show the columns of a relation (default: the configured one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cctx := NewCommandContext(cmd)
			name := cctx.Cfg.Relation
			if len(args) == 1 {
				name = args[0]
			}

			store, err := cctx.OpenStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			return showSchema(cmd.Context(), cmd.OutOrStdout(), store, name, opts.Format)
		},
	}
}

// catalog is what the tables and schema listings need from the store.
type catalog interface {
	ListRelations(ctx context.Context) ([]string, error)
	CountRows(ctx context.Context, name string) (int64, error)
	GetTableMetadata(ctx context.Context, name string) (*adapter.Metadata, error)
}

func listTables(ctx context.Context, w io.Writer, store catalog, format string) error {
	names, err := store.ListRelations(ctx)
	if err != nil {
		return err
	}

	rs := &adapter.Result{Columns: []string{"relation", "rows"}}
	for _, name := range names {
		n, err := store.CountRows(ctx, name)
		if err != nil {
			return err
		}
		rs.Rows = append(rs.Rows, []any{name, n})
	}
	return renderResults(w, rs, format)
}

func showSchema(ctx context.Context, w io.Writer, store catalog, name, format string) error {
	meta, err := store.GetTableMetadata(ctx, name)
	if err != nil {
		return err
	}

	rs := &adapter.Result{Columns: []string{"column", "type", "nullable"}}
	for _, c := range meta.Columns {
		nullable := "YES"
		if !c.Nullable {
			nullable = "NO"
		}
		rs.Rows = append(rs.Rows, []any{c.Name, c.Type, nullable})
	}

	if format == "table" || format == "" {
		_, _ = fmt.Fprintf(w, "Relation: %s (%s rows, %d columns)\n",
			meta.Name, output.Number(meta.RowCount), len(meta.Columns))
	}
	return renderResults(w, rs, format)
}

func isTerminalReader(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}
