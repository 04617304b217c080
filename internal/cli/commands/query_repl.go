package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/leapwip/internal/adapter"
	"github.com/leapstack-labs/leapwip/internal/cli/output"
	"github.com/leapstack-labs/leapwip/internal/reports"
	"github.com/spf13/cobra"
)

const (
	replPrompt     = "wip> "
	replContPrompt = " ...> "
)

// lineReader is the part of *readline.Instance the REPL loop uses.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// repl is an interactive query session.
type repl struct {
	q     *queryRunner
	store catalog
}

func runQueryREPL(cmd *cobra.Command, cctx *CommandContext, store *adapter.DuckDBAdapter, q *queryRunner) error {
	ctx := cmd.Context()

	// Project-local history next to the load history database
	historyFile := filepath.Join(filepath.Dir(cctx.Cfg.StatePath), "query_history")
	if err := os.MkdirAll(filepath.Dir(historyFile), 0o750); err != nil {
		cctx.Logger.Warn("query history disabled", "path", historyFile, "error", err)
		historyFile = ""
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newRelationCompleter(ctx, store),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "WIP query prompt (store: %s, relation: %s)\n", store.Path(), relationRef(cctx.Cfg.Relation))
	_, _ = fmt.Fprintln(w, "End statements with ; or a blank line. Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(w)

	session := &repl{q: q, store: store}
	return session.loop(ctx, rl)
}

// loop reads lines until EOF or a quit command. Query errors are reported
// and the session continues.
func (s *repl) loop(ctx context.Context, rl lineReader) error {
	var buf strings.Builder

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}

		line = strings.TrimSpace(line)

		if buf.Len() == 0 {
			if line == "" {
				continue
			}
			if quit, handled := s.command(ctx, line); handled {
				if quit {
					return nil
				}
				continue
			}
		}

		// Accumulate multi-line SQL until a semicolon or a blank line
		if line != "" {
			buf.WriteString(line)
			if !strings.HasSuffix(line, ";") {
				buf.WriteString("\n")
				rl.SetPrompt(replContPrompt)
				continue
			}
		}
		rl.SetPrompt(replPrompt)

		query := buf.String()
		buf.Reset()

		if err := s.q.run(ctx, query); err != nil {
			s.q.reportError(err)
		}
		_, _ = fmt.Fprintln(s.q.out)
	}
}

// command handles dot-commands and the bare keywords. It reports whether the
// line was a command and whether the session should end.
func (s *repl) command(ctx context.Context, line string) (quit, handled bool) {
	parts := strings.Fields(line)
	name := strings.ToLower(parts[0])
	w, errW := s.q.out, s.q.errOut

	// Bare keywords work without the leading dot.
	switch name {
	case "quit", "exit", "q":
		return true, true
	case "help":
		name = ".help"
	case "schema":
		name = ".schema"
	case "examples":
		name = ".examples"
	}

	if !strings.HasPrefix(name, ".") {
		return false, false
	}

	switch name {
	case ".quit", ".exit":
		return true, true

	case ".help":
		printREPLHelp(w)

	case ".tables":
		if err := listTables(ctx, w, s.store, s.q.format); err != nil {
			_, _ = fmt.Fprintf(errW, "Error: %v\n", err)
		}

	case ".schema":
		target := s.q.relation
		if len(parts) > 1 {
			target = strings.Join(parts[1:], " ")
		}
		if err := showSchema(ctx, w, s.store, target, s.q.format); err != nil {
			_, _ = fmt.Fprintf(errW, "Error: %v\n", err)
		}

	case ".examples":
		printExamples(w, s.q.relation)

	case ".reports":
		for _, r := range reports.List() {
			_, _ = fmt.Fprintf(w, "  %-20s %s\n", r.Name, r.Title)
		}

	case ".report":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(errW, "Usage: .report <name> (see .reports)")
			break
		}
		rep, err := reports.Get(parts[1])
		if err != nil {
			_, _ = fmt.Fprintf(errW, "Error: %v\n", err)
			break
		}
		_, _ = fmt.Fprintln(w, rep.Title)
		if err := s.q.run(ctx, rep.SQL(s.q.relation)); err != nil {
			s.q.reportError(err)
		}

	case ".save":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(errW, "Usage: .save <file.csv>")
			break
		}
		if s.q.last == nil {
			_, _ = fmt.Fprintln(errW, "Nothing to save: run a query first")
			break
		}
		path, err := saveCSV(strings.Join(parts[1:], " "), s.q.last)
		if err != nil {
			_, _ = fmt.Fprintf(errW, "Error: %v\n", err)
			break
		}
		_, _ = fmt.Fprintf(w, "Saved %s rows to %s\n", output.Number(int64(len(s.q.last.Rows))), path)

	case ".clear":
		_, _ = fmt.Fprint(w, "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(errW, "Unknown command: %s (type .help for commands)\n", parts[0])
	}
	return false, true
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help            Show this help message
  .tables          List relations with row counts
  .schema [name]   Show columns of a relation (default: the loaded one)
  .examples        Show example queries
  .reports         List canned reports
  .report <name>   Run a canned report
  .save <file>     Save the last result as CSV
  .clear           Clear the screen
  .quit / .exit    Exit (also: quit, exit, q)

Tips:
  - End SQL with a semicolon (;) or a blank line
  - Double-quote column names with spaces: "Revenue To Date"
  - Use arrow keys to navigate history; Tab completes names
`
	_, _ = fmt.Fprintln(w, help)
}

type example struct {
	title string
	sql   string
}

func examples(relation string) []example {
	rel := relationRef(relation)
	return []example{
		{"Top contracts by revenue",
			`SELECT Contract, "Customer Name", "Revenue To Date" FROM ` + rel + ` ORDER BY "Revenue To Date" DESC LIMIT 10;`},
		{"Contracts by region and status",
			`SELECT Region, "Contract Status", COUNT(*) FROM ` + rel + ` GROUP BY Region, "Contract Status";`},
		{"Average margin by service type",
			`SELECT ServiceType, AVG("Gross Profit %") * 100 AS avg_margin FROM ` + rel + ` GROUP BY ServiceType;`},
		{"Open contracts over 90% complete",
			`SELECT Contract, "% Complete" FROM ` + rel + ` WHERE "Contract Status" = 'Open' AND "% Complete" > 0.9;`},
	}
}

func printExamples(w io.Writer, relation string) {
	for i, ex := range examples(relation) {
		_, _ = fmt.Fprintf(w, "%d. %s:\n   %s\n\n", i+1, ex.title, ex.sql)
	}
}

// newRelationCompleter completes dot-commands, relation names and report names.
func newRelationCompleter(ctx context.Context, store catalog) *readline.PrefixCompleter {
	var relations []readline.PrefixCompleterInterface
	if names, err := store.ListRelations(ctx); err == nil {
		for _, name := range names {
			relations = append(relations, readline.PcItem(name))
		}
	}

	var reportItems []readline.PrefixCompleterInterface
	for _, name := range reports.Names() {
		reportItems = append(reportItems, readline.PcItem(name))
	}

	items := append([]readline.PrefixCompleterInterface{}, relations...)
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema", relations...),
		readline.PcItem(".examples"),
		readline.PcItem(".reports"),
		readline.PcItem(".report", reportItems...),
		readline.PcItem(".save"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
