// Package pipeline runs the workbook load end to end: read the sheet,
// materialize it as a DuckDB relation, verify the row count and record the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapwip/internal/adapter"
	"github.com/leapstack-labs/leapwip/internal/sheet"
	"github.com/leapstack-labs/leapwip/internal/state"
)

// ErrVerification is returned when the materialized relation's row count
// disagrees with the number of rows the loader produced.
var ErrVerification = errors.New("row count verification failed")

// Config holds every input of a load. Nothing is read from globals.
type Config struct {
	Workbook         string
	Sheet            string
	HeaderRow        int
	DateColumns      []string
	DuplicateHeaders sheet.DuplicatePolicy
	Store            string
	Relation         string
}

// Validate reports missing required settings.
func (c Config) Validate() error {
	switch {
	case c.Workbook == "":
		return errors.New("workbook path is required")
	case c.Sheet == "":
		return errors.New("sheet name is required")
	case c.Store == "":
		return errors.New("store path is required")
	case c.Relation == "":
		return errors.New("relation name is required")
	case c.HeaderRow < 0:
		return fmt.Errorf("header row must be non-negative, got %d", c.HeaderRow)
	}
	return nil
}

// Recorder persists load history. *state.SQLiteStore implements it.
type Recorder interface {
	StartLoad(ctx context.Context, l *state.Load) error
	CompleteLoad(ctx context.Context, id string, out state.LoadOutcome) error
}

// Options are the collaborators of a run.
type Options struct {
	Logger   *slog.Logger
	Recorder Recorder
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// Result describes a successful load.
type Result struct {
	LoadID      string
	Workbook    string
	Sheet       string
	Store       string
	Relation    string
	Rows        int64
	Columns     int
	ColumnNames []string
	DateColumns []string
	Duration    time.Duration
}

// Run loads cfg.Sheet from cfg.Workbook and replaces cfg.Relation in cfg.Store.
// The workbook is read before the store is opened, so a bad source never
// touches an existing store file.
func Run(ctx context.Context, cfg Config, opts Options) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.logger()
	start := time.Now()

	loadID := ""
	if opts.Recorder != nil {
		rec := &state.Load{
			Relation:  cfg.Relation,
			Workbook:  cfg.Workbook,
			Sheet:     cfg.Sheet,
			HeaderRow: cfg.HeaderRow,
			Store:     cfg.Store,
		}
		if err := opts.Recorder.StartLoad(ctx, rec); err != nil {
			// History failures never block a load.
			logger.Warn("failed to record load start", "error", err)
		} else {
			loadID = rec.ID
		}
	}

	res, err := run(ctx, cfg, logger)
	if res != nil {
		res.LoadID = loadID
		res.Duration = time.Since(start)
	}

	if loadID != "" {
		out := state.LoadOutcome{Status: state.LoadStatusSucceeded}
		if res != nil {
			out.Rows = res.Rows
			out.Columns = res.Columns
		}
		if err != nil {
			out.Status = state.LoadStatusFailed
			out.Error = err.Error()
		}
		// Record completion even if ctx was cancelled mid-load.
		if recErr := opts.Recorder.CompleteLoad(context.WithoutCancel(ctx), loadID, out); recErr != nil {
			logger.Warn("failed to record load outcome", "id", loadID, "error", recErr)
		}
	}

	if err != nil {
		return nil, err
	}
	return res, nil
}

func run(ctx context.Context, cfg Config, logger *slog.Logger) (*Result, error) {
	table, err := sheet.Load(ctx, sheet.Options{
		Path:             cfg.Workbook,
		Sheet:            cfg.Sheet,
		HeaderRow:        cfg.HeaderRow,
		DateColumns:      cfg.DateColumns,
		DuplicateHeaders: cfg.DuplicateHeaders,
		Logger:           logger,
	})
	if err != nil {
		return nil, err
	}

	store, err := adapter.Open(ctx, adapter.Config{Path: cfg.Store}, logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	inserted, err := store.Materialize(ctx, cfg.Relation, table)
	if err != nil {
		return nil, err
	}

	count, err := store.CountRows(ctx, cfg.Relation)
	if err != nil {
		return nil, fmt.Errorf("failed to verify relation %s: %w", cfg.Relation, err)
	}
	if count != int64(table.NumRows()) || count != inserted {
		return nil, fmt.Errorf("%w: relation %s has %d rows, loader produced %d",
			ErrVerification, cfg.Relation, count, table.NumRows())
	}

	logger.Info("workbook loaded",
		"relation", cfg.Relation,
		"rows", count,
		"columns", table.NumColumns(),
	)

	return &Result{
		Workbook:    cfg.Workbook,
		Sheet:       cfg.Sheet,
		Store:       cfg.Store,
		Relation:    cfg.Relation,
		Rows:        count,
		Columns:     table.NumColumns(),
		ColumnNames: table.ColumnNames(),
		DateColumns: table.ColumnsOfType(sheet.TypeDate),
	}, nil
}
