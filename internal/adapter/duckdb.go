package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leapwip/internal/sheet"
	"github.com/marcboeker/go-duckdb"
)

const memoryPath = ":memory:"

// DuckDBAdapter is the DuckDB-backed store.
type DuckDBAdapter struct {
	db     *sql.DB
	config Config
	logger *slog.Logger
}

// NewDuckDBAdapter creates a new DuckDB adapter instance.
// A nil logger discards.
func NewDuckDBAdapter(logger *slog.Logger) *DuckDBAdapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DuckDBAdapter{logger: logger}
}

// Open creates an adapter and connects it in one step.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DuckDBAdapter, error) {
	a := NewDuckDBAdapter(logger)
	if err := a.Connect(ctx, cfg); err != nil {
		return nil, err
	}
	return a, nil
}

// Connect establishes a connection to DuckDB.
// Read-write opens create the file and its directory; read-only opens never create anything.
func (a *DuckDBAdapter) Connect(ctx context.Context, cfg Config) error {
	path := cfg.Path
	if path == "" {
		path = memoryPath
	}

	dsn := path
	if path != memoryPath {
		if cfg.ReadOnly {
			if _, err := os.Stat(path); err != nil {
				return &StoreError{Path: path, Err: fmt.Errorf("database file not readable (run 'leapwip load' first): %w", err)}
			}
			dsn = path + "?access_mode=read_only"
		} else if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return &StoreError{Path: path, Err: fmt.Errorf("failed to create database directory: %w", err)}
			}
		}
	}

	a.logger.Debug("opening duckdb", "path", path, "read_only", cfg.ReadOnly)

	connector, err := duckdb.NewConnector(dsn, nil)
	if err != nil {
		return &StoreError{Path: path, Err: err}
	}

	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return &StoreError{Path: path, Err: err}
	}

	a.db = db
	a.config = cfg
	a.config.Path = path

	return nil
}

// Close closes the DuckDB connection.
func (a *DuckDBAdapter) Close() error {
	if a.db == nil {
		return nil
	}
	a.logger.Debug("closing duckdb", "path", a.config.Path)
	err := a.db.Close()
	a.db = nil
	return err
}

// FromDB wraps an already open handle, such as a test double.
func FromDB(db *sql.DB, cfg Config, logger *slog.Logger) *DuckDBAdapter {
	a := NewDuckDBAdapter(logger)
	a.db = db
	a.config = cfg
	return a
}

// Path returns the database path the adapter is connected to.
func (a *DuckDBAdapter) Path() string {
	return a.config.Path
}

// ReadOnly reports whether the adapter was opened read-only.
func (a *DuckDBAdapter) ReadOnly() bool {
	return a.config.ReadOnly
}

// Query runs sqlStr and reads the whole result.
// Failures, including ones met while reading rows, are reported as *QueryError.
func (a *DuckDBAdapter) Query(ctx context.Context, sqlStr string, args ...any) (*Result, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := a.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, &QueryError{SQL: sqlStr, Err: err}
	}
	defer func() { _ = rows.Close() }()

	res, err := collectResult(rows)
	if err != nil {
		return nil, &QueryError{SQL: sqlStr, Err: err}
	}
	return res, nil
}

func collectResult(rows *sql.Rows) (*Result, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	res := &Result{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		for i, v := range values {
			// Convert []byte to string for readability
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Materialize replaces relation name with the contents of table.
// The drop, create and inserts run in one transaction: on any failure the
// previous relation, if there was one, is left as it was.
func (a *DuckDBAdapter) Materialize(ctx context.Context, name string, table *sheet.Table) (int64, error) {
	if a.db == nil {
		return 0, fmt.Errorf("database connection not established")
	}
	if a.config.ReadOnly {
		return 0, &StoreError{Path: a.config.Path, Err: errors.New("store is open read-only")}
	}

	ddl, err := createTableSQL(name, table)
	if err != nil {
		return 0, &MaterializationError{Relation: name, Err: err}
	}

	a.logger.Debug("materializing relation", "relation", name, "rows", table.NumRows(), "columns", table.NumColumns())

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &StoreError{Path: a.config.Path, Err: fmt.Errorf("failed to begin transaction: %w", err)}
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+QuoteIdentifier(name)); err != nil {
		return 0, &MaterializationError{Relation: name, Err: fmt.Errorf("failed to drop previous relation: %w", err)}
	}
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return 0, &MaterializationError{Relation: name, Err: fmt.Errorf("failed to create relation: %w", err)}
	}

	inserted, err := insertRows(ctx, tx, name, table)
	if err != nil {
		return 0, &MaterializationError{Relation: name, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return 0, &MaterializationError{Relation: name, Err: fmt.Errorf("failed to commit: %w", err)}
	}
	committed = true

	return inserted, nil
}

func insertRows(ctx context.Context, tx *sql.Tx, name string, table *sheet.Table) (int64, error) {
	n := table.NumRows()
	if n == 0 {
		return 0, nil
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL(name, table))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, table.Row(i)...); err != nil {
			return 0, fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}
	return int64(n), nil
}

// CountRows returns COUNT(*) of the named relation.
func (a *DuckDBAdapter) CountRows(ctx context.Context, name string) (int64, error) {
	if a.db == nil {
		return 0, fmt.Errorf("database connection not established")
	}

	var n int64
	//nolint:gosec // identifier is quoted
	if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+QuoteIdentifier(name)).Scan(&n); err != nil {
		return 0, &QueryError{SQL: "SELECT COUNT(*)", Err: err}
	}
	return n, nil
}

// TableExists reports whether a relation with this name exists in the main schema.
// Names compare case-insensitively, as DuckDB resolves them.
func (a *DuckDBAdapter) TableExists(ctx context.Context, name string) (bool, error) {
	if a.db == nil {
		return false, fmt.Errorf("database connection not established")
	}

	var n int
	err := a.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = 'main' AND lower(table_name) = lower(?)
	`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to look up relation: %w", err)
	}
	return n > 0, nil
}

// ListRelations returns the names of all tables and views in the main schema.
func (a *DuckDBAdapter) ListRelations(ctx context.Context) ([]string, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'main'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list relations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan relation name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// GetTableMetadata retrieves metadata for a specified relation.
func (a *DuckDBAdapter) GetTableMetadata(ctx context.Context, table string) (*Metadata, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	schema := "main"
	tableName := table
	if parts := strings.SplitN(table, ".", 2); len(parts) == 2 && !strings.Contains(table, " ") {
		schema = parts[0]
		tableName = parts[1]
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = ? AND lower(table_name) = lower(?)
		ORDER BY ordinal_position
	`, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var col Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	var rowCount int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s", QuoteIdentifier(schema), QuoteIdentifier(tableName)) //nolint:gosec // identifiers are quoted
	if err := a.db.QueryRowContext(ctx, countQuery).Scan(&rowCount); err != nil {
		// Non-fatal error, just set to 0
		rowCount = 0
	}

	return &Metadata{
		Schema:   schema,
		Name:     tableName,
		Columns:  columns,
		RowCount: rowCount,
	}, nil
}
