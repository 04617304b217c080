package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// ErrLoadNotFound is returned when a load id is unknown.
var ErrLoadNotFound = errors.New("load not found")

// SQLiteStore records load runs in SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite state store instance.
// A nil logger discards.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens a connection to the SQLite database and applies migrations.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := ":memory:"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create state directory: %w", err)
			}
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path

	if err := s.Migrate(); err != nil {
		_ = db.Close()
		s.db = nil
		return err
	}

	s.logger.Debug("opened state store", slog.String("path", path))
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Path returns the database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func generateID() string {
	return uuid.New().String()
}

// StartLoad inserts a running record for a load about to begin.
func (s *SQLiteStore) StartLoad(ctx context.Context, l *Load) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if l.ID == "" {
		l.ID = generateID()
	}
	if l.StartedAt.IsZero() {
		l.StartedAt = time.Now().UTC()
	}
	l.Status = LoadStatusRunning

	s.logger.Debug("recording load start", slog.String("id", l.ID), slog.String("relation", l.Relation))

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO loads (id, relation, workbook, sheet, header_row, store, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Relation, l.Workbook, l.Sheet, l.HeaderRow, l.Store, string(l.Status), l.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record load: %w", err)
	}
	return nil
}

// CompleteLoad stores the outcome of a load.
func (s *SQLiteStore) CompleteLoad(ctx context.Context, id string, out LoadOutcome) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var errMsg *string
	if out.Error != "" {
		errMsg = &out.Error
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE loads SET status = ?, rows = ?, columns = ?, error = ?, completed_at = ?
		WHERE id = ?`,
		string(out.Status), out.Rows, out.Columns, errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete load: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrLoadNotFound, id)
	}
	return nil
}

const loadColumns = `id, relation, workbook, sheet, header_row, store, rows, columns, status, error, started_at, completed_at`

// GetLoad retrieves a load by id.
func (s *SQLiteStore) GetLoad(ctx context.Context, id string) (*Load, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+loadColumns+` FROM loads WHERE id = ?`, id)
	l, err := scanLoad(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrLoadNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get load: %w", err)
	}
	return l, nil
}

// LatestLoad returns the most recent load of relation, or nil if there is none.
func (s *SQLiteStore) LatestLoad(ctx context.Context, relation string) (*Load, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+loadColumns+` FROM loads WHERE relation = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`, relation)
	l, err := scanLoad(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest load: %w", err)
	}
	return l, nil
}

// ListLoads returns the most recent loads, newest first.
// A limit of zero or less returns all of them.
func (s *SQLiteStore) ListLoads(ctx context.Context, limit int) ([]*Load, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+loadColumns+` FROM loads ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list loads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var loads []*Load
	for rows.Next() {
		l, err := scanLoad(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan load: %w", err)
		}
		loads = append(loads, l)
	}
	return loads, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLoad(r scanner) (*Load, error) {
	l := &Load{}
	var status string
	var errMsg sql.NullString
	var completedAt sql.NullTime

	if err := r.Scan(&l.ID, &l.Relation, &l.Workbook, &l.Sheet, &l.HeaderRow, &l.Store,
		&l.Rows, &l.Columns, &status, &errMsg, &l.StartedAt, &completedAt); err != nil {
		return nil, err
	}

	l.Status = LoadStatus(status)
	l.Error = errMsg.String
	if completedAt.Valid {
		t := completedAt.Time
		l.CompletedAt = &t
	}
	return l, nil
}
