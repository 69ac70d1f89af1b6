package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteBackend implements Backend using SQLite for persistence. Suitable for
// single-instance deployments where quotas must survive restarts.
//
// The backend uses WAL mode for concurrent read performance and prepared
// statements for the hot save path.
type SQLiteBackend struct {
	db        *sql.DB
	dbPath    string
	closeOnce sync.Once

	saveStmt   *sql.Stmt
	loadStmt   *sql.Stmt
	deleteStmt *sql.Stmt
}

// SQLiteBackendConfig configures the SQLite backend.
type SQLiteBackendConfig struct {
	// DBPath is the path to the database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteBackend creates a SQLite backend with default settings.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	return NewSQLiteBackendWithConfig(SQLiteBackendConfig{DBPath: dbPath})
}

// NewSQLiteBackendWithConfig creates a SQLite backend with custom settings.
func NewSQLiteBackendWithConfig(cfg SQLiteBackendConfig) (*SQLiteBackend, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	b := &SQLiteBackend{
		db:     db,
		dbPath: cfg.DBPath,
	}

	if err := b.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := b.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return b, nil
}

func (s *SQLiteBackend) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS admission_windows (
		key TEXT NOT NULL PRIMARY KEY,
		stamps TEXT NOT NULL,
		last_updated INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_admission_windows_updated
		ON admission_windows(last_updated);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteBackend) prepareStatements() error {
	var err error

	s.saveStmt, err = s.db.Prepare(`
		INSERT INTO admission_windows (key, stamps, last_updated)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			stamps = excluded.stamps,
			last_updated = excluded.last_updated
	`)
	if err != nil {
		return fmt.Errorf("prepare save: %w", err)
	}

	s.loadStmt, err = s.db.Prepare(`
		SELECT stamps, last_updated FROM admission_windows WHERE key = ?
	`)
	if err != nil {
		return fmt.Errorf("prepare load: %w", err)
	}

	s.deleteStmt, err = s.db.Prepare(`
		DELETE FROM admission_windows WHERE key = ?
	`)
	if err != nil {
		return fmt.Errorf("prepare delete: %w", err)
	}

	return nil
}

// Save implements Backend.
func (s *SQLiteBackend) Save(ctx context.Context, state *WindowState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if state.Key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	stamps, err := marshalStamps(state.Stamps)
	if err != nil {
		return fmt.Errorf("serialize stamps: %w", err)
	}

	updated := state.LastUpdated
	if updated.IsZero() {
		updated = time.Now()
	}

	if _, err := s.saveStmt.ExecContext(ctx, state.Key, stamps, updated.UnixMilli()); err != nil {
		return fmt.Errorf("save window state: %w", err)
	}
	return nil
}

// Load implements Backend.
func (s *SQLiteBackend) Load(ctx context.Context, key string) (*WindowState, error) {
	var stamps string
	var updated int64

	row := s.loadStmt.QueryRowContext(ctx, key)
	if err := row.Scan(&stamps, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load window state: %w", err)
	}

	parsed, err := unmarshalStamps(stamps)
	if err != nil {
		return nil, fmt.Errorf("deserialize stamps: %w", err)
	}

	return &WindowState{
		Key:         key,
		Stamps:      parsed,
		LastUpdated: time.UnixMilli(updated),
	}, nil
}

// Delete implements Backend.
func (s *SQLiteBackend) Delete(ctx context.Context, key string) error {
	if _, err := s.deleteStmt.ExecContext(ctx, key); err != nil {
		return fmt.Errorf("delete window state: %w", err)
	}
	return nil
}

// List implements Backend.
func (s *SQLiteBackend) List(ctx context.Context) ([]*WindowState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, stamps, last_updated FROM admission_windows
	`)
	if err != nil {
		return nil, fmt.Errorf("list window states: %w", err)
	}
	defer rows.Close()

	var out []*WindowState
	for rows.Next() {
		var key, stamps string
		var updated int64
		if err := rows.Scan(&key, &stamps, &updated); err != nil {
			return nil, fmt.Errorf("scan window state: %w", err)
		}

		parsed, err := unmarshalStamps(stamps)
		if err != nil {
			return nil, fmt.Errorf("deserialize stamps for %q: %w", key, err)
		}

		out = append(out, &WindowState{
			Key:         key,
			Stamps:      parsed,
			LastUpdated: time.UnixMilli(updated),
		})
	}
	return out, rows.Err()
}

// Cleanup implements Backend.
func (s *SQLiteBackend) Cleanup(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM admission_windows WHERE last_updated < ?
	`, olderThan.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("cleanup window states: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(n), nil
}

// Close implements Backend.
func (s *SQLiteBackend) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{s.saveStmt, s.loadStmt, s.deleteStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}
		closeErr = s.db.Close()
	})
	return closeErr
}

// marshalStamps serializes timestamps as a JSON array of unix milliseconds.
func marshalStamps(stamps []time.Time) (string, error) {
	millis := make([]int64, len(stamps))
	for i, ts := range stamps {
		millis[i] = ts.UnixMilli()
	}
	data, err := json.Marshal(millis)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalStamps(data string) ([]time.Time, error) {
	var millis []int64
	if err := json.Unmarshal([]byte(data), &millis); err != nil {
		return nil, err
	}
	stamps := make([]time.Time, len(millis))
	for i, ms := range millis {
		stamps[i] = time.UnixMilli(ms)
	}
	return stamps, nil
}
