package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var errClosed = errors.New("storage is closed")

// SQLiteConfig contains configuration for the SQLite audit storage.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/audit.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens (creating if necessary) the audit database and
// initializes its schema.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, newStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: slog.Default().With("component", "audit.storage"),
	}

	if err := s.applyPragmas(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("audit storage opened",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)
	return s, nil
}

func (s *SQLiteStorage) applyPragmas() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return newStorageError("sqlite", "pragma journal_mode", err)
		}
	}
	busyMillis := int(s.config.BusyTimeout / time.Millisecond)
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d", busyMillis)); err != nil {
		return newStorageError("sqlite", "pragma busy_timeout", err)
	}
	return nil
}

func (s *SQLiteStorage) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS admission_decisions (
	id          TEXT PRIMARY KEY,
	request_id  TEXT NOT NULL DEFAULT '',
	client_key  TEXT NOT NULL,
	decision    TEXT NOT NULL,
	method      TEXT NOT NULL DEFAULT '',
	path        TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decisions_created_at ON admission_decisions(created_at);
CREATE INDEX IF NOT EXISTS idx_decisions_client_key ON admission_decisions(client_key);
`
	if _, err := s.db.Exec(schema); err != nil {
		return newStorageError("sqlite", "init schema", err)
	}
	return nil
}

func (s *SQLiteStorage) WriteRecord(ctx context.Context, record *DecisionRecord) error {
	const q = `INSERT INTO admission_decisions
		(id, request_id, client_key, decision, method, path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q,
		record.ID,
		record.RequestID,
		record.ClientKey,
		record.Decision,
		record.Method,
		record.Path,
		record.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return newStorageError("sqlite", "write", err)
	}
	return nil
}

func (s *SQLiteStorage) ListRecords(ctx context.Context, filter QueryFilter) ([]*DecisionRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.ClientKey != "" {
		where = append(where, "client_key = ?")
		args = append(args, filter.ClientKey)
	}
	if filter.Decision != "" {
		where = append(where, "decision = ?")
		args = append(args, filter.Decision)
	}
	if !filter.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, filter.Since.UnixMilli())
	}

	q := "SELECT id, request_id, client_key, decision, method, path, created_at FROM admission_decisions"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, newStorageError("sqlite", "list", err)
	}
	defer rows.Close()

	var records []*DecisionRecord
	for rows.Next() {
		var (
			r         DecisionRecord
			createdAt int64
		)
		if err := rows.Scan(&r.ID, &r.RequestID, &r.ClientKey, &r.Decision, &r.Method, &r.Path, &createdAt); err != nil {
			return nil, newStorageError("sqlite", "scan", err)
		}
		r.CreatedAt = time.UnixMilli(createdAt)
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, newStorageError("sqlite", "list", err)
	}
	return records, nil
}

func (s *SQLiteStorage) CountRecords(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM admission_decisions").Scan(&count)
	if err != nil {
		return 0, newStorageError("sqlite", "count", err)
	}
	return count, nil
}

func (s *SQLiteStorage) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM admission_decisions WHERE created_at < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, newStorageError("sqlite", "delete", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, newStorageError("sqlite", "rows affected", err)
	}
	return deleted, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
