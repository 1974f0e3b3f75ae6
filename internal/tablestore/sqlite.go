package tablestore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current snapshot schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the snapshot was written by an incompatible version.
var ErrSchemaMismatch = errors.New("snapshot schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// SQLite is a local snapshot of remote tables.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the snapshot database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("tablestore: sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLite{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *SQLite) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: snapshot has version %d, expected %d (delete %s and run 'contentkit snapshot')",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *SQLite) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Rows reads a snapshotted table.
func (s *SQLite) Rows(ctx context.Context, baseID, table string) ([]Row, error) {
	var known int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM source_tables WHERE base_id = ? AND table_name = ?", baseID, table,
	).Scan(&known); err != nil {
		return nil, fmt.Errorf("lookup snapshot table %s/%s: %w", baseID, table, err)
	}
	if known == 0 {
		var baseKnown int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM source_tables WHERE base_id = ?", baseID,
		).Scan(&baseKnown); err != nil {
			return nil, fmt.Errorf("lookup snapshot base %s: %w", baseID, err)
		}
		return nil, &NotFoundError{Base: baseID, Table: table, MissingBase: baseKnown == 0}
	}

	result, err := s.db.QueryContext(ctx,
		"SELECT record_id, fields FROM source_rows WHERE base_id = ? AND table_name = ? ORDER BY record_id",
		baseID, table,
	)
	if err != nil {
		return nil, fmt.Errorf("query snapshot rows %s/%s: %w", baseID, table, err)
	}
	defer result.Close()

	var rows []Row
	for result.Next() {
		var (
			id     string
			fields string
		)
		if err := result.Scan(&id, &fields); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		row := Row{ID: id}
		if err := json.Unmarshal([]byte(fields), &row.Fields); err != nil {
			return nil, fmt.Errorf("decode snapshot row %s: %w", id, err)
		}
		rows = append(rows, row)
	}
	return rows, result.Err()
}

// Put replaces a table's rows in one transaction. An empty rows slice still
// records the table so it stays distinguishable from an unknown one.
func (s *SQLite) Put(ctx context.Context, baseID, table string, rows []Row) error {
	return retryOnBusy(ctx, func() error {
		return s.put(ctx, baseID, table, rows)
	})
}

func (s *SQLite) put(ctx context.Context, baseID, table string, rows []Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM source_rows WHERE base_id = ? AND table_name = ?", baseID, table,
	); err != nil {
		return fmt.Errorf("clear snapshot rows %s/%s: %w", baseID, table, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO source_tables (base_id, table_name, fetched_at, row_count) VALUES (?, ?, ?, ?)
		 ON CONFLICT (base_id, table_name) DO UPDATE SET fetched_at = excluded.fetched_at, row_count = excluded.row_count`,
		baseID, table, time.Now().UTC().Format(time.RFC3339), len(rows),
	); err != nil {
		return fmt.Errorf("record snapshot table %s/%s: %w", baseID, table, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO source_rows (base_id, table_name, record_id, fields) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer stmt.Close()
	for _, row := range rows {
		fields := row.Fields
		if fields == nil {
			fields = map[string]any{}
		}
		encoded, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("encode row %s: %w", row.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, baseID, table, row.ID, string(encoded)); err != nil {
			return fmt.Errorf("insert row %s: %w", row.ID, err)
		}
	}
	return tx.Commit()
}

// TableInfo summarizes one snapshotted table.
type TableInfo struct {
	Base      string
	Table     string
	FetchedAt time.Time
	RowCount  int
}

// Tables lists snapshotted tables ordered by base and name.
func (s *SQLite) Tables(ctx context.Context) ([]TableInfo, error) {
	result, err := s.db.QueryContext(ctx,
		"SELECT base_id, table_name, fetched_at, row_count FROM source_tables ORDER BY base_id, table_name")
	if err != nil {
		return nil, fmt.Errorf("list snapshot tables: %w", err)
	}
	defer result.Close()
	var infos []TableInfo
	for result.Next() {
		var (
			info    TableInfo
			fetched string
		)
		if err := result.Scan(&info.Base, &info.Table, &fetched, &info.RowCount); err != nil {
			return nil, fmt.Errorf("scan snapshot table: %w", err)
		}
		info.FetchedAt, _ = time.Parse(time.RFC3339, fetched)
		infos = append(infos, info)
	}
	return infos, result.Err()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
