package watcher

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/raysh454/pagewatch/internal/interfaces"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema.sql
var schemaFS embed.FS

// SQLiteStore persists watcher state in a SQLite database. Save replaces
// the full state in one transaction; Load reconstructs it in stored order.
type SQLiteStore struct {
	db     *sql.DB
	logger interfaces.Logger
}

// NewSQLiteStore opens (or creates) the database under storagePath.
func NewSQLiteStore(storagePath string, logger interfaces.Logger) (*SQLiteStore, error) {
	if logger == nil {
		return nil, errors.New("watcher: nil logger provided")
	}

	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	dbPath := filepath.Join(storagePath, "pagewatch.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Info("SQLiteStore initialized", interfaces.Field{Key: "path", Value: dbPath})

	return &SQLiteStore{db: db, logger: logger}, nil
}

// applySchema applies the SQLite schema to the database and sets appropriate pragmas.
func applySchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",   // Write-Ahead Logging for better concurrency
		"PRAGMA synchronous=NORMAL", // Balance between safety and performance
		"PRAGMA foreign_keys=ON",    // Enable foreign key constraints
		"PRAGMA busy_timeout=5000",  // Wait up to 5 seconds on locked database
		"PRAGMA temp_store=MEMORY",  // Store temp tables in memory
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}

	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// Save writes st as the complete persisted state. The previous contents are
// replaced inside a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, st State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			s.logger.Warn("failed to rollback transaction", interfaces.Field{Key: "error", Value: rbErr.Error()})
		}
	}()

	for _, table := range []string{"change_records", "snapshots", "monitored_urls"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, url := range st.MonitoredURLs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO monitored_urls (url, position) VALUES (?, ?)
		`, url, i); err != nil {
			return fmt.Errorf("insert monitored url: %w", err)
		}
	}

	for _, snap := range st.Snapshots {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO snapshots (url, fingerprint, content) VALUES (?, ?, ?)
		`, snap.URL, snap.Fingerprint, snap.Content); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
	}

	for url, recs := range st.History {
		for i, rec := range recs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO change_records (id, url, position, timestamp, old_content, new_content)
				VALUES (?, ?, ?, ?, ?, ?)
			`, rec.ID, url, i, rec.Timestamp.UTC().Format(time.RFC3339Nano), rec.OldContent, rec.NewContent); err != nil {
				return fmt.Errorf("insert change record: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Load reads the persisted state back out, preserving stored order.
func (s *SQLiteStore) Load(ctx context.Context) (State, error) {
	st := NewState()

	rows, err := s.db.QueryContext(ctx, `
		SELECT url FROM monitored_urls ORDER BY position
	`)
	if err != nil {
		return State{}, fmt.Errorf("query monitored urls: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return State{}, fmt.Errorf("scan monitored url: %w", err)
		}
		st.MonitoredURLs = append(st.MonitoredURLs, url)
	}
	if err := rows.Err(); err != nil {
		return State{}, fmt.Errorf("iterate monitored urls: %w", err)
	}

	snapRows, err := s.db.QueryContext(ctx, `
		SELECT url, fingerprint, content FROM snapshots
	`)
	if err != nil {
		return State{}, fmt.Errorf("query snapshots: %w", err)
	}
	defer snapRows.Close()

	for snapRows.Next() {
		var snap Snapshot
		if err := snapRows.Scan(&snap.URL, &snap.Fingerprint, &snap.Content); err != nil {
			return State{}, fmt.Errorf("scan snapshot: %w", err)
		}
		st.Snapshots[snap.URL] = snap
	}
	if err := snapRows.Err(); err != nil {
		return State{}, fmt.Errorf("iterate snapshots: %w", err)
	}

	recRows, err := s.db.QueryContext(ctx, `
		SELECT id, url, timestamp, old_content, new_content
		FROM change_records
		ORDER BY url, position
	`)
	if err != nil {
		return State{}, fmt.Errorf("query change records: %w", err)
	}
	defer recRows.Close()

	for recRows.Next() {
		var rec ChangeRecord
		var ts string
		if err := recRows.Scan(&rec.ID, &rec.URL, &ts, &rec.OldContent, &rec.NewContent); err != nil {
			return State{}, fmt.Errorf("scan change record: %w", err)
		}
		rec.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return State{}, fmt.Errorf("parse record timestamp %q: %w", ts, err)
		}
		st.History[rec.URL] = append(st.History[rec.URL], rec)
	}
	if err := recRows.Err(); err != nil {
		return State{}, fmt.Errorf("iterate change records: %w", err)
	}

	return st, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLiteStore")
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ Persister = (*SQLiteStore)(nil)
