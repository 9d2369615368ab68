// Package audit persists one record per completed user turn and logs
// security-relevant events for SIEM consumption.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/askdb-io/askdb-engine/pkg/models"
)

// Repository receives finished query records. Writes are append-only and
// fire-and-forget from the orchestrator's perspective.
type Repository interface {
	Record(ctx context.Context, record *models.QueryRecord) error
}

// SQLiteRepository stores query records in a local SQLite database,
// deliberately separate from the target database being queried.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the audit database and
// ensures its schema exists.
func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create audit directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS query_records (
			id            TEXT PRIMARY KEY,
			user_id       INTEGER NOT NULL,
			question      TEXT NOT NULL,
			final_sql     TEXT,
			attempt_count INTEGER NOT NULL,
			outcome       TEXT NOT NULL,
			answer        TEXT,
			row_count     INTEGER,
			rows_truncated INTEGER NOT NULL DEFAULT 0,
			error_detail  TEXT,
			created_at    TEXT NOT NULL
		)
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create audit schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

var _ Repository = (*SQLiteRepository)(nil)

// Record implements Repository.
func (r *SQLiteRepository) Record(ctx context.Context, record *models.QueryRecord) error {
	const insert = `
		INSERT INTO query_records (
			id, user_id, question, final_sql, attempt_count,
			outcome, answer, row_count, rows_truncated, error_detail, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, insert,
		record.ID.String(),
		record.UserID,
		record.Question,
		record.FinalSQL,
		record.AttemptCount,
		string(record.Outcome),
		record.Answer,
		record.RowCount,
		record.RowsTruncated,
		record.ErrorDetail,
		record.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert query record: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// SerializeRows renders result rows for audit storage or prompt previews.
func SerializeRows(rows []map[string]any) string {
	if len(rows) == 0 {
		return "[]"
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Sprintf("(unserializable: %v)", err)
	}
	return string(data)
}
