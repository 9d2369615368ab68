// Package executor runs validated SQL against the target database inside a
// read-only transaction.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/logging"
	"github.com/askdb-io/askdb-engine/pkg/models"
)

// Executor runs one validated statement and returns at most fetchLimit
// rows. The orchestrator passes maxRows+1 so truncation can be detected
// without unbounded materialization.
type Executor interface {
	Execute(ctx context.Context, sql string, fetchLimit int) (*models.ExecutionResult, error)
}

// ReadOnlyExecutor executes statements over a pgx pool inside a read-only
// transaction. Execution failures are terminal for a turn; nothing here
// retries against the live database.
type ReadOnlyExecutor struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	logger  *zap.Logger
}

// NewReadOnlyExecutor creates an executor over the given pool.
func NewReadOnlyExecutor(pool *pgxpool.Pool, timeout time.Duration, logger *zap.Logger) *ReadOnlyExecutor {
	return &ReadOnlyExecutor{
		pool:    pool,
		timeout: timeout,
		logger:  logger.Named("executor"),
	}
}

var _ Executor = (*ReadOnlyExecutor)(nil)

// Execute implements Executor.
func (e *ReadOnlyExecutor) Execute(ctx context.Context, sql string, fetchLimit int) (*models.ExecutionResult, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	tx, err := e.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin read-only transaction: %w", err)
	}
	// read-only work is always rolled back
	defer func() { _ = tx.Rollback(ctx) }()

	start := time.Now()
	rows, err := tx.Query(ctx, sql)
	if err != nil {
		e.logger.Warn("query execution failed",
			zap.String("sql", logging.SanitizeQuery(sql)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = string(fd.Name)
	}

	result := make([]map[string]any, 0, fetchLimit)
	for rows.Next() {
		if len(result) >= fetchLimit {
			break
		}
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}
		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col] = values[i]
		}
		result = append(result, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	e.logger.Debug("query executed",
		zap.Int("rows", len(result)),
		zap.Duration("elapsed", time.Since(start)))

	return &models.ExecutionResult{Rows: result, RowCount: len(result)}, nil
}
