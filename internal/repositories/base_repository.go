package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"commentfeed/internal/database"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// BaseRepository provides common database operations shared by the concrete
// repositories.
type BaseRepository struct {
	db     *database.Manager
	logger *zap.Logger
}

// NewBaseRepository creates a new base repository.
func NewBaseRepository(db *database.Manager, logger *zap.Logger) *BaseRepository {
	return &BaseRepository{db: db, logger: logger}
}

// ===============================
// CORE DATABASE OPERATIONS
// ===============================

// ExecContext executes a statement with slow-query logging.
func (r *BaseRepository) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	result, err := r.db.ExecContext(ctx, query, args...)
	r.logQuery(query, time.Since(start), err)
	return result, err
}

// QueryContext executes a query that returns rows.
func (r *BaseRepository) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	r.logQuery(query, time.Since(start), err)
	return rows, err
}

// QueryRowContext executes a query that returns a single row.
func (r *BaseRepository) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return r.db.QueryRowContext(ctx, query, args...)
}

func (r *BaseRepository) logQuery(query string, duration time.Duration, err error) {
	if duration > 100*time.Millisecond {
		r.logger.Warn("slow query detected",
			zap.String("query", truncateQuery(query)),
			zap.Duration("duration", duration))
	}
	if err != nil && err != sql.ErrNoRows {
		r.logger.Error("query execution failed",
			zap.String("query", truncateQuery(query)),
			zap.Error(err))
	}
}

// ===============================
// TRANSACTION HELPERS
// ===============================

// WithTransaction executes a function within a database transaction,
// rolling back on error or panic.
func (r *BaseRepository) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Error("failed to rollback transaction",
				zap.NamedError("rollback_error", rbErr),
				zap.Error(err))
		}
		return err
	}

	return tx.Commit()
}

// ===============================
// UTILITY METHODS
// ===============================

// IsNotFound checks if error is a "not found" error.
func (r *BaseRepository) IsNotFound(err error) bool {
	return err == sql.ErrNoRows
}

// IsUniqueViolation checks whether an error is a Postgres unique constraint
// violation.
func (r *BaseRepository) IsUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

// GetLogger returns the logger instance.
func (r *BaseRepository) GetLogger() *zap.Logger {
	return r.logger
}

func truncateQuery(query string) string {
	const maxLength = 200
	if len(query) <= maxLength {
		return query
	}
	return query[:maxLength] + "..."
}
