package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avast/retry-go/v4"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"lekha/internal/config"
)

// NewDB creates a new PostgreSQL connection pool, retrying the initial
// connect while the database starts up.
func NewDB(ctx context.Context, cfg *config.DBConfig, logger *slog.Logger) (*sqlx.DB, error) {
	attempts := cfg.ConnectAttempts
	if attempts == 0 {
		attempts = 1
	}

	var db *sqlx.DB
	err := retry.Do(
		func() error {
			conn, err := sqlx.ConnectContext(ctx, "pgx", cfg.DSN())
			if err != nil {
				return err
			}
			db = conn
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(cfg.ConnectDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("postgres not ready", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpen)
	db.SetMaxIdleConns(cfg.MaxIdle)
	return db, nil
}

// inTx runs fn inside a transaction, rolling back on error.
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
