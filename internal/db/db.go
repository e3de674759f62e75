package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Params are the DSN parts read from DB_* variables.
type Params struct {
	URL      string
	User     string
	Password string
	Host     string
	Port     string
	Name     string
}

func (p Params) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", p.User, p.Password, p.Host, p.Port, p.Name)
}

// Connect opens a pool, pings it and makes sure the users table exists.
func Connect(ctx context.Context, p Params, log *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, p.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	log.Info("connected to postgres", zap.String("host", p.Host), zap.String("db", p.Name))

	if err := ensureUsersTable(ctx, pool, log); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// ensureUsersTable creates the users table on first start.
// Each row is a whole user record keyed by email.
func ensureUsersTable(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger) error {
	var exists bool
	err := pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM information_schema.tables
            WHERE table_schema = 'public' AND table_name = 'users'
        )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("schema check failed: %w", err)
	}
	if exists {
		return ensureUpdatedAtColumn(ctx, pool, log)
	}
	_, err = pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS users (
            email      TEXT PRIMARY KEY,
            record     JSONB NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_users_account_type ON users ((record->>'accountType'));
    `)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	log.Info("users table created")
	return nil
}

// ensureUpdatedAtColumn adds users.updated_at if an older table lacks it.
func ensureUpdatedAtColumn(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger) error {
	var exists bool
	err := pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM information_schema.columns
            WHERE table_schema = 'public' AND table_name = 'users' AND column_name = 'updated_at'
        )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check users.updated_at: %w", err)
	}
	if exists {
		return nil
	}
	if _, err := pool.Exec(ctx, `ALTER TABLE users ADD COLUMN IF NOT EXISTS updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()`); err != nil {
		return fmt.Errorf("failed to add users.updated_at: %w", err)
	}
	log.Info("users.updated_at column ensured")
	return nil
}
