package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/tgwork/internal/models"
)

// Postgres keeps one JSONB record per email in the users table.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Get(ctx context.Context, email string) (*models.User, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT record FROM users WHERE email = $1`,
		models.NormalizeEmail(email)).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	return decode(raw)
}

func (p *Postgres) Create(ctx context.Context, u *models.User) error {
	b, err := encode(u)
	if err != nil {
		return err
	}
	ct, err := p.pool.Exec(ctx, `
        INSERT INTO users (email, record, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (email) DO NOTHING`,
		models.NormalizeEmail(u.Email), string(b))
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrExists
	}
	return nil
}

func (p *Postgres) Save(ctx context.Context, u *models.User) error {
	b, err := encode(u)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
        INSERT INTO users (email, record, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (email) DO UPDATE SET record = EXCLUDED.record, updated_at = NOW()`,
		models.NormalizeEmail(u.Email), string(b))
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (p *Postgres) All(ctx context.Context) (map[string]models.User, error) {
	rows, err := p.pool.Query(ctx, `SELECT email, record FROM users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.User)
	for rows.Next() {
		var email string
		var raw []byte
		if err := rows.Scan(&email, &raw); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u, err := decode(raw)
		if err != nil {
			return nil, err
		}
		out[email] = *u
	}
	return out, rows.Err()
}

func (p *Postgres) Update(ctx context.Context, email string, fn func(*models.User) error) (*models.User, error) {
	key := models.NormalizeEmail(email)
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("transaction start failed: %w", err)
	}
	defer tx.Rollback(ctx)

	var raw []byte
	err = tx.QueryRow(ctx, `SELECT record FROM users WHERE email = $1 FOR UPDATE`, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock user: %w", err)
	}
	u, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if err := fn(u); err != nil {
		return nil, err
	}
	b, err := encode(u)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE users SET record = $1, updated_at = NOW() WHERE email = $2`, string(b), key); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit failed: %w", err)
	}
	return u, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
