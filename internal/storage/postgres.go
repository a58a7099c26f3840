package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS portal_session_values (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := p.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create portal_session_values: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `SELECT value FROM portal_session_values WHERE key = $1`

	var value string
	if err := p.pool.QueryRow(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	const query = `
		INSERT INTO portal_session_values (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key)
		DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()
	`
	_, err := p.pool.Exec(ctx, query, key, value)
	return err
}

func (p *Postgres) Remove(ctx context.Context, key string) error {
	const query = `DELETE FROM portal_session_values WHERE key = $1`
	_, err := p.pool.Exec(ctx, query, key)
	return err
}

func (p *Postgres) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	const query = `DELETE FROM portal_session_values WHERE updated_at < $1`
	cmd, err := p.pool.Exec(ctx, query, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}
