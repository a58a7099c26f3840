package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestPostgres(t *testing.T) *Postgres {
	t.Helper()
	dsn := os.Getenv("SCHOOLOS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SCHOOLOS_TEST_POSTGRES_DSN not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(pool.Close)

	p := NewPostgres(pool)
	require.NoError(t, p.EnsureSchema(context.Background()))
	return p
}

func TestPostgresGetSetRemoveSweep(t *testing.T) {
	ctx := context.Background()
	p := openTestPostgres(t)
	key := "test:" + t.Name()
	t.Cleanup(func() { _ = p.Remove(ctx, key) })

	require.NoError(t, p.Set(ctx, key, "v1"))
	require.NoError(t, p.Set(ctx, key, "v2"))
	value, ok, err := p.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", value)

	_, err = p.Sweep(ctx, time.Hour)
	require.NoError(t, err)
	_, ok, _ = p.Get(ctx, key)
	assert.True(t, ok, "fresh entries survive a sweep")

	require.NoError(t, p.Remove(ctx, key))
	_, ok, err = p.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
