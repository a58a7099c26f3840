// Package storage holds the key-value backends a portal session persists to.
// Every backend stores plain strings; callers own the encoding.
package storage

import (
	"context"
	"time"
)

type KV interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// Sweeper is implemented by backends that cannot expire keys on their own.
type Sweeper interface {
	// Sweep removes entries last written before now minus maxAge and
	// returns how many were removed.
	Sweep(ctx context.Context, maxAge time.Duration) (int, error)
}

type prefixed struct {
	kv     KV
	prefix string
}

// WithPrefix scopes every key of kv under prefix.
func WithPrefix(kv KV, prefix string) KV {
	return prefixed{kv: kv, prefix: prefix}
}

func (p prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.kv.Get(ctx, p.prefix+key)
}

func (p prefixed) Set(ctx context.Context, key, value string) error {
	return p.kv.Set(ctx, p.prefix+key, value)
}

func (p prefixed) Remove(ctx context.Context, key string) error {
	return p.kv.Remove(ctx, p.prefix+key)
}
