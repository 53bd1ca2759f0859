// Package storage provides the local key/value persistence used by the
// credential store, the client-side analogue of browser storage. Two
// implementations exist: an in-memory one (ephemeral sessions, tests) and a
// sqlite-backed one (durable sessions).
package storage

import "context"

// Storage is a flat key/value store. Get returns nil (no error) for a
// missing key. SetMany and DeleteMany are atomic: either every key is
// applied or none is, and a concurrent reader never observes a partial
// batch.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetMany(ctx context.Context, values map[string][]byte) error
	Delete(ctx context.Context, key string) error
	DeleteMany(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
}
