package cache

import (
	"context"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
)

// Memory is a size-bounded, process-local cache.
type Memory struct {
	entries *lru.Cache
	version atomic.Uint64
}

func NewMemory(size int) (*Memory, error) {
	if size <= 0 {
		size = DefaultConfig().Size
	}
	entries, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &Memory{entries: entries}, nil
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	value, ok := m.entries.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	return value.([]byte), nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.entries.Add(key, value)
	return nil
}

func (m *Memory) Version(context.Context) (uint64, error) {
	return m.version.Load(), nil
}

// Bump advances the version and drops every entry, all of which are now stale.
func (m *Memory) Bump(context.Context) (uint64, error) {
	v := m.version.Add(1)
	m.entries.Purge()
	return v, nil
}

func (m *Memory) Len() int {
	return m.entries.Len()
}

func (m *Memory) Close() error {
	m.entries.Purge()
	return nil
}
