package kv

import (
	"context"
	"sync"
)

// Store holds integer values by key. It backs personal bests.
type Store interface {
	Get(ctx context.Context, key string) (int, bool, error)
	Set(ctx context.Context, key string, value int) error
}

type Memory struct {
	mu     sync.Mutex
	values map[string]int
}

func NewMemory() *Memory {
	return &Memory{
		values: make(map[string]int),
	}
}

func (m *Memory) Get(_ context.Context, key string) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, value int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

type scoped struct {
	prefix string
	store  Store
}

// Scoped prefixes every key with prefix + ":" so several players can share
// one backing store.
func Scoped(store Store, prefix string) Store {
	return &scoped{prefix: prefix + ":", store: store}
}

func (s *scoped) Get(ctx context.Context, key string) (int, bool, error) {
	return s.store.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key string, value int) error {
	return s.store.Set(ctx, s.prefix+key, value)
}
