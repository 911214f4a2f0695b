// Package store persists encoded snippets in a key-value store keyed by
// snippet index.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned for keys absent from the store.
var ErrNotFound = errors.New("store: not found")

// KV is a byte store addressed by integer keys.
type KV interface {
	Get(ctx context.Context, key uint64) ([]byte, error)
	Put(ctx context.Context, key uint64, value []byte) error
	Delete(ctx context.Context, key uint64) error
	// Scan calls fn for every entry in ascending key order until fn fails.
	Scan(ctx context.Context, fn func(key uint64, value []byte) error) error
	// NextKey reserves and returns a key never returned before. Keys start at 1.
	NextKey(ctx context.Context) (uint64, error)
	Close() error
}

// Memory is an in-process KV. The zero value is not usable; call NewMemory.
type Memory struct {
	mu      sync.RWMutex
	data    map[uint64][]byte
	counter uint64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[uint64][]byte)}
}

func (m *Memory) Get(ctx context.Context, key uint64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Put(ctx context.Context, key uint64, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(ctx context.Context, key uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return ErrNotFound
	}
	delete(m.data, key)
	return nil
}

func (m *Memory) Scan(ctx context.Context, fn func(key uint64, value []byte) error) error {
	m.mu.RLock()
	keys := make([]uint64, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	m.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		v, err := m.Get(ctx, k)
		if errors.Is(err, ErrNotFound) {
			continue // удалён во время обхода
		}
		if err != nil {
			return err
		}
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) NextKey(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return m.counter, nil
}

func (m *Memory) Close() error { return nil }
