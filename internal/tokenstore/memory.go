package tokenstore

import (
	"context"
	"sync"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/domain"
)

// MemoryKeyspace keeps records in process memory.
type MemoryKeyspace struct {
	mu      sync.RWMutex
	records map[string]domain.Record
}

// NewMemory returns an empty in-memory keyspace.
func NewMemory() *MemoryKeyspace {
	return &MemoryKeyspace{records: make(map[string]domain.Record)}
}

// For returns the store bound to namespace.
func (k *MemoryKeyspace) For(namespace string) Store {
	return &memoryStore{ks: k, namespace: namespace}
}

// Put writes a raw record without validation. Intended for tests simulating
// a partially written store.
func (k *MemoryKeyspace) Put(namespace string, rec domain.Record) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.records[namespace] = rec
}

// Len reports how many namespaces currently hold a record.
func (k *MemoryKeyspace) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.records)
}

type memoryStore struct {
	ks        *MemoryKeyspace
	namespace string
}

func (s *memoryStore) Save(ctx context.Context, rec domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate(rec); err != nil {
		return err
	}
	s.ks.mu.Lock()
	defer s.ks.mu.Unlock()
	s.ks.records[s.namespace] = rec
	return nil
}

func (s *memoryStore) Read(ctx context.Context) (domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return domain.Record{}, err
	}
	s.ks.mu.RLock()
	defer s.ks.mu.RUnlock()
	return s.ks.records[s.namespace], nil
}

func (s *memoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.ks.mu.Lock()
	defer s.ks.mu.Unlock()
	delete(s.ks.records, s.namespace)
	return nil
}
