package store

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local Store. A zero ttl keeps records forever.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*Record
	ttl     time.Duration
	now     func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{records: make(map[string]*Record), ttl: ttl, now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) (*Record, error) {
	m.mu.RLock()
	rec, ok := m.records[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if m.ttl > 0 && m.now().Sub(rec.CreatedAt) > m.ttl {
		m.mu.Lock()
		delete(m.records, key)
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	return copyRecord(rec), nil
}

func (m *Memory) Put(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.Key] = copyRecord(rec)
	return nil
}

// Len returns the number of stored records, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *Memory) Close() error { return nil }

func copyRecord(rec *Record) *Record {
	out := *rec
	out.Analysis = rec.Analysis.Clone()
	out.Warnings = append(out.Warnings[:0:0], rec.Warnings...)
	return &out
}
