// memory.go - In-memory record store

package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bosocmputer/fleet_capture_ocr/internal/form"
)

// MemoryRepository keeps records in a map. Records are copied on the way in and out.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*form.Record
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]*form.Record)}
}

// Create stores a new record
func (m *MemoryRepository) Create(ctx context.Context, record *form.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[record.ID]; exists {
		return fmt.Errorf("record %s already exists", record.ID)
	}
	m.records[record.ID] = record.Clone()
	return nil
}

// Get returns a copy of the record
func (m *MemoryRepository) Get(ctx context.Context, id string) (*form.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, exists := m.records[id]
	if !exists {
		return nil, form.ErrNotFound
	}
	return record.Clone(), nil
}

// Update applies fn to a copy under the write lock and stores it if fn succeeds
func (m *MemoryRepository) Update(ctx context.Context, id string, fn func(*form.Record) error) (*form.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, exists := m.records[id]
	if !exists {
		return nil, form.ErrNotFound
	}

	working := record.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	working.Version = record.Version + 1
	working.UpdatedAt = time.Now()

	m.records[id] = working
	return working.Clone(), nil
}

// Len returns the number of stored records
func (m *MemoryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
