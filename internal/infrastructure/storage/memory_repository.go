package storage

import (
	"context"
	"sync"

	"CEQAScanner/internal/domain"
	"CEQAScanner/internal/ports"
)

// MemoryRepository keeps rows in a map; used for dry runs and tests.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows map[string]domain.ProjectRow
}

var _ ports.RecordRepository = (*MemoryRepository)(nil)

// NewMemoryRepository returns an empty store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[string]domain.ProjectRow)}
}

// Upsert replaces any stored row with the same source URL.
func (m *MemoryRepository) Upsert(ctx context.Context, row domain.ProjectRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[row.SourceURL()] = copyRow(row)
	return nil
}

// Get returns a copy of the stored row.
func (m *MemoryRepository) Get(sourceURL string) (domain.ProjectRow, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[sourceURL]
	if !ok {
		return nil, false
	}
	return copyRow(row), true
}

// Len reports the number of stored rows.
func (m *MemoryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

func copyRow(row domain.ProjectRow) domain.ProjectRow {
	out := make(domain.ProjectRow, len(row))
	for k, v := range row {
		if list, ok := v.([]string); ok {
			v = append([]string(nil), list...)
		}
		out[k] = v
	}
	return out
}
