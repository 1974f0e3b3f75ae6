package tablestore

import (
	"context"
	"sync"
)

// Memory is an in-process store keyed by base then table.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]map[string][]Row
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string]map[string][]Row)}
}

// Put replaces the rows of a table, creating the base when needed.
func (m *Memory) Put(baseID, table string, rows []Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	base, ok := m.tables[baseID]
	if !ok {
		base = make(map[string][]Row)
		m.tables[baseID] = base
	}
	base[table] = append([]Row(nil), rows...)
}

// Rows returns a copy of the table rows.
func (m *Memory) Rows(ctx context.Context, baseID, table string) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	base, ok := m.tables[baseID]
	if !ok {
		return nil, &NotFoundError{Base: baseID, Table: table, MissingBase: true}
	}
	rows, ok := base[table]
	if !ok {
		return nil, &NotFoundError{Base: baseID, Table: table}
	}
	return append([]Row(nil), rows...), nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
