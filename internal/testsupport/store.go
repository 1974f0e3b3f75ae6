package testsupport

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"contentkit/internal/config"
	"contentkit/internal/tablestore"
)

// R builds a row from alternating field names and values.
func R(id string, kv ...any) tablestore.Row {
	fields := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i].(string)] = kv[i+1]
	}
	return tablestore.Row{ID: id, Fields: fields}
}

// WriteTable writes rows as a fixture table under cfg.Store.FixturesDir.
func WriteTable(t testing.TB, cfg *config.Config, baseID, table string, rows ...tablestore.Row) {
	t.Helper()

	if rows == nil {
		rows = []tablestore.Row{}
	}
	WriteJSON(t, filepath.Join(cfg.Store.FixturesDir, baseID, table+".json"), rows)
}

// CountingStore wraps a store and counts Rows calls per table.
type CountingStore struct {
	tablestore.Store

	mu    sync.Mutex
	calls map[string]int
}

// NewCountingStore wraps inner.
func NewCountingStore(inner tablestore.Store) *CountingStore {
	return &CountingStore{Store: inner, calls: map[string]int{}}
}

// Rows records the call and delegates.
func (s *CountingStore) Rows(ctx context.Context, baseID, table string) ([]tablestore.Row, error) {
	s.mu.Lock()
	s.calls[baseID+"/"+table]++
	s.mu.Unlock()
	return s.Store.Rows(ctx, baseID, table)
}

// Calls returns how many times baseID/table was fetched.
func (s *CountingStore) Calls(baseID, table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[baseID+"/"+table]
}
