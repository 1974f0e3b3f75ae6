package translate

import (
	"context"
	"sync"

	"contentkit/internal/tablestore"
)

// TableCache memoizes the translation table for the lifetime of its owner.
// Failed fetches are not cached.
type TableCache struct {
	store   tablestore.Store
	baseID  string
	table   string
	mu      sync.Mutex
	cached  *Table
	fetches int
}

// NewTableCache reads baseID/table from store on first use.
func NewTableCache(store tablestore.Store, baseID, table string) *TableCache {
	return &TableCache{store: store, baseID: baseID, table: table}
}

// Get returns the cached table, fetching it if needed. Concurrent callers
// share a single fetch.
func (c *TableCache) Get(ctx context.Context) (*Table, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached != nil {
		return c.cached, true, nil
	}
	rows, err := c.store.Rows(ctx, c.baseID, c.table)
	if err != nil {
		return nil, false, err
	}
	c.fetches++
	c.cached = NewTable(rows)
	return c.cached, false, nil
}

// Reset drops the cached table so the next Get fetches again.
func (c *TableCache) Reset() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}

// Fetches returns how many successful fetches the cache has made.
func (c *TableCache) Fetches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetches
}

// Source names the table the cache reads.
func (c *TableCache) Source() tablestore.TableRef {
	return tablestore.TableRef{Base: c.baseID, Table: c.table}
}
