package translate

import (
	"sort"
	"strings"

	"contentkit/internal/tablestore"
)

// keyField is the translation table column holding the resolution key.
const keyField = "string"

// Table is the translation table indexed by resolution key.
type Table struct {
	rows    map[string]tablestore.Row
	strings []string
}

// NewTable indexes rows by their "string" field. Rows without one are
// ignored; duplicate strings keep the row with the smallest record id.
func NewTable(rows []tablestore.Row) *Table {
	t := &Table{rows: make(map[string]tablestore.Row, len(rows))}
	for _, row := range rows {
		key, ok := row.String(keyField)
		if !ok || key == "" {
			continue
		}
		if existing, dup := t.rows[key]; dup && existing.ID <= row.ID {
			continue
		}
		t.rows[key] = row
	}
	t.strings = make([]string, 0, len(t.rows))
	for key := range t.rows {
		t.strings = append(t.strings, key)
	}
	sort.Strings(t.strings)
	return t
}

// Len returns the number of distinct resolution keys.
func (t *Table) Len() int { return len(t.strings) }

// Row returns the row for an exact resolution key.
func (t *Table) Row(key string) (tablestore.Row, bool) {
	row, ok := t.rows[key]
	return row, ok
}

// Prefixed calls fn for every resolution key starting with prefix, in order.
func (t *Table) Prefixed(prefix string, fn func(key string)) {
	start := sort.SearchStrings(t.strings, prefix)
	for _, key := range t.strings[start:] {
		if !strings.HasPrefix(key, prefix) {
			return
		}
		fn(key)
	}
}
