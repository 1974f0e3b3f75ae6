package content

import (
	"sort"
	"strings"

	"contentkit/internal/tablestore"
)

type literalKind int

const (
	literalRaw literalKind = iota
	literalString
	literalBool
	literalInt
	literalList
)

type literal struct {
	field string
	kind  literalKind
}

// policy is the fixed per-table split between translatable and literal fields.
type policy struct {
	namespace string
	// idField is the natural business id; rows without it fall back to their record id.
	idField string
	// bareField, when set, is translated under the bare record key instead of "<key>:<field>".
	bareField    string
	translatable []string
	literals     []literal
}

func (p policy) recordKey(row tablestore.Row) string {
	if p.idField != "" {
		if id, ok := row.String(p.idField); ok && strings.TrimSpace(id) != "" {
			return strings.TrimSpace(id)
		}
	}
	return row.ID
}

// build renders one row as an output object and appends its translatable keys.
func (p policy) build(row tablestore.Row, recordKey string, keys *[]Key) map[string]any {
	out := make(map[string]any, len(p.translatable)+len(p.literals))
	if p.bareField != "" {
		if value, ok := row.String(p.bareField); ok && value != "" {
			out[outputName(p.bareField)] = recordKey
			*keys = append(*keys, Key{Namespace: p.namespace, Key: recordKey, Default: value})
		}
	}
	for _, field := range p.translatable {
		value, ok := row.String(field)
		if !ok || value == "" {
			continue
		}
		name := outputName(field)
		key := recordKey + ":" + name
		out[name] = key
		*keys = append(*keys, Key{Namespace: p.namespace, Key: key, Default: value})
	}
	for _, lit := range p.literals {
		name := outputName(lit.field)
		switch lit.kind {
		case literalBool:
			if row.Bool(lit.field) {
				out[name] = true
			}
		case literalInt:
			if n, ok := row.Int(lit.field); ok {
				out[name] = n
			}
		case literalList:
			if values := row.Strings(lit.field); len(values) > 0 {
				items := make([]any, len(values))
				for i, v := range values {
					items[i] = v
				}
				out[name] = items
			}
		case literalString:
			if value, ok := row.String(lit.field); ok && value != "" {
				out[name] = value
			}
		default:
			if row.Has(lit.field) {
				out[name] = row.Fields[lit.field]
			}
		}
	}
	return out
}

// outputName converts a snake_case column name to the camelCase name used in
// content files and translation keys.
func outputName(field string) string {
	parts := strings.Split(field, "_")
	var b strings.Builder
	b.Grow(len(field))
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 {
			b.WriteString(part)
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

type orderedItem struct {
	order    int
	hasOrder bool
	key      string
	value    map[string]any
}

func newOrderedItem(row tablestore.Row, orderField, key string, value map[string]any) orderedItem {
	order, ok := row.Int(orderField)
	return orderedItem{order: order, hasOrder: ok, key: key, value: value}
}

// sortOrdered sorts by the order field ascending. Items without an order go
// last; ties break on the record key.
func sortOrdered(items []orderedItem) []any {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.hasOrder != b.hasOrder {
			return a.hasOrder
		}
		if a.order != b.order {
			return a.order < b.order
		}
		return a.key < b.key
	})
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item.value
	}
	return out
}

func sortedRows(rows []tablestore.Row) []tablestore.Row {
	sorted := append([]tablestore.Row(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return sorted
}
