package translate

import (
	"contentkit/internal/extract"
	"contentkit/internal/tablestore"
)

// Entry is one resolved output line. Key never carries a namespace prefix.
type Entry struct {
	Key   string
	Value string
}

// Resolver computes entries for one namespace.
type Resolver struct {
	namespace string
	table     *Table
	index     *Index
	defaults  extract.File
}

// NewResolver indexes the namespace's extracted keys against table.
func NewResolver(table *Table, namespace string, defaults extract.File) *Resolver {
	return &Resolver{
		namespace: namespace,
		table:     table,
		index:     BuildIndex(table, namespace, defaults.Keys()),
		defaults:  defaults,
	}
}

// Index exposes the variant index.
func (r *Resolver) Index() *Index { return r.index }

// Entries returns the non-redundant entries of a locale, sorted by key.
func (r *Resolver) Entries(locale Locale) []Entry {
	parent, hasParent := locale.ParentLocale()
	var entries []Entry
	for _, variant := range r.index.All() {
		value, ok := r.Resolve(variant, locale)
		if !ok {
			continue
		}
		if hasParent {
			if parentValue, ok := r.Resolve(variant, parent); ok && parentValue == value {
				continue
			}
		}
		if locale.Code == "fr" && value == r.defaultOf(variant) {
			continue
		}
		entries = append(entries, Entry{Key: variant, Value: value})
	}
	return entries
}

// Resolve finds the value of a variant for a locale, walking the parent chain.
func (r *Resolver) Resolve(variant string, locale Locale) (string, bool) {
	row, ok := r.winningRow(variant)
	if !ok {
		return "", false
	}
	for current := locale; ; {
		if value, ok := columnValue(row, current); ok {
			return value, true
		}
		parent, ok := current.ParentLocale()
		if !ok {
			return "", false
		}
		current = parent
	}
}

// winningRow prefers the namespace-qualified row. When one exists the
// unqualified row is ignored even if the qualified one lacks a value.
func (r *Resolver) winningRow(variant string) (tablestore.Row, bool) {
	if row, ok := r.table.Row(r.namespace + ":" + variant); ok {
		return row, true
	}
	return r.table.Row(variant)
}

// defaultOf is the extracted default, or the key itself when the default is
// empty since keys double as source strings.
func (r *Resolver) defaultOf(variant string) string {
	if value := r.defaults[variant]; value != "" {
		return value
	}
	return variant
}

func columnValue(row tablestore.Row, locale Locale) (string, bool) {
	for _, column := range locale.Columns() {
		if value, ok := row.String(column); ok && value != "" {
			return value, true
		}
	}
	return "", false
}
