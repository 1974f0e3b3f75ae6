package translate

import "sort"

// Index maps each extracted base key of one namespace to the variant strings
// the table holds for it. It is built once per namespace and run.
type Index struct {
	namespace string
	variants  map[string][]string
	all       []string
}

// BuildIndex discovers variants for every base key. A variant is the key
// itself or the key followed by "_" and a non-empty suffix, found either
// unqualified or behind the "<namespace>:" prefix. Table strings that extend
// no extracted key are never indexed.
func BuildIndex(table *Table, namespace string, baseKeys []string) *Index {
	idx := &Index{namespace: namespace, variants: make(map[string][]string, len(baseKeys))}
	qualifier := namespace + ":"
	seenAll := map[string]bool{}

	for _, base := range baseKeys {
		found := map[string]bool{}
		collect := func(variant string) {
			if variant == base || (len(variant) > len(base)+1 && variant[len(base)] == '_') {
				found[variant] = true
			}
		}
		table.Prefixed(base, collect)
		table.Prefixed(qualifier+base, func(key string) {
			collect(key[len(qualifier):])
		})
		if len(found) == 0 {
			continue
		}
		variants := make([]string, 0, len(found))
		for variant := range found {
			variants = append(variants, variant)
			if !seenAll[variant] {
				seenAll[variant] = true
				idx.all = append(idx.all, variant)
			}
		}
		sort.Strings(variants)
		idx.variants[base] = variants
	}
	sort.Strings(idx.all)
	return idx
}

// Variants returns the variants discovered for a base key.
func (idx *Index) Variants(base string) []string {
	return idx.variants[base]
}

// All returns every discovered variant across base keys, sorted and unique.
func (idx *Index) All() []string {
	return idx.all
}
