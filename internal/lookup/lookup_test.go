package lookup_test

import (
	"path/filepath"
	"testing"

	"contentkit/internal/extract"
	"contentkit/internal/lookup"
	"contentkit/internal/testsupport"
)

func setup(t *testing.T) *lookup.Lookup {
	t.Helper()
	base := t.TempDir()
	extractDir := filepath.Join(base, "extract")
	outputDir := filepath.Join(base, "out")

	testsupport.WriteJSON(t, extract.Path(extractDir, "ns"), map[string]string{
		"greeting":       "Bonjour {{name}}",
		"Only default":   "",
		"item":           "{{count}} élément",
		"item_plural":    "{{count}} éléments",
		"colour":         "couleur",
		"regional":       "régional",
		"untranslated_x": "",
	})
	testsupport.WriteJSON(t, filepath.Join(outputDir, "en", "ns.json"), map[string]string{
		"greeting":    "Hello {{name}}",
		"item":        "{{count}} item",
		"item_plural": "{{count}} items",
		"colour":      "color",
	})
	testsupport.WriteJSON(t, filepath.Join(outputDir, "en_UK", "ns.json"), map[string]string{
		"colour": "colour",
	})
	testsupport.WriteJSON(t, filepath.Join(outputDir, "fr", "ns.json"), map[string]string{
		"greeting": "Salut {{name}}",
	})
	return lookup.New([]string{extractDir}, outputDir)
}

func resolve(t *testing.T, l *lookup.Lookup, q lookup.Query) lookup.Result {
	t.Helper()
	if q.Namespace == "" {
		q.Namespace = "ns"
	}
	res, err := l.Resolve(q)
	if err != nil {
		t.Fatalf("Resolve(%+v): %v", q, err)
	}
	return res
}

func TestResolveWalksFallbackChain(t *testing.T) {
	l := setup(t)

	tests := []struct {
		name   string
		query  lookup.Query
		value  string
		origin string
	}{
		{name: "specific locale", query: lookup.Query{Key: "colour", Locale: "en_UK"}, value: "colour", origin: "en_UK"},
		{name: "parent locale", query: lookup.Query{Key: "greeting", Locale: "en_UK", Data: map[string]any{"name": "Ada"}}, value: "Hello Ada", origin: "en"},
		{name: "default", query: lookup.Query{Key: "regional", Locale: "en_UK"}, value: "régional", origin: lookup.OriginDefault},
		{name: "empty default shows key", query: lookup.Query{Key: "Only default", Locale: "fr"}, value: "Only default", origin: lookup.OriginDefault},
		{name: "french informal", query: lookup.Query{Key: "greeting", Locale: "fr", Data: map[string]any{"name": "Léa"}}, value: "Salut Léa", origin: "fr"},
		{name: "unknown key", query: lookup.Query{Key: "missing", Locale: "fr"}, value: "missing", origin: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := resolve(t, l, tc.query)
			if res.Value != tc.value || res.Origin != tc.origin {
				t.Fatalf("got %q from %q, want %q from %q", res.Value, res.Origin, tc.value, tc.origin)
			}
		})
	}
}

func TestResolvePluralSelection(t *testing.T) {
	l := setup(t)
	count := func(n int) *int { return &n }

	tests := []struct {
		locale string
		count  int
		want   string
	}{
		{locale: "en", count: 1, want: "1 item"},
		{locale: "en", count: 0, want: "0 items"},
		{locale: "en", count: 3, want: "3 items"},
		{locale: "fr", count: 0, want: "0 élément"},
		{locale: "fr", count: 1, want: "1 élément"},
		{locale: "fr", count: 2, want: "2 éléments"},
	}
	for _, tc := range tests {
		res := resolve(t, l, lookup.Query{Key: "item", Locale: tc.locale, Count: count(tc.count)})
		if res.Value != tc.want {
			t.Fatalf("%s count=%d: got %q want %q", tc.locale, tc.count, res.Value, tc.want)
		}
	}
}

func TestResolveRequiresNamespaceAndKey(t *testing.T) {
	l := setup(t)
	if _, err := l.Resolve(lookup.Query{Namespace: " ", Key: "k"}); err == nil {
		t.Fatal("expected error for empty namespace")
	}
}
