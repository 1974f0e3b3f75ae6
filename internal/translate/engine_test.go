package translate_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"contentkit/internal/extract"
	"contentkit/internal/pipeline"
	"contentkit/internal/tablestore"
	"contentkit/internal/testsupport"
	"contentkit/internal/translate"
)

var R = testsupport.R

type fixture struct {
	t          *testing.T
	extractDir string
	outputDir  string
	store      *tablestore.Memory
	counting   *testsupport.CountingStore
	engine     *translate.Engine
}

func newFixture(t *testing.T, rows ...tablestore.Row) *fixture {
	t.Helper()
	base := t.TempDir()
	store := tablestore.NewMemory()
	store.Put(testsupport.TranslationBaseID, "translations", rows)
	counting := testsupport.NewCountingStore(store)
	cache := translate.NewTableCache(counting, testsupport.TranslationBaseID, "translations")
	return &fixture{
		t:          t,
		extractDir: filepath.Join(base, "extract"),
		outputDir:  filepath.Join(base, "out"),
		store:      store,
		counting:   counting,
		engine:     translate.NewEngine(cache, 2, nil),
	}
}

func (f *fixture) extract(namespace string, file map[string]string) {
	f.t.Helper()
	testsupport.WriteJSON(f.t, extract.Path(f.extractDir, namespace), file)
}

func (f *fixture) run(locales []string, namespaces ...string) translate.Report {
	f.t.Helper()
	report, err := f.engine.Run(context.Background(), translate.Request{
		ExtractDirs: []string{f.extractDir},
		OutputDir:   f.outputDir,
		Locales:     locales,
		Namespaces:  namespaces,
	})
	if err != nil {
		f.t.Fatalf("Run: %v", err)
	}
	return report
}

func (f *fixture) output(locale, namespace string) map[string]string {
	f.t.Helper()
	values := map[string]string{}
	for k, v := range testsupport.ReadJSON(f.t, filepath.Join(f.outputDir, locale, namespace+".json")).(map[string]any) {
		values[k] = v.(string)
	}
	return values
}

func (f *fixture) requireNoOutput(locale, namespace string) {
	f.t.Helper()
	testsupport.RequireAbsent(f.t, filepath.Join(f.outputDir, locale, namespace+".json"))
}

func TestEndToEndPlainFrenchColumn(t *testing.T) {
	f := newFixture(t, R("rec1", "string", "A string to translate", "fr", "A string to translate in French"))
	f.extract("translation", map[string]string{"A string to translate": ""})

	f.run([]string{"fr"})

	want := map[string]string{"A string to translate": "A string to translate in French"}
	if got := f.output("fr", "translation"); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	raw := string(testsupport.ReadText(t, filepath.Join(f.outputDir, "fr", "translation.json")))
	if raw != "{\n  \"A string to translate\": \"A string to translate in French\"\n}\n" {
		t.Fatalf("unexpected serialization %q", raw)
	}
}

func TestEndToEndNamespacePriority(t *testing.T) {
	f := newFixture(t,
		R("rec1", "string", "adviceModules:my-advice:title", "fr@tu", "X", "en", "X en"),
		R("rec2", "string", "my-advice:title", "fr@tu", "Y", "en", "Y en"),
	)
	f.extract("adviceModules", map[string]string{"my-advice:title": ""})

	f.run([]string{"fr", "en"})

	if got := f.output("fr", "adviceModules"); !reflect.DeepEqual(got, map[string]string{"my-advice:title": "X"}) {
		t.Fatalf("unexpected fr output %v", got)
	}
	if got := f.output("en", "adviceModules"); !reflect.DeepEqual(got, map[string]string{"my-advice:title": "X en"}) {
		t.Fatalf("unexpected en output %v", got)
	}
}

func TestQualifiedRowWinsEvenWithoutValue(t *testing.T) {
	f := newFixture(t,
		R("rec1", "string", "ns:k", "en", "A"),
		R("rec2", "string", "k", "en", "B", "de", "B de"),
	)
	f.extract("ns", map[string]string{"k": ""})

	f.run([]string{"en", "de"})

	if got := f.output("en", "ns"); got["k"] != "A" {
		t.Fatalf("expected qualified value, got %v", got)
	}
	f.requireNoOutput("de", "ns")
}

func TestVariantDiscoveryIsExtractDriven(t *testing.T) {
	f := newFixture(t,
		R("rec1", "string", "k", "en", "base"),
		R("rec2", "string", "k_extra", "en", "X"),
		R("rec3", "string", "k_FEMININE_plural", "en", "chained"),
		R("rec4", "string", "kid", "en", "not a variant"),
		R("rec5", "string", "other_extra", "en", "unrelated"),
		R("rec6", "string", "k_", "en", "empty suffix"),
		R("rec7", "string", "ns:k_context", "en", "qualified only"),
	)
	f.extract("ns", map[string]string{"k": ""})

	f.run([]string{"en"})

	want := map[string]string{
		"k":                 "base",
		"k_extra":           "X",
		"k_FEMININE_plural": "chained",
		"k_context":         "qualified only",
	}
	if got := f.output("en", "ns"); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestVariantWithoutExtractedBaseIsIgnored(t *testing.T) {
	f := newFixture(t, R("rec1", "string", "k_extra", "en", "X"))
	f.extract("ns", map[string]string{"k_extra_base": "", "other": ""})

	f.run([]string{"en"})

	f.requireNoOutput("en", "ns")
}

func TestRegionFallbackIsSkipped(t *testing.T) {
	f := newFixture(t,
		R("rec1", "string", "k", "en", "Hello"),
		R("rec2", "string", "colour", "en", "color", "en_UK", "colour"),
		R("rec3", "string", "same", "en", "Same", "en_UK", "Same"),
	)
	f.extract("ns", map[string]string{"k": "", "colour": "", "same": ""})

	f.run([]string{"en", "en_UK"})

	if got := f.output("en", "ns"); !reflect.DeepEqual(got, map[string]string{"k": "Hello", "colour": "color", "same": "Same"}) {
		t.Fatalf("unexpected en output %v", got)
	}
	if got := f.output("en_UK", "ns"); !reflect.DeepEqual(got, map[string]string{"colour": "colour"}) {
		t.Fatalf("unexpected en_UK output %v", got)
	}
}

func TestRegionSkipAppliesWhenParentNotRequested(t *testing.T) {
	f := newFixture(t, R("rec1", "string", "k", "en", "Hello"))
	f.extract("ns", map[string]string{"k": ""})

	f.run([]string{"en_UK"})

	f.requireNoOutput("en_UK", "ns")
	f.requireNoOutput("en", "ns")
}

func TestFrenchInformalSkip(t *testing.T) {
	f := newFixture(t,
		R("rec1", "string", "Bonjour vous", "fr@tu", "Bonjour vous"),
		R("rec2", "string", "greeting", "fr@tu", "Salut", "fr", "Bonjour"),
		R("rec3", "string", "formal", "fr@tu", "Défaut formel"),
	)
	f.extract("ns", map[string]string{"Bonjour vous": "", "greeting": "Bonjour", "formal": "Défaut formel"})

	f.run([]string{"fr"})

	if got := f.output("fr", "ns"); !reflect.DeepEqual(got, map[string]string{"greeting": "Salut"}) {
		t.Fatalf("unexpected fr output %v", got)
	}
}

func TestUnknownLocaleProducesNothing(t *testing.T) {
	f := newFixture(t, R("rec1", "string", "k", "en", "Hello"))
	f.extract("ns", map[string]string{"k": ""})

	report := f.run([]string{"pt_BR"})

	f.requireNoOutput("pt_BR", "ns")
	if len(report.Written()) != 0 {
		t.Fatalf("expected no written files, got %+v", report.Files)
	}
}

func TestStaleOutputIsRemoved(t *testing.T) {
	f := newFixture(t, R("rec1", "string", "k", "en", "Hello"))
	f.extract("ns", map[string]string{"k": ""})
	f.run([]string{"en"})
	if got := f.output("en", "ns"); got["k"] != "Hello" {
		t.Fatalf("unexpected output %v", got)
	}

	f.store.Put(testsupport.TranslationBaseID, "translations", nil)
	f.engine.ResetCache()
	report := f.run([]string{"en"})

	f.requireNoOutput("en", "ns")
	if len(report.Files) != 1 || !report.Files[0].Removed {
		t.Fatalf("expected removal to be reported, got %+v", report.Files)
	}
}

func TestCacheFetchesOnceUntilReset(t *testing.T) {
	f := newFixture(t, R("rec1", "string", "k", "en", "Hello"))
	f.extract("ns", map[string]string{"k": ""})

	first := f.run([]string{"en"})
	second := f.run([]string{"en"})
	if first.CacheHit || !second.CacheHit {
		t.Fatalf("unexpected cache hits: first=%v second=%v", first.CacheHit, second.CacheHit)
	}
	if calls := f.counting.Calls(testsupport.TranslationBaseID, "translations"); calls != 1 {
		t.Fatalf("expected one fetch, got %d", calls)
	}

	f.store.Put(testsupport.TranslationBaseID, "translations", []tablestore.Row{R("rec1", "string", "k", "en", "Hi")})
	f.run([]string{"en"})
	if got := f.output("en", "ns"); got["k"] != "Hello" {
		t.Fatalf("expected cached value before reset, got %v", got)
	}

	f.engine.ResetCache()
	f.run([]string{"en"})
	if got := f.output("en", "ns"); got["k"] != "Hi" {
		t.Fatalf("expected refreshed value after reset, got %v", got)
	}
	if calls := f.counting.Calls(testsupport.TranslationBaseID, "translations"); calls != 2 {
		t.Fatalf("expected two fetches, got %d", calls)
	}
}

func TestNamespaceSelection(t *testing.T) {
	f := newFixture(t,
		R("rec1", "string", "a", "en", "A"),
		R("rec2", "string", "b", "en", "B"),
	)
	f.extract("first", map[string]string{"a": ""})
	f.extract("second", map[string]string{"b": ""})

	report := f.run([]string{"en"}, "second")

	if !reflect.DeepEqual(report.Namespaces, []string{"second"}) {
		t.Fatalf("unexpected namespaces %v", report.Namespaces)
	}
	f.requireNoOutput("en", "first")
	if got := f.output("en", "second"); got["b"] != "B" {
		t.Fatalf("unexpected output %v", got)
	}
}

func TestMultipleExtractDirsMerge(t *testing.T) {
	f := newFixture(t,
		R("rec1", "string", "a", "en", "A"),
		R("rec2", "string", "b", "en", "B"),
	)
	f.extract("ns", map[string]string{"a": ""})
	second := filepath.Join(t.TempDir(), "extract")
	testsupport.WriteJSON(t, extract.Path(second, "ns"), map[string]string{"b": ""})

	_, err := f.engine.Run(context.Background(), translate.Request{
		ExtractDirs: []string{f.extractDir, second},
		OutputDir:   f.outputDir,
		Locales:     []string{"en"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := f.output("en", "ns"); !reflect.DeepEqual(got, map[string]string{"a": "A", "b": "B"}) {
		t.Fatalf("unexpected merged output %v", got)
	}
}

func TestRunFailures(t *testing.T) {
	t.Run("unknown namespace", func(t *testing.T) {
		f := newFixture(t, R("rec1", "string", "k", "en", "Hello"))
		f.extract("ns", map[string]string{"k": ""})
		_, err := f.engine.Run(context.Background(), translate.Request{
			ExtractDirs: []string{f.extractDir},
			OutputDir:   f.outputDir,
			Locales:     []string{"en"},
			Namespaces:  []string{"ns", "missing"},
		})
		if !errors.Is(err, pipeline.ErrConfiguration) {
			t.Fatalf("expected configuration error, got %v", err)
		}
		f.requireNoOutput("en", "ns")
		if calls := f.counting.Calls(testsupport.TranslationBaseID, "translations"); calls != 0 {
			t.Fatalf("expected no fetch before failing, got %d", calls)
		}
	})

	t.Run("unreadable extract", func(t *testing.T) {
		f := newFixture(t, R("rec1", "string", "k", "en", "Hello"))
		f.extract("good", map[string]string{"k": ""})
		testsupport.WriteText(t, extract.Path(f.extractDir, "broken"), "{not json")
		_, err := f.engine.Run(context.Background(), translate.Request{
			ExtractDirs: []string{f.extractDir},
			OutputDir:   f.outputDir,
			Locales:     []string{"en"},
		})
		if !errors.Is(err, pipeline.ErrIO) {
			t.Fatalf("expected i/o error, got %v", err)
		}
		f.requireNoOutput("en", "good")
	})

	t.Run("unknown table", func(t *testing.T) {
		f := newFixture(t)
		f.extract("ns", map[string]string{"k": ""})
		engine := translate.NewEngine(translate.NewTableCache(f.store, testsupport.TranslationBaseID, "gone"), 0, nil)
		_, err := engine.Run(context.Background(), translate.Request{
			ExtractDirs: []string{f.extractDir},
			OutputDir:   f.outputDir,
			Locales:     []string{"en"},
		})
		if !errors.Is(err, pipeline.ErrConfiguration) || !errors.Is(err, tablestore.ErrUnknownTable) {
			t.Fatalf("expected unknown table configuration error, got %v", err)
		}
	})
}

func TestNewEngineFromConfigRejectsUnknownBase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	delete(cfg.Store.Bases, "translation")
	if _, err := translate.NewEngineFromConfig(cfg, tablestore.NewMemory(), nil); !errors.Is(err, pipeline.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	rows := []tablestore.Row{
		R("rec1", "string", "b", "en", "B", "fr@tu", "B fr"),
		R("rec2", "string", "a_x", "en", "AX"),
		R("rec3", "string", "a", "en", "A", "fr", "A fr"),
	}
	f := newFixture(t, rows...)
	f.extract("ns", map[string]string{"a": "", "b": ""})
	f.run([]string{"en", "fr"})
	first := string(testsupport.ReadText(t, filepath.Join(f.outputDir, "en", "ns.json")))

	reversed := []tablestore.Row{rows[2], rows[1], rows[0]}
	g := newFixture(t, reversed...)
	g.extract("ns", map[string]string{"a": "", "b": ""})
	g.run([]string{"fr", "en"})
	second := string(testsupport.ReadText(t, filepath.Join(g.outputDir, "en", "ns.json")))

	if first != second {
		t.Fatalf("output depends on row order:\n%s\nvs\n%s", first, second)
	}
	if first != "{\n  \"a\": \"A\",\n  \"a_x\": \"AX\",\n  \"b\": \"B\"\n}\n" {
		t.Fatalf("unexpected output %q", first)
	}
}
