package content_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"contentkit/internal/config"
	"contentkit/internal/content"
	"contentkit/internal/extract"
	"contentkit/internal/pipeline"
	"contentkit/internal/tablestore"
	"contentkit/internal/testsupport"
)

var R = testsupport.R

func seedCore(store *tablestore.Memory) {
	base := testsupport.CoreBaseID
	store.Put(base, "advice_modules", []tablestore.Row{
		R("rec2", "advice_id", "network", "title", "Réseau", "short_title", "Réseau court",
			"emoji", "🤝", "is_ready_for_prod", true, "user_gain_callout", "Gain"),
		R("rec1", "advice_id", "cv", "title", "CV", "goal", "Améliorer votre CV"),
	})
	store.Put(base, "email_templates", []tablestore.Row{
		R("recB", "title", "Relance", "advice_ids", []any{"network", "cv"}, "url", "https://example.com"),
		R("recA", "title", "Candidature", "content", "Bonjour", "advice_ids", []any{"network"}, "filters", []any{"for-young"}),
		R("recC", "title", "Orphelin"),
	})
	store.Put(base, "strategies", []tablestore.Row{
		R("recS2", "strategy_id", "s-late", "title", "Plus tard", "order", 2.0, "goals", []any{"recG2", "recG1", "recMissing"}),
		R("recS1", "strategy_id", "s-first", "title", "Premier", "header", "En-tête", "order", 1.0, "score", 3.0, "is_secondary", true),
	})
	store.Put(base, "strategy_goals", []tablestore.Row{
		R("recG1", "goal_id", "g1", "content", "Objectif un", "order", 2.0),
		R("recG2", "goal_id", "g2", "content", "Objectif deux", "step_title", "Étape", "order", 1.0),
	})
	store.Put(base, "diagnostic_categories", []tablestore.Row{
		R("recD2", "category_id", "second", "title", "Deuxième", "order", 5.0),
		R("recD1", "category_id", "first", "title", "Premier", "metric_title", "Métrique", "order", 1.0,
			"are_strategies_for_alpha_only", true),
	})
	store.Put(base, "testimonials", []tablestore.Row{
		R("recT1", "content", "Super outil", "author_name", "Alice", "rating", 5.0, "preferred_job_group_ids", []any{"K1", "K2"}),
	})
}

func newEngine(t *testing.T, cfg *config.Config, store tablestore.Store) *content.Engine {
	t.Helper()
	return content.NewEngine(cfg, store, nil)
}

func TestRunWritesArtifactsAndExtracts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := tablestore.NewMemory()
	seedCore(store)

	report, err := newEngine(t, cfg, store).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Artifacts) != 5 || report.Tables != 6 {
		t.Fatalf("unexpected report %+v", report)
	}

	got := string(testsupport.ReadText(t, filepath.Join(cfg.Paths.DataDir, "advice_modules.json")))
	want := `{
  "cv": {
    "goal": "cv:goal",
    "title": "cv:title"
  },
  "network": {
    "emoji": "🤝",
    "isReadyForProd": true,
    "shortTitle": "network:shortTitle",
    "title": "network:title",
    "userGainCallout": "Gain"
  }
}
`
	if got != want {
		t.Fatalf("unexpected advice modules:\n%s", got)
	}

	advice, err := extract.Read(cfg.ExtractDir(), "adviceModules")
	if err != nil {
		t.Fatalf("read extract: %v", err)
	}
	wantAdvice := extract.File{
		"cv:goal":            "Améliorer votre CV",
		"cv:title":           "CV",
		"network:shortTitle": "Réseau court",
		"network:title":      "Réseau",
	}
	if !reflect.DeepEqual(advice, wantAdvice) {
		t.Fatalf("unexpected advice extract %v", advice)
	}

	testimonials := testsupport.ReadJSON(t, filepath.Join(cfg.Paths.DataDir, "testimonials.json"))
	wantTestimonials := map[string]any{
		"recT1": map[string]any{
			"authorName":           "Alice",
			"content":              "recT1",
			"preferredJobGroupIds": []any{"K1", "K2"},
			"rating":               float64(5),
		},
	}
	if !reflect.DeepEqual(testimonials, wantTestimonials) {
		t.Fatalf("unexpected testimonials %v", testimonials)
	}
	bare, err := extract.Read(cfg.ExtractDir(), "testimonials")
	if err != nil {
		t.Fatalf("read testimonials extract: %v", err)
	}
	if bare["recT1"] != "Super outil" {
		t.Fatalf("expected bare record key, got %v", bare)
	}

	categories := testsupport.ReadJSON(t, filepath.Join(cfg.Paths.DataDir, "diagnostic_categories.json")).([]any)
	first := categories[0].(map[string]any)
	if first["categoryId"] != "first" || first["areStrategiesForAlphaOnly"] != true || first["metricTitle"] != "Métrique" {
		t.Fatalf("unexpected first category %v", first)
	}
	if _, hasOrder := first["order"]; hasOrder {
		t.Fatal("expected order field to be dropped")
	}
	if _, err := extract.Read(cfg.ExtractDir(), "categories"); err != nil {
		t.Fatalf("expected categories namespace extract: %v", err)
	}
}

func TestRunGroupsEmailTemplatesByEachAdviceID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := tablestore.NewMemory()
	seedCore(store)

	report, err := newEngine(t, cfg, store).Run(context.Background(), []string{"emailTemplates"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Artifacts[0].Dropped != 1 {
		t.Fatalf("expected the template without advice ids to be dropped, got %+v", report.Artifacts[0])
	}

	templates := testsupport.ReadJSON(t, filepath.Join(cfg.Paths.DataDir, "email_templates.json")).(map[string]any)
	if len(templates) != 2 {
		t.Fatalf("expected two groups, got %v", templates)
	}
	network := templates["network"].([]any)
	if len(network) != 2 {
		t.Fatalf("expected both templates under network, got %v", network)
	}
	if network[0].(map[string]any)["title"] != "recA:title" || network[1].(map[string]any)["title"] != "recB:title" {
		t.Fatalf("expected templates sorted by record id, got %v", network)
	}
	if network[0].(map[string]any)["filters"].([]any)[0] != "for-young" {
		t.Fatalf("expected literal filters, got %v", network[0])
	}
	cv := templates["cv"].([]any)
	if len(cv) != 1 || cv[0].(map[string]any)["url"] != "https://example.com" {
		t.Fatalf("unexpected cv group %v", cv)
	}

	keys, err := extract.Read(cfg.ExtractDir(), "emailTemplates")
	if err != nil {
		t.Fatalf("read extract: %v", err)
	}
	if _, ok := keys["recC:title"]; ok {
		t.Fatal("dropped template must not emit keys")
	}
	if keys["recA:content"] != "Bonjour" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestRunJoinsAndOrdersStrategies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := tablestore.NewMemory()
	seedCore(store)

	if _, err := newEngine(t, cfg, store).Run(context.Background(), []string{"strategies"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	strategies := testsupport.ReadJSON(t, filepath.Join(cfg.Paths.DataDir, "strategies.json")).([]any)
	if len(strategies) != 2 {
		t.Fatalf("unexpected strategies %v", strategies)
	}
	first := strategies[0].(map[string]any)
	if first["strategyId"] != "s-first" || first["score"] != float64(3) || first["isSecondary"] != true {
		t.Fatalf("unexpected first strategy %v", first)
	}
	if goals := first["goals"].([]any); len(goals) != 0 {
		t.Fatalf("expected empty goals array, got %v", goals)
	}
	late := strategies[1].(map[string]any)
	goals := late["goals"].([]any)
	if len(goals) != 2 {
		t.Fatalf("expected missing goal to be excluded, got %v", goals)
	}
	if goals[0].(map[string]any)["goalId"] != "g2" || goals[1].(map[string]any)["goalId"] != "g1" {
		t.Fatalf("expected goals sorted by order, got %v", goals)
	}
	if goals[0].(map[string]any)["stepTitle"] != "g2:stepTitle" {
		t.Fatalf("unexpected goal keys %v", goals[0])
	}

	keys, err := extract.Read(cfg.ExtractDir(), "strategies")
	if err != nil {
		t.Fatalf("read extract: %v", err)
	}
	for _, key := range []string{"s-first:title", "s-first:header", "s-late:title", "g1:content", "g2:content", "g2:stepTitle"} {
		if _, ok := keys[key]; !ok {
			t.Fatalf("expected key %q in %v", key, keys)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := tablestore.NewMemory()
	seedCore(store)
	engine := newEngine(t, cfg, store)

	if _, err := engine.Run(context.Background(), nil); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	before := snapshotTree(t, testsupport.BaseDir(cfg))

	report, err := engine.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	after := snapshotTree(t, testsupport.BaseDir(cfg))
	if !reflect.DeepEqual(before, after) {
		t.Fatal("expected byte-identical output on rerun")
	}
	for _, a := range report.Artifacts {
		if a.Changed {
			t.Fatalf("artifact %s reported a change on rerun", a.Name)
		}
	}
	for _, ns := range report.Namespaces {
		if ns.Changed || ns.Added != 0 || ns.Updated != 0 {
			t.Fatalf("namespace %s reported a change on rerun: %+v", ns.Namespace, ns)
		}
	}
}

func TestSelectiveRunLeavesOtherFilesUntouched(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := tablestore.NewMemory()
	seedCore(store)

	adviceFile := filepath.Join(cfg.Paths.DataDir, "advice_modules.json")
	testsupport.WriteText(t, adviceFile, "hand edited\n")
	strategiesExtract := extract.Path(cfg.ExtractDir(), "strategies")
	testsupport.WriteText(t, strategiesExtract, "{\"keep\": \"me\"}\n")

	report, err := newEngine(t, cfg, store).Run(context.Background(), []string{"testimonials"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Artifacts) != 1 || len(report.Namespaces) != 1 || report.Namespaces[0].Namespace != "testimonials" {
		t.Fatalf("unexpected report %+v", report)
	}
	if got := string(testsupport.ReadText(t, adviceFile)); got != "hand edited\n" {
		t.Fatalf("unselected artifact was touched: %q", got)
	}
	if got := string(testsupport.ReadText(t, strategiesExtract)); got != "{\"keep\": \"me\"}\n" {
		t.Fatalf("unselected namespace was touched: %q", got)
	}
	for _, name := range []string{"email_templates.json", "strategies.json", "diagnostic_categories.json"} {
		testsupport.RequireAbsent(t, filepath.Join(cfg.Paths.DataDir, name))
	}
	testsupport.RequireAbsent(t, extract.Path(cfg.ExtractDir(), "adviceModules"))
}

func TestEmptyTablesStillProduceContainers(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := tablestore.NewMemory()
	for _, table := range []string{"advice_modules", "email_templates", "strategies", "strategy_goals", "diagnostic_categories", "testimonials"} {
		store.Put(testsupport.CoreBaseID, table, nil)
	}

	if _, err := newEngine(t, cfg, store).Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expected := map[string]string{
		"advice_modules.json":        "{}\n",
		"email_templates.json":       "{}\n",
		"strategies.json":            "[]\n",
		"diagnostic_categories.json": "[]\n",
		"testimonials.json":          "{}\n",
	}
	for name, want := range expected {
		if got := string(testsupport.ReadText(t, filepath.Join(cfg.Paths.DataDir, name))); got != want {
			t.Fatalf("%s: got %q want %q", name, got, want)
		}
	}
	if got := string(testsupport.ReadText(t, extract.Path(cfg.ExtractDir(), "adviceModules"))); got != "{}\n" {
		t.Fatalf("expected empty extract file, got %q", got)
	}
}

func TestRunFailsWithoutWritingOnConfigurationErrors(t *testing.T) {
	tests := []struct {
		name    string
		names   []string
		mutate  func(*config.Config, *tablestore.Memory)
		wantErr error
		wantMsg string
	}{
		{
			name:    "unknown table",
			mutate:  func(_ *config.Config, s *tablestore.Memory) { s.Put(testsupport.CoreBaseID, "strategy_goals", nil) },
			names:   []string{"testimonials", "strategies"},
			wantErr: tablestore.ErrUnknownTable,
			wantMsg: "core/strategies",
		},
		{
			name: "unknown base id",
			mutate: func(c *config.Config, _ *tablestore.Memory) {
				c.Store.Bases["core"] = "appGone"
			},
			wantErr: tablestore.ErrUnknownBase,
			wantMsg: "appGone",
		},
		{
			name:    "unknown base alias",
			mutate:  func(c *config.Config, _ *tablestore.Memory) { delete(c.Store.Bases, "core") },
			wantMsg: `unknown base "core"`,
		},
		{
			name:    "unknown artifact",
			names:   []string{"testimonials", "nope"},
			wantMsg: `unknown artifact "nope"`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t)
			store := tablestore.NewMemory()
			store.Put(testsupport.CoreBaseID, "testimonials", []tablestore.Row{R("recT1", "content", "Hi")})
			if tc.mutate != nil {
				tc.mutate(cfg, store)
			}

			_, err := newEngine(t, cfg, store).Run(context.Background(), tc.names)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, pipeline.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v in chain, got %v", tc.wantErr, err)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("expected %q in %q", tc.wantMsg, err.Error())
			}
			testsupport.RequireAbsent(t, filepath.Join(cfg.Paths.DataDir, "testimonials.json"))
			testsupport.RequireAbsent(t, extract.Path(cfg.ExtractDir(), "testimonials"))
		})
	}
}

func TestRunReadsFixtureStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteTable(t, cfg, testsupport.CoreBaseID, "diagnostic_categories",
		R("rec1", "category_id", "a", "title", "A", "order", 1.0),
	)
	store, err := tablestore.Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	if _, err := newEngine(t, cfg, store).Run(context.Background(), []string{"diagnosticCategories"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	keys, err := extract.Read(cfg.ExtractDir(), "categories")
	if err != nil {
		t.Fatalf("read extract: %v", err)
	}
	if keys["a:title"] != "A" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestRegistrySelect(t *testing.T) {
	registry := content.DefaultRegistry()
	selected, err := registry.Select([]string{"strategies", "testimonials", "strategies"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(selected) != 2 || selected[0].Name != "strategies" || selected[1].Name != "testimonials" {
		t.Fatalf("unexpected selection %+v", selected)
	}
	sources := content.Sources(selected)
	if len(sources) != 3 {
		t.Fatalf("expected 3 distinct sources, got %v", sources)
	}
	want := []string{"adviceModules", "categories", "emailTemplates", "strategies", "testimonials"}
	if got := registry.Namespaces(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected namespaces %v", got)
	}
}

func snapshotTree(t *testing.T, root string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[path] = string(data) + info.ModTime().String()
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	return files
}
