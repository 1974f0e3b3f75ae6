package main

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"contentkit/internal/pipeline"
	"contentkit/internal/testsupport"
)

func TestImportCommandWritesArtifacts(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"import"}, env.configPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	requireContains(t, stdout, "adviceModules:")
	requireContains(t, stdout, "Imported 5 artifacts from 6 tables (2 rows)")

	modules, ok := testsupport.ReadJSON(t, filepath.Join(env.cfg.Paths.DataDir, "advice_modules.json")).(map[string]any)
	if !ok {
		t.Fatalf("expected advice modules object")
	}
	network, ok := modules["network"].(map[string]any)
	if !ok || network["title"] != "network:title" || network["emoji"] != "🤝" {
		t.Fatalf("unexpected network module %v", modules["network"])
	}

	extract, ok := testsupport.ReadJSON(t, filepath.Join(env.cfg.ExtractDir(), "adviceModules.json")).(map[string]any)
	if !ok || extract["network:title"] != "Réseau" {
		t.Fatalf("unexpected extract %v", extract)
	}
}

func TestImportCommandJSONReport(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"import", "adviceModules", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	var report struct {
		Tables    int `json:"tables"`
		Artifacts []struct {
			Name    string `json:"name"`
			Keys    int    `json:"keys"`
			Changed bool   `json:"changed"`
		} `json:"artifacts"`
	}
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("decode report: %v (%q)", err, stdout)
	}
	if report.Tables != 1 || len(report.Artifacts) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if got := report.Artifacts[0]; got.Name != "adviceModules" || got.Keys != 2 || !got.Changed {
		t.Fatalf("unexpected artifact report %+v", got)
	}
	testsupport.RequireAbsent(t, filepath.Join(env.cfg.Paths.DataDir, "strategies.json"))
}

func TestImportCommandRejectsUnknownArtifact(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"import", "nope"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown artifact")
	}
	if !errors.Is(err, pipeline.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	requireContains(t, err.Error(), `unknown artifact "nope"`)
}
