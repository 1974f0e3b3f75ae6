package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"contentkit/internal/config"
	"contentkit/internal/testsupport"
)

var R = testsupport.R

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

// setupCLITestEnv writes a fixtures-backed config holding every core table
// and a small translation table.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithLocales("fr", "en"))
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("AIRTABLE_API_KEY", "")

	core := testsupport.CoreBaseID
	testsupport.WriteTable(t, cfg, core, "advice_modules",
		R("rec1", "advice_id", "network", "title", "Réseau", "goal", "Élargir votre réseau", "emoji", "🤝"),
	)
	testsupport.WriteTable(t, cfg, core, "email_templates",
		R("recA", "title", "Relance", "advice_ids", []any{"network"}),
	)
	testsupport.WriteTable(t, cfg, core, "strategies")
	testsupport.WriteTable(t, cfg, core, "strategy_goals")
	testsupport.WriteTable(t, cfg, core, "diagnostic_categories")
	testsupport.WriteTable(t, cfg, core, "testimonials")
	testsupport.WriteTable(t, cfg, testsupport.TranslationBaseID, cfg.Translation.Table,
		R("recT1", "string", "network:title", "fr@tu", "Ton réseau", "en", "Network"),
		R("recT2", "string", "network:goal", "en", "Grow your network"),
	)

	configPath := filepath.Join(base, "contentkit.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
