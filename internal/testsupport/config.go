package testsupport

import (
	"path/filepath"
	"testing"

	"contentkit/internal/config"
)

// Base ids the generated config maps the default aliases to.
const (
	CoreBaseID        = "appCore"
	TranslationBaseID = "appTranslation"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It uses the fixtures store and maps the "core" and "translation" aliases.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.PluginRoot = filepath.Join(base, "plugins", "core")
	cfgVal.Paths.LocaleDir = filepath.Join(base, "translations")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.ExtractDirs = []string{cfgVal.ExtractDir()}
	cfgVal.Store.Kind = config.StoreFixtures
	cfgVal.Store.FixturesDir = filepath.Join(base, "tables")
	cfgVal.Store.SQLitePath = filepath.Join(base, "cache", "snapshot.db")
	cfgVal.Store.Bases = map[string]string{
		"core":        CoreBaseID,
		"translation": TranslationBaseID,
	}
	cfgVal.Pipeline.Concurrency = 4

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithLocales overrides the requested translation locales.
func WithLocales(locales ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Translation.Locales = append([]string(nil), locales...)
	}
}

// WithStoreKind switches the configured table store backend.
func WithStoreKind(kind string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Kind = kind
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
