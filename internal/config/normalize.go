package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeTranslation()
	c.normalizePipeline()
	return c.normalizeLogging()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.PluginRoot) == "" {
		c.Paths.PluginRoot = defaultPluginRoot
	}
	if c.Paths.PluginRoot, err = expandPath(c.Paths.PluginRoot); err != nil {
		return fmt.Errorf("paths.plugin_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.LocaleDir) == "" {
		c.Paths.LocaleDir = defaultLocaleDir
	}
	if c.Paths.LocaleDir, err = expandPath(c.Paths.LocaleDir); err != nil {
		return fmt.Errorf("paths.locale_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}

	dirs := make([]string, 0, len(c.Paths.ExtractDirs))
	seen := make(map[string]struct{}, len(c.Paths.ExtractDirs))
	for _, dir := range c.Paths.ExtractDirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		expanded, err := expandPath(strings.TrimSpace(dir))
		if err != nil {
			return fmt.Errorf("paths.extract_dirs: %w", err)
		}
		if _, exists := seen[expanded]; exists {
			continue
		}
		seen[expanded] = struct{}{}
		dirs = append(dirs, expanded)
	}
	if len(dirs) == 0 {
		dirs = []string{c.ExtractDir()}
	}
	c.Paths.ExtractDirs = dirs
	return nil
}

func (c *Config) normalizeStore() error {
	c.Store.Kind = strings.ToLower(strings.TrimSpace(c.Store.Kind))
	if c.Store.Kind == "" {
		c.Store.Kind = defaultStoreKind
	}
	c.Store.APIKey = strings.TrimSpace(c.Store.APIKey)
	if c.Store.APIKey == "" {
		if value, ok := os.LookupEnv("AIRTABLE_API_KEY"); ok {
			c.Store.APIKey = strings.TrimSpace(value)
		}
	}
	c.Store.BaseURL = strings.TrimRight(strings.TrimSpace(c.Store.BaseURL), "/")
	if c.Store.BaseURL == "" {
		c.Store.BaseURL = defaultAirtableBaseURL
	}
	c.Store.PostgresDSN = strings.TrimSpace(c.Store.PostgresDSN)
	if c.Store.PostgresDSN == "" {
		if value, ok := os.LookupEnv("CONTENTKIT_POSTGRES_DSN"); ok {
			c.Store.PostgresDSN = strings.TrimSpace(value)
		}
	}

	var err error
	if c.Store.FixturesDir, err = expandPath(strings.TrimSpace(c.Store.FixturesDir)); err != nil {
		return fmt.Errorf("store.fixtures_dir: %w", err)
	}
	if strings.TrimSpace(c.Store.SQLitePath) == "" {
		c.Store.SQLitePath = filepath.Join(c.Paths.CacheDir, defaultSQLiteSnapshot)
	}
	if c.Store.SQLitePath, err = expandPath(c.Store.SQLitePath); err != nil {
		return fmt.Errorf("store.sqlite_path: %w", err)
	}

	bases := make(map[string]string, len(c.Store.Bases))
	for alias, id := range c.Store.Bases {
		alias = strings.TrimSpace(alias)
		if alias == "" {
			continue
		}
		bases[alias] = strings.TrimSpace(id)
	}
	c.Store.Bases = bases
	return nil
}

func (c *Config) normalizeTranslation() {
	c.Translation.Base = strings.TrimSpace(c.Translation.Base)
	if c.Translation.Base == "" {
		c.Translation.Base = defaultTranslationBase
	}
	c.Translation.Table = strings.TrimSpace(c.Translation.Table)
	if c.Translation.Table == "" {
		c.Translation.Table = defaultTranslationTable
	}
	c.Translation.Locales = NormalizeLocales(c.Translation.Locales)
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.Concurrency <= 0 {
		c.Pipeline.Concurrency = defaultPipelineFanOut
	}
	if c.Watch.DebounceMillis <= 0 {
		c.Watch.DebounceMillis = defaultWatchDebounceMilli
	}
	c.Watch.RefreshSchedule = strings.TrimSpace(c.Watch.RefreshSchedule)
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	levels := make(map[string]string, len(c.Logging.ComponentLevels))
	for component, level := range c.Logging.ComponentLevels {
		component = strings.TrimSpace(component)
		if component == "" {
			continue
		}
		levels[component] = strings.ToLower(strings.TrimSpace(level))
	}
	c.Logging.ComponentLevels = levels

	var err error
	if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}

// NormalizeLocales trims locale codes and drops blanks and duplicates while
// keeping the caller's order.
func NormalizeLocales(codes []string) []string {
	locales := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, exists := seen[code]; exists {
			continue
		}
		seen[code] = struct{}{}
		locales = append(locales, code)
	}
	return locales
}
