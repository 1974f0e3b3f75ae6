package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the on-disk roots read and written by the pipeline.
type Paths struct {
	DataDir     string   `toml:"data_dir"`
	PluginRoot  string   `toml:"plugin_root"`
	ExtractDirs []string `toml:"extract_dirs"`
	LocaleDir   string   `toml:"locale_dir"`
	CacheDir    string   `toml:"cache_dir"`
}

// Store selects and configures the remote tabular content store.
type Store struct {
	Kind        string            `toml:"kind"`
	APIKey      string            `toml:"api_key"`
	BaseURL     string            `toml:"base_url"`
	FixturesDir string            `toml:"fixtures_dir"`
	SQLitePath  string            `toml:"sqlite_path"`
	PostgresDSN string            `toml:"postgres_dsn"`
	Bases       map[string]string `toml:"bases"`
}

// Translation configures the human translation table and requested locales.
type Translation struct {
	Base    string   `toml:"base"`
	Table   string   `toml:"table"`
	Locales []string `toml:"locales"`
}

// Pipeline contains knobs shared by both engines.
type Pipeline struct {
	Concurrency int `toml:"concurrency"`
}

// Watch configures the long-lived translate watcher.
type Watch struct {
	// RefreshSchedule is a cron expression; empty disables scheduled cache resets.
	RefreshSchedule string `toml:"refresh_schedule"`
	DebounceMillis  int    `toml:"debounce_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format          string            `toml:"format"`
	Level           string            `toml:"level"`
	ComponentLevels map[string]string `toml:"component_levels"`
	// Dir receives one JSON log file per invocation when set.
	Dir           string `toml:"dir"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for contentkit.
//
// Configuration sections by subsystem:
//   - Paths: content, extract, and locale output directories
//   - Store: which remote table backend to read and its credentials
//   - Translation: translation table location and output locales
//   - Pipeline: fan-out limits
//   - Watch: translate watcher refresh schedule
//   - Logging: log format and levels
type Config struct {
	Paths       Paths       `toml:"paths"`
	Store       Store       `toml:"store"`
	Translation Translation `toml:"translation"`
	Pipeline    Pipeline    `toml:"pipeline"`
	Watch       Watch       `toml:"watch"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/contentkit/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	// .env is optional; variables may come from the environment directly.
	_ = godotenv.Load()

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/contentkit/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("contentkit.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the engines write into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LocaleDir, c.Paths.CacheDir, c.ExtractDir()} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ExtractDir is the directory the content engine writes namespace extract files into.
func (c *Config) ExtractDir() string {
	return filepath.Join(c.Paths.PluginRoot, "i18n", "extract")
}

// BaseID resolves a base alias declared under [store.bases].
func (c *Config) BaseID(alias string) (string, bool) {
	id, ok := c.Store.Bases[strings.TrimSpace(alias)]
	if !ok || strings.TrimSpace(id) == "" {
		return "", false
	}
	return strings.TrimSpace(id), true
}

// BaseAliases returns the configured base aliases in lexical order.
func (c *Config) BaseAliases() []string {
	aliases := make([]string, 0, len(c.Store.Bases))
	for alias := range c.Store.Bases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "contentkit")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/contentkit"
	}
	return filepath.Join(home, ".cache", "contentkit")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
