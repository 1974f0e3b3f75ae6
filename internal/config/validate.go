package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if c.Pipeline.Concurrency <= 0 {
		return errors.New("pipeline.concurrency must be positive")
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must not be negative")
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Kind {
	case StoreAirtable:
		if c.Store.APIKey == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = "~/.config/contentkit/config.toml"
			}
			return fmt.Errorf("store.api_key is required for the airtable store. Set AIRTABLE_API_KEY env var or edit %s (create with 'contentkit config init')", defaultPath)
		}
	case StoreFixtures:
		if strings.TrimSpace(c.Store.FixturesDir) == "" {
			return errors.New("store.fixtures_dir must be set when store.kind is \"fixtures\"")
		}
	case StoreSQLite:
		if strings.TrimSpace(c.Store.SQLitePath) == "" {
			return errors.New("store.sqlite_path must be set when store.kind is \"sqlite\"")
		}
	case StorePostgres:
		if c.Store.PostgresDSN == "" {
			return errors.New("store.postgres_dsn must be set when store.kind is \"postgres\" (or set CONTENTKIT_POSTGRES_DSN)")
		}
	default:
		return fmt.Errorf("store.kind: unsupported value %q (expected airtable, fixtures, sqlite, or postgres)", c.Store.Kind)
	}
	for alias, id := range c.Store.Bases {
		if id == "" {
			return fmt.Errorf("store.bases.%s must not be empty", alias)
		}
	}
	return nil
}

func (c *Config) validateTranslation() error {
	if c.Translation.Base == "" {
		return errors.New("translation.base must be set")
	}
	if c.Translation.Table == "" {
		return errors.New("translation.table must be set")
	}
	for _, code := range c.Translation.Locales {
		if strings.ContainsAny(code, `/\ `) {
			return fmt.Errorf("translation.locales: invalid locale code %q", code)
		}
	}
	return nil
}
