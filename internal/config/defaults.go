package config

const (
	defaultDataDir            = "data"
	defaultPluginRoot         = "plugins/core"
	defaultLocaleDir          = "translations"
	defaultStoreKind          = StoreAirtable
	defaultAirtableBaseURL    = "https://api.airtable.com"
	defaultSQLiteSnapshot     = "snapshot.db"
	defaultTranslationBase    = "translation"
	defaultTranslationTable   = "translations"
	defaultPipelineFanOut     = 8
	defaultWatchDebounceMilli = 300
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 14
)

// Store kinds understood by tablestore.Open.
const (
	StoreAirtable = "airtable"
	StoreFixtures = "fixtures"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			PluginRoot: defaultPluginRoot,
			LocaleDir:  defaultLocaleDir,
			CacheDir:   defaultCacheDir(),
		},
		Store: Store{
			Kind:    defaultStoreKind,
			BaseURL: defaultAirtableBaseURL,
			Bases:   map[string]string{},
		},
		Translation: Translation{
			Base:    defaultTranslationBase,
			Table:   defaultTranslationTable,
			Locales: []string{"fr"},
		},
		Pipeline: Pipeline{
			Concurrency: defaultPipelineFanOut,
		},
		Watch: Watch{
			DebounceMillis: defaultWatchDebounceMilli,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
