package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"contentkit/internal/config"
	"contentkit/internal/extract"
	"contentkit/internal/jsonfile"
	"contentkit/internal/logging"
	"contentkit/internal/pipeline"
	"contentkit/internal/tablestore"
)

const stageName = "translate"

// Request selects what a run reads and writes. Empty Namespaces means every
// namespace with an extract file in any of ExtractDirs.
type Request struct {
	ExtractDirs []string
	OutputDir   string
	Locales     []string
	Namespaces  []string
}

// FileReport describes the outcome for one (locale, namespace) pair.
type FileReport struct {
	Locale    string `json:"locale"`
	Namespace string `json:"namespace"`
	Path      string `json:"path"`
	Entries   int    `json:"entries"`
	Changed   bool   `json:"changed"`
	// Removed is set when a file from a previous run was deleted because the
	// pair no longer has entries.
	Removed bool `json:"removed"`
}

// Report summarizes a run.
type Report struct {
	Namespaces []string      `json:"namespaces"`
	Locales    []string      `json:"locales"`
	Files      []FileReport  `json:"files"`
	TableRows  int           `json:"table_rows"`
	CacheHit   bool          `json:"cache_hit"`
	Duration   time.Duration `json:"-"`
}

// Written returns the reports of pairs that have an output file.
func (r Report) Written() []FileReport {
	var out []FileReport
	for _, f := range r.Files {
		if f.Entries > 0 {
			out = append(out, f)
		}
	}
	return out
}

// Engine resolves translations against a cached translation table.
type Engine struct {
	cache  *TableCache
	limit  int
	logger *slog.Logger
}

// NewEngine builds an engine around cache. limit caps concurrent namespace
// work; zero means unlimited.
func NewEngine(cache *TableCache, limit int, logger *slog.Logger) *Engine {
	return &Engine{cache: cache, limit: limit, logger: logging.NewComponentLogger(logger, "translate")}
}

// NewEngineFromConfig resolves the translation base alias and wraps store in a cache.
func NewEngineFromConfig(cfg *config.Config, store tablestore.Store, logger *slog.Logger) (*Engine, error) {
	baseID, ok := cfg.BaseID(cfg.Translation.Base)
	if !ok {
		return nil, pipeline.Wrap(pipeline.ErrConfiguration, stageName, "resolve base",
			fmt.Sprintf("unknown base %q (add it under [store.bases])", cfg.Translation.Base), nil)
	}
	return NewEngine(NewTableCache(store, baseID, cfg.Translation.Table), cfg.Pipeline.Concurrency, logger), nil
}

// RequestFromConfig builds the default request for cfg.
func RequestFromConfig(cfg *config.Config, namespaces []string, locales []string) Request {
	if len(locales) == 0 {
		locales = cfg.Translation.Locales
	}
	return Request{
		ExtractDirs: cfg.Paths.ExtractDirs,
		OutputDir:   cfg.Paths.LocaleDir,
		Locales:     config.NormalizeLocales(locales),
		Namespaces:  namespaces,
	}
}

// ResetCache forces the next run to fetch the translation table again.
func (e *Engine) ResetCache() {
	e.cache.Reset()
}

// Cache exposes the engine's table cache.
func (e *Engine) Cache() *TableCache { return e.cache }

type namespaceInput struct {
	name     string
	defaults extract.File
}

type pairResult struct {
	locale    string
	namespace string
	entries   []Entry
}

// Run resolves and writes every requested (locale, namespace) pair. All
// extract files are read and the table is fetched before anything is written.
func (e *Engine) Run(ctx context.Context, req Request) (Report, error) {
	started := time.Now()
	ctx = pipeline.WithStage(ctx, stageName)
	logger := logging.WithContext(ctx, e.logger)
	e.enter(logger, pipeline.PhaseIdle)

	locales := e.parseLocales(logger, req.Locales)
	inputs, err := readNamespaces(req.ExtractDirs, req.Namespaces)
	if err != nil {
		return Report{}, err
	}
	report := Report{}
	for _, in := range inputs {
		report.Namespaces = append(report.Namespaces, in.name)
	}
	for _, l := range locales {
		report.Locales = append(report.Locales, l.Code)
	}

	source := e.cache.Source()
	e.enter(logger, pipeline.PhaseFetchingTable, logging.String("table", source.String()))
	table, hit, err := e.cache.Get(ctx)
	if err != nil {
		wrapped := classifyFetchError(source, err)
		logging.ErrorWithContext(logger, "translation table fetch failed", "table_fetch_failed",
			logging.String(logging.FieldPhase, pipeline.PhaseTableFetchFailed.String()),
			logging.String(logging.FieldErrorHint, "check translation.base, translation.table and store credentials"),
			logging.Error(err),
		)
		return Report{}, wrapped
	}
	report.TableRows = table.Len()
	report.CacheHit = hit
	e.enter(logger, pipeline.PhaseTableReady, logging.Int("strings", table.Len()), logging.Bool("cache_hit", hit))

	e.enter(logger, pipeline.PhaseResolvingEntries,
		logging.Int("namespaces", len(inputs)),
		logging.Int("locales", len(locales)),
	)
	resolved := make([][]pairResult, len(inputs))
	group, gctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		group.SetLimit(e.limit)
	}
	for i, in := range inputs {
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			resolver := NewResolver(table, in.name, in.defaults)
			nsLogger := logging.WithContext(pipeline.WithNamespace(gctx, in.name), e.logger)
			nsLogger.Debug("namespace indexed",
				logging.Int("keys", len(in.defaults)),
				logging.Int("variants", len(resolver.Index().All())),
			)
			pairs := make([]pairResult, 0, len(locales))
			for _, locale := range locales {
				pairs = append(pairs, pairResult{locale: locale.Code, namespace: in.name, entries: resolver.Entries(locale)})
			}
			resolved[i] = pairs
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Report{}, err
	}

	var pairs []pairResult
	for _, nsPairs := range resolved {
		pairs = append(pairs, nsPairs...)
	}
	e.enter(logger, pipeline.PhaseWritingFiles, logging.Int("pairs", len(pairs)))
	report.Files = make([]FileReport, len(pairs))
	group, _ = errgroup.WithContext(ctx)
	if e.limit > 0 {
		group.SetLimit(e.limit)
	}
	for i, pair := range pairs {
		group.Go(func() error {
			file, err := writePair(req.OutputDir, pair)
			if err != nil {
				return pipeline.Wrap(pipeline.ErrIO, stageName, "write locale file", pair.locale+"/"+pair.namespace, err)
			}
			report.Files[i] = file
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Report{}, err
	}

	sort.Slice(report.Files, func(i, j int) bool {
		a, b := report.Files[i], report.Files[j]
		if a.Locale != b.Locale {
			return a.Locale < b.Locale
		}
		return a.Namespace < b.Namespace
	})
	report.Duration = time.Since(started)
	e.enter(logger, pipeline.PhaseDone,
		logging.Int("files", len(report.Written())),
		logging.Duration("duration", report.Duration),
	)
	return report, nil
}

func (e *Engine) parseLocales(logger *slog.Logger, codes []string) []Locale {
	locales := make([]Locale, 0, len(codes))
	for _, code := range config.NormalizeLocales(codes) {
		locale := ParseLocale(code)
		if !locale.WellFormed() {
			logging.WarnWithContext(logger, "locale code is not a BCP 47 tag", "locale_malformed",
				logging.String(logging.FieldLocale, code),
				logging.String(logging.FieldImpact, "locale is still processed; check the column name in the translation table"),
			)
		}
		locales = append(locales, locale)
	}
	return locales
}

// readNamespaces loads every selected extract file. A namespace present in
// several directories merges their keys; the first directory wins on conflicts.
func readNamespaces(dirs []string, selected []string) ([]namespaceInput, error) {
	present := map[string][]string{}
	var discovered []string
	for _, dir := range dirs {
		names, err := extract.Namespaces(dir)
		if err != nil {
			return nil, pipeline.Wrap(pipeline.ErrIO, stageName, "list extracts", dir, err)
		}
		for _, name := range names {
			if _, ok := present[name]; !ok {
				discovered = append(discovered, name)
			}
			present[name] = append(present[name], dir)
		}
	}

	names := discovered
	if len(selected) > 0 {
		names = nil
		seen := map[string]bool{}
		for _, name := range selected {
			name = strings.TrimSpace(name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			if _, ok := present[name]; !ok {
				return nil, pipeline.Wrap(pipeline.ErrConfiguration, stageName, "select namespaces",
					fmt.Sprintf("no extract file for namespace %q in %s", name, strings.Join(dirs, ", ")), nil)
			}
			names = append(names, name)
		}
	}
	sort.Strings(names)

	inputs := make([]namespaceInput, 0, len(names))
	for _, name := range names {
		merged := extract.File{}
		for _, dir := range present[name] {
			file, err := extract.Read(dir, name)
			if err != nil {
				return nil, pipeline.Wrap(pipeline.ErrIO, stageName, "read extract", extract.Path(dir, name), err)
			}
			for key, value := range file {
				if _, exists := merged[key]; !exists {
					merged[key] = value
				}
			}
		}
		inputs = append(inputs, namespaceInput{name: name, defaults: merged})
	}
	return inputs, nil
}

func writePair(outputDir string, pair pairResult) (FileReport, error) {
	path := filepath.Join(outputDir, pair.locale, pair.namespace+".json")
	report := FileReport{Locale: pair.locale, Namespace: pair.namespace, Path: path, Entries: len(pair.entries)}
	if len(pair.entries) == 0 {
		removed, err := jsonfile.Remove(path)
		if err != nil {
			return report, err
		}
		report.Removed = removed
		report.Changed = removed
		return report, nil
	}
	values := make(map[string]string, len(pair.entries))
	for _, entry := range pair.entries {
		values[entry.Key] = entry.Value
	}
	changed, err := jsonfile.Write(path, values)
	if err != nil {
		return report, err
	}
	report.Changed = changed
	return report, nil
}

func classifyFetchError(source tablestore.TableRef, err error) error {
	var notFound *tablestore.NotFoundError
	if errors.As(err, &notFound) {
		return pipeline.Wrap(pipeline.ErrConfiguration, stageName, "fetch table", source.String(), err)
	}
	return pipeline.Wrap(pipeline.ErrFetch, stageName, "fetch table", source.String(), err)
}

func (e *Engine) enter(logger *slog.Logger, phase pipeline.Phase, attrs ...logging.Attr) {
	attrs = append([]logging.Attr{logging.String(logging.FieldPhase, phase.String())}, attrs...)
	logger.Debug("translate phase", logging.Args(attrs...)...)
}
