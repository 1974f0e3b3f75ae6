package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"contentkit/internal/config"
	"contentkit/internal/extract"
	"contentkit/internal/logging"
	"contentkit/internal/pipeline"
	"contentkit/internal/tablestore"
)

const stageName = "import"

// ArtifactReport summarizes one written content file.
type ArtifactReport struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Keys    int    `json:"keys"`
	Dropped int    `json:"dropped"`
	Changed bool   `json:"changed"`
}

// NamespaceReport summarizes one merged extract file.
type NamespaceReport struct {
	Namespace string `json:"namespace"`
	Path      string `json:"path"`
	Added     int    `json:"added"`
	Updated   int    `json:"updated"`
	Changed   bool   `json:"changed"`
}

// Report describes a finished run.
type Report struct {
	Tables     int               `json:"tables"`
	Rows       int               `json:"rows"`
	Artifacts  []ArtifactReport  `json:"artifacts"`
	Namespaces []NamespaceReport `json:"namespaces"`
	Duration   time.Duration     `json:"-"`
}

// Engine runs the fetch, transform and write stages for registered artifacts.
type Engine struct {
	registry *Registry
	store    tablestore.Store
	baseID   func(alias string) (string, bool)
	dataDir  string
	extract  *extract.Writer
	limit    int
	logger   *slog.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRegistry replaces the default artifact registry.
func WithRegistry(registry *Registry) Option {
	return func(e *Engine) {
		if registry != nil {
			e.registry = registry
		}
	}
}

// NewEngine builds an engine writing under cfg's data dir and plugin extract dir.
func NewEngine(cfg *config.Config, store tablestore.Store, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		registry: DefaultRegistry(),
		store:    store,
		baseID:   cfg.BaseID,
		dataDir:  cfg.Paths.DataDir,
		extract:  extract.NewWriter(cfg.ExtractDir(), filepath.Join(cfg.Paths.CacheDir, "locks")),
		limit:    cfg.Pipeline.Concurrency,
		logger:   logging.NewComponentLogger(logger, "content"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry exposes the artifacts this engine can build.
func (e *Engine) Registry() *Registry { return e.registry }

// Run builds the named artifacts, or all of them when names is empty. Any
// configuration or fetch error aborts the run before a file is written.
func (e *Engine) Run(ctx context.Context, names []string) (Report, error) {
	started := time.Now()
	ctx = pipeline.WithStage(ctx, stageName)
	logger := logging.WithContext(ctx, e.logger)
	e.enter(logger, pipeline.PhaseIdle)

	selected, err := e.registry.Select(names)
	if err != nil {
		return Report{}, pipeline.Wrap(pipeline.ErrConfiguration, stageName, "select artifacts", "", err)
	}
	sources := Sources(selected)
	refs, err := e.resolveSources(sources)
	if err != nil {
		return Report{}, err
	}

	e.enter(logger, pipeline.PhaseFetchingTable, logging.Int("tables", len(sources)))
	rows, err := e.fetch(ctx, sources, refs)
	if err != nil {
		logging.ErrorWithContext(logger, "table fetch failed", "table_fetch_failed",
			logging.String(logging.FieldPhase, pipeline.PhaseTableFetchFailed.String()),
			logging.String(logging.FieldErrorHint, "check store.bases and the table names in the artifact registry"),
			logging.Error(err),
		)
		return Report{}, err
	}
	report := Report{Tables: len(sources)}
	for _, r := range rows {
		report.Rows += len(r)
	}
	e.enter(logger, pipeline.PhaseTableReady, logging.Int("rows", report.Rows))

	e.enter(logger, pipeline.PhaseTransforming, logging.Int("artifacts", len(selected)))
	results := make([]Result, len(selected))
	emitted := map[string]extract.File{}
	var namespaces []string
	for i, artifact := range selected {
		tables := make([][]tablestore.Row, len(artifact.Sources))
		for j, src := range artifact.Sources {
			tables[j] = rows[src]
		}
		results[i] = artifact.Transform(tables)
		artifactLogger := logger.With(logging.String(logging.FieldArtifact, artifact.Name))
		for _, drop := range results[i].Drops {
			artifactLogger.Debug("row excluded from artifact",
				logging.String("table", drop.Table),
				logging.String("row_id", drop.RowID),
				logging.String("reason", drop.Reason),
			)
		}
		if artifact.Namespace == "" {
			continue
		}
		file, ok := emitted[artifact.Namespace]
		if !ok {
			file = extract.File{}
			emitted[artifact.Namespace] = file
			namespaces = append(namespaces, artifact.Namespace)
		}
		for _, key := range results[i].Keys {
			file[key.Key] = key.Default
		}
	}

	e.enter(logger, pipeline.PhaseWritingFiles,
		logging.Int("artifacts", len(selected)),
		logging.Int("namespaces", len(namespaces)),
	)
	report.Artifacts = make([]ArtifactReport, len(selected))
	report.Namespaces = make([]NamespaceReport, len(namespaces))

	group, gctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		group.SetLimit(e.limit)
	}
	for i, artifact := range selected {
		group.Go(func() error {
			path := filepath.Join(e.dataDir, artifact.Path)
			changed, err := writeContent(path, results[i].Content)
			if err != nil {
				return pipeline.Wrap(pipeline.ErrIO, stageName, "write artifact", artifact.Name, err)
			}
			report.Artifacts[i] = ArtifactReport{
				Name:    artifact.Name,
				Path:    path,
				Keys:    len(results[i].Keys),
				Dropped: len(results[i].Drops),
				Changed: changed,
			}
			return nil
		})
	}
	for i, namespace := range namespaces {
		group.Go(func() error {
			result, err := e.extract.Merge(gctx, namespace, emitted[namespace])
			if err != nil {
				return pipeline.Wrap(pipeline.ErrIO, stageName, "merge extract", namespace, err)
			}
			report.Namespaces[i] = NamespaceReport{
				Namespace: namespace,
				Path:      result.Path,
				Added:     result.Added,
				Updated:   result.Updated,
				Changed:   result.Changed,
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Report{}, err
	}

	sort.Slice(report.Artifacts, func(i, j int) bool { return report.Artifacts[i].Name < report.Artifacts[j].Name })
	sort.Slice(report.Namespaces, func(i, j int) bool { return report.Namespaces[i].Namespace < report.Namespaces[j].Namespace })
	report.Duration = time.Since(started)
	e.enter(logger, pipeline.PhaseDone,
		logging.Int("artifacts", len(report.Artifacts)),
		logging.Int("namespaces", len(report.Namespaces)),
		logging.Duration("duration", report.Duration),
	)
	return report, nil
}

func (e *Engine) resolveSources(sources []Source) (map[Source]tablestore.TableRef, error) {
	refs := make(map[Source]tablestore.TableRef, len(sources))
	for _, src := range sources {
		id, ok := e.baseID(src.Base)
		if !ok {
			return nil, pipeline.Wrap(pipeline.ErrConfiguration, stageName, "resolve base",
				fmt.Sprintf("unknown base %q (add it under [store.bases])", src.Base), nil)
		}
		refs[src] = tablestore.TableRef{Base: id, Table: src.Table}
	}
	return refs, nil
}

func (e *Engine) fetch(ctx context.Context, sources []Source, refs map[Source]tablestore.TableRef) (map[Source][]tablestore.Row, error) {
	fetched := make([][]tablestore.Row, len(sources))
	group, gctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		group.SetLimit(e.limit)
	}
	for i, src := range sources {
		group.Go(func() error {
			ref := refs[src]
			rows, err := e.store.Rows(gctx, ref.Base, ref.Table)
			if err != nil {
				return classifyFetchError(src, err)
			}
			fetched[i] = rows
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	out := make(map[Source][]tablestore.Row, len(sources))
	for i, src := range sources {
		out[src] = fetched[i]
	}
	return out, nil
}

func classifyFetchError(src Source, err error) error {
	var notFound *tablestore.NotFoundError
	if errors.As(err, &notFound) {
		return pipeline.Wrap(pipeline.ErrConfiguration, stageName, "fetch table", src.String(), err)
	}
	return pipeline.Wrap(pipeline.ErrFetch, stageName, "fetch table", src.String(), err)
}

func (e *Engine) enter(logger *slog.Logger, phase pipeline.Phase, attrs ...logging.Attr) {
	attrs = append([]logging.Attr{logging.String(logging.FieldPhase, phase.String())}, attrs...)
	logger.Debug("import phase", logging.Args(attrs...)...)
}
