package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"contentkit/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level       string
	Format      string
	OutputPaths []string
	// Writer overrides OutputPaths when set; used by tests and the CLI.
	Writer          io.Writer
	ComponentLevels map[string]string
	Development     bool
	// RunLogPath additionally receives every record as JSON when set.
	RunLogPath string
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)
	levelVar := new(slog.LevelVar)
	levelVar.Set(minLevel(level, opts.ComponentLevels))

	outputWriter := opts.Writer
	if outputWriter == nil {
		var err error
		outputWriter, err = openWriters(defaultSlice(opts.OutputPaths, []string{"stderr"}))
		if err != nil {
			return nil, err
		}
	}

	addSource := opts.Development || level <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = newJSONHandler(outputWriter, levelVar, addSource)
	case "console":
		handler = newPrettyHandler(outputWriter, levelVar, addSource)
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	if path := strings.TrimSpace(opts.RunLogPath); path != "" {
		runLog, err := openWriters([]string{path})
		if err != nil {
			return nil, err
		}
		handler = newFanoutHandler(handler, newJSONHandler(runLog, levelVar, addSource))
	}

	if len(opts.ComponentLevels) > 0 {
		overrides := make(map[string]slog.Level, len(opts.ComponentLevels))
		for component, value := range opts.ComponentLevels {
			overrides[component] = parseLevel(value)
		}
		handler = newComponentLevelHandler(handler, level, overrides)
	}

	return slog.New(handler), nil
}

// NewFromConfig creates a logger using application config defaults. When
// logging.dir is set, a fresh run log is opened there and run logs older than
// logging.retention_days are pruned.
func NewFromConfig(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console", Writer: w})
	}
	var runLog string
	if cfg.Logging.Dir != "" {
		runLog = filepath.Join(cfg.Logging.Dir, runLogName(time.Now()))
	}
	logger, err := New(Options{
		Level:           cfg.Logging.Level,
		Format:          cfg.Logging.Format,
		Writer:          w,
		ComponentLevels: cfg.Logging.ComponentLevels,
		RunLogPath:      runLog,
	})
	if err != nil {
		return nil, err
	}
	if runLog != "" {
		pruneRunLogs(logger, cfg.Logging.Dir, cfg.Logging.RetentionDays, runLog)
	}
	return logger, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info", "":
		return slog.LevelInfo
	default:
		return slog.LevelInfo
	}
}

// minLevel returns the most verbose level any component asks for so the
// underlying handler never drops records an override wants to keep.
func minLevel(base slog.Level, overrides map[string]string) slog.Level {
	lowest := base
	for _, value := range overrides {
		if lvl := parseLevel(value); lvl < lowest {
			lowest = lvl
		}
	}
	return lowest
}

func defaultSlice(value []string, fallback []string) []string {
	if len(value) == 0 {
		cp := make([]string, len(fallback))
		copy(cp, fallback)
		return cp
	}
	cp := make([]string, len(value))
	copy(cp, value)
	return cp
}

func openWriters(outputPaths []string) (io.Writer, error) {
	seen := map[string]struct{}{}
	var writers []io.Writer

	for _, path := range outputPaths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}

		switch trimmed {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			if err := ensureLogDir(trimmed); err != nil {
				return nil, err
			}
			file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
			if err != nil {
				return nil, fmt.Errorf("open log file %s: %w", trimmed, err)
			}
			writers = append(writers, file)
		}
	}

	if len(writers) == 0 {
		return os.Stderr, nil
	}
	if len(writers) == 1 {
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
