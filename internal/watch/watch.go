// Package watch keeps locale files current while extract files change.
//
// A Watcher runs its RunFunc once at start, again after any extract file
// changes (debounced), and on an optional cron schedule that first calls
// ResetFunc so the translation table is fetched fresh. Runs never overlap.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"contentkit/internal/logging"
)

// Reason says why a run was triggered.
type Reason string

const (
	ReasonStartup  Reason = "startup"
	ReasonChange   Reason = "extract_changed"
	ReasonSchedule Reason = "schedule"
)

const defaultDebounce = 300 * time.Millisecond

// RunFunc performs one translation pass.
type RunFunc func(ctx context.Context, reason Reason) error

// Options configures a Watcher.
type Options struct {
	Dirs     []string
	Debounce time.Duration
	// Schedule is a standard cron expression or descriptor; empty disables it.
	Schedule string
	Run      RunFunc
	Reset    func()
	Logger   *slog.Logger
}

// Watcher drives RunFunc from file events and a schedule.
type Watcher struct {
	opts     Options
	schedule cron.Schedule
	logger   *slog.Logger
}

// New validates opts.
func New(opts Options) (*Watcher, error) {
	if opts.Run == nil {
		return nil, errors.New("watch: run func is required")
	}
	if len(opts.Dirs) == 0 {
		return nil, errors.New("watch: at least one directory is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	w := &Watcher{opts: opts, logger: logging.NewComponentLogger(opts.Logger, "watch")}
	if expr := strings.TrimSpace(opts.Schedule); expr != "" {
		schedule, err := cron.ParseStandard(expr)
		if err != nil {
			return nil, fmt.Errorf("watch: invalid refresh schedule %q: %w", expr, err)
		}
		w.schedule = schedule
	}
	return w, nil
}

// Run blocks until ctx is done. Errors from RunFunc are logged, not returned.
func (w *Watcher) Run(ctx context.Context) error {
	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer notifier.Close()

	for _, dir := range w.opts.Dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("watch: create %s: %w", dir, err)
		}
		if err := notifier.Add(dir); err != nil {
			return fmt.Errorf("watch: watch %s: %w", dir, err)
		}
	}

	scheduled := make(chan struct{}, 1)
	if w.schedule != nil {
		c := cron.New()
		c.Schedule(w.schedule, cron.FuncJob(func() {
			select {
			case scheduled <- struct{}{}:
			default:
			}
		}))
		c.Start()
		defer c.Stop()
	}

	changed := make(chan struct{}, 1)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	w.logger.Info("watching extract files",
		logging.Strings("dirs", w.opts.Dirs),
		logging.String("schedule", w.opts.Schedule),
		logging.Duration("debounce", w.opts.Debounce),
	)
	w.runOnce(ctx, ReasonStartup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-notifier.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("extract file event", logging.String("path", event.Name), logging.String("op", event.Op.String()))
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(w.opts.Debounce, func() {
				select {
				case changed <- struct{}{}:
				default:
				}
			})
		case err, ok := <-notifier.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(w.logger, "file watcher error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "changes may be missed until the next event"),
			)
		case <-changed:
			w.runOnce(ctx, ReasonChange)
		case <-scheduled:
			if w.opts.Reset != nil {
				w.opts.Reset()
			}
			w.runOnce(ctx, ReasonSchedule)
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context, reason Reason) {
	started := time.Now()
	if err := w.opts.Run(ctx, reason); err != nil {
		if ctx.Err() != nil {
			return
		}
		logging.ErrorWithContext(w.logger, "translate run failed", "watch_run_failed",
			logging.String("reason", string(reason)),
			logging.Error(err),
		)
		return
	}
	w.logger.Info("translate run finished",
		logging.String("reason", string(reason)),
		logging.Duration("duration", time.Since(started)),
	)
}

// relevant keeps changes to visible JSON extract files.
func relevant(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
