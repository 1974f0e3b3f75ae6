package main

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"contentkit/internal/logging"
	"contentkit/internal/pipeline"
	"contentkit/internal/tablestore"
	"contentkit/internal/translate"
	"contentkit/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var schedule string
	var locales []string

	cmd := &cobra.Command{
		Use:   "watch [namespace...]",
		Short: "Re-run translate whenever extract files change",
		Long: "Run translate once, then again whenever a file in paths.extract_dirs changes. When " +
			"watch.refresh_schedule (or --schedule) is set, the cached translation table is dropped on that " +
			"cron schedule and translate runs against a fresh fetch.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("schedule") {
				cfg.Watch.RefreshSchedule = strings.TrimSpace(schedule)
			}

			return ctx.withStore(cmd.Context(), logger, func(store tablestore.Store) error {
				engine, err := translate.NewEngineFromConfig(cfg, store, logger)
				if err != nil {
					return err
				}
				req := translate.RequestFromConfig(cfg, args, locales)

				watcher, err := watch.New(watch.Options{
					Dirs:     cfg.Paths.ExtractDirs,
					Debounce: time.Duration(cfg.Watch.DebounceMillis) * time.Millisecond,
					Schedule: cfg.Watch.RefreshSchedule,
					Reset:    engine.ResetCache,
					Logger:   logger,
					Run: func(runCtx context.Context, reason watch.Reason) error {
						report, err := engine.Run(runContext(runCtx), req)
						if err != nil {
							return err
						}
						for _, f := range report.Files {
							if f.Changed || f.Removed {
								logger.Info("translation file updated",
									logging.String("reason", string(reason)),
									logging.String("path", f.Path),
									logging.Int("entries", f.Entries),
									logging.Bool("removed", f.Removed),
								)
							}
						}
						return nil
					},
				})
				if err != nil {
					return pipeline.Wrap(pipeline.ErrConfiguration, "watch", "configure", "", err)
				}
				return watcher.Run(cmd.Context())
			})
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron expression for cache refreshes (overrides watch.refresh_schedule)")
	cmd.Flags().StringArrayVarP(&locales, "locale", "l", nil, "Locale to resolve (repeatable; default translation.locales)")
	return cmd
}
