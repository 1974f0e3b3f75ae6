package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"contentkit/internal/tablestore"
	"contentkit/internal/translate"
)

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var locales []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "translate [namespace...]",
		Short: "Resolve translations for extract namespaces into per-locale files",
		Long: "Resolve every key variant of each extract namespace against the translation table and write " +
			"<locale_dir>/<locale>/<namespace>.json. With no arguments every namespace found in the extract " +
			"directories is processed; --locale overrides translation.locales.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			runCtx := runContext(cmd.Context())

			var report translate.Report
			err = ctx.withStore(runCtx, logger, func(store tablestore.Store) error {
				engine, err := translate.NewEngineFromConfig(cfg, store, logger)
				if err != nil {
					return err
				}
				report, err = engine.Run(runCtx, translate.RequestFromConfig(cfg, args, locales))
				return err
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, report)
			}
			printTranslateReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&locales, "locale", "l", nil, "Locale to resolve (repeatable; default translation.locales)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run report as JSON")
	return cmd
}

func printTranslateReport(cmd *cobra.Command, report translate.Report) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	writeLines(out, renderSectionHeader("Translations", colorize)...)
	for _, f := range report.Files {
		label := f.Locale + "/" + f.Namespace
		switch {
		case f.Entries > 0:
			msg := fmt.Sprintf("%s (%d entries) %s", describeWrite(f.Changed), f.Entries, f.Path)
			writeLines(out, renderStatusLine(label, changedKind(f.Changed), msg, colorize))
		case f.Removed:
			writeLines(out, renderStatusLine(label, statusWarn, "no entries; removed stale "+f.Path, colorize))
		default:
			writeLines(out, renderStatusLine(label, statusInfo, "no entries", colorize))
		}
	}
	source := "fetched"
	if report.CacheHit {
		source = "cached"
	}
	fmt.Fprintf(out, "Resolved %d namespaces for %d locales against %d %s rows in %s\n",
		len(report.Namespaces), len(report.Locales), report.TableRows, source, report.Duration.Round(time.Millisecond))
}
