package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"contentkit/internal/content"
	"contentkit/internal/tablestore"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "import [artifact...]",
		Short: "Fetch content tables and write JSON artifacts and extract files",
		Long: "Fetch the tables behind each registered artifact, transform them into JSON content files, " +
			"and merge translatable keys into the namespace extract files. With no arguments every artifact runs.",
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

			var report content.Report
			err = ctx.withStore(runCtx, logger, func(store tablestore.Store) error {
				engine := content.NewEngine(cfg, store, logger)
				var runErr error
				report, runErr = engine.Run(runCtx, args)
				return runErr
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, report)
			}
			printImportReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run report as JSON")
	return cmd
}

func printImportReport(cmd *cobra.Command, report content.Report) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	writeLines(out, renderSectionHeader("Artifacts", colorize)...)
	for _, a := range report.Artifacts {
		msg := fmt.Sprintf("%s (%d keys)", describeWrite(a.Changed), a.Keys)
		kind := changedKind(a.Changed)
		if a.Dropped > 0 {
			msg += fmt.Sprintf(", %d rows dropped", a.Dropped)
			kind = statusWarn
		}
		writeLines(out, renderStatusLine(a.Name, kind, msg+" "+a.Path, colorize))
	}
	if len(report.Namespaces) > 0 {
		writeLines(out, renderSectionHeader("Extracts", colorize)...)
		for _, ns := range report.Namespaces {
			msg := fmt.Sprintf("%s (+%d added, %d updated) %s", describeWrite(ns.Changed), ns.Added, ns.Updated, ns.Path)
			writeLines(out, renderStatusLine(ns.Namespace, changedKind(ns.Changed), msg, colorize))
		}
	}
	fmt.Fprintf(out, "Imported %d artifacts from %d tables (%d rows) in %s\n",
		len(report.Artifacts), report.Tables, report.Rows, report.Duration.Round(time.Millisecond))
}

func describeWrite(changed bool) string {
	if changed {
		return "written"
	}
	return "unchanged"
}
