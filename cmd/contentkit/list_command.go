package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"contentkit/internal/content"
	"contentkit/internal/translate"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show registered artifacts and configured locales",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			registry := content.DefaultRegistry()
			artifactRows := make([][]string, 0, len(registry.All()))
			for _, a := range registry.All() {
				tables := make([]string, 0, len(a.Sources))
				for _, src := range a.Sources {
					tables = append(tables, src.String())
				}
				artifactRows = append(artifactRows, []string{
					a.Name,
					strings.Join(tables, ", "),
					valueOrDash(a.Namespace),
					filepath.Join(cfg.Paths.DataDir, a.Path),
				})
			}
			fmt.Fprintln(out, renderTable("Artifacts", []string{"Name", "Tables", "Namespace", "Output"}, artifactRows, nil))

			localeRows := make([][]string, 0, len(cfg.Translation.Locales))
			for _, code := range cfg.Translation.Locales {
				locale := translate.ParseLocale(code)
				localeRows = append(localeRows, []string{
					locale.Code,
					strings.Join(locale.Columns(), ", "),
					valueOrDash(locale.Parent),
					strings.Join(locale.Chain(), " → "),
					yesNo(locale.WellFormed()),
				})
			}
			title := fmt.Sprintf("Locales (%s/%s)", cfg.Translation.Base, cfg.Translation.Table)
			fmt.Fprintln(out, renderTable(title, []string{"Locale", "Columns", "Parent", "Fallback", "BCP 47"}, localeRows, nil))
			return nil
		},
	}
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
