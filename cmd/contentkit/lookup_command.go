package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"contentkit/internal/lookup"
)

func newLookupCommand(ctx *commandContext) *cobra.Command {
	var locale string
	var count int
	var vars map[string]string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "lookup <namespace> <key>",
		Short: "Render one key the way the application would for a locale",
		Long: "Load the extract defaults and the translation files along the locale's fallback chain and print " +
			"the resolved string. --count picks the singular or _plural variant with the locale's plural rules.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if locale == "" {
				if len(cfg.Translation.Locales) == 0 {
					return errors.New("lookup: --locale is required when translation.locales is empty")
				}
				locale = cfg.Translation.Locales[0]
			}

			query := lookup.Query{Namespace: args[0], Key: args[1], Locale: locale}
			if cmd.Flags().Changed("count") {
				query.Count = &count
			}
			if len(vars) > 0 {
				query.Data = make(map[string]any, len(vars))
				for k, v := range vars {
					query.Data[k] = v
				}
			}

			result, err := lookup.New(cfg.Paths.ExtractDirs, cfg.Paths.LocaleDir).Resolve(query)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result.Value)
			if !result.Found() {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s:%s has no value for %s; showing the key\n", query.Namespace, query.Key, locale)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&locale, "locale", "l", "", "Locale to render (default first of translation.locales)")
	cmd.Flags().IntVar(&count, "count", 0, "Plural count")
	cmd.Flags().StringToStringVar(&vars, "var", nil, "Interpolation value as name=value (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the resolution as JSON")
	return cmd
}
