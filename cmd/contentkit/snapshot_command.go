package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"contentkit/internal/config"
	"contentkit/internal/content"
	"contentkit/internal/pipeline"
	"contentkit/internal/tablestore"
)

func newSnapshotCommand(ctx *commandContext) *cobra.Command {
	var skipTranslations bool
	var listOnly bool

	cmd := &cobra.Command{
		Use:   "snapshot [artifact...]",
		Short: "Copy the tables behind artifacts into the local sqlite snapshot",
		Long: "Fetch every table the selected artifacts read, plus the translation table, from the configured " +
			"store and record them in store.sqlite_path. Later runs can set store.kind = \"sqlite\" to work offline.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if listOnly {
				return listSnapshot(cmd, cfg)
			}
			if cfg.Store.Kind == config.StoreSQLite {
				return pipeline.Wrap(pipeline.ErrConfiguration, "snapshot", "select source",
					"store.kind is sqlite; choose a remote store to snapshot from", nil)
			}
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			refs, err := snapshotRefs(cfg, args, !skipTranslations)
			if err != nil {
				return err
			}

			runCtx := runContext(cmd.Context())
			dst, err := tablestore.OpenSQLite(runCtx, cfg.Store.SQLitePath)
			if err != nil {
				return pipeline.Wrap(pipeline.ErrIO, "snapshot", "open", cfg.Store.SQLitePath, err)
			}
			defer dst.Close()

			var rows int
			err = ctx.withStore(runCtx, logger, func(src tablestore.Store) error {
				var snapErr error
				rows, snapErr = tablestore.Snapshot(runCtx, src, dst, refs, cfg.Pipeline.Concurrency, logger)
				return snapErr
			})
			if err != nil {
				marker := pipeline.ErrFetch
				if errors.Is(err, tablestore.ErrUnknownBase) || errors.Is(err, tablestore.ErrUnknownTable) {
					marker = pipeline.ErrConfiguration
				}
				return pipeline.Wrap(marker, "snapshot", "copy tables", "", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Snapshotted %d tables (%d rows) into %s\n", len(refs), rows, dst.Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipTranslations, "no-translations", false, "Skip the translation table")
	cmd.Flags().BoolVar(&listOnly, "list", false, "List the tables already in the snapshot")
	return cmd
}

func snapshotRefs(cfg *config.Config, names []string, withTranslations bool) ([]tablestore.TableRef, error) {
	artifacts, err := content.DefaultRegistry().Select(names)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrConfiguration, "snapshot", "select artifacts", "", err)
	}
	sources := content.Sources(artifacts)
	if withTranslations {
		sources = append(sources, content.Source{Base: cfg.Translation.Base, Table: cfg.Translation.Table})
	}

	seen := map[tablestore.TableRef]bool{}
	refs := make([]tablestore.TableRef, 0, len(sources))
	for _, src := range sources {
		baseID, ok := cfg.BaseID(src.Base)
		if !ok {
			return nil, pipeline.Wrap(pipeline.ErrConfiguration, "snapshot", "resolve base",
				fmt.Sprintf("unknown base %q (add it under [store.bases])", src.Base), nil)
		}
		ref := tablestore.TableRef{Base: baseID, Table: src.Table}
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

func listSnapshot(cmd *cobra.Command, cfg *config.Config) error {
	snap, err := tablestore.OpenSQLite(cmd.Context(), cfg.Store.SQLitePath)
	if err != nil {
		return pipeline.Wrap(pipeline.ErrIO, "snapshot", "open", cfg.Store.SQLitePath, err)
	}
	defer snap.Close()

	tables, err := snap.Tables(cmd.Context())
	if err != nil {
		return pipeline.Wrap(pipeline.ErrIO, "snapshot", "list", "", err)
	}
	out := cmd.OutOrStdout()
	if len(tables) == 0 {
		fmt.Fprintf(out, "Snapshot %s is empty\n", snap.Path())
		return nil
	}
	rows := make([][]string, 0, len(tables))
	for _, info := range tables {
		rows = append(rows, []string{
			info.Base,
			info.Table,
			strconv.Itoa(info.RowCount),
			info.FetchedAt.Local().Format(time.DateTime),
		})
	}
	fmt.Fprintln(out, renderTable(snap.Path(), []string{"Base", "Table", "Rows", "Fetched"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft}))
	return nil
}
