package tablestore

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"contentkit/internal/logging"
)

// Snapshot copies each referenced table from src into dst. Fetches fan out up
// to limit at a time; rows are written only after every fetch succeeded.
func Snapshot(ctx context.Context, src Store, dst *SQLite, refs []TableRef, limit int, logger *slog.Logger) (int, error) {
	logger = logging.NewComponentLogger(logger, "snapshot")
	fetched := make([][]Row, len(refs))

	group, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		group.SetLimit(limit)
	}
	for i, ref := range refs {
		group.Go(func() error {
			rows, err := src.Rows(gctx, ref.Base, ref.Table)
			if err != nil {
				return fmt.Errorf("snapshot %s: %w", ref, err)
			}
			fetched[i] = rows
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return 0, err
	}

	total := 0
	for i, ref := range refs {
		if err := dst.Put(ctx, ref.Base, ref.Table, fetched[i]); err != nil {
			return total, fmt.Errorf("store %s: %w", ref, err)
		}
		total += len(fetched[i])
		logger.Info("table snapshotted",
			logging.String("base", ref.Base),
			logging.String("table", ref.Table),
			logging.Int("rows", len(fetched[i])),
		)
	}
	return total, nil
}
