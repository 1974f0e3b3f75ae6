package tablestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"contentkit/internal/config"
)

var (
	// ErrUnknownBase is matched by NotFoundError when the base does not exist.
	ErrUnknownBase = errors.New("unknown base")
	// ErrUnknownTable is matched by NotFoundError when the table does not exist.
	ErrUnknownTable = errors.New("unknown table")
)

// Store reads every row of a named table.
type Store interface {
	Rows(ctx context.Context, baseID, table string) ([]Row, error)
	Close() error
}

// TableRef addresses one table of one base.
type TableRef struct {
	Base  string
	Table string
}

func (r TableRef) String() string {
	return r.Base + "/" + r.Table
}

// NotFoundError reports a base or table the store does not know.
type NotFoundError struct {
	Base  string
	Table string
	// MissingBase is true when the base itself is unknown.
	MissingBase bool
}

func (e *NotFoundError) Error() string {
	if e.MissingBase {
		return fmt.Sprintf("unknown base %q", e.Base)
	}
	return fmt.Sprintf("unknown table %q in base %q", e.Table, e.Base)
}

// Is lets errors.Is match the sentinel for the missing identifier kind.
func (e *NotFoundError) Is(target error) bool {
	if e.MissingBase {
		return target == ErrUnknownBase
	}
	return target == ErrUnknownTable
}

// Open builds the store selected by cfg.Store.Kind.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	if cfg == nil {
		return nil, errors.New("tablestore: config is required")
	}
	switch cfg.Store.Kind {
	case config.StoreAirtable:
		return NewAirtable(cfg.Store.BaseURL, cfg.Store.APIKey, http.DefaultClient, logger), nil
	case config.StoreFixtures:
		return NewFixtures(cfg.Store.FixturesDir), nil
	case config.StoreSQLite:
		return OpenSQLite(ctx, cfg.Store.SQLitePath)
	case config.StorePostgres:
		return OpenPostgres(ctx, cfg.Store.PostgresDSN)
	default:
		return nil, fmt.Errorf("tablestore: unsupported store kind %q", cfg.Store.Kind)
	}
}
