package tablestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres reads a shared snapshot from PostgreSQL. It expects the tables
// contentkit_tables (base_id, table_name) and contentkit_rows
// (base_id, table_name, record_id, fields jsonb).
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects and pings the database.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("tablestore: postgres dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Rows reads one table.
func (p *Postgres) Rows(ctx context.Context, baseID, table string) ([]Row, error) {
	var tableKnown, baseKnown bool
	err := p.pool.QueryRow(ctx,
		`SELECT
			EXISTS (SELECT 1 FROM contentkit_tables WHERE base_id = $1 AND table_name = $2),
			EXISTS (SELECT 1 FROM contentkit_tables WHERE base_id = $1)`,
		baseID, table,
	).Scan(&tableKnown, &baseKnown)
	if err != nil {
		return nil, fmt.Errorf("lookup postgres table %s/%s: %w", baseID, table, err)
	}
	if !tableKnown {
		return nil, &NotFoundError{Base: baseID, Table: table, MissingBase: !baseKnown}
	}

	result, err := p.pool.Query(ctx,
		`SELECT record_id, fields FROM contentkit_rows WHERE base_id = $1 AND table_name = $2 ORDER BY record_id`,
		baseID, table,
	)
	if err != nil {
		return nil, fmt.Errorf("query postgres rows %s/%s: %w", baseID, table, err)
	}
	defer result.Close()

	var rows []Row
	for result.Next() {
		var (
			id     string
			fields []byte
		)
		if err := result.Scan(&id, &fields); err != nil {
			return nil, fmt.Errorf("scan postgres row: %w", err)
		}
		row := Row{ID: id}
		if err := json.Unmarshal(fields, &row.Fields); err != nil {
			return nil, fmt.Errorf("decode postgres row %s: %w", id, err)
		}
		rows = append(rows, row)
	}
	return rows, result.Err()
}

// Close releases the pool.
func (p *Postgres) Close() error {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
	return nil
}
