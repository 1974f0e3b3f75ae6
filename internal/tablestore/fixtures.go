package tablestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Fixtures reads tables from <dir>/<base id>/<table>.json. Each file holds a
// JSON array of rows, or an object mapping row id to fields.
type Fixtures struct {
	dir string
}

// NewFixtures returns a store rooted at dir.
func NewFixtures(dir string) *Fixtures {
	return &Fixtures{dir: dir}
}

// Rows loads the table file.
func (f *Fixtures) Rows(ctx context.Context, baseID, table string) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	baseDir := filepath.Join(f.dir, baseID)
	if info, err := os.Stat(baseDir); err != nil || !info.IsDir() {
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Base: baseID, Table: table, MissingBase: true}
		}
		return nil, fmt.Errorf("stat fixture base %q: %w", baseID, err)
	}
	data, err := os.ReadFile(filepath.Join(baseDir, table+".json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Base: baseID, Table: table}
		}
		return nil, fmt.Errorf("read fixture %s/%s: %w", baseID, table, err)
	}
	rows, err := decodeRows(data)
	if err != nil {
		return nil, fmt.Errorf("decode fixture %s/%s: %w", baseID, table, err)
	}
	return rows, nil
}

// Close is a no-op.
func (f *Fixtures) Close() error { return nil }

func decodeRows(data []byte) ([]Row, error) {
	var list []Row
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var byID map[string]map[string]any
	if err := json.Unmarshal(data, &byID); err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(byID))
	for id, fields := range byID {
		rows = append(rows, Row{ID: id, Fields: fields})
	}
	return rows, nil
}
