// Package jsonfile reads and writes the JSON files both engines produce.
//
// Every file is serialized the same way: object keys in lexicographic order,
// two-space indentation, no HTML escaping, and a trailing newline. Writes are
// atomic and skipped when the bytes on disk are already identical, so a rerun
// against unchanged input leaves files and their mtimes alone.
package jsonfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"contentkit/internal/fileutil"
)

// ErrNotExist is returned by the readers when the file is absent.
var ErrNotExist = fs.ErrNotExist

// Marshal encodes v with the shared serialization conventions. Map keys are
// sorted by encoding/json; callers must use maps, not structs, for objects
// whose key order matters.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write marshals v and writes it atomically. It reports whether the file changed.
func Write(path string, v any) (bool, error) {
	data, err := Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", path, err)
	}
	changed, err := fileutil.WriteAtomic(path, data, 0o644)
	if err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return changed, nil
}

// ReadStrings reads a flat object of string values.
func ReadStrings(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	values := map[string]string{}
	if len(bytes.TrimSpace(data)) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return values, nil
}

// Remove deletes path if present and reports whether it existed.
func Remove(path string) (bool, error) {
	removed, err := fileutil.RemoveIfExists(path)
	if err != nil {
		return false, fmt.Errorf("remove %s: %w", path, err)
	}
	return removed, nil
}

// IsNotExist reports whether err means the file is absent.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
