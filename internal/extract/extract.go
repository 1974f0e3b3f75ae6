// Package extract manages namespace extract files, the key → default-value
// maps that hand translatable strings from the content engine to the
// translation engine.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"contentkit/internal/jsonfile"
)

const lockRetryDelay = 50 * time.Millisecond

// File maps a translation key to its default (source language) value.
type File map[string]string

// Keys returns the file's keys in lexicographic order.
func (f File) Keys() []string {
	keys := make([]string, 0, len(f))
	for key := range f {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Path returns <dir>/<namespace>.json.
func Path(dir, namespace string) string {
	return filepath.Join(dir, namespace+".json")
}

// Read loads one namespace from dir.
func Read(dir, namespace string) (File, error) {
	values, err := jsonfile.ReadStrings(Path(dir, namespace))
	if err != nil {
		return nil, err
	}
	return File(values), nil
}

// Namespaces lists the namespaces that have an extract file in dir, sorted.
// A missing directory yields no namespaces.
func Namespaces(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if jsonfile.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list extract dir %s: %w", dir, err)
	}
	var namespaces []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		namespaces = append(namespaces, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(namespaces)
	return namespaces, nil
}

// MergeResult describes one read-modify-write of an extract file.
type MergeResult struct {
	Path    string
	Added   int
	Updated int
	Changed bool
}

// Writer merges emitted keys into extract files under an advisory file lock,
// so concurrent runs against the same plugin tree do not lose each other's keys.
type Writer struct {
	dir     string
	lockDir string
}

// NewWriter writes extract files into dir. Lock files live in lockDir, or in
// dir as hidden files when lockDir is empty.
func NewWriter(dir, lockDir string) *Writer {
	if strings.TrimSpace(lockDir) == "" {
		lockDir = dir
	}
	return &Writer{dir: dir, lockDir: lockDir}
}

// Dir returns the extract directory.
func (w *Writer) Dir() string { return w.dir }

// Merge overwrites the emitted keys and keeps every other key already present.
func (w *Writer) Merge(ctx context.Context, namespace string, emitted File) (MergeResult, error) {
	result := MergeResult{Path: Path(w.dir, namespace)}

	if err := os.MkdirAll(w.lockDir, 0o755); err != nil {
		return result, fmt.Errorf("create lock dir: %w", err)
	}
	lock := flock.New(filepath.Join(w.lockDir, "."+namespace+".lock"))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return result, fmt.Errorf("lock extract %s: %w", namespace, err)
	}
	if !locked {
		return result, fmt.Errorf("lock extract %s: not acquired", namespace)
	}
	defer func() { _ = lock.Unlock() }()

	current, err := Read(w.dir, namespace)
	if err != nil {
		if !jsonfile.IsNotExist(err) {
			return result, err
		}
		current = File{}
	}
	for key, value := range emitted {
		previous, ok := current[key]
		switch {
		case !ok:
			result.Added++
		case previous != value:
			result.Updated++
		}
		current[key] = value
	}

	changed, err := jsonfile.Write(result.Path, map[string]string(current))
	if err != nil {
		return result, err
	}
	result.Changed = changed
	return result, nil
}
