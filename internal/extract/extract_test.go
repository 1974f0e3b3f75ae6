package extract_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"contentkit/internal/extract"
)

func TestMergeKeepsForeignKeysAndOverwritesEmitted(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := extract.Path(dir, "adviceModules")
	if err := os.WriteFile(path, []byte("{\n  \"manual:key\": \"Hand written\",\n  \"network:title\": \"Old\"\n}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	writer := extract.NewWriter(dir, "")
	result, err := writer.Merge(context.Background(), "adviceModules", extract.File{
		"network:title": "Réseau",
		"network:goal":  "Trouver",
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if result.Added != 1 || result.Updated != 1 || !result.Changed {
		t.Fatalf("unexpected result %+v", result)
	}

	got, err := extract.Read(dir, "adviceModules")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := extract.File{"manual:key": "Hand written", "network:goal": "Trouver", "network:title": "Réseau"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}

	again, err := writer.Merge(context.Background(), "adviceModules", extract.File{"network:title": "Réseau"})
	if err != nil {
		t.Fatalf("second Merge: %v", err)
	}
	if again.Changed || again.Added != 0 || again.Updated != 0 {
		t.Fatalf("expected no-op merge, got %+v", again)
	}
}

func TestMergeConcurrentWritersKeepAllKeys(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	lockDir := filepath.Join(t.TempDir(), "locks")
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			writer := extract.NewWriter(dir, lockDir)
			key := string(rune('a' + i))
			if _, err := writer.Merge(context.Background(), "strategies", extract.File{key: key}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Merge: %v", err)
	}

	got, err := extract.Read(dir, "strategies")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 8 {
		t.Fatalf("expected 8 keys, got %v", got.Keys())
	}
}

func TestNamespacesSkipsHiddenAndForeignFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"strategies.json", "adviceModules.json", ".strategies.lock", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.json"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := extract.Namespaces(dir)
	if err != nil {
		t.Fatalf("Namespaces: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"adviceModules", "strategies"}) {
		t.Fatalf("unexpected namespaces %v", got)
	}

	missing, err := extract.Namespaces(filepath.Join(dir, "absent"))
	if err != nil || missing != nil {
		t.Fatalf("expected missing dir to yield nothing, got %v %v", missing, err)
	}
}
