package content

import (
	"fmt"
	"sort"
	"strings"

	"contentkit/internal/tablestore"
)

// Source names a remote table through a configured base alias.
type Source struct {
	Base  string
	Table string
}

func (s Source) String() string { return s.Base + "/" + s.Table }

// Key declares one translatable string.
type Key struct {
	Namespace string
	Key       string
	Default   string
}

// Drop records a row left out of a dependent group because a grouping or
// foreign key was missing.
type Drop struct {
	Table  string
	RowID  string
	Reason string
}

// Result is the output of a transform. Content must only contain maps, slices
// and scalars so the serialized key order is lexicographic.
type Result struct {
	Content any
	Keys    []Key
	Drops   []Drop
}

// TransformFunc builds an artifact from its source tables, in Sources order.
type TransformFunc func(tables [][]tablestore.Row) Result

// Artifact is one registered content output.
type Artifact struct {
	Name      string
	Path      string
	Namespace string
	Sources   []Source
	Transform TransformFunc
}

// Registry is the closed set of artifacts the content engine can build.
type Registry struct {
	artifacts []Artifact
	byName    map[string]int
}

// NewRegistry indexes artifacts by name. Duplicate names are a programming error.
func NewRegistry(artifacts ...Artifact) *Registry {
	r := &Registry{byName: make(map[string]int, len(artifacts))}
	for _, artifact := range artifacts {
		if _, dup := r.byName[artifact.Name]; dup {
			panic(fmt.Sprintf("content: artifact %q registered twice", artifact.Name))
		}
		r.byName[artifact.Name] = len(r.artifacts)
		r.artifacts = append(r.artifacts, artifact)
	}
	return r
}

// All returns every artifact in registration order.
func (r *Registry) All() []Artifact {
	return append([]Artifact(nil), r.artifacts...)
}

// Lookup finds an artifact by name.
func (r *Registry) Lookup(name string) (Artifact, bool) {
	idx, ok := r.byName[name]
	if !ok {
		return Artifact{}, false
	}
	return r.artifacts[idx], true
}

// Select resolves names in order, dropping repeats. No names selects everything.
func (r *Registry) Select(names []string) ([]Artifact, error) {
	if len(names) == 0 {
		return r.All(), nil
	}
	seen := make(map[string]bool, len(names))
	selected := make([]Artifact, 0, len(names))
	var unknown []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		artifact, ok := r.Lookup(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		selected = append(selected, artifact)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown artifact %s (known: %s)", quoteList(unknown), strings.Join(r.Names(), ", "))
	}
	return selected, nil
}

// Names returns the registered artifact names sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.artifacts))
	for _, artifact := range r.artifacts {
		names = append(names, artifact.Name)
	}
	sort.Strings(names)
	return names
}

// Namespaces returns the distinct extract namespaces the registry writes, sorted.
func (r *Registry) Namespaces() []string {
	seen := map[string]bool{}
	var out []string
	for _, artifact := range r.artifacts {
		if artifact.Namespace != "" && !seen[artifact.Namespace] {
			seen[artifact.Namespace] = true
			out = append(out, artifact.Namespace)
		}
	}
	sort.Strings(out)
	return out
}

// Sources returns the distinct tables the given artifacts read, in first-use order.
func Sources(artifacts []Artifact) []Source {
	seen := map[Source]bool{}
	var out []Source
	for _, artifact := range artifacts {
		for _, src := range artifact.Sources {
			if !seen[src] {
				seen[src] = true
				out = append(out, src)
			}
		}
	}
	return out
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}
