package pipeline

import "context"

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	stageKey     contextKey = "stage"
	artifactKey  contextKey = "artifact"
	namespaceKey contextKey = "namespace"
	localeKey    contextKey = "locale"
)

// WithRunID annotates context with the run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, runIDKey)
}

// WithStage annotates context with the engine name ("import" or "translate").
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the engine name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, stageKey)
}

// WithArtifact annotates context with the content artifact being built.
func WithArtifact(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, artifactKey, name)
}

// ArtifactFromContext returns the artifact name if present.
func ArtifactFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, artifactKey)
}

// WithNamespace annotates context with the translation namespace.
func WithNamespace(ctx context.Context, namespace string) context.Context {
	if namespace == "" {
		return ctx
	}
	return context.WithValue(ctx, namespaceKey, namespace)
}

// NamespaceFromContext returns the namespace if present.
func NamespaceFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, namespaceKey)
}

// WithLocale annotates context with an output locale code.
func WithLocale(ctx context.Context, locale string) context.Context {
	if locale == "" {
		return ctx
	}
	return context.WithValue(ctx, localeKey, locale)
}

// LocaleFromContext returns the locale code if present.
func LocaleFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, localeKey)
}

func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if str, ok := ctx.Value(key).(string); ok && str != "" {
		return str, true
	}
	return "", false
}
