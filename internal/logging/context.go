package logging

import (
	"context"
	"log/slog"

	"contentkit/internal/pipeline"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for run identifiers.
	FieldRunID = "run_id"
	// FieldStage is the standardized structured logging key for the engine name.
	FieldStage = "stage"
	// FieldArtifact is the standardized structured logging key for content artifacts.
	FieldArtifact = "artifact"
	// FieldNamespace is the standardized structured logging key for translation namespaces.
	FieldNamespace = "namespace"
	// FieldLocale is the standardized structured logging key for output locales.
	FieldLocale = "locale"
	// FieldPhase is the standardized structured logging key for run phases.
	FieldPhase = "phase"
	// FieldEventType classifies notable log lines for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests a remediation next to a warning or error.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 5)
	if id, ok := pipeline.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if stage, ok := pipeline.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if artifact, ok := pipeline.ArtifactFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldArtifact, artifact))
	}
	if namespace, ok := pipeline.NamespaceFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldNamespace, namespace))
	}
	if locale, ok := pipeline.LocaleFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldLocale, locale))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
