// Package pipeline defines the shared plumbing consumed by the import and
// translate engines.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers and the unit of work
//     (artifact, namespace, locale) for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into configuration and I/O errors so the CLI can report the root cause.
//   - The Phase type naming the per-run state machine.
//
// Use these helpers when wiring new engine logic so error reporting and
// observability stay uniform across both stages.
package pipeline
