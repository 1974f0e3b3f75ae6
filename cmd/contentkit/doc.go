// Package main hosts the contentkit CLI entrypoint and command graph.
//
// The Cobra command tree maps terminal invocations onto the content import
// and translation engines, the sqlite snapshot, the translate watcher, and
// configuration scaffolding. Configuration resolution, store selection, and
// logger construction live in commandContext so subcommands only wire flags
// to engine calls and render the resulting reports.
package main
