// Package content turns remote content tables into JSON artifacts and feeds
// their translatable strings into namespace extract files.
//
// Each Artifact in the registry binds one or more source tables to a pure
// Transform. Engine.Run fetches every table the selected artifacts need, runs
// the transforms, then writes content files and merges extract keys. Stages
// never overlap: nothing is written until every fetch and transform is done.
package content
