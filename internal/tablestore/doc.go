// Package tablestore reads whole tables from the remote tabular content store.
//
// A Store is addressed by (base id, table name) and returns every row of the
// table in no particular order. Backends:
//
//   - airtable: the hosted REST API, paginated with offsets.
//   - fixtures: <dir>/<base id>/<table>.json files, used by tests and demos.
//   - sqlite: a local snapshot written by `contentkit snapshot`, for offline runs.
//   - postgres: a shared snapshot kept in PostgreSQL tables.
//
// Selecting a base or table that does not exist returns a *NotFoundError that
// matches ErrUnknownBase or ErrUnknownTable and names the offending identifier.
package tablestore
