// Package store is the single access path to the notes SQLite database.
//
// It owns the schema, the connection pragmas (WAL, foreign keys, bounded busy
// timeout), and the transaction boundary: every engine operation runs inside
// one Tx obtained from Store.WithTx, which commits on success and rolls back
// on any error or when a dry run is requested.
//
// All reads and writes are typed per entity (see package record); nothing
// outside this package issues SQL against the notes database.
package store
