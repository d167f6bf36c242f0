// Package storage defines the persistence collaborator of the clone engine.
//
// A Store reads records by ID or through a relation, creates records with
// generated identifiers, updates selected fields, and attaches members to
// auto-managed many-to-many relations. Stores that also implement
// Transactor let the engine run a whole clone in one transaction.
//
// Two implementations are provided:
//
//   - memstore: in-memory tables with snapshot transactions, used in tests
//     and for dry runs.
//   - sqlstore: SQL tables through dialect/sql (PostgreSQL, MySQL, SQLite).
package storage
