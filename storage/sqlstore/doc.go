// Package sqlstore implements storage.Store on top of dialect/sql.
//
// Statements are written for the driver's dialect (PostgreSQL, MySQL or
// SQLite). Integer ids come back through RETURNING on PostgreSQL and
// LastInsertId elsewhere; UUID and string ids are generated before the
// insert. Driver constraint violations are reported as
// graphclone.ConstraintError wrapped in a graphclone.MutationError.
//
// The store never creates or alters tables.
package sqlstore
