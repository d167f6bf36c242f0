// Package sqlgraph classifies driver errors raised by the SQL store.
//
// PostgreSQL (lib/pq and SQLSTATE-aware drivers), MySQL and SQLite
// report constraint violations differently; ConstraintKind folds them
// into one of UniqueConstraint, ForeignKeyConstraint or CheckConstraint
// and WrapConstraint turns them into graphclone.ConstraintError.
package sqlgraph
