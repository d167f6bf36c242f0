// Package sql provides the database/sql runtime of the SQL store.
//
// # Driver
//
// Driver adapts a *database/sql.DB to dialect.Driver. Exec scans into a
// *Result, Query into a *Rows:
//
//	drv, err := sql.Open(dialect.SQLite, "file:app.db")
//	rows := &sql.Rows{}
//	err = drv.Query(ctx, "SELECT id FROM roots", []any{}, rows)
//
// # Builders
//
// Dialect returns builders that quote identifiers and write placeholders
// for the configured dialect ("$1" for PostgreSQL, "?" otherwise):
//
//	q, args := sql.Dialect(dialect.Postgres).
//	    Select("id", "title").
//	    From("roots").
//	    Where(sql.EQ("id", 1)).
//	    Query()
//	// SELECT "id", "title" FROM "roots" WHERE "id" = $1
//
//	q, args = sql.Dialect(dialect.MySQL).
//	    Update("children").
//	    Set("root_id", 2).
//	    Where(sql.EQ("id", 7)).
//	    Query()
//	// UPDATE `children` SET `root_id` = ? WHERE `id` = ?
//
// # Instrumentation
//
// StatsDriver counts statements, accumulates their duration and reports
// slow ones; DebugDriver logs every statement through log/slog. Both wrap
// any dialect.Driver and keep wrapping the transactions they start.
package sql
