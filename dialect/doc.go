// Package dialect defines the driver interfaces used by the SQL store.
//
// # Supported Dialects
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Transaction Interface
//
//	type Tx interface {
//	    ExecQuerier
//	    Commit() error
//	    Rollback() error
//	}
//
// # Usage
//
//	import (
//	    "github.com/syssam/graphclone/dialect"
//	    "github.com/syssam/graphclone/dialect/sql"
//	    _ "modernc.org/sqlite"
//	)
//
//	drv, err := sql.Open(dialect.SQLite, "file:app.db?_pragma=foreign_keys(1)")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
//	store := sqlstore.New(drv, g)
//
// # Sub-packages
//
//   - dialect/sql: database/sql driver, statement builder, stats and debug drivers
//   - dialect/sql/sqlgraph: constraint error classification
package dialect
