// Command graphclone clones entity graphs stored in a SQL database.
//
//	graphclone describe --schema schema.yaml
//	graphclone migrate --schema schema.yaml --dry-run
//	graphclone clone Conference 42 --schema schema.yaml --with '{modules: {sessions: {}}}'
//
// The database is selected with --driver and --dsn, or the GRAPHCLONE_DRIVER
// and GRAPHCLONE_DSN environment variables; a .env file in the working
// directory is loaded first.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "graphclone:", err)
		os.Exit(1)
	}
}
