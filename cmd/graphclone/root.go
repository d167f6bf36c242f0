package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/syssam/graphclone/dialect"
	"github.com/syssam/graphclone/dialect/sql"
	"github.com/syssam/graphclone/graph"
	"github.com/syssam/graphclone/schema/load"
)

// Environment variables consulted when the matching flag is not set.
const (
	envDriver = "GRAPHCLONE_DRIVER"
	envDSN    = "GRAPHCLONE_DSN"
	envSchema = "GRAPHCLONE_SCHEMA"
)

type options struct {
	schema  string
	envFile string
	verbose bool
	driver  string
	dsn     string
	debug   bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "graphclone",
		Short:         "Deep-clone records and their related records",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("loading %s: %w", opts.envFile, err)
			}
			if opts.schema == "" {
				opts.schema = os.Getenv(envSchema)
			}
			if opts.driver == "" {
				opts.driver = os.Getenv(envDriver)
			}
			if opts.dsn == "" {
				opts.dsn = os.Getenv(envDSN)
			}
			return nil
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.schema, "schema", "s", "", "schema file (YAML), defaults to $"+envSchema)
	flags.StringVar(&opts.envFile, "env-file", ".env", "environment file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log every cloned record")
	flags.StringVar(&opts.driver, "driver", "", "database driver (sqlite, mysql, postgres), defaults to $"+envDriver)
	flags.StringVar(&opts.dsn, "dsn", "", "data source name, defaults to $"+envDSN)
	flags.BoolVar(&opts.debug, "debug", false, "log every SQL statement")
	cmd.AddCommand(newCloneCmd(opts), newDescribeCmd(opts), newMigrateCmd(opts))
	return cmd
}

func (o *options) graph() (*graph.Graph, error) {
	if o.schema == "" {
		return nil, errors.New("no schema file, use --schema or $" + envSchema)
	}
	descs, err := load.ReadFile(o.schema)
	if err != nil {
		return nil, err
	}
	return graph.New(load.Definitions(descs)...)
}

func (o *options) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// open connects to the database selected by --driver and --dsn.
func (o *options) open(logger *slog.Logger) (dialect.Driver, error) {
	if o.driver == "" || o.dsn == "" {
		return nil, fmt.Errorf("no database, use --driver and --dsn or $%s and $%s", envDriver, envDSN)
	}
	db, err := sql.Open(o.driver, o.dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", o.driver, err)
	}
	if o.debug {
		return sql.NewDebugDriver(db, logger.With("component", "sql")), nil
	}
	return db, nil
}
