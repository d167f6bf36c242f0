package main

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/syssam/graphclone/clone"
	"github.com/syssam/graphclone/dialect/sql"
	"github.com/syssam/graphclone/graph"
	"github.com/syssam/graphclone/schema/field"
	"github.com/syssam/graphclone/storage/sqlstore"
)

type cloneOptions struct {
	*options
	config  string
	with    string
	stats   bool
	slow    time.Duration
	timeout time.Duration
}

// result is printed after a successful clone.
type result struct {
	Type    string         `json:"type"`
	ID      any            `json:"id"`
	CloneID any            `json:"clone_id"`
	Fields  map[string]any `json:"fields"`
}

func newCloneCmd(opts *options) *cobra.Command {
	co := &cloneOptions{options: opts}
	cmd := &cobra.Command{
		Use:   "clone <type> <id>",
		Short: "Clone a record and the relations selected by the clone configuration",
		Long: `Clone a record and the relations selected by the clone configuration.

Without --config or --with, the default clone configuration of the type is used.
The whole clone runs in one transaction and prints the new record as JSON.`,
		Args: cobra.ExactArgs(2),
		RunE: co.run,
	}
	flags := cmd.Flags()
	flags.StringVarP(&co.config, "config", "c", "", "clone configuration file (YAML or JSON)")
	flags.StringVarP(&co.with, "with", "w", "", "inline clone configuration, e.g. '{children: {}}'")
	flags.BoolVar(&co.stats, "stats", false, "print query statistics")
	flags.DurationVar(&co.slow, "slow", 100*time.Millisecond, "slow query threshold reported with --stats")
	flags.DurationVar(&co.timeout, "timeout", 0, "abort the clone after this duration")
	cmd.MarkFlagsMutuallyExclusive("config", "with")
	return cmd
}

func (co *cloneOptions) run(cmd *cobra.Command, args []string) error {
	g, err := co.graph()
	if err != nil {
		return err
	}
	t, ok := g.Type(args[0])
	if !ok {
		return fmt.Errorf("unknown type %q", args[0])
	}
	id, err := parseID(t, args[1])
	if err != nil {
		return err
	}
	cfg, err := co.cloneConfig()
	if err != nil {
		return err
	}
	logger := co.logger(cmd.ErrOrStderr())
	drv, err := co.open(logger)
	if err != nil {
		return err
	}
	var stats *sql.StatsDriver
	if co.stats {
		stats = sql.NewStatsDriver(drv, sql.WithSlowThreshold(co.slow), sql.WithSlowQueryLog(logger))
		drv = stats
	}
	defer drv.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if co.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, co.timeout)
		defer cancel()
	}
	root, err := clone.New(g, sqlstore.New(drv, g), clone.WithLogger(logger)).Clone(ctx, t.Name, id, cfg)
	if stats != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), stats.Stats())
	}
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(result{Type: t.Name, ID: id, CloneID: root.ID, Fields: root.Fields}, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

// cloneConfig returns nil when no configuration is given, so the type
// defaults apply.
func (co *cloneOptions) cloneConfig() (any, error) {
	switch {
	case co.config != "":
		return clone.ReadConfigFile(co.config)
	case co.with != "":
		return clone.LoadConfig([]byte(co.with), "yaml")
	}
	return nil, nil
}

// parseID converts a command-line id to the Go type of the type's id field.
func parseID(t *graph.Type, s string) (any, error) {
	switch t.ID.Type {
	case field.TypeInt:
		id, err := cast.ToInt64E(s)
		if err != nil {
			return nil, fmt.Errorf("invalid %s id %q: %w", t.Name, s, err)
		}
		return id, nil
	case field.TypeUUID:
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid %s id %q: %w", t.Name, s, err)
		}
		return id, nil
	}
	return s, nil
}
