package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/graphclone/dialect/sql/schema"
)

func newMigrateCmd(opts *options) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the tables of the schema that do not exist yet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := opts.graph()
			if err != nil {
				return err
			}
			logger := opts.logger(cmd.ErrOrStderr())
			drv, err := opts.open(logger)
			if err != nil {
				return err
			}
			defer drv.Close()
			m := schema.NewMigrate(drv, schema.WithLogger(logger))
			if !dryRun {
				return m.Create(cmd.Context(), g)
			}
			if res := schema.Validate(g); res.HasErrors() || res.HasWarnings() {
				fmt.Fprint(cmd.ErrOrStderr(), res)
			}
			for _, stmt := range m.Statements(g) {
				fmt.Fprintln(cmd.OutOrStdout(), stmt+";")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the statements instead of executing them")
	return cmd
}
