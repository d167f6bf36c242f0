package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syssam/graphclone/clone"
	"github.com/syssam/graphclone/graph"
)

func newDescribeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "describe [type...]",
		Short: "Print the types, relations and default clone configuration of a schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.graph()
			if err != nil {
				return err
			}
			types := g.Types
			if len(args) > 0 {
				types = nil
				for _, name := range args {
					t, ok := g.Type(name)
					if !ok {
						return fmt.Errorf("unknown type %q", name)
					}
					types = append(types, t)
				}
			}
			for _, t := range types {
				describe(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
}

func describe(w io.Writer, t *graph.Type) {
	fmt.Fprintf(w, "%s (%s, id %s)\n", t.Name, t.Table, t.ID.Type)
	for _, f := range t.Fields {
		opt := ""
		if f.Optional {
			opt = ", optional"
		}
		fmt.Fprintf(w, "  %s %s%s\n", f.Name, f.Type, opt)
	}
	for _, r := range t.Relations {
		fmt.Fprintf(w, "  %s -> %s %s%s\n", r.Name, r.Target.Name, r.Kind, relationDetails(r))
	}
	if cfg := clone.ParseConfig(t.CloneDefaults); len(cfg) > 0 {
		fmt.Fprintf(w, "  defaults %s\n", cfg)
	}
}

func relationDetails(r *graph.Relation) string {
	var details []string
	switch {
	case r.Kind != graph.M2M:
		details = append(details, "column "+r.Column)
	case r.Junction != nil:
		details = append(details, fmt.Sprintf("junction %s(%s, %s)", r.Junction.Table, r.Junction.OwnerColumn, r.Junction.MemberColumn))
	case r.Through != nil:
		details = append(details, "through "+r.Through.Name)
	}
	if r.Shared {
		details = append(details, "shared")
	}
	if r.Fresh {
		details = append(details, "fresh")
	}
	for _, in := range r.Inherit {
		details = append(details, fmt.Sprintf("inherit %s<-%s", in.To, in.From))
	}
	return " [" + strings.Join(details, ", ") + "]"
}
