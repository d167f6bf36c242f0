// Package graph resolves entity declarations into a classified relation graph.
//
// The Graph is built once, typically at startup, and gives the clone engine
// a static relation table per entity type:
//
//	g, err := graph.New(
//	    schema.Entity("Root").Edges(
//	        edge.To("children", "Child"),
//	        edge.To("tags", "Tag").ManyToMany().Shared(),
//	    ),
//	    schema.Entity("Child").Fields(field.Int("root_id")),
//	    schema.Entity("Tag").Fields(field.String("name")),
//	)
//
//	for _, r := range g.Classify("Root") {
//	    fmt.Println(r) // Root.children(O2M), Root.tags(M2M)
//	}
//
// # Relation Kinds
//
//   - O2O: one dependent holds Column = owner ID (at most one).
//   - O2M: any number of dependents hold Column = owner ID.
//   - M2M: members are linked through a Junction table (auto-managed) or a
//     Through entity (explicit). Only auto-managed relations are cloned as
//     many-to-many.
//
// # Naming Conventions
//
// Unset names are derived with go-openapi/inflect:
//
//	table:            plural(underscore(Type))        ScheduleModule -> schedule_modules
//	foreign key:      underscore(Owner) + "_id"       Conference -> conference_id
//	junction table:   owner table + "_" + edge name   conferences_settings
//	junction columns: underscore(Owner) + "_id", underscore(Target) + "_id"
//
// # Validation
//
// New reports every problem it finds as a graphclone.ValidationError,
// aggregated into one error: duplicate types, fields or edges, unknown
// targets, foreign keys missing on the target, and options that do not
// match the relation kind.
package graph
