// Package graphclone duplicates persisted entity graphs.
//
// Given a root record, the clone engine produces a new root plus copies of
// every record reachable through a configured subset of its relations, and
// rewires foreign keys so the new subgraph is self-consistent and disjoint
// from the original except where relations are declared shared.
//
// # Packages
//
//   - schema, schema/field, schema/edge: declarative entity types and relations
//   - schema/load: YAML schema documents
//   - schema/mixin: shared fields with their clone hooks
//   - graph: resolved types with classified relations (O2O, O2M, M2M)
//   - storage: the persistence collaborator interface and Record type
//   - storage/memstore, storage/sqlstore: store implementations
//   - dialect, dialect/sql: SQL driver runtime used by sqlstore
//   - dialect/sql/schema: table creation and schema validation
//   - clone: identity map, relation cloners, graph walker, entry point
//   - privacy: mutation policies evaluated before every clone write
//
// # Usage
//
//	g, err := graph.New(
//	    schema.Entity("Root").
//	        Fields(field.String("title")).
//	        Edges(
//	            edge.To("children", "Child").Field("root_id"),
//	            edge.To("tags", "Tag").Through("root_tags", "root_id", "tag_id").Shared(),
//	        ),
//	    schema.Entity("Child").Fields(field.Int("root_id")),
//	    schema.Entity("Tag").Fields(field.String("name")),
//	)
//	if err != nil {
//	    return err
//	}
//	c := clone.New(g, sqlstore.New(drv, g))
//	root, err := c.Clone(ctx, "Root", 1, clone.Config{"children": {}, "tags": {}})
//
// This package holds the error types shared by all of the above.
package graphclone
