// Package schema creates the SQL tables of a graph: one table per entity
// type and one junction table per auto-managed many-to-many relation.
//
//	if err := schema.NewMigrate(drv).Create(ctx, g); err != nil {
//	    return err
//	}
//
// Validate reports graphs whose tables cannot hold cloned records, such as
// foreign-key columns typed differently from the id they reference.
package schema
