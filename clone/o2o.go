package clone

import (
	"context"

	"github.com/syssam/graphclone"
	"github.com/syssam/graphclone/graph"
	"github.com/syssam/graphclone/storage"
)

// cloneOneToOne copies the single dependent of original onto newOwner.
// A missing dependent is not an error.
//
// Clones made earlier in this operation may still reference the original
// owner; they are not counted as dependents. A dependent already copied
// through another relation is not copied again: its clone is re-pointed
// to newOwner instead.
//
// The new dependent starts from the old dependent's fields, or from an
// empty record when the relation is Fresh. Inherited fields are then
// copied from newOwner, and the foreign key is set last.
func (op *operation) cloneOneToOne(ctx context.Context, original, newOwner *storage.Record, rel *graph.Relation, cfg Config) error {
	related, err := op.store.Related(ctx, rel, original.ID)
	if err != nil {
		return err
	}
	t := rel.Target
	dependents := related[:0:0]
	for _, r := range related {
		if _, ok := op.ids.CloneOf(t.Name, r.ID); ok || !op.ids.Visited(t.Name, r.ID) {
			dependents = append(dependents, r)
		}
	}
	switch len(dependents) {
	case 0:
		return nil
	case 1:
	default:
		return graphclone.NewNotSingularError(rel.String(), len(dependents))
	}
	dep := dependents[0]
	if op.ids.Visited(t.Name, dep.ID) {
		return op.patch(ctx, rel, original, newOwner, dep)
	}
	record := storage.NewRecord(t.Name)
	if !rel.Fresh {
		record = dep.Duplicate()
	}
	for _, in := range rel.Inherit {
		if in.From == rel.Owner.ID.Name {
			record.Set(in.To, newOwner.ID)
		} else {
			record.Set(in.To, newOwner.Get(in.From))
		}
	}
	record.Set(rel.Column, newOwner.ID)
	if err := op.create(ctx, t, rel, dep, record); err != nil {
		return err
	}
	op.ids.Register(t.Name, dep.ID, record)
	return op.walk(ctx, dep, record, cfg, nil)
}
