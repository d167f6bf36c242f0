package clone

import (
	"context"

	"github.com/syssam/graphclone/graph"
	"github.com/syssam/graphclone/storage"
)

// cloneManyToOne copies the records holding a foreign key to original
// and points the copies at newOwner. Dependents are handled one at a time
// in store order, since a self-referencing relation may reach records
// registered by an earlier iteration.
//
// A dependent that was already visited is not copied again. If it has a
// clone that still references the original owner, that clone's foreign
// key is patched to newOwner.
func (op *operation) cloneManyToOne(ctx context.Context, original, newOwner *storage.Record, rel *graph.Relation, cfg Config, extra map[string]any) error {
	dependents, err := op.store.Related(ctx, rel, original.ID)
	if err != nil {
		return err
	}
	t := rel.Target
	for _, dep := range dependents {
		if op.ids.Visited(t.Name, dep.ID) {
			if err := op.patch(ctx, rel, original, newOwner, dep); err != nil {
				return err
			}
			continue
		}
		record := dep.Duplicate()
		for name, v := range extra {
			if t.HasField(name) {
				record.Set(name, v)
			}
		}
		record.Set(rel.Column, newOwner.ID)
		if err := op.create(ctx, t, rel, dep, record); err != nil {
			return err
		}
		op.ids.Register(t.Name, dep.ID, record)
		// Records of another type may carry the owner's key further down;
		// self-references keep their own parent key instead.
		next := extra
		if t != rel.Owner {
			next = withField(extra, rel.Column, newOwner.ID)
		}
		if err := op.walk(ctx, dep, record, cfg, next); err != nil {
			return err
		}
	}
	return nil
}

func (op *operation) patch(ctx context.Context, rel *graph.Relation, original, newOwner, dep *storage.Record) error {
	clone, ok := op.ids.CloneOf(rel.Target.Name, dep.ID)
	if !ok || !storage.SameID(clone.Get(rel.Column), original.ID) {
		op.skip(ctx, "dependent already visited", rel, dep.ID)
		return nil
	}
	clone.Set(rel.Column, newOwner.ID)
	if err := op.update(ctx, rel, dep, clone, rel.Column); err != nil {
		return err
	}
	op.logger.DebugContext(ctx, "clone re-parented", "type", rel.Target.Name, "clone_id", clone.ID, "relation", rel.Name, "owner_id", newOwner.ID)
	return nil
}
