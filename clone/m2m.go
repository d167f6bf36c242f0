package clone

import (
	"context"

	"github.com/syssam/graphclone/graph"
	"github.com/syssam/graphclone/storage"
)

// cloneManyToMany links newOwner to the members of original through the
// relation's junction table. Relations over an explicit junction entity
// are skipped; they are cloned as one-to-many relations of that entity.
//
// Members of a Shared relation are linked as they are, or through their
// clone when this operation already copied them. Other members are copied
// once: an unvisited member is duplicated and walked, a visited member is
// linked through its existing clone, and a visited member without a clone
// (itself a clone) is skipped.
func (op *operation) cloneManyToMany(ctx context.Context, original, newOwner *storage.Record, rel *graph.Relation, cfg Config, extra map[string]any) error {
	if !rel.AutoManaged() {
		return nil
	}
	members, err := op.store.Related(ctx, rel, original.ID)
	if err != nil {
		return err
	}
	var (
		t    = rel.Target
		ids  []any
		seen = make(map[string]struct{})
	)
	add := func(id any) {
		k := storage.Key(id)
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, m := range members {
		if clone, ok := op.ids.CloneOf(t.Name, m.ID); ok {
			add(clone.ID)
			continue
		}
		switch {
		case rel.Shared:
			add(m.ID)
		case op.ids.Visited(t.Name, m.ID):
			op.skip(ctx, "member already visited", rel, m.ID)
		default:
			record := m.Duplicate()
			if err := op.create(ctx, t, rel, m, record); err != nil {
				return err
			}
			op.ids.Register(t.Name, m.ID, record)
			if err := op.walk(ctx, m, record, cfg, extra); err != nil {
				return err
			}
			add(record.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return op.attach(ctx, rel, original, newOwner, ids)
}
