package clone

import (
	"context"
	"log/slog"
	"maps"

	"github.com/syssam/graphclone"
	"github.com/syssam/graphclone/graph"
	"github.com/syssam/graphclone/storage"
)

// operation is the state of one Clone call.
type operation struct {
	*Cloner
	store storage.Store
	ids   *IdentityMap
	tally *tally
}

func (c *Cloner) operation(s storage.Store) *operation {
	return &operation{Cloner: c, store: s, ids: NewIdentityMap(), tally: newTally()}
}

func (op *operation) records() int {
	var n int
	for _, v := range op.tally.records {
		n += v
	}
	return n
}

func (op *operation) cloneRoot(ctx context.Context, t *graph.Type, load func(context.Context, storage.Store) (*storage.Record, error), cfg Config) (*storage.Record, error) {
	original, err := load(ctx, op.store)
	if err != nil {
		return nil, err
	}
	root := original.Duplicate()
	root.Type = t.Name
	if err := op.create(ctx, t, nil, original, root); err != nil {
		return nil, err
	}
	op.ids.Register(t.Name, original.ID, root)
	if err := op.walk(ctx, original, root, cfg, nil); err != nil {
		return nil, err
	}
	return root, nil
}

// walk dispatches every relation of the original's type that cfg
// selects to the cloner of its kind.
func (op *operation) walk(ctx context.Context, original, clone *storage.Record, cfg Config, extra map[string]any) error {
	t, ok := op.graph.Type(original.Type)
	if !ok {
		return graphclone.NewNotFoundErrorWithID("type", original.Type)
	}
	for _, name := range cfg.Keys() {
		if _, ok := t.Relation(name); !ok {
			op.logger.WarnContext(ctx, "unknown relation in clone config", "type", t.Name, "relation", name)
		}
	}
	for _, rel := range op.graph.Classify(t.Name) {
		nested, ok := cfg.Has(rel.Name)
		if !ok {
			continue
		}
		var err error
		switch rel.Kind {
		case graph.O2O:
			err = op.cloneOneToOne(ctx, original, clone, rel, nested)
		case graph.O2M:
			err = op.cloneManyToOne(ctx, original, clone, rel, nested, extra)
		case graph.M2M:
			err = op.cloneManyToMany(ctx, original, clone, rel, nested, extra)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// create runs the hooks and the policy, then persists record.
func (op *operation) create(ctx context.Context, t *graph.Type, rel *graph.Relation, original, record *storage.Record) error {
	m := &Mutation{Op: OpCreate, Type: t, Relation: rel, Original: original, Record: record}
	for _, hooks := range [][]Hook{op.hooks[""], op.hooks[t.Name]} {
		for _, hook := range hooks {
			if err := hook(ctx, m); err != nil {
				return err
			}
		}
	}
	if err := op.eval(ctx, m); err != nil {
		return err
	}
	if err := op.store.Create(ctx, t, record); err != nil {
		return mutationError(t.Name, OpCreate, err)
	}
	op.tally.records[t.Name]++
	args := []any{"type", t.Name, "id", original.ID, "clone_id", record.ID}
	if rel != nil {
		args = append(args, "relation", rel.Name)
	}
	op.logger.DebugContext(ctx, "record cloned", args...)
	return nil
}

func (op *operation) update(ctx context.Context, rel *graph.Relation, original, record *storage.Record, fields ...string) error {
	t := rel.Target
	m := &Mutation{Op: OpUpdate, Type: t, Relation: rel, Original: original, Record: record, Fields: fields}
	if err := op.eval(ctx, m); err != nil {
		return err
	}
	if err := op.store.Update(ctx, t, record, fields...); err != nil {
		return mutationError(t.Name, OpUpdate, err)
	}
	op.tally.patches[t.Name]++
	return nil
}

func (op *operation) attach(ctx context.Context, rel *graph.Relation, original, owner *storage.Record, members []any) error {
	m := &Mutation{Op: OpAttach, Type: rel.Owner, Relation: rel, Original: original, Record: owner, Members: members}
	if err := op.eval(ctx, m); err != nil {
		return err
	}
	if err := op.store.Attach(ctx, rel, owner.ID, members...); err != nil {
		return mutationError(rel.Owner.Name, OpAttach, err)
	}
	op.tally.links[rel.String()] += len(members)
	op.logger.DebugContext(ctx, "members attached", "type", rel.Owner.Name, "clone_id", owner.ID, "relation", rel.Name, "members", len(members))
	return nil
}

func (op *operation) eval(ctx context.Context, m *Mutation) error {
	if op.policy == nil {
		return nil
	}
	if d := op.policy.EvalMutation(ctx, m); d != nil {
		return graphclone.NewPrivacyError(m.Type.Name, m.Op.String(), d)
	}
	return nil
}

func (op *operation) skip(ctx context.Context, msg string, rel *graph.Relation, id any) {
	op.logger.DebugContext(ctx, msg, slog.String("type", rel.Target.Name), slog.Any("id", id), slog.String("relation", rel.Name))
}

// mutationError wraps store errors that are not already typed by the store.
func mutationError(typ string, o Op, err error) error {
	if graphclone.IsMutationError(err) {
		return err
	}
	return graphclone.NewMutationError(typ, o.String(), err)
}

// withField returns a copy of extra with name set to v.
func withField(extra map[string]any, name string, v any) map[string]any {
	m := maps.Clone(extra)
	if m == nil {
		m = make(map[string]any, 1)
	}
	m[name] = v
	return m
}
