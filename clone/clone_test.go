package clone_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/graphclone"
	"github.com/syssam/graphclone/clone"
	"github.com/syssam/graphclone/graph"
	"github.com/syssam/graphclone/schema"
	"github.com/syssam/graphclone/schema/edge"
	"github.com/syssam/graphclone/schema/field"
	"github.com/syssam/graphclone/storage"
	"github.com/syssam/graphclone/storage/memstore"
)

func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.New(
		schema.Entity("Root").
			Fields(field.String("title"), field.String("code")).
			Edges(
				edge.To("children", "Child"),
				edge.To("tags", "Tag").ManyToMany().Shared(),
				edge.To("docs", "Doc"),
				edge.To("items", "Item"),
				edge.To("people", "Person"),
				edge.To("groups", "Group"),
				edge.To("profile", "Profile").Unique().Inherit("title", "title"),
				edge.To("settings", "Setting").Unique().Fresh().Inherit("label", "code"),
			).
			CloneDefaults(map[string]any{"children": map[string]any{}}),
		schema.Entity("Child").Fields(field.Int("root_id"), field.String("name")),
		schema.Entity("Tag").Fields(field.String("name")),
		schema.Entity("Doc").Fields(field.Int("root_id"), field.Int("item_id").Optional(), field.String("name")),
		schema.Entity("Item").
			Fields(field.Int("root_id"), field.String("name")).
			Edges(edge.To("subitems", "SubItem"), edge.To("docs", "Doc")),
		schema.Entity("SubItem").Fields(field.Int("item_id"), field.Int("root_id"), field.String("name")),
		schema.Entity("Person").ID(field.UUID("id")).Fields(field.Int("root_id"), field.String("name")),
		schema.Entity("Group").
			Fields(field.Int("root_id"), field.String("name")).
			Edges(edge.To("members", "Person").ManyToMany()),
		schema.Entity("Profile").Fields(field.Int("root_id"), field.String("title"), field.String("bio")),
		schema.Entity("Setting").Fields(field.Int("root_id"), field.String("label"), field.String("theme")),
		schema.Entity("Node").
			Fields(field.Int("parent_id").Optional(), field.String("name")).
			Edges(edge.To("children", "Node").Field("parent_id")),
	)
	require.NoError(t, err)
	return g
}

type fixture struct {
	t     *testing.T
	g     *graph.Graph
	store *memstore.Store
}

func newFixture(t *testing.T, opts ...memstore.Option) *fixture {
	t.Helper()
	g := testGraph(t)
	return &fixture{t: t, g: g, store: memstore.New(g, opts...)}
}

func (f *fixture) typ(name string) *graph.Type {
	f.t.Helper()
	t, ok := f.g.Type(name)
	require.True(f.t, ok, name)
	return t
}

func (f *fixture) rel(owner, name string) *graph.Relation {
	f.t.Helper()
	r, ok := f.typ(owner).Relation(name)
	require.True(f.t, ok, name)
	return r
}

func (f *fixture) seed(typ string, id any, fields map[string]any) {
	f.t.Helper()
	require.NoError(f.t, f.store.Create(context.Background(), f.typ(typ), &storage.Record{Type: typ, ID: id, Fields: fields}))
}

func (f *fixture) link(owner, name string, ownerID any, members ...any) {
	f.t.Helper()
	require.NoError(f.t, f.store.Attach(context.Background(), f.rel(owner, name), ownerID, members...))
}

func (f *fixture) related(owner, name string, ownerID any) []*storage.Record {
	f.t.Helper()
	records, err := f.store.Related(context.Background(), f.rel(owner, name), ownerID)
	require.NoError(f.t, err)
	return records
}

func (f *fixture) get(typ string, id any) *storage.Record {
	f.t.Helper()
	r, err := f.store.Get(context.Background(), f.typ(typ), id)
	require.NoError(f.t, err)
	return r
}

func keys(records []*storage.Record) []string {
	ks := make([]string, len(records))
	for i, r := range records {
		ks[i] = storage.Key(r.ID)
	}
	return ks
}

// seedExample creates Root 1 with children 1 and 2 and tags 1, 2 and 3.
func (f *fixture) seedExample() {
	f.seed("Root", 1, map[string]any{"title": "r1", "code": "A"})
	f.seed("Child", 1, map[string]any{"root_id": 1, "name": "c1"})
	f.seed("Child", 2, map[string]any{"root_id": 1, "name": "c2"})
	for i, name := range []string{"go", "sql", "graph"} {
		f.seed("Tag", i+1, map[string]any{"name": name})
	}
	f.link("Root", "tags", 1, 1, 2, 3)
}

func TestCloneExampleScenario(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seedExample()

	root, err := clone.New(f.g, f.store).Clone(context.Background(), "Root", 1, clone.Config{"children": {}, "tags": {}})
	require.NoError(t, err)

	assert.False(t, storage.SameID(root.ID, 1))
	assert.Equal(t, map[string]any{"title": "r1", "code": "A"}, root.Fields)
	assert.Equal(t, 2, f.store.Count("Root"))

	children := f.related("Root", "children", root.ID)
	require.Len(t, children, 2)
	assert.Equal(t, "c1", children[0].Get("name"))
	assert.Equal(t, "c2", children[1].Get("name"))
	assert.Equal(t, 4, f.store.Count("Child"))
	assert.Len(t, f.related("Root", "children", 1), 2, "original children keep their owner")

	assert.Equal(t, 3, f.store.Count("Tag"), "shared tags are not duplicated")
	assert.Equal(t, []string{"1", "2", "3"}, keys(f.related("Root", "tags", root.ID)))
	assert.Equal(t, 6, f.store.Links("roots_tags"))
}

func TestCloneConfigPruning(t *testing.T) {
	t.Parallel()
	seed := func(f *fixture) {
		f.seedExample()
		f.seed("Item", 10, map[string]any{"root_id": 1, "name": "i1"})
		f.seed("SubItem", 100, map[string]any{"item_id": 10, "root_id": 1, "name": "s1"})
	}

	t.Run("Empty", func(t *testing.T) {
		f := newFixture(t)
		seed(f)
		_, err := clone.New(f.g, f.store).Clone(context.Background(), "Root", 1, clone.Config{})
		require.NoError(t, err)
		assert.Equal(t, 2, f.store.Count("Root"))
		assert.Equal(t, 2, f.store.Count("Child"))
		assert.Equal(t, 1, f.store.Count("Item"))
		assert.Equal(t, 3, f.store.Links("roots_tags"))
	})

	t.Run("DirectOnly", func(t *testing.T) {
		f := newFixture(t)
		seed(f)
		root, err := clone.New(f.g, f.store).Clone(context.Background(), "Root", 1, clone.Config{"items": {}})
		require.NoError(t, err)
		assert.Len(t, f.related("Root", "items", root.ID), 1)
		assert.Equal(t, 1, f.store.Count("SubItem"))
		assert.Equal(t, 2, f.store.Count("Child"))
	})

	t.Run("Nested", func(t *testing.T) {
		f := newFixture(t)
		seed(f)
		root, err := clone.New(f.g, f.store).Clone(context.Background(), "Root", 1, map[string]any{
			"items": map[string]any{"subitems": nil},
		})
		require.NoError(t, err)
		items := f.related("Root", "items", root.ID)
		require.Len(t, items, 1)
		subitems := f.related("Item", "subitems", items[0].ID)
		require.Len(t, subitems, 1)
		assert.True(t, storage.SameID(subitems[0].Get("root_id"), root.ID), "owner keys propagate to nested records")
		assert.Equal(t, "s1", subitems[0].Get("name"))
	})

	t.Run("Defaults", func(t *testing.T) {
		f := newFixture(t)
		seed(f)
		root, err := clone.New(f.g, f.store).Clone(context.Background(), "Root", 1, nil)
		require.NoError(t, err)
		assert.Len(t, f.related("Root", "children", root.ID), 2)
		assert.Equal(t, 1, f.store.Count("Item"))
	})

	t.Run("NilConfig", func(t *testing.T) {
		f := newFixture(t)
		seed(f)
		root, err := clone.New(f.g, f.store).Clone(context.Background(), "Root", 1, clone.Config(nil))
		require.NoError(t, err)
		assert.Len(t, f.related("Root", "children", root.ID), 2)
	})

	t.Run("NotAMapping", func(t *testing.T) {
		f := newFixture(t)
		seed(f)
		root, err := clone.New(f.g, f.store).Clone(context.Background(), "Root", 1, []string{"children"})
		require.NoError(t, err)
		assert.Empty(t, f.related("Root", "children", root.ID))
		assert.Equal(t, 2, f.store.Count("Root"))
	})
}

func TestCloneIdempotentVisitation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seed("Root", 1, map[string]any{"title": "r1"})
	f.seed("Item", 10, map[string]any{"root_id": 1, "name": "i1"})
	f.seed("Doc", 5, map[string]any{"root_id": 1, "item_id": 10, "name": "d1"})

	root, err := clone.New(f.g, f.store).Clone(context.Background(), "Root", 1, clone.Config{
		"docs":  {},
		"items": {"docs": {}},
	})
	require.NoError(t, err)

	require.Equal(t, 2, f.store.Count("Doc"), "the doc is copied once")
	items := f.related("Root", "items", root.ID)
	require.Len(t, items, 1)
	docs := f.related("Root", "docs", root.ID)
	require.Len(t, docs, 1)
	assert.True(t, storage.SameID(docs[0].Get("item_id"), items[0].ID), "both paths reference the same copy")
	assert.Equal(t, keys(docs), keys(f.related("Item", "docs", items[0].ID)))

	orig := f.get("Doc", 5)
	assert.True(t, storage.SameID(orig.Get("root_id"), 1))
	assert.True(t, storage.SameID(orig.Get("item_id"), 10))
}

func TestCloneCycle(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seed("Node", 1, map[string]any{"parent_id": 3, "name": "a"})
	f.seed("Node", 2, map[string]any{"parent_id": 1, "name": "b"})
	f.seed("Node", 3, map[string]any{"parent_id": 2, "name": "c"})

	cfg := clone.Config{}
	cfg["children"] = cfg
	root, err := clone.New(f.g, f.store).Clone(context.Background(), "Node", 1, cfg)
	require.NoError(t, err)

	nodes := f.store.Records("Node")
	require.Len(t, nodes, 6, "one copy per distinct node")
	byName := make(map[string]*storage.Record)
	for _, n := range nodes[3:] {
		byName[n.Get("name").(string)] = n
	}
	assert.True(t, storage.SameID(byName["a"].ID, root.ID))
	assert.True(t, storage.SameID(byName["b"].Get("parent_id"), byName["a"].ID))
	assert.True(t, storage.SameID(byName["c"].Get("parent_id"), byName["b"].ID))
	assert.True(t, storage.SameID(byName["a"].Get("parent_id"), byName["c"].ID), "the cycle closes on the copies")
}

func TestCloneTree(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seed("Node", 1, map[string]any{"name": "root"})
	f.seed("Node", 2, map[string]any{"parent_id": 1, "name": "l"})
	f.seed("Node", 3, map[string]any{"parent_id": 1, "name": "r"})
	f.seed("Node", 4, map[string]any{"parent_id": 2, "name": "ll"})

	root, err := clone.New(f.g, f.store).Clone(context.Background(), "Node", 1, clone.Config{"children": {"children": {}}})
	require.NoError(t, err)
	assert.Nil(t, root.Get("parent_id"))

	level1 := f.related("Node", "children", root.ID)
	require.Len(t, level1, 2)
	level2 := f.related("Node", "children", level1[0].ID)
	require.Len(t, level2, 1)
	assert.Equal(t, "ll", level2[0].Get("name"))
	assert.Equal(t, 8, f.store.Count("Node"))
}

func TestCloneManyToManyNonDuplication(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	p1, p2, p3 := uuid.New(), uuid.New(), uuid.New()
	f.seed("Root", 1, map[string]any{"title": "r1"})
	f.seed("Person", p1, map[string]any{"root_id": 1, "name": "p1"})
	f.seed("Person", p2, map[string]any{"root_id": 1, "name": "p2"})
	f.seed("Person", p3, map[string]any{"root_id": 99, "name": "p3"})
	f.seed("Group", 1, map[string]any{"root_id": 1, "name": "g1"})
	f.link("Group", "members", 1, p1, p2, p3)

	root, err := clone.New(f.g, f.store).Clone(context.Background(), "Root", 1, clone.Config{
		"people": {},
		"groups": {"members": {}},
	})
	require.NoError(t, err)

	assert.Equal(t, 6, f.store.Count("Person"), "each person is copied once")
	people := f.related("Root", "people", root.ID)
	require.Len(t, people, 2)
	groups := f.related("Root", "groups", root.ID)
	require.Len(t, groups, 1)
	members := keys(f.related("Group", "members", groups[0].ID))
	require.Len(t, members, 3)
	assert.Contains(t, members, storage.Key(people[0].ID))
	assert.Contains(t, members, storage.Key(people[1].ID))
	for _, orig := range []uuid.UUID{p1, p2, p3} {
		assert.NotContains(t, members, storage.Key(orig))
	}
}

func TestCloneManyToManyExplicitJunction(t *testing.T) {
	t.Parallel()
	g, err := graph.New(
		schema.Entity("Event").
			Fields(field.String("name")).
			Edges(
				edge.To("attendees", "Attendee").ThroughEntity("EventAttendee"),
				edge.To("event_attendees", "EventAttendee"),
			),
		schema.Entity("Attendee").Fields(field.String("name")),
		schema.Entity("EventAttendee").Fields(field.Int("event_id"), field.Int("attendee_id")),
	)
	require.NoError(t, err)
	s := memstore.New(g)
	ctx := context.Background()
	create := func(typ string, id int, fields map[string]any) {
		tp, _ := g.Type(typ)
		require.NoError(t, s.Create(ctx, tp, &storage.Record{Type: typ, ID: id, Fields: fields}))
	}
	create("Event", 1, map[string]any{"name": "e"})
	create("Attendee", 1, map[string]any{"name": "a"})
	create("EventAttendee", 1, map[string]any{"event_id": 1, "attendee_id": 1})

	_, err = clone.New(g, s).Clone(ctx, "Event", 1, clone.Config{"attendees": {}, "event_attendees": {}})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count("Attendee"))
	assert.Equal(t, 2, s.Count("EventAttendee"), "junction rows are cloned through the one-to-many edge")
}

func TestCloneOneToOne(t *testing.T) {
	t.Parallel()

	t.Run("InheritAndFresh", func(t *testing.T) {
		f := newFixture(t)
		f.seed("Root", 1, map[string]any{"title": "r1", "code": "A"})
		f.seed("Profile", 7, map[string]any{"root_id": 1, "title": "old", "bio": "b"})
		f.seed("Setting", 8, map[string]any{"root_id": 1, "label": "x", "theme": "dark"})

		rename := func(_ context.Context, m *clone.Mutation) error {
			m.Record.Set("title", m.Record.Get("title").(string)+" (copy)")
			return nil
		}
		root, err := clone.New(f.g, f.store, clone.WithHooks("Root", rename)).
			Clone(context.Background(), "Root", 1, clone.Config{"profile": {}, "settings": {}})
		require.NoError(t, err)

		profiles := f.related("Root", "profile", root.ID)
		require.Len(t, profiles, 1)
		assert.Equal(t, "r1 (copy)", profiles[0].Get("title"))
		assert.Equal(t, "b", profiles[0].Get("bio"))

		settings := f.related("Root", "settings", root.ID)
		require.Len(t, settings, 1)
		assert.Equal(t, map[string]any{"root_id": root.ID, "label": "A"}, settings[0].Fields)
	})

	t.Run("Missing", func(t *testing.T) {
		f := newFixture(t)
		f.seed("Root", 1, map[string]any{"title": "r1"})
		_, err := clone.New(f.g, f.store).Clone(context.Background(), "Root", 1, clone.Config{"profile": {}})
		require.NoError(t, err)
		assert.Zero(t, f.store.Count("Profile"))
	})

	t.Run("NotSingular", func(t *testing.T) {
		f := newFixture(t)
		f.seed("Root", 1, map[string]any{"title": "r1"})
		f.seed("Profile", 1, map[string]any{"root_id": 1})
		f.seed("Profile", 2, map[string]any{"root_id": 1})
		_, err := clone.New(f.g, f.store).Clone(context.Background(), "Root", 1, clone.Config{"profile": {}})
		require.Error(t, err)
		assert.True(t, graphclone.IsNotSingular(err))
		assert.Equal(t, 1, f.store.Count("Root"))
	})

	t.Run("ReachedTwice", func(t *testing.T) {
		g, err := graph.New(
			schema.Entity("Root").
				Fields(field.String("title")).
				Edges(edge.To("details", "Detail"), edge.To("parts", "Part")),
			schema.Entity("Part").
				Fields(field.Int("root_id")).
				Edges(edge.To("detail", "Detail").Field("part_id").Unique()),
			schema.Entity("Detail").Fields(field.Int("root_id"), field.Int("part_id").Optional()),
		)
		require.NoError(t, err)
		store := memstore.New(g)
		ctx := context.Background()
		seed := func(typ string, id any, fields map[string]any) {
			ty, _ := g.Type(typ)
			require.NoError(t, store.Create(ctx, ty, &storage.Record{Type: typ, ID: id, Fields: fields}))
		}
		seed("Root", 1, map[string]any{"title": "r1"})
		seed("Part", 10, map[string]any{"root_id": 1})
		seed("Detail", 20, map[string]any{"root_id": 1, "part_id": 10})

		root, err := clone.New(g, store).Clone(ctx, "Root", 1, clone.Config{"details": {}, "parts": {"detail": {}}})
		require.NoError(t, err)
		assert.Equal(t, 2, store.Count("Detail"))

		rootType, _ := g.Type("Root")
		parts, _ := rootType.Relation("parts")
		newParts, err := store.Related(ctx, parts, root.ID)
		require.NoError(t, err)
		require.Len(t, newParts, 1)

		partType, _ := g.Type("Part")
		detail, _ := partType.Relation("detail")
		newDetails, err := store.Related(ctx, detail, newParts[0].ID)
		require.NoError(t, err)
		require.Len(t, newDetails, 1)
		assert.True(t, storage.SameID(root.ID, newDetails[0].Get("root_id")))

		oldDetails, err := store.Related(ctx, detail, 10)
		require.NoError(t, err)
		require.Len(t, oldDetails, 1)
		assert.True(t, storage.SameID(20, oldDetails[0].ID))
	})
}

func TestCloneAtomicity(t *testing.T) {
	t.Parallel()
	boom := errors.New("disk full")
	// Seeding performs creates 1 and 2; the second copied SubItem is create 4.
	f := newFixture(t, memstore.WithFault(memstore.FailOn(memstore.OpCreate, "SubItem", 4, boom)))
	f.seed("Root", 1, map[string]any{"title": "r1"})
	f.seed("Item", 10, map[string]any{"root_id": 1})
	f.seed("Item", 11, map[string]any{"root_id": 1})
	f.seed("SubItem", 100, map[string]any{"item_id": 10})
	f.seed("SubItem", 101, map[string]any{"item_id": 11})

	_, err := clone.New(f.g, f.store).Clone(context.Background(), "Root", 1, clone.Config{"items": {"subitems": {}}})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, graphclone.IsMutationError(err))

	assert.Equal(t, 1, f.store.Count("Root"))
	assert.Equal(t, 2, f.store.Count("Item"))
	assert.Equal(t, 2, f.store.Count("SubItem"))
}

type rollbackFailure struct {
	*memstore.Store
}

func (s rollbackFailure) Tx(ctx context.Context) (storage.Tx, error) {
	tx, err := s.Store.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return rollbackFailureTx{tx}, nil
}

type rollbackFailureTx struct {
	storage.Tx
}

func (rollbackFailureTx) Rollback() error { return errors.New("connection lost") }

func TestCloneRollbackError(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seed("Root", 1, map[string]any{"title": "r1"})
	f.seed("Profile", 1, map[string]any{"root_id": 1})
	f.seed("Profile", 2, map[string]any{"root_id": 1})

	_, err := clone.New(f.g, rollbackFailure{f.store}).Clone(context.Background(), "Root", 1, clone.Config{"profile": {}})
	require.Error(t, err)
	assert.True(t, graphclone.IsNotSingular(err))
	var rerr *graphclone.RollbackError
	require.ErrorAs(t, err, &rerr)
	assert.EqualError(t, rerr.Err, "connection lost")
}

func TestCloneNotFound(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	c := clone.New(f.g, f.store)

	_, err := c.Clone(context.Background(), "Root", 42, nil)
	require.Error(t, err)
	assert.True(t, graphclone.IsNotFound(err))

	_, err = c.Clone(context.Background(), "Planet", 1, nil)
	require.Error(t, err)
	var nf *graphclone.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "type", nf.Label())
	assert.Equal(t, "Planet", nf.ID())
}

func TestCloneRecord(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seedExample()

	original := f.get("Root", 1)
	root, err := clone.New(f.g, f.store).CloneRecord(context.Background(), original, clone.Config{"tags": {}})
	require.NoError(t, err)
	assert.Equal(t, "Root", root.Type)
	assert.Len(t, f.related("Root", "tags", root.ID), 3)
	assert.Empty(t, f.related("Root", "children", root.ID))
	assert.True(t, storage.SameID(original.ID, 1), "the original record is not modified")
}

func TestCloneUnknownRelation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seedExample()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	root, err := clone.New(f.g, f.store, clone.WithLogger(logger)).
		Clone(context.Background(), "Root", 1, clone.Config{"children": {"grandchildren": {}}, "bogus": {}})
	require.NoError(t, err)
	assert.Len(t, f.related("Root", "children", root.ID), 2)

	out := buf.String()
	assert.Contains(t, out, "unknown relation in clone config")
	assert.Contains(t, out, "relation=bogus")
	assert.Contains(t, out, "relation=grandchildren")
	assert.Contains(t, out, "record cloned")
}

func TestCloneHooks(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seedExample()

	var seen []string
	all := func(_ context.Context, m *clone.Mutation) error {
		require.True(t, m.Op.Is(clone.OpCreate))
		seen = append(seen, m.Type.Name)
		return nil
	}
	code := func(_ context.Context, m *clone.Mutation) error {
		assert.Nil(t, m.Relation)
		assert.True(t, storage.SameID(m.Original.ID, 1))
		m.Record.Set("code", "B")
		return nil
	}
	root, err := clone.New(f.g, f.store, clone.WithHooks("", all), clone.WithHooks("Root", code)).
		Clone(context.Background(), "Root", 1, clone.Config{"children": {}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Root", "Child", "Child"}, seen)
	assert.Equal(t, "B", root.Get("code"))
	assert.Equal(t, "B", f.get("Root", root.ID).Get("code"))

	failing := func(context.Context, *clone.Mutation) error { return errors.New("code exhausted") }
	_, err = clone.New(f.g, f.store, clone.WithHooks("Child", failing)).
		Clone(context.Background(), "Root", 1, clone.Config{"children": {}})
	require.EqualError(t, err, "code exhausted")
	assert.Equal(t, 2, f.store.Count("Root"))
}

func TestClonePolicy(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seedExample()

	var ops []string
	policy := clone.PolicyFunc(func(_ context.Context, m *clone.Mutation) error {
		ops = append(ops, m.Op.String())
		if m.Op.Is(clone.OpAttach) {
			assert.Equal(t, []any{int64(1), int64(2), int64(3)}, m.Members)
			return errors.New("tags are read-only")
		}
		return nil
	})
	_, err := clone.New(f.g, f.store, clone.WithPolicy(policy)).
		Clone(context.Background(), "Root", 1, clone.Config{"children": {}, "tags": {}})
	require.Error(t, err)
	assert.True(t, graphclone.IsPrivacyError(err))
	assert.Contains(t, err.Error(), "tags are read-only")
	assert.Equal(t, []string{"create", "create", "create", "attach"}, ops)
	assert.Equal(t, 1, f.store.Count("Root"))
	assert.Equal(t, 2, f.store.Count("Child"))
}

func TestCloneMetrics(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seedExample()
	reg := prometheus.NewRegistry()
	m := clone.NewMetrics(reg)
	c := clone.New(f.g, f.store, clone.WithMetrics(m))

	_, err := c.Clone(context.Background(), "Root", 1, clone.Config{"children": {}, "tags": {}})
	require.NoError(t, err)
	_, err = c.Clone(context.Background(), "Root", 404, nil)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("Root", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("Root", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Records.WithLabelValues("Root")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Records.WithLabelValues("Child")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Links.WithLabelValues("Root.tags(M2M)")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Duration))
}

func TestCloneMetricsPatches(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seed("Root", 1, map[string]any{"title": "r1"})
	f.seed("Item", 10, map[string]any{"root_id": 1})
	f.seed("Doc", 5, map[string]any{"root_id": 1, "item_id": 10})
	m := clone.NewMetrics(nil)

	_, err := clone.New(f.g, f.store, clone.WithMetrics(m)).
		Clone(context.Background(), "Root", 1, clone.Config{"docs": {}, "items": {"docs": {}}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Patches.WithLabelValues("Doc")))
}
