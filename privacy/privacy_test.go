package privacy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/graphclone"
	"github.com/syssam/graphclone/clone"
	"github.com/syssam/graphclone/graph"
	"github.com/syssam/graphclone/privacy"
	"github.com/syssam/graphclone/schema"
	"github.com/syssam/graphclone/schema/edge"
	"github.com/syssam/graphclone/schema/field"
	"github.com/syssam/graphclone/storage"
	"github.com/syssam/graphclone/storage/memstore"
)

func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.New(
		schema.Entity("Project").
			Fields(field.String("name"), field.String("tenant_id"), field.String("owner_id")).
			Edges(
				edge.To("tasks", "Task"),
				edge.To("labels", "Label").ManyToMany().Shared(),
			),
		schema.Entity("Task").Fields(field.Int("project_id"), field.String("tenant_id"), field.String("title")),
		schema.Entity("Label").Fields(field.String("name")),
	)
	require.NoError(t, err)
	return g
}

func mutation(t *testing.T, op clone.Op, typ string, fields map[string]any) *clone.Mutation {
	t.Helper()
	nt, ok := testGraph(t).Type(typ)
	require.True(t, ok)
	return &clone.Mutation{Op: op, Type: nt, Record: &storage.Record{Type: typ, Fields: fields}}
}

func TestDecisions(t *testing.T) {
	t.Parallel()
	assert.ErrorIs(t, privacy.Allowf("admin %d", 1), privacy.Allow)
	assert.ErrorIs(t, privacy.Denyf("blocked %s", "x"), privacy.Deny)
	assert.ErrorIs(t, privacy.Skipf("n/a"), privacy.Skip)
	assert.Equal(t, "blocked x: graphclone/privacy: deny rule", privacy.Denyf("blocked %s", "x").Error())
}

func TestMutationPolicy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := mutation(t, clone.OpCreate, "Project", nil)

	tests := []struct {
		name   string
		policy privacy.MutationPolicy
		deny   bool
	}{
		{name: "Empty", policy: nil},
		{name: "AllSkip", policy: privacy.MutationPolicy{
			privacy.MutationRuleFunc(func(context.Context, *clone.Mutation) error { return privacy.Skip }),
			privacy.MutationRuleFunc(func(context.Context, *clone.Mutation) error { return nil }),
		}},
		{name: "AllowFirst", policy: privacy.MutationPolicy{privacy.AlwaysAllowRule(), privacy.AlwaysDenyRule()}},
		{name: "DenyFirst", policy: privacy.MutationPolicy{privacy.AlwaysDenyRule(), privacy.AlwaysAllowRule()}, deny: true},
		{name: "SkipThenDeny", policy: privacy.MutationPolicy{
			privacy.ContextMutationRule(func(context.Context) error { return privacy.Skip }),
			privacy.AlwaysDenyRule(),
		}, deny: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.EvalMutation(ctx, m)
			if tt.deny {
				assert.ErrorIs(t, err, privacy.Deny)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestMutationPolicyCustomError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	policy := privacy.MutationPolicy{
		privacy.MutationRuleFunc(func(context.Context, *clone.Mutation) error { return boom }),
		privacy.AlwaysAllowRule(),
	}
	err := policy.EvalMutation(context.Background(), mutation(t, clone.OpCreate, "Project", nil))
	assert.ErrorIs(t, err, boom)
}

func TestPolicies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := mutation(t, clone.OpCreate, "Project", nil)

	allow := privacy.MutationPolicy{privacy.AlwaysAllowRule()}
	deny := privacy.MutationPolicy{privacy.AlwaysDenyRule()}

	assert.NoError(t, privacy.Policies{allow, allow}.EvalMutation(ctx, m))
	assert.ErrorIs(t, privacy.Policies{allow, deny}.EvalMutation(ctx, m), privacy.Deny)
	assert.NoError(t, privacy.Policies{}.EvalMutation(ctx, m))
}

func TestDecisionContext(t *testing.T) {
	t.Parallel()
	m := mutation(t, clone.OpCreate, "Project", nil)
	deny := privacy.MutationPolicy{privacy.AlwaysDenyRule()}

	ctx := privacy.DecisionContext(context.Background(), privacy.Allow)
	assert.NoError(t, deny.EvalMutation(ctx, m))
	assert.NoError(t, privacy.Policies{deny}.EvalMutation(ctx, m))

	ctx = privacy.DecisionContext(context.Background(), privacy.Deny)
	assert.ErrorIs(t, privacy.MutationPolicy{privacy.AlwaysAllowRule()}.EvalMutation(ctx, m), privacy.Deny)

	ctx = privacy.DecisionContext(context.Background(), privacy.Skip)
	_, ok := privacy.DecisionFromContext(ctx)
	assert.False(t, ok)
}

func TestOperationRules(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	create := mutation(t, clone.OpCreate, "Project", nil)
	attach := mutation(t, clone.OpAttach, "Project", nil)

	rule := privacy.DenyOperationRule(clone.OpAttach)
	assert.ErrorIs(t, rule.EvalMutation(ctx, create), privacy.Skip)
	err := rule.EvalMutation(ctx, attach)
	assert.ErrorIs(t, err, privacy.Deny)
	assert.Contains(t, err.Error(), "operation attach is not allowed")

	rule = privacy.AllowOperationRule(clone.OpCreate | clone.OpUpdate)
	assert.ErrorIs(t, rule.EvalMutation(ctx, create), privacy.Allow)
	assert.ErrorIs(t, rule.EvalMutation(ctx, attach), privacy.Skip)
}

func TestTypeRules(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rule := privacy.DenyTypeRule("Task", "Label")

	assert.ErrorIs(t, rule.EvalMutation(ctx, mutation(t, clone.OpCreate, "Task", nil)), privacy.Deny)
	assert.ErrorIs(t, rule.EvalMutation(ctx, mutation(t, clone.OpCreate, "Project", nil)), privacy.Skip)
	assert.ErrorIs(t, rule.EvalMutation(ctx, &clone.Mutation{Op: clone.OpCreate}), privacy.Skip)

	only := privacy.OnTypes(privacy.AlwaysAllowRule(), "Project")
	assert.ErrorIs(t, only.EvalMutation(ctx, mutation(t, clone.OpCreate, "Project", nil)), privacy.Allow)
	assert.ErrorIs(t, only.EvalMutation(ctx, mutation(t, clone.OpCreate, "Task", nil)), privacy.Skip)
}

func seed(t *testing.T, g *graph.Graph, s *memstore.Store) {
	t.Helper()
	ctx := context.Background()
	create := func(typ string, id any, fields map[string]any) {
		nt, _ := g.Type(typ)
		require.NoError(t, s.Create(ctx, nt, &storage.Record{Type: typ, ID: id, Fields: fields}))
	}
	create("Project", 1, map[string]any{"name": "p1", "tenant_id": "acme", "owner_id": "42"})
	create("Task", 1, map[string]any{"project_id": 1, "tenant_id": "acme", "title": "t1"})
	create("Task", 2, map[string]any{"project_id": 1, "tenant_id": "acme", "title": "t2"})
	create("Label", 1, map[string]any{"name": "urgent"})
	project, _ := g.Type("Project")
	labels, _ := project.Relation("labels")
	require.NoError(t, s.Attach(ctx, labels, 1, 1))
}

func TestClonePolicyIntegration(t *testing.T) {
	t.Parallel()
	cfg := clone.Config{"tasks": {}, "labels": {}}

	t.Run("Allowed", func(t *testing.T) {
		g := testGraph(t)
		s := memstore.New(g)
		seed(t, g, s)
		policy := privacy.MutationPolicy{
			privacy.DenyIfNoViewer(),
			privacy.TenantRule("tenant_id"),
			privacy.AllowOperationRule(clone.OpAttach),
			privacy.AlwaysDenyRule(),
		}
		ctx := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{UserID: "42", TenantID: "acme"})
		_, err := clone.New(g, s, clone.WithPolicy(policy)).Clone(ctx, "Project", 1, cfg)
		require.NoError(t, err)
		assert.Equal(t, 2, s.Count("Project"))
		assert.Equal(t, 4, s.Count("Task"))
		assert.Equal(t, 1, s.Count("Label"))
	})

	t.Run("NoViewer", func(t *testing.T) {
		g := testGraph(t)
		s := memstore.New(g)
		seed(t, g, s)
		policy := privacy.MutationPolicy{privacy.DenyIfNoViewer()}
		_, err := clone.New(g, s, clone.WithPolicy(policy)).Clone(context.Background(), "Project", 1, cfg)
		require.Error(t, err)
		assert.True(t, graphclone.IsPrivacyError(err))
		assert.ErrorIs(t, err, privacy.Deny)
		assert.Equal(t, 1, s.Count("Project"))
	})

	t.Run("DeniedType", func(t *testing.T) {
		g := testGraph(t)
		s := memstore.New(g)
		seed(t, g, s)
		policy := privacy.MutationPolicy{privacy.DenyTypeRule("Task")}
		_, err := clone.New(g, s, clone.WithPolicy(policy)).Clone(context.Background(), "Project", 1, cfg)
		require.Error(t, err)
		var perr *graphclone.PrivacyError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "Task", perr.Entity)
		assert.Equal(t, "create", perr.Op)
		assert.Equal(t, 1, s.Count("Project"))
		assert.Equal(t, 2, s.Count("Task"))
	})

	t.Run("WrongTenant", func(t *testing.T) {
		g := testGraph(t)
		s := memstore.New(g)
		seed(t, g, s)
		policy := privacy.MutationPolicy{privacy.OnTypes(privacy.TenantRule("tenant_id"), "Project", "Task")}
		ctx := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{UserID: "7", TenantID: "globex"})
		_, err := clone.New(g, s, clone.WithPolicy(policy)).Clone(ctx, "Project", 1, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tenant mismatch")
		assert.Equal(t, 1, s.Count("Project"))
	})
}
