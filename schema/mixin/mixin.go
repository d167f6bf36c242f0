package mixin

import (
	"context"
	"time"

	"github.com/syssam/graphclone/clone"
	"github.com/syssam/graphclone/schema"
	"github.com/syssam/graphclone/schema/field"
)

// Schema is the default implementation of schema.Mixin.
// It should be embedded in all custom mixin definitions.
//
//	type MyMixin struct {
//	    mixin.Schema
//	}
//
//	func (MyMixin) Fields() []schema.Field {
//	    return []schema.Field{
//	        field.String("custom_field"),
//	    }
//	}
type Schema struct{}

// Fields returns the fields of the mixin.
func (Schema) Fields() []schema.Field { return nil }

// Edges returns the edges of the mixin.
func (Schema) Edges() []schema.Edge { return nil }

var _ schema.Mixin = (*Schema)(nil)

// HookProvider is implemented by mixins whose fields must be rewritten
// on every clone, such as timestamps.
type HookProvider interface {
	Hooks() []clone.Hook
}

// Hooks collects the clone hooks of the given mixins.
//
//	c := clone.New(g, store, clone.WithHooks("Conference", mixin.Hooks(mixin.Time{})...))
func Hooks(mixins ...schema.Mixin) []clone.Hook {
	var hooks []clone.Hook
	for _, m := range mixins {
		if p, ok := m.(HookProvider); ok {
			hooks = append(hooks, p.Hooks()...)
		}
	}
	return hooks
}

// Time adds created_at and updated_at timestamp fields. Clones get fresh
// timestamps instead of the original's.
type Time struct {
	Schema
}

// Fields returns the time tracking fields.
func (Time) Fields() []schema.Field {
	return []schema.Field{
		field.Time("created_at").Comment("Timestamp when the record was created"),
		field.Time("updated_at").Comment("Timestamp when the record was last updated"),
	}
}

// Hooks returns a hook resetting both timestamps.
func (Time) Hooks() []clone.Hook {
	return []clone.Hook{ResetTime(time.Now, "created_at", "updated_at")}
}

// CreateTime adds only the created_at timestamp field.
type CreateTime struct {
	Schema
}

// Fields returns the created_at field.
func (CreateTime) Fields() []schema.Field {
	return []schema.Field{
		field.Time("created_at").Comment("Timestamp when the record was created"),
	}
}

// Hooks returns a hook resetting created_at.
func (CreateTime) Hooks() []clone.Hook {
	return []clone.Hook{ResetTime(time.Now, "created_at")}
}

// SoftDelete adds a nullable deleted_at field. Clones of soft-deleted
// records are restored.
type SoftDelete struct {
	Schema
}

// Fields returns the soft delete field.
func (SoftDelete) Fields() []schema.Field {
	return []schema.Field{
		field.Time("deleted_at").
			Optional().
			Comment("Timestamp when the record was soft deleted (nil means not deleted)"),
	}
}

// Hooks returns a hook clearing deleted_at.
func (SoftDelete) Hooks() []clone.Hook {
	return []clone.Hook{
		func(_ context.Context, m *clone.Mutation) error {
			if _, ok := m.Field("deleted_at"); ok {
				m.Record.Fields["deleted_at"] = nil
			}
			return nil
		},
	}
}

// Tenant adds a tenant_id field. Pair it with privacy.TenantRule to keep
// clones inside the viewer's tenant.
type Tenant struct {
	Schema
}

// Fields returns the tenant field.
func (Tenant) Fields() []schema.Field {
	return []schema.Field{
		field.String("tenant_id").Comment("Tenant owning the record"),
	}
}

// ResetTime returns a hook setting the given fields of every clone to now().
// Fields the clone does not carry are left unset.
func ResetTime(now func() time.Time, fields ...string) clone.Hook {
	return func(_ context.Context, m *clone.Mutation) error {
		if m.Record == nil || !m.Op.Is(clone.OpCreate) {
			return nil
		}
		t := now()
		for _, f := range fields {
			if m.Type != nil && !m.Type.HasField(f) {
				continue
			}
			m.Record.Fields[f] = t
		}
		return nil
	}
}

// Registry maps mixin names usable in schema documents to mixins.
var Registry = map[string]schema.Mixin{
	"time":        Time{},
	"create_time": CreateTime{},
	"soft_delete": SoftDelete{},
	"tenant":      Tenant{},
}
