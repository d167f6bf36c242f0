package schema

import (
	"github.com/syssam/graphclone/schema/edge"
	"github.com/syssam/graphclone/schema/field"
)

// Field is the interface implemented by field builders.
type Field interface {
	Descriptor() *field.Descriptor
}

// Edge is the interface implemented by edge builders.
type Edge interface {
	Descriptor() *edge.Descriptor
}

// Mixin is a reusable set of fields and edges added to entity types.
// See the schema/mixin package.
type Mixin interface {
	Fields() []Field
	Edges() []Edge
}

// Definition is the interface implemented by entity builders.
// graph.New accepts any Definition.
type Definition interface {
	Descriptor() *Descriptor
}

// Descriptor holds the declaration of one entity type.
type Descriptor struct {
	Name    string
	Table   string            // empty means derived from Name.
	ID      *field.Descriptor // nil means an int "id" column.
	Fields  []*field.Descriptor
	Edges   []*edge.Descriptor
	Comment string
	// CloneDefaults is the configuration used when a clone of this type is
	// requested without one. Any nested mapping literal is accepted, e.g.
	// map[string]any{"children": map[string]any{}}.
	CloneDefaults any
}

// EntityBuilder declares an entity type.
type EntityBuilder struct {
	desc *Descriptor
}

// Entity starts the declaration of the named entity type.
//
//	schema.Entity("Conference").
//	    Fields(field.String("title"), field.Int("client_id")).
//	    Edges(edge.To("modules", "Module").Field("conference_id")).
//	    CloneDefaults(map[string]any{"modules": map[string]any{}})
func Entity(name string) *EntityBuilder {
	return &EntityBuilder{desc: &Descriptor{Name: name}}
}

// Table sets the storage table of the type.
func (b *EntityBuilder) Table(t string) *EntityBuilder {
	b.desc.Table = t
	return b
}

// ID overrides the identifier field, e.g. field.UUID("id").
func (b *EntityBuilder) ID(f Field) *EntityBuilder {
	b.desc.ID = f.Descriptor()
	return b
}

// Fields appends scalar and foreign-key fields.
func (b *EntityBuilder) Fields(fields ...Field) *EntityBuilder {
	for _, f := range fields {
		b.desc.Fields = append(b.desc.Fields, f.Descriptor())
	}
	return b
}

// Edges appends relations owned by this type.
func (b *EntityBuilder) Edges(edges ...Edge) *EntityBuilder {
	for _, e := range edges {
		b.desc.Edges = append(b.desc.Edges, e.Descriptor())
	}
	return b
}

// Mixin adds the fields and edges of the given mixins. Mixin fields come
// before the fields declared with Fields, in mixin order.
func (b *EntityBuilder) Mixin(mixins ...Mixin) *EntityBuilder {
	var fields []*field.Descriptor
	for _, m := range mixins {
		for _, f := range m.Fields() {
			fields = append(fields, f.Descriptor())
		}
		for _, e := range m.Edges() {
			b.desc.Edges = append(b.desc.Edges, e.Descriptor())
		}
	}
	b.desc.Fields = append(fields, b.desc.Fields...)
	return b
}

// CloneDefaults sets the static default clone configuration of the type.
func (b *EntityBuilder) CloneDefaults(cfg any) *EntityBuilder {
	b.desc.CloneDefaults = cfg
	return b
}

// Comment sets the comment of the type.
func (b *EntityBuilder) Comment(c string) *EntityBuilder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the Definition interface.
func (b *EntityBuilder) Descriptor() *Descriptor {
	return b.desc
}

// Descriptor implements the Definition interface, so loaded descriptors
// can be passed to graph.New directly.
func (d *Descriptor) Descriptor() *Descriptor {
	return d
}
