package edge

// A Descriptor for edge configuration.
type Descriptor struct {
	Name          string    // accessor name, also the clone configuration key.
	Type          string    // target entity type name.
	Field         string    // foreign-key column on the target (O2O and O2M).
	Unique        bool      // one dependent per owner (O2O).
	Through       *Through  // auto-managed junction table (M2M).
	ThroughEntity string    // user-visible junction entity (explicit M2M).
	Shared        bool      // M2M members are linked, never duplicated.
	Fresh         bool      // O2O dependent starts empty instead of copying the old one.
	Inherit       []Inherit // O2O fields copied from the owner clone.
	Comment       string    // edge comment.
}

// Through describes an auto-managed junction table. Empty names are
// derived from the owner and target types when the graph is built.
type Through struct {
	Table        string
	OwnerColumn  string
	MemberColumn string
}

// Inherit copies the owner clone's From field into the dependent's To field.
type Inherit struct {
	To   string
	From string
}

// IsM2M reports if the descriptor declares a many-to-many relation.
func (d *Descriptor) IsM2M() bool {
	return d.Through != nil || d.ThroughEntity != ""
}

// Builder for edges.
type Builder struct {
	desc *Descriptor
}

// To defines an edge from the declaring type to the target type.
// Without further options it is a reverse foreign key (O2M): every
// target record whose Field column equals the owner ID belongs to it.
//
//	edge.To("children", "Child").Field("parent_id")
//	edge.To("profile", "Profile").Unique()
//	edge.To("tags", "Tag").Through("root_tags", "root_id", "tag_id")
func To(name, typ string) *Builder {
	return &Builder{desc: &Descriptor{Name: name, Type: typ}}
}

// Field sets the foreign-key column on the target type.
func (b *Builder) Field(f string) *Builder {
	b.desc.Field = f
	return b
}

// Unique makes the edge one-to-one.
func (b *Builder) Unique() *Builder {
	b.desc.Unique = true
	return b
}

// Through makes the edge many-to-many over an auto-managed junction table.
// Any argument may be empty to use the derived default.
func (b *Builder) Through(table, ownerColumn, memberColumn string) *Builder {
	b.desc.Through = &Through{Table: table, OwnerColumn: ownerColumn, MemberColumn: memberColumn}
	return b
}

// ManyToMany is shorthand for Through("", "", "").
func (b *Builder) ManyToMany() *Builder {
	return b.Through("", "", "")
}

// ThroughEntity makes the edge many-to-many over a user-visible junction
// entity. Such edges are never cloned as many-to-many; declare an O2M edge
// to the junction entity to clone its rows.
func (b *Builder) ThroughEntity(typ string) *Builder {
	b.desc.ThroughEntity = typ
	return b
}

// Shared links the members of a many-to-many edge to the clone instead
// of duplicating them.
func (b *Builder) Shared() *Builder {
	b.desc.Shared = true
	return b
}

// Fresh makes a one-to-one dependent clone start from an empty record,
// so it carries only inherited owner fields and the foreign key.
func (b *Builder) Fresh() *Builder {
	b.desc.Fresh = true
	return b
}

// Inherit copies the owner clone's from field into the dependent's to field
// when a one-to-one dependent is cloned.
func (b *Builder) Inherit(to, from string) *Builder {
	b.desc.Inherit = append(b.desc.Inherit, Inherit{To: to, From: from})
	return b
}

// Comment sets the comment of the edge.
func (b *Builder) Comment(c string) *Builder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the schema.Edge interface by returning its descriptor.
func (b *Builder) Descriptor() *Descriptor {
	return b.desc
}
