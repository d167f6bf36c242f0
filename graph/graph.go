package graph

import (
	"errors"
	"fmt"

	"github.com/go-openapi/inflect"

	"github.com/syssam/graphclone"
	"github.com/syssam/graphclone/schema"
	"github.com/syssam/graphclone/schema/edge"
	"github.com/syssam/graphclone/schema/field"
)

// Kind is the kind of a relation as seen from its owner.
type Kind uint8

// Relation kinds.
const (
	// O2O is a one-to-one relation: at most one dependent holds a foreign key to the owner.
	O2O Kind = iota + 1
	// O2M is a reverse foreign key: any number of dependents hold a foreign key to the owner.
	O2M
	// M2M is a many-to-many relation over a junction table or entity.
	M2M
)

// String returns the relation kind name.
func (k Kind) String() string {
	switch k {
	case O2O:
		return "O2O"
	case O2M:
		return "O2M"
	case M2M:
		return "M2M"
	default:
		return "Unknown"
	}
}

type (
	// Graph holds the resolved entity types. It is immutable after New
	// and safe for concurrent use.
	Graph struct {
		Types []*Type
		nodes map[string]*Type
	}

	// Type is a resolved entity type.
	Type struct {
		Name          string
		Table         string
		ID            *field.Descriptor
		Fields        []*field.Descriptor
		Relations     []*Relation
		Comment       string
		CloneDefaults any
		fields        map[string]*field.Descriptor
	}

	// Relation is a classified edge between an owner and a target type.
	Relation struct {
		Name     string
		Kind     Kind
		Owner    *Type
		Target   *Type
		Column   string    // foreign-key column on Target (O2O, O2M).
		Junction *Junction // auto-managed junction (M2M).
		Through  *Type     // explicit junction entity (M2M).
		Shared   bool
		Fresh    bool
		Inherit  []edge.Inherit
		Comment  string
	}

	// Junction describes an auto-managed many-to-many table.
	Junction struct {
		Table        string
		OwnerColumn  string
		MemberColumn string
	}
)

// New resolves the given declarations into a Graph. Relation kinds,
// default names and column references are resolved and validated here,
// once, so the clone engine never inspects schema metadata at clone time.
func New(defs ...schema.Definition) (*Graph, error) {
	g := &Graph{nodes: make(map[string]*Type, len(defs))}
	var errs []error
	descs := make([]*schema.Descriptor, 0, len(defs))
	for _, def := range defs {
		d := def.Descriptor()
		t, err := newType(d)
		if err != nil {
			errs = append(errs, err...)
			continue
		}
		if _, ok := g.nodes[t.Name]; ok {
			errs = append(errs, graphclone.NewValidationError(t.Name, "", errors.New("type declared twice")))
			continue
		}
		g.nodes[t.Name] = t
		g.Types = append(g.Types, t)
		descs = append(descs, d)
	}
	for i, d := range descs {
		errs = append(errs, g.resolveEdges(g.Types[i], d.Edges)...)
	}
	if err := graphclone.NewAggregateError(errs...); err != nil {
		return nil, err
	}
	return g, nil
}

// MustNew is like New but panics on error.
func MustNew(defs ...schema.Definition) *Graph {
	g, err := New(defs...)
	if err != nil {
		panic(err)
	}
	return g
}

// Type returns the type with the given name.
func (g *Graph) Type(name string) (*Type, bool) {
	t, ok := g.nodes[name]
	return t, ok
}

// Classify returns the relations of the named type in declaration order,
// or nil if the type is unknown. Scalars and forward foreign keys are
// never relations.
func (g *Graph) Classify(name string) []*Relation {
	if t, ok := g.nodes[name]; ok {
		return t.Relations
	}
	return nil
}

func newType(d *schema.Descriptor) (*Type, []error) {
	if d.Name == "" {
		return nil, []error{graphclone.NewValidationError("", "", errors.New("missing type name"))}
	}
	t := &Type{
		Name:          d.Name,
		Table:         d.Table,
		ID:            d.ID,
		Comment:       d.Comment,
		CloneDefaults: d.CloneDefaults,
		fields:        make(map[string]*field.Descriptor, len(d.Fields)),
	}
	if t.Table == "" {
		t.Table = inflect.Pluralize(inflect.Underscore(d.Name))
	}
	if t.ID == nil {
		t.ID = field.Int("id").Descriptor()
	}
	var errs []error
	if t.ID.Type != field.TypeInt && t.ID.Type != field.TypeUUID && t.ID.Type != field.TypeString {
		errs = append(errs, graphclone.NewValidationError(t.Name, t.ID.Name, fmt.Errorf("unsupported id type %s", t.ID.Type)))
	}
	for _, f := range d.Fields {
		switch {
		case f.Name == "":
			errs = append(errs, graphclone.NewValidationError(t.Name, "", errors.New("field without name")))
		case !f.Type.Valid():
			errs = append(errs, graphclone.NewValidationError(t.Name, f.Name, fmt.Errorf("invalid field type %d", f.Type)))
		case f.Name == t.ID.Name:
			errs = append(errs, graphclone.NewValidationError(t.Name, f.Name, errors.New("field shadows the id field")))
		case t.fields[f.Name] != nil:
			errs = append(errs, graphclone.NewValidationError(t.Name, f.Name, errors.New("field declared twice")))
		default:
			t.fields[f.Name] = f
			t.Fields = append(t.Fields, f)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return t, nil
}

func (g *Graph) resolveEdges(owner *Type, edges []*edge.Descriptor) []error {
	var errs []error
	fail := func(name string, format string, args ...any) {
		errs = append(errs, graphclone.NewValidationError(owner.Name, name, fmt.Errorf(format, args...)))
	}
	seen := make(map[string]bool, len(edges))
	for _, e := range edges {
		if e.Name == "" {
			fail("", "edge without name")
			continue
		}
		if seen[e.Name] {
			fail(e.Name, "edge declared twice")
			continue
		}
		seen[e.Name] = true
		target, ok := g.nodes[e.Type]
		if !ok {
			fail(e.Name, "unknown target type %q", e.Type)
			continue
		}
		r := &Relation{
			Name:    e.Name,
			Owner:   owner,
			Target:  target,
			Shared:  e.Shared,
			Fresh:   e.Fresh,
			Inherit: e.Inherit,
			Comment: e.Comment,
		}
		switch {
		case e.IsM2M():
			r.Kind = M2M
			if e.Through != nil && e.ThroughEntity != "" {
				fail(e.Name, "junction table and junction entity are mutually exclusive")
				continue
			}
			if e.Unique || e.Field != "" || e.Fresh || len(e.Inherit) > 0 {
				fail(e.Name, "many-to-many edge does not accept one-to-one or foreign-key options")
				continue
			}
			if e.ThroughEntity != "" {
				through, ok := g.nodes[e.ThroughEntity]
				if !ok {
					fail(e.Name, "unknown junction entity %q", e.ThroughEntity)
					continue
				}
				r.Through = through
				break
			}
			r.Junction = &Junction{
				Table:        e.Through.Table,
				OwnerColumn:  e.Through.OwnerColumn,
				MemberColumn: e.Through.MemberColumn,
			}
			if r.Junction.Table == "" {
				r.Junction.Table = owner.Table + "_" + inflect.Underscore(e.Name)
			}
			if r.Junction.OwnerColumn == "" {
				r.Junction.OwnerColumn = ForeignKey(owner.Name)
			}
			if r.Junction.MemberColumn == "" {
				r.Junction.MemberColumn = ForeignKey(target.Name)
			}
			if r.Junction.OwnerColumn == r.Junction.MemberColumn {
				fail(e.Name, "junction columns must differ, got %q twice", r.Junction.OwnerColumn)
				continue
			}
		default:
			r.Kind = O2M
			if e.Unique {
				r.Kind = O2O
			}
			if e.Shared {
				fail(e.Name, "only many-to-many edges can be shared")
				continue
			}
			if r.Kind == O2M && (e.Fresh || len(e.Inherit) > 0) {
				fail(e.Name, "fresh and inherit apply to one-to-one edges only")
				continue
			}
			r.Column = e.Field
			if r.Column == "" {
				r.Column = ForeignKey(owner.Name)
			}
			if !target.HasField(r.Column) {
				fail(e.Name, "foreign key %q is not a field of %s", r.Column, target.Name)
				continue
			}
			bad := false
			for _, in := range e.Inherit {
				if !target.HasField(in.To) {
					fail(e.Name, "inherited field %q is not a field of %s", in.To, target.Name)
					bad = true
				}
				if !owner.HasField(in.From) && in.From != owner.ID.Name {
					fail(e.Name, "inherited field %q is not a field of %s", in.From, owner.Name)
					bad = true
				}
			}
			if bad {
				continue
			}
		}
		owner.Relations = append(owner.Relations, r)
	}
	return errs
}

// ForeignKey returns the default foreign-key column referencing the named type.
func ForeignKey(typ string) string {
	return inflect.Underscore(typ) + "_id"
}

// Field returns the field with the given name.
func (t *Type) Field(name string) (*field.Descriptor, bool) {
	f, ok := t.fields[name]
	return f, ok
}

// HasField reports if the type declares the given field.
func (t *Type) HasField(name string) bool {
	_, ok := t.fields[name]
	return ok
}

// Columns returns the field names in declaration order, without the ID.
func (t *Type) Columns() []string {
	columns := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		columns[i] = f.Name
	}
	return columns
}

// Relation returns the relation with the given name.
func (t *Type) Relation(name string) (*Relation, bool) {
	for _, r := range t.Relations {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// AutoManaged reports if the relation is a many-to-many relation over
// an auto-managed junction table.
func (r *Relation) AutoManaged() bool {
	return r.Kind == M2M && r.Junction != nil
}

// String returns the relation in the "Owner.name(KIND)" form.
func (r *Relation) String() string {
	return fmt.Sprintf("%s.%s(%s)", r.Owner.Name, r.Name, r.Kind)
}
