// Package load reads entity type declarations from YAML schema documents.
//
//	types:
//	  - name: Root
//	    fields:
//	      - {name: title, type: string}
//	    edges:
//	      - {name: children, type: Child}
//	      - {name: tags, type: Tag, many_to_many: true, shared: true}
//	    clone_defaults:
//	      children: {}
//	  - name: Child
//	    mixins: [time]
//	    fields:
//	      - {name: root_id, type: int}
//	  - name: Tag
//	    fields:
//	      - {name: name, type: string}
//
// The returned descriptors are passed to graph.New as is.
package load

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/syssam/graphclone"
	"github.com/syssam/graphclone/schema"
	"github.com/syssam/graphclone/schema/edge"
	"github.com/syssam/graphclone/schema/field"
	"github.com/syssam/graphclone/schema/mixin"
)

type (
	document struct {
		Types []entityDoc `yaml:"types"`
	}

	entityDoc struct {
		Name          string     `yaml:"name"`
		Table         string     `yaml:"table"`
		ID            *fieldDoc  `yaml:"id"`
		Fields        []fieldDoc `yaml:"fields"`
		Edges         []edgeDoc  `yaml:"edges"`
		Mixins        []string   `yaml:"mixins"`
		Comment       string     `yaml:"comment"`
		CloneDefaults any        `yaml:"clone_defaults"`
	}

	fieldDoc struct {
		Name     string `yaml:"name"`
		Type     string `yaml:"type"`
		Optional bool   `yaml:"optional"`
		Comment  string `yaml:"comment"`
	}

	edgeDoc struct {
		Name          string       `yaml:"name"`
		Type          string       `yaml:"type"`
		Field         string       `yaml:"field"`
		Unique        bool         `yaml:"unique"`
		ManyToMany    bool         `yaml:"many_to_many"`
		Through       *throughDoc  `yaml:"through"`
		ThroughEntity string       `yaml:"through_entity"`
		Shared        bool         `yaml:"shared"`
		Fresh         bool         `yaml:"fresh"`
		Inherit       []inheritDoc `yaml:"inherit"`
		Comment       string       `yaml:"comment"`
	}

	throughDoc struct {
		Table        string `yaml:"table"`
		OwnerColumn  string `yaml:"owner_column"`
		MemberColumn string `yaml:"member_column"`
	}

	inheritDoc struct {
		To   string `yaml:"to"`
		From string `yaml:"from"`
	}
)

// Parse decodes a schema document. Unknown keys are rejected. Fields of
// the mixins listed under "mixins" (see mixin.Registry) come first.
func Parse(data []byte) ([]*schema.Descriptor, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc document
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("load: decoding schema: %w", err)
	}
	descs := make([]*schema.Descriptor, 0, len(doc.Types))
	var errs []error
	for _, t := range doc.Types {
		d, err := t.descriptor()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		descs = append(descs, d)
	}
	if err := graphclone.NewAggregateError(errs...); err != nil {
		return nil, err
	}
	return descs, nil
}

// ReadFile reads and parses the schema document at path.
func ReadFile(path string) ([]*schema.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: reading schema: %w", err)
	}
	return Parse(data)
}

// Definitions converts descriptors to the argument list of graph.New.
func Definitions(descs []*schema.Descriptor) []schema.Definition {
	defs := make([]schema.Definition, len(descs))
	for i, d := range descs {
		defs[i] = d
	}
	return defs
}

func (e entityDoc) descriptor() (*schema.Descriptor, error) {
	if e.Name == "" {
		return nil, graphclone.NewValidationError("", "", errors.New("missing type name"))
	}
	d := &schema.Descriptor{
		Name:          e.Name,
		Table:         e.Table,
		Comment:       e.Comment,
		CloneDefaults: e.CloneDefaults,
	}
	var errs []error
	for _, name := range e.Mixins {
		m, ok := mixin.Registry[name]
		if !ok {
			errs = append(errs, graphclone.NewValidationError(e.Name, name, errors.New("unknown mixin")))
			continue
		}
		for _, f := range m.Fields() {
			d.Fields = append(d.Fields, f.Descriptor())
		}
		for _, ed := range m.Edges() {
			d.Edges = append(d.Edges, ed.Descriptor())
		}
	}
	if e.ID != nil {
		id, err := e.ID.descriptor(e.Name)
		if err != nil {
			errs = append(errs, err)
		}
		d.ID = id
	}
	for _, f := range e.Fields {
		fd, err := f.descriptor(e.Name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		d.Fields = append(d.Fields, fd)
	}
	for _, ed := range e.Edges {
		d.Edges = append(d.Edges, ed.descriptor())
	}
	if err := graphclone.NewAggregateError(errs...); err != nil {
		return nil, err
	}
	return d, nil
}

func (f fieldDoc) descriptor(typ string) (*field.Descriptor, error) {
	t, err := field.ParseType(f.Type)
	if err != nil {
		return nil, graphclone.NewValidationError(typ, f.Name, err)
	}
	return &field.Descriptor{Name: f.Name, Type: t, Optional: f.Optional, Comment: f.Comment}, nil
}

// descriptor leaves structural checks (missing target, duplicate names,
// conflicting kinds) to graph.New, which reports them for code-declared
// schemas too.
func (e edgeDoc) descriptor() *edge.Descriptor {
	d := &edge.Descriptor{
		Name:          e.Name,
		Type:          e.Type,
		Field:         e.Field,
		Unique:        e.Unique,
		ThroughEntity: e.ThroughEntity,
		Shared:        e.Shared,
		Fresh:         e.Fresh,
		Comment:       e.Comment,
	}
	switch {
	case e.Through != nil:
		d.Through = &edge.Through{Table: e.Through.Table, OwnerColumn: e.Through.OwnerColumn, MemberColumn: e.Through.MemberColumn}
	case e.ManyToMany && e.ThroughEntity == "":
		d.Through = &edge.Through{}
	}
	for _, in := range e.Inherit {
		d.Inherit = append(d.Inherit, edge.Inherit{To: in.To, From: in.From})
	}
	return d
}
