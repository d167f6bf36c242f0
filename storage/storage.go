package storage

import (
	"bytes"
	"context"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/syssam/graphclone/graph"
)

// Record is one persisted entity: its type name, its identifier and
// the values of its declared fields. Fields never holds the identifier.
type Record struct {
	Type   string
	ID     any
	Fields map[string]any
}

// NewRecord returns an empty record of the given type.
func NewRecord(typ string) *Record {
	return &Record{Type: typ, Fields: make(map[string]any)}
}

// Get returns the value of the given field.
func (r *Record) Get(name string) any {
	return r.Fields[name]
}

// Set sets the value of the given field.
func (r *Record) Set(name string, v any) {
	if r.Fields == nil {
		r.Fields = make(map[string]any)
	}
	r.Fields[name] = v
}

// Duplicate returns a field-for-field copy of the record with its
// identity cleared. Byte slices are copied so the duplicate can be
// modified independently.
func (r *Record) Duplicate() *Record {
	d := &Record{Type: r.Type, Fields: maps.Clone(r.Fields)}
	if d.Fields == nil {
		d.Fields = make(map[string]any)
	}
	for k, v := range d.Fields {
		if b, ok := v.([]byte); ok {
			d.Fields[k] = bytes.Clone(b)
		}
	}
	return d
}

// Key returns the canonical identity key of an ID value, so that
// 7, int64(7) and "7" all address the same record. Nil has the empty key.
func Key(id any) string {
	switch id := id.(type) {
	case nil:
		return ""
	case uuid.UUID:
		return id.String()
	case *uuid.UUID:
		if id == nil {
			return ""
		}
		return id.String()
	case []byte:
		return string(id)
	case time.Time:
		return id.UTC().Format(time.RFC3339Nano)
	}
	return cast.ToString(id)
}

// SameID reports if the two values identify the same record.
func SameID(a, b any) bool {
	ka, kb := Key(a), Key(b)
	return ka != "" && ka == kb
}

// Store is the persistence collaborator of the clone engine.
type Store interface {
	// Get returns the record of type t with the given id, or a
	// graphclone.NotFoundError.
	Get(ctx context.Context, t *graph.Type, id any) (*Record, error)

	// Create persists a new record and assigns its generated ID to r.ID.
	Create(ctx context.Context, t *graph.Type, r *Record) error

	// Update persists the given fields of an existing record, or all
	// of its fields when none are given.
	Update(ctx context.Context, t *graph.Type, r *Record, fields ...string) error

	// Related returns the records reachable from the owner through the
	// relation, in storage order: dependents holding the foreign key for
	// O2O and O2M relations, junction members for M2M relations.
	Related(ctx context.Context, rel *graph.Relation, ownerID any) ([]*Record, error)

	// Attach adds members to an auto-managed many-to-many relation of the owner.
	// Attaching an existing member is a no-op.
	Attach(ctx context.Context, rel *graph.Relation, ownerID any, memberIDs ...any) error
}

// Transactor is implemented by stores that can group writes into
// one all-or-nothing unit.
type Transactor interface {
	Tx(ctx context.Context) (Tx, error)
}

// Tx is a Store whose writes become visible on Commit and are
// discarded on Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}
