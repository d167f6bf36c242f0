package memstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/syssam/graphclone"
	"github.com/syssam/graphclone/graph"
	"github.com/syssam/graphclone/schema/field"
	"github.com/syssam/graphclone/storage"
)

// Op names a store operation, as passed to a FaultFunc.
type Op string

// Store operations.
const (
	OpGet     Op = "get"
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpRelated Op = "related"
	OpAttach  Op = "attach"
)

// FaultFunc is consulted before every operation. A non-nil error aborts
// the operation and is returned to the caller. typ is the entity type
// the operation reads or writes; for OpAttach it is the relation owner.
type FaultFunc func(op Op, typ string) error

// FailOn returns a FaultFunc failing the n-th (1-based) op on typ with err.
// An empty typ matches every type.
func FailOn(op Op, typ string, n int, err error) FaultFunc {
	var (
		mu   sync.Mutex
		seen int
	)
	return func(o Op, t string) error {
		if o != op || (typ != "" && t != typ) {
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		seen++
		if seen == n {
			return err
		}
		return nil
	}
}

// ErrConflict is returned by Commit when another transaction committed
// after this one started.
var ErrConflict = errors.New("memstore: concurrent commit")

// Option configures the Store.
type Option func(*Store)

// WithFault installs a fault injection hook.
func WithFault(f FaultFunc) Option {
	return func(s *Store) {
		s.fault = f
	}
}

// Store is an in-memory storage.Store with snapshot transactions.
// It is safe for concurrent use.
type Store struct {
	graph   *graph.Graph
	fault   FaultFunc
	mu      sync.Mutex
	state   *state
	version uint64
}

type (
	state struct {
		tables    map[string]*table  // by type name.
		junctions map[string][]*link // by junction table.
	}
	table struct {
		seq   int64
		order []string
		rows  map[string]*storage.Record
	}
	link struct {
		owner, member string
	}
)

// New returns an empty store for the types of g.
func New(g *graph.Graph, opts ...Option) *Store {
	s := &Store{
		graph: g,
		state: &state{
			tables:    make(map[string]*table),
			junctions: make(map[string][]*link),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get implements storage.Store.
func (s *Store) Get(ctx context.Context, t *graph.Type, id any) (*storage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(s.state).Get(ctx, t, id)
}

// Create implements storage.Store.
func (s *Store) Create(ctx context.Context, t *graph.Type, r *storage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.view(s.state).Create(ctx, t, r); err != nil {
		return err
	}
	s.version++
	return nil
}

// Update implements storage.Store.
func (s *Store) Update(ctx context.Context, t *graph.Type, r *storage.Record, fields ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.view(s.state).Update(ctx, t, r, fields...); err != nil {
		return err
	}
	s.version++
	return nil
}

// Related implements storage.Store.
func (s *Store) Related(ctx context.Context, rel *graph.Relation, ownerID any) ([]*storage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(s.state).Related(ctx, rel, ownerID)
}

// Attach implements storage.Store.
func (s *Store) Attach(ctx context.Context, rel *graph.Relation, ownerID any, memberIDs ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.view(s.state).Attach(ctx, rel, ownerID, memberIDs...); err != nil {
		return err
	}
	s.version++
	return nil
}

// Tx starts a transaction working on a private copy of the current state.
func (s *Store) Tx(context.Context) (storage.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &Tx{store: s, base: s.version}
	tx.view = s.view(s.state.clone())
	return tx, nil
}

// Records returns copies of all records of the named type in insertion order.
func (s *Store) Records(typ string) []*storage.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	tb, ok := s.state.tables[typ]
	if !ok {
		return nil
	}
	records := make([]*storage.Record, 0, len(tb.order))
	for _, k := range tb.order {
		records = append(records, copyRecord(tb.rows[k]))
	}
	return records
}

// Count returns the number of records of the named type.
func (s *Store) Count(typ string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tb, ok := s.state.tables[typ]; ok {
		return len(tb.order)
	}
	return 0
}

// Links returns the number of rows in the named junction table.
func (s *Store) Links(junction string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.junctions[junction])
}

func (s *Store) view(st *state) *view {
	return &view{state: st, fault: s.fault}
}

// Tx is a memstore transaction.
type Tx struct {
	*view
	store *Store
	base  uint64
	done  bool
}

// Commit publishes the transaction state. It fails with ErrConflict when
// the store was written after the transaction started.
func (tx *Tx) Commit() error {
	if tx.done {
		return errors.New("memstore: transaction already finished")
	}
	tx.done = true
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	if tx.store.version != tx.base {
		return ErrConflict
	}
	tx.store.state = tx.state
	tx.store.version++
	return nil
}

// Rollback discards the transaction state.
func (tx *Tx) Rollback() error {
	if tx.done {
		return errors.New("memstore: transaction already finished")
	}
	tx.done = true
	return nil
}

var (
	_ storage.Store      = (*Store)(nil)
	_ storage.Transactor = (*Store)(nil)
	_ storage.Tx         = (*Tx)(nil)
)

// view implements the store operations on one state.
type view struct {
	state *state
	fault FaultFunc
}

func (v *view) check(ctx context.Context, op Op, typ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if v.fault != nil {
		return v.fault(op, typ)
	}
	return nil
}

func (v *view) table(typ string) *table {
	tb, ok := v.state.tables[typ]
	if !ok {
		tb = &table{rows: make(map[string]*storage.Record)}
		v.state.tables[typ] = tb
	}
	return tb
}

func (v *view) Get(ctx context.Context, t *graph.Type, id any) (*storage.Record, error) {
	if err := v.check(ctx, OpGet, t.Name); err != nil {
		return nil, err
	}
	r, ok := v.table(t.Name).rows[storage.Key(id)]
	if !ok {
		return nil, graphclone.NewNotFoundErrorWithID(t.Name, id)
	}
	return copyRecord(r), nil
}

func (v *view) Create(ctx context.Context, t *graph.Type, r *storage.Record) error {
	if err := v.check(ctx, OpCreate, t.Name); err != nil {
		return err
	}
	if err := checkFields(t, r.Fields); err != nil {
		return err
	}
	tb := v.table(t.Name)
	id := r.ID
	switch {
	case id != nil && t.ID.Type == field.TypeInt:
		n, err := cast.ToInt64E(id)
		if err != nil {
			return fmt.Errorf("memstore: %s id: %w", t.Name, err)
		}
		id = n
		tb.seq = max(tb.seq, n)
	case id != nil:
	case t.ID.Type == field.TypeInt:
		tb.seq++
		id = tb.seq
	case t.ID.Type == field.TypeUUID:
		id = uuid.New()
	default:
		id = uuid.NewString()
	}
	k := storage.Key(id)
	if _, ok := tb.rows[k]; ok {
		return graphclone.NewConstraintError(fmt.Sprintf("duplicate %s id %v", t.Name, id), nil)
	}
	r.ID = id
	row := copyRecord(r)
	row.Type = t.Name
	tb.rows[k] = row
	tb.order = append(tb.order, k)
	return nil
}

func (v *view) Update(ctx context.Context, t *graph.Type, r *storage.Record, fields ...string) error {
	if err := v.check(ctx, OpUpdate, t.Name); err != nil {
		return err
	}
	row, ok := v.table(t.Name).rows[storage.Key(r.ID)]
	if !ok {
		return graphclone.NewNotFoundErrorWithID(t.Name, r.ID)
	}
	if len(fields) == 0 {
		fields = t.Columns()
	}
	for _, f := range fields {
		if !t.HasField(f) {
			return fmt.Errorf("memstore: unknown field %s.%s", t.Name, f)
		}
	}
	for _, f := range fields {
		row.Fields[f] = r.Fields[f]
	}
	return nil
}

func (v *view) Related(ctx context.Context, rel *graph.Relation, ownerID any) ([]*storage.Record, error) {
	if err := v.check(ctx, OpRelated, rel.Target.Name); err != nil {
		return nil, err
	}
	tb := v.table(rel.Target.Name)
	var records []*storage.Record
	switch {
	case rel.Kind == graph.O2O || rel.Kind == graph.O2M:
		for _, k := range tb.order {
			if r := tb.rows[k]; storage.SameID(r.Fields[rel.Column], ownerID) {
				records = append(records, copyRecord(r))
			}
		}
	case rel.AutoManaged():
		owner := storage.Key(ownerID)
		for _, l := range v.state.junctions[rel.Junction.Table] {
			if l.owner != owner {
				continue
			}
			if r, ok := tb.rows[l.member]; ok {
				records = append(records, copyRecord(r))
			}
		}
	default:
		return nil, fmt.Errorf("memstore: relation %s has no junction table", rel)
	}
	return records, nil
}

func (v *view) Attach(ctx context.Context, rel *graph.Relation, ownerID any, memberIDs ...any) error {
	if err := v.check(ctx, OpAttach, rel.Owner.Name); err != nil {
		return err
	}
	if !rel.AutoManaged() {
		return fmt.Errorf("memstore: relation %s has no junction table", rel)
	}
	owner := storage.Key(ownerID)
	if _, ok := v.table(rel.Owner.Name).rows[owner]; !ok {
		return graphclone.NewConstraintError(fmt.Sprintf("%s: owner %s %v does not exist", rel.Junction.Table, rel.Owner.Name, ownerID), nil)
	}
	members := v.table(rel.Target.Name)
	links := v.state.junctions[rel.Junction.Table]
	for _, id := range memberIDs {
		member := storage.Key(id)
		if _, ok := members.rows[member]; !ok {
			return graphclone.NewConstraintError(fmt.Sprintf("%s: member %s %v does not exist", rel.Junction.Table, rel.Target.Name, id), nil)
		}
		exists := slices.ContainsFunc(links, func(l *link) bool {
			return l.owner == owner && l.member == member
		})
		if !exists {
			links = append(links, &link{owner: owner, member: member})
		}
	}
	v.state.junctions[rel.Junction.Table] = links
	return nil
}

func checkFields(t *graph.Type, fields map[string]any) error {
	for name := range fields {
		if !t.HasField(name) {
			return fmt.Errorf("memstore: unknown field %s.%s", t.Name, name)
		}
	}
	return nil
}

func copyRecord(r *storage.Record) *storage.Record {
	c := r.Duplicate()
	c.ID = r.ID
	return c
}

func (st *state) clone() *state {
	c := &state{
		tables:    make(map[string]*table, len(st.tables)),
		junctions: make(map[string][]*link, len(st.junctions)),
	}
	for name, tb := range st.tables {
		rows := make(map[string]*storage.Record, len(tb.rows))
		for k, r := range tb.rows {
			rows[k] = copyRecord(r)
		}
		c.tables[name] = &table{seq: tb.seq, order: slices.Clone(tb.order), rows: rows}
	}
	for name, links := range st.junctions {
		c.junctions[name] = slices.Clone(links)
	}
	return c
}
