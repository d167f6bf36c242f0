package sqlstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/syssam/graphclone"
	"github.com/syssam/graphclone/dialect"
	"github.com/syssam/graphclone/dialect/sql"
	"github.com/syssam/graphclone/dialect/sql/sqlgraph"
	"github.com/syssam/graphclone/graph"
	"github.com/syssam/graphclone/schema/field"
	"github.com/syssam/graphclone/storage"
)

// Store is a storage.Store over a SQL database. Tables are expected to
// exist; one table per type, named by graph.Type.Table, with one column
// per field and the id column.
type Store struct {
	graph   *graph.Graph
	conn    dialect.ExecQuerier
	driver  dialect.Driver // nil within a transaction.
	dialect string
}

// New returns a store executing statements on drv.
func New(drv dialect.Driver, g *graph.Graph) *Store {
	return &Store{
		graph:   g,
		conn:    drv,
		driver:  drv,
		dialect: drv.Dialect(),
	}
}

// Tx starts a transaction. Stores returned by Tx cannot start nested
// transactions.
func (s *Store) Tx(ctx context.Context) (storage.Tx, error) {
	if s.driver == nil {
		return nil, graphclone.ErrTxStarted
	}
	tx, err := s.driver.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: starting a transaction: %w", err)
	}
	return &Tx{
		Store: &Store{graph: s.graph, conn: tx, dialect: s.dialect},
		tx:    tx,
	}, nil
}

// Tx is a transactional Store.
type Tx struct {
	*Store
	tx dialect.Tx
}

// Commit commits the transaction.
func (tx *Tx) Commit() error {
	return tx.tx.Commit()
}

// Rollback rolls back the transaction.
func (tx *Tx) Rollback() error {
	return tx.tx.Rollback()
}

// Get implements storage.Store.
func (s *Store) Get(ctx context.Context, t *graph.Type, id any) (*storage.Record, error) {
	query, args := s.builder().
		Select(append([]string{t.ID.Name}, t.Columns()...)...).
		From(t.Table).
		Where(sql.EQ(t.ID.Name, id)).
		Query()
	records, err := s.query(ctx, t, query, args)
	if err != nil {
		return nil, graphclone.NewQueryError(t.Name, "get", err)
	}
	if len(records) == 0 {
		return nil, graphclone.NewNotFoundErrorWithID(t.Name, id)
	}
	return records[0], nil
}

// Create implements storage.Store. Integer identifiers are generated by
// the database, UUID and string identifiers by the store.
func (s *Store) Create(ctx context.Context, t *graph.Type, r *storage.Record) error {
	for name := range r.Fields {
		if !t.HasField(name) {
			return graphclone.NewMutationError(t.Name, "create", fmt.Errorf("unknown field %q", name))
		}
	}
	if r.ID == nil {
		switch t.ID.Type {
		case field.TypeUUID:
			r.ID = uuid.New()
		case field.TypeString:
			r.ID = uuid.NewString()
		}
	}
	insert := s.builder().Insert(t.Table)
	var (
		columns []string
		values  []any
	)
	if r.ID != nil {
		columns, values = append(columns, t.ID.Name), append(values, r.ID)
	}
	for _, c := range t.Columns() {
		if v, ok := r.Fields[c]; ok {
			columns, values = append(columns, c), append(values, v)
		}
	}
	if len(columns) > 0 {
		insert.Columns(columns...).Values(values...)
	}
	if err := s.insert(ctx, t, insert, r); err != nil {
		return graphclone.NewMutationError(t.Name, "create", sqlgraph.WrapConstraint(err))
	}
	return nil
}

func (s *Store) insert(ctx context.Context, t *graph.Type, insert *sql.InsertBuilder, r *storage.Record) error {
	if r.ID != nil {
		query, args := insert.Query()
		return s.conn.Exec(ctx, query, args, nil)
	}
	if s.dialect == dialect.Postgres {
		query, args := insert.Returning(t.ID.Name).Query()
		rows := &sql.Rows{}
		if err := s.conn.Query(ctx, query, args, rows); err != nil {
			return err
		}
		defer rows.Close()
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return err
			}
			return fmt.Errorf("sqlstore: no id returned for %s", t.Name)
		}
		id := scanValue(t.ID.Type)
		if err := rows.Scan(id); err != nil {
			return err
		}
		r.ID = value(id)
		return rows.Close()
	}
	var res sql.Result
	query, args := insert.Query()
	if err := s.conn.Exec(ctx, query, args, &res); err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

// Update implements storage.Store.
func (s *Store) Update(ctx context.Context, t *graph.Type, r *storage.Record, fields ...string) error {
	if len(fields) == 0 {
		fields = t.Columns()
	}
	if len(fields) == 0 {
		return nil
	}
	update := s.builder().Update(t.Table)
	for _, f := range fields {
		if !t.HasField(f) {
			return graphclone.NewMutationError(t.Name, "update", fmt.Errorf("unknown field %q", f))
		}
		update.Set(f, r.Fields[f])
	}
	query, args := update.Where(sql.EQ(t.ID.Name, r.ID)).Query()
	if err := s.conn.Exec(ctx, query, args, nil); err != nil {
		return graphclone.NewMutationError(t.Name, "update", sqlgraph.WrapConstraint(err))
	}
	return nil
}

// Related implements storage.Store. Records are returned in id order.
func (s *Store) Related(ctx context.Context, rel *graph.Relation, ownerID any) ([]*storage.Record, error) {
	t := rel.Target
	var selector *sql.Selector
	switch {
	case rel.Kind == graph.O2O || rel.Kind == graph.O2M:
		selector = s.builder().
			Select(append([]string{t.ID.Name}, t.Columns()...)...).
			From(t.Table).
			Where(sql.EQ(rel.Column, ownerID)).
			OrderBy(t.ID.Name)
	case rel.AutoManaged():
		columns := []string{"t." + t.ID.Name}
		for _, c := range t.Columns() {
			columns = append(columns, "t."+c)
		}
		selector = s.builder().
			Select(columns...).
			From(t.Table).As("t").
			Join(rel.Junction.Table, "j", "j."+rel.Junction.MemberColumn, "t."+t.ID.Name).
			Where(sql.EQ("j."+rel.Junction.OwnerColumn, ownerID)).
			OrderBy("t." + t.ID.Name)
	default:
		return nil, fmt.Errorf("sqlstore: relation %s has no junction table", rel)
	}
	query, args := selector.Query()
	records, err := s.query(ctx, t, query, args)
	if err != nil {
		return nil, graphclone.NewQueryError(t.Name, "related", err)
	}
	return records, nil
}

// Attach implements storage.Store. Members already linked to the owner
// are skipped, the rest are inserted in one statement.
func (s *Store) Attach(ctx context.Context, rel *graph.Relation, ownerID any, memberIDs ...any) error {
	if !rel.AutoManaged() {
		return fmt.Errorf("sqlstore: relation %s has no junction table", rel)
	}
	if len(memberIDs) == 0 {
		return nil
	}
	j := rel.Junction
	query, args := s.builder().
		Select(j.MemberColumn).
		From(j.Table).
		Where(sql.EQ(j.OwnerColumn, ownerID)).
		Query()
	rows := &sql.Rows{}
	if err := s.conn.Query(ctx, query, args, rows); err != nil {
		return graphclone.NewQueryError(rel.Owner.Name, "attach", err)
	}
	linked, err := scanKeys(rows)
	if err != nil {
		return graphclone.NewQueryError(rel.Owner.Name, "attach", err)
	}
	insert := s.builder().Insert(j.Table).Columns(j.OwnerColumn, j.MemberColumn)
	var n int
	for _, id := range memberIDs {
		k := storage.Key(id)
		if _, ok := linked[k]; ok {
			continue
		}
		linked[k] = struct{}{}
		insert.Values(ownerID, id)
		n++
	}
	if n == 0 {
		return nil
	}
	query, args = insert.Query()
	if err := s.conn.Exec(ctx, query, args, nil); err != nil {
		return graphclone.NewMutationError(rel.Owner.Name, "attach", sqlgraph.WrapConstraint(err))
	}
	return nil
}

func (s *Store) builder() *sql.DialectBuilder {
	return sql.Dialect(s.dialect)
}

// query runs a select of the id column followed by the type columns.
func (s *Store) query(ctx context.Context, t *graph.Type, query string, args []any) ([]*storage.Record, error) {
	rows := &sql.Rows{}
	if err := s.conn.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []*storage.Record
	for rows.Next() {
		id := scanValue(t.ID.Type)
		dest := make([]any, 0, len(t.Fields)+1)
		dest = append(dest, id)
		for _, f := range t.Fields {
			dest = append(dest, scanValue(f.Type))
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		r := storage.NewRecord(t.Name)
		r.ID = value(id)
		for i, f := range t.Fields {
			r.Fields[f.Name] = value(dest[i+1])
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func scanKeys(rows *sql.Rows) (map[string]struct{}, error) {
	defer rows.Close()
	keys := make(map[string]struct{})
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		if v.Valid {
			keys[v.String] = struct{}{}
		}
	}
	return keys, rows.Err()
}

// scanValue returns a scan destination for a column of type t.
func scanValue(t field.Type) any {
	switch t {
	case field.TypeBool:
		return &sql.NullBool{}
	case field.TypeInt:
		return &sql.NullInt64{}
	case field.TypeFloat:
		return &sql.NullFloat64{}
	case field.TypeString:
		return &sql.NullString{}
	case field.TypeTime:
		return &sql.NullTime{}
	case field.TypeUUID:
		return &uuid.NullUUID{}
	case field.TypeBytes:
		return &[]byte{}
	default:
		return new(any)
	}
}

// value returns the Go value held by a scan destination, or nil for NULL.
func value(v any) any {
	switch v := v.(type) {
	case *sql.NullBool:
		if v.Valid {
			return v.Bool
		}
	case *sql.NullInt64:
		if v.Valid {
			return v.Int64
		}
	case *sql.NullFloat64:
		if v.Valid {
			return v.Float64
		}
	case *sql.NullString:
		if v.Valid {
			return v.String
		}
	case *sql.NullTime:
		if v.Valid {
			return v.Time
		}
	case *uuid.NullUUID:
		if v.Valid {
			return v.UUID
		}
	case *[]byte:
		if *v != nil {
			return *v
		}
	case *any:
		return *v
	}
	return nil
}

var (
	_ storage.Store      = (*Store)(nil)
	_ storage.Transactor = (*Store)(nil)
	_ storage.Tx         = (*Tx)(nil)
)
