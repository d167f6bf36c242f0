package sql

import (
	"strconv"
	"strings"

	"github.com/syssam/graphclone/dialect"
)

// Querier wraps the basic Query method that is implemented
// by the different builders in this file.
type Querier interface {
	// Query returns the query representation of the element
	// and its arguments (if any).
	Query() (string, []any)
}

// Builder is the base query builder for the sql dsl. It writes
// dialect-aware identifiers and placeholders.
type Builder struct {
	sb      *strings.Builder
	dialect string
	args    []any
}

// Dialect creates a new DialectBuilder with the given dialect name.
func Dialect(name string) *DialectBuilder {
	return &DialectBuilder{dialect: name}
}

// DialectBuilder prefixes all root builders with the same dialect.
type DialectBuilder struct {
	dialect string
}

func (d *DialectBuilder) builder() Builder {
	return Builder{sb: &strings.Builder{}, dialect: d.dialect}
}

// Quote quotes the given identifier with the characters based on the
// configured dialect. Qualified names ("t.id") are quoted per part.
func (b *Builder) Quote(ident string) string {
	q := `"`
	if b.dialect == dialect.MySQL {
		q = "`"
	}
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		parts[i] = q + strings.ReplaceAll(p, q, q+q) + q
	}
	return strings.Join(parts, ".")
}

// Ident appends the given string as a quoted identifier.
func (b *Builder) Ident(s string) *Builder {
	b.sb.WriteString(b.Quote(s))
	return b
}

// IdentComma calls Ident on all arguments and adds a comma between them.
func (b *Builder) IdentComma(s ...string) *Builder {
	for i := range s {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.Ident(s[i])
	}
	return b
}

// WriteString writes the given string as is.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// Arg appends an input argument to the builder and writes its placeholder.
func (b *Builder) Arg(a any) *Builder {
	b.args = append(b.args, a)
	if b.dialect == dialect.Postgres {
		b.sb.WriteString("$" + strconv.Itoa(len(b.args)))
	} else {
		b.sb.WriteString("?")
	}
	return b
}

// Args appends a list of arguments to the builder, comma separated.
func (b *Builder) Args(a ...any) *Builder {
	for i := range a {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.Arg(a[i])
	}
	return b
}

// Query implements the Querier interface.
func (b *Builder) Query() (string, []any) {
	return b.sb.String(), b.args
}

// Predicate is a where clause fragment.
type Predicate struct {
	fns []func(*Builder)
}

// EQ returns a "column = value" predicate.
func EQ(column string, v any) *Predicate {
	return &Predicate{fns: []func(*Builder){func(b *Builder) {
		b.Ident(column).WriteString(" = ").Arg(v)
	}}}
}

// And combines predicates with AND.
func And(preds ...*Predicate) *Predicate {
	p := &Predicate{}
	for _, pred := range preds {
		p.fns = append(p.fns, pred.fns...)
	}
	return p
}

func (p *Predicate) build(b *Builder) {
	for i, fn := range p.fns {
		if i > 0 {
			b.WriteString(" AND ")
		}
		fn(b)
	}
}

// Selector is a builder for the `SELECT` statement.
type Selector struct {
	Builder
	columns []string
	from    string
	as      string
	joins   []join
	where   *Predicate
	order   []string
}

type join struct {
	table, as   string
	left, right string
}

// Select returns a builder for the `SELECT` statement.
//
//	Dialect(dialect.Postgres).
//		Select("id", "name").
//		From("users").
//		Where(EQ("id", 1))
func (d *DialectBuilder) Select(columns ...string) *Selector {
	return &Selector{Builder: d.builder(), columns: columns}
}

// From sets the source table of the selector.
func (s *Selector) From(table string) *Selector {
	s.from = table
	return s
}

// As sets the alias of the source table.
func (s *Selector) As(alias string) *Selector {
	s.as = alias
	return s
}

// Join appends a `JOIN table AS alias ON left = right` clause.
func (s *Selector) Join(table, alias, left, right string) *Selector {
	s.joins = append(s.joins, join{table: table, as: alias, left: left, right: right})
	return s
}

// Where sets or extends the where predicate of the selector.
func (s *Selector) Where(p *Predicate) *Selector {
	if s.where != nil {
		p = And(s.where, p)
	}
	s.where = p
	return s
}

// OrderBy appends columns to the `ORDER BY` clause.
func (s *Selector) OrderBy(columns ...string) *Selector {
	s.order = append(s.order, columns...)
	return s
}

// Query returns the query representation of the `SELECT` statement.
func (s *Selector) Query() (string, []any) {
	b := &s.Builder
	b.sb.Reset()
	b.args = nil
	b.WriteString("SELECT ")
	if len(s.columns) == 0 {
		b.WriteString("*")
	} else {
		b.IdentComma(s.columns...)
	}
	b.WriteString(" FROM ").Ident(s.from)
	if s.as != "" {
		b.WriteString(" AS ").Ident(s.as)
	}
	for _, j := range s.joins {
		b.WriteString(" JOIN ").Ident(j.table)
		if j.as != "" {
			b.WriteString(" AS ").Ident(j.as)
		}
		b.WriteString(" ON ").Ident(j.left).WriteString(" = ").Ident(j.right)
	}
	if s.where != nil {
		b.WriteString(" WHERE ")
		s.where.build(b)
	}
	if len(s.order) > 0 {
		b.WriteString(" ORDER BY ").IdentComma(s.order...)
	}
	return b.Query()
}

// InsertBuilder is a builder for the `INSERT INTO` statement.
type InsertBuilder struct {
	Builder
	table     string
	columns   []string
	values    [][]any
	returning []string
}

// Insert creates a builder for the `INSERT INTO` statement.
//
//	Dialect(dialect.Postgres).
//		Insert("users").
//		Columns("name", "age").
//		Values("a8m", 10).
//		Returning("id")
func (d *DialectBuilder) Insert(table string) *InsertBuilder {
	return &InsertBuilder{Builder: d.builder(), table: table}
}

// Columns sets the columns of the insert statement.
func (i *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	i.columns = append(i.columns, columns...)
	return i
}

// Values appends a row of values to the insert statement.
func (i *InsertBuilder) Values(values ...any) *InsertBuilder {
	i.values = append(i.values, values)
	return i
}

// Returning adds the `RETURNING` clause to the insert statement.
// It is written for PostgreSQL only; other dialects report generated
// keys through LastInsertId.
func (i *InsertBuilder) Returning(columns ...string) *InsertBuilder {
	i.returning = columns
	return i
}

// Query returns the query representation of the `INSERT INTO` statement.
func (i *InsertBuilder) Query() (string, []any) {
	b := &i.Builder
	b.sb.Reset()
	b.args = nil
	b.WriteString("INSERT INTO ").Ident(i.table)
	switch {
	case len(i.columns) == 0 && b.dialect == dialect.MySQL:
		b.WriteString(" () VALUES ()")
	case len(i.columns) == 0:
		b.WriteString(" DEFAULT VALUES")
	default:
		b.WriteString(" (").IdentComma(i.columns...).WriteString(") VALUES ")
		for j, row := range i.values {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString("(").Args(row...).WriteString(")")
		}
	}
	if len(i.returning) > 0 && b.dialect == dialect.Postgres {
		b.WriteString(" RETURNING ").IdentComma(i.returning...)
	}
	return b.Query()
}

// UpdateBuilder is a builder for the `UPDATE` statement.
type UpdateBuilder struct {
	Builder
	table  string
	sets   []string
	values []any
	where  *Predicate
}

// Update creates a builder for the `UPDATE` statement.
//
//	Dialect(dialect.MySQL).Update("users").Set("name", "foo").Where(EQ("id", 1))
func (d *DialectBuilder) Update(table string) *UpdateBuilder {
	return &UpdateBuilder{Builder: d.builder(), table: table}
}

// Set sets a column to a given value.
func (u *UpdateBuilder) Set(column string, v any) *UpdateBuilder {
	u.sets = append(u.sets, column)
	u.values = append(u.values, v)
	return u
}

// Where sets or extends the where predicate of the update statement.
func (u *UpdateBuilder) Where(p *Predicate) *UpdateBuilder {
	if u.where != nil {
		p = And(u.where, p)
	}
	u.where = p
	return u
}

// Query returns the query representation of the `UPDATE` statement.
func (u *UpdateBuilder) Query() (string, []any) {
	b := &u.Builder
	b.sb.Reset()
	b.args = nil
	b.WriteString("UPDATE ").Ident(u.table).WriteString(" SET ")
	for i, c := range u.sets {
		if i > 0 {
			b.WriteString(", ")
		}
		b.Ident(c).WriteString(" = ").Arg(u.values[i])
	}
	if u.where != nil {
		b.WriteString(" WHERE ")
		u.where.build(b)
	}
	return b.Query()
}

// TableBuilder is a builder for the `CREATE TABLE` statement.
type TableBuilder struct {
	Builder
	name        string
	exists      bool
	columns     []*ColumnBuilder
	primary     []string
	foreignKeys []foreignKey
}

type foreignKey struct {
	column, refTable, refColumn string
}

// ColumnBuilder describes one column of a `CREATE TABLE` statement.
type ColumnBuilder struct {
	name  string
	typ   string
	attrs []string
}

// Column returns a column with the given name and raw type.
func Column(name, typ string) *ColumnBuilder {
	return &ColumnBuilder{name: name, typ: typ}
}

// Attr appends a raw attribute, e.g. "NOT NULL" or "PRIMARY KEY".
func (c *ColumnBuilder) Attr(attr string) *ColumnBuilder {
	c.attrs = append(c.attrs, attr)
	return c
}

// CreateTable creates a builder for the `CREATE TABLE` statement.
//
//	Dialect(dialect.SQLite).
//		CreateTable("roots_tags").
//		IfNotExists().
//		Columns(Column("root_id", "INTEGER"), Column("tag_id", "INTEGER")).
//		PrimaryKey("root_id", "tag_id").
//		ForeignKey("root_id", "roots", "id")
func (d *DialectBuilder) CreateTable(name string) *TableBuilder {
	return &TableBuilder{Builder: d.builder(), name: name}
}

// IfNotExists appends the `IF NOT EXISTS` clause.
func (t *TableBuilder) IfNotExists() *TableBuilder {
	t.exists = true
	return t
}

// Columns appends columns to the table.
func (t *TableBuilder) Columns(columns ...*ColumnBuilder) *TableBuilder {
	t.columns = append(t.columns, columns...)
	return t
}

// PrimaryKey sets a table-level primary key.
func (t *TableBuilder) PrimaryKey(columns ...string) *TableBuilder {
	t.primary = columns
	return t
}

// ForeignKey appends a foreign-key constraint.
func (t *TableBuilder) ForeignKey(column, refTable, refColumn string) *TableBuilder {
	t.foreignKeys = append(t.foreignKeys, foreignKey{column: column, refTable: refTable, refColumn: refColumn})
	return t
}

// Query returns the query representation of the `CREATE TABLE` statement.
func (t *TableBuilder) Query() (string, []any) {
	b := &t.Builder
	b.sb.Reset()
	b.args = nil
	b.WriteString("CREATE TABLE ")
	if t.exists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.Ident(t.name).WriteString("(")
	for i, c := range t.columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.Ident(c.name).WriteString(" " + c.typ)
		for _, attr := range c.attrs {
			b.WriteString(" " + attr)
		}
	}
	if len(t.primary) > 0 {
		b.WriteString(", PRIMARY KEY (").IdentComma(t.primary...).WriteString(")")
	}
	for _, fk := range t.foreignKeys {
		b.WriteString(", FOREIGN KEY (").Ident(fk.column).WriteString(") REFERENCES ").
			Ident(fk.refTable).WriteString("(").Ident(fk.refColumn).WriteString(") ON DELETE CASCADE")
	}
	b.WriteString(")")
	return b.Query()
}

var (
	_ Querier = (*Selector)(nil)
	_ Querier = (*InsertBuilder)(nil)
	_ Querier = (*UpdateBuilder)(nil)
)
