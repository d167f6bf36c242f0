package schema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/syssam/graphclone/dialect"
	"github.com/syssam/graphclone/dialect/sql"
	"github.com/syssam/graphclone/graph"
	"github.com/syssam/graphclone/schema/field"
)

// Table is a table derived from a graph.
type Table struct {
	Name        string
	Columns     []*Column
	PrimaryKey  []string // composite key of junction tables.
	ForeignKeys []*ForeignKey
}

// Column is a table column.
type Column struct {
	Name      string
	Type      field.Type
	Nullable  bool
	Primary   bool
	Increment bool
}

// ForeignKey references the id column of another table.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// Tables returns the entity tables of g in declaration order, followed by
// the junction tables of its auto-managed many-to-many relations. Entity
// tables carry no foreign-key constraints, so they can be created in any
// order and cyclic graphs are supported.
func Tables(g *graph.Graph) []*Table {
	tables := make([]*Table, 0, len(g.Types))
	for _, t := range g.Types {
		id := &Column{Name: t.ID.Name, Type: t.ID.Type, Primary: true, Increment: t.ID.Type == field.TypeInt}
		table := &Table{Name: t.Table, Columns: []*Column{id}}
		for _, f := range t.Fields {
			table.Columns = append(table.Columns, &Column{Name: f.Name, Type: f.Type, Nullable: true})
		}
		tables = append(tables, table)
	}
	seen := make(map[string]bool)
	for _, t := range g.Types {
		for _, rel := range t.Relations {
			if !rel.AutoManaged() || seen[rel.Junction.Table] {
				continue
			}
			seen[rel.Junction.Table] = true
			j := rel.Junction
			tables = append(tables, &Table{
				Name: j.Table,
				Columns: []*Column{
					{Name: j.OwnerColumn, Type: rel.Owner.ID.Type},
					{Name: j.MemberColumn, Type: rel.Target.ID.Type},
				},
				PrimaryKey: []string{j.OwnerColumn, j.MemberColumn},
				ForeignKeys: []*ForeignKey{
					{Column: j.OwnerColumn, RefTable: rel.Owner.Table, RefColumn: rel.Owner.ID.Name},
					{Column: j.MemberColumn, RefTable: rel.Target.Table, RefColumn: rel.Target.ID.Name},
				},
			})
		}
	}
	return tables
}

// Query returns the `CREATE TABLE IF NOT EXISTS` statement of the table.
func (t *Table) Query(name string) string {
	create := sql.Dialect(name).CreateTable(t.Name).IfNotExists()
	for _, c := range t.Columns {
		create.Columns(column(name, c))
	}
	if len(t.PrimaryKey) > 0 {
		create.PrimaryKey(t.PrimaryKey...)
	}
	for _, fk := range t.ForeignKeys {
		create.ForeignKey(fk.Column, fk.RefTable, fk.RefColumn)
	}
	query, _ := create.Query()
	return query
}

func column(name string, c *Column) *sql.ColumnBuilder {
	if c.Primary && c.Increment {
		switch name {
		case dialect.SQLite:
			return sql.Column(c.Name, "INTEGER").Attr("PRIMARY KEY AUTOINCREMENT")
		case dialect.MySQL:
			return sql.Column(c.Name, "BIGINT").Attr("AUTO_INCREMENT").Attr("PRIMARY KEY")
		default:
			return sql.Column(c.Name, "BIGINT").Attr("GENERATED BY DEFAULT AS IDENTITY").Attr("PRIMARY KEY")
		}
	}
	col := sql.Column(c.Name, ColumnType(name, c.Type))
	switch {
	case c.Primary:
		col.Attr("PRIMARY KEY")
	case !c.Nullable:
		col.Attr("NOT NULL")
	}
	return col
}

// ColumnType returns the column type of a field type in the given dialect.
func ColumnType(name string, t field.Type) string {
	types, ok := columnTypes[name]
	if !ok {
		types = columnTypes[dialect.Postgres]
	}
	return types[t]
}

var columnTypes = map[string]map[field.Type]string{
	dialect.Postgres: {
		field.TypeBool:   "BOOLEAN",
		field.TypeInt:    "BIGINT",
		field.TypeFloat:  "DOUBLE PRECISION",
		field.TypeString: "TEXT",
		field.TypeTime:   "TIMESTAMP WITH TIME ZONE",
		field.TypeUUID:   "UUID",
		field.TypeBytes:  "BYTEA",
	},
	dialect.MySQL: {
		field.TypeBool:   "BOOLEAN",
		field.TypeInt:    "BIGINT",
		field.TypeFloat:  "DOUBLE",
		field.TypeString: "VARCHAR(255)",
		field.TypeTime:   "DATETIME(6)",
		field.TypeUUID:   "CHAR(36)",
		field.TypeBytes:  "BLOB",
	},
	dialect.SQLite: {
		field.TypeBool:   "BOOLEAN",
		field.TypeInt:    "INTEGER",
		field.TypeFloat:  "REAL",
		field.TypeString: "TEXT",
		field.TypeTime:   "DATETIME",
		field.TypeUUID:   "TEXT",
		field.TypeBytes:  "BLOB",
	},
}

// MigrateOption configures a Migrate.
type MigrateOption func(*Migrate)

// WithLogger sets the logger used to report created tables.
func WithLogger(logger *slog.Logger) MigrateOption {
	return func(m *Migrate) {
		m.logger = logger
	}
}

// WithSkipValidation creates the tables even when Validate reports errors.
func WithSkipValidation() MigrateOption {
	return func(m *Migrate) {
		m.skipValidation = true
	}
}

// Migrate creates the tables of a graph.
type Migrate struct {
	drv            dialect.Driver
	logger         *slog.Logger
	skipValidation bool
}

// NewMigrate returns a Migrate executing statements on drv.
func NewMigrate(drv dialect.Driver, opts ...MigrateOption) *Migrate {
	m := &Migrate{drv: drv, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Statements returns the statements Create executes.
func (m *Migrate) Statements(g *graph.Graph) []string {
	tables := Tables(g)
	stmts := make([]string, len(tables))
	for i, t := range tables {
		stmts[i] = t.Query(m.drv.Dialect())
	}
	return stmts
}

// Create validates g and creates its missing tables in one transaction.
// Existing tables are left untouched.
func (m *Migrate) Create(ctx context.Context, g *graph.Graph) error {
	if res := Validate(g); res.HasErrors() && !m.skipValidation {
		return fmt.Errorf("schema: invalid tables:\n%s", res)
	} else if res.HasWarnings() {
		for _, w := range res.Warnings {
			m.logger.Warn("schema warning", "table", w.Table, "column", w.Column, "message", w.Message)
		}
	}
	tx, err := m.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("schema: starting a transaction: %w", err)
	}
	for _, t := range Tables(g) {
		if err := tx.Exec(ctx, t.Query(m.drv.Dialect()), []any{}, nil); err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				err = errors.Join(err, rerr)
			}
			return fmt.Errorf("schema: creating table %q: %w", t.Name, err)
		}
		m.logger.Debug("table created", "table", t.Name)
	}
	return tx.Commit()
}
