package schema_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/graphclone/dialect"
	"github.com/syssam/graphclone/dialect/sql"
	"github.com/syssam/graphclone/dialect/sql/schema"
	"github.com/syssam/graphclone/graph"
	gschema "github.com/syssam/graphclone/schema"
	"github.com/syssam/graphclone/schema/edge"
	"github.com/syssam/graphclone/schema/field"
)

func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.New(
		gschema.Entity("Root").
			Fields(field.String("title")).
			Edges(
				edge.To("children", "Child"),
				edge.To("tags", "Tag").ManyToMany().Shared(),
			),
		gschema.Entity("Child").Fields(field.Int("root_id"), field.Float("weight")),
		gschema.Entity("Tag").
			Fields(field.String("name")).
			Edges(edge.To("roots", "Root").Through("roots_tags", "tag_id", "root_id")),
		gschema.Entity("Person").ID(field.UUID("id")).Fields(field.Bytes("avatar")),
	)
	require.NoError(t, err)
	return g
}

func TestTables(t *testing.T) {
	t.Parallel()
	tables := schema.Tables(testGraph(t))
	var names []string
	for _, tb := range tables {
		names = append(names, tb.Name)
	}
	assert.Equal(t, []string{"roots", "children", "tags", "people", "roots_tags"}, names)

	junction := tables[4]
	assert.Equal(t, []string{"root_id", "tag_id"}, junction.PrimaryKey)
	require.Len(t, junction.ForeignKeys, 2)
	assert.Equal(t, &schema.ForeignKey{Column: "tag_id", RefTable: "tags", RefColumn: "id"}, junction.ForeignKeys[1])
}

func TestTableQuery(t *testing.T) {
	t.Parallel()
	tables := schema.Tables(testGraph(t))
	tests := []struct {
		dialect string
		table   int
		want    string
	}{
		{
			dialect: dialect.SQLite,
			table:   0,
			want:    `CREATE TABLE IF NOT EXISTS "roots"("id" INTEGER PRIMARY KEY AUTOINCREMENT, "title" TEXT)`,
		},
		{
			dialect: dialect.Postgres,
			table:   1,
			want:    `CREATE TABLE IF NOT EXISTS "children"("id" BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY, "root_id" BIGINT, "weight" DOUBLE PRECISION)`,
		},
		{
			dialect: dialect.MySQL,
			table:   3,
			want:    "CREATE TABLE IF NOT EXISTS `people`(`id` CHAR(36) PRIMARY KEY, `avatar` BLOB)",
		},
		{
			dialect: dialect.Postgres,
			table:   4,
			want:    `CREATE TABLE IF NOT EXISTS "roots_tags"("root_id" BIGINT NOT NULL, "tag_id" BIGINT NOT NULL, PRIMARY KEY ("root_id", "tag_id"), FOREIGN KEY ("root_id") REFERENCES "roots"("id") ON DELETE CASCADE, FOREIGN KEY ("tag_id") REFERENCES "tags"("id") ON DELETE CASCADE)`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.dialect+"/"+tables[tt.table].Name, func(t *testing.T) {
			assert.Equal(t, tt.want, tables[tt.table].Query(tt.dialect))
		})
	}
}

func TestColumnType(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "UUID", schema.ColumnType(dialect.Postgres, field.TypeUUID))
	assert.Equal(t, "DATETIME(6)", schema.ColumnType(dialect.MySQL, field.TypeTime))
	assert.Equal(t, "REAL", schema.ColumnType(dialect.SQLite, field.TypeFloat))
	assert.Equal(t, "BOOLEAN", schema.ColumnType("cockroach", field.TypeBool))
}

func TestMigrateSQLite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	drv, err := sql.Open(dialect.SQLite, "file:"+filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { drv.Close() })
	g := testGraph(t)

	var logs bytes.Buffer
	m := schema.NewMigrate(drv, schema.WithLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	require.NoError(t, m.Create(ctx, g))
	require.NoError(t, m.Create(ctx, g), "creating existing tables is a no-op")
	assert.Contains(t, logs.String(), "table=roots_tags")

	_, err = drv.DB().Exec(`INSERT INTO roots (title) VALUES ('r1'); INSERT INTO tags (name) VALUES ('go'); INSERT INTO roots_tags (root_id, tag_id) VALUES (1, 1)`)
	require.NoError(t, err)
	_, err = drv.DB().Exec(`INSERT INTO roots_tags (root_id, tag_id) VALUES (1, 1)`)
	require.Error(t, err, "junction rows are unique")
}

func TestMigrateRollback(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	err = schema.NewMigrate(sql.OpenDB(dialect.Postgres, db)).Create(context.Background(), testGraph(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `creating table "children"`)
	assert.Contains(t, err.Error(), "permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateStatements(t *testing.T) {
	t.Parallel()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	stmts := schema.NewMigrate(sql.OpenDB(dialect.MySQL, db)).Statements(testGraph(t))
	require.Len(t, stmts, 5)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS `roots`(`id` BIGINT AUTO_INCREMENT PRIMARY KEY, `title` VARCHAR(255))", stmts[0])
}
