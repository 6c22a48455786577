package orm_test

import (
	"context"
	stdsql "database/sql"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/relic"
	"github.com/syssam/relic/dialect"
	"github.com/syssam/relic/dialect/sql"
	"github.com/syssam/relic/orm"
	"github.com/syssam/relic/schema"
	"github.com/syssam/relic/schema/edge"
	"github.com/syssam/relic/schema/field"
)

// library builds the registry shared by the package tests:
//
//	publishers(id, name)
//	authors(id, name, deleted_at, publisher_id)
//	books(id, title, pages, author_id)
//	reviews(id, body, stars, book_id, subject_table, subject_id)
//	documents(id, slug, body, version, deleted_at) versioned along slug
func library(t testing.TB) *schema.Registry {
	t.Helper()
	r, err := schema.Build(
		&schema.Definition{
			TypeName:  "Publisher",
			FieldList: []schema.Field{field.String("name")},
			EdgeList:  []schema.Edge{edge.To("authors", "Author").Ref("publisher")},
		},
		&schema.Definition{
			TypeName: "Author",
			FieldList: []schema.Field{
				field.String("name"),
				field.Time("deleted_at").Optional(),
			},
			EdgeList: []schema.Edge{
				edge.From("publisher", "Publisher").Ref("authors"),
				edge.To("books", "Book").Ref("author"),
			},
		},
		&schema.Definition{
			TypeName: "Book",
			FieldList: []schema.Field{
				field.String("title"),
				field.Int("pages").Optional(),
			},
			EdgeList: []schema.Edge{
				edge.From("author", "Author").Ref("books"),
				edge.To("reviews", "Review").Ref("book"),
			},
		},
		&schema.Definition{
			TypeName: "Review",
			FieldList: []schema.Field{
				field.Text("body"),
				field.Int("stars"),
			},
			EdgeList: []schema.Edge{
				edge.From("book", "Book").Ref("reviews"),
				edge.GenericRef("subject"),
			},
		},
		&schema.Definition{
			TypeName: "Document",
			FieldList: []schema.Field{
				field.String("slug"),
				field.Text("body"),
			},
			ConfigData: schema.Config{VersionedAlong: []string{"slug"}},
		},
	)
	require.NoError(t, err)
	return r
}

func table(t testing.TB, r *schema.Registry, name string) *schema.Table {
	t.Helper()
	tbl, ok := r.Table(name)
	require.True(t, ok, name)
	return tbl
}

const ddl = `
CREATE TABLE publishers (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL);
CREATE TABLE authors (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, deleted_at DATETIME, publisher_id INTEGER REFERENCES publishers (id));
CREATE TABLE books (id INTEGER PRIMARY KEY AUTOINCREMENT, title TEXT NOT NULL, pages INTEGER, author_id INTEGER REFERENCES authors (id));
CREATE TABLE reviews (id INTEGER PRIMARY KEY AUTOINCREMENT, body TEXT NOT NULL, stars INTEGER NOT NULL, book_id INTEGER REFERENCES books (id), subject_table TEXT, subject_id INTEGER);
CREATE TABLE documents (id INTEGER PRIMARY KEY AUTOINCREMENT, slug TEXT NOT NULL, body TEXT NOT NULL, version INTEGER NOT NULL, deleted_at DATETIME);
`

// clock is the fixed time of soft deletes in tests.
var clock = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// sqlite returns a client of a new in-memory database with the library
// tables created.
func sqlite(t *testing.T, opts ...orm.Option) *orm.Client {
	t.Helper()
	db, err := stdsql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// One connection, as every connection opens its own in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	for _, stmt := range strings.Split(ddl, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			_, err := db.Exec(stmt)
			require.NoError(t, err)
		}
	}
	opts = append([]orm.Option{orm.WithClock(func() time.Time { return clock })}, opts...)
	return orm.NewClient(sql.OpenDB(dialect.SQLite, db), library(t), opts...)
}

// mock returns a Postgres client backed by sqlmock with exact query matching.
func mock(t *testing.T, opts ...orm.Option) (*orm.Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mk, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	opts = append([]orm.Option{orm.WithClock(func() time.Time { return clock })}, opts...)
	return orm.NewClient(sql.OpenDB(dialect.Postgres, db), library(t), opts...), mk
}

// create creates a row and fails the test on error.
func create(ctx context.Context, t *testing.T, c *orm.Client, table string, values map[string]any) *relic.Record {
	t.Helper()
	r, err := c.Create(ctx, table, values)
	require.NoError(t, err)
	return r
}
