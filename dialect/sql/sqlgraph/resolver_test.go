package sqlgraph_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/relic"
	"github.com/syssam/relic/dialect"
	"github.com/syssam/relic/dialect/sql"
	"github.com/syssam/relic/dialect/sql/sqlgraph"
)

func TestResolveMemoized(t *testing.T) {
	t.Parallel()
	r := sqlgraph.NewResolver(table(t, library(t), "Book"))

	root, err := r.Resolve("")
	require.NoError(t, err)
	assert.Same(t, r.Root(), root)
	assert.True(t, root.IsRoot())
	assert.Equal(t, "books", root.Alias)

	p1, err := r.Resolve("author.publisher")
	require.NoError(t, err)
	p2, err := r.Resolve("author.publisher")
	require.NoError(t, err)
	assert.Same(t, p1, p2)
	assert.Equal(t, "books__author__publisher", p1.Alias)
	assert.Equal(t, "publishers", p1.Table.SQLName)

	author, err := r.Resolve("author")
	require.NoError(t, err)
	assert.Same(t, author, p1.Parent, "ancestors are resolved once")
	assert.Same(t, root, author.Parent)
	assert.Equal(t, "publisher", p1.Edge.Name)
}

func TestResolveDistinctAliases(t *testing.T) {
	t.Parallel()
	r := sqlgraph.NewResolver(table(t, library(t), "Book"))
	paths := []string{
		"author",
		"author.books",
		"author.books.author",
		"author.books.author.publisher",
		"reviews",
		"reviews.book",
		"reviews.book.reviews",
	}
	seen := make(map[string]string)
	for _, p := range paths {
		te, err := r.Resolve(p)
		require.NoError(t, err, p)
		other, dup := seen[te.Alias]
		assert.False(t, dup, "alias %q of %q already used by %q", te.Alias, p, other)
		seen[te.Alias] = p
	}
}

func TestResolveErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		path  string
		check func(error) bool
	}{
		{"title", relic.IsInvalidPath},
		{"nope", relic.IsInvalidPath},
		{"author.nope", relic.IsInvalidPath},
		{"author_id", relic.IsInvalidPath},
		{"author..publisher", relic.IsInvalidPath},
		{".author", relic.IsInvalidPath},
		{"reviews.subject", relic.IsUnsupportedPreload},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r := sqlgraph.NewResolver(table(t, library(t), "Book"))
			_, err := r.Resolve(tt.path)
			require.Error(t, err)
			assert.True(t, tt.check(err), err.Error())
			assert.Contains(t, err.Error(), fmt.Sprintf("%q", tt.path))
		})
	}
}

func TestResolverColumn(t *testing.T) {
	t.Parallel()
	r := sqlgraph.NewResolver(table(t, library(t), "Book"))
	tests := []struct {
		path, name    string
		alias, column string
		unknown       bool
		invalidPath   bool
	}{
		{name: "title", alias: "books", column: "title"},
		{name: "author", alias: "books", column: "author_id"},
		{name: "author_id", alias: "books", column: "author_id"},
		{path: "author", name: "name", alias: "books__author", column: "name"},
		{path: "reviews", name: "subject", alias: "books__reviews", column: "subject_id"},
		{path: "reviews", name: "subject_table", alias: "books__reviews", column: "subject_table"},
		{name: "missing", unknown: true},
		{name: "reviews", unknown: true},
		{path: "nope", name: "name", invalidPath: true},
	}
	for _, tt := range tests {
		alias, column, err := r.Column(tt.path, tt.name)
		switch {
		case tt.unknown:
			assert.True(t, relic.IsUnknownColumn(err), tt.name)
		case tt.invalidPath:
			assert.True(t, relic.IsInvalidPath(err), tt.path)
		default:
			require.NoError(t, err)
			assert.Equal(t, tt.alias, alias)
			assert.Equal(t, tt.column, column)
		}
	}
}

func TestResolverScope(t *testing.T) {
	t.Parallel()
	r := sqlgraph.NewResolver(table(t, library(t), "Book"))
	query, args, err := sql.Render(dialect.Postgres, r, sql.And(
		sql.C("author.publisher.name").EQ("Acme"),
		sql.C("title").HasPrefix("Go"),
	))
	require.NoError(t, err)
	assert.Equal(t, `(("books__author__publisher"."name" = $1) AND ("books"."title" LIKE $2))`, query)
	assert.Equal(t, []any{"Acme", "Go%"}, args)

	_, _, err = sql.Render(dialect.Postgres, r, sql.C("author.missing").EQ(1))
	assert.True(t, relic.IsUnknownColumn(err))

	assert.NoError(t, r.Check(sql.C("reviews.body").IsNull()))
	assert.True(t, relic.IsInvalidPath(r.Check(sql.C("title.length").GT(1))))
}
