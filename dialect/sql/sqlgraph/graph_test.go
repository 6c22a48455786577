package sqlgraph_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/relic/schema"
	"github.com/syssam/relic/schema/edge"
	"github.com/syssam/relic/schema/field"
)

// library builds the registry shared by the package tests:
//
//	publishers(id, name)
//	authors(id, name, deleted_at, publisher_id)
//	books(id, title, author_id)
//	reviews(id, body, book_id, subject_table, subject_id)
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
			TypeName:  "Book",
			FieldList: []schema.Field{field.String("title")},
			EdgeList: []schema.Edge{
				edge.From("author", "Author").Ref("books"),
				edge.To("reviews", "Review").Ref("book"),
			},
		},
		&schema.Definition{
			TypeName:  "Review",
			FieldList: []schema.Field{field.Text("body")},
			EdgeList: []schema.Edge{
				edge.From("book", "Book").Ref("reviews"),
				edge.GenericRef("subject"),
			},
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
