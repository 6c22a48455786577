package relic_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/relic"
	"github.com/syssam/relic/schema"
	"github.com/syssam/relic/schema/edge"
	"github.com/syssam/relic/schema/field"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	r, err := schema.Build(
		&schema.Definition{
			TypeName:  "Author",
			FieldList: []schema.Field{field.String("name")},
			EdgeList:  []schema.Edge{edge.To("books", "Book").Ref("author")},
		},
		&schema.Definition{
			TypeName:  "Book",
			FieldList: []schema.Field{field.String("title")},
			EdgeList: []schema.Edge{
				edge.From("author", "Author").Ref("books"),
				edge.GenericRef("subject"),
			},
		},
	)
	require.NoError(t, err)
	return r
}

type countingLoader struct {
	one, many, generic int
	author             *relic.Record
	err                error
}

func (l *countingLoader) LoadOne(_ context.Context, _ *relic.Record, _ *schema.Column, _ any) (*relic.Record, error) {
	l.one++
	return l.author, l.err
}

func (l *countingLoader) LoadMany(context.Context, *relic.Record, *schema.Column) ([]*relic.Record, error) {
	l.many++
	return nil, l.err
}

func (l *countingLoader) LoadGeneric(context.Context, *relic.Record, *schema.Column, relic.GenericRef) (*relic.Record, error) {
	l.generic++
	return l.author, l.err
}

func TestRecordValues(t *testing.T) {
	t.Parallel()
	r := testRegistry(t)
	books, _ := r.Table("Book")

	b := relic.NewRecord(books)
	b.Set("id", int64(7))
	b.Set("title", "Go")
	b.Set("author_id", int64(3))

	assert.Equal(t, int64(7), b.ID())
	assert.Equal(t, "Go", b.Value("title"))
	assert.Equal(t, int64(3), b.Value("author"), "foreign key stored under the edge name")
	v, ok := b.Get("author_id")
	assert.True(t, ok)
	assert.Equal(t, int64(3), v)
	_, ok = b.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, "Book(7)", b.String())

	values := b.Values()
	values["title"] = "changed"
	assert.Equal(t, "Go", b.Value("title"))
}

func TestRecordDefer(t *testing.T) {
	t.Parallel()
	r := testRegistry(t)
	books, _ := r.Table("Book")
	authors, _ := r.Table("Author")
	author := relic.NewRecord(authors)
	author.Set("id", int64(3))

	b := relic.NewRecord(books)
	b.Set("id", int64(1))
	b.Set("author", int64(3))
	loader := &countingLoader{author: author}
	for _, e := range books.Edges() {
		b.Defer(e, loader)
	}

	slot := b.One("author")
	require.NotNil(t, slot)
	assert.False(t, slot.Loaded())
	assert.Equal(t, int64(3), slot.Key)
	_, err := slot.Get()
	assert.True(t, relic.IsNotLoaded(err))

	ctx := context.Background()
	got, err := slot.Resolve(ctx)
	require.NoError(t, err)
	assert.Same(t, author, got)
	got, err = slot.Resolve(ctx)
	require.NoError(t, err)
	assert.Same(t, author, got)
	assert.Equal(t, 1, loader.one, "resolved once")

	subject := b.One("subject")
	require.NotNil(t, subject)
	assert.True(t, subject.Loaded(), "empty generic reference needs no fetch")
	v, err := subject.Get()
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Zero(t, loader.generic)
}

func TestRecordDeferMany(t *testing.T) {
	t.Parallel()
	r := testRegistry(t)
	authors, _ := r.Table("Author")
	a := relic.NewRecord(authors)
	a.Set("id", int64(3))
	loader := &countingLoader{err: errors.New("boom")}
	list, _ := authors.Column("books")
	a.Defer(list, loader)

	slot := a.Many("books")
	require.NotNil(t, slot)
	assert.Nil(t, a.One("books"))
	assert.Equal(t, int64(3), slot.Key)

	_, err := slot.Resolve(context.Background())
	assert.EqualError(t, err, "boom")
	assert.False(t, slot.Loaded(), "failed fetch is not cached")
	loader.err = nil
	_, err = slot.Resolve(context.Background())
	require.NoError(t, err)
	assert.True(t, slot.Loaded())
	assert.Equal(t, 2, loader.many)
}

func TestRecordGeneric(t *testing.T) {
	t.Parallel()
	r := testRegistry(t)
	books, _ := r.Table("Book")
	authors, _ := r.Table("Author")
	author := relic.NewRecord(authors)

	b := relic.NewRecord(books)
	b.Set("subject", relic.GenericRef{Table: "authors", ID: int64(3)})
	ref, ok := b.Ref("subject")
	require.True(t, ok)
	assert.Equal(t, "authors", ref.Table)

	loader := &countingLoader{author: author}
	subject, _ := books.Column("subject")
	b.Defer(subject, loader)
	got, err := b.One("subject").Resolve(context.Background())
	require.NoError(t, err)
	assert.Same(t, author, got)
	assert.Equal(t, 1, loader.generic)
}

func TestRecordMarshalJSON(t *testing.T) {
	t.Parallel()
	r := testRegistry(t)
	books, _ := r.Table("Book")
	authors, _ := r.Table("Author")

	a := relic.NewRecord(authors)
	a.Set("id", int64(1))
	a.Set("name", "Rob")
	b := relic.NewRecord(books)
	b.Set("id", int64(2))
	b.Set("title", "Go")
	b.Set("author", int64(1))
	b.SetOne("author", relic.Loaded(b, "author", a))
	a.SetMany("books", relic.Loaded(a, "books", []*relic.Record{b}))

	out, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"Rob","books":[{"id":2,"title":"Go","author":1}]}`, string(out))
}
