package schema_test

import (
	"testing"

	"github.com/syssam/relic/schema"
	"github.com/syssam/relic/schema/edge"
	"github.com/syssam/relic/schema/field"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Author struct{ schema.Schema }

func (Author) Fields() []schema.Field {
	return []schema.Field{
		field.String("name"),
		field.Time("deleted_at").Optional(),
	}
}

func (Author) Edges() []schema.Edge {
	return []schema.Edge{
		edge.To("books", "Book").Ref("author"),
		edge.To("profile", "Profile").Ref("author").Unique(),
	}
}

type Book struct{ schema.Schema }

func (Book) Fields() []schema.Field {
	return []schema.Field{
		field.String("title"),
		field.Enum("status").Values("draft", "published").Default("draft"),
	}
}

func (Book) Edges() []schema.Edge {
	return []schema.Edge{
		edge.From("author", "Author").Ref("books").Required(),
		edge.From("editor", "Author").StorageKey(edge.Column("edited_by")),
	}
}

func (Book) Config() schema.Config {
	return schema.Config{DefaultOrder: []string{"title"}}
}

type Profile struct{ schema.Schema }

func (Profile) Fields() []schema.Field {
	return []schema.Field{field.UUID("id"), field.Text("bio")}
}

func (Profile) Edges() []schema.Edge {
	return []schema.Edge{edge.From("author", "Author").Ref("profile")}
}

type Note struct{ schema.Schema }

func (Note) Fields() []schema.Field {
	return []schema.Field{field.Text("body")}
}

func (Note) Edges() []schema.Edge {
	return []schema.Edge{edge.GenericRef("subject")}
}

type Page struct{ schema.Schema }

func (Page) Fields() []schema.Field {
	return []schema.Field{field.String("site"), field.String("slug"), field.Text("body")}
}

func (Page) Config() schema.Config {
	return schema.Config{Table: "wiki_pages", VersionedAlong: []string{"site", "slug"}}
}

func build(t *testing.T) *schema.Registry {
	t.Helper()
	r, err := schema.Build(Author{}, Book{}, Profile{}, Note{}, Page{})
	require.NoError(t, err)
	return r
}

func TestRegistryTables(t *testing.T) {
	t.Parallel()
	r := build(t)
	require.Len(t, r.Tables(), 5)

	books, ok := r.Table("Book")
	require.True(t, ok)
	same, ok := r.Table("books")
	require.True(t, ok)
	assert.Same(t, books, same)
	assert.Equal(t, "Book", books.Label())
	assert.Equal(t, []string{"id", "title", "status", "author_id", "edited_by"}, books.SQLColumns())
	assert.Equal(t, []string{"title"}, books.DefaultOrder())
	assert.False(t, books.SoftDelete())
	assert.Equal(t, field.TypeInt64, books.PrimaryKey().Type)

	authors, _ := r.Table("Author")
	assert.True(t, authors.SoftDelete())
	assert.Equal(t, []string{"-id"}, authors.DefaultOrder())

	_, ok = r.Table("Unknown")
	assert.False(t, ok)
}

func TestRegistryEdges(t *testing.T) {
	t.Parallel()
	r := build(t)
	authors, _ := r.Table("Author")
	books, _ := r.Table("Book")
	profiles, _ := r.Table("Profile")

	author, ok := books.Column("author")
	require.True(t, ok)
	assert.Equal(t, schema.ToOne, author.Cardinality)
	assert.Equal(t, "author_id", author.SQLName)
	assert.Same(t, authors, author.Target)
	assert.True(t, author.Required())
	assert.False(t, author.KeyedOnTarget())

	byFK, ok := books.Column("author_id")
	require.True(t, ok)
	assert.Same(t, author, byFK)

	list, _ := authors.Column("books")
	assert.Equal(t, schema.ToMany, list.Cardinality)
	assert.True(t, list.KeyedOnTarget())
	assert.Same(t, author, list.Ref)
	assert.Empty(t, list.SQLColumns())

	profile, _ := authors.Column("profile")
	assert.Equal(t, schema.ToOne, profile.Cardinality)
	assert.Same(t, profiles, profile.Target)
	assert.Equal(t, field.TypeUUID, profile.Type)

	editor, _ := books.Column("editor")
	assert.Equal(t, "edited_by", editor.SQLName)
	assert.Nil(t, editor.Ref)
}

func TestRegistryGeneric(t *testing.T) {
	t.Parallel()
	r := build(t)
	notes, _ := r.Table("notes")
	subject, ok := notes.Column("subject")
	require.True(t, ok)
	assert.True(t, subject.Generic)
	assert.Nil(t, subject.Target)
	assert.Equal(t, "subject_table", subject.TypeColumn())
	assert.Equal(t, []string{"id", "body", "subject_table", "subject_id"}, notes.SQLColumns())
}

func TestRegistryVersioned(t *testing.T) {
	t.Parallel()
	r := build(t)
	pages, ok := r.Table("wiki_pages")
	require.True(t, ok)
	assert.True(t, pages.Versioned())
	assert.True(t, pages.SoftDelete())
	require.NotNil(t, pages.Version())
	assert.True(t, pages.Version().Immutable)
	require.Len(t, pages.VersionKeys(), 2)
	assert.Equal(t, "site", pages.VersionKeys()[0].Name)
	assert.Equal(t, []string{"id", "site", "slug", "body", "version", "deleted_at"}, pages.SQLColumns())
}

type broken struct {
	schema.Schema
	fields []schema.Field
	edges  []schema.Edge
	config schema.Config
}

func (b broken) Fields() []schema.Field { return b.fields }
func (b broken) Edges() []schema.Edge   { return b.edges }
func (b broken) Config() schema.Config  { return b.config }

func TestRegistryErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		def  broken
		want string
	}{
		{
			name: "duplicate field",
			def:  broken{fields: []schema.Field{field.String("a"), field.Int("a")}},
			want: `duplicate field or edge "a"`,
		},
		{
			name: "invalid field",
			def:  broken{fields: []schema.Field{field.String("a__b")}},
			want: "a__b",
		},
		{
			name: "unknown target",
			def:  broken{edges: []schema.Edge{edge.From("owner", "Nobody")}},
			want: `unknown table "Nobody"`,
		},
		{
			name: "unknown ref",
			def:  broken{edges: []schema.Edge{edge.To("things", "Thing").Ref("missing")}},
			want: `unknown edge "missing"`,
		},
		{
			name: "unknown default order",
			def:  broken{config: schema.Config{DefaultOrder: []string{"-missing"}}},
			want: `default order references unknown field "missing"`,
		},
		{
			name: "unknown version key",
			def:  broken{config: schema.Config{VersionedAlong: []string{"missing"}}},
			want: `unknown versioning key "missing"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := schema.NewRegistry().
				RegisterNamed("Broken", tt.def).
				RegisterNamed("Thing", broken{})
			err := r.Build()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRegistryDuplicateTable(t *testing.T) {
	t.Parallel()
	_, err := schema.Build(Note{}, Note{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate table "Note"`)
}

func TestTableName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "book_reviews", schema.TableName("BookReview"))
	assert.Equal(t, "people", schema.TableName("Person"))
	assert.Equal(t, "authors", schema.TableName("Author"))
}
