package load_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/relic/schema"
	"github.com/syssam/relic/schema/field"
	"github.com/syssam/relic/schema/load"
)

func TestPath(t *testing.T) {
	t.Parallel()
	r, err := load.Path(filepath.Join("testdata", "library.yaml"))
	require.NoError(t, err)
	require.Len(t, r.Tables(), 5)

	author, ok := r.Table("Author")
	require.True(t, ok)
	assert.Equal(t, "authors", author.SQLName)
	assert.True(t, author.SoftDelete())

	book, ok := r.Table("books")
	require.True(t, ok)
	assert.Equal(t, []string{"title"}, book.DefaultOrder())
	assert.Equal(t, []string{"id", "title", "pages", "state", "writer_id"}, book.SQLColumns())
	state, ok := book.Column("state")
	require.True(t, ok)
	assert.Equal(t, field.TypeEnum, state.Type)
	assert.Equal(t, []string{"draft", "published"}, state.Enums())
	assert.False(t, state.Required())
	rel, ok := book.Column("author")
	require.True(t, ok)
	assert.Equal(t, schema.ToOne, rel.Cardinality)
	assert.Equal(t, author, rel.Target)
	reviews, ok := book.Column("reviews")
	require.True(t, ok)
	assert.Equal(t, schema.ToMany, reviews.Cardinality)
	assert.True(t, reviews.KeyedOnTarget())

	review, ok := r.Table("Review")
	require.True(t, ok)
	subject, ok := review.Column("subject")
	require.True(t, ok)
	assert.True(t, subject.Generic)
	assert.Equal(t, []string{"subject_table", "subject_id"}, subject.SQLColumns())
	rb, ok := review.Column("book")
	require.True(t, ok)
	assert.True(t, rb.Required())
	created, ok := review.Column("created_at")
	require.True(t, ok)
	assert.True(t, created.Immutable)

	doc, ok := r.Table("Document")
	require.True(t, ok)
	assert.Equal(t, "docs", doc.SQLName)
	assert.True(t, doc.Versioned())
	assert.Equal(t, field.TypeUUID, doc.PrimaryKey().Type)
	require.Len(t, doc.VersionKeys(), 1)
	assert.Equal(t, "slug", doc.VersionKeys()[0].Name)
	body, ok := doc.Column("body")
	require.True(t, ok)
	assert.Equal(t, "Markdown source", body.Comment())
}

func TestPathMissing(t *testing.T) {
	t.Parallel()
	_, err := load.Path(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseDefaults(t *testing.T) {
	t.Parallel()
	r, err := load.Parse([]byte(`
tables:
  - name: Event
    fields:
      - {name: at, type: time, default: now}
      - {name: key, type: uuid, default: new}
      - {name: weight, type: float, default: 1.5}
`))
	require.NoError(t, err)
	ev, ok := r.Table("Event")
	require.True(t, ok)
	for name, want := range map[string]string{"at": "time.Time", "key": "uuid.UUID", "weight": "float64"} {
		c, ok := ev.Column(name)
		require.True(t, ok, name)
		v, ok := c.DefaultValue()
		require.True(t, ok, name)
		assert.Equal(t, want, fmt.Sprintf("%T", v), name)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		doc  string
		err  string
	}{
		{
			name: "empty document",
			doc:  ``,
			err:  "no tables declared",
		},
		{
			name: "unknown key",
			doc:  "tables:\n  - name: A\n    colums: []\n",
			err:  "colums",
		},
		{
			name: "unknown field type",
			doc:  "tables:\n  - name: A\n    fields:\n      - {name: x, type: decimal}\n",
			err:  `unknown type "decimal"`,
		},
		{
			name: "unknown mixin",
			doc:  "tables:\n  - name: A\n    mixins: [audit]\n",
			err:  `unknown mixin "audit"`,
		},
		{
			name: "edge with two kinds",
			doc:  "tables:\n  - name: A\n    edges:\n      - {name: b, to: B, from: B}\n",
			err:  "exactly one of to, from and generic",
		},
		{
			name: "generic with ref",
			doc:  "tables:\n  - name: A\n    edges:\n      - {name: s, generic: true, ref: x}\n",
			err:  "generic reference with ref",
		},
		{
			name: "missing table name",
			doc:  "tables:\n  - fields:\n      - {name: x, type: string}\n",
			err:  "missing name",
		},
		{
			name: "to edge without ref",
			doc:  "tables:\n  - name: A\n    edges:\n      - {name: bs, to: B}\n  - name: B\n",
			err:  "requires Ref",
		},
		{
			name: "unknown target",
			doc:  "tables:\n  - name: A\n    edges:\n      - {name: b, from: B}\n",
			err:  `unknown table "B"`,
		},
		{
			name: "time default not a string",
			doc:  "tables:\n  - name: A\n    fields:\n      - {name: at, type: time, default: 3}\n",
			err:  "must be a string",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := load.Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}
}
