package edge_test

import (
	"testing"

	"github.com/syssam/relic/schema/edge"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	e := edge.From("author", "Author").
		Ref("books").
		Required().
		Immutable().
		Comment("book author").
		Descriptor()
	assert.NoError(t, e.Err)
	assert.Equal(t, "author", e.Name)
	assert.Equal(t, edge.Inverse, e.Kind)
	assert.Equal(t, "Author", e.Type)
	assert.Equal(t, "books", e.RefName)
	assert.True(t, e.Unique)
	assert.True(t, e.Required)
	assert.True(t, e.Immutable)
	assert.Equal(t, "author_id", e.Column)
	assert.Equal(t, "book author", e.Comment)

	e = edge.From("owner", "User").StorageKey(edge.Column("user_id")).Descriptor()
	assert.NoError(t, e.Err)
	assert.Equal(t, "user_id", e.Column)
	assert.Empty(t, e.RefName)
}

func TestTo(t *testing.T) {
	e := edge.To("books", "Book").Ref("author").Descriptor()
	assert.NoError(t, e.Err)
	assert.Equal(t, edge.Assoc, e.Kind)
	assert.False(t, e.Unique)
	assert.Empty(t, e.Column)

	e = edge.To("profile", "Profile").Ref("user").Unique().Descriptor()
	assert.True(t, e.Unique)

	e = edge.To("books", "Book").Descriptor()
	assert.Error(t, e.Err)
}

func TestGenericRef(t *testing.T) {
	e := edge.GenericRef("subject").Descriptor()
	assert.NoError(t, e.Err)
	assert.Equal(t, edge.Generic, e.Kind)
	assert.True(t, e.Unique)
	assert.Equal(t, "subject_id", e.Column)
}

func TestInvalidNames(t *testing.T) {
	for _, name := range []string{"", "author__publisher", "author.publisher"} {
		assert.Error(t, edge.From(name, "Author").Descriptor().Err, name)
	}
}
