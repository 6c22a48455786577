package mixin

import (
	"time"

	"github.com/syssam/relic/schema"
	"github.com/syssam/relic/schema/edge"
	"github.com/syssam/relic/schema/field"
)

// Schema is the default implementation for the schema.Mixin interface.
// It should be embedded in all custom mixin definitions.
//
//	type MyMixin struct {
//	    mixin.Schema
//	}
//
//	func (MyMixin) Fields() []schema.Field {
//	    return []schema.Field{
//	        field.String("custom_field"),
//	    }
//	}
type Schema struct{}

// Fields returns the fields of the mixin.
func (Schema) Fields() []schema.Field { return nil }

// Edges returns the edges of the mixin.
func (Schema) Edges() []schema.Edge { return nil }

// schema mixin must implement `Mixin` interface.
var _ schema.Mixin = (*Schema)(nil)

// Time adds created_at and updated_at timestamp fields to a table.
// created_at is set on creation and is immutable. updated_at is set on
// creation and on every update.
type Time struct {
	Schema
}

// Fields returns the time tracking fields.
func (Time) Fields() []schema.Field {
	return append(CreateTime{}.Fields(), UpdateTime{}.Fields()...)
}

// CreateTime adds only the created_at timestamp field.
type CreateTime struct {
	Schema
}

// Fields returns the created_at field.
func (CreateTime) Fields() []schema.Field {
	return []schema.Field{
		field.Time("created_at").
			Default(time.Now).
			Immutable().
			Comment("Timestamp when the row was created"),
	}
}

// UpdateTime adds only the updated_at timestamp field.
type UpdateTime struct {
	Schema
}

// Fields returns the updated_at field.
func (UpdateTime) Fields() []schema.Field {
	return []schema.Field{
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now).
			Comment("Timestamp when the row was last updated"),
	}
}

// SoftDelete adds the deleted_at field. Tables carrying it are filtered by
// default and deleted by setting the field.
type SoftDelete struct {
	Schema
}

// Fields returns the soft delete field.
func (SoftDelete) Fields() []schema.Field {
	return []schema.Field{
		field.Time(schema.DeletedAtField).
			Optional().
			Comment("Timestamp when the row was soft deleted (nil means live)"),
	}
}

// TimeSoftDelete combines Time and SoftDelete.
type TimeSoftDelete struct {
	Schema
}

// Fields returns all timestamp and soft delete fields.
func (TimeSoftDelete) Fields() []schema.Field {
	return append(Time{}.Fields(), SoftDelete{}.Fields()...)
}

// Edges wraps a list of edges into a mixin, for sharing relationships
// between definitions.
//
//	func (Comment) Mixin() []schema.Mixin {
//	    return []schema.Mixin{
//	        mixin.Edges(edge.GenericRef("subject")),
//	    }
//	}
func Edges(edges ...schema.Edge) schema.Mixin {
	return edgeList(edges)
}

type edgeList []schema.Edge

func (edgeList) Fields() []schema.Field { return nil }

func (l edgeList) Edges() []schema.Edge { return l }

// Fields wraps a list of fields into a mixin.
func Fields(fields ...schema.Field) schema.Mixin {
	return fieldList(fields)
}

type fieldList []schema.Field

func (l fieldList) Fields() []schema.Field { return l }

func (fieldList) Edges() []schema.Edge { return nil }

// Owned adds a required, immutable to-one edge named owner to the given
// table type, stored in owner_id.
func Owned(typ string) schema.Mixin {
	return Edges(edge.From("owner", typ).Required().Immutable())
}
