// Package mixin provides optional, ready-to-use mixins for relic tables.
//
// Available mixins:
//   - ID: UUID primary key generated on create
//   - TenantID: immutable tenant_id field for multi-tenancy
//   - Versioned: version and deleted_at fields of a versioned series
//
// The timestamp and soft delete mixins live in schema/mixin.
//
//	import "github.com/syssam/relic/contrib/mixin"
//
//	func (Document) Mixin() []schema.Mixin {
//	    return []schema.Mixin{
//	        mixin.ID{},
//	        mixin.TenantID{},
//	    }
//	}
package mixin

import (
	"github.com/google/uuid"

	"github.com/syssam/relic/schema"
	"github.com/syssam/relic/schema/field"
	"github.com/syssam/relic/schema/mixin"
)

// ID adds a UUID primary key generated with github.com/google/uuid.
//
// For other key types, declare an "id" field directly:
//
//	field.String("id").Default(ksuid.New).Immutable()
type ID struct{ mixin.Schema }

// Fields of the ID mixin.
func (ID) Fields() []schema.Field {
	return []schema.Field{
		field.UUID(schema.IDField).
			Default(uuid.New).
			Immutable(),
	}
}

// id mixin must implement `Mixin` interface.
var _ schema.Mixin = (*ID)(nil)

// TenantID adds a tenant_id field for multi-tenancy support.
// The field is immutable to prevent moving rows between tenants.
//
// Scope queries to a tenant with a predicate on the field:
//
//	client.Query("Document").Where(sql.C("tenant_id").EQ(tenant))
type TenantID struct{ mixin.Schema }

// Fields of the TenantID mixin.
func (TenantID) Fields() []schema.Field {
	return []schema.Field{
		field.String("tenant_id").
			Immutable(),
	}
}

// tenant id mixin must implement `Mixin` interface.
var _ schema.Mixin = (*TenantID)(nil)

// Versioned declares the version and deleted_at fields explicitly, for
// definitions that document them next to their other fields. Tables
// configured with VersionedAlong get both fields even without the mixin.
type Versioned struct{ mixin.Schema }

// Fields of the Versioned mixin.
func (Versioned) Fields() []schema.Field {
	return []schema.Field{
		field.Int(schema.VersionField).
			Default(1).
			Immutable().
			Comment("Position of the row in its series"),
		field.Time(schema.DeletedAtField).
			Optional().
			Comment("Timestamp when the row was superseded or deleted"),
	}
}

// versioned mixin must implement `Mixin` interface.
var _ schema.Mixin = (*Versioned)(nil)
