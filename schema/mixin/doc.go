// Package mixin provides the base mixin implementation for relic table
// definitions.
//
// A mixin is a reusable set of fields and edges that can be embedded in
// multiple definitions. Mixin fields are placed before the fields of the
// definition itself.
//
// # Creating Custom Mixins
//
// Embed Schema and override the methods you need:
//
//	type AuditMixin struct {
//	    mixin.Schema
//	}
//
//	func (AuditMixin) Fields() []schema.Field {
//	    return []schema.Field{
//	        field.String("created_by").Optional(),
//	        field.String("updated_by").Optional(),
//	    }
//	}
//
// # Using Mixins
//
//	func (Book) Mixin() []schema.Mixin {
//	    return []schema.Mixin{
//	        mixin.Time{},       // created_at, updated_at
//	        mixin.SoftDelete{}, // deleted_at
//	    }
//	}
//
// SoftDelete switches the table to soft deletion: queries skip rows whose
// deleted_at is set unless IncludeDeleted is requested, and deletes set the
// column instead of removing the row.
//
// For a UUID primary key or a tenant column, see contrib/mixin.
package mixin
