package schema

import (
	"github.com/syssam/relic/schema/edge"
	"github.com/syssam/relic/schema/field"
)

type (
	// Field is the interface implemented by field builders.
	Field interface {
		Descriptor() *field.Descriptor
	}

	// Edge is the interface implemented by edge builders.
	Edge interface {
		Descriptor() *edge.Descriptor
	}

	// Mixin is a reusable set of fields and edges that can be embedded in
	// multiple table definitions.
	Mixin interface {
		Fields() []Field
		Edges() []Edge
	}

	// Interface is the interface implemented by table definitions.
	//
	//	type Book struct{ schema.Schema }
	//
	//	func (Book) Fields() []schema.Field {
	//	    return []schema.Field{field.String("title")}
	//	}
	Interface interface {
		Fields() []Field
		Edges() []Edge
		Mixin() []Mixin
		Config() Config
	}

	// Config holds the table-level options of a definition.
	Config struct {
		// Table overrides the default table name, which is the
		// pluralized snake_case form of the definition name.
		Table string
		// DefaultOrder lists the ordering terms applied when a query
		// gives none. A leading minus sorts descending, e.g. "-created_at".
		// The default is the primary key descending.
		DefaultOrder []string
		// VersionedAlong makes the table a versioned series keyed by the
		// given fields. Every change of a non-key field inserts a new row
		// and soft-deletes the previous one.
		VersionedAlong []string
	}
)

// Schema is the default implementation for the Interface.
// It should be embedded in all table definitions.
type Schema struct{}

// Fields of the table.
func (Schema) Fields() []Field { return nil }

// Edges of the table.
func (Schema) Edges() []Edge { return nil }

// Mixin of the table.
func (Schema) Mixin() []Mixin { return nil }

// Config of the table.
func (Schema) Config() Config { return Config{} }

var _ Interface = (*Schema)(nil)

// Definition is a table definition assembled at runtime, for example from
// a schema file, rather than declared as a Go type.
type Definition struct {
	TypeName   string
	FieldList  []Field
	EdgeList   []Edge
	MixinList  []Mixin
	ConfigData Config
}

// Name returns the definition name.
func (d *Definition) Name() string { return d.TypeName }

// Fields of the definition.
func (d *Definition) Fields() []Field { return d.FieldList }

// Edges of the definition.
func (d *Definition) Edges() []Edge { return d.EdgeList }

// Mixin of the definition.
func (d *Definition) Mixin() []Mixin { return d.MixinList }

// Config of the definition.
func (d *Definition) Config() Config { return d.ConfigData }

var _ Interface = (*Definition)(nil)
