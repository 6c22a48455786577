package edge

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the kind of a relationship.
type Kind uint8

// Relationship kinds.
const (
	// Assoc is declared with To: the foreign key lives on the target table.
	Assoc Kind = iota + 1
	// Inverse is declared with From: the foreign key lives on this table.
	Inverse
	// Generic is a polymorphic reference stored as a table name and a key.
	Generic
)

// A Descriptor for edge configuration.
type Descriptor struct {
	Name      string // edge name.
	Kind      Kind   // relationship kind.
	Type      string // target table type name.
	RefName   string // name of the inverse edge on the other side.
	Unique    bool   // to-one edge.
	Column    string // foreign key column (Inverse and Generic).
	Required  bool   // foreign key is required on create.
	Immutable bool   // foreign key cannot change after create.
	Comment   string
	Err       error
}

// Builder is the builder for edge fields.
type Builder struct {
	desc *Descriptor
}

func newBuilder(name string, kind Kind, typ string) *Builder {
	b := &Builder{desc: &Descriptor{Name: name, Kind: kind, Type: typ}}
	switch {
	case name == "":
		b.desc.Err = errors.New("edge: empty edge name")
	case strings.Contains(name, "__") || strings.Contains(name, "."):
		b.desc.Err = fmt.Errorf("edge: name %q must not contain %q or %q", name, "__", ".")
	}
	return b
}

// To defines an association edge, the foreign key being held by the target
// table's inverse edge referencing this one. To edges are to-many unless
// Unique is set.
//
//	// Author schema
//	edge.To("books", "Book")
func To(name, typ string) *Builder {
	return newBuilder(name, Assoc, typ)
}

// From defines the inverse of an association edge. The foreign key is
// stored on this table. From edges are always to-one; Unique is implied.
//
//	// Book schema
//	edge.From("author", "Author").Ref("books")
func From(name, typ string) *Builder {
	b := newBuilder(name, Inverse, typ)
	b.desc.Unique = true
	return b
}

// Ref sets the name of the edge on the other side of the relationship.
// It is required on To edges, naming the From edge that holds the key.
func (b *Builder) Ref(ref string) *Builder {
	b.desc.RefName = ref
	return b
}

// GenericRef defines a polymorphic to-one reference. The referenced table
// name and key are stored in "<name>_table" and "<name>_id". Generic edges
// can be loaded lazily but never joined.
func GenericRef(name string) *Builder {
	b := newBuilder(name, Generic, "")
	b.desc.Unique = true
	return b
}

// Unique sets the edge type to be to-one.
func (b *Builder) Unique() *Builder {
	b.desc.Unique = true
	return b
}

// Required indicates that the edge must be set on create.
func (b *Builder) Required() *Builder {
	b.desc.Required = true
	return b
}

// Immutable indicates that the edge cannot be changed after create.
func (b *Builder) Immutable() *Builder {
	b.desc.Immutable = true
	return b
}

// Comment sets the comment of the edge.
func (b *Builder) Comment(c string) *Builder {
	b.desc.Comment = c
	return b
}

// StorageOption allows overriding the storage of an edge.
type StorageOption func(*Descriptor)

// Column sets the foreign key column name of an inverse edge.
func Column(name string) StorageOption {
	return func(d *Descriptor) {
		d.Column = name
	}
}

// StorageKey sets the storage configuration of the edge.
//
//	edge.From("owner", "User").Ref("pets").StorageKey(edge.Column("user_id"))
func (b *Builder) StorageKey(opts ...StorageOption) *Builder {
	for _, opt := range opts {
		opt(b.desc)
	}
	return b
}

// Descriptor implements the schema.Edge interface by returning its descriptor.
func (b *Builder) Descriptor() *Descriptor {
	if b.desc.Column == "" && b.desc.Kind != Assoc {
		b.desc.Column = b.desc.Name + "_id"
	}
	if b.desc.Kind == Assoc && b.desc.RefName == "" && b.desc.Err == nil {
		b.desc.Err = fmt.Errorf("edge: To edge %q requires Ref naming the inverse edge", b.desc.Name)
	}
	return b.desc
}
