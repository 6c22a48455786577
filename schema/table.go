package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/syssam/relic/schema/edge"
	"github.com/syssam/relic/schema/field"
)

// Reserved field names of the soft-delete and versioning policies.
const (
	DeletedAtField = "deleted_at"
	VersionField   = "version"
	IDField        = "id"
)

// Cardinality of a column.
type Cardinality uint8

// Column cardinalities.
const (
	Scalar Cardinality = iota
	ToOne
	ToMany
)

// String implements fmt.Stringer.
func (c Cardinality) String() string {
	switch c {
	case ToOne:
		return "to-one"
	case ToMany:
		return "to-many"
	}
	return "scalar"
}

// Column describes a scalar field or a relationship of a table. Columns are
// immutable once the registry is built.
type Column struct {
	// Name is the field or relationship name.
	Name string
	// SQLName is the column stored on this table. For to-one edges holding
	// the key it is the foreign key column, for generic references the key
	// column. It is empty for edges keyed on the target table.
	SQLName string
	// Type of the stored value. For edges, the type of the key.
	Type        field.Type
	Cardinality Cardinality
	Nullable    bool
	Immutable   bool
	// Generic marks a polymorphic to-one reference.
	Generic bool
	// Target is the related table. Nil for scalars and generic references.
	Target *Table
	// Ref is the edge on the other side of the relationship, if declared.
	// For edges keyed on the target table it is the target's key holder.
	Ref *Column

	table *Table
	fdesc *field.Descriptor
	edesc *edge.Descriptor
}

// Table returns the table declaring the column.
func (c *Column) Table() *Table { return c.table }

// IsEdge reports whether the column is a relationship.
func (c *Column) IsEdge() bool { return c.Cardinality != Scalar }

// KeyedOnTarget reports whether the foreign key of the relationship lives
// on the target table (the To side of an edge).
func (c *Column) KeyedOnTarget() bool { return c.IsEdge() && c.SQLName == "" }

// TypeColumn returns the column storing the table name of a generic reference.
func (c *Column) TypeColumn() string {
	if !c.Generic {
		return ""
	}
	return c.Name + "_table"
}

// SQLColumns returns the SQL columns stored for this column on its table.
func (c *Column) SQLColumns() []string {
	switch {
	case c.Generic:
		return []string{c.TypeColumn(), c.SQLName}
	case c.SQLName == "":
		return nil
	}
	return []string{c.SQLName}
}

// Enums returns the allowed values of an enum field.
func (c *Column) Enums() []string {
	if c.fdesc == nil {
		return nil
	}
	return c.fdesc.Enums
}

// Comment returns the declared comment of the column.
func (c *Column) Comment() string {
	switch {
	case c.fdesc != nil:
		return c.fdesc.Comment
	case c.edesc != nil:
		return c.edesc.Comment
	}
	return ""
}

// Required reports whether a value must be given on create.
func (c *Column) Required() bool {
	switch {
	case c.table != nil && c.table.pk == c:
		return false
	case c.fdesc != nil:
		return !c.fdesc.Optional && c.fdesc.Default == nil
	case c.edesc != nil:
		return c.edesc.Required
	}
	return false
}

// DefaultValue returns the create default of the column, if declared.
func (c *Column) DefaultValue() (any, bool) {
	if c.fdesc == nil {
		return nil, false
	}
	return c.fdesc.DefaultValue()
}

// UpdateDefaultValue returns the value set on every update, if declared.
func (c *Column) UpdateDefaultValue() (any, bool) {
	if c.fdesc == nil {
		return nil, false
	}
	return c.fdesc.UpdateDefaultValue()
}

// Serialize converts a Go value into a statement argument for the column.
func (c *Column) Serialize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if enums := c.Enums(); len(enums) > 0 {
		s := fmt.Sprint(v)
		if !slices.Contains(enums, s) {
			return nil, fmt.Errorf("value %q is not one of %q", s, enums)
		}
	}
	if c.Generic {
		return v, nil
	}
	return c.Type.Serialize(v)
}

// Parse converts a raw driver value into the Go value of the column.
func (c *Column) Parse(raw any) (any, error) {
	if c.Generic {
		switch v := raw.(type) {
		case []byte:
			return string(v), nil
		}
		return raw, nil
	}
	return c.Type.Parse(raw)
}

// Table describes a registered table.
type Table struct {
	// Name is the definition name, e.g. "Book".
	Name string
	// SQLName is the table name, e.g. "books".
	SQLName string

	columns      []*Column
	index        map[string]*Column
	sqlIndex     map[string]*Column
	pk           *Column
	deletedAt    *Column
	version      *Column
	versionKeys  []*Column
	versionAlong []string
	defaultOrder []string
}

// Columns returns the columns of the table in declaration order, the
// primary key first.
func (t *Table) Columns() []*Column { return t.columns }

// Column returns the column with the given field name, or with the given
// stored SQL name.
func (t *Table) Column(name string) (*Column, bool) {
	if c, ok := t.index[name]; ok {
		return c, true
	}
	c, ok := t.sqlIndex[name]
	return c, ok
}

// Fields returns the scalar columns.
func (t *Table) Fields() []*Column {
	var cs []*Column
	for _, c := range t.columns {
		if !c.IsEdge() {
			cs = append(cs, c)
		}
	}
	return cs
}

// Edges returns the relationship columns.
func (t *Table) Edges() []*Column {
	var cs []*Column
	for _, c := range t.columns {
		if c.IsEdge() {
			cs = append(cs, c)
		}
	}
	return cs
}

// Stored returns the columns holding SQL columns on this table, in the
// order their SQL columns are selected.
func (t *Table) Stored() []*Column {
	var cs []*Column
	for _, c := range t.columns {
		if len(c.SQLColumns()) > 0 {
			cs = append(cs, c)
		}
	}
	return cs
}

// SQLColumns returns every SQL column stored on the table in select order.
func (t *Table) SQLColumns() []string {
	var names []string
	for _, c := range t.Stored() {
		names = append(names, c.SQLColumns()...)
	}
	return names
}

// PrimaryKey returns the primary key column.
func (t *Table) PrimaryKey() *Column { return t.pk }

// SoftDelete reports whether rows are deleted by setting deleted_at.
func (t *Table) SoftDelete() bool { return t.deletedAt != nil }

// DeletedAt returns the soft-delete marker column, or nil.
func (t *Table) DeletedAt() *Column { return t.deletedAt }

// Versioned reports whether the table is a versioned series.
func (t *Table) Versioned() bool { return len(t.versionKeys) > 0 }

// Version returns the version column of a versioned table, or nil.
func (t *Table) Version() *Column { return t.version }

// VersionKeys returns the columns identifying a versioned series.
func (t *Table) VersionKeys() []*Column { return t.versionKeys }

// DefaultOrder returns the ordering terms applied when a query gives none.
func (t *Table) DefaultOrder() []string {
	if len(t.defaultOrder) > 0 {
		return t.defaultOrder
	}
	return []string{"-" + t.pk.Name}
}

// Label returns a human readable, singular name of the table.
func (t *Table) Label() string {
	words := strings.ReplaceAll(inflect.Singularize(t.SQLName), "_", " ")
	return cases.Title(language.English).String(words)
}

// String implements fmt.Stringer.
func (t *Table) String() string { return t.SQLName }

// TableName returns the default table name of a definition name:
// "BookReview" becomes "book_reviews".
func TableName(name string) string {
	return inflect.Pluralize(inflect.Underscore(name))
}
