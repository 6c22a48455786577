// Package edge provides fluent builders for declaring relationships between
// relic tables.
//
// # Edge Types
//
//   - edge.From: to-one edge holding the foreign key on this table
//   - edge.To: the other side of a From edge, to-many by default
//   - edge.GenericRef: polymorphic to-one reference
//
// # Relationship Cardinality
//
//	// Book belongs to an Author: books.author_id
//	edge.From("author", "Author").Ref("books")
//
//	// Author has many Books
//	edge.To("books", "Book").Ref("author")
//
//	// User has one Profile: profiles.user_id
//	edge.To("profile", "Profile").Ref("user").Unique()
//
// # Edge Options
//
//	edge.From("author", "Author").
//	    Required().   // Foreign key must be set on create
//	    Immutable().  // Cannot be changed after creation
//	    Comment("Book author")
//
// # Storage Key Customization
//
// The foreign key column of a From edge defaults to "<name>_id":
//
//	edge.From("owner", "User").
//	    Ref("pets").
//	    StorageKey(edge.Column("user_id"))
//
// # Generic References
//
// A generic reference may point at a row of any registered table. It is
// stored as two columns, "<name>_table" and "<name>_id":
//
//	edge.GenericRef("subject")
//
// Generic references resolve lazily, one row at a time. They cannot be
// joined, so preloading one fails before any SQL is issued.
package edge
