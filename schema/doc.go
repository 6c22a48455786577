// Package schema provides the building blocks for declaring relic tables
// and the runtime registry built from them.
//
//   - [field]: scalar field builders
//   - [edge]: relationship builders
//   - [mixin]: reusable field and edge sets
//
// # Quick Start
//
// Declare a table by embedding schema.Schema:
//
//	type Book struct{ schema.Schema }
//
//	func (Book) Mixin() []schema.Mixin {
//	    return []schema.Mixin{mixin.Time{}}
//	}
//
//	func (Book) Fields() []schema.Field {
//	    return []schema.Field{
//	        field.String("title"),
//	        field.Enum("status").Values("draft", "published"),
//	    }
//	}
//
//	func (Book) Edges() []schema.Edge {
//	    return []schema.Edge{
//	        edge.From("author", "Author").Ref("books"),
//	        edge.To("reviews", "Review").Ref("book"),
//	    }
//	}
//
// Then register every definition and build the registry:
//
//	registry, err := schema.Build(Author{}, Book{}, Review{})
//
// Building resolves the relationships between tables and reports every
// declaration error at once.
//
// # Conventions
//
//   - A field named "id" is the primary key. Without one, an int64 "id"
//     is added in front of the other fields.
//   - A time field named "deleted_at" makes the table soft-deleting.
//   - The table name defaults to the pluralized snake_case definition
//     name: "BookReview" is stored in "book_reviews".
//   - The default ordering is the primary key descending unless the
//     definition configures DefaultOrder.
//
// # Versioned Tables
//
// Config.VersionedAlong turns a table into a series of versions
// identified by the given key fields. The registry adds an immutable
// "version" field and "deleted_at" when they are not declared. Every
// write inserts a new version and soft-deletes the previous one.
//
//	func (Page) Config() schema.Config {
//	    return schema.Config{VersionedAlong: []string{"site", "slug"}}
//	}
package schema
