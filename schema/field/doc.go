// Package field provides fluent builders for declaring the scalar fields of
// a relic table.
//
// Field names are snake_case and double as SQL column names unless a
// storage key is given:
//
//	field.String("title")
//	field.Int("pages").Optional()
//	field.Time("published_at").Nillable()
//	field.UUID("token").Default(uuid.New).Immutable()
//	field.Enum("state").Values("draft", "published")
//	field.JSON("metadata")
//	field.Bytes("cover")
//
// # Field Options
//
//	field.String("email").
//	    Optional().            // Not required on create, nullable column
//	    Immutable().           // Cannot be updated
//	    Default("unknown").    // Default value, or func() T
//	    StorageKey("mail").    // SQL column name
//	    Comment("User email")
//
// # Values
//
// Every Type knows how to serialize a Go value into a statement argument
// and how to parse a raw driver value back:
//
//	v, err := field.TypeUUID.Parse([]byte("8c7f..."))
//	arg, err := field.TypeJSON.Serialize(map[string]any{"a": 1}) // `{"a":1}`
//
// Parse accepts every integer kind for numeric types, since cached rows
// decode small integers into their smallest representation.
package field
