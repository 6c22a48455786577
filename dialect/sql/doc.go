// Package sql provides the statement builder, the expression algebra and the
// database/sql backed driver of relic.
//
// # Builder
//
// A Builder accumulates the text of one statement together with its
// positional arguments. Placeholders are written by Arg, so their count and
// the argument order always match:
//
//	b := sql.Dialect(dialect.Postgres)
//	b.WriteString("SELECT * FROM ").Ident("books").WriteString(" WHERE ").
//	    Join(sql.C("title").EQ("Go"))
//	query, args := b.Query() // SELECT * FROM "books" WHERE ("title" = $1), [Go]
//
// # Expressions
//
// Expressions are immutable trees. Column references carry a dotted
// relationship path and are qualified with a table alias only when rendered
// through a Scope, which lets the planner pick aliases after the predicate
// tree is complete:
//
//	sql.C("title").ContainsFold("go")            // (LOWER("title") LIKE $1)
//	sql.C("author.name").EQ("Rob")               // ("books__author"."name" = $1)
//	sql.And(sql.C("year").GTE(2000), sql.Not(sql.C("draft").EQ(true)))
//	sql.C("published_at").Desc()                 // "published_at" DESC
//
// Typed helpers such as StringField, IntField or TimeField restrict operand
// types at compile time:
//
//	var Title = sql.StringField("title")
//	Title.HasPrefix("The ")
//
// # Drivers
//
// Driver adapts *database/sql.DB to dialect.Driver. StatsDriver and
// DebugDriver wrap any dialect.Driver to collect statistics or log every
// statement through log/slog.
package sql
