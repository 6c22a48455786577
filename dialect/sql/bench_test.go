package sql

import (
	"testing"

	"github.com/syssam/relic/dialect"
)

func BenchmarkRender_Simple(b *testing.B) {
	e := C("name").EQ("a8m")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, _ = Render(dialect.Postgres, nil, e)
	}
}

func BenchmarkRender_Compound(b *testing.B) {
	e := And(
		C("name").ContainsFold("go"),
		Or(C("age").GT(18), C("age").IsNull()),
		C("status").In("active", "pending", "review"),
		Not(C("draft").EQ(true)),
	)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, _ = Render(dialect.Postgres, nil, e)
	}
}

func BenchmarkRender_Scoped(b *testing.B) {
	e := And(
		C("author.publisher.name").EQ("Addison-Wesley"),
		C("author.name").HasPrefix("B"),
		C("title").NotNull(),
	)
	s := scopeFunc(func(path, name string) (string, string, error) {
		if path == "" {
			return "books", name, nil
		}
		return "books__" + path, name, nil
	})
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, _ = Render(dialect.MySQL, s, e)
	}
}

func BenchmarkPaths(b *testing.B) {
	es := []Expr{
		C("author.publisher.name").EQ("x"),
		C("author.name").EQ("y"),
		C("reviews.rating").GT(3),
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Paths(es...)
	}
}
