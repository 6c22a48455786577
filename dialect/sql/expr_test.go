package sql

import (
	"errors"
	"strings"
	"testing"

	"github.com/syssam/relic/dialect"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scopeFunc func(path, name string) (string, string, error)

func (f scopeFunc) Column(path, name string) (string, string, error) { return f(path, name) }

func TestRender(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		dialect   string
		expr      Expr
		wantQuery string
		wantArgs  []any
	}{
		{
			name:      "eq",
			dialect:   dialect.Postgres,
			expr:      C("name").EQ("a8m"),
			wantQuery: `("name" = $1)`,
			wantArgs:  []any{"a8m"},
		},
		{
			name:      "eq_mysql",
			dialect:   dialect.MySQL,
			expr:      C("name").EQ("a8m"),
			wantQuery: "(`name` = ?)",
			wantArgs:  []any{"a8m"},
		},
		{
			name:      "and_or",
			dialect:   dialect.Postgres,
			expr:      And(C("a").EQ(1), Or(C("b").GT(2), C("c").LTE(3))),
			wantQuery: `(("a" = $1) AND (("b" > $2) OR ("c" <= $3)))`,
			wantArgs:  []any{1, 2, 3},
		},
		{
			name:      "and_single",
			dialect:   dialect.Postgres,
			expr:      And(C("a").NEQ(1)),
			wantQuery: `("a" <> $1)`,
			wantArgs:  []any{1},
		},
		{
			name:      "not",
			dialect:   dialect.Postgres,
			expr:      Not(C("a").EQ(1)),
			wantQuery: `NOT ("a" = $1)`,
			wantArgs:  []any{1},
		},
		{
			name:      "is_null",
			dialect:   dialect.SQLite,
			expr:      Or(C("a").IsNull(), C("b").NotNull()),
			wantQuery: `("a" IS NULL OR "b" IS NOT NULL)`,
		},
		{
			name:      "in",
			dialect:   dialect.Postgres,
			expr:      C("id").In(1, 2, 3),
			wantQuery: `("id" IN ($1, $2, $3))`,
			wantArgs:  []any{1, 2, 3},
		},
		{
			name:      "in_empty",
			dialect:   dialect.Postgres,
			expr:      C("id").In(),
			wantQuery: `(1 = 0)`,
		},
		{
			name:      "not_in",
			dialect:   dialect.MySQL,
			expr:      C("id").NotIn(1, 2),
			wantQuery: "(`id` NOT IN (?, ?))",
			wantArgs:  []any{1, 2},
		},
		{
			name:      "contains_escapes",
			dialect:   dialect.Postgres,
			expr:      C("title").Contains(`50%_off\`),
			wantQuery: `("title" LIKE $1)`,
			wantArgs:  []any{`%50\%\_off\\%`},
		},
		{
			name:      "contains_fold_sqlite",
			dialect:   dialect.SQLite,
			expr:      C("title").ContainsFold("Go"),
			wantQuery: `(LOWER("title") LIKE ? ESCAPE '\')`,
			wantArgs:  []any{"%go%"},
		},
		{
			name:      "prefix_suffix",
			dialect:   dialect.Postgres,
			expr:      And(HasPrefix(C("a"), "x"), HasSuffixFold(C("b"), "Y")),
			wantQuery: `(("a" LIKE $1) AND (LOWER("b") LIKE $2))`,
			wantArgs:  []any{"x%", "%y"},
		},
		{
			name:      "like_raw_pattern",
			dialect:   dialect.Postgres,
			expr:      Like(C("a"), "a_c%"),
			wantQuery: `("a" LIKE $1)`,
			wantArgs:  []any{"a_c%"},
		},
		{
			name:      "equal_fold",
			dialect:   dialect.Postgres,
			expr:      C("email").EqualFold("A@B.io"),
			wantQuery: `(LOWER("email") = $1)`,
			wantArgs:  []any{"a@b.io"},
		},
		{
			name:      "between",
			dialect:   dialect.Postgres,
			expr:      Between(C("year"), 1990, 1999),
			wantQuery: `(("year" >= $1) AND ("year" <= $2))`,
			wantArgs:  []any{1990, 1999},
		},
		{
			name:      "arithmetic",
			dialect:   dialect.Postgres,
			expr:      GT(Mul(Add(C("a"), 1), C("b")), Neg(C("c"))),
			wantQuery: `((("a" + $1) * "b") > -("c"))`,
			wantArgs:  []any{1},
		},
		{
			name:      "functions",
			dialect:   dialect.Postgres,
			expr:      EQ(Coalesce(Trim(C("nick")), C("name"), "anon"), Upper(Lit("bob"))),
			wantQuery: `(COALESCE(TRIM("nick"), "name", $1) = UPPER($2))`,
			wantArgs:  []any{"anon", "bob"},
		},
		{
			name:      "order",
			dialect:   dialect.Postgres,
			expr:      C("created_at").Desc(),
			wantQuery: `"created_at" DESC`,
		},
		{
			name:      "typed_fields",
			dialect:   dialect.Postgres,
			expr:      And(StringField("title").HasPrefix("The"), IntField("pages").LTE(300), BoolField("draft").EQ(false)),
			wantQuery: `(("title" LIKE $1) AND ("pages" <= $2) AND ("draft" = $3))`,
			wantArgs:  []any{"The%", 300, false},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			query, args, err := Render(tt.dialect, nil, tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.wantQuery, query)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestRenderPlaceholderCount(t *testing.T) {
	t.Parallel()
	exprs := []Expr{
		C("a").EQ(1),
		And(C("a").In(1, 2, 3), C("b").ContainsFold("x"), Not(C("c").IsNull())),
		Or(Between(C("d"), 1, 2), EqualFold(C("e"), "F"), C("g").NotIn()),
		Coalesce(C("h"), 1, 2, Lit(3)),
		Add(Sub(C("i"), 1), Mod(C("j"), 2)),
		EQ(Neg(Neg(C("pages"))), 3),
	}
	for _, d := range []string{dialect.Postgres, dialect.MySQL, dialect.SQLite} {
		for _, e := range exprs {
			query, args, err := Render(d, nil, e)
			require.NoError(t, err)
			n := strings.Count(query, "?")
			if d == dialect.Postgres {
				n = strings.Count(query, "$")
			}
			assert.Equal(t, len(args), n, "%s: %s", d, query)
			assert.NotContains(t, query, "--", "line comment in %s", query)
		}
	}
}

func TestRenderScope(t *testing.T) {
	t.Parallel()
	s := scopeFunc(func(path, name string) (string, string, error) {
		switch path {
		case "":
			return "books", name, nil
		case "author", "author.publisher":
			return "books__" + strings.ReplaceAll(path, ".", "__"), name, nil
		}
		return "", "", errors.New("unknown path " + path)
	})

	query, args, err := Render(dialect.Postgres, s, And(
		C("author.publisher.name").EQ("Addison-Wesley"),
		C("title").NotNull(),
	))
	require.NoError(t, err)
	assert.Equal(t, `(("books__author__publisher"."name" = $1) AND "books"."title" IS NOT NULL)`, query)
	assert.Equal(t, []any{"Addison-Wesley"}, args)

	_, _, err = Render(dialect.Postgres, s, C("reviews.rating").GT(3))
	require.EqualError(t, err, "unknown path reviews")
}

func TestImmutability(t *testing.T) {
	t.Parallel()
	col := C("a")
	left := col.EQ(1)
	both := And(left, col.GT(0))
	_ = Or(both, col.IsNull())
	query, args, err := Render(dialect.Postgres, nil, left)
	require.NoError(t, err)
	assert.Equal(t, `("a" = $1)`, query)
	assert.Equal(t, []any{1}, args)
	assert.Len(t, both.(*NaryExpr).Operands, 2)
}

func TestC(t *testing.T) {
	t.Parallel()
	c := C("author.publisher.name")
	assert.Equal(t, "author.publisher", c.Path)
	assert.Equal(t, "name", c.Name)
	assert.Equal(t, "author.publisher.name", c.Ref())

	c = C("title")
	assert.Empty(t, c.Path)
	assert.Equal(t, "title", c.Ref())
}

func TestParseOrder(t *testing.T) {
	t.Parallel()
	o, err := ParseOrder("-author.name")
	require.NoError(t, err)
	assert.True(t, o.Desc)
	assert.Equal(t, &ColumnExpr{Path: "author", Name: "name"}, o.X)

	o, err = ParseOrder("title")
	require.NoError(t, err)
	assert.False(t, o.Desc)

	_, err = ParseOrder("-")
	require.Error(t, err)
}

func TestPaths(t *testing.T) {
	t.Parallel()
	paths := Paths(
		C("author.publisher.name").EQ("x"),
		And(C("title").EQ("y"), C("author.name").EQ("z")),
		C("author.publisher.city").Desc(),
		Coalesce(C("reviews.rating"), 0),
	)
	assert.Equal(t, []string{"author.publisher", "author", "reviews"}, paths)
	assert.Empty(t, Paths(C("title").EQ(1)))
}

func TestWalkStops(t *testing.T) {
	t.Parallel()
	var visited int
	Walk(And(C("a").EQ(1), Not(C("b").EQ(2))), func(e Expr) bool {
		visited++
		_, isNot := e.(*UnaryExpr)
		return !isNot
	})
	// And, EQ, a, 1, Not.
	assert.Equal(t, 5, visited)
}

func TestEscapeLike(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "plain", EscapeLike("plain"))
	assert.Equal(t, `100\%`, EscapeLike("100%"))
	assert.Equal(t, `a\_b\\c`, EscapeLike(`a_b\c`))
}
