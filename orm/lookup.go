package orm

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/syssam/relic"
	"github.com/syssam/relic/dialect/sql"
)

// LookupSep separates the segments of a lookup key.
const LookupSep = "__"

// lookups maps the operator suffix of a lookup key to its expression.
var lookups = map[string]func(c *sql.ColumnExpr, v any) (sql.Expr, error){
	"exact":       exact,
	"iexact":      textual(sql.EqualFold),
	"lt":          compare(sql.LT),
	"lte":         compare(sql.LTE),
	"gt":          compare(sql.GT),
	"gte":         compare(sql.GTE),
	"in":          in,
	"range":       between,
	"isnull":      isNull,
	"contains":    textual(sql.Contains),
	"icontains":   textual(sql.ContainsFold),
	"startswith":  textual(sql.HasPrefix),
	"istartswith": textual(sql.HasPrefixFold),
	"endswith":    textual(sql.HasSuffix),
	"iendswith":   textual(sql.HasSuffixFold),
	"like":        textual(sql.Like),
	"ilike":       textual(sql.ILike),
}

// Lookup returns the predicate of a keyword lookup. The key is a field
// name, optionally preceded by relationship names and followed by an
// operator, all separated by "__":
//
//	orm.Lookup("title__icontains", "go")        // LOWER(title) LIKE '%go%'
//	orm.Lookup("author__name", "Rob")           // author.name = 'Rob'
//	orm.Lookup("reviews__stars__gte", 4)        // reviews.stars >= 4
//	orm.Lookup("author__isnull", true)          // author_id IS NULL
//
// Without an operator the lookup is exact. An exact lookup of nil is an IS
// NULL check, of a record compares its primary key, and of a
// relic.GenericRef compares both columns of the reference.
func Lookup(key string, v any) (sql.Expr, error) {
	segs := strings.Split(key, LookupSep)
	op := "exact"
	if len(segs) > 1 {
		if _, ok := lookups[segs[len(segs)-1]]; ok {
			op, segs = segs[len(segs)-1], segs[:len(segs)-1]
		}
	}
	if slices.Contains(segs, "") {
		return nil, fmt.Errorf("orm: invalid lookup %q", key)
	}
	e, err := lookups[op](sql.C(strings.Join(segs, ".")), v)
	if err != nil {
		return nil, fmt.Errorf("orm: lookup %q: %w", key, err)
	}
	return e, nil
}

// Lookups returns the predicates of the given lookups, ordered by key.
func Lookups(m map[string]any) ([]sql.Expr, error) {
	ps := make([]sql.Expr, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		p, err := Lookup(k, m[k])
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	return ps, nil
}

func exact(c *sql.ColumnExpr, v any) (sql.Expr, error) {
	switch v := keyOf(v).(type) {
	case nil:
		return c.IsNull(), nil
	case relic.GenericRef:
		if v.IsZero() {
			return c.IsNull(), nil
		}
		return sql.And(sql.Col(c.Path, c.Name+"_table").EQ(v.Table), c.EQ(v.ID)), nil
	default:
		return c.EQ(v), nil
	}
}

func compare(op func(sql.Expr, any) sql.Expr) func(*sql.ColumnExpr, any) (sql.Expr, error) {
	return func(c *sql.ColumnExpr, v any) (sql.Expr, error) {
		if v = keyOf(v); v == nil {
			return nil, errors.New("cannot compare with nil")
		}
		return op(c, v), nil
	}
}

func textual(op func(sql.Expr, string) sql.Expr) func(*sql.ColumnExpr, any) (sql.Expr, error) {
	return func(c *sql.ColumnExpr, v any) (sql.Expr, error) {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expect string, got %T", v)
		}
		return op(c, s), nil
	}
}

func in(c *sql.ColumnExpr, v any) (sql.Expr, error) {
	vs, err := values(v)
	if err != nil {
		return nil, err
	}
	return c.In(vs...), nil
}

func between(c *sql.ColumnExpr, v any) (sql.Expr, error) {
	vs, err := values(v)
	if err != nil {
		return nil, err
	}
	if len(vs) != 2 {
		return nil, fmt.Errorf("expect 2 bounds, got %d", len(vs))
	}
	return sql.Between(c, vs[0], vs[1]), nil
}

func isNull(c *sql.ColumnExpr, v any) (sql.Expr, error) {
	null, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("expect bool, got %T", v)
	}
	if null {
		return c.IsNull(), nil
	}
	return c.NotNull(), nil
}

// values returns the elements of a slice or array value.
func values(v any) ([]any, error) {
	rv := reflect.ValueOf(v)
	if k := rv.Kind(); k != reflect.Slice && k != reflect.Array {
		return nil, fmt.Errorf("expect slice, got %T", v)
	}
	vs := make([]any, rv.Len())
	for i := range vs {
		vs[i] = keyOf(rv.Index(i).Interface())
	}
	return vs, nil
}
