package sql

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/syssam/relic/dialect"
)

// Expr is a node of the expression algebra. Render writes the SQL fragment
// of the node into the builder and records its parameters in order.
// Expression nodes are immutable; operators always return a new node.
type Expr interface {
	Render(*Builder)
}

// Render renders a standalone expression for the given dialect. The scope
// may be nil, in which case column references are written unqualified.
func Render(dialectName string, scope Scope, e Expr) (string, []any, error) {
	b := Dialect(dialectName).WithScope(scope)
	b.Join(e)
	if err := b.Err(); err != nil {
		return "", nil, err
	}
	query, args := b.Query()
	return query, args, nil
}

type (
	// ColumnExpr references a field reached through a dotted relationship
	// path from the query root. The empty path is the root table.
	ColumnExpr struct {
		Path string
		Name string
	}

	// Literal is a value bound as a positional parameter.
	Literal struct {
		Value any
	}

	// RawExpr is a trusted SQL fragment without parameters.
	RawExpr struct {
		SQL string
	}

	// FuncExpr is a function call: NAME(arg1, arg2, ...).
	FuncExpr struct {
		Name string
		Args []Expr
	}

	// UnaryExpr is a prefix (NOT x, -x) or postfix (x IS NULL) operator.
	UnaryExpr struct {
		Op      string
		X       Expr
		Postfix bool
	}

	// NaryExpr joins its operands with a binary operator: (a op b op c).
	NaryExpr struct {
		Op       string
		Operands []Expr
	}

	// ListExpr is a parenthesized, comma separated list: (a, b, c).
	ListExpr struct {
		Items []Expr
	}

	// LikeExpr matches X against a LIKE pattern. Fold lowers both sides.
	LikeExpr struct {
		X       Expr
		Pattern string
		Fold    bool
	}

	// OrderExpr is an ORDER BY term.
	OrderExpr struct {
		X    Expr
		Desc bool
	}
)

// C returns a column expression from a dotted reference. The last segment
// is the field name and the rest is the relationship path, so "title" is a
// root column and "author.publisher.name" a column of a joined table.
func C(ref string) *ColumnExpr {
	if i := strings.LastIndexByte(ref, '.'); i >= 0 {
		return &ColumnExpr{Path: ref[:i], Name: ref[i+1:]}
	}
	return &ColumnExpr{Name: ref}
}

// Col returns a column expression for the given path and field name.
func Col(path, name string) *ColumnExpr {
	return &ColumnExpr{Path: path, Name: name}
}

// Ref returns the dotted reference of the column.
func (c *ColumnExpr) Ref() string {
	if c.Path == "" {
		return c.Name
	}
	return c.Path + "." + c.Name
}

// Render implements Expr.
func (c *ColumnExpr) Render(b *Builder) {
	if b.scope == nil {
		b.Ident(c.Name)
		return
	}
	qualifier, column, err := b.scope.Column(c.Path, c.Name)
	if err != nil {
		b.AddError(err)
		b.Ident(c.Name)
		return
	}
	b.Qualified(qualifier, column)
}

// EQ returns a "c = v" predicate.
func (c *ColumnExpr) EQ(v any) Expr { return EQ(c, v) }

// NEQ returns a "c <> v" predicate.
func (c *ColumnExpr) NEQ(v any) Expr { return NEQ(c, v) }

// LT returns a "c < v" predicate.
func (c *ColumnExpr) LT(v any) Expr { return LT(c, v) }

// LTE returns a "c <= v" predicate.
func (c *ColumnExpr) LTE(v any) Expr { return LTE(c, v) }

// GT returns a "c > v" predicate.
func (c *ColumnExpr) GT(v any) Expr { return GT(c, v) }

// GTE returns a "c >= v" predicate.
func (c *ColumnExpr) GTE(v any) Expr { return GTE(c, v) }

// In returns a "c IN (...)" predicate.
func (c *ColumnExpr) In(vs ...any) Expr { return In(c, vs...) }

// NotIn returns a "c NOT IN (...)" predicate.
func (c *ColumnExpr) NotIn(vs ...any) Expr { return NotIn(c, vs...) }

// IsNull returns a "c IS NULL" predicate.
func (c *ColumnExpr) IsNull() Expr { return IsNull(c) }

// NotNull returns a "c IS NOT NULL" predicate.
func (c *ColumnExpr) NotNull() Expr { return NotNull(c) }

// Contains returns a predicate matching values containing s.
func (c *ColumnExpr) Contains(s string) Expr { return Contains(c, s) }

// ContainsFold is the case-insensitive version of Contains.
func (c *ColumnExpr) ContainsFold(s string) Expr { return ContainsFold(c, s) }

// HasPrefix returns a predicate matching values starting with s.
func (c *ColumnExpr) HasPrefix(s string) Expr { return HasPrefix(c, s) }

// HasSuffix returns a predicate matching values ending with s.
func (c *ColumnExpr) HasSuffix(s string) Expr { return HasSuffix(c, s) }

// EqualFold returns a case-insensitive equality predicate.
func (c *ColumnExpr) EqualFold(s string) Expr { return EqualFold(c, s) }

// Asc orders by the column ascending.
func (c *ColumnExpr) Asc() *OrderExpr { return Asc(c) }

// Desc orders by the column descending.
func (c *ColumnExpr) Desc() *OrderExpr { return Desc(c) }

// Lit returns a literal expression.
func Lit(v any) *Literal { return &Literal{Value: v} }

// Render implements Expr.
func (l *Literal) Render(b *Builder) { b.Arg(l.Value) }

// Raw returns a raw SQL fragment. It must never carry user input.
func Raw(s string) *RawExpr { return &RawExpr{SQL: s} }

// Render implements Expr.
func (r *RawExpr) Render(b *Builder) { b.WriteString(r.SQL) }

// Render implements Expr.
func (f *FuncExpr) Render(b *Builder) {
	b.WriteString(f.Name).Wrap(func(b *Builder) {
		b.JoinComma(f.Args...)
	})
}

// Render implements Expr.
func (u *UnaryExpr) Render(b *Builder) {
	if u.Postfix {
		b.Join(u.X).Pad().WriteString(u.Op)
		return
	}
	b.WriteString(u.Op)
	if r := u.Op[len(u.Op)-1]; unicode.IsLetter(rune(r)) {
		b.Pad().Join(u.X)
		return
	}
	// Symbolic operators wrap their operand: "--x" starts a comment.
	b.Wrap(func(b *Builder) { b.Join(u.X) })
}

// Render implements Expr.
func (n *NaryExpr) Render(b *Builder) {
	b.Wrap(func(b *Builder) {
		for i, e := range n.Operands {
			if i > 0 {
				b.Pad().WriteString(n.Op).Pad()
			}
			b.Join(e)
		}
	})
}

// Render implements Expr.
func (l *ListExpr) Render(b *Builder) {
	b.Wrap(func(b *Builder) {
		b.JoinComma(l.Items...)
	})
}

// Render implements Expr.
func (l *LikeExpr) Render(b *Builder) {
	b.Wrap(func(b *Builder) {
		if l.Fold {
			b.WriteString("LOWER").Wrap(func(b *Builder) { b.Join(l.X) })
			b.WriteString(" LIKE ").Arg(strings.ToLower(l.Pattern))
		} else {
			b.Join(l.X).WriteString(" LIKE ").Arg(l.Pattern)
		}
		if b.Dialect() == dialect.SQLite {
			b.WriteString(` ESCAPE '\'`)
		}
	})
}

// Render implements Expr.
func (o *OrderExpr) Render(b *Builder) {
	b.Join(o.X)
	if o.Desc {
		b.WriteString(" DESC")
	} else {
		b.WriteString(" ASC")
	}
}

// expr converts an operand to an expression. Plain values become literals.
func expr(v any) Expr {
	if e, ok := v.(Expr); ok {
		return e
	}
	return &Literal{Value: v}
}

func binary(op string, x Expr, v any) Expr {
	return &NaryExpr{Op: op, Operands: []Expr{x, expr(v)}}
}

// EQ returns a "x = v" predicate.
func EQ(x Expr, v any) Expr { return binary("=", x, v) }

// NEQ returns a "x <> v" predicate.
func NEQ(x Expr, v any) Expr { return binary("<>", x, v) }

// LT returns a "x < v" predicate.
func LT(x Expr, v any) Expr { return binary("<", x, v) }

// LTE returns a "x <= v" predicate.
func LTE(x Expr, v any) Expr { return binary("<=", x, v) }

// GT returns a "x > v" predicate.
func GT(x Expr, v any) Expr { return binary(">", x, v) }

// GTE returns a "x >= v" predicate.
func GTE(x Expr, v any) Expr { return binary(">=", x, v) }

// And returns the conjunction of the given predicates. A single predicate
// is returned as is.
func And(preds ...Expr) Expr {
	return junction("AND", "1 = 1", preds)
}

// Or returns the disjunction of the given predicates.
func Or(preds ...Expr) Expr {
	return junction("OR", "1 = 0", preds)
}

func junction(op, empty string, preds []Expr) Expr {
	switch len(preds) {
	case 0:
		return Raw(empty)
	case 1:
		return preds[0]
	}
	return &NaryExpr{Op: op, Operands: append([]Expr(nil), preds...)}
}

// Not negates the given predicate.
func Not(x Expr) Expr { return &UnaryExpr{Op: "NOT", X: x} }

// In returns a "x IN (v1, v2, ...)" predicate. An empty list matches nothing.
func In(x Expr, vs ...any) Expr {
	if len(vs) == 0 {
		return Raw("(1 = 0)")
	}
	return &NaryExpr{Op: "IN", Operands: []Expr{x, list(vs)}}
}

// NotIn returns a "x NOT IN (v1, v2, ...)" predicate. An empty list
// matches everything.
func NotIn(x Expr, vs ...any) Expr {
	if len(vs) == 0 {
		return Raw("(1 = 1)")
	}
	return &NaryExpr{Op: "NOT IN", Operands: []Expr{x, list(vs)}}
}

func list(vs []any) *ListExpr {
	items := make([]Expr, len(vs))
	for i := range vs {
		items[i] = expr(vs[i])
	}
	return &ListExpr{Items: items}
}

// IsNull returns a "x IS NULL" predicate.
func IsNull(x Expr) Expr { return &UnaryExpr{Op: "IS NULL", X: x, Postfix: true} }

// NotNull returns a "x IS NOT NULL" predicate.
func NotNull(x Expr) Expr { return &UnaryExpr{Op: "IS NOT NULL", X: x, Postfix: true} }

// Between returns an inclusive range predicate: "(x >= lo AND x <= hi)".
func Between(x Expr, lo, hi any) Expr {
	return And(GTE(x, lo), LTE(x, hi))
}

// Like matches x against a caller supplied LIKE pattern, wildcards included.
func Like(x Expr, pattern string) Expr { return &LikeExpr{X: x, Pattern: pattern} }

// ILike is the case-insensitive version of Like.
func ILike(x Expr, pattern string) Expr { return &LikeExpr{X: x, Pattern: pattern, Fold: true} }

// Contains matches values containing s. Wildcards in s are escaped.
func Contains(x Expr, s string) Expr {
	return &LikeExpr{X: x, Pattern: "%" + EscapeLike(s) + "%"}
}

// ContainsFold is the case-insensitive version of Contains.
func ContainsFold(x Expr, s string) Expr {
	return &LikeExpr{X: x, Pattern: "%" + EscapeLike(s) + "%", Fold: true}
}

// HasPrefix matches values starting with s.
func HasPrefix(x Expr, s string) Expr {
	return &LikeExpr{X: x, Pattern: EscapeLike(s) + "%"}
}

// HasPrefixFold is the case-insensitive version of HasPrefix.
func HasPrefixFold(x Expr, s string) Expr {
	return &LikeExpr{X: x, Pattern: EscapeLike(s) + "%", Fold: true}
}

// HasSuffix matches values ending with s.
func HasSuffix(x Expr, s string) Expr {
	return &LikeExpr{X: x, Pattern: "%" + EscapeLike(s)}
}

// HasSuffixFold is the case-insensitive version of HasSuffix.
func HasSuffixFold(x Expr, s string) Expr {
	return &LikeExpr{X: x, Pattern: "%" + EscapeLike(s), Fold: true}
}

// EqualFold returns a case-insensitive equality predicate.
func EqualFold(x Expr, s string) Expr {
	return EQ(Lower(x), strings.ToLower(s))
}

// EscapeLike escapes the LIKE wildcards and the escape character itself.
func EscapeLike(s string) string {
	if !strings.ContainsAny(s, `\%_`) {
		return s
	}
	var sb strings.Builder
	for _, r := range s {
		if r == '\\' || r == '%' || r == '_' {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Add returns "x + v".
func Add(x Expr, v any) Expr { return binary("+", x, v) }

// Sub returns "x - v".
func Sub(x Expr, v any) Expr { return binary("-", x, v) }

// Mul returns "x * v".
func Mul(x Expr, v any) Expr { return binary("*", x, v) }

// Div returns "x / v".
func Div(x Expr, v any) Expr { return binary("/", x, v) }

// Mod returns "x % v".
func Mod(x Expr, v any) Expr { return binary("%", x, v) }

// Neg returns "-x".
func Neg(x Expr) Expr { return &UnaryExpr{Op: "-", X: x} }

// Func returns a function call expression. Plain values become literals.
func Func(name string, args ...any) *FuncExpr {
	f := &FuncExpr{Name: name, Args: make([]Expr, len(args))}
	for i := range args {
		f.Args[i] = expr(args[i])
	}
	return f
}

// Lower returns LOWER(x).
func Lower(x Expr) Expr { return Func("LOWER", x) }

// Upper returns UPPER(x).
func Upper(x Expr) Expr { return Func("UPPER", x) }

// Trim returns TRIM(x).
func Trim(x Expr) Expr { return Func("TRIM", x) }

// Coalesce returns COALESCE(x, v...).
func Coalesce(x Expr, vs ...any) Expr {
	return Func("COALESCE", append([]any{x}, vs...)...)
}

// Asc orders by x ascending.
func Asc(x Expr) *OrderExpr { return &OrderExpr{X: x} }

// Desc orders by x descending.
func Desc(x Expr) *OrderExpr { return &OrderExpr{X: x, Desc: true} }

// ParseOrder parses an ordering term: "title", "-created_at" or
// "author.name" with an optional leading minus for descending order.
func ParseOrder(term string) (*OrderExpr, error) {
	desc := strings.HasPrefix(term, "-")
	ref := strings.TrimPrefix(term, "-")
	if ref == "" {
		return nil, fmt.Errorf("sql: empty order term %q", term)
	}
	return &OrderExpr{X: C(ref), Desc: desc}, nil
}

// Walk traverses the expression tree in depth-first order. Traversal of a
// subtree stops when fn returns false.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch e := e.(type) {
	case *FuncExpr:
		for _, a := range e.Args {
			Walk(a, fn)
		}
	case *UnaryExpr:
		Walk(e.X, fn)
	case *NaryExpr:
		for _, o := range e.Operands {
			Walk(o, fn)
		}
	case *ListExpr:
		for _, i := range e.Items {
			Walk(i, fn)
		}
	case *LikeExpr:
		Walk(e.X, fn)
	case *OrderExpr:
		Walk(e.X, fn)
	}
}

// Columns returns the column references of the given expressions in order
// of appearance.
func Columns(es ...Expr) []*ColumnExpr {
	var cols []*ColumnExpr
	for _, e := range es {
		Walk(e, func(e Expr) bool {
			if c, ok := e.(*ColumnExpr); ok {
				cols = append(cols, c)
			}
			return true
		})
	}
	return cols
}

// Paths returns the distinct non-root relationship paths referenced by the
// given expressions, in order of first appearance.
func Paths(es ...Expr) []string {
	var (
		paths []string
		seen  = make(map[string]struct{})
	)
	for _, c := range Columns(es...) {
		if c.Path == "" {
			continue
		}
		if _, ok := seen[c.Path]; !ok {
			seen[c.Path] = struct{}{}
			paths = append(paths, c.Path)
		}
	}
	return paths
}
