package orm

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/syssam/relic"
	"github.com/syssam/relic/dialect"
	"github.com/syssam/relic/dialect/sql"
	"github.com/syssam/relic/dialect/sql/sqlgraph"
	"github.com/syssam/relic/schema"
)

// Mode is the kind of statement a query compiles to.
type Mode uint8

// Statement modes.
const (
	ModeSelect Mode = iota
	ModeCount
	ModeUpdate
	ModeDelete
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeCount:
		return "count"
	case ModeUpdate:
		return "update"
	case ModeDelete:
		return "delete"
	}
	return "select"
}

// Statement is a compiled query.
type Statement struct {
	Mode  Mode
	Table *schema.Table
	SQL   string
	Args  []any
	// Plan is the select list layout of ModeSelect statements.
	Plan *sqlgraph.Plan

	// single is set for statements reading the root table only.
	single bool
}

// Query is a query rooted at one table. Builder methods modify the query
// and return it for chaining; use Clone to branch off a copy. A Query is
// not safe for concurrent use.
type Query struct {
	client      *Client
	table       *schema.Table
	dialect     string
	now         func() time.Time
	preds       []sql.Expr
	preloads    []string
	order       []*sql.OrderExpr
	limit       *int
	offset      *int
	withDeleted bool
	allRows     bool
	sets        []assignment
	err         error
}

// assignment is one column value of an update.
type assignment struct {
	column *schema.Column
	value  any
}

// NewQuery returns a query of the given table that is not bound to a
// client. It can be compiled, but not executed.
func NewQuery(t *schema.Table, dialectName string) *Query {
	return &Query{table: t, dialect: dialectName, now: time.Now}
}

// Table returns the root table of the query.
func (q *Query) Table() *schema.Table { return q.table }

// Err returns the first error found while building the query.
func (q *Query) Err() error { return q.err }

func (q *Query) setErr(err error) {
	if q.err == nil {
		q.err = err
	}
}

// Where adds predicates to the query. All predicates are AND-ed. Column
// references are checked against the schema right away.
func (q *Query) Where(ps ...sql.Expr) *Query {
	if q.table != nil {
		q.setErr(sqlgraph.NewResolver(q.table).Check(ps...))
	}
	q.preds = append(q.preds, ps...)
	return q
}

// Filter adds keyword lookups to the query, see Lookup.
func (q *Query) Filter(lookups map[string]any) *Query {
	ps, err := Lookups(lookups)
	if err != nil {
		q.setErr(err)
		return q
	}
	return q.Where(ps...)
}

// Preload adds relationship paths to fetch with the query. Every
// relationship along a path is preloaded.
func (q *Query) Preload(paths ...string) *Query {
	if q.table != nil {
		r := sqlgraph.NewResolver(q.table)
		for _, p := range paths {
			if _, err := r.Resolve(p); err != nil {
				q.setErr(err)
			}
		}
	}
	q.preloads = append(q.preloads, paths...)
	return q
}

// OrderBy adds ordering terms. Without any, the default order of the table
// applies.
func (q *Query) OrderBy(os ...*sql.OrderExpr) *Query {
	if q.table != nil {
		es := make([]sql.Expr, len(os))
		for i := range os {
			es[i] = os[i]
		}
		q.setErr(sqlgraph.NewResolver(q.table).Check(es...))
	}
	q.order = append(q.order, os...)
	return q
}

// Limit limits the number of root records returned.
func (q *Query) Limit(n int) *Query {
	q.limit = &n
	return q
}

// Offset skips the first n root records.
func (q *Query) Offset(n int) *Query {
	q.offset = &n
	return q
}

// IncludeDeleted includes soft-deleted rows, of the root table and of
// joined tables.
func (q *Query) IncludeDeleted() *Query {
	q.withDeleted = true
	return q
}

// ForAllRows acknowledges that Update or Delete without predicates
// affects every row of the table.
func (q *Query) ForAllRows() *Query {
	q.allRows = true
	return q
}

// Set adds a column value to the statement of Update. The name is a field
// name, or a to-one relationship name taking the related key or record.
func (q *Query) Set(name string, v any) *Query {
	if q.table == nil {
		return q
	}
	c, err := writable(q.table, name)
	if err != nil {
		q.setErr(err)
		return q
	}
	q.sets = append(q.sets, assignment{column: c, value: v})
	return q
}

// Clone returns a copy of the query.
func (q *Query) Clone() *Query {
	c := *q
	c.preds = append([]sql.Expr(nil), q.preds...)
	c.preloads = append([]string(nil), q.preloads...)
	c.order = append([]*sql.OrderExpr(nil), q.order...)
	c.sets = append([]assignment(nil), q.sets...)
	if q.limit != nil {
		n := *q.limit
		c.limit = &n
	}
	if q.offset != nil {
		n := *q.offset
		c.offset = &n
	}
	return &c
}

// Compile compiles the query to a statement of the given mode.
//
// Relationship paths referenced by predicates and ordering are joined
// without being selected. With LIMIT or OFFSET and a joined to-many
// relationship, the pagination applies to root rows through a primary key
// subquery. Update and delete statements never join: they match the
// primary keys selected by the same predicates.
func (q *Query) Compile(mode Mode) (*Statement, error) {
	if q.err != nil {
		return nil, q.err
	}
	if q.table == nil {
		return nil, errors.New("orm: query without table")
	}
	order, err := q.orderTerms()
	if err != nil {
		return nil, err
	}
	refs := make([]sql.Expr, 0, len(q.preds)+len(order))
	refs = append(refs, q.preds...)
	for _, o := range order {
		refs = append(refs, o)
	}
	implicit := sql.Paths(refs...)
	r := sqlgraph.NewResolver(q.table)
	if err := r.Check(refs...); err != nil {
		return nil, err
	}
	st := &Statement{Mode: mode, Table: q.table}
	b := sql.Dialect(q.dialect).WithScope(r)
	switch mode {
	case ModeSelect:
		err = q.compileSelect(b, r, st, implicit, order)
	case ModeCount:
		err = q.compileCount(b, r, implicit)
	case ModeUpdate, ModeDelete:
		err = q.compileWrite(b, r, mode, implicit, order)
	default:
		err = fmt.Errorf("orm: unknown statement mode %d", mode)
	}
	if err != nil {
		return nil, err
	}
	if err := b.Err(); err != nil {
		return nil, err
	}
	st.SQL, st.Args = b.Query()
	return st, nil
}

func (q *Query) compileSelect(b *sql.Builder, r *sqlgraph.Resolver, st *Statement, implicit []string, order []*sql.OrderExpr) error {
	tree, err := sqlgraph.BuildJoinTree(r, q.preloads, implicit)
	if err != nil {
		return err
	}
	plan := sqlgraph.NewPlan(tree)
	if plan.Width == 0 {
		return fmt.Errorf("orm: no columns selected from %s", q.table.Name)
	}
	st.Plan, st.single = plan, tree.Empty()
	b.WriteString("SELECT ")
	plan.Render(b)
	b.WriteString(" FROM ").Ident(q.table.SQLName)
	tree.Render(b, q.withDeleted)
	where := q.predicates()
	page := q.paginated() && tree.FansOut()
	if page {
		keys, err := sqlgraph.BuildJoinTree(r, nil, implicit)
		if err != nil {
			return err
		}
		where = append(where, q.keysIn(r, "page", func(b *sql.Builder) {
			q.renderKeys(b, r, keys, order, true)
		}))
	}
	q.renderWhere(b, where)
	q.renderOrder(b, order, false)
	if !page {
		q.renderLimit(b)
	}
	return nil
}

func (q *Query) compileCount(b *sql.Builder, r *sqlgraph.Resolver, implicit []string) error {
	tree, err := sqlgraph.BuildJoinTree(r, nil, implicit)
	if err != nil {
		return err
	}
	if q.paginated() {
		order, err := q.orderTerms()
		if err != nil {
			return err
		}
		b.WriteString("SELECT COUNT(*) FROM ").Wrap(func(b *sql.Builder) {
			q.renderKeys(b, r, tree, order, true)
		}).WriteString(" AS ").Ident("counted")
		return nil
	}
	b.WriteString("SELECT COUNT(")
	if tree.FansOut() {
		b.WriteString("DISTINCT ").Join(r.Root().PrimaryKey())
	} else {
		b.Byte('*')
	}
	b.WriteString(") FROM ").Ident(q.table.SQLName)
	tree.Render(b, q.withDeleted)
	q.renderWhere(b, q.predicates())
	return nil
}

// scoped refuses an update or delete with neither predicates nor
// ForAllRows.
func (q *Query) scoped(mode Mode) error {
	if len(q.preds) == 0 && !q.allRows {
		return relic.NewEmptyPredicateError(q.table.Name, mode.String())
	}
	return nil
}

func (q *Query) compileWrite(b *sql.Builder, r *sqlgraph.Resolver, mode Mode, implicit []string, order []*sql.OrderExpr) error {
	if err := q.scoped(mode); err != nil {
		return err
	}
	tree, err := sqlgraph.BuildJoinTree(r, nil, implicit)
	if err != nil {
		return err
	}
	switch {
	case mode == ModeDelete && q.table.SoftDelete():
		b.WriteString("UPDATE ").Ident(q.table.SQLName).WriteString(" SET ").
			Ident(q.table.DeletedAt().SQLName).WriteString(" = ").Arg(q.now())
	case mode == ModeDelete:
		b.WriteString("DELETE FROM ").Ident(q.table.SQLName)
	case q.table.Versioned():
		return fmt.Errorf("orm: %s is versioned: rows change through new versions", q.table.Name)
	default:
		if err := q.renderSet(b); err != nil {
			return err
		}
	}
	where := q.predicates()
	if !tree.Empty() || q.paginated() {
		page := q.paginated()
		where = []sql.Expr{q.keysIn(r, "matched", func(b *sql.Builder) {
			q.renderKeys(b, r, tree, order, page)
		})}
	}
	q.renderWhere(b, where)
	return nil
}

// renderSet writes the UPDATE clause of the query assignments, followed by
// the update defaults of the columns not assigned.
func (q *Query) renderSet(b *sql.Builder) error {
	if len(q.sets) == 0 {
		return fmt.Errorf("orm: update of %s without values", q.table.Name)
	}
	var (
		cols []string
		args []any
		seen = make(map[*schema.Column]bool)
	)
	for _, s := range q.sets {
		cs, vs, err := columnArgs(s.column, s.value)
		if err != nil {
			return err
		}
		cols, args = append(cols, cs...), append(args, vs...)
		seen[s.column] = true
	}
	for _, c := range q.table.Stored() {
		if v, ok := c.UpdateDefaultValue(); ok && !seen[c] {
			cs, vs, err := columnArgs(c, v)
			if err != nil {
				return err
			}
			cols, args = append(cols, cs...), append(args, vs...)
		}
	}
	b.WriteString("UPDATE ").Ident(q.table.SQLName).WriteString(" SET ")
	for i := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.Ident(cols[i]).WriteString(" = ").Arg(args[i])
	}
	return nil
}

// renderKeys writes the select of the root primary keys matched by the
// query. With page set, the keys are ordered and paginated; a to-many join
// then groups the rows by root key and orders by the smallest (or largest,
// when descending) value of the joined columns.
func (q *Query) renderKeys(b *sql.Builder, r *sqlgraph.Resolver, tree *sqlgraph.JoinTree, order []*sql.OrderExpr, page bool) {
	pk := r.Root().PrimaryKey()
	b.WriteString("SELECT ").Join(pk).WriteString(" FROM ").Ident(q.table.SQLName)
	tree.Render(b, q.withDeleted)
	q.renderWhere(b, q.predicates())
	if !page {
		return
	}
	grouped := tree.FansOut()
	if grouped {
		b.WriteString(" GROUP BY ").Join(pk)
	}
	q.renderOrder(b, order, grouped)
	q.renderLimit(b)
}

// keysIn returns the predicate matching the root primary keys selected by
// the given subquery. The subquery is wrapped in a derived table, as MySQL
// rejects LIMIT in IN subqueries and subqueries reading the updated table.
func (q *Query) keysIn(r *sqlgraph.Resolver, alias string, keys func(*sql.Builder)) sql.Expr {
	root := r.Root()
	return rendered(func(b *sql.Builder) {
		b.Join(root.PrimaryKey()).WriteString(" IN ").Wrap(func(b *sql.Builder) {
			b.WriteString("SELECT ").Ident(q.table.PrimaryKey().SQLName).WriteString(" FROM ").Wrap(keys).WriteString(" AS ").Ident(alias)
		})
	})
}

func (q *Query) renderWhere(b *sql.Builder, where []sql.Expr) {
	if len(where) > 0 {
		b.WriteString(" WHERE ").Join(sql.And(where...))
	}
}

func (q *Query) renderOrder(b *sql.Builder, order []*sql.OrderExpr, aggregate bool) {
	b.WriteString(" ORDER BY ")
	for i, o := range order {
		if i > 0 {
			b.WriteString(", ")
		}
		if aggregate && len(sql.Paths(o)) > 0 {
			fn := "MIN"
			if o.Desc {
				fn = "MAX"
			}
			b.Join(&sql.OrderExpr{X: sql.Func(fn, o.X), Desc: o.Desc})
			continue
		}
		b.Join(o)
	}
}

func (q *Query) renderLimit(b *sql.Builder) {
	switch {
	case q.limit != nil:
		b.WriteString(" LIMIT ").WriteString(strconv.Itoa(*q.limit))
	case q.offset == nil:
		return
	case q.dialect == dialect.MySQL:
		b.WriteString(" LIMIT 18446744073709551615")
	case q.dialect == dialect.SQLite:
		b.WriteString(" LIMIT -1")
	}
	if q.offset != nil {
		b.WriteString(" OFFSET ").WriteString(strconv.Itoa(*q.offset))
	}
}

// predicates returns the user predicates and the soft-delete filter of the
// root table.
func (q *Query) predicates() []sql.Expr {
	ps := append([]sql.Expr(nil), q.preds...)
	if q.table.SoftDelete() && !q.withDeleted {
		ps = append(ps, sql.IsNull(sql.C(q.table.DeletedAt().Name)))
	}
	return ps
}

func (q *Query) paginated() bool {
	return q.limit != nil || q.offset != nil
}

func (q *Query) orderTerms() ([]*sql.OrderExpr, error) {
	if len(q.order) > 0 {
		return q.order, nil
	}
	terms := q.table.DefaultOrder()
	order := make([]*sql.OrderExpr, 0, len(terms))
	for _, t := range terms {
		o, err := sql.ParseOrder(t)
		if err != nil {
			return nil, err
		}
		order = append(order, o)
	}
	return order, nil
}

// rendered adapts a render function to sql.Expr.
type rendered func(*sql.Builder)

func (f rendered) Render(b *sql.Builder) { f(b) }
