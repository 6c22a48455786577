package orm

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/syssam/relic"
	"github.com/syssam/relic/dialect"
	"github.com/syssam/relic/dialect/sql"
	"github.com/syssam/relic/dialect/sql/sqlgraph"
	"github.com/syssam/relic/schema"
)

// Create inserts a row into the named table and returns its record.
// Values are keyed by field name; to-one relationships take the related
// key or record, generic references a relic.GenericRef. Missing values
// take their declared defaults.
//
// On a versioned table the row becomes the current version of its series:
// it gets the next version number and the previous current row is
// soft-deleted, in one transaction.
func (c *Client) Create(ctx context.Context, table string, values map[string]any) (*relic.Record, error) {
	t, err := c.Table(table)
	if err != nil {
		return nil, err
	}
	vals, err := createValues(t, values)
	if err != nil {
		return nil, err
	}
	if err := c.authorizeCreate(ctx, t, vals); err != nil {
		return nil, err
	}
	if t.Versioned() {
		return c.createVersion(ctx, t, vals)
	}
	return c.insert(ctx, t, vals)
}

// Save writes the given changes of a record and returns the record holding
// the new state. The given record is left unchanged.
//
// On a versioned table a new version is inserted and the given record is
// superseded. Changing the primary key, a versioning key or an immutable
// field fails with an ImmutableFieldError. Changes equal to the current
// values are ignored; without any other change the record is returned as is.
func (c *Client) Save(ctx context.Context, r *relic.Record, changes map[string]any) (*relic.Record, error) {
	t := r.Table()
	current := r.Values()
	changed := make(map[string]any, len(changes))
	for name, v := range changes {
		col, err := column(t, name)
		if err != nil {
			return nil, err
		}
		nv, err := normalize(col, v)
		if err != nil {
			return nil, err
		}
		if sameValue(current[col.Name], nv) {
			continue
		}
		if immutable(t, col) {
			return nil, relic.NewImmutableFieldError(t.Name, col.Name)
		}
		changed[col.Name] = nv
	}
	if len(changed) == 0 {
		return r, nil
	}
	for _, col := range t.Stored() {
		if _, ok := changed[col.Name]; ok {
			continue
		}
		if v, ok := col.UpdateDefaultValue(); ok {
			nv, err := normalize(col, v)
			if err != nil {
				return nil, err
			}
			changed[col.Name] = nv
		}
	}
	merged := make(map[string]any, len(current))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range changed {
		merged[k] = v
	}
	q := c.query(t).Where(sql.C(t.PrimaryKey().Name).EQ(r.ID()))
	filtered, err := c.authorizeWrite(ctx, relic.OpUpdateOne, merged, q)
	if err != nil {
		return nil, err
	}
	if t.Versioned() {
		if filtered {
			ok, err := q.Exist(system(ctx))
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, relic.NewNotFoundErrorWithID(t.Label(), r.ID())
			}
		}
		return c.saveVersion(ctx, r, current, changed)
	}
	for name, v := range changed {
		col, _ := t.Column(name)
		q.sets = append(q.sets, assignment{column: col, value: v})
	}
	n, err := q.update(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, relic.NewNotFoundErrorWithID(t.Label(), r.ID())
	}
	next := relic.NewRecord(t)
	for k, v := range merged {
		next.Set(k, v)
	}
	c.attach(next)
	return next, nil
}

// DeleteOne deletes the row of the record. Rows of soft-delete tables are
// marked deleted.
func (c *Client) DeleteOne(ctx context.Context, r *relic.Record) error {
	t := r.Table()
	q := c.query(t).Where(sql.C(t.PrimaryKey().Name).EQ(r.ID()))
	if _, err := c.authorizeWrite(ctx, relic.OpDeleteOne, r.Values(), q); err != nil {
		return err
	}
	n, err := q.delete(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return relic.NewNotFoundErrorWithID(t.Label(), r.ID())
	}
	return nil
}

// Upsert updates the row matching the values of the conflict fields, or
// creates it when none matches. Matching is done with a select, so no
// unique constraint is needed on the conflict fields.
func (c *Client) Upsert(ctx context.Context, table string, conflict []string, values map[string]any) (*relic.Record, error) {
	t, err := c.Table(table)
	if err != nil {
		return nil, err
	}
	if len(conflict) == 0 {
		return nil, fmt.Errorf("orm: upsert of %s without conflict fields", t.Name)
	}
	var out *relic.Record
	err = c.inTx(ctx, func(c *Client) error {
		preds := make([]sql.Expr, 0, len(conflict))
		for _, name := range conflict {
			v, ok := values[name]
			if !ok {
				return fmt.Errorf("orm: upsert of %s: missing value of conflict field %q", t.Name, name)
			}
			p, err := match(t, name, v)
			if err != nil {
				return err
			}
			preds = append(preds, p)
		}
		r, err := c.query(t).Where(preds...).Only(ctx)
		switch {
		case relic.IsNotFound(err):
			out, err = c.Create(ctx, t.Name, values)
			return err
		case err != nil:
			return err
		}
		changes := make(map[string]any, len(values))
		for name, v := range values {
			changes[name] = v
		}
		for _, name := range conflict {
			delete(changes, name)
		}
		out, err = c.Save(ctx, r, changes)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// History returns every row of the versioned series identified by the
// given key values, superseded ones included, in version order.
func (c *Client) History(ctx context.Context, table string, keys map[string]any) ([]*relic.Record, error) {
	t, err := c.Table(table)
	if err != nil {
		return nil, err
	}
	if !t.Versioned() {
		return nil, fmt.Errorf("orm: %s is not versioned", t.Name)
	}
	preds, err := seriesOf(t, keys)
	if err != nil {
		return nil, err
	}
	return c.query(t).
		Where(preds...).
		IncludeDeleted().
		OrderBy(sql.Asc(sql.C(t.Version().Name)), sql.Asc(sql.C(t.PrimaryKey().Name))).
		All(ctx)
}

// createVersion inserts vals as the current version of its series.
func (c *Client) createVersion(ctx context.Context, t *schema.Table, vals map[string]any) (*relic.Record, error) {
	preds, err := seriesOf(t, vals)
	if err != nil {
		return nil, err
	}
	var out *relic.Record
	err = c.inTx(ctx, func(c *Client) error {
		latest, err := c.maxVersion(ctx, t, preds)
		if err != nil {
			return err
		}
		vals[t.Version().Name] = int(latest + 1)
		r, err := c.insert(ctx, t, vals)
		if err != nil {
			return err
		}
		// The new row exists before the previous one is superseded.
		n, err := c.query(t).Where(append(preds, sql.C(t.PrimaryKey().Name).NEQ(r.ID()))...).delete(ctx)
		if err != nil {
			return err
		}
		c.log.InfoContext(ctx, "new version", "table", t.SQLName, "id", r.ID(), "version", latest+1, "superseded", n)
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) saveVersion(ctx context.Context, r *relic.Record, current, changed map[string]any) (*relic.Record, error) {
	t := r.Table()
	if deleted := current[t.DeletedAt().Name]; deleted != nil {
		return nil, fmt.Errorf("orm: %s is superseded or deleted", r)
	}
	vals := make(map[string]any, len(current))
	for k, v := range current {
		vals[k] = v
	}
	for k, v := range changed {
		vals[k] = v
	}
	pk := t.PrimaryKey()
	delete(vals, pk.Name)
	if v, ok := pk.DefaultValue(); ok {
		vals[pk.Name] = v
	}
	delete(vals, t.DeletedAt().Name)
	return c.createVersion(ctx, t, vals)
}

// maxVersion returns the highest version of the series, deleted rows
// included, or zero for a new series.
func (c *Client) maxVersion(ctx context.Context, t *schema.Table, series []sql.Expr) (int64, error) {
	b := sql.Dialect(c.driver.Dialect()).WithScope(sqlgraph.NewResolver(t))
	b.WriteString("SELECT MAX(").Join(sql.C(t.Version().Name)).WriteString(") FROM ").Ident(t.SQLName)
	if len(series) > 0 {
		b.WriteString(" WHERE ").Join(sql.And(series...))
	}
	if err := b.Err(); err != nil {
		return 0, err
	}
	query, args := b.Query()
	return c.count(ctx, t, "version", query, args)
}

// insert writes one row and returns its record.
func (c *Client) insert(ctx context.Context, t *schema.Table, vals map[string]any) (*relic.Record, error) {
	var (
		cols []string
		args []any
		pk   = t.PrimaryKey()
	)
	for _, col := range t.Stored() {
		v, ok := vals[col.Name]
		if !ok {
			continue
		}
		cs, vs, err := columnArgs(col, v)
		if err != nil {
			return nil, err
		}
		cols, args = append(cols, cs...), append(args, vs...)
	}
	d := c.driver.Dialect()
	b := sql.Dialect(d)
	b.WriteString("INSERT INTO ").Ident(t.SQLName)
	switch {
	case len(cols) > 0:
		b.WriteString(" (").IdentComma(cols...).WriteString(") VALUES ").Wrap(func(b *sql.Builder) {
			for i, a := range args {
				if i > 0 {
					b.WriteString(", ")
				}
				b.Arg(a)
			}
		})
	case d == dialect.MySQL:
		b.WriteString(" () VALUES ()")
	default:
		b.WriteString(" DEFAULT VALUES")
	}
	id, hasID := vals[pk.Name]
	if !hasID && d != dialect.MySQL {
		b.WriteString(" RETURNING ").Ident(pk.SQLName)
	}
	query, _ := b.Query()
	switch {
	case hasID:
		if _, err := c.exec(ctx, t, "create", query, args); err != nil {
			return nil, err
		}
	case d == dialect.MySQL:
		res, err := c.execResult(ctx, t, "create", query, args)
		if err != nil {
			return nil, err
		}
		last, err := res.LastInsertId()
		if err != nil {
			return nil, relic.NewMutationError(t.Label(), "create", err)
		}
		id = last
	default:
		rows, err := c.rows(ctx, t, "create", query, args)
		if err != nil {
			return nil, relic.NewMutationError(t.Label(), "create", sqlgraph.WrapError(errors.Unwrap(err)))
		}
		c.invalidate(ctx, t)
		if len(rows) != 1 || len(rows[0]) != 1 {
			return nil, relic.NewMutationError(t.Label(), "create", errors.New("insert returned no primary key"))
		}
		id = rows[0][0]
	}
	id, err := pk.Parse(id)
	if err != nil {
		return nil, relic.NewMutationError(t.Label(), "create", err)
	}
	r := relic.NewRecord(t)
	for k, v := range vals {
		r.Set(k, v)
	}
	r.Set(pk.Name, id)
	c.attach(r)
	return r, nil
}

// execResult is like exec but returns the driver result.
func (c *Client) execResult(ctx context.Context, t *schema.Table, op, query string, args []any) (sql.Result, error) {
	c.log.DebugContext(ctx, "exec", "table", t.SQLName, "op", op, "sql", query, "args", args)
	var res sql.Result
	if err := c.driver.Exec(ctx, query, args, &res); err != nil {
		return nil, relic.NewMutationError(t.Label(), op, sqlgraph.WrapError(err))
	}
	c.invalidate(ctx, t)
	return res, nil
}

// attach gives the record lazy slots for all its relationships.
func (c *Client) attach(r *relic.Record) {
	l := c.loader()
	for _, e := range r.Table().Edges() {
		r.Defer(e, l)
	}
}

// createValues validates and completes the values of a new row.
func createValues(t *schema.Table, values map[string]any) (map[string]any, error) {
	vals := make(map[string]any, len(t.Columns()))
	for name, v := range values {
		col, err := column(t, name)
		if err != nil {
			return nil, err
		}
		if col == t.Version() {
			return nil, relic.NewImmutableFieldError(t.Name, col.Name)
		}
		nv, err := normalize(col, v)
		if err != nil {
			return nil, err
		}
		vals[col.Name] = nv
	}
	for _, col := range t.Stored() {
		if _, ok := vals[col.Name]; ok || col == t.Version() {
			continue
		}
		if v, ok := col.DefaultValue(); ok {
			nv, err := normalize(col, v)
			if err != nil {
				return nil, err
			}
			vals[col.Name] = nv
			continue
		}
		if col.Required() {
			return nil, relic.NewValidationError(col.Name, errors.New("missing required value"))
		}
	}
	return vals, nil
}

// column returns the stored column of a field or to-one relationship.
func column(t *schema.Table, name string) (*schema.Column, error) {
	c, ok := t.Column(name)
	if !ok || len(c.SQLColumns()) == 0 {
		return nil, relic.NewUnknownColumnError(t.Name, name)
	}
	return c, nil
}

// writable returns the column of name if rows may change its value.
func writable(t *schema.Table, name string) (*schema.Column, error) {
	c, err := column(t, name)
	if err != nil {
		return nil, err
	}
	if immutable(t, c) {
		return nil, relic.NewImmutableFieldError(t.Name, c.Name)
	}
	return c, nil
}

func immutable(t *schema.Table, c *schema.Column) bool {
	if c == t.PrimaryKey() || c == t.Version() || c.Immutable {
		return true
	}
	for _, k := range t.VersionKeys() {
		if k == c {
			return true
		}
	}
	return false
}

// normalize converts an input value to the value a read of the column
// returns.
func normalize(c *schema.Column, v any) (any, error) {
	v = keyOf(v)
	if c.Generic {
		switch ref := v.(type) {
		case nil:
			return relic.GenericRef{}, nil
		case relic.GenericRef:
			return ref, nil
		case *relic.GenericRef:
			return *ref, nil
		}
		return nil, relic.NewValidationError(c.Name, fmt.Errorf("expect relic.GenericRef, got %T", v))
	}
	arg, err := c.Serialize(v)
	if err != nil {
		return nil, relic.NewValidationError(c.Name, err)
	}
	nv, err := c.Parse(arg)
	if err != nil {
		return nil, relic.NewValidationError(c.Name, err)
	}
	return nv, nil
}

// columnArgs returns the SQL columns of c and their statement arguments.
func columnArgs(c *schema.Column, v any) ([]string, []any, error) {
	v = keyOf(v)
	if c.Generic {
		ref, err := normalize(c, v)
		if err != nil {
			return nil, nil, err
		}
		gr := ref.(relic.GenericRef)
		if gr.IsZero() {
			return c.SQLColumns(), []any{nil, nil}, nil
		}
		return c.SQLColumns(), []any{gr.Table, gr.ID}, nil
	}
	arg, err := c.Serialize(v)
	if err != nil {
		return nil, nil, relic.NewValidationError(c.Name, err)
	}
	return c.SQLColumns(), []any{arg}, nil
}

// match returns the predicate comparing the column of name with v.
func match(t *schema.Table, name string, v any) (sql.Expr, error) {
	c, err := column(t, name)
	if err != nil {
		return nil, err
	}
	cols, args, err := columnArgs(c, v)
	if err != nil {
		return nil, err
	}
	if c.Generic {
		if args[0] == nil {
			return sql.IsNull(sql.C(c.Name)), nil
		}
		return sql.And(sql.C(cols[0]).EQ(args[0]), sql.C(c.Name).EQ(args[1])), nil
	}
	if args[0] == nil {
		return sql.IsNull(sql.C(c.Name)), nil
	}
	return sql.C(c.Name).EQ(args[0]), nil
}

// seriesOf returns the predicates selecting the versioned series of the
// given values.
func seriesOf(t *schema.Table, vals map[string]any) ([]sql.Expr, error) {
	preds := make([]sql.Expr, 0, len(t.VersionKeys()))
	for _, k := range t.VersionKeys() {
		p, err := match(t, k.Name, vals[k.Name])
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}

// keyOf returns the primary key of related records, and v otherwise.
func keyOf(v any) any {
	if r, ok := v.(*relic.Record); ok {
		if r == nil {
			return nil
		}
		return r.ID()
	}
	return v
}

func sameValue(a, b any) bool {
	if ra, ok := a.(relic.GenericRef); ok && ra.IsZero() {
		a = nil
	}
	if rb, ok := b.(relic.GenericRef); ok && rb.IsZero() {
		b = nil
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}
