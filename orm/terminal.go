package orm

import (
	"context"
	"errors"

	"github.com/syssam/relic"
	"github.com/syssam/relic/dialect/sql/sqlgraph"
)

var errUnbound = errors.New("orm: query is not bound to a client")

func (q *Query) bound() error {
	switch {
	case q.err != nil:
		return q.err
	case q.client == nil:
		return errUnbound
	}
	return nil
}

// All executes the query and returns the matching root records, with the
// preloaded relationships attached.
func (q *Query) All(ctx context.Context) ([]*relic.Record, error) {
	return q.all(ctx, "all")
}

func (q *Query) all(ctx context.Context, op string) ([]*relic.Record, error) {
	if err := q.bound(); err != nil {
		return nil, err
	}
	q, err := q.authorize(ctx)
	if err != nil {
		return nil, err
	}
	st, err := q.Compile(ModeSelect)
	if err != nil {
		return nil, err
	}
	rows, err := q.client.cachedRows(ctx, st, op)
	if err != nil {
		return nil, err
	}
	return sqlgraph.Hydrate(rows, st.Plan, q.client.loader())
}

// First returns the first record of the query, or a NotFoundError.
func (q *Query) First(ctx context.Context) (*relic.Record, error) {
	rs, err := q.Clone().Limit(1).all(ctx, "first")
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, relic.NewNotFoundError(q.table.Label())
	}
	return rs[0], nil
}

// Only returns the single record of the query. It fails with a
// NotFoundError when nothing matches and a NotSingularError when more than
// one record does.
func (q *Query) Only(ctx context.Context) (*relic.Record, error) {
	rs, err := q.Clone().Limit(2).all(ctx, "only")
	if err != nil {
		return nil, err
	}
	switch len(rs) {
	case 1:
		return rs[0], nil
	case 0:
		return nil, relic.NewNotFoundError(q.table.Label())
	default:
		return nil, relic.NewNotSingularError(q.table.Label())
	}
}

// IDs returns the primary keys of the matching root records.
func (q *Query) IDs(ctx context.Context) ([]any, error) {
	c := q.Clone()
	c.preloads = nil
	rs, err := c.all(ctx, "ids")
	if err != nil {
		return nil, err
	}
	ids := make([]any, len(rs))
	for i, r := range rs {
		ids[i] = r.ID()
	}
	return ids, nil
}

// Count returns the number of matching root records.
func (q *Query) Count(ctx context.Context) (int, error) {
	if err := q.bound(); err != nil {
		return 0, err
	}
	q, err := q.authorize(ctx)
	if err != nil {
		return 0, err
	}
	st, err := q.Compile(ModeCount)
	if err != nil {
		return 0, err
	}
	n, err := q.client.count(ctx, q.table, "count", st.SQL, st.Args)
	return int(n), err
}

// Exist reports whether any record matches the query.
func (q *Query) Exist(ctx context.Context) (bool, error) {
	n, err := q.Clone().Limit(1).Count(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Update applies the assignments given with Set to the matching rows and
// returns their number. On a versioned table, every matched current row
// gets a new version instead.
func (q *Query) Update(ctx context.Context) (int, error) {
	if err := q.bound(); err != nil {
		return 0, err
	}
	// Predicates added by policies do not scope the write.
	if err := q.scoped(ModeUpdate); err != nil {
		return 0, err
	}
	w := q.Clone()
	if _, err := q.client.authorizeWrite(ctx, relic.OpUpdate, q.assigned(), w); err != nil {
		return 0, err
	}
	return w.update(ctx)
}

func (q *Query) update(ctx context.Context) (int, error) {
	if q.table.Versioned() {
		return q.updateVersions(system(ctx))
	}
	st, err := q.Compile(ModeUpdate)
	if err != nil {
		return 0, err
	}
	n, err := q.client.exec(ctx, q.table, "update", st.SQL, st.Args)
	return int(n), err
}

// Delete deletes the matching rows and returns their number. Rows of
// soft-delete tables are marked deleted.
func (q *Query) Delete(ctx context.Context) (int, error) {
	if err := q.bound(); err != nil {
		return 0, err
	}
	if err := q.scoped(ModeDelete); err != nil {
		return 0, err
	}
	w := q.Clone()
	if _, err := q.client.authorizeWrite(ctx, relic.OpDelete, nil, w); err != nil {
		return 0, err
	}
	return w.delete(ctx)
}

func (q *Query) delete(ctx context.Context) (int, error) {
	st, err := q.Compile(ModeDelete)
	if err != nil {
		return 0, err
	}
	n, err := q.client.exec(ctx, q.table, "delete", st.SQL, st.Args)
	return int(n), err
}

// assigned returns the assignments of the query by field name.
func (q *Query) assigned() map[string]any {
	m := make(map[string]any, len(q.sets))
	for _, s := range q.sets {
		m[s.column.Name] = s.value
	}
	return m
}

func (q *Query) updateVersions(ctx context.Context) (int, error) {
	if err := q.scoped(ModeUpdate); err != nil {
		return 0, err
	}
	if len(q.sets) == 0 {
		return 0, errors.New("orm: update without values")
	}
	changes := q.assigned()
	var n int
	err := q.client.inTx(ctx, func(c *Client) error {
		match := q.Clone()
		match.client, match.preloads, match.sets = c, nil, nil
		rs, err := match.All(ctx)
		if err != nil {
			return err
		}
		for _, r := range rs {
			next, err := c.Save(ctx, r, changes)
			if err != nil {
				return err
			}
			if next != r {
				n++
			}
		}
		return nil
	})
	return n, err
}
