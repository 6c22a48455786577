package orm

import (
	"context"

	"github.com/syssam/relic"
	"github.com/syssam/relic/dialect/sql"
	"github.com/syssam/relic/privacy"
	"github.com/syssam/relic/schema"
)

// WithPolicy attaches privacy policies to the named table. Policies are
// evaluated in order, see privacy.Policies. Query policies apply to the
// root table of queries, to lazy loads and to LoadEdges; relationships
// preloaded by a query are not evaluated against the policies of their
// tables.
func WithPolicy(table string, policies ...relic.Policy) Option {
	return func(c *config) {
		if c.policies == nil {
			c.policies = make(map[string]privacy.Policies)
		}
		c.policies[table] = append(c.policies[table], policies...)
	}
}

// policy returns the policies of the table, if any.
func (c *Client) policy(t *schema.Table) privacy.Policies {
	if p, ok := c.policies[t.Name]; ok {
		return p
	}
	return c.policies[t.SQLName]
}

// WhereP implements privacy.Filter.
func (q *Query) WhereP(ps ...sql.Expr) { q.Where(ps...) }

// authorize evaluates the query policies of the root table on a copy of
// the query, and returns the copy.
func (q *Query) authorize(ctx context.Context) (*Query, error) {
	p := q.client.policy(q.table)
	if len(p) == 0 {
		return q, nil
	}
	c := q.Clone()
	if err := p.EvalQuery(ctx, c); err != nil {
		return nil, err
	}
	return c, c.err
}

// mutation is the view of a pending write given to policies.
type mutation struct {
	table  *schema.Table
	op     relic.Op
	values map[string]any
}

// filterMutation is an update or delete. Its query selects the written rows
// and receives the predicates of filter rules.
type filterMutation struct {
	mutation
	query *Query
	preds int
}

var (
	_ relic.Mutation = (*mutation)(nil)
	_ privacy.Filter = (*filterMutation)(nil)
	_ privacy.Filter = (*Query)(nil)
)

func (m *mutation) Table() *schema.Table { return m.table }
func (m *mutation) Op() relic.Op         { return m.op }

func (m *mutation) Field(name string) (any, bool) {
	c, ok := m.table.Column(name)
	if !ok {
		return nil, false
	}
	v, ok := m.values[c.Name]
	return v, ok
}

// WhereP implements privacy.Filter.
func (m *filterMutation) WhereP(ps ...sql.Expr) { m.query.Where(ps...) }

// authorizeCreate evaluates the mutation policies of t on a new row.
func (c *Client) authorizeCreate(ctx context.Context, t *schema.Table, values map[string]any) error {
	p := c.policy(t)
	if len(p) == 0 {
		return nil
	}
	return p.EvalMutation(ctx, &mutation{table: t, op: relic.OpCreate, values: values})
}

// authorizeWrite evaluates the mutation policies of the root table of q on
// an update or delete of the rows q selects. It reports whether filter
// rules narrowed q.
func (c *Client) authorizeWrite(ctx context.Context, op relic.Op, values map[string]any, q *Query) (bool, error) {
	p := c.policy(q.table)
	if len(p) == 0 {
		return false, nil
	}
	m := &filterMutation{
		mutation: mutation{table: q.table, op: op, values: values},
		query:    q,
		preds:    len(q.preds),
	}
	if err := p.EvalMutation(ctx, m); err != nil {
		return false, err
	}
	return len(q.preds) > m.preds, q.err
}

// system marks ctx as carrying a write the client already authorized.
func system(ctx context.Context) context.Context {
	return privacy.DecisionContext(ctx, privacy.Allow)
}
