package orm

import (
	"context"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/relic"
	"github.com/syssam/relic/schema"
)

// cachedRows is like rows but serves the result from the client cache when
// possible. Only statements reading a single table are cached, so a write
// to that table is enough to invalidate them. Reads inside a transaction
// always reach the database.
func (c *Client) cachedRows(ctx context.Context, st *Statement, op string) ([][]any, error) {
	if _, tx := c.driver.(*txDriver); c.cache == nil || tx || !st.single {
		return c.rows(ctx, st.Table, op, st.SQL, st.Args)
	}
	key := relic.CacheKey{Table: st.Table.SQLName, Operation: op, SQL: st.SQL, Args: st.Args}.String()
	if b, err := c.cache.Get(ctx, key); err != nil {
		c.log.WarnContext(ctx, "cache get", "key", key, "error", err)
	} else if b != nil {
		var rows [][]any
		if err := msgpack.Unmarshal(b, &rows); err == nil {
			c.log.DebugContext(ctx, "cache hit", "table", st.Table.SQLName, "op", op)
			return rows, nil
		}
	}
	rows, err := c.rows(ctx, st.Table, op, st.SQL, st.Args)
	if err != nil {
		return nil, err
	}
	b, err := msgpack.Marshal(rows)
	if err != nil {
		c.log.WarnContext(ctx, "cache encode", "table", st.Table.SQLName, "error", err)
		return rows, nil
	}
	if err := c.cache.Set(ctx, key, b, c.cacheTTL); err != nil {
		c.log.WarnContext(ctx, "cache set", "key", key, "error", err)
	}
	return rows, nil
}

// invalidate drops the cached results of the table. Inside a transaction
// the table is recorded, and dropped again once the transaction commits.
func (c *Client) invalidate(ctx context.Context, t *schema.Table) {
	if c.cache == nil {
		return
	}
	if tx, ok := c.driver.(*txDriver); ok {
		tx.wrote(t)
	}
	if err := c.cache.DeletePrefix(ctx, relic.CacheKey{Table: t.SQLName}.Prefix()); err != nil {
		c.log.WarnContext(ctx, "cache invalidate", "table", t.SQLName, "error", err)
	}
}
