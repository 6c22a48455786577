package orm

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/relic"
	"github.com/syssam/relic/contrib/dataloader"
	"github.com/syssam/relic/dialect/sql"
	"github.com/syssam/relic/schema"
)

// loader fetches relationships that were not preloaded, one slot at a time.
type loader struct {
	c *Client
}

func (c *Client) loader() relic.Loader {
	if c.lazy != nil {
		return loader{c: c.lazy}
	}
	return loader{c: c}
}

// LoadOne implements relic.Loader.
func (l loader) LoadOne(ctx context.Context, owner *relic.Record, e *schema.Column, key any) (*relic.Record, error) {
	l.c.log.DebugContext(ctx, "lazy load", "table", owner.Table().SQLName, "edge", e.Name, "key", key)
	q := l.c.query(e.Target)
	if e.KeyedOnTarget() {
		q.Where(sql.C(e.Ref.Name).EQ(key))
	} else {
		q.Where(sql.C(e.Target.PrimaryKey().Name).EQ(key))
	}
	return orNil(q.First(ctx))
}

// LoadMany implements relic.Loader.
func (l loader) LoadMany(ctx context.Context, owner *relic.Record, e *schema.Column) ([]*relic.Record, error) {
	l.c.log.DebugContext(ctx, "lazy load", "table", owner.Table().SQLName, "edge", e.Name, "key", owner.ID())
	return l.c.query(e.Target).Where(sql.C(e.Ref.Name).EQ(owner.ID())).All(ctx)
}

// LoadGeneric implements relic.Loader.
func (l loader) LoadGeneric(ctx context.Context, owner *relic.Record, e *schema.Column, ref relic.GenericRef) (*relic.Record, error) {
	l.c.log.DebugContext(ctx, "lazy load", "table", owner.Table().SQLName, "edge", e.Name, "ref", ref.Table, "key", ref.ID)
	t, err := l.c.Table(ref.Table)
	if err != nil {
		return nil, err
	}
	return orNil(l.c.query(t).Where(sql.C(t.PrimaryKey().Name).EQ(ref.ID)).First(ctx))
}

// orNil maps a missing related row to a nil record.
func orNil(r *relic.Record, err error) (*relic.Record, error) {
	if relic.IsNotFound(err) {
		return nil, nil
	}
	return r, err
}

// LoadEdges loads the named relationships of a batch of records of one
// table, with one query per relationship (one per referenced table for
// generic references). Relationships are fetched concurrently, each
// filling its own slots; inside a transaction they are fetched one after
// the other.
//
//	books, err := client.Query("Book").Limit(20).All(ctx)
//	if err != nil {
//		return err
//	}
//	if err := client.LoadEdges(ctx, books, "author", "reviews"); err != nil {
//		return err
//	}
func (c *Client) LoadEdges(ctx context.Context, records []*relic.Record, edges ...string) error {
	if len(records) == 0 || len(edges) == 0 {
		return nil
	}
	t := records[0].Table()
	cols := make([]*schema.Column, len(edges))
	for i, name := range edges {
		e, ok := t.Column(name)
		if !ok || !e.IsEdge() {
			return relic.NewUnknownColumnError(t.Name, name)
		}
		cols[i] = e
	}
	// Slots are created up front; the goroutines below only fill them.
	l := c.loader()
	for _, r := range records {
		if r.Table() != t {
			return fmt.Errorf("orm: loading edges of %s: %s is not a %s", t.Name, r, t.Name)
		}
		for _, e := range cols {
			r.Defer(e, l)
		}
	}
	g, ctx := errgroup.WithContext(ctx)
	if _, ok := c.driver.(*txDriver); ok {
		g.SetLimit(1)
	}
	for _, e := range cols {
		g.Go(func() error {
			return c.loadEdge(ctx, records, e)
		})
	}
	return g.Wait()
}

func (c *Client) loadEdge(ctx context.Context, records []*relic.Record, e *schema.Column) error {
	c.log.DebugContext(ctx, "batch load", "table", e.Table().SQLName, "edge", e.Name, "records", len(records))
	switch {
	case e.Generic:
		return c.loadGenerics(ctx, records, e)
	case e.KeyedOnTarget():
		return c.loadInverse(ctx, records, e)
	}
	owners := make([]any, len(records))
	for i, r := range records {
		owners[i] = batchKey(r.Value(e.Name))
	}
	keys := dataloader.Keys(owners, func(k any) any { return k })
	var related []*relic.Record
	if len(keys) > 0 {
		rs, err := c.query(e.Target).Where(sql.C(e.Target.PrimaryKey().Name).In(keys...)).All(ctx)
		if err != nil {
			return err
		}
		related = rs
	}
	ordered := dataloader.OrderByKeysNoError(owners, related, recordKey)
	for i, r := range records {
		r.One(e.Name).Set(ordered[i])
	}
	return nil
}

// loadInverse loads relationships whose foreign key lives on the target.
func (c *Client) loadInverse(ctx context.Context, records []*relic.Record, e *schema.Column) error {
	owners := make([]any, len(records))
	for i, r := range records {
		owners[i] = batchKey(r.ID())
	}
	keys := dataloader.Keys(owners, func(k any) any { return k })
	rs, err := c.query(e.Target).Where(sql.C(e.Ref.Name).In(keys...)).All(ctx)
	if err != nil {
		return err
	}
	groups := dataloader.OrderGroupsByKeys(owners, dataloader.GroupByKey(rs, func(r *relic.Record) any {
		return batchKey(r.Value(e.Ref.Name))
	}))
	for i, r := range records {
		if e.Cardinality == schema.ToMany {
			r.Many(e.Name).Set(groups[i])
			continue
		}
		var one *relic.Record
		if len(groups[i]) > 0 {
			one = groups[i][0]
		}
		r.One(e.Name).Set(one)
	}
	return nil
}

// loadGenerics loads a generic reference with one query per referenced table.
func (c *Client) loadGenerics(ctx context.Context, records []*relic.Record, e *schema.Column) error {
	refs := make([]relic.GenericRef, len(records))
	for i, r := range records {
		refs[i], _ = r.Ref(e.Name)
	}
	byTable := dataloader.GroupByKey(refs, func(ref relic.GenericRef) string { return ref.Table })
	found := make(map[relic.GenericRef]*relic.Record)
	for name, group := range byTable {
		if name == "" {
			continue
		}
		t, err := c.Table(name)
		if err != nil {
			return err
		}
		keys := dataloader.Keys(group, func(ref relic.GenericRef) any { return batchKey(ref.ID) })
		rs, err := c.query(t).Where(sql.C(t.PrimaryKey().Name).In(keys...)).All(ctx)
		if err != nil {
			return err
		}
		for _, r := range rs {
			found[relic.GenericRef{Table: name, ID: recordKey(r)}] = r
		}
	}
	for i, r := range records {
		var one *relic.Record
		if !refs[i].IsZero() {
			one = found[relic.GenericRef{Table: refs[i].Table, ID: batchKey(refs[i].ID)}]
		}
		r.One(e.Name).Set(one)
	}
	return nil
}

func recordKey(r *relic.Record) any { return batchKey(r.ID()) }

// batchKey returns a comparable form of a key value.
func batchKey(v any) any {
	switch v := v.(type) {
	case []byte:
		return string(v)
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case fmt.Stringer:
		return v.String()
	}
	return v
}
