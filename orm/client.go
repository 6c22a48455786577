// Package orm runs queries and writes against registered tables.
//
// A Client binds a schema.Registry to a dialect.Driver:
//
//	drv, err := sql.Open(dialect.SQLite, "file:lib.db?_pragma=foreign_keys(1)")
//	if err != nil {
//		return err
//	}
//	client := orm.NewClient(drv, registry, orm.WithLogger(logger))
//	books, err := client.Query("Book").
//		Where(sql.C("author.name").EQ("Rob")).
//		Preload("reviews").
//		All(ctx)
//
// Relationships that were not preloaded are reached through their lazy
// slots, which fetch through the same client:
//
//	author, err := books[0].One("author").Resolve(ctx)
package orm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/syssam/relic"
	"github.com/syssam/relic/dialect"
	"github.com/syssam/relic/dialect/sql"
	"github.com/syssam/relic/dialect/sql/sqlgraph"
	"github.com/syssam/relic/privacy"
	"github.com/syssam/relic/schema"
)

// Client is the entry point of the package. It is safe for concurrent use.
type Client struct {
	config
}

// config is the configuration shared by a client and the transactions it
// starts.
type config struct {
	driver   dialect.Driver
	registry *schema.Registry
	log      *slog.Logger
	cache    relic.Cache
	cacheTTL time.Duration
	now      func() time.Time
	policies map[string]privacy.Policies
	// lazy is the client resolving the lazy slots of records returned by
	// the transaction a write opened for itself.
	lazy *Client
}

// Option configures a Client.
type Option func(*config)

// WithLogger sets the logger of the client. Compiled statements and lazy
// loads are logged at debug level, versioning transitions at info level.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// WithCache enables caching of select results. Every write through the
// client invalidates the entries of the written table.
func WithCache(cache relic.Cache) Option {
	return func(c *config) {
		c.cache = cache
	}
}

// WithCacheTTL sets the lifetime of cached select results.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *config) {
		c.cacheTTL = ttl
	}
}

// WithClock sets the function returning the timestamps written by soft
// deletes and version transitions.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// NewClient returns a client executing statements through drv.
func NewClient(drv dialect.Driver, registry *schema.Registry, opts ...Option) *Client {
	cfg := config{
		driver:   drv,
		registry: registry,
		log:      slog.New(slog.DiscardHandler),
		cacheTTL: time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Client{config: cfg}
}

// Open opens a database connection and returns a client for it.
func Open(driverName, dataSourceName string, registry *schema.Registry, opts ...Option) (*Client, error) {
	switch driverName {
	case dialect.MySQL, dialect.Postgres, dialect.SQLite:
		drv, err := sql.Open(driverName, dataSourceName)
		if err != nil {
			return nil, err
		}
		return NewClient(drv, registry, opts...), nil
	default:
		return nil, fmt.Errorf("orm: unsupported driver: %q", driverName)
	}
}

// Registry returns the schema registry of the client.
func (c *Client) Registry() *schema.Registry { return c.registry }

// Driver returns the driver of the client.
func (c *Client) Driver() dialect.Driver { return c.driver }

// Close closes the database connection.
func (c *Client) Close() error {
	return c.driver.Close()
}

// Table returns the registered table with the given definition or SQL name.
func (c *Client) Table(name string) (*schema.Table, error) {
	t, ok := c.registry.Table(name)
	if !ok {
		return nil, fmt.Errorf("orm: unknown table %q", name)
	}
	return t, nil
}

// Query returns a query rooted at the named table. An unknown table makes
// every terminal operation of the query fail.
func (c *Client) Query(table string) *Query {
	t, err := c.Table(table)
	if err != nil {
		return &Query{err: err}
	}
	return c.query(t)
}

func (c *Client) query(t *schema.Table) *Query {
	q := NewQuery(t, c.driver.Dialect())
	q.client, q.now = c, c.now
	return q
}

// Tx returns a new transactional client. Writes of the transaction are
// visible to queries of the returned client only.
func (c *Client) Tx(ctx context.Context) (*Tx, error) {
	if _, ok := c.driver.(*txDriver); ok {
		return nil, relic.ErrTxStarted
	}
	tx, err := c.driver.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("orm: starting a transaction: %w", err)
	}
	cfg := c.config
	cfg.driver = &txDriver{tx: tx, drv: c.driver}
	return &Tx{ctx: ctx, Client: &Client{config: cfg}}, nil
}

// WithTx runs fn in a transaction. The transaction is rolled back if fn
// returns an error or panics, and committed otherwise.
func (c *Client) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := c.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = errors.Join(err, &relic.RollbackError{Err: rerr})
		}
		return err
	}
	return tx.Commit()
}

// inTx runs fn in a transaction of its own, or in the transaction the
// client already belongs to.
func (c *Client) inTx(ctx context.Context, fn func(*Client) error) error {
	if _, ok := c.driver.(*txDriver); ok {
		return fn(c)
	}
	return c.WithTx(ctx, func(tx *Tx) error {
		tx.lazy = c
		return fn(tx.Client)
	})
}

// rows runs a read statement and returns its raw rows.
func (c *Client) rows(ctx context.Context, table *schema.Table, op, query string, args []any) ([][]any, error) {
	c.log.DebugContext(ctx, "query", "table", table.SQLName, "op", op, "sql", query, "args", args)
	var rows sql.Rows
	if err := c.driver.Query(ctx, query, args, &rows); err != nil {
		return nil, relic.NewQueryError(table.Label(), op, err)
	}
	values, err := sql.ScanValues(rows)
	if err != nil {
		return nil, relic.NewQueryError(table.Label(), op, err)
	}
	return values, nil
}

// count runs a statement returning a single integer.
func (c *Client) count(ctx context.Context, table *schema.Table, op, query string, args []any) (int64, error) {
	c.log.DebugContext(ctx, "query", "table", table.SQLName, "op", op, "sql", query, "args", args)
	var rows sql.Rows
	if err := c.driver.Query(ctx, query, args, &rows); err != nil {
		return 0, relic.NewQueryError(table.Label(), op, err)
	}
	n, err := sql.ScanInt64(rows)
	if err != nil {
		return 0, relic.NewQueryError(table.Label(), op, err)
	}
	return n, nil
}

// exec runs a write statement and returns the number of affected rows.
func (c *Client) exec(ctx context.Context, table *schema.Table, op, query string, args []any) (int64, error) {
	c.log.DebugContext(ctx, "exec", "table", table.SQLName, "op", op, "sql", query, "args", args)
	var res sql.Result
	if err := c.driver.Exec(ctx, query, args, &res); err != nil {
		return 0, relic.NewMutationError(table.Label(), op, sqlgraph.WrapError(err))
	}
	c.invalidate(ctx, table)
	n, err := res.RowsAffected()
	if err != nil {
		return 0, relic.NewMutationError(table.Label(), op, err)
	}
	return n, nil
}
