package orm

import (
	"context"
	"errors"
	"sync"

	"github.com/syssam/relic/dialect"
	"github.com/syssam/relic/schema"
)

// Tx is a transactional client. Its embedded Client runs every statement
// in the transaction.
type Tx struct {
	*Client
	ctx context.Context
}

// Committer is the interface that wraps the Commit method.
type Committer interface {
	Commit(context.Context, *Tx) error
}

// CommitFunc is an adapter to allow the use of ordinary function as Committer.
type CommitFunc func(context.Context, *Tx) error

// Commit calls f(ctx, tx).
func (f CommitFunc) Commit(ctx context.Context, tx *Tx) error { return f(ctx, tx) }

// CommitHook defines the "commit middleware". A function that gets a Committer
// and returns a Committer. For example:
//
//	hook := func(next orm.Committer) orm.Committer {
//		return orm.CommitFunc(func(ctx context.Context, tx *orm.Tx) error {
//			// Do something before.
//			if err := next.Commit(ctx, tx); err != nil {
//				return err
//			}
//			// Do something after.
//			return nil
//		})
//	}
type CommitHook func(Committer) Committer

// Rollbacker is the interface that wraps the Rollback method.
type Rollbacker interface {
	Rollback(context.Context, *Tx) error
}

// RollbackFunc is an adapter to allow the use of ordinary function as Rollbacker.
type RollbackFunc func(context.Context, *Tx) error

// Rollback calls f(ctx, tx).
func (f RollbackFunc) Rollback(ctx context.Context, tx *Tx) error { return f(ctx, tx) }

// RollbackHook defines the "rollback middleware". A function that gets a Rollbacker
// and returns a Rollbacker.
type RollbackHook func(Rollbacker) Rollbacker

// Commit commits the transaction. Cached results of the tables written by
// the transaction are dropped after a successful commit.
func (tx *Tx) Commit() error {
	txDriver, ok := tx.driver.(*txDriver)
	if !ok {
		return errNotInTx
	}
	var fn Committer = CommitFunc(func(ctx context.Context, tx *Tx) error {
		if err := txDriver.tx.Commit(); err != nil {
			return err
		}
		for _, t := range txDriver.written() {
			tx.invalidate(ctx, t)
		}
		return nil
	})
	txDriver.mu.Lock()
	hooks := append([]CommitHook(nil), txDriver.onCommit...)
	txDriver.mu.Unlock()
	for i := len(hooks) - 1; i >= 0; i-- {
		fn = hooks[i](fn)
	}
	return fn.Commit(tx.ctx, tx)
}

// OnCommit adds a hook to call on commit.
func (tx *Tx) OnCommit(f CommitHook) {
	txDriver := tx.driver.(*txDriver)
	txDriver.mu.Lock()
	txDriver.onCommit = append(txDriver.onCommit, f)
	txDriver.mu.Unlock()
}

// Rollback rolls back the transaction.
func (tx *Tx) Rollback() error {
	txDriver, ok := tx.driver.(*txDriver)
	if !ok {
		return errNotInTx
	}
	var fn Rollbacker = RollbackFunc(func(context.Context, *Tx) error {
		return txDriver.tx.Rollback()
	})
	txDriver.mu.Lock()
	hooks := append([]RollbackHook(nil), txDriver.onRollback...)
	txDriver.mu.Unlock()
	for i := len(hooks) - 1; i >= 0; i-- {
		fn = hooks[i](fn)
	}
	return fn.Rollback(tx.ctx, tx)
}

// OnRollback adds a hook to call on rollback.
func (tx *Tx) OnRollback(f RollbackHook) {
	txDriver := tx.driver.(*txDriver)
	txDriver.mu.Lock()
	txDriver.onRollback = append(txDriver.onRollback, f)
	txDriver.mu.Unlock()
}

// txDriver wraps the given dialect.Tx with a nop dialect.Driver implementation.
// The idea is to support transactions without adding any extra code to the
// query and write paths.
type txDriver struct {
	// the driver we started the transaction from.
	drv dialect.Driver
	// tx is the underlying transaction.
	tx dialect.Tx

	mu         sync.Mutex
	onCommit   []CommitHook
	onRollback []RollbackHook
	tables     []*schema.Table
}

// Tx returns the transaction wrapper (txDriver) to avoid Commit or Rollback
// calls from the inner query and write paths.
func (tx *txDriver) Tx(context.Context) (dialect.Tx, error) { return tx, nil }

// Dialect returns the dialect of the driver we started the transaction from.
func (tx *txDriver) Dialect() string { return tx.drv.Dialect() }

// Close is a nop close.
func (*txDriver) Close() error { return nil }

// Commit is a nop commit for the internal API.
// The real commit happens in Tx.Commit.
func (*txDriver) Commit() error { return nil }

// Rollback is a nop rollback for the internal API.
// The real rollback happens in Tx.Rollback.
func (*txDriver) Rollback() error { return nil }

// Exec calls tx.Exec.
func (tx *txDriver) Exec(ctx context.Context, query string, args, v any) error {
	return tx.tx.Exec(ctx, query, args, v)
}

// Query calls tx.Query.
func (tx *txDriver) Query(ctx context.Context, query string, args, v any) error {
	return tx.tx.Query(ctx, query, args, v)
}

func (tx *txDriver) wrote(t *schema.Table) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	for _, w := range tx.tables {
		if w == t {
			return
		}
	}
	tx.tables = append(tx.tables, t)
}

func (tx *txDriver) written() []*schema.Table {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return append([]*schema.Table(nil), tx.tables...)
}

var (
	_ dialect.Driver = (*txDriver)(nil)
	_ dialect.Tx     = (*txDriver)(nil)

	errNotInTx = errors.New("orm: not in a transaction")
)
