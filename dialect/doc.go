// Package dialect provides the database dialect abstraction consumed by the
// relic query engine.
//
// The engine never talks to a database directly. It compiles statements into
// SQL text plus positional arguments and hands them to a Driver, which is the
// only blocking collaborator in the pipeline.
//
// # Supported Dialects
//
//   - Postgres: PostgreSQL database ($1, $2, ... placeholders)
//   - MySQL: MySQL/MariaDB database (? placeholders, backtick identifiers)
//   - SQLite: SQLite database (? placeholders)
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Usage
//
//	import (
//	    "github.com/syssam/relic/dialect"
//	    "github.com/syssam/relic/dialect/sql"
//	)
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
//	client := orm.NewClient(drv, registry)
//
// # Sub-packages
//
//   - dialect/sql: statement builder, expression algebra and database/sql driver
//   - dialect/sql/sqlgraph: alias resolution, join planning and row hydration
package dialect
