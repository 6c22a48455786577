package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/syssam/relic/dialect"
	"github.com/syssam/relic/dialect/sql"
	"github.com/syssam/relic/orm"
	"github.com/syssam/relic/schema"
	"github.com/syssam/relic/schema/load"
)

// queryFlags are the flags describing a query, shared by sql and run.
type queryFlags struct {
	schema         string
	table          string
	preload        []string
	where          []string
	order          []string
	limit          int
	offset         int
	includeDeleted bool
	count          bool
}

func (f *queryFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.schema, "schema", "schema.yaml", "YAML schema file")
	fs.StringVar(&f.table, "table", "", "root table of the query")
	fs.StringSliceVar(&f.preload, "preload", nil, "relationship paths to preload, e.g. author,reviews")
	fs.StringArrayVar(&f.where, "where", nil, "lookup filter key=value, e.g. title__icontains=go (repeatable)")
	fs.StringSliceVar(&f.order, "order", nil, "ordering terms, a leading minus sorts descending, e.g. -id")
	fs.IntVar(&f.limit, "limit", 0, "maximum number of root records")
	fs.IntVar(&f.offset, "offset", 0, "number of root records to skip")
	fs.BoolVar(&f.includeDeleted, "include-deleted", false, "include soft-deleted rows")
	fs.BoolVar(&f.count, "count", false, "count the root records instead of selecting them")
	_ = cmd.MarkFlagRequired("table")
}

func (f *queryFlags) mode() orm.Mode {
	if f.count {
		return orm.ModeCount
	}
	return orm.ModeSelect
}

// registry loads the schema file.
func (f *queryFlags) registry() (*schema.Registry, error) {
	return load.Path(f.schema)
}

// apply adds the flags to q.
func (f *queryFlags) apply(q *orm.Query) (*orm.Query, error) {
	lookups, err := parseWhere(f.where)
	if err != nil {
		return nil, err
	}
	if len(lookups) > 0 {
		q.Filter(lookups)
	}
	if len(f.preload) > 0 {
		q.Preload(f.preload...)
	}
	for _, term := range f.order {
		o, err := sql.ParseOrder(strings.TrimSpace(term))
		if err != nil {
			return nil, err
		}
		q.OrderBy(o)
	}
	if f.limit > 0 {
		q.Limit(f.limit)
	}
	if f.offset > 0 {
		q.Offset(f.offset)
	}
	if f.includeDeleted {
		q.IncludeDeleted()
	}
	return q, q.Err()
}

// parseWhere parses key=value filters. Values are YAML scalars or flow
// sequences: 10, true, null, [1, 2].
func parseWhere(filters []string) (map[string]any, error) {
	lookups := make(map[string]any, len(filters))
	for _, w := range filters {
		key, raw, ok := strings.Cut(w, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q, expect key=value", w)
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("filter %q: %w", w, err)
		}
		if _, ok := lookups[key]; ok {
			return nil, fmt.Errorf("duplicate filter %q", key)
		}
		lookups[key] = v
	}
	return lookups, nil
}

func sqlCmd() *cobra.Command {
	var (
		f           queryFlags
		dialectName string
	)
	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Print the SQL statement of a query",
		Example: `  relic sql --schema schema.yaml --table Book --preload author --where title__icontains=go
  relic sql --table Author --where books__pages__gte=300 --count --dialect mysql`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := f.registry()
			if err != nil {
				return err
			}
			t, ok := reg.Table(f.table)
			if !ok {
				return fmt.Errorf("unknown table %q", f.table)
			}
			q, err := f.apply(orm.NewQuery(t, dialectName))
			if err != nil {
				return err
			}
			st, err := q.Compile(f.mode())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, st.SQL)
			if len(st.Args) > 0 {
				fmt.Fprintf(out, "-- args: %v\n", st.Args)
			}
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&dialectName, "dialect", dialect.Postgres, "SQL dialect: postgres, mysql or sqlite")
	return cmd
}

func runCmd() *cobra.Command {
	var (
		f      queryFlags
		driver string
		dsn    string
		stats  bool
		debug  bool
		slow   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a query and print the records as JSON",
		Example: `  relic run --schema schema.yaml --table Book --preload author --driver sqlite --dsn lib.db
  relic run --table Book --count --driver postgres --dsn "$DATABASE_URL" --stats`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := f.registry()
			if err != nil {
				return err
			}
			if dsn == "" {
				return errors.New("missing --dsn")
			}
			level := slog.LevelWarn
			if debug {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			drv, err := open(driver, dsn)
			if err != nil {
				return err
			}
			var (
				d  dialect.Driver = drv
				sd *sql.StatsDriver
			)
			if stats {
				sd = sql.NewStatsDriver(d, sql.WithSlowThreshold(slow), sql.WithSlowQueryLog(logger))
				d = sd
			}
			if debug {
				d = sql.NewDebugDriver(d, sql.DebugWithLogger(logger), sql.DebugWithLevel(slog.LevelDebug))
			}
			client := orm.NewClient(d, reg, orm.WithLogger(logger))
			defer client.Close()

			q, err := f.apply(client.Query(f.table))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			ctx := cmd.Context()
			if f.count {
				n, err := q.Count(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, n)
			} else {
				records, err := q.All(ctx)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(records); err != nil {
					return err
				}
			}
			if sd != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), sd.QueryStats().Stats())
			}
			return nil
		},
	}
	f.register(cmd)
	fs := cmd.Flags()
	fs.StringVar(&driver, "driver", dialect.SQLite, "database driver: sqlite, postgres or mysql")
	fs.StringVar(&dsn, "dsn", os.Getenv("DATABASE_URL"), "data source name (default $DATABASE_URL)")
	fs.BoolVar(&stats, "stats", false, "print statement statistics to stderr")
	fs.BoolVar(&debug, "debug", false, "log every statement to stderr")
	fs.DurationVar(&slow, "slow", 100*time.Millisecond, "slow statement threshold of --stats")
	return cmd
}

// open opens the database of a supported driver.
func open(driver, dsn string) (*sql.Driver, error) {
	switch driver {
	case dialect.SQLite, dialect.Postgres, dialect.MySQL:
		return sql.Open(driver, dsn)
	}
	return nil, fmt.Errorf("unsupported driver %q", driver)
}
