// Command relic compiles queries against a YAML schema and optionally runs
// them.
//
// Usage:
//
//	relic sql --schema s.yaml --table Book --preload author --where title__icontains=go
//	relic run --schema s.yaml --table Book --driver sqlite --dsn lib.db --stats
//
// Filters use keyword lookups ("author__name=Rob", "pages__gte=100",
// "id__in=[1, 2]"); values are parsed as YAML scalars.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// version is set via ldflags during build: -ldflags="-X main.version=v1.0.0"
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "relic",
		Short:         "Compile and run relational queries against a schema file",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(sqlCmd(), runCmd())
	return cmd
}
