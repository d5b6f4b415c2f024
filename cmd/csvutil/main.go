// Command csvutil converts, shards, indexes and serves delimited files.
//
//	csvutil convert -in orders.csv -out orders.tsv -out-delim '\t'
//	csvutil convert -in big.csv -shard-size 100000 -shard-dir shards/
//	csvutil index -in stock.csv -key sku -value warehouse -group
//	csvutil export -query 'select * from orders' -shard-size 50000 -upload
//	csvutil serve -in stock.csv -key sku
//
// Defaults come from the environment (and a .env file); flags override them.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/csvutil/internal/config"
	"github.com/JonMunkholm/csvutil/internal/logging"
)

func main() {
	// Overload lets a local .env win over inherited variables.
	envErr := godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	if envErr != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

const usage = `usage: csvutil <command> [flags]

commands:
  convert   rewrite a file with new delimiter, encoding or columns, optionally sharded
  index     print a key -> row / value / values map as JSON
  export    write the result of a PostgreSQL query as CSV
  serve     answer key lookups over HTTP

run "csvutil <command> -h" for command flags`

// run dispatches one subcommand. Command output goes to stdout; logs go to
// the default logger.
func run(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command\n%s", usage)
	}

	switch args[0] {
	case "convert":
		return runConvert(ctx, cfg, args[1:], stdout)
	case "index":
		return runIndex(ctx, cfg, args[1:], stdout)
	case "export":
		return runExport(ctx, cfg, args[1:], stdout)
	case "serve":
		return runServe(ctx, cfg, args[1:])
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}
