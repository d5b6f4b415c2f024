package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"

	"github.com/JonMunkholm/csvutil/internal/config"
	"github.com/JonMunkholm/csvutil/internal/csvutil"
	"github.com/JonMunkholm/csvutil/internal/pgsource"
	"github.com/JonMunkholm/csvutil/internal/pipeline"
	"github.com/JonMunkholm/csvutil/internal/shardstore"
	"github.com/JonMunkholm/csvutil/internal/web"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func runConvert(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	var rf readFlags
	var wf writeFlags
	rf.register(fs, &cfg.CSV)
	wf.register(fs, &cfg.CSV)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ropts, err := rf.options(&cfg.CSV)
	if err != nil {
		return err
	}
	wopts, err := wf.options(&cfg.CSV)
	if err != nil {
		return err
	}

	if wopts.ShardSize == 0 {
		res, err := pipeline.Convert(ctx, rf.in, wf.out, ropts, wopts)
		if err != nil {
			return err
		}
		return printResult(stdout, res)
	}

	rows, err := csvutil.Read(rf.in, ropts)
	if err != nil {
		return err
	}
	defer rows.Close()
	return writeShards(ctx, cfg, rows, wopts, &wf, stdout)
}

func runIndex(_ context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("index", flag.ContinueOnError)
	var rf readFlags
	rf.register(fs, &cfg.CSV)
	key := fs.String("key", "", "key column (required)")
	value := fs.String("value", "", "value column; empty maps keys to whole rows")
	group := fs.Bool("group", false, "collect every value per key instead of the last one")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *key == "" {
		return fmt.Errorf("-key is required")
	}
	if *group && *value == "" {
		return fmt.Errorf("-group needs -value")
	}
	ropts, err := rf.options(&cfg.CSV)
	if err != nil {
		return err
	}

	var out any
	switch {
	case *value == "":
		out, err = csvutil.IndexRows(rf.in, *key, ropts)
	case *group:
		out, err = csvutil.IndexGroups(rf.in, *key, *value, ropts)
	default:
		out, err = csvutil.IndexValues(rf.in, *key, *value, ropts)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}

func runExport(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	var wf writeFlags
	wf.register(fs, &cfg.CSV)
	query := fs.String("query", "", "SQL query whose rows are exported (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *query == "" {
		return fmt.Errorf("-query is required")
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required for export")
	}
	wopts, err := wf.options(&cfg.CSV)
	if err != nil {
		return err
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	if cfg.Database.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Database.QueryTimeout)
		defer cancel()
	}

	src, err := pgsource.Query(ctx, pool, *query)
	if err != nil {
		return err
	}
	defer src.Close()

	if wopts.ShardSize == 0 {
		res, err := csvutil.Write(wf.out, src, wopts)
		if err != nil {
			return err
		}
		return printResult(stdout, res)
	}
	return writeShards(ctx, cfg, src, wopts, &wf, stdout)
}

func runServe(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	var rf readFlags
	rf.register(fs, &cfg.CSV)
	key := fs.String("key", "", "key column (required)")
	value := fs.String("value", "", "value column served by /api/values/{key}")
	addr := fs.String("addr", cfg.Server.Addr(), "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *key == "" {
		return fmt.Errorf("-key is required")
	}
	ropts, err := rf.options(&cfg.CSV)
	if err != nil {
		return err
	}

	idx, err := web.LoadIndex(rf.in, *key, *value, ropts)
	if err != nil {
		return err
	}

	serverCfg := cfg.Server
	host, port, err := net.SplitHostPort(*addr)
	if err != nil {
		return fmt.Errorf("-addr: %w", err)
	}
	serverCfg.Host = host
	if serverCfg.Port, err = strconv.Atoi(port); err != nil {
		return fmt.Errorf("-addr: bad port %q", port)
	}
	server := web.NewServer(idx, serverCfg)

	go func() {
		<-ctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("server stopped")
	return nil
}

// writeShards runs the shard loop into local files or the object store and
// prints one line per shard.
func writeShards(ctx context.Context, cfg *config.Config, src csvutil.Source, wopts csvutil.WriteOptions, wf *writeFlags, stdout io.Writer) error {
	var sink pipeline.Sink = pipeline.DirSink{Dir: wf.shardDir, Base: wf.base}
	if wf.upload {
		if !cfg.Store.Enabled() {
			return fmt.Errorf("-upload needs STORE_ENDPOINT")
		}
		store, err := shardstore.NewFromConfig(cfg.Store, wf.base)
		if err != nil {
			return err
		}
		sink = store
	}

	shards, err := pipeline.RunShards(ctx, src, wopts, sink)
	for _, s := range shards {
		fmt.Fprintf(stdout, "%s\t%d\n", s.Location, s.Rows)
	}
	return err
}

func printResult(w io.Writer, res csvutil.Result) error {
	if res.Path == "" {
		slog.Info("nothing written")
		return nil
	}
	_, err := fmt.Fprintf(w, "%s\t%d\n", res.Path, res.Rows)
	return err
}
