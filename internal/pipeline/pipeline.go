// Package pipeline drives csvutil writes end to end: whole-file conversion
// and sharded output handed to a Sink as each shard completes.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/csvutil/internal/csvutil"
	"github.com/JonMunkholm/csvutil/internal/logging"
)

// Sink takes ownership of a finished shard file. It returns where the shard
// ended up (a path or an object URL).
type Sink interface {
	Put(ctx context.Context, path string, shard int) (string, error)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, path string, shard int) (string, error)

func (f SinkFunc) Put(ctx context.Context, path string, shard int) (string, error) {
	return f(ctx, path, shard)
}

// Shard describes one delivered shard.
type Shard struct {
	Num       int
	Location  string
	Rows      int
	Rewritten bool
}

// RunShards writes src in shards of opts.ShardSize rows until the source is
// exhausted, passing every shard to sink. Shards are numbered from 1.
// Cancellation is checked between shards; a shard already being written
// runs to completion.
//
// When a shard fills exactly at the end of the source the follow-up write
// finds nothing left and the loop stops without delivering an empty shard.
func RunShards(ctx context.Context, src csvutil.Source, opts csvutil.WriteOptions, sink Sink) ([]Shard, error) {
	if opts.ShardSize <= 0 {
		return nil, fmt.Errorf("shard size must be positive, got %d", opts.ShardSize)
	}
	logger := logging.WithFields(ctx, "shard_size", opts.ShardSize)
	if opts.Logger == nil {
		opts.Logger = logger
	}

	var shards []Shard
	total := 0
	for num := 1; ; num++ {
		if err := ctx.Err(); err != nil {
			return shards, fmt.Errorf("operation cancelled: %w", err)
		}

		opts.ShardNum = num
		res, err := csvutil.Write("", src, opts)
		if err != nil {
			return shards, fmt.Errorf("write shard %d: %w", num, err)
		}
		if res.Path == "" {
			break
		}

		loc, err := sink.Put(ctx, res.Path, num)
		if err != nil {
			return shards, fmt.Errorf("deliver shard %d: %w", num, err)
		}
		shards = append(shards, Shard{Num: num, Location: loc, Rows: res.Rows, Rewritten: res.Rewritten})
		total += res.Rows

		if !res.More {
			break
		}
	}

	logger.Info("sharding complete", "shards", len(shards), "rows", total)
	return shards, nil
}

// Convert reads the file at in and writes it to out with the writer
// options, reshaping delimiter, encoding or column projection on the way.
func Convert(ctx context.Context, in, out string, ropts csvutil.ReadOptions, wopts csvutil.WriteOptions) (csvutil.Result, error) {
	if err := ctx.Err(); err != nil {
		return csvutil.Result{}, fmt.Errorf("operation cancelled: %w", err)
	}
	if wopts.Logger == nil {
		wopts.Logger = logging.WithFields(ctx, "input", in)
	}
	wopts.ShardSize = 0

	rows, err := csvutil.Read(in, ropts)
	if err != nil {
		return csvutil.Result{}, err
	}
	defer rows.Close()

	res, err := csvutil.Write(out, rows, wopts)
	if err != nil {
		return csvutil.Result{}, fmt.Errorf("convert %s: %w", filepath.Base(in), err)
	}
	return res, nil
}

// DirSink moves shards into Dir as <Base>-00001.csv, <Base>-00002.csv, ...
type DirSink struct {
	Dir  string
	Base string
}

// ShardName returns the file name of shard num.
func (d DirSink) ShardName(num int) string {
	base := d.Base
	if base == "" {
		base = "shard"
	}
	return fmt.Sprintf("%s-%05d.csv", base, num)
}

func (d DirSink) Put(_ context.Context, path string, num int) (string, error) {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create shard directory: %w", err)
	}
	dest := filepath.Join(d.Dir, d.ShardName(num))
	if err := csvutil.MoveFile(path, dest); err != nil {
		return "", fmt.Errorf("move shard %d: %w", num, err)
	}
	return dest, nil
}
