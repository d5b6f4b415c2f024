package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/csvutil/internal/config"
	"github.com/JonMunkholm/csvutil/internal/csvutil"
)

// readFlags are the input flags shared by convert, index and serve.
type readFlags struct {
	in       string
	delim    string
	encoding string
	header   string
	fields   string
	skip     int
	sanitize bool
	maxSize  bool
}

func (f *readFlags) register(fs *flag.FlagSet, cfg *config.CSVConfig) {
	fs.StringVar(&f.in, "in", "", "input file (required)")
	fs.StringVar(&f.delim, "in-delim", cfg.Delimiter, "input delimiter")
	fs.StringVar(&f.encoding, "in-encoding", cfg.ReadEncoding, "input encoding")
	fs.StringVar(&f.header, "header", "", "comma-separated column names when the file has no header line")
	fs.StringVar(&f.fields, "fields", "", "comma-separated columns to keep, in output order")
	fs.IntVar(&f.skip, "skip", 0, "leading lines to ignore")
	fs.BoolVar(&f.sanitize, "sanitize", false, "replace invalid UTF-8 bytes with '?'")
	fs.BoolVar(&f.maxSize, "maxsize", cfg.UseMaxSize, "lift the field size limit")
}

func (f *readFlags) options(cfg *config.CSVConfig) (csvutil.ReadOptions, error) {
	if f.in == "" {
		return csvutil.ReadOptions{}, fmt.Errorf("-in is required")
	}
	delim, err := parseDelimiter(f.delim)
	if err != nil {
		return csvutil.ReadOptions{}, fmt.Errorf("-in-delim: %w", err)
	}
	opts := cfg.ReadOptions()
	opts.Delimiter = delim
	opts.Encoding = f.encoding
	opts.Header = splitList(f.header)
	opts.Fields = splitList(f.fields)
	opts.SkipLines = f.skip
	opts.Sanitize = f.sanitize
	opts.UseMaxSize = f.maxSize
	return opts, nil
}

// writeFlags are the output flags shared by convert and export.
type writeFlags struct {
	out       string
	delim     string
	encoding  string
	crlf      bool
	shardSize int
	shardDir  string
	base      string
	upload    bool
}

func (f *writeFlags) register(fs *flag.FlagSet, cfg *config.CSVConfig) {
	fs.StringVar(&f.out, "out", "", "output file; empty prints the temporary path")
	fs.StringVar(&f.delim, "out-delim", cfg.Delimiter, "output delimiter")
	fs.StringVar(&f.encoding, "out-encoding", cfg.WriteEncoding, "output encoding")
	fs.BoolVar(&f.crlf, "crlf", cfg.CRLF, "end rows with \\r\\n")
	fs.IntVar(&f.shardSize, "shard-size", cfg.ShardSize, "rows per shard, 0 writes one file")
	fs.StringVar(&f.shardDir, "shard-dir", ".", "directory for local shards")
	fs.StringVar(&f.base, "base", "shard", "shard file name prefix")
	fs.BoolVar(&f.upload, "upload", false, "upload shards to the configured object store")
}

func (f *writeFlags) options(cfg *config.CSVConfig) (csvutil.WriteOptions, error) {
	delim, err := parseDelimiter(f.delim)
	if err != nil {
		return csvutil.WriteOptions{}, fmt.Errorf("-out-delim: %w", err)
	}
	if f.shardSize < 0 {
		return csvutil.WriteOptions{}, fmt.Errorf("-shard-size must be non-negative")
	}
	if f.upload && f.shardSize == 0 {
		return csvutil.WriteOptions{}, fmt.Errorf("-upload needs -shard-size")
	}
	opts := cfg.WriteOptions(nil)
	opts.Delimiter = delim
	opts.Encoding = f.encoding
	opts.UseCRLF = f.crlf
	opts.ShardSize = f.shardSize
	return opts, nil
}

// parseDelimiter accepts a single character or an escape such as \t.
func parseDelimiter(s string) (rune, error) {
	if strings.HasPrefix(s, `\`) {
		u, err := strconv.Unquote(`"` + s + `"`)
		if err != nil {
			return 0, fmt.Errorf("bad escape %q", s)
		}
		s = u
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter %q must be a single character", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
