package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// WriteOptions configures a Writer. The zero value writes '|' delimited UTF-8
// without sharding.
type WriteOptions struct {
	// Delimiter is the field separator (default '|').
	Delimiter rune

	// Encoding is the output text encoding (default "utf-8").
	Encoding string

	// UseCRLF ends rows with \r\n instead of \n.
	UseCRLF bool

	// MaxFieldSize and UseMaxSize apply when the staging file is read back
	// during a schema rewrite. See ReadOptions.
	MaxFieldSize int
	UseMaxSize   bool

	// ShardSize stops the write after this many rows and reports More when
	// it does. Zero disables sharding.
	ShardSize int

	// ShardNum labels progress messages only.
	ShardNum int

	// TempDir holds staging files (default os.TempDir()).
	TempDir string

	Logger *slog.Logger
}

func (o WriteOptions) delimiter() rune {
	if o.Delimiter == 0 {
		return DefaultDelimiter
	}
	return o.Delimiter
}

func (o WriteOptions) encoding() string {
	if o.Encoding == "" {
		return DefaultWriteEncoding
	}
	return o.Encoding
}

func (o WriteOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Result describes one finished write.
type Result struct {
	// Path is the written file. Empty when the source had no records.
	Path string

	// Rows counts data rows, excluding the header.
	Rows int

	// More is set when a shard filled up before the source was exhausted.
	More bool

	// Rewritten is set when columns appeared after the first row and the
	// file went through the second, header-fixing pass.
	Rewritten bool
}

// Writer serializes record sources to delimited files, growing the header as
// new columns show up.
type Writer struct {
	opts WriteOptions
	read func(path string, opts ReadOptions) (*Rows, error)
}

func NewWriter(opts WriteOptions) *Writer {
	return &Writer{opts: opts, read: Read}
}

// Write drains src into dest with a Writer configured by opts.
func Write(dest string, src Source, opts WriteOptions) (Result, error) {
	return NewWriter(opts).Write(dest, src)
}

// Write pulls records from src and writes them to dest.
//
// Rows go to a staging file first. When no column appears after the first
// record, the staging file is moved to dest unchanged. Otherwise it is read
// back with the final column list and rewritten so the header covers every
// column; earlier rows get empty cells for the late columns.
//
// An empty dest keeps the output at a generated temporary path, returned in
// Result.Path. With ShardSize set the output always goes to such a path and
// the write stops after ShardSize rows; the caller calls Write again with the
// same src while Result.More is true. An empty src is not an error: nothing
// is created and the zero Result is returned.
//
// If src or the file system fails mid-write the error is returned as-is and
// the staging file is left where it is.
func (w *Writer) Write(dest string, src Source) (Result, error) {
	opts := w.opts
	logger := opts.logger()

	if opts.ShardSize < 0 {
		return Result{}, fmt.Errorf("csvutil: negative shard size %d", opts.ShardSize)
	}
	if err := CheckEncoding(opts.encoding()); err != nil {
		return Result{}, err
	}

	first, err := src.Next()
	if err == io.EOF {
		if opts.ShardSize > 0 {
			logger.Info("no lines left for shard", "shard", opts.ShardNum)
		} else {
			logger.Info("no lines to write", "dest", dest)
		}
		return Result{}, nil
	}
	if err != nil {
		return Result{}, err
	}

	schema := NewSchema(first.names)
	f, err := createStaging(opts.TempDir)
	if err != nil {
		return Result{}, err
	}
	staging := f.Name()
	out, err := newRowWriter(f, opts)
	if err != nil {
		return Result{}, err
	}

	logger.Debug("writing csv", "staging", staging, "shard", opts.ShardNum)

	if err := out.write(schema.Columns()); err != nil {
		out.abort()
		return Result{}, err
	}
	row := schema.Row(first, nil)
	if err := out.write(row); err != nil {
		out.abort()
		return Result{}, err
	}
	count := 1

	for !w.shardFull(count) {
		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			out.abort()
			return Result{}, err
		}
		if added := schema.Observe(rec); added > 0 {
			logger.Debug("new columns", "added", added, "columns", schema.Len(), "row", count+1)
		}
		row = schema.Row(rec, row)
		if err := out.write(row); err != nil {
			out.abort()
			return Result{}, err
		}
		count++
	}
	if err := out.close(); err != nil {
		return Result{}, err
	}

	res := Result{Rows: count, More: w.shardFull(count)}
	target := dest
	if opts.ShardSize > 0 {
		target = ""
	}
	res.Path, res.Rewritten, err = w.finish(staging, target, schema)
	if err != nil {
		return Result{}, err
	}

	if opts.ShardSize > 0 {
		logger.Info("wrote csv shard", "shard", opts.ShardNum, "rows", res.Rows, "path", res.Path, "more", res.More)
	} else {
		logger.Info("wrote csv file", "path", res.Path, "rows", res.Rows)
	}
	return res, nil
}

func (w *Writer) shardFull(count int) bool {
	return w.opts.ShardSize > 0 && count >= w.opts.ShardSize
}

// finish puts the staging file in its final place and returns that path.
func (w *Writer) finish(staging, dest string, schema *Schema) (string, bool, error) {
	if !schema.Grown() {
		if dest == "" {
			return staging, false, nil
		}
		if err := MoveFile(staging, dest); err != nil {
			return "", false, err
		}
		return dest, false, nil
	}

	path, err := w.rewrite(staging, dest, schema.Columns())
	if err != nil {
		return "", false, err
	}
	if err := os.Remove(staging); err != nil {
		return "", false, err
	}
	return path, true, nil
}

// rewrite copies the staging rows under the final header into dest, or into
// a fresh staging file when dest is empty.
func (w *Writer) rewrite(staging, dest string, columns []string) (string, error) {
	opts := w.opts
	rows, err := w.read(staging, ReadOptions{
		Delimiter:    opts.delimiter(),
		Header:       columns,
		Encoding:     opts.encoding(),
		MaxFieldSize: opts.MaxFieldSize,
		UseMaxSize:   opts.UseMaxSize,
	})
	if err != nil {
		return "", err
	}
	defer rows.Close()

	// The stale header comes back as the first record.
	if _, err := rows.Next(); err != nil {
		return "", err
	}

	var f *os.File
	if dest == "" {
		f, err = createStaging(opts.TempDir)
	} else {
		f, err = os.Create(dest)
	}
	if err != nil {
		return "", err
	}
	out, err := newRowWriter(f, opts)
	if err != nil {
		return "", err
	}
	if err := out.write(columns); err != nil {
		out.abort()
		return "", err
	}

	schema := NewSchema(columns)
	var row []string
	for {
		rec, err := rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			out.abort()
			return "", err
		}
		row = schema.Row(rec, row)
		if err := out.write(row); err != nil {
			out.abort()
			return "", err
		}
	}
	if err := out.close(); err != nil {
		return "", err
	}
	return f.Name(), nil
}

// rowWriter is the encoder and CSV codec stacked on one output file.
type rowWriter struct {
	file *os.File
	enc  io.WriteCloser
	cw   *csv.Writer
	crlf bool
}

func newRowWriter(f *os.File, opts WriteOptions) (*rowWriter, error) {
	enc, err := encodeWriter(f, opts.encoding())
	if err != nil {
		f.Close()
		return nil, err
	}
	cw := csv.NewWriter(enc)
	cw.Comma = opts.delimiter()
	cw.UseCRLF = opts.UseCRLF
	return &rowWriter{file: f, enc: enc, cw: cw, crlf: opts.UseCRLF}, nil
}

func (w *rowWriter) write(cells []string) error {
	// encoding/csv writes a lone empty cell as a blank line, which readers
	// skip. Quote it so the row survives a round trip.
	if len(cells) == 1 && cells[0] == "" {
		w.cw.Flush()
		if err := w.cw.Error(); err != nil {
			return err
		}
		line := "\"\"\n"
		if w.crlf {
			line = "\"\"\r\n"
		}
		_, err := io.WriteString(w.enc, line)
		return err
	}
	return w.cw.Write(cells)
}

func (w *rowWriter) close() error {
	w.cw.Flush()
	err := w.cw.Error()
	if cerr := w.enc.Close(); err == nil {
		err = cerr
	}
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// abort releases the file handle without removing the file.
func (w *rowWriter) abort() {
	w.file.Close()
}
