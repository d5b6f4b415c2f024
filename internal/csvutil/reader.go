package csvutil

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"os"
)

const (
	// DefaultDelimiter separates fields when no delimiter is configured.
	DefaultDelimiter = '|'
	// DefaultMaxFieldSize is the largest cell, in bytes, a reader accepts
	// unless UseMaxSize lifts the limit.
	DefaultMaxFieldSize = 1024000
)

// ReadOptions configures Read. The zero value reads a '|' delimited UTF-8
// file whose first line is the header.
type ReadOptions struct {
	// Delimiter is the field separator (default '|').
	Delimiter rune

	// Header names the columns explicitly. When nil the first line after
	// SkipLines is the header.
	Header []string

	// SkipLines is the number of leading physical lines ignored entirely.
	SkipLines int

	// Encoding is the text encoding of the file (default "utf-8-sig").
	Encoding string

	// Fields projects every record onto these columns, in this order.
	Fields []string

	// MaxFieldSize overrides DefaultMaxFieldSize.
	MaxFieldSize int

	// UseMaxSize removes the field size limit. Only for inputs known to
	// carry huge cells.
	UseMaxSize bool

	// Sanitize replaces invalid UTF-8 bytes with '?' instead of passing them through.
	Sanitize bool
}

func (o ReadOptions) delimiter() rune {
	if o.Delimiter == 0 {
		return DefaultDelimiter
	}
	return o.Delimiter
}

func (o ReadOptions) fieldLimit() int {
	switch {
	case o.UseMaxSize:
		return 0
	case o.MaxFieldSize > 0:
		return o.MaxFieldSize
	default:
		return DefaultMaxFieldSize
	}
}

// Rows is a forward-only, single-pass stream of records from one file. The
// file is opened by the first call to Next and closed once the stream ends or
// fails. A drained Rows keeps returning io.EOF; to read the file again call
// Read again.
type Rows struct {
	path string
	opts ReadOptions

	started bool
	file    *os.File
	counter *CountingReader
	cr      *csv.Reader
	header  []string
	index   map[string]int
	err     error
}

// Read prepares a record stream over path. Option errors are reported here;
// I/O errors, including a missing file, come from the first Next.
func Read(path string, opts ReadOptions) (*Rows, error) {
	if opts.SkipLines < 0 {
		return nil, fmt.Errorf("csvutil: negative skip line count %d", opts.SkipLines)
	}
	if opts.Encoding == "" {
		opts.Encoding = DefaultReadEncoding
	}
	if err := CheckEncoding(opts.Encoding); err != nil {
		return nil, err
	}
	if opts.Fields != nil {
		seen := make(map[string]bool, len(opts.Fields))
		for _, name := range opts.Fields {
			if name == "" {
				return nil, fmt.Errorf("%w: empty column name", ErrInvalidProjection)
			}
			if seen[name] {
				return nil, fmt.Errorf("%w: column %q listed twice", ErrInvalidProjection, name)
			}
			seen[name] = true
		}
		opts.Fields = append([]string(nil), opts.Fields...)
	}
	if opts.Header != nil {
		opts.Header = append([]string(nil), opts.Header...)
	}
	return &Rows{path: path, opts: opts}, nil
}

// Next returns the next record, or io.EOF once the file is exhausted.
func (r *Rows) Next() (*Record, error) {
	if r.err != nil {
		return nil, r.err
	}
	if !r.started {
		r.started = true
		if err := r.start(); err != nil {
			return nil, r.fail(err)
		}
		if r.header == nil {
			return nil, r.fail(io.EOF)
		}
	}

	cells, err := r.cr.Read()
	if err != nil {
		return nil, r.fail(err)
	}
	if err := r.checkCells(cells); err != nil {
		return nil, r.fail(err)
	}

	rec := NewRecord()
	if r.opts.Fields == nil {
		for i, name := range r.header {
			rec.Set(name, cell(cells, i))
		}
		return rec, nil
	}
	for _, name := range r.opts.Fields {
		i, ok := r.index[name]
		if !ok {
			return nil, r.fail(&MissingColumnError{Column: name, Available: r.Header()})
		}
		rec.Set(name, cell(cells, i))
	}
	return rec, nil
}

// cell returns the i-th cell, or Null for a short row.
func cell(cells []string, i int) Value {
	if i < len(cells) {
		return String(cells[i])
	}
	return Null()
}

// All adapts the stream to a range-over-func loop. Iteration resumes from
// the current position, so breaking out and ranging again continues the
// stream instead of restarting it.
func (r *Rows) All() iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		for {
			rec, err := r.Next()
			if err == io.EOF {
				return
			}
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

// Header returns the column names in effect, or nil before the first Next.
func (r *Rows) Header() []string {
	if r.header == nil {
		return nil
	}
	return append([]string(nil), r.header...)
}

// BytesRead reports how many raw bytes have been pulled from the file.
func (r *Rows) BytesRead() int64 {
	if r.counter == nil {
		return 0
	}
	return r.counter.BytesRead
}

// Close releases the file early. It is safe to call more than once.
func (r *Rows) Close() error {
	if r.err == nil {
		r.err = io.EOF
	}
	return r.closeFile()
}

func (r *Rows) start() error {
	f, err := os.Open(r.path)
	if err != nil {
		return err
	}
	r.file = f
	r.counter = NewCountingReader(f)

	src, err := decodeReader(r.counter, r.opts.Encoding)
	if err != nil {
		return err
	}
	src = NewNulStrippingReader(src)
	if r.opts.Sanitize {
		src = NewUTF8Sanitizer(src)
	}

	br := bufio.NewReader(src)
	for i := 0; i < r.opts.SkipLines; i++ {
		if err := skipLine(br); err == io.EOF {
			break
		} else if err != nil {
			return err
		}
	}

	r.cr = csv.NewReader(br)
	r.cr.Comma = r.opts.delimiter()
	r.cr.FieldsPerRecord = -1
	r.cr.LazyQuotes = true
	r.cr.ReuseRecord = true

	header := r.opts.Header
	if header == nil {
		first, err := r.cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := r.checkSize(first); err != nil {
			return err
		}
		header = append([]string(nil), first...)
	}
	r.header = header
	r.index = make(map[string]int, len(header))
	for i, name := range header {
		r.index[name] = i
	}
	return nil
}

func (r *Rows) checkCells(cells []string) error {
	if err := r.checkSize(cells); err != nil {
		return err
	}
	if len(cells) > len(r.header) {
		line, _ := r.cr.FieldPos(len(r.header))
		return &ParseError{Path: r.path, Line: line + r.opts.SkipLines, Field: len(r.header) + 1, Err: ErrTooManyFields}
	}
	return nil
}

func (r *Rows) checkSize(cells []string) error {
	limit := r.opts.fieldLimit()
	if limit <= 0 {
		return nil
	}
	for i, c := range cells {
		if len(c) > limit {
			line, _ := r.cr.FieldPos(i)
			return &ParseError{Path: r.path, Line: line + r.opts.SkipLines, Field: i + 1, Err: ErrFieldTooLarge}
		}
	}
	return nil
}

func (r *Rows) fail(err error) error {
	r.err = err
	r.closeFile()
	return err
}

func (r *Rows) closeFile() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// skipLine discards one physical line, however long.
func skipLine(br *bufio.Reader) error {
	for {
		_, err := br.ReadSlice('\n')
		if err != bufio.ErrBufferFull {
			return err
		}
	}
}
