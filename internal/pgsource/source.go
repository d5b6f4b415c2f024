// Package pgsource streams the rows of a PostgreSQL query as csvutil records.
package pgsource

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/csvutil/internal/csvutil"
)

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Source is a csvutil.Source over an open result set. It holds a
// connection until it is exhausted or closed.
type Source struct {
	rows  pgx.Rows
	names []string
	count int
	done  bool
}

var _ csvutil.Source = (*Source)(nil)

// Query runs sql and returns its rows as a record source. Columns keep the
// order of the select list.
func Query(ctx context.Context, q Querier, sql string, args ...any) (*Source, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return FromRows(rows), nil
}

// FromRows wraps an already executed query.
func FromRows(rows pgx.Rows) *Source {
	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, fd := range fields {
		names[i] = fd.Name
	}
	return &Source{rows: rows, names: names}
}

// Columns returns the result column names.
func (s *Source) Columns() []string {
	return append([]string(nil), s.names...)
}

// Rows returns the number of records produced so far.
func (s *Source) Rows() int { return s.count }

// Next returns the next row as a record, or io.EOF after the last row.
func (s *Source) Next() (*csvutil.Record, error) {
	if s.done {
		return nil, io.EOF
	}
	if !s.rows.Next() {
		s.done = true
		s.rows.Close()
		if err := s.rows.Err(); err != nil {
			return nil, fmt.Errorf("read row %d: %w", s.count+1, err)
		}
		return nil, io.EOF
	}

	vals, err := s.rows.Values()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("decode row %d: %w", s.count+1, err)
	}

	rec := csvutil.NewRecord()
	for i, name := range s.names {
		var raw any
		if i < len(vals) {
			raw = vals[i]
		}
		v, err := convert(raw)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("column %q row %d: %w", name, s.count+1, err)
		}
		rec.Set(name, v)
	}
	s.count++
	return rec, nil
}

// Close releases the result set. It is safe to call more than once.
func (s *Source) Close() {
	s.done = true
	s.rows.Close()
}

// convert maps the Go values pgx decodes into csvutil values. uuid columns
// arrive as raw [16]byte; everything else is handled by csvutil.Of, which
// covers json (maps and slices), arrays, timestamps and pgtype values
// through driver.Valuer.
func convert(v any) (csvutil.Value, error) {
	switch x := v.(type) {
	case [16]byte:
		return csvutil.String(uuid.UUID(x).String()), nil
	case []any:
		items := make([]csvutil.Value, len(x))
		for i, item := range x {
			iv, err := convert(item)
			if err != nil {
				return csvutil.Value{}, err
			}
			items[i] = iv
		}
		return csvutil.List(items...), nil
	}
	return csvutil.Of(v)
}
