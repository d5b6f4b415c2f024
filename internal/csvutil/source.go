package csvutil

import (
	"io"
	"iter"
)

// Source produces records one at a time. Next returns io.EOF once the
// source is exhausted. A Source that stopped early (for example at a shard
// boundary) continues where it left off on the following call.
type Source interface {
	Next() (*Record, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (*Record, error)

func (f SourceFunc) Next() (*Record, error) { return f() }

// Records returns a Source over a fixed list of records.
func Records(recs ...*Record) Source {
	i := 0
	return SourceFunc(func() (*Record, error) {
		if i >= len(recs) {
			return nil, io.EOF
		}
		rec := recs[i]
		i++
		return rec, nil
	})
}

// FromSeq pulls records from a range-over-func sequence. The returned stop
// function must be called when the caller is done with the source.
func FromSeq(seq iter.Seq2[*Record, error]) (Source, func()) {
	next, stop := iter.Pull2(seq)
	return SourceFunc(func() (*Record, error) {
		rec, err, ok := next()
		if !ok {
			return nil, io.EOF
		}
		return rec, err
	}), stop
}
