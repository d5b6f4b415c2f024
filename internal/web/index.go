package web

import (
	"errors"
	"fmt"
	"sort"

	"github.com/JonMunkholm/csvutil/internal/csvutil"
)

// ErrKeyNotFound is returned for lookups of keys absent from the index.
var ErrKeyNotFound = errors.New("key not found")

// ErrNoValueColumn is returned for value lookups on an index built without
// a value column.
var ErrNoValueColumn = errors.New("index has no value column")

// Index holds one CSV file keyed by a column. Rows keep the last row per
// key; Values keeps every value of the value column per key, in file order.
type Index struct {
	Path   string
	Key    string
	Value  string
	rows   map[string]*csvutil.Record
	values map[string][]string
	keys   []string
}

// LoadIndex reads path and indexes it by key. When value is non-empty the
// values of that column are grouped per key as well.
func LoadIndex(path, key, value string, opts csvutil.ReadOptions) (*Index, error) {
	rows, err := csvutil.IndexRows(path, key, opts)
	if err != nil {
		return nil, fmt.Errorf("index rows of %s: %w", path, err)
	}
	idx := &Index{Path: path, Key: key, Value: value, rows: rows}

	if value != "" {
		idx.values, err = csvutil.IndexGroups(path, key, value, opts)
		if err != nil {
			return nil, fmt.Errorf("index values of %s: %w", path, err)
		}
	}

	idx.keys = make([]string, 0, len(rows))
	for k := range rows {
		idx.keys = append(idx.keys, k)
	}
	sort.Strings(idx.keys)
	return idx, nil
}

// Len returns the number of distinct keys.
func (x *Index) Len() int { return len(x.keys) }

// Keys returns up to limit keys in sorted order starting at offset. A
// non-positive limit returns everything after offset.
func (x *Index) Keys(offset, limit int) []string {
	if offset >= len(x.keys) {
		return []string{}
	}
	end := len(x.keys)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return x.keys[offset:end]
}

// Row returns the last row stored under key.
func (x *Index) Row(key string) (*csvutil.Record, error) {
	rec, ok := x.rows[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	return rec, nil
}

// Values returns every value seen for key.
func (x *Index) Values(key string) ([]string, error) {
	if x.Value == "" {
		return nil, ErrNoValueColumn
	}
	vals, ok := x.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	return vals, nil
}
