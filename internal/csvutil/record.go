package csvutil

import "github.com/go-faster/jx"

// Record is one logical row: column names in first-seen order mapped to values.
// The zero value is not usable; call NewRecord.
type Record struct {
	names  []string
	values map[string]Value
}

func NewRecord() *Record {
	return &Record{values: make(map[string]Value)}
}

// RecordOf builds a record from alternating name, value pairs where every
// value is converted with Of. It panics on an odd argument count or an
// unconvertible value, so it is meant for literals.
func RecordOf(pairs ...any) *Record {
	if len(pairs)%2 != 0 {
		panic("csvutil: RecordOf needs name/value pairs")
	}
	r := NewRecord()
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic("csvutil: RecordOf name must be a string")
		}
		v, err := Of(pairs[i+1])
		if err != nil {
			panic(err)
		}
		r.Set(name, v)
	}
	return r
}

// Set stores v under name. A new name is appended after the existing ones; an
// existing name keeps its position.
func (r *Record) Set(name string, v Value) *Record {
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = v
	return r
}

// SetString is shorthand for Set(name, String(s)).
func (r *Record) SetString(name, s string) *Record {
	return r.Set(name, String(s))
}

func (r *Record) Get(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Lookup returns the value under name or a *MissingColumnError listing the
// record's columns.
func (r *Record) Lookup(name string) (Value, error) {
	v, ok := r.values[name]
	if !ok {
		return Value{}, &MissingColumnError{Column: name, Available: r.Names()}
	}
	return v, nil
}

// Names returns a copy of the column names in order.
func (r *Record) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

func (r *Record) Len() int { return len(r.names) }

// Strings returns the flattened text of every column.
func (r *Record) Strings() map[string]string {
	out := make(map[string]string, len(r.names))
	for _, name := range r.names {
		out[name] = r.values[name].String()
	}
	return out
}

// MarshalJSON encodes the record as a JSON object in column order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var e jx.Encoder
	r.encode(&e)
	return e.Bytes(), nil
}

func (r *Record) encode(e *jx.Encoder) {
	e.ObjStart()
	for _, name := range r.names {
		e.FieldStart(name)
		r.values[name].encode(e)
	}
	e.ObjEnd()
}
